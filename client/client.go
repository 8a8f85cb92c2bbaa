// Package client is the contact form client: it holds the text the visitor
// typed, strips markup from it and submits it to the contact endpoint.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aerth/folio/contact"
	"github.com/aerth/folio/sanitize"
)

// ContactPath is where the contact endpoint is mounted.
const ContactPath = "/api/contact"

const maxResponseBody = 1 << 20

var ErrNoBaseURL = errors.New("client: no base url")

// Sanitize is the client-side cleanup applied before a message leaves the form.
func Sanitize(input string) string {
	return sanitize.StripTags(input)
}

// Result is what the endpoint answered.
type Result struct {
	Status int
	Body   string
	Errors []contact.ErrorDescriptor
}

// OK reports whether the endpoint accepted the message.
func (r *Result) OK() bool {
	return r.Status == http.StatusOK
}

func (r *Result) String() string {
	if len(r.Errors) > 0 {
		msgs := make([]string, len(r.Errors))
		for i, e := range r.Errors {
			msgs[i] = e.Path + ": " + e.Msg
		}
		return fmt.Sprintf("%d %s", r.Status, strings.Join(msgs, "; "))
	}
	return fmt.Sprintf("%d %s", r.Status, strings.TrimSpace(r.Body))
}

// Client sends messages to a contact endpoint.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Submit sanitizes message and posts it. HTTP level failures (400, 429, ...)
// are reported in the Result, only transport failures return an error.
func (c *Client) Submit(ctx context.Context, message string) (*Result, error) {
	if c.BaseURL == "" {
		return nil, ErrNoBaseURL
	}
	body, err := json.Marshal(map[string]string{"message": Sanitize(message)})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+ContactPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit contact message: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read contact response: %w", err)
	}
	result := &Result{Status: resp.StatusCode, Body: string(b)}
	if resp.StatusCode == http.StatusBadRequest {
		var payload struct {
			Errors []contact.ErrorDescriptor `json:"errors"`
		}
		if json.Unmarshal(b, &payload) == nil {
			result.Errors = payload.Errors
		}
	}
	return result, nil
}

// Form is the in-memory state behind the contact form's text input.
type Form struct {
	Message string
	client  *Client
}

func NewForm(c *Client) *Form {
	return &Form{client: c}
}

// SetMessage binds input to the form state.
func (f *Form) SetMessage(input string) {
	f.Message = input
}

// Submit sends a sanitized copy of the current message. The form state is
// left as typed.
func (f *Form) Submit(ctx context.Context) (*Result, error) {
	return f.client.Submit(ctx, f.Message)
}
