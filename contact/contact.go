// Package contact validates contact form submissions.
//
// Messages are trimmed and HTML-escaped before any rule runs, so a valid
// Message never carries unescaped markup.
package contact

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/aerth/folio/sanitize"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

// DefaultErrorMsg is the msg carried by every field error descriptor.
const DefaultErrorMsg = "Invalid value"

// Message is a single contact submission. It is never stored.
type Message struct {
	Content string `json:"message" validate:"required"`
}

// ErrorDescriptor describes one failed rule on one request field.
type ErrorDescriptor struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Msg      string `json:"msg"`
	Path     string `json:"path"`
	Location string `json:"location"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report json names ("message") instead of Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Normalize trims and escapes raw message content.
func Normalize(raw string) string {
	return sanitize.Escape(sanitize.Trim(raw))
}

// Validate normalizes raw and checks it. A nil slice means the message is valid.
func Validate(raw string) (Message, []ErrorDescriptor) {
	m := Message{Content: Normalize(raw)}
	err := validate.Struct(m)
	if err == nil {
		return m, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return m, []ErrorDescriptor{{
			Type:     "field",
			Value:    m.Content,
			Msg:      err.Error(),
			Path:     "message",
			Location: "body",
		}}
	}
	return m, lo.Map(verrs, func(fe validator.FieldError, _ int) ErrorDescriptor {
		return ErrorDescriptor{
			Type:     "field",
			Value:    fmt.Sprint(fe.Value()),
			Msg:      DefaultErrorMsg,
			Path:     fe.Field(),
			Location: "body",
		}
	})
}
