package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/aerth/folio/store"
)

const (
	DefaultListenAddr = "127.0.0.1:8080"
	DefaultRateLimit  = 100
	DefaultRateWindow = 15 * time.Minute
	DefaultCookieName = "folio"
	DefaultAuditLog   = "folio-audit.log"
)

var ErrMissingSecret = errors.New("config needs Security keys or $JWT_SECRET")

type MetaConfig struct {
	Version         string                 `json:"-"`
	ListenAddr      string                 `json:"listen"`
	ListenAddrTLS   string                 `json:"listentls"`
	SiteName        string                 `json:"sitename"`
	SiteURL         string                 `json:"siteurl"`
	APIOrigin       string                 `json:"api-origin"` // extra connect-src for the page CSP
	DevelopmentMode bool                   `json:"devmode"`
	CopyrightName   string                 `json:"copyright-name"`
	TemplateData    map[string]interface{} `json:"templatedata"`
	PathTemplates   string                 `json:"templatedir"` // empty uses the embedded templates
	PathPublic      string                 `json:"publicdir"`   // empty uses the embedded public files
}

type Config struct {
	Meta           MetaConfig     `json:"Meta,omitempty"`
	Sec            SecurityConfig `json:"Security,omitempty"`
	ConfigFilePath string         `json:"-"` // empty if stdin or defaults
}

type SecurityConfig struct {
	HashKey    string   `json:"hash-key"`
	BlockKey   string   `json:"block-key"`
	CSRFKey    string   `json:"csrf-key"`
	CookieName string   `json:"cookie-name"`
	Whitelist  string   `json:"whitelist"`
	Blacklist  string   `json:"blacklist"`
	BoltDB     string   `json:"database"`
	CORSOrigin string   `json:"cors-origin"`
	RateLimit  int      `json:"rate-limit"`
	RateWindow Duration `json:"rate-window"`
	BanAfter   int      `json:"ban-after"` // rate limit rejections before a temporary ban, 0 disables
	AuditLog   string   `json:"audit-log"` // "-" disables
}

// Duration reads "15m" style strings from json.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"15m\": %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// Load reads a json config from path, or from stdin when path is "-".
func Load(path string, stdin io.Reader) (*Config, error) {
	var config = new(Config)
	if path == "-" {
		if err := json.NewDecoder(stdin).Decode(config); err != nil {
			return nil, fmt.Errorf("error decoding json config: %w", err)
		}
		return config, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(config); err != nil {
		return nil, fmt.Errorf("error decoding json config %q: %w", path, err)
	}
	config.ConfigFilePath = path
	return config, nil
}

// CheckConfig fills defaults, applies environment overrides and derives
// missing keys from the environment secret.
func CheckConfig(config *Config, e Environment) error {
	if config.Meta.Version == "" {
		config.Meta.Version = "folio"
	}
	if config.Meta.ListenAddr == "" {
		config.Meta.ListenAddr = DefaultListenAddr
	}

	// override is $PORT or $SITEURL are used (heroku, etc?)
	if e.Port != "" {
		log.Println("overriding flags and config file with $PORT", e.Port)
		config.Meta.ListenAddr = ":" + e.Port
	}
	if e.SiteURL != "" {
		log.Println("overriding flags and config file with $SITEURL", e.SiteURL)
		config.Meta.SiteURL = e.SiteURL
	}
	if config.Meta.SiteURL == "" {
		config.Meta.SiteURL = "http://" + config.Meta.ListenAddr
	}
	site, err := url.Parse(config.Meta.SiteURL)
	if err != nil || site.Host == "" {
		return fmt.Errorf("config needs a valid Meta.siteurl, got %q", config.Meta.SiteURL)
	}

	if err := resolveDirs(config); err != nil {
		return err
	}

	sec := &config.Sec
	if sec.CookieName == "" {
		sec.CookieName = DefaultCookieName
	}
	if sec.CORSOrigin == "" {
		sec.CORSOrigin = site.Scheme + "://" + site.Host
	}
	if sec.RateLimit <= 0 {
		sec.RateLimit = DefaultRateLimit
	}
	if sec.RateWindow.Duration <= 0 {
		sec.RateWindow.Duration = DefaultRateWindow
	}
	if sec.AuditLog == "" {
		sec.AuditLog = DefaultAuditLog
	}
	if sec.BoltDB == "" {
		sec.BoltDB = store.DefaultBoltPath
	}
	return checkKeys(sec, e.Secret)
}

func checkKeys(sec *SecurityConfig, secret string) error {
	for _, k := range []struct {
		name    string
		purpose string
		v       *string
	}{
		{"hash-key", "cookie-hash", &sec.HashKey},
		{"block-key", "cookie-block", &sec.BlockKey},
		{"csrf-key", "csrf", &sec.CSRFKey},
	} {
		if *k.v != "" {
			continue
		}
		if secret == "" {
			return fmt.Errorf("%w (Security.%s)", ErrMissingSecret, k.name)
		}
		*k.v = string(DeriveKey(secret, k.purpose))
	}
	switch len(sec.BlockKey) {
	case 16, 24, 32:
	default:
		return fmt.Errorf("config Security.block-key must be 16, 24 or 32 bytes, got %d", len(sec.BlockKey))
	}
	if len(sec.CSRFKey) != 32 {
		return fmt.Errorf("config Security.csrf-key must be 32 bytes, got %d", len(sec.CSRFKey))
	}
	return nil
}

// resolveDirs makes template and public dirs absolute, relative to the
// config file when there is one.
func resolveDirs(config *Config) error {
	if config.Meta.PathPublic == "" && config.Meta.PathTemplates == "" {
		return nil
	}
	dir, err := os.Getwd()
	if err != nil {
		return err
	}
	if config.ConfigFilePath != "" {
		dir, err = filepath.Abs(filepath.Dir(config.ConfigFilePath))
		if err != nil {
			return fmt.Errorf("error %v", err)
		}
	}
	for _, p := range []*string{&config.Meta.PathPublic, &config.Meta.PathTemplates} {
		if *p == "" {
			continue
		}
		if !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
		if s, err := os.Stat(*p); err != nil {
			return err
		} else if !s.IsDir() {
			return fmt.Errorf("is not a dir: %v", *p)
		}
	}
	return nil
}
