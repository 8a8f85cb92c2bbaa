package system

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/securecookie"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/aerth/folio/config"
	"github.com/aerth/folio/greylist"
	"github.com/aerth/folio/store"
	"github.com/aerth/folio/www"
)

// System is the running site: config, templates, cookies, user store and
// the per-client bookkeeping the middleware needs.
type System struct {
	Stats Stats

	config config.Config
	env    config.Environment
	csp    string

	users   store.Store
	cookies *securecookie.SecureCookie
	audit   io.WriteCloser
	public  fs.FS

	mu        sync.RWMutex // guards templates, csp and config.Meta
	templates map[string]*template.Template

	badguylock sync.Mutex
	badguys    map[string]uint32
	greylist   *greylist.List
}

// New builds a System from a checked config. users may be nil, in which case
// user lookups answer 503.
func New(c config.Config, e config.Environment, users store.Store) (*System, error) {
	t1 := time.Now()
	var blockKey = []byte(c.Sec.BlockKey)
	if c.Meta.DevelopmentMode {
		blockKey = nil // not encrypted cookies
	}
	s := &System{
		config:  c,
		env:     e,
		users:   users,
		cookies: securecookie.New([]byte(c.Sec.HashKey), blockKey),
		badguys: make(map[string]uint32),
	}
	s.Stats.t1 = t1
	s.csp = contentSecurityPolicy(c.Meta)

	public, err := fs.Sub(www.FS, "public")
	if err != nil {
		return nil, err
	}
	if c.Meta.PathPublic != "" {
		public = os.DirFS(c.Meta.PathPublic)
	}
	s.public = public

	if err := s.ReloadTemplates(); err != nil {
		return nil, err
	}

	if c.Sec.AuditLog != "-" {
		s.audit = &lumberjack.Logger{
			Filename:   c.Sec.AuditLog,
			MaxSize:    5, // megabytes
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		}
	}

	var refreshRate time.Duration // none, no auto refresh
	temporaryBlacklistTime := time.Hour * 24
	if c.Meta.DevelopmentMode {
		refreshRate = time.Second * 10
		temporaryBlacklistTime = time.Minute
	}
	s.greylist = greylist.New(c.Sec.Whitelist, c.Sec.Blacklist, refreshRate)
	s.greylist.SetTemporaryBlacklistTime(temporaryBlacklistTime)

	if c.Meta.DevelopmentMode {
		log.Printf("system ready in %s", time.Since(t1))
	}
	return s, nil
}

func (s *System) Config() config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

func (s *System) meta() config.MetaConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config.Meta
}

func (s *System) templatesFS() (fs.FS, error) {
	if dir := s.meta().PathTemplates; dir != "" {
		return os.DirFS(dir), nil
	}
	return fs.Sub(www.FS, "templates")
}

func (s *System) ReloadTemplates() error {
	t1 := time.Now()
	fsys, err := s.templatesFS()
	if err != nil {
		return err
	}
	partials, err := fs.Glob(fsys, "_partials/*.html")
	if err != nil {
		return fmt.Errorf("couldn't enumerate partial templates: %w", err)
	}
	var templates = map[string]*template.Template{}
	for _, name := range []string{"index.html"} {
		templates[name], err = template.New(name).ParseFS(fsys, append([]string{name}, partials...)...)
		if err != nil {
			return fmt.Errorf("couldn't parse template %q: %w", name, err)
		}
	}
	s.mu.Lock()
	s.templates = templates
	s.mu.Unlock()
	if s.meta().DevelopmentMode {
		log.Printf("Parsed %d templates (%d partials) in %s", len(templates), len(partials), time.Since(t1))
	}
	return nil
}

// ReloadConfig re-reads the config file. Only the Meta section (site name,
// copyright, template data, api origin) takes effect without a restart.
func (s *System) ReloadConfig() error {
	path := s.Config().ConfigFilePath
	if path == "" {
		return fmt.Errorf("can't reload config, was set using stdin or defaults")
	}
	c, err := config.Load(path, nil)
	if err != nil {
		return err
	}
	if err := config.CheckConfig(c, s.env); err != nil {
		return err
	}
	s.mu.Lock()
	version := s.config.Meta.Version
	s.config.Meta = c.Meta
	s.config.Meta.Version = version
	s.csp = contentSecurityPolicy(s.config.Meta)
	s.mu.Unlock()
	log.Println("reloaded config from", path)
	return nil
}

// Run serves h until ctx is done or a terminating signal arrives. TLS is
// served too when cert and key are both set.
func (s *System) Run(ctx context.Context, h http.Handler, sslCert, sslKey string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	meta := s.meta()
	servers := []*http.Server{{
		Addr:              meta.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}}
	if sslCert != "" && sslKey != "" && meta.ListenAddrTLS != "" {
		servers = append(servers, &http.Server{
			Addr:              meta.ListenAddrTLS,
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second,
		})
	}

	errc := make(chan error, len(servers))
	for i, srv := range servers {
		go func(tls bool, srv *http.Server) {
			var err error
			if tls {
				log.Println("serving TLS:", srv.Addr)
				err = srv.ListenAndServeTLS(sslCert, sslKey)
			} else {
				log.Println("serving HTTP:", srv.Addr)
				err = srv.ListenAndServe()
			}
			if !errors.Is(err, http.ErrServerClosed) {
				errc <- err
			}
		}(i > 0, srv)
	}
	log.Println("View in browser:", meta.SiteURL)

	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(sigchan)

	var runErr error
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case err := <-errc:
			runErr = err
			break loop
		case sig := <-sigchan:
			log.Println("got signal:", sig.String())
			switch sig {
			case syscall.SIGUSR1:
				if err := s.ReloadConfig(); err != nil {
					log.Println("Error reloading config:", err)
				}
			case syscall.SIGUSR2:
				if err := s.ReloadTemplates(); err != nil {
					log.Println("Error reloading templates:", err)
				}
			default:
				break loop
			}
		}
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Println("shutdown:", err)
		}
	}
	return runErr
}

// Close releases the audit log and user store.
func (s *System) Close() error {
	var errs []error
	if s.audit != nil {
		errs = append(errs, s.audit.Close())
	}
	if s.users != nil {
		errs = append(errs, s.users.Close())
	}
	return errors.Join(errs...)
}
