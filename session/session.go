// Package session provides the Session type: one logical impersonating
// client. Each session owns its own connector wrapper, HTTP client, cookie
// jar and headers, so sessions never share TLS session caches, connections
// or cookies.
package session

import (
	"context"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/firasghr/GoImpersonate/client"
	"github.com/firasghr/GoImpersonate/config"
	"github.com/firasghr/GoImpersonate/impersonate"
	"github.com/firasghr/GoImpersonate/logger"
	"github.com/firasghr/GoImpersonate/metrics"
	"github.com/firasghr/GoImpersonate/proxy"
)

// Session lifecycle states.
const (
	StateIdle   = "idle"
	StateActive = "active"
	StateClosed = "closed"
)

// Session represents one independent impersonating client.
//
// A sync.RWMutex protects the mutable fields (headers, State, LastActivity)
// so callers may use a session from multiple goroutines. CreatedAt is set
// once at construction and never mutated.
type Session struct {
	// ID uniquely identifies the session.
	ID int

	// Context is the impersonation context every connection is shaped by.
	Context impersonate.Context

	// Client is the underlying HTTP client. It must not be replaced after
	// construction; replace the whole Session instead.
	Client *http.Client

	// CookieJar stores cookies for this session. It is also set on Client.
	CookieJar http.CookieJar

	// Proxy is the proxy URL used by this session, or empty for direct.
	Proxy string

	// State is one of StateIdle, StateActive or StateClosed.
	State string

	CreatedAt    time.Time
	LastActivity time.Time

	headers *impersonate.HeaderSet
	log     *logger.Logger

	mu sync.RWMutex // guards headers, State, LastActivity
}

// Option configures NewSession.
type Option func(*options)

type options struct {
	log     *logger.Logger
	metrics *metrics.Metrics
	rootCAs *x509.CertPool
}

// WithLogger sets the session's logger.
func WithLogger(l *logger.Logger) Option { return func(o *options) { o.log = l } }

// WithMetrics records connector diagnostics in m.
func WithMetrics(m *metrics.Metrics) Option { return func(o *options) { o.metrics = m } }

// WithRootCAs replaces the system roots used for verification.
func WithRootCAs(pool *x509.CertPool) Option { return func(o *options) { o.rootCAs = pool } }

// NewSession constructs a Session for cfg. proxyAddr may be empty for direct
// connections. ctx bounds the connector's session cache initialisation.
func NewSession(ctx context.Context, id int, proxyAddr string, cfg *config.Config, opts ...Option) (*Session, error) {
	if cfg == nil {
		return nil, fmt.Errorf("session %d: config must not be nil", id)
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Discard()
	}

	ic, err := cfg.Context()
	if err != nil {
		return nil, fmt.Errorf("session %d: %w", id, err)
	}
	base, err := proxy.Dialer(proxyAddr, cfg.RequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("session %d: %w", id, err)
	}
	log := o.log.With("session", id, "profile", ic.Impersonate.String())

	c, err := client.New(ctx, client.Options{
		Context: ic,
		Dialer:  base,
		RootCAs: o.rootCAs,
		Timeout: cfg.RequestTimeout,
		Logger:  log,
		Metrics: o.metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("session %d: create HTTP client: %w", id, err)
	}

	now := time.Now()
	return &Session{
		ID:           id,
		Context:      ic,
		Client:       c,
		CookieJar:    c.Jar,
		Proxy:        proxyAddr,
		State:        StateIdle,
		CreatedAt:    now,
		LastActivity: now,
		headers:      &impersonate.HeaderSet{},
		log:          log,
	}, nil
}

// SetHeader sets a header sent on every request of this session. Session
// headers win over the profile defaults.
func (s *Session) SetHeader(key, value string) {
	s.mu.Lock()
	s.headers.Set(key, value)
	s.mu.Unlock()
}

// Headers returns the profile defaults merged with the session headers, in
// the order they are sent.
func (s *Session) Headers() *impersonate.HeaderSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return impersonate.ConfigureImpersonate(s.Context.Impersonate, s.headers)
}

// ExecuteRequest sends an HTTP request and returns the response. Callers are
// responsible for closing the response body.
func (s *Session) ExecuteRequest(ctx context.Context, method, targetURL string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, targetURL, body)
	if err != nil {
		return nil, fmt.Errorf("session %d: build request: %w", s.ID, err)
	}

	s.mu.Lock()
	s.headers.ApplyTo(req)
	s.State = StateActive
	s.mu.Unlock()

	resp, err := s.Client.Do(req)
	s.finish()
	if err != nil {
		return nil, fmt.Errorf("session %d: execute %s %s: %w", s.ID, method, targetURL, err)
	}
	s.log.Debug("request done", "method", method, "url", targetURL, "status", resp.StatusCode, "proto", resp.Proto)
	return resp, nil
}

func (s *Session) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastActivity = time.Now()
	if s.State == StateActive {
		s.State = StateIdle
	}
}

// UpdateLastActivity records the current time as the session's last
// activity.
func (s *Session) UpdateLastActivity() {
	s.mu.Lock()
	s.LastActivity = time.Now()
	s.mu.Unlock()
}

// Close transitions the session to StateClosed and closes idle connections.
// After Close returns the session must not be used.
func (s *Session) Close() {
	s.mu.Lock()
	s.State = StateClosed
	s.mu.Unlock()
	s.Client.CloseIdleConnections()
}
