package impersonate

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/url"

	utls "github.com/refraction-networking/utls"

	"github.com/firasghr/GoImpersonate/logger"
	"github.com/firasghr/GoImpersonate/metrics"
)

// Dialer establishes the base TCP connection a TLS session runs over.
// *net.Dialer and the golang.org/x/net/proxy context dialers satisfy it.
type Dialer interface {
	DialContext(ctx context.Context, network, addr string) (net.Conn, error)
}

// TLSConnector produces HTTPSConnectors for impersonation contexts. It owns
// the Builder Function and the lazily created session cache shared by
// every connector it produces. A TLSConnector is safe for concurrent use.
type TLSConnector struct {
	builder BuilderFunc
	session *lazyCache

	metrics *metrics.Metrics
	log     *logger.Logger
}

// ConnectorOption configures a TLSConnector.
type ConnectorOption func(*TLSConnector)

// WithMetrics records connector diagnostics in m.
func WithMetrics(m *metrics.Metrics) ConnectorOption {
	return func(t *TLSConnector) { t.metrics = m }
}

// WithLogger sets the logger used for diagnostics. The default discards.
func WithLogger(l *logger.Logger) ConnectorOption {
	return func(t *TLSConnector) { t.log = l }
}

// NewTLSConnector creates a TLSConnector that calls builder once per
// CreateConnector.
func NewTLSConnector(builder BuilderFunc, opts ...ConnectorOption) *TLSConnector {
	t := &TLSConnector{
		builder: builder,
		session: newLazyCache(DefaultSessionCacheCapacity),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.log == nil {
		t.log = logger.Discard()
	}
	t.session.onCreate = t.metrics.IncSessionCaches
	return t
}

// CreateConnector builds an HTTPSConnector shaped by c over base. Only a
// failing Builder Function or pipeline step makes it fail; such errors
// are configuration errors and are returned unchanged. ctx bounds the wait
// for the shared session cache, nothing else.
func (t *TLSConnector) CreateConnector(ctx context.Context, c Context, base Dialer) (*HTTPSConnector, error) {
	if base == nil {
		base = &net.Dialer{}
	}
	b, err := t.builder()
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, &ConfigError{Op: "builder", Err: ErrNilBuilder}
	}
	b, err = b.Configure(WithALPN(c.H2), WithCertVerification(c.CertsVerification))
	if err != nil {
		return nil, err
	}

	var conn *HTTPSConnector
	if c.needsSessionCache() {
		cache, err := t.session.getOrCreate(ctx)
		if err != nil {
			return nil, fmt.Errorf("impersonate: session cache: %w", err)
		}
		conn = newHTTPSConnectorWithSettings(base, b, layerSettings{
			sessionCache:         cache,
			sessionCacheCapacity: DefaultSessionCacheCapacity,
		})
	} else {
		conn = newHTTPSConnector(base, b)
	}
	conn.metrics = t.metrics
	conn.log = t.log

	conn.SetCallback(func(cc *ConnectionConfig, _ string) error {
		t.finalize(cc, c)
		return nil
	})
	t.metrics.IncConnectors()
	t.log.Debug("connector created",
		"profile", c.Impersonate.String(),
		"resumption", conn.Resumption(),
		"alpn", b.NextProtos())
	return conn, nil
}

// CreateSSL is CreateConnector followed by SetupSSL, for callers that tunnel
// the TLS session over a connection they establish themselves.
func (t *TLSConnector) CreateSSL(ctx context.Context, c Context, base Dialer, uri *url.URL, host string) (*SSLSession, error) {
	conn, err := t.CreateConnector(ctx, c, base)
	if err != nil {
		return nil, err
	}
	return conn.SetupSSL(uri, host)
}

// finalize applies the connection-only extensions. Chrome and Edge are the
// only families that send them. A step the engine cannot apply is skipped
// and counted; the connection proceeds with the closest fingerprint.
func (t *TLSConnector) finalize(cc *ConnectionConfig, c Context) {
	if !c.Impersonate.Profile().chromeFamily() {
		return
	}
	steps := []struct {
		name  string
		apply func(bool) error
		value bool
	}{
		{"permute extensions", cc.SetPermuteExtensions, c.PermuteExtensions},
		{"ech grease", cc.SetECHGrease, c.EnableECHGrease},
		{"application settings", cc.SetApplicationSettings, c.H2},
	}
	for _, s := range steps {
		if err := s.apply(s.value); err != nil {
			t.metrics.IncDegraded()
			t.log.Debug("finalization step skipped",
				"step", s.name,
				"profile", c.Impersonate.String(),
				"host", cc.ServerName(),
				"err", err)
		}
	}
}

type layerSettings struct {
	sessionCache         *SessionCache
	sessionCacheCapacity int
}

// HTTPSConnector dials TLS connections with one fixed builder
// configuration. It is safe for concurrent use once SetCallback is no
// longer called.
type HTTPSConnector struct {
	base     Dialer
	builder  *BuilderConfig
	settings layerSettings
	rootCAs  *x509.CertPool
	callback func(*ConnectionConfig, string) error

	metrics *metrics.Metrics
	log     *logger.Logger
}

func newHTTPSConnector(base Dialer, b *BuilderConfig) *HTTPSConnector {
	return &HTTPSConnector{base: base, builder: b, log: logger.Discard()}
}

func newHTTPSConnectorWithSettings(base Dialer, b *BuilderConfig, s layerSettings) *HTTPSConnector {
	c := newHTTPSConnector(base, b)
	c.settings = s
	return c
}

// SetCallback installs fn, run for every connection after its
// ConnectionConfig exists and before the handshake. An error from fn is
// logged and otherwise ignored.
func (h *HTTPSConnector) SetCallback(fn func(cc *ConnectionConfig, host string) error) {
	h.callback = fn
}

// SetRootCAs replaces the system roots used for verification.
func (h *HTTPSConnector) SetRootCAs(pool *x509.CertPool) { h.rootCAs = pool }

// Resumption reports whether connections offer session resumption.
func (h *HTTPSConnector) Resumption() bool { return h.settings.sessionCache != nil }

// SessionCache returns the shared cache, or nil without resumption.
func (h *HTTPSConnector) SessionCache() *SessionCache { return h.settings.sessionCache }

// NextProtos returns the ALPN list offered by every connection.
func (h *HTTPSConnector) NextProtos() []string { return h.builder.NextProtos() }

// BaseDialer returns the dialer TLS connections run over.
func (h *HTTPSConnector) BaseDialer() Dialer { return h.base }

// Builder returns the configured builder.
func (h *HTTPSConnector) Builder() *BuilderConfig { return h.builder }

// DialTLSContext dials addr through the base dialer and completes the TLS
// handshake. Its signature matches http.Transport.DialTLSContext.
func (h *HTTPSConnector) DialTLSContext(ctx context.Context, network, addr string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("impersonate: parse addr %q: %w", addr, err)
	}
	raw, err := h.base.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("impersonate: dial %s: %w", addr, err)
	}
	uc, err := h.Handshake(ctx, raw, host)
	if err != nil {
		_ = raw.Close()
		return nil, err
	}
	return uc, nil
}

// Client wraps conn in a utls client for host with this connector's
// ClientHello applied. The handshake is not started.
func (h *HTTPSConnector) Client(conn net.Conn, host string) (*utls.UConn, error) {
	b := h.builder
	cfg := &utls.Config{
		ServerName:         host,
		NextProtos:         b.NextProtos(),
		InsecureSkipVerify: b.insecureSkipVerify, // #nosec G402 – caller-controlled
		RootCAs:            h.rootCAs,
	}
	if h.settings.sessionCache != nil {
		cfg.ClientSessionCache = h.settings.sessionCache
		// The first connection to a host has no ticket to offer yet.
		cfg.OmitEmptyPsk = true
	}

	uc := utls.UClient(conn, cfg, utls.HelloCustom)
	cc := newConnectionConfig(b, host, h.Resumption())
	if h.callback != nil {
		if err := h.callback(cc, host); err != nil {
			h.metrics.IncDegraded()
			h.log.Debug("connection callback failed", "host", host, "err", err)
		}
	}
	if err := uc.ApplyPreset(cc.Spec()); err != nil {
		return nil, &ConfigError{Op: "apply preset", Err: err}
	}
	return uc, nil
}

// Handshake runs the TLS handshake for host over conn. On failure the caller
// still owns conn.
func (h *HTTPSConnector) Handshake(ctx context.Context, conn net.Conn, host string) (*utls.UConn, error) {
	uc, err := h.Client(conn, host)
	if err != nil {
		return nil, err
	}
	err = uc.HandshakeContext(ctx)
	h.metrics.IncHandshake(err)
	if err != nil {
		return nil, fmt.Errorf("impersonate: TLS handshake with %s: %w", host, err)
	}
	return uc, nil
}

var errNoHost = errors.New("no destination host")

// SetupSSL binds the connector to one destination. host overrides the URI
// host for SNI and verification when non-empty.
func (h *HTTPSConnector) SetupSSL(uri *url.URL, host string) (*SSLSession, error) {
	if host == "" && uri != nil {
		host = uri.Hostname()
	}
	if host == "" {
		return nil, &ConfigError{Op: "setup ssl", Err: errNoHost}
	}
	return &SSLSession{connector: h, uri: uri, host: host}, nil
}

// SSLSession is a TLS client configuration bound to one destination host,
// ready to run over any stream, e.g. a SOCKS tunnel.
type SSLSession struct {
	connector *HTTPSConnector
	uri       *url.URL
	host      string
}

// Host returns the SNI host.
func (s *SSLSession) Host() string { return s.host }

// URI returns the target URI the session was created for, if any.
func (s *SSLSession) URI() *url.URL { return s.uri }

// Handshake runs the TLS handshake over conn.
func (s *SSLSession) Handshake(ctx context.Context, conn net.Conn) (*utls.UConn, error) {
	return s.connector.Handshake(ctx, conn, s.host)
}
