// Package client builds HTTP clients whose TLS and HTTP/2 behaviour follow an
// impersonation profile.
package client

import (
	"context"
	"crypto/x509"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/firasghr/GoImpersonate/impersonate"
	"github.com/firasghr/GoImpersonate/logger"
	"github.com/firasghr/GoImpersonate/metrics"
)

// Options configures New.
type Options struct {
	// Context shapes the TLS handshake.
	Context impersonate.Context

	// Settings overrides the bundle otherwise derived from
	// Context.Impersonate. A zero value means "use the profile's".
	Settings impersonate.ImpersonateSettings

	// Dialer is the base dialer, e.g. a SOCKS5 dialer from the proxy
	// package. nil dials directly.
	Dialer impersonate.Dialer

	// RootCAs replaces the system roots when verification is on.
	RootCAs *x509.CertPool

	// Timeout is the end-to-end request timeout (http.Client.Timeout).
	Timeout time.Duration

	Logger  *logger.Logger
	Metrics *metrics.Metrics
}

// NewTransportFromOptions creates the connector for opts and wraps it in a Transport.
// ctx bounds the session cache initialisation only.
func NewTransportFromOptions(ctx context.Context, opts Options) (*Transport, error) {
	settings := opts.Settings
	if settings.TLSConnector == nil {
		settings = opts.Context.Impersonate.Settings(
			impersonate.WithMetrics(opts.Metrics),
			impersonate.WithLogger(opts.Logger),
		)
	}
	conn, err := settings.TLSConnector.CreateConnector(ctx, opts.Context, opts.Dialer)
	if err != nil {
		return nil, fmt.Errorf("client: create connector for %s: %w", opts.Context.Impersonate, err)
	}
	if opts.RootCAs != nil {
		conn.SetRootCAs(opts.RootCAs)
	}
	return NewTransport(conn, settings, opts.Logger)
}

// New constructs a *http.Client that is safe for concurrent use. Every
// client gets its own transport and cookie jar so sessions never share
// connections or cookies.
func New(ctx context.Context, opts Options) (*http.Client, error) {
	t, err := NewTransportFromOptions(ctx, opts)
	if err != nil {
		return nil, err
	}
	jar, err := newCookieJar()
	if err != nil {
		return nil, fmt.Errorf("client: create cookie jar: %w", err)
	}
	return &http.Client{
		Transport: t,
		Jar:       jar,
		Timeout:   opts.Timeout,
	}, nil
}

// newCookieJar creates a cookie jar that honours the public-suffix list, so
// cookies cannot be scoped to an effective TLD such as .co.uk.
func newCookieJar() (http.CookieJar, error) {
	return cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
}
