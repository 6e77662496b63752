package client

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/imroc/req/v3"
	reqhttp2 "github.com/imroc/req/v3/http2"
	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"

	"github.com/firasghr/GoImpersonate/impersonate"
	"github.com/firasghr/GoImpersonate/logger"
)

// transportDefaults groups transport-layer knobs that are set once at
// construction time.
type transportDefaults struct {
	maxIdleConns        int
	maxIdleConnsPerHost int
	maxConnsPerHost     int
	idleConnTimeout     time.Duration
}

var defaultTransport = transportDefaults{
	maxIdleConns:        500,
	maxIdleConnsPerHost: 100,
	maxConnsPerHost:     200,
	idleConnTimeout:     90 * time.Second,
}

// Transport is an http.RoundTripper that dials every TLS connection through
// an impersonating HTTPSConnector.
//
// The protocol follows ALPN: h2 connections open with exactly the profile's
// SETTINGS frame and connection WINDOW_UPDATE, anything else is spoken as
// HTTP/1.1 over the same connection. Profile headers and pseudo headers go
// out in profile order on both protocols.
type Transport struct {
	connector *impersonate.HTTPSConnector
	headers   *impersonate.HeaderSet
	order     []string
	pseudo    []string
	decode    decodeSet

	rt  *req.Transport
	log *logger.Logger
}

// NewTransport builds a Transport over connector. settings supplies the
// HTTP/2 SETTINGS, default headers and decompression flags.
func NewTransport(connector *impersonate.HTTPSConnector, settings impersonate.ImpersonateSettings, log *logger.Logger) (*Transport, error) {
	if connector == nil {
		return nil, fmt.Errorf("client: nil connector")
	}
	if log == nil {
		log = logger.Discard()
	}
	t := &Transport{
		connector: connector,
		headers:   settings.Headers,
		order:     lowerKeys(settings.Headers.Keys()),
		pseudo:    settings.PseudoHeaderOrder,
		decode:    decodeSet{gzip: settings.Gzip, brotli: settings.Brotli},
		log:       log,
	}

	rt := req.NewTransport()
	rt.SetProxy(nil)
	rt.SetDial(connector.BaseDialer().DialContext)
	rt.SetDialTLS(t.dialTLS)
	// The profile's accept-encoding is sent verbatim and decoded here.
	rt.DisableCompression = true
	rt.AutoDecompression = false
	rt.MaxIdleConns = defaultTransport.maxIdleConns
	rt.MaxIdleConnsPerHost = defaultTransport.maxIdleConnsPerHost
	rt.MaxConnsPerHost = defaultTransport.maxConnsPerHost
	rt.IdleConnTimeout = defaultTransport.idleConnTimeout
	rt.ExpectContinueTimeout = 1 * time.Second

	if offersH2(connector.NextProtos()) {
		s := settings.HTTP2
		if frames := settingsFrame(s.Frames()); len(frames) > 0 {
			rt.SetHTTP2SettingsFrame(frames...)
		}
		if incr := s.ConnectionWindowIncrement(); incr > 0 {
			rt.SetHTTP2ConnectionFlow(incr)
		}
	} else {
		rt.EnableForceHTTP1()
	}
	t.rt = rt
	return t, nil
}

func offersH2(protos []string) bool {
	for _, p := range protos {
		if p == http2.NextProtoTLS {
			return true
		}
	}
	return false
}

// settingsFrame converts the profile record to the transport's setting type,
// keeping order.
func settingsFrame(frames []http2.Setting) []reqhttp2.Setting {
	out := make([]reqhttp2.Setting, 0, len(frames))
	for _, f := range frames {
		out = append(out, reqhttp2.Setting{ID: reqhttp2.SettingID(f.ID), Val: f.Val})
	}
	return out
}

func lowerKeys(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = strings.ToLower(k)
	}
	return out
}

// Connector returns the HTTPSConnector every connection is dialled with.
func (t *Transport) Connector() *impersonate.HTTPSConnector { return t.connector }

// RoundTrip implements http.RoundTripper. Profile headers are added to a
// clone of r; headers the caller set are kept.
func (t *Transport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	t.headers.ApplyTo(r)
	if _, ok := r.Header[req.HeaderOderKey]; !ok && len(t.order) > 0 {
		r.Header[req.HeaderOderKey] = t.order
	}
	if _, ok := r.Header[req.PseudoHeaderOderKey]; !ok && len(t.pseudo) > 0 {
		r.Header[req.PseudoHeaderOderKey] = t.pseudo
	}

	resp, err := t.rt.RoundTrip(r)
	if err != nil {
		return nil, err
	}
	t.log.Debug("round trip", "url", r.URL.Redacted(), "proto", resp.Proto, "status", resp.StatusCode)
	return t.decode.apply(resp)
}

// CloseIdleConnections closes every idle connection.
func (t *Transport) CloseIdleConnections() {
	t.rt.CloseIdleConnections()
}

func (t *Transport) dialTLS(ctx context.Context, network, addr string) (net.Conn, error) {
	conn, err := t.connector.DialTLSContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	uc, ok := conn.(*utls.UConn)
	if !ok {
		return conn, nil
	}
	return &tlsConn{UConn: uc}, nil
}

// tlsConn reports a utls connection's state as a crypto/tls state, the form
// the transport reads the negotiated protocol from.
type tlsConn struct {
	*utls.UConn
}

func (c *tlsConn) ConnectionState() tls.ConnectionState {
	s := c.UConn.ConnectionState()
	return tls.ConnectionState{
		Version:                     s.Version,
		HandshakeComplete:           s.HandshakeComplete,
		DidResume:                   s.DidResume,
		CipherSuite:                 s.CipherSuite,
		NegotiatedProtocol:          s.NegotiatedProtocol,
		NegotiatedProtocolIsMutual:  true,
		ServerName:                  s.ServerName,
		PeerCertificates:            s.PeerCertificates,
		VerifiedChains:              s.VerifiedChains,
		SignedCertificateTimestamps: s.SignedCertificateTimestamps,
		OCSPResponse:                s.OCSPResponse,
	}
}
