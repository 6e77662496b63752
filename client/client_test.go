package client_test

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/hpack"

	"github.com/firasghr/GoImpersonate/client"
	"github.com/firasghr/GoImpersonate/impersonate"
	"github.com/firasghr/GoImpersonate/metrics"
)

// chromeTLS13Ciphers is the set of TLS 1.3 suites Chrome advertises. A Go
// TLS 1.3 server always negotiates one of them.
var chromeTLS13Ciphers = map[uint16]bool{
	tls.TLS_AES_128_GCM_SHA256:       true,
	tls.TLS_AES_256_GCM_SHA384:       true,
	tls.TLS_CHACHA20_POLY1305_SHA256: true,
}

func startServer(t *testing.T, h2 bool, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewUnstartedServer(h)
	srv.EnableHTTP2 = h2
	srv.StartTLS()
	t.Cleanup(srv.Close)
	return srv
}

func roots(srv *httptest.Server) *x509.CertPool {
	pool := x509.NewCertPool()
	pool.AddCert(srv.Certificate())
	return pool
}

func newClient(t *testing.T, c impersonate.Context, srv *httptest.Server, m *metrics.Metrics) *http.Client {
	t.Helper()
	hc, err := client.New(context.Background(), client.Options{
		Context: c,
		RootCAs: roots(srv),
		Timeout: 5 * time.Second,
		Metrics: m,
	})
	require.NoError(t, err)
	t.Cleanup(hc.CloseIdleConnections)
	return hc
}

func fetch(t *testing.T, hc *http.Client, url string) (*http.Response, string) {
	t.Helper()
	resp, err := hc.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestNew_HasCookieJar(t *testing.T) {
	hc, err := client.New(context.Background(), client.Options{Context: impersonate.NewContext(impersonate.Chrome120)})
	require.NoError(t, err)
	assert.NotNil(t, hc.Jar)
	_, ok := hc.Transport.(*client.Transport)
	assert.True(t, ok)
}

func TestNew_BadProfileData(t *testing.T) {
	settings := impersonate.Chrome124.Settings()
	settings.TLSConnector = impersonate.NewTLSConnector(func() (*impersonate.BuilderConfig, error) {
		b, _ := impersonate.NewChromeBuilder()
		return b.Configure(impersonate.WithCurves("P-999"))
	})
	_, err := client.New(context.Background(), client.Options{
		Context:  impersonate.NewContext(impersonate.Chrome124),
		Settings: settings,
	})
	assert.ErrorIs(t, err, impersonate.ErrUnknownCurve)
}

func TestTransport_NegotiatesH2(t *testing.T) {
	states := make(chan tls.ConnectionState, 1)
	srv := startServer(t, true, func(w http.ResponseWriter, r *http.Request) {
		select {
		case states <- *r.TLS:
		default:
		}
		io.WriteString(w, r.Proto)
	})

	hc := newClient(t, impersonate.NewContext(impersonate.Chrome124), srv, nil)
	resp, body := fetch(t, hc, srv.URL)
	assert.Equal(t, 2, resp.ProtoMajor)
	assert.Equal(t, "HTTP/2.0", body)

	state := <-states
	assert.Equal(t, uint16(tls.VersionTLS13), state.Version)
	assert.True(t, chromeTLS13Ciphers[state.CipherSuite], "cipher 0x%04x", state.CipherSuite)
	assert.Equal(t, "h2", state.NegotiatedProtocol)
}

func TestTransport_FallsBackToHTTP1(t *testing.T) {
	srv := startServer(t, false, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, r.Proto)
	})
	m := metrics.NewMetrics()
	hc := newClient(t, impersonate.NewContext(impersonate.Chrome124), srv, m)

	for i := 0; i < 3; i++ {
		resp, body := fetch(t, hc, srv.URL)
		assert.Equal(t, 1, resp.ProtoMajor)
		assert.Equal(t, "HTTP/1.1", body)
	}
	// One connection, negotiated as http/1.1 and kept alive.
	assert.Equal(t, uint64(1), m.Snapshot().Handshakes)
}

func TestTransport_HTTP1Only(t *testing.T) {
	protos := make(chan string, 1)
	srv := startServer(t, true, func(w http.ResponseWriter, r *http.Request) {
		select {
		case protos <- r.TLS.NegotiatedProtocol:
		default:
		}
	})
	hc := newClient(t, impersonate.NewContext(impersonate.Cronet).WithH2(false), srv, nil)
	resp, _ := fetch(t, hc, srv.URL)
	assert.Equal(t, 1, resp.ProtoMajor)
	assert.NotEqual(t, "h2", <-protos)
}

func TestTransport_ProfileHeaders(t *testing.T) {
	srv := startServer(t, true, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-UA", r.Header.Get("User-Agent"))
		w.Header().Set("X-Custom", r.Header.Get("X-Custom"))
		w.Header().Set("X-Platform", r.Header.Get("Sec-Ch-Ua-Platform"))
	})
	hc := newClient(t, impersonate.NewContext(impersonate.Chrome124), srv, nil)

	resp, _ := fetch(t, hc, srv.URL)
	assert.Contains(t, resp.Header.Get("X-UA"), "Chrome/124.0.0.0")
	assert.Equal(t, `"Windows"`, resp.Header.Get("X-Platform"))

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "custom/1.0")
	req.Header.Set("X-Custom", "yes")
	resp, err = hc.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "custom/1.0", resp.Header.Get("X-UA"))
	assert.Equal(t, "yes", resp.Header.Get("X-Custom"))
	assert.Empty(t, req.Header.Get("Sec-Ch-Ua-Platform"), "caller request must not be mutated")
}

const payload = "the quick brown fox jumps over the lazy dog"

func encode(t *testing.T, encoding string) []byte {
	t.Helper()
	var buf bytes.Buffer
	var w io.WriteCloser
	switch encoding {
	case "gzip":
		w = gzip.NewWriter(&buf)
	case "deflate":
		fw, err := flate.NewWriter(&buf, flate.DefaultCompression)
		require.NoError(t, err)
		w = fw
	case "br":
		w = brotli.NewWriter(&buf)
	case "zstd":
		zw, err := zstd.NewWriter(&buf)
		require.NoError(t, err)
		w = zw
	}
	_, err := io.WriteString(w, payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestTransport_Decompression(t *testing.T) {
	for _, enc := range []string{"gzip", "deflate", "br", "zstd"} {
		t.Run(enc, func(t *testing.T) {
			data := encode(t, enc)
			srv := startServer(t, true, func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Encoding", enc)
				w.Write(data)
			})
			hc := newClient(t, impersonate.NewContext(impersonate.Chrome126), srv, nil)
			resp, body := fetch(t, hc, srv.URL)
			assert.Equal(t, payload, body)
			assert.True(t, resp.Uncompressed)
			assert.Empty(t, resp.Header.Get("Content-Encoding"))
		})
	}
}

func TestTransport_BrotliNotDecodedForOkHttp(t *testing.T) {
	data := encode(t, "br")
	srv := startServer(t, true, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Encoding", "br")
		w.Write(data)
	})
	hc := newClient(t, impersonate.NewContext(impersonate.OkHttp4_10), srv, nil)
	resp, body := fetch(t, hc, srv.URL)
	assert.Equal(t, "br", resp.Header.Get("Content-Encoding"))
	assert.Equal(t, string(data), body)
}

// clientPreface is what a raw h2 listener read from the client before the
// first response: SETTINGS in wire order, the stream 0 WINDOW_UPDATE and the
// header names of the first request, pseudo headers included.
type clientPreface struct {
	settings []http2.Setting
	incr     uint32
	headers  []string
	err      error
}

// readPreface accepts one connection on ln and reads frames up to and
// including the first HEADERS frame.
func readPreface(ln net.Listener) clientPreface {
	conn, err := ln.Accept()
	if err != nil {
		return clientPreface{err: err}
	}
	defer conn.Close()
	buf := make([]byte, len(http2.ClientPreface))
	if _, err := io.ReadFull(conn, buf); err != nil {
		return clientPreface{err: err}
	}
	fr := http2.NewFramer(conn, conn)
	fr.ReadMetaHeaders = hpack.NewDecoder(4096, nil)

	var p clientPreface
	for {
		f, err := fr.ReadFrame()
		if err != nil {
			p.err = err
			return p
		}
		switch f := f.(type) {
		case *http2.SettingsFrame:
			if f.IsAck() {
				continue
			}
			_ = f.ForeachSetting(func(s http2.Setting) error {
				p.settings = append(p.settings, s)
				return nil
			})
		case *http2.WindowUpdateFrame:
			if f.StreamID == 0 {
				p.incr = f.Increment
			}
		case *http2.MetaHeadersFrame:
			for _, hf := range f.Fields {
				p.headers = append(p.headers, hf.Name)
			}
			return p
		}
	}
}

// inOrder keeps the names of got that appear in want, in got's order.
func inOrder(got, want []string) []string {
	keep := map[string]bool{}
	for _, w := range want {
		keep[strings.ToLower(w)] = true
	}
	var out []string
	for _, g := range got {
		if keep[strings.ToLower(g)] {
			out = append(out, strings.ToLower(g))
		}
	}
	return out
}

func lower(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = strings.ToLower(k)
	}
	return out
}

// TestTransport_PrefaceOnWire reads the client's connection preface with a
// raw http2.Framer: the SETTINGS frame must be exactly the profile's record,
// in order, and the headers must follow the profile's order.
func TestTransport_PrefaceOnWire(t *testing.T) {
	certSrv := startServer(t, true, func(http.ResponseWriter, *http.Request) {})

	for _, imp := range []impersonate.Impersonate{
		impersonate.Chrome124, impersonate.Chrome104, impersonate.Safari16, impersonate.OkHttp4_9,
	} {
		t.Run(imp.String(), func(t *testing.T) {
			ln, err := tls.Listen("tcp", "127.0.0.1:0", &tls.Config{
				Certificates: certSrv.TLS.Certificates,
				NextProtos:   []string{http2.NextProtoTLS},
			})
			require.NoError(t, err)
			defer ln.Close()

			got := make(chan clientPreface, 1)
			go func() { got <- readPreface(ln) }()

			hc, err := client.New(context.Background(), client.Options{
				Context: impersonate.NewContext(imp).WithCertsVerification(false),
				Timeout: 3 * time.Second,
			})
			require.NoError(t, err)
			defer hc.CloseIdleConnections()
			go func() {
				if resp, err := hc.Get("https://" + ln.Addr().String() + "/"); err == nil {
					resp.Body.Close()
				}
			}()

			var p clientPreface
			select {
			case p = <-got:
			case <-time.After(5 * time.Second):
				t.Fatal("no client preface received")
			}
			require.NoError(t, p.err)

			want := imp.Http2Settings()
			assert.Equal(t, want.Frames(), p.settings)
			if incr := want.ConnectionWindowIncrement(); incr > 0 {
				assert.Equal(t, incr, p.incr)
			}

			var pseudo, regular []string
			for _, name := range p.headers {
				if strings.HasPrefix(name, ":") {
					pseudo = append(pseudo, name)
				} else {
					regular = append(regular, name)
				}
			}
			assert.Equal(t, imp.PseudoHeaderOrder(), pseudo)
			profile := lower(imp.Settings().Headers.Keys())
			assert.Equal(t, profile, inOrder(regular, profile))
		})
	}
}

// TestTransport_HeaderOrderHTTP1 reads a raw HTTP/1.1 request and checks the
// profile headers arrive in profile order.
func TestTransport_HeaderOrderHTTP1(t *testing.T) {
	certSrv := startServer(t, false, func(http.ResponseWriter, *http.Request) {})
	ln, err := tls.Listen("tcp", "127.0.0.1:0", &tls.Config{
		Certificates: certSrv.TLS.Certificates,
		NextProtos:   []string{"http/1.1"},
	})
	require.NoError(t, err)
	defer ln.Close()

	names := make(chan []string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			names <- nil
			return
		}
		defer conn.Close()
		br := bufio.NewReader(conn)
		var got []string
		if _, err := br.ReadString('\n'); err != nil {
			names <- nil
			return
		}
		for {
			line, err := br.ReadString('\n')
			if err != nil || line == "\r\n" {
				break
			}
			if i := strings.IndexByte(line, ':'); i > 0 {
				got = append(got, line[:i])
			}
		}
		io.WriteString(conn, "HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n")
		names <- got
	}()

	imp := impersonate.Chrome124
	hc, err := client.New(context.Background(), client.Options{
		Context: impersonate.NewContext(imp).WithH2(false).WithCertsVerification(false),
		Timeout: 3 * time.Second,
	})
	require.NoError(t, err)
	defer hc.CloseIdleConnections()
	resp, err := hc.Get("https://" + ln.Addr().String() + "/")
	require.NoError(t, err)
	resp.Body.Close()

	got := <-names
	require.NotEmpty(t, got)
	// The request line writer places User-Agent itself.
	var profile []string
	for _, k := range lower(imp.Settings().Headers.Keys()) {
		if k != "user-agent" {
			profile = append(profile, k)
		}
	}
	assert.Equal(t, profile, inOrder(got, profile))
}

func TestTransport_PlainHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, r.Header.Get("User-Agent"))
	}))
	defer srv.Close()

	hc, err := client.New(context.Background(), client.Options{
		Context: impersonate.NewContext(impersonate.OkHttp5),
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)
	_, body := fetch(t, hc, srv.URL)
	assert.Equal(t, "okhttp/5.0.0-alpha2", body)
}
