// Package proxy provides the base dialers impersonating connections run over:
// direct TCP or a SOCKS5 tunnel, with round-robin rotation across a proxy
// list.
package proxy

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	xproxy "golang.org/x/net/proxy"

	"github.com/firasghr/GoImpersonate/impersonate"
)

// ProxyManager holds a list of proxy URLs and rotates through them in a
// round-robin fashion. All methods are safe for concurrent use.
type ProxyManager struct {
	proxies []string
	index   int
	mutex   sync.Mutex
}

// LoadProxies reads a newline-delimited list of proxy addresses from filename
// and stores them in pm. Lines that are blank or begin with '#' are ignored.
// A bare host:port is taken as socks5://host:port; every entry must parse as
// a SOCKS5 proxy URL.
//
// LoadProxies replaces any previously loaded proxies.
func (pm *ProxyManager) LoadProxies(filename string) error {
	f, err := os.Open(filename) // #nosec G304 – filename is an operator-supplied config path
	if err != nil {
		return fmt.Errorf("proxy: open %q: %w", filename, err)
	}
	defer f.Close()

	var loaded []string
	scanner := bufio.NewScanner(f)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		u, err := parseProxy(line)
		if err != nil {
			return fmt.Errorf("proxy: %s:%d: %w", filename, n, err)
		}
		loaded = append(loaded, u.String())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("proxy: read %q: %w", filename, err)
	}

	pm.mutex.Lock()
	pm.proxies = loaded
	pm.index = 0
	pm.mutex.Unlock()
	return nil
}

// GetNextProxy returns the next proxy in the rotation and advances the
// index. If no proxies are loaded it returns "", meaning direct.
func (pm *ProxyManager) GetNextProxy() string {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	if len(pm.proxies) == 0 {
		return ""
	}
	p := pm.proxies[pm.index]
	pm.index = (pm.index + 1) % len(pm.proxies)
	return p
}

// NextDialer returns a base dialer for the next proxy in the rotation.
func (pm *ProxyManager) NextDialer(timeout time.Duration) (impersonate.Dialer, error) {
	return Dialer(pm.GetNextProxy(), timeout)
}

// Count returns the number of loaded proxies.
func (pm *ProxyManager) Count() int {
	pm.mutex.Lock()
	n := len(pm.proxies)
	pm.mutex.Unlock()
	return n
}

// Dialer returns a base dialer for proxyAddr. An empty proxyAddr dials
// directly; otherwise proxyAddr is a socks5:// or socks5h:// URL, optionally
// with user:password. timeout bounds the TCP connect to the proxy or target.
func Dialer(proxyAddr string, timeout time.Duration) (impersonate.Dialer, error) {
	direct := &net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}
	if proxyAddr == "" {
		return direct, nil
	}
	u, err := parseProxy(proxyAddr)
	if err != nil {
		return nil, fmt.Errorf("proxy: %w", err)
	}
	d, err := xproxy.FromURL(u, direct)
	if err != nil {
		return nil, fmt.Errorf("proxy: dialer for %s: %w", u.Redacted(), err)
	}
	if cd, ok := d.(xproxy.ContextDialer); ok {
		return cd, nil
	}
	return contextDialer{d}, nil
}

// contextDialer adapts a dialer without DialContext. The dial itself cannot
// be cancelled; ctx is only checked before it starts.
type contextDialer struct {
	d xproxy.Dialer
}

func (c contextDialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.d.Dial(network, addr)
}

func parseProxy(s string) (*url.URL, error) {
	if !strings.Contains(s, "://") {
		s = "socks5://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", s, err)
	}
	switch u.Scheme {
	case "socks5", "socks5h":
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}
	if u.Port() == "" {
		return nil, fmt.Errorf("proxy %q has no port", u.Redacted())
	}
	return u, nil
}
