package impersonate

import (
	utls "github.com/refraction-networking/utls"
)

// Protocol identifiers offered in ALPN.
const (
	protoH2     = "h2"
	protoHTTP11 = "http/1.1"
)

// BuilderFunc produces a fresh, unconfigured builder. It is called once per
// CreateConnector so no state leaks between logical clients through the
// builder itself.
type BuilderFunc func() (*BuilderConfig, error)

// BuilderOption is one handshake-shaping step applied to a BuilderConfig.
type BuilderOption func(*BuilderConfig) error

// BuilderConfig is the reusable, connection-independent half of the TLS
// configuration. Settings that only exist per connection live on
// ConnectionConfig and cannot be set here.
type BuilderConfig struct {
	family ClientProfile

	cipherSuites []uint16
	curves       []utls.CurveID
	alpn         []string
	sigAlgs      []utls.SignatureScheme
	versions     []uint16
	certCompress []utls.CertCompressionAlgo

	insecureSkipVerify bool

	template extensionTemplate
}

// NewChromeBuilder returns an unconfigured builder with the Chrome family
// extension layout. Edge profiles use it too.
func NewChromeBuilder() (*BuilderConfig, error) {
	return &BuilderConfig{
		family:       ClientChrome,
		sigAlgs:      chromeSigAlgs,
		versions:     []uint16{utls.GREASE_PLACEHOLDER, utls.VersionTLS13, utls.VersionTLS12},
		certCompress: []utls.CertCompressionAlgo{utls.CertCompressionBrotli},
		template:     chromeExtensions,
	}, nil
}

// NewSafariBuilder returns an unconfigured builder with the Safari family
// extension layout.
func NewSafariBuilder() (*BuilderConfig, error) {
	return &BuilderConfig{
		family:  ClientSafari,
		sigAlgs: safariSigAlgs,
		versions: []uint16{
			utls.GREASE_PLACEHOLDER, utls.VersionTLS13, utls.VersionTLS12,
			utls.VersionTLS11, utls.VersionTLS10,
		},
		certCompress: []utls.CertCompressionAlgo{utls.CertCompressionZlib},
		template:     safariExtensions,
	}, nil
}

// NewOkHttpBuilder returns an unconfigured builder with the OkHttp (Android
// BoringSSL) extension layout.
func NewOkHttpBuilder() (*BuilderConfig, error) {
	return &BuilderConfig{
		family:   ClientOkHttp,
		sigAlgs:  okhttpSigAlgs,
		versions: []uint16{utls.VersionTLS13, utls.VersionTLS12},
		template: okhttpExtensions,
	}, nil
}

// Configure applies opts in order. It stops at the first failing step and
// returns its error unchanged.
func (b *BuilderConfig) Configure(opts ...BuilderOption) (*BuilderConfig, error) {
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Family returns the client family the builder lays extensions out for.
func (b *BuilderConfig) Family() ClientProfile { return b.family }

// CipherSuites returns a copy of the configured cipher suite order.
func (b *BuilderConfig) CipherSuites() []uint16 { return append([]uint16(nil), b.cipherSuites...) }

// Curves returns a copy of the configured supported groups.
func (b *BuilderConfig) Curves() []utls.CurveID { return append([]utls.CurveID(nil), b.curves...) }

// NextProtos returns a copy of the ALPN protocol list.
func (b *BuilderConfig) NextProtos() []string { return append([]string(nil), b.alpn...) }

// VerifiesCertificates reports whether server certificates are checked.
func (b *BuilderConfig) VerifiesCertificates() bool { return !b.insecureSkipVerify }

// WithCipherList sets the cipher suites from a colon-separated list of IANA
// names in wire order. "GREASE" inserts a GREASE placeholder.
func WithCipherList(list string) BuilderOption {
	return func(b *BuilderConfig) error {
		ids, err := parseCipherList(list)
		if err != nil {
			return err
		}
		b.cipherSuites = ids
		return nil
	}
}

// WithCurves sets the supported groups from a colon-separated list, e.g.
// "GREASE:X25519:P-256:P-384".
func WithCurves(list string) BuilderOption {
	return func(b *BuilderConfig) error {
		ids, err := parseCurves(list)
		if err != nil {
			return err
		}
		b.curves = ids
		return nil
	}
}

// WithALPN offers "h2,http/1.1" when h2 is set and "http/1.1" otherwise.
func WithALPN(h2 bool) BuilderOption {
	return func(b *BuilderConfig) error {
		if h2 {
			b.alpn = []string{protoH2, protoHTTP11}
		} else {
			b.alpn = []string{protoHTTP11}
		}
		return nil
	}
}

// WithCertVerification toggles server certificate verification. With
// verification off any certificate is accepted.
func WithCertVerification(enabled bool) BuilderOption {
	return func(b *BuilderConfig) error {
		b.insecureSkipVerify = !enabled
		return nil
	}
}

func (b *BuilderConfig) supportsTLS13() bool {
	for _, v := range b.versions {
		if v == utls.VersionTLS13 {
			return true
		}
	}
	return false
}

func (b *BuilderConfig) offersH2() bool {
	for _, p := range b.alpn {
		if p == protoH2 {
			return true
		}
	}
	return false
}

// versionRange returns the lowest and highest real version in b.versions.
func (b *BuilderConfig) versionRange() (lo, hi uint16) {
	for _, v := range b.versions {
		if v == utls.GREASE_PLACEHOLDER {
			continue
		}
		if lo == 0 || v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
