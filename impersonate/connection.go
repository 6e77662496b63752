package impersonate

import (
	"errors"

	utls "github.com/refraction-networking/utls"
)

var (
	errNoTLS13     = errors.New("ECH GREASE needs TLS 1.3 in supported versions")
	errNoH2        = errors.New("application settings need h2 in ALPN")
	errNoExtension = errors.New("no extensions to permute")
)

// ConnectionConfig is the per-connection half of the TLS configuration. The
// connector creates one for every dial, after the engine's connection object
// exists and before the handshake, and hands it to the finalization
// callback. It is never shared between connections.
type ConnectionConfig struct {
	builder    *BuilderConfig
	serverName string
	resumption bool

	permute   bool
	echGrease bool
	alps      bool
}

func newConnectionConfig(b *BuilderConfig, serverName string, resumption bool) *ConnectionConfig {
	return &ConnectionConfig{builder: b, serverName: serverName, resumption: resumption}
}

// ServerName returns the SNI host the connection is bound to.
func (c *ConnectionConfig) ServerName() string { return c.serverName }

// Resumption reports whether the connection offers session resumption.
func (c *ConnectionConfig) Resumption() bool { return c.resumption }

// SetPermuteExtensions toggles Chrome-style extension order randomisation.
func (c *ConnectionConfig) SetPermuteExtensions(v bool) error {
	if v && c.builder.template == nil {
		return errNoExtension
	}
	c.permute = v
	return nil
}

// SetECHGrease toggles the GREASE encrypted_client_hello extension.
func (c *ConnectionConfig) SetECHGrease(v bool) error {
	if v && !c.builder.supportsTLS13() {
		return errNoTLS13
	}
	c.echGrease = v
	return nil
}

// SetApplicationSettings toggles the ALPS extension announcing h2 settings.
func (c *ConnectionConfig) SetApplicationSettings(v bool) error {
	if v && !c.builder.offersH2() {
		return errNoH2
	}
	c.alps = v
	return nil
}

// Spec materialises the ClientHello for this connection. Each call returns
// new extension instances.
func (c *ConnectionConfig) Spec() *utls.ClientHelloSpec {
	b := c.builder
	var exts []utls.TLSExtension
	if b.template != nil {
		exts = b.template(b)
	}

	var extra []utls.TLSExtension
	if c.alps {
		extra = append(extra, &utls.ApplicationSettingsExtension{SupportedProtocols: []string{protoH2}})
	}
	if c.echGrease {
		extra = append(extra, utls.BoringGREASEECH())
	}
	exts = insertBeforeTrailer(exts, extra)

	if c.permute {
		exts = utls.ShuffleChromeTLSExtensions(exts)
	}
	if c.resumption {
		// pre_shared_key must be the last extension.
		exts = append(exts, &utls.UtlsPreSharedKeyExtension{})
	}

	lo, hi := b.versionRange()
	return &utls.ClientHelloSpec{
		CipherSuites:       b.CipherSuites(),
		CompressionMethods: []uint8{0x00},
		Extensions:         exts,
		TLSVersMin:         lo,
		TLSVersMax:         hi,
	}
}

// insertBeforeTrailer places extra ahead of the closing GREASE and padding
// extensions, where Chrome puts ALPS and ECH.
func insertBeforeTrailer(exts, extra []utls.TLSExtension) []utls.TLSExtension {
	if len(extra) == 0 {
		return exts
	}
	at := len(exts)
trailer:
	for at > 0 {
		switch exts[at-1].(type) {
		case *utls.UtlsGREASEExtension, *utls.UtlsPaddingExtension:
			at--
		default:
			break trailer
		}
	}
	out := make([]utls.TLSExtension, 0, len(exts)+len(extra))
	out = append(out, exts[:at]...)
	out = append(out, extra...)
	return append(out, exts[at:]...)
}
