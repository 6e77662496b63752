package impersonate

// Context describes which profile and which optional features are active
// for one logical client. It is a value type: pass it by value and derive
// variants with the With* methods, which return modified copies. A Context
// is never changed after it has been handed to a connector.
type Context struct {
	// Impersonate is the target profile.
	Impersonate Impersonate

	// EnableECHGrease sends a GREASE encrypted_client_hello extension
	// (Chrome and Edge families only).
	EnableECHGrease bool

	// PermuteExtensions randomises the ClientHello extension order the
	// way Chrome 110+ does (Chrome and Edge families only).
	PermuteExtensions bool

	// CertsVerification enables server certificate verification. Turning it
	// off accepts any certificate and is meant for controlled tests only.
	CertsVerification bool

	// PreSharedKey forces a session cache and the pre_shared_key extension
	// for profiles that are not on the built-in allow-list.
	PreSharedKey bool

	// H2 offers "h2" in ALPN and enables the ALPS extension for Chrome and
	// Edge families.
	H2 bool
}

// NewContext returns the default context for imp: certificate verification
// and HTTP/2 on, every optional feature off.
func NewContext(imp Impersonate) Context {
	return Context{
		Impersonate:       imp,
		CertsVerification: true,
		H2:                true,
	}
}

// WithECHGrease returns a copy of c with ECH GREASE set to v.
func (c Context) WithECHGrease(v bool) Context {
	c.EnableECHGrease = v
	return c
}

// WithPermuteExtensions returns a copy of c with extension permutation set to v.
func (c Context) WithPermuteExtensions(v bool) Context {
	c.PermuteExtensions = v
	return c
}

// WithCertsVerification returns a copy of c with certificate verification set to v.
func (c Context) WithCertsVerification(v bool) Context {
	c.CertsVerification = v
	return c
}

// WithPreSharedKey returns a copy of c with the PSK override set to v.
func (c Context) WithPreSharedKey(v bool) Context {
	c.PreSharedKey = v
	return c
}

// WithH2 returns a copy of c with HTTP/2 set to v.
func (c Context) WithH2(v bool) Context {
	c.H2 = v
	return c
}

// needsSessionCache decides whether connectors built for c carry a
// resumption cache.
func (c Context) needsSessionCache() bool {
	return c.Impersonate.requiresPSK() || c.PreSharedKey
}
