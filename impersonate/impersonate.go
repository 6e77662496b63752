package impersonate

// ImpersonateSettings bundles everything one profile contributes to a
// logical client.
type ImpersonateSettings struct {
	// TLSConnector is a new wrapper with its own session cache.
	TLSConnector *TLSConnector
	// HTTP2 holds the SETTINGS values applied when a client session opens.
	HTTP2 Http2Settings
	// Headers are the profile's default request headers, in order.
	Headers *HeaderSet
	// PseudoHeaderOrder is the HTTP/2 pseudo header order.
	PseudoHeaderOrder []string
	// Gzip and Brotli enable transparent response decompression.
	Gzip   bool
	Brotli bool
}

// Settings returns the settings bundle for i. Every call creates a new
// TLSConnector, so logical clients built from separate calls never share
// a session cache.
func (i Impersonate) Settings(opts ...ConnectorOption) ImpersonateSettings {
	p := profileData(i)
	return ImpersonateSettings{
		TLSConnector:      NewTLSConnector(p.builder(), opts...),
		HTTP2:             p.http2(),
		Headers:           p.headers(),
		PseudoHeaderOrder: i.PseudoHeaderOrder(),
		Gzip:              p.gzip,
		Brotli:            p.brotli,
	}
}

// Builder returns the Builder Function for i: a fresh family builder with
// the profile's cipher list and curves.
func (i Impersonate) Builder() BuilderFunc {
	return profileData(i).builder()
}
