package impersonate

import (
	"fmt"
	"strings"

	"golang.org/x/net/http2"
)

// defaultConnWindow is the connection flow-control window every HTTP/2
// endpoint starts with (RFC 9113 section 6.9.2).
const defaultConnWindow = 65535

// Http2Settings holds the HTTP/2 values a profile announces. A nil field
// means "keep the transport default" and is never sent; an explicit zero is
// sent as zero.
type Http2Settings struct {
	InitialStreamWindowSize     *uint32
	InitialConnectionWindowSize *uint32
	MaxConcurrentStreams        *uint32
	MaxHeaderListSize           *uint32
	HeaderTableSize             *uint32
	EnablePush                  *bool
}

func u32(v uint32) *uint32 { return &v }
func boolp(v bool) *bool   { return &v }

// Frames returns the SETTINGS parameters to put on the wire, in the order
// browsers send them. Unset fields are omitted.
func (s Http2Settings) Frames() []http2.Setting {
	var out []http2.Setting
	if s.HeaderTableSize != nil {
		out = append(out, http2.Setting{ID: http2.SettingHeaderTableSize, Val: *s.HeaderTableSize})
	}
	if s.EnablePush != nil {
		var v uint32
		if *s.EnablePush {
			v = 1
		}
		out = append(out, http2.Setting{ID: http2.SettingEnablePush, Val: v})
	}
	if s.MaxConcurrentStreams != nil {
		out = append(out, http2.Setting{ID: http2.SettingMaxConcurrentStreams, Val: *s.MaxConcurrentStreams})
	}
	if s.InitialStreamWindowSize != nil {
		out = append(out, http2.Setting{ID: http2.SettingInitialWindowSize, Val: *s.InitialStreamWindowSize})
	}
	if s.MaxHeaderListSize != nil {
		out = append(out, http2.Setting{ID: http2.SettingMaxHeaderListSize, Val: *s.MaxHeaderListSize})
	}
	return out
}

// ConnectionWindowIncrement returns the WINDOW_UPDATE increment sent on
// stream 0 right after the preface, or 0 when no update is sent.
func (s Http2Settings) ConnectionWindowIncrement() uint32 {
	if s.InitialConnectionWindowSize == nil || *s.InitialConnectionWindowSize <= defaultConnWindow {
		return 0
	}
	return *s.InitialConnectionWindowSize - defaultConnWindow
}

// String renders the settings in the "id:value;...|window" form used by
// HTTP/2 fingerprinting tools.
func (s Http2Settings) String() string {
	frames := s.Frames()
	parts := make([]string, 0, len(frames))
	for _, f := range frames {
		parts = append(parts, fmt.Sprintf("%d:%d", uint16(f.ID), f.Val))
	}
	return fmt.Sprintf("%s|%d", strings.Join(parts, ";"), s.ConnectionWindowIncrement())
}

// Http2Settings maps the profile to its HTTP/2 values. It is pure and
// returns a fresh record on every call.
func (i Impersonate) Http2Settings() Http2Settings {
	return profileData(i).http2()
}

// PseudoHeaderOrder returns the order in which the family sends the HTTP/2
// pseudo headers: Chrome m,a,s,p, Safari m,s,p,a, OkHttp m,p,a,s.
func (i Impersonate) PseudoHeaderOrder() []string {
	switch i.Profile() {
	case ClientSafari:
		return []string{":method", ":scheme", ":path", ":authority"}
	case ClientOkHttp:
		return []string{":method", ":path", ":authority", ":scheme"}
	}
	return []string{":method", ":authority", ":scheme", ":path"}
}
