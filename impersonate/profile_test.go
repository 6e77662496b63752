package impersonate_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/firasghr/GoImpersonate/impersonate"
)

func TestParseImpersonate_RoundTrip(t *testing.T) {
	for _, p := range impersonate.Profiles() {
		got, err := impersonate.ParseImpersonate(p.String())
		if err != nil {
			t.Fatalf("ParseImpersonate(%q): %v", p.String(), err)
		}
		if got != p {
			t.Errorf("ParseImpersonate(%q) = %v, want %v", p.String(), got, p)
		}
	}
}

func TestParseImpersonate_LooseForms(t *testing.T) {
	cases := map[string]impersonate.Impersonate{
		"Chrome124":       impersonate.Chrome124,
		"chrome-124":      impersonate.Chrome124,
		"CRONET":          impersonate.Cronet,
		"safari15_3":      impersonate.Safari15_3,
		"okhttp_4.10":     impersonate.OkHttp4_10,
		"safari_ios_17.2": impersonate.SafariIos17_2,
	}
	for in, want := range cases {
		got, err := impersonate.ParseImpersonate(in)
		if err != nil {
			t.Errorf("ParseImpersonate(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseImpersonate(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseImpersonate_Unknown(t *testing.T) {
	if _, err := impersonate.ParseImpersonate("netscape_4"); err == nil {
		t.Error("expected error for unknown profile")
	}
}

func TestProfileFamilies(t *testing.T) {
	cases := map[impersonate.Impersonate]impersonate.ClientProfile{
		impersonate.Chrome100:    impersonate.ClientChrome,
		impersonate.Cronet:       impersonate.ClientChrome,
		impersonate.Edge127:      impersonate.ClientEdge,
		impersonate.Safari17_2_1: impersonate.ClientSafari,
		impersonate.SafariIPad18: impersonate.ClientSafari,
		impersonate.OkHttp5:      impersonate.ClientOkHttp,
	}
	for p, want := range cases {
		if got := p.Profile(); got != want {
			t.Errorf("%v.Profile() = %v, want %v", p, got, want)
		}
	}
}

func TestEveryProfileHasFamily(t *testing.T) {
	for _, p := range impersonate.Profiles() {
		// Must not panic.
		_ = p.Profile()
	}
}

func TestPipeline_AllProfilesConfigure(t *testing.T) {
	for _, p := range impersonate.Profiles() {
		b, err := p.Builder()()
		if err != nil {
			t.Errorf("%v: builder: %v", p, err)
			continue
		}
		for _, h2 := range []bool{true, false} {
			if _, err := b.Configure(impersonate.WithALPN(h2), impersonate.WithCertVerification(true)); err != nil {
				t.Errorf("%v h2=%v: configure: %v", p, h2, err)
			}
		}
		if len(b.CipherSuites()) == 0 || len(b.Curves()) == 0 {
			t.Errorf("%v: empty cipher or curve list", p)
		}
	}
}

func TestHttp2Settings_Deterministic(t *testing.T) {
	for _, p := range impersonate.Profiles() {
		a, b := p.Http2Settings(), p.Http2Settings()
		if !reflect.DeepEqual(a, b) {
			t.Errorf("%v: settings differ between calls", p)
		}
		if a.InitialStreamWindowSize == b.InitialStreamWindowSize && a.InitialStreamWindowSize != nil {
			t.Errorf("%v: settings share storage between calls", p)
		}
		if !reflect.DeepEqual(a.Frames(), b.Frames()) {
			t.Errorf("%v: frames differ between calls", p)
		}
	}
}

func TestHttp2Settings_Chrome124(t *testing.T) {
	s := impersonate.Chrome124.Http2Settings()
	if s.InitialStreamWindowSize == nil || *s.InitialStreamWindowSize != 6291456 {
		t.Errorf("InitialStreamWindowSize = %v, want 6291456", s.InitialStreamWindowSize)
	}
	if s.EnablePush == nil || *s.EnablePush {
		t.Errorf("EnablePush = %v, want explicit false", s.EnablePush)
	}
	if s.MaxConcurrentStreams != nil {
		t.Errorf("MaxConcurrentStreams = %d, want unset", *s.MaxConcurrentStreams)
	}
	if got := s.String(); got != "1:65536;2:0;4:6291456;6:262144|15663105" {
		t.Errorf("String() = %q", got)
	}
}

func TestHttp2Settings_UnsetNeverEmitted(t *testing.T) {
	s := impersonate.OkHttp4_9.Http2Settings()
	frames := s.Frames()
	if len(frames) != 1 {
		t.Fatalf("expected only INITIAL_WINDOW_SIZE, got %v", frames)
	}
	if frames[0].Val != 16777216 {
		t.Errorf("INITIAL_WINDOW_SIZE = %d", frames[0].Val)
	}

	var empty impersonate.Http2Settings
	if len(empty.Frames()) != 0 {
		t.Errorf("empty settings emitted %v", empty.Frames())
	}
	if empty.ConnectionWindowIncrement() != 0 {
		t.Error("empty settings should send no WINDOW_UPDATE")
	}
}

func TestSettingsBundle(t *testing.T) {
	s := impersonate.Cronet.Settings()
	if s.TLSConnector == nil {
		t.Fatal("nil TLSConnector")
	}
	if !s.Gzip || !s.Brotli {
		t.Error("Cronet should decode gzip and brotli")
	}
	if got := s.Headers.Get("Accept-Encoding"); got != "gzip, deflate, br, zstd" {
		t.Errorf("accept-encoding = %q", got)
	}
	if s.Headers.Len() != 1 || s.Headers.Has("user-agent") {
		t.Errorf("Cronet should only add accept-encoding, got %v", s.Headers.Keys())
	}
	merged := impersonate.ConfigureImpersonate(impersonate.Cronet, headerSet("User-Agent", "app/1.0"))
	if merged.Get("user-agent") != "app/1.0" || merged.Get("accept-encoding") == "" {
		t.Errorf("Cronet merge = %v", merged.Keys())
	}
	if s.TLSConnector == impersonate.Cronet.Settings().TLSConnector {
		t.Error("each Settings call should create a new TLSConnector")
	}

	ok := impersonate.OkHttp4_10.Settings()
	if ok.Brotli {
		t.Error("OkHttp should not advertise brotli")
	}
	if got := ok.Headers.Get("user-agent"); got != "okhttp/4.10.0" {
		t.Errorf("user-agent = %q", got)
	}
}

func headerSet(kv ...string) *impersonate.HeaderSet {
	h := &impersonate.HeaderSet{}
	for i := 0; i+1 < len(kv); i += 2 {
		h.Add(kv[i], kv[i+1])
	}
	return h
}

func TestPseudoHeaderOrder(t *testing.T) {
	cases := map[impersonate.Impersonate]string{
		impersonate.Chrome124:  ":method :authority :scheme :path",
		impersonate.Edge127:    ":method :authority :scheme :path",
		impersonate.Safari16:   ":method :scheme :path :authority",
		impersonate.OkHttp4_10: ":method :path :authority :scheme",
	}
	for imp, want := range cases {
		if got := strings.Join(imp.PseudoHeaderOrder(), " "); got != want {
			t.Errorf("%s: pseudo order = %q, want %q", imp, got, want)
		}
	}
}
