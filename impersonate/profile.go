// Package impersonate shapes outbound TLS and HTTP/2 connections so they
// reproduce the network fingerprint of a named browser or client build.
//
// A profile (Impersonate) selects static data: an ordered cipher list, an
// ordered curve list, a header set and HTTP/2 SETTINGS values. A Context
// carries the profile plus per-client feature flags. A TLSConnector turns a
// Context and a base dialer into an HTTPSConnector whose ClientHello matches
// the profile.
//
// Configuration happens in two phases with distinct types:
//
//   - BuilderConfig is the reusable builder (ciphers, curves, ALPN,
//     certificate verification).
//   - ConnectionConfig exists once per dial, after the engine's connection
//     object is created and before the handshake. Extension permutation,
//     ECH GREASE and the ALPS extension can only be set here.
//
// # Usage
//
//	settings := impersonate.Chrome124.Settings()
//	conn, err := settings.TLSConnector.CreateConnector(ctx,
//		impersonate.NewContext(impersonate.Chrome124), &net.Dialer{})
package impersonate

import (
	"fmt"
	"strings"
)

// Impersonate identifies a target client build.
type Impersonate int

// Supported profiles.
const (
	Chrome100 Impersonate = iota
	Chrome101
	Chrome104
	Chrome105
	Chrome106
	Chrome107
	Chrome108
	Chrome109
	Chrome114
	Chrome116
	Chrome117
	Chrome118
	Chrome119
	Chrome120
	Chrome123
	Chrome124
	Chrome126
	Chrome127
	Cronet

	Edge99
	Edge101
	Edge122
	Edge127

	Safari12
	Safari15_3
	Safari15_5
	Safari15_6_1
	Safari16
	Safari16_5
	Safari17_2_1
	Safari17_4_1
	SafariIos16_5
	SafariIos17_2
	SafariIos17_4_1
	SafariIPad18

	OkHttp3_9
	OkHttp3_11
	OkHttp3_13
	OkHttp3_14
	OkHttp4_9
	OkHttp4_10
	OkHttp5

	numProfiles
)

var profileNames = [numProfiles]string{
	Chrome100:       "chrome_100",
	Chrome101:       "chrome_101",
	Chrome104:       "chrome_104",
	Chrome105:       "chrome_105",
	Chrome106:       "chrome_106",
	Chrome107:       "chrome_107",
	Chrome108:       "chrome_108",
	Chrome109:       "chrome_109",
	Chrome114:       "chrome_114",
	Chrome116:       "chrome_116",
	Chrome117:       "chrome_117",
	Chrome118:       "chrome_118",
	Chrome119:       "chrome_119",
	Chrome120:       "chrome_120",
	Chrome123:       "chrome_123",
	Chrome124:       "chrome_124",
	Chrome126:       "chrome_126",
	Chrome127:       "chrome_127",
	Cronet:          "cronet",
	Edge99:          "edge_99",
	Edge101:         "edge_101",
	Edge122:         "edge_122",
	Edge127:         "edge_127",
	Safari12:        "safari_12",
	Safari15_3:      "safari_15.3",
	Safari15_5:      "safari_15.5",
	Safari15_6_1:    "safari_15.6.1",
	Safari16:        "safari_16",
	Safari16_5:      "safari_16.5",
	Safari17_2_1:    "safari_17.2.1",
	Safari17_4_1:    "safari_17.4.1",
	SafariIos16_5:   "safari_ios_16.5",
	SafariIos17_2:   "safari_ios_17.2",
	SafariIos17_4_1: "safari_ios_17.4.1",
	SafariIPad18:    "safari_ipad_18",
	OkHttp3_9:       "okhttp_3.9",
	OkHttp3_11:      "okhttp_3.11",
	OkHttp3_13:      "okhttp_3.13",
	OkHttp3_14:      "okhttp_3.14",
	OkHttp4_9:       "okhttp_4.9",
	OkHttp4_10:      "okhttp_4.10",
	OkHttp5:         "okhttp_5",
}

// String returns the canonical profile name, e.g. "chrome_124".
func (i Impersonate) String() string {
	if i < 0 || i >= numProfiles {
		return fmt.Sprintf("Impersonate(%d)", int(i))
	}
	return profileNames[i]
}

// Profiles returns every supported profile in declaration order.
func Profiles() []Impersonate {
	out := make([]Impersonate, 0, numProfiles)
	for i := Impersonate(0); i < numProfiles; i++ {
		out = append(out, i)
	}
	return out
}

// ParseImpersonate resolves a profile name. Matching ignores case and the
// separators '_', '.' and '-', so "chrome_124", "Chrome124" and
// "safari-15.3" are all accepted.
func ParseImpersonate(name string) (Impersonate, error) {
	want := squashName(name)
	for i, n := range profileNames {
		if squashName(n) == want {
			return Impersonate(i), nil
		}
	}
	return 0, fmt.Errorf("impersonate: unknown profile %q", name)
}

func squashName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '_', '.', '-', ' ':
			return -1
		}
		return r
	}, strings.ToLower(s))
}

// MarshalText implements encoding.TextMarshaler.
func (i Impersonate) MarshalText() ([]byte, error) {
	if i < 0 || i >= numProfiles {
		return nil, fmt.Errorf("impersonate: invalid profile %d", int(i))
	}
	return []byte(profileNames[i]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *Impersonate) UnmarshalText(b []byte) error {
	v, err := ParseImpersonate(string(b))
	if err != nil {
		return err
	}
	*i = v
	return nil
}

// ClientProfile is the client family a profile belongs to. The family
// decides which shaping steps apply at all.
type ClientProfile int

const (
	ClientChrome ClientProfile = iota
	ClientEdge
	ClientSafari
	ClientOkHttp
)

func (p ClientProfile) String() string {
	switch p {
	case ClientChrome:
		return "chrome"
	case ClientEdge:
		return "edge"
	case ClientSafari:
		return "safari"
	case ClientOkHttp:
		return "okhttp"
	}
	return fmt.Sprintf("ClientProfile(%d)", int(p))
}

// Profile returns the client family of i. Cronet is a Chrome build.
func (i Impersonate) Profile() ClientProfile {
	switch i {
	case Chrome100, Chrome101, Chrome104, Chrome105, Chrome106, Chrome107,
		Chrome108, Chrome109, Chrome114, Chrome116, Chrome117, Chrome118,
		Chrome119, Chrome120, Chrome123, Chrome124, Chrome126, Chrome127,
		Cronet:
		return ClientChrome
	case Edge99, Edge101, Edge122, Edge127:
		return ClientEdge
	case Safari12, Safari15_3, Safari15_5, Safari15_6_1, Safari16,
		Safari16_5, Safari17_2_1, Safari17_4_1, SafariIos16_5,
		SafariIos17_2, SafariIos17_4_1, SafariIPad18:
		return ClientSafari
	case OkHttp3_9, OkHttp3_11, OkHttp3_13, OkHttp3_14, OkHttp4_9,
		OkHttp4_10, OkHttp5:
		return ClientOkHttp
	}
	panic(fmt.Sprintf("impersonate: no family for %v", i))
}

// requiresPSK reports whether the real client sends the pre_shared_key
// extension on resumed connections, so a session cache must be attached
// even when the context does not ask for one.
func (i Impersonate) requiresPSK() bool {
	switch i {
	case Chrome116, Chrome117, Chrome120, Chrome123, Chrome124, Chrome126,
		Chrome127, Cronet, Edge122, Edge127:
		return true
	}
	return false
}

// chromeFamily reports whether connection finalization (permutation, ECH
// GREASE, ALPS) applies to the profile.
func (p ClientProfile) chromeFamily() bool {
	switch p {
	case ClientChrome, ClientEdge:
		return true
	case ClientSafari, ClientOkHttp:
		return false
	}
	return false
}
