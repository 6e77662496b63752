package impersonate

import (
	"crypto/tls"
	"strings"

	utls "github.com/refraction-networking/utls"
)

const greaseToken = "GREASE"

// cipherIDs maps IANA suite names to their code points. The crypto/tls
// tables carry the same IDs utls implements.
var cipherIDs = func() map[string]uint16 {
	m := make(map[string]uint16)
	for _, s := range tls.CipherSuites() {
		m[s.Name] = s.ID
	}
	for _, s := range tls.InsecureCipherSuites() {
		m[s.Name] = s.ID
	}
	return m
}()

var curveIDs = map[string]utls.CurveID{
	"X25519":                utls.X25519,
	"P-256":                 utls.CurveP256,
	"P-384":                 utls.CurveP384,
	"P-521":                 utls.CurveP521,
	"X25519Kyber768Draft00": utls.X25519Kyber768Draft00,
	"X25519MLKEM768":        utls.X25519MLKEM768,
}

// hybridCurve reports whether id is a post-quantum hybrid group. Clients
// offering one also send a classic X25519 key share.
func hybridCurve(id utls.CurveID) bool {
	return id == utls.X25519Kyber768Draft00 || id == utls.X25519MLKEM768
}

func splitList(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ":") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func parseCipherList(s string) ([]uint16, error) {
	names := splitList(s)
	if len(names) == 0 {
		return nil, &ConfigError{Op: "cipher list", Value: s, Err: ErrEmptyList}
	}
	ids := make([]uint16, 0, len(names))
	for _, n := range names {
		if n == greaseToken {
			ids = append(ids, utls.GREASE_PLACEHOLDER)
			continue
		}
		id, ok := cipherIDs[n]
		if !ok {
			return nil, &ConfigError{Op: "cipher list", Value: n, Err: ErrUnknownCipher}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseCurves(s string) ([]utls.CurveID, error) {
	names := splitList(s)
	if len(names) == 0 {
		return nil, &ConfigError{Op: "curves", Value: s, Err: ErrEmptyList}
	}
	ids := make([]utls.CurveID, 0, len(names))
	for _, n := range names {
		if n == greaseToken {
			ids = append(ids, utls.CurveID(utls.GREASE_PLACEHOLDER))
			continue
		}
		id, ok := curveIDs[n]
		if !ok {
			return nil, &ConfigError{Op: "curves", Value: n, Err: ErrUnknownCurve}
		}
		ids = append(ids, id)
	}
	return ids, nil
}
