package impersonate

import (
	"fmt"
	"strings"
)

// Static profile data. The lists are consumed as-is by the builder pipeline
// and never validated here beyond what the engine rejects.

const (
	chromeCiphers = "GREASE:" +
		"TLS_AES_128_GCM_SHA256:TLS_AES_256_GCM_SHA384:TLS_CHACHA20_POLY1305_SHA256:" +
		"TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256:TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256:" +
		"TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384:TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384:" +
		"TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256:TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256:" +
		"TLS_ECDHE_RSA_WITH_AES_128_CBC_SHA:TLS_ECDHE_RSA_WITH_AES_256_CBC_SHA:" +
		"TLS_RSA_WITH_AES_128_GCM_SHA256:TLS_RSA_WITH_AES_256_GCM_SHA384:" +
		"TLS_RSA_WITH_AES_128_CBC_SHA:TLS_RSA_WITH_AES_256_CBC_SHA"

	safariCiphers = "GREASE:" +
		"TLS_AES_128_GCM_SHA256:TLS_AES_256_GCM_SHA384:TLS_CHACHA20_POLY1305_SHA256:" +
		"TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384:TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256:" +
		"TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256:TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384:" +
		"TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256:TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256:" +
		"TLS_ECDHE_ECDSA_WITH_AES_256_CBC_SHA:TLS_ECDHE_ECDSA_WITH_AES_128_CBC_SHA:" +
		"TLS_ECDHE_RSA_WITH_AES_256_CBC_SHA:TLS_ECDHE_RSA_WITH_AES_128_CBC_SHA:" +
		"TLS_RSA_WITH_AES_256_GCM_SHA384:TLS_RSA_WITH_AES_128_GCM_SHA256:" +
		"TLS_RSA_WITH_AES_256_CBC_SHA:TLS_RSA_WITH_AES_128_CBC_SHA:" +
		"TLS_ECDHE_RSA_WITH_3DES_EDE_CBC_SHA:TLS_RSA_WITH_3DES_EDE_CBC_SHA"

	okhttpCiphers = "TLS_AES_128_GCM_SHA256:TLS_AES_256_GCM_SHA384:TLS_CHACHA20_POLY1305_SHA256:" +
		"TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256:TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256:" +
		"TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384:TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384:" +
		"TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256:TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256:" +
		"TLS_ECDHE_RSA_WITH_AES_128_CBC_SHA:TLS_ECDHE_RSA_WITH_AES_256_CBC_SHA:" +
		"TLS_RSA_WITH_AES_128_GCM_SHA256:TLS_RSA_WITH_AES_256_GCM_SHA384:" +
		"TLS_RSA_WITH_AES_128_CBC_SHA:TLS_RSA_WITH_AES_256_CBC_SHA"

	// OkHttp 3.x still offered 3DES.
	okhttp3Ciphers = okhttpCiphers + ":TLS_RSA_WITH_3DES_EDE_CBC_SHA"

	chromeCurves    = "GREASE:X25519:P-256:P-384"
	chromeNewCurves = "GREASE:X25519Kyber768Draft00:X25519:P-256:P-384"
	safariCurves    = "GREASE:X25519:P-256:P-384:P-521"
	okhttpCurves    = "X25519:P-256:P-384"
)

type profileSpec struct {
	newBuilder func() (*BuilderConfig, error)
	ciphers    string
	curves     string
	http2      func() Http2Settings
	headers    func() *HeaderSet
	gzip       bool
	brotli     bool
}

// builder returns the profile's Builder Function: a fresh family builder
// with the profile's cipher list and curves applied.
func (p profileSpec) builder() BuilderFunc {
	return func() (*BuilderConfig, error) {
		b, err := p.newBuilder()
		if err != nil {
			return nil, err
		}
		return b.Configure(WithCipherList(p.ciphers), WithCurves(p.curves))
	}
}

func profileData(i Impersonate) profileSpec {
	switch i {
	case Chrome100:
		return chrome(100, chromeCurves, chromeLegacyH2)
	case Chrome101:
		return chrome(101, chromeCurves, chromeLegacyH2)
	case Chrome104:
		return chrome(104, chromeCurves, chromeLegacyH2)
	case Chrome105:
		return chrome(105, chromeCurves, chromeLegacyH2)
	case Chrome106:
		return chrome(106, chromeCurves, chromeH2)
	case Chrome107:
		return chrome(107, chromeCurves, chromeH2)
	case Chrome108:
		return chrome(108, chromeCurves, chromeH2)
	case Chrome109:
		return chrome(109, chromeCurves, chromeH2)
	case Chrome114:
		return chrome(114, chromeCurves, chromeH2)
	case Chrome116:
		return chrome(116, chromeCurves, chromeH2)
	case Chrome117:
		return chrome(117, chromeCurves, chromeH2)
	case Chrome118:
		return chrome(118, chromeCurves, chromeH2)
	case Chrome119:
		return chrome(119, chromeCurves, chromeH2)
	case Chrome120:
		return chrome(120, chromeCurves, chromeH2)
	case Chrome123:
		return chrome(123, chromeCurves, chromeH2)
	case Chrome124:
		return chrome(124, chromeNewCurves, chromeH2)
	case Chrome126:
		return chrome(126, chromeNewCurves, chromeH2)
	case Chrome127:
		return chrome(127, chromeNewCurves, chromeH2)
	case Cronet:
		// Cronet is embedded in apps that bring their own headers; it only
		// adds its accept-encoding.
		p := chrome(127, chromeNewCurves, chromeH2)
		p.headers = func() *HeaderSet {
			h := &HeaderSet{}
			h.Add("accept-encoding", "gzip, deflate, br, zstd")
			return h
		}
		return p
	case Edge99:
		return edge(99, chromeCurves, chromeLegacyH2)
	case Edge101:
		return edge(101, chromeCurves, chromeLegacyH2)
	case Edge122:
		return edge(122, chromeCurves, chromeH2)
	case Edge127:
		return edge(127, chromeNewCurves, chromeH2)
	case Safari12:
		return safari("12.1.2", "605.1.15", safariH2(4194304), false)
	case Safari15_3:
		return safari("15.3", "605.1.15", safariH2(4194304), false)
	case Safari15_5:
		return safari("15.5", "605.1.15", safariH2(4194304), false)
	case Safari15_6_1:
		return safari("15.6.1", "605.1.15", safariH2(4194304), false)
	case Safari16:
		return safari("16.0", "605.1.15", safariH2(4194304), false)
	case Safari16_5:
		return safari("16.5", "605.1.15", safariH2(4194304), false)
	case Safari17_2_1:
		return safari("17.2.1", "605.1.15", safariH2(2097152), false)
	case Safari17_4_1:
		return safari("17.4.1", "605.1.15", safariH2(2097152), false)
	case SafariIos16_5:
		return safari("16.5", "605.1.15", safariH2(2097152), true)
	case SafariIos17_2:
		return safari("17.2", "605.1.15", safariH2(2097152), true)
	case SafariIos17_4_1:
		return safari("17.4.1", "605.1.15", safariH2(2097152), true)
	case SafariIPad18:
		return safari("18.0", "605.1.15", safariH2(2097152), true)
	case OkHttp3_9:
		return okhttp("3.9.0", okhttp3Ciphers)
	case OkHttp3_11:
		return okhttp("3.11.0", okhttp3Ciphers)
	case OkHttp3_13:
		return okhttp("3.13.1", okhttp3Ciphers)
	case OkHttp3_14:
		return okhttp("3.14.9", okhttp3Ciphers)
	case OkHttp4_9:
		return okhttp("4.9.3", okhttpCiphers)
	case OkHttp4_10:
		return okhttp("4.10.0", okhttpCiphers)
	case OkHttp5:
		return okhttp("5.0.0-alpha2", okhttpCiphers)
	}
	panic(fmt.Sprintf("impersonate: no profile data for %v", i))
}

// chromeLegacyH2 is what Chrome sent up to 105, including
// MAX_CONCURRENT_STREAMS.
func chromeLegacyH2() Http2Settings {
	s := chromeH2()
	s.MaxConcurrentStreams = u32(1000)
	return s
}

func chromeH2() Http2Settings {
	return Http2Settings{
		InitialStreamWindowSize:     u32(6291456),
		InitialConnectionWindowSize: u32(15728640),
		MaxHeaderListSize:           u32(262144),
		HeaderTableSize:             u32(65536),
		EnablePush:                  boolp(false),
	}
}

func safariH2(streamWindow uint32) func() Http2Settings {
	return func() Http2Settings {
		return Http2Settings{
			InitialStreamWindowSize:     u32(streamWindow),
			InitialConnectionWindowSize: u32(10551295),
			MaxConcurrentStreams:        u32(100),
			EnablePush:                  boolp(false),
		}
	}
}

func okhttpH2() Http2Settings {
	return Http2Settings{
		InitialStreamWindowSize:     u32(16777216),
		InitialConnectionWindowSize: u32(16777216),
	}
}

func chrome(version int, curves string, h2 func() Http2Settings) profileSpec {
	return profileSpec{
		newBuilder: NewChromeBuilder,
		ciphers:    chromeCiphers,
		curves:     curves,
		http2:      h2,
		headers: func() *HeaderSet {
			return chromiumHeaders(
				fmt.Sprintf(`"Chromium";v="%d", "Google Chrome";v="%d", "Not-A.Brand";v="99"`, version, version),
				fmt.Sprintf("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%d.0.0.0 Safari/537.36", version),
				version,
			)
		},
		gzip:   true,
		brotli: true,
	}
}

func edge(version int, curves string, h2 func() Http2Settings) profileSpec {
	p := chrome(version, curves, h2)
	p.headers = func() *HeaderSet {
		return chromiumHeaders(
			fmt.Sprintf(`"Chromium";v="%d", "Microsoft Edge";v="%d", "Not-A.Brand";v="99"`, version, version),
			fmt.Sprintf("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%d.0.0.0 Safari/537.36 Edg/%d.0.0.0", version, version),
			version,
		)
	}
	return p
}

func chromiumHeaders(secChUA, userAgent string, version int) *HeaderSet {
	h := &HeaderSet{}
	h.Add("sec-ch-ua", secChUA)
	h.Add("sec-ch-ua-mobile", "?0")
	h.Add("sec-ch-ua-platform", `"Windows"`)
	h.Add("upgrade-insecure-requests", "1")
	h.Add("user-agent", userAgent)
	h.Add("accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7")
	h.Add("sec-fetch-site", "none")
	h.Add("sec-fetch-mode", "navigate")
	h.Add("sec-fetch-user", "?1")
	h.Add("sec-fetch-dest", "document")
	if version >= 123 {
		h.Add("accept-encoding", "gzip, deflate, br, zstd")
	} else {
		h.Add("accept-encoding", "gzip, deflate, br")
	}
	h.Add("accept-language", "en-US,en;q=0.9")
	return h
}

func safari(version, webkit string, h2 func() Http2Settings, mobile bool) profileSpec {
	platform := "Macintosh; Intel Mac OS X 10_15_7"
	suffix := "Safari/" + webkit
	if mobile {
		platform = "iPhone; CPU iPhone OS " + strings.ReplaceAll(version, ".", "_") + " like Mac OS X"
		suffix = "Mobile/15E148 Safari/604.1"
	}
	ua := fmt.Sprintf("Mozilla/5.0 (%s) AppleWebKit/%s (KHTML, like Gecko) Version/%s %s", platform, webkit, version, suffix)
	return profileSpec{
		newBuilder: NewSafariBuilder,
		ciphers:    safariCiphers,
		curves:     safariCurves,
		http2:      h2,
		headers: func() *HeaderSet {
			h := &HeaderSet{}
			h.Add("user-agent", ua)
			h.Add("accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
			h.Add("accept-language", "en-US,en;q=0.9")
			h.Add("accept-encoding", "gzip, deflate, br")
			return h
		},
		gzip:   true,
		brotli: true,
	}
}

func okhttp(version, ciphers string) profileSpec {
	return profileSpec{
		newBuilder: NewOkHttpBuilder,
		ciphers:    ciphers,
		curves:     okhttpCurves,
		http2:      okhttpH2,
		headers: func() *HeaderSet {
			h := &HeaderSet{}
			h.Add("accept", "*/*")
			h.Add("accept-encoding", "gzip")
			h.Add("user-agent", "okhttp/"+version)
			return h
		},
		gzip: true,
	}
}
