package impersonate

import (
	utls "github.com/refraction-networking/utls"
)

// extensionTemplate builds a fresh extension list for b. utls extensions
// carry per-handshake state, so every connection gets new instances.
type extensionTemplate func(b *BuilderConfig) []utls.TLSExtension

var chromeSigAlgs = []utls.SignatureScheme{
	utls.ECDSAWithP256AndSHA256,
	utls.PSSWithSHA256,
	utls.PKCS1WithSHA256,
	utls.ECDSAWithP384AndSHA384,
	utls.PSSWithSHA384,
	utls.PKCS1WithSHA384,
	utls.PSSWithSHA512,
	utls.PKCS1WithSHA512,
}

var safariSigAlgs = []utls.SignatureScheme{
	utls.ECDSAWithP256AndSHA256,
	utls.PSSWithSHA256,
	utls.PKCS1WithSHA256,
	utls.ECDSAWithP384AndSHA384,
	utls.ECDSAWithSHA1,
	utls.PSSWithSHA384,
	utls.PKCS1WithSHA384,
	utls.PSSWithSHA512,
	utls.PKCS1WithSHA512,
	utls.PKCS1WithSHA1,
}

var okhttpSigAlgs = []utls.SignatureScheme{
	utls.ECDSAWithP256AndSHA256,
	utls.PSSWithSHA256,
	utls.PKCS1WithSHA256,
	utls.ECDSAWithP384AndSHA384,
	utls.PSSWithSHA384,
	utls.PKCS1WithSHA384,
	utls.PSSWithSHA512,
	utls.PKCS1WithSHA512,
	utls.PKCS1WithSHA1,
}

// keyShares mirrors what BoringSSL sends: a GREASE share when the curve list
// starts with GREASE, then the first real group, plus X25519 when that group
// is a hybrid.
func (b *BuilderConfig) keyShares() []utls.KeyShare {
	var shares []utls.KeyShare
	for _, c := range b.curves {
		if uint16(c) == utls.GREASE_PLACEHOLDER {
			if len(shares) == 0 {
				shares = append(shares, utls.KeyShare{Group: c, Data: []byte{0}})
			}
			continue
		}
		shares = append(shares, utls.KeyShare{Group: c})
		if hybridCurve(c) {
			shares = append(shares, utls.KeyShare{Group: utls.X25519})
		}
		break
	}
	return shares
}

func chromeExtensions(b *BuilderConfig) []utls.TLSExtension {
	return []utls.TLSExtension{
		&utls.UtlsGREASEExtension{},
		&utls.SNIExtension{},
		&utls.ExtendedMasterSecretExtension{},
		&utls.RenegotiationInfoExtension{Renegotiation: utls.RenegotiateOnceAsClient},
		&utls.SupportedCurvesExtension{Curves: b.Curves()},
		&utls.SupportedPointsExtension{SupportedPoints: []byte{0x00}},
		&utls.SessionTicketExtension{},
		&utls.ALPNExtension{AlpnProtocols: b.NextProtos()},
		&utls.StatusRequestExtension{},
		&utls.SignatureAlgorithmsExtension{SupportedSignatureAlgorithms: b.sigAlgs},
		&utls.SCTExtension{},
		&utls.KeyShareExtension{KeyShares: b.keyShares()},
		&utls.PSKKeyExchangeModesExtension{Modes: []uint8{utls.PskModeDHE}},
		&utls.SupportedVersionsExtension{Versions: b.versions},
		&utls.UtlsCompressCertExtension{Algorithms: b.certCompress},
		&utls.UtlsGREASEExtension{},
		&utls.UtlsPaddingExtension{GetPaddingLen: utls.BoringPaddingStyle},
	}
}

func safariExtensions(b *BuilderConfig) []utls.TLSExtension {
	return []utls.TLSExtension{
		&utls.UtlsGREASEExtension{},
		&utls.SNIExtension{},
		&utls.ExtendedMasterSecretExtension{},
		&utls.RenegotiationInfoExtension{Renegotiation: utls.RenegotiateOnceAsClient},
		&utls.SupportedCurvesExtension{Curves: b.Curves()},
		&utls.SupportedPointsExtension{SupportedPoints: []byte{0x00}},
		&utls.ALPNExtension{AlpnProtocols: b.NextProtos()},
		&utls.StatusRequestExtension{},
		&utls.SignatureAlgorithmsExtension{SupportedSignatureAlgorithms: b.sigAlgs},
		&utls.SCTExtension{},
		&utls.KeyShareExtension{KeyShares: b.keyShares()},
		&utls.PSKKeyExchangeModesExtension{Modes: []uint8{utls.PskModeDHE}},
		&utls.SupportedVersionsExtension{Versions: b.versions},
		&utls.UtlsCompressCertExtension{Algorithms: b.certCompress},
		&utls.UtlsGREASEExtension{},
		&utls.UtlsPaddingExtension{GetPaddingLen: utls.BoringPaddingStyle},
	}
}

func okhttpExtensions(b *BuilderConfig) []utls.TLSExtension {
	return []utls.TLSExtension{
		&utls.SNIExtension{},
		&utls.ExtendedMasterSecretExtension{},
		&utls.RenegotiationInfoExtension{Renegotiation: utls.RenegotiateOnceAsClient},
		&utls.SupportedCurvesExtension{Curves: b.Curves()},
		&utls.SupportedPointsExtension{SupportedPoints: []byte{0x00}},
		&utls.SessionTicketExtension{},
		&utls.ALPNExtension{AlpnProtocols: b.NextProtos()},
		&utls.StatusRequestExtension{},
		&utls.SignatureAlgorithmsExtension{SupportedSignatureAlgorithms: b.sigAlgs},
		&utls.KeyShareExtension{KeyShares: b.keyShares()},
		&utls.PSKKeyExchangeModesExtension{Modes: []uint8{utls.PskModeDHE}},
		&utls.SupportedVersionsExtension{Versions: b.versions},
		&utls.UtlsPaddingExtension{GetPaddingLen: utls.BoringPaddingStyle},
	}
}
