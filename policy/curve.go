package policy

import "github.com/ProtonMail/go-crypto/openpgp/packet"

// Dotted OIDs of the NIST curves.
const (
	OIDNistP256 = "1.2.840.10045.3.1.7"
	OIDNistP384 = "1.3.132.0.34"
	OIDNistP521 = "1.3.132.0.35"
)

var curveOIDs = map[packet.Curve]string{
	packet.CurveNistP256:      OIDNistP256,
	packet.CurveNistP384:      OIDNistP384,
	packet.CurveNistP521:      OIDNistP521,
	packet.CurveSecP256k1:     "1.3.132.0.10",
	packet.CurveBrainpoolP256: "1.3.36.3.3.2.8.1.1.7",
	packet.CurveBrainpoolP384: "1.3.36.3.3.2.8.1.1.11",
	packet.CurveBrainpoolP512: "1.3.36.3.3.2.8.1.1.13",
	packet.Curve25519:         "1.3.6.1.4.1.3029.1.5.1",
	packet.Curve448:           "1.3.101.111",
}

// curveBits is the field size of each curve, the strength of EC keys.
var curveBits = map[packet.Curve]uint16{
	packet.CurveNistP256:      256,
	packet.CurveNistP384:      384,
	packet.CurveNistP521:      521,
	packet.CurveSecP256k1:     256,
	packet.CurveBrainpoolP256: 256,
	packet.CurveBrainpoolP384: 384,
	packet.CurveBrainpoolP512: 512,
	packet.Curve25519:         255,
	packet.Curve448:           448,
}

// CurveBits returns the bit strength of keys on a go-crypto curve.
func CurveBits(curve packet.Curve) (uint16, bool) {
	bits, ok := curveBits[curve]
	return bits, ok
}

// CurveOID returns the dotted OID of a go-crypto curve.
func CurveOID(curve packet.Curve) (string, bool) {
	oid, ok := curveOIDs[curve]
	return oid, ok
}

// rejectedCurves lists the known curves that are not whitelisted.
func (p *Policy) rejectedCurves() map[packet.Curve]bool {
	rejected := make(map[packet.Curve]bool)
	for curve, oid := range curveOIDs {
		if !p.IsSecureCurve(oid) {
			rejected[curve] = true
		}
	}
	return rejected
}
