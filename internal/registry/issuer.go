package registry

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Issuer mints certificates.
type Issuer interface {
	Issue(regID string) Certificate
}

// HMACIssuer signs certId|regId|issuedAt with a shared secret. The token is a
// tamper-evident identifier, not a proof of anything beyond that.
type HMACIssuer struct {
	secret []byte
	now    func() time.Time
}

func NewIssuer(secret string) *HMACIssuer {
	return &HMACIssuer{secret: []byte(secret), now: time.Now}
}

func (i *HMACIssuer) Issue(regID string) Certificate {
	cert := Certificate{
		CertID:   "CERT" + uuid.NewString(),
		IssuedAt: i.now().UTC(),
	}
	cert.Tx = i.sign(regID, cert)
	return cert
}

// Valid reports whether cert was issued to regID under this secret.
func (i *HMACIssuer) Valid(regID string, cert Certificate) bool {
	return hmac.Equal([]byte(cert.Tx), []byte(i.sign(regID, cert)))
}

func (i *HMACIssuer) sign(regID string, cert Certificate) string {
	mac := hmac.New(sha256.New, i.secret)
	fmt.Fprintf(mac, "%s|%s|%s", cert.CertID, regID, cert.IssuedAt.UTC().Format(time.RFC3339Nano))
	return "0x" + hex.EncodeToString(mac.Sum(nil))
}
