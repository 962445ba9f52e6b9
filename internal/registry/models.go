package registry

import "time"

// RetainCertificateOnRevoke keeps an issued certificate attached to a guide
// after verification is withdrawn, so re-verifying never issues a second one.
const RetainCertificateOnRevoke = true

// Certificate is issued at most once per guide and never modified.
type Certificate struct {
	CertID   string    `json:"certId"`
	IssuedAt time.Time `json:"issuedAt"`
	Tx       string    `json:"tx"`
}

// Guide is a registered tour guide.
type Guide struct {
	RegID    string       `json:"regId"`
	Name     string       `json:"name"`
	Location string       `json:"location"`
	Verified bool         `json:"verified"`
	Cert     *Certificate `json:"cert,omitempty"`
}

// BatchResult summarises a bulk registry operation.
type BatchResult struct {
	Total    int `json:"total"`
	Verified int `json:"newlyVerified"`
	Issued   int `json:"issued"`
}

// verify marks g verified and issues a certificate only if it has none.
func verify(g Guide, issuer Issuer) Guide {
	g.Verified = true
	if g.Cert == nil {
		cert := issuer.Issue(g.RegID)
		g.Cert = &cert
	}
	return g
}

func revoke(g Guide) Guide {
	g.Verified = false
	if !RetainCertificateOnRevoke {
		g.Cert = nil
	}
	return g
}
