package registry

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

// QRPayload is the text encoded in a certificate's QR code.
func QRPayload(g Guide) string {
	if g.Cert == nil {
		return ""
	}
	return fmt.Sprintf("%s|%s|%s|%s", g.Cert.CertID, g.RegID, g.Cert.IssuedAt.UTC().Format(time.RFC3339Nano), g.Cert.Tx)
}

// WriteCertificatePDF renders a one-page certificate for g.
func WriteCertificatePDF(w io.Writer, g Guide) error {
	if g.Cert == nil {
		return ErrNoCertificate
	}
	qrPNG, err := qrcode.Encode(QRPayload(g), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("encode qr: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Guide Certificate "+g.Cert.CertID, true)
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 12, "Certified Tour Guide")
	pdf.Ln(16)

	pdf.SetFont("Arial", "", 12)
	for _, line := range []string{
		"Name: " + g.Name,
		"Location: " + g.Location,
		"Registration: " + g.RegID,
		"Certificate: " + g.Cert.CertID,
		"Issued: " + g.Cert.IssuedAt.UTC().Format("02 Jan 2006 15:04 MST"),
		fmt.Sprintf("Status: %s", status(g)),
	} {
		pdf.Cell(0, 10, line)
		pdf.Ln(8)
	}
	pdf.Ln(4)
	pdf.SetFont("Courier", "", 8)
	pdf.MultiCell(0, 4, "Proof: "+g.Cert.Tx, "", "L", false)

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 150, 30, 45, 45, false, opts, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render certificate: %w", err)
	}
	return nil
}

func status(g Guide) string {
	if g.Verified {
		return "verified"
	}
	return "revoked"
}
