package registry

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/johar/internal/analytics"
	"example.com/johar/internal/logging"
	"example.com/johar/internal/recordstore"
)

type recorder struct {
	mu     sync.Mutex
	events []analytics.Event
}

func (r *recorder) Record(_ context.Context, ev analytics.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) verified() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, ev := range r.events {
		if n, ok := ev[analytics.FieldVerifiedGuides].(int); ok {
			total += n
		}
	}
	return total
}

type flakyBackend struct {
	*recordstore.MemoryBackend
	failReads int
}

func (f *flakyBackend) Read(ctx context.Context, name string) ([]byte, error) {
	if f.failReads > 0 {
		f.failReads--
		return nil, errors.New("i/o timeout")
	}
	return f.MemoryBackend.Read(ctx, name)
}

func newRegistry(t *testing.T) (*Registry, *HMACIssuer, *recorder) {
	t.Helper()
	return newRegistryOn(t, recordstore.NewMemory())
}

func newRegistryOn(t *testing.T, backend recordstore.Backend) (*Registry, *HMACIssuer, *recorder) {
	t.Helper()
	store := recordstore.New(backend, logging.Discard())
	issuer := NewIssuer("test-secret")
	rec := &recorder{}
	return New(store, issuer, rec, logging.Discard()), issuer, rec
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	reg, _, _ := newRegistry(t)

	g, err := reg.Register(ctx, " Ravi ", "Ranchi")
	require.NoError(t, err)
	assert.Regexp(t, `^GID[0-9a-f]{32}$`, g.RegID)
	assert.Equal(t, "Ravi", g.Name)
	assert.False(t, g.Verified)
	assert.Nil(t, g.Cert)

	other, err := reg.Register(ctx, "Ravi", "Ranchi")
	require.NoError(t, err)
	assert.NotEqual(t, g.RegID, other.RegID)
	assert.Len(t, reg.List(ctx), 2)
}

func TestToggleLifecycleIssuesOneCertificate(t *testing.T) {
	ctx := context.Background()
	reg, issuer, rec := newRegistry(t)
	g, err := reg.Register(ctx, "Ravi", "Ranchi")
	require.NoError(t, err)

	verified, found, err := reg.ToggleVerify(ctx, g.RegID)
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, verified.Verified)
	require.NotNil(t, verified.Cert)
	first := *verified.Cert
	assert.Regexp(t, `^CERT`, first.CertID)
	assert.Regexp(t, `^0x[0-9a-f]{64}$`, first.Tx)
	assert.True(t, issuer.Valid(g.RegID, first))

	revoked, found, err := reg.ToggleVerify(ctx, g.RegID)
	require.NoError(t, err)
	require.True(t, found)
	assert.False(t, revoked.Verified)
	require.NotNil(t, revoked.Cert)
	assert.Equal(t, first.CertID, revoked.Cert.CertID)

	again, _, err := reg.ToggleVerify(ctx, g.RegID)
	require.NoError(t, err)
	assert.True(t, again.Verified)
	assert.Equal(t, first.CertID, again.Cert.CertID)
	assert.Equal(t, first.Tx, again.Cert.Tx)

	cert, err := reg.Certificate(ctx, g.RegID)
	require.NoError(t, err)
	assert.Equal(t, first.CertID, cert.CertID)
	assert.Equal(t, 2, rec.verified())
}

func TestToggleUnknownGuide(t *testing.T) {
	ctx := context.Background()
	reg, _, rec := newRegistry(t)
	_, err := reg.Register(ctx, "Ravi", "Ranchi")
	require.NoError(t, err)
	before := reg.List(ctx)

	_, found, err := reg.ToggleVerify(ctx, "GIDmissing")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, before, reg.List(ctx))
	assert.Empty(t, rec.events)
}

func TestVerifyAllIdempotent(t *testing.T) {
	ctx := context.Background()
	reg, _, rec := newRegistry(t)
	for _, name := range []string{"A", "B", "C"} {
		_, err := reg.Register(ctx, name, "Ranchi")
		require.NoError(t, err)
	}

	res, err := reg.VerifyAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Total: 3, Verified: 3, Issued: 3}, res)
	after := reg.List(ctx)

	res, err = reg.VerifyAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Total: 3}, res)
	assert.Equal(t, after, reg.List(ctx))
	assert.Equal(t, 3, rec.verified())
	assert.Len(t, rec.events, 1)
}

func TestIssueCertificatesOnlyTouchesUncertified(t *testing.T) {
	ctx := context.Background()
	reg, _, _ := newRegistry(t)
	a, err := reg.Register(ctx, "A", "Ranchi")
	require.NoError(t, err)
	b, err := reg.Register(ctx, "B", "Ranchi")
	require.NoError(t, err)

	certified, _, err := reg.ToggleVerify(ctx, a.RegID)
	require.NoError(t, err)
	_, _, err = reg.ToggleVerify(ctx, a.RegID)
	require.NoError(t, err)

	res, err := reg.IssueCertificatesForAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Total: 2, Verified: 1, Issued: 1}, res)

	gotA, ok := reg.Get(ctx, a.RegID)
	require.True(t, ok)
	assert.False(t, gotA.Verified, "guide with a certificate is left untouched")
	assert.Equal(t, certified.Cert.CertID, gotA.Cert.CertID)

	gotB, ok := reg.Get(ctx, b.RegID)
	require.True(t, ok)
	assert.True(t, gotB.Verified)
	require.NotNil(t, gotB.Cert)
	assert.NotEqual(t, gotA.Cert.CertID, gotB.Cert.CertID)
	assert.NotEqual(t, gotA.Cert.Tx, gotB.Cert.Tx)
}

func TestCertificateErrors(t *testing.T) {
	ctx := context.Background()
	reg, _, _ := newRegistry(t)
	_, err := reg.Certificate(ctx, "GIDmissing")
	assert.ErrorIs(t, err, ErrGuideNotFound)

	g, err := reg.Register(ctx, "A", "Ranchi")
	require.NoError(t, err)
	_, err = reg.Certificate(ctx, g.RegID)
	assert.ErrorIs(t, err, ErrNoCertificate)
}

func TestIssuerTokens(t *testing.T) {
	issuer := NewIssuer("secret")
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	issuer.now = func() time.Time { return fixed }

	a := issuer.Issue("GID1")
	b := issuer.Issue("GID1")
	assert.Equal(t, fixed, a.IssuedAt)
	assert.NotEqual(t, a.Tx, b.Tx, "distinct cert ids give distinct tokens")
	assert.True(t, issuer.Valid("GID1", a))
	assert.False(t, issuer.Valid("GID2", a))
	assert.False(t, NewIssuer("other").Valid("GID1", a))

	tampered := a
	tampered.IssuedAt = fixed.Add(time.Second)
	assert.False(t, issuer.Valid("GID1", tampered))
}

func TestRevokeRetainsCertificate(t *testing.T) {
	cert := Certificate{CertID: "CERT1"}
	g := revoke(Guide{RegID: "GID1", Verified: true, Cert: &cert})
	assert.False(t, g.Verified)
	assert.Equal(t, RetainCertificateOnRevoke, g.Cert != nil)
}

func TestWriteCertificatePDF(t *testing.T) {
	issuer := NewIssuer("secret")
	g := verify(Guide{RegID: "GID1", Name: "Ravi", Location: "Ranchi"}, issuer)

	var buf bytes.Buffer
	require.NoError(t, WriteCertificatePDF(&buf, g))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Contains(t, QRPayload(g), g.Cert.CertID+"|GID1|")

	assert.ErrorIs(t, WriteCertificatePDF(&buf, Guide{RegID: "GID2"}), ErrNoCertificate)
}

func TestRegistryKeepsGuidesWhenReadFails(t *testing.T) {
	ctx := context.Background()
	backend := &flakyBackend{MemoryBackend: recordstore.NewMemory()}
	reg, _, _ := newRegistryOn(t, backend)

	a, err := reg.Register(ctx, "A", "Ranchi")
	require.NoError(t, err)
	certified, _, err := reg.ToggleVerify(ctx, a.RegID)
	require.NoError(t, err)
	_, err = reg.Register(ctx, "B", "Ranchi")
	require.NoError(t, err)

	backend.failReads = 1
	_, err = reg.Register(ctx, "C", "Ranchi")
	assert.Error(t, err)

	backend.failReads = 1
	_, err = reg.VerifyAll(ctx)
	assert.Error(t, err)

	backend.failReads = 1
	_, found, err := reg.ToggleVerify(ctx, a.RegID)
	assert.Error(t, err)
	assert.False(t, found)

	guides := reg.List(ctx)
	require.Len(t, guides, 2)
	got, ok := reg.Get(ctx, a.RegID)
	require.True(t, ok)
	assert.True(t, got.Verified)
	assert.Equal(t, certified.Cert.CertID, got.Cert.CertID)
}
