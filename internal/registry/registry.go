// Package registry tracks tour guides through registration, verification and
// certificate issuance. A guide receives at most one certificate over its
// lifetime; repeated verification reuses it.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"example.com/johar/internal/analytics"
	"example.com/johar/internal/recordstore"
)

var (
	ErrGuideNotFound = errors.New("guide not found")
	ErrNoCertificate = errors.New("guide has no certificate")
)

// Recorder receives analytics events.
type Recorder interface {
	Record(ctx context.Context, ev analytics.Event)
}

type Registry struct {
	guides   *recordstore.Collection[Guide]
	issuer   Issuer
	recorder Recorder
	logger   *slog.Logger
}

func New(store *recordstore.Store, issuer Issuer, recorder Recorder, logger *slog.Logger) *Registry {
	return &Registry{
		guides:   recordstore.NewCollection(store, recordstore.Guides, func(g Guide) string { return g.RegID }),
		issuer:   issuer,
		recorder: recorder,
		logger:   logger,
	}
}

// Register stores a new unverified guide.
func (r *Registry) Register(ctx context.Context, name, location string) (Guide, error) {
	g := Guide{
		RegID:    "GID" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		Name:     strings.TrimSpace(name),
		Location: strings.TrimSpace(location),
	}
	if err := r.guides.Create(ctx, g); err != nil {
		return Guide{}, fmt.Errorf("register guide: %w", err)
	}
	r.logger.InfoContext(ctx, "guide registered", "reg_id", g.RegID)
	return g, nil
}

// ToggleVerify flips the verification state of one guide. found is false and
// nothing changes when regID is unknown.
func (r *Registry) ToggleVerify(ctx context.Context, regID string) (Guide, bool, error) {
	newlyVerified := false
	g, found, err := r.guides.UpdateByID(ctx, regID, func(g Guide) Guide {
		if g.Verified {
			return revoke(g)
		}
		newlyVerified = true
		return verify(g, r.issuer)
	})
	if err != nil {
		return Guide{}, found, fmt.Errorf("toggle guide %s: %w", regID, err)
	}
	if !found {
		return Guide{}, false, nil
	}
	if newlyVerified {
		r.report(ctx, 1)
	}
	r.logger.InfoContext(ctx, "guide toggled", "reg_id", regID, "verified", g.Verified)
	return g, true, nil
}

// VerifyAll verifies every guide. Guides that are already verified are left
// untouched, so running it twice changes nothing the second time.
func (r *Registry) VerifyAll(ctx context.Context) (BatchResult, error) {
	return r.batch(ctx, "verify all", func(g Guide) bool { return !g.Verified })
}

// IssueCertificatesForAll verifies and certifies only guides lacking a
// certificate.
func (r *Registry) IssueCertificatesForAll(ctx context.Context) (BatchResult, error) {
	return r.batch(ctx, "issue certificates", func(g Guide) bool { return g.Cert == nil })
}

func (r *Registry) batch(ctx context.Context, op string, selected func(Guide) bool) (BatchResult, error) {
	var res BatchResult
	_, err := r.guides.Update(ctx, func(guides []Guide) ([]Guide, error) {
		res = BatchResult{Total: len(guides)}
		for i, g := range guides {
			if !selected(g) {
				continue
			}
			if !g.Verified {
				res.Verified++
			}
			if g.Cert == nil {
				res.Issued++
			}
			guides[i] = verify(g, r.issuer)
		}
		return guides, nil
	})
	if err != nil {
		return BatchResult{}, fmt.Errorf("%s: %w", op, err)
	}
	if res.Verified > 0 {
		r.report(ctx, res.Verified)
	}
	r.logger.InfoContext(ctx, "registry batch", "op", op, "total", res.Total, "verified", res.Verified, "issued", res.Issued)
	return res, nil
}

func (r *Registry) report(ctx context.Context, n int) {
	if r.recorder != nil {
		r.recorder.Record(ctx, analytics.Event{analytics.FieldVerifiedGuides: n})
	}
}

func (r *Registry) Get(ctx context.Context, regID string) (Guide, bool) {
	return r.guides.Find(ctx, regID)
}

func (r *Registry) List(ctx context.Context) []Guide {
	return r.guides.Load(ctx)
}

// Certificate returns the certificate of a guide, whether or not the guide is
// currently verified.
func (r *Registry) Certificate(ctx context.Context, regID string) (Certificate, error) {
	g, ok := r.guides.Find(ctx, regID)
	if !ok {
		return Certificate{}, ErrGuideNotFound
	}
	if g.Cert == nil {
		return Certificate{}, ErrNoCertificate
	}
	return *g.Cert, nil
}
