package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/johar/internal/config"
	"example.com/johar/internal/logging"
	"example.com/johar/internal/recordstore"
	"example.com/johar/internal/registry"
)

func TestOpenSeedsMarket(t *testing.T) {
	cfg := config.Config{
		Store:      recordstore.Config{Driver: recordstore.DriverMemory},
		CertSecret: "secret",
	}
	a, err := Open(t.Context(), cfg, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.Len(t, a.Market.List(t.Context()), 2)
	assert.IsType(t, &registry.DirectRunner{}, a.Runner(nil, logging.Discard()))

	families, err := a.Metrics.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestOpenSQLiteSurvivesRestart(t *testing.T) {
	cfg := config.Config{
		Store:      recordstore.Config{Driver: recordstore.DriverSQLite, DSN: t.TempDir() + "/johar.db"},
		CertSecret: "secret",
	}
	a, err := Open(t.Context(), cfg, logging.Discard())
	require.NoError(t, err)
	g, err := a.Registry.Register(t.Context(), "Meera", "Netarhat")
	require.NoError(t, err)
	require.NoError(t, a.Close())

	b, err := Open(t.Context(), cfg, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	_, ok := b.Registry.Get(t.Context(), g.RegID)
	assert.True(t, ok)
	assert.Len(t, b.Market.List(t.Context()), 2)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(t.Context(), config.Config{Store: recordstore.Config{Driver: "tape"}}, logging.Discard())
	assert.Error(t, err)
}
