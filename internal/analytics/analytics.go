// Package analytics accumulates process-wide counters into a persisted
// singleton. Recording is best-effort: storage failures are logged, never
// returned.
package analytics

import (
	"context"
	"encoding/json"
	"log/slog"

	"example.com/johar/internal/recordstore"
)

// Well-known fields.
const (
	FieldVisits         = "visits"
	FieldTransactions   = "transactions"
	FieldVerifiedGuides = "verifiedGuides"
	FieldMonthLabels    = "monthLabels"
	FieldMonthVisits    = "monthVisits"
	FieldMarket         = "market"
)

// Event maps a field to a numeric delta or a replacement value.
type Event map[string]any

// State is the persisted aggregate.
type State map[string]any

// Number returns a numeric field, or 0 when absent or not numeric.
func (s State) Number(field string) float64 {
	n, _ := toNumber(s[field])
	return n
}

// Defaults returns a fresh copy of the initial state.
func Defaults() State {
	return State{
		FieldVisits:         0.0,
		FieldTransactions:   0.0,
		FieldVerifiedGuides: 0.0,
		FieldMonthLabels:    []any{"Jan", "Feb", "Mar", "Apr", "May", "Jun"},
		FieldMonthVisits:    []any{10.0, 20.0, 30.0, 45.0, 60.0, 80.0},
		FieldMarket:         []any{50.0, 30.0, 20.0, 10.0},
	}
}

// Accumulator merges events into the persisted state.
type Accumulator struct {
	state   *recordstore.Collection[State]
	logger  *slog.Logger
	metrics *Metrics
}

// New binds an accumulator to the analytics collection. metrics may be nil.
func New(store *recordstore.Store, logger *slog.Logger, metrics *Metrics) *Accumulator {
	return &Accumulator{
		state:   recordstore.NewCollection(store, recordstore.Analytics, func(State) string { return recordstore.Analytics }),
		logger:  logger,
		metrics: metrics,
	}
}

// Record adds numeric fields to their stored totals and replaces every other
// field. Missing state starts from Defaults.
func (a *Accumulator) Record(ctx context.Context, ev Event) {
	_, err := a.state.Update(ctx, func(records []State) ([]State, error) {
		st := Defaults()
		if len(records) > 0 {
			for k, v := range records[0] {
				st[k] = v
			}
		}
		merge(st, ev)
		return []State{st}, nil
	})
	if err != nil {
		a.logger.WarnContext(ctx, "analytics update dropped", "error", err, "fields", len(ev))
		return
	}
	if a.metrics != nil {
		a.metrics.observe(ev)
	}
}

// Snapshot returns the current state with defaults filled in.
func (a *Accumulator) Snapshot(ctx context.Context) State {
	st := Defaults()
	if records := a.state.Load(ctx); len(records) > 0 {
		for k, v := range records[0] {
			st[k] = v
		}
	}
	return st
}

func merge(st State, ev Event) {
	for k, v := range ev {
		delta, ok := toNumber(v)
		if !ok {
			st[k] = v
			continue
		}
		current, _ := toNumber(st[k])
		st[k] = current + delta
	}
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
