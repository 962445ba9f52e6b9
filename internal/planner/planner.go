// Package planner turns a day count and a list of interests into a
// deterministic day-by-day itinerary.
package planner

import (
	"fmt"
	"sort"
)

// Activity is a single slot of a day plan.
type Activity struct {
	Time     string `json:"time"`
	Activity string `json:"activity"`
	Tips     string `json:"tips"`
}

// DayPlan lists the activities for one day, numbered from 1.
type DayPlan struct {
	Day        int        `json:"day"`
	Activities []Activity `json:"activities"`
}

// Table maps an interest tag to its candidate places.
type Table map[string][]string

// DefaultTable is the built-in interest table.
func DefaultTable() Table {
	return Table{
		"waterfalls": {"Hundru Falls", "Dassam Falls", "Jonha Falls"},
		"wildlife":   {"Betla National Park", "Dalma Sanctuary"},
		"culture":    {"Horo dance, tribal markets, local handicrafts"},
		"trekking":   {"Netarhat trails", "Parasnath region"},
		"relax":      {"Hill-view homestays and tea gardens"},
	}
}

// genericPlaces is used for interests missing from the table.
var genericPlaces = []string{"Explore local attractions"}

var idleDay = Activity{Time: "10:00", Activity: "Local sightseeing", Tips: "Explore markets and crafts"}

// Planner evaluates a fixed interest table.
type Planner struct {
	table Table
}

// New returns a planner over table. A nil table uses DefaultTable.
func New(table Table) *Planner {
	if table == nil {
		table = DefaultTable()
	}
	return &Planner{table: table}
}

// Interests lists the tags the planner knows, sorted.
func (p *Planner) Interests() []string {
	out := make([]string, 0, len(p.table))
	for k := range p.table {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Plan returns exactly days day plans (none when days <= 0). Interest idx on
// day d visits candidates[(d+idx) % len(candidates)] at 8+3*idx o'clock, so
// the same interest rotates through its places on consecutive days. Every day
// has at least one activity.
func (p *Planner) Plan(days int, interests []string) []DayPlan {
	if days <= 0 {
		return []DayPlan{}
	}
	plan := make([]DayPlan, 0, days)
	for d := 1; d <= days; d++ {
		day := DayPlan{Day: d, Activities: make([]Activity, 0, len(interests))}
		for idx, interest := range interests {
			place := p.pick(interest, d+idx)
			day.Activities = append(day.Activities, Activity{
				Time:     fmt.Sprintf("%d:00", 8+idx*3),
				Activity: "Visit " + place,
				Tips:     "Local tip: try local food near " + place,
			})
		}
		if len(day.Activities) == 0 {
			day.Activities = append(day.Activities, idleDay)
		}
		plan = append(plan, day)
	}
	return plan
}

func (p *Planner) pick(interest string, n int) string {
	candidates := p.table[interest]
	if len(candidates) == 0 {
		candidates = genericPlaces
	}
	return candidates[n%len(candidates)]
}
