package planner

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanRotatesWaterfalls(t *testing.T) {
	plan := New(nil).Plan(3, []string{"waterfalls"})
	require.Len(t, plan, 3)

	// (day + 0) % 3 over [Hundru, Dassam, Jonha]
	want := []string{"Dassam Falls", "Jonha Falls", "Hundru Falls"}
	for i, day := range plan {
		require.Len(t, day.Activities, 1)
		assert.Equal(t, i+1, day.Day)
		assert.Equal(t, "Visit "+want[i], day.Activities[0].Activity)
		assert.Equal(t, "Local tip: try local food near "+want[i], day.Activities[0].Tips)
		assert.Equal(t, "8:00", day.Activities[0].Time)
	}
}

func TestPlanSlotsFollowInterestPosition(t *testing.T) {
	plan := New(nil).Plan(1, []string{"wildlife", "trekking", "culture"})
	require.Len(t, plan, 1)
	acts := plan[0].Activities
	require.Len(t, acts, 3)

	assert.Equal(t, "8:00", acts[0].Time)
	assert.Equal(t, "Visit Dalma Sanctuary", acts[0].Activity) // (1+0)%2
	assert.Equal(t, "11:00", acts[1].Time)
	assert.Equal(t, "Visit Netarhat trails", acts[1].Activity) // (1+1)%2
	assert.Equal(t, "14:00", acts[2].Time)
	assert.Equal(t, "Visit Horo dance, tribal markets, local handicrafts", acts[2].Activity)
}

func TestPlanEveryDayHasActivities(t *testing.T) {
	p := New(nil)
	cases := [][]string{
		nil,
		{},
		{"waterfalls"},
		{"unknown-tag"},
		{"relax", "wildlife", "nonsense"},
	}
	for _, interests := range cases {
		for days := 1; days <= 7; days++ {
			plan := p.Plan(days, interests)
			require.Len(t, plan, days)
			for _, day := range plan {
				assert.NotEmpty(t, day.Activities)
			}
		}
	}
}

func TestPlanEmptyInterestsUsesSightseeing(t *testing.T) {
	plan := New(nil).Plan(2, nil)
	require.Len(t, plan, 2)
	assert.Equal(t, []Activity{{Time: "10:00", Activity: "Local sightseeing", Tips: "Explore markets and crafts"}}, plan[1].Activities)
}

func TestPlanUnknownInterestFallsBack(t *testing.T) {
	plan := New(nil).Plan(1, []string{"scuba"})
	assert.Equal(t, "Visit Explore local attractions", plan[0].Activities[0].Activity)
}

func TestPlanNonPositiveDays(t *testing.T) {
	p := New(nil)
	assert.Empty(t, p.Plan(0, []string{"waterfalls"}))
	assert.Empty(t, p.Plan(-4, nil))
	assert.NotNil(t, p.Plan(0, nil))
}

func TestPlanIsDeterministic(t *testing.T) {
	p := New(nil)
	interests := []string{"culture", "waterfalls", "wildlife", "mystery"}
	a, err := json.Marshal(p.Plan(5, interests))
	require.NoError(t, err)
	b, err := json.Marshal(New(nil).Plan(5, interests))
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestInterestsSorted(t *testing.T) {
	p := New(nil)
	want := []string{"culture", "relax", "trekking", "waterfalls", "wildlife"}
	for range 5 {
		assert.Equal(t, want, p.Interests())
	}
}
