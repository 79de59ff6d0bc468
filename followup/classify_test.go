package followup

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/osr-alliance/backend-lib-leadflow/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) *time.Time {
	d, err := time.Parse(store.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return &d
}

func at(s string) time.Time {
	t, err := time.Parse("2006-01-02T15:04", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestClassify(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		name   string
		date   *time.Time
		status store.LeadStatus
		now    time.Time
		want   Class
	}{
		{"due today in the morning", day("2025-01-10"), store.StatusNew, at("2025-01-10T09:00"), DueToday},
		{"due today just before midnight", day("2025-01-10"), store.StatusNew, at("2025-01-10T23:59"), DueToday},
		{"overdue the next day", day("2025-01-10"), store.StatusNew, at("2025-01-11T00:00"), Overdue},
		{"upcoming the day before", day("2025-01-10"), store.StatusNew, at("2025-01-09T12:00"), Upcoming},
		{"won is never classified", day("2025-01-10"), store.StatusWon, at("2025-01-11T00:00"), None},
		{"lost is never classified", day("2024-06-01"), store.StatusLost, at("2025-01-10T09:00"), None},
		{"no date", nil, store.StatusNegotiation, at("2025-01-10T09:00"), None},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.date, tt.status, tt.now, p))
		})
	}
}

func TestClassifyClosedAtAnyInstant(t *testing.T) {
	p := DefaultPolicy()
	date := day("2025-01-10")
	start := at("2024-12-01T00:00")

	for h := 0; h < 24*90; h += 7 {
		now := start.Add(time.Duration(h) * time.Hour)
		for _, s := range store.ClosedStatuses {
			require.Equal(t, None, Classify(date, s, now, p))
		}
		require.Equal(t, None, Classify(nil, store.StatusNew, now, p))
	}
}

func TestClassifyUsesPolicyLocation(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	p := DefaultPolicy()
	p.Location = kolkata

	// 20:00 UTC on the 10th is already the 11th in Kolkata
	now := at("2025-01-10T20:00")
	assert.Equal(t, Overdue, Classify(day("2025-01-10"), store.StatusNew, now, p))
	assert.Equal(t, DueToday, Classify(day("2025-01-10"), store.StatusNew, now, DefaultPolicy()))

	// the stored date's own zone never matters
	scanned := time.Date(2025, 1, 11, 0, 0, 0, 0, time.FixedZone("pq", -8*3600))
	assert.Equal(t, DueToday, Classify(&scanned, store.StatusNew, now, p))
}

func TestCountLeads(t *testing.T) {
	now := at("2025-01-10T09:00")
	leads := []store.Lead{
		{ID: 1, Status: store.StatusNew, NextFollowUpDate: day("2025-01-09")},
		{ID: 2, Status: store.StatusContacted, NextFollowUpDate: day("2025-01-01")},
		{ID: 3, Status: store.StatusNew, NextFollowUpDate: day("2025-01-10")},
		{ID: 4, Status: store.StatusNew, NextFollowUpDate: day("2025-01-12")},
		{ID: 5, Status: store.StatusWon, NextFollowUpDate: day("2025-01-01")},
		{ID: 6, Status: store.StatusNew},
	}

	assert.Equal(t, Counts{Overdue: 2, DueToday: 1, Upcoming: 1, TotalUrgent: 3}, CountLeads(leads, now, DefaultPolicy()))
}
