/*
Package followup decides when a lead's follow-up is overdue, due today or upcoming and which leads & sticky
notes a reminder run picks up.

Every calendar-day comparison happens in Policy.Location. A stored follow-up date is a calendar date: its year,
month & day are taken as they are and placed in that location; the time & zone it was scanned with are ignored.
*/
package followup

import (
	"time"

	"github.com/jinzhu/now"
	"github.com/osr-alliance/backend-lib-leadflow/store"
)

type Class string

const (
	None     Class = "none"
	Overdue  Class = "overdue"
	DueToday Class = "due-today"
	Upcoming Class = "upcoming"
)

// Columns maps the fields the reminder run filters on to the leads & sticky_notes columns
type Columns struct {
	Date         string
	Status       string
	OverdueFlag  string
	UpcomingFlag string

	NoteReminderAt string
	NoteSentFlag   string
}

func DefaultColumns() Columns {
	return Columns{
		Date:           "next_follow_up_date",
		Status:         "status",
		OverdueFlag:    "overdue_reminder_sent",
		UpcomingFlag:   "upcoming_reminder_sent",
		NoteReminderAt: "reminder_at",
		NoteSentFlag:   "is_reminder_sent",
	}
}

type Policy struct {
	Location *time.Location // nil is UTC
	// UpcomingWindowDays is how many days ahead of today the upcoming reminder goes out
	UpcomingWindowDays int
	Columns            Columns
}

// DefaultPolicy is UTC with the upcoming reminder 4 days ahead
func DefaultPolicy() Policy {
	return Policy{
		Location:           time.UTC,
		UpcomingWindowDays: 4,
		Columns:            DefaultColumns(),
	}
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// StartOfDay is midnight of at's calendar day in the policy location
func (p Policy) StartOfDay(at time.Time) time.Time {
	return now.New(at.In(p.location())).BeginningOfDay()
}

// CalendarDate places the year, month & day of d at midnight in the policy location
func (p Policy) CalendarDate(d time.Time) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, p.location())
}

// AddDays moves a start of day by n calendar days; DST days are not 24h long
func (p Policy) AddDays(day time.Time, n int) time.Time {
	y, m, d := day.In(p.location()).Date()
	return time.Date(y, m, d+n, 0, 0, 0, 0, p.location())
}

// Classify is a pure function of the date, status & instant. Closed leads and undated leads are None.
func Classify(date *time.Time, status store.LeadStatus, at time.Time, p Policy) Class {
	if status.Closed() || date == nil {
		return None
	}

	today := p.StartOfDay(at)
	d := p.CalendarDate(*date)

	switch {
	case d.Before(today):
		return Overdue
	case d.Equal(today):
		return DueToday
	default:
		return Upcoming
	}
}

func ClassifyLead(l store.Lead, at time.Time, p Policy) Class {
	return Classify(l.NextFollowUpDate, l.Status, at, p)
}

// Counts is the dashboard's follow-up summary
type Counts struct {
	Overdue     int `json:"overdue"`
	DueToday    int `json:"due_today"`
	Upcoming    int `json:"upcoming"`
	TotalUrgent int `json:"total_urgent"` // overdue + due today
}

func CountLeads(leads []store.Lead, at time.Time, p Policy) Counts {
	c := Counts{}
	for _, l := range leads {
		switch ClassifyLead(l, at, p) {
		case Overdue:
			c.Overdue++
		case DueToday:
			c.DueToday++
		case Upcoming:
			c.Upcoming++
		}
	}
	c.TotalUrgent = c.Overdue + c.DueToday
	return c
}
