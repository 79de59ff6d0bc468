package reminder

import (
	"testing"
	"time"

	"github.com/osr-alliance/backend-lib-leadflow/followup"
	"github.com/osr-alliance/backend-lib-leadflow/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		raw, domain string
		want        string
		wantErr     bool
	}{
		{raw: "ana@example.com", want: "ana@example.com"},
		{raw: "  Ana@Example.COM ", want: "ana@example.com"},
		{raw: "Ana Lopez <ana@example.com>", want: "ana@example.com"},
		{raw: "ana", domain: "example.com", want: "ana@example.com"},
		{raw: "ana", domain: "@example.com", want: "ana@example.com"},
		{raw: "ana", wantErr: true},
		{raw: "", domain: "example.com", wantErr: true},
		{raw: "ana@", wantErr: true},
		{raw: "two words", domain: "example.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := NormalizeAddress(tt.raw, tt.domain)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLeadMessages(t *testing.T) {
	w := followup.NewWindow(runAt, followup.DefaultPolicy())
	l := newLead(1, "Ana <Lopez>", "ana@example.com", "2025-01-14")
	l.CompanyName = "Acme & Co"
	at := "10:30"
	l.FollowUpTime = &at
	r := recipients{to: []string{"ana@example.com"}, cc: []string{"boss@example.com"}}

	up := leadMessage(store.ReminderUpcoming, l, w, r, "reminders@example.com")
	assert.Equal(t, "Upcoming Follow-up: Ana <Lopez> (Acme & Co)", up.Subject)
	assert.Contains(t, up.Text, "on Tue, Jan 14 2025 at 10:30 (4 days from now)")
	assert.Contains(t, up.Text, "Priority: High")
	assert.Contains(t, up.HTML, "Ana &lt;Lopez&gt; (Acme &amp; Co)")
	assert.NotContains(t, up.HTML, "<Lopez>")
	assert.Equal(t, r.cc, up.Cc)
	assert.NoError(t, up.Validate())

	over := leadMessage(store.ReminderOverdue, l, w, r, "reminders@example.com")
	assert.Equal(t, "OVERDUE: Follow-up with Ana <Lopez> (Acme & Co)", over.Subject)
	assert.Contains(t, over.Text, "is now overdue")
}

func TestNoteMessage(t *testing.T) {
	n := store.StickyNote{ID: 7, Content: "Send the quote", ReminderAt: time.Date(2025, 1, 10, 8, 30, 0, 0, time.UTC)}
	linked := newLead(1, "Acme", "", "")
	r := recipients{to: []string{"ana@example.com"}}

	msg := noteMessage(n, &linked, r, "reminders@example.com", nil)
	assert.Equal(t, "Reminder from LeadFlow", msg.Subject)
	assert.Equal(t, "Reminder: Send the quote\n\nLinked Lead: Acme\nTime: Fri, Jan 10 2025 08:30 UTC", msg.Text)
	assert.Empty(t, msg.Cc)
}
