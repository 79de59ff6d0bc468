package reminder

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/osr-alliance/backend-lib-leadflow/followup"
	"github.com/osr-alliance/backend-lib-leadflow/mailer"
	"github.com/osr-alliance/backend-lib-leadflow/store"
)

const displayDate = "Mon, Jan 2 2006"

func leadName(l store.Lead) string {
	name := strings.TrimSpace(l.LeadName)
	company := strings.TrimSpace(l.CompanyName)
	switch {
	case name == "":
		return company
	case company == "" || strings.EqualFold(name, company):
		return name
	}
	return name + " (" + company + ")"
}

func followUpDate(l store.Lead) string {
	if l.NextFollowUpDate == nil {
		return "no date"
	}
	d := l.NextFollowUpDate.Format(displayDate)
	if l.FollowUpTime != nil && *l.FollowUpTime != "" {
		d += " at " + *l.FollowUpTime
	}
	return d
}

func leadDetails(l store.Lead) []string {
	return []string{
		"Assignee: " + l.AssigneeOrEmpty(),
		"Status: " + string(l.Status),
		"Priority: " + string(l.Priority),
		"Contact: " + strings.TrimSpace(l.ContactPerson+" "+l.Phone),
	}
}

func leadMessage(kind store.ReminderKind, l store.Lead, w followup.Window, r recipients, from string) mailer.Message {
	name := leadName(l)
	date := followUpDate(l)

	var subject, lead string
	switch kind {
	case store.ReminderOverdue:
		subject = "OVERDUE: Follow-up with " + name
		lead = fmt.Sprintf("ATTENTION: Your follow-up with %s was due on %s and is now overdue. Please action this immediately.", name, date)
	default:
		days := w.Policy().UpcomingWindowDays
		subject = "Upcoming Follow-up: " + name
		lead = fmt.Sprintf("Reminder: You have a follow-up scheduled with %s on %s (%d days from now).", name, date, days)
	}

	return compose(from, r, subject, lead, leadDetails(l))
}

func noteMessage(n store.StickyNote, linked *store.Lead, r recipients, from string, loc *time.Location) mailer.Message {
	if loc == nil {
		loc = time.UTC
	}
	details := []string{}
	if linked != nil {
		details = append(details, "Linked Lead: "+leadName(*linked))
	}
	details = append(details, "Time: "+n.ReminderAt.In(loc).Format(displayDate+" 15:04 MST"))

	return compose(from, r, "Reminder from LeadFlow", "Reminder: "+n.Content, details)
}

// compose builds the text & html bodies from a headline & detail lines
func compose(from string, r recipients, subject, headline string, details []string) mailer.Message {
	text := headline + "\n\n" + strings.Join(details, "\n")

	b := strings.Builder{}
	b.WriteString("<p>" + html.EscapeString(headline) + "</p>\n<ul>\n")
	for _, d := range details {
		b.WriteString("<li>" + html.EscapeString(d) + "</li>\n")
	}
	b.WriteString("</ul>")

	return mailer.Message{
		From:    from,
		To:      r.to,
		Cc:      r.cc,
		Subject: subject,
		Text:    text,
		HTML:    b.String(),
	}
}
