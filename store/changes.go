package store

import (
	"strings"
	"time"

	"github.com/osr-alliance/backend-lib-leadflow/apierr"
)

// DateLayout is how follow-up dates travel over the api
const DateLayout = "2006-01-02"

// ParseDate reads a YYYY-MM-DD follow-up date; anything else is a validation error
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, apierr.Validation("follow-up date %q must be YYYY-MM-DD", s)
	}
	return d, nil
}

// NewLead is the writable part of a lead as a client sends it to create one
type NewLead struct {
	LeadName         string       `json:"lead_name"`
	CompanyName      string       `json:"company_name"`
	ContactPerson    string       `json:"contact_person"`
	Email            string       `json:"email"`
	Phone            string       `json:"phone"`
	Assignee         *string      `json:"assignee"`
	Status           LeadStatus   `json:"status"`
	Priority         LeadPriority `json:"priority"`
	LeadSource       string       `json:"lead_source"`
	Service          string       `json:"service"`
	Location         string       `json:"location"`
	Notes            string       `json:"notes"`
	NextFollowUpDate *string      `json:"next_follow_up_date"`
	FollowUpTime     *string      `json:"follow_up_time"`
}

// Lead converts n; an empty follow-up date means none
func (n NewLead) Lead() (*Lead, error) {
	l := &Lead{
		LeadName:      n.LeadName,
		CompanyName:   n.CompanyName,
		ContactPerson: n.ContactPerson,
		Email:         n.Email,
		Phone:         n.Phone,
		Assignee:      n.Assignee,
		Status:        n.Status,
		Priority:      n.Priority,
		LeadSource:    n.LeadSource,
		Service:       n.Service,
		Location:      n.Location,
		Notes:         n.Notes,
		FollowUpTime:  n.FollowUpTime,
	}
	if n.NextFollowUpDate != nil && strings.TrimSpace(*n.NextFollowUpDate) != "" {
		d, err := ParseDate(*n.NextFollowUpDate)
		if err != nil {
			return nil, err
		}
		l.NextFollowUpDate = &d
	}
	return l, nil
}

/*
LeadChanges is a hand edit of a lead; nil fields are left alone.

	Assignee & NextFollowUpDate can't express "set to null" with a nil pointer so ClearAssignee and
	ClearFollowUpDate do that instead.
*/
type LeadChanges struct {
	Status            *LeadStatus   `json:"status,omitempty"`
	Priority          *LeadPriority `json:"priority,omitempty"`
	Assignee          *string       `json:"assignee,omitempty"`
	ClearAssignee     bool          `json:"clear_assignee,omitempty"`
	NextFollowUpDate  *string       `json:"next_follow_up_date,omitempty"`
	ClearFollowUpDate bool          `json:"clear_follow_up_date,omitempty"`
	FollowUpTime      *string       `json:"follow_up_time,omitempty"`
	Notes             *string       `json:"notes,omitempty"`
}

func (c LeadChanges) Validate() error {
	if c.Empty() {
		return apierr.Validation("no changes")
	}
	if c.Status != nil && !c.Status.Valid() {
		return apierr.Validation("status %q is not valid", *c.Status)
	}
	if c.Priority != nil && !c.Priority.Valid() {
		return apierr.Validation("priority %q is not valid", *c.Priority)
	}
	if c.Assignee != nil && c.ClearAssignee {
		return apierr.Validation("assignee can't be set and cleared")
	}
	if c.Assignee != nil && strings.TrimSpace(*c.Assignee) == "" {
		return apierr.Validation("assignee can't be blank; clear it instead")
	}
	if c.NextFollowUpDate != nil {
		if c.ClearFollowUpDate {
			return apierr.Validation("follow-up date can't be set and cleared")
		}
		if _, err := ParseDate(*c.NextFollowUpDate); err != nil {
			return err
		}
	}
	return nil
}

func (c LeadChanges) Empty() bool {
	return c.Status == nil && c.Priority == nil && c.Assignee == nil && !c.ClearAssignee &&
		c.NextFollowUpDate == nil && !c.ClearFollowUpDate && c.FollowUpTime == nil && c.Notes == nil
}

// Apply returns a copy of l with the changes; c must be valid
func (c LeadChanges) Apply(l Lead) Lead {
	if c.Status != nil {
		l.Status = *c.Status
	}
	if c.Priority != nil {
		l.Priority = *c.Priority
	}
	if c.Assignee != nil {
		a := strings.TrimSpace(*c.Assignee)
		l.Assignee = &a
	}
	if c.ClearAssignee {
		l.Assignee = nil
	}
	if c.NextFollowUpDate != nil {
		d, err := ParseDate(*c.NextFollowUpDate)
		if err == nil {
			l.NextFollowUpDate = &d
		}
	}
	if c.ClearFollowUpDate {
		l.NextFollowUpDate = nil
		l.FollowUpTime = nil
	}
	if c.FollowUpTime != nil {
		t := *c.FollowUpTime
		l.FollowUpTime = &t
	}
	if c.Notes != nil {
		l.Notes = *c.Notes
	}
	return l
}

// ChangesDate reports whether applying c moves l's follow-up date to another calendar day (or sets / clears it)
func (c LeadChanges) ChangesDate(l Lead) bool {
	after := c.Apply(l)
	return !SameDate(l.NextFollowUpDate, after.NextFollowUpDate)
}

// ChangesAssignee reports whether applying c gives l to someone else
func (c LeadChanges) ChangesAssignee(l Lead) bool {
	after := c.Apply(l)
	return !strings.EqualFold(l.AssigneeOrEmpty(), after.AssigneeOrEmpty())
}

// Describe is the follow-up history line for applying c to l
func (c LeadChanges) Describe(l Lead) string {
	after := c.Apply(l)
	parts := []string{}

	if after.Status != l.Status {
		parts = append(parts, "Status changed from "+string(l.Status)+" to "+string(after.Status))
	}
	if after.Priority != l.Priority {
		parts = append(parts, "Priority changed from "+string(l.Priority)+" to "+string(after.Priority))
	}
	if c.ChangesAssignee(l) {
		if after.Assignee == nil {
			parts = append(parts, "Unassigned")
		} else {
			parts = append(parts, "Assigned to "+*after.Assignee)
		}
	}
	if c.ChangesDate(l) {
		if after.NextFollowUpDate == nil {
			parts = append(parts, "Follow-up date cleared")
		} else {
			parts = append(parts, "Follow-up date set to "+after.NextFollowUpDate.Format(DateLayout))
		}
	}
	if c.Notes != nil && *c.Notes != l.Notes {
		parts = append(parts, "Notes updated")
	}

	if len(parts) == 0 {
		return "Lead updated"
	}
	return strings.Join(parts, "; ")
}

// SameDate compares two nullable calendar dates by year, month & day
func SameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
