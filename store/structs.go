package store

import "time"

type LeadStatus string

const (
	StatusNew         LeadStatus = "New"
	StatusContacted   LeadStatus = "Contacted"
	StatusQualified   LeadStatus = "Qualified"
	StatusProposal    LeadStatus = "Proposal"
	StatusNegotiation LeadStatus = "Negotiation"
	StatusWon         LeadStatus = "Won"
	StatusLost        LeadStatus = "Lost"
)

// LeadStatuses in pipeline order
var LeadStatuses = []LeadStatus{StatusNew, StatusContacted, StatusQualified, StatusProposal, StatusNegotiation, StatusWon, StatusLost}

// ClosedStatuses never get follow-up reminders
var ClosedStatuses = []LeadStatus{StatusWon, StatusLost}

func (s LeadStatus) Valid() bool {
	for _, v := range LeadStatuses {
		if s == v {
			return true
		}
	}
	return false
}

func (s LeadStatus) Closed() bool {
	return s == StatusWon || s == StatusLost
}

type LeadPriority string

const (
	PriorityLow    LeadPriority = "Low"
	PriorityMedium LeadPriority = "Medium"
	PriorityHigh   LeadPriority = "High"
	PriorityUrgent LeadPriority = "Urgent"
)

func (p LeadPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type UserRole string

const (
	RoleAdmin    UserRole = "Admin"
	RoleEmployee UserRole = "Employee"
)

type UserStatus string

const (
	UserActive   UserStatus = "active"
	UserInactive UserStatus = "inactive"
)

/*
Lead is a row of the leads table.

	NextFollowUpDate is a postgres `date`; only its year, month & day mean anything.
	Assignee is the assigned user's email (older rows may hold a bare username) or nil when unassigned.
*/
type Lead struct {
	ID                   int32        `json:"id"`
	LeadName             string       `json:"lead_name"`
	CompanyName          string       `json:"company_name"`
	ContactPerson        string       `json:"contact_person"`
	Email                string       `json:"email"`
	Phone                string       `json:"phone"`
	Assignee             *string      `json:"assignee"`
	Status               LeadStatus   `json:"status"`
	Priority             LeadPriority `json:"priority"`
	LeadSource           string       `json:"lead_source"`
	Service              string       `json:"service"`
	Location             string       `json:"location"`
	Notes                string       `json:"notes"`
	NextFollowUpDate     *time.Time   `json:"next_follow_up_date"`
	FollowUpTime         *string      `json:"follow_up_time"`
	OverdueReminderSent  bool         `json:"overdue_reminder_sent"`
	UpcomingReminderSent bool         `json:"upcoming_reminder_sent"`
	CreatedAt            time.Time    `json:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at"`
}

// AssigneeOrEmpty is the assignee or "" when the lead is unassigned
func (l *Lead) AssigneeOrEmpty() string {
	if l.Assignee == nil {
		return ""
	}
	return *l.Assignee
}

type User struct {
	ID           int32      `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone"`
	Role         UserRole   `json:"role"`
	Department   string     `json:"department"`
	Status       UserStatus `json:"status"`
	PasswordHash string     `json:"password_hash"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsActive() bool {
	return u.Status == UserActive
}

// StickyNote is a personal reminder, optionally linked to a lead. Email is the owner's address at creation.
type StickyNote struct {
	ID             int32     `json:"id"`
	UserID         int32     `json:"user_id"`
	Email          string    `json:"email"`
	LeadID         *int32    `json:"lead_id"`
	Content        string    `json:"content"`
	Color          string    `json:"color"`
	ReminderAt     time.Time `json:"reminder_at"`
	IsReminderSent bool      `json:"is_reminder_sent"`
	CreatedAt      time.Time `json:"created_at"`
}

// FollowUpHistory is append only
type FollowUpHistory struct {
	ID          int32     `json:"id"`
	LeadID      int32     `json:"lead_id"`
	Description string    `json:"description"`
	Notes       *string   `json:"notes"`
	Status      *string   `json:"status"`
	Priority    *string   `json:"priority"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// CallLog is append only
type CallLog struct {
	ID              int32     `json:"id"`
	LeadID          int32     `json:"lead_id"`
	Name            string    `json:"name"`
	Email           *string   `json:"email"`
	Phone           *string   `json:"phone"`
	Description     string    `json:"description"`
	DurationMinutes *int32    `json:"duration_minutes"`
	CreatedBy       string    `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
}
