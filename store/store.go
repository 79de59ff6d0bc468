package store

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/osr-alliance/backend-lib-leadflow/storage"
)

// ReminderKind is which sent-flag a reminder flips
type ReminderKind string

const (
	ReminderOverdue  ReminderKind = "overdue"
	ReminderUpcoming ReminderKind = "upcoming"
	ReminderNote     ReminderKind = "note"
)

type Store interface {
	CreateLead(ctx context.Context, lead *Lead) error
	GetLead(ctx context.Context, id int32) (*Lead, error)
	ListLeads(ctx context.Context, opts *storage.SelectOptions) ([]Lead, error)
	// ListLeadsByAssignee is the leads whose assignee is any of assignees, ignoring case
	ListLeadsByAssignee(ctx context.Context, assignees []string, opts *storage.SelectOptions) ([]Lead, error)
	// UpdateLeadWithHistory writes the lead, optionally clears its reminder flags & appends history in one transaction
	UpdateLeadWithHistory(ctx context.Context, lead *Lead, clearReminders bool, history *FollowUpHistory) error
	// MarkLeadReminderSent flips the kind flag only while the lead is still due on sentFor; otherwise ErrReminderStale
	MarkLeadReminderSent(ctx context.Context, id int32, sentFor *time.Time, kind ReminderKind) (*Lead, error)
	ScanLeads(ctx context.Context, filter *storage.Filter, opts *storage.SelectOptions) ([]Lead, error)

	GetUserByID(ctx context.Context, id int32) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ActiveAdmins(ctx context.Context) ([]User, error)

	CreateStickyNote(ctx context.Context, note *StickyNote) error
	GetStickyNote(ctx context.Context, id int32) (*StickyNote, error)
	ListStickyNotes(ctx context.Context, userID int32) ([]StickyNote, error)
	DeleteStickyNote(ctx context.Context, id int32) (*StickyNote, error)
	ScanStickyNotes(ctx context.Context, filter *storage.Filter, opts *storage.SelectOptions) ([]StickyNote, error)
	MarkStickyNoteSent(ctx context.Context, id int32) (*StickyNote, error)

	AddFollowUpHistory(ctx context.Context, h *FollowUpHistory) error
	ListFollowUpHistory(ctx context.Context, leadID int32) ([]FollowUpHistory, error)
	AddCallLog(ctx context.Context, c *CallLog) error
	ListCallLogs(ctx context.Context, leadID int32) ([]CallLog, error)
}

type store struct {
	store storage.Storage
}

type Config struct {
	ReadConn  *sqlx.DB
	WriteConn *sqlx.DB
	Redis     *redis.Client // nil runs without the cache

	ServiceName string // prefix of every cache key; defaults to leadflow
	Debugger    bool
	// ValidateQueries EXPLAINs the cached queries on startup
	ValidateQueries bool
}

func New(conf *Config) (Store, error) {
	serviceName := conf.ServiceName
	if serviceName == "" {
		serviceName = "leadflow"
	}

	// instantiate the storage
	c := &storage.Config{
		ReadOnlyDbConn:  conf.ReadConn,
		WriteOnlyDbConn: conf.WriteConn,
		Redis:           conf.Redis,
		Tables:          tables(),
		Debugger:        conf.Debugger,
		ServiceName:     serviceName,
		DoNotUseCache:   conf.Redis == nil,
		ValidateQueries: conf.ValidateQueries,
	}

	s, err := storage.New(c)
	if err != nil {
		return nil, err
	}

	return &store{
		store: s,
	}, nil
}

// fetchAll is the SelectOptions for lists that are shown whole
var fetchAll = &storage.SelectOptions{}
