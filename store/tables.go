package store

import "github.com/osr-alliance/backend-lib-leadflow/storage"

// define all the query & statement names we will use
const (
	/*
		It's standard to have the query used to fetch by
		the primary key be called {tableName}GetByID

		In this case, it's LeadsGetByID
	*/
	LeadsGetByID          = "LeadsGetByID"
	LeadsGetAll           = "LeadsGetAll"
	LeadsMarkOverdueSent  = "LeadsMarkOverdueSent"
	LeadsMarkUpcomingSent = "LeadsMarkUpcomingSent"
	LeadsClearReminders   = "LeadsClearReminders"

	UsersGetByID         = "UsersGetByID"
	UsersGetByEmail      = "UsersGetByEmail"
	UsersGetActiveAdmins = "UsersGetActiveAdmins"

	StickyNotesGetByID     = "StickyNotesGetByID"
	StickyNotesGetByUserID = "StickyNotesGetByUserID"
	StickyNotesMarkSent    = "StickyNotesMarkSent"

	FollowUpHistoryGetByID     = "FollowUpHistoryGetByID"
	FollowUpHistoryGetByLeadID = "FollowUpHistoryGetByLeadID"

	CallLogsGetByID     = "CallLogsGetByID"
	CallLogsGetByLeadID = "CallLogsGetByLeadID"
)

const (
	DefaultTTL = (3600 * 24 * 7) // 7 days

	// admins change rarely but a deactivated admin should stop getting reminders the same day
	adminsTTL = 60 * 15
)

func tables() []*storage.Table {
	return []*storage.Table{
		leadsTable(),
		usersTable(),
		stickyNotesTable(),
		followUpHistoryTable(),
		callLogsTable(),
	}
}

// the tables are built on every New since storage writes its parsed state into them
func leadsTable() *storage.Table {
	return &storage.Table{
		Struct:           Lead{},
		TableName:        "leads",
		PrimaryQueryName: LeadsGetByID,
		PrimaryKeyField:  "id",
		InsertQuery:      leadsInsert,
		UpdateQuery:      leadsUpdate,
		Queries: []*storage.Query{
			leadsGetByID(),
			leadsGetAll(),
		},
		Statements: []*storage.Statement{
			{Name: LeadsMarkOverdueSent, Query: leadsMarkOverdueSent},
			{Name: LeadsMarkUpcomingSent, Query: leadsMarkUpcomingSent},
			{Name: LeadsClearReminders, Query: leadsClearReminders},
		},
	}
}

func usersTable() *storage.Table {
	return &storage.Table{
		Struct:           User{},
		TableName:        "users",
		PrimaryQueryName: UsersGetByID,
		PrimaryKeyField:  "id",
		Queries: []*storage.Query{
			usersGetByID(),
			usersGetByEmail(),
			usersGetActiveAdmins(),
		},
	}
}

func stickyNotesTable() *storage.Table {
	return &storage.Table{
		Struct:           StickyNote{},
		TableName:        "sticky_notes",
		PrimaryQueryName: StickyNotesGetByID,
		PrimaryKeyField:  "id",
		InsertQuery:      stickyNotesInsert,
		DeleteQuery:      stickyNotesDelete,
		Queries: []*storage.Query{
			stickyNotesGetByID(),
			stickyNotesGetByUserID(),
		},
		Statements: []*storage.Statement{
			{Name: StickyNotesMarkSent, Query: stickyNotesMarkSent},
		},
	}
}

func followUpHistoryTable() *storage.Table {
	return &storage.Table{
		Struct:           FollowUpHistory{},
		TableName:        "follow_up_history",
		PrimaryQueryName: FollowUpHistoryGetByID,
		PrimaryKeyField:  "id",
		InsertQuery:      followUpHistoryInsert,
		Queries: []*storage.Query{
			followUpHistoryGetByID(),
			followUpHistoryGetByLeadID(),
		},
	}
}

func callLogsTable() *storage.Table {
	return &storage.Table{
		Struct:           CallLog{},
		TableName:        "call_logs",
		PrimaryQueryName: CallLogsGetByID,
		PrimaryKeyField:  "id",
		InsertQuery:      callLogsInsert,
		Queries: []*storage.Query{
			callLogsGetByID(),
			callLogsGetByLeadID(),
		},
	}
}
