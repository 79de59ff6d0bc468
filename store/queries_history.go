package store

import "github.com/osr-alliance/backend-lib-leadflow/storage"

// history & call logs are append only; inserting one invalidates the lead's list

func followUpHistoryGetByID() *storage.Query {
	return &storage.Query{
		Name:     FollowUpHistoryGetByID,
		CacheKey: "id=%v",

		Query: "select * from follow_up_history where id=:id",

		CacheTTL: DefaultTTL,

		InsertAction: storage.CacheSet,
		UpdateAction: storage.CacheNoAction,
		SelectAction: storage.CacheSet,
	}
}

func followUpHistoryGetByLeadID() *storage.Query {
	return &storage.Query{
		Name:               FollowUpHistoryGetByLeadID,
		CacheKey:           "lead_id=%v",
		CacheDataStructure: storage.CacheDataStructureList,

		Query: "select * from follow_up_history where lead_id=:lead_id",

		CacheTTL: DefaultTTL,

		InsertAction: storage.CacheDel,
		UpdateAction: storage.CacheNoAction,
		SelectAction: storage.CacheSet,
	}
}

func callLogsGetByID() *storage.Query {
	return &storage.Query{
		Name:     CallLogsGetByID,
		CacheKey: "id=%v",

		Query: "select * from call_logs where id=:id",

		CacheTTL: DefaultTTL,

		InsertAction: storage.CacheSet,
		UpdateAction: storage.CacheNoAction,
		SelectAction: storage.CacheSet,
	}
}

func callLogsGetByLeadID() *storage.Query {
	return &storage.Query{
		Name:               CallLogsGetByLeadID,
		CacheKey:           "lead_id=%v",
		CacheDataStructure: storage.CacheDataStructureList,

		Query: "select * from call_logs where lead_id=:lead_id",

		CacheTTL: DefaultTTL,

		InsertAction: storage.CacheDel,
		UpdateAction: storage.CacheNoAction,
		SelectAction: storage.CacheSet,
	}
}

const followUpHistoryInsert = `INSERT INTO follow_up_history (lead_id, description, notes, status, priority, created_by)
VALUES
(:lead_id, :description, :notes, :status, :priority, :created_by) RETURNING *`

const callLogsInsert = `INSERT INTO call_logs (lead_id, name, email, phone, description, duration_minutes, created_by)
VALUES
(:lead_id, :name, :email, :phone, :description, :duration_minutes, :created_by) RETURNING *`
