package store

import "github.com/osr-alliance/backend-lib-leadflow/storage"

func stickyNotesGetByID() *storage.Query {
	return &storage.Query{
		Name:     StickyNotesGetByID,
		CacheKey: "id=%v",

		Query: "select * from sticky_notes where id=:id",

		CacheTTL: DefaultTTL,

		InsertAction: storage.CacheSet,
		UpdateAction: storage.CacheSet,
		SelectAction: storage.CacheSet,
	}
}

func stickyNotesGetByUserID() *storage.Query {
	return &storage.Query{
		Name:               StickyNotesGetByUserID,
		CacheKey:           "user_id=%v",
		CacheDataStructure: storage.CacheDataStructureList,

		Query: "select * from sticky_notes where user_id=:user_id",

		CacheTTL: DefaultTTL,

		InsertAction: storage.CacheDel,
		UpdateAction: storage.CacheDel, // the sent flag is shown in the panel
		SelectAction: storage.CacheSet,
	}
}

const stickyNotesInsert = `INSERT INTO sticky_notes (user_id, email, lead_id, content, color, reminder_at)
VALUES
(:user_id, :email, :lead_id, :content, :color, :reminder_at) RETURNING *`

const stickyNotesDelete = `delete from sticky_notes where id=:id RETURNING *`

const stickyNotesMarkSent = `update sticky_notes set is_reminder_sent=true where id=:id RETURNING *`
