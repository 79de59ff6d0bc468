package store

import "github.com/osr-alliance/backend-lib-leadflow/storage"

func leadsGetByID() *storage.Query {
	return &storage.Query{
		Name:     LeadsGetByID,
		CacheKey: "id=%v",

		Query: "select * from leads where id=:id",

		CacheTTL: DefaultTTL,

		InsertAction: storage.CacheSet,
		UpdateAction: storage.CacheSet,
		SelectAction: storage.CacheSet,
	}
}

func leadsGetAll() *storage.Query {
	return &storage.Query{
		Name:               LeadsGetAll,
		CacheKey:           "all",
		CacheDataStructure: storage.CacheDataStructureList,

		Query: "select * from leads",

		CacheTTL: DefaultTTL,

		InsertAction: storage.CacheDel,
		UpdateAction: storage.CacheDel,
		SelectAction: storage.CacheSet,
	}
}

const leadsInsert = `INSERT INTO leads (lead_name, company_name, contact_person, email, phone, assignee, status, priority,
lead_source, service, location, notes, next_follow_up_date, follow_up_time)
VALUES
(:lead_name, :company_name, :contact_person, :email, :phone, :assignee, :status, :priority,
:lead_source, :service, :location, :notes, :next_follow_up_date, :follow_up_time) RETURNING *` // note: make sure it's RETURNING *

// the reminder flags are only written by the statements below
const leadsUpdate = `update leads set lead_name=:lead_name, company_name=:company_name, contact_person=:contact_person,
email=:email, phone=:phone, assignee=:assignee, status=:status, priority=:priority, lead_source=:lead_source,
service=:service, location=:location, notes=:notes, next_follow_up_date=:next_follow_up_date,
follow_up_time=:follow_up_time, updated_at=now() where id=:id RETURNING *`

const leadsMarkOverdueSent = `update leads set overdue_reminder_sent=true where id=:id and next_follow_up_date=:next_follow_up_date RETURNING *`

const leadsMarkUpcomingSent = `update leads set upcoming_reminder_sent=true where id=:id and next_follow_up_date=:next_follow_up_date RETURNING *`

const leadsClearReminders = `update leads set overdue_reminder_sent=false, upcoming_reminder_sent=false where id=:id RETURNING *`
