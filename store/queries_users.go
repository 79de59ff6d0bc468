package store

import "github.com/osr-alliance/backend-lib-leadflow/storage"

// users are provisioned outside of leadflow so the table has no insert or update query

func usersGetByID() *storage.Query {
	return &storage.Query{
		Name:     UsersGetByID,
		CacheKey: "id=%v",

		Query: "select * from users where id=:id",

		CacheTTL: DefaultTTL,

		InsertAction: storage.CacheSet,
		UpdateAction: storage.CacheSet,
		SelectAction: storage.CacheSet,
	}
}

func usersGetByEmail() *storage.Query {
	return &storage.Query{
		Name:     UsersGetByEmail,
		CacheKey: "email=%v",

		Query: "select * from users where lower(email)=lower(:email)",

		CacheTTL: DefaultTTL,

		InsertAction: storage.CacheSet,
		UpdateAction: storage.CacheSet,
		SelectAction: storage.CacheSet,
	}
}

func usersGetActiveAdmins() *storage.Query {
	return &storage.Query{
		Name:               UsersGetActiveAdmins,
		CacheKey:           "active_admins",
		CacheDataStructure: storage.CacheDataStructureList,

		Query: "select * from users where role='Admin' and status='active'",

		CacheTTL: adminsTTL,

		InsertAction: storage.CacheDel,
		UpdateAction: storage.CacheDel,
		SelectAction: storage.CacheSet,
	}
}
