package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTable() *Table {
	return &Table{
		Struct:           widget{},
		TableName:        "widgets",
		PrimaryKeyField:  "id",
		PrimaryQueryName: "widgetsByID",
		InsertQuery:      "insert into widgets (owner, name) values (:owner, :name) RETURNING *",
		UpdateQuery:      "update widgets set owner=:owner, name=:name where id=:id returning *",
		Queries: []*Query{
			{
				Name:         "widgetsByID",
				Query:        "select * from widgets where id=:id",
				CacheKey:     "id=%v",
				InsertAction: CacheSet,
				UpdateAction: CacheSet,
				SelectAction: CacheSet,
			},
		},
	}
}

func TestTableValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(t *Table)
		wantErr bool
	}{
		{"valid", func(t *Table) {}, false},
		{"missing struct", func(t *Table) { t.Struct = nil }, true},
		{"missing table name", func(t *Table) { t.TableName = "" }, true},
		{"missing primary key with insert", func(t *Table) { t.PrimaryKeyField = "" }, true},
		{"primary key not a column", func(t *Table) { t.PrimaryKeyField = "uuid" }, true},
		{"primary query not configured", func(t *Table) { t.PrimaryQueryName = "widgetsByName" }, true},
		{"no queries", func(t *Table) { t.Queries = nil }, true},
		{"insert without returning", func(t *Table) { t.InsertQuery = "insert into widgets (name) values (:name)" }, true},
		{"update without returning", func(t *Table) { t.UpdateQuery = "update widgets set name=:name where id=:id" }, true},
		{"statement without returning", func(t *Table) {
			t.Statements = []*Statement{{Name: "rename", Query: "update widgets set name='x' where id=:id"}}
		}, true},
		{"statement with returning", func(t *Table) {
			t.Statements = []*Statement{{Name: "rename", Query: "update widgets set name='x' where id=:id RETURNING *"}}
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := validTable()
			tt.mutate(table)
			err := table.validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "widget", table.structName)
			assert.Contains(t, table.columns, "owner")
		})
	}
}

func TestQueryValidate(t *testing.T) {
	table := validTable()
	require.NoError(t, table.validate())

	tests := []struct {
		name       string
		query      Query
		wantErr    bool
		wantFields []string
	}{
		{
			name:       "struct key",
			query:      Query{Name: "a", Query: "select 1", CacheKey: "id=%v", SelectAction: CacheSet},
			wantFields: []string{"id"},
		},
		{
			name:       "composite key",
			query:      Query{Name: "a", Query: "select 1", CacheKey: "owner=%v|name=%v", SelectAction: CacheSet},
			wantFields: []string{"owner", "name"},
		},
		{
			name:       "constant key",
			query:      Query{Name: "a", Query: "select 1", CacheKey: "all", SelectAction: CacheSet},
			wantFields: []string{},
		},
		{
			name:       "uncached",
			query:      Query{Name: "a", Query: "select 1", InsertAction: CacheNoAction, UpdateAction: CacheNoAction, SelectAction: CacheNoAction},
			wantFields: []string{},
		},
		{
			name:    "missing name",
			query:   Query{Query: "select 1", CacheKey: "id=%v"},
			wantErr: true,
		},
		{
			name:    "missing sql",
			query:   Query{Name: "a", CacheKey: "id=%v"},
			wantErr: true,
		},
		{
			name:    "missing key for cached query",
			query:   Query{Name: "a", Query: "select 1", SelectAction: CacheSet},
			wantErr: true,
		},
		{
			name:    "unknown key column",
			query:   Query{Name: "a", Query: "select 1", CacheKey: "color=%v", SelectAction: CacheSet},
			wantErr: true,
		},
		{
			name:    "malformed key",
			query:   Query{Name: "a", Query: "select 1", CacheKey: "owner=%v=%v", SelectAction: CacheSet},
			wantErr: true,
		},
		{
			name: "list set on insert",
			query: Query{Name: "a", Query: "select 1", CacheKey: "owner=%v", CacheDataStructure: CacheDataStructureList,
				InsertAction: CacheSet, SelectAction: CacheSet},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := tt.query
			err := q.validate(table)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFields, q.cacheKeyFields)
			assert.NotEqual(t, CacheDataStructureDefault, q.CacheDataStructure)
		})
	}
}

func TestQueryKeyName(t *testing.T) {
	q := &Query{Name: "a", Query: "select 1", CacheKey: "owner=%v|name=%v", SelectAction: CacheSet}
	table := validTable()
	require.NoError(t, table.validate())
	require.NoError(t, q.validate(table))
	q.parseFullCacheKey("test", "widgets")

	objMap, err := structToMap(&widget{ID: 3, Owner: "ana", Name: "gear"})
	require.NoError(t, err)
	assert.Equal(t, "service:test|widgets|owner=ana|name=gear", q.getKeyName(objMap))

	constant := &Query{Name: "b", Query: "select 1", CacheKey: "all", SelectAction: CacheSet}
	require.NoError(t, constant.validate(table))
	constant.parseFullCacheKey("test", "widgets")
	assert.Equal(t, "service:test|widgets|all", constant.getKeyName(objMap))
}

func TestSelectOptions(t *testing.T) {
	table := validTable()
	require.NoError(t, table.validate())

	o := &SelectOptions{Limit: 10, Offset: 20, Descending: true}
	require.NoError(t, o.validateAndParse(table))
	assert.Equal(t, " ORDER BY id DESC LIMIT 10 OFFSET 20", o.clause())

	bad := &SelectOptions{OrderBy: "id; drop table widgets"}
	assert.Error(t, bad.validateAndParse(table))

	negative := &SelectOptions{Offset: -1}
	assert.Error(t, negative.validateAndParse(table))
}
