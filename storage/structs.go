package storage

import (
	"fmt"
	"strings"
)

type actionTypes int32

const (
	actionSelect actionTypes = iota
	actionInsert
	actionUpdate
	actionDelete
)

// Define the cache actions you can take
type CacheAction int32

const (
	CacheDefault  CacheAction = iota
	CacheNoAction             // do nothing
	CacheDel
	CacheSet
)

type CacheDataStructure int32

const (
	CacheDataStructureDefault CacheDataStructure = iota
	CacheDataStructureStruct                     // one row stored as json
	CacheDataStructureList                       // pages of rows stored in a hash keyed by the select options
)

const (
	// DefaultTTL is used by queries that don't set CacheTTL
	DefaultTTL = 3600 * 24 // 1 day

	cacheKeyPrefix = "service:%s|%s"
)

/*
Query is a named sql query on a table and the config for how its results are cached.

	CacheKey is the abstract key appended to `service:{serviceName}|{tableName}|` e.g. `id=%v` or
	`assignee=%v|status=%v`. Every `field=%v` must be a json tag of the table's struct; the value is
	taken from the obj passed to Select / SelectAll. A key with no placeholders (e.g. `active_admins`)
	caches a single result for the whole query.
*/
type Query struct {
	Name     string
	Query    string // sql with named parameters e.g. `select * from leads where id=:id`
	CacheKey string
	CacheTTL int // time to live in seconds; 0 = DefaultTTL

	CacheDataStructure CacheDataStructure // defaults to CacheDataStructureStruct

	InsertAction CacheAction // action to take on this key when a row of the table is inserted
	UpdateAction CacheAction // action to take on this key when a row of the table is updated
	SelectAction CacheAction // action to take on this key when it's selected from the db (most likely CacheSet)

	tableName        string
	fullCacheKey     string
	cacheKeyFields   []string
	queryLimitOffset string
}

// Statement is a named single-row write on a table e.g. flipping a flag. It must end with `RETURNING *`
// so the cache can be refreshed with the returned row.
type Statement struct {
	Name  string
	Query string
}

// Table is the config for a db table & the struct it scans into
type Table struct {
	Struct           interface{} // zero value of the row struct; json tags are the column names
	TableName        string
	PrimaryKeyField  string // column name of the primary key e.g. id
	PrimaryQueryName string // the query that fetches a row by its primary key e.g. LeadsGetByID

	InsertQuery string // must end with `RETURNING *`
	UpdateQuery string // must end with `RETURNING *`
	DeleteQuery string // must end with `RETURNING *`

	Queries    []*Query
	Statements []*Statement

	structName string
	columns    map[string]struct{}
}

// SelectOptions control paging & ordering for SelectAll and Scan
type SelectOptions struct {
	Limit      int    // <= 0 means no limit
	Offset     int    //
	OrderBy    string // column; defaults to the table's primary key
	Descending bool
}

func (o *SelectOptions) validateAndParse(t *Table) error {
	if o.Offset < 0 {
		return fmt.Errorf("storage: offset must be >= 0; got %d", o.Offset)
	}
	if o.OrderBy == "" {
		o.OrderBy = t.PrimaryKeyField
	}
	if o.OrderBy == "" {
		return nil
	}
	if _, ok := t.columns[o.OrderBy]; !ok {
		return fmt.Errorf("storage: cannot order %s by unknown column %s", t.TableName, o.OrderBy)
	}
	return nil
}

// clause returns the order by / limit / offset suffix. Only validated columns & ints are written into the sql.
func (o *SelectOptions) clause() string {
	b := strings.Builder{}
	if o.OrderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(o.OrderBy)
		if o.Descending {
			b.WriteString(" DESC")
		}
	}
	if o.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", o.Limit)
	}
	if o.Offset > 0 {
		fmt.Fprintf(&b, " OFFSET %d", o.Offset)
	}
	return b.String()
}

// cacheField is the hash field a page of a list is stored under
func (o *SelectOptions) cacheField() string {
	return fmt.Sprintf("limit=%d|offset=%d|order=%s|desc=%t", o.Limit, o.Offset, o.OrderBy, o.Descending)
}

// getKeyName takes a query's abstract key, e.g. `id=%v` and returns the key name e.g. `service:leadflow|leads|id=1273`
func (q *Query) getKeyName(objMap map[string]interface{}) string {
	if len(q.cacheKeyFields) == 0 {
		return q.fullCacheKey + "|" + q.CacheKey
	}

	args := []interface{}{}
	for _, field := range q.cacheKeyFields {
		args = append(args, objMap[field])
	}

	return q.fullCacheKey + "|" + fmt.Sprintf(q.CacheKey, args...)
}

func (q *Query) isList() bool {
	return q.CacheDataStructure == CacheDataStructureList
}

func (q *Query) cached() bool {
	return q.CacheKey != "" && !(q.InsertAction == CacheNoAction && q.UpdateAction == CacheNoAction && q.SelectAction == CacheNoAction)
}
