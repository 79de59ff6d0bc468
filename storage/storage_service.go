package storage

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

func inTx(conn Conn) bool {
	_, ok := conn.(*sqlx.Tx)
	return ok
}

func (s *storage) selectOne(ctx context.Context, obj interface{}, queryName string, conn Conn) error {
	err := mustBePointer(obj, "obj")
	if err != nil {
		return err
	}

	q, ok := s.queries[queryName]
	if !ok {
		return errors.New("config query not found; have you configured storage properly?")
	}

	objMap, err := structToMap(obj)
	if err != nil {
		return err
	}

	// get the cache key name
	keyName := q.getKeyName(objMap)
	log := s.log.WithFields(logrus.Fields{"query": queryName, "key": keyName})

	// reads inside a transaction always go to the db so they see the transaction's own writes
	useCache := s.cache != nil && q.cached() && !q.isList() && !inTx(conn)

	if useCache {
		// the obj should be of the value that the cache is expecting so we can then just unmarshal into that
		err = s.cache.get(ctx, keyName, obj)
		if err == nil {
			log.d("found in cache; returning")
			return nil
		}
		if err != redis.Nil {
			s.log.warn(err, "cache get %s; falling back to db", keyName)
		}
	}

	// the value wasn't found in the cache; let's get from the database and then set the cache
	err = s.db.queryOne(ctx, conn, q.Query, obj, obj)
	if err != nil {
		log.d("error: %+v", err)
		return err
	}

	if useCache && q.SelectAction == CacheSet {
		err = s.cache.set(ctx, keyName, obj, q.CacheTTL)
		if err != nil {
			s.log.warn(err, "cache set %s", keyName)
		}
	}
	return nil
}

func (s *storage) selectAll(ctx context.Context, obj interface{}, dest interface{}, queryName string, opts *SelectOptions, conn Conn) error {
	err := mustBeSlicePointer(dest)
	if err != nil {
		return err
	}

	q, ok := s.queries[queryName]
	if !ok {
		return errors.New("config query not found; have you configured storage properly?")
	}
	t := s.queryToTable[queryName]

	o := SelectOptions{}
	if opts != nil {
		o = *opts
	}
	err = o.validateAndParse(t)
	if err != nil {
		return err
	}

	objMap, err := structToMap(obj)
	if err != nil {
		return err
	}

	keyName := q.getKeyName(objMap)
	field := o.cacheField()
	useCache := s.cache != nil && q.cached() && q.isList() && !inTx(conn)

	if useCache {
		err = s.cache.getList(ctx, keyName, field, dest)
		if err == nil {
			s.log.d("found list %s (%s) in cache", keyName, field)
			return nil
		}
		if err != redis.Nil {
			s.log.warn(err, "cache hget %s; falling back to db", keyName)
		}
	}

	err = s.db.queryAll(ctx, conn, q.Query+o.clause(), obj, dest)
	if err != nil {
		s.log.d("error: %+v", err)
		return err
	}

	if useCache && q.SelectAction == CacheSet {
		err = s.cache.setList(ctx, keyName, field, dest, q.CacheTTL)
		if err != nil {
			s.log.warn(err, "cache hset %s", keyName)
		}
	}
	return nil
}

func (s *storage) scan(ctx context.Context, obj interface{}, dest interface{}, filter *Filter, opts *SelectOptions, conn Conn) error {
	err := mustBeSlicePointer(dest)
	if err != nil {
		return err
	}

	t, err := s.tableFor(obj)
	if err != nil {
		return err
	}

	o := SelectOptions{}
	if opts != nil {
		o = *opts
	}
	err = o.validateAndParse(t)
	if err != nil {
		return err
	}

	where, params, err := filter.build(t.columns)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("SELECT * FROM %s WHERE %s%s", t.TableName, where, o.clause())
	s.log.d("scan: %s params: %+v", query, params)

	return s.db.queryIn(ctx, conn, query, params, dest)
}

func (s *storage) insert(ctx context.Context, obj interface{}, conn Conn) (*Table, error) {
	err := mustBePointer(obj, "obj")
	if err != nil {
		return nil, err
	}

	t, err := s.tableFor(obj)
	if err != nil {
		return nil, err
	}
	if t.InsertQuery == "" {
		return nil, fmt.Errorf("storage: table %s has no InsertQuery", t.TableName)
	}

	// obj is filled with the returned row so it gets its primary key, defaults, etc
	err = s.db.queryOne(ctx, conn, t.InsertQuery, obj, obj)
	if isNoRows(err) {
		return nil, fmt.Errorf("storage: insert into %s did not return a row", t.TableName)
	}
	return t, err
}

// update returns the row as it was before the update when the table's cache keys need it for invalidation
func (s *storage) update(ctx context.Context, obj interface{}, conn Conn) (*Table, map[string]interface{}, error) {
	err := mustBePointer(obj, "obj")
	if err != nil {
		return nil, nil, err
	}

	t, err := s.tableFor(obj)
	if err != nil {
		return nil, nil, err
	}
	if t.UpdateQuery == "" {
		return nil, nil, fmt.Errorf("storage: table %s has no UpdateQuery", t.TableName)
	}

	previous, err := s.previous(ctx, t, obj, conn)
	if err != nil {
		return nil, nil, err
	}

	err = s.db.queryOne(ctx, conn, t.UpdateQuery, obj, obj)
	return t, previous, err
}

func (s *storage) exec(ctx context.Context, obj interface{}, statementName string, conn Conn) (*Table, map[string]interface{}, error) {
	err := mustBePointer(obj, "obj")
	if err != nil {
		return nil, nil, err
	}

	st, ok := s.statements[statementName]
	if !ok {
		return nil, nil, errors.New("config statement not found; have you configured storage properly?")
	}

	t, err := s.tableFor(obj)
	if err != nil {
		return nil, nil, err
	}
	if s.statementToTable[statementName] != t {
		return nil, nil, fmt.Errorf("storage: statement %s does not belong to table %s", statementName, t.TableName)
	}

	previous, err := s.previous(ctx, t, obj, conn)
	if err != nil {
		return nil, nil, err
	}

	err = s.db.queryOne(ctx, conn, st.Query, obj, obj)
	return t, previous, err
}

func (s *storage) delete(ctx context.Context, obj interface{}, conn Conn) (*Table, error) {
	err := mustBePointer(obj, "obj")
	if err != nil {
		return nil, err
	}

	t, err := s.tableFor(obj)
	if err != nil {
		return nil, err
	}
	if t.DeleteQuery == "" {
		return nil, fmt.Errorf("storage: table %s has no DeleteQuery", t.TableName)
	}

	// the deleted row comes back so every one of its cache keys can be deleted
	err = s.db.queryOne(ctx, conn, t.DeleteQuery, obj, obj)
	return t, err
}

// previous fetches the row before a write when one of the table's cache keys depends on a column that may change
func (s *storage) previous(ctx context.Context, t *Table, obj interface{}, conn Conn) (map[string]interface{}, error) {
	if s.cache == nil || !t.keysDependOnNonPrimary() {
		return nil, nil
	}

	prev := t.newRow()
	err := s.db.queryOne(ctx, conn, s.queries[t.PrimaryQueryName].Query, obj, prev)
	if err != nil {
		return nil, err
	}
	return structToMap(prev)
}

func (t *Table) newRow() interface{} {
	typ := reflect.TypeOf(t.Struct)
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	return reflect.New(typ).Interface()
}

func (t *Table) keysDependOnNonPrimary() bool {
	for _, q := range t.Queries {
		if !q.cached() {
			continue
		}
		for _, f := range q.cacheKeyFields {
			if f != t.PrimaryKeyField {
				return true
			}
		}
	}
	return false
}
