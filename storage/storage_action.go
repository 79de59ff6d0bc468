package storage

import (
	"context"
)

/*
	actionNonSelect takes the cache action of every query of the table for a row that has been inserted, updated,
	or deleted:
	1. struct keys (e.g. a lead by id) are set to the new row or deleted
	2. list keys (e.g. all leads) are deleted; every page of the list lives under the one key
	3. when the row changed columns used in keys, the keys built from the previous row are deleted too

	Cache errors are logged and never returned: the db write already happened.
*/
func (s *storage) actionNonSelect(ctx context.Context, t *Table, objMap map[string]interface{}, previous map[string]interface{}, action actionTypes) {
	if s.cache == nil || action == actionSelect {
		return
	}

	// new ctx so a cancelled request doesn't leave the cache half updated
	ctx = context.WithoutCancel(ctx)

	for _, q := range t.Queries {
		if !q.cached() {
			continue
		}

		var actionToTake CacheAction
		switch action {
		case actionInsert:
			actionToTake = q.InsertAction
		case actionUpdate:
			actionToTake = q.UpdateAction
		case actionDelete:
			actionToTake = CacheDel
		}

		keyName := q.getKeyName(objMap)
		stale := []string{}
		if previous != nil {
			if prevKey := q.getKeyName(previous); prevKey != keyName {
				stale = append(stale, prevKey)
			}
		}

		var err error
		switch actionToTake {
		case CacheNoAction, CacheDefault:
			// don't do anything;

		case CacheSet:
			err = s.cache.set(ctx, keyName, objMap, q.CacheTTL)
			if err == nil {
				err = s.cache.del(ctx, stale...)
			}

		case CacheDel:
			err = s.cache.del(ctx, append(stale, keyName)...)
		}

		if err != nil {
			// do not return; we want to update all the queries
			s.log.warn(err, "cache action on %s", keyName)
		}
	}
}

func (s *storage) afterWrite(ctx context.Context, t *Table, obj interface{}, previous map[string]interface{}, action actionTypes) {
	if s.cache == nil {
		return
	}
	objMap, err := structToMap(obj)
	if err != nil {
		s.log.warn(err, "cache action on %s", t.TableName)
		return
	}
	s.actionNonSelect(ctx, t, objMap, previous, action)
}
