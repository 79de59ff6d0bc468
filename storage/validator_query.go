package storage

import (
	"errors"
	"fmt"
	"strings"
)

func (q *Query) validate(t *Table) error {
	err := q.validateName()
	if err != nil {
		return err
	}

	if strings.TrimSpace(q.Query) == "" {
		return errors.New("Query is required")
	}

	err = q.validateAndParseCacheFields(t)
	if err != nil {
		return err
	}

	return q.validateCacheDataStructure()
}

func (q *Query) parseTableName(tableName string) {
	q.tableName = tableName
}

func (q *Query) parseFullCacheKey(service string, tableName string) {
	// this is an optimization so we don't need to sprintf extra keys and do the lookup
	// small but this is used so many times that it's worth it
	q.fullCacheKey = fmt.Sprintf(cacheKeyPrefix, service, tableName)
}

// validateCacheDataStructure makes sure a list is never CacheSet on a write: a single row can't rebuild a page
func (q *Query) validateCacheDataStructure() error {
	if q.CacheDataStructure == CacheDataStructureDefault {
		q.CacheDataStructure = CacheDataStructureStruct
	}

	if !q.isList() {
		return nil
	}

	if q.InsertAction == CacheSet || q.UpdateAction == CacheSet {
		return errors.New("list queries can only use CacheDel or CacheNoAction on insert & update")
	}
	return nil
}

// validateAndParseCacheFields takes in a generic key e.g. `assignee=%v|status=%v` and places assignee & status into the cacheKeyFields
func (q *Query) validateAndParseCacheFields(t *Table) error {
	q.cacheKeyFields = []string{}

	if q.CacheKey == "" {
		if q.InsertAction != CacheNoAction || q.UpdateAction != CacheNoAction || q.SelectAction != CacheNoAction {
			return errors.New("CacheKey is required unless every action is CacheNoAction")
		}
		return nil
	}

	for _, key := range strings.Split(q.CacheKey, "|") {
		if !strings.Contains(key, `=%v`) {
			// field doesn't have a placeholder value; continue
			continue
		}

		parts := strings.Split(key, "=")
		if len(parts) != 2 || parts[1] != "%v" {
			return fmt.Errorf("CacheKey %s: each pipe must be in the format `field=%%v`", q.CacheKey)
		}

		if _, ok := t.columns[parts[0]]; !ok {
			return fmt.Errorf("CacheKey %s: %s is not a column of %s", q.CacheKey, parts[0], t.TableName)
		}

		q.cacheKeyFields = append(q.cacheKeyFields, parts[0])
	}

	return nil
}

func (q *Query) validateName() error {
	if q.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

func (q *Query) parseTTL(defaultTTL int) {
	if q.CacheTTL == 0 {
		q.CacheTTL = defaultTTL
	}
}

func (q *Query) parseLimitOffsetQuery() {
	q.queryLimitOffset = q.Query + " LIMIT :limit OFFSET :offset"
}
