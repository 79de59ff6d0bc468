package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

func (s *storage) validate() error {
	if s.serviceName == "" {
		return errors.New("serviceName must be set")
	}

	if len(s.tables) == 0 {
		return errors.New("at least one table must be configured")
	}

	return nil
}

// validateQueries EXPLAINs every cached query so a typo fails at startup instead of on the first cache miss
func (s *storage) validateQueries(ctx context.Context) error {
	for _, q := range s.queries {
		if !q.cached() {
			continue
		}

		t := s.queryToTable[q.Name]
		m, err := structToMap(t.newRow())
		if err != nil {
			return err
		}
		m["limit"] = 0
		m["offset"] = 0

		explainQuery := fmt.Sprintf("EXPLAIN %s", q.queryLimitOffset)

		rows, err := sqlx.NamedQueryContext(ctx, s.db.readConn(), explainQuery, m)
		if err != nil {
			return fmt.Errorf("error in query: %s. Query: %s", err.Error(), q.queryLimitOffset)
		}
		rows.Close()
	}

	return nil
}
