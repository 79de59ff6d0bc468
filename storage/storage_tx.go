package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type Tx struct {
	s  *storage
	tx *sqlx.Tx

	actions []txAction
}

type txAction struct {
	action   actionTypes
	table    *Table
	obj      map[string]interface{}
	previous map[string]interface{}
}

type TxInterface interface {
	TXInsert(ctx context.Context, obj interface{}) error
	TXUpdate(ctx context.Context, obj interface{}) error
	TXExec(ctx context.Context, obj interface{}, statementName string) error

	// TXEnd commits the transaction & only then takes the cache actions of its writes
	TXEnd(ctx context.Context) error
	// TXRollback is safe to defer; after TXEnd it only returns sql.ErrTxDone
	TXRollback() error
}

func (s *storage) TXBegin(ctx context.Context) (TxInterface, error) {
	tx, err := s.db.writeConn().BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}

	return &Tx{
		s:       s,
		tx:      tx,
		actions: []txAction{},
	}, nil
}

func (t *Tx) TXInsert(ctx context.Context, obj interface{}) error {
	table, err := t.s.insert(ctx, obj, t.tx)
	if err != nil {
		return err
	}
	return t.queue(table, obj, nil, actionInsert)
}

func (t *Tx) TXUpdate(ctx context.Context, obj interface{}) error {
	table, previous, err := t.s.update(ctx, obj, t.tx)
	if err != nil {
		return err
	}
	return t.queue(table, obj, previous, actionUpdate)
}

func (t *Tx) TXExec(ctx context.Context, obj interface{}, statementName string) error {
	table, previous, err := t.s.exec(ctx, obj, statementName, t.tx)
	if err != nil {
		return err
	}
	return t.queue(table, obj, previous, actionUpdate)
}

// queue snapshots the row now; the caller may keep changing obj before TXEnd
func (t *Tx) queue(table *Table, obj interface{}, previous map[string]interface{}, action actionTypes) error {
	if t.s.cache == nil {
		return nil
	}
	objMap, err := structToMap(obj)
	if err != nil {
		return err
	}
	t.actions = append(t.actions, txAction{
		action:   action,
		table:    table,
		obj:      objMap,
		previous: previous,
	})
	return nil
}

func (t *Tx) TXEnd(ctx context.Context) error {
	err := t.tx.Commit()
	if err != nil {
		t.tx.Rollback()
		return fmt.Errorf("storage: commit: %w", err)
	}

	for _, action := range t.actions {
		t.s.actionNonSelect(ctx, action.table, action.obj, action.previous, action.action)
	}
	t.actions = nil

	return nil
}

func (t *Tx) TXRollback() error {
	err := t.tx.Rollback()
	if err == nil {
		t.actions = nil
	}
	return err
}
