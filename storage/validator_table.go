package storage

import (
	"errors"
	"fmt"
	"strings"
)

func (t *Table) validate() error {
	if t.Struct == nil {
		return fmt.Errorf("Struct must be set")
	}

	t.parseStructName()

	if t.TableName == "" {
		return fmt.Errorf("Struct: %s Err: TableName must be set", t.structName)
	}

	// you can have no primary key only if you have no insert query
	if t.PrimaryKeyField == "" && t.InsertQuery != "" {
		return fmt.Errorf("Table: %s Err: PrimaryKeyField must be set", t.TableName)
	}

	if t.PrimaryQueryName == "" {
		return fmt.Errorf("Table: %s Err: PrimaryQueryName must be set", t.TableName)
	}

	if len(t.Queries) == 0 {
		return fmt.Errorf("Table: %s Err: Queries must be set", t.TableName)
	}

	err := t.validateAndParseColumns()
	if err != nil {
		return err
	}

	if t.PrimaryKeyField != "" {
		if _, ok := t.columns[t.PrimaryKeyField]; !ok {
			return fmt.Errorf("Table: %s Err: PrimaryKeyField %s is not a column", t.TableName, t.PrimaryKeyField)
		}
	}

	err = t.validateWriteQueries()
	if err != nil {
		return fmt.Errorf("Table: %s Err: %w", t.TableName, err)
	}

	for _, q := range t.Queries {
		if q.Name == t.PrimaryQueryName {
			return nil
		}
	}
	return fmt.Errorf("Table: %s Err: PrimaryQueryName %s is not one of its Queries", t.TableName, t.PrimaryQueryName)
}

func (t *Table) validateAndParseColumns() error {
	cols, err := columnsOf(t.Struct)
	if err != nil {
		return fmt.Errorf("error getting columns for %s: %s", t.TableName, err)
	}
	t.columns = cols
	return nil
}

func (t *Table) validateWriteQueries() error {
	// insert, update & delete queries aren't required e.g. users are provisioned outside of this service
	if !returnsRow(t.InsertQuery) {
		return errors.New("InsertQuery must end with `returning *`")
	}

	if !returnsRow(t.UpdateQuery) {
		return errors.New("UpdateQuery must end with `returning *`")
	}

	if !returnsRow(t.DeleteQuery) {
		return errors.New("DeleteQuery must end with `returning *`")
	}

	for _, st := range t.Statements {
		if st.Name == "" {
			return errors.New("statement name is required")
		}
		if st.Query == "" || !returnsRow(st.Query) {
			return fmt.Errorf("statement %s must end with `returning *`", st.Name)
		}
	}
	return nil
}

func returnsRow(query string) bool {
	return query == "" || strings.HasSuffix(strings.ToLower(strings.TrimSpace(query)), "returning *")
}

func (t *Table) parseStructName() {
	// optimization but this is used so many times that it's worth it given it uses reflection
	t.structName = getStructName(t.Struct)
}
