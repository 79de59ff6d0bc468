package storage

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

type operator int32

const (
	opEq operator = iota
	opNotEq
	opLt
	opLte
	opGt
	opGte
	opIn
	opNotIn
	opIsNull
	opNotNull
	opInFold
)

var operatorSQL = map[operator]string{
	opEq:     "=",
	opNotEq:  "<>",
	opLt:     "<",
	opLte:    "<=",
	opGt:     ">",
	opGte:    ">=",
	opIn:     "IN",
	opNotIn:  "NOT IN",
	opInFold: "IN",
}

/*
Filter is the where clause of a Scan: either a single predicate on a column or an And / Or of other filters.

	storage.And(
		storage.Eq("overdue_reminder_sent", false),
		storage.Lt("next_follow_up_date", "2025-01-10"),
		storage.NotIn("status", []string{"Won", "Lost"}),
	)

Columns are checked against the table's json tags so nothing but a known column name is written into the sql;
values are always bound as parameters.
*/
type Filter struct {
	column string
	op     operator
	value  interface{}

	conj     string // "AND" / "OR"; empty for a predicate
	children []*Filter
}

func Eq(column string, value interface{}) *Filter    { return &Filter{column: column, op: opEq, value: value} }
func NotEq(column string, value interface{}) *Filter { return &Filter{column: column, op: opNotEq, value: value} }
func Lt(column string, value interface{}) *Filter    { return &Filter{column: column, op: opLt, value: value} }
func Lte(column string, value interface{}) *Filter   { return &Filter{column: column, op: opLte, value: value} }
func Gt(column string, value interface{}) *Filter    { return &Filter{column: column, op: opGt, value: value} }
func Gte(column string, value interface{}) *Filter   { return &Filter{column: column, op: opGte, value: value} }

// In matches any of values which must be a non-empty slice
func In(column string, values interface{}) *Filter { return &Filter{column: column, op: opIn, value: values} }

// NotIn matches none of values which must be a non-empty slice
func NotIn(column string, values interface{}) *Filter {
	return &Filter{column: column, op: opNotIn, value: values}
}

// InFold matches any of values ignoring case & surrounding spaces of the column
func InFold(column string, values []string) *Filter {
	folded := make([]string, 0, len(values))
	for _, v := range values {
		folded = append(folded, strings.ToLower(strings.TrimSpace(v)))
	}
	return &Filter{column: column, op: opInFold, value: folded}
}

func IsNull(column string) *Filter  { return &Filter{column: column, op: opIsNull} }
func NotNull(column string) *Filter { return &Filter{column: column, op: opNotNull} }

func And(filters ...*Filter) *Filter { return &Filter{conj: "AND", children: filters} }
func Or(filters ...*Filter) *Filter  { return &Filter{conj: "OR", children: filters} }

// build renders the filter into a where clause with named parameters (:f0, :f1, ...)
func (f *Filter) build(columns map[string]struct{}) (string, map[string]interface{}, error) {
	params := map[string]interface{}{}
	if f == nil {
		return "TRUE", params, nil
	}

	n := 0
	where, err := f.render(columns, params, &n)
	if err != nil {
		return "", nil, err
	}
	return where, params, nil
}

func (f *Filter) render(columns map[string]struct{}, params map[string]interface{}, n *int) (string, error) {
	if f == nil {
		return "", errors.New("storage: nil filter in group")
	}

	if f.conj != "" {
		if len(f.children) == 0 {
			// an empty And matches everything, an empty Or nothing
			if f.conj == "AND" {
				return "TRUE", nil
			}
			return "FALSE", nil
		}

		parts := make([]string, 0, len(f.children))
		for _, c := range f.children {
			p, err := c.render(columns, params, n)
			if err != nil {
				return "", err
			}
			parts = append(parts, p)
		}
		return "(" + strings.Join(parts, " "+f.conj+" ") + ")", nil
	}

	if _, ok := columns[f.column]; !ok {
		return "", fmt.Errorf("storage: unknown column %q in filter", f.column)
	}

	switch f.op {
	case opIsNull:
		return f.column + " IS NULL", nil
	case opNotNull:
		return f.column + " IS NOT NULL", nil
	}

	name := fmt.Sprintf("f%d", *n)
	*n++
	params[name] = f.value

	if f.op == opIn || f.op == opNotIn || f.op == opInFold {
		v := reflect.ValueOf(f.value)
		if v.Kind() != reflect.Slice || v.Len() == 0 {
			return "", fmt.Errorf("storage: %s on %s needs a non-empty slice", operatorSQL[f.op], f.column)
		}
		column := f.column
		if f.op == opInFold {
			column = "lower(btrim(" + f.column + "))"
		}
		return fmt.Sprintf("%s %s (:%s)", column, operatorSQL[f.op], name), nil
	}

	return fmt.Sprintf("%s %s :%s", f.column, operatorSQL[f.op], name), nil
}
