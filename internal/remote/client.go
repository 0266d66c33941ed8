// Package remote is the table-level client for the relational store that holds
// bookmarks, tag areas and their associations.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
)

// Table names.
const (
	TableBookmarks    = "bookmarks"
	TableTagAreas     = "tag_areas"
	TableBookmarkTags = "bookmark_tags"
)

// Row is a single table row keyed by column name.
type Row map[string]any

// Op is a filter operator.
type Op string

const (
	OpEq Op = "eq"
	OpIn Op = "in"
)

// Cond restricts rows by one column.
type Cond struct {
	Column string
	Op     Op
	Value  any // []string for OpIn
}

// Eq matches rows where column equals value.
func Eq(column string, value any) Cond {
	return Cond{Column: column, Op: OpEq, Value: value}
}

// In matches rows where column is one of values.
func In(column string, values []string) Cond {
	return Cond{Column: column, Op: OpIn, Value: values}
}

// Filter is a conjunction of conditions.
type Filter []Cond

// Order sorts a selection by one column.
type Order struct {
	Column string
	Desc   bool
}

// Query describes a selection.
type Query struct {
	Filter Filter
	Order  []Order
}

// Client is the capability the rest of the application consumes.
// Update and Delete refuse an empty filter.
type Client interface {
	Select(ctx context.Context, table string, q Query) ([]Row, error)
	Insert(ctx context.Context, table string, rows []Row) ([]Row, error)
	Update(ctx context.Context, table string, patch Row, f Filter) error
	Delete(ctx context.Context, table string, f Filter) error
	// Upsert inserts rows, treating a conflict on conflictColumns as an update of
	// the remaining columns (or a no-op when there are none).
	Upsert(ctx context.Context, table string, rows []Row, conflictColumns []string) error
}

// DecodeRows converts rows into typed values using their JSON field names.
func DecodeRows[T any](rows []Row) ([]T, error) {
	data, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("marshal rows: %w", err)
	}
	out := make([]T, 0, len(rows))
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	return out, nil
}

// conditionValues returns the values of an OpIn condition.
func conditionValues(c Cond) ([]string, error) {
	values, ok := c.Value.([]string)
	if !ok {
		return nil, fmt.Errorf("in filter on %q needs []string, got %T", c.Column, c.Value)
	}
	return values, nil
}
