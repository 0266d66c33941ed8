package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nikbrunner/stash/internal/model"
)

// timeLayout is fixed width so stored timestamps sort lexicographically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// tableDef describes which columns a table accepts and how they are stored.
type tableDef struct {
	columns     []string
	jsonColumns map[string]bool
	generatedID bool   // id assigned on insert when absent
	timestamp   string // column filled with the insert time when absent
}

var tables = map[string]tableDef{
	TableBookmarks: {
		columns: []string{
			"id", "url", "title", "source_type", "status", "tags",
			"notes", "image", "duration", "channel", "created_at",
		},
		jsonColumns: map[string]bool{"tags": true},
		generatedID: true,
		timestamp:   "created_at",
	},
	TableTagAreas: {
		columns:     []string{"id", "name", "emoji", "color", "description", "sort_order", "created_at"},
		generatedID: true,
		timestamp:   "created_at",
	},
	TableBookmarkTags: {
		columns:   []string{"bookmark_id", "tag_area_id", "created_at"},
		timestamp: "created_at",
	},
}

// SQLiteClient implements Client on a local SQLite database.
type SQLiteClient struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// NewSQLiteClient opens (and migrates) the database at path.
func NewSQLiteClient(path string) (*SQLiteClient, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	// Pragmas go into the DSN so every pooled connection gets them.
	params := url.Values{}
	params.Add("_pragma", "foreign_keys(1)")
	params.Add("_pragma", "journal_mode(WAL)")
	params.Add("_pragma", "synchronous(NORMAL)")
	params.Add("_pragma", "busy_timeout(5000)")

	db, err := sql.Open("sqlite", "file:"+path+"?"+params.Encode())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	c := &SQLiteClient{db: db, path: path, now: time.Now}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return c, nil
}

// Path returns the database file path.
func (c *SQLiteClient) Path() string {
	return c.path
}

// Close closes the database connection.
func (c *SQLiteClient) Close() error {
	return c.db.Close()
}

// migrate runs database migrations.
func (c *SQLiteClient) migrate() error {
	var version int
	err := c.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		// Table doesn't exist or is empty, start fresh
		version = 0
	}

	if version < 1 {
		if err := c.migrateV1(); err != nil {
			return err
		}
	}

	return nil
}

// migrateV1 creates the initial schema.
func (c *SQLiteClient) migrateV1() error {
	schema := `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS bookmarks (
			id TEXT PRIMARY KEY NOT NULL,
			url TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			source_type TEXT NOT NULL DEFAULT 'blog',
			status TEXT NOT NULL DEFAULT 'unread',
			tags TEXT NOT NULL DEFAULT '[]',
			notes TEXT NOT NULL DEFAULT '',
			image TEXT NOT NULL DEFAULT '',
			duration TEXT NOT NULL DEFAULT '',
			channel TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_bookmarks_created_at ON bookmarks(created_at);
		CREATE INDEX IF NOT EXISTS idx_bookmarks_url ON bookmarks(url);

		CREATE TABLE IF NOT EXISTS tag_areas (
			id TEXT PRIMARY KEY NOT NULL,
			name TEXT NOT NULL UNIQUE,
			emoji TEXT NOT NULL DEFAULT '',
			color TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			sort_order INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS bookmark_tags (
			bookmark_id TEXT NOT NULL,
			tag_area_id TEXT NOT NULL,
			created_at TEXT NOT NULL,
			PRIMARY KEY (bookmark_id, tag_area_id),
			FOREIGN KEY (bookmark_id) REFERENCES bookmarks(id) ON DELETE CASCADE,
			FOREIGN KEY (tag_area_id) REFERENCES tag_areas(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_bookmark_tags_area ON bookmark_tags(tag_area_id);

		INSERT OR REPLACE INTO schema_version (version) VALUES (1);
	`
	_, err := c.db.Exec(schema)
	return err
}

// Select implements Client.
func (c *SQLiteClient) Select(ctx context.Context, table string, q Query) ([]Row, error) {
	tbl, err := lookupTable(table)
	if err != nil {
		return nil, err
	}

	where, args, err := buildWhere(tbl, q.Filter)
	if err != nil {
		return nil, err
	}

	var orderParts []string
	for _, o := range q.Order {
		if !slices.Contains(tbl.columns, o.Column) {
			return nil, unknownColumn(table, o.Column)
		}
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		orderParts = append(orderParts, o.Column+" "+dir)
	}
	// rowid keeps ties in insertion order
	orderParts = append(orderParts, "rowid ASC")

	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s",
		strings.Join(tbl.columns, ", "), table, where, strings.Join(orderParts, ", "))

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		values := make([]any, len(tbl.columns))
		ptrs := make([]any, len(tbl.columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, mapSQLiteError(err)
		}

		row := make(Row, len(tbl.columns))
		for i, col := range tbl.columns {
			row[col] = readValue(tbl, col, values[i])
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError(err)
	}

	return result, nil
}

// Insert implements Client. Rows are written in one transaction.
func (c *SQLiteClient) Insert(ctx context.Context, table string, rows []Row) ([]Row, error) {
	tbl, err := lookupTable(table)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []Row{}, nil
	}

	prepared := make([]Row, len(rows))
	for i, r := range rows {
		prepared[i] = c.fillDefaults(tbl, r)
	}

	err = c.inTx(ctx, func(tx *sql.Tx) error {
		for _, r := range prepared {
			cols, args, err := writeColumns(table, tbl, r)
			if err != nil {
				return err
			}
			stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
				table, strings.Join(cols, ", "), placeholders(len(cols)))
			if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, mapSQLiteError(err)
	}

	if !tbl.generatedID {
		return prepared, nil
	}

	// Read back so callers see the stored representation.
	ids := make([]string, len(prepared))
	for i, r := range prepared {
		ids[i] = fmt.Sprint(r["id"])
	}
	stored, err := c.Select(ctx, table, Query{Filter: Filter{In("id", ids)}})
	if err != nil {
		return nil, err
	}
	byID := make(map[string]Row, len(stored))
	for _, r := range stored {
		byID[fmt.Sprint(r["id"])] = r
	}
	result := make([]Row, 0, len(ids))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			result = append(result, r)
		}
	}
	return result, nil
}

// Update implements Client.
func (c *SQLiteClient) Update(ctx context.Context, table string, patch Row, f Filter) error {
	tbl, err := lookupTable(table)
	if err != nil {
		return err
	}
	if len(f) == 0 {
		return ErrUnfilteredWrite
	}
	if len(patch) == 0 {
		return nil
	}

	cols, args, err := writeColumns(table, tbl, patch)
	if err != nil {
		return err
	}
	sets := make([]string, len(cols))
	for i, col := range cols {
		sets[i] = col + " = ?"
	}

	where, whereArgs, err := buildWhere(tbl, f)
	if err != nil {
		return err
	}

	stmt := fmt.Sprintf("UPDATE %s SET %s%s", table, strings.Join(sets, ", "), where)
	if _, err := c.db.ExecContext(ctx, stmt, append(args, whereArgs...)...); err != nil {
		return mapSQLiteError(err)
	}
	return nil
}

// Delete implements Client.
func (c *SQLiteClient) Delete(ctx context.Context, table string, f Filter) error {
	tbl, err := lookupTable(table)
	if err != nil {
		return err
	}
	if len(f) == 0 {
		return ErrUnfilteredWrite
	}

	where, args, err := buildWhere(tbl, f)
	if err != nil {
		return err
	}

	if _, err := c.db.ExecContext(ctx, "DELETE FROM "+table+where, args...); err != nil {
		return mapSQLiteError(err)
	}
	return nil
}

// Upsert implements Client.
func (c *SQLiteClient) Upsert(ctx context.Context, table string, rows []Row, conflictColumns []string) error {
	tbl, err := lookupTable(table)
	if err != nil {
		return err
	}
	if len(conflictColumns) == 0 {
		return fmt.Errorf("upsert into %s: conflict columns required", table)
	}
	for _, col := range conflictColumns {
		if !slices.Contains(tbl.columns, col) {
			return unknownColumn(table, col)
		}
	}

	err = c.inTx(ctx, func(tx *sql.Tx) error {
		for _, r := range rows {
			// Only columns the caller supplied are updated on conflict.
			var updates []string
			for col := range r {
				if !slices.Contains(conflictColumns, col) {
					updates = append(updates, col)
				}
			}
			slices.Sort(updates)

			cols, args, err := writeColumns(table, tbl, c.fillDefaults(tbl, r))
			if err != nil {
				return err
			}

			action := "DO NOTHING"
			if len(updates) > 0 {
				sets := make([]string, len(updates))
				for i, col := range updates {
					sets[i] = col + " = excluded." + col
				}
				action = "DO UPDATE SET " + strings.Join(sets, ", ")
			}

			stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) %s",
				table, strings.Join(cols, ", "), placeholders(len(cols)),
				strings.Join(conflictColumns, ", "), action)
			if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
				return err
			}
		}
		return nil
	})
	return mapSQLiteError(err)
}

// inTx runs fn in a transaction, rolling back on error.
func (c *SQLiteClient) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// fillDefaults copies r and assigns the generated id and timestamp when absent.
func (c *SQLiteClient) fillDefaults(tbl tableDef, r Row) Row {
	out := make(Row, len(r)+2)
	for k, v := range r {
		out[k] = v
	}
	if tbl.generatedID {
		if id, ok := out["id"]; !ok || id == nil || id == "" {
			out["id"] = model.GenerateUUID()
		}
	}
	if tbl.timestamp != "" {
		if ts, ok := out[tbl.timestamp]; !ok || ts == nil || ts == "" {
			out[tbl.timestamp] = c.now().UTC()
		}
	}
	return out
}

func lookupTable(table string) (tableDef, error) {
	tbl, ok := tables[table]
	if !ok {
		return tableDef{}, &Error{
			Code:    CodeUndefinedTable,
			Message: fmt.Sprintf("relation %q does not exist", table),
		}
	}
	return tbl, nil
}

func unknownColumn(table, column string) error {
	return &Error{
		Code:    CodeUndefinedColumn,
		Message: fmt.Sprintf("column %q of relation %q does not exist", column, table),
	}
}

// writeColumns returns the sorted column list and encoded values for r.
func writeColumns(table string, tbl tableDef, r Row) ([]string, []any, error) {
	cols := make([]string, 0, len(r))
	for col := range r {
		if !slices.Contains(tbl.columns, col) {
			return nil, nil, unknownColumn(table, col)
		}
		cols = append(cols, col)
	}
	slices.Sort(cols)

	args := make([]any, len(cols))
	for i, col := range cols {
		v, err := writeValue(tbl, col, r[col])
		if err != nil {
			return nil, nil, err
		}
		args[i] = v
	}
	return cols, args, nil
}

// writeValue encodes a Go value for storage.
func writeValue(tbl tableDef, col string, v any) (any, error) {
	if tbl.jsonColumns[col] {
		if s, ok := v.(string); ok {
			return s, nil
		}
		if v == nil {
			return "[]", nil
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", col, err)
		}
		return string(data), nil
	}

	switch val := v.(type) {
	case time.Time:
		return val.UTC().Format(timeLayout), nil
	case *time.Time:
		if val == nil {
			return nil, nil
		}
		return val.UTC().Format(timeLayout), nil
	default:
		return v, nil
	}
}

// readValue decodes a scanned value.
func readValue(tbl tableDef, col string, v any) any {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if tbl.jsonColumns[col] {
		s, _ := v.(string)
		var decoded any
		if err := json.Unmarshal([]byte(s), &decoded); err != nil || decoded == nil {
			return []any{}
		}
		return decoded
	}
	return v
}

// buildWhere renders a filter into a WHERE clause.
func buildWhere(tbl tableDef, f Filter) (string, []any, error) {
	if len(f) == 0 {
		return "", nil, nil
	}

	parts := make([]string, 0, len(f))
	var args []any
	for _, cond := range f {
		if !slices.Contains(tbl.columns, cond.Column) {
			return "", nil, &Error{
				Code:    CodeUndefinedColumn,
				Message: fmt.Sprintf("column %q does not exist", cond.Column),
			}
		}
		switch cond.Op {
		case OpEq:
			v, err := writeValue(tbl, cond.Column, cond.Value)
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, cond.Column+" = ?")
			args = append(args, v)
		case OpIn:
			values, err := conditionValues(cond)
			if err != nil {
				return "", nil, err
			}
			if len(values) == 0 {
				parts = append(parts, "1 = 0")
				continue
			}
			parts = append(parts, fmt.Sprintf("%s IN (%s)", cond.Column, placeholders(len(values))))
			for _, v := range values {
				args = append(args, v)
			}
		default:
			return "", nil, fmt.Errorf("unsupported operator %q", cond.Op)
		}
	}

	return " WHERE " + strings.Join(parts, " AND "), args, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// mapSQLiteError translates driver errors into *Error codes.
func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*Error); ok {
		return err
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return &Error{Code: CodeUniqueViolation, Message: msg, Err: err}
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return &Error{Code: CodeForeignKeyViolation, Message: msg, Err: err}
	case strings.Contains(msg, "no such table"):
		return &Error{Code: CodeUndefinedTable, Message: msg, Err: err}
	case strings.Contains(msg, "no such column"), strings.Contains(msg, "has no column named"):
		return &Error{Code: CodeUndefinedColumn, Message: msg, Err: err}
	default:
		return &Error{Message: msg, Err: err}
	}
}
