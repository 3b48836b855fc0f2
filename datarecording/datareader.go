package datarecording

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/fatih/structs"
)

// A Reader loads the tables of a recording back into entry structs. Entries
// are read with the same struct types they were recorded with.
type Reader struct {
	db *sql.DB
}

// OpenReader opens an existing recording file read-only.
func OpenReader(filename string) (*Reader, error) {
	_, err := os.Stat(filename)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", "file:"+filename+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", filename, err)
	}

	return NewReaderWithDB(db), nil
}

// NewReaderWithDB reads from an opened database.
func NewReaderWithDB(db *sql.DB) *Reader {
	return &Reader{db: db}
}

// Tables lists the tables of the recording by name.
func (r *Reader) Tables(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}

		names = append(names, name)
	}

	return names, rows.Err()
}

// Close closes the database.
func (r *Reader) Close() error {
	return r.db.Close()
}

// A Filter selects the rows of a table. Column names are the field names of
// the entry struct.
type Filter struct {
	// Equal keeps rows whose columns equal the given values.
	Equal map[string]any

	// OrderBy sorts by one column. Empty keeps insertion order.
	OrderBy    string
	Descending bool

	// Limit caps the number of entries returned. Zero means no cap.
	Limit  int
	Offset int
}

// A Page is one window of the rows selected by a Filter.
type Page[E any] struct {
	Entries []E

	// Total counts the selected rows before Limit and Offset apply.
	Total int
}

// Read loads the rows of table that pass filter as E values.
func Read[E any](
	ctx context.Context,
	r *Reader,
	table string,
	filter Filter,
) (Page[E], error) {
	var sample E

	if err := checkStructFields(sample); err != nil {
		return Page[E]{}, err
	}

	tables, err := r.Tables(ctx)
	if err != nil {
		return Page[E]{}, err
	}

	if !slices.Contains(tables, table) {
		return Page[E]{}, fmt.Errorf("recording has no table %s", table)
	}

	columns := structs.Names(sample)

	where, args, err := filter.where(columns)
	if err != nil {
		return Page[E]{}, err
	}

	var total int

	err = r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+table+where, args...).Scan(&total)
	if err != nil {
		return Page[E]{}, fmt.Errorf("counting %s: %w", table, err)
	}

	order, err := filter.order(columns)
	if err != nil {
		return Page[E]{}, err
	}

	query := "SELECT " + strings.Join(columns, ", ") + " FROM " + table +
		where + order + " LIMIT ? OFFSET ?"

	limit := -1
	if filter.Limit > 0 {
		limit = filter.Limit
	}

	rows, err := r.db.QueryContext(ctx, query,
		append(args, limit, filter.Offset)...)
	if err != nil {
		return Page[E]{}, fmt.Errorf("reading %s: %w", table, err)
	}
	defer rows.Close()

	entries, err := scanEntries[E](rows, columns)
	if err != nil {
		return Page[E]{}, fmt.Errorf("reading %s: %w", table, err)
	}

	return Page[E]{Entries: entries, Total: total}, nil
}

func (f Filter) where(columns []string) (string, []any, error) {
	if len(f.Equal) == 0 {
		return "", nil, nil
	}

	names := make([]string, 0, len(f.Equal))
	for name := range f.Equal {
		if !slices.Contains(columns, name) {
			return "", nil, fmt.Errorf("unknown column %s", name)
		}

		names = append(names, name)
	}

	slices.Sort(names)

	conditions := make([]string, len(names))
	args := make([]any, len(names))

	for i, name := range names {
		conditions[i] = name + " = ?"
		args[i] = f.Equal[name]
	}

	return " WHERE " + strings.Join(conditions, " AND "), args, nil
}

func (f Filter) order(columns []string) (string, error) {
	if f.OrderBy == "" {
		return " ORDER BY rowid", nil
	}

	if !slices.Contains(columns, f.OrderBy) {
		return "", fmt.Errorf("unknown column %s", f.OrderBy)
	}

	if f.Descending {
		return " ORDER BY " + f.OrderBy + " DESC", nil
	}

	return " ORDER BY " + f.OrderBy, nil
}

func scanEntries[E any](rows *sql.Rows, columns []string) ([]E, error) {
	var entries []E

	for rows.Next() {
		var entry E

		value := reflect.ValueOf(&entry).Elem()
		targets := make([]any, len(columns))

		for i, name := range columns {
			targets[i] = value.FieldByName(name).Addr().Interface()
		}

		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
