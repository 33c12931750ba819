package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeDB is an in-memory core.DBTX. Query answers "which of these codes
// exist" from existing; batches and copies are recorded.
type fakeDB struct {
	existing map[string]struct{}

	batches [][]*pgx.QueuedQuery
	copies  map[string][][]any
	nextID  int64
}

func newFakeDB(existing ...string) *fakeDB {
	db := &fakeDB{existing: map[string]struct{}{}, copies: map[string][][]any{}}
	for _, code := range existing {
		db.existing[code] = struct{}{}
	}
	return db
}

func (db *fakeDB) Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (db *fakeDB) Query(_ context.Context, _ string, args ...interface{}) (pgx.Rows, error) {
	codes, ok := args[0].([]string)
	if !ok {
		return nil, errors.New("fakeDB: first argument must be []string")
	}
	rows := &stringRows{}
	for _, code := range codes {
		if _, ok := db.existing[code]; ok {
			rows.values = append(rows.values, code)
		}
	}
	return rows, nil
}

func (db *fakeDB) QueryRow(context.Context, string, ...interface{}) pgx.Row {
	return idRow{err: pgx.ErrNoRows}
}

func (db *fakeDB) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	db.batches = append(db.batches, b.QueuedQueries)
	return &fakeBatchResults{db: db, queued: b.QueuedQueries}
}

func (db *fakeDB) CopyFrom(_ context.Context, table pgx.Identifier, _ []string, src pgx.CopyFromSource) (int64, error) {
	var n int64
	for src.Next() {
		values, err := src.Values()
		if err != nil {
			return n, err
		}
		db.copies[table[0]] = append(db.copies[table[0]], values)
		n++
	}
	return n, src.Err()
}

// queued returns every query sent in batches, in order.
func (db *fakeDB) queued() []*pgx.QueuedQuery {
	var out []*pgx.QueuedQuery
	for _, b := range db.batches {
		out = append(out, b...)
	}
	return out
}

// fakeBatchResults runs the per-query callbacks on Close, as pgx does.
// QueryRow results get sequential ids starting at 1.
type fakeBatchResults struct {
	db     *fakeDB
	queued []*pgx.QueuedQuery
}

func (r *fakeBatchResults) Exec() (pgconn.CommandTag, error) { return pgconn.CommandTag{}, nil }
func (r *fakeBatchResults) Query() (pgx.Rows, error)         { return &stringRows{}, nil }

func (r *fakeBatchResults) QueryRow() pgx.Row {
	r.db.nextID++
	return idRow{id: r.db.nextID}
}

func (r *fakeBatchResults) Close() error {
	for _, q := range r.queued {
		if q.Fn == nil {
			continue
		}
		if err := q.Fn(r); err != nil {
			return err
		}
	}
	return nil
}

type idRow struct {
	id  int64
	err error
}

func (r idRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*int64) = r.id
	return nil
}

// stringRows is a single text column result set.
type stringRows struct {
	values []string
	i      int
}

func (r *stringRows) Close()                                       {}
func (r *stringRows) Err() error                                   { return nil }
func (r *stringRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *stringRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *stringRows) RawValues() [][]byte                          { return nil }
func (r *stringRows) Conn() *pgx.Conn                              { return nil }

func (r *stringRows) Next() bool {
	if r.i >= len(r.values) {
		return false
	}
	r.i++
	return true
}

func (r *stringRows) Scan(dest ...any) error {
	*dest[0].(*string) = r.values[r.i-1]
	return nil
}

func (r *stringRows) Values() ([]any, error) {
	return []any{r.values[r.i-1]}, nil
}
