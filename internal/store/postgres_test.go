package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	body []byte
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*[]byte)) = r.body
	return nil
}

type fakeQuerier struct {
	execSQL  string
	execArgs []any
	execErr  error
	row      fakeRow
	pingErr  error
	closed   bool
}

func (f *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execSQL = sql
	f.execArgs = args
	return pgconn.CommandTag{}, f.execErr
}

func (f *fakeQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeQuerier) QueryRow(context.Context, string, ...any) pgx.Row { return f.row }

func (f *fakeQuerier) Ping(context.Context) error { return f.pingErr }

func (f *fakeQuerier) Close() { f.closed = true }

func TestBuildFindSQL(t *testing.T) {
	from := time.Date(2025, 1, 2, 3, 4, 5, 6, time.FixedZone("EST", -5*3600))
	q := NewQuery("transactions").
		Where("createdAt", OpGte, from).
		Where("invoiceStatus", OpEq, "Paid").
		Where("amountSent", OpLte, 5000).
		OrderBy("createdAt", Desc).
		Limit(25)

	query, args, err := buildFindSQL(q)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT id, body FROM documents WHERE collection = $1"+
			" AND body->>'createdAt' >= $2"+
			" AND body->>'invoiceStatus' = $3"+
			" AND (body->>'amountSent')::numeric <= $4"+
			" ORDER BY body->'createdAt' DESC, id DESC LIMIT $5",
		query)
	assert.Equal(t, []any{"transactions", "2025-01-02T08:04:05.000000006Z", "Paid", int64(5000), 25}, args)

	query, args, err = buildFindSQL(NewQuery("c"))
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, body FROM documents WHERE collection = $1 ORDER BY id ASC", query)
	assert.Equal(t, []any{"c"}, args)

	_, _, err = buildFindSQL(NewQuery("c").Where("f'; DROP TABLE documents; --", OpEq, "x"))
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestEncodeDecodeBody(t *testing.T) {
	at := time.Date(2025, 6, 30, 23, 59, 59, 123, time.UTC)
	body, err := encodeBody(map[string]any{
		"createdAt":  at,
		"amountSent": 2000,
		"rate":       1.5,
		"status":     "Paid",
		"raw":        map[string]any{"amountSent": "$20,00", "count": 3},
	})
	require.NoError(t, err)

	fields, err := decodeBody(body)
	require.NoError(t, err)
	assert.Equal(t, at, fields["createdAt"])
	assert.Equal(t, int64(2000), fields["amountSent"])
	assert.Equal(t, 1.5, fields["rate"])
	assert.Equal(t, "Paid", fields["status"])
	assert.Equal(t, map[string]any{"amountSent": "$20,00", "count": int64(3)}, fields["raw"])
	assert.NotContains(t, fields, bodyTimesKey)
}

func TestTimeLayoutOrdersLexically(t *testing.T) {
	early := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC).Format(timeLayout)
	late := time.Date(2025, 1, 1, 10, 0, 0, 5, time.UTC).Format(timeLayout)
	assert.Less(t, early, late)
	assert.Len(t, early, len(late))
}

func TestPostgresStore_InsertAndGet(t *testing.T) {
	db := &fakeQuerier{}
	s := &PostgresStore{db: db}
	ctx := context.Background()

	require.NoError(t, s.InsertWithID(ctx, "transactions", "tx-1", map[string]any{"status": "Paid"}))
	assert.Equal(t, insertSQL, db.execSQL)
	require.Len(t, db.execArgs, 3)
	assert.Equal(t, "transactions", db.execArgs[0])
	assert.Equal(t, "tx-1", db.execArgs[1])
	assert.JSONEq(t, `{"status":"Paid"}`, string(db.execArgs[2].([]byte)))

	db.execErr = &pgconn.PgError{Code: uniqueViolation}
	assert.ErrorIs(t, s.InsertWithID(ctx, "transactions", "tx-1", map[string]any{}), ErrDuplicateID)

	db.row = fakeRow{body: []byte(`{"status":"Paid"}`)}
	doc, err := s.Get(ctx, "transactions", "tx-1")
	require.NoError(t, err)
	assert.Equal(t, Document{ID: "tx-1", Fields: map[string]any{"status": "Paid"}}, doc)

	db.row = fakeRow{err: pgx.ErrNoRows}
	_, err = s.Get(ctx, "transactions", "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Close(ctx))
	assert.True(t, db.closed)
}

func TestNewPostgresStore_RequiresDSN(t *testing.T) {
	_, err := NewPostgresStore(context.Background(), Options{})
	assert.ErrorIs(t, err, ErrMissingDSN)
}
