package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrMissingDSN indicates DATABASE_URL is not set for the postgres driver.
var ErrMissingDSN = errors.New("postgres DSN is required")

// timeLayout is fixed width so lexical order of stored strings equals time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const (
	bodyTimesKey = "_times"

	createTableSQL = `
		CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id         TEXT NOT NULL,
			body       JSONB NOT NULL,
			stored_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (collection, id)
		)`
	insertSQL = `INSERT INTO documents (collection, id, body) VALUES ($1, $2, $3)`
	getSQL    = `SELECT body FROM documents WHERE collection = $1 AND id = $2`

	uniqueViolation = "23505"
)

type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore keeps every collection in one documents table with a jsonb body.
type PostgresStore struct {
	db pgQuerier
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore opens a pgx pool, verifies it and creates the documents table.
func NewPostgresStore(ctx context.Context, opts Options) (*PostgresStore, error) {
	if opts.DSN == "" {
		return nil, ErrMissingDSN
	}

	config, err := pgxpool.ParseConfig(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if opts.MaxConnections > 0 {
		config.MaxConns = int32(opts.MaxConnections)
	}
	config.MinConns = 0
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("verify postgres connectivity: %w", err)
	}
	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create documents table: %w", err)
	}

	return &PostgresStore{db: pool}, nil
}

func (s *PostgresStore) Insert(ctx context.Context, collection string, fields map[string]any) (string, error) {
	id := uuid.NewString()
	if err := s.InsertWithID(ctx, collection, id, fields); err != nil {
		return "", err
	}
	return id, nil
}

func (s *PostgresStore) InsertWithID(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := validateKey(collection, id); err != nil {
		return err
	}
	body, err := encodeBody(fields)
	if err != nil {
		return err
	}

	if _, err := s.db.Exec(ctx, insertSQL, collection, id, body); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s/%s", ErrDuplicateID, collection, id)
		}
		return fmt.Errorf("insert document %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var body []byte
	err := s.db.QueryRow(ctx, getSQL, collection, id).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("get document %s/%s: %w", collection, id, err)
	}

	fields, err := decodeBody(body)
	if err != nil {
		return Document{}, err
	}
	return Document{ID: id, Fields: fields}, nil
}

func (s *PostgresStore) Find(ctx context.Context, q *Query) ([]Document, error) {
	query, args, err := buildFindSQL(q)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find documents in %s: %w", q.Collection, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var (
			id   string
			body []byte
		)
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		fields, err := decodeBody(body)
		if err != nil {
			return nil, err
		}
		docs = append(docs, Document{ID: id, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PostgresStore) Close(context.Context) error {
	s.db.Close()
	return nil
}

func buildFindSQL(q *Query) (string, []any, error) {
	if err := q.Validate(); err != nil {
		return "", nil, err
	}

	args := []any{q.Collection}
	where := []string{"collection = $1"}
	for _, p := range q.Predicates {
		var (
			column string
			arg    any
		)
		switch v := p.Value.(type) {
		case time.Time:
			column = fmt.Sprintf("body->>'%s'", p.Field)
			arg = v.UTC().Format(timeLayout)
		case string:
			column = fmt.Sprintf("body->>'%s'", p.Field)
			arg = v
		case bool:
			column = fmt.Sprintf("(body->>'%s')::boolean", p.Field)
			arg = v
		default:
			n, err := normalizeValue(v)
			if err != nil {
				return "", nil, err
			}
			column = fmt.Sprintf("(body->>'%s')::numeric", p.Field)
			arg = n
		}
		args = append(args, arg)
		where = append(where, fmt.Sprintf("%s %s $%d", column, sqlOp(p.Op), len(args)))
	}

	var b strings.Builder
	b.WriteString("SELECT id, body FROM documents WHERE ")
	b.WriteString(strings.Join(where, " AND "))
	if q.Order != nil {
		dir := "ASC"
		if q.Order.Direction == Desc {
			dir = "DESC"
		}
		fmt.Fprintf(&b, " ORDER BY body->'%s' %s, id %s", q.Order.Field, dir, dir)
	} else {
		b.WriteString(" ORDER BY id ASC")
	}
	if q.LimitN > 0 {
		args = append(args, q.LimitN)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	return b.String(), args, nil
}

func sqlOp(op Op) string {
	if op == OpEq {
		return "="
	}
	return string(op)
}

// encodeBody renders fields as JSON. Top-level times become fixed-width UTC
// strings and their names are listed under _times so decodeBody can restore them.
func encodeBody(fields map[string]any) ([]byte, error) {
	normalized, err := normalizeFields(fields)
	if err != nil {
		return nil, err
	}

	body := make(map[string]any, len(normalized)+1)
	var times []string
	for k, v := range normalized {
		if t, ok := v.(time.Time); ok {
			body[k] = t.UTC().Format(timeLayout)
			times = append(times, k)
			continue
		}
		body[k] = v
	}
	if len(times) > 0 {
		body[bodyTimesKey] = times
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode document body: %w", err)
	}
	return encoded, nil
}

func decodeBody(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("decode document body: %w", err)
	}

	var times []any
	if list, ok := body[bodyTimesKey].([]any); ok {
		times = list
	}
	delete(body, bodyTimesKey)

	fields := make(map[string]any, len(body))
	for k, v := range body {
		fields[k] = fromJSONNumbers(v)
	}
	for _, name := range times {
		key, _ := name.(string)
		s, ok := fields[key].(string)
		if !ok {
			continue
		}
		t, err := time.Parse(timeLayout, s)
		if err != nil {
			return nil, fmt.Errorf("decode time field %s: %w", key, err)
		}
		fields[key] = t
	}
	return fields, nil
}

func fromJSONNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case map[string]any:
		for k, inner := range t {
			t[k] = fromJSONNumbers(inner)
		}
		return t
	case []any:
		for i, inner := range t {
			t[i] = fromJSONNumbers(inner)
		}
		return t
	default:
		return v
	}
}
