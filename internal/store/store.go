package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Store is the minimal document-store contract the repositories depend on.
// Documents are schemaless field maps addressed by collection and id.
type Store interface {
	Insert(ctx context.Context, collection string, fields map[string]any) (string, error)
	InsertWithID(ctx context.Context, collection, id string, fields map[string]any) error
	Get(ctx context.Context, collection, id string) (Document, error)
	Find(ctx context.Context, q *Query) ([]Document, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Document is a stored record. Top-level values are string, bool, int64,
// float64, time.Time, or nested map[string]any / []any.
type Document struct {
	ID     string
	Fields map[string]any
}

var (
	// ErrNotFound is returned by Get when no document has the requested id.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicateID is returned when a document with the same id already exists.
	ErrDuplicateID = errors.New("document id already exists")
	// ErrInvalidQuery is returned for malformed queries (unknown operator, bad field name).
	ErrInvalidQuery = errors.New("invalid query")
	// ErrUnknownDriver indicates an unsupported STORE_DRIVER value.
	ErrUnknownDriver = errors.New("unknown store driver")
)

// Op is a comparison operator usable in a Where clause.
type Op string

const (
	OpEq  Op = "=="
	OpGte Op = ">="
	OpLte Op = "<="
)

// Direction orders query results.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Predicate is a single field comparison.
type Predicate struct {
	Field string
	Op    Op
	Value any
}

// Order names the sort field. Ties are broken by document id in the same direction.
type Order struct {
	Field     string
	Direction Direction
}

// Query is a conjunction of predicates over one collection.
type Query struct {
	Collection string
	Predicates []Predicate
	Order      *Order
	LimitN     int
}

// NewQuery starts a query over collection.
func NewQuery(collection string) *Query {
	return &Query{Collection: collection}
}

// Where adds a predicate.
func (q *Query) Where(field string, op Op, value any) *Query {
	q.Predicates = append(q.Predicates, Predicate{Field: field, Op: op, Value: value})
	return q
}

// OrderBy sets the sort field and direction.
func (q *Query) OrderBy(field string, dir Direction) *Query {
	q.Order = &Order{Field: field, Direction: dir}
	return q
}

// Limit caps the number of returned documents. Zero means unlimited.
func (q *Query) Limit(n int) *Query {
	q.LimitN = n
	return q
}

var fieldNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Validate checks operators, field names and value kinds.
func (q *Query) Validate() error {
	if q == nil {
		return fmt.Errorf("%w: nil query", ErrInvalidQuery)
	}
	if !fieldNamePattern.MatchString(q.Collection) {
		return fmt.Errorf("%w: collection %q", ErrInvalidQuery, q.Collection)
	}
	for _, p := range q.Predicates {
		if !fieldNamePattern.MatchString(p.Field) {
			return fmt.Errorf("%w: field %q", ErrInvalidQuery, p.Field)
		}
		switch p.Op {
		case OpEq, OpGte, OpLte:
		default:
			return fmt.Errorf("%w: operator %q", ErrInvalidQuery, p.Op)
		}
		if kindOf(p.Value) == kindUnsupported {
			return fmt.Errorf("%w: value of type %T for field %q", ErrInvalidQuery, p.Value, p.Field)
		}
	}
	if q.Order != nil {
		if !fieldNamePattern.MatchString(q.Order.Field) {
			return fmt.Errorf("%w: order field %q", ErrInvalidQuery, q.Order.Field)
		}
		if q.Order.Direction != Asc && q.Order.Direction != Desc {
			return fmt.Errorf("%w: direction %q", ErrInvalidQuery, q.Order.Direction)
		}
	}
	if q.LimitN < 0 {
		return fmt.Errorf("%w: negative limit", ErrInvalidQuery)
	}
	return nil
}

func validateKey(collection, id string) error {
	if !fieldNamePattern.MatchString(collection) {
		return fmt.Errorf("%w: collection %q", ErrInvalidQuery, collection)
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidQuery)
	}
	return nil
}

func validateFields(fields map[string]any) error {
	for name := range fields {
		if !fieldNamePattern.MatchString(name) {
			return fmt.Errorf("%w: field %q", ErrInvalidQuery, name)
		}
	}
	return nil
}

// Options selects and configures a backend.
type Options struct {
	Driver         string
	URI            string
	Database       string
	Username       string
	Password       string
	DSN            string
	MaxConnections int
}

// Open connects the backend named by opts.Driver.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(opts.Driver) {
	case "", "memory":
		return NewMemoryStore(), nil
	case "neo4j":
		return NewNeo4jStore(ctx, opts)
	case "postgres", "postgresql":
		return NewPostgresStore(ctx, opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
}
