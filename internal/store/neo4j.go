package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ErrMissingURI indicates the Neo4j URI is not provided.
var ErrMissingURI = errors.New("neo4j URI is required")

const (
	nodeLabel    = "Document"
	propID       = "_id"
	propColl     = "_collection"
	propNested   = "_nested"
	schemaCypher = "CREATE INDEX document_lookup IF NOT EXISTS FOR (d:Document) ON (d._collection, d._id)"
	insertCypher = "CREATE (d:Document) SET d = $props"
	existsCypher = "MATCH (d:Document {_collection: $collection, _id: $id}) RETURN count(d) AS n"
	getCypher    = "MATCH (d:Document {_collection: $collection, _id: $id}) RETURN properties(d) AS props"
)

// CypherRunner executes Cypher statements. The Bolt driver implements it in
// production; tests substitute a recording fake.
type CypherRunner interface {
	ExecuteWrite(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error)
	ExecuteRead(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error)
	VerifyConnectivity(ctx context.Context) error
	Close(ctx context.Context) error
}

// Neo4jStore stores each document as one :Document node. Scalar fields are
// native node properties so they can be filtered and ordered; nested fields
// are JSON-encoded together in the _nested property.
type Neo4jStore struct {
	runner CypherRunner
}

var _ Store = (*Neo4jStore)(nil)

// NewNeo4jStore establishes a Bolt connection and ensures the lookup index exists.
func NewNeo4jStore(ctx context.Context, opts Options) (*Neo4jStore, error) {
	runner, err := newBoltRunner(ctx, opts)
	if err != nil {
		return nil, err
	}
	s := NewNeo4jStoreWithRunner(runner)
	if _, err := runner.ExecuteWrite(ctx, schemaCypher, nil); err != nil {
		_ = runner.Close(ctx)
		return nil, fmt.Errorf("ensure document index: %w", err)
	}
	return s, nil
}

// NewNeo4jStoreWithRunner wraps an existing runner.
func NewNeo4jStoreWithRunner(runner CypherRunner) *Neo4jStore {
	return &Neo4jStore{runner: runner}
}

func (s *Neo4jStore) Insert(ctx context.Context, collection string, fields map[string]any) (string, error) {
	id := uuid.NewString()
	if err := s.InsertWithID(ctx, collection, id, fields); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Neo4jStore) InsertWithID(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := validateKey(collection, id); err != nil {
		return err
	}
	props, err := encodeNodeProps(collection, id, fields)
	if err != nil {
		return err
	}

	records, err := s.runner.ExecuteRead(ctx, existsCypher, map[string]any{"collection": collection, "id": id})
	if err != nil {
		return fmt.Errorf("check document %s/%s: %w", collection, id, err)
	}
	if len(records) > 0 && toInt64(records[0]["n"]) > 0 {
		return fmt.Errorf("%w: %s/%s", ErrDuplicateID, collection, id)
	}

	if _, err := s.runner.ExecuteWrite(ctx, insertCypher, map[string]any{"props": props}); err != nil {
		return fmt.Errorf("insert document %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Neo4jStore) Get(ctx context.Context, collection, id string) (Document, error) {
	records, err := s.runner.ExecuteRead(ctx, getCypher, map[string]any{"collection": collection, "id": id})
	if err != nil {
		return Document{}, fmt.Errorf("get document %s/%s: %w", collection, id, err)
	}
	if len(records) == 0 {
		return Document{}, ErrNotFound
	}
	return decodeNodeProps(records[0]["props"])
}

func (s *Neo4jStore) Find(ctx context.Context, q *Query) ([]Document, error) {
	cypher, params, err := buildFindCypher(q)
	if err != nil {
		return nil, err
	}

	records, err := s.runner.ExecuteRead(ctx, cypher, params)
	if err != nil {
		return nil, fmt.Errorf("find documents in %s: %w", q.Collection, err)
	}

	docs := make([]Document, 0, len(records))
	for _, rec := range records {
		doc, err := decodeNodeProps(rec["props"])
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *Neo4jStore) Ping(ctx context.Context) error {
	return s.runner.VerifyConnectivity(ctx)
}

func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.runner.Close(ctx)
}

func buildFindCypher(q *Query) (string, map[string]any, error) {
	if err := q.Validate(); err != nil {
		return "", nil, err
	}

	params := map[string]any{"collection": q.Collection}
	where := []string{"d._collection = $collection"}
	for i, p := range q.Predicates {
		value, err := normalizeValue(p.Value)
		if err != nil {
			return "", nil, err
		}
		name := fmt.Sprintf("p%d", i)
		params[name] = value
		where = append(where, fmt.Sprintf("d.%s %s $%s", p.Field, cypherOp(p.Op), name))
	}

	var b strings.Builder
	b.WriteString("MATCH (d:")
	b.WriteString(nodeLabel)
	b.WriteString(") WHERE ")
	b.WriteString(strings.Join(where, " AND "))
	b.WriteString(" RETURN properties(d) AS props")

	dir := "ASC"
	if q.Order != nil && q.Order.Direction == Desc {
		dir = "DESC"
	}
	if q.Order != nil {
		fmt.Fprintf(&b, " ORDER BY d.%s %s, d._id %s", q.Order.Field, dir, dir)
	} else {
		b.WriteString(" ORDER BY d._id ASC")
	}
	if q.LimitN > 0 {
		b.WriteString(" LIMIT $limit")
		params["limit"] = int64(q.LimitN)
	}
	return b.String(), params, nil
}

func cypherOp(op Op) string {
	if op == OpEq {
		return "="
	}
	return string(op)
}

func encodeNodeProps(collection, id string, fields map[string]any) (map[string]any, error) {
	normalized, err := normalizeFields(fields)
	if err != nil {
		return nil, err
	}

	props := map[string]any{propColl: collection, propID: id}
	nested := map[string]any{}
	for k, v := range normalized {
		switch kindOf(v) {
		case kindNested:
			nested[k] = v
		case kindNil:
		default:
			props[k] = v
		}
	}
	if len(nested) > 0 {
		encoded, err := json.Marshal(nested)
		if err != nil {
			return nil, fmt.Errorf("encode nested fields: %w", err)
		}
		props[propNested] = string(encoded)
	}
	return props, nil
}

func decodeNodeProps(raw any) (Document, error) {
	props, ok := raw.(map[string]any)
	if !ok {
		return Document{}, fmt.Errorf("unexpected node properties type %T", raw)
	}

	doc := Document{Fields: make(map[string]any, len(props))}
	for k, v := range props {
		switch k {
		case propID:
			doc.ID, _ = v.(string)
		case propColl:
		case propNested:
			s, _ := v.(string)
			var nested map[string]any
			if err := json.Unmarshal([]byte(s), &nested); err != nil {
				return Document{}, fmt.Errorf("decode nested fields: %w", err)
			}
			for nk, nv := range nested {
				doc.Fields[nk] = nv
			}
		default:
			doc.Fields[k] = v
		}
	}
	return doc, nil
}

func toInt64(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	}
	return 0
}

// boltRunner runs statements through the official driver. Neptune's openCypher
// endpoint speaks Bolt as well, so the same runner serves both.
type boltRunner struct {
	driver   neo4j.DriverWithContext
	database string
}

func newBoltRunner(ctx context.Context, opts Options) (*boltRunner, error) {
	if opts.URI == "" {
		return nil, ErrMissingURI
	}

	auth := neo4j.NoAuth()
	if opts.Username != "" {
		auth = neo4j.BasicAuth(opts.Username, opts.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(opts.URI, auth, func(c *neo4j.Config) {
		if opts.MaxConnections > 0 {
			c.MaxConnectionPoolSize = opts.MaxConnections
		}
	})
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}

	return &boltRunner{driver: driver, database: opts.Database}, nil
}

func (r *boltRunner) ExecuteWrite(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	return r.run(ctx, neo4j.AccessModeWrite, cypher, params)
}

func (r *boltRunner) ExecuteRead(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	return r.run(ctx, neo4j.AccessModeRead, cypher, params)
}

func (r *boltRunner) run(ctx context.Context, mode neo4j.AccessMode, cypher string, params map[string]any) ([]map[string]any, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: r.database,
		AccessMode:   mode,
	})
	defer session.Close(ctx)

	res, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}

	var records []map[string]any
	for res.Next(ctx) {
		rec := res.Record()
		record := make(map[string]any, len(rec.Keys))
		for _, key := range rec.Keys {
			value, _ := rec.Get(key)
			record[key] = value
		}
		records = append(records, record)
	}
	if err := res.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *boltRunner) VerifyConnectivity(ctx context.Context) error {
	return r.driver.VerifyConnectivity(ctx)
}

func (r *boltRunner) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}
