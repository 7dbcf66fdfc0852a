// Package postgres implements the graph store on PostgreSQL via lib/pq.
// It shares the schema shape with the SQLite backend; use it when several
// processes need to observe the same graph.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/scrypster/triad/internal/storage"
	"github.com/scrypster/triad/pkg/types"
)

// Schema is the embedded DDL, applied idempotently at startup.
const Schema = `
CREATE TABLE IF NOT EXISTS people (
    id   INTEGER PRIMARY KEY,
    name TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS relationships (
    person1       INTEGER NOT NULL REFERENCES people(id) ON DELETE CASCADE,
    person2       INTEGER NOT NULL REFERENCES people(id) ON DELETE CASCADE,
    value         DOUBLE PRECISION NOT NULL,
    sign          TEXT    NOT NULL,
    initial_value DOUBLE PRECISION NOT NULL,
    PRIMARY KEY (person1, person2),
    CHECK (person1 < person2)
);

CREATE INDEX IF NOT EXISTS idx_relationships_person2 ON relationships(person2);
`

// GraphStore implements storage.GraphStore using PostgreSQL.
type GraphStore struct {
	db *sql.DB
}

var _ storage.GraphStore = (*GraphStore)(nil)

// New connects to the database named by dsn, verifies the connection, and
// ensures the schema exists.
func New(dsn string) (*GraphStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: failed to connect: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: failed to create schema: %w", err)
	}
	return &GraphStore{db: db}, nil
}

func (s *GraphStore) CreatePerson(ctx context.Context, p types.Person) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO people (id, name) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
		p.ID, p.Name)
	if err != nil {
		return fmt.Errorf("postgres: failed to create person %d: %w", p.ID, err)
	}
	return nil
}

func (s *GraphStore) CreatePeople(ctx context.Context, people []types.Person) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO people (id, name) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("postgres: failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range people {
		if _, err := stmt.ExecContext(ctx, p.ID, p.Name); err != nil {
			return fmt.Errorf("postgres: failed to insert person %d: %w", p.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: failed to commit people batch: %w", err)
	}
	return nil
}

func (s *GraphStore) People(ctx context.Context) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM people ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query people: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan person id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *GraphStore) CountPeople(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM people`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: failed to count people: %w", err)
	}
	return n, nil
}

const upsertRelationshipSQL = `
INSERT INTO relationships (person1, person2, value, sign, initial_value)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (person1, person2) DO UPDATE SET
    value = EXCLUDED.value,
    sign  = EXCLUDED.sign`

func (s *GraphStore) UpsertRelationship(ctx context.Context, r types.Relationship) error {
	p1, p2 := canonical(r.Person1, r.Person2)
	initial := r.InitialValue
	if initial == 0 {
		initial = r.Value
	}
	if _, err := s.db.ExecContext(ctx, upsertRelationshipSQL, p1, p2, r.Value, string(r.Sign), initial); err != nil {
		return fmt.Errorf("postgres: failed to upsert relationship (%d, %d): %w", p1, p2, err)
	}
	return nil
}

func (s *GraphStore) UpsertRelationships(ctx context.Context, rs []types.Relationship) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertRelationshipSQL)
	if err != nil {
		return fmt.Errorf("postgres: failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rs {
		p1, p2 := canonical(r.Person1, r.Person2)
		initial := r.InitialValue
		if initial == 0 {
			initial = r.Value
		}
		if _, err := stmt.ExecContext(ctx, p1, p2, r.Value, string(r.Sign), initial); err != nil {
			return fmt.Errorf("postgres: failed to upsert relationship (%d, %d): %w", p1, p2, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: failed to commit relationship batch: %w", err)
	}
	return nil
}

func (s *GraphStore) DeleteRelationship(ctx context.Context, person1, person2 int) error {
	p1, p2 := canonical(person1, person2)
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM relationships WHERE person1 = $1 AND person2 = $2`, p1, p2); err != nil {
		return fmt.Errorf("postgres: failed to delete relationship (%d, %d): %w", p1, p2, err)
	}
	return nil
}

func (s *GraphStore) AllRelationships(ctx context.Context) ([]types.Relationship, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT person1, person2, value, sign, initial_value
		 FROM relationships ORDER BY person1, person2`)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query relationships: %w", err)
	}
	defer rows.Close()

	var rs []types.Relationship
	for rows.Next() {
		var r types.Relationship
		var sign string
		if err := rows.Scan(&r.Person1, &r.Person2, &r.Value, &sign, &r.InitialValue); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan relationship: %w", err)
		}
		r.Sign = types.Sign(sign)
		rs = append(rs, r)
	}
	return rs, rows.Err()
}

func (s *GraphStore) CountBySign(ctx context.Context) (map[types.Sign]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sign, COUNT(*) FROM relationships GROUP BY sign`)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to count relationships: %w", err)
	}
	defer rows.Close()

	counts := make(map[types.Sign]int)
	for rows.Next() {
		var sign string
		var n int
		if err := rows.Scan(&sign, &n); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan sign count: %w", err)
		}
		counts[types.Sign(sign)] = n
	}
	return counts, rows.Err()
}

const trianglesSQL = `
SELECT r1.person1, r1.person2, r2.person2, r1.value, r2.value, r3.value
FROM relationships r1
JOIN relationships r2 ON r2.person1 = r1.person2
JOIN relationships r3 ON r3.person1 = r1.person1 AND r3.person2 = r2.person2`

func (s *GraphStore) Triangles(ctx context.Context) ([]types.Triangle, error) {
	rows, err := s.db.QueryContext(ctx, trianglesSQL)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query triangles: %w", err)
	}
	defer rows.Close()

	var triangles []types.Triangle
	for rows.Next() {
		var t types.Triangle
		if err := rows.Scan(&t.N1, &t.N2, &t.N3, &t.E1, &t.E2, &t.E3); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan triangle: %w", err)
		}
		triangles = append(triangles, t)
	}
	return triangles, rows.Err()
}

func (s *GraphStore) TrianglesContaining(ctx context.Context, personID int) ([]types.Triangle, error) {
	rows, err := s.db.QueryContext(ctx, trianglesSQL+`
WHERE r1.person1 = $1 OR r1.person2 = $1 OR r2.person2 = $1`, personID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query triangles for person %d: %w", personID, err)
	}
	defer rows.Close()

	var triangles []types.Triangle
	for rows.Next() {
		var x, y, z int
		var vxy, vyz, vxz float64
		if err := rows.Scan(&x, &y, &z, &vxy, &vyz, &vxz); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan triangle: %w", err)
		}
		triangles = append(triangles, types.TriangleAround(personID, x, y, z, vxy, vyz, vxz))
	}
	return triangles, rows.Err()
}

const neighborsOfNeighborsSQL = `
WITH edges(a, b) AS (
    SELECT person1, person2 FROM relationships
    UNION ALL
    SELECT person2, person1 FROM relationships
)
SELECT DISTINCT e2.b
FROM edges e1
JOIN edges e2 ON e2.a = e1.b
WHERE e1.a = $1
  AND e2.b != $1
  AND e2.b NOT IN (SELECT b FROM edges WHERE a = $1)
ORDER BY e2.b`

func (s *GraphStore) NeighborsOfNeighbors(ctx context.Context, personID int) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, neighborsOfNeighborsSQL, personID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query 2-hop neighbors of %d: %w", personID, err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan neighbor id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *GraphStore) ClearAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `TRUNCATE relationships, people`); err != nil {
		return fmt.Errorf("postgres: failed to clear graph: %w", err)
	}
	return nil
}

func (s *GraphStore) Close() error { return s.db.Close() }

func canonical(p1, p2 int) (int, int) {
	if p1 > p2 {
		return p2, p1
	}
	return p1, p2
}
