// Package storage defines the persistence contract for the signed
// relationship graph. Three backends implement it: an in-memory store for
// tests and ephemeral runs, SQLite for single-node persistence, and
// Postgres for shared deployments.
package storage

import (
	"context"

	"github.com/scrypster/triad/pkg/types"
)

// PersonStore manages the node set.
type PersonStore interface {
	// CreatePerson inserts a person, ignoring duplicates.
	CreatePerson(ctx context.Context, p types.Person) error

	// CreatePeople inserts a batch of people in one round trip.
	CreatePeople(ctx context.Context, people []types.Person) error

	// People returns all person ids in ascending order.
	People(ctx context.Context) ([]int, error)

	// CountPeople returns the number of people in the graph.
	CountPeople(ctx context.Context) (int, error)
}

// RelationshipStore manages the edge set. Edges are undirected and stored
// once under the canonical orientation Person1 < Person2; a neutral
// relationship has no record at all.
type RelationshipStore interface {
	// UpsertRelationship creates or updates the edge between two people.
	// The first write fixes InitialValue; later writes preserve it.
	UpsertRelationship(ctx context.Context, r types.Relationship) error

	// UpsertRelationships applies a batch of upserts in one round trip.
	UpsertRelationships(ctx context.Context, rs []types.Relationship) error

	// DeleteRelationship removes the edge between two people. Deleting an
	// absent edge is not an error.
	DeleteRelationship(ctx context.Context, person1, person2 int) error

	// AllRelationships returns every stored edge.
	AllRelationships(ctx context.Context) ([]types.Relationship, error)

	// CountBySign returns edge counts keyed by sign. Neutral never appears:
	// neutral edges have no record.
	CountBySign(ctx context.Context) (map[types.Sign]int, error)
}

// TriangleQuerier answers the structural queries the simulation engine
// needs each iteration.
type TriangleQuerier interface {
	// Triangles returns every closed triple in the graph, each exactly once.
	Triangles(ctx context.Context) ([]types.Triangle, error)

	// TrianglesContaining returns every closed triple that includes the
	// given person, oriented so that person is the triangle's first node.
	TrianglesContaining(ctx context.Context, personID int) ([]types.Triangle, error)

	// NeighborsOfNeighbors returns the ids reachable in exactly two hops
	// from person, excluding person itself and its direct neighbors.
	NeighborsOfNeighbors(ctx context.Context, personID int) ([]int, error)
}

// GraphStore is the full persistence surface the engine runs against.
type GraphStore interface {
	PersonStore
	RelationshipStore
	TriangleQuerier

	// ClearAll removes every person and relationship.
	ClearAll(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
