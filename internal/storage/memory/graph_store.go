// Package memory implements the graph store on in-process maps. It is the
// default backend for tests and for ephemeral runs where persistence
// across restarts does not matter.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/scrypster/triad/internal/storage"
	"github.com/scrypster/triad/pkg/types"
)

type edgeKey [2]int

func keyFor(p1, p2 int) edgeKey {
	if p1 > p2 {
		p1, p2 = p2, p1
	}
	return edgeKey{p1, p2}
}

type edgeRecord struct {
	value   float64
	sign    types.Sign
	initial float64
}

// GraphStore keeps the whole graph in memory behind a single RWMutex.
// Iteration work is read-heavy (triangle queries) with point writes, so
// the read lock carries most of the traffic.
type GraphStore struct {
	mu        sync.RWMutex
	people    map[int]string
	edges     map[edgeKey]edgeRecord
	adjacency map[int]map[int]struct{}
}

// New returns an empty in-memory graph store.
func New() *GraphStore {
	return &GraphStore{
		people:    make(map[int]string),
		edges:     make(map[edgeKey]edgeRecord),
		adjacency: make(map[int]map[int]struct{}),
	}
}

var _ storage.GraphStore = (*GraphStore)(nil)

func (s *GraphStore) CreatePerson(ctx context.Context, p types.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.people[p.ID] = p.Name
	return nil
}

func (s *GraphStore) CreatePeople(ctx context.Context, people []types.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range people {
		s.people[p.ID] = p.Name
	}
	return nil
}

func (s *GraphStore) People(ctx context.Context) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int, 0, len(s.people))
	for id := range s.people {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

func (s *GraphStore) CountPeople(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.people), nil
}

func (s *GraphStore) UpsertRelationship(ctx context.Context, r types.Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertLocked(r)
	return nil
}

func (s *GraphStore) UpsertRelationships(ctx context.Context, rs []types.Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rs {
		s.upsertLocked(r)
	}
	return nil
}

func (s *GraphStore) upsertLocked(r types.Relationship) {
	k := keyFor(r.Person1, r.Person2)
	rec := edgeRecord{value: r.Value, sign: r.Sign, initial: r.InitialValue}
	if existing, ok := s.edges[k]; ok {
		// First write fixed the initial value; keep it.
		rec.initial = existing.initial
	} else if rec.initial == 0 {
		rec.initial = r.Value
	}
	s.edges[k] = rec
	s.link(k[0], k[1])
	s.link(k[1], k[0])
}

func (s *GraphStore) link(from, to int) {
	if s.adjacency[from] == nil {
		s.adjacency[from] = make(map[int]struct{})
	}
	s.adjacency[from][to] = struct{}{}
}

func (s *GraphStore) DeleteRelationship(ctx context.Context, person1, person2 int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := keyFor(person1, person2)
	if _, ok := s.edges[k]; !ok {
		return nil
	}
	delete(s.edges, k)
	delete(s.adjacency[k[0]], k[1])
	delete(s.adjacency[k[1]], k[0])
	return nil
}

func (s *GraphStore) AllRelationships(ctx context.Context) ([]types.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rs := make([]types.Relationship, 0, len(s.edges))
	for k, rec := range s.edges {
		rs = append(rs, types.Relationship{
			Person1:      k[0],
			Person2:      k[1],
			Value:        rec.value,
			Sign:         rec.sign,
			InitialValue: rec.initial,
		})
	}
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].Person1 != rs[j].Person1 {
			return rs[i].Person1 < rs[j].Person1
		}
		return rs[i].Person2 < rs[j].Person2
	})
	return rs, nil
}

func (s *GraphStore) CountBySign(ctx context.Context) (map[types.Sign]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[types.Sign]int)
	for _, rec := range s.edges {
		counts[rec.sign]++
	}
	return counts, nil
}

func (s *GraphStore) Triangles(ctx context.Context) ([]types.Triangle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var triangles []types.Triangle
	for k, rec := range s.edges {
		i, j := k[0], k[1]
		// Enumerate each triangle once by requiring i < j < k.
		for n := range s.adjacency[i] {
			if n <= j {
				continue
			}
			if _, ok := s.adjacency[j][n]; !ok {
				continue
			}
			triangles = append(triangles, types.Triangle{
				N1: i, N2: j, N3: n,
				E1: rec.value,
				E2: s.edges[keyFor(j, n)].value,
				E3: s.edges[keyFor(i, n)].value,
			})
		}
	}
	return triangles, nil
}

func (s *GraphStore) TrianglesContaining(ctx context.Context, personID int) ([]types.Triangle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	neighbors := make([]int, 0, len(s.adjacency[personID]))
	for n := range s.adjacency[personID] {
		neighbors = append(neighbors, n)
	}
	sort.Ints(neighbors)

	var triangles []types.Triangle
	for i := 0; i < len(neighbors); i++ {
		for j := i + 1; j < len(neighbors); j++ {
			a, b := neighbors[i], neighbors[j]
			if _, ok := s.edges[keyFor(a, b)]; !ok {
				continue
			}
			ids := []int{personID, a, b}
			sort.Ints(ids)
			x, y, z := ids[0], ids[1], ids[2]
			triangles = append(triangles, types.TriangleAround(
				personID, x, y, z,
				s.edges[keyFor(x, y)].value,
				s.edges[keyFor(y, z)].value,
				s.edges[keyFor(x, z)].value,
			))
		}
	}
	return triangles, nil
}

func (s *GraphStore) NeighborsOfNeighbors(ctx context.Context, personID int) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	direct := s.adjacency[personID]
	seen := make(map[int]struct{})
	for n := range direct {
		for nn := range s.adjacency[n] {
			if nn == personID {
				continue
			}
			if _, ok := direct[nn]; ok {
				continue
			}
			seen[nn] = struct{}{}
		}
	}
	out := make([]int, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Ints(out)
	return out, nil
}

func (s *GraphStore) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.people = make(map[int]string)
	s.edges = make(map[edgeKey]edgeRecord)
	s.adjacency = make(map[int]map[int]struct{})
	return nil
}

func (s *GraphStore) Close() error { return nil }
