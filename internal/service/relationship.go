package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"hawk-economy-core/internal/pkg/lock"
	"hawk-economy-core/internal/repository"
)

// Relationship service errors.
var (
	ErrPartnerLimit   = errors.New("partner limit reached")
	ErrAlreadyMarried = errors.New("already married to this user")
	ErrNotMarried     = errors.New("not married to this user")
	ErrCloseRelative  = errors.New("users are too closely related")
	ErrWouldCycle     = errors.New("adoption would create an ancestry cycle")
	ErrHasParents     = errors.New("user already has the maximum parents")
	ErrChildLimit     = errors.New("children limit reached")
	ErrNotYourChild   = errors.New("user is not your child")
	ErrNoParents      = errors.New("user has no parents")
)

// FamilyGraph reads the relationship edges the validation traverses.
// Satisfied by RelationshipRepository.
type FamilyGraph interface {
	Partners(ctx context.Context, userID int64) ([]int64, error)
	ParentsOf(ctx context.Context, childID int64) ([]int64, error)
	ChildrenOf(ctx context.Context, parentID int64) ([]int64, error)
}

// FamilyLimits caps the relationship graph.
type FamilyLimits struct {
	MaxPartners       int
	MaxChildren       int
	MaxParentsPerKid  int
	MaxTraversalDepth int
}

// Family is one user's immediate relatives.
type Family struct {
	Partners []int64
	Parents  []int64
	Children []int64
}

// RelationshipService manages the marriage and adoption graph.
// Partnerships are undirected edges, adoptions are parent-to-child
// edges; every new edge is validated against ancestry so the graph
// stays a DAG and close relatives cannot marry.
type RelationshipService struct {
	pool          *pgxpool.Pool
	users         *repository.UserRepository
	relationships *repository.RelationshipRepository
	graph         FamilyGraph
	locks         *lock.UserLock
	limits        FamilyLimits
}

// NewRelationshipService creates a new RelationshipService instance.
func NewRelationshipService(
	pool *pgxpool.Pool,
	users *repository.UserRepository,
	relationships *repository.RelationshipRepository,
	locks *lock.UserLock,
	limits FamilyLimits,
) *RelationshipService {
	if limits.MaxTraversalDepth <= 0 {
		limits.MaxTraversalDepth = 32
	}
	return &RelationshipService{
		pool:          pool,
		users:         users,
		relationships: relationships,
		graph:         relationships,
		locks:         locks,
		limits:        limits,
	}
}

// Marry creates a partner edge between two users. Validation happens
// at accept time, so a proposal that went stale while pending still
// cannot bypass the caps.
func (s *RelationshipService) Marry(ctx context.Context, userID, partnerID int64) error {
	if userID == partnerID {
		return ErrSelfTarget
	}

	lo, hi := userID, partnerID
	if lo > hi {
		lo, hi = hi, lo
	}
	s.locks.Lock(lo)
	defer s.locks.Unlock(lo)
	s.locks.Lock(hi)
	defer s.locks.Unlock(hi)

	if _, err := s.users.Ensure(ctx, userID); err != nil {
		return err
	}
	if _, err := s.users.Ensure(ctx, partnerID); err != nil {
		return err
	}

	for _, id := range []int64{userID, partnerID} {
		partners, err := s.graph.Partners(ctx, id)
		if err != nil {
			return err
		}
		if len(partners) >= s.limits.MaxPartners {
			return ErrPartnerLimit
		}
	}

	married, err := s.relationships.AreMarried(ctx, userID, partnerID)
	if err != nil {
		return err
	}
	if married {
		return ErrAlreadyMarried
	}

	related, err := s.closelyRelated(ctx, userID, partnerID)
	if err != nil {
		return err
	}
	if related {
		return ErrCloseRelative
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin marry tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.relationships.InsertMarriage(ctx, tx, userID, partnerID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Divorce removes the partner edge. Other relationships are untouched.
func (s *RelationshipService) Divorce(ctx context.Context, userID, partnerID int64) error {
	err := s.relationships.DeleteMarriage(ctx, s.pool, userID, partnerID)
	if errors.Is(err, repository.ErrEdgeNotFound) {
		return ErrNotMarried
	}
	return err
}

// Adopt creates a parent-to-child edge from the adopter to the target.
func (s *RelationshipService) Adopt(ctx context.Context, parentID, childID int64) error {
	if parentID == childID {
		return ErrSelfTarget
	}

	lo, hi := parentID, childID
	if lo > hi {
		lo, hi = hi, lo
	}
	s.locks.Lock(lo)
	defer s.locks.Unlock(lo)
	s.locks.Lock(hi)
	defer s.locks.Unlock(hi)

	if _, err := s.users.Ensure(ctx, parentID); err != nil {
		return err
	}
	if _, err := s.users.Ensure(ctx, childID); err != nil {
		return err
	}

	parents, err := s.graph.ParentsOf(ctx, childID)
	if err != nil {
		return err
	}
	if len(parents) >= s.limits.MaxParentsPerKid {
		return ErrHasParents
	}

	children, err := s.graph.ChildrenOf(ctx, parentID)
	if err != nil {
		return err
	}
	if len(children) >= s.limits.MaxChildren {
		return ErrChildLimit
	}

	married, err := s.relationships.AreMarried(ctx, parentID, childID)
	if err != nil {
		return err
	}
	if married {
		return ErrCloseRelative
	}

	related, err := s.closelyRelated(ctx, parentID, childID)
	if err != nil {
		return err
	}
	if related {
		return ErrCloseRelative
	}

	// Adding parent->child must not close a loop: if the adopter
	// already descends from the target the edge is a cycle.
	descendant, err := s.isAncestor(ctx, childID, parentID)
	if err != nil {
		return err
	}
	if descendant {
		return ErrWouldCycle
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin adopt tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.relationships.InsertParent(ctx, tx, parentID, childID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Disown removes the edge to one of the caller's children.
func (s *RelationshipService) Disown(ctx context.Context, parentID, childID int64) error {
	err := s.relationships.DeleteParent(ctx, s.pool, parentID, childID)
	if errors.Is(err, repository.ErrEdgeNotFound) {
		return ErrNotYourChild
	}
	return err
}

// LeaveParents severs every edge from the caller's parents. Returns
// the parents that were removed.
func (s *RelationshipService) LeaveParents(ctx context.Context, childID int64) ([]int64, error) {
	parents, err := s.graph.ParentsOf(ctx, childID)
	if err != nil {
		return nil, err
	}
	if len(parents) == 0 {
		return nil, ErrNoParents
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin leave tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, parentID := range parents {
		if err := s.relationships.DeleteParent(ctx, tx, parentID, childID); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit leave tx: %w", err)
	}
	return parents, nil
}

// Family lists a user's immediate relatives.
func (s *RelationshipService) Family(ctx context.Context, userID int64) (*Family, error) {
	partners, err := s.graph.Partners(ctx, userID)
	if err != nil {
		return nil, err
	}
	parents, err := s.graph.ParentsOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	children, err := s.graph.ChildrenOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Family{Partners: partners, Parents: parents, Children: children}, nil
}

// closelyRelated reports whether one user is an ancestor of the other
// or the two share a parent.
func (s *RelationshipService) closelyRelated(ctx context.Context, a, b int64) (bool, error) {
	if up, err := s.isAncestor(ctx, a, b); err != nil || up {
		return up, err
	}
	if down, err := s.isAncestor(ctx, b, a); err != nil || down {
		return down, err
	}

	parentsA, err := s.graph.ParentsOf(ctx, a)
	if err != nil {
		return false, err
	}
	parentsB, err := s.graph.ParentsOf(ctx, b)
	if err != nil {
		return false, err
	}
	seen := make(map[int64]struct{}, len(parentsA))
	for _, p := range parentsA {
		seen[p] = struct{}{}
	}
	for _, p := range parentsB {
		if _, ok := seen[p]; ok {
			return true, nil
		}
	}
	return false, nil
}

// isAncestor walks the parent edges upward from start with a bounded
// breadth-first frontier. Unbounded recursion on a corrupted graph
// must not hang a request.
func (s *RelationshipService) isAncestor(ctx context.Context, candidate, start int64) (bool, error) {
	visited := map[int64]struct{}{start: {}}
	frontier := []int64{start}

	for depth := 0; depth < s.limits.MaxTraversalDepth && len(frontier) > 0; depth++ {
		var next []int64
		for _, id := range frontier {
			parents, err := s.graph.ParentsOf(ctx, id)
			if err != nil {
				return false, err
			}
			for _, p := range parents {
				if p == candidate {
					return true, nil
				}
				if _, ok := visited[p]; ok {
					continue
				}
				visited[p] = struct{}{}
				next = append(next, p)
			}
		}
		frontier = next
	}
	return false, nil
}
