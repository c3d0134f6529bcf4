package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Relationship errors.
var (
	ErrEdgeNotFound = errors.New("relationship not found")
)

// RelationshipRepository handles the partner and parent/child graph.
// Marriages are stored with the lower user ID first so the undirected
// edge has one canonical row.
type RelationshipRepository struct {
	pool *pgxpool.Pool
}

// NewRelationshipRepository creates a new RelationshipRepository instance.
func NewRelationshipRepository(pool *pgxpool.Pool) *RelationshipRepository {
	return &RelationshipRepository{pool: pool}
}

func orderPair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}

// AreMarried reports whether two users share a partner edge.
func (r *RelationshipRepository) AreMarried(ctx context.Context, a, b int64) (bool, error) {
	lo, hi := orderPair(a, b)
	const query = `
		SELECT EXISTS(SELECT 1 FROM marriages WHERE user_a = $1 AND user_b = $2)
	`
	var ok bool
	if err := r.pool.QueryRow(ctx, query, lo, hi).Scan(&ok); err != nil {
		return false, fmt.Errorf("failed to check marriage: %w", err)
	}
	return ok, nil
}

// Partners lists everyone married to the user.
func (r *RelationshipRepository) Partners(ctx context.Context, userID int64) ([]int64, error) {
	const query = `
		SELECT CASE WHEN user_a = $1 THEN user_b ELSE user_a END
		FROM marriages
		WHERE user_a = $1 OR user_b = $1
	`
	return r.queryIDs(ctx, query, userID)
}

// InsertMarriage creates the partner edge.
func (r *RelationshipRepository) InsertMarriage(ctx context.Context, q Querier, a, b int64) error {
	lo, hi := orderPair(a, b)
	const query = `
		INSERT INTO marriages (user_a, user_b, married_at)
		VALUES ($1, $2, NOW())
	`
	if _, err := q.Exec(ctx, query, lo, hi); err != nil {
		return fmt.Errorf("failed to insert marriage: %w", err)
	}
	return nil
}

// DeleteMarriage removes the partner edge.
func (r *RelationshipRepository) DeleteMarriage(ctx context.Context, q Querier, a, b int64) error {
	lo, hi := orderPair(a, b)
	const query = `DELETE FROM marriages WHERE user_a = $1 AND user_b = $2`

	tag, err := q.Exec(ctx, query, lo, hi)
	if err != nil {
		return fmt.Errorf("failed to delete marriage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEdgeNotFound
	}
	return nil
}

// ParentsOf lists a user's parents.
func (r *RelationshipRepository) ParentsOf(ctx context.Context, childID int64) ([]int64, error) {
	const query = `SELECT parent_id FROM parents WHERE child_id = $1`
	return r.queryIDs(ctx, query, childID)
}

// ChildrenOf lists a user's children.
func (r *RelationshipRepository) ChildrenOf(ctx context.Context, parentID int64) ([]int64, error) {
	const query = `SELECT child_id FROM parents WHERE parent_id = $1`
	return r.queryIDs(ctx, query, parentID)
}

// IsParentOf reports whether the direct edge exists.
func (r *RelationshipRepository) IsParentOf(ctx context.Context, parentID, childID int64) (bool, error) {
	const query = `
		SELECT EXISTS(SELECT 1 FROM parents WHERE parent_id = $1 AND child_id = $2)
	`
	var ok bool
	if err := r.pool.QueryRow(ctx, query, parentID, childID).Scan(&ok); err != nil {
		return false, fmt.Errorf("failed to check parent edge: %w", err)
	}
	return ok, nil
}

// InsertParent creates a parent-to-child edge.
func (r *RelationshipRepository) InsertParent(ctx context.Context, q Querier, parentID, childID int64) error {
	const query = `
		INSERT INTO parents (parent_id, child_id, adopted_at)
		VALUES ($1, $2, NOW())
	`
	if _, err := q.Exec(ctx, query, parentID, childID); err != nil {
		return fmt.Errorf("failed to insert parent edge: %w", err)
	}
	return nil
}

// DeleteParent removes a parent-to-child edge.
func (r *RelationshipRepository) DeleteParent(ctx context.Context, q Querier, parentID, childID int64) error {
	const query = `DELETE FROM parents WHERE parent_id = $1 AND child_id = $2`

	tag, err := q.Exec(ctx, query, parentID, childID)
	if err != nil {
		return fmt.Errorf("failed to delete parent edge: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEdgeNotFound
	}
	return nil
}

func (r *RelationshipRepository) queryIDs(ctx context.Context, query string, arg int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query relationships: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan relationship: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
