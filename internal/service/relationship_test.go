package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGraph is an in-memory FamilyGraph for traversal tests.
type fakeGraph struct {
	partners map[int64][]int64
	parents  map[int64][]int64
	children map[int64][]int64
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{
		partners: make(map[int64][]int64),
		parents:  make(map[int64][]int64),
		children: make(map[int64][]int64),
	}
}

func (g *fakeGraph) addParent(parentID, childID int64) {
	g.parents[childID] = append(g.parents[childID], parentID)
	g.children[parentID] = append(g.children[parentID], childID)
}

func (g *fakeGraph) Partners(_ context.Context, userID int64) ([]int64, error) {
	return g.partners[userID], nil
}

func (g *fakeGraph) ParentsOf(_ context.Context, childID int64) ([]int64, error) {
	return g.parents[childID], nil
}

func (g *fakeGraph) ChildrenOf(_ context.Context, parentID int64) ([]int64, error) {
	return g.children[parentID], nil
}

func traversalService(g *fakeGraph) *RelationshipService {
	return &RelationshipService{
		graph: g,
		limits: FamilyLimits{
			MaxPartners:       2,
			MaxChildren:       5,
			MaxParentsPerKid:  1,
			MaxTraversalDepth: 32,
		},
	}
}

func TestIsAncestorDirectChain(t *testing.T) {
	g := newFakeGraph()
	// 1 -> 2 -> 3 -> 4
	g.addParent(1, 2)
	g.addParent(2, 3)
	g.addParent(3, 4)
	svc := traversalService(g)
	ctx := context.Background()

	ok, err := svc.isAncestor(ctx, 1, 4)
	require.NoError(t, err)
	assert.True(t, ok, "great-grandparent is an ancestor")

	ok, err = svc.isAncestor(ctx, 4, 1)
	require.NoError(t, err)
	assert.False(t, ok, "descendant is not an ancestor")

	ok, err = svc.isAncestor(ctx, 99, 4)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsAncestorBoundedOnCyclicGraph(t *testing.T) {
	g := newFakeGraph()
	// Corrupted graph: 1 -> 2 -> 1. Traversal must terminate.
	g.addParent(1, 2)
	g.addParent(2, 1)
	svc := traversalService(g)

	ok, err := svc.isAncestor(context.Background(), 3, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCloselyRelated(t *testing.T) {
	g := newFakeGraph()
	// 1 is parent of 2 and 3; 2 is parent of 4.
	g.addParent(1, 2)
	g.addParent(1, 3)
	g.addParent(2, 4)
	svc := traversalService(g)
	ctx := context.Background()

	tests := []struct {
		name    string
		a, b    int64
		related bool
	}{
		{"parent and child", 1, 2, true},
		{"grandparent and grandchild", 1, 4, true},
		{"siblings", 2, 3, true},
		{"uncle and nibling", 3, 4, false},
		{"strangers", 3, 99, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.closelyRelated(ctx, tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.related, got)
		})
	}
}
