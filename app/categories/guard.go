package categories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arborcms/arbor/models"
)

// Cycle prevention. Every structural mutation goes through wouldCreateCycle
// before touching the tree; nothing else may re-parent a node.

// wouldCreateCycle walks the candidate parent's ancestor chain looking for
// the moving node. Finding it means the move would make the node its own
// ancestor. The walk is capped at MaxDepth: a chain that long can only exist
// if the stored data is already broken, which is reported as
// ErrCorruptHierarchy rather than being treated as cycle-free.
func (s *service) wouldCreateCycle(ctx context.Context, repo Repository, movingID uuid.UUID, candidateParent *models.Category) (bool, error) {
	if candidateParent == nil {
		return false, nil
	}
	if candidateParent.ID == movingID {
		return true, nil
	}

	current := candidateParent
	for step := 0; step < s.config.MaxDepth; step++ {
		if current.ParentID == nil {
			return false, nil
		}
		if *current.ParentID == movingID {
			return true, nil
		}
		parent, err := repo.GetByID(ctx, *current.ParentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, fmt.Errorf("%w: category %s references missing parent %s",
					models.ErrCorruptHierarchy, current.ID, *current.ParentID)
			}
			return false, err
		}
		current = parent
	}
	return false, fmt.Errorf("%w: ancestor chain of %s exceeds %d levels",
		models.ErrCorruptHierarchy, candidateParent.ID, s.config.MaxDepth)
}

// ancestorChain walks parent pointers from node up to its root and returns
// the ancestors ordered root-first, node excluded. The walk is capped like
// wouldCreateCycle.
func (s *service) ancestorChain(ctx context.Context, repo Repository, node *models.Category) ([]models.Category, error) {
	chain := make([]models.Category, 0, node.Level)
	current := node
	for step := 0; current.ParentID != nil; step++ {
		if step >= s.config.MaxDepth {
			return nil, fmt.Errorf("%w: ancestor chain of %s exceeds %d levels",
				models.ErrCorruptHierarchy, node.ID, s.config.MaxDepth)
		}
		parent, err := repo.GetByID(ctx, *current.ParentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: category %s references missing parent %s",
					models.ErrCorruptHierarchy, current.ID, *current.ParentID)
			}
			return nil, err
		}
		chain = append(chain, *parent)
		current = parent
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// subtreeHeight returns how many levels the subtree rooted at root spans,
// given all its nodes (root included). A lone node has height 1.
func subtreeHeight(root *models.Category, subtree []models.Category) int {
	deepest := root.Level
	for i := range subtree {
		if subtree[i].Level > deepest {
			deepest = subtree[i].Level
		}
	}
	return deepest - root.Level + 1
}

// exceedsMaxDepth reports whether a subtree of the given height placed under
// a parent at parentLevel would push any node past maxDepth levels. Pass
// parentLevel -1 when attaching at the root.
func exceedsMaxDepth(parentLevel, height, maxDepth int) bool {
	return parentLevel+1+height > maxDepth
}
