package categories

import (
	"github.com/google/uuid"

	"github.com/arborcms/arbor/models"
)

// buildTree assembles nested tree nodes from a flat row list. Rows must be
// ordered parents-first (level ascending), which also yields children sorted
// by sort_order within each parent. Assembly is iterative: depth is bounded
// by the query that produced the rows, never by call-stack recursion.
//
// rootID limits the top level to that single node; uuid.Nil keeps every root
// row on top. A row whose parent was filtered out of rows (inactive, or
// beyond the depth cap) is dropped together with its subtree.
func buildTree(rows []models.Category, rootID uuid.UUID) []*TreeNode {
	byID := make(map[uuid.UUID]*TreeNode, len(rows))
	tops := make([]*TreeNode, 0, 4)

	for i := range rows {
		row := &rows[i]
		node := &TreeNode{
			CategoryResponse: *ToCategoryResponse(row),
			Children:         []*TreeNode{},
		}

		isTop := row.ID == rootID || (rootID == uuid.Nil && row.ParentID == nil)
		if isTop {
			byID[row.ID] = node
			tops = append(tops, node)
			continue
		}
		if row.ParentID == nil {
			continue
		}
		parent, ok := byID[*row.ParentID]
		if !ok {
			continue
		}
		byID[row.ID] = node
		parent.Children = append(parent.Children, node)
	}
	return tops
}
