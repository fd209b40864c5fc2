package categories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arborcms/arbor/models"
)

// Repository defines the interface for category data access
type Repository interface {
	// WithTx returns a copy of the repository bound to the given transaction.
	WithTx(tx *gorm.DB) Repository

	GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	// GetByIDForUpdate locks the row for the duration of the surrounding
	// transaction.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Category, error)
	GetByPath(ctx context.Context, path string) (*models.Category, error)
	GetRoots(ctx context.Context, activeOnly bool) ([]models.Category, error)
	GetChildren(ctx context.Context, parentID uuid.UUID, activeOnly bool) ([]models.Category, error)
	// GetSubtree returns the node at path plus all its descendants, ordered
	// by level then sort_order. maxLevel < 0 means unbounded.
	GetSubtree(ctx context.Context, path string, maxLevel int, activeOnly bool) ([]models.Category, error)
	// GetForest returns every node up to maxLevel, ordered by level then
	// sort_order. maxLevel < 0 means unbounded.
	GetForest(ctx context.Context, maxLevel int, activeOnly bool) ([]models.Category, error)

	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id uuid.UUID) error

	// UpdateSubtreePaths rewrites path and level for the node at oldPath and
	// every descendant, in one statement. Returns the number of rows touched.
	UpdateSubtreePaths(ctx context.Context, oldPath, newPath string, levelDelta int) (int64, error)
	// DeleteSubtree removes the node at path and every descendant. Returns
	// the number of rows removed.
	DeleteSubtree(ctx context.Context, path string) (int64, error)
	// DeleteSubtreeContents removes all content rows tagged to the node at
	// path or any descendant.
	DeleteSubtreeContents(ctx context.Context, path string) (int64, error)

	IncrementSubcategoryCount(ctx context.Context, id uuid.UUID, delta int) error
	IncrementContentCount(ctx context.Context, id uuid.UUID, delta int) error
	// IncrementTotalContentCountForPaths bumps total_content_count on every
	// node whose path is in paths.
	IncrementTotalContentCountForPaths(ctx context.Context, paths []string, delta int) error
	SetCounters(ctx context.Context, id uuid.UUID, contentCount, subcategoryCount, totalContentCount int) error

	CountChildren(ctx context.Context, id uuid.UUID) (int64, error)
	CountContents(ctx context.Context, categoryID uuid.UUID) (int64, error)
	// ContentCountsForSubtree returns the direct content count of every node
	// in the subtree rooted at path, keyed by category id. Nodes without
	// content are included with a zero count.
	ContentCountsForSubtree(ctx context.Context, path string) (map[uuid.UUID]int, error)
}

// Service defines the interface for category hierarchy business logic
type Service interface {
	CreateCategory(ctx context.Context, req *CreateCategoryRequest) (*CategoryResponse, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*CategoryResponse, error)
	GetCategoryByPath(ctx context.Context, path string) (*CategoryResponse, error)
	GetChildren(ctx context.Context, parentID *uuid.UUID, includeInactive bool) ([]CategoryResponse, error)
	GetTree(ctx context.Context, opts TreeOptions) ([]*TreeNode, error)
	GetDescendants(ctx context.Context, id uuid.UUID) ([]CategoryResponse, error)
	GetAncestors(ctx context.Context, id uuid.UUID) ([]CategoryResponse, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, req *UpdateCategoryRequest) (*CategoryResponse, error)
	MoveCategory(ctx context.Context, id uuid.UUID, req *MoveCategoryRequest) (*CategoryResponse, error)
	DeleteCategory(ctx context.Context, id uuid.UUID, policy models.CascadePolicy) error
	RecomputeStats(ctx context.Context, rootID *uuid.UUID) (*RecomputeReport, error)
	VerifyHierarchy(ctx context.Context) (*IntegrityReport, error)
}
