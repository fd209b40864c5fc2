package categories

import (
	"time"

	"github.com/google/uuid"

	"github.com/arborcms/arbor/models"
)

// CreateCategoryRequest represents the request to create a category
type CreateCategoryRequest struct {
	ParentID    *uuid.UUID           `json:"parent_id,omitempty"`
	Name        models.LocalizedText `json:"name" binding:"required"`
	Description models.LocalizedText `json:"description,omitempty"`
	// Slugs optionally fixes the slug per language. Languages without an
	// explicit slug get one derived from the name. The default-language slug
	// becomes the path segment.
	Slugs     models.LocalizedText `json:"slugs,omitempty"`
	SortOrder int                  `json:"sort_order,omitempty"`
	IsActive  *bool                `json:"is_active,omitempty"`
}

// UpdateCategoryRequest represents the request to update a category. Nil maps
// and pointers leave the corresponding field untouched; a present slug map
// replaces the stored one and reindexes the subtree when the path segment
// changes.
type UpdateCategoryRequest struct {
	Name        models.LocalizedText `json:"name,omitempty"`
	Description models.LocalizedText `json:"description,omitempty"`
	Slugs       models.LocalizedText `json:"slugs,omitempty"`
	SortOrder   *int                 `json:"sort_order,omitempty"`
	IsActive    *bool                `json:"is_active,omitempty"`
}

// MoveCategoryRequest represents the request to re-parent a category. A nil
// NewParentID detaches the category into a new root.
type MoveCategoryRequest struct {
	NewParentID *uuid.UUID `json:"new_parent_id"`
}

// TreeOptions controls the shape of a GetTree call
type TreeOptions struct {
	// RootID scopes the tree to one subtree; nil returns the whole forest.
	RootID *uuid.UUID
	// MaxDepth caps how many levels are returned, counted from the tree
	// root inclusive. Zero means no cap beyond the configured maximum.
	MaxDepth int
	// IncludeInactive includes categories hidden from default listings.
	IncludeInactive bool
}

// CategoryResponse represents the response for category data
type CategoryResponse struct {
	ID                uuid.UUID            `json:"id"`
	ParentID          *uuid.UUID           `json:"parent_id,omitempty"`
	Level             int                  `json:"level"`
	Path              string               `json:"path"`
	Slug              string               `json:"slug"`
	Name              models.LocalizedText `json:"name"`
	Description       models.LocalizedText `json:"description,omitempty"`
	Slugs             models.LocalizedText `json:"slugs"`
	SortOrder         int                  `json:"sort_order"`
	IsActive          bool                 `json:"is_active"`
	ContentCount      int                  `json:"content_count"`
	SubcategoryCount  int                  `json:"subcategory_count"`
	TotalContentCount int                  `json:"total_content_count"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

// TreeNode is a CategoryResponse with its children attached, forming the
// nested structure returned by GetTree.
type TreeNode struct {
	CategoryResponse
	Children []*TreeNode `json:"children"`
}

// RecomputeReport summarizes a counter recomputation run
type RecomputeReport struct {
	ScannedNodes  int           `json:"scanned_nodes"`
	RepairedNodes int           `json:"repaired_nodes"`
	Duration      time.Duration `json:"duration_ns"`
}

// IntegrityIssue describes a single hierarchy invariant violation
type IntegrityIssue struct {
	CategoryID uuid.UUID `json:"category_id"`
	Path       string    `json:"path"`
	Problem    string    `json:"problem"`
}

// IntegrityReport summarizes a hierarchy verification run
type IntegrityReport struct {
	ScannedNodes int              `json:"scanned_nodes"`
	Issues       []IntegrityIssue `json:"issues"`
}

// Clean reports whether verification found no issues
func (r *IntegrityReport) Clean() bool {
	return len(r.Issues) == 0
}

// ToCategoryResponse converts a models.Category to CategoryResponse
func ToCategoryResponse(category *models.Category) *CategoryResponse {
	return &CategoryResponse{
		ID:                category.ID,
		ParentID:          category.ParentID,
		Level:             category.Level,
		Path:              category.Path,
		Slug:              category.Slug,
		Name:              category.Name,
		Description:       category.Description,
		Slugs:             category.Slugs,
		SortOrder:         category.SortOrder,
		IsActive:          category.IsActive,
		ContentCount:      category.ContentCount,
		SubcategoryCount:  category.SubcategoryCount,
		TotalContentCount: category.TotalContentCount,
		CreatedAt:         category.CreatedAt,
		UpdatedAt:         category.UpdatedAt,
	}
}

// ToCategoryResponseList converts a slice of models.Category to CategoryResponse
func ToCategoryResponseList(categories []models.Category) []CategoryResponse {
	responses := make([]CategoryResponse, len(categories))
	for i := range categories {
		responses[i] = *ToCategoryResponse(&categories[i])
	}
	return responses
}
