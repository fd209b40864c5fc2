package contents

import (
	"time"

	"github.com/google/uuid"

	"github.com/arborcms/arbor/models"
)

// CreateContentRequest represents the request to create a content item
type CreateContentRequest struct {
	// CategoryID tags the item to exactly one category.
	CategoryID uuid.UUID            `json:"category_id" binding:"required"`
	Title      models.LocalizedText `json:"title" binding:"required"`
	Body       string               `json:"body,omitempty"`
	// Status defaults to draft when omitted.
	Status models.ContentStatus `json:"status,omitempty"`
}

// UpdateContentRequest represents the request to update a content item. Nil
// maps and pointers leave the corresponding field untouched; a present
// CategoryID retags the item and shifts the denormalized counters from the old
// category chain to the new one.
type UpdateContentRequest struct {
	CategoryID *uuid.UUID            `json:"category_id,omitempty"`
	Title      models.LocalizedText  `json:"title,omitempty"`
	Body       *string               `json:"body,omitempty"`
	Status     *models.ContentStatus `json:"status,omitempty"`
}

// ContentFilters represents filters for content list queries
type ContentFilters struct {
	// CategoryID restricts the listing to one category.
	CategoryID *uuid.UUID `form:"category_id"`
	// Subtree widens a CategoryID filter to the category and all its
	// descendants. Ignored without CategoryID.
	Subtree   bool                  `form:"subtree"`
	Status    *models.ContentStatus `form:"status"`
	SortBy    string                `form:"sort_by"`
	SortOrder string                `form:"sort_order"`
	Page      int                   `form:"page"`
	PerPage   int                   `form:"per_page"`
}

// ContentQuery is the storage-level form of a content listing: category
// filters already resolved to either a direct id match or a path prefix, and
// paging already clamped.
type ContentQuery struct {
	CategoryID  *uuid.UUID
	SubtreePath string
	Status      *models.ContentStatus
	SortBy      string
	SortOrder   string
	Page        int
	PerPage     int
}

// ContentResponse represents the response for content data
type ContentResponse struct {
	ID         uuid.UUID            `json:"id"`
	CategoryID uuid.UUID            `json:"category_id"`
	Title      models.LocalizedText `json:"title"`
	Body       string               `json:"body,omitempty"`
	Status     string               `json:"status"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// ContentListResponse represents a paginated content listing
type ContentListResponse struct {
	Contents []ContentResponse `json:"contents"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PerPage  int               `json:"per_page"`
}

// ToContentResponse converts a models.Content to ContentResponse
func ToContentResponse(content *models.Content) *ContentResponse {
	return &ContentResponse{
		ID:         content.ID,
		CategoryID: content.CategoryID,
		Title:      content.Title,
		Body:       content.Body,
		Status:     string(content.Status),
		CreatedAt:  content.CreatedAt,
		UpdatedAt:  content.UpdatedAt,
	}
}

// ToContentResponseList converts a slice of models.Content to ContentResponse
func ToContentResponseList(contents []models.Content) []ContentResponse {
	responses := make([]ContentResponse, len(contents))
	for i := range contents {
		responses[i] = *ToContentResponse(&contents[i])
	}
	return responses
}
