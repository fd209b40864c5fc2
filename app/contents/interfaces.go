package contents

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arborcms/arbor/models"
)

// Repository defines the interface for content data access
type Repository interface {
	// WithTx returns a copy of the repository bound to the given transaction.
	WithTx(tx *gorm.DB) Repository

	GetByID(ctx context.Context, id uuid.UUID) (*models.Content, error)
	Create(ctx context.Context, content *models.Content) error
	Update(ctx context.Context, content *models.Content) error
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns one page of content rows matching the query plus the total
	// match count before paging.
	List(ctx context.Context, query *ContentQuery) ([]models.Content, int64, error)
}

// Service defines the interface for content business logic
type Service interface {
	CreateContent(ctx context.Context, req *CreateContentRequest) (*ContentResponse, error)
	GetContent(ctx context.Context, id uuid.UUID) (*ContentResponse, error)
	UpdateContent(ctx context.Context, id uuid.UUID, req *UpdateContentRequest) (*ContentResponse, error)
	DeleteContent(ctx context.Context, id uuid.UUID) error
	ListContents(ctx context.Context, filters *ContentFilters) (*ContentListResponse, error)
}
