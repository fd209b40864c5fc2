package contents

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arborcms/arbor/models"
)

// repository implements the Repository interface using GORM
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new content repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{
		db: db,
	}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

// GetByID returns a content item by ID
func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Content, error) {
	var content models.Content
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&content).Error
	if err != nil {
		return nil, err
	}
	return &content, nil
}

// Create inserts a new content row
func (r *repository) Create(ctx context.Context, content *models.Content) error {
	return r.db.WithContext(ctx).Create(content).Error
}

// Update saves all fields of an existing content row
func (r *repository) Update(ctx context.Context, content *models.Content) error {
	return r.db.WithContext(ctx).Save(content).Error
}

// Delete removes a single content row
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Content{}).Error
}

// List returns content rows matching the query. A subtree query joins on the
// category materialized path, so one prefix match covers the whole branch.
func (r *repository) List(ctx context.Context, q *ContentQuery) ([]models.Content, int64, error) {
	var contents []models.Content
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Content{})
	query = r.applyFilters(query, q)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = r.applySorting(query, q)
	query = r.applyPagination(query, q)

	err := query.Find(&contents).Error
	return contents, total, err
}

// applyFilters applies category and status criteria to the query
func (r *repository) applyFilters(query *gorm.DB, q *ContentQuery) *gorm.DB {
	if q.CategoryID != nil {
		query = query.Where("contents.category_id = ?", *q.CategoryID)
	}

	if q.SubtreePath != "" {
		query = query.
			Joins("JOIN categories ON categories.id = contents.category_id").
			Where("categories.path = ? OR categories.path LIKE ?",
				q.SubtreePath, q.SubtreePath+models.PathSeparator+"%")
	}

	if q.Status != nil {
		query = query.Where("contents.status = ?", *q.Status)
	}

	return query
}

// applySorting applies sorting to the query. Column names are qualified
// because subtree queries join the categories table.
func (r *repository) applySorting(query *gorm.DB, q *ContentQuery) *gorm.DB {
	sortBy := q.SortBy
	validSortFields := map[string]bool{
		"created_at": true,
		"updated_at": true,
		"status":     true,
	}
	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}

	sortOrder := q.SortOrder
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}

	return query.Order(fmt.Sprintf("contents.%s %s", sortBy, sortOrder))
}

// applyPagination applies the pre-clamped page window to the query
func (r *repository) applyPagination(query *gorm.DB, q *ContentQuery) *gorm.DB {
	page := q.Page
	if page < 1 {
		page = 1
	}
	perPage := q.PerPage
	if perPage < 1 {
		perPage = 20
	}
	return query.Offset((page - 1) * perPage).Limit(perPage)
}
