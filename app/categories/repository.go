package categories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/arborcms/arbor/models"
)

// repository implements the Repository interface using GORM
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new category repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{
		db: db,
	}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

// GetByID returns a category by ID
func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// GetByIDForUpdate returns a category by ID with the row locked until the
// surrounding transaction ends.
func (r *repository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// GetByPath returns the category with the given materialized path
func (r *repository) GetByPath(ctx context.Context, path string) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).
		Where("path = ?", path).
		First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// GetRoots returns all root categories ordered for display
func (r *repository) GetRoots(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	var categories []models.Category
	query := r.db.WithContext(ctx).Where("parent_id IS NULL")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Order("sort_order ASC, path ASC").Find(&categories).Error
	return categories, err
}

// GetChildren returns the direct children of a category ordered for display
func (r *repository) GetChildren(ctx context.Context, parentID uuid.UUID, activeOnly bool) ([]models.Category, error) {
	var categories []models.Category
	query := r.db.WithContext(ctx).Where("parent_id = ?", parentID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Order("sort_order ASC, path ASC").Find(&categories).Error
	return categories, err
}

// GetSubtree returns the node at path and all its descendants. Ordering is
// level then sort_order then path, so parents always precede their children.
func (r *repository) GetSubtree(ctx context.Context, path string, maxLevel int, activeOnly bool) ([]models.Category, error) {
	var categories []models.Category
	query := r.db.WithContext(ctx).
		Where("path = ? OR path LIKE ?", path, subtreePattern(path))
	if maxLevel >= 0 {
		query = query.Where("level <= ?", maxLevel)
	}
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Order("level ASC, sort_order ASC, path ASC").Find(&categories).Error
	return categories, err
}

// GetForest returns every category up to maxLevel in parents-first order
func (r *repository) GetForest(ctx context.Context, maxLevel int, activeOnly bool) ([]models.Category, error) {
	var categories []models.Category
	query := r.db.WithContext(ctx).Model(&models.Category{})
	if maxLevel >= 0 {
		query = query.Where("level <= ?", maxLevel)
	}
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Order("level ASC, sort_order ASC, path ASC").Find(&categories).Error
	return categories, err
}

// Create inserts a new category
func (r *repository) Create(ctx context.Context, category *models.Category) error {
	err := r.db.WithContext(ctx).Create(category).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return models.ErrSlugTaken
	}
	return err
}

// Update saves all fields of an existing category
func (r *repository) Update(ctx context.Context, category *models.Category) error {
	err := r.db.WithContext(ctx).Save(category).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return models.ErrSlugTaken
	}
	return err
}

// Delete removes a single category row
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Category{}).Error
}

// UpdateSubtreePaths rewrites path and level for the whole subtree rooted at
// oldPath in a single statement. Paths are ASCII by construction, so byte
// offsets and character offsets agree.
func (r *repository) UpdateSubtreePaths(ctx context.Context, oldPath, newPath string, levelDelta int) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Category{}).
		Where("path = ? OR path LIKE ?", oldPath, subtreePattern(oldPath)).
		Updates(map[string]interface{}{
			"path":  gorm.Expr("? || substring(path from ?)", newPath, len(oldPath)+1),
			"level": gorm.Expr("level + ?", levelDelta),
		})
	if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		return 0, models.ErrSlugTaken
	}
	return res.RowsAffected, res.Error
}

// DeleteSubtree removes the node at path and every descendant in one
// statement, so the self-referencing parent constraint never sees a dangling
// child.
func (r *repository) DeleteSubtree(ctx context.Context, path string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("path = ? OR path LIKE ?", path, subtreePattern(path)).
		Delete(&models.Category{})
	return res.RowsAffected, res.Error
}

// DeleteSubtreeContents removes every content row tagged to the subtree
// rooted at path. Must run before DeleteSubtree to satisfy the restrict
// constraint on contents.category_id.
func (r *repository) DeleteSubtreeContents(ctx context.Context, path string) (int64, error) {
	subtreeIDs := r.db.Model(&models.Category{}).
		Select("id").
		Where("path = ? OR path LIKE ?", path, subtreePattern(path))
	res := r.db.WithContext(ctx).
		Where("category_id IN (?)", subtreeIDs).
		Delete(&models.Content{})
	return res.RowsAffected, res.Error
}

// IncrementSubcategoryCount adjusts the direct-children counter
func (r *repository) IncrementSubcategoryCount(ctx context.Context, id uuid.UUID, delta int) error {
	if delta == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Category{}).
		Where("id = ?", id).
		UpdateColumn("subcategory_count", gorm.Expr("subcategory_count + ?", delta)).Error
}

// IncrementContentCount adjusts the direct-content counter
func (r *repository) IncrementContentCount(ctx context.Context, id uuid.UUID, delta int) error {
	if delta == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Category{}).
		Where("id = ?", id).
		UpdateColumn("content_count", gorm.Expr("content_count + ?", delta)).Error
}

// IncrementTotalContentCountForPaths adjusts the subtree-total counter on
// every node whose path appears in paths.
func (r *repository) IncrementTotalContentCountForPaths(ctx context.Context, paths []string, delta int) error {
	if len(paths) == 0 || delta == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Category{}).
		Where("path IN ?", paths).
		UpdateColumn("total_content_count", gorm.Expr("total_content_count + ?", delta)).Error
}

// SetCounters overwrites all three denormalized counters for one category
func (r *repository) SetCounters(ctx context.Context, id uuid.UUID, contentCount, subcategoryCount, totalContentCount int) error {
	return r.db.WithContext(ctx).Model(&models.Category{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"content_count":       contentCount,
			"subcategory_count":   subcategoryCount,
			"total_content_count": totalContentCount,
		}).Error
}

// CountChildren returns the number of direct children of a category
func (r *repository) CountChildren(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Category{}).
		Where("parent_id = ?", id).
		Count(&count).Error
	return count, err
}

// CountContents returns the number of content rows tagged directly to a category
func (r *repository) CountContents(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Content{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error
	return count, err
}

// ContentCountsForSubtree returns the direct content count of every node in
// the subtree rooted at path, keyed by category id.
func (r *repository) ContentCountsForSubtree(ctx context.Context, path string) (map[uuid.UUID]int, error) {
	type row struct {
		ID    uuid.UUID
		Count int
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&models.Category{}).
		Select("categories.id AS id, COUNT(contents.id) AS count").
		Joins("LEFT JOIN contents ON contents.category_id = categories.id").
		Where("categories.path = ? OR categories.path LIKE ?", path, subtreePattern(path)).
		Group("categories.id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[uuid.UUID]int, len(rows))
	for _, r := range rows {
		counts[r.ID] = r.Count
	}
	return counts, nil
}

// subtreePattern is the LIKE pattern matching strict descendants of path.
// Slugs cannot contain LIKE metacharacters, so no escaping is needed.
func subtreePattern(path string) string {
	return path + models.PathSeparator + "%"
}
