package categories

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/arborcms/arbor/models"
)

// MockRepository is a mock implementation of the Repository interface for testing.
type MockRepository struct {
	mock.Mock
}

// WithTx returns the repository the test registered for transactional calls,
// so expectations on in-transaction operations can be set separately.
func (m *MockRepository) WithTx(tx *gorm.DB) Repository {
	args := m.Called(tx)
	return args.Get(0).(Repository)
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockRepository) GetByPath(ctx context.Context, path string) (*models.Category, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockRepository) GetRoots(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Category), args.Error(1)
}

func (m *MockRepository) GetChildren(ctx context.Context, parentID uuid.UUID, activeOnly bool) ([]models.Category, error) {
	args := m.Called(ctx, parentID, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Category), args.Error(1)
}

func (m *MockRepository) GetSubtree(ctx context.Context, path string, maxLevel int, activeOnly bool) ([]models.Category, error) {
	args := m.Called(ctx, path, maxLevel, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Category), args.Error(1)
}

func (m *MockRepository) GetForest(ctx context.Context, maxLevel int, activeOnly bool) ([]models.Category, error) {
	args := m.Called(ctx, maxLevel, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Category), args.Error(1)
}

func (m *MockRepository) Create(ctx context.Context, category *models.Category) error {
	return m.Called(ctx, category).Error(0)
}

func (m *MockRepository) Update(ctx context.Context, category *models.Category) error {
	return m.Called(ctx, category).Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepository) UpdateSubtreePaths(ctx context.Context, oldPath, newPath string, levelDelta int) (int64, error) {
	args := m.Called(ctx, oldPath, newPath, levelDelta)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) DeleteSubtree(ctx context.Context, path string) (int64, error) {
	args := m.Called(ctx, path)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) DeleteSubtreeContents(ctx context.Context, path string) (int64, error) {
	args := m.Called(ctx, path)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) IncrementSubcategoryCount(ctx context.Context, id uuid.UUID, delta int) error {
	return m.Called(ctx, id, delta).Error(0)
}

func (m *MockRepository) IncrementContentCount(ctx context.Context, id uuid.UUID, delta int) error {
	return m.Called(ctx, id, delta).Error(0)
}

func (m *MockRepository) IncrementTotalContentCountForPaths(ctx context.Context, paths []string, delta int) error {
	return m.Called(ctx, paths, delta).Error(0)
}

func (m *MockRepository) SetCounters(ctx context.Context, id uuid.UUID, contentCount, subcategoryCount, totalContentCount int) error {
	return m.Called(ctx, id, contentCount, subcategoryCount, totalContentCount).Error(0)
}

func (m *MockRepository) CountChildren(ctx context.Context, id uuid.UUID) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) CountContents(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	args := m.Called(ctx, categoryID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) ContentCountsForSubtree(ctx context.Context, path string) (map[uuid.UUID]int, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]int), args.Error(1)
}

// MockService is a mock implementation of the Service interface for testing.
type MockService struct {
	mock.Mock
}

func (m *MockService) CreateCategory(ctx context.Context, req *CreateCategoryRequest) (*CategoryResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CategoryResponse), args.Error(1)
}

func (m *MockService) GetCategory(ctx context.Context, id uuid.UUID) (*CategoryResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CategoryResponse), args.Error(1)
}

func (m *MockService) GetCategoryByPath(ctx context.Context, path string) (*CategoryResponse, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CategoryResponse), args.Error(1)
}

func (m *MockService) GetChildren(ctx context.Context, parentID *uuid.UUID, includeInactive bool) ([]CategoryResponse, error) {
	args := m.Called(ctx, parentID, includeInactive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]CategoryResponse), args.Error(1)
}

func (m *MockService) GetTree(ctx context.Context, opts TreeOptions) ([]*TreeNode, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*TreeNode), args.Error(1)
}

func (m *MockService) GetDescendants(ctx context.Context, id uuid.UUID) ([]CategoryResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]CategoryResponse), args.Error(1)
}

func (m *MockService) GetAncestors(ctx context.Context, id uuid.UUID) ([]CategoryResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]CategoryResponse), args.Error(1)
}

func (m *MockService) UpdateCategory(ctx context.Context, id uuid.UUID, req *UpdateCategoryRequest) (*CategoryResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CategoryResponse), args.Error(1)
}

func (m *MockService) MoveCategory(ctx context.Context, id uuid.UUID, req *MoveCategoryRequest) (*CategoryResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CategoryResponse), args.Error(1)
}

func (m *MockService) DeleteCategory(ctx context.Context, id uuid.UUID, policy models.CascadePolicy) error {
	return m.Called(ctx, id, policy).Error(0)
}

func (m *MockService) RecomputeStats(ctx context.Context, rootID *uuid.UUID) (*RecomputeReport, error) {
	args := m.Called(ctx, rootID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*RecomputeReport), args.Error(1)
}

func (m *MockService) VerifyHierarchy(ctx context.Context) (*IntegrityReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*IntegrityReport), args.Error(1)
}

// rootCategory builds an active root node fixture with consistent slug, path
// and localized fields.
func rootCategory(slug string) *models.Category {
	return &models.Category{
		ID:       uuid.New(),
		Level:    0,
		Path:     models.PathSeparator + slug,
		Slug:     slug,
		Name:     models.LocalizedText{"en": slug},
		Slugs:    models.LocalizedText{"en": slug},
		IsActive: true,
	}
}

// childCategory builds an active child fixture directly under parent.
func childCategory(parent *models.Category, slug string) *models.Category {
	return &models.Category{
		ID:       uuid.New(),
		ParentID: &parent.ID,
		Level:    parent.Level + 1,
		Path:     ChildPath(parent.Path, slug),
		Slug:     slug,
		Name:     models.LocalizedText{"en": slug},
		Slugs:    models.LocalizedText{"en": slug},
		IsActive: true,
	}
}

// copyOf returns a shallow copy so a test can hand the service a mutable row
// without aliasing the fixture it asserts against.
func copyOf(c *models.Category) *models.Category {
	dup := *c
	return &dup
}
