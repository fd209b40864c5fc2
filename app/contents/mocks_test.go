package contents

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/arborcms/arbor/app/categories"
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

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Content, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Content), args.Error(1)
}

func (m *MockRepository) Create(ctx context.Context, content *models.Content) error {
	return m.Called(ctx, content).Error(0)
}

func (m *MockRepository) Update(ctx context.Context, content *models.Content) error {
	return m.Called(ctx, content).Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepository) List(ctx context.Context, query *ContentQuery) ([]models.Content, int64, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]models.Content), args.Get(1).(int64), args.Error(2)
}

// MockCategoryRepository is a mock implementation of the categories.Repository
// interface, so content service tests can script the category side of a
// transaction without the real tree storage.
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) WithTx(tx *gorm.DB) categories.Repository {
	args := m.Called(tx)
	return args.Get(0).(categories.Repository)
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockCategoryRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockCategoryRepository) GetByPath(ctx context.Context, path string) (*models.Category, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockCategoryRepository) GetRoots(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Category), args.Error(1)
}

func (m *MockCategoryRepository) GetChildren(ctx context.Context, parentID uuid.UUID, activeOnly bool) ([]models.Category, error) {
	args := m.Called(ctx, parentID, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Category), args.Error(1)
}

func (m *MockCategoryRepository) GetSubtree(ctx context.Context, path string, maxLevel int, activeOnly bool) ([]models.Category, error) {
	args := m.Called(ctx, path, maxLevel, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Category), args.Error(1)
}

func (m *MockCategoryRepository) GetForest(ctx context.Context, maxLevel int, activeOnly bool) ([]models.Category, error) {
	args := m.Called(ctx, maxLevel, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Category), args.Error(1)
}

func (m *MockCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	return m.Called(ctx, category).Error(0)
}

func (m *MockCategoryRepository) Update(ctx context.Context, category *models.Category) error {
	return m.Called(ctx, category).Error(0)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCategoryRepository) UpdateSubtreePaths(ctx context.Context, oldPath, newPath string, levelDelta int) (int64, error) {
	args := m.Called(ctx, oldPath, newPath, levelDelta)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCategoryRepository) DeleteSubtree(ctx context.Context, path string) (int64, error) {
	args := m.Called(ctx, path)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCategoryRepository) DeleteSubtreeContents(ctx context.Context, path string) (int64, error) {
	args := m.Called(ctx, path)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCategoryRepository) IncrementSubcategoryCount(ctx context.Context, id uuid.UUID, delta int) error {
	return m.Called(ctx, id, delta).Error(0)
}

func (m *MockCategoryRepository) IncrementContentCount(ctx context.Context, id uuid.UUID, delta int) error {
	return m.Called(ctx, id, delta).Error(0)
}

func (m *MockCategoryRepository) IncrementTotalContentCountForPaths(ctx context.Context, paths []string, delta int) error {
	return m.Called(ctx, paths, delta).Error(0)
}

func (m *MockCategoryRepository) SetCounters(ctx context.Context, id uuid.UUID, contentCount, subcategoryCount, totalContentCount int) error {
	return m.Called(ctx, id, contentCount, subcategoryCount, totalContentCount).Error(0)
}

func (m *MockCategoryRepository) CountChildren(ctx context.Context, id uuid.UUID) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCategoryRepository) CountContents(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	args := m.Called(ctx, categoryID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCategoryRepository) ContentCountsForSubtree(ctx context.Context, path string) (map[uuid.UUID]int, error) {
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

func (m *MockService) CreateContent(ctx context.Context, req *CreateContentRequest) (*ContentResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ContentResponse), args.Error(1)
}

func (m *MockService) GetContent(ctx context.Context, id uuid.UUID) (*ContentResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ContentResponse), args.Error(1)
}

func (m *MockService) UpdateContent(ctx context.Context, id uuid.UUID, req *UpdateContentRequest) (*ContentResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ContentResponse), args.Error(1)
}

func (m *MockService) DeleteContent(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockService) ListContents(ctx context.Context, filters *ContentFilters) (*ContentListResponse, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ContentListResponse), args.Error(1)
}

// categoryAt builds an active category fixture at the given materialized path.
func categoryAt(path string) *models.Category {
	segments := categories.SplitPath(path)
	slug := segments[len(segments)-1]
	return &models.Category{
		ID:       uuid.New(),
		Level:    len(segments) - 1,
		Path:     path,
		Slug:     slug,
		Name:     models.LocalizedText{"en": slug},
		Slugs:    models.LocalizedText{"en": slug},
		IsActive: true,
	}
}

// contentIn builds a draft content fixture tagged to the given category.
func contentIn(category *models.Category, title string) *models.Content {
	return &models.Content{
		ID:         uuid.New(),
		CategoryID: category.ID,
		Title:      models.LocalizedText{"en": title},
		Status:     models.ContentStatusDraft,
	}
}
