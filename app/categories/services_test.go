package categories

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/arborcms/arbor/internal/cache"
	"github.com/arborcms/arbor/internal/logger"
	"github.com/arborcms/arbor/models"
)

type serviceMocks struct {
	repo   *MockRepository
	txRepo *MockRepository
	db     sqlmock.Sqlmock
}

// newTestService wires a service against mocked repositories and a mocked
// database connection. Transactions run against sqlmock, so tests assert the
// begin/commit/rollback envelope; every repository call inside a transaction
// goes through txRepo.
func newTestService(t *testing.T, config *Config) (*service, *serviceMocks) {
	t.Helper()

	sqlDB, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	if config == nil {
		config = GetDefaultConfig()
	}

	repo := new(MockRepository)
	txRepo := new(MockRepository)
	repo.On("WithTx", mock.Anything).Return(txRepo).Maybe()

	treeCache := cache.NewMemoryCache[[]*TreeNode]()
	t.Cleanup(treeCache.Stop)

	svc := NewService(gormDB, repo, treeCache, logger.NewNullLogger(), config).(*service)
	return svc, &serviceMocks{repo: repo, txRepo: txRepo, db: dbMock}
}

func (m *serviceMocks) assertAll(t *testing.T) {
	t.Helper()
	m.repo.AssertExpectations(t)
	m.txRepo.AssertExpectations(t)
	assert.NoError(t, m.db.ExpectationsWereMet())
}

func TestService_CreateCategory_Root(t *testing.T) {
	svc, m := newTestService(t, nil)
	ctx := context.Background()
	newID := uuid.New()

	m.txRepo.On("GetRoots", mock.Anything, false).Return([]models.Category{}, nil).Once()
	m.txRepo.On("Create", mock.Anything, mock.MatchedBy(func(c *models.Category) bool {
		return c.Path == "/electronics" && c.Level == 0 && c.Slug == "electronics" &&
			c.ParentID == nil && c.IsActive
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Category).ID = newID
	}).Return(nil).Once()
	m.db.ExpectBegin()
	m.db.ExpectCommit()

	resp, err := svc.CreateCategory(ctx, &CreateCategoryRequest{
		Name: models.LocalizedText{"en": "Electronics"},
	})

	require.NoError(t, err)
	assert.Equal(t, newID, resp.ID)
	assert.Equal(t, "/electronics", resp.Path)
	assert.Equal(t, 0, resp.Level)
	assert.Nil(t, resp.ParentID)
	assert.True(t, resp.IsActive)
	m.assertAll(t)
}

func TestService_CreateCategory_DerivesSlugFromName(t *testing.T) {
	svc, m := newTestService(t, nil)
	ctx := context.Background()

	m.txRepo.On("GetRoots", mock.Anything, false).Return([]models.Category{}, nil).Once()
	m.txRepo.On("Create", mock.Anything, mock.MatchedBy(func(c *models.Category) bool {
		return c.Slug == "mobile-phones-tablets" && c.Path == "/mobile-phones-tablets" &&
			c.Slugs["en"] == "mobile-phones-tablets"
	})).Return(nil).Once()
	m.db.ExpectBegin()
	m.db.ExpectCommit()

	resp, err := svc.CreateCategory(ctx, &CreateCategoryRequest{
		Name: models.LocalizedText{"en": "Mobile Phones & Tablets"},
	})

	require.NoError(t, err)
	assert.Equal(t, "mobile-phones-tablets", resp.Slug)
	m.assertAll(t)
}

func TestService_CreateCategory_UnderParent(t *testing.T) {
	svc, m := newTestService(t, nil)
	ctx := context.Background()
	parent := rootCategory("electronics")

	m.repo.On("GetByID", mock.Anything, parent.ID).Return(parent, nil).Once()
	m.txRepo.On("GetByIDForUpdate", mock.Anything, parent.ID).Return(copyOf(parent), nil).Once()
	m.txRepo.On("GetChildren", mock.Anything, parent.ID, false).Return([]models.Category{}, nil).Once()
	m.txRepo.On("Create", mock.Anything, mock.MatchedBy(func(c *models.Category) bool {
		return c.Path == "/electronics/phones" && c.Level == 1 &&
			c.ParentID != nil && *c.ParentID == parent.ID
	})).Return(nil).Once()
	m.txRepo.On("IncrementSubcategoryCount", mock.Anything, parent.ID, 1).Return(nil).Once()
	m.db.ExpectBegin()
	m.db.ExpectCommit()

	resp, err := svc.CreateCategory(ctx, &CreateCategoryRequest{
		ParentID: &parent.ID,
		Name:     models.LocalizedText{"en": "Phones"},
	})

	require.NoError(t, err)
	assert.Equal(t, "/electronics/phones", resp.Path)
	assert.Equal(t, 1, resp.Level)
	m.assertAll(t)
}

func TestService_CreateCategory_SiblingSlugTaken(t *testing.T) {
	svc, m := newTestService(t, nil)
	ctx := context.Background()

	m.txRepo.On("GetRoots", mock.Anything, false).
		Return([]models.Category{*rootCategory("electronics")}, nil).Once()
	m.db.ExpectBegin()
	m.db.ExpectRollback()

	_, err := svc.CreateCategory(ctx, &CreateCategoryRequest{
		Name: models.LocalizedText{"en": "Electronics"},
	})

	assert.ErrorIs(t, err, models.ErrSlugTaken)
	m.assertAll(t)
}

func TestService_CreateCategory_CrossLanguageSlugTaken(t *testing.T) {
	svc, m := newTestService(t, nil)
	ctx := context.Background()
	sibling := rootCategory("tech")
	sibling.Slugs = models.LocalizedText{"en": "tech", "fr": "technologie"}

	m.txRepo.On("GetRoots", mock.Anything, false).Return([]models.Category{*sibling}, nil).Once()
	m.db.ExpectBegin()
	m.db.ExpectRollback()

	// The canonical slug is free, but the fr slug collides with a sibling's
	// fr slug. Uniqueness is per parent per language.
	_, err := svc.CreateCategory(ctx, &CreateCategoryRequest{
		Name:  models.LocalizedText{"en": "Gadgets"},
		Slugs: models.LocalizedText{"fr": "technologie"},
	})

	assert.ErrorIs(t, err, models.ErrSlugTaken)
	m.assertAll(t)
}

func TestService_CreateCategory_ParentInactive(t *testing.T) {
	svc, m := newTestService(t, nil)
	ctx := context.Background()
	parent := rootCategory("archive")
	parent.IsActive = false

	m.repo.On("GetByID", mock.Anything, parent.ID).Return(parent, nil).Once()
	m.txRepo.On("GetByIDForUpdate", mock.Anything, parent.ID).Return(copyOf(parent), nil).Once()
	m.db.ExpectBegin()
	m.db.ExpectRollback()

	_, err := svc.CreateCategory(ctx, &CreateCategoryRequest{
		ParentID: &parent.ID,
		Name:     models.LocalizedText{"en": "Old Stock"},
	})

	assert.ErrorIs(t, err, models.ErrParentInactive)
	m.assertAll(t)
}

func TestService_CreateCategory_InactiveParentAllowedByConfig(t *testing.T) {
	config := GetDefaultConfig()
	config.AllowInactiveParent = true
	svc, m := newTestService(t, config)
	ctx := context.Background()
	parent := rootCategory("archive")
	parent.IsActive = false

	m.repo.On("GetByID", mock.Anything, parent.ID).Return(parent, nil).Once()
	m.txRepo.On("GetByIDForUpdate", mock.Anything, parent.ID).Return(copyOf(parent), nil).Once()
	m.txRepo.On("GetChildren", mock.Anything, parent.ID, false).Return([]models.Category{}, nil).Once()
	m.txRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	m.txRepo.On("IncrementSubcategoryCount", mock.Anything, parent.ID, 1).Return(nil).Once()
	m.db.ExpectBegin()
	m.db.ExpectCommit()

	resp, err := svc.CreateCategory(ctx, &CreateCategoryRequest{
		ParentID: &parent.ID,
		Name:     models.LocalizedText{"en": "Old Stock"},
	})

	require.NoError(t, err)
	assert.Equal(t, "/archive/old-stock", resp.Path)
	m.assertAll(t)
}

func TestService_CreateCategory_MaxDepthExceeded(t *testing.T) {
	config := GetDefaultConfig()
	config.MaxDepth = 2
	svc, m := newTestService(t, config)
	ctx := context.Background()
	parent := childCategory(rootCategory("a"), "b")

	m.repo.On("GetByID", mock.Anything, parent.ID).Return(parent, nil).Once()
	m.txRepo.On("GetByIDForUpdate", mock.Anything, parent.ID).Return(copyOf(parent), nil).Once()
	m.db.ExpectBegin()
	m.db.ExpectRollback()

	_, err := svc.CreateCategory(ctx, &CreateCategoryRequest{
		ParentID: &parent.ID,
		Name:     models.LocalizedText{"en": "Too Deep"},
	})

	assert.ErrorIs(t, err, models.ErrMaxDepthExceeded)
	m.assertAll(t)
}

func TestService_CreateCategory_EmptyName(t *testing.T) {
	svc, m := newTestService(t, nil)

	_, err := svc.CreateCategory(context.Background(), &CreateCategoryRequest{})

	assert.ErrorIs(t, err, models.ErrInvalidCategoryName)
	m.repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	m.assertAll(t)
}

func TestService_CreateCategory_InvalidExplicitSlug(t *testing.T) {
	svc, m := newTestService(t, nil)

	_, err := svc.CreateCategory(context.Background(), &CreateCategoryRequest{
		Name:  models.LocalizedText{"en": "Electronics"},
		Slugs: models.LocalizedText{"en": "Bad Slug!"},
	})

	assert.ErrorIs(t, err, models.ErrInvalidCategorySlug)
	m.assertAll(t)
}

func TestService_CreateCategory_InvalidDescriptionLanguage(t *testing.T) {
	svc, m := newTestService(t, nil)
	ctx := context.Background()

	m.txRepo.On("GetRoots", mock.Anything, false).Return([]models.Category{}, nil).Once()
	m.db.ExpectBegin()
	m.db.ExpectRollback()

	_, err := svc.CreateCategory(ctx, &CreateCategoryRequest{
		Name:        models.LocalizedText{"en": "Electronics"},
		Description: models.LocalizedText{"zz9": "not a language tag"},
	})

	assert.ErrorIs(t, err, models.ErrInvalidLanguageCode)
	m.assertAll(t)
}

func TestService_CreateCategory_ParentNotFound(t *testing.T) {
	svc, m := newTestService(t, nil)
	missing := uuid.New()

	m.repo.On("GetByID", mock.Anything, missing).Return(nil, gorm.ErrRecordNotFound).Once()

	_, err := svc.CreateCategory(context.Background(), &CreateCategoryRequest{
		ParentID: &missing,
		Name:     models.LocalizedText{"en": "Orphan"},
	})

	assert.ErrorIs(t, err, models.ErrRecordNotFound)
	m.assertAll(t)
}

func TestService_CreateCategory_BusyWhenRootLocked(t *testing.T) {
	config := GetDefaultConfig()
	config.LockTimeout = 30 * time.Millisecond
	svc, m := newTestService(t, config)
	ctx := context.Background()

	release, err := svc.locks.Acquire(ctx, time.Second, "electronics")
	require.NoError(t, err)
	defer release()

	_, err = svc.CreateCategory(ctx, &CreateCategoryRequest{
		Name: models.LocalizedText{"en": "Electronics"},
	})

	assert.ErrorIs(t, err, models.ErrHierarchyBusy)
	m.assertAll(t)
}

func TestService_GetCategory(t *testing.T) {
	svc, m := newTestService(t, nil)
	node := rootCategory("electronics")

	m.repo.On("GetByID", mock.Anything, node.ID).Return(node, nil).Once()

	resp, err := svc.GetCategory(context.Background(), node.ID)

	require.NoError(t, err)
	assert.Equal(t, node.ID, resp.ID)
	assert.Equal(t, "/electronics", resp.Path)
	m.assertAll(t)
}

func TestService_GetCategory_NotFound(t *testing.T) {
	svc, m := newTestService(t, nil)
	missing := uuid.New()

	m.repo.On("GetByID", mock.Anything, missing).Return(nil, gorm.ErrRecordNotFound).Once()

	_, err := svc.GetCategory(context.Background(), missing)

	assert.ErrorIs(t, err, models.ErrRecordNotFound)
	m.assertAll(t)
}

func TestService_GetCategoryByPath_AddsLeadingSeparator(t *testing.T) {
	svc, m := newTestService(t, nil)
	node := childCategory(rootCategory("electronics"), "phones")

	m.repo.On("GetByPath", mock.Anything, "/electronics/phones").Return(node, nil).Once()

	resp, err := svc.GetCategoryByPath(context.Background(), "electronics/phones")

	require.NoError(t, err)
	assert.Equal(t, node.ID, resp.ID)
	m.assertAll(t)
}

func TestService_GetChildren_Roots(t *testing.T) {
	svc, m := newTestService(t, nil)

	m.repo.On("GetRoots", mock.Anything, true).
		Return([]models.Category{*rootCategory("electronics"), *rootCategory("books")}, nil).Once()

	roots, err := svc.GetChildren(context.Background(), nil, false)

	require.NoError(t, err)
	assert.Len(t, roots, 2)
	m.assertAll(t)
}

func TestService_GetChildren_OfParent(t *testing.T) {
	svc, m := newTestService(t, nil)
	parent := rootCategory("electronics")
	child := childCategory(parent, "phones")

	m.repo.On("GetByID", mock.Anything, parent.ID).Return(parent, nil).Once()
	m.repo.On("GetChildren", mock.Anything, parent.ID, true).
		Return([]models.Category{*child}, nil).Once()

	children, err := svc.GetChildren(context.Background(), &parent.ID, false)

	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, child.ID, children[0].ID)
	m.assertAll(t)
}

func TestService_GetChildren_ParentNotFound(t *testing.T) {
	svc, m := newTestService(t, nil)
	missing := uuid.New()

	m.repo.On("GetByID", mock.Anything, missing).Return(nil, gorm.ErrRecordNotFound).Once()

	_, err := svc.GetChildren(context.Background(), &missing, false)

	assert.ErrorIs(t, err, models.ErrRecordNotFound)
	m.assertAll(t)
}

func TestService_GetTree_ForestCachedAcrossCalls(t *testing.T) {
	svc, m := newTestService(t, nil)
	ctx := context.Background()
	e := rootCategory("electronics")
	p := childCategory(e, "phones")

	m.repo.On("GetForest", mock.Anything, 9, true).
		Return([]models.Category{*e, *p}, nil).Once()

	first, err := svc.GetTree(ctx, TreeOptions{})
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, e.ID, first[0].ID)
	require.Len(t, first[0].Children, 1)
	assert.Equal(t, p.ID, first[0].Children[0].ID)

	second, err := svc.GetTree(ctx, TreeOptions{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	m.assertAll(t)
}

func TestService_GetTree_RootScopedCachedAcrossCalls(t *testing.T) {
	svc, m := newTestService(t, nil)
	ctx := context.Background()
	e := rootCategory("electronics")
	p := childCategory(e, "phones")

	m.repo.On("GetByID", mock.Anything, e.ID).Return(e, nil).Twice()
	m.repo.On("GetSubtree", mock.Anything, "/electronics", 9, true).
		Return([]models.Category{*e, *p}, nil).Once()

	for i := 0; i < 2; i++ {
		tree, err := svc.GetTree(ctx, TreeOptions{RootID: &e.ID})
		require.NoError(t, err)
		require.Len(t, tree, 1)
		assert.Equal(t, e.ID, tree[0].ID)
	}
	m.assertAll(t)
}

func TestService_GetTree_InteriorRootNotCached(t *testing.T) {
	svc, m := newTestService(t, nil)
	ctx := context.Background()
	e := rootCategory("electronics")
	p := childCategory(e, "phones")

	m.repo.On("GetByID", mock.Anything, p.ID).Return(p, nil).Twice()
	m.repo.On("GetSubtree", mock.Anything, "/electronics/phones", 10, true).
		Return([]models.Category{*p}, nil).Twice()

	for i := 0; i < 2; i++ {
		tree, err := svc.GetTree(ctx, TreeOptions{RootID: &p.ID})
		require.NoError(t, err)
		require.Len(t, tree, 1)
	}
	m.assertAll(t)
}

func TestService_GetTree_CustomDepthBypassesCache(t *testing.T) {
	svc, m := newTestService(t, nil)
	ctx := context.Background()
	e := rootCategory("electronics")

	m.repo.On("GetForest", mock.Anything, 1, true).
		Return([]models.Category{*e}, nil).Twice()

	for i := 0; i < 2; i++ {
		_, err := svc.GetTree(ctx, TreeOptions{MaxDepth: 2})
		require.NoError(t, err)
	}
	m.assertAll(t)
}

func TestService_GetTree_IncludeInactive(t *testing.T) {
	svc, m := newTestService(t, nil)
	e := rootCategory("electronics")
	e.IsActive = false

	m.repo.On("GetForest", mock.Anything, 9, false).
		Return([]models.Category{*e}, nil).Once()

	tree, err := svc.GetTree(context.Background(), TreeOptions{IncludeInactive: true})

	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.False(t, tree[0].IsActive)
	m.assertAll(t)
}

func TestService_GetTree_CacheDisabled(t *testing.T) {
	config := GetDefaultConfig()
	config.TreeCacheTTL = 0
	svc, m := newTestService(t, config)
	ctx := context.Background()

	m.repo.On("GetForest", mock.Anything, 9, true).
		Return([]models.Category{*rootCategory("electronics")}, nil).Twice()

	for i := 0; i < 2; i++ {
		_, err := svc.GetTree(ctx, TreeOptions{})
		require.NoError(t, err)
	}
	m.assertAll(t)
}

func TestService_GetTree_SurvivesCacheBackendFailure(t *testing.T) {
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	repo := new(MockRepository)
	treeCache := new(cache.MockCache[[]*TreeNode])
	svc := NewService(gormDB, repo, treeCache, logger.NewNullLogger(), GetDefaultConfig())

	e := rootCategory("electronics")
	treeCache.On("Get", mock.Anything, forestCacheKey).Return(nil, assert.AnError).Once()
	treeCache.On("Set", mock.Anything, forestCacheKey, mock.Anything, mock.Anything).
		Return(assert.AnError).Once()
	repo.On("GetForest", mock.Anything, 9, true).Return([]models.Category{*e}, nil).Once()

	// A broken cache backend degrades to a repository read, never an error.
	tree, err := svc.GetTree(context.Background(), TreeOptions{})
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, e.ID, tree[0].ID)
	repo.AssertExpectations(t)
	treeCache.AssertExpectations(t)
}

func TestService_CreateCategory_InvalidatesTreeCache(t *testing.T) {
	svc, m := newTestService(t, nil)
	ctx := context.Background()
	e := rootCategory("electronics")

	m.repo.On("GetForest", mock.Anything, 9, true).
		Return([]models.Category{*e}, nil).Twice()
	m.txRepo.On("GetRoots", mock.Anything, false).Return([]models.Category{*e}, nil).Once()
	m.txRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	m.db.ExpectBegin()
	m.db.ExpectCommit()

	_, err := svc.GetTree(ctx, TreeOptions{})
	require.NoError(t, err)

	_, err = svc.CreateCategory(ctx, &CreateCategoryRequest{
		Name: models.LocalizedText{"en": "Books"},
	})
	require.NoError(t, err)

	// The forest listing was dropped on commit, so this goes back to the
	// repository instead of serving the stale cached tree.
	_, err = svc.GetTree(ctx, TreeOptions{})
	require.NoError(t, err)
	m.assertAll(t)
}

func TestService_GetDescendants_ExcludesSelf(t *testing.T) {
	svc, m := newTestService(t, nil)
	e := rootCategory("electronics")
	p := childCategory(e, "phones")
	a := childCategory(p, "android")
	a.IsActive = false

	m.repo.On("GetByID", mock.Anything, e.ID).Return(e, nil).Once()
	m.repo.On("GetSubtree", mock.Anything, "/electronics", -1, false).
		Return([]models.Category{*e, *p, *a}, nil).Once()

	descendants, err := svc.GetDescendants(context.Background(), e.ID)

	require.NoError(t, err)
	require.Len(t, descendants, 2)
	assert.Equal(t, p.ID, descendants[0].ID)
	assert.Equal(t, a.ID, descendants[1].ID)
	m.assertAll(t)
}

func TestService_GetAncestors_RootFirst(t *testing.T) {
	svc, m := newTestService(t, nil)
	a := rootCategory("electronics")
	b := childCategory(a, "phones")
	c := childCategory(b, "android")

	m.repo.On("GetByID", mock.Anything, c.ID).Return(c, nil).Once()
	m.repo.On("GetByID", mock.Anything, b.ID).Return(b, nil).Once()
	m.repo.On("GetByID", mock.Anything, a.ID).Return(a, nil).Once()

	ancestors, err := svc.GetAncestors(context.Background(), c.ID)

	require.NoError(t, err)
	require.Len(t, ancestors, 2)
	assert.Equal(t, a.ID, ancestors[0].ID)
	assert.Equal(t, b.ID, ancestors[1].ID)
	m.assertAll(t)
}

func TestService_GetAncestors_DanglingParent(t *testing.T) {
	svc, m := newTestService(t, nil)
	ghost := uuid.New()
	node := rootCategory("electronics")
	node.ParentID = &ghost
	node.Level = 1
	node.Path = "/ghost/electronics"

	m.repo.On("GetByID", mock.Anything, node.ID).Return(node, nil).Once()
	m.repo.On("GetByID", mock.Anything, ghost).Return(nil, gorm.ErrRecordNotFound).Once()

	_, err := svc.GetAncestors(context.Background(), node.ID)

	assert.ErrorIs(t, err, models.ErrCorruptHierarchy)
	m.assertAll(t)
}

func TestService_UpdateCategory_FieldChanges(t *testing.T) {
	svc, m := newTestService(t, nil)
	node := rootCategory("electronics")
	sortOrder := 5
	inactive := false

	m.repo.On("GetByID", mock.Anything, node.ID).Return(node, nil).Once()
	m.txRepo.On("GetByIDForUpdate", mock.Anything, node.ID).Return(copyOf(node), nil).Once()
	m.txRepo.On("Update", mock.Anything, mock.MatchedBy(func(c *models.Category) bool {
		return c.Name["en"] == "Home Electronics" && c.SortOrder == 5 && !c.IsActive
	})).Return(nil).Once()
	m.db.ExpectBegin()
	m.db.ExpectCommit()

	resp, err := svc.UpdateCategory(context.Background(), node.ID, &UpdateCategoryRequest{
		Name:      models.LocalizedText{"en": "Home Electronics"},
		SortOrder: &sortOrder,
		IsActive:  &inactive,
	})

	require.NoError(t, err)
	assert.Equal(t, "Home Electronics", resp.Name["en"])
	assert.Equal(t, 5, resp.SortOrder)
	assert.False(t, resp.IsActive)
	assert.Equal(t, "/electronics", resp.Path)
	m.txRepo.AssertNotCalled(t, "UpdateSubtreePaths",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.assertAll(t)
}

func TestService_UpdateCategory_SlugChangeReindexesSubtree(t *testing.T) {
	svc, m := newTestService(t, nil)
	node := rootCategory("electronics")

	m.repo.On("GetByID", mock.Anything, node.ID).Return(node, nil).Once()
	m.txRepo.On("GetByIDForUpdate", mock.Anything, node.ID).Return(copyOf(node), nil).Once()
	m.txRepo.On("GetRoots", mock.Anything, false).Return([]models.Category{*node}, nil).Once()
	m.txRepo.On("UpdateSubtreePaths", mock.Anything, "/electronics", "/gadgets", 0).
		Return(int64(3), nil).Once()
	m.txRepo.On("Update", mock.Anything, mock.MatchedBy(func(c *models.Category) bool {
		return c.Slug == "gadgets" && c.Path == "/gadgets" && c.Level == 0
	})).Return(nil).Once()
	m.db.ExpectBegin()
	m.db.ExpectCommit()

	resp, err := svc.UpdateCategory(context.Background(), node.ID, &UpdateCategoryRequest{
		Slugs: models.LocalizedText{"en": "gadgets"},
	})

	require.NoError(t, err)
	assert.Equal(t, "gadgets", resp.Slug)
	assert.Equal(t, "/gadgets", resp.Path)
	m.assertAll(t)
}

func TestService_UpdateCategory_ChildSlugChange(t *testing.T) {
	svc, m := newTestService(t, nil)
	parent := rootCategory("electronics")
	node := childCategory(parent, "phones")

	m.repo.On("GetByID", mock.Anything, node.ID).Return(node, nil).Once()
	m.txRepo.On("GetByIDForUpdate", mock.Anything, node.ID).Return(copyOf(node), nil).Once()
	m.txRepo.On("GetChildren", mock.Anything, parent.ID, false).
		Return([]models.Category{*node}, nil).Once()
	m.txRepo.On("UpdateSubtreePaths", mock.Anything, "/electronics/phones", "/electronics/mobiles", 0).
		Return(int64(4), nil).Once()
	m.txRepo.On("Update", mock.Anything, mock.MatchedBy(func(c *models.Category) bool {
		return c.Slug == "mobiles" && c.Path == "/electronics/mobiles" && c.Level == 1
	})).Return(nil).Once()
	m.db.ExpectBegin()
	m.db.ExpectCommit()

	resp, err := svc.UpdateCategory(context.Background(), node.ID, &UpdateCategoryRequest{
		Slugs: models.LocalizedText{"en": "mobiles"},
	})

	require.NoError(t, err)
	assert.Equal(t, "/electronics/mobiles", resp.Path)
	m.assertAll(t)
}

func TestService_UpdateCategory_SlugTaken(t *testing.T) {
	svc, m := newTestService(t, nil)
	node := rootCategory("electronics")
	other := rootCategory("gadgets")

	m.repo.On("GetByID", mock.Anything, node.ID).Return(node, nil).Once()
	m.txRepo.On("GetByIDForUpdate", mock.Anything, node.ID).Return(copyOf(node), nil).Once()
	m.txRepo.On("GetRoots", mock.Anything, false).
		Return([]models.Category{*node, *other}, nil).Once()
	m.db.ExpectBegin()
	m.db.ExpectRollback()

	_, err := svc.UpdateCategory(context.Background(), node.ID, &UpdateCategoryRequest{
		Slugs: models.LocalizedText{"en": "gadgets"},
	})

	assert.ErrorIs(t, err, models.ErrSlugTaken)
	m.txRepo.AssertNotCalled(t, "UpdateSubtreePaths",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.assertAll(t)
}

func TestService_UpdateCategory_EmptyName(t *testing.T) {
	svc, m := newTestService(t, nil)
	node := rootCategory("electronics")

	m.repo.On("GetByID", mock.Anything, node.ID).Return(node, nil).Once()
	m.txRepo.On("GetByIDForUpdate", mock.Anything, node.ID).Return(copyOf(node), nil).Once()
	m.db.ExpectBegin()
	m.db.ExpectRollback()

	_, err := svc.UpdateCategory(context.Background(), node.ID, &UpdateCategoryRequest{
		Name: models.LocalizedText{},
	})

	assert.ErrorIs(t, err, models.ErrInvalidCategoryName)
	m.assertAll(t)
}

func TestService_UpdateCategory_NotFound(t *testing.T) {
	svc, m := newTestService(t, nil)
	missing := uuid.New()

	m.repo.On("GetByID", mock.Anything, missing).Return(nil, gorm.ErrRecordNotFound).Once()

	_, err := svc.UpdateCategory(context.Background(), missing, &UpdateCategoryRequest{})

	assert.ErrorIs(t, err, models.ErrRecordNotFound)
	m.assertAll(t)
}

func TestService_MoveCategory_UnderNewParent(t *testing.T) {
	svc, m := newTestService(t, nil)
	ctx := context.Background()
	a := rootCategory("accessories")
	b := rootCategory("batteries")
	b.TotalContentCount = 3
	c := childCategory(b, "chargers")

	m.repo.On("GetByID", mock.Anything, b.ID).Return(b, nil).Once()
	m.repo.On("GetByID", mock.Anything, a.ID).Return(a, nil).Once()
	m.txRepo.On("GetByIDForUpdate", mock.Anything, b.ID).Return(copyOf(b), nil).Once()
	m.txRepo.On("GetByIDForUpdate", mock.Anything, a.ID).Return(copyOf(a), nil).Once()
	m.txRepo.On("GetSubtree", mock.Anything, "/batteries", -1, false).
		Return([]models.Category{*b, *c}, nil).Once()
	m.txRepo.On("GetChildren", mock.Anything, a.ID, false).Return([]models.Category{}, nil).Once()
	m.txRepo.On("UpdateSubtreePaths", mock.Anything, "/batteries", "/accessories/batteries", 1).
		Return(int64(2), nil).Once()
	m.txRepo.On("IncrementTotalContentCountForPaths", mock.Anything, []string(nil), -3).
		Return(nil).Once()
	m.txRepo.On("IncrementTotalContentCountForPaths", mock.Anything, []string{"/accessories"}, 3).
		Return(nil).Once()
	m.txRepo.On("IncrementSubcategoryCount", mock.Anything, a.ID, 1).Return(nil).Once()
	m.txRepo.On("Update", mock.Anything, mock.MatchedBy(func(cat *models.Category) bool {
		return cat.ID == b.ID && cat.Level == 1 && cat.Path == "/accessories/batteries" &&
			cat.ParentID != nil && *cat.ParentID == a.ID
	})).Return(nil).Once()
	m.db.ExpectBegin()
	m.db.ExpectCommit()

	resp, err := svc.MoveCategory(ctx, b.ID, &MoveCategoryRequest{NewParentID: &a.ID})

	require.NoError(t, err)
	assert.Equal(t, "/accessories/batteries", resp.Path)
	assert.Equal(t, 1, resp.Level)
	require.NotNil(t, resp.ParentID)
	assert.Equal(t, a.ID, *resp.ParentID)
	m.assertAll(t)
}

func TestService_MoveCategory_DetachToRoot(t *testing.T) {
	svc, m := newTestService(t, nil)
	ctx := context.Background()
	a := rootCategory("accessories")
	b := childCategory(a, "batteries")
	b.TotalContentCount = 2
	c := childCategory(b, "chargers")

	m.repo.On("GetByID", mock.Anything, b.ID).Return(b, nil).Once()
	m.txRepo.On("GetByIDForUpdate", mock.Anything, b.ID).Return(copyOf(b), nil).Once()
	m.txRepo.On("GetSubtree", mock.Anything, "/accessories/batteries", -1, false).
		Return([]models.Category{*b, *c}, nil).Once()
	m.txRepo.On("GetRoots", mock.Anything, false).Return([]models.Category{*a}, nil).Once()
	m.txRepo.On("UpdateSubtreePaths", mock.Anything, "/accessories/batteries", "/batteries", -1).
		Return(int64(2), nil).Once()
	m.txRepo.On("IncrementTotalContentCountForPaths", mock.Anything, []string{"/accessories"}, -2).
		Return(nil).Once()
	m.txRepo.On("IncrementTotalContentCountForPaths", mock.Anything, []string(nil), 2).
		Return(nil).Once()
	m.txRepo.On("IncrementSubcategoryCount", mock.Anything, a.ID, -1).Return(nil).Once()
	m.txRepo.On("Update", mock.Anything, mock.MatchedBy(func(cat *models.Category) bool {
		return cat.ID == b.ID && cat.Level == 0 && cat.Path == "/batteries" && cat.ParentID == nil
	})).Return(nil).Once()
	m.db.ExpectBegin()
	m.db.ExpectCommit()

	resp, err := svc.MoveCategory(ctx, b.ID, &MoveCategoryRequest{})

	// The inverse of moving a root under a parent: path, level and parent
	// all return to their pre-move values.
	require.NoError(t, err)
	assert.Equal(t, "/batteries", resp.Path)
	assert.Equal(t, 0, resp.Level)
	assert.Nil(t, resp.ParentID)
	m.assertAll(t)
}

func TestService_MoveCategory_IntoOwnSubtree(t *testing.T) {
	svc, m := newTestService(t, nil)
	a := rootCategory("audio")
	b := childCategory(a, "speakers")
	c := childCategory(b, "woofers")

	m.repo.On("GetByID", mock.Anything, a.ID).Return(a, nil).Once()
	m.repo.On("GetByID", mock.Anything, c.ID).Return(c, nil).Once()
	m.txRepo.On("GetByIDForUpdate", mock.Anything, a.ID).Return(copyOf(a), nil).Once()
	m.txRepo.On("GetByIDForUpdate", mock.Anything, c.ID).Return(copyOf(c), nil).Once()
	m.txRepo.On("GetByID", mock.Anything, b.ID).Return(b, nil).Once()
	m.db.ExpectBegin()
	m.db.ExpectRollback()

	_, err := svc.MoveCategory(context.Background(), a.ID, &MoveCategoryRequest{NewParentID: &c.ID})

	assert.ErrorIs(t, err, models.ErrCircularReference)
	m.assertAll(t)
}

func TestService_MoveCategory_SelfParent(t *testing.T) {
	svc, m := newTestService(t, nil)
	a := rootCategory("audio")

	m.repo.On("GetByID", mock.Anything, a.ID).Return(a, nil).Once()

	_, err := svc.MoveCategory(context.Background(), a.ID, &MoveCategoryRequest{NewParentID: &a.ID})

	assert.ErrorIs(t, err, models.ErrCircularReference)
	m.assertAll(t)
}

func TestService_MoveCategory_SameParentNoOp(t *testing.T) {
	svc, m := newTestService(t, nil)
	a := rootCategory("audio")
	b := childCategory(a, "speakers")

	m.repo.On("GetByID", mock.Anything, b.ID).Return(b, nil).Once()
	m.repo.On("GetByID", mock.Anything, a.ID).Return(a, nil).Once()
	m.txRepo.On("GetByIDForUpdate", mock.Anything, b.ID).Return(copyOf(b), nil).Once()
	m.txRepo.On("GetByIDForUpdate", mock.Anything, a.ID).Return(copyOf(a), nil).Once()
	m.db.ExpectBegin()
	m.db.ExpectCommit()

	resp, err := svc.MoveCategory(context.Background(), b.ID, &MoveCategoryRequest{NewParentID: &a.ID})

	require.NoError(t, err)
	assert.Equal(t, "/audio/speakers", resp.Path)
	assert.Equal(t, 1, resp.Level)
	m.txRepo.AssertNotCalled(t, "UpdateSubtreePaths",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.assertAll(t)
}

func TestService_MoveCategory_TargetInactive(t *testing.T) {
	svc, m := newTestService(t, nil)
	archive := rootCategory("archive")
	archive.IsActive = false
	b := rootCategory("batteries")

	m.repo.On("GetByID", mock.Anything, b.ID).Return(b, nil).Once()
	m.repo.On("GetByID", mock.Anything, archive.ID).Return(archive, nil).Once()
	m.txRepo.On("GetByIDForUpdate", mock.Anything, b.ID).Return(copyOf(b), nil).Once()
	m.txRepo.On("GetByIDForUpdate", mock.Anything, archive.ID).Return(copyOf(archive), nil).Once()
	m.db.ExpectBegin()
	m.db.ExpectRollback()

	_, err := svc.MoveCategory(context.Background(), b.ID, &MoveCategoryRequest{NewParentID: &archive.ID})

	assert.ErrorIs(t, err, models.ErrMoveTargetInactive)
	m.assertAll(t)
}

func TestService_MoveCategory_MaxDepthExceeded(t *testing.T) {
	config := GetDefaultConfig()
	config.MaxDepth = 3
	svc, m := newTestService(t, config)
	x := rootCategory("x")
	y := childCategory(x, "y")
	b := rootCategory("batteries")
	c := childCategory(b, "chargers")

	m.repo.On("GetByID", mock.Anything, b.ID).Return(b, nil).Once()
	m.repo.On("GetByID", mock.Anything, y.ID).Return(y, nil).Once()
	m.txRepo.On("GetByIDForUpdate", mock.Anything, b.ID).Return(copyOf(b), nil).Once()
	m.txRepo.On("GetByIDForUpdate", mock.Anything, y.ID).Return(copyOf(y), nil).Once()
	m.txRepo.On("GetByID", mock.Anything, x.ID).Return(x, nil).Once()
	m.txRepo.On("GetSubtree", mock.Anything, "/batteries", -1, false).
		Return([]models.Category{*b, *c}, nil).Once()
	m.db.ExpectBegin()
	m.db.ExpectRollback()

	_, err := svc.MoveCategory(context.Background(), b.ID, &MoveCategoryRequest{NewParentID: &y.ID})

	assert.ErrorIs(t, err, models.ErrMaxDepthExceeded)
	m.assertAll(t)
}

func TestService_MoveCategory_DestinationSlugTaken(t *testing.T) {
	svc, m := newTestService(t, nil)
	a := rootCategory("accessories")
	existing := childCategory(a, "batteries")
	b := rootCategory("batteries")

	m.repo.On("GetByID", mock.Anything, b.ID).Return(b, nil).Once()
	m.repo.On("GetByID", mock.Anything, a.ID).Return(a, nil).Once()
	m.txRepo.On("GetByIDForUpdate", mock.Anything, b.ID).Return(copyOf(b), nil).Once()
	m.txRepo.On("GetByIDForUpdate", mock.Anything, a.ID).Return(copyOf(a), nil).Once()
	m.txRepo.On("GetSubtree", mock.Anything, "/batteries", -1, false).
		Return([]models.Category{*b}, nil).Once()
	m.txRepo.On("GetChildren", mock.Anything, a.ID, false).
		Return([]models.Category{*existing}, nil).Once()
	m.db.ExpectBegin()
	m.db.ExpectRollback()

	_, err := svc.MoveCategory(context.Background(), b.ID, &MoveCategoryRequest{NewParentID: &a.ID})

	assert.ErrorIs(t, err, models.ErrSlugTaken)
	m.txRepo.AssertNotCalled(t, "UpdateSubtreePaths",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.assertAll(t)
}

func TestService_MoveCategory_TargetNotFound(t *testing.T) {
	svc, m := newTestService(t, nil)
	b := rootCategory("batteries")
	missing := uuid.New()

	m.repo.On("GetByID", mock.Anything, b.ID).Return(b, nil).Once()
	m.repo.On("GetByID", mock.Anything, missing).Return(nil, gorm.ErrRecordNotFound).Once()

	_, err := svc.MoveCategory(context.Background(), b.ID, &MoveCategoryRequest{NewParentID: &missing})

	assert.ErrorIs(t, err, models.ErrRecordNotFound)
	m.assertAll(t)
}

func TestService_MoveCategory_BusyWhenDestinationLocked(t *testing.T) {
	config := GetDefaultConfig()
	config.LockTimeout = 30 * time.Millisecond
	svc, m := newTestService(t, config)
	ctx := context.Background()
	a := rootCategory("accessories")
	b := rootCategory("batteries")

	release, err := svc.locks.Acquire(ctx, time.Second, "accessories")
	require.NoError(t, err)
	defer release()

	m.repo.On("GetByID", mock.Anything, b.ID).Return(b, nil).Once()
	m.repo.On("GetByID", mock.Anything, a.ID).Return(a, nil).Once()

	_, err = svc.MoveCategory(ctx, b.ID, &MoveCategoryRequest{NewParentID: &a.ID})

	assert.ErrorIs(t, err, models.ErrHierarchyBusy)
	m.assertAll(t)
}

func TestService_DeleteCategory_Leaf(t *testing.T) {
	svc, m := newTestService(t, nil)
	e := rootCategory("electronics")
	p := childCategory(e, "phones")

	m.repo.On("GetByID", mock.Anything, p.ID).Return(p, nil).Once()
	m.txRepo.On("GetByIDForUpdate", mock.Anything, p.ID).Return(copyOf(p), nil).Once()
	m.txRepo.On("CountChildren", mock.Anything, p.ID).Return(int64(0), nil).Once()
	m.txRepo.On("CountContents", mock.Anything, p.ID).Return(int64(0), nil).Once()
	m.txRepo.On("Delete", mock.Anything, p.ID).Return(nil).Once()
	m.txRepo.On("IncrementSubcategoryCount", mock.Anything, e.ID, -1).Return(nil).Once()
	m.txRepo.On("IncrementTotalContentCountForPaths", mock.Anything, []string{"/electronics"}, 0).
		Return(nil).Once()
	m.db.ExpectBegin()
	m.db.ExpectCommit()

	// Empty policy falls back to the configured default, reject_if_children.
	err := svc.DeleteCategory(context.Background(), p.ID, "")

	require.NoError(t, err)
	m.assertAll(t)
}

func TestService_DeleteCategory_RejectWithChildren(t *testing.T) {
	svc, m := newTestService(t, nil)
	node := rootCategory("electronics")

	m.repo.On("GetByID", mock.Anything, node.ID).Return(node, nil).Once()
	m.txRepo.On("GetByIDForUpdate", mock.Anything, node.ID).Return(copyOf(node), nil).Once()
	m.txRepo.On("CountChildren", mock.Anything, node.ID).Return(int64(2), nil).Once()
	m.db.ExpectBegin()
	m.db.ExpectRollback()

	err := svc.DeleteCategory(context.Background(), node.ID, models.CascadeRejectIfChildren)

	assert.ErrorIs(t, err, models.ErrCategoryHasChildren)
	m.assertAll(t)
}

func TestService_DeleteCategory_RejectWithContent(t *testing.T) {
	svc, m := newTestService(t, nil)
	node := rootCategory("electronics")

	m.repo.On("GetByID", mock.Anything, node.ID).Return(node, nil).Once()
	m.txRepo.On("GetByIDForUpdate", mock.Anything, node.ID).Return(copyOf(node), nil).Once()
	m.txRepo.On("CountChildren", mock.Anything, node.ID).Return(int64(0), nil).Once()
	m.txRepo.On("CountContents", mock.Anything, node.ID).Return(int64(3), nil).Once()
	m.db.ExpectBegin()
	m.db.ExpectRollback()

	err := svc.DeleteCategory(context.Background(), node.ID, models.CascadeRejectIfChildren)

	assert.ErrorIs(t, err, models.ErrCategoryHasContent)
	m.assertAll(t)
}

func TestService_DeleteCategory_CascadeSubtree(t *testing.T) {
	svc, m := newTestService(t, nil)
	e := rootCategory("electronics")
	p := childCategory(e, "phones")
	p.TotalContentCount = 5

	m.repo.On("GetByID", mock.Anything, p.ID).Return(p, nil).Once()
	m.txRepo.On("GetByIDForUpdate", mock.Anything, p.ID).Return(copyOf(p), nil).Once()
	m.txRepo.On("DeleteSubtreeContents", mock.Anything, "/electronics/phones").
		Return(int64(5), nil).Once()
	m.txRepo.On("DeleteSubtree", mock.Anything, "/electronics/phones").
		Return(int64(3), nil).Once()
	m.txRepo.On("IncrementSubcategoryCount", mock.Anything, e.ID, -1).Return(nil).Once()
	m.txRepo.On("IncrementTotalContentCountForPaths", mock.Anything, []string{"/electronics"}, -5).
		Return(nil).Once()
	m.db.ExpectBegin()
	m.db.ExpectCommit()

	err := svc.DeleteCategory(context.Background(), p.ID, models.CascadeDeleteSubtree)

	require.NoError(t, err)
	m.assertAll(t)
}

func TestService_DeleteCategory_ReparentChildren(t *testing.T) {
	svc, m := newTestService(t, nil)
	g := rootCategory("gear")
	n := childCategory(g, "cameras")
	c1 := childCategory(n, "lenses")
	c2 := childCategory(n, "tripods")

	m.repo.On("GetByID", mock.Anything, n.ID).Return(n, nil).Once()
	m.txRepo.On("GetByIDForUpdate", mock.Anything, n.ID).Return(copyOf(n), nil).Once()
	m.txRepo.On("CountContents", mock.Anything, n.ID).Return(int64(0), nil).Once()
	m.txRepo.On("GetChildren", mock.Anything, n.ID, false).
		Return([]models.Category{*c1, *c2}, nil).Once()
	m.txRepo.On("GetChildren", mock.Anything, g.ID, false).
		Return([]models.Category{*n}, nil).Once()
	m.txRepo.On("UpdateSubtreePaths", mock.Anything, "/gear/cameras/lenses", "/gear/lenses", -1).
		Return(int64(1), nil).Once()
	m.txRepo.On("UpdateSubtreePaths", mock.Anything, "/gear/cameras/tripods", "/gear/tripods", -1).
		Return(int64(1), nil).Once()
	m.txRepo.On("Update", mock.Anything, mock.MatchedBy(func(c *models.Category) bool {
		return c.ID == c1.ID && c.Path == "/gear/lenses" && c.Level == 1 &&
			c.ParentID != nil && *c.ParentID == g.ID
	})).Return(nil).Once()
	m.txRepo.On("Update", mock.Anything, mock.MatchedBy(func(c *models.Category) bool {
		return c.ID == c2.ID && c.Path == "/gear/tripods" && c.Level == 1 &&
			c.ParentID != nil && *c.ParentID == g.ID
	})).Return(nil).Once()
	m.txRepo.On("Delete", mock.Anything, n.ID).Return(nil).Once()
	// The parent lost one child and gained two.
	m.txRepo.On("IncrementSubcategoryCount", mock.Anything, g.ID, 1).Return(nil).Once()
	m.db.ExpectBegin()
	m.db.ExpectCommit()

	err := svc.DeleteCategory(context.Background(), n.ID, models.CascadeReparentChildren)

	require.NoError(t, err)
	m.assertAll(t)
}

func TestService_DeleteCategory_ReparentRejectsDirectContent(t *testing.T) {
	svc, m := newTestService(t, nil)
	g := rootCategory("gear")
	n := childCategory(g, "cameras")

	m.repo.On("GetByID", mock.Anything, n.ID).Return(n, nil).Once()
	m.txRepo.On("GetByIDForUpdate", mock.Anything, n.ID).Return(copyOf(n), nil).Once()
	m.txRepo.On("CountContents", mock.Anything, n.ID).Return(int64(4), nil).Once()
	m.db.ExpectBegin()
	m.db.ExpectRollback()

	err := svc.DeleteCategory(context.Background(), n.ID, models.CascadeReparentChildren)

	assert.ErrorIs(t, err, models.ErrCategoryHasContent)
	m.assertAll(t)
}

func TestService_DeleteCategory_InvalidPolicy(t *testing.T) {
	svc, m := newTestService(t, nil)

	err := svc.DeleteCategory(context.Background(), uuid.New(), models.CascadePolicy("drop_everything"))

	assert.ErrorIs(t, err, models.ErrInvalidCascadePolicy)
	m.repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	m.assertAll(t)
}

func TestService_DeleteCategory_NotFound(t *testing.T) {
	svc, m := newTestService(t, nil)
	missing := uuid.New()

	m.repo.On("GetByID", mock.Anything, missing).Return(nil, gorm.ErrRecordNotFound).Once()

	err := svc.DeleteCategory(context.Background(), missing, models.CascadeRejectIfChildren)

	assert.ErrorIs(t, err, models.ErrRecordNotFound)
	m.assertAll(t)
}

func TestService_DeleteCategory_BusyWhenRootLocked(t *testing.T) {
	config := GetDefaultConfig()
	config.LockTimeout = 30 * time.Millisecond
	svc, m := newTestService(t, config)
	ctx := context.Background()
	e := rootCategory("electronics")
	p := childCategory(e, "phones")

	release, err := svc.locks.Acquire(ctx, time.Second, "electronics")
	require.NoError(t, err)
	defer release()

	m.repo.On("GetByID", mock.Anything, p.ID).Return(p, nil).Once()

	err = svc.DeleteCategory(ctx, p.ID, models.CascadeRejectIfChildren)

	assert.ErrorIs(t, err, models.ErrHierarchyBusy)
	m.assertAll(t)
}

func TestService_RecomputeStats_RepairsSubtree(t *testing.T) {
	svc, m := newTestService(t, nil)
	e := rootCategory("electronics")
	p := childCategory(e, "phones")
	counts := map[uuid.UUID]int{e.ID: 1, p.ID: 2}

	m.repo.On("GetByID", mock.Anything, e.ID).Return(e, nil).Once()
	m.txRepo.On("GetSubtree", mock.Anything, "/electronics", -1, false).
		Return([]models.Category{*e, *p}, nil).Once()
	m.txRepo.On("ContentCountsForSubtree", mock.Anything, "/electronics").
		Return(counts, nil).Once()
	m.txRepo.On("SetCounters", mock.Anything, e.ID, 1, 1, 3).Return(nil).Once()
	m.txRepo.On("SetCounters", mock.Anything, p.ID, 2, 0, 2).Return(nil).Once()
	m.db.ExpectBegin()
	m.db.ExpectCommit()

	report, err := svc.RecomputeStats(context.Background(), &e.ID)

	require.NoError(t, err)
	assert.Equal(t, 2, report.ScannedNodes)
	assert.Equal(t, 2, report.RepairedNodes)
	m.assertAll(t)
}

func TestService_RecomputeStats_IdempotentWhenConsistent(t *testing.T) {
	svc, m := newTestService(t, nil)
	e := rootCategory("electronics")
	e.ContentCount = 1
	e.SubcategoryCount = 1
	e.TotalContentCount = 3
	p := childCategory(e, "phones")
	p.ContentCount = 2
	p.TotalContentCount = 2

	m.repo.On("GetByID", mock.Anything, e.ID).Return(e, nil).Once()
	m.txRepo.On("GetSubtree", mock.Anything, "/electronics", -1, false).
		Return([]models.Category{*e, *p}, nil).Once()
	m.txRepo.On("ContentCountsForSubtree", mock.Anything, "/electronics").
		Return(map[uuid.UUID]int{e.ID: 1, p.ID: 2}, nil).Once()
	m.db.ExpectBegin()
	m.db.ExpectCommit()

	report, err := svc.RecomputeStats(context.Background(), &e.ID)

	require.NoError(t, err)
	assert.Equal(t, 2, report.ScannedNodes)
	assert.Zero(t, report.RepairedNodes)
	m.txRepo.AssertNotCalled(t, "SetCounters",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.assertAll(t)
}

func TestService_RecomputeStats_AllRoots(t *testing.T) {
	svc, m := newTestService(t, nil)
	e := rootCategory("electronics")
	b := rootCategory("books")

	m.repo.On("GetRoots", mock.Anything, false).Return([]models.Category{*e, *b}, nil).Once()
	m.txRepo.On("GetSubtree", mock.Anything, "/electronics", -1, false).
		Return([]models.Category{*e}, nil).Once()
	m.txRepo.On("ContentCountsForSubtree", mock.Anything, "/electronics").
		Return(map[uuid.UUID]int{}, nil).Once()
	m.txRepo.On("GetSubtree", mock.Anything, "/books", -1, false).
		Return([]models.Category{*b}, nil).Once()
	m.txRepo.On("ContentCountsForSubtree", mock.Anything, "/books").
		Return(map[uuid.UUID]int{}, nil).Once()
	m.db.ExpectBegin()
	m.db.ExpectCommit()
	m.db.ExpectBegin()
	m.db.ExpectCommit()

	report, err := svc.RecomputeStats(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, 2, report.ScannedNodes)
	assert.Zero(t, report.RepairedNodes)
	m.assertAll(t)
}

func TestService_RecomputeStats_BusyWhenRootLocked(t *testing.T) {
	config := GetDefaultConfig()
	config.LockTimeout = 30 * time.Millisecond
	svc, m := newTestService(t, config)
	ctx := context.Background()
	e := rootCategory("electronics")

	release, err := svc.locks.Acquire(ctx, time.Second, "electronics")
	require.NoError(t, err)
	defer release()

	m.repo.On("GetByID", mock.Anything, e.ID).Return(e, nil).Once()

	_, err = svc.RecomputeStats(ctx, &e.ID)

	assert.ErrorIs(t, err, models.ErrHierarchyBusy)
	m.assertAll(t)
}

func TestService_VerifyHierarchy_Clean(t *testing.T) {
	svc, m := newTestService(t, nil)
	e := rootCategory("electronics")
	p := childCategory(e, "phones")

	m.repo.On("GetForest", mock.Anything, -1, false).
		Return([]models.Category{*e, *p}, nil).Once()

	report, err := svc.VerifyHierarchy(context.Background())

	require.NoError(t, err)
	assert.True(t, report.Clean())
	assert.Equal(t, 2, report.ScannedNodes)
	m.assertAll(t)
}

func TestService_VerifyHierarchy_ReportsCorruption(t *testing.T) {
	svc, m := newTestService(t, nil)
	e := rootCategory("electronics")
	p := childCategory(e, "phones")
	p.Level = 3

	m.repo.On("GetForest", mock.Anything, -1, false).
		Return([]models.Category{*e, *p}, nil).Once()

	report, err := svc.VerifyHierarchy(context.Background())

	require.NoError(t, err)
	assert.False(t, report.Clean())
	assert.NotEmpty(t, report.Issues)
	m.assertAll(t)
}
