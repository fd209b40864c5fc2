package categories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/arborcms/arbor/internal/cache"
	"github.com/arborcms/arbor/internal/formatter"
	"github.com/arborcms/arbor/internal/logger"
	"github.com/arborcms/arbor/internal/validator"
	"github.com/arborcms/arbor/models"
)

// forestCacheKey holds the cached full-forest listing. Single-root listings
// use "subtree:" + root slug. Only the default shape (full depth, active
// only) is cached; other shapes always hit the database.
const forestCacheKey = "forest"

// service implements the Service interface
type service struct {
	db        *gorm.DB
	repo      Repository
	treeCache cache.Cache[[]*TreeNode]
	locks     *hierarchyLocks
	flight    singleflight.Group
	logger    logger.Logger
	config    *Config
}

// NewService creates a new category hierarchy service
func NewService(db *gorm.DB, repo Repository, treeCache cache.Cache[[]*TreeNode], log logger.Logger, config *Config) Service {
	return &service{
		db:        db,
		repo:      repo,
		treeCache: treeCache,
		locks:     newHierarchyLocks(),
		logger:    log,
		config:    config,
	}
}

// CreateCategory creates a new category, optionally under a parent. The
// operation holds the subtree-root lock while it validates the parent,
// checks sibling slugs, inserts the node and bumps the parent's child
// counter.
func (s *service) CreateCategory(ctx context.Context, req *CreateCategoryRequest) (*CategoryResponse, error) {
	if req.Name.IsEmpty() {
		return nil, models.ErrInvalidCategoryName
	}
	slugs, canonical, err := s.resolveSlugs(req.Name, req.Slugs)
	if err != nil {
		return nil, err
	}

	// The lock key is the root slug of the tree being modified. For a new
	// root that is the node's own slug. The parent read here is only for
	// key derivation; it is re-read and re-validated under the lock.
	lockKey := canonical
	if req.ParentID != nil {
		parent, err := s.repo.GetByID(ctx, *req.ParentID)
		if err != nil {
			return nil, mapNotFound(err)
		}
		lockKey = RootSegment(parent.Path)
	}
	release, err := s.locks.Acquire(ctx, s.config.LockTimeout, lockKey)
	if err != nil {
		return nil, err
	}
	defer release()

	var created *models.Category
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repoTx := s.repo.WithTx(tx)

		var parent *models.Category
		if req.ParentID != nil {
			p, err := repoTx.GetByIDForUpdate(ctx, *req.ParentID)
			if err != nil {
				return mapNotFound(err)
			}
			if !p.IsActive && !s.config.AllowInactiveParent {
				return models.ErrParentInactive
			}
			parent = p
		}

		level, parentPath := 0, ""
		if parent != nil {
			level = parent.Level + 1
			parentPath = parent.Path
		}
		if exceedsMaxDepth(level-1, 1, s.config.MaxDepth) {
			return models.ErrMaxDepthExceeded
		}

		siblings, err := getSiblings(ctx, repoTx, req.ParentID)
		if err != nil {
			return err
		}
		if slugConflicts(siblings, slugs, canonical) {
			return models.ErrSlugTaken
		}

		active := true
		if req.IsActive != nil {
			active = *req.IsActive
		}

		category := &models.Category{
			ParentID:    req.ParentID,
			Level:       level,
			Path:        ChildPath(parentPath, canonical),
			Slug:        canonical,
			Name:        req.Name,
			Description: req.Description,
			Slugs:       slugs,
			SortOrder:   req.SortOrder,
			IsActive:    active,
		}
		if err := category.Validate(); err != nil {
			return err
		}
		if err := repoTx.Create(ctx, category); err != nil {
			return err
		}

		if parent != nil {
			if err := repoTx.IncrementSubcategoryCount(ctx, parent.ID, 1); err != nil {
				return fmt.Errorf("increment subcategory count: %w", err)
			}
		}
		created = category
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateTreeCache(RootSegment(created.Path))
	return ToCategoryResponse(created), nil
}

// GetCategory returns a category by ID
func (s *service) GetCategory(ctx context.Context, id uuid.UUID) (*CategoryResponse, error) {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return ToCategoryResponse(category), nil
}

// GetCategoryByPath returns a category by its materialized path
func (s *service) GetCategoryByPath(ctx context.Context, path string) (*CategoryResponse, error) {
	if !strings.HasPrefix(path, models.PathSeparator) {
		path = models.PathSeparator + path
	}
	category, err := s.repo.GetByPath(ctx, path)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return ToCategoryResponse(category), nil
}

// GetChildren returns the direct children of a category, or all roots when
// parentID is nil.
func (s *service) GetChildren(ctx context.Context, parentID *uuid.UUID, includeInactive bool) ([]CategoryResponse, error) {
	if parentID == nil {
		roots, err := s.repo.GetRoots(ctx, !includeInactive)
		if err != nil {
			return nil, err
		}
		return ToCategoryResponseList(roots), nil
	}

	if _, err := s.repo.GetByID(ctx, *parentID); err != nil {
		return nil, mapNotFound(err)
	}
	children, err := s.repo.GetChildren(ctx, *parentID, !includeInactive)
	if err != nil {
		return nil, err
	}
	return ToCategoryResponseList(children), nil
}

// GetTree returns nested category trees. With a nil RootID every root tree
// is returned; otherwise only the subtree below the given node. Results for
// the default shape are cached per root and rebuilt behind a singleflight so
// a cold cache triggers one query, not one per waiting caller.
func (s *service) GetTree(ctx context.Context, opts TreeOptions) ([]*TreeNode, error) {
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 || maxDepth > s.config.MaxDepth {
		maxDepth = s.config.MaxDepth
	}
	defaultShape := maxDepth == s.config.MaxDepth && !opts.IncludeInactive

	if opts.RootID == nil {
		load := func(ctx context.Context) ([]*TreeNode, error) {
			rows, err := s.repo.GetForest(ctx, maxDepth-1, !opts.IncludeInactive)
			if err != nil {
				return nil, err
			}
			return buildTree(rows, uuid.Nil), nil
		}
		if !defaultShape {
			return load(ctx)
		}
		return s.cachedTree(ctx, forestCacheKey, load)
	}

	root, err := s.repo.GetByID(ctx, *opts.RootID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	load := func(ctx context.Context) ([]*TreeNode, error) {
		rows, err := s.repo.GetSubtree(ctx, root.Path, root.Level+maxDepth-1, !opts.IncludeInactive)
		if err != nil {
			return nil, err
		}
		return buildTree(rows, root.ID), nil
	}
	// Only whole root trees are cached; there is no bounded key space for
	// arbitrary interior nodes.
	if !defaultShape || !root.IsRoot() {
		return load(ctx)
	}
	return s.cachedTree(ctx, subtreeCacheKey(root.Slug), load)
}

// GetDescendants returns every node below the given category, ordered by
// level then sort_order. Inactive descendants are included: this is a
// structural listing, not a display one.
func (s *service) GetDescendants(ctx context.Context, id uuid.UUID) ([]CategoryResponse, error) {
	node, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	rows, err := s.repo.GetSubtree(ctx, node.Path, -1, false)
	if err != nil {
		return nil, err
	}
	descendants := make([]CategoryResponse, 0, len(rows))
	for i := range rows {
		if rows[i].ID == node.ID {
			continue
		}
		descendants = append(descendants, *ToCategoryResponse(&rows[i]))
	}
	return descendants, nil
}

// GetAncestors returns the ancestor chain of a category ordered root-first.
// The chain is walked through parent pointers so a corrupted hierarchy is
// detected instead of silently producing a wrong answer.
func (s *service) GetAncestors(ctx context.Context, id uuid.UUID) ([]CategoryResponse, error) {
	node, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	chain, err := s.ancestorChain(ctx, s.repo, node)
	if err != nil {
		return nil, err
	}
	return ToCategoryResponseList(chain), nil
}

// UpdateCategory applies non-structural field changes. A slug change that
// alters the default-language path segment triggers a subtree reindex, since
// the slug is part of every descendant's path.
func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, req *UpdateCategoryRequest) (*CategoryResponse, error) {
	node, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	oldRoot := RootSegment(node.Path)

	release, err := s.locks.Acquire(ctx, s.config.LockTimeout, oldRoot)
	if err != nil {
		return nil, err
	}
	defer release()

	var updated *models.Category
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repoTx := s.repo.WithTx(tx)
		fresh, err := repoTx.GetByIDForUpdate(ctx, id)
		if err != nil {
			return mapNotFound(err)
		}

		if req.Name != nil {
			if req.Name.IsEmpty() {
				return models.ErrInvalidCategoryName
			}
			fresh.Name = req.Name
		}
		if req.Description != nil {
			fresh.Description = req.Description
		}
		if req.SortOrder != nil {
			fresh.SortOrder = *req.SortOrder
		}
		if req.IsActive != nil {
			fresh.IsActive = *req.IsActive
		}

		if req.Slugs != nil {
			slugs, canonical, err := s.resolveSlugs(fresh.Name, req.Slugs)
			if err != nil {
				return err
			}

			siblings, err := getSiblings(ctx, repoTx, fresh.ParentID)
			if err != nil {
				return err
			}
			if slugConflicts(siblings, slugs, canonical, fresh.ID) {
				return models.ErrSlugTaken
			}

			fresh.Slugs = slugs
			if canonical != fresh.Slug {
				oldPath := fresh.Path
				parentPath := strings.TrimSuffix(oldPath, models.PathSeparator+fresh.Slug)
				newPath := ChildPath(parentPath, canonical)
				if _, err := repoTx.UpdateSubtreePaths(ctx, oldPath, newPath, 0); err != nil {
					return fmt.Errorf("reindex subtree: %w", err)
				}
				fresh.Slug = canonical
				fresh.Path = newPath
			}
		}

		if err := fresh.Validate(); err != nil {
			return err
		}
		if err := repoTx.Update(ctx, fresh); err != nil {
			return err
		}
		updated = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateTreeCache(oldRoot, RootSegment(updated.Path))
	return ToCategoryResponse(updated), nil
}

// MoveCategory re-parents a category and atomically rewrites the paths,
// levels and counters of everything affected. A nil NewParentID detaches the
// node into a new root tree.
func (s *service) MoveCategory(ctx context.Context, id uuid.UUID, req *MoveCategoryRequest) (*CategoryResponse, error) {
	node, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}

	// Both affected root trees are locked, in sorted key order. For a
	// detach the destination root is the node's own slug.
	keys := []string{RootSegment(node.Path)}
	if req.NewParentID != nil {
		if *req.NewParentID == id {
			return nil, models.ErrCircularReference
		}
		newParent, err := s.repo.GetByID(ctx, *req.NewParentID)
		if err != nil {
			return nil, mapNotFound(err)
		}
		keys = append(keys, RootSegment(newParent.Path))
	} else {
		keys = append(keys, node.Slug)
	}

	release, err := s.locks.Acquire(ctx, s.config.LockTimeout, keys...)
	if err != nil {
		return nil, err
	}
	defer release()

	var moved *models.Category
	oldRoot := RootSegment(node.Path)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repoTx := s.repo.WithTx(tx)
		fresh, err := repoTx.GetByIDForUpdate(ctx, id)
		if err != nil {
			return mapNotFound(err)
		}

		var newParent *models.Category
		if req.NewParentID != nil {
			p, err := repoTx.GetByIDForUpdate(ctx, *req.NewParentID)
			if err != nil {
				return mapNotFound(err)
			}
			newParent = p
		}

		if sameParent(fresh.ParentID, req.NewParentID) {
			moved = fresh
			return nil
		}

		cycle, err := s.wouldCreateCycle(ctx, repoTx, fresh.ID, newParent)
		if err != nil {
			return err
		}
		if cycle {
			return models.ErrCircularReference
		}

		if newParent != nil && !newParent.IsActive && s.config.RequireActiveMoveTarget {
			return models.ErrMoveTargetInactive
		}

		subtree, err := repoTx.GetSubtree(ctx, fresh.Path, -1, false)
		if err != nil {
			return err
		}
		height := subtreeHeight(fresh, subtree)

		newLevel, newParentPath := 0, ""
		var newParentID *uuid.UUID
		if newParent != nil {
			newLevel = newParent.Level + 1
			newParentPath = newParent.Path
			newParentID = &newParent.ID
		}
		if exceedsMaxDepth(newLevel-1, height, s.config.MaxDepth) {
			return models.ErrMaxDepthExceeded
		}

		siblings, err := getSiblings(ctx, repoTx, newParentID)
		if err != nil {
			return err
		}
		if slugConflicts(siblings, fresh.Slugs, fresh.Slug, fresh.ID) {
			return models.ErrSlugTaken
		}

		oldPath := fresh.Path
		newPath := ChildPath(newParentPath, fresh.Slug)
		levelDelta := newLevel - fresh.Level

		if _, err := repoTx.UpdateSubtreePaths(ctx, oldPath, newPath, levelDelta); err != nil {
			return fmt.Errorf("reindex subtree: %w", err)
		}

		// Shift the subtree's content total from the old ancestor chain to
		// the new one. The node's own counters travel with it unchanged.
		if err := repoTx.IncrementTotalContentCountForPaths(ctx, AncestorPaths(oldPath), -fresh.TotalContentCount); err != nil {
			return fmt.Errorf("settle old ancestor totals: %w", err)
		}
		if err := repoTx.IncrementTotalContentCountForPaths(ctx, AncestorPaths(newPath), fresh.TotalContentCount); err != nil {
			return fmt.Errorf("settle new ancestor totals: %w", err)
		}
		if fresh.ParentID != nil {
			if err := repoTx.IncrementSubcategoryCount(ctx, *fresh.ParentID, -1); err != nil {
				return err
			}
		}
		if newParent != nil {
			if err := repoTx.IncrementSubcategoryCount(ctx, newParent.ID, 1); err != nil {
				return err
			}
		}

		fresh.ParentID = newParentID
		fresh.Level = newLevel
		fresh.Path = newPath
		if err := repoTx.Update(ctx, fresh); err != nil {
			return err
		}
		moved = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateTreeCache(oldRoot, RootSegment(moved.Path))
	return ToCategoryResponse(moved), nil
}

// DeleteCategory removes a category under the given cascade policy. An empty
// policy falls back to the configured default.
func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID, policy models.CascadePolicy) error {
	if policy == "" {
		policy = s.config.DefaultCascadePolicy
	}
	if !policy.Valid() {
		return models.ErrInvalidCascadePolicy
	}

	node, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return mapNotFound(err)
	}
	rootKey := RootSegment(node.Path)

	release, err := s.locks.Acquire(ctx, s.config.LockTimeout, rootKey)
	if err != nil {
		return err
	}
	defer release()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repoTx := s.repo.WithTx(tx)
		fresh, err := repoTx.GetByIDForUpdate(ctx, id)
		if err != nil {
			return mapNotFound(err)
		}

		switch policy {
		case models.CascadeRejectIfChildren:
			return s.deleteLeaf(ctx, repoTx, fresh)
		case models.CascadeDeleteSubtree:
			return s.deleteWholeSubtree(ctx, repoTx, fresh)
		case models.CascadeReparentChildren:
			return s.deleteAndReparentChildren(ctx, repoTx, fresh)
		default:
			return models.ErrInvalidCascadePolicy
		}
	})
	if err != nil {
		return err
	}

	s.invalidateTreeCache(rootKey)
	return nil
}

// deleteLeaf removes a category that must have neither children nor content
func (s *service) deleteLeaf(ctx context.Context, repoTx Repository, node *models.Category) error {
	children, err := repoTx.CountChildren(ctx, node.ID)
	if err != nil {
		return err
	}
	if children > 0 {
		return models.ErrCategoryHasChildren
	}
	contents, err := repoTx.CountContents(ctx, node.ID)
	if err != nil {
		return err
	}
	if contents > 0 {
		return models.ErrCategoryHasContent
	}

	if err := repoTx.Delete(ctx, node.ID); err != nil {
		return err
	}
	return s.settleRemovedNode(ctx, repoTx, node)
}

// deleteWholeSubtree removes the category, all its descendants and every
// content row tagged anywhere in the subtree.
func (s *service) deleteWholeSubtree(ctx context.Context, repoTx Repository, node *models.Category) error {
	if _, err := repoTx.DeleteSubtreeContents(ctx, node.Path); err != nil {
		return fmt.Errorf("delete subtree contents: %w", err)
	}
	if _, err := repoTx.DeleteSubtree(ctx, node.Path); err != nil {
		return fmt.Errorf("delete subtree: %w", err)
	}
	return s.settleRemovedNode(ctx, repoTx, node)
}

// deleteAndReparentChildren removes the category after attaching its direct
// children to its own parent. The node must carry no direct content, or the
// content would be orphaned.
func (s *service) deleteAndReparentChildren(ctx context.Context, repoTx Repository, node *models.Category) error {
	contents, err := repoTx.CountContents(ctx, node.ID)
	if err != nil {
		return err
	}
	if contents > 0 {
		return models.ErrCategoryHasContent
	}

	children, err := repoTx.GetChildren(ctx, node.ID, false)
	if err != nil {
		return err
	}

	// The children's new siblings are the node's current siblings; the node
	// itself is about to disappear, so it is excluded from the check.
	siblings, err := getSiblings(ctx, repoTx, node.ParentID)
	if err != nil {
		return err
	}
	parentPath := strings.TrimSuffix(node.Path, models.PathSeparator+node.Slug)
	for i := range children {
		child := &children[i]
		if slugConflicts(siblings, child.Slugs, child.Slug, node.ID) {
			return models.ErrSlugTaken
		}
		newChildPath := ChildPath(parentPath, child.Slug)
		if _, err := repoTx.UpdateSubtreePaths(ctx, child.Path, newChildPath, -1); err != nil {
			return fmt.Errorf("reparent child %s: %w", child.ID, err)
		}
		child.ParentID = node.ParentID
		child.Level = node.Level
		child.Path = newChildPath
		if err := repoTx.Update(ctx, child); err != nil {
			return err
		}
	}

	if err := repoTx.Delete(ctx, node.ID); err != nil {
		return err
	}
	// The reparented subtrees stay under the same ancestor chain, and the
	// node carried no direct content, so only the child counter moves: the
	// parent loses the node and gains its children.
	if node.ParentID != nil {
		return repoTx.IncrementSubcategoryCount(ctx, *node.ParentID, len(children)-1)
	}
	return nil
}

// settleRemovedNode adjusts the parent's child counter and the ancestor
// chain's content totals after node (and its subtree, if any) left the tree.
func (s *service) settleRemovedNode(ctx context.Context, repoTx Repository, node *models.Category) error {
	if node.ParentID != nil {
		if err := repoTx.IncrementSubcategoryCount(ctx, *node.ParentID, -1); err != nil {
			return err
		}
	}
	return repoTx.IncrementTotalContentCountForPaths(ctx, AncestorPaths(node.Path), -node.TotalContentCount)
}

// RecomputeStats rebuilds the denormalized counters from ground truth. With
// a rootID it repairs that subtree; with nil it walks every root tree in
// turn, taking one root lock at a time.
func (s *service) RecomputeStats(ctx context.Context, rootID *uuid.UUID) (*RecomputeReport, error) {
	start := time.Now()
	report := &RecomputeReport{}

	if rootID != nil {
		node, err := s.repo.GetByID(ctx, *rootID)
		if err != nil {
			return nil, mapNotFound(err)
		}
		if err := s.recomputeSubtree(ctx, RootSegment(node.Path), node.Path, report); err != nil {
			return nil, err
		}
		report.Duration = time.Since(start)
		return report, nil
	}

	roots, err := s.repo.GetRoots(ctx, false)
	if err != nil {
		return nil, err
	}
	for i := range roots {
		if err := s.recomputeSubtree(ctx, roots[i].Slug, roots[i].Path, report); err != nil {
			return nil, err
		}
	}
	report.Duration = time.Since(start)
	return report, nil
}

// recomputeSubtree locks one root tree and reconciles the counters of the
// subtree at path inside a single transaction.
func (s *service) recomputeSubtree(ctx context.Context, rootKey, path string, report *RecomputeReport) error {
	release, err := s.locks.Acquire(ctx, s.config.LockTimeout, rootKey)
	if err != nil {
		return err
	}
	defer release()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repoTx := s.repo.WithTx(tx)
		rows, err := repoTx.GetSubtree(ctx, path, -1, false)
		if err != nil {
			return err
		}
		contentCounts, err := repoTx.ContentCountsForSubtree(ctx, path)
		if err != nil {
			return err
		}
		repaired, err := reconcileCounters(ctx, repoTx, rows, contentCounts)
		if err != nil {
			return err
		}
		report.ScannedNodes += len(rows)
		report.RepairedNodes += repaired
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidateTreeCache(rootKey)
	return nil
}

// VerifyHierarchy checks every stored invariant (parent links, levels,
// paths, slugs, depth, cycle-freedom) without modifying anything.
func (s *service) VerifyHierarchy(ctx context.Context) (*IntegrityReport, error) {
	rows, err := s.repo.GetForest(ctx, -1, false)
	if err != nil {
		return nil, err
	}
	return verifyRows(rows, s.config.MaxDepth), nil
}

// cachedTree returns the cached tree under key, rebuilding it through a
// singleflight group on a miss.
func (s *service) cachedTree(ctx context.Context, key string, load func(context.Context) ([]*TreeNode, error)) ([]*TreeNode, error) {
	if s.config.TreeCacheTTL <= 0 {
		return load(ctx)
	}
	if nodes, err := s.treeCache.Get(ctx, key); err == nil {
		return nodes, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Error(err, map[string]interface{}{"op": "tree_cache_get", "key": key})
	}

	v, err, _ := s.flight.Do(key, func() (interface{}, error) {
		nodes, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.treeCache.Set(ctx, key, nodes, s.config.TreeCacheTTL); err != nil {
			s.logger.Error(err, map[string]interface{}{"op": "tree_cache_set", "key": key})
		}
		return nodes, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*TreeNode), nil
}

// invalidateTreeCache drops the cached listings for the given root slugs and
// the forest listing. It runs after the transaction committed, so a reader
// never waits on cache IO held inside the mutation.
func (s *service) invalidateTreeCache(rootSlugs ...string) {
	if s.config.TreeCacheTTL <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	keys := []string{forestCacheKey}
	seen := map[string]struct{}{}
	for _, slug := range rootSlugs {
		if slug == "" {
			continue
		}
		if _, ok := seen[slug]; ok {
			continue
		}
		seen[slug] = struct{}{}
		keys = append(keys, subtreeCacheKey(slug))
	}
	for _, key := range keys {
		if err := s.treeCache.Delete(ctx, key); err != nil {
			s.logger.Error(err, map[string]interface{}{"op": "tree_cache_invalidate", "key": key})
		}
	}
}

// resolveSlugs merges explicit per-language slugs with ones derived from the
// name and returns the full map plus the canonical default-language slug
// used as the node's path segment. Explicit slugs must already be valid;
// derived ones are normalized from free text.
func (s *service) resolveSlugs(name, explicit models.LocalizedText) (models.LocalizedText, string, error) {
	slugs := models.LocalizedText{}
	for lang, text := range name {
		if slug := formatter.Slugify(text); slug != "" {
			slugs[lang] = truncateSlug(slug)
		}
	}
	for lang, slug := range explicit {
		if !validator.IsSlug(slug) || !validator.MaxRunes(slug, models.MaxSlugLength) {
			return nil, "", models.ErrInvalidCategorySlug
		}
		slugs[lang] = slug
	}

	canonical := slugs[s.config.DefaultLanguage]
	if canonical == "" {
		// No default-language name or slug; derive from whichever name
		// variant exists so the node still gets a stable path segment.
		canonical = truncateSlug(formatter.Slugify(name.Get(s.config.DefaultLanguage, "")))
		if canonical == "" {
			return nil, "", models.ErrInvalidCategorySlug
		}
		slugs[s.config.DefaultLanguage] = canonical
	}
	return slugs, canonical, nil
}

// truncateSlug caps a derived slug at the column limit without leaving a
// trailing hyphen.
func truncateSlug(slug string) string {
	if len(slug) <= models.MaxSlugLength {
		return slug
	}
	return strings.TrimRight(slug[:models.MaxSlugLength], "-")
}

// getSiblings returns every node sharing the given parent, roots included
func getSiblings(ctx context.Context, repo Repository, parentID *uuid.UUID) ([]models.Category, error) {
	if parentID == nil {
		return repo.GetRoots(ctx, false)
	}
	return repo.GetChildren(ctx, *parentID, false)
}

// slugConflicts reports whether any sibling, excluding the given ids, uses
// canonical as its path segment or shares a slug in any language. Sibling
// slug uniqueness is per language, so "plans" in en and "plans" in fr on two
// siblings do not collide.
func slugConflicts(siblings []models.Category, slugs models.LocalizedText, canonical string, exclude ...uuid.UUID) bool {
	skip := make(map[uuid.UUID]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}
	for i := range siblings {
		sib := &siblings[i]
		if _, ok := skip[sib.ID]; ok {
			continue
		}
		if sib.Slug == canonical {
			return true
		}
		for lang, slug := range slugs {
			if sib.Slugs[lang] == slug {
				return true
			}
		}
	}
	return false
}

// sameParent reports whether two optional parent references point at the
// same node (or both at the root).
func sameParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// subtreeCacheKey is the cache key for one root tree's listing
func subtreeCacheKey(rootSlug string) string {
	return "subtree:" + rootSlug
}

// mapNotFound converts the storage-level missing-row error to the domain one
func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ErrRecordNotFound
	}
	return err
}
