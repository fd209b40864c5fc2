package contents

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arborcms/arbor/app/categories"
	"github.com/arborcms/arbor/models"
)

// service implements the Service interface
type service struct {
	db         *gorm.DB
	repo       Repository
	categories categories.Repository
	config     *Config
}

// NewService creates a new content service
func NewService(db *gorm.DB, repo Repository, categoryRepo categories.Repository, config *Config) Service {
	return &service{
		db:         db,
		repo:       repo,
		categories: categoryRepo,
		config:     config,
	}
}

// CreateContent creates a content item tagged to a category and bumps the
// content counters on the category and its whole ancestor chain in the same
// transaction.
//
// The FOR UPDATE read pins the category row, and with it the path the chain
// is derived from: a concurrent move of any enclosing subtree has to rewrite
// that row and blocks until this transaction ends. Counter drift in the
// cached tree listing ages out with the listing TTL.
func (s *service) CreateContent(ctx context.Context, req *CreateContentRequest) (*ContentResponse, error) {
	status := req.Status
	if status == "" {
		status = models.ContentStatusDraft
	}
	content := &models.Content{
		CategoryID: req.CategoryID,
		Title:      req.Title,
		Body:       req.Body,
		Status:     status,
	}
	if err := content.Validate(); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repoTx := s.repo.WithTx(tx)
		catTx := s.categories.WithTx(tx)

		category, err := catTx.GetByIDForUpdate(ctx, req.CategoryID)
		if err != nil {
			return mapNotFound(err)
		}
		if err := repoTx.Create(ctx, content); err != nil {
			return err
		}
		return applyTagDelta(ctx, catTx, category, 1)
	})
	if err != nil {
		return nil, err
	}
	return ToContentResponse(content), nil
}

// GetContent returns a single content item
func (s *service) GetContent(ctx context.Context, id uuid.UUID) (*ContentResponse, error) {
	content, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return ToContentResponse(content), nil
}

// UpdateContent edits a content item. When the request retags it to another
// category, the counter deltas leave the old chain and enter the new chain
// atomically; both category rows are locked for the duration.
func (s *service) UpdateContent(ctx context.Context, id uuid.UUID, req *UpdateContentRequest) (*ContentResponse, error) {
	var updated *models.Content
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repoTx := s.repo.WithTx(tx)

		content, err := repoTx.GetByID(ctx, id)
		if err != nil {
			return mapNotFound(err)
		}

		if req.Title != nil {
			content.Title = req.Title
		}
		if req.Body != nil {
			content.Body = *req.Body
		}
		if req.Status != nil {
			content.Status = *req.Status
		}

		if req.CategoryID != nil && *req.CategoryID != content.CategoryID {
			if err := s.retag(ctx, tx, content, *req.CategoryID); err != nil {
				return err
			}
		}

		if err := content.Validate(); err != nil {
			return err
		}
		if err := repoTx.Update(ctx, content); err != nil {
			return err
		}
		updated = content
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToContentResponse(updated), nil
}

// retag moves the item's counter contribution from its current category chain
// to the target's and points the item at the target. Both rows are locked in
// id order so two opposite retags cannot deadlock each other.
func (s *service) retag(ctx context.Context, tx *gorm.DB, content *models.Content, targetID uuid.UUID) error {
	catTx := s.categories.WithTx(tx)

	oldID := content.CategoryID
	first, second := oldID, targetID
	if bytes.Compare(second[:], first[:]) < 0 {
		first, second = second, first
	}

	locked := make(map[uuid.UUID]*models.Category, 2)
	for _, cid := range []uuid.UUID{first, second} {
		category, err := catTx.GetByIDForUpdate(ctx, cid)
		if err != nil {
			if cid == targetID {
				return mapNotFound(err)
			}
			// The current tag points at a missing category even though the
			// foreign key restricts deletes.
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrCorruptHierarchy
			}
			return err
		}
		locked[cid] = category
	}

	if err := applyTagDelta(ctx, catTx, locked[oldID], -1); err != nil {
		return err
	}
	if err := applyTagDelta(ctx, catTx, locked[targetID], 1); err != nil {
		return err
	}
	content.CategoryID = targetID
	return nil
}

// DeleteContent removes a content item and settles the counters on its
// category chain.
func (s *service) DeleteContent(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repoTx := s.repo.WithTx(tx)
		catTx := s.categories.WithTx(tx)

		content, err := repoTx.GetByID(ctx, id)
		if err != nil {
			return mapNotFound(err)
		}
		category, err := catTx.GetByIDForUpdate(ctx, content.CategoryID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrCorruptHierarchy
			}
			return err
		}
		if err := repoTx.Delete(ctx, content.ID); err != nil {
			return err
		}
		return applyTagDelta(ctx, catTx, category, -1)
	})
}

// ListContents returns one page of content items. A subtree filter resolves
// the category to its materialized path first, so the storage layer matches
// the whole branch with a single prefix.
func (s *service) ListContents(ctx context.Context, filters *ContentFilters) (*ContentListResponse, error) {
	query := &ContentQuery{
		Status:    filters.Status,
		SortBy:    filters.SortBy,
		SortOrder: filters.SortOrder,
		Page:      filters.Page,
		PerPage:   filters.PerPage,
	}
	if query.Page < 1 {
		query.Page = 1
	}
	if query.PerPage < 1 {
		query.PerPage = s.config.DefaultPerPage
	}
	if query.PerPage > s.config.MaxPerPage {
		query.PerPage = s.config.MaxPerPage
	}

	if filters.CategoryID != nil {
		if filters.Subtree {
			category, err := s.categories.GetByID(ctx, *filters.CategoryID)
			if err != nil {
				return nil, mapNotFound(err)
			}
			query.SubtreePath = category.Path
		} else {
			query.CategoryID = filters.CategoryID
		}
	}

	contents, total, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, err
	}
	return &ContentListResponse{
		Contents: ToContentResponseList(contents),
		Total:    total,
		Page:     query.Page,
		PerPage:  query.PerPage,
	}, nil
}

// applyTagDelta shifts the direct counter on the category and the subtree
// totals on the category plus every ancestor.
func applyTagDelta(ctx context.Context, catTx categories.Repository, category *models.Category, delta int) error {
	if err := catTx.IncrementContentCount(ctx, category.ID, delta); err != nil {
		return fmt.Errorf("increment content count: %w", err)
	}
	chain := append(categories.AncestorPaths(category.Path), category.Path)
	if err := catTx.IncrementTotalContentCountForPaths(ctx, chain, delta); err != nil {
		return fmt.Errorf("increment total content counts: %w", err)
	}
	return nil
}

// mapNotFound converts the storage-level missing-row error to the domain one
func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ErrRecordNotFound
	}
	return err
}
