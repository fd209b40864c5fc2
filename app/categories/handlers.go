package categories

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/arborcms/arbor/app/api"
	"github.com/arborcms/arbor/internal/sanitizer"
	"github.com/arborcms/arbor/models"
)

// Handler handles HTTP requests for the category hierarchy
type Handler struct {
	service   Service
	sanitizer sanitizer.HTMLStripperer
}

// NewHandler creates a new category handler
func NewHandler(service Service, sanitizer sanitizer.HTMLStripperer) *Handler {
	return &Handler{
		service:   service,
		sanitizer: sanitizer,
	}
}

// parseUUIDFromParam extracts and validates UUID from path parameter
func (h *Handler) parseUUIDFromParam(c *gin.Context, paramName string) (uuid.UUID, bool) {
	param := c.Param(paramName)
	id, err := uuid.Parse(param)
	if err != nil {
		api.BadRequestResponse(c, "Invalid "+paramName+" format")
		return uuid.Nil, false
	}
	return id, true
}

// parseOptionalUUIDFromQuery reads an optional UUID query parameter
func (h *Handler) parseOptionalUUIDFromQuery(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		api.BadRequestResponse(c, "Invalid "+name+" format")
		return nil, false
	}
	return &id, true
}

// bindJSONRequest binds JSON request body to the provided struct
func (h *Handler) bindJSONRequest(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		api.BadRequestResponse(c, err.Error())
		return false
	}
	return true
}

// handleServiceError maps domain errors onto the error envelope. Structural
// conflicts and busy signals each get their own code so clients can decide
// between fixing the request and retrying.
func (h *Handler) handleServiceError(c *gin.Context, err error, entityName, operation string) {
	switch {
	case errors.Is(err, models.ErrRecordNotFound):
		api.NotFoundResponse(c, entityName)
	case errors.Is(err, models.ErrCircularReference):
		api.ErrorResponse(c, http.StatusConflict, "CIRCULAR_REFERENCE", err.Error(), nil)
	case errors.Is(err, models.ErrSlugTaken),
		errors.Is(err, models.ErrCategoryHasChildren),
		errors.Is(err, models.ErrCategoryHasContent):
		api.ConflictResponse(c, err.Error())
	case errors.Is(err, models.ErrParentInactive),
		errors.Is(err, models.ErrMoveTargetInactive),
		errors.Is(err, models.ErrMaxDepthExceeded):
		api.UnprocessableResponse(c, "INVALID_STATE", err.Error())
	case errors.Is(err, models.ErrHierarchyBusy):
		api.BusyResponse(c, err.Error())
	case errors.Is(err, models.ErrCorruptHierarchy):
		api.ErrorResponse(c, http.StatusInternalServerError, "CORRUPT_HIERARCHY", err.Error(), nil)
	case errors.Is(err, models.ErrInvalidCategoryName),
		errors.Is(err, models.ErrInvalidCategorySlug),
		errors.Is(err, models.ErrInvalidLanguageCode),
		errors.Is(err, models.ErrInvalidCascadePolicy):
		api.BadRequestResponse(c, err.Error())
	default:
		api.InternalErrorResponse(c, "Failed to "+operation)
	}
}

// sanitizeText strips any markup from every language variant
func (h *Handler) sanitizeText(text models.LocalizedText) models.LocalizedText {
	if text == nil {
		return nil
	}
	return models.LocalizedText(h.sanitizer.StripMap(map[string]string(text)))
}

// CreateCategory godoc
// @Summary Create a category
// @Description Create a category, optionally under a parent. The default-language slug becomes its path segment.
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateCategoryRequest true "Category to create"
// @Success 201 {object} api.Response{data=CategoryResponse}
// @Failure 400 {object} api.Response{error=api.ErrorInfo}
// @Failure 404 {object} api.Response{error=api.ErrorInfo}
// @Failure 409 {object} api.Response{error=api.ErrorInfo}
// @Failure 422 {object} api.Response{error=api.ErrorInfo}
// @Failure 503 {object} api.Response{error=api.ErrorInfo}
// @Router /api/v1/categories [post]
func (h *Handler) CreateCategory(c *gin.Context) {
	var req CreateCategoryRequest
	if !h.bindJSONRequest(c, &req) {
		return
	}
	req.Name = h.sanitizeText(req.Name)
	req.Description = h.sanitizeText(req.Description)

	category, err := h.service.CreateCategory(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err, "Parent category", "create category")
		return
	}
	api.CreatedResponse(c, "Category created successfully", category)
}

// GetCategories godoc
// @Summary List root categories
// @Description Get all root categories ordered by sort_order
// @Tags categories
// @Accept json
// @Produce json
// @Param include_inactive query bool false "Include inactive categories"
// @Success 200 {object} api.Response{data=[]CategoryResponse}
// @Failure 500 {object} api.Response{error=api.ErrorInfo}
// @Router /api/v1/categories [get]
func (h *Handler) GetCategories(c *gin.Context) {
	includeInactive := c.Query("include_inactive") == "true"
	roots, err := h.service.GetChildren(c.Request.Context(), nil, includeInactive)
	if err != nil {
		api.InternalErrorResponse(c, "Failed to fetch categories")
		return
	}
	api.ListResponse(c, "Categories retrieved successfully", roots, len(roots))
}

// GetCategoryByID godoc
// @Summary Get category details
// @Description Get a single category with its counters and localized fields
// @Tags categories
// @Accept json
// @Produce json
// @Param id path string true "Category ID"
// @Success 200 {object} api.Response{data=CategoryResponse}
// @Failure 400 {object} api.Response{error=api.ErrorInfo}
// @Failure 404 {object} api.Response{error=api.ErrorInfo}
// @Router /api/v1/categories/{id} [get]
func (h *Handler) GetCategoryByID(c *gin.Context) {
	id, ok := h.parseUUIDFromParam(c, "id")
	if !ok {
		return
	}
	category, err := h.service.GetCategory(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err, "Category", "fetch category")
		return
	}
	api.SuccessResponse(c, http.StatusOK, "Category retrieved successfully", category)
}

// LookupCategoryByPath godoc
// @Summary Look up a category by path
// @Description Resolve a materialized path like /electronics/phones to its category
// @Tags categories
// @Accept json
// @Produce json
// @Param path query string true "Materialized path"
// @Success 200 {object} api.Response{data=CategoryResponse}
// @Failure 400 {object} api.Response{error=api.ErrorInfo}
// @Failure 404 {object} api.Response{error=api.ErrorInfo}
// @Router /api/v1/categories/lookup [get]
func (h *Handler) LookupCategoryByPath(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		api.BadRequestResponse(c, "path query parameter is required")
		return
	}
	category, err := h.service.GetCategoryByPath(c.Request.Context(), path)
	if err != nil {
		h.handleServiceError(c, err, "Category", "fetch category")
		return
	}
	api.SuccessResponse(c, http.StatusOK, "Category retrieved successfully", category)
}

// GetCategoryTree godoc
// @Summary Get the category tree
// @Description Get nested category trees, optionally scoped to one root and capped in depth
// @Tags categories
// @Accept json
// @Produce json
// @Param root_id query string false "Root category ID; omit for all trees"
// @Param max_depth query int false "Maximum number of levels returned"
// @Param include_inactive query bool false "Include inactive categories"
// @Success 200 {object} api.Response{data=[]TreeNode}
// @Failure 400 {object} api.Response{error=api.ErrorInfo}
// @Failure 404 {object} api.Response{error=api.ErrorInfo}
// @Router /api/v1/categories/tree [get]
func (h *Handler) GetCategoryTree(c *gin.Context) {
	var query struct {
		MaxDepth        int  `form:"max_depth"`
		IncludeInactive bool `form:"include_inactive"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		api.BadRequestResponse(c, err.Error())
		return
	}
	rootID, ok := h.parseOptionalUUIDFromQuery(c, "root_id")
	if !ok {
		return
	}

	tree, err := h.service.GetTree(c.Request.Context(), TreeOptions{
		RootID:          rootID,
		MaxDepth:        query.MaxDepth,
		IncludeInactive: query.IncludeInactive,
	})
	if err != nil {
		h.handleServiceError(c, err, "Category", "fetch category tree")
		return
	}
	api.SuccessResponse(c, http.StatusOK, "Category tree retrieved successfully", tree)
}

// GetCategoryChildren godoc
// @Summary List direct children
// @Description Get the direct children of a category ordered by sort_order
// @Tags categories
// @Accept json
// @Produce json
// @Param id path string true "Category ID"
// @Param include_inactive query bool false "Include inactive categories"
// @Success 200 {object} api.Response{data=[]CategoryResponse}
// @Failure 400 {object} api.Response{error=api.ErrorInfo}
// @Failure 404 {object} api.Response{error=api.ErrorInfo}
// @Router /api/v1/categories/{id}/children [get]
func (h *Handler) GetCategoryChildren(c *gin.Context) {
	id, ok := h.parseUUIDFromParam(c, "id")
	if !ok {
		return
	}
	includeInactive := c.Query("include_inactive") == "true"
	children, err := h.service.GetChildren(c.Request.Context(), &id, includeInactive)
	if err != nil {
		h.handleServiceError(c, err, "Category", "fetch children")
		return
	}
	api.ListResponse(c, "Children retrieved successfully", children, len(children))
}

// GetCategoryDescendants godoc
// @Summary List all descendants
// @Description Get every category below this one, ordered by level then sort_order
// @Tags categories
// @Accept json
// @Produce json
// @Param id path string true "Category ID"
// @Success 200 {object} api.Response{data=[]CategoryResponse}
// @Failure 400 {object} api.Response{error=api.ErrorInfo}
// @Failure 404 {object} api.Response{error=api.ErrorInfo}
// @Router /api/v1/categories/{id}/descendants [get]
func (h *Handler) GetCategoryDescendants(c *gin.Context) {
	id, ok := h.parseUUIDFromParam(c, "id")
	if !ok {
		return
	}
	descendants, err := h.service.GetDescendants(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err, "Category", "fetch descendants")
		return
	}
	api.ListResponse(c, "Descendants retrieved successfully", descendants, len(descendants))
}

// GetCategoryAncestors godoc
// @Summary List ancestors
// @Description Get the ancestor chain of a category, root first
// @Tags categories
// @Accept json
// @Produce json
// @Param id path string true "Category ID"
// @Success 200 {object} api.Response{data=[]CategoryResponse}
// @Failure 400 {object} api.Response{error=api.ErrorInfo}
// @Failure 404 {object} api.Response{error=api.ErrorInfo}
// @Failure 500 {object} api.Response{error=api.ErrorInfo}
// @Router /api/v1/categories/{id}/ancestors [get]
func (h *Handler) GetCategoryAncestors(c *gin.Context) {
	id, ok := h.parseUUIDFromParam(c, "id")
	if !ok {
		return
	}
	ancestors, err := h.service.GetAncestors(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err, "Category", "fetch ancestors")
		return
	}
	api.ListResponse(c, "Ancestors retrieved successfully", ancestors, len(ancestors))
}

// UpdateCategory godoc
// @Summary Update a category
// @Description Update names, description, slugs, sort order or active flag. A default-language slug change reindexes the whole subtree.
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Category ID"
// @Param request body UpdateCategoryRequest true "Fields to update"
// @Success 200 {object} api.Response{data=CategoryResponse}
// @Failure 400 {object} api.Response{error=api.ErrorInfo}
// @Failure 404 {object} api.Response{error=api.ErrorInfo}
// @Failure 409 {object} api.Response{error=api.ErrorInfo}
// @Failure 503 {object} api.Response{error=api.ErrorInfo}
// @Router /api/v1/categories/{id} [put]
func (h *Handler) UpdateCategory(c *gin.Context) {
	id, ok := h.parseUUIDFromParam(c, "id")
	if !ok {
		return
	}
	var req UpdateCategoryRequest
	if !h.bindJSONRequest(c, &req) {
		return
	}
	req.Name = h.sanitizeText(req.Name)
	req.Description = h.sanitizeText(req.Description)

	category, err := h.service.UpdateCategory(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err, "Category", "update category")
		return
	}
	api.UpdatedResponse(c, "Category updated successfully", category)
}

// MoveCategory godoc
// @Summary Move a category
// @Description Re-parent a category and its whole subtree. A null new_parent_id detaches it into a new root.
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Category ID"
// @Param request body MoveCategoryRequest true "Move target"
// @Success 200 {object} api.Response{data=CategoryResponse}
// @Failure 400 {object} api.Response{error=api.ErrorInfo}
// @Failure 404 {object} api.Response{error=api.ErrorInfo}
// @Failure 409 {object} api.Response{error=api.ErrorInfo}
// @Failure 422 {object} api.Response{error=api.ErrorInfo}
// @Failure 503 {object} api.Response{error=api.ErrorInfo}
// @Router /api/v1/categories/{id}/move [post]
func (h *Handler) MoveCategory(c *gin.Context) {
	id, ok := h.parseUUIDFromParam(c, "id")
	if !ok {
		return
	}
	var req MoveCategoryRequest
	if !h.bindJSONRequest(c, &req) {
		return
	}

	category, err := h.service.MoveCategory(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err, "Category", "move category")
		return
	}
	api.UpdatedResponse(c, "Category moved successfully", category)
}

// DeleteCategory godoc
// @Summary Delete a category
// @Description Delete a category under an explicit cascade policy
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Category ID"
// @Param cascade_policy query string false "Cascade policy" Enums(reject_if_children,cascade_delete,reparent_children_to_grandparent)
// @Success 200 {object} api.Response
// @Failure 400 {object} api.Response{error=api.ErrorInfo}
// @Failure 404 {object} api.Response{error=api.ErrorInfo}
// @Failure 409 {object} api.Response{error=api.ErrorInfo}
// @Failure 503 {object} api.Response{error=api.ErrorInfo}
// @Router /api/v1/categories/{id} [delete]
func (h *Handler) DeleteCategory(c *gin.Context) {
	id, ok := h.parseUUIDFromParam(c, "id")
	if !ok {
		return
	}
	policy := models.CascadePolicy(c.Query("cascade_policy"))

	if err := h.service.DeleteCategory(c.Request.Context(), id, policy); err != nil {
		h.handleServiceError(c, err, "Category", "delete category")
		return
	}
	api.DeletedResponse(c, "Category deleted successfully")
}

// RecomputeCategoryStats godoc
// @Summary Recompute category counters
// @Description Rebuild the denormalized counters from ground truth, for one subtree or the whole forest
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param root_id query string false "Subtree root ID; omit for all trees"
// @Success 200 {object} api.Response{data=RecomputeReport}
// @Failure 400 {object} api.Response{error=api.ErrorInfo}
// @Failure 404 {object} api.Response{error=api.ErrorInfo}
// @Failure 503 {object} api.Response{error=api.ErrorInfo}
// @Router /api/v1/categories/recompute [post]
func (h *Handler) RecomputeCategoryStats(c *gin.Context) {
	rootID, ok := h.parseOptionalUUIDFromQuery(c, "root_id")
	if !ok {
		return
	}
	report, err := h.service.RecomputeStats(c.Request.Context(), rootID)
	if err != nil {
		h.handleServiceError(c, err, "Category", "recompute statistics")
		return
	}
	api.SuccessResponse(c, http.StatusOK, "Statistics recomputed successfully", report)
}

// VerifyCategoryHierarchy godoc
// @Summary Verify hierarchy integrity
// @Description Check every stored invariant and report violations without fixing them
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} api.Response{data=IntegrityReport}
// @Failure 500 {object} api.Response{error=api.ErrorInfo}
// @Router /api/v1/categories/verify [get]
func (h *Handler) VerifyCategoryHierarchy(c *gin.Context) {
	report, err := h.service.VerifyHierarchy(c.Request.Context())
	if err != nil {
		api.InternalErrorResponse(c, "Failed to verify hierarchy")
		return
	}
	api.SuccessResponse(c, http.StatusOK, "Hierarchy verified", report)
}
