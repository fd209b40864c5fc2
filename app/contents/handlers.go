package contents

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/arborcms/arbor/app/api"
	"github.com/arborcms/arbor/internal/sanitizer"
	"github.com/arborcms/arbor/models"
)

// Handler handles HTTP requests for content items
type Handler struct {
	service   Service
	sanitizer sanitizer.HTMLStripperer
}

// NewHandler creates a new content handler
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

// bindJSONRequest binds JSON request body to the provided struct
func (h *Handler) bindJSONRequest(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		api.BadRequestResponse(c, err.Error())
		return false
	}
	return true
}

// handleServiceError maps domain errors onto the error envelope
func (h *Handler) handleServiceError(c *gin.Context, err error, entityName, operation string) {
	switch {
	case errors.Is(err, models.ErrRecordNotFound):
		api.NotFoundResponse(c, entityName)
	case errors.Is(err, models.ErrCorruptHierarchy):
		api.ErrorResponse(c, http.StatusInternalServerError, "CORRUPT_HIERARCHY", err.Error(), nil)
	case errors.Is(err, models.ErrInvalidContentTitle),
		errors.Is(err, models.ErrInvalidContentStatus),
		errors.Is(err, models.ErrInvalidLanguageCode),
		errors.Is(err, models.ErrInvalidCategoryID):
		api.BadRequestResponse(c, err.Error())
	default:
		api.InternalErrorResponse(c, "Failed to "+operation)
	}
}

// sanitizeTitle strips any markup from every language variant
func (h *Handler) sanitizeTitle(title models.LocalizedText) models.LocalizedText {
	if title == nil {
		return nil
	}
	return models.LocalizedText(h.sanitizer.StripMap(map[string]string(title)))
}

// CreateContent godoc
// @Summary Create a content item
// @Description Create a content item tagged to a category. The category's counter chain is updated in the same transaction.
// @Tags contents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateContentRequest true "Content to create"
// @Success 201 {object} api.Response{data=ContentResponse}
// @Failure 400 {object} api.Response{error=api.ErrorInfo}
// @Failure 404 {object} api.Response{error=api.ErrorInfo}
// @Router /api/v1/contents [post]
func (h *Handler) CreateContent(c *gin.Context) {
	var req CreateContentRequest
	if !h.bindJSONRequest(c, &req) {
		return
	}
	req.Title = h.sanitizeTitle(req.Title)
	req.Body = h.sanitizer.StripHTML(req.Body)

	content, err := h.service.CreateContent(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err, "Category", "create content")
		return
	}
	api.CreatedResponse(c, "Content created successfully", content)
}

// GetContents godoc
// @Summary List content items
// @Description Get a paginated list of content items, optionally restricted to a category or a whole category subtree
// @Tags contents
// @Accept json
// @Produce json
// @Param category_id query string false "Filter by category ID"
// @Param subtree query bool false "Include content of all descendant categories" default(false)
// @Param status query string false "Filter by status" Enums(draft,published,archived)
// @Param sort_by query string false "Sort field" Enums(created_at,updated_at,status) default(created_at)
// @Param sort_order query string false "Sort direction" Enums(asc,desc) default(desc)
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Success 200 {object} api.Response{data=[]ContentResponse}
// @Failure 400 {object} api.Response{error=api.ErrorInfo}
// @Failure 404 {object} api.Response{error=api.ErrorInfo}
// @Router /api/v1/contents [get]
func (h *Handler) GetContents(c *gin.Context) {
	var filters ContentFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		api.BadRequestResponse(c, err.Error())
		return
	}
	h.listContents(c, &filters)
}

// GetCategoryContents godoc
// @Summary List content of a category
// @Description Get a paginated list of the content items tagged to a category, or to its whole subtree with subtree=true
// @Tags categories
// @Accept json
// @Produce json
// @Param id path string true "Category ID"
// @Param subtree query bool false "Include content of all descendant categories" default(false)
// @Param status query string false "Filter by status" Enums(draft,published,archived)
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Success 200 {object} api.Response{data=[]ContentResponse}
// @Failure 400 {object} api.Response{error=api.ErrorInfo}
// @Failure 404 {object} api.Response{error=api.ErrorInfo}
// @Router /api/v1/categories/{id}/contents [get]
func (h *Handler) GetCategoryContents(c *gin.Context) {
	id, ok := h.parseUUIDFromParam(c, "id")
	if !ok {
		return
	}
	var filters ContentFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		api.BadRequestResponse(c, err.Error())
		return
	}
	filters.CategoryID = &id
	h.listContents(c, &filters)
}

// listContents runs one listing and writes the paginated envelope
func (h *Handler) listContents(c *gin.Context, filters *ContentFilters) {
	if filters.Status != nil && !filters.Status.Valid() {
		api.BadRequestResponse(c, models.ErrInvalidContentStatus.Error())
		return
	}

	result, err := h.service.ListContents(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err, "Category", "list contents")
		return
	}

	if len(result.Contents) == 0 {
		api.SuccessResponseWithMeta(c, http.StatusOK, "No content found", nil, api.PaginationMeta{})
		return
	}

	meta := api.PaginationMeta{
		Page:       result.Page,
		PerPage:    result.PerPage,
		Total:      result.Total,
		TotalPages: int((result.Total + int64(result.PerPage) - 1) / int64(result.PerPage)),
		HasNext:    int64(result.Page*result.PerPage) < result.Total,
		HasPrev:    result.Page > 1,
	}
	api.SuccessResponseWithMeta(c, http.StatusOK, "Contents retrieved successfully", result.Contents, meta)
}

// GetContentByID godoc
// @Summary Get a content item
// @Description Get a single content item by its ID
// @Tags contents
// @Accept json
// @Produce json
// @Param id path string true "Content ID"
// @Success 200 {object} api.Response{data=ContentResponse}
// @Failure 400 {object} api.Response{error=api.ErrorInfo}
// @Failure 404 {object} api.Response{error=api.ErrorInfo}
// @Router /api/v1/contents/{id} [get]
func (h *Handler) GetContentByID(c *gin.Context) {
	id, ok := h.parseUUIDFromParam(c, "id")
	if !ok {
		return
	}
	content, err := h.service.GetContent(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err, "Content", "fetch content")
		return
	}
	api.SuccessResponse(c, http.StatusOK, "Content retrieved successfully", content)
}

// UpdateContent godoc
// @Summary Update a content item
// @Description Update a content item's fields. A new category_id retags the item and moves its counter contribution between the category chains.
// @Tags contents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Content ID"
// @Param request body UpdateContentRequest true "Fields to update"
// @Success 200 {object} api.Response{data=ContentResponse}
// @Failure 400 {object} api.Response{error=api.ErrorInfo}
// @Failure 404 {object} api.Response{error=api.ErrorInfo}
// @Router /api/v1/contents/{id} [put]
func (h *Handler) UpdateContent(c *gin.Context) {
	id, ok := h.parseUUIDFromParam(c, "id")
	if !ok {
		return
	}
	var req UpdateContentRequest
	if !h.bindJSONRequest(c, &req) {
		return
	}
	req.Title = h.sanitizeTitle(req.Title)
	if req.Body != nil {
		clean := h.sanitizer.StripHTML(*req.Body)
		req.Body = &clean
	}

	content, err := h.service.UpdateContent(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err, "Content", "update content")
		return
	}
	api.UpdatedResponse(c, "Content updated successfully", content)
}

// DeleteContent godoc
// @Summary Delete a content item
// @Description Delete a content item and settle the counters on its category chain
// @Tags contents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Content ID"
// @Success 200 {object} api.Response
// @Failure 400 {object} api.Response{error=api.ErrorInfo}
// @Failure 404 {object} api.Response{error=api.ErrorInfo}
// @Router /api/v1/contents/{id} [delete]
func (h *Handler) DeleteContent(c *gin.Context) {
	id, ok := h.parseUUIDFromParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteContent(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err, "Content", "delete content")
		return
	}
	api.DeletedResponse(c, "Content deleted successfully")
}
