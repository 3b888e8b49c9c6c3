// Interaction-log HTTP handlers.
//
// This file exposes the raw log for history/inspection:
//   - GET /interactions   (paginated, most recent first)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-llm-usage/internal/domain"
	"github.com/tbourn/go-llm-usage/internal/utils"
)

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListInteractionsResponse wraps a page of interactions and pagination
// information.
type ListInteractionsResponse struct {
	Interactions []domain.Interaction `json:"interactions"`
	Pagination   Pagination           `json:"pagination"`
}

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.ClampInt(utils.AtoiDefault(c.Query("page_size"), defaultPageSize), 1, maxPageSize)
	return
}

// ListInteractions godoc
// @ID          listInteractions
// @Summary     List logged interactions (paginated)
// @Description Returns the interaction log, most recent first.
// @Tags        Analytics
// @Produce     json
//
// @Param       page       query  int  false "Page number (1-based)"  example(1)
// @Param       page_size  query  int  false "Page size (max 100)"    example(20)
//
// @Success     200  {object}  handlers.ListInteractionsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /interactions [get]
func (h *Handlers) ListInteractions(c *gin.Context) {
	page, pageSize := clampPagination(c)

	items, total, err := h.chatSvc.ListPage(c.Request.Context(), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListInteractionsResponse{
		Interactions: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}
