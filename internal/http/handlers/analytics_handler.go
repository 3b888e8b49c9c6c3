// Analytics HTTP handlers.
//
// This file exposes the aggregate usage view:
//   - GET /analytics   (summary scalars, groupings, error breakdowns, hourly
//     time series; optional user/date filters)
//
// Filter validation errors map to 400 before any aggregation runs; store
// failures map to 500. The response is always either a complete payload or
// an error envelope, never partial numbers.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-llm-usage/internal/analytics"
)

// Analytics godoc
// @ID          analytics
// @Summary     Usage analytics
// @Description Computes volume, cost, latency and error aggregates over the
// @Description interaction log, sliced by model, provider, user and hour.
// @Description The unfiltered view may be served from a short-lived cache.
// @Tags        Analytics
// @Produce     json
//
// @Param       user        query  string  false "Exact-match user filter"        example(alice)
// @Param       start_date  query  string  false "Inclusive start date (YYYY-MM-DD)" example(2025-06-01)
// @Param       end_date    query  string  false "Inclusive end date (YYYY-MM-DD)"   example(2025-06-30)
//
// @Success     200  {object}  analytics.Payload
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid date filter"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /analytics [get]
func (h *Handlers) Analytics(c *gin.Context) {
	payload, err := h.analyticsSvc.View(
		c.Request.Context(),
		c.Query("user"),
		c.Query("start_date"),
		c.Query("end_date"),
	)
	switch {
	case errors.Is(err, analytics.ErrInvalidDateFormat):
		fail(c, http.StatusBadRequest, ErrCodeInvalidDate, err.Error())
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeAnalyticsFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, payload)
}

// FilterOptionsResponse lists the user identities selectable as filters.
type FilterOptionsResponse struct {
	Users []string `json:"users"`
}

// AnalyticsFilters godoc
// @ID          analyticsFilters
// @Summary     Analytics filter options
// @Description Enumerates the distinct user identities present in the
// @Description interaction log, for populating a filter control.
// @Tags        Analytics
// @Produce     json
//
// @Success     200  {object}  handlers.FilterOptionsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /analytics/filters [get]
func (h *Handlers) AnalyticsFilters(c *gin.Context) {
	users, err := h.analyticsSvc.Users(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeAnalyticsFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, FilterOptionsResponse{Users: users})
}
