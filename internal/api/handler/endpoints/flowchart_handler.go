package endpoints

import (
	"blueprint"
	"blueprint/internal/api/handler/middleware"
	"blueprint/internal/api/handler/request"
	"blueprint/internal/api/handler/response"
	"blueprint/internal/api/service"
	"blueprint/internal/graph"
	"blueprint/pkg"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type flowchartHandler struct {
	flowchartService *service.FlowchartService
	logger           zerolog.Logger
	config           blueprint.AppConfig
}

func newFlowchartHandler() *flowchartHandler {
	return &flowchartHandler{
		flowchartService: service.NewFlowchartService(),
		logger:           blueprint.Logger,
		config:           blueprint.GetConfig(),
	}
}

func FlowchartHandler(router *graceful.Graceful) {
	h := newFlowchartHandler()

	flowcharts := router.Group("/api/v1/flowcharts")
	flowcharts.Use(middleware.AuthMiddleware(h.config))
	{
		flowcharts.POST("", h.create)
		flowcharts.GET("", h.list)
		flowcharts.GET("/:id", h.getByID)
		flowcharts.PATCH("/:id", h.update)
		flowcharts.DELETE("/:id", h.delete)

		flowcharts.POST("/:id/mutate", h.mutate)
		flowcharts.GET("/:id/validate", h.validate)

		flowcharts.POST("/:id/share", h.share)
		flowcharts.DELETE("/:id/share/:userId", h.unshare)
	}
}

// flowchartErrorStatus maps domain errors to HTTP codes. Conflicts are 409 so
// the client knows to reload and retry, rejected plans are 422.
func flowchartErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrFlowchartNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, graph.ErrVersionConflict):
		return http.StatusConflict
	case errors.Is(err, graph.ErrMalformedPlan):
		return http.StatusBadRequest
	case errors.Is(err, graph.ErrValidationRejected),
		errors.Is(err, graph.ErrDuplicateID),
		errors.Is(err, graph.ErrInvalidReference),
		errors.Is(err, graph.ErrTypeMismatch),
		errors.Is(err, graph.ErrFanInViolation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, graph.ErrCollaboratorUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func parseFlowchartID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "Invalid flowchart ID"})
		return 0, false
	}
	return uint(id), true
}

func (slf *flowchartHandler) create(c *gin.Context) {
	userID, ok := pkg.GetUserID(c)
	if !ok {
		return
	}

	var dto request.CreateFlowchartDTO
	if err := pkg.ParseAndValidate(c, &dto); err != nil {
		slf.logger.Error().Err(err).Msg("Error parsing and validating create flowchart DTO")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	flowchart, err := slf.flowchartService.Create(userID, dto)
	if err != nil {
		c.JSON(flowchartErrorStatus(err), response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, flowchart)
}

func (slf *flowchartHandler) list(c *gin.Context) {
	userID, ok := pkg.GetUserID(c)
	if !ok {
		return
	}

	flowcharts, err := slf.flowchartService.List(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to list flowcharts"})
		return
	}

	c.JSON(http.StatusOK, flowcharts)
}

func (slf *flowchartHandler) getByID(c *gin.Context) {
	userID, ok := pkg.GetUserID(c)
	if !ok {
		return
	}
	flowchartID, ok := parseFlowchartID(c)
	if !ok {
		return
	}

	flowchart, err := slf.flowchartService.GetByID(flowchartID, userID)
	if err != nil {
		c.JSON(flowchartErrorStatus(err), response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, flowchart)
}

func (slf *flowchartHandler) update(c *gin.Context) {
	userID, ok := pkg.GetUserID(c)
	if !ok {
		return
	}
	flowchartID, ok := parseFlowchartID(c)
	if !ok {
		return
	}

	var dto request.UpdateFlowchartDTO
	if err := pkg.ParseAndValidate(c, &dto); err != nil {
		slf.logger.Error().Err(err).Msg("Error parsing and validating update flowchart DTO")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	flowchart, err := slf.flowchartService.UpdateMeta(flowchartID, userID, dto)
	if err != nil {
		c.JSON(flowchartErrorStatus(err), response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, flowchart)
}

func (slf *flowchartHandler) delete(c *gin.Context) {
	userID, ok := pkg.GetUserID(c)
	if !ok {
		return
	}
	flowchartID, ok := parseFlowchartID(c)
	if !ok {
		return
	}

	if err := slf.flowchartService.Delete(flowchartID, userID); err != nil {
		c.JSON(flowchartErrorStatus(err), response.APIError{Message: err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

func (slf *flowchartHandler) mutate(c *gin.Context) {
	userID, ok := pkg.GetUserID(c)
	if !ok {
		return
	}
	flowchartID, ok := parseFlowchartID(c)
	if !ok {
		return
	}

	var dto request.MutateFlowchartDTO
	if err := pkg.ParseAndValidate(c, &dto); err != nil {
		slf.logger.Error().Err(err).Msg("Error parsing and validating mutate DTO")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	result, err := slf.flowchartService.Mutate(flowchartID, userID, dto.BaseVersion, dto.Operations)
	if err != nil {
		c.JSON(flowchartErrorStatus(err), response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (slf *flowchartHandler) validate(c *gin.Context) {
	userID, ok := pkg.GetUserID(c)
	if !ok {
		return
	}
	flowchartID, ok := parseFlowchartID(c)
	if !ok {
		return
	}

	result, err := slf.flowchartService.Validate(flowchartID, userID)
	if err != nil {
		c.JSON(flowchartErrorStatus(err), response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (slf *flowchartHandler) share(c *gin.Context) {
	userID, ok := pkg.GetUserID(c)
	if !ok {
		return
	}
	flowchartID, ok := parseFlowchartID(c)
	if !ok {
		return
	}

	var dto request.ShareFlowchartDTO
	if err := pkg.ParseAndValidate(c, &dto); err != nil {
		slf.logger.Error().Err(err).Msg("Error parsing and validating share DTO")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	if err := slf.flowchartService.Share(flowchartID, userID, dto); err != nil {
		c.JSON(flowchartErrorStatus(err), response.APIError{Message: err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

func (slf *flowchartHandler) unshare(c *gin.Context) {
	userID, ok := pkg.GetUserID(c)
	if !ok {
		return
	}
	flowchartID, ok := parseFlowchartID(c)
	if !ok {
		return
	}

	targetID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "Invalid user ID"})
		return
	}

	if err := slf.flowchartService.Unshare(flowchartID, userID, uint(targetID)); err != nil {
		c.JSON(flowchartErrorStatus(err), response.APIError{Message: err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}
