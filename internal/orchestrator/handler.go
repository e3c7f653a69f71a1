package orchestrator

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"switchboard/internal/logger"
	"switchboard/pkg/errors"
	"switchboard/pkg/metrics"
)

type BaseHandler struct {
	Service Service
	Logger  logger.Logger
}

func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	h.Logger.ErrorwCtx(c.Request.Context(), "Request error", "error", err, "path", c.Request.URL.Path)

	status := errors.ToHTTPStatus(err)
	response := errors.ToErrorResponse(err)

	c.JSON(status, response)
}

type Handler struct {
	BaseHandler
}

func NewHandler(service Service, log logger.Logger) *Handler {
	return &Handler{
		BaseHandler: BaseHandler{
			Service: service,
			Logger:  log,
		},
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		webhooks := v1.Group("/webhooks")
		{
			webhooks.POST("/events", h.HandleEvent)
			webhooks.POST("/events/test", h.HandleTestEvent)
		}
	}
}

// HandleEvent godoc
// @Summary      Ingest a provider webhook event
// @Description  Normalizes a raw provider webhook, matches tenant automation rules and dispatches their actions
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        request  body      WebhookRequest  true  "Raw provider event"
// @Success      200      {object}  WebhookResponse
// @Failure      400      {object}  errors.ErrorResponse
// @Failure      500      {object}  errors.ErrorResponse
// @Router       /webhooks/events [post]
func (h *Handler) HandleEvent(c *gin.Context) {
	h.processEvent(c, false)
}

// HandleTestEvent godoc
// @Summary      Dry-run a provider webhook event
// @Description  Runs the full pipeline in simulate mode; no external action calls are made and no rule counters change
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        request  body      WebhookRequest  true  "Raw provider event"
// @Success      200      {object}  WebhookResponse
// @Failure      400      {object}  errors.ErrorResponse
// @Failure      500      {object}  errors.ErrorResponse
// @Router       /webhooks/events/test [post]
func (h *Handler) HandleTestEvent(c *gin.Context) {
	h.processEvent(c, true)
}

func (h *Handler) processEvent(c *gin.Context, forceSimulate bool) {
	var req WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.WebhooksReceivedTotal.WithLabelValues("unknown", "invalid").Inc()
		h.HandleError(c, errors.ErrValidation.WithCause(err))
		return
	}

	if forceSimulate {
		req.Simulate = true
	}

	response, err := h.Service.ProcessWebhook(c.Request.Context(), &req)
	if err != nil {
		metrics.WebhooksReceivedTotal.WithLabelValues(req.Provider,
			strconv.Itoa(errors.ToHTTPStatus(err))).Inc()
		h.HandleError(c, err)
		return
	}

	metrics.WebhooksReceivedTotal.WithLabelValues(req.Provider, "accepted").Inc()
	c.JSON(http.StatusOK, response)
}
