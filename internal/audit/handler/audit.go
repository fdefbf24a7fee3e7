package handler

import (
	"net/http"

	"roombook/internal/audit/service"
	httputil "roombook/pkg/http"
	kafka_middleware "roombook/pkg/kafka/middleware"
	"roombook/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type AuditHandler struct {
	service service.AuditService
	metrics *kafka_middleware.Metrics
	log     *logger.Logger
}

// NewAuditHandler serves stored booking events and the counters of the
// consumer that records them.
func NewAuditHandler(service service.AuditService, metrics *kafka_middleware.Metrics, log *logger.Logger) *AuditHandler {
	return &AuditHandler{
		service: service,
		metrics: metrics,
		log:     log,
	}
}

func (h *AuditHandler) GetEvents(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetEvents", err)
		return
	}

	events, total, err := h.service.List(r.Context(), r.URL.Query().Get("booking_id"), limit, offset)
	if err != nil {
		h.writeError(w, "GetEvents", err)
		return
	}

	if err := httputil.WritePaginated(w, events, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetEvents", "operation", "WritePaginated", "error", err)
	}
}

func (h *AuditHandler) GetMetrics(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.WriteSuccess(w, h.metrics.Snapshot()); err != nil {
		h.log.Error("failed to write success response", "handler", "GetMetrics", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AuditHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *AuditHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/audit/events", h.GetEvents)
	router.GET("/api/v1/audit/metrics", h.GetMetrics)
}
