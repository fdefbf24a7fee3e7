package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"roombook/internal/bookings/export"
	"roombook/internal/bookings/service"
	httputil "roombook/pkg/http"
	"roombook/pkg/logger"
	"roombook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const defaultExportDays = 7

type BookingHandler struct {
	service service.BookingService
	loc     *time.Location
	log     *logger.Logger
	now     func() time.Time
}

// NewBookingHandler serves the bookings API. Local times and dates in query
// parameters are read in loc.
func NewBookingHandler(service service.BookingService, loc *time.Location, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		loc:     loc,
		log:     log,
		now:     time.Now,
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var booking model.Booking
	if err := httputil.DecodeJSON(r, &booking); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := h.service.Create(r.Context(), &booking); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	bookings, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) Replace(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var booking model.Booking
	if err := httputil.DecodeJSON(r, &booking); err != nil {
		h.writeError(w, "Replace", err)
		return
	}

	updated, err := h.service.Replace(r.Context(), ps.ByName("id"), &booking)
	if err != nil {
		h.writeError(w, "Replace", err)
		return
	}

	if err := httputil.WriteSuccess(w, updated); err != nil {
		h.log.Error("failed to write success response", "handler", "Replace", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.BookingUpdate
	if err := httputil.DecodeJSON(r, &updates); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	updated, err := h.service.Update(r.Context(), ps.ByName("id"), &updates)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, updated); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *BookingHandler) Availability(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()
	query := model.Availability{
		RoomID:    q.Get("room_id"),
		ExcludeID: q.Get("exclude_id"),
	}

	var err error
	if v := q.Get("start_time"); v != "" {
		if query.StartTime, err = httputil.ParseTime("start_time", v, h.loc); err != nil {
			h.writeError(w, "Availability", err)
			return
		}
	}
	if v := q.Get("end_time"); v != "" {
		if query.EndTime, err = httputil.ParseTime("end_time", v, h.loc); err != nil {
			h.writeError(w, "Availability", err)
			return
		}
	}

	result, err := h.service.CheckAvailability(r.Context(), &query)
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "Availability", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Calendar(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()
	date, err := httputil.ParseDate("date", q.Get("date"), h.loc, h.now())
	if err != nil {
		h.writeError(w, "Calendar", err)
		return
	}

	events, err := h.service.Calendar(r.Context(), date, q.Get("room_id"))
	if err != nil {
		h.writeError(w, "Calendar", err)
		return
	}

	if err := httputil.WriteSuccess(w, events); err != nil {
		h.log.Error("failed to write success response", "handler", "Calendar", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Stats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.writeError(w, "Stats", err)
		return
	}

	if err := httputil.WriteSuccess(w, stats); err != nil {
		h.log.Error("failed to write success response", "handler", "Stats", "operation", "WriteSuccess", "error", err)
	}
}

// Export streams an XLSX workbook of bookings starting between the from and
// to dates, both inclusive. from defaults to today, to to a week later.
func (h *BookingHandler) Export(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()
	from, err := httputil.ParseDate("from", q.Get("from"), h.loc, h.now())
	if err != nil {
		h.writeError(w, "Export", err)
		return
	}
	to := from.AddDate(0, 0, defaultExportDays-1)
	if v := q.Get("to"); v != "" {
		if to, err = httputil.ParseDate("to", v, h.loc, h.now()); err != nil {
			h.writeError(w, "Export", err)
			return
		}
	}
	end := to.AddDate(0, 0, 1)

	data, err := h.service.Export(r.Context(), from, end)
	if err != nil {
		h.writeError(w, "Export", err)
		return
	}

	w.Header().Set("Content-Type", export.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(from, to, h.loc)))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.log.Error("failed to write export", "handler", "Export", "operation", "Write", "error", err)
	}
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Create)
	router.GET("/api/v1/bookings", h.GetAll)
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.PUT("/api/v1/bookings/id/:id", h.Replace)
	router.PATCH("/api/v1/bookings/id/:id", h.Update)
	router.DELETE("/api/v1/bookings/id/:id", h.Delete)
	router.GET("/api/v1/bookings/availability", h.Availability)
	router.GET("/api/v1/bookings/calendar", h.Calendar)
	router.GET("/api/v1/bookings/stats", h.Stats)
	router.GET("/api/v1/bookings/export", h.Export)
}
