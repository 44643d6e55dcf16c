package http

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "smutrack/internal/errors"
	"smutrack/internal/exporter"
	"smutrack/internal/middleware"
	"smutrack/internal/shipments"
	apiv1 "smutrack/pkg/contracts/api/v1"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeCSV  = "text/csv; charset=utf-8"
	maxListLimit    = 1000
)

// ShipmentHandler serves the shipment board.
type ShipmentHandler struct {
	store        shipments.Store
	tracking     TrackingServiceInterface
	exporter     *exporter.BoardExporter
	validator    *middleware.Validator
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
	now          func() time.Time
}

// NewShipmentHandler creates a new shipment handler
func NewShipmentHandler(
	store shipments.Store,
	trackingService TrackingServiceInterface,
	boardExporter *exporter.BoardExporter,
	validator *middleware.Validator,
	errorHandler *apierrors.ErrorHandler,
	logger *slog.Logger,
) *ShipmentHandler {
	return &ShipmentHandler{
		store:        store,
		tracking:     trackingService,
		exporter:     boardExporter,
		validator:    validator,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "shipments")),
		now:          time.Now,
	}
}

// Routes returns the shipment routes. {ref} is the shipment id, except
// under /track where it is the SMU.
func (h *ShipmentHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/export.xlsx", h.ExportXLSX)
	r.Get("/export.csv", h.ExportCSV)

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Post("/track-all", h.TrackAll)

		r.Route("/{ref}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Put("/", h.Update)
			r.Delete("/", h.Delete)
			r.Post("/track", h.Track)
		})
	})

	return r
}

// List handles GET /api/shipments
func (h *ShipmentHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	list, err := h.store.List(r.Context(), filter)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, apiv1.NewListResponse(list))
}

// Create handles POST /api/shipments
func (h *ShipmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body apiv1.ShipmentRequest
	if err := h.validator.DecodeAndValidate(r, &body); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	sh, err := h.store.Create(r.Context(), toDraft(body))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "shipment created",
		slog.String("id", sh.ID),
		slog.String("smu", sh.SMU))

	w.Header().Set("Location", "/api/shipments/"+sh.ID)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, sh)
}

// Get handles GET /api/shipments/{id}
func (h *ShipmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	sh, err := h.store.Get(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, sh)
}

// Update handles PUT /api/shipments/{id}
func (h *ShipmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var body apiv1.ShipmentRequest
	if err := h.validator.DecodeAndValidate(r, &body); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	sh, err := h.store.Update(r.Context(), chi.URLParam(r, "ref"), toDraft(body))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, sh)
}

// Delete handles DELETE /api/shipments/{id}
func (h *ShipmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), chi.URLParam(r, "ref")); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Track handles POST /api/shipments/{smu}/track
func (h *ShipmentHandler) Track(w http.ResponseWriter, r *http.Request) {
	sh, res, err := h.tracking.TrackShipment(r.Context(), chi.URLParam(r, "ref"))
	if err != nil && (sh == nil || !apierrors.IsType(err, apierrors.ErrTypeUnexpected)) {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, apiv1.ShipmentTrackResponse[*shipments.Shipment]{
		Shipment: sh,
		Result:   toTrackResponse(res),
	})
}

// TrackAll handles POST /api/shipments/track-all
func (h *ShipmentHandler) TrackAll(w http.ResponseWriter, r *http.Request) {
	summary, err := h.tracking.TrackAll(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, summary)
}

// ExportXLSX handles GET /api/shipments/export.xlsx
func (h *ShipmentHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "xlsx", contentTypeXLSX, h.exporter.WriteXLSX)
}

// ExportCSV handles GET /api/shipments/export.csv
func (h *ShipmentHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "csv", contentTypeCSV, h.exporter.WriteCSV)
}

func (h *ShipmentHandler) export(w http.ResponseWriter, r *http.Request, ext, contentType string,
	write func(w io.Writer, list []*shipments.Shipment) error) {
	filter, err := parseFilter(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	list, err := h.store.List(r.Context(), filter)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := write(&buf, list); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewUnexpectedError("export failed", err))
		return
	}

	filename := fmt.Sprintf("shipments-%s.%s", h.now().Format("20060102-1504"), ext)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}

func toDraft(body apiv1.ShipmentRequest) shipments.Draft {
	return shipments.Draft{
		SMU:          body.SMU,
		CustomerName: body.CustomerName,
		Origin:       body.Origin,
		Transit:      body.Transit,
		Destination:  body.Destination,
		Koli:         body.Koli,
		Notes:        body.Notes,
	}
}

// parseFilter reads ListShipmentsQuery from the query string. since accepts
// RFC 3339 or a plain date.
func parseFilter(r *http.Request) (shipments.Filter, error) {
	q := r.URL.Query()
	query := apiv1.ListShipmentsQuery{
		Destination: q.Get("destination"),
		Status:      q.Get("status"),
		Since:       q.Get("since"),
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 || limit > maxListLimit {
			return shipments.Filter{}, apierrors.NewValidationErrors([]apierrors.ValidationError{{
				Field:   "limit",
				Message: fmt.Sprintf("limit must be an integer between 0 and %d", maxListLimit),
			}})
		}
		query.Limit = limit
	}

	filter := shipments.Filter{
		Destination:  query.Destination,
		StatusPrefix: query.Status,
		Limit:        query.Limit,
	}

	if query.Since != "" {
		since, err := time.Parse(time.RFC3339, query.Since)
		if err != nil {
			since, err = time.Parse(time.DateOnly, query.Since)
		}
		if err != nil {
			return shipments.Filter{}, apierrors.NewValidationErrors([]apierrors.ValidationError{{
				Field:   "since",
				Message: "since must be RFC 3339 or YYYY-MM-DD",
			}})
		}
		filter.Since = since
	}

	return filter, nil
}
