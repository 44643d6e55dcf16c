package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "smutrack/internal/errors"
	"smutrack/internal/middleware"
	"smutrack/internal/tracking"
	apiv1 "smutrack/pkg/contracts/api/v1"
)

// TrackingHandler serves one-off tracking requests.
type TrackingHandler struct {
	service      TrackingServiceInterface
	validator    *middleware.Validator
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewTrackingHandler creates a new tracking handler
func NewTrackingHandler(service TrackingServiceInterface, validator *middleware.Validator, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *TrackingHandler {
	return &TrackingHandler{
		service:      service,
		validator:    validator,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "tracking")),
	}
}

// Routes returns the tracking routes
func (h *TrackingHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Post("/", h.Track)
	return r
}

// Track handles POST /api/track
func (h *TrackingHandler) Track(w http.ResponseWriter, r *http.Request) {
	var body apiv1.TrackRequest
	if err := h.validator.DecodeAndValidate(r, &body); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	req := tracking.Request{
		SMU:         body.SMU,
		Origin:      body.Origin,
		Transit:     body.Transit,
		Destination: body.Destination,
	}
	if body.Airline != "" {
		airline, err := tracking.ParseAirline(body.Airline)
		if err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		req.Airline = airline
	}

	res, err := h.service.Track(r.Context(), req)
	if err != nil && !apierrors.IsType(err, apierrors.ErrTypeUnexpected) {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, toTrackResponse(res))
}

// toTrackResponse maps a result onto the wire contract. A failed run still
// carries the system error status, so it is reported as a normal response.
func toTrackResponse(res tracking.Result) apiv1.TrackResponse {
	out := apiv1.TrackResponse{Status: res.Status}
	if eta, ok := res.EtaBandara(); ok {
		out.EtaBandara = &eta
	}
	if koli, ok := res.Koli.Value(); ok {
		out.Koli = &koli
	}
	return out
}
