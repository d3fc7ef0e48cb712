package courier_location_put

import (
	"encoding/json"
	"errors"
	"net/http"

	"dispatch/internal/dto"
	"dispatch/internal/entities"
	"dispatch/internal/pkg/middlewares/auth"
	"dispatch/internal/service/courier"
	"dispatch/pkg/logger"
)

type Handler struct {
	log     handlerLogger
	service Service
}

func New(log handlerLogger, service Service) *Handler {
	handlerLog := log.With()

	return &Handler{
		log:     handlerLog,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var body dto.LocationUpdate
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Latitude == nil || body.Longitude == nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	point := entities.Point{Latitude: *body.Latitude, Longitude: *body.Longitude}
	err := h.service.UpdateLocation(r.Context(), identity.UID, point)
	if err != nil {
		switch {
		case errors.Is(err, courier.ErrInvalidCoordinates),
			errors.Is(err, courier.ErrInvalidCourierID):
			w.WriteHeader(http.StatusBadRequest)
		case errors.Is(err, courier.ErrTooManyUpdates):
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			h.log.With(
				logger.NewField("courier_id", identity.UID),
				logger.NewField("error", err),
			).Error("update courier location")
			w.WriteHeader(http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
