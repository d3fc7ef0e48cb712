package assignment_decline_post

import (
	"errors"
	"net/http"
	"strconv"

	"dispatch/internal/pkg/middlewares/auth"
	"dispatch/internal/service/dispatch"
	"dispatch/pkg/logger"

	"github.com/gorilla/mux"
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

// ServeHTTP отказ курьера от предложения. Тело ответа пустое: состав кандидатов курьеру не показываем.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	assignmentID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	_, err = h.service.Decline(r.Context(), assignmentID, identity.UID)
	if err != nil {
		switch {
		case errors.Is(err, dispatch.ErrInvalidAssignmentID),
			errors.Is(err, dispatch.ErrInvalidCourierID):
			w.WriteHeader(http.StatusBadRequest)
		case errors.Is(err, dispatch.ErrNotCandidate):
			w.WriteHeader(http.StatusForbidden)
		case errors.Is(err, dispatch.ErrAssignmentNotFound):
			w.WriteHeader(http.StatusNotFound)
		case errors.Is(err, dispatch.ErrAlreadyResolved),
			errors.Is(err, dispatch.ErrConcurrentUpdate):
			w.WriteHeader(http.StatusConflict)
		default:
			h.log.With(
				logger.NewField("assignment_id", assignmentID),
				logger.NewField("courier_id", identity.UID),
				logger.NewField("error", err),
			).Error("decline assignment")
			w.WriteHeader(http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
