package assignment_accept_post

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"dispatch/internal/dto"
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

	res, err := h.service.Accept(r.Context(), assignmentID, identity.UID)
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
			errors.Is(err, dispatch.ErrCourierBusy),
			errors.Is(err, dispatch.ErrConcurrentUpdate):
			w.WriteHeader(http.StatusConflict)
		default:
			h.log.With(
				logger.NewField("assignment_id", assignmentID),
				logger.NewField("courier_id", identity.UID),
				logger.NewField("error", err),
			).Error("accept assignment")
			w.WriteHeader(http.StatusInternalServerError)
		}
		return
	}

	response := dto.AcceptResponse{
		Assignment: dto.FromAssignment(res.Assignment),
		Order:      dto.FromOrder(res.Order),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	err = json.NewEncoder(w).Encode(response)
	if err != nil {
		h.log.With(
			logger.NewField("error", err),
		).Error("encode JSON response")
	}
}
