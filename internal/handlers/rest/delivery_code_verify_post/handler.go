package delivery_code_verify_post

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"dispatch/internal/dto"
	"dispatch/internal/service/completion"
	"dispatch/internal/service/order"
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
	orderID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var body dto.DeliveryCodeVerify
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Code == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	res, err := h.service.Verify(r.Context(), orderID, body.Code)
	if err != nil {
		switch {
		case errors.Is(err, completion.ErrInvalidOrderID),
			errors.Is(err, completion.ErrInvalidCode):
			w.WriteHeader(http.StatusBadRequest)
		case errors.Is(err, order.ErrOrderNotFound):
			w.WriteHeader(http.StatusNotFound)
		case errors.Is(err, completion.ErrCodeNotAllowed):
			w.WriteHeader(http.StatusConflict)
		case errors.Is(err, completion.ErrCodeExpired):
			w.WriteHeader(http.StatusGone)
		case errors.Is(err, completion.ErrTooManyAttempts):
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			h.log.With(
				logger.NewField("order_id", orderID),
				logger.NewField("error", err),
			).Error("verify delivery code")
			w.WriteHeader(http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	err = json.NewEncoder(w).Encode(dto.FromOrder(res))
	if err != nil {
		h.log.With(
			logger.NewField("error", err),
		).Error("encode JSON response")
	}
}
