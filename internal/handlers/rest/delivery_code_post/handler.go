package delivery_code_post

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

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

	res, err := h.service.IssueCode(r.Context(), orderID)
	if err != nil {
		switch {
		case errors.Is(err, completion.ErrInvalidOrderID):
			w.WriteHeader(http.StatusBadRequest)
		case errors.Is(err, order.ErrOrderNotFound),
			errors.Is(err, completion.ErrCustomerNotFound):
			w.WriteHeader(http.StatusNotFound)
		case errors.Is(err, completion.ErrCodeNotAllowed):
			w.WriteHeader(http.StatusConflict)
		case errors.Is(err, completion.ErrMailUnavailable):
			// код сохранён, повторный запрос выдаст новый
			h.log.With(
				logger.NewField("order_id", orderID),
				logger.NewField("error", err),
			).Warn("delivery code mail")
			w.WriteHeader(http.StatusBadGateway)
		default:
			h.log.With(
				logger.NewField("order_id", orderID),
				logger.NewField("error", err),
			).Error("issue delivery code")
			w.WriteHeader(http.StatusInternalServerError)
		}
		return
	}

	response := dto.DeliveryCodeIssued{
		OrderID:  res.ID,
		IssuedAt: time.Now().UTC(),
		Message:  "delivery code sent to the customer",
	}
	if res.CodeIssuedAt != nil {
		response.IssuedAt = *res.CodeIssuedAt
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
