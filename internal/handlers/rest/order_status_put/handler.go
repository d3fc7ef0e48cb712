package order_status_put

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"dispatch/internal/dto"
	"dispatch/internal/entities"
	"dispatch/internal/pkg/middlewares/auth"
	"dispatch/internal/service/dispatch"
	"dispatch/internal/service/order"
	"dispatch/pkg/logger"

	"github.com/gorilla/mux"
)

const (
	noCourierMessage           = "no courier found, try again later"
	dispatchUnavailableMessage = "status saved, courier search is temporarily unavailable and will be retried"
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

	orderID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var body dto.OrderStatusUpdate
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Status == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	change, err := h.service.ChangeStatus(r.Context(), orderID, entities.OrderStatusType(body.Status), identity.UID)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrInvalidOrderID),
			errors.Is(err, order.ErrUndefinedStatus),
			errors.Is(err, order.ErrDeliveredByCode):
			w.WriteHeader(http.StatusBadRequest)
		case errors.Is(err, order.ErrOrderNotFound):
			w.WriteHeader(http.StatusNotFound)
		case errors.Is(err, order.ErrInvalidTransition),
			errors.Is(err, order.ErrStatusConflict),
			errors.Is(err, dispatch.ErrOrderAlreadyDispatched):
			w.WriteHeader(http.StatusConflict)
		default:
			h.log.With(
				logger.NewField("order_id", orderID),
				logger.NewField("error", err),
			).Error("change order status")
			w.WriteHeader(http.StatusInternalServerError)
		}
		return
	}

	res := dto.FromStatusChange(change, noCourierMessage)
	code := http.StatusOK
	if change.DispatchFailed {
		res.Message = dispatchUnavailableMessage
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	err = json.NewEncoder(w).Encode(res)
	if err != nil {
		h.log.With(
			logger.NewField("error", err),
		).Error("encode JSON response")
	}
}
