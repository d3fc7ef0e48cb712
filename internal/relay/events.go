package relay

import (
	"time"

	"dispatch/internal/entities"
)

const (
	EventNewOrderAssignment    = "new-order-assignment"
	EventAssignmentRevoked     = "assignment-revoked"
	EventAssignedOrder         = "assigned-order"
	EventUpdateOrderStatus     = "update-order-status"
	EventUpdateCourierLocation = "update-courier-location"

	// EventUpdateLocation единственный кадр, который принимается от клиента.
	EventUpdateLocation = "update-location"
)

type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type OfferData struct {
	AssignmentID  int64                    `json:"assignmentId"`
	OrderID       int64                    `json:"orderId"`
	Address       entities.DeliveryAddress `json:"address"`
	TotalAmount   int64                    `json:"totalAmount"`
	PaymentMethod string                   `json:"paymentMethod"`
	DistanceKm    float64                  `json:"distanceKm"`
}

type RevokedData struct {
	AssignmentID int64 `json:"assignmentId"`
}

type AssignedOrderData struct {
	AssignmentID int64     `json:"assignmentId"`
	OrderID      int64     `json:"orderId"`
	CourierID    string    `json:"courierId"`
	CourierName  string    `json:"courierName,omitempty"`
	AcceptedAt   time.Time `json:"acceptedAt"`
}

type OrderStatusData struct {
	OrderID int64  `json:"orderId"`
	Status  string `json:"status"`
}

type CourierLocationData struct {
	OrderID   int64   `json:"orderId"`
	CourierID string  `json:"courierId"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func NewOffer(a *entities.Assignment, o *entities.Order, distanceKm float64) Message {
	return Message{
		Event: EventNewOrderAssignment,
		Data: OfferData{
			AssignmentID:  a.ID,
			OrderID:       o.ID,
			Address:       o.Address,
			TotalAmount:   o.TotalAmount,
			PaymentMethod: o.PaymentMethod.String(),
			DistanceKm:    distanceKm,
		},
	}
}

func NewRevoked(assignmentID int64) Message {
	return Message{
		Event: EventAssignmentRevoked,
		Data:  RevokedData{AssignmentID: assignmentID},
	}
}

func NewOrderStatus(o *entities.Order) Message {
	return Message{
		Event: EventUpdateOrderStatus,
		Data: OrderStatusData{
			OrderID: o.ID,
			Status:  o.Status.String(),
		},
	}
}

func NewCourierLocation(orderID int64, loc entities.CourierLocation) Message {
	return Message{
		Event: EventUpdateCourierLocation,
		Data: CourierLocationData{
			OrderID:   orderID,
			CourierID: loc.CourierID,
			Latitude:  loc.Point.Latitude,
			Longitude: loc.Point.Longitude,
		},
	}
}
