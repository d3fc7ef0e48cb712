// Package dto JSON представление REST API.
package dto

import "time"

type Error struct {
	Error string `json:"error"`
}

type OrderStatusUpdate struct {
	Status string `json:"status"`
}

type AvailableCourier struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Mobile     string  `json:"mobile"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	DistanceKm float64 `json:"distance_km"`
}

type OrderStatusResponse struct {
	OrderID           int64              `json:"order_id"`
	Status            string             `json:"status"`
	AssignmentID      *int64             `json:"assignment_id,omitempty"`
	AvailableCouriers []AvailableCourier `json:"available_couriers"`
	Message           string             `json:"message,omitempty"`
}

type Address struct {
	Line       string  `json:"line"`
	City       string  `json:"city"`
	PostalCode string  `json:"postal_code"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
}

type OrderItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

type Order struct {
	ID              int64       `json:"id"`
	CustomerID      string      `json:"customer_id"`
	Items           []OrderItem `json:"items"`
	TotalAmount     int64       `json:"total_amount"`
	PaymentMethod   string      `json:"payment_method"`
	Address         Address     `json:"address"`
	Status          string      `json:"status"`
	AssignmentID    *int64      `json:"assignment_id,omitempty"`
	AssignedCourier *string     `json:"assigned_courier,omitempty"`
	DeliveredAt     *time.Time  `json:"delivered_at,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
}

// Assignment без списка кандидатов: курьер не должен видеть конкурентов.
type Assignment struct {
	ID         int64      `json:"id"`
	OrderID    int64      `json:"order_id"`
	Status     string     `json:"status"`
	AcceptedBy *string    `json:"accepted_by,omitempty"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type AcceptResponse struct {
	Assignment Assignment `json:"assignment"`
	Order      Order      `json:"order"`
}

type DeliveryCodeIssued struct {
	OrderID  int64     `json:"order_id"`
	IssuedAt time.Time `json:"issued_at"`
	Message  string    `json:"message"`
}

type DeliveryCodeVerify struct {
	Code string `json:"code"`
}

// LocationUpdate указатели отличают отсутствующую координату от нулевой.
type LocationUpdate struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type DailyCount struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

type CourierStats struct {
	DeliveredToday int64        `json:"delivered_today"`
	LastWeek       []DailyCount `json:"last_week"`
}

type PingResponse struct {
	Message      string            `json:"message"`
	Dependencies map[string]string `json:"dependencies"`
}
