package entities

import "time"

type Order struct {
	ID               int64
	CustomerID       string
	Items            []OrderItem
	TotalAmount      int64
	PaymentMethod    PaymentMethodType
	Address          DeliveryAddress
	Status           OrderStatusType
	AssignmentID     *int64
	AssignedCourier  *string
	VerificationCode *string
	CodeIssuedAt     *time.Time
	CodeAttempts     int
	DeliveredAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// OrderItem цена фиксируется на момент оформления и не перечитывается из каталога.
type OrderItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

type DeliveryAddress struct {
	Line       string  `json:"line"`
	City       string  `json:"city"`
	PostalCode string  `json:"postal_code"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
}

func (a DeliveryAddress) Point() Point {
	return Point{Latitude: a.Latitude, Longitude: a.Longitude}
}

type PaymentMethodType string

const (
	PaymentCOD    PaymentMethodType = "cod"
	PaymentOnline PaymentMethodType = "online"
)

func (p PaymentMethodType) String() string {
	return string(p)
}

type OrderStatusType string

const (
	OrderPending        OrderStatusType = "pending"
	OrderOutForDelivery OrderStatusType = "out_for_delivery"
	OrderDelivered      OrderStatusType = "delivered"
)

func (s OrderStatusType) String() string {
	return string(s)
}

func (s OrderStatusType) rank() int {
	switch s {
	case OrderPending:
		return 1
	case OrderOutForDelivery:
		return 2
	case OrderDelivered:
		return 3
	default:
		return 0
	}
}

func (s OrderStatusType) IsValid() bool {
	return s.rank() > 0
}

// CanTransitionTo только вперёд и только на один шаг.
func (s OrderStatusType) CanTransitionTo(next OrderStatusType) bool {
	if !s.IsValid() || !next.IsValid() {
		return false
	}
	return next.rank() == s.rank()+1
}

func (o *Order) IsDispatched() bool {
	return o.AssignmentID != nil
}

// AwaitingCourier заказ в доставке, но активного назначения нет: рассылку можно запускать.
func (o *Order) AwaitingCourier() bool {
	return o.Status == OrderOutForDelivery && o.AssignmentID == nil
}

// CodeExpired false при ttl <= 0: срок жизни кода не ограничен.
func (o *Order) CodeExpired(ttl time.Duration, now time.Time) bool {
	if ttl <= 0 || o.CodeIssuedAt == nil {
		return false
	}
	return now.Sub(*o.CodeIssuedAt) > ttl
}

type OrderStatusEvent struct {
	OrderID int64
	Status  OrderStatusType
}

type StatusChange struct {
	Order          *Order
	Dispatch       *DispatchResult
	NoCourier      bool
	// DispatchFailed статус сохранён, но рассылка не удалась из-за недоступности хранилищ;
	// её повторит фоновая задача.
	DispatchFailed bool
}

type DailyCount struct {
	Day   time.Time
	Count int64
}

type CourierStats struct {
	DeliveredToday int64
	LastWeek       []DailyCount
}
