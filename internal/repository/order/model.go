package order

import "time"

type OrderDB struct {
	ID               int64
	CustomerID       string
	Items            []OrderItemDB
	TotalAmount      int64
	PaymentMethod    string
	Address          AddressDB
	Status           string
	AssignmentID     *int64
	AssignedCourier  *string
	VerificationCode *string
	CodeIssuedAt     *time.Time
	CodeAttempts     int
	DeliveredAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// OrderItemDB элемент jsonb колонки items.
type OrderItemDB struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// AddressDB jsonb колонка address.
type AddressDB struct {
	Line       string  `json:"line"`
	City       string  `json:"city"`
	PostalCode string  `json:"postal_code"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
}

type DailyCountDB struct {
	Day   time.Time
	Count int64
}
