package entities

import "time"

type Point struct {
	Latitude  float64
	Longitude float64
}

func (p Point) Valid() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180
}

type CourierLocation struct {
	CourierID string
	Point     Point
	UpdatedAt time.Time
}

type NearbyCourier struct {
	CourierID  string
	Point      Point
	DistanceKm float64
}

type CourierSummary struct {
	ID         string
	Name       string
	Mobile     string
	Point      Point
	DistanceKm float64
}

type UserRoleType string

const (
	RoleCustomer UserRoleType = "customer"
	RoleCourier  UserRoleType = "courier"
	RoleAdmin    UserRoleType = "admin"
)

func (r UserRoleType) String() string {
	return string(r)
}

func (r UserRoleType) IsValid() bool {
	switch r {
	case RoleCustomer, RoleCourier, RoleAdmin:
		return true
	default:
		return false
	}
}

type User struct {
	ID     string
	Name   string
	Email  string
	Mobile string
	Role   UserRoleType
}

// Identity проверенный субъект запроса: uid из токена и роль из его claims.
type Identity struct {
	UID  string
	Role UserRoleType
}
