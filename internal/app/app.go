package app

import (
	"dispatch/internal/handlers/kafka-consumer/order_status_changed"
	"dispatch/internal/handlers/rest/assignment_accept_post"
	"dispatch/internal/handlers/rest/assignment_decline_post"
	"dispatch/internal/handlers/rest/assignments_get"
	"dispatch/internal/handlers/rest/courier_location_put"
	"dispatch/internal/handlers/rest/courier_orders_get"
	"dispatch/internal/handlers/rest/courier_stats_get"
	"dispatch/internal/handlers/rest/delivery_code_post"
	"dispatch/internal/handlers/rest/delivery_code_verify_post"
	"dispatch/internal/handlers/rest/order_status_put"
	"dispatch/internal/handlers/ws/relay_subscribe"
	"dispatch/internal/pkg/middlewares/auth"
	"dispatch/internal/relay"
	"dispatch/pkg/background"
)

type Application struct {
	ServiceOrder      ServiceOrder
	ServiceDispatch   ServiceDispatch
	ServiceCompletion ServiceCompletion
	ServiceCourier    ServiceCourier
	Relay             *relay.Relay
	Authenticator     *auth.Authenticator
	BackgroundWorkers *background.Worker
}

type ServiceOrder interface {
	order_status_put.Service
}

type ServiceDispatch interface {
	assignment_accept_post.Service
	assignment_decline_post.Service
	assignments_get.Service
}

type ServiceCompletion interface {
	delivery_code_post.Service
	delivery_code_verify_post.Service
}

type ServiceCourier interface {
	courier_location_put.Service
	courier_orders_get.Service
	courier_stats_get.Service
	relay_subscribe.LocationService
}

// KafkaWorkerApp публикует realtime события только через Redis шину: у воркера нет своих соединений.
type KafkaWorkerApp struct {
	OrderService order_status_changed.Service
}
