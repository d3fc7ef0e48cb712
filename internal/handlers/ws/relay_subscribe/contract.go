//go:generate mockgen -source=contract.go -destination=./contract_mocks_test.go -package=relay_subscribe_test
package relay_subscribe

import (
	"context"

	"dispatch/internal/entities"
	"dispatch/internal/relay"
	"dispatch/pkg/logger"
)

type handlerLogger interface {
	Debug(msg string, fields ...logger.Field)
	Info(msg string, fields ...logger.Field)
	Warn(msg string, fields ...logger.Field)
	Error(msg string, fields ...logger.Field)
	With(fields ...logger.Field) logger.Logger
}

type Hub interface {
	Bind(identity string, role entities.UserRoleType, conn relay.Conn) (relay.Conn, error)
	Unbind(identity string, conn relay.Conn) bool
}

type LocationService interface {
	UpdateLocation(ctx context.Context, courierID string, point entities.Point) error
}
