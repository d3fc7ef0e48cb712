//go:generate mockgen -source=contract.go -destination=./contract_mocks_test.go -package=assignments_get_test
package assignments_get

import (
	"context"

	"dispatch/internal/entities"
	"dispatch/pkg/logger"
)

type handlerLogger interface {
	Debug(msg string, fields ...logger.Field)
	Info(msg string, fields ...logger.Field)
	Warn(msg string, fields ...logger.Field)
	Error(msg string, fields ...logger.Field)
	With(fields ...logger.Field) logger.Logger
}

type Service interface {
	ListOffers(ctx context.Context, courierID string) ([]entities.Assignment, error)
}
