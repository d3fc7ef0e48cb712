//go:generate mockgen -source=contract.go -destination=./contract_mocks_test.go -package=assignment_accept_post_test
package assignment_accept_post

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
	Accept(ctx context.Context, assignmentID int64, courierID string) (*entities.AcceptResult, error)
}
