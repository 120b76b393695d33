package http

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/observability"
	apperrors "github.com/spec-kit/ticket-bot/pkg/util/errorutil"
)

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	app.Use(observability.RequestLogger(logger, metrics))
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// errorHandlingMiddleware renders errors as {"error":{"code","message"}}.
// The message is the end-user text; the internal description only reaches
// the log.
func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := toDomainError(err)
				metrics.RecordError(c.Route().Path, c.Method(), domainErr.Code)
				body := fiber.Map{
					"code":    domainErr.Code,
					"message": domainErr.UserMessage,
				}
				if len(domainErr.Details) > 0 && domainErr.HTTPStatus < fiber.StatusInternalServerError {
					body["details"] = domainErr.Details
				}
				fields := []zap.Field{
					zap.String("code", domainErr.Code),
					zap.String("path", c.Path()),
					zap.Error(domainErr),
				}
				if domainErr.HTTPStatus >= fiber.StatusInternalServerError {
					logger.Error("request failed", fields...)
				} else {
					logger.Debug("request rejected", fields...)
				}
				_ = c.Status(domainErr.HTTPStatus).JSON(fiber.Map{"error": body})
				err = nil
			}
		}()
		return c.Next()
	}
}

// toDomainError also understands the *fiber.Error values produced by routing
// and the scope checks.
func toDomainError(err error) *apperrors.DomainError {
	var fiberErr *fiber.Error
	if !errors.As(err, &fiberErr) {
		return apperrors.ToDomainError(err)
	}
	var code string
	switch {
	case fiberErr.Code == fiber.StatusUnauthorized || fiberErr.Code == fiber.StatusForbidden:
		code = apperrors.CodeUnauthorized
	case fiberErr.Code == fiber.StatusNotFound:
		code = "NOT_FOUND"
	case fiberErr.Code < fiber.StatusInternalServerError:
		code = "BAD_REQUEST"
	default:
		code = apperrors.CodeInternal
	}
	de := apperrors.NewDomainError(code, fiberErr.Message, fiberErr.Code, nil)
	if fiberErr.Code < fiber.StatusInternalServerError {
		de.UserMessage = fiberErr.Message
	}
	return de
}
