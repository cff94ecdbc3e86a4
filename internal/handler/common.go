// Package handler implements the HTTP endpoints. Handlers return
// *apperror.Error values and leave rendering to ErrorHandler.
package handler

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/asset-management/internal/apperror"
	"github.com/iliyamo/asset-management/internal/middleware"
	"github.com/iliyamo/asset-management/internal/queue"
)

// requestTimeout bounds the store work of a single request.
const requestTimeout = 5 * time.Second

// EventPublisher sends domain events to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}

// notifier publishes events after a write has committed. A failed publish
// is logged and never fails the request.
type notifier struct {
	pub EventPublisher
	log *logrus.Logger
}

func (n notifier) emit(ev queue.Event) {
	if n.pub == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := n.pub.Publish(ctx, ev); err != nil {
		n.log.WithError(err).WithField("event", ev.Type).Warn("publish event failed")
	}
}

// normalizer is implemented by request bodies that clean up their fields
// before validation.
type normalizer interface {
	normalize()
}

// bind decodes the JSON body into req, trims it and runs the struct
// validation tags.
func bind(c echo.Context, req normalizer) error {
	if err := c.Bind(req); err != nil {
		return apperror.Validation("invalid request body")
	}
	req.normalize()
	if err := c.Validate(req); err != nil {
		return apperror.Validation(err.Error())
	}
	return nil
}

func trim(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}

// trimOptional trims *p and turns an empty value into nil.
func trimOptional(p **string) {
	if *p == nil {
		return
	}
	s := strings.TrimSpace(**p)
	if s == "" {
		*p = nil
		return
	}
	*p = &s
}

// pathID parses a positive integer path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.Validation("invalid " + name)
	}
	return id, nil
}

// caller returns the authenticated user's id and role.
func caller(c echo.Context) (uint64, string, error) {
	uid, ok := middleware.UserID(c)
	if !ok {
		return 0, "", apperror.Unauthenticated("missing bearer token")
	}
	return uid, middleware.Role(c), nil
}

func withTimeout(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

func message(msg string) echo.Map { return echo.Map{"message": msg} }
