package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/markany/safepc-anomaly/internal/ueba/services"
	"github.com/pkg/errors"
)

func errorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrModelNotTrained):
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrEmptyData), errors.Is(err, services.ErrNoTimestamp):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrFileNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func fail(ctx echo.Context, err error) error {
	return ctx.JSON(errorStatus(err), map[string]string{"error": err.Error()})
}
