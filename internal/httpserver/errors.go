package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/service"
)

// fail logs err under event and turns it into the HTTP error the client sees.
// Unknown errors become a bare 500.
func fail(l *slog.Logger, event string, err error) error {
	code := service.HTTPStatus(err)
	if code == http.StatusInternalServerError {
		l.Error(event, "status", code, "error", err)
		return echo.NewHTTPError(code, "internal server error").SetInternal(err)
	}
	msg := service.Message(err)
	if msg == "" {
		msg = http.StatusText(code)
	}
	l.Warn(event, "status", code, "reason", msg)
	return echo.NewHTTPError(code, msg)
}

func badRequest(l *slog.Logger, event, msg string, err error) error {
	l.Warn(event, "status", http.StatusBadRequest, "reason", msg, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, msg)
}
