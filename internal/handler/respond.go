package handler

import (
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/restaurant-table-reservation/internal/booking"
)

// fail maps a service error onto the response. Anything unrecognised is an
// internal error: it is logged and hidden from the caller.
func fail(c echo.Context, log *zap.Logger, err error) error {
    var (
        verr *booking.ValidationError
        ierr *booking.IntegrityError
    )
    switch {
    case errors.As(err, &verr):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": verr.Fields})
    case errors.Is(err, booking.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
    case errors.As(err, &ierr):
        return c.JSON(http.StatusConflict, echo.Map{"error": ierr.Error()})
    case errors.Is(err, booking.ErrModifyCutoff):
        return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
    case errors.Is(err, booking.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    log.Error("request failed",
        zap.String("method", c.Request().Method),
        zap.String("path", c.Path()),
        zap.Error(err))
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

func badRequest(c echo.Context, msg string) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    return id, err == nil && id != 0
}

// queryID parses an optional numeric query parameter; absent means 0.
func queryID(c echo.Context, name string) (uint64, bool) {
    s := c.QueryParam(name)
    if s == "" {
        return 0, true
    }
    id, err := strconv.ParseUint(s, 10, 64)
    return id, err == nil
}
