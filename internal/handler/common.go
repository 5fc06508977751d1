package handler // handler defines http handlers

import (
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/concert-booking/internal/middleware"
    "github.com/iliyamo/concert-booking/internal/model"
    "github.com/iliyamo/concert-booking/internal/service"
)

// errorJSON writes {"error": msg} with status.
func errorJSON(c echo.Context, status int, msg string) error {
    return c.JSON(status, echo.Map{"error": msg})
}

// serviceError maps a service error to its HTTP status.  Unclassified
// errors become a 500 and are attached to the request log.
func serviceError(c echo.Context, err error) error {
    switch {
    case errors.Is(err, service.ErrUnauthorized):
        return errorJSON(c, http.StatusUnauthorized, err.Error())
    case errors.Is(err, service.ErrForbidden):
        return errorJSON(c, http.StatusForbidden, err.Error())
    case errors.Is(err, service.ErrBadRequest):
        return errorJSON(c, http.StatusBadRequest, err.Error())
    case errors.Is(err, service.ErrNotFound):
        return errorJSON(c, http.StatusNotFound, err.Error())
    case errors.Is(err, service.ErrConflict):
        return errorJSON(c, http.StatusConflict, err.Error())
    }
    return internalError(c, err)
}

func internalError(c echo.Context, err error) error {
    middleware.RecordError(c, err)
    return errorJSON(c, http.StatusInternalServerError, "internal error")
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, false
    }
    return id, true
}

// currentUser returns the authenticated caller.  Routes using it sit
// behind SessionAuth, so a miss means the route was mis-wired.
func currentUser(c echo.Context) (model.User, error) {
    u, ok := middleware.CurrentUser(c)
    if !ok {
        return model.User{}, service.ErrUnauthorized
    }
    return u, nil
}
