package http

import (
	"net/http"

	"p2p-lending-backend/internal/domain/loan"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// StatusOf maps a usecase error to its HTTP status.
func StatusOf(err error) int { return statusOfCode(loan.Code(err)) }

func statusOfCode(code string) int {
	switch code {
	case "ok":
		return http.StatusOK
	case "invalid_input", "invalid_terms":
		return http.StatusBadRequest
	case "unauthorized", "self_guaranty":
		return http.StatusForbidden
	case "no_such_loan":
		return http.StatusNotFound
	case "amount_mismatch":
		return http.StatusUnprocessableEntity
	case "internal":
		return http.StatusInternalServerError
	default:
		return http.StatusConflict
	}
}

// fail writes err as an ErrorResponse; internal errors are logged and hidden.
func fail(c echo.Context, err error) error {
	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		logrus.WithError(err).WithFields(logrus.Fields{
			"method": c.Request().Method,
			"path":   c.Path(),
		}).Error("request failed")
		return c.JSON(status, ErrorResponse{Error: "internal error", Code: "internal"})
	}
	return c.JSON(status, ErrorResponse{Error: err.Error(), Code: loan.Code(err)})
}

func invalidBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body", Code: "invalid_input"})
}

func validationFailed(c echo.Context, err error) error {
	return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "validation failed",
		Code:    "invalid_input",
		Details: ToFieldErrors(err),
	})
}

// bindValid binds and validates req; when it reports false the error
// response has already been written and err is what the handler returns.
func bindValid(c echo.Context, req any) (ok bool, err error) {
	if err := c.Bind(req); err != nil {
		return false, invalidBody(c)
	}
	if err := c.Validate(req); err != nil {
		return false, validationFailed(c, err)
	}
	return true, nil
}
