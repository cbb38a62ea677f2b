package http

import (
	"net/http"
	"strconv"

	"p2p-lending-backend/internal/adapter/middleware"
	"p2p-lending-backend/internal/usecase/loan"
	"p2p-lending-backend/pkg/money"

	"github.com/labstack/echo/v4"
)

type LoanHandler struct{ uc *loan.Usecase }

func NewLoanHandler(uc *loan.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

type requestLoanReq struct {
	Amount       int64   `json:"amount" validate:"gt=0"`
	EndTime      Instant `json:"end_time"`
	InterestRate int64   `json:"interest_rate" validate:"gt=0"`
}

// RequestLoan: POST /loans, borrower = caller.
func (h *LoanHandler) RequestLoan(c echo.Context) error {
	var req requestLoanReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	rc, err := h.uc.RequestLoan(c.Request().Context(), loan.RequestLoanInput{
		Borrower:     middleware.Caller(c),
		Amount:       money.Amount(req.Amount),
		EndTime:      req.EndTime.Time,
		InterestRate: req.InterestRate,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, rc)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("borrower"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// GetLoanByID: GET /loans/id/:loan_id, any record including terminal ones.
func (h *LoanHandler) GetLoanByID(c echo.Context) error {
	dto, err := h.uc.GetByLoanID(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// ListLoans: GET /loans?include_terminal=&after=&limit=
func (h *LoanHandler) ListLoans(c echo.Context) error {
	var in loan.ListLoansInput
	var err error
	if v := c.QueryParam("after"); v != "" {
		if in.After, err = strconv.ParseUint(v, 10, 64); err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "after must be a cursor", Code: "invalid_input"})
		}
	}
	if v := c.QueryParam("limit"); v != "" {
		if in.Limit, err = strconv.Atoi(v); err != nil || in.Limit < 0 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a non-negative integer", Code: "invalid_input"})
		}
	}
	if v := c.QueryParam("include_terminal"); v != "" {
		if in.IncludeTerminal, err = strconv.ParseBool(v); err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "include_terminal must be a boolean", Code: "invalid_input"})
		}
	}
	page, err := h.uc.ListLoans(c.Request().Context(), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *LoanHandler) Escrow(c echo.Context) error {
	s, err := h.uc.Escrow(c.Request().Context(), c.Param("borrower"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *LoanHandler) History(c echo.Context) error {
	evs, err := h.uc.History(c.Request().Context(), c.Param("borrower"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"events": evs})
}
