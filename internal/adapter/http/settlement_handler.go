package http

import (
	"net/http"

	"p2p-lending-backend/internal/adapter/middleware"
	"p2p-lending-backend/internal/usecase/loan"
	"p2p-lending-backend/pkg/money"

	"github.com/labstack/echo/v4"
)

type SettlementHandler struct{ uc *loan.Usecase }

func NewSettlementHandler(uc *loan.Usecase) *SettlementHandler { return &SettlementHandler{uc: uc} }

type depositReq struct {
	Deposit int64 `json:"deposit" validate:"gte=0"`
}

// FundLoan: POST /loans/:borrower/fund, funder = caller.
func (h *SettlementHandler) FundLoan(c echo.Context) error {
	var req depositReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	rc, err := h.uc.FundLoan(c.Request().Context(), loan.FundLoanInput{
		Borrower: c.Param("borrower"),
		Funder:   middleware.Caller(c),
		Deposit:  money.Amount(req.Deposit),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, rc)
}

// RepayLoan: POST /loans/:borrower/repay, borrower only.
func (h *SettlementHandler) RepayLoan(c echo.Context) error {
	var req depositReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	rc, err := h.uc.RepayLoan(c.Request().Context(), loan.RepayLoanInput{
		Borrower: c.Param("borrower"),
		Caller:   middleware.Caller(c),
		Deposit:  money.Amount(req.Deposit),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, rc)
}

// ClaimGaranty: POST /loans/:borrower/claim, funder only.
func (h *SettlementHandler) ClaimGaranty(c echo.Context) error {
	rc, err := h.uc.ClaimGaranty(c.Request().Context(), loan.ClaimGarantyInput{
		Borrower: c.Param("borrower"),
		Caller:   middleware.Caller(c),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, rc)
}
