package http

import (
	"net/http"

	"p2p-lending-backend/internal/adapter/middleware"
	"p2p-lending-backend/internal/usecase/loan"
	"p2p-lending-backend/pkg/money"

	"github.com/labstack/echo/v4"
)

type GuarantyHandler struct{ uc *loan.Usecase }

func NewGuarantyHandler(uc *loan.Usecase) *GuarantyHandler { return &GuarantyHandler{uc: uc} }

type provideGarantyReq struct {
	Terms   int64 `json:"terms"`
	Deposit int64 `json:"deposit" validate:"gte=0"`
}

type validateGarantyReq struct {
	Guarantor string `json:"guarantor" validate:"required,address"`
	Accept    *bool  `json:"accept"    validate:"required"`
}

// ProvideGaranty: POST /loans/:borrower/guaranty, guarantor = caller.
func (h *GuarantyHandler) ProvideGaranty(c echo.Context) error {
	var req provideGarantyReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	rc, err := h.uc.ProvideGaranty(c.Request().Context(), loan.ProvideGarantyInput{
		Borrower:  c.Param("borrower"),
		Guarantor: middleware.Caller(c),
		Terms:     req.Terms,
		Deposit:   money.Amount(req.Deposit),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, rc)
}

// GetGarantor: GET /loans/:borrower/guarantor, borrower only.
func (h *GuarantyHandler) GetGarantor(c echo.Context) error {
	dto, err := h.uc.GetGarantor(c.Request().Context(), loan.GetGarantorInput{
		Borrower: c.Param("borrower"),
		Caller:   middleware.Caller(c),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// ValidateGaranty: POST /loans/:borrower/guaranty/validate, borrower only.
func (h *GuarantyHandler) ValidateGaranty(c echo.Context) error {
	var req validateGarantyReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	rc, err := h.uc.ValidateGaranty(c.Request().Context(), loan.ValidateGarantyInput{
		Borrower:  c.Param("borrower"),
		Caller:    middleware.Caller(c),
		Guarantor: req.Guarantor,
		Accept:    *req.Accept,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, rc)
}
