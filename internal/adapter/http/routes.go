package http

import (
	"net/http"
	"time"

	"p2p-lending-backend/internal/adapter/middleware"
	"p2p-lending-backend/internal/usecase/loan"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

type Deps struct {
	Loans *loan.Usecase
	// Events may be nil; /events/stream is then not served.
	Events EventSource
	// Idempotency store for mutating routes; nil disables replay protection.
	Redis          *redis.Client
	IdempotencyTTL time.Duration
	Metrics        http.Handler
	// Checks back /health, keyed by dependency name.
	Checks map[string]Check
}

// Register mounts every route on e.
func Register(e *echo.Echo, d Deps) {
	h := NewHandler(d.Checks)
	loans := NewLoanHandler(d.Loans)
	guaranty := NewGuarantyHandler(d.Loans)
	settle := NewSettlementHandler(d.Loans)

	e.GET("/health", h.Health)
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics))
	}

	// reads are public
	e.GET("/loans", loans.ListLoans)
	e.GET("/loans/id/:loan_id", loans.GetLoanByID)
	e.GET("/loans/:borrower", loans.GetLoan)
	e.GET("/loans/:borrower/escrow", loans.Escrow)
	e.GET("/loans/:borrower/events", loans.History)
	if d.Events != nil {
		e.GET("/events/stream", NewStreamHandler(d.Events).Stream)
	}

	auth := []echo.MiddlewareFunc{middleware.CallerIdentity()}
	e.GET("/loans/:borrower/guarantor", guaranty.GetGarantor, auth...)

	mut := auth
	if d.Redis != nil {
		mut = append(mut, middleware.IdempotencyMiddleware(d.Redis, d.IdempotencyTTL))
	}
	e.POST("/loans", loans.RequestLoan, mut...)
	e.POST("/loans/:borrower/guaranty", guaranty.ProvideGaranty, mut...)
	e.POST("/loans/:borrower/guaranty/validate", guaranty.ValidateGaranty, mut...)
	e.POST("/loans/:borrower/fund", settle.FundLoan, mut...)
	e.POST("/loans/:borrower/repay", settle.RepayLoan, mut...)
	e.POST("/loans/:borrower/claim", settle.ClaimGaranty, mut...)
}
