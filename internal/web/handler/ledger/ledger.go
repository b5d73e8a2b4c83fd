// Package ledger exposes the earnings ledger over HTTP.
package ledger

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/legaldesk/legaldesk/internal/db/models"
	"github.com/legaldesk/legaldesk/internal/ledger"
	"github.com/legaldesk/legaldesk/internal/rbac"
	"github.com/legaldesk/legaldesk/internal/web/handler"
)

const (
	// TransactionsPath appends transactions.
	TransactionsPath = "/ledger/transactions"

	// StatusPath moves a transaction through its lifecycle.
	StatusPath = "/ledger/transactions/:id/status"

	// SummaryPath returns a lawyer's stored summary.
	SummaryPath = "/ledger/lawyers/:id/summary"

	// ReconcilePath compares a lawyer's summary with the log.
	ReconcilePath = "/ledger/lawyers/:id/reconcile"

	// RepairPath overwrites a lawyer's summary with the recomputed one.
	RepairPath = "/ledger/lawyers/:id/repair"
)

// Service is the ledger handler service.
type Service struct {
	ledger    *ledger.Service
	validator *validator.Validate
}

// StatusRequest is the body of a status change.
type StatusRequest struct {
	Status models.TransactionStatus `json:"status" validate:"required,oneof=completed failed refunded"`
}

// TransactionView is the API representation of a transaction.
type TransactionView struct {
	ID                 uint64                   `json:"id"`
	LawyerID           uint64                   `json:"lawyer_id"`
	UserID             *uint64                  `json:"user_id,omitempty"`
	Amount             decimal.Decimal          `json:"amount"`
	PlatformFee        decimal.Decimal          `json:"platform_fee"`
	LawyerEarnings     decimal.Decimal          `json:"lawyer_earnings"`
	Status             models.TransactionStatus `json:"status"`
	ExternalPaymentRef *string                  `json:"external_payment_ref,omitempty"`
	CreatedAt          time.Time                `json:"created_at"`
}

func viewOf(t *models.Transaction) TransactionView {
	return TransactionView{
		ID:                 t.ID,
		LawyerID:           t.LawyerID,
		UserID:             t.UserID,
		Amount:             t.Amount,
		PlatformFee:        t.PlatformFee,
		LawyerEarnings:     t.LawyerEarnings,
		Status:             t.Status,
		ExternalPaymentRef: t.ExternalPaymentRef,
		CreatedAt:          t.CreatedAt,
	}
}

var (
	// Handler is the ledger handler.
	Handler = Service{}
)

// Init registers the routes on router.
func (s *Service) Init(router fiber.Router, deps *handler.Deps) {
	if router == nil || deps == nil || deps.Ledger == nil || deps.Guard == nil {
		log.Fatal().Msg(handler.ErrNilDepsFatalLogMsg)
		return
	}

	s.ledger = deps.Ledger
	s.validator = validator.New(validator.WithRequiredStructEnabled())

	write := deps.Guard.RequirePermission(rbac.PermLedgerWrite)
	read := deps.Guard.RequireInstancePermission(rbac.PermLedgerRead, "id")

	router.Post(TransactionsPath, write, s.Append)
	router.Post(StatusPath, write, s.Transition)
	router.Get(SummaryPath, read, s.Summary)
	router.Get(ReconcilePath, read, s.Reconcile)
	router.Post(RepairPath, deps.Guard.RequirePermission(rbac.PermLedgerRepair), s.Repair)
}

// Append answers POST /ledger/transactions.
func (s *Service) Append(c fiber.Ctx) error {
	var e ledger.Entry
	if err := c.Bind().Body(&e); err != nil {
		return handler.BadRequest(c, "malformed request body")
	}

	t, err := s.ledger.AppendTransaction(c.Context(), e)
	if err != nil {
		return handler.Error(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(viewOf(&t))
}

// Transition answers POST /ledger/transactions/:id/status.
func (s *Service) Transition(c fiber.Ctx) error {
	id := fiber.Params[uint64](c, "id")
	if id == 0 {
		return handler.BadRequest(c, "invalid transaction id")
	}

	var req StatusRequest
	if err := c.Bind().Body(&req); err != nil {
		return handler.BadRequest(c, "malformed request body")
	}

	if err := s.validator.Struct(&req); err != nil {
		return handler.BadRequest(c, err.Error())
	}

	t, err := s.ledger.TransitionStatus(c.Context(), id, req.Status)
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(viewOf(&t))
}

// Summary answers GET /ledger/lawyers/:id/summary.
func (s *Service) Summary(c fiber.Ctx) error {
	id, err := lawyerID(c)
	if err != nil {
		return err
	}

	sum, err := s.ledger.GetSummary(c.Context(), id)
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(sum)
}

// Reconcile answers GET /ledger/lawyers/:id/reconcile.
func (s *Service) Reconcile(c fiber.Ctx) error {
	id, err := lawyerID(c)
	if err != nil {
		return err
	}

	r, err := s.ledger.Reconcile(c.Context(), id)
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(r)
}

// Repair answers POST /ledger/lawyers/:id/repair with the report taken before the repair.
func (s *Service) Repair(c fiber.Ctx) error {
	id, err := lawyerID(c)
	if err != nil {
		return err
	}

	r, err := s.ledger.Repair(c.Context(), id)
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(r)
}

func lawyerID(c fiber.Ctx) (uint64, error) {
	id := fiber.Params[uint64](c, "id")
	if id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid lawyer id")
	}

	return id, nil
}
