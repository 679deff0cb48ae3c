package service

import (
	"context"
	"fmt"
	"time"

	"github.com/crispincharbel-source/cierp/internal/model"
	"github.com/crispincharbel-source/cierp/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// minorUnit is the rounding precision for monetary amounts (currency cents).
const minorUnit = 2

var hundred = decimal.NewFromInt(100)

// --- DTOs ---

type CreatePaymentRequest struct {
	PaymentType string `json:"payment_type" binding:"required,oneof=inbound outbound"`
	Amount      string `json:"amount" binding:"required"`
	Currency    string `json:"currency"`
	PartnerID   string `json:"partner_id"`
	PartnerName string `json:"partner_name"`
	InvoiceID   string `json:"invoice_id"` // optional reconciliation target
	Memo        string `json:"memo"`
}

// PostingService is the double-entry posting engine. PostInvoice and
// PostPayment are the only writers of account move lines; both run inside a
// single transaction and either commit everything or nothing.
type PostingService interface {
	GetMove(ctx context.Context, tenantID string, moveID uuid.UUID) (*model.AccountMove, error)
	PostInvoice(ctx context.Context, tenantID string, moveID uuid.UUID) (*model.AccountMove, error)
	CancelMove(ctx context.Context, tenantID string, moveID uuid.UUID) (*model.AccountMove, error)
	CreatePayment(ctx context.Context, tenantID string, req CreatePaymentRequest) (*model.Payment, error)
	PostPayment(ctx context.Context, tenantID string, paymentID uuid.UUID) (*model.Payment, error)
}

type postingService struct {
	moveRepo    repository.MoveRepository
	paymentRepo repository.PaymentRepository
	seqRepo     repository.SequenceRepository
	accounts    AccountService
	txManager   repository.TransactionManager
}

func NewPostingService(
	moveRepo repository.MoveRepository,
	paymentRepo repository.PaymentRepository,
	seqRepo repository.SequenceRepository,
	accounts AccountService,
	txManager repository.TransactionManager,
) PostingService {
	return &postingService{
		moveRepo:    moveRepo,
		paymentRepo: paymentRepo,
		seqRepo:     seqRepo,
		accounts:    accounts,
		txManager:   txManager,
	}
}

// --- Implementation ---

// GetMove loads a journal entry with both its bookkeeping and invoice lines.
func (s *postingService) GetMove(ctx context.Context, tenantID string, moveID uuid.UUID) (*model.AccountMove, error) {
	move, err := s.moveRepo.FindByID(ctx, tenantID, moveID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, &ReferenceNotFoundError{Entity: "move", ID: moveID.String()}
		}
		return nil, fmt.Errorf("failed to load move: %w", err)
	}
	if move.Lines, err = s.moveRepo.ListMoveLines(ctx, tenantID, move.ID); err != nil {
		return nil, fmt.Errorf("failed to load move lines: %w", err)
	}
	if move.InvoiceLines, err = s.moveRepo.ListInvoiceLines(ctx, tenantID, move.ID); err != nil {
		return nil, fmt.Errorf("failed to load invoice lines: %w", err)
	}
	return move, nil
}

// PostInvoice posts a draft customer or vendor invoice. The order is load-bearing:
// recompute line amounts, assign the sequence number, resolve accounts, regenerate
// move lines, then flip state — a failure partway through rolls everything back so
// a posted move can never carry stale totals.
func (s *postingService) PostInvoice(ctx context.Context, tenantID string, moveID uuid.UUID) (*model.AccountMove, error) {
	var move *model.AccountMove
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		move, err = s.moveRepo.FindByIDForUpdate(txCtx, tenantID, moveID)
		if err != nil {
			if repository.IsNotFound(err) {
				return &ReferenceNotFoundError{Entity: "invoice", ID: moveID.String()}
			}
			return fmt.Errorf("failed to load invoice: %w", err)
		}

		if move.State != model.MoveStateDraft {
			return &InvalidStateError{Entity: "invoice", ID: move.ID.String(), State: move.State, Operation: "post"}
		}

		lines, err := s.moveRepo.ListInvoiceLines(txCtx, tenantID, move.ID)
		if err != nil {
			return fmt.Errorf("failed to load invoice lines: %w", err)
		}
		if len(lines) == 0 {
			return &EmptyDocumentError{Entity: "invoice", ID: move.ID.String(), Operation: "post"}
		}

		subtotal := decimal.Zero
		taxTotal := decimal.Zero
		for i := range lines {
			line := &lines[i]
			lineSub := line.Quantity.Mul(line.UnitPrice).
				Mul(decimal.NewFromInt(1).Sub(line.Discount.Div(hundred))).
				Round(minorUnit)
			lineTax := lineSub.Mul(line.TaxPercent).Div(hundred).Round(minorUnit)
			line.Subtotal = lineSub
			line.TaxAmount = lineTax
			line.Total = lineSub.Add(lineTax)
			if err := s.moveRepo.UpdateInvoiceLine(txCtx, line); err != nil {
				return fmt.Errorf("failed to update invoice line: %w", err)
			}
			subtotal = subtotal.Add(lineSub)
			taxTotal = taxTotal.Add(lineTax)
		}
		total := subtotal.Add(taxTotal)

		move.AmountUntaxed = subtotal
		move.AmountTax = taxTotal
		move.AmountTotal = total
		move.AmountResidual = total

		if move.Name == "" {
			name, err := s.nextMoveNumber(txCtx, tenantID, move.MoveType)
			if err != nil {
				return err
			}
			move.Name = name
		}

		counterpartDef := accountReceivable
		nominalDef := accountRevenue
		taxDef := accountTaxPayable
		if move.MoveType == model.MoveTypeVendorInvoice {
			counterpartDef = accountPayable
			nominalDef = accountExpense
			taxDef = accountTaxRecv
		}

		counterpart, err := resolveDefault(txCtx, s.accounts, tenantID, counterpartDef)
		if err != nil {
			return err
		}
		nominal, err := resolveDefault(txCtx, s.accounts, tenantID, nominalDef)
		if err != nil {
			return err
		}
		var taxAccount *model.Account
		if taxTotal.IsPositive() {
			if taxAccount, err = resolveDefault(txCtx, s.accounts, tenantID, taxDef); err != nil {
				return err
			}
		}

		// Re-posting safety: wipe whatever lines a previous draft cycle left.
		if err := s.moveRepo.DeleteMoveLines(txCtx, tenantID, move.ID); err != nil {
			return fmt.Errorf("failed to clear move lines: %w", err)
		}

		now := time.Now().UTC()
		moveDate := now
		if move.MoveDate != nil {
			moveDate = *move.MoveDate
		}

		var moveLines []model.AccountMoveLine
		if move.MoveType == model.MoveTypeCustomerInvoice {
			moveLines = append(moveLines,
				s.newMoveLine(move, counterpart, move.Name, total, decimal.Zero, moveDate, true),
				s.newMoveLine(move, nominal, move.Name, decimal.Zero, subtotal, moveDate, false),
			)
			if taxAccount != nil {
				moveLines = append(moveLines,
					s.newMoveLine(move, taxAccount, "Tax - "+move.Name, decimal.Zero, taxTotal, moveDate, false))
			}
		} else {
			moveLines = append(moveLines,
				s.newMoveLine(move, nominal, move.Name, subtotal, decimal.Zero, moveDate, false))
			if taxAccount != nil {
				moveLines = append(moveLines,
					s.newMoveLine(move, taxAccount, "Tax - "+move.Name, taxTotal, decimal.Zero, moveDate, false))
			}
			moveLines = append(moveLines,
				s.newMoveLine(move, counterpart, move.Name, decimal.Zero, total, moveDate, true))
		}

		if err := s.checkBalance(move.ID, moveLines); err != nil {
			return err
		}
		for i := range moveLines {
			if err := s.moveRepo.CreateMoveLine(txCtx, &moveLines[i]); err != nil {
				return fmt.Errorf("failed to create move line: %w", err)
			}
		}

		move.State = model.MoveStatePosted
		move.PaymentState = model.PaymentStateNotPaid
		if move.MoveDate == nil {
			move.MoveDate = &now
		}
		if err := s.moveRepo.Update(txCtx, move); err != nil {
			return fmt.Errorf("failed to post invoice: %w", err)
		}

		logrus.WithFields(logrus.Fields{
			"tenant": tenantID,
			"move":   move.Name,
			"type":   move.MoveType,
			"total":  move.AmountTotal.StringFixed(minorUnit),
		}).Info("invoice posted")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return move, nil
}

// CancelMove cancels a draft journal entry. Posted entries are immutable; a
// correction requires a new offsetting move.
func (s *postingService) CancelMove(ctx context.Context, tenantID string, moveID uuid.UUID) (*model.AccountMove, error) {
	var move *model.AccountMove
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		move, err = s.moveRepo.FindByIDForUpdate(txCtx, tenantID, moveID)
		if err != nil {
			if repository.IsNotFound(err) {
				return &ReferenceNotFoundError{Entity: "move", ID: moveID.String()}
			}
			return fmt.Errorf("failed to load move: %w", err)
		}
		if move.State != model.MoveStateDraft {
			return &InvalidStateError{Entity: "move", ID: move.ID.String(), State: move.State, Operation: "cancel"}
		}
		move.State = model.MoveStateCancelled
		if err := s.moveRepo.Update(txCtx, move); err != nil {
			return fmt.Errorf("failed to cancel move: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return move, nil
}

func (s *postingService) CreatePayment(ctx context.Context, tenantID string, req CreatePaymentRequest) (*model.Payment, error) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("payment amount must be positive")
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	payment := &model.Payment{
		PaymentType: req.PaymentType,
		Amount:      amount,
		Currency:    currency,
		PartnerName: req.PartnerName,
		Memo:        req.Memo,
		State:       model.MoveStateDraft,
	}
	payment.TenantID = tenantID

	if req.PartnerID != "" {
		id, err := uuid.Parse(req.PartnerID)
		if err != nil {
			return nil, fmt.Errorf("invalid partner_id: %w", err)
		}
		payment.PartnerID = &id
	}
	if req.InvoiceID != "" {
		id, err := uuid.Parse(req.InvoiceID)
		if err != nil {
			return nil, fmt.Errorf("invalid invoice_id: %w", err)
		}
		if _, err := s.moveRepo.FindByID(ctx, tenantID, id); err != nil {
			if repository.IsNotFound(err) {
				return nil, &ReferenceNotFoundError{Entity: "invoice", ID: req.InvoiceID}
			}
			return nil, fmt.Errorf("failed to load invoice: %w", err)
		}
		payment.InvoiceID = &id
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}
	return payment, nil
}

// PostPayment realizes a draft payment in the ledger: one payment move with a
// bank line against the receivable or payable line, then reconciliation against
// the target invoice if one is linked.
func (s *postingService) PostPayment(ctx context.Context, tenantID string, paymentID uuid.UUID) (*model.Payment, error) {
	var payment *model.Payment
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		payment, err = s.paymentRepo.FindByIDForUpdate(txCtx, tenantID, paymentID)
		if err != nil {
			if repository.IsNotFound(err) {
				return &ReferenceNotFoundError{Entity: "payment", ID: paymentID.String()}
			}
			return fmt.Errorf("failed to load payment: %w", err)
		}
		if payment.State != model.MoveStateDraft {
			return &InvalidStateError{Entity: "payment", ID: payment.ID.String(), State: payment.State, Operation: "post"}
		}

		if payment.Number == "" {
			seq, err := s.seqRepo.Next(txCtx, tenantID, model.SeriesPayment)
			if err != nil {
				return fmt.Errorf("failed to allocate payment number: %w", err)
			}
			payment.Number = fmt.Sprintf("PAY-%d-%04d", time.Now().Year(), seq)
		}

		bank, err := resolveDefault(txCtx, s.accounts, tenantID, accountBank)
		if err != nil {
			return err
		}
		counterpartDef := accountReceivable
		if payment.PaymentType == model.PaymentTypeOutbound {
			counterpartDef = accountPayable
		}
		counterpart, err := resolveDefault(txCtx, s.accounts, tenantID, counterpartDef)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		payDate := now
		if payment.PaymentDate != nil {
			payDate = *payment.PaymentDate
		}

		move := &model.AccountMove{
			MoveType:     model.MoveTypePayment,
			State:        model.MoveStatePosted,
			PartnerID:    payment.PartnerID,
			PartnerName:  payment.PartnerName,
			MoveDate:     &payDate,
			Currency:     payment.Currency,
			Ref:          "Payment " + payment.Number,
			Name:        payment.Number,
			AmountTotal: payment.Amount,
		}
		move.TenantID = tenantID
		if err := s.moveRepo.Create(txCtx, move); err != nil {
			return fmt.Errorf("failed to create payment move: %w", err)
		}

		var moveLines []model.AccountMoveLine
		if payment.PaymentType == model.PaymentTypeInbound {
			moveLines = []model.AccountMoveLine{
				s.newMoveLine(move, bank, payment.Number, payment.Amount, decimal.Zero, payDate, false),
				s.newMoveLine(move, counterpart, payment.Number, decimal.Zero, payment.Amount, payDate, true),
			}
		} else {
			moveLines = []model.AccountMoveLine{
				s.newMoveLine(move, counterpart, payment.Number, payment.Amount, decimal.Zero, payDate, true),
				s.newMoveLine(move, bank, payment.Number, decimal.Zero, payment.Amount, payDate, false),
			}
		}
		if err := s.checkBalance(move.ID, moveLines); err != nil {
			return err
		}
		for i := range moveLines {
			if err := s.moveRepo.CreateMoveLine(txCtx, &moveLines[i]); err != nil {
				return fmt.Errorf("failed to create move line: %w", err)
			}
		}

		payment.MoveID = &move.ID
		payment.State = model.MoveStatePosted

		if payment.InvoiceID != nil {
			if err := s.reconcile(txCtx, tenantID, payment); err != nil {
				return err
			}
		}

		if err := s.paymentRepo.Update(txCtx, payment); err != nil {
			return fmt.Errorf("failed to post payment: %w", err)
		}

		logrus.WithFields(logrus.Fields{
			"tenant":  tenantID,
			"payment": payment.Number,
			"type":    payment.PaymentType,
			"amount":  payment.Amount.StringFixed(minorUnit),
		}).Info("payment posted")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// reconcile applies the payment against its linked invoice. The residual is
// clamped at zero: an overpayment never reopens or flips a paid invoice.
func (s *postingService) reconcile(ctx context.Context, tenantID string, payment *model.Payment) error {
	invoice, err := s.moveRepo.FindByIDForUpdate(ctx, tenantID, *payment.InvoiceID)
	if err != nil {
		if repository.IsNotFound(err) {
			return &ReferenceNotFoundError{Entity: "invoice", ID: payment.InvoiceID.String()}
		}
		return fmt.Errorf("failed to load invoice for reconciliation: %w", err)
	}
	if invoice.State != model.MoveStatePosted {
		return nil
	}

	newResidual := invoice.AmountResidual.Sub(payment.Amount)
	if newResidual.IsNegative() {
		logrus.WithFields(logrus.Fields{
			"tenant":  tenantID,
			"invoice": invoice.Name,
			"payment": payment.Number,
			"excess":  newResidual.Neg().StringFixed(minorUnit),
		}).Warn("payment exceeds invoice residual; excess absorbed")
		newResidual = decimal.Zero
	}
	invoice.AmountResidual = newResidual
	if newResidual.IsZero() {
		invoice.PaymentState = model.PaymentStatePaid
	} else {
		invoice.PaymentState = model.PaymentStatePartial
	}
	if err := s.moveRepo.Update(ctx, invoice); err != nil {
		return fmt.Errorf("failed to update invoice residual: %w", err)
	}
	return nil
}

func (s *postingService) nextMoveNumber(ctx context.Context, tenantID, moveType string) (string, error) {
	prefix := "SINV"
	if moveType == model.MoveTypeVendorInvoice {
		prefix = "PINV"
	}
	seq, err := s.seqRepo.Next(ctx, tenantID, moveType)
	if err != nil {
		return "", fmt.Errorf("failed to allocate move number: %w", err)
	}
	return fmt.Sprintf("%s-%d-%04d", prefix, time.Now().Year(), seq), nil
}

// newMoveLine builds one debit-or-credit line with the account snapshot taken at
// post time. withPartner marks the counterpart line carrying the partner ref.
func (s *postingService) newMoveLine(move *model.AccountMove, account *model.Account, name string,
	debit, credit decimal.Decimal, date time.Time, withPartner bool) model.AccountMoveLine {
	line := model.AccountMoveLine{
		MoveID:      move.ID,
		AccountID:   account.ID,
		AccountCode: account.Code,
		AccountName: account.Name,
		Name:        name,
		Debit:       debit,
		Credit:      credit,
		Date:        &date,
	}
	line.TenantID = move.TenantID
	if withPartner {
		line.PartnerID = move.PartnerID
		line.PartnerName = move.PartnerName
	}
	return line
}

// checkBalance verifies sum(debit) == sum(credit) before the lines are written.
// A mismatch means a bug in line generation, not bad user input.
func (s *postingService) checkBalance(moveID uuid.UUID, lines []model.AccountMoveLine) error {
	debit := decimal.Zero
	credit := decimal.Zero
	for i := range lines {
		debit = debit.Add(lines[i].Debit)
		credit = credit.Add(lines[i].Credit)
	}
	if !debit.Equal(credit) {
		return &ImbalanceError{MoveID: moveID.String(), Debit: debit, Credit: credit}
	}
	return nil
}
