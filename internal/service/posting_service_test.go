package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/crispincharbel-source/cierp/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const testTenant = "tenant-a"

type postingFixture struct {
	svc         PostingService
	moveRepo    *fakeMoveRepo
	paymentRepo *fakePaymentRepo
	accountRepo *fakeAccountRepo
}

func newPostingFixture() *postingFixture {
	moveRepo := newFakeMoveRepo()
	paymentRepo := newFakePaymentRepo()
	accountRepo := &fakeAccountRepo{}
	accounts := NewAccountService(accountRepo)
	svc := NewPostingService(moveRepo, paymentRepo, newFakeSeqRepo(), accounts, fakeTx{})
	return &postingFixture{svc: svc, moveRepo: moveRepo, paymentRepo: paymentRepo, accountRepo: accountRepo}
}

func (f *postingFixture) draftInvoice(t *testing.T, moveType string, lines ...model.InvoiceLine) *model.AccountMove {
	t.Helper()
	move := &model.AccountMove{
		MoveType:    moveType,
		State:       model.MoveStateDraft,
		PartnerName: "Acme Corp",
		Currency:    "USD",
	}
	move.TenantID = testTenant
	if err := f.moveRepo.Create(context.Background(), move); err != nil {
		t.Fatalf("create move: %v", err)
	}
	for i := range lines {
		lines[i].MoveID = move.ID
		lines[i].TenantID = testTenant
		if err := f.moveRepo.CreateInvoiceLine(context.Background(), &lines[i]); err != nil {
			t.Fatalf("create invoice line: %v", err)
		}
	}
	return move
}

func lineTotals(lines []model.AccountMoveLine) (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, l := range lines {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	return debit, credit
}

func lineFor(t *testing.T, lines []model.AccountMoveLine, code string) model.AccountMoveLine {
	t.Helper()
	for _, l := range lines {
		if l.AccountCode == code {
			return l
		}
	}
	t.Fatalf("no move line for account %s", code)
	return model.AccountMoveLine{}
}

func TestPostInvoiceCustomerDirection(t *testing.T) {
	f := newPostingFixture()
	move := f.draftInvoice(t, model.MoveTypeCustomerInvoice, model.InvoiceLine{
		ProductName: "Widget",
		Quantity:    decimal.NewFromInt(10),
		UnitPrice:   decimal.RequireFromString("5.00"),
		TaxPercent:  decimal.NewFromInt(10),
	})

	posted, err := f.svc.PostInvoice(context.Background(), testTenant, move.ID)
	if err != nil {
		t.Fatalf("PostInvoice: %v", err)
	}

	if posted.State != model.MoveStatePosted {
		t.Errorf("state = %q, want posted", posted.State)
	}
	wantName := fmt.Sprintf("SINV-%d-0001", time.Now().Year())
	if posted.Name != wantName {
		t.Errorf("name = %q, want %q", posted.Name, wantName)
	}
	if !posted.AmountUntaxed.Equal(decimal.RequireFromString("50.00")) {
		t.Errorf("subtotal = %s, want 50.00", posted.AmountUntaxed)
	}
	if !posted.AmountTax.Equal(decimal.RequireFromString("5.00")) {
		t.Errorf("tax = %s, want 5.00", posted.AmountTax)
	}
	if !posted.AmountTotal.Equal(decimal.RequireFromString("55.00")) {
		t.Errorf("total = %s, want 55.00", posted.AmountTotal)
	}
	if !posted.AmountResidual.Equal(posted.AmountTotal) {
		t.Errorf("residual = %s, want %s", posted.AmountResidual, posted.AmountTotal)
	}
	if posted.PaymentState != model.PaymentStateNotPaid {
		t.Errorf("payment_state = %q, want not_paid", posted.PaymentState)
	}

	lines, _ := f.moveRepo.ListMoveLines(context.Background(), testTenant, move.ID)
	if len(lines) != 3 {
		t.Fatalf("got %d move lines, want 3", len(lines))
	}
	debit, credit := lineTotals(lines)
	if !debit.Equal(credit) {
		t.Fatalf("unbalanced: debit %s != credit %s", debit, credit)
	}

	receivable := lineFor(t, lines, accountReceivable.Code)
	if !receivable.Debit.Equal(decimal.RequireFromString("55.00")) {
		t.Errorf("receivable debit = %s, want 55.00", receivable.Debit)
	}
	if receivable.PartnerName != "Acme Corp" {
		t.Errorf("receivable partner = %q, want counterpart to carry the partner ref", receivable.PartnerName)
	}
	revenue := lineFor(t, lines, accountRevenue.Code)
	if !revenue.Credit.Equal(decimal.RequireFromString("50.00")) {
		t.Errorf("revenue credit = %s, want 50.00", revenue.Credit)
	}
	tax := lineFor(t, lines, accountTaxPayable.Code)
	if !tax.Credit.Equal(decimal.RequireFromString("5.00")) {
		t.Errorf("tax credit = %s, want 5.00", tax.Credit)
	}
}

func TestPostInvoiceVendorDirection(t *testing.T) {
	f := newPostingFixture()
	move := f.draftInvoice(t, model.MoveTypeVendorInvoice, model.InvoiceLine{
		ProductName: "Raw material",
		Quantity:    decimal.NewFromInt(4),
		UnitPrice:   decimal.RequireFromString("25.00"),
		TaxPercent:  decimal.NewFromInt(5),
	})

	posted, err := f.svc.PostInvoice(context.Background(), testTenant, move.ID)
	if err != nil {
		t.Fatalf("PostInvoice: %v", err)
	}
	wantName := fmt.Sprintf("PINV-%d-0001", time.Now().Year())
	if posted.Name != wantName {
		t.Errorf("name = %q, want %q", posted.Name, wantName)
	}

	lines, _ := f.moveRepo.ListMoveLines(context.Background(), testTenant, move.ID)
	expense := lineFor(t, lines, accountExpense.Code)
	if !expense.Debit.Equal(decimal.RequireFromString("100.00")) {
		t.Errorf("expense debit = %s, want 100.00", expense.Debit)
	}
	taxRecv := lineFor(t, lines, accountTaxRecv.Code)
	if !taxRecv.Debit.Equal(decimal.RequireFromString("5.00")) {
		t.Errorf("tax receivable debit = %s, want 5.00", taxRecv.Debit)
	}
	payable := lineFor(t, lines, accountPayable.Code)
	if !payable.Credit.Equal(decimal.RequireFromString("105.00")) {
		t.Errorf("payable credit = %s, want 105.00", payable.Credit)
	}
}

func TestPostInvoiceDiscountRounding(t *testing.T) {
	f := newPostingFixture()
	// 3 * 9.99 at 15% discount = 25.47 (rounded), tax 7% = 1.78.
	move := f.draftInvoice(t, model.MoveTypeCustomerInvoice, model.InvoiceLine{
		ProductName: "Gadget",
		Quantity:    decimal.NewFromInt(3),
		UnitPrice:   decimal.RequireFromString("9.99"),
		Discount:    decimal.NewFromInt(15),
		TaxPercent:  decimal.NewFromInt(7),
	})

	posted, err := f.svc.PostInvoice(context.Background(), testTenant, move.ID)
	if err != nil {
		t.Fatalf("PostInvoice: %v", err)
	}
	if !posted.AmountUntaxed.Equal(decimal.RequireFromString("25.47")) {
		t.Errorf("subtotal = %s, want 25.47", posted.AmountUntaxed)
	}
	if !posted.AmountTax.Equal(decimal.RequireFromString("1.78")) {
		t.Errorf("tax = %s, want 1.78", posted.AmountTax)
	}

	lines, _ := f.moveRepo.ListMoveLines(context.Background(), testTenant, move.ID)
	debit, credit := lineTotals(lines)
	if !debit.Equal(credit) {
		t.Fatalf("unbalanced after rounding: debit %s != credit %s", debit, credit)
	}
}

func TestPostInvoiceBalancedUnderRandomInputs(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for run := 0; run < 50; run++ {
		f := newPostingFixture()
		var lines []model.InvoiceLine
		for i := 0; i < 1+rng.Intn(6); i++ {
			lines = append(lines, model.InvoiceLine{
				ProductName: fmt.Sprintf("item-%d", i),
				Quantity:    decimal.NewFromInt(int64(1 + rng.Intn(50))),
				UnitPrice:   decimal.NewFromFloat(float64(rng.Intn(100000)) / 100.0),
				Discount:    decimal.NewFromInt(int64(rng.Intn(40))),
				TaxPercent:  decimal.NewFromInt(int64(rng.Intn(25))),
			})
		}
		move := f.draftInvoice(t, model.MoveTypeCustomerInvoice, lines...)

		if _, err := f.svc.PostInvoice(context.Background(), testTenant, move.ID); err != nil {
			t.Fatalf("run %d: PostInvoice: %v", run, err)
		}
		moveLines, _ := f.moveRepo.ListMoveLines(context.Background(), testTenant, move.ID)
		debit, credit := lineTotals(moveLines)
		if !debit.Equal(credit) {
			t.Fatalf("run %d: unbalanced: debit %s != credit %s", run, debit, credit)
		}
	}
}

func TestPostInvoiceRejectsRepost(t *testing.T) {
	f := newPostingFixture()
	move := f.draftInvoice(t, model.MoveTypeCustomerInvoice, model.InvoiceLine{
		ProductName: "Widget",
		Quantity:    decimal.NewFromInt(1),
		UnitPrice:   decimal.NewFromInt(10),
	})

	if _, err := f.svc.PostInvoice(context.Background(), testTenant, move.ID); err != nil {
		t.Fatalf("first post: %v", err)
	}
	before, _ := f.moveRepo.ListMoveLines(context.Background(), testTenant, move.ID)

	_, err := f.svc.PostInvoice(context.Background(), testTenant, move.ID)
	var badState *InvalidStateError
	if !errors.As(err, &badState) {
		t.Fatalf("repost error = %v, want InvalidStateError", err)
	}

	after, _ := f.moveRepo.ListMoveLines(context.Background(), testTenant, move.ID)
	if len(after) != len(before) {
		t.Errorf("repost touched move lines: %d -> %d", len(before), len(after))
	}
}

func TestPostInvoiceRejectsEmpty(t *testing.T) {
	f := newPostingFixture()
	move := f.draftInvoice(t, model.MoveTypeCustomerInvoice)

	_, err := f.svc.PostInvoice(context.Background(), testTenant, move.ID)
	var empty *EmptyDocumentError
	if !errors.As(err, &empty) {
		t.Fatalf("error = %v, want EmptyDocumentError", err)
	}
}

func TestPostInvoiceUnknownMove(t *testing.T) {
	f := newPostingFixture()
	_, err := f.svc.PostInvoice(context.Background(), testTenant, uuid.New())
	var notFound *ReferenceNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("error = %v, want ReferenceNotFoundError", err)
	}
}

func TestPostInvoiceWrongTenant(t *testing.T) {
	f := newPostingFixture()
	move := f.draftInvoice(t, model.MoveTypeCustomerInvoice, model.InvoiceLine{
		ProductName: "Widget",
		Quantity:    decimal.NewFromInt(1),
		UnitPrice:   decimal.NewFromInt(10),
	})

	_, err := f.svc.PostInvoice(context.Background(), "tenant-b", move.ID)
	var notFound *ReferenceNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("cross-tenant error = %v, want ReferenceNotFoundError", err)
	}
}

func TestCancelMoveDraftOnly(t *testing.T) {
	f := newPostingFixture()
	move := f.draftInvoice(t, model.MoveTypeCustomerInvoice, model.InvoiceLine{
		ProductName: "Widget",
		Quantity:    decimal.NewFromInt(1),
		UnitPrice:   decimal.NewFromInt(10),
	})

	cancelled, err := f.svc.CancelMove(context.Background(), testTenant, move.ID)
	if err != nil {
		t.Fatalf("CancelMove: %v", err)
	}
	if cancelled.State != model.MoveStateCancelled {
		t.Errorf("state = %q, want cancelled", cancelled.State)
	}

	// A cancelled move cannot be cancelled again, and a posted one never can.
	_, err = f.svc.CancelMove(context.Background(), testTenant, move.ID)
	var badState *InvalidStateError
	if !errors.As(err, &badState) {
		t.Fatalf("second cancel error = %v, want InvalidStateError", err)
	}
}

func postedInvoice(t *testing.T, f *postingFixture) *model.AccountMove {
	t.Helper()
	move := f.draftInvoice(t, model.MoveTypeCustomerInvoice, model.InvoiceLine{
		ProductName: "Widget",
		Quantity:    decimal.NewFromInt(10),
		UnitPrice:   decimal.RequireFromString("5.00"),
		TaxPercent:  decimal.NewFromInt(10),
	})
	posted, err := f.svc.PostInvoice(context.Background(), testTenant, move.ID)
	if err != nil {
		t.Fatalf("PostInvoice: %v", err)
	}
	return posted
}

func TestPostPaymentFullReconciliation(t *testing.T) {
	f := newPostingFixture()
	invoice := postedInvoice(t, f)

	payment, err := f.svc.CreatePayment(context.Background(), testTenant, CreatePaymentRequest{
		PaymentType: model.PaymentTypeInbound,
		Amount:      "55.00",
		PartnerName: "Acme Corp",
		InvoiceID:   invoice.ID.String(),
	})
	if err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}

	posted, err := f.svc.PostPayment(context.Background(), testTenant, payment.ID)
	if err != nil {
		t.Fatalf("PostPayment: %v", err)
	}
	wantNumber := fmt.Sprintf("PAY-%d-0001", time.Now().Year())
	if posted.Number != wantNumber {
		t.Errorf("number = %q, want %q", posted.Number, wantNumber)
	}
	if posted.State != model.MoveStatePosted {
		t.Errorf("payment state = %q, want posted", posted.State)
	}
	if posted.MoveID == nil {
		t.Fatal("payment has no ledger move")
	}

	lines, _ := f.moveRepo.ListMoveLines(context.Background(), testTenant, *posted.MoveID)
	if len(lines) != 2 {
		t.Fatalf("got %d payment move lines, want 2", len(lines))
	}
	bank := lineFor(t, lines, accountBank.Code)
	if !bank.Debit.Equal(decimal.RequireFromString("55.00")) {
		t.Errorf("bank debit = %s, want 55.00", bank.Debit)
	}
	receivable := lineFor(t, lines, accountReceivable.Code)
	if !receivable.Credit.Equal(decimal.RequireFromString("55.00")) {
		t.Errorf("receivable credit = %s, want 55.00", receivable.Credit)
	}

	updated, _ := f.moveRepo.FindByID(context.Background(), testTenant, invoice.ID)
	if !updated.AmountResidual.IsZero() {
		t.Errorf("residual = %s, want 0", updated.AmountResidual)
	}
	if updated.PaymentState != model.PaymentStatePaid {
		t.Errorf("payment_state = %q, want paid", updated.PaymentState)
	}
}

func TestPostPaymentPartialReconciliation(t *testing.T) {
	f := newPostingFixture()
	invoice := postedInvoice(t, f)

	payment, err := f.svc.CreatePayment(context.Background(), testTenant, CreatePaymentRequest{
		PaymentType: model.PaymentTypeInbound,
		Amount:      "20.00",
		InvoiceID:   invoice.ID.String(),
	})
	if err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}
	if _, err := f.svc.PostPayment(context.Background(), testTenant, payment.ID); err != nil {
		t.Fatalf("PostPayment: %v", err)
	}

	updated, _ := f.moveRepo.FindByID(context.Background(), testTenant, invoice.ID)
	if !updated.AmountResidual.Equal(decimal.RequireFromString("35.00")) {
		t.Errorf("residual = %s, want 35.00", updated.AmountResidual)
	}
	if updated.PaymentState != model.PaymentStatePartial {
		t.Errorf("payment_state = %q, want partial", updated.PaymentState)
	}
}

func TestPostPaymentOverpaymentClampsResidual(t *testing.T) {
	f := newPostingFixture()
	invoice := postedInvoice(t, f)

	payment, err := f.svc.CreatePayment(context.Background(), testTenant, CreatePaymentRequest{
		PaymentType: model.PaymentTypeInbound,
		Amount:      "70.00",
		InvoiceID:   invoice.ID.String(),
	})
	if err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}
	if _, err := f.svc.PostPayment(context.Background(), testTenant, payment.ID); err != nil {
		t.Fatalf("PostPayment: %v", err)
	}

	updated, _ := f.moveRepo.FindByID(context.Background(), testTenant, invoice.ID)
	if !updated.AmountResidual.IsZero() {
		t.Errorf("residual = %s, want 0 (clamped)", updated.AmountResidual)
	}
	if updated.PaymentState != model.PaymentStatePaid {
		t.Errorf("payment_state = %q, want paid", updated.PaymentState)
	}
}

func TestPostPaymentOutboundDirection(t *testing.T) {
	f := newPostingFixture()
	payment, err := f.svc.CreatePayment(context.Background(), testTenant, CreatePaymentRequest{
		PaymentType: model.PaymentTypeOutbound,
		Amount:      "42.50",
		PartnerName: "Supplies Inc",
	})
	if err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}
	posted, err := f.svc.PostPayment(context.Background(), testTenant, payment.ID)
	if err != nil {
		t.Fatalf("PostPayment: %v", err)
	}

	lines, _ := f.moveRepo.ListMoveLines(context.Background(), testTenant, *posted.MoveID)
	payable := lineFor(t, lines, accountPayable.Code)
	if !payable.Debit.Equal(decimal.RequireFromString("42.50")) {
		t.Errorf("payable debit = %s, want 42.50", payable.Debit)
	}
	bank := lineFor(t, lines, accountBank.Code)
	if !bank.Credit.Equal(decimal.RequireFromString("42.50")) {
		t.Errorf("bank credit = %s, want 42.50", bank.Credit)
	}
}

func TestCreatePaymentRejectsBadInput(t *testing.T) {
	f := newPostingFixture()

	if _, err := f.svc.CreatePayment(context.Background(), testTenant, CreatePaymentRequest{
		PaymentType: model.PaymentTypeInbound,
		Amount:      "-5",
	}); err == nil {
		t.Error("negative amount accepted")
	}

	if _, err := f.svc.CreatePayment(context.Background(), testTenant, CreatePaymentRequest{
		PaymentType: model.PaymentTypeInbound,
		Amount:      "ten",
	}); err == nil {
		t.Error("non-numeric amount accepted")
	}

	_, err := f.svc.CreatePayment(context.Background(), testTenant, CreatePaymentRequest{
		PaymentType: model.PaymentTypeInbound,
		Amount:      "10",
		InvoiceID:   uuid.NewString(),
	})
	var notFound *ReferenceNotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("unknown invoice error = %v, want ReferenceNotFoundError", err)
	}
}

func TestPostPaymentRejectsRepost(t *testing.T) {
	f := newPostingFixture()
	payment, err := f.svc.CreatePayment(context.Background(), testTenant, CreatePaymentRequest{
		PaymentType: model.PaymentTypeInbound,
		Amount:      "10",
	})
	if err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}
	if _, err := f.svc.PostPayment(context.Background(), testTenant, payment.ID); err != nil {
		t.Fatalf("first post: %v", err)
	}

	_, err = f.svc.PostPayment(context.Background(), testTenant, payment.ID)
	var badState *InvalidStateError
	if !errors.As(err, &badState) {
		t.Fatalf("repost error = %v, want InvalidStateError", err)
	}
}
