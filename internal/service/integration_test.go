package service_test

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"go-posledger-ws/internal/apperr"
	"go-posledger-ws/internal/model"
	"go-posledger-ws/internal/repository"
	"go-posledger-ws/internal/service"
	"go-posledger-ws/internal/ws"
	"go-posledger-ws/pkg/database"
	"go-posledger-ws/pkg/logging"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// testEnv wires the full service stack against a real Postgres database.
// Tests are skipped unless INTEGRATION_TESTS is set; connection settings come
// from the usual DATABASE_URL / DB_* environment variables.
type testEnv struct {
	db       *gorm.DB
	stock    service.StockService
	price    service.PriceService
	invoices service.InvoiceService
	sequence service.SequenceService
	audit    service.AuditService
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires postgres)")
	}
	_ = godotenv.Load("../../.env")

	db := database.ConnectDB()
	if err := db.AutoMigrate(
		&model.User{},
		&model.Person{},
		&model.Product{},
		&model.Stock{},
		&model.StockMovement{},
		&model.PriceHistory{},
		&model.PaymentType{},
		&model.Invoice{},
		&model.InvoiceProduct{},
		&model.Payment{},
		&model.InvoiceSequence{},
		&model.AuditLog{},
		&model.CompanyConfig{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	logger := logging.New()
	hub := ws.NewHub()
	go hub.Run()

	productRepo := repository.NewProductRepo(db)
	movementRepo := repository.NewMovementRepo(db)
	invoiceRepo := repository.NewInvoiceRepo(db)
	sequenceRepo := repository.NewSequenceRepo(db)
	auditRepo := repository.NewAuditRepo(db)
	companyRepo := repository.NewCompanyRepo(db)

	if _, err := companyRepo.Get(); err != nil {
		cfg := &model.CompanyConfig{
			Name:           "Test Co",
			InvoicePrefix:  "INV",
			DefaultTaxRate: decimal.NewFromInt(21),
			DueDays:        30,
		}
		if err := companyRepo.Save(cfg); err != nil {
			t.Fatalf("seed company config: %v", err)
		}
	}

	auditService := service.NewAuditService(auditRepo)
	sequenceService := service.NewSequenceService(sequenceRepo, logger)
	stockService := service.NewStockService(productRepo, movementRepo, auditService, db, hub, logger)
	priceService := service.NewPriceService(productRepo, auditService, db, logger)
	invoiceService := service.NewInvoiceService(invoiceRepo, productRepo, companyRepo, sequenceService, auditService, db, hub, logger)

	return &testEnv{
		db:       db,
		stock:    stockService,
		price:    priceService,
		invoices: invoiceService,
		sequence: sequenceService,
		audit:    auditService,
	}
}

func (e *testEnv) createProduct(t *testing.T, allowBackorder bool) *model.Product {
	t.Helper()
	p := &model.Product{
		InternalCode:   fmt.Sprintf("SKU-%s", uuid.New().String()[:8]),
		Name:           "Test Product",
		SalePrice:      decimal.NewFromInt(10),
		CostPrice:      decimal.NewFromInt(6),
		ControlsStock:  true,
		AllowBackorder: allowBackorder,
	}
	if err := e.stock.CreateProduct(p, "tester"); err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	return p
}

func (e *testEnv) createPerson(t *testing.T) *model.Person {
	t.Helper()
	p := &model.Person{FullName: "Ada Client"}
	if err := e.invoices.CreatePerson(p, "tester"); err != nil {
		t.Fatalf("CreatePerson: %v", err)
	}
	return p
}

func (e *testEnv) createPaymentType(t *testing.T) *model.PaymentType {
	t.Helper()
	pt := &model.PaymentType{Name: fmt.Sprintf("CASH-%s", uuid.New().String()[:8])}
	if err := e.invoices.CreatePaymentType(pt, "tester"); err != nil {
		t.Fatalf("CreatePaymentType: %v", err)
	}
	return pt
}

func (e *testEnv) move(t *testing.T, productID uuid.UUID, delta int, typ model.MovementType) *model.StockMovement {
	t.Helper()
	m, err := e.stock.RecordMovement(service.RecordMovementInput{
		ProductID: productID,
		Delta:     delta,
		Type:      typ,
		UnitCost:  decimal.NewFromInt(6),
		UserID:    "tester",
	})
	if err != nil {
		t.Fatalf("RecordMovement(%d, %s): %v", delta, typ, err)
	}
	return m
}

func TestRecordMovement_ConcurrentExitsKeepLedgerConsistent(t *testing.T) {
	env := setupEnv(t)
	product := env.createProduct(t, false)
	env.move(t, product.ID, 100, model.MovementEntry)

	const workers = 10
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, errs[n] = env.stock.RecordMovement(service.RecordMovementInput{
				ProductID: product.ID,
				Delta:     -5,
				Type:      model.MovementExit,
				UserID:    "tester",
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, apperr.ErrConcurrencyConflict) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded == 0 {
		t.Fatal("no concurrent exit succeeded")
	}

	quantity, err := env.stock.GetAvailableQuantity(product.ID)
	if err != nil {
		t.Fatalf("GetAvailableQuantity: %v", err)
	}
	if quantity != 100-succeeded*5 {
		t.Errorf("quantity expected %d, got %d", 100-succeeded*5, quantity)
	}

	if br, err := env.stock.VerifyMovementChain(product.ID); err != nil {
		t.Fatalf("VerifyMovementChain: %v", err)
	} else if br != nil {
		t.Errorf("chain broken at index %d (expected %d, actual %d)", br.Index, br.Expected, br.Actual)
	}

	if result, err := env.stock.Reconcile(product.ID); err != nil {
		t.Fatalf("Reconcile: %v", err)
	} else if !result.InSync {
		t.Errorf("expected in sync, ledger %d vs projection %d", result.LedgerSum, result.Projection)
	}
}

func TestRecordMovement_InsufficientStockWritesNothing(t *testing.T) {
	env := setupEnv(t)
	product := env.createProduct(t, false)
	env.move(t, product.ID, 5, model.MovementEntry)

	_, err := env.stock.RecordMovement(service.RecordMovementInput{
		ProductID: product.ID,
		Delta:     -10,
		Type:      model.MovementExit,
		UserID:    "tester",
	})
	var ise *apperr.InsufficientStockError
	if !errors.As(err, &ise) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if ise.Available != 5 || ise.Requested != 10 {
		t.Errorf("expected available 5 requested 10, got %d / %d", ise.Available, ise.Requested)
	}

	movements, err := env.stock.GetProductMovements(product.ID)
	if err != nil {
		t.Fatalf("GetProductMovements: %v", err)
	}
	if len(movements) != 1 {
		t.Errorf("rejected movement must not be written, have %d rows", len(movements))
	}
	if quantity, _ := env.stock.GetAvailableQuantity(product.ID); quantity != 5 {
		t.Errorf("quantity expected 5, got %d", quantity)
	}
}

func TestRecordMovement_BackorderAllowsNegative(t *testing.T) {
	env := setupEnv(t)
	product := env.createProduct(t, true)
	env.move(t, product.ID, 2, model.MovementEntry)
	m := env.move(t, product.ID, -5, model.MovementExit)

	if m.NewQuantity != -3 {
		t.Errorf("expected new quantity -3, got %d", m.NewQuantity)
	}
}

func TestReconcile_MismatchHoldsAndAdjustmentRepairs(t *testing.T) {
	env := setupEnv(t)
	product := env.createProduct(t, false)
	env.move(t, product.ID, 50, model.MovementEntry)

	// Idempotent when in sync.
	for i := 0; i < 2; i++ {
		result, err := env.stock.Reconcile(product.ID)
		if err != nil || !result.InSync {
			t.Fatalf("reconcile run %d: err=%v in_sync=%v", i, err, result != nil && result.InSync)
		}
	}

	// Simulate drift by corrupting the cached quantity out of band.
	if err := env.db.Model(&model.Stock{}).
		Where("product_id = ?", product.ID).
		Update("quantity", 60).Error; err != nil {
		t.Fatalf("corrupt stock: %v", err)
	}

	result, err := env.stock.Reconcile(product.ID)
	var die *apperr.DataIntegrityError
	if !errors.As(err, &die) {
		t.Fatalf("expected DataIntegrityError, got %v", err)
	}
	if result == nil || result.InSync || result.LedgerSum != 50 || result.Projection != 60 {
		t.Fatalf("unexpected reconcile result: %+v", result)
	}

	// The hold must survive the failed reconcile, not roll back with it.
	var held model.Stock
	if err := env.db.First(&held, "product_id = ?", product.ID).Error; err != nil {
		t.Fatalf("reload stock: %v", err)
	}
	if !held.IntegrityHold {
		t.Fatal("integrity hold was not persisted")
	}

	// Non-adjustment movements are blocked while the hold is set.
	_, err = env.stock.RecordMovement(service.RecordMovementInput{
		ProductID: product.ID,
		Delta:     1,
		Type:      model.MovementEntry,
		UserID:    "tester",
	})
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected hold to block entry, got %v", err)
	}

	// A corrective adjustment anchors to the ledger, clears the hold and
	// realigns the projection.
	m := env.move(t, product.ID, 10, model.MovementAdjustment)
	if m.PreviousQuantity != 50 || m.NewQuantity != 60 {
		t.Errorf("adjustment expected 50 -> 60, got %d -> %d", m.PreviousQuantity, m.NewQuantity)
	}

	after, err := env.stock.Reconcile(product.ID)
	if err != nil {
		t.Fatalf("reconcile after repair: %v", err)
	}
	if !after.InSync || after.LedgerSum != 60 {
		t.Errorf("expected in sync at 60, got %+v", after)
	}
}

func TestSequence_ConcurrentCallersNeverShareANumber(t *testing.T) {
	env := setupEnv(t)
	prefix := fmt.Sprintf("T%s", strings.ToUpper(uuid.New().String()[:6]))

	const callers = 15
	var wg sync.WaitGroup
	numbers := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			numbers[n], errs[n] = env.sequence.NextInvoiceNumber(prefix)
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	succeeded := 0
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			if !errors.Is(errs[i], apperr.ErrConcurrencyConflict) {
				t.Fatalf("unexpected error: %v", errs[i])
			}
			continue
		}
		succeeded++
		if seen[numbers[i]] {
			t.Fatalf("duplicate invoice number issued: %s", numbers[i])
		}
		seen[numbers[i]] = true
	}
	if succeeded == 0 {
		t.Fatal("no caller got a number")
	}
}

func TestInvoiceLifecycle_DraftToPaid(t *testing.T) {
	env := setupEnv(t)
	person := env.createPerson(t)
	paymentType := env.createPaymentType(t)
	product := env.createProduct(t, false)

	invoice, err := env.invoices.CreateDraft(person.ID, nil, decimal.Zero, decimal.Zero, "tester")
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	if invoice.Status != model.InvoiceDraft {
		t.Fatalf("expected DRAFT, got %s", invoice.Status)
	}

	// Issuing an empty draft must fail.
	if _, err := env.invoices.Issue(invoice.ID, "tester"); err == nil {
		t.Fatal("issuing an invoice without lines must fail")
	}

	taxRate := decimal.NewFromInt(21)
	invoice, err = env.invoices.AddLineItem(service.AddLineInput{
		InvoiceID: invoice.ID,
		ProductID: product.ID,
		Quantity:  2,
		UnitPrice: dec("12.50"),
		TaxRate:   &taxRate,
		UserID:    "tester",
	})
	if err != nil {
		t.Fatalf("AddLineItem: %v", err)
	}
	if !invoice.SubTotal.Equal(dec("25.00")) || !invoice.TaxAmount.Equal(dec("5.25")) || !invoice.Total.Equal(dec("30.25")) {
		t.Fatalf("totals expected 25.00/5.25/30.25, got %s/%s/%s", invoice.SubTotal, invoice.TaxAmount, invoice.Total)
	}

	invoice, err = env.invoices.Issue(invoice.ID, "tester")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if invoice.Status != model.InvoiceIssued {
		t.Fatalf("expected ISSUED, got %s", invoice.Status)
	}
	if invoice.InvoiceNumber == nil || !strings.HasPrefix(*invoice.InvoiceNumber, "INV-") {
		t.Fatalf("expected an INV- number, got %v", invoice.InvoiceNumber)
	}

	// Regular lines are frozen after issue.
	if _, err := env.invoices.AddLineItem(service.AddLineInput{
		InvoiceID: invoice.ID,
		ProductID: product.ID,
		Quantity:  1,
		UnitPrice: dec("1.00"),
		TaxRate:   &taxRate,
		UserID:    "tester",
	}); err == nil {
		t.Fatal("adding a regular line after issue must fail")
	}

	invoice, err = env.invoices.ApplyPayment(service.ApplyPaymentInput{
		InvoiceID:     invoice.ID,
		PaymentTypeID: paymentType.ID,
		Amount:        dec("10.00"),
		Confirm:       true,
		UserID:        "tester",
	})
	if err != nil {
		t.Fatalf("ApplyPayment (partial): %v", err)
	}
	if invoice.Status != model.InvoicePartiallyPaid || !invoice.PaidAmount.Equal(dec("10.00")) {
		t.Fatalf("expected PARTIALLY_PAID with 10.00, got %s with %s", invoice.Status, invoice.PaidAmount)
	}

	// Overpayment is rejected while the company forbids it.
	_, err = env.invoices.ApplyPayment(service.ApplyPaymentInput{
		InvoiceID:     invoice.ID,
		PaymentTypeID: paymentType.ID,
		Amount:        dec("30.00"),
		Confirm:       true,
		UserID:        "tester",
	})
	var ope *apperr.OverpaymentError
	if !errors.As(err, &ope) {
		t.Fatalf("expected OverpaymentError, got %v", err)
	}

	invoice, err = env.invoices.ApplyPayment(service.ApplyPaymentInput{
		InvoiceID:     invoice.ID,
		PaymentTypeID: paymentType.ID,
		Amount:        dec("20.25"),
		Confirm:       true,
		UserID:        "tester",
	})
	if err != nil {
		t.Fatalf("ApplyPayment (final): %v", err)
	}
	if invoice.Status != model.InvoicePaid {
		t.Fatalf("expected PAID, got %s", invoice.Status)
	}

	// Paid invoices cannot be cancelled.
	if _, err := env.invoices.Cancel(invoice.ID, "tester"); err == nil {
		t.Fatal("cancelling a paid invoice must fail")
	}

	// The person now has invoices; deletion is blocked.
	if err := env.invoices.DeletePerson(person.ID, "tester"); err == nil {
		t.Fatal("deleting a person with invoices must fail")
	}
}

func TestInvoice_UnconfirmedPaymentDoesNotSettle(t *testing.T) {
	env := setupEnv(t)
	person := env.createPerson(t)
	paymentType := env.createPaymentType(t)
	product := env.createProduct(t, false)

	invoice, err := env.invoices.CreateDraft(person.ID, nil, decimal.Zero, decimal.Zero, "tester")
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	taxRate := decimal.Zero
	if _, err := env.invoices.AddLineItem(service.AddLineInput{
		InvoiceID: invoice.ID,
		ProductID: product.ID,
		Quantity:  1,
		UnitPrice: dec("100.00"),
		TaxRate:   &taxRate,
		UserID:    "tester",
	}); err != nil {
		t.Fatalf("AddLineItem: %v", err)
	}
	if _, err := env.invoices.Issue(invoice.ID, "tester"); err != nil {
		t.Fatalf("Issue: %v", err)
	}

	invoice, err = env.invoices.ApplyPayment(service.ApplyPaymentInput{
		InvoiceID:     invoice.ID,
		PaymentTypeID: paymentType.ID,
		Amount:        dec("100.00"),
		Confirm:       false,
		UserID:        "tester",
	})
	if err != nil {
		t.Fatalf("ApplyPayment: %v", err)
	}
	if invoice.Status != model.InvoiceIssued || !invoice.PaidAmount.IsZero() {
		t.Errorf("unconfirmed payment must not settle: status %s, paid %s", invoice.Status, invoice.PaidAmount)
	}
}

func TestInvoice_AdjustmentLineReopensSettlement(t *testing.T) {
	env := setupEnv(t)
	person := env.createPerson(t)
	paymentType := env.createPaymentType(t)
	product := env.createProduct(t, false)

	invoice, err := env.invoices.CreateDraft(person.ID, nil, decimal.Zero, decimal.Zero, "tester")
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	taxRate := decimal.Zero
	if _, err := env.invoices.AddLineItem(service.AddLineInput{
		InvoiceID: invoice.ID,
		ProductID: product.ID,
		Quantity:  1,
		UnitPrice: dec("50.00"),
		TaxRate:   &taxRate,
		UserID:    "tester",
	}); err != nil {
		t.Fatalf("AddLineItem: %v", err)
	}
	if _, err := env.invoices.Issue(invoice.ID, "tester"); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	invoice, err = env.invoices.ApplyPayment(service.ApplyPaymentInput{
		InvoiceID:     invoice.ID,
		PaymentTypeID: paymentType.ID,
		Amount:        dec("50.00"),
		Confirm:       true,
		UserID:        "tester",
	})
	if err != nil || invoice.Status != model.InvoicePaid {
		t.Fatalf("expected PAID, got %s (err %v)", invoice.Status, err)
	}

	// A compensating extra charge drops the invoice back to partially paid.
	// Adjustment lines are rejected on paid invoices, so issue a fresh one
	// and adjust before full settlement.
	second, err := env.invoices.CreateDraft(person.ID, nil, decimal.Zero, decimal.Zero, "tester")
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	if _, err := env.invoices.AddLineItem(service.AddLineInput{
		InvoiceID: second.ID,
		ProductID: product.ID,
		Quantity:  2,
		UnitPrice: dec("50.00"),
		TaxRate:   &taxRate,
		UserID:    "tester",
	}); err != nil {
		t.Fatalf("AddLineItem: %v", err)
	}
	if _, err := env.invoices.Issue(second.ID, "tester"); err != nil {
		t.Fatalf("Issue: %v", err)
	}

	second, err = env.invoices.AddAdjustmentLine(service.AddLineInput{
		InvoiceID: second.ID,
		ProductID: product.ID,
		Quantity:  -1,
		UnitPrice: dec("50.00"),
		TaxRate:   &taxRate,
		UserID:    "tester",
	})
	if err != nil {
		t.Fatalf("AddAdjustmentLine: %v", err)
	}
	if !second.Total.Equal(dec("50.00")) {
		t.Errorf("credit line should bring total to 50.00, got %s", second.Total)
	}
	if second.Status != model.InvoiceIssued {
		t.Errorf("unpaid adjusted invoice should stay ISSUED, got %s", second.Status)
	}
}

func TestPriceChange_AppendsHistoryAndUpdatesProduct(t *testing.T) {
	env := setupEnv(t)
	product := env.createProduct(t, false)

	entry, err := env.price.ChangePrice(product.ID, dec("12.00"), dec("7.00"), "supplier increase", "tester")
	if err != nil {
		t.Fatalf("ChangePrice: %v", err)
	}
	if !entry.OldSalePrice.Equal(dec("10")) || !entry.NewSalePrice.Equal(dec("12.00")) {
		t.Errorf("history expected 10 -> 12.00, got %s -> %s", entry.OldSalePrice, entry.NewSalePrice)
	}

	reloaded, err := env.stock.GetProduct(product.ID)
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if !reloaded.SalePrice.Equal(dec("12.00")) || !reloaded.CostPrice.Equal(dec("7.00")) {
		t.Errorf("product prices expected 12.00/7.00, got %s/%s", reloaded.SalePrice, reloaded.CostPrice)
	}

	history, err := env.price.GetPriceHistory(product.ID)
	if err != nil {
		t.Fatalf("GetPriceHistory: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 history row, got %d", len(history))
	}

	if _, err := env.price.ChangePrice(product.ID, dec("-1"), dec("7.00"), "", "tester"); err == nil {
		t.Fatal("negative price must be rejected")
	}
}

func TestSoftDeletedProductKeepsItsLedger(t *testing.T) {
	env := setupEnv(t)
	product := env.createProduct(t, false)
	env.move(t, product.ID, 10, model.MovementEntry)

	if err := env.stock.DeleteProduct(product.ID, "tester"); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}

	products, err := env.stock.GetProducts()
	if err != nil {
		t.Fatalf("GetProducts: %v", err)
	}
	for _, p := range products {
		if p.ID == product.ID {
			t.Fatal("soft-deleted product must not appear in listings")
		}
	}

	movements, err := env.stock.GetProductMovements(product.ID)
	if err != nil {
		t.Fatalf("GetProductMovements: %v", err)
	}
	if len(movements) != 1 {
		t.Errorf("ledger must survive product deletion, got %d rows", len(movements))
	}

	// New movements on a deleted product are rejected.
	if _, err := env.stock.RecordMovement(service.RecordMovementInput{
		ProductID: product.ID,
		Delta:     1,
		Type:      model.MovementEntry,
		UserID:    "tester",
	}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreationsLeaveAnAuditTrail(t *testing.T) {
	env := setupEnv(t)
	product := env.createProduct(t, false)
	person := env.createPerson(t)
	paymentType := env.createPaymentType(t)

	invoice, err := env.invoices.CreateDraft(person.ID, nil, decimal.Zero, decimal.Zero, "tester")
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}

	cases := []struct {
		entity string
		id     string
		action string
	}{
		{"Product", product.ID.String(), "product.create"},
		{"Person", person.ID.String(), "person.create"},
		{"PaymentType", paymentType.ID.String(), "payment_type.create"},
		{"Invoice", invoice.ID.String(), "invoice.create_draft"},
	}
	for _, tc := range cases {
		entries, err := env.audit.History(tc.entity, tc.id)
		if err != nil {
			t.Fatalf("audit history for %s: %v", tc.entity, err)
		}
		if len(entries) == 0 {
			t.Errorf("%s creation left no audit entry", tc.entity)
			continue
		}
		if entries[0].Action != tc.action {
			t.Errorf("%s: expected action %s, got %s", tc.entity, tc.action, entries[0].Action)
		}
		if len(entries[0].NewValues) == 0 {
			t.Errorf("%s: audit entry carries no new-state snapshot", tc.entity)
		}
	}
}

func TestApplyPayment_UnknownPaymentType(t *testing.T) {
	env := setupEnv(t)
	person := env.createPerson(t)
	product := env.createProduct(t, false)

	invoice, err := env.invoices.CreateDraft(person.ID, nil, decimal.Zero, decimal.Zero, "tester")
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	taxRate := decimal.Zero
	if _, err := env.invoices.AddLineItem(service.AddLineInput{
		InvoiceID: invoice.ID,
		ProductID: product.ID,
		Quantity:  1,
		UnitPrice: dec("10.00"),
		TaxRate:   &taxRate,
		UserID:    "tester",
	}); err != nil {
		t.Fatalf("AddLineItem: %v", err)
	}
	if _, err := env.invoices.Issue(invoice.ID, "tester"); err != nil {
		t.Fatalf("Issue: %v", err)
	}

	_, err = env.invoices.ApplyPayment(service.ApplyPaymentInput{
		InvoiceID:     invoice.ID,
		PaymentTypeID: uuid.New(),
		Amount:        dec("10.00"),
		Confirm:       true,
		UserID:        "tester",
	})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown payment type, got %v", err)
	}
}

func TestCreateProduct_DuplicateInternalCode(t *testing.T) {
	env := setupEnv(t)
	first := env.createProduct(t, false)

	dupe := &model.Product{
		InternalCode: first.InternalCode,
		Name:         "Duplicate",
		SalePrice:    decimal.NewFromInt(10),
		CostPrice:    decimal.NewFromInt(6),
	}
	err := env.stock.CreateProduct(dupe, "tester")
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for duplicate code, got %v", err)
	}
	if ve.Field != "internal_code" {
		t.Errorf("expected internal_code violation, got %s", ve.Field)
	}
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}
