package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/curex40/curex40/internal/domain/cart"
	"github.com/curex40/curex40/internal/domain/catalog"
	"github.com/curex40/curex40/internal/domain/notifications"
	"github.com/curex40/curex40/internal/platform/apperr"
)

type mockRepo struct {
	byID map[uuid.UUID]*Order

	// afterGet, when set, runs after every GetByID. Tests use it to mutate
	// the stored order between the caller's read and its write, standing in
	// for a concurrent request.
	afterGet func()
}

func newMockRepo() *mockRepo {
	return &mockRepo{byID: map[uuid.UUID]*Order{}}
}

func cloneOrder(o *Order) *Order {
	cp := *o
	cp.Items = nil
	for _, it := range o.Items {
		ci := *it
		cp.Items = append(cp.Items, &ci)
	}
	return &cp
}

func (m *mockRepo) Create(_ context.Context, o *Order) error {
	o.ID = uuid.New()
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	for _, it := range o.Items {
		it.ID = uuid.New()
		it.OrderID = o.ID
	}
	m.byID[o.ID] = cloneOrder(o)
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, apperr.NotFound("order not found")
	}
	cp := cloneOrder(o)
	if m.afterGet != nil {
		m.afterGet()
	}
	return cp, nil
}

func (m *mockRepo) Update(_ context.Context, o *Order) error {
	if _, ok := m.byID[o.ID]; !ok {
		return apperr.NotFound("order not found")
	}
	m.byID[o.ID] = cloneOrder(o)
	return nil
}

func (m *mockRepo) Transition(_ context.Context, o *Order, from string) error {
	stored, ok := m.byID[o.ID]
	if !ok {
		return apperr.NotFound("order not found")
	}
	if stored.Status != from {
		return apperr.Conflict("order is no longer %s", from)
	}
	m.byID[o.ID] = cloneOrder(o)
	return nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Order, int, error) {
	var out []*Order
	for _, o := range m.byID {
		if o.PatientID == patientID {
			out = append(out, cloneOrder(o))
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) ListByStatus(_ context.Context, status string, limit, offset int) ([]*Order, int, error) {
	var out []*Order
	for _, o := range m.byID {
		if o.Status == status {
			out = append(out, cloneOrder(o))
		}
	}
	return out, len(out), nil
}

type mockStock struct {
	levels    map[uuid.UUID]int
	restocked int
}

func (m *mockStock) Dispense(_ context.Context, medicationID uuid.UUID, quantity int, _ string, _ uuid.UUID) error {
	if m.levels[medicationID] < quantity {
		return apperr.Conflict("insufficient stock")
	}
	m.levels[medicationID] -= quantity
	return nil
}

func (m *mockStock) Restock(_ context.Context, medicationID uuid.UUID, quantity int, _ string, _ uuid.UUID) error {
	m.levels[medicationID] += quantity
	m.restocked += quantity
	return nil
}

type mockCart struct {
	lines   []*cart.Line
	cleared bool
}

func (m *mockCart) Get(_ context.Context, patientID uuid.UUID) (*cart.View, error) {
	v := &cart.View{Cart: &cart.Cart{PatientID: patientID}, Lines: m.lines}
	for _, l := range m.lines {
		v.Subtotal += l.LineTotal
	}
	return v, nil
}

func (m *mockCart) Clear(_ context.Context, _ uuid.UUID) error {
	m.lines = nil
	m.cleared = true
	return nil
}

type mockCatalog struct {
	meds map[uuid.UUID]*catalog.Medication
}

func (m *mockCatalog) GetByID(_ context.Context, id uuid.UUID) (*catalog.Medication, error) {
	med, ok := m.meds[id]
	if !ok {
		return nil, apperr.NotFound("medication not found")
	}
	return med, nil
}

func passthroughTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type sentNotification struct {
	userID uuid.UUID
	kind   string
	title  string
}

type mockNotifier struct {
	sent []sentNotification
}

func (m *mockNotifier) Notify(_ context.Context, userID uuid.UUID, kind, title, _ string, _ *string) {
	m.sent = append(m.sent, sentNotification{userID, kind, title})
}

type fixture struct {
	svc      *Service
	repo     *mockRepo
	stock    *mockStock
	carts    *mockCart
	catalog  *mockCatalog
	notifier *mockNotifier
}

func newFixture(lines []*cart.Line, levels map[uuid.UUID]int) *fixture {
	f := &fixture{
		repo:     newMockRepo(),
		stock:    &mockStock{levels: levels},
		carts:    &mockCart{lines: lines},
		catalog:  &mockCatalog{meds: map[uuid.UUID]*catalog.Medication{}},
		notifier: &mockNotifier{},
	}
	f.svc = NewService(f.repo, f.stock, f.carts, f.catalog, f.notifier, passthroughTx, 0.10, zerolog.Nop())
	return f
}

func line(medID uuid.UUID, name string, price float64, qty int, rx bool) *cart.Line {
	return &cart.Line{
		MedicationID: medID, Name: name, UnitPrice: price, Quantity: qty,
		LineTotal: price * float64(qty), PrescriptionRequired: rx, InStock: true,
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newFixture(nil, nil)

	_, err := f.svc.Checkout(context.Background(), uuid.New(), CheckoutInput{})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCheckout_SnapshotsAndClearsCart(t *testing.T) {
	medID := uuid.New()
	f := newFixture([]*cart.Line{line(medID, "Paracetamol", 2.50, 4, false)}, nil)

	o, err := f.svc.Checkout(context.Background(), uuid.New(), CheckoutInput{})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if o.Status != StatusPending {
		t.Errorf("expected pending, got %s", o.Status)
	}
	if o.Subtotal != 10.00 || o.Tax != 1.00 || o.Total != 11.00 {
		t.Errorf("unexpected totals: subtotal=%.2f tax=%.2f total=%.2f", o.Subtotal, o.Tax, o.Total)
	}
	if len(o.Items) != 1 || o.Items[0].UnitPrice != 2.50 || o.Items[0].Name != "Paracetamol" {
		t.Errorf("price snapshot missing: %+v", o.Items)
	}
	if !f.carts.cleared {
		t.Error("checkout must clear the cart")
	}
	if o.OrderNumber == "" {
		t.Error("expected an order number")
	}
}

func TestCheckout_PrescriptionRequired(t *testing.T) {
	medID := uuid.New()
	f := newFixture([]*cart.Line{line(medID, "Amoxicillin", 8.00, 1, true)}, nil)

	_, err := f.svc.Checkout(context.Background(), uuid.New(), CheckoutInput{})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error without prescription, got %v", err)
	}

	rxID := uuid.New()
	if _, err := f.svc.Checkout(context.Background(), uuid.New(), CheckoutInput{PrescriptionID: &rxID}); err != nil {
		t.Fatalf("checkout with prescription: %v", err)
	}
}

func TestConfirm_DispensesStock(t *testing.T) {
	medID := uuid.New()
	f := newFixture([]*cart.Line{line(medID, "Paracetamol", 2.50, 4, false)},
		map[uuid.UUID]int{medID: 10})

	o, err := f.svc.Checkout(context.Background(), uuid.New(), CheckoutInput{})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	o, err = f.svc.Confirm(context.Background(), o.ID, uuid.New(), nil)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if o.Status != StatusConfirmed || o.ConfirmedBy == nil {
		t.Errorf("unexpected state: %+v", o)
	}
	if f.stock.levels[medID] != 6 {
		t.Errorf("expected stock 6 after confirming 4 units, got %d", f.stock.levels[medID])
	}
}

func TestConfirm_InsufficientStock(t *testing.T) {
	medID := uuid.New()
	f := newFixture([]*cart.Line{line(medID, "Paracetamol", 2.50, 4, false)},
		map[uuid.UUID]int{medID: 3})

	o, err := f.svc.Checkout(context.Background(), uuid.New(), CheckoutInput{})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	_, err = f.svc.Confirm(context.Background(), o.ID, uuid.New(), nil)
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	got, err := f.svc.Get(context.Background(), o.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusPending {
		t.Errorf("failed confirmation must leave the order pending, got %s", got.Status)
	}
}

func TestConfirm_LosesRaceToConcurrentConfirm(t *testing.T) {
	medID := uuid.New()
	f := newFixture([]*cart.Line{line(medID, "Paracetamol", 2.50, 4, false)},
		map[uuid.UUID]int{medID: 10})

	o, err := f.svc.Checkout(context.Background(), uuid.New(), CheckoutInput{})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	// A concurrent confirmation commits between this caller's read and its
	// write; the conditional write must reject the second dispense.
	f.repo.afterGet = func() {
		f.repo.afterGet = nil
		f.repo.byID[o.ID].Status = StatusConfirmed
	}
	_, err = f.svc.Confirm(context.Background(), o.ID, uuid.New(), nil)
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict for the losing confirmation, got %v", err)
	}

	got, err := f.svc.Get(context.Background(), o.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusConfirmed {
		t.Errorf("winner's status must stand, got %s", got.Status)
	}
}

func TestCancel_LosesRaceToConcurrentAdvance(t *testing.T) {
	medID := uuid.New()
	f := newFixture([]*cart.Line{line(medID, "Paracetamol", 2.50, 4, false)},
		map[uuid.UUID]int{medID: 10})

	o, err := f.svc.Checkout(context.Background(), uuid.New(), CheckoutInput{})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if _, err := f.svc.Confirm(context.Background(), o.ID, uuid.New(), nil); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	f.repo.afterGet = func() {
		f.repo.afterGet = nil
		f.repo.byID[o.ID].Status = StatusCompleted
	}
	_, err = f.svc.Cancel(context.Background(), o.ID, "changed my mind", uuid.New())
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict cancelling a completed order, got %v", err)
	}
}

func TestLifecycle_NotifiesPatient(t *testing.T) {
	medID := uuid.New()
	f := newFixture([]*cart.Line{line(medID, "Paracetamol", 2.50, 4, false)},
		map[uuid.UUID]int{medID: 10})
	patientID := uuid.New()

	o, err := f.svc.Checkout(context.Background(), patientID, CheckoutInput{})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if len(f.notifier.sent) != 0 {
		t.Fatalf("checkout must not notify, got %d", len(f.notifier.sent))
	}

	if _, err := f.svc.Confirm(context.Background(), o.ID, uuid.New(), nil); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := f.svc.Advance(context.Background(), o.ID, StatusPreparing); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if _, err := f.svc.Cancel(context.Background(), o.ID, "pharmacy closed", uuid.New()); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if len(f.notifier.sent) != 3 {
		t.Fatalf("expected a notification per status change, got %d", len(f.notifier.sent))
	}
	for i, n := range f.notifier.sent {
		if n.userID != patientID {
			t.Errorf("notification %d went to %s, want the patient", i, n.userID)
		}
		if n.kind != notifications.KindOrder {
			t.Errorf("notification %d has kind %q, want %q", i, n.kind, notifications.KindOrder)
		}
	}
	if f.notifier.sent[2].title != "Order cancelled" {
		t.Errorf("unexpected final notification: %+v", f.notifier.sent[2])
	}
}

func TestAdvance_ForwardOnly(t *testing.T) {
	medID := uuid.New()
	f := newFixture([]*cart.Line{line(medID, "Paracetamol", 2.50, 1, false)},
		map[uuid.UUID]int{medID: 10})

	o, err := f.svc.Checkout(context.Background(), uuid.New(), CheckoutInput{})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	// pending order cannot skip to ready
	if _, err := f.svc.Advance(context.Background(), o.ID, StatusReady); apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict skipping statuses, got %v", err)
	}

	if _, err := f.svc.Confirm(context.Background(), o.ID, uuid.New(), nil); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	for _, next := range []string{StatusPreparing, StatusReady, StatusCompleted} {
		if _, err := f.svc.Advance(context.Background(), o.ID, next); err != nil {
			t.Fatalf("advance to %s: %v", next, err)
		}
	}

	// completed is terminal
	if _, err := f.svc.Advance(context.Background(), o.ID, StatusPreparing); apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict moving a completed order, got %v", err)
	}
	if _, err := f.svc.Cancel(context.Background(), o.ID, "too late", uuid.New()); apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict cancelling a completed order, got %v", err)
	}
}

func TestCanTransition_NoBackwardMoves(t *testing.T) {
	if CanTransition(StatusCompleted, StatusPending) {
		t.Error("completed -> pending must be rejected")
	}
	if CanTransition(StatusReady, StatusPreparing) {
		t.Error("ready -> preparing must be rejected")
	}
	if !CanTransition(StatusPending, StatusCancelled) {
		t.Error("pending -> cancelled must be allowed")
	}
}

func TestCancel_PendingDoesNotRestock(t *testing.T) {
	medID := uuid.New()
	f := newFixture([]*cart.Line{line(medID, "Paracetamol", 2.50, 4, false)},
		map[uuid.UUID]int{medID: 10})

	o, err := f.svc.Checkout(context.Background(), uuid.New(), CheckoutInput{})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	o, err = f.svc.Cancel(context.Background(), o.ID, "changed my mind", o.PatientID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if o.Status != StatusCancelled || o.CancelReason == nil {
		t.Errorf("unexpected state: %+v", o)
	}
	if f.stock.restocked != 0 {
		t.Errorf("pending cancellation must not restock, got %d", f.stock.restocked)
	}
}

func TestCancel_ConfirmedRestocks(t *testing.T) {
	medID := uuid.New()
	f := newFixture([]*cart.Line{line(medID, "Paracetamol", 2.50, 4, false)},
		map[uuid.UUID]int{medID: 10})

	o, err := f.svc.Checkout(context.Background(), uuid.New(), CheckoutInput{})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if _, err := f.svc.Confirm(context.Background(), o.ID, uuid.New(), nil); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if _, err := f.svc.Cancel(context.Background(), o.ID, "pharmacy closed", uuid.New()); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if f.stock.levels[medID] != 10 {
		t.Errorf("expected stock restored to 10, got %d", f.stock.levels[medID])
	}
	if f.stock.restocked != 4 {
		t.Errorf("expected 4 units restocked, got %d", f.stock.restocked)
	}
}

func TestSubstituteItem_RepricesOrder(t *testing.T) {
	medID := uuid.New()
	subID := uuid.New()
	f := newFixture([]*cart.Line{line(medID, "BrandX", 10.00, 2, false)}, nil)
	f.catalog.meds[subID] = &catalog.Medication{ID: subID, Name: "GenericX", Price: 4.00, Active: true}

	o, err := f.svc.Checkout(context.Background(), uuid.New(), CheckoutInput{})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	o, err = f.svc.SubstituteItem(context.Background(), o.ID, o.Items[0].ID, subID)
	if err != nil {
		t.Fatalf("substitute: %v", err)
	}
	it := o.Items[0]
	if it.MedicationID != subID || it.SubstituteFor == nil || *it.SubstituteFor != medID {
		t.Errorf("substitution not recorded: %+v", it)
	}
	if o.Subtotal != 8.00 || o.Total != 8.80 {
		t.Errorf("expected repriced totals 8.00/8.80, got %.2f/%.2f", o.Subtotal, o.Total)
	}
}

func TestSubstituteItem_OnlyBeforeConfirmation(t *testing.T) {
	medID := uuid.New()
	subID := uuid.New()
	f := newFixture([]*cart.Line{line(medID, "BrandX", 10.00, 2, false)},
		map[uuid.UUID]int{medID: 10})
	f.catalog.meds[subID] = &catalog.Medication{ID: subID, Name: "GenericX", Price: 4.00, Active: true}

	o, err := f.svc.Checkout(context.Background(), uuid.New(), CheckoutInput{})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if _, err := f.svc.Confirm(context.Background(), o.ID, uuid.New(), nil); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	_, err = f.svc.SubstituteItem(context.Background(), o.ID, o.Items[0].ID, subID)
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}
