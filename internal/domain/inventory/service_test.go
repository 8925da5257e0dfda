package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/curex40/curex40/internal/domain/notifications"
	"github.com/curex40/curex40/internal/platform/apperr"
)

// mockRepo keeps the ledger in memory with the same semantics as the
// database implementation: the conditional update happens before the append,
// and an underflow leaves both the stock and the ledger untouched.
type mockRepo struct {
	stock    map[uuid.UUID]int
	minStock map[uuid.UUID]int
	ledger   []*Transaction
}

func newMockRepo() *mockRepo {
	return &mockRepo{stock: map[uuid.UUID]int{}, minStock: map[uuid.UUID]int{}}
}

func (m *mockRepo) Apply(_ context.Context, t *Transaction) (bool, error) {
	before, ok := m.stock[t.MedicationID]
	if !ok {
		return false, apperr.NotFound("medication not found")
	}
	after := before + t.QuantityChange
	if after < 0 {
		return false, apperr.Conflict("insufficient stock for medication %s", t.MedicationID)
	}
	m.stock[t.MedicationID] = after

	t.ID = uuid.New()
	t.QuantityBefore = before
	t.QuantityAfter = after
	t.CreatedAt = time.Now()
	cp := *t
	m.ledger = append(m.ledger, &cp)
	return after <= m.minStock[t.MedicationID], nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Transaction, error) {
	for _, t := range m.ledger {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, apperr.NotFound("inventory transaction not found")
}

func (m *mockRepo) ListByMedication(_ context.Context, medicationID uuid.UUID, limit, offset int) ([]*Transaction, int, error) {
	var all []*Transaction
	for _, t := range m.ledger {
		if t.MedicationID == medicationID {
			all = append(all, t)
		}
	}
	total := len(all)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *mockRepo) Summary(_ context.Context, medicationID uuid.UUID) (*Summary, error) {
	stock, ok := m.stock[medicationID]
	if !ok {
		return nil, apperr.NotFound("medication not found")
	}
	s := &Summary{MedicationID: medicationID, CurrentStock: stock}
	for _, t := range m.ledger {
		if t.MedicationID != medicationID {
			continue
		}
		s.TransactionCount++
		if t.QuantityChange > 0 {
			s.TotalIn += t.QuantityChange
		} else {
			s.TotalOut -= t.QuantityChange
		}
		at := t.CreatedAt
		s.LastTransactionAt = &at
	}
	return s, nil
}

func (m *mockRepo) Report(_ context.Context, from, to time.Time) ([]*ReportRow, error) {
	byType := map[string]*ReportRow{}
	for _, t := range m.ledger {
		if t.CreatedAt.Before(from) || !t.CreatedAt.Before(to) {
			continue
		}
		row, ok := byType[t.Type]
		if !ok {
			row = &ReportRow{Type: t.Type}
			byType[t.Type] = row
		}
		row.Count++
		if t.QuantityChange >= 0 {
			row.TotalUnits += t.QuantityChange
		} else {
			row.TotalUnits -= t.QuantityChange
		}
	}
	var out []*ReportRow
	for _, row := range byType {
		out = append(out, row)
	}
	return out, nil
}

type mockNotifier struct {
	alerts []struct {
		userID uuid.UUID
		kind   string
		body   string
	}
}

func (m *mockNotifier) Notify(_ context.Context, userID uuid.UUID, kind, _, body string, _ *string) {
	m.alerts = append(m.alerts, struct {
		userID uuid.UUID
		kind   string
		body   string
	}{userID, kind, body})
}

func newTestService(openingStock map[uuid.UUID]int) (*Service, *mockRepo) {
	repo := newMockRepo()
	for id, qty := range openingStock {
		repo.stock[id] = qty
	}
	return NewService(repo, nil, zerolog.Nop()), repo
}

func TestAddStock_RecordsBeforeAndAfter(t *testing.T) {
	medID := uuid.New()
	svc, _ := newTestService(map[uuid.UUID]int{medID: 10})

	tx, err := svc.AddStock(context.Background(), MovementInput{MedicationID: medID, Quantity: 40}, uuid.New())
	if err != nil {
		t.Fatalf("add stock: %v", err)
	}
	if tx.QuantityBefore != 10 || tx.QuantityChange != 40 || tx.QuantityAfter != 50 {
		t.Errorf("unexpected levels: before=%d change=%d after=%d",
			tx.QuantityBefore, tx.QuantityChange, tx.QuantityAfter)
	}
	if tx.Type != TypeIn {
		t.Errorf("expected type %q, got %q", TypeIn, tx.Type)
	}
}

func TestRecordOut_LeavesLedgerConsistent(t *testing.T) {
	medID := uuid.New()
	svc, repo := newTestService(map[uuid.UUID]int{medID: 100})
	actor := uuid.New()

	if _, err := svc.RecordOut(context.Background(), MovementInput{MedicationID: medID, Quantity: 85}, actor); err != nil {
		t.Fatalf("dispense: %v", err)
	}
	if repo.stock[medID] != 15 {
		t.Errorf("expected stock 15 after dispensing 85 of 100, got %d", repo.stock[medID])
	}

	for i, tx := range repo.ledger {
		if tx.QuantityAfter != tx.QuantityBefore+tx.QuantityChange {
			t.Errorf("row %d violates after = before + change: %+v", i, tx)
		}
	}
	last := repo.ledger[len(repo.ledger)-1]
	if last.QuantityAfter != repo.stock[medID] {
		t.Errorf("stock %d does not match last quantity_after %d", repo.stock[medID], last.QuantityAfter)
	}
}

func TestRecordOut_AlertsWhenCrossingReorderThreshold(t *testing.T) {
	medID := uuid.New()
	repo := newMockRepo()
	repo.stock[medID] = 25
	repo.minStock[medID] = 20
	notifier := &mockNotifier{}
	svc := NewService(repo, notifier, zerolog.Nop())
	actor := uuid.New()

	// Still above the threshold, no alert.
	if _, err := svc.RecordOut(context.Background(), MovementInput{MedicationID: medID, Quantity: 3}, actor); err != nil {
		t.Fatalf("dispense: %v", err)
	}
	if len(notifier.alerts) != 0 {
		t.Fatalf("no alert expected above the threshold, got %d", len(notifier.alerts))
	}

	if _, err := svc.RecordOut(context.Background(), MovementInput{MedicationID: medID, Quantity: 5}, actor); err != nil {
		t.Fatalf("dispense: %v", err)
	}
	if len(notifier.alerts) != 1 {
		t.Fatalf("expected one low stock alert, got %d", len(notifier.alerts))
	}
	if notifier.alerts[0].userID != actor || notifier.alerts[0].kind != notifications.KindStock {
		t.Errorf("unexpected alert: %+v", notifier.alerts[0])
	}

	// Inbound movements never alert, even while stock is still low.
	if _, err := svc.AddStock(context.Background(), MovementInput{MedicationID: medID, Quantity: 1}, actor); err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(notifier.alerts) != 1 {
		t.Errorf("restock must not alert, got %d alerts", len(notifier.alerts))
	}
}

func TestRecordOut_RejectsUnderflow(t *testing.T) {
	medID := uuid.New()
	svc, repo := newTestService(map[uuid.UUID]int{medID: 5})

	_, err := svc.RecordOut(context.Background(), MovementInput{MedicationID: medID, Quantity: 6}, uuid.New())
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict on underflow, got %v", err)
	}
	if repo.stock[medID] != 5 {
		t.Errorf("rejected movement must not change stock, got %d", repo.stock[medID])
	}
	if len(repo.ledger) != 0 {
		t.Errorf("rejected movement must not append to the ledger, got %d rows", len(repo.ledger))
	}
}

func TestRecordOut_ExactDepletion(t *testing.T) {
	medID := uuid.New()
	svc, repo := newTestService(map[uuid.UUID]int{medID: 5})

	if _, err := svc.RecordOut(context.Background(), MovementInput{MedicationID: medID, Quantity: 5}, uuid.New()); err != nil {
		t.Fatalf("dispensing exactly the remaining stock must succeed: %v", err)
	}
	if repo.stock[medID] != 0 {
		t.Errorf("expected stock 0, got %d", repo.stock[medID])
	}
}

func TestMovements_RejectNonPositiveQuantity(t *testing.T) {
	medID := uuid.New()
	svc, _ := newTestService(map[uuid.UUID]int{medID: 10})

	for _, qty := range []int{0, -3} {
		if _, err := svc.AddStock(context.Background(), MovementInput{MedicationID: medID, Quantity: qty}, uuid.New()); apperr.KindOf(err) != apperr.KindValidation {
			t.Errorf("AddStock(%d): expected validation error, got %v", qty, err)
		}
		if _, err := svc.RecordOut(context.Background(), MovementInput{MedicationID: medID, Quantity: qty}, uuid.New()); apperr.KindOf(err) != apperr.KindValidation {
			t.Errorf("RecordOut(%d): expected validation error, got %v", qty, err)
		}
	}
}

func TestAdjustStock_RequiresReason(t *testing.T) {
	medID := uuid.New()
	svc, _ := newTestService(map[uuid.UUID]int{medID: 10})

	_, err := svc.AdjustStock(context.Background(), AdjustInput{MedicationID: medID, Delta: -2}, uuid.New())
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error without reason, got %v", err)
	}
}

func TestAdjustStock_SignedDelta(t *testing.T) {
	medID := uuid.New()
	svc, repo := newTestService(map[uuid.UUID]int{medID: 10})
	reason := "cycle count correction"

	tx, err := svc.AdjustStock(context.Background(), AdjustInput{MedicationID: medID, Delta: -4, Reason: &reason}, uuid.New())
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if tx.QuantityAfter != 6 || repo.stock[medID] != 6 {
		t.Errorf("expected stock 6 after -4 adjustment, got tx.after=%d stock=%d", tx.QuantityAfter, repo.stock[medID])
	}

	_, err = svc.AdjustStock(context.Background(), AdjustInput{MedicationID: medID, Delta: -7, Reason: &reason}, uuid.New())
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict when adjustment would go negative, got %v", err)
	}
}

func TestLedger_ReplayReconstructsStock(t *testing.T) {
	medID := uuid.New()
	svc, repo := newTestService(map[uuid.UUID]int{medID: 0})
	actor := uuid.New()
	reason := "damaged in transit"

	steps := []func() error{
		func() error {
			_, err := svc.AddStock(context.Background(), MovementInput{MedicationID: medID, Quantity: 100}, actor)
			return err
		},
		func() error {
			_, err := svc.RecordOut(context.Background(), MovementInput{MedicationID: medID, Quantity: 30}, actor)
			return err
		},
		func() error {
			_, err := svc.RecordDamaged(context.Background(), MovementInput{MedicationID: medID, Quantity: 5, Reason: &reason}, actor)
			return err
		},
		func() error {
			_, err := svc.RecordReturn(context.Background(), MovementInput{MedicationID: medID, Quantity: 10}, actor)
			return err
		},
		func() error {
			_, err := svc.RecordExpired(context.Background(), MovementInput{MedicationID: medID, Quantity: 15}, actor)
			return err
		},
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	replayed := 0
	for _, tx := range repo.ledger {
		if tx.QuantityBefore != replayed {
			t.Errorf("ledger gap: row starts at %d but replay says %d", tx.QuantityBefore, replayed)
		}
		replayed += tx.QuantityChange
	}
	if replayed != repo.stock[medID] {
		t.Errorf("replayed stock %d does not match actual %d", replayed, repo.stock[medID])
	}
	if repo.stock[medID] != 60 {
		t.Errorf("expected final stock 60, got %d", repo.stock[medID])
	}
}

func TestSummary_SplitsInAndOut(t *testing.T) {
	medID := uuid.New()
	svc, _ := newTestService(map[uuid.UUID]int{medID: 0})
	actor := uuid.New()

	if _, err := svc.AddStock(context.Background(), MovementInput{MedicationID: medID, Quantity: 50}, actor); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.RecordOut(context.Background(), MovementInput{MedicationID: medID, Quantity: 20}, actor); err != nil {
		t.Fatalf("out: %v", err)
	}

	s, err := svc.Summary(context.Background(), medID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s.TotalIn != 50 || s.TotalOut != 20 || s.CurrentStock != 30 || s.TransactionCount != 2 {
		t.Errorf("unexpected summary: %+v", s)
	}
}

func TestReport_RejectsInvertedRange(t *testing.T) {
	svc, _ := newTestService(nil)

	now := time.Now()
	_, err := svc.Report(context.Background(), now, now.Add(-time.Hour))
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
