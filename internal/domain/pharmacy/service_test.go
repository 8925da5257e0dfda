package pharmacy

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/curex40/curex40/internal/platform/apperr"
)

type mockRepo struct {
	byID      map[uuid.UUID]*Pharmacy
	byLicense map[string]uuid.UUID
}

func newMockRepo() *mockRepo {
	return &mockRepo{byID: map[uuid.UUID]*Pharmacy{}, byLicense: map[string]uuid.UUID{}}
}

func (m *mockRepo) Create(_ context.Context, p *Pharmacy) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	m.byID[p.ID] = &cp
	m.byLicense[p.LicenseNumber] = p.ID
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Pharmacy, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, apperr.NotFound("pharmacy not found")
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) GetByLicense(_ context.Context, license string) (*Pharmacy, error) {
	id, ok := m.byLicense[license]
	if !ok {
		return nil, apperr.NotFound("pharmacy not found")
	}
	return m.GetByID(context.Background(), id)
}

func (m *mockRepo) Update(_ context.Context, p *Pharmacy) error {
	if _, ok := m.byID[p.ID]; !ok {
		return apperr.NotFound("pharmacy not found")
	}
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func (m *mockRepo) List(_ context.Context, city string, activeOnly bool, limit, offset int) ([]*Pharmacy, int, error) {
	var out []*Pharmacy
	for _, p := range m.byID {
		if city != "" && p.City != city {
			continue
		}
		if activeOnly && !p.Active {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func TestRegister_RequiresCoreFields(t *testing.T) {
	svc := NewService(newMockRepo(), zerolog.Nop())

	_, err := svc.Register(context.Background(), Input{Name: "Central", LicenseNumber: "PH-1"})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error without address, got %v", err)
	}
}

func TestRegister_DuplicateLicense(t *testing.T) {
	svc := NewService(newMockRepo(), zerolog.Nop())

	in := Input{Name: "Central", LicenseNumber: "PH-1", Address: "1 Main St", City: "Dhaka"}
	if _, err := svc.Register(context.Background(), in); err != nil {
		t.Fatalf("first register: %v", err)
	}

	in.Name = "Another"
	_, err := svc.Register(context.Background(), in)
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict for duplicate license, got %v", err)
	}
}

func TestUpdate_TogglesActive(t *testing.T) {
	svc := NewService(newMockRepo(), zerolog.Nop())

	p, err := svc.Register(context.Background(), Input{
		Name: "Central", LicenseNumber: "PH-1", Address: "1 Main St", City: "Dhaka",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !p.Active {
		t.Fatal("expected new pharmacy to be active")
	}

	inactive := false
	updated, err := svc.Update(context.Background(), p.ID, Input{
		Name: p.Name, LicenseNumber: p.LicenseNumber, Address: p.Address, City: p.City,
		Active: &inactive,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Active {
		t.Error("expected pharmacy to be inactive after update")
	}
}
