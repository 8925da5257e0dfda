// Package seed loads a development dataset: one pharmacy, an account per
// role, a small medication catalog and opening stock recorded through the
// inventory ledger so the stock invariant holds from the first row.
package seed

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/curex40/curex40/internal/domain/catalog"
	"github.com/curex40/curex40/internal/domain/identity"
	"github.com/curex40/curex40/internal/domain/inventory"
	"github.com/curex40/curex40/internal/domain/pharmacy"
	"github.com/curex40/curex40/internal/platform/apperr"
	"github.com/curex40/curex40/internal/platform/auth"
)

// Password shared by every seeded account. Development only.
const seedPassword = "curex40-dev"

func strptr(s string) *string { return &s }

// Run populates the database. It is idempotent: accounts and catalog rows
// that already exist are left alone.
func Run(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) error {
	log := logger.With().Str("component", "seed").Logger()

	users := identity.NewRepoPG(pool)
	pharmacies := pharmacy.NewRepoPG(pool)
	medications := catalog.NewRepoPG(pool)
	// Seeding opens the stock ledger; nobody is around to read alerts yet.
	ledger := inventory.NewService(inventory.NewRepoPG(pool), nil, logger)

	ph, err := seedPharmacy(ctx, pharmacies)
	if err != nil {
		return fmt.Errorf("seed pharmacy: %w", err)
	}

	admin, err := seedUsers(ctx, users, ph.ID)
	if err != nil {
		return fmt.Errorf("seed users: %w", err)
	}

	created, err := seedCatalog(ctx, medications, ledger, ph.ID, admin)
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}

	log.Info().Int("medications", created).Msg("seed complete")
	return nil
}

func seedPharmacy(ctx context.Context, repo pharmacy.Repository) (*pharmacy.Pharmacy, error) {
	existing, err := repo.GetByLicense(ctx, "PH-DEMO-001")
	if err == nil {
		return existing, nil
	}
	if apperr.KindOf(err) != apperr.KindNotFound {
		return nil, err
	}

	p := &pharmacy.Pharmacy{
		Name:          "CureX Central Pharmacy",
		LicenseNumber: "PH-DEMO-001",
		Address:       "12 Green Road",
		City:          "Dhaka",
		Phone:         strptr("+880-2-5555-0100"),
		Email:         strptr("central@curex40.example"),
		Active:        true,
	}
	if err := repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// seedUsers creates one account per role and returns the admin id, which is
// used as the actor on seeded stock movements.
func seedUsers(ctx context.Context, repo identity.Repository, pharmacyID uuid.UUID) (uuid.UUID, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return uuid.Nil, err
	}

	accounts := []identity.User{
		{Email: "admin@curex40.example", FullName: "Platform Admin", Role: auth.RoleAdmin},
		{Email: "patient@curex40.example", FullName: "Demo Patient", Role: auth.RolePatient},
		{Email: "pharmacist@curex40.example", FullName: "Demo Pharmacist", Role: auth.RolePharmacist, PharmacyID: &pharmacyID},
		{Email: "doctor@curex40.example", FullName: "Demo Doctor", Role: auth.RoleDoctor},
		{Email: "government@curex40.example", FullName: "Health Authority", Role: auth.RoleGovernment},
		{Email: "insurance@curex40.example", FullName: "Demo Insurer", Role: auth.RoleInsurance},
	}

	var adminID uuid.UUID
	for i := range accounts {
		u := accounts[i]
		existing, err := repo.GetByEmail(ctx, u.Email)
		if err == nil {
			if u.Role == auth.RoleAdmin {
				adminID = existing.ID
			}
			continue
		}
		if apperr.KindOf(err) != apperr.KindNotFound {
			return uuid.Nil, err
		}

		u.PasswordHash = string(hash)
		u.Active = true
		if err := repo.Create(ctx, &u); err != nil {
			return uuid.Nil, err
		}
		if u.Role == auth.RoleAdmin {
			adminID = u.ID
		}
	}
	return adminID, nil
}

func seedCatalog(ctx context.Context, repo catalog.Repository, ledger *inventory.Service,
	pharmacyID, adminID uuid.UUID) (int, error) {

	type entry struct {
		med   catalog.Medication
		stock int
	}
	entries := []entry{
		{catalog.Medication{Name: "Paracetamol 500mg", GenericName: strptr("Acetaminophen"), Category: "analgesic", DosageForm: strptr("tablet"), Price: 1.20, MinStock: 100, MaxStock: 2000}, 800},
		{catalog.Medication{Name: "Amoxicillin 250mg", GenericName: strptr("Amoxicillin"), Category: "antibiotic", DosageForm: strptr("capsule"), Price: 4.50, MinStock: 50, MaxStock: 500, PrescriptionRequired: true}, 300},
		{catalog.Medication{Name: "Metformin 500mg", Category: "antidiabetic", DosageForm: strptr("tablet"), Price: 2.80, MinStock: 60, MaxStock: 600, PrescriptionRequired: true}, 400},
		{catalog.Medication{Name: "Cetirizine 10mg", Category: "antihistamine", DosageForm: strptr("tablet"), Price: 0.90, MinStock: 40, MaxStock: 400}, 250},
		{catalog.Medication{Name: "Omeprazole 20mg", Category: "antacid", DosageForm: strptr("capsule"), Price: 3.10, MinStock: 40, MaxStock: 400}, 180},
		{catalog.Medication{Name: "Salbutamol Inhaler", Category: "bronchodilator", DosageForm: strptr("inhaler"), Price: 12.00, MinStock: 20, MaxStock: 150, PrescriptionRequired: true}, 60},
		{catalog.Medication{Name: "ORS Sachet", Category: "rehydration", DosageForm: strptr("powder"), Price: 0.40, MinStock: 200, MaxStock: 3000}, 1500},
		{catalog.Medication{Name: "Ibuprofen 400mg", Category: "analgesic", DosageForm: strptr("tablet"), Price: 1.60, MinStock: 80, MaxStock: 1000}, 500},
	}

	created := 0
	for _, e := range entries {
		existing, _, err := repo.Search(ctx, map[string]string{"name": e.med.Name}, 1, 0)
		if err != nil {
			return created, err
		}
		if len(existing) > 0 {
			continue
		}

		m := e.med
		m.Active = true
		if err := repo.Create(ctx, &m); err != nil {
			return created, err
		}
		if _, err := ledger.AddStock(ctx, inventory.MovementInput{
			MedicationID: m.ID,
			PharmacyID:   &pharmacyID,
			Quantity:     e.stock,
			Reference:    strptr("opening stock"),
		}, adminID); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
