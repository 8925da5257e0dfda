package identity

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/curex40/curex40/internal/platform/apperr"
	"github.com/curex40/curex40/internal/platform/auth"
)

// Service handles account registration, login and profile management.
// Passwords are stored as bcrypt hashes; login failures never reveal whether
// the email or the password was wrong.
type Service struct {
	repo     Repository
	secret   []byte
	tokenTTL time.Duration
	logger   zerolog.Logger
}

func NewService(repo Repository, secret []byte, tokenTTL time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		secret:   secret,
		tokenTTL: tokenTTL,
		logger:   logger.With().Str("component", "identity").Logger(),
	}
}

type RegisterInput struct {
	Email      string     `json:"email"`
	Password   string     `json:"password"`
	FullName   string     `json:"full_name"`
	Role       string     `json:"role"`
	Phone      *string    `json:"phone"`
	Address    *string    `json:"address"`
	PharmacyID *uuid.UUID `json:"pharmacy_id"`

	InsuranceProvider   *string `json:"insurance_provider"`
	InsuranceMemberID   *string `json:"insurance_member_id"`
	MedicalRecordNumber *string `json:"medical_record_number"`
}

// Register creates an account. Self-registration covers every role except
// admin, which only the seed path creates.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return nil, apperr.Validation("a valid email is required")
	}
	if len(in.Password) < 8 {
		return nil, apperr.Validation("password must be at least 8 characters")
	}
	if in.FullName == "" {
		return nil, apperr.Validation("full_name is required")
	}
	if in.Role == "" {
		in.Role = auth.RolePatient
	}
	if !auth.ValidRole(in.Role) || in.Role == auth.RoleAdmin {
		return nil, apperr.Validation("invalid role %q", in.Role)
	}
	if in.Role == auth.RolePharmacist && in.PharmacyID == nil {
		return nil, apperr.Validation("pharmacist accounts require a pharmacy_id")
	}

	if _, err := s.repo.GetByEmail(ctx, in.Email); err == nil {
		return nil, apperr.Conflict("an account with this email already exists")
	} else if apperr.KindOf(err) != apperr.KindNotFound {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &User{
		Email:               in.Email,
		PasswordHash:        string(hash),
		FullName:            in.FullName,
		Role:                in.Role,
		Phone:               in.Phone,
		Address:             in.Address,
		PharmacyID:          in.PharmacyID,
		InsuranceProvider:   in.InsuranceProvider,
		InsuranceMemberID:   in.InsuranceMemberID,
		MedicalRecordNumber: in.MedicalRecordNumber,
		Active:              true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", u.ID.String()).Str("role", u.Role).Msg("user registered")
	return u, nil
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult carries the session token alongside the account.
type LoginResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	u, err := s.repo.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(in.Email)))
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.Authorization("invalid email or password")
		}
		return nil, err
	}
	if !u.Active {
		return nil, apperr.Authorization("account is disabled")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		return nil, apperr.Authorization("invalid email or password")
	}

	token, err := auth.IssueToken(s.secret, u.ID, u.Role, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", u.ID.String()).Msg("user logged in")
	return &LoginResult{Token: token, User: u}, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

type ProfileInput struct {
	FullName string  `json:"full_name"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`

	InsuranceProvider   *string `json:"insurance_provider"`
	InsuranceMemberID   *string `json:"insurance_member_id"`
	MedicalRecordNumber *string `json:"medical_record_number"`
}

func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, in ProfileInput) (*User, error) {
	if in.FullName == "" {
		return nil, apperr.Validation("full_name is required")
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.FullName = in.FullName
	u.Phone = in.Phone
	u.Address = in.Address
	u.InsuranceProvider = in.InsuranceProvider
	u.InsuranceMemberID = in.InsuranceMemberID
	u.MedicalRecordNumber = in.MedicalRecordNumber
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

type PasswordInput struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (s *Service) ChangePassword(ctx context.Context, id uuid.UUID, in PasswordInput) error {
	if len(in.NewPassword) < 8 {
		return apperr.Validation("password must be at least 8 characters")
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.CurrentPassword)); err != nil {
		return apperr.Authorization("current password is incorrect")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return s.repo.Update(ctx, u)
}

func (s *Service) List(ctx context.Context, role string, limit, offset int) ([]*User, int, error) {
	return s.repo.List(ctx, role, limit, offset)
}
