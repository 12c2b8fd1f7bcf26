package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Synoep/instahyre/internal/domain"
	"github.com/Synoep/instahyre/internal/security/auth"
)

type memUserRepo struct {
	byID    map[string]*domain.User
	byPhone map[string]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: map[string]*domain.User{}, byPhone: map[string]*domain.User{}}
}

func (m *memUserRepo) Create(_ context.Context, u *domain.User) error {
	if _, ok := m.byPhone[u.Phone]; ok {
		return domain.ErrDuplicate
	}
	if u.ID == "" {
		u.ID = "u-" + u.Phone
	}
	u.CreatedAt = time.Now()
	m.byID[u.ID] = u
	m.byPhone[u.Phone] = u
	return nil
}

func (m *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) GetByPhone(_ context.Context, phone string) (*domain.User, error) {
	if u, ok := m.byPhone[phone]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func newTestAuthService() *AuthService {
	return NewAuthService(newMemUserRepo(), auth.NewTokenManager("secret", "test"), nil)
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestAuthService()
	ctx := context.Background()

	// Register
	r, err := s.Register(ctx, "Alice", "9000000001", "password123")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if r.UserID == "" || r.Token == "" {
		t.Fatalf("expected user id and token")
	}

	// Duplicate phone
	if _, err := s.Register(ctx, "Alice Two", "9000000001", "password123"); !errors.Is(err, domain.ErrDuplicate) {
		t.Fatalf("expected duplicate phone error, got %v", err)
	}

	// Login ok
	lr, err := s.Login(ctx, "9000000001", "password123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if lr.Token == "" {
		t.Fatalf("expected token on login")
	}

	// Login wrong password
	if _, err := s.Login(ctx, "9000000001", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials error, got %v", err)
	}

	// Login unknown phone gets the same generic error
	if _, err := s.Login(ctx, "9999999999", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials error, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	s := newTestAuthService()
	ctx := context.Background()

	cases := []struct {
		name, phone, password, field string
	}{
		{"", "9000000002", "password123", "name"},
		{"Bob", "", "password123", "phone"},
		{"Bob", "9000000002", "short", "password"},
	}

	for _, c := range cases {
		_, err := s.Register(ctx, c.name, c.phone, c.password)
		var ve *domain.ValidationError
		if !errors.As(err, &ve) || ve.Field != c.field {
			t.Errorf("register(%q, %q): expected validation error on %q, got %v", c.name, c.phone, c.field, err)
		}
	}
}

func TestRegisterTrimsInputs(t *testing.T) {
	s := newTestAuthService()

	r, err := s.Register(context.Background(), "  Carol  ", " 9000000003 ", "password123")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if r.Name != "Carol" || r.Phone != "9000000003" {
		t.Errorf("expected trimmed fields, got %q / %q", r.Name, r.Phone)
	}
}
