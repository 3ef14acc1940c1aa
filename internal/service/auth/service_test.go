package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/talnw1123/TrendReversal-Backend/internal/domain"
	"github.com/talnw1123/TrendReversal-Backend/internal/repository"
	"github.com/talnw1123/TrendReversal-Backend/pkg/config"
	jwtpkg "github.com/talnw1123/TrendReversal-Backend/pkg/jwt"
)

func testConfig() config.APIConfig {
	return config.APIConfig{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	}
}

func TestRegisterThenLogin(t *testing.T) {
	store := newMemoryUsers()
	svc := New(store, newLogger(), testConfig())

	registered, err := svc.Register(context.Background(), "a@x.com", "secret1", "Ann")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if registered.User.Email != "a@x.com" {
		t.Fatalf("unexpected email: %q", registered.User.Email)
	}
	if registered.Tokens.AccessToken == "" || registered.Tokens.RefreshToken == "" {
		t.Fatalf("expected both tokens to be issued")
	}

	session, err := svc.Login(context.Background(), "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := jwtpkg.Parse(session.Tokens.AccessToken, "test-secret")
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if claims.UserID != registered.User.ID {
		t.Fatalf("token subject %q does not match user %q", claims.UserID, registered.User.ID)
	}
	if claims.Email != "a@x.com" {
		t.Fatalf("unexpected token email: %q", claims.Email)
	}
	if claims.Kind != jwtpkg.KindAccess {
		t.Fatalf("unexpected token kind: %q", claims.Kind)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := newMemoryUsers()
	svc := New(store, newLogger(), testConfig())

	if _, err := svc.Register(context.Background(), "a@x.com", "secret1", "Ann"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(context.Background(), "a@x.com", "different", "Bob"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegisterConflictFromStore(t *testing.T) {
	// Concurrent registrations race on the unique constraint; the store-level
	// conflict must surface the same way as the pre-check.
	repo := userRepoMock{
		getByEmailFunc: func(context.Context, string) (*domain.User, error) {
			return nil, repository.ErrNotFound
		},
		createFunc: func(context.Context, *domain.User) error {
			return repository.ErrConflict
		},
	}
	svc := New(repo, newLogger(), testConfig())
	if _, err := svc.Register(context.Background(), "a@x.com", "secret1", "Ann"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := New(newMemoryUsers(), newLogger(), testConfig())
	cases := []struct {
		name     string
		email    string
		password string
		user     string
	}{
		{"missing email", "", "secret1", "Ann"},
		{"password too short", "a@x.com", "short", "Ann"},
		{"password too long", "a@x.com", string(make([]byte, 51)), "Ann"},
		{"name too short", "a@x.com", "secret1", "A"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(context.Background(), tc.email, tc.password, tc.user); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestLoginFailuresAreUniform(t *testing.T) {
	store := newMemoryUsers()
	svc := New(store, newLogger(), testConfig())
	if _, err := svc.Register(context.Background(), "a@x.com", "secret1", "Ann"); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, wrongPassword := svc.Login(context.Background(), "a@x.com", "wrong")
	_, missingUser := svc.Login(context.Background(), "nobody@x.com", "secret1")
	if !errors.Is(wrongPassword, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", wrongPassword)
	}
	if !errors.Is(missingUser, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for missing user, got %v", missingUser)
	}
}

func TestLoginRejectsPasswordlessAccount(t *testing.T) {
	repo := userRepoMock{
		getByEmailFunc: func(_ context.Context, email string) (*domain.User, error) {
			return &domain.User{ID: "u1", Email: email, GoogleID: "g1", IsActive: true}, nil
		},
	}
	svc := New(repo, newLogger(), testConfig())
	if _, err := svc.Login(context.Background(), "a@x.com", "anything"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestRefreshIssuesNewAccessToken(t *testing.T) {
	store := newMemoryUsers()
	svc := New(store, newLogger(), testConfig())
	session, err := svc.Register(context.Background(), "a@x.com", "secret1", "Ann")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	access, err := svc.Refresh(context.Background(), session.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	claims, err := jwtpkg.Parse(access, "test-secret")
	if err != nil {
		t.Fatalf("parse refreshed token: %v", err)
	}
	if claims.UserID != session.User.ID {
		t.Fatalf("unexpected subject: %q", claims.UserID)
	}
	if claims.Kind != jwtpkg.KindAccess {
		t.Fatalf("expected access kind, got %q", claims.Kind)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	store := newMemoryUsers()
	svc := New(store, newLogger(), testConfig())
	session, err := svc.Register(context.Background(), "a@x.com", "secret1", "Ann")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Refresh(context.Background(), session.Tokens.AccessToken); !errors.Is(err, jwtpkg.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for access-kind token, got %v", err)
	}
}

func TestRefreshUnknownSubject(t *testing.T) {
	repo := userRepoMock{
		getByIDFunc: func(context.Context, string) (*domain.User, error) {
			return nil, repository.ErrNotFound
		},
	}
	svc := New(repo, newLogger(), testConfig())
	token, err := jwtpkg.GenerateToken("gone", "gone@x.com", jwtpkg.KindRefresh, "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if _, err := svc.Refresh(context.Background(), token); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthorizeRejectsRefreshToken(t *testing.T) {
	store := newMemoryUsers()
	svc := New(store, newLogger(), testConfig())
	session, err := svc.Register(context.Background(), "a@x.com", "secret1", "Ann")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, _, err := svc.Authorize(context.Background(), session.Tokens.RefreshToken); !errors.Is(err, jwtpkg.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for refresh-kind token, got %v", err)
	}
	if _, _, err := svc.Authorize(context.Background(), session.Tokens.AccessToken); err != nil {
		t.Fatalf("authorize with access token: %v", err)
	}
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type userRepoMock struct {
	createFunc        func(context.Context, *domain.User) error
	getByEmailFunc    func(context.Context, string) (*domain.User, error)
	getByGoogleIDFunc func(context.Context, string) (*domain.User, error)
	getByIDFunc       func(context.Context, string) (*domain.User, error)
	updateFunc        func(context.Context, *domain.User) error
}

func (m userRepoMock) CreateUser(ctx context.Context, user *domain.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	return nil
}

func (m userRepoMock) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getByEmailFunc != nil {
		return m.getByEmailFunc(ctx, email)
	}
	return nil, repository.ErrNotFound
}

func (m userRepoMock) GetUserByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	if m.getByGoogleIDFunc != nil {
		return m.getByGoogleIDFunc(ctx, googleID)
	}
	return nil, repository.ErrNotFound
}

func (m userRepoMock) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (m userRepoMock) UpdateUser(ctx context.Context, user *domain.User) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, user)
	}
	return nil
}

// memoryUsers is an in-memory UserRepository for flow tests.
type memoryUsers struct {
	byID map[string]*domain.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byID: make(map[string]*domain.User)}
}

func (m *memoryUsers) CreateUser(_ context.Context, user *domain.User) error {
	for _, existing := range m.byID {
		if existing.Email == user.Email {
			return repository.ErrConflict
		}
		if user.GoogleID != "" && existing.GoogleID == user.GoogleID {
			return repository.ErrConflict
		}
	}
	clone := *user
	m.byID[user.ID] = &clone
	return nil
}

func (m *memoryUsers) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range m.byID {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memoryUsers) GetUserByGoogleID(_ context.Context, googleID string) (*domain.User, error) {
	for _, user := range m.byID {
		if user.GoogleID == googleID {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memoryUsers) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (m *memoryUsers) UpdateUser(_ context.Context, user *domain.User) error {
	if _, ok := m.byID[user.ID]; !ok {
		return repository.ErrNotFound
	}
	clone := *user
	m.byID[user.ID] = &clone
	return nil
}
