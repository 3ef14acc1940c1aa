package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"log/slog"

	"github.com/talnw1123/TrendReversal-Backend/internal/domain"
	"github.com/talnw1123/TrendReversal-Backend/internal/repository"
	"github.com/talnw1123/TrendReversal-Backend/internal/service/asset"
	"github.com/talnw1123/TrendReversal-Backend/internal/service/auth"
	"github.com/talnw1123/TrendReversal-Backend/internal/service/notification"
	"github.com/talnw1123/TrendReversal-Backend/internal/service/prediction"
	"github.com/talnw1123/TrendReversal-Backend/internal/service/user"
	"github.com/talnw1123/TrendReversal-Backend/internal/ws"
	"github.com/talnw1123/TrendReversal-Backend/pkg/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() config.APIConfig {
	return config.APIConfig{
		JWTSecret:       "router-test-secret",
		AccessTokenTTL:  2 * time.Hour,
		RefreshTokenTTL: 4 * time.Hour,
	}
}

type userStore struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newUserStore() *userStore {
	return &userStore{users: make(map[string]*domain.User)}
}

func (s *userStore) CreateUser(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return repository.ErrConflict
		}
	}
	clone := *u
	s.users[u.ID] = &clone
	return nil
}

func (s *userStore) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *userStore) GetUserByGoogleID(_ context.Context, googleID string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.GoogleID == googleID {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *userStore) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *userStore) UpdateUser(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	clone := *u
	s.users[u.ID] = &clone
	return nil
}

type assetRepoStub struct {
	listResp  []domain.Asset
	listTotal int
	bySymbol  map[string]*domain.Asset
}

func (s *assetRepoStub) CreateAsset(context.Context, *domain.Asset) error { return nil }

func (s *assetRepoStub) ListAssets(context.Context, domain.AssetQuery) ([]domain.Asset, int, error) {
	return s.listResp, s.listTotal, nil
}

func (s *assetRepoStub) GetAssetBySymbol(_ context.Context, symbol string) (*domain.Asset, error) {
	if a, ok := s.bySymbol[symbol]; ok {
		return a, nil
	}
	return nil, repository.ErrNotFound
}

func (s *assetRepoStub) ListAssetsBySymbols(context.Context, []string) ([]domain.Asset, error) {
	return nil, nil
}

func (s *assetRepoStub) UpdateAssetPrice(context.Context, string, domain.PriceUpdate) (*domain.Asset, error) {
	return nil, repository.ErrNotFound
}

func (s *assetRepoStub) ListAssetsOrdered(context.Context, string, bool, int) ([]domain.Asset, error) {
	return s.listResp, nil
}

type notificationRepoStub struct {
	markReadErr error
}

func (s *notificationRepoStub) CreateNotification(context.Context, *domain.Notification) error {
	return nil
}

func (s *notificationRepoStub) ListNotificationsByUser(context.Context, string, int, int) ([]domain.Notification, int, error) {
	return nil, 0, nil
}

func (s *notificationRepoStub) MarkNotificationRead(context.Context, string, string) error {
	return s.markReadErr
}

func (s *notificationRepoStub) MarkAllNotificationsRead(context.Context, string) error {
	return nil
}

type deviceRepoStub struct{}

func (deviceRepoStub) UpsertDeviceToken(context.Context, *domain.DeviceToken) error { return nil }
func (deviceRepoStub) DeactivateDeviceToken(context.Context, string, string) error  { return nil }
func (deviceRepoStub) ListActiveDeviceTokens(context.Context, string) ([]domain.DeviceToken, error) {
	return nil, nil
}

type forecasterStub struct {
	predictErr error
}

func (s forecasterStub) Predict(_ context.Context, req domain.PredictionRequest) (*domain.PredictionResponse, error) {
	if s.predictErr != nil {
		return nil, s.predictErr
	}
	return &domain.PredictionResponse{Symbol: req.Symbol, Timeframe: req.Timeframe}, nil
}

func (s forecasterStub) Healthy(context.Context) error { return s.predictErr }

type routerFixture struct {
	router *Router
	users  *userStore
	marks  *notificationRepoStub
}

func setupRouter(t *testing.T) *routerFixture {
	t.Helper()
	logger := testLogger()
	cfg := testConfig()
	users := newUserStore()
	marks := &notificationRepoStub{}
	assetRepo := &assetRepoStub{
		listResp:  []domain.Asset{{Symbol: "BTC", Name: "Bitcoin", Type: domain.AssetTypeCrypto}},
		listTotal: 1,
		bySymbol: map[string]*domain.Asset{
			"BTC": {Symbol: "BTC", Name: "Bitcoin", Type: domain.AssetTypeCrypto},
		},
	}
	authSvc := auth.New(users, logger, cfg)
	userSvc := user.New(users, logger)
	assetSvc := asset.New(assetRepo, logger)
	predictionSvc := prediction.New(forecasterStub{}, nil, logger)
	notificationSvc := notification.New(marks, deviceRepoStub{}, nil, logger)
	router := NewRouter(logger, authSvc, userSvc, assetSvc, predictionSvc, notificationSvc, ws.NewHub(), nil)
	return &routerFixture{router: router, users: users, marks: marks}
}

func (f *routerFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func (f *routerFixture) registerUser(t *testing.T, email string) (string, string) {
	t.Helper()
	rr := f.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"email":    email,
		"password": "secret99",
		"name":     "Router Tester",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", rr.Code, rr.Body.String())
	}
	var session struct {
		Tokens struct {
			AccessToken  string `json:"accessToken"`
			RefreshToken string `json:"refreshToken"`
		} `json:"tokens"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return session.Tokens.AccessToken, session.Tokens.RefreshToken
}

func TestRegisterLoginAndMe(t *testing.T) {
	f := setupRouter(t)
	token, _ := f.registerUser(t, "me@example.com")

	rr := f.do(t, http.MethodGet, "/users/me", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("me status = %d, body %s", rr.Code, rr.Body.String())
	}
	var me domain.User
	if err := json.Unmarshal(rr.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me.Email != "me@example.com" {
		t.Fatalf("email = %q", me.Email)
	}

	rr = f.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "me@example.com",
		"password": "secret99",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rr.Code, rr.Body.String())
	}
}

func TestRegisterDuplicateReturnsConflict(t *testing.T) {
	f := setupRouter(t)
	f.registerUser(t, "dup@example.com")

	rr := f.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"email":    "dup@example.com",
		"password": "secret99",
		"name":     "Second Try",
	})
	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rr.Code)
	}
}

func TestLoginFailureBodyIsUniform(t *testing.T) {
	f := setupRouter(t)
	f.registerUser(t, "uniform@example.com")

	wrongPassword := f.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "uniform@example.com",
		"password": "wrong-pass",
	})
	unknownUser := f.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "nobody@example.com",
		"password": "wrong-pass",
	})
	if wrongPassword.Code != http.StatusUnauthorized || unknownUser.Code != http.StatusUnauthorized {
		t.Fatalf("statuses = %d, %d, want 401", wrongPassword.Code, unknownUser.Code)
	}
	if wrongPassword.Body.String() != unknownUser.Body.String() {
		t.Fatalf("bodies differ: %q vs %q", wrongPassword.Body.String(), unknownUser.Body.String())
	}
}

func TestRefreshFlow(t *testing.T) {
	f := setupRouter(t)
	access, refresh := f.registerUser(t, "refresh@example.com")

	rr := f.do(t, http.MethodPost, "/auth/refresh", "", map[string]string{"refreshToken": refresh})
	if rr.Code != http.StatusOK {
		t.Fatalf("refresh status = %d, body %s", rr.Code, rr.Body.String())
	}
	var out struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.AccessToken == "" {
		t.Fatalf("expected new access token")
	}

	rr = f.do(t, http.MethodPost, "/auth/refresh", "", map[string]string{"refreshToken": access})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("access token used for refresh: status = %d, want 401", rr.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	f := setupRouter(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/users/me"},
		{http.MethodPost, "/predictions"},
		{http.MethodGet, "/notifications"},
	}
	for _, p := range paths {
		rr := f.do(t, p.method, p.path, "", nil)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s status = %d, want 401", p.method, p.path, rr.Code)
		}
	}

	rr := f.do(t, http.MethodGet, "/users/me", "not-a-real-token", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token status = %d, want 401", rr.Code)
	}
}

func TestAssetListIsPublic(t *testing.T) {
	f := setupRouter(t)

	rr := f.do(t, http.MethodGet, "/assets?type=crypto", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var page domain.AssetPage
	if err := json.Unmarshal(rr.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Total != 1 || len(page.Data) != 1 || page.Data[0].Symbol != "BTC" {
		t.Fatalf("page = %+v", page)
	}
}

func TestAssetBySymbolNotFound(t *testing.T) {
	f := setupRouter(t)

	rr := f.do(t, http.MethodGet, "/assets/NOPE", "", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestPredictEndpoint(t *testing.T) {
	f := setupRouter(t)
	token, _ := f.registerUser(t, "predict@example.com")

	rr := f.do(t, http.MethodPost, "/predictions", token, map[string]any{
		"symbol":    "btc",
		"timeframe": "1h",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var resp domain.PredictionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Symbol != "BTC" {
		t.Fatalf("symbol = %q", resp.Symbol)
	}

	rr = f.do(t, http.MethodPost, "/predictions", token, map[string]any{
		"symbol":    "btc",
		"timeframe": "9h",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad timeframe status = %d, want 400", rr.Code)
	}
}

func TestMarkNotificationReadNotFound(t *testing.T) {
	f := setupRouter(t)
	token, _ := f.registerUser(t, "notify@example.com")
	f.marks.markReadErr = repository.ErrNotFound

	rr := f.do(t, http.MethodPost, "/notifications/missing-id/read", token, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestBearerToken(t *testing.T) {
	if _, err := bearerToken(""); err == nil {
		t.Fatal("expected error for empty header")
	}
	if _, err := bearerToken("Token abc"); err == nil {
		t.Fatal("expected error for non-bearer scheme")
	}
	token, err := bearerToken("bearer abc123")
	if err != nil || token != "abc123" {
		t.Fatalf("token = %q, err = %v", token, err)
	}
}
