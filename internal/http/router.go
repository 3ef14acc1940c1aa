package httpx

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/talnw1123/TrendReversal-Backend/internal/domain"
	"github.com/talnw1123/TrendReversal-Backend/internal/repository"
	"github.com/talnw1123/TrendReversal-Backend/internal/service/asset"
	"github.com/talnw1123/TrendReversal-Backend/internal/service/auth"
	"github.com/talnw1123/TrendReversal-Backend/internal/service/notification"
	"github.com/talnw1123/TrendReversal-Backend/internal/service/prediction"
	"github.com/talnw1123/TrendReversal-Backend/internal/service/user"
	"github.com/talnw1123/TrendReversal-Backend/internal/ws"
	jwtpkg "github.com/talnw1123/TrendReversal-Backend/pkg/jwt"
)

// Router wires HTTP endpoints to services.
type Router struct {
	mux           *http.ServeMux
	logger        *slog.Logger
	auth          auth.Service
	users         user.Service
	assets        asset.Service
	predictions   prediction.Service
	notifications notification.Service
	hub           *ws.Hub
	upgrader      websocket.Upgrader
	dbHealth      func(context.Context) error

	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	predictionCalls    *prometheus.CounterVec
}

const (
	healthCheckTimeout = 2 * time.Second
	sseHeartbeat       = 25 * time.Second
)

// NewRouter assembles routes with dependencies.
func NewRouter(logger *slog.Logger, authSvc auth.Service, userSvc user.Service, assetSvc asset.Service, predictionSvc prediction.Service, notificationSvc notification.Service, hub *ws.Hub, dbHealth func(context.Context) error) *Router {
	r := &Router{
		mux:           http.NewServeMux(),
		logger:        logger,
		auth:          authSvc,
		users:         userSvc,
		assets:        assetSvc,
		predictions:   predictionSvc,
		notifications: notificationSvc,
		hub:           hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		dbHealth: dbHealth,
	}
	r.initMetrics()
	r.register()
	return r
}

// ServeHTTP delegates to underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) register() {
	r.mux.HandleFunc("/healthz", r.audit("/healthz", r.handleHealthz))
	r.mux.Handle("/metrics", promhttp.Handler())
	r.mux.HandleFunc("/auth/register", r.audit("/auth/register", r.handleRegister))
	r.mux.HandleFunc("/auth/login", r.audit("/auth/login", r.handleLogin))
	r.mux.HandleFunc("/auth/google/callback", r.audit("/auth/google/callback", r.handleGoogleCallback))
	r.mux.HandleFunc("/auth/refresh", r.audit("/auth/refresh", r.handleRefresh))
	r.mux.HandleFunc("/users/me", r.audit("/users/me", r.requireAuth(r.handleMe)))
	r.mux.HandleFunc("/users/me/", r.audit("/users/me/", r.requireAuth(r.handleMeSubroutes)))
	r.mux.HandleFunc("/assets", r.audit("/assets", r.handleAssets))
	r.mux.HandleFunc("/assets/", r.audit("/assets/", r.handleAssetSubroutes))
	r.mux.HandleFunc("/predictions", r.audit("/predictions", r.requireAuth(r.handlePredict)))
	r.mux.HandleFunc("/predictions/reversal-points", r.audit("/predictions/reversal-points", r.requireAuth(r.handleReversalPoints)))
	r.mux.HandleFunc("/predictions/health", r.audit("/predictions/health", r.handlePredictionHealth))
	r.mux.HandleFunc("/notifications", r.audit("/notifications", r.requireAuth(r.handleNotifications)))
	r.mux.HandleFunc("/notifications/read-all", r.audit("/notifications/read-all", r.requireAuth(r.handleNotificationsReadAll)))
	r.mux.HandleFunc("/notifications/devices", r.audit("/notifications/devices", r.requireAuth(r.handleDevices)))
	r.mux.HandleFunc("/notifications/stream", r.audit("/notifications/stream", r.requireAuth(r.handleNotificationsSSE)))
	r.mux.HandleFunc("/notifications/", r.audit("/notifications/", r.requireAuth(r.handleNotificationSubroutes)))
	r.mux.HandleFunc("/ws/notifications", r.audit("/ws/notifications", r.requireAuth(r.handleNotificationsWS)))
}

func (r *Router) handleRegister(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	session, err := r.auth.Register(req.Context(), payload.Email, payload.Password, payload.Name)
	if err != nil {
		r.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	session, err := r.auth.Login(req.Context(), payload.Email, payload.Password)
	if err != nil {
		r.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (r *Router) handleGoogleCallback(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload auth.GoogleIdentity
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	session, err := r.auth.GoogleLogin(req.Context(), payload)
	if err != nil {
		r.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (r *Router) handleRefresh(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	accessToken, err := r.auth.Refresh(req.Context(), payload.RefreshToken)
	if err != nil {
		r.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": accessToken})
}

func (r *Router) handleMe(w http.ResponseWriter, req *http.Request) {
	info, ok := authInfoFromContext(req.Context())
	if !ok {
		r.missingAuthContext(w, req)
		return
	}
	switch req.Method {
	case http.MethodGet:
		u, err := r.users.GetByID(req.Context(), info.UserID)
		if err != nil {
			r.serviceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	case http.MethodPatch:
		var payload user.ProfileUpdate
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		u, err := r.users.UpdateProfile(req.Context(), info.UserID, payload)
		if err != nil {
			r.serviceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleMeSubroutes(w http.ResponseWriter, req *http.Request) {
	info, ok := authInfoFromContext(req.Context())
	if !ok {
		r.missingAuthContext(w, req)
		return
	}
	trimmed := strings.TrimPrefix(req.URL.Path, "/users/me/")
	parts := strings.Split(trimmed, "/")
	switch {
	case len(parts) == 1 && parts[0] == "preferences":
		r.handlePreferences(w, req, info.UserID)
	case len(parts) == 2 && parts[0] == "favorites" && parts[1] != "":
		r.handleFavorite(w, req, info.UserID, parts[1])
	default:
		r.notFound(w)
	}
}

func (r *Router) handlePreferences(w http.ResponseWriter, req *http.Request, userID string) {
	if req.Method != http.MethodPut {
		r.methodNotAllowed(w)
		return
	}
	var payload domain.PreferencesUpdate
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	u, err := r.users.UpdatePreferences(req.Context(), userID, payload)
	if err != nil {
		r.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (r *Router) handleFavorite(w http.ResponseWriter, req *http.Request, userID, symbol string) {
	var (
		u   *domain.User
		err error
	)
	switch req.Method {
	case http.MethodPost:
		u, err = r.users.AddFavorite(req.Context(), userID, symbol)
	case http.MethodDelete:
		u, err = r.users.RemoveFavorite(req.Context(), userID, symbol)
	default:
		r.methodNotAllowed(w)
		return
	}
	if err != nil {
		r.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (r *Router) handleAssets(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodGet:
		query := domain.AssetQuery{
			Type:   req.URL.Query().Get("type"),
			Search: req.URL.Query().Get("search"),
		}
		query.Page, _ = strconv.Atoi(req.URL.Query().Get("page"))
		query.Limit, _ = strconv.Atoi(req.URL.Query().Get("limit"))
		page, err := r.assets.List(req.Context(), query)
		if err != nil {
			r.serviceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	case http.MethodPost:
		r.requireAuth(r.handleAssetCreate)(w, req)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleAssetCreate(w http.ResponseWriter, req *http.Request) {
	var payload asset.CreateInput
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	created, err := r.assets.Create(req.Context(), payload)
	if err != nil {
		r.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (r *Router) handleAssetSubroutes(w http.ResponseWriter, req *http.Request) {
	trimmed := strings.TrimPrefix(req.URL.Path, "/assets/")
	parts := strings.Split(trimmed, "/")
	if len(parts) < 1 || parts[0] == "" {
		r.notFound(w)
		return
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	switch {
	case len(parts) == 1 && parts[0] == "trending":
		r.handleAssetBoard(w, req, func(ctx context.Context) ([]domain.Asset, error) {
			return r.assets.Trending(ctx, limit)
		})
	case len(parts) == 1 && parts[0] == "gainers":
		r.handleAssetBoard(w, req, func(ctx context.Context) ([]domain.Asset, error) {
			return r.assets.TopGainers(ctx, limit)
		})
	case len(parts) == 1 && parts[0] == "losers":
		r.handleAssetBoard(w, req, func(ctx context.Context) ([]domain.Asset, error) {
			return r.assets.TopLosers(ctx, limit)
		})
	case len(parts) == 1:
		r.handleAssetBySymbol(w, req, parts[0])
	case len(parts) == 2 && parts[1] == "price":
		r.handleAssetPrice(w, req, parts[0])
	default:
		r.notFound(w)
	}
}

func (r *Router) handleAssetBoard(w http.ResponseWriter, req *http.Request, fetch func(context.Context) ([]domain.Asset, error)) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	assets, err := fetch(req.Context())
	if err != nil {
		r.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assets)
}

func (r *Router) handleAssetBySymbol(w http.ResponseWriter, req *http.Request, symbol string) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	found, err := r.assets.GetBySymbol(req.Context(), symbol)
	if err != nil {
		r.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, found)
}

func (r *Router) handleAssetPrice(w http.ResponseWriter, req *http.Request, symbol string) {
	if req.Method != http.MethodPut {
		r.methodNotAllowed(w)
		return
	}
	r.requireAuth(func(w http.ResponseWriter, req *http.Request) {
		var payload domain.PriceUpdate
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		updated, err := r.assets.UpdatePrice(req.Context(), symbol, payload)
		if err != nil {
			r.serviceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	})(w, req)
}

func (r *Router) handlePredict(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload domain.PredictionRequest
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	resp, err := r.predictions.Predict(req.Context(), payload)
	if err != nil {
		r.recordPredictionOutcome("error")
		r.serviceError(w, err)
		return
	}
	r.recordPredictionOutcome("ok")
	writeJSON(w, http.StatusOK, resp)
}

func (r *Router) handleReversalPoints(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	symbols := strings.Split(req.URL.Query().Get("symbols"), ",")
	timeframe := req.URL.Query().Get("timeframe")
	batch, err := r.predictions.BatchReversalPoints(req.Context(), symbols, timeframe)
	if err != nil {
		r.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

func (r *Router) handlePredictionHealth(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
	defer cancel()
	if err := r.predictions.Health(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "down", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "up"})
}

func (r *Router) handleNotifications(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	info, ok := authInfoFromContext(req.Context())
	if !ok {
		r.missingAuthContext(w, req)
		return
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(req.URL.Query().Get("offset"))
	page, err := r.notifications.List(req.Context(), info.UserID, limit, offset)
	if err != nil {
		r.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (r *Router) handleNotificationSubroutes(w http.ResponseWriter, req *http.Request) {
	info, ok := authInfoFromContext(req.Context())
	if !ok {
		r.missingAuthContext(w, req)
		return
	}
	trimmed := strings.TrimPrefix(req.URL.Path, "/notifications/")
	parts := strings.Split(trimmed, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "read" {
		r.notFound(w)
		return
	}
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	if err := r.notifications.MarkRead(req.Context(), parts[0], info.UserID); err != nil {
		r.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "read"})
}

func (r *Router) handleNotificationsReadAll(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	info, ok := authInfoFromContext(req.Context())
	if !ok {
		r.missingAuthContext(w, req)
		return
	}
	if err := r.notifications.MarkAllRead(req.Context(), info.UserID); err != nil {
		r.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "read"})
}

func (r *Router) handleDevices(w http.ResponseWriter, req *http.Request) {
	info, ok := authInfoFromContext(req.Context())
	if !ok {
		r.missingAuthContext(w, req)
		return
	}
	switch req.Method {
	case http.MethodPost:
		var payload struct {
			Token      string `json:"token"`
			Platform   string `json:"platform"`
			DeviceName string `json:"deviceName"`
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		device, err := r.notifications.RegisterDevice(req.Context(), info.UserID, payload.Token, payload.Platform, payload.DeviceName)
		if err != nil {
			r.serviceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, device)
	case http.MethodDelete:
		var payload struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if err := r.notifications.UnregisterDevice(req.Context(), info.UserID, payload.Token); err != nil {
			r.serviceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
	case http.MethodGet:
		devices, err := r.notifications.Devices(req.Context(), info.UserID)
		if err != nil {
			r.serviceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, devices)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleNotificationsWS(w http.ResponseWriter, req *http.Request) {
	info, ok := authInfoFromContext(req.Context())
	if !ok {
		r.missingAuthContext(w, req)
		return
	}
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	client := ws.NewClient(conn, r.logger)
	r.hub.Register(info.UserID, client)
	go func() {
		defer func() {
			r.hub.Unregister(info.UserID, client)
			client.Close()
		}()
		client.WaitClosed()
	}()
}

// handleNotificationsSSE is the streaming fallback for clients that cannot
// hold a websocket.
func (r *Router) handleNotificationsSSE(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	info, ok := authInfoFromContext(req.Context())
	if !ok {
		r.missingAuthContext(w, req)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	client := ws.NewSSEClient(w, flusher, r.logger)
	r.hub.Register(info.UserID, client)
	defer func() {
		r.hub.Unregister(info.UserID, client)
		client.Close()
	}()

	ticker := time.NewTicker(sseHeartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-req.Context().Done():
			return
		case <-ticker.C:
			if err := client.Heartbeat(); err != nil {
				return
			}
		}
	}
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	components := make(map[string]any)
	status := "ok"
	if r.dbHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.dbHealth(ctx); err != nil {
			status = "degraded"
			components["database"] = map[string]any{
				"status": "down",
				"error":  err.Error(),
			}
		} else {
			components["database"] = map[string]any{"status": "up"}
		}
	}
	payload := map[string]any{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, payload)
}

// serviceError maps service sentinels to HTTP statuses.
func (r *Router) serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrEmailTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, jwtpkg.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, repository.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrInvalidInput),
		errors.Is(err, asset.ErrInvalidInput),
		errors.Is(err, prediction.ErrInvalidInput),
		errors.Is(err, notification.ErrInvalidInput),
		errors.Is(err, repository.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, prediction.ErrUpstream):
		writeError(w, http.StatusBadGateway, "prediction service unavailable")
	default:
		r.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (r *Router) missingAuthContext(w http.ResponseWriter, req *http.Request) {
	r.logger.Error("auth context missing", "path", req.URL.Path)
	writeError(w, http.StatusInternalServerError, "authorization context missing")
}

func (r *Router) audit(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		ctx := recorder.ctx
		if ctx == nil {
			ctx = req.Context()
		}
		duration := time.Since(start)
		r.recordRequestMetrics(req.Method, route, status, duration)
		actor := "anonymous"
		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}
		if reqID := strings.TrimSpace(req.Header.Get("X-Request-ID")); reqID != "" {
			fields = append(fields, "request_id", reqID)
		}
		if info, ok := authInfoFromContext(ctx); ok {
			actor = "user"
			fields = append(fields, "user_id", info.UserID)
		}
		fields = append(fields, "actor", actor)

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	ctx    context.Context
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) SetContext(ctx context.Context) {
	sr.ctx = ctx
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := sr.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("hijacker not supported")
}

func clientIP(req *http.Request) string {
	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(req.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}

func (r *Router) methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func (r *Router) notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "not found")
}
