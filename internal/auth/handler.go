package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/2beens/gymtracker/internal/rowstore"
	"github.com/2beens/gymtracker/internal/telemetry/metrics"
	"github.com/2beens/gymtracker/internal/telemetry/tracing"
	"github.com/2beens/gymtracker/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=auth_test

type credentialsService interface {
	Authenticate(ctx context.Context, username, password string) (string, error)
	Register(ctx context.Context, username, password, confirm string) error
}

type tokenService interface {
	Login(ctx context.Context, username string, createdAt time.Time) (string, error)
	Logout(ctx context.Context, token string) (bool, error)
}

type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

type RegisterResponse struct {
	Username string `json:"username"`
}

type credentialsRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

type Handler struct {
	credentials    credentialsService
	tokens         tokenService
	metricsManager *metrics.Manager
	// called after a successful logout, drops state kept per token
	onLogout func(token string)
}

func NewHandler(
	credentials credentialsService,
	tokens tokenService,
	metricsManager *metrics.Manager,
	onLogout func(token string),
) *Handler {
	if onLogout == nil {
		onLogout = func(string) {}
	}
	return &Handler{
		credentials:    credentials,
		tokens:         tokens,
		metricsManager: metricsManager,
		onLogout:       onLogout,
	}
}

// SetupRoutes mounts /a/login, /a/register and /a/logout behind rateLimit.
func (handler *Handler) SetupRoutes(mainRouter *mux.Router, rateLimit mux.MiddlewareFunc) {
	loginSubrouter := mainRouter.PathPrefix("/a").Subrouter()
	loginSubrouter.
		HandleFunc("/login", handler.HandleLogin).
		Methods("POST", "OPTIONS").Name("login")
	loginSubrouter.
		HandleFunc("/register", handler.HandleRegister).
		Methods("POST", "OPTIONS").Name("register")
	loginSubrouter.
		HandleFunc("/logout", handler.HandleLogout).
		Methods("POST", "GET", "OPTIONS").Name("logout")

	// rate limit the login endpoints to prevent abuse
	if rateLimit != nil {
		loginSubrouter.Use(rateLimit)
	}
}

func readCredentialsRequest(r *http.Request) (credentialsRequest, error) {
	var req credentialsRequest
	if r.Header.Get("Content-Type") == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, err
		}
		return req, nil
	}

	if err := r.ParseForm(); err != nil {
		return req, err
	}
	return credentialsRequest{
		Username:        r.Form.Get("username"),
		Password:        r.Form.Get("password"),
		PasswordConfirm: r.Form.Get("passwordConfirm"),
	}, nil
}

func (handler *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "authHandler.login")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	loginReq, err := readCredentialsRequest(r)
	if err != nil {
		log.Errorf("login, read request: %s", err)
		http.Error(w, "login failed", http.StatusBadRequest)
		return
	}

	if loginReq.Username == "" {
		http.Error(w, "error, username empty", http.StatusBadRequest)
		return
	}
	if loginReq.Password == "" {
		http.Error(w, "error, password empty", http.StatusBadRequest)
		return
	}

	username, err := handler.credentials.Authenticate(ctx, loginReq.Username, loginReq.Password)
	if err != nil {
		handler.metricsManager.CounterLogins.WithLabelValues("failed").Inc()
		span.SetStatus(codes.Error, err.Error())
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			log.Tracef("failed login attempt for user: %s", loginReq.Username)
			http.Error(w, "error, wrong credentials", http.StatusUnauthorized)
		case errors.Is(err, rowstore.ErrConnection):
			log.Errorf("login, row store unavailable: %s", err)
			http.Error(w, "user store unavailable, try again later", http.StatusServiceUnavailable)
		default:
			log.Errorf("login failed: %s", err)
			http.Error(w, "login failed", http.StatusInternalServerError)
		}
		return
	}

	token, err := handler.tokens.Login(ctx, username, time.Now())
	if err != nil {
		log.Errorf("login failed, generate token error: %s", err)
		http.Error(w, "generate token error", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterLogins.WithLabelValues("ok").Inc()
	log.Tracef("new login success: %s", username)
	pkg.WriteJSON(w, LoginResponse{Token: token, Username: username}, http.StatusOK)
}

func (handler *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "authHandler.register")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	regReq, err := readCredentialsRequest(r)
	if err != nil {
		log.Errorf("register, read request: %s", err)
		http.Error(w, "register failed", http.StatusBadRequest)
		return
	}

	if err := handler.credentials.Register(ctx, regReq.Username, regReq.Password, regReq.PasswordConfirm); err != nil {
		span.SetStatus(codes.Error, err.Error())
		switch {
		case errors.Is(err, ErrInvalidInput):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrDuplicateUser):
			http.Error(w, "username already taken", http.StatusConflict)
		case errors.Is(err, rowstore.ErrConnection):
			log.Errorf("register, row store unavailable: %s", err)
			http.Error(w, "user store unavailable, try again later", http.StatusServiceUnavailable)
		default:
			log.Errorf("register failed: %s", err)
			http.Error(w, "register failed", http.StatusInternalServerError)
		}
		return
	}

	handler.metricsManager.CounterRegistrations.Inc()
	pkg.WriteJSON(w, RegisterResponse{Username: regReq.Username}, http.StatusCreated)
}

func (handler *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "authHandler.logout")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	authToken := r.Header.Get(TokenHeader)
	if authToken == "" {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	loggedOut, err := handler.tokens.Logout(ctx, authToken)
	if err != nil {
		log.Errorf("logout => %s: %s", r.URL.Path, err)
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}
	if !loggedOut {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	handler.onLogout(authToken)
	log.Trace("logout success")
	pkg.WriteTextResponseOK(w, "logged-out")
}
