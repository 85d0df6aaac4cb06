package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"socialgen/internal/domain"
	"socialgen/internal/middleware"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Register creates a new account.
func (a *App) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Username == "" || req.Email == "" || req.Password == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "username, email and password are required")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to hash password")
		return
	}
	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
	}
	if err := a.Users.Create(r.Context(), user); err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateUsername):
			a.Logger.Warn().Str("username", req.Username).Msg("username already registered")
			a.error(w, http.StatusBadRequest, "bad_request", "Username already registered")
		case errors.Is(err, domain.ErrDuplicateEmail):
			a.Logger.Warn().Str("email", req.Email).Msg("email already registered")
			a.error(w, http.StatusBadRequest, "bad_request", "Email already registered")
		default:
			a.Logger.Error().Err(err).Msg("register user")
			a.error(w, http.StatusInternalServerError, "internal", "failed to register user")
		}
		return
	}
	a.Logger.Info().Str("username", user.Username).Str("email", user.Email).Msg("user registered")
	a.json(w, http.StatusCreated, userResponse{ID: user.ID, Username: user.Username, Email: user.Email})
}

// Login verifies credentials and issues an access token.
func (a *App) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	user, err := a.Users.GetByUsername(r.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusUnauthorized, "unauthorized", "Incorrect username or password")
			return
		}
		a.Logger.Error().Err(err).Msg("load user for login")
		a.error(w, http.StatusInternalServerError, "internal", "failed to log in")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		a.error(w, http.StatusUnauthorized, "unauthorized", "Incorrect username or password")
		return
	}
	token, err := middleware.SignToken(a.JWTSecret, user.Username, user.ID, a.TokenTTL)
	if err != nil {
		a.Logger.Error().Err(err).Msg("sign access token")
		a.error(w, http.StatusInternalServerError, "internal", "failed to sign token")
		return
	}
	a.json(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}
