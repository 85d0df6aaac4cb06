package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"socialgen/internal/batch"
	"socialgen/internal/domain"
	"socialgen/internal/middleware"
)

// App carries the handler dependencies: repositories for the CRUD surface
// and the batch engine for generation work.
type App struct {
	Logger    zerolog.Logger
	Users     domain.UserRepository
	Campaigns domain.CampaignRepository
	Engine    *batch.Engine
	JWTSecret string
	TokenTTL  time.Duration
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, codeStr, msg string) {
	a.json(w, code, map[string]errorBody{"error": {Code: codeStr, Message: msg}})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}
