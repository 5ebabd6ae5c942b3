package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"reelcraft/internal/credits"
	"reelcraft/internal/domain"
	"reelcraft/internal/middleware"
	"reelcraft/internal/pipeline"
	"reelcraft/internal/storage"
)

// App carries the handlers' dependencies.
type App struct {
	Jobs          domain.JobRepository
	Ledger        *credits.Ledger
	Store         storage.Gateway
	Queue         *pipeline.AdmissionQueue
	Validate      *validator.Validate
	Logger        zerolog.Logger
	CreditsPerJob int
}

func NewApp(jobs domain.JobRepository, ledger *credits.Ledger, store storage.Gateway, queue *pipeline.AdmissionQueue, logger zerolog.Logger, creditsPerJob int) *App {
	return &App{
		Jobs:          jobs,
		Ledger:        ledger,
		Store:         store,
		Queue:         queue,
		Validate:      validator.New(),
		Logger:        logger,
		CreditsPerJob: creditsPerJob,
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, errorResponse{Error: kind, Message: message})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

// decodeAndValidate decodes a JSON body into v and runs struct
// validation. A false return means the response was already written.
func (a *App) decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return false
	}
	if err := a.Validate.Struct(v); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return false
	}
	return true
}
