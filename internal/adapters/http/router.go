package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mi-xalis/power-scouter/internal/application"
	"github.com/mi-xalis/power-scouter/internal/domain"
)

const sessionCookieName = "ps_session"

type contextKey string

const identityKey contextKey = "identity"

type Handler struct {
	service *application.WorkoutService
}

func NewRouter(service *application.WorkoutService) http.Handler {
	h := &Handler{service: service}
	r := chi.NewRouter()

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/register", h.handleRegister)
		api.Post("/auth/login", h.handleLogin)
		api.With(h.requireAuth).Get("/auth/whoami", h.handleWhoAmI)
		api.With(h.requireAuth).Post("/auth/logout", h.handleLogout)

		api.With(h.requireAuth).Get("/profile", h.handleGetProfile)
		api.With(h.requireAuth).Put("/profile", h.handleUpdateProfile)

		api.With(h.requireAuth).Get("/categories", h.handleListCategories)
		api.With(h.requireAuth).Post("/categories", h.handleAddCategory)

		api.With(h.requireAuth).Get("/exercises", h.handleListExercises)
		api.With(h.requireAdmin).Post("/exercises", h.handleCreateExercise)

		api.With(h.requireAuth).Get("/sessions", h.handleListSessions)
		api.With(h.requireAuth).Post("/sessions", h.handleCreateSession)
		api.With(h.requireAuth).Get("/sessions/{id}", h.handleGetSession)
		api.With(h.requireAuth).Delete("/sessions/{id}", h.handleDeleteSession)

		api.With(h.requireAuth).Post("/logbook/select", h.handleLogbookSelect)
		api.With(h.requireAuth).Post("/logbook/sets", h.handleLogbookAddSet)
		api.With(h.requireAuth).Post("/logbook/duplicate-last", h.handleLogbookDuplicateLast)
		api.With(h.requireAuth).Post("/logbook/clear", h.handleLogbookClear)
		api.With(h.requireAuth).Get("/logbook", h.handleLogbookShow)
		api.With(h.requireAuth).Post("/logbook/save", h.handleLogbookSave)

		api.With(h.requireAuth).Get("/reports/exercise/{id}", h.handleExerciseReport)
		api.With(h.requireAuth).Get("/reports/session/{id}", h.handleSessionReport)

		api.With(h.requireAuth).Delete("/sets", h.handleDeleteSets)
	})

	return r
}

// --- auth ---

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Mode     string `json:"mode"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	u, err := h.service.CreateAccount(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user_id": u.ID, "username": u.Username})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}

	u, token, err := h.service.LoginWithSession(r.Context(), req.Username, req.Password, 12*time.Hour)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid credentials"})
		return
	}

	if strings.ToLower(strings.TrimSpace(req.Mode)) == "session" {
		h.setSessionCookie(w, token)
		writeJSON(w, http.StatusOK, map[string]any{"user_id": u.ID, "username": u.Username, "mode": "session"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user_id": u.ID, "username": u.Username, "token": token, "mode": "token"})
}

func (h *Handler) handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":       identity.User.ID,
		"username": identity.User.Username,
		"is_admin": identity.User.IsAdmin,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		_ = h.service.Logout(r.Context(), strings.TrimSpace(authHeader[7:]))
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}
	c, err := r.Cookie(sessionCookieName)
	if err == nil && c.Value != "" {
		_ = h.service.Logout(r.Context(), c.Value)
		h.clearSessionCookie(w)
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// --- profile ---

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())
	profile, err := h.service.GetProfile(r.Context(), identity.User.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

type updateProfileRequest struct {
	Age      *int     `json:"age"`
	WeightKg *float64 `json:"weight_kg"`
	HeightCm *float64 `json:"height_cm"`
	Gender   *string  `json:"gender"`
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())
	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	profile := domain.Profile{
		Age:      req.Age,
		WeightKg: req.WeightKg,
		HeightCm: req.HeightCm,
		Gender:   req.Gender,
	}
	if err := h.service.UpdateProfile(r.Context(), identity.User.ID, profile); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// --- categories ---

func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListCategories(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type addCategoryRequest struct {
	Name string `json:"name"`
}

func (h *Handler) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req addCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	v, err := h.service.AddCategory(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// --- exercises ---

func (h *Handler) handleListExercises(w http.ResponseWriter, r *http.Request) {
	filter := domain.ExerciseFilter{NameQuery: r.URL.Query().Get("q")}
	for _, raw := range r.URL.Query()["category_id"] {
		parsed, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid category_id"})
			return
		}
		filter.CategoryIDs = append(filter.CategoryIDs, uint(parsed))
	}
	items, err := h.service.ListExercises(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type createExerciseRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	CategoryIDs []uint `json:"category_ids"`
}

func (h *Handler) handleCreateExercise(w http.ResponseWriter, r *http.Request) {
	var req createExerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	v, err := h.service.CreateExercise(r.Context(), req.Name, req.Description, req.CategoryIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// --- sessions ---

func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())
	items, err := h.service.ListSessions(r.Context(), identity.User.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type createSessionRequest struct {
	Name  string `json:"name"`
	Date  string `json:"date"`
	Notes string `json:"notes"`
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	v, err := h.service.CreateSession(r.Context(), identity.User.ID, req.Name, req.Date, req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	v, err := h.service.GetSession(r.Context(), identity.User.ID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	if err := h.service.DeleteSession(r.Context(), identity.User.ID, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// --- logbook ---

type logbookSelectRequest struct {
	SessionID uint `json:"session_id"`
}

func (h *Handler) handleLogbookSelect(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())
	var req logbookSelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	v, err := h.service.SelectSession(r.Context(), identity.User.ID, req.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type logbookSetRequest struct {
	ExerciseID uint    `json:"exercise_id"`
	Bodyweight bool    `json:"bodyweight"`
	Weight     float64 `json:"weight"`
	Reps       int     `json:"reps"`
	RPE        int     `json:"rpe"`
}

func (h *Handler) handleLogbookAddSet(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())
	var req logbookSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	entry, err := h.service.AddSet(r.Context(), identity.User.ID, req.ExerciseID, application.SetInput{
		Bodyweight: req.Bodyweight,
		Weight:     req.Weight,
		Reps:       req.Reps,
		RPE:        req.RPE,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

type logbookExerciseRequest struct {
	ExerciseID uint `json:"exercise_id"`
}

func (h *Handler) handleLogbookDuplicateLast(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())
	var req logbookExerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	entry, err := h.service.DuplicateLastSet(identity.User.ID, req.ExerciseID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) handleLogbookClear(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())
	var req logbookExerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	h.service.ClearSets(identity.User.ID, req.ExerciseID)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) handleLogbookShow(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())
	view, err := h.service.Buffered(r.Context(), identity.User.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) handleLogbookSave(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())
	saved, err := h.service.SaveWorkout(r.Context(), identity.User.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"saved_sets": saved})
}

// --- reports ---

func (h *Handler) handleExerciseReport(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	report, err := h.service.ExerciseReport(r.Context(), identity.User.ID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) handleSessionReport(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	report, err := h.service.SessionReport(r.Context(), identity.User.ID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// --- sets ---

type deleteSetsRequest struct {
	IDs []uint `json:"ids"`
}

func (h *Handler) handleDeleteSets(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())
	var req deleteSetsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	if err := h.service.DeleteSets(r.Context(), identity.User.ID, req.IDs); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// --- middleware and helpers ---

func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := h.authenticateRequest(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, identity)))
	})
}

func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := h.authenticateRequest(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
			return
		}
		if !identity.User.IsAdmin {
			writeJSON(w, http.StatusForbidden, map[string]any{"error": "forbidden"})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, identity)))
	})
}

func (h *Handler) authenticateRequest(r *http.Request) (domain.Identity, bool) {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		token := strings.TrimSpace(authHeader[7:])
		identity, err := h.service.AuthenticateToken(r.Context(), token)
		if err == nil {
			return identity, true
		}
	}

	c, err := r.Cookie(sessionCookieName)
	if err == nil && strings.TrimSpace(c.Value) != "" {
		identity, authErr := h.service.AuthenticateToken(r.Context(), c.Value)
		if authErr == nil {
			return identity, true
		}
	}

	return domain.Identity{}, false
}

func identityFromContext(ctx context.Context) (domain.Identity, bool) {
	value := ctx.Value(identityKey)
	if value == nil {
		return domain.Identity{}, false
	}
	identity, ok := value.(domain.Identity)
	return identity, ok
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   false,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}

func pathID(r *http.Request) (uint, error) {
	raw := chi.URLParam(r, "id")
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, errors.New("id must be an integer")
	}
	return uint(parsed), nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{"error": err.Error()})
	case errors.Is(err, domain.ErrDuplicateName):
		writeJSON(w, http.StatusConflict, map[string]any{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidReps),
		errors.Is(err, domain.ErrInvalidRPE),
		errors.Is(err, domain.ErrNegativeWeight),
		errors.Is(err, domain.ErrMissingBodyweight),
		errors.Is(err, domain.ErrEmptyLogbook),
		errors.Is(err, domain.ErrNoSessionSelected):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
	}
}
