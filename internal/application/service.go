package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mi-xalis/power-scouter/internal/domain"
)

// DefaultCategories is seeded into the store at startup. Seeding is an
// idempotent upsert keyed on the unique name.
var DefaultCategories = []string{"Legs", "Chest", "Core", "Back", "Shoulders", "Arms", "Full Body"}

type WorkoutService struct {
	repo domain.WorkoutRepository

	mu       sync.Mutex
	logbooks map[uint]*Logbook
}

func NewWorkoutService(repo domain.WorkoutRepository) *WorkoutService {
	return &WorkoutService{repo: repo, logbooks: make(map[uint]*Logbook)}
}

// logbook returns the caller's buffer, creating it on first use.
// The service owns every buffer; callers only ever see snapshots.
func (s *WorkoutService) logbook(userID uint) *Logbook {
	book, ok := s.logbooks[userID]
	if !ok {
		book = newLogbook()
		s.logbooks[userID] = book
	}
	return book
}

// --- accounts ---

func (s *WorkoutService) CreateAccount(ctx context.Context, username, password string) (domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.User{}, fmt.Errorf("%w: username and password are required", domain.ErrInvalidInput)
	}
	hash, err := hashPassword(password)
	if err != nil {
		return domain.User{}, err
	}
	return s.repo.CreateUser(ctx, domain.User{Username: username, PasswordHash: hash})
}

// Authenticate resolves credentials to a user. Unknown username and wrong
// password both come back as ErrInvalidCredentials.
func (s *WorkoutService) Authenticate(ctx context.Context, username, password string) (domain.User, error) {
	u, err := s.repo.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	if !verifyPassword(password, u.PasswordHash) {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	return u, nil
}

func (s *WorkoutService) LoginWithSession(ctx context.Context, username, password string, ttl time.Duration) (domain.User, string, error) {
	u, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return domain.User{}, "", err
	}

	plain, hash, err := newTokenPair()
	if err != nil {
		return domain.User{}, "", err
	}
	_, err = s.repo.CreateAuthSession(ctx, domain.AuthSession{
		UserID:    u.ID,
		TokenHash: hash,
		ExpiresAt: time.Now().UTC().Add(ttl),
	})
	if err != nil {
		return domain.User{}, "", err
	}
	return u, plain, nil
}

func (s *WorkoutService) AuthenticateToken(ctx context.Context, token string) (domain.Identity, error) {
	hash := hashToken(token)
	session, err := s.repo.GetAuthSessionByTokenHash(ctx, hash)
	if err != nil {
		return domain.Identity{}, errors.New("unauthorized")
	}
	if session.ExpiresAt.Before(time.Now().UTC()) {
		_ = s.repo.DeleteAuthSessionByTokenHash(ctx, hash)
		return domain.Identity{}, errors.New("session expired")
	}
	u, err := s.repo.GetUserByID(ctx, session.UserID)
	if err != nil {
		return domain.Identity{}, errors.New("unauthorized")
	}
	return domain.Identity{User: u}, nil
}

func (s *WorkoutService) Logout(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	return s.repo.DeleteAuthSessionByTokenHash(ctx, hashToken(token))
}

// BootstrapAdmin creates the initial admin account when the store has no
// users yet. A populated store is left untouched.
func (s *WorkoutService) BootstrapAdmin(ctx context.Context, username, password string) error {
	count, err := s.repo.CountUsers(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	_, err = s.repo.CreateUser(ctx, domain.User{Username: strings.TrimSpace(username), PasswordHash: hash, IsAdmin: true})
	return err
}

// --- profile ---

func (s *WorkoutService) GetProfile(ctx context.Context, userID uint) (domain.Profile, error) {
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return domain.Profile{}, err
	}
	return u.Profile, nil
}

func (s *WorkoutService) UpdateProfile(ctx context.Context, userID uint, profile domain.Profile) error {
	if profile.WeightKg != nil && *profile.WeightKg < 0 {
		return domain.ErrNegativeWeight
	}
	return s.repo.UpdateUserProfile(ctx, userID, profile)
}

// --- categories ---

func (s *WorkoutService) SeedDefaultCategories(ctx context.Context) error {
	for _, name := range DefaultCategories {
		if _, err := s.repo.CreateCategoryIfMissing(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

func (s *WorkoutService) AddCategory(ctx context.Context, name string) (domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Category{}, fmt.Errorf("%w: category name is required", domain.ErrInvalidInput)
	}
	return s.repo.CreateCategoryIfMissing(ctx, name)
}

func (s *WorkoutService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

// --- exercises ---

func (s *WorkoutService) CreateExercise(ctx context.Context, name, description string, categoryIDs []uint) (domain.Exercise, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Exercise{}, fmt.Errorf("%w: exercise name is required", domain.ErrInvalidInput)
	}
	return s.repo.CreateExercise(ctx, domain.Exercise{Name: name, Description: description}, categoryIDs)
}

func (s *WorkoutService) ListExercises(ctx context.Context, filter domain.ExerciseFilter) ([]domain.Exercise, error) {
	return s.repo.ListExercises(ctx, filter)
}

// --- sessions ---

func (s *WorkoutService) CreateSession(ctx context.Context, userID uint, name, date, notes string) (domain.Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Session{}, fmt.Errorf("%w: session name is required", domain.ErrInvalidInput)
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return domain.Session{}, fmt.Errorf("%w: date must be YYYY-MM-DD", domain.ErrInvalidInput)
	}
	return s.repo.CreateSession(ctx, domain.Session{UserID: userID, Name: name, Date: date, Notes: notes})
}

func (s *WorkoutService) ListSessions(ctx context.Context, userID uint) ([]domain.Session, error) {
	return s.repo.ListSessionsByUser(ctx, userID)
}

// GetSession resolves a session for its owner. Another user's session is
// indistinguishable from a missing one.
func (s *WorkoutService) GetSession(ctx context.Context, userID, id uint) (domain.Session, error) {
	session, err := s.repo.GetSessionByID(ctx, id)
	if err != nil {
		return domain.Session{}, err
	}
	if session.UserID != userID {
		return domain.Session{}, domain.ErrNotFound
	}
	return session, nil
}

// DeleteSession removes the caller's session and every set in it. The
// owner's buffer is discarded too when it was targeting the deleted session.
// Deleting an already-absent session is a no-op; deleting another user's
// session is refused.
func (s *WorkoutService) DeleteSession(ctx context.Context, userID, id uint) error {
	session, err := s.repo.GetSessionByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if session.UserID != userID {
		return domain.ErrNotFound
	}
	if err := s.repo.DeleteSession(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if book := s.logbook(userID); book.SessionID() == id {
		book.Select(0)
	}
	return nil
}

// --- logbook ---

// BufferedExercise is one exercise's slice of a logbook snapshot.
type BufferedExercise struct {
	ExerciseID   uint       `json:"exercise_id"`
	ExerciseName string     `json:"exercise_name"`
	Sets         []SetEntry `json:"sets"`
}

// LogbookView is a read-only snapshot of a user's buffer.
type LogbookView struct {
	SessionID uint               `json:"session_id"`
	Exercises []BufferedExercise `json:"exercises"`
}

// SelectSession points the user's logbook at one of the user's own
// sessions, discarding any buffered sets when the target differs from the
// current one. A zero id means "new session": creation is deferred until
// CreateSession.
func (s *WorkoutService) SelectSession(ctx context.Context, userID, sessionID uint) (domain.Session, error) {
	var session domain.Session
	if sessionID != 0 {
		var err error
		session, err = s.repo.GetSessionByID(ctx, sessionID)
		if err != nil {
			return domain.Session{}, err
		}
		if session.UserID != userID {
			return domain.Session{}, domain.ErrNotFound
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logbook(userID).Select(sessionID)
	return session, nil
}

// AddSet validates the input, resolves bodyweight resistance against the
// profile, and appends to the buffer. Storage is not touched.
func (s *WorkoutService) AddSet(ctx context.Context, userID, exerciseID uint, input SetInput) (SetEntry, error) {
	if input.Reps < 1 {
		return SetEntry{}, domain.ErrInvalidReps
	}
	if input.RPE < 0 || input.RPE > 10 {
		return SetEntry{}, domain.ErrInvalidRPE
	}
	if input.Weight < 0 {
		return SetEntry{}, domain.ErrNegativeWeight
	}

	weight := input.Weight
	if input.Bodyweight {
		profile, err := s.GetProfile(ctx, userID)
		if err != nil {
			return SetEntry{}, err
		}
		if profile.BodyWeight() == 0 {
			return SetEntry{}, domain.ErrMissingBodyweight
		}
		weight = profile.BodyWeight() + input.Weight
	}

	entry := SetEntry{Weight: weight, Reps: input.Reps, RPE: input.RPE}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logbook(userID).Add(exerciseID, entry)
	return entry, nil
}

func (s *WorkoutService) DuplicateLastSet(userID, exerciseID uint) (SetEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logbook(userID).DuplicateLast(exerciseID)
}

func (s *WorkoutService) ClearSets(userID, exerciseID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logbook(userID).Clear(exerciseID)
}

func (s *WorkoutService) Buffered(ctx context.Context, userID uint) (LogbookView, error) {
	s.mu.Lock()
	book := s.logbook(userID)
	view := LogbookView{SessionID: book.SessionID()}
	for _, exerciseID := range book.Exercises() {
		view.Exercises = append(view.Exercises, BufferedExercise{ExerciseID: exerciseID, Sets: book.Sets(exerciseID)})
	}
	s.mu.Unlock()

	for i := range view.Exercises {
		exercise, err := s.repo.GetExerciseByID(ctx, view.Exercises[i].ExerciseID)
		if err == nil {
			view.Exercises[i].ExerciseName = exercise.Name
		}
	}
	return view, nil
}

// SaveWorkout commits the whole buffer in one transaction: per exercise in
// insertion order, sets are numbered 1..N and persisted. Nothing is written
// on failure; the buffer empties only on success.
func (s *WorkoutService) SaveWorkout(ctx context.Context, userID uint) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	book := s.logbook(userID)
	if book.SessionID() == 0 {
		return 0, domain.ErrNoSessionSelected
	}
	if book.Empty() {
		return 0, domain.ErrEmptyLogbook
	}

	// A set's owner is its parent session's owner, never the caller's id.
	// The session may also have vanished since it was selected.
	session, err := s.repo.GetSessionByID(ctx, book.SessionID())
	if err != nil {
		return 0, err
	}
	if session.UserID != userID {
		return 0, domain.ErrNotFound
	}

	var rows []domain.WorkoutSet
	for _, exerciseID := range book.Exercises() {
		for i, entry := range book.Sets(exerciseID) {
			rows = append(rows, domain.WorkoutSet{
				UserID:     session.UserID,
				SessionID:  book.SessionID(),
				ExerciseID: exerciseID,
				Weight:     entry.Weight,
				Reps:       entry.Reps,
				SetNumber:  i + 1,
				RPERating:  entry.RPE,
			})
		}
	}

	if err := s.repo.CreateSets(ctx, rows); err != nil {
		return 0, err
	}

	book.reset()
	return len(rows), nil
}

// --- reports ---

func (s *WorkoutService) ExerciseReport(ctx context.Context, userID, exerciseID uint) (ExerciseReport, error) {
	exercise, err := s.repo.GetExerciseByID(ctx, exerciseID)
	if err != nil {
		return ExerciseReport{}, err
	}
	sets, err := s.repo.ListSetsByExercise(ctx, userID, exerciseID)
	if err != nil {
		return ExerciseReport{}, err
	}
	return ExerciseReport{
		ExerciseID:   exercise.ID,
		ExerciseName: exercise.Name,
		Trend:        ExerciseTrend(sets),
		Sets:         sets,
	}, nil
}

func (s *WorkoutService) SessionReport(ctx context.Context, userID, sessionID uint) (SessionReport, error) {
	session, err := s.repo.GetSessionByID(ctx, sessionID)
	if err != nil {
		return SessionReport{}, err
	}
	if session.UserID != userID {
		return SessionReport{}, domain.ErrNotFound
	}
	sets, err := s.repo.ListSetsBySession(ctx, sessionID)
	if err != nil {
		return SessionReport{}, err
	}
	totals, breakdown := SummarizeSession(sets)
	return SessionReport{Session: session, Totals: totals, Exercises: breakdown, Sets: sets}, nil
}

// DeleteSets removes the caller's sets by id; ids owned by other users are
// left alone. Remaining sets keep their set numbers; gaps after deletion
// are expected.
func (s *WorkoutService) DeleteSets(ctx context.Context, userID uint, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return s.repo.DeleteSetsByIDs(ctx, userID, ids)
}
