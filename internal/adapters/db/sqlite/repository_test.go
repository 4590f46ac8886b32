package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mi-xalis/power-scouter/internal/domain"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "powerscouter_test.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return NewRepository(db)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "powerscouter_test.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		t.Fatalf("second run: %v", err)
	}

	repo := NewRepository(db)
	if _, err := repo.CreateUser(ctx, domain.User{Username: "ada", PasswordHash: "x"}); err != nil {
		t.Fatalf("create user after re-migration: %v", err)
	}
}

func TestDuplicateNamesAreRejected(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	if _, err := repo.CreateUser(ctx, domain.User{Username: "ada", PasswordHash: "x"}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := repo.CreateUser(ctx, domain.User{Username: "ada", PasswordHash: "y"}); !errors.Is(err, domain.ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}

	if _, err := repo.CreateExercise(ctx, domain.Exercise{Name: "Squat"}, nil); err != nil {
		t.Fatalf("create exercise: %v", err)
	}
	if _, err := repo.CreateExercise(ctx, domain.Exercise{Name: "Squat"}, nil); !errors.Is(err, domain.ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName for exercise, got %v", err)
	}
}

func TestCategoryUpsertAndExerciseFilter(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	legs, err := repo.CreateCategoryIfMissing(ctx, "Legs")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	again, err := repo.CreateCategoryIfMissing(ctx, "Legs")
	if err != nil {
		t.Fatalf("re-create category: %v", err)
	}
	if legs.ID != again.ID {
		t.Fatalf("expected same category id, got %d and %d", legs.ID, again.ID)
	}

	chest, _ := repo.CreateCategoryIfMissing(ctx, "Chest")

	if _, err := repo.CreateExercise(ctx, domain.Exercise{Name: "Back Squat"}, []uint{legs.ID}); err != nil {
		t.Fatalf("create squat: %v", err)
	}
	if _, err := repo.CreateExercise(ctx, domain.Exercise{Name: "Bench Press"}, []uint{chest.ID}); err != nil {
		t.Fatalf("create bench: %v", err)
	}

	legOnly, err := repo.ListExercises(ctx, domain.ExerciseFilter{CategoryIDs: []uint{legs.ID}})
	if err != nil {
		t.Fatalf("list by category: %v", err)
	}
	if len(legOnly) != 1 || legOnly[0].Name != "Back Squat" {
		t.Fatalf("unexpected category filter result: %+v", legOnly)
	}
	if len(legOnly[0].Categories) != 1 || legOnly[0].Categories[0].Name != "Legs" {
		t.Fatalf("expected Legs category attached, got %+v", legOnly[0].Categories)
	}

	byName, err := repo.ListExercises(ctx, domain.ExerciseFilter{NameQuery: "Bench"})
	if err != nil {
		t.Fatalf("list by name: %v", err)
	}
	if len(byName) != 1 || byName[0].Name != "Bench Press" {
		t.Fatalf("unexpected name filter result: %+v", byName)
	}
}

func TestExerciseNameFilterTreatsWildcardsLiterally(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	if _, err := repo.CreateExercise(ctx, domain.Exercise{Name: "100% Raw Row"}, nil); err != nil {
		t.Fatalf("create exercise: %v", err)
	}
	if _, err := repo.CreateExercise(ctx, domain.Exercise{Name: "Barbell Row"}, nil); err != nil {
		t.Fatalf("create exercise: %v", err)
	}

	got, err := repo.ListExercises(ctx, domain.ExerciseFilter{NameQuery: "100%"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].Name != "100% Raw Row" {
		t.Fatalf("expected only the literal match, got %+v", got)
	}

	// A bare wildcard is a literal character, not match-everything.
	onlyPercent, err := repo.ListExercises(ctx, domain.ExerciseFilter{NameQuery: "%"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(onlyPercent) != 1 || onlyPercent[0].Name != "100% Raw Row" {
		t.Fatalf("wildcard should not match everything, got %+v", onlyPercent)
	}
}

func TestDeleteSetsScopedToOwner(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	alice, _ := repo.CreateUser(ctx, domain.User{Username: "alice", PasswordHash: "x"})
	bob, _ := repo.CreateUser(ctx, domain.User{Username: "bob", PasswordHash: "x"})
	ex, _ := repo.CreateExercise(ctx, domain.Exercise{Name: "Deadlift"}, nil)
	aliceSess, _ := repo.CreateSession(ctx, domain.Session{UserID: alice.ID, Name: "A", Date: "2026-08-20"})
	bobSess, _ := repo.CreateSession(ctx, domain.Session{UserID: bob.ID, Name: "B", Date: "2026-08-20"})

	sets := []domain.WorkoutSet{
		{UserID: alice.ID, SessionID: aliceSess.ID, ExerciseID: ex.ID, Weight: 100, Reps: 5, SetNumber: 1},
		{UserID: bob.ID, SessionID: bobSess.ID, ExerciseID: ex.ID, Weight: 90, Reps: 5, SetNumber: 1},
	}
	if err := repo.CreateSets(ctx, sets); err != nil {
		t.Fatalf("create sets: %v", err)
	}

	aliceSets, _ := repo.ListSetsBySession(ctx, aliceSess.ID)
	bobSets, _ := repo.ListSetsBySession(ctx, bobSess.ID)
	ids := []uint{aliceSets[0].ID, bobSets[0].ID}

	if err := repo.DeleteSetsByIDs(ctx, alice.ID, ids); err != nil {
		t.Fatalf("delete sets: %v", err)
	}

	aliceLeft, _ := repo.ListSetsBySession(ctx, aliceSess.ID)
	if len(aliceLeft) != 0 {
		t.Fatalf("expected alice's set deleted, got %d", len(aliceLeft))
	}
	bobLeft, _ := repo.ListSetsBySession(ctx, bobSess.ID)
	if len(bobLeft) != 1 {
		t.Fatalf("bob's set should be untouched, got %d left", len(bobLeft))
	}
}

func TestDeleteSessionCascadesToSets(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	user, _ := repo.CreateUser(ctx, domain.User{Username: "ada", PasswordHash: "x"})
	ex, _ := repo.CreateExercise(ctx, domain.Exercise{Name: "Deadlift"}, nil)
	sess, _ := repo.CreateSession(ctx, domain.Session{UserID: user.ID, Name: "Pull Day", Date: "2026-08-20"})

	sets := []domain.WorkoutSet{
		{UserID: user.ID, SessionID: sess.ID, ExerciseID: ex.ID, Weight: 100, Reps: 5, SetNumber: 1, RPERating: 8},
		{UserID: user.ID, SessionID: sess.ID, ExerciseID: ex.ID, Weight: 100, Reps: 5, SetNumber: 2, RPERating: 9},
	}
	if err := repo.CreateSets(ctx, sets); err != nil {
		t.Fatalf("create sets: %v", err)
	}

	if err := repo.DeleteSession(ctx, sess.ID); err != nil {
		t.Fatalf("delete session: %v", err)
	}

	left, err := repo.ListSetsBySession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("list sets after delete: %v", err)
	}
	if len(left) != 0 {
		t.Fatalf("expected no sets after session delete, got %d", len(left))
	}

	// Repeating the delete is a no-op.
	if err := repo.DeleteSession(ctx, sess.ID); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestSetListingsOrderAndJoinFields(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	user, _ := repo.CreateUser(ctx, domain.User{Username: "ada", PasswordHash: "x"})
	squat, _ := repo.CreateExercise(ctx, domain.Exercise{Name: "Back Squat"}, nil)
	bench, _ := repo.CreateExercise(ctx, domain.Exercise{Name: "Bench Press"}, nil)

	early, _ := repo.CreateSession(ctx, domain.Session{UserID: user.ID, Name: "Week 1", Date: "2026-08-10"})
	late, _ := repo.CreateSession(ctx, domain.Session{UserID: user.ID, Name: "Week 2", Date: "2026-08-17"})

	sets := []domain.WorkoutSet{
		{UserID: user.ID, SessionID: late.ID, ExerciseID: squat.ID, Weight: 110, Reps: 3, SetNumber: 1, RPERating: 8},
		{UserID: user.ID, SessionID: early.ID, ExerciseID: squat.ID, Weight: 100, Reps: 5, SetNumber: 1, RPERating: 7},
		{UserID: user.ID, SessionID: early.ID, ExerciseID: bench.ID, Weight: 80, Reps: 5, SetNumber: 1, RPERating: 7},
	}
	if err := repo.CreateSets(ctx, sets); err != nil {
		t.Fatalf("create sets: %v", err)
	}

	byExercise, err := repo.ListSetsByExercise(ctx, user.ID, squat.ID)
	if err != nil {
		t.Fatalf("list by exercise: %v", err)
	}
	if len(byExercise) != 2 {
		t.Fatalf("expected 2 squat sets, got %d", len(byExercise))
	}
	if byExercise[0].SessionDate != "2026-08-10" || byExercise[1].SessionDate != "2026-08-17" {
		t.Fatalf("expected date ascending order, got %s then %s", byExercise[0].SessionDate, byExercise[1].SessionDate)
	}
	if byExercise[0].ExerciseName != "Back Squat" || byExercise[0].SessionName != "Week 1" {
		t.Fatalf("unexpected join fields: %+v", byExercise[0])
	}

	bySession, err := repo.ListSetsBySession(ctx, early.ID)
	if err != nil {
		t.Fatalf("list by session: %v", err)
	}
	if len(bySession) != 2 {
		t.Fatalf("expected 2 sets in session, got %d", len(bySession))
	}
	if bySession[0].ExerciseName != "Back Squat" || bySession[1].ExerciseName != "Bench Press" {
		t.Fatalf("expected exercise-name order, got %s then %s", bySession[0].ExerciseName, bySession[1].ExerciseName)
	}
}

func TestProfileUpdateRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	user, _ := repo.CreateUser(ctx, domain.User{Username: "ada", PasswordHash: "x"})

	age := 31
	weight := 70.0
	if err := repo.UpdateUserProfile(ctx, user.ID, domain.Profile{Age: &age, WeightKg: &weight}); err != nil {
		t.Fatalf("update profile: %v", err)
	}

	got, err := repo.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.Profile.Age == nil || *got.Profile.Age != 31 {
		t.Fatalf("age not persisted: %+v", got.Profile)
	}
	if got.Profile.BodyWeight() != 70 {
		t.Fatalf("expected body weight 70, got %v", got.Profile.BodyWeight())
	}

	if err := repo.UpdateUserProfile(ctx, 9999, domain.Profile{}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing user, got %v", err)
	}
}

func TestAuthSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	user, _ := repo.CreateUser(ctx, domain.User{Username: "ada", PasswordHash: "x"})

	created, err := repo.CreateAuthSession(ctx, domain.AuthSession{
		UserID:    user.ID,
		TokenHash: "abc123",
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("create auth session: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("expected assigned id")
	}

	got, err := repo.GetAuthSessionByTokenHash(ctx, "abc123")
	if err != nil {
		t.Fatalf("get auth session: %v", err)
	}
	if got.UserID != user.ID {
		t.Fatalf("unexpected user id %d", got.UserID)
	}

	if err := repo.DeleteAuthSessionByTokenHash(ctx, "abc123"); err != nil {
		t.Fatalf("delete auth session: %v", err)
	}
	if _, err := repo.GetAuthSessionByTokenHash(ctx, "abc123"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	// Deleting again is a no-op.
	if err := repo.DeleteAuthSessionByTokenHash(ctx, "abc123"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}
