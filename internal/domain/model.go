package domain

import "time"

type User struct {
	ID           uint
	Username     string
	PasswordHash string
	IsAdmin      bool
	Profile      Profile
}

// Profile holds the optional self-service fields on a user account.
// Nil means the field was never set.
type Profile struct {
	Age      *int
	WeightKg *float64
	HeightCm *float64
	Gender   *string
}

// BodyWeight returns the profile weight in kg, or 0 when unset.
func (p Profile) BodyWeight() float64 {
	if p.WeightKg == nil {
		return 0
	}
	return *p.WeightKg
}

type Category struct {
	ID   uint
	Name string
}

type Exercise struct {
	ID          uint
	Name        string
	Description string
	Categories  []Category
}

// Session is one workout instance. Date is a calendar date in ISO form
// (YYYY-MM-DD), matching how it is stored and grouped.
type Session struct {
	ID     uint
	UserID uint
	Name   string
	Date   string
	Notes  string
}

// WorkoutSet is a single performed set. UserID duplicates the parent
// session's owner so per-user report reads need no join on sessions.
// SetNumber is 1-based within (session, exercise).
type WorkoutSet struct {
	ID         uint
	UserID     uint
	SessionID  uint
	ExerciseID uint
	Weight     float64
	Reps       int
	SetNumber  int
	RPERating  int
}

// SetDetail is a workout set joined with its exercise and session names,
// the row shape both report views consume.
type SetDetail struct {
	ID           uint
	UserID       uint
	SessionID    uint
	ExerciseID   uint
	ExerciseName string
	SessionName  string
	SessionDate  string
	Weight       float64
	Reps         int
	SetNumber    int
	RPERating    int
}

// ExerciseFilter narrows an exercise listing. CategoryIDs restricts to
// exercises linked to any of the given categories; NameQuery is a
// substring match on the name.
type ExerciseFilter struct {
	CategoryIDs []uint
	NameQuery   string
}

type AuthSession struct {
	ID        uint
	UserID    uint
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

type Identity struct {
	User User
}
