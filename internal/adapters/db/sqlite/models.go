package sqlite

import "time"

// Models mirror the goose-managed schema; gorm tags exist for clarity only,
// migrations are the source of truth. The user and set tables carry no
// timestamps because stores written by earlier versions have none.

type UserModel struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	IsAdmin      bool   `gorm:"not null;default:false"`
	Age          *int
	WeightKg     *float64
	HeightCm     *float64
	Gender       *string
}

func (UserModel) TableName() string { return "users" }

type CategoryModel struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex;not null"`
}

func (CategoryModel) TableName() string { return "categories" }

type ExerciseModel struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"uniqueIndex;not null"`
	Description string
}

func (ExerciseModel) TableName() string { return "exercises" }

type ExerciseCategoryModel struct {
	ExerciseID uint `gorm:"primaryKey"`
	CategoryID uint `gorm:"primaryKey"`
}

func (ExerciseCategoryModel) TableName() string { return "exercise_categories" }

type SessionModel struct {
	ID     uint   `gorm:"primaryKey"`
	UserID uint   `gorm:"not null;index"`
	Name   string `gorm:"not null"`
	Date   string `gorm:"not null"`
	Notes  string
}

func (SessionModel) TableName() string { return "sessions" }

type WorkoutSetModel struct {
	ID         uint `gorm:"primaryKey"`
	UserID     uint `gorm:"not null;index"`
	SessionID  uint `gorm:"not null;index"`
	ExerciseID uint `gorm:"not null;index"`
	Weight     float64
	Reps       int
	SetNumber  int
	RPERating  int `gorm:"column:rpe_rating"`
}

func (WorkoutSetModel) TableName() string { return "workout_sets" }

type AuthSessionModel struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"not null;index"`
	TokenHash string `gorm:"not null;uniqueIndex"`
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (AuthSessionModel) TableName() string { return "auth_sessions" }
