package domain

import "context"

type WorkoutRepository interface {
	CreateUser(ctx context.Context, value User) (User, error)
	CountUsers(ctx context.Context) (int64, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	GetUserByID(ctx context.Context, id uint) (User, error)
	UpdateUserProfile(ctx context.Context, userID uint, profile Profile) error

	CreateCategoryIfMissing(ctx context.Context, name string) (Category, error)
	ListCategories(ctx context.Context) ([]Category, error)

	CreateExercise(ctx context.Context, value Exercise, categoryIDs []uint) (Exercise, error)
	ListExercises(ctx context.Context, filter ExerciseFilter) ([]Exercise, error)
	GetExerciseByID(ctx context.Context, id uint) (Exercise, error)

	CreateSession(ctx context.Context, value Session) (Session, error)
	ListSessionsByUser(ctx context.Context, userID uint) ([]Session, error)
	GetSessionByID(ctx context.Context, id uint) (Session, error)
	DeleteSession(ctx context.Context, id uint) error

	CreateSets(ctx context.Context, sets []WorkoutSet) error
	ListSetsByExercise(ctx context.Context, userID, exerciseID uint) ([]SetDetail, error)
	ListSetsBySession(ctx context.Context, sessionID uint) ([]SetDetail, error)
	DeleteSetsByIDs(ctx context.Context, userID uint, ids []uint) error

	CreateAuthSession(ctx context.Context, value AuthSession) (AuthSession, error)
	GetAuthSessionByTokenHash(ctx context.Context, tokenHash string) (AuthSession, error)
	DeleteAuthSessionByTokenHash(ctx context.Context, tokenHash string) error
}
