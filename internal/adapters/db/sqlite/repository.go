package sqlite

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	sqlitedriver "gorm.io/driver/sqlite"
	_ "modernc.org/sqlite"

	"github.com/mi-xalis/power-scouter/internal/domain"
)

// Open opens (creating if needed) the sqlite store at path. The DriverName
// override routes gorm through the pure-Go modernc driver registered by the
// blank import below.
func Open(path string) (*gorm.DB, error) {
	return gorm.Open(sqlitedriver.Dialector{
		DriverName: "sqlite",
		DSN:        path,
	}, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

var _ domain.WorkoutRepository = (*Repository)(nil)

func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return domain.ErrDuplicateName
	}
	return err
}

// --- users ---

func (r *Repository) CreateUser(ctx context.Context, value domain.User) (domain.User, error) {
	m := UserModel{
		Username:     value.Username,
		PasswordHash: value.PasswordHash,
		IsAdmin:      value.IsAdmin,
		Age:          value.Profile.Age,
		WeightKg:     value.Profile.WeightKg,
		HeightCm:     value.Profile.HeightCm,
		Gender:       value.Profile.Gender,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.User{}, translateErr(err)
	}
	value.ID = m.ID
	return value, nil
}

func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&UserModel{}).Count(&n).Error; err != nil {
		return 0, translateErr(err)
	}
	return n, nil
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	var m UserModel
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&m).Error; err != nil {
		return domain.User{}, translateErr(err)
	}
	return toDomainUser(m), nil
}

func (r *Repository) GetUserByID(ctx context.Context, id uint) (domain.User, error) {
	var m UserModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return domain.User{}, translateErr(err)
	}
	return toDomainUser(m), nil
}

func (r *Repository) UpdateUserProfile(ctx context.Context, userID uint, profile domain.Profile) error {
	res := r.db.WithContext(ctx).Model(&UserModel{}).Where("id = ?", userID).
		Updates(map[string]any{
			"age":       profile.Age,
			"weight_kg": profile.WeightKg,
			"height_cm": profile.HeightCm,
			"gender":    profile.Gender,
		})
	if res.Error != nil {
		return translateErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func toDomainUser(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		IsAdmin:      m.IsAdmin,
		Profile: domain.Profile{
			Age:      m.Age,
			WeightKg: m.WeightKg,
			HeightCm: m.HeightCm,
			Gender:   m.Gender,
		},
	}
}

// --- categories ---

func (r *Repository) CreateCategoryIfMissing(ctx context.Context, name string) (domain.Category, error) {
	var m CategoryModel
	err := r.db.WithContext(ctx).
		Where(CategoryModel{Name: name}).
		FirstOrCreate(&m).Error
	if err != nil {
		return domain.Category{}, translateErr(err)
	}
	return domain.Category{ID: m.ID, Name: m.Name}, nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var rows []CategoryModel
	if err := r.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, translateErr(err)
	}
	out := make([]domain.Category, 0, len(rows))
	for _, m := range rows {
		out = append(out, domain.Category{ID: m.ID, Name: m.Name})
	}
	return out, nil
}

// --- exercises ---

func (r *Repository) CreateExercise(ctx context.Context, value domain.Exercise, categoryIDs []uint) (domain.Exercise, error) {
	m := ExerciseModel{Name: value.Name, Description: value.Description}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		for _, cid := range categoryIDs {
			var cat CategoryModel
			if err := tx.First(&cat, cid).Error; err != nil {
				return err
			}
			link := ExerciseCategoryModel{ExerciseID: m.ID, CategoryID: cid}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Exercise{}, translateErr(err)
	}
	return r.GetExerciseByID(ctx, m.ID)
}

func (r *Repository) ListExercises(ctx context.Context, filter domain.ExerciseFilter) ([]domain.Exercise, error) {
	q := r.db.WithContext(ctx).Model(&ExerciseModel{}).Order("exercises.name")
	if len(filter.CategoryIDs) > 0 {
		q = q.Joins("JOIN exercise_categories ec ON ec.exercise_id = exercises.id").
			Where("ec.category_id IN ?", filter.CategoryIDs).
			Distinct("exercises.*")
	}
	if filter.NameQuery != "" {
		q = q.Where(`exercises.name LIKE ? ESCAPE '\'`, likePattern(filter.NameQuery))
	}

	var rows []ExerciseModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, translateErr(err)
	}

	out := make([]domain.Exercise, 0, len(rows))
	for _, m := range rows {
		ex, err := r.attachCategories(ctx, domain.Exercise{ID: m.ID, Name: m.Name, Description: m.Description})
		if err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	return out, nil
}

// likePattern builds a substring LIKE pattern, escaping any LIKE
// metacharacters in the term so a literal "%" or "_" matches itself.
func likePattern(term string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
	return "%" + escaped + "%"
}

func (r *Repository) GetExerciseByID(ctx context.Context, id uint) (domain.Exercise, error) {
	var m ExerciseModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return domain.Exercise{}, translateErr(err)
	}
	return r.attachCategories(ctx, domain.Exercise{ID: m.ID, Name: m.Name, Description: m.Description})
}

func (r *Repository) attachCategories(ctx context.Context, ex domain.Exercise) (domain.Exercise, error) {
	var cats []CategoryModel
	err := r.db.WithContext(ctx).
		Raw(`SELECT c.id, c.name
		     FROM categories c
		     JOIN exercise_categories ec ON ec.category_id = c.id
		     WHERE ec.exercise_id = ?
		     ORDER BY c.name`, ex.ID).
		Scan(&cats).Error
	if err != nil {
		return domain.Exercise{}, translateErr(err)
	}
	for _, c := range cats {
		ex.Categories = append(ex.Categories, domain.Category{ID: c.ID, Name: c.Name})
	}
	return ex, nil
}

// --- sessions ---

func (r *Repository) CreateSession(ctx context.Context, value domain.Session) (domain.Session, error) {
	m := SessionModel{UserID: value.UserID, Name: value.Name, Date: value.Date, Notes: value.Notes}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Session{}, translateErr(err)
	}
	value.ID = m.ID
	return value, nil
}

func (r *Repository) ListSessionsByUser(ctx context.Context, userID uint) ([]domain.Session, error) {
	var rows []SessionModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, translateErr(err)
	}
	out := make([]domain.Session, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomainSession(m))
	}
	return out, nil
}

func (r *Repository) GetSessionByID(ctx context.Context, id uint) (domain.Session, error) {
	var m SessionModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return domain.Session{}, translateErr(err)
	}
	return toDomainSession(m), nil
}

// DeleteSession removes the session and every set logged against it.
// Deleting a session that does not exist is not an error.
func (r *Repository) DeleteSession(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Delete(&WorkoutSetModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&SessionModel{}, id).Error
	})
	return translateErr(err)
}

func toDomainSession(m SessionModel) domain.Session {
	return domain.Session{ID: m.ID, UserID: m.UserID, Name: m.Name, Date: m.Date, Notes: m.Notes}
}

// --- workout sets ---

func (r *Repository) CreateSets(ctx context.Context, sets []domain.WorkoutSet) error {
	if len(sets) == 0 {
		return nil
	}
	rows := make([]WorkoutSetModel, 0, len(sets))
	for _, s := range sets {
		rows = append(rows, WorkoutSetModel{
			UserID:     s.UserID,
			SessionID:  s.SessionID,
			ExerciseID: s.ExerciseID,
			Weight:     s.Weight,
			Reps:       s.Reps,
			SetNumber:  s.SetNumber,
			RPERating:  s.RPERating,
		})
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&rows).Error
	})
	return translateErr(err)
}

type setDetailRow struct {
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
	RPERating    int `gorm:"column:rpe_rating"`
}

const setDetailSelect = `
	SELECT ws.id, ws.user_id, ws.session_id, ws.exercise_id,
	       e.name AS exercise_name,
	       s.name AS session_name, s.date AS session_date,
	       ws.weight, ws.reps, ws.set_number, ws.rpe_rating
	FROM workout_sets ws
	JOIN exercises e ON e.id = ws.exercise_id
	JOIN sessions s ON s.id = ws.session_id`

func (r *Repository) ListSetsByExercise(ctx context.Context, userID, exerciseID uint) ([]domain.SetDetail, error) {
	var rows []setDetailRow
	err := r.db.WithContext(ctx).
		Raw(setDetailSelect+`
		WHERE ws.user_id = ? AND ws.exercise_id = ?
		ORDER BY s.date, ws.set_number`, userID, exerciseID).
		Scan(&rows).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return toSetDetails(rows), nil
}

func (r *Repository) ListSetsBySession(ctx context.Context, sessionID uint) ([]domain.SetDetail, error) {
	var rows []setDetailRow
	err := r.db.WithContext(ctx).
		Raw(setDetailSelect+`
		WHERE ws.session_id = ?
		ORDER BY e.name, ws.set_number`, sessionID).
		Scan(&rows).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return toSetDetails(rows), nil
}

// DeleteSetsByIDs removes the given sets, restricted to the owning user;
// ids belonging to other users are ignored.
func (r *Repository) DeleteSetsByIDs(ctx context.Context, userID uint, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return translateErr(r.db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, ids).
		Delete(&WorkoutSetModel{}).Error)
}

func toSetDetails(rows []setDetailRow) []domain.SetDetail {
	out := make([]domain.SetDetail, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.SetDetail{
			ID:           row.ID,
			UserID:       row.UserID,
			SessionID:    row.SessionID,
			ExerciseID:   row.ExerciseID,
			ExerciseName: row.ExerciseName,
			SessionName:  row.SessionName,
			SessionDate:  row.SessionDate,
			Weight:       row.Weight,
			Reps:         row.Reps,
			SetNumber:    row.SetNumber,
			RPERating:    row.RPERating,
		})
	}
	return out
}

// --- auth sessions ---

func (r *Repository) CreateAuthSession(ctx context.Context, value domain.AuthSession) (domain.AuthSession, error) {
	m := AuthSessionModel{
		UserID:    value.UserID,
		TokenHash: value.TokenHash,
		ExpiresAt: value.ExpiresAt,
		CreatedAt: value.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.AuthSession{}, translateErr(err)
	}
	value.ID = m.ID
	return value, nil
}

func (r *Repository) GetAuthSessionByTokenHash(ctx context.Context, tokenHash string) (domain.AuthSession, error) {
	var m AuthSessionModel
	if err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&m).Error; err != nil {
		return domain.AuthSession{}, translateErr(err)
	}
	return domain.AuthSession{
		ID:        m.ID,
		UserID:    m.UserID,
		TokenHash: m.TokenHash,
		ExpiresAt: m.ExpiresAt,
		CreatedAt: m.CreatedAt,
	}, nil
}

func (r *Repository) DeleteAuthSessionByTokenHash(ctx context.Context, tokenHash string) error {
	return translateErr(r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).Delete(&AuthSessionModel{}).Error)
}
