package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

// Stores created by earlier releases predate the profile columns on users
// and used different column names on workout_sets. This migration inspects
// the live schema with PRAGMA table_info and only adds what is missing, so
// it is safe on both fresh and legacy files.
func init() {
	goose.AddMigrationNoTxContext(upLegacyColumns, downLegacyColumns)
}

func upLegacyColumns(ctx context.Context, db *sql.DB) error {
	userCols, err := tableColumns(ctx, db, "users")
	if err != nil {
		return err
	}

	userAdds := map[string]string{
		"age":       "INTEGER",
		"weight_kg": "REAL",
		"height_cm": "REAL",
		"gender":    "TEXT",
	}
	for col, typ := range userAdds {
		if userCols[col] {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE users ADD COLUMN %s %s", col, typ)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	setCols, err := tableColumns(ctx, db, "workout_sets")
	if err != nil {
		return err
	}

	if setCols["rp_rating"] && !setCols["rpe_rating"] {
		if _, err := db.ExecContext(ctx, "ALTER TABLE workout_sets RENAME COLUMN rp_rating TO rpe_rating"); err != nil {
			return err
		}
	}
	if !setCols["session_id"] {
		if _, err := db.ExecContext(ctx, "ALTER TABLE workout_sets ADD COLUMN session_id INTEGER REFERENCES sessions(id)"); err != nil {
			return err
		}
	}
	if !setCols["user_id"] {
		if _, err := db.ExecContext(ctx, "ALTER TABLE workout_sets ADD COLUMN user_id INTEGER REFERENCES users(id)"); err != nil {
			return err
		}
	}

	return nil
}

func downLegacyColumns(ctx context.Context, db *sql.DB) error {
	// Column additions are kept on downgrade; old binaries ignore them.
	return nil
}

func tableColumns(ctx context.Context, db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	return cols, rows.Err()
}
