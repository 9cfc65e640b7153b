package database

import (
	"context"
	"database/sql"
	"errors"
)

// CursorRepository persists per-(owner, platform) poll cursors so a restarted
// poller resumes where it left off.
type CursorRepository struct {
	DB *sql.DB
}

func NewCursorRepository(db *sql.DB) *CursorRepository {
	return &CursorRepository{DB: db}
}

func (r *CursorRepository) Get(ctx context.Context, ownerID, platform string) (string, error) {
	var cursor string
	err := r.DB.QueryRowContext(ctx,
		`SELECT cursor FROM platform_cursors WHERE owner_id = $1 AND platform = $2`,
		ownerID, platform,
	).Scan(&cursor)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return cursor, err
}

func (r *CursorRepository) Set(ctx context.Context, ownerID, platform, cursor string) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO platform_cursors (owner_id, platform, cursor, last_polled_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (owner_id, platform)
		DO UPDATE SET cursor = EXCLUDED.cursor, last_polled_at = NOW()
	`, ownerID, platform, cursor)
	return err
}

// Connected lists every (owner, platform) pair with a usable credential, the
// set the poller iterates each cycle.
func (r *CursorRepository) Connected(ctx context.Context) ([][2]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT owner_id, platform FROM credentials WHERE invalid = FALSE ORDER BY owner_id, platform`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pairs [][2]string
	for rows.Next() {
		var owner, platform string
		if err := rows.Scan(&owner, &platform); err != nil {
			return nil, err
		}
		pairs = append(pairs, [2]string{owner, platform})
	}
	return pairs, rows.Err()
}
