package studio

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/zoomcut/zoomcut-agent/internal/timeline"
)

type Repository interface {
	CreateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	ListSessions(ctx context.Context) ([]*Session, error)
	DeleteSession(ctx context.Context, id string) error
	UpdateSessionStatus(ctx context.Context, id, status, errorMsg string) error
	UpdateSessionMedia(ctx context.Context, id string, width, height int, duration float64, fps int) error

	ReplaceKeyframes(ctx context.Context, sessionID string, keyframes []timeline.ZoomKeyframe) error
	GetKeyframes(ctx context.Context, sessionID string) ([]timeline.ZoomKeyframe, error)

	CreateJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, id string) (*Job, error)
	ListJobs(ctx context.Context, limit int) ([]*Job, error)
	ListPendingJobs(ctx context.Context) ([]*Job, error)
	UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error
	UpdateJobProgress(ctx context.Context, id string, progress int) error
	UpdateJobOutput(ctx context.Context, id, outputPath string) error

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) CreateSession(ctx context.Context, s *Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, status, dir, width, height, duration, fps, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.Status, s.Dir, s.Width, s.Height, s.Duration, s.FPS, nullString(s.Error),
		s.CreatedAt.Format(time.RFC3339), s.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetSession(ctx context.Context, id string) (*Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, status, dir, width, height, duration, fps, error, created_at, updated_at
		FROM sessions WHERE id = ?
	`, id)

	var s Session
	var errMsg sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&s.ID, &s.Status, &s.Dir, &s.Width, &s.Height, &s.Duration, &s.FPS, &errMsg, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	s.Error = errMsg.String
	s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	s.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &s, nil
}

func (r *SQLiteRepository) ListSessions(ctx context.Context) ([]*Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, status, dir, width, height, duration, fps, error, created_at, updated_at
		FROM sessions ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		var s Session
		var errMsg sql.NullString
		var createdAt, updatedAt string

		if err := rows.Scan(&s.ID, &s.Status, &s.Dir, &s.Width, &s.Height, &s.Duration, &s.FPS, &errMsg, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		s.Error = errMsg.String
		s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		s.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		sessions = append(sessions, &s)
	}
	return sessions, rows.Err()
}

func (r *SQLiteRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	return err
}

func (r *SQLiteRepository) UpdateSessionStatus(ctx context.Context, id, status, errorMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET status = ?, error = ?, updated_at = datetime('now') WHERE id = ?
	`, status, nullString(errorMsg), id)
	return err
}

func (r *SQLiteRepository) UpdateSessionMedia(ctx context.Context, id string, width, height int, duration float64, fps int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET width = ?, height = ?, duration = ?, fps = ?, updated_at = datetime('now') WHERE id = ?
	`, width, height, duration, fps, id)
	return err
}

func (r *SQLiteRepository) ReplaceKeyframes(ctx context.Context, sessionID string, keyframes []timeline.ZoomKeyframe) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM keyframes WHERE session_id = ?", sessionID); err != nil {
		return err
	}

	for i, k := range keyframes {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO keyframes (id, session_id, ordinal, time, x, y, zoom_level, duration)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, k.ID, sessionID, i, k.Time, k.X, k.Y, k.ZoomLevel, k.ActiveDuration)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *SQLiteRepository) GetKeyframes(ctx context.Context, sessionID string) ([]timeline.ZoomKeyframe, error) {
	var width, height int
	err := r.db.QueryRowContext(ctx, "SELECT width, height FROM sessions WHERE id = ?", sessionID).Scan(&width, &height)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, time, x, y, zoom_level, duration
		FROM keyframes WHERE session_id = ? ORDER BY ordinal
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keyframes []timeline.ZoomKeyframe
	for rows.Next() {
		var k timeline.ZoomKeyframe
		if err := rows.Scan(&k.ID, &k.Time, &k.X, &k.Y, &k.ZoomLevel, &k.ActiveDuration); err != nil {
			return nil, err
		}
		k.FrameWidth = width
		k.FrameHeight = height
		keyframes = append(keyframes, k)
	}
	return keyframes, rows.Err()
}

func (r *SQLiteRepository) CreateJob(ctx context.Context, j *Job) error {
	effects, err := marshalEffects(j.Effects)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO jobs (id, type, session_id, status, progress, profile, output_path, effects, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, j.ID, j.Type, nullString(j.SessionID), j.Status, j.Progress, j.Profile,
		nullString(j.OutputPath), effects, nullString(j.Error),
		j.CreatedAt.Format(time.RFC3339), j.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetJob(ctx context.Context, id string) (*Job, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, type, session_id, status, progress, profile, output_path, effects, error, created_at, updated_at
		FROM jobs WHERE id = ?
	`, id)
	return r.scanJob(row)
}

func (r *SQLiteRepository) scanJob(row *sql.Row) (*Job, error) {
	var j Job
	var sessionID, outputPath, effects, errMsg sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&j.ID, &j.Type, &sessionID, &j.Status, &j.Progress, &j.Profile, &outputPath, &effects, &errMsg, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	j.SessionID = sessionID.String
	j.OutputPath = outputPath.String
	if j.Effects, err = unmarshalEffects(effects); err != nil {
		return nil, err
	}
	j.Error = errMsg.String
	j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &j, nil
}

func marshalEffects(e *ExportEffects) (sql.NullString, error) {
	if e == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(e)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal job effects: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalEffects(s sql.NullString) (*ExportEffects, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var e ExportEffects
	if err := json.Unmarshal([]byte(s.String), &e); err != nil {
		return nil, fmt.Errorf("parse job effects: %w", err)
	}
	return &e, nil
}

func (r *SQLiteRepository) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, session_id, status, progress, profile, output_path, effects, error, created_at, updated_at
		FROM jobs ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanJobs(rows)
}

func (r *SQLiteRepository) ListPendingJobs(ctx context.Context) ([]*Job, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, session_id, status, progress, profile, output_path, effects, error, created_at, updated_at
		FROM jobs WHERE status = 'pending' ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanJobs(rows)
}

func (r *SQLiteRepository) scanJobs(rows *sql.Rows) ([]*Job, error) {
	var jobs []*Job
	for rows.Next() {
		var j Job
		var sessionID, outputPath, effects, errMsg sql.NullString
		var createdAt, updatedAt string

		if err := rows.Scan(&j.ID, &j.Type, &sessionID, &j.Status, &j.Progress, &j.Profile, &outputPath, &effects, &errMsg, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		j.SessionID = sessionID.String
		j.OutputPath = outputPath.String
		var err error
		if j.Effects, err = unmarshalEffects(effects); err != nil {
			return nil, err
		}
		j.Error = errMsg.String
		j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		jobs = append(jobs, &j)
	}
	return jobs, rows.Err()
}

func (r *SQLiteRepository) UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, error = ?, updated_at = datetime('now') WHERE id = ?
	`, status, nullString(errorMsg), id)
	return err
}

func (r *SQLiteRepository) UpdateJobProgress(ctx context.Context, id string, progress int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET progress = ?, updated_at = datetime('now') WHERE id = ?
	`, progress, id)
	return err
}

func (r *SQLiteRepository) UpdateJobOutput(ctx context.Context, id, outputPath string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET output_path = ?, updated_at = datetime('now') WHERE id = ?
	`, outputPath, id)
	return err
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
