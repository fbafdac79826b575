package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/harborhealth/harbor-backend/internal/repository"
)

// RecordingRepository implements repository.RecordingRepository using PostgreSQL
type RecordingRepository struct {
	db *sqlx.DB
}

// NewRecordingRepository creates a new PostgreSQL recording repository
func NewRecordingRepository(db *sqlx.DB) repository.RecordingRepository {
	return &RecordingRepository{db: db}
}

// Create creates a new recording record
func (r *RecordingRepository) Create(ctx context.Context, rec *repository.Recording) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO recordings (id, client_id, therapist_id, storage_url, transcript, analysis, created_at)
		VALUES (:id, :client_id, :therapist_id, :storage_url, :transcript, :analysis, :created_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, rec)
	return err
}

// Get retrieves a recording by ID
func (r *RecordingRepository) Get(ctx context.Context, id string) (*repository.Recording, error) {
	var rec repository.Recording
	err := r.db.GetContext(ctx, &rec, `SELECT * FROM recordings WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// ListByPair retrieves all recordings for a client/therapist pair
func (r *RecordingRepository) ListByPair(ctx context.Context, clientID, therapistID string) ([]*repository.Recording, error) {
	var recs []*repository.Recording
	query := `SELECT * FROM recordings WHERE client_id = $1 AND therapist_id = $2 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &recs, query, clientID, therapistID); err != nil {
		return nil, err
	}
	return recs, nil
}

// Update updates a recording; used to fill in transcript and analysis
// after ingestion.
func (r *RecordingRepository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	setClause := ""
	params := map[string]interface{}{"id": id}

	for key, value := range updates {
		if setClause != "" {
			setClause += ", "
		}
		setClause += key + " = :" + key
		params[key] = value
	}

	query := "UPDATE recordings SET " + setClause + " WHERE id = :id"
	_, err := r.db.NamedExecContext(ctx, query, params)
	return err
}

// Delete deletes a recording
func (r *RecordingRepository) Delete(ctx context.Context, id string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM recordings WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
