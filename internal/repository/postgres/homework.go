package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/harborhealth/harbor-backend/internal/repository"
)

// HomeworkRepository implements repository.HomeworkRepository using PostgreSQL
type HomeworkRepository struct {
	db *sqlx.DB
}

// NewHomeworkRepository creates a new PostgreSQL homework repository
func NewHomeworkRepository(db *sqlx.DB) repository.HomeworkRepository {
	return &HomeworkRepository{db: db}
}

// Create creates a new homework assignment
func (r *HomeworkRepository) Create(ctx context.Context, hw *repository.Homework) error {
	if hw.ID == "" {
		hw.ID = uuid.New().String()
	}
	if hw.Status == "" {
		hw.Status = repository.HomeworkPending
	}
	hw.CreatedAt = time.Now()
	hw.UpdatedAt = time.Now()

	query := `
		INSERT INTO homework (id, client_id, therapist_id, title, prompt, response, status, created_at, updated_at)
		VALUES (:id, :client_id, :therapist_id, :title, :prompt, :response, :status, :created_at, :updated_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, hw)
	return err
}

// Get retrieves a homework assignment
func (r *HomeworkRepository) Get(ctx context.Context, clientID, therapistID, id string) (*repository.Homework, error) {
	var hw repository.Homework
	query := `SELECT * FROM homework WHERE client_id = $1 AND therapist_id = $2 AND id = $3`
	err := r.db.GetContext(ctx, &hw, query, clientID, therapistID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &hw, nil
}

// List retrieves all homework for a client/therapist pair
func (r *HomeworkRepository) List(ctx context.Context, clientID, therapistID string) ([]*repository.Homework, error) {
	var hws []*repository.Homework
	query := `SELECT * FROM homework WHERE client_id = $1 AND therapist_id = $2 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &hws, query, clientID, therapistID); err != nil {
		return nil, err
	}
	return hws, nil
}

// ListSince returns homework created at or after the given time, filtered
// by client and/or therapist when those ids are non-empty.
func (r *HomeworkRepository) ListSince(ctx context.Context, since time.Time, clientID, therapistID string) ([]*repository.Homework, error) {
	query := `SELECT * FROM homework WHERE created_at >= $1`
	args := []interface{}{since}
	if clientID != "" {
		args = append(args, clientID)
		query += ` AND client_id = $2`
	}
	if therapistID != "" {
		args = append(args, therapistID)
		if clientID != "" {
			query += ` AND therapist_id = $3`
		} else {
			query += ` AND therapist_id = $2`
		}
	}
	query += ` ORDER BY created_at`

	var hws []*repository.Homework
	if err := r.db.SelectContext(ctx, &hws, query, args...); err != nil {
		return nil, err
	}
	return hws, nil
}

// Update updates a homework assignment
func (r *HomeworkRepository) Update(ctx context.Context, clientID, therapistID, id string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	setClause := ""
	params := map[string]interface{}{
		"where_id":           id,
		"where_client_id":    clientID,
		"where_therapist_id": therapistID,
	}

	for key, value := range updates {
		if setClause != "" {
			setClause += ", "
		}
		setClause += key + " = :" + key
		params[key] = value
	}

	query := "UPDATE homework SET " + setClause +
		" WHERE client_id = :where_client_id AND therapist_id = :where_therapist_id AND id = :where_id"
	_, err := r.db.NamedExecContext(ctx, query, params)
	return err
}

// Delete deletes a homework assignment
func (r *HomeworkRepository) Delete(ctx context.Context, clientID, therapistID, id string) (int64, error) {
	query := `DELETE FROM homework WHERE client_id = $1 AND therapist_id = $2 AND id = $3`
	result, err := r.db.ExecContext(ctx, query, clientID, therapistID, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
