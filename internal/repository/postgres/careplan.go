package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/harborhealth/harbor-backend/internal/repository"
)

// CarePlanRepository implements repository.CarePlanRepository using PostgreSQL
type CarePlanRepository struct {
	db *sqlx.DB
}

// NewCarePlanRepository creates a new PostgreSQL care plan repository
func NewCarePlanRepository(db *sqlx.DB) repository.CarePlanRepository {
	return &CarePlanRepository{db: db}
}

// Create creates a new care plan
func (r *CarePlanRepository) Create(ctx context.Context, plan *repository.CarePlan) error {
	if plan.ID == "" {
		plan.ID = uuid.New().String()
	}
	plan.CreatedAt = time.Now()
	plan.UpdatedAt = time.Now()

	query := `
		INSERT INTO care_plans (id, client_id, therapist_id, conversation_id, name, description, created_at, updated_at)
		VALUES (:id, :client_id, :therapist_id, :conversation_id, :name, :description, :created_at, :updated_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, plan)
	return err
}

// Get retrieves a care plan by ID
func (r *CarePlanRepository) Get(ctx context.Context, id string) (*repository.CarePlan, error) {
	var plan repository.CarePlan
	err := r.db.GetContext(ctx, &plan, `SELECT * FROM care_plans WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

// Update updates a care plan
func (r *CarePlanRepository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	setClause := ""
	params := map[string]interface{}{"id": id}

	for key, value := range updates {
		if setClause != "" {
			setClause += ", "
		}
		setClause += key + " = :" + key
		params[key] = value
	}

	query := "UPDATE care_plans SET " + setClause + " WHERE id = :id"
	_, err := r.db.NamedExecContext(ctx, query, params)
	return err
}

// Delete deletes a care plan
func (r *CarePlanRepository) Delete(ctx context.Context, id string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM care_plans WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
