package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/harborhealth/harbor-backend/internal/repository"
)

// UserRepository implements repository.UserRepository using PostgreSQL
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *repository.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	query := `
		INSERT INTO users (id, email, password_hash, first_name, last_name, role, therapist_id, created_at, updated_at)
		VALUES (:id, :email, :password_hash, :first_name, :last_name, :role, :therapist_id, :created_at, :updated_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, user)
	return err
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*repository.User, error) {
	var user repository.User
	query := `SELECT * FROM users WHERE id = $1`

	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*repository.User, error) {
	var user repository.User
	query := `SELECT * FROM users WHERE email = $1`

	err := r.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

// List retrieves all users
func (r *UserRepository) List(ctx context.Context) ([]*repository.User, error) {
	var users []*repository.User
	query := `SELECT * FROM users ORDER BY created_at DESC`

	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, err
	}
	return users, nil
}

// ListTherapists retrieves all therapist accounts
func (r *UserRepository) ListTherapists(ctx context.Context) ([]*repository.User, error) {
	var users []*repository.User
	query := `SELECT * FROM users WHERE role = $1 ORDER BY last_name, first_name`

	if err := r.db.SelectContext(ctx, &users, query, repository.RoleTherapist); err != nil {
		return nil, err
	}
	return users, nil
}

// GetTherapistByEmail retrieves a therapist by email
func (r *UserRepository) GetTherapistByEmail(ctx context.Context, email string) (*repository.User, error) {
	var user repository.User
	query := `SELECT * FROM users WHERE email = $1 AND role = $2`

	err := r.db.GetContext(ctx, &user, query, email, repository.RoleTherapist)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

// ListClients retrieves the clients assigned to a therapist
func (r *UserRepository) ListClients(ctx context.Context, therapistID string) ([]*repository.User, error) {
	var users []*repository.User
	query := `SELECT * FROM users WHERE therapist_id = $1 ORDER BY last_name, first_name`

	if err := r.db.SelectContext(ctx, &users, query, therapistID); err != nil {
		return nil, err
	}
	return users, nil
}

// LinkClient assigns a client to a therapist
func (r *UserRepository) LinkClient(ctx context.Context, therapistID, clientID string) error {
	query := `UPDATE users SET therapist_id = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, therapistID, time.Now(), clientID)
	return err
}

// Update updates a user
func (r *UserRepository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
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

	query := "UPDATE users SET " + setClause + " WHERE id = :id"
	_, err := r.db.NamedExecContext(ctx, query, params)
	return err
}

// Delete deletes a user
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}
