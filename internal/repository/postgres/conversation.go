package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/harborhealth/harbor-backend/internal/merge"
	"github.com/harborhealth/harbor-backend/internal/repository"
)

// ConversationRepository implements repository.ConversationRepository.
// Reads consult both the current bot_conversations table and the
// first-generation conversations table, current rows winning on id
// collisions. Writes only ever touch the current table.
type ConversationRepository struct {
	db *sqlx.DB
}

// NewConversationRepository creates a new PostgreSQL conversation repository
func NewConversationRepository(db *sqlx.DB) repository.ConversationRepository {
	return &ConversationRepository{db: db}
}

// legacyConversation is a first-generation row. It has no stored status;
// a linked care plan is the closure signal.
type legacyConversation struct {
	ID          string    `db:"id"`
	ClientID    string    `db:"client_id"`
	TherapistID string    `db:"therapist_id"`
	CarePlanID  *string   `db:"care_plan_id"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (l *legacyConversation) toConversation() *repository.Conversation {
	status := repository.StatusOpen
	if l.CarePlanID != nil && *l.CarePlanID != "" {
		status = repository.StatusClosed
	}
	return &repository.Conversation{
		ID:          l.ID,
		ClientID:    l.ClientID,
		TherapistID: l.TherapistID,
		Status:      status,
		CarePlanID:  l.CarePlanID,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

// Create creates a new conversation in the current table
func (r *ConversationRepository) Create(ctx context.Context, conv *repository.Conversation) error {
	if conv.ID == "" {
		conv.ID = uuid.New().String()
	}
	if conv.Status == "" {
		conv.Status = repository.StatusOpen
	}
	conv.CreatedAt = time.Now()
	conv.UpdatedAt = time.Now()

	query := `
		INSERT INTO bot_conversations (id, client_id, therapist_id, status, care_plan_id, created_at, updated_at)
		VALUES (:id, :client_id, :therapist_id, :status, :care_plan_id, :created_at, :updated_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, conv)
	return err
}

// Get retrieves a conversation by id, falling back to the first-generation
// table when the current table has no row.
func (r *ConversationRepository) Get(ctx context.Context, id string) (*repository.Conversation, error) {
	var conv repository.Conversation
	err := r.db.GetContext(ctx, &conv, `SELECT * FROM bot_conversations WHERE id = $1`, id)
	if err == nil {
		return &conv, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	var legacy legacyConversation
	err = r.db.GetContext(ctx, &legacy, `SELECT * FROM conversations WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return legacy.toConversation(), nil
}

// ListByClient returns all of a client's conversations across both schema
// generations, newest first.
func (r *ConversationRepository) ListByClient(ctx context.Context, clientID string) ([]*repository.Conversation, error) {
	var current []*repository.Conversation
	query := `SELECT * FROM bot_conversations WHERE client_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &current, query, clientID); err != nil {
		return nil, err
	}

	var legacyRows []*legacyConversation
	query = `SELECT * FROM conversations WHERE client_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &legacyRows, query, clientID); err != nil {
		return nil, err
	}

	legacy := make([]*repository.Conversation, len(legacyRows))
	for i, row := range legacyRows {
		legacy[i] = row.toConversation()
	}

	return merge.ByID(current, legacy,
		func(c *repository.Conversation) string { return c.ID },
		func(c *repository.Conversation) int64 { return c.CreatedAt.UnixNano() },
	), nil
}

// Update updates a conversation in the current table
func (r *ConversationRepository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
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

	query := "UPDATE bot_conversations SET " + setClause + " WHERE id = :id"
	_, err := r.db.NamedExecContext(ctx, query, params)
	return err
}

// Delete deletes a conversation from the current table
func (r *ConversationRepository) Delete(ctx context.Context, id string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bot_conversations WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
