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

// MessageRepository implements repository.MessageRepository. The two
// schema generations share a row shape; bot_messages is current and
// messages is the first generation, readable but no longer written.
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository creates a new PostgreSQL message repository
func NewMessageRepository(db *sqlx.DB) repository.MessageRepository {
	return &MessageRepository{db: db}
}

// Create creates a new message in the current table
func (r *MessageRepository) Create(ctx context.Context, msg *repository.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO bot_messages (id, conversation_id, client_id, therapist_id, role, content, created_at)
		VALUES (:id, :conversation_id, :client_id, :therapist_id, :role, :content, :created_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, msg)
	return err
}

// Get retrieves a message, falling back to the first-generation table.
func (r *MessageRepository) Get(ctx context.Context, clientID, conversationID, messageID string) (*repository.Message, error) {
	var msg repository.Message
	query := `SELECT * FROM bot_messages WHERE client_id = $1 AND conversation_id = $2 AND id = $3`
	err := r.db.GetContext(ctx, &msg, query, clientID, conversationID, messageID)
	if err == nil {
		return &msg, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	query = `SELECT * FROM messages WHERE client_id = $1 AND conversation_id = $2 AND id = $3`
	err = r.db.GetContext(ctx, &msg, query, clientID, conversationID, messageID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

// ListByConversation returns a conversation's messages. When the current
// table has any rows only those are returned; otherwise the
// first-generation rows are returned wholesale, matching the read-through
// behavior this service has always had.
func (r *MessageRepository) ListByConversation(ctx context.Context, clientID, conversationID string) ([]*repository.Message, error) {
	var current []*repository.Message
	query := `SELECT * FROM bot_messages WHERE client_id = $1 AND conversation_id = $2 ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &current, query, clientID, conversationID); err != nil {
		return nil, err
	}

	var legacy []*repository.Message
	query = `SELECT * FROM messages WHERE client_id = $1 AND conversation_id = $2 ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &legacy, query, clientID, conversationID); err != nil {
		return nil, err
	}

	return merge.FirstNonEmpty(current, legacy), nil
}

// ListSince returns messages created at or after the given time, filtered
// by client and/or therapist when those ids are non-empty.
func (r *MessageRepository) ListSince(ctx context.Context, since time.Time, clientID, therapistID string) ([]*repository.Message, error) {
	query := `SELECT * FROM bot_messages WHERE created_at >= $1`
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

	var msgs []*repository.Message
	if err := r.db.SelectContext(ctx, &msgs, query, args...); err != nil {
		return nil, err
	}
	return msgs, nil
}

// UpdateContent updates a message's content in the current table
func (r *MessageRepository) UpdateContent(ctx context.Context, clientID, conversationID, messageID, content string) error {
	query := `UPDATE bot_messages SET content = $1 WHERE client_id = $2 AND conversation_id = $3 AND id = $4`
	_, err := r.db.ExecContext(ctx, query, content, clientID, conversationID, messageID)
	return err
}

// Delete deletes a message from the current table
func (r *MessageRepository) Delete(ctx context.Context, clientID, conversationID, messageID string) (int64, error) {
	query := `DELETE FROM bot_messages WHERE client_id = $1 AND conversation_id = $2 AND id = $3`
	result, err := r.db.ExecContext(ctx, query, clientID, conversationID, messageID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
