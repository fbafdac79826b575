package repository

import (
	"context"
	"time"
)

// User roles
const (
	RoleClient    = "client"
	RoleTherapist = "therapist"
	RoleAdmin     = "admin"
)

// Conversation statuses
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Message roles
const (
	MessageRoleUser = "user"
	MessageRoleBot  = "bot"
)

// Homework statuses
const (
	HomeworkPending   = "pending"
	HomeworkCompleted = "completed"
	HomeworkArchived  = "archived"
)

// User represents an account: a client, a therapist, or an admin.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	Role         string    `db:"role" json:"role"`
	TherapistID  *string   `db:"therapist_id" json:"therapist_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Conversation is a bot conversation between a client and the therapeutic
// bot, scoped to the client's therapist. Rows can come from either schema
// generation; first-generation rows have no stored status and derive it
// from the presence of a linked care plan.
type Conversation struct {
	ID          string    `db:"id" json:"id"`
	ClientID    string    `db:"client_id" json:"client_id"`
	TherapistID string    `db:"therapist_id" json:"therapist_id"`
	Status      string    `db:"status" json:"status"`
	CarePlanID  *string   `db:"care_plan_id" json:"care_plan_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Closed reports whether the conversation accepts new messages. A linked
// care plan closes a conversation even when the stored status is stale;
// first-generation rows only ever signal closure this way.
func (c *Conversation) Closed() bool {
	return c.Status == StatusClosed || (c.CarePlanID != nil && *c.CarePlanID != "")
}

// Message is one turn in a conversation, identical across both schema
// generations. Append-only except for explicit content updates.
type Message struct {
	ID             string    `db:"id" json:"id"`
	ConversationID string    `db:"conversation_id" json:"conversation_id"`
	ClientID       string    `db:"client_id" json:"client_id"`
	TherapistID    string    `db:"therapist_id" json:"therapist_id"`
	Role           string    `db:"role" json:"role"`
	Content        string    `db:"content" json:"content"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// CarePlan is a treatment plan for a client, either written by the
// therapist or generated from conversation history.
type CarePlan struct {
	ID             string    `db:"id" json:"id"`
	ClientID       string    `db:"client_id" json:"client_id"`
	TherapistID    string    `db:"therapist_id" json:"therapist_id"`
	ConversationID *string   `db:"conversation_id" json:"conversation_id"`
	Name           *string   `db:"name" json:"name"`
	Description    string    `db:"description" json:"description"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Homework is an assignment from a therapist to a client.
type Homework struct {
	ID          string    `db:"id" json:"id"`
	ClientID    string    `db:"client_id" json:"client_id"`
	TherapistID string    `db:"therapist_id" json:"therapist_id"`
	Title       string    `db:"title" json:"title"`
	Prompt      string    `db:"prompt" json:"prompt"`
	Response    *string   `db:"response" json:"response"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Recording is an ingested meeting recording. Transcript and analysis are
// filled in after the fact and may stay empty indefinitely.
type Recording struct {
	ID          string    `db:"id" json:"id"`
	ClientID    string    `db:"client_id" json:"client_id"`
	TherapistID string    `db:"therapist_id" json:"therapist_id"`
	StorageURL  string    `db:"storage_url" json:"storage_url"`
	Transcript  *string   `db:"transcript" json:"transcript"`
	Analysis    string    `db:"analysis" json:"analysis"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// UserRepository defines account storage operations
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	ListTherapists(ctx context.Context) ([]*User, error)
	GetTherapistByEmail(ctx context.Context, email string) (*User, error)
	ListClients(ctx context.Context, therapistID string) ([]*User, error)
	LinkClient(ctx context.Context, therapistID, clientID string) error
	Update(ctx context.Context, id string, updates map[string]interface{}) error
	Delete(ctx context.Context, id string) error
}

// ConversationRepository defines conversation storage operations across
// both schema generations. Reads consult the current table and the
// first-generation table; writes go to the current table only.
type ConversationRepository interface {
	Create(ctx context.Context, conv *Conversation) error
	Get(ctx context.Context, id string) (*Conversation, error)
	ListByClient(ctx context.Context, clientID string) ([]*Conversation, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) error
	Delete(ctx context.Context, id string) (int64, error)
}

// MessageRepository defines message storage operations across both schema
// generations.
type MessageRepository interface {
	Create(ctx context.Context, msg *Message) error
	Get(ctx context.Context, clientID, conversationID, messageID string) (*Message, error)
	ListByConversation(ctx context.Context, clientID, conversationID string) ([]*Message, error)
	ListSince(ctx context.Context, since time.Time, clientID, therapistID string) ([]*Message, error)
	UpdateContent(ctx context.Context, clientID, conversationID, messageID, content string) error
	Delete(ctx context.Context, clientID, conversationID, messageID string) (int64, error)
}

// CarePlanRepository defines care plan storage operations
type CarePlanRepository interface {
	Create(ctx context.Context, plan *CarePlan) error
	Get(ctx context.Context, id string) (*CarePlan, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) error
	Delete(ctx context.Context, id string) (int64, error)
}

// HomeworkRepository defines homework storage operations
type HomeworkRepository interface {
	Create(ctx context.Context, hw *Homework) error
	Get(ctx context.Context, clientID, therapistID, id string) (*Homework, error)
	List(ctx context.Context, clientID, therapistID string) ([]*Homework, error)
	ListSince(ctx context.Context, since time.Time, clientID, therapistID string) ([]*Homework, error)
	Update(ctx context.Context, clientID, therapistID, id string, updates map[string]interface{}) error
	Delete(ctx context.Context, clientID, therapistID, id string) (int64, error)
}

// RecordingRepository defines recording metadata storage operations
type RecordingRepository interface {
	Create(ctx context.Context, rec *Recording) error
	Get(ctx context.Context, id string) (*Recording, error)
	ListByPair(ctx context.Context, clientID, therapistID string) ([]*Recording, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) error
	Delete(ctx context.Context, id string) (int64, error)
}
