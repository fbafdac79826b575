package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborhealth/harbor-backend/internal/api/middleware"
	"github.com/harborhealth/harbor-backend/internal/botchat"
	"github.com/harborhealth/harbor-backend/internal/repository"
	"github.com/harborhealth/harbor-backend/internal/services"
)

type stubConversations struct {
	conv *repository.Conversation
}

func (s *stubConversations) Create(ctx context.Context, conv *repository.Conversation) error {
	return nil
}

func (s *stubConversations) Get(ctx context.Context, id string) (*repository.Conversation, error) {
	if s.conv != nil && s.conv.ID == id {
		return s.conv, nil
	}
	return nil, nil
}

func (s *stubConversations) ListByClient(ctx context.Context, clientID string) ([]*repository.Conversation, error) {
	return nil, nil
}

func (s *stubConversations) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	return nil
}

func (s *stubConversations) Delete(ctx context.Context, id string) (int64, error) { return 0, nil }

type stubMessages struct {
	stored []*repository.Message
}

func (s *stubMessages) Create(ctx context.Context, msg *repository.Message) error {
	s.stored = append(s.stored, msg)
	return nil
}

func (s *stubMessages) Get(ctx context.Context, clientID, conversationID, messageID string) (*repository.Message, error) {
	return nil, nil
}

func (s *stubMessages) ListByConversation(ctx context.Context, clientID, conversationID string) ([]*repository.Message, error) {
	return s.stored, nil
}

func (s *stubMessages) ListSince(ctx context.Context, since time.Time, clientID, therapistID string) ([]*repository.Message, error) {
	return nil, nil
}

func (s *stubMessages) UpdateContent(ctx context.Context, clientID, conversationID, messageID, content string) error {
	return nil
}

func (s *stubMessages) Delete(ctx context.Context, clientID, conversationID, messageID string) (int64, error) {
	return 0, nil
}

type stubGenerator struct {
	reply string
}

func (s *stubGenerator) BotReply(ctx context.Context, history []string) (string, error) {
	return s.reply, nil
}

func newMessageApp(conv *repository.Conversation) (*fiber.App, *stubMessages) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	convs := &stubConversations{conv: conv}
	msgs := &stubMessages{}

	svc := &services.Services{
		Log:           log,
		Conversations: convs,
		Messages:      msgs,
		Bot:           botchat.NewService(convs, msgs, &stubGenerator{reply: "That sounds hard."}, log),
	}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_context", &middleware.UserContext{
			UserID:      conv.ClientID,
			Role:        repository.RoleClient,
			TherapistID: conv.TherapistID,
		})
		return c.Next()
	})
	app.Post("/api/v1/conversations/:id/messages", CreateMessage(svc))
	return app, msgs
}

func postMessage(t *testing.T, app *fiber.App, body string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/v1/conversations/conv1/messages", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestCreateMessageClosedConversationForbidden(t *testing.T) {
	app, msgs := newMessageApp(&repository.Conversation{
		ID:          "conv1",
		ClientID:    "c1",
		TherapistID: "t1",
		Status:      repository.StatusClosed,
	})

	status, _ := postMessage(t, app, `{"role":"user","content":"hello"}`)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Empty(t, msgs.stored)

	status, _ = postMessage(t, app, `{"role":"bot","content":"hello"}`)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Empty(t, msgs.stored)
}

func TestCreateMessageCarePlanClosesConversation(t *testing.T) {
	planID := "plan1"
	app, msgs := newMessageApp(&repository.Conversation{
		ID:          "conv1",
		ClientID:    "c1",
		TherapistID: "t1",
		Status:      repository.StatusOpen,
		CarePlanID:  &planID,
	})

	status, _ := postMessage(t, app, `{"role":"user","content":"hello"}`)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Empty(t, msgs.stored)
}

func TestCreateMessageUserTurnCreated(t *testing.T) {
	app, msgs := newMessageApp(&repository.Conversation{
		ID:          "conv1",
		ClientID:    "c1",
		TherapistID: "t1",
		Status:      repository.StatusOpen,
	})

	status, body := postMessage(t, app, `{"role":"user","content":"I feel stuck."}`)
	assert.Equal(t, fiber.StatusCreated, status)

	var turn botchat.Turn
	require.NoError(t, json.Unmarshal(body, &turn))
	assert.Equal(t, "I feel stuck.", turn.UserMessage.Content)
	assert.Equal(t, "That sounds hard.", turn.BotMessage.Content)
	assert.Len(t, msgs.stored, 2)
}

func TestCreateMessageBotTurnVerbatim(t *testing.T) {
	app, msgs := newMessageApp(&repository.Conversation{
		ID:          "conv1",
		ClientID:    "c1",
		TherapistID: "t1",
		Status:      repository.StatusOpen,
	})

	status, body := postMessage(t, app, `{"role":"bot","content":"Take a slow breath."}`)
	assert.Equal(t, fiber.StatusOK, status)

	var msg repository.Message
	require.NoError(t, json.Unmarshal(body, &msg))
	assert.Equal(t, repository.MessageRoleBot, msg.Role)
	assert.Equal(t, "Take a slow breath.", msg.Content)
	require.Len(t, msgs.stored, 1)
	assert.Equal(t, "Take a slow breath.", msgs.stored[0].Content)
}
