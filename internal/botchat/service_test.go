package botchat

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/harborhealth/harbor-backend/internal/repository"
)

type fakeConversations struct {
	conv *repository.Conversation
	err  error
}

func (f *fakeConversations) Create(context.Context, *repository.Conversation) error { return nil }

func (f *fakeConversations) Get(context.Context, string) (*repository.Conversation, error) {
	return f.conv, f.err
}

func (f *fakeConversations) ListByClient(context.Context, string) ([]*repository.Conversation, error) {
	return nil, nil
}

func (f *fakeConversations) Update(context.Context, string, map[string]interface{}) error {
	return nil
}

func (f *fakeConversations) Delete(context.Context, string) (int64, error) { return 0, nil }

type fakeMessages struct {
	stored []*repository.Message
}

func (f *fakeMessages) Create(_ context.Context, msg *repository.Message) error {
	f.stored = append(f.stored, msg)
	return nil
}

func (f *fakeMessages) Get(context.Context, string, string, string) (*repository.Message, error) {
	return nil, nil
}

func (f *fakeMessages) ListByConversation(context.Context, string, string) ([]*repository.Message, error) {
	return f.stored, nil
}

func (f *fakeMessages) ListSince(context.Context, time.Time, string, string) ([]*repository.Message, error) {
	return nil, nil
}

func (f *fakeMessages) UpdateContent(context.Context, string, string, string, string) error {
	return nil
}

func (f *fakeMessages) Delete(context.Context, string, string, string) (int64, error) {
	return 0, nil
}

type fakeGenerator struct {
	reply string
	err   error
	// storedAtCall records how many messages the repo held when the
	// generator ran, to verify the client turn was persisted first.
	storedAtCall int
	history      []string
	messages     *fakeMessages
}

func (f *fakeGenerator) BotReply(_ context.Context, history []string) (string, error) {
	f.storedAtCall = len(f.messages.stored)
	f.history = history
	return f.reply, f.err
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(bytes.NewBuffer(nil))
	return log
}

func openConversation() *repository.Conversation {
	return &repository.Conversation{
		ID:          "conv1",
		ClientID:    "c1",
		TherapistID: "t1",
		Status:      repository.StatusOpen,
	}
}

func TestPostUserTurn_HappyPath(t *testing.T) {
	msgs := &fakeMessages{}
	gen := &fakeGenerator{reply: "That sounds hard.", messages: msgs}
	svc := NewService(&fakeConversations{conv: openConversation()}, msgs, gen, quietLogger())

	turn, err := svc.PostUserTurn(context.Background(), "conv1", "c1", "t1", "I feel stuck.")
	require.NoError(t, err)

	assert.Equal(t, repository.MessageRoleUser, turn.UserMessage.Role)
	assert.Equal(t, "I feel stuck.", turn.UserMessage.Content)
	assert.Equal(t, repository.MessageRoleBot, turn.BotMessage.Role)
	assert.Equal(t, "That sounds hard.", turn.BotMessage.Content)
	assert.Len(t, msgs.stored, 2)
	assert.Equal(t, []string{"User: I feel stuck."}, gen.history)
}

func TestPostUserTurn_GenerationErrorUsesFallbackAndKeepsUserTurn(t *testing.T) {
	msgs := &fakeMessages{}
	gen := &fakeGenerator{err: errors.New("provider unavailable"), messages: msgs}
	svc := NewService(&fakeConversations{conv: openConversation()}, msgs, gen, quietLogger())

	turn, err := svc.PostUserTurn(context.Background(), "conv1", "c1", "t1", "hello?")
	require.NoError(t, err)

	assert.Equal(t, FallbackError, turn.BotMessage.Content)
	// The client's turn was persisted before generation was attempted.
	assert.Equal(t, 1, gen.storedAtCall)
	require.Len(t, msgs.stored, 2)
	assert.Equal(t, "hello?", msgs.stored[0].Content)
}

func TestPostUserTurn_EmptyReplyUsesListeningFallback(t *testing.T) {
	msgs := &fakeMessages{}
	gen := &fakeGenerator{reply: "", messages: msgs}
	svc := NewService(&fakeConversations{conv: openConversation()}, msgs, gen, quietLogger())

	turn, err := svc.PostUserTurn(context.Background(), "conv1", "c1", "t1", "hi")
	require.NoError(t, err)
	assert.Equal(t, FallbackEmpty, turn.BotMessage.Content)
}

func TestPostUserTurn_ClosedConversationByStatus(t *testing.T) {
	conv := openConversation()
	conv.Status = repository.StatusClosed
	msgs := &fakeMessages{}
	svc := NewService(&fakeConversations{conv: conv}, msgs, &fakeGenerator{messages: msgs}, quietLogger())

	_, err := svc.PostUserTurn(context.Background(), "conv1", "c1", "t1", "hi")
	assert.ErrorIs(t, err, ErrConversationClosed)
	assert.Empty(t, msgs.stored)
}

func TestPostUserTurn_ClosedConversationByCarePlan(t *testing.T) {
	conv := openConversation()
	planID := "plan1"
	conv.CarePlanID = &planID
	msgs := &fakeMessages{}
	svc := NewService(&fakeConversations{conv: conv}, msgs, &fakeGenerator{messages: msgs}, quietLogger())

	_, err := svc.PostUserTurn(context.Background(), "conv1", "c1", "t1", "hi")
	assert.ErrorIs(t, err, ErrConversationClosed)
}

func TestPostUserTurn_ConversationNotFound(t *testing.T) {
	msgs := &fakeMessages{}
	svc := NewService(&fakeConversations{}, msgs, &fakeGenerator{messages: msgs}, quietLogger())

	_, err := svc.PostUserTurn(context.Background(), "missing", "c1", "t1", "hi")
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestPostBotTurn_PersistsVerbatim(t *testing.T) {
	msgs := &fakeMessages{}
	svc := NewService(&fakeConversations{conv: openConversation()}, msgs, &fakeGenerator{messages: msgs}, quietLogger())

	msg, err := svc.PostBotTurn(context.Background(), "conv1", "c1", "t1", "Welcome back.")
	require.NoError(t, err)

	assert.Equal(t, repository.MessageRoleBot, msg.Role)
	assert.Equal(t, "Welcome back.", msg.Content)
	require.Len(t, msgs.stored, 1)
}
