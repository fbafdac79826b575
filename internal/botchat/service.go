package botchat

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/harborhealth/harbor-backend/internal/repository"
)

// ErrConversationClosed is returned when a turn is posted to a closed
// conversation.
var ErrConversationClosed = errors.New("conversation is closed")

// ErrConversationNotFound is returned when the conversation does not
// exist in either schema generation.
var ErrConversationNotFound = errors.New("conversation not found")

// Generator produces the bot's next turn from a rendered history.
type Generator interface {
	BotReply(ctx context.Context, history []string) (string, error)
}

// Turn is the outcome of posting a client message: the persisted client
// message and the bot's reply.
type Turn struct {
	UserMessage *repository.Message `json:"userMessage"`
	BotMessage  *repository.Message `json:"botMessage"`
}

// Service runs bot turns.
type Service struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	gen           Generator
	log           *logrus.Logger
}

// NewService creates a bot chat service.
func NewService(conversations repository.ConversationRepository, messages repository.MessageRepository, gen Generator, log *logrus.Logger) *Service {
	return &Service{
		conversations: conversations,
		messages:      messages,
		gen:           gen,
		log:           log,
	}
}

// PostUserTurn persists the client's message and produces the bot's
// reply. The client message is durably stored before generation is
// attempted, so a generation failure never loses it; the bot turn falls
// back to a canned reply instead.
func (s *Service) PostUserTurn(ctx context.Context, conversationID, clientID, therapistID, content string) (*Turn, error) {
	conv, err := s.conversations.Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}
	if conv.Closed() {
		return nil, ErrConversationClosed
	}

	userMsg := &repository.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		ClientID:       clientID,
		TherapistID:    therapistID,
		Role:           repository.MessageRoleUser,
		Content:        content,
	}
	if err := s.messages.Create(ctx, userMsg); err != nil {
		return nil, err
	}

	history, err := s.messages.ListByConversation(ctx, clientID, conversationID)
	if err != nil {
		// History is an input to generation, not a durability concern;
		// fall back to just the new message.
		s.log.WithError(err).Warn("failed to load conversation history for bot turn")
		history = []*repository.Message{userMsg}
	}

	reply, genErr := s.gen.BotReply(ctx, RenderTranscript(history))
	if genErr != nil {
		s.log.WithError(genErr).WithField("conversation_id", conversationID).
			Warn("bot reply generation failed, using fallback")
	}

	botMsg := &repository.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		ClientID:       clientID,
		TherapistID:    therapistID,
		Role:           repository.MessageRoleBot,
		Content:        FallbackFor(reply, genErr),
	}
	if err := s.messages.Create(ctx, botMsg); err != nil {
		return nil, err
	}

	return &Turn{UserMessage: userMsg, BotMessage: botMsg}, nil
}

// PostBotTurn persists a bot message verbatim, without generation. Used
// when the frontend replays a bot turn it already holds.
func (s *Service) PostBotTurn(ctx context.Context, conversationID, clientID, therapistID, content string) (*repository.Message, error) {
	conv, err := s.conversations.Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}
	if conv.Closed() {
		return nil, ErrConversationClosed
	}

	msg := &repository.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		ClientID:       clientID,
		TherapistID:    therapistID,
		Role:           repository.MessageRoleBot,
		Content:        content,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}
