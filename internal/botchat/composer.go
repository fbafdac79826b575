// Package botchat orchestrates a bot turn: persist the client's message,
// assemble the conversation history, ask the generative-text provider for
// a reply, and persist the bot's message with a canned fallback when
// generation fails.
package botchat

import (
	"github.com/harborhealth/harbor-backend/internal/repository"
)

// BotName is the persona label used in rendered transcripts.
const BotName = "Harbor"

// Fallback replies. The conversation is never left without a bot turn.
const (
	FallbackEmpty = "I'm here to listen. Could you tell me more?"
	FallbackError = "I'm having trouble responding right now. Please try again in a moment."
)

// RenderTranscript renders messages as prompt lines, oldest first:
// "User: ..." for client turns and "Harbor: ..." for bot turns.
func RenderTranscript(msgs []*repository.Message) []string {
	lines := make([]string, len(msgs))
	for i, msg := range msgs {
		if msg.Role == repository.MessageRoleUser {
			lines[i] = "User: " + msg.Content
		} else {
			lines[i] = BotName + ": " + msg.Content
		}
	}
	return lines
}

// FallbackFor maps a generation outcome to the content of the bot turn.
// Any error yields the error fallback; an empty reply yields the listening
// fallback; otherwise the reply passes through.
func FallbackFor(reply string, err error) string {
	if err != nil {
		return FallbackError
	}
	if reply == "" {
		return FallbackEmpty
	}
	return reply
}
