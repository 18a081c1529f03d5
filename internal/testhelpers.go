package internal

import (
	"time"
)

// testEpochMillis is 2025-03-04 10:00:00 UTC
const testEpochMillis int64 = 1741082400000

// CreateTestSession creates a test session with one answered question
func CreateTestSession(id string) *ChatSession {
	return CreateTestSessionWithMessages(id, []Message{
		NewMessage(RoleUser, "What does the contract say about renewal?", time.UnixMilli(testEpochMillis)),
		NewMessage(RoleBot, "It renews **automatically** every 12 months.", time.UnixMilli(testEpochMillis+1500)),
	})
}

// CreateTestSessionWithMessages creates a test session with custom messages.
// The title is derived from the first user message.
func CreateTestSessionWithMessages(id string, messages []Message) *ChatSession {
	s := ChatSession{
		ID:        id,
		Title:     DefaultTitle,
		CreatedAt: testEpochMillis,
		UpdatedAt: testEpochMillis + int64(len(messages)),
		Messages:  messages,
	}
	s = withDerivedTitle(s)
	return &s
}
