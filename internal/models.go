package internal

import (
	"encoding/json"
	"time"
)

// Message roles
const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// DisplayTimeFormat is the format of Message.Time.
const DisplayTimeFormat = "1/2/2006, 3:04:05 PM"

// Message is one entry in a session's log. ID is set only while the message
// is a pending placeholder; committed messages never carry one.
type Message struct {
	Role string `json:"role" yaml:"role"`
	Text string `json:"text" yaml:"text"`
	Time string `json:"time" yaml:"time"`
	ID   string `json:"id,omitempty" yaml:"id,omitempty"`
}

// IsPending reports whether m is an unresolved placeholder
func (m Message) IsPending() bool {
	return m.ID != ""
}

// ChatSession is one persisted conversation thread
type ChatSession struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	CreatedAt int64     `json:"createdAt" yaml:"created_at"`
	UpdatedAt int64     `json:"updatedAt" yaml:"updated_at"`
	Messages  []Message `json:"messages" yaml:"messages"`
}

// GetCreatedAt returns CreatedAt as a time.Time
func (s ChatSession) GetCreatedAt() time.Time {
	return time.UnixMilli(s.CreatedAt)
}

// GetUpdatedAt returns UpdatedAt as a time.Time
func (s ChatSession) GetUpdatedAt() time.Time {
	return time.UnixMilli(s.UpdatedAt)
}

// clone copies the message slice so callers can't alias stored state.
func (s ChatSession) clone() ChatSession {
	out := s
	out.Messages = append([]Message(nil), s.Messages...)
	return out
}

// NewMessage builds a committed message stamped with t.
func NewMessage(role, text string, t time.Time) Message {
	return Message{Role: role, Text: text, Time: FormatDisplayTime(t)}
}

// FormatDisplayTime formats t the way message timestamps are shown.
func FormatDisplayTime(t time.Time) string {
	return t.Local().Format(DisplayTimeFormat)
}

// decodeSessions parses the persisted collection. Malformed data yields an
// empty collection and a *ParseError for the caller to log.
func decodeSessions(raw string) ([]ChatSession, error) {
	if raw == "" {
		return nil, nil
	}
	var sessions []ChatSession
	if err := json.Unmarshal([]byte(raw), &sessions); err != nil {
		return nil, &ParseError{Source: "sessions", Key: SessionsKey, Err: err}
	}
	valid := sessions[:0]
	for _, s := range sessions {
		if s.ID == "" {
			continue
		}
		if s.Messages == nil {
			s.Messages = []Message{}
		}
		valid = append(valid, s)
	}
	return valid, nil
}

// decodeLegacyHistory parses the old single-thread message list.
func decodeLegacyHistory(raw string) ([]Message, error) {
	if raw == "" {
		return nil, nil
	}
	var msgs []Message
	if err := json.Unmarshal([]byte(raw), &msgs); err != nil {
		return nil, &ParseError{Source: "legacy", Key: LegacyHistoryKey, Err: err}
	}
	return msgs, nil
}
