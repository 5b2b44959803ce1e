package history

import "time"

// Entry is one transcript line: a message as it was appended to the conversation.
type Entry struct {
	ID           int64     `json:"id"`
	SessionID    string    `json:"session_id"`
	Conversation uint64    `json:"conversation"`
	MessageID    int64     `json:"message_id"`
	Role         string    `json:"role"`
	Content      string    `json:"content"`
	ResponseID   *int64    `json:"response_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Rating is the outcome of one feedback submission.
type Rating struct {
	SessionID    string    `json:"session_id"`
	Conversation uint64    `json:"conversation"`
	MessageID    int64     `json:"message_id"`
	State        string    `json:"state"`
	Helpful      bool      `json:"helpful"`
	CreatedAt    time.Time `json:"created_at"`
}
