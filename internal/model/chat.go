package model

// Role of a chat message author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one turn in the chat transcript. An assistant message is
// created empty and pending, filled while the answer streams in, then settled.
type ChatMessage struct {
	ID        string `json:"id"`
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	IsPending bool   `json:"isPending"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Question string `json:"question" validate:"required,min=2"`
}
