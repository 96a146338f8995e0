package domain

// Sender identifies who produced a conversation turn.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// ChatMessage is one turn in the conversation log. The log is append-only
// from the core's perspective; the host persists and renders it.
type ChatMessage struct {
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}
