package assistant

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/alloyapp/alloy/core"
)

const (
	RoleUser  = "user"
	RoleModel = "model"

	ContextSummarize = "summarize"
	ContextStudyPlan = "create_study_plan"

	titleMaxLen = 30
)

type (
	Turn struct {
		Role      string    `json:"role"`
		Text      string    `json:"text"`
		CreatedAt time.Time `json:"createdAt"` // UTC
	}

	Conversation struct {
		ID        string    `json:"id"`
		UserID    string    `json:"userId"`
		Title     string    `json:"title"`
		History   []Turn    `json:"history"`
		CreatedAt time.Time `json:"createdAt"` // UTC
		UpdatedAt time.Time `json:"updatedAt"` // UTC
	}

	// Summary is how conversations are listed.
	Summary struct {
		ID        string    `json:"id"`
		Title     string    `json:"title"`
		CreatedAt time.Time `json:"createdAt"`
	}
)

// Context asks for the message to be replaced by a prompt built from one of the caller's records.
type Context struct {
	Type      string `json:"type"`
	NoteID    string `json:"noteId"`
	SubjectID string `json:"subjectId"`
}

type Message struct {
	ConversationID string   `json:"conversationId"`
	Message        string   `json:"message" validate:"required"`
	Context        *Context `json:"context"`
}

func (m *Message) Validate(validate *validator.Validate) error {
	m.ConversationID = core.CleanString(m.ConversationID)
	if core.CleanString(m.Message) == "" {
		m.Message = ""
	}
	return validate.Struct(m)
}

type Reply struct {
	Reply          string `json:"reply"`
	ConversationID string `json:"conversationId"`
}

func newTitle(message string) string {
	return core.Truncate(message, titleMaxLen, "...")
}
