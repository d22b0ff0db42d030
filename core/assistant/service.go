package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/alloyapp/alloy/core"
	"github.com/alloyapp/alloy/core/note"
	"github.com/alloyapp/alloy/core/subject"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound  = core.NewNotFoundError("conversation")
	ErrAIService = errors.New("Failed to get a response from the AI assistant.")
)

type (
	// Model is a generative chat model. It receives the prior turns of the conversation and the new prompt,
	// and returns the text of its reply. One call is one attempt.
	Model interface {
		SendTurn(ctx context.Context, history []Turn, prompt string) (string, error)
	}

	Repository interface {
		// CreateConversation saves the Conversation together with its history.
		CreateConversation(ctx context.Context, conv Conversation) (Conversation, error)
		// AppendTurns adds turns at the end of the conversation's history, all or none.
		AppendTurns(ctx context.Context, userID, id string, turns ...Turn) error
		// QueryConversations lists the user's conversations, newest first.
		QueryConversations(ctx context.Context, userID string) ([]Summary, error)
		GetConversation(ctx context.Context, userID, id string) (Conversation, error)
		DeleteConversation(ctx context.Context, userID, id string) error
	}

	NoteFinder interface {
		GetNote(ctx context.Context, userID, id string) (note.Note, error)
	}

	Service struct {
		repo     Repository
		model    Model
		notes    NoteFinder
		subjects subject.Finder
		logger   core.Logger
	}
)

func NewService(repo Repository, model Model, notes NoteFinder, subjects subject.Finder, logger core.Logger) *Service {
	return &Service{
		repo:     repo,
		model:    model,
		notes:    notes,
		subjects: subjects,
		logger:   logger,
	}
}

// SendMessage forwards the message to the model within the caller's conversation and records the exchange.
// Without a ConversationID a new conversation is started; it is only saved once the model replied.
func (svc *Service) SendMessage(ctx context.Context, userID string, msg Message) (Reply, error) {
	var conv Conversation
	if msg.ConversationID != "" {
		var err error
		if conv, err = svc.repo.GetConversation(ctx, userID, msg.ConversationID); err != nil {
			if errors.Cause(err) == ErrNotFound {
				return Reply{}, err
			}
			return Reply{}, svc.failure(userID, errors.Wrap(err, "loading conversation"))
		}
	} else {
		conv = Conversation{UserID: userID, Title: newTitle(msg.Message)}
	}

	prompt, err := svc.buildPrompt(ctx, userID, msg)
	if err != nil {
		return Reply{}, svc.failure(userID, err)
	}

	reply, err := svc.model.SendTurn(ctx, conv.History, prompt)
	if err != nil {
		return Reply{}, svc.failure(userID, errors.Wrap(err, "calling model"))
	}

	now := NowFunc().UTC()
	turns := []Turn{
		{Role: RoleUser, Text: msg.Message, CreatedAt: now}, // the message as typed, never the expanded prompt
		{Role: RoleModel, Text: reply, CreatedAt: now},
	}
	if conv.ID == "" {
		conv.History = turns
		conv.CreatedAt = now
		conv.UpdatedAt = now
		if conv, err = svc.repo.CreateConversation(ctx, conv); err != nil {
			return Reply{}, svc.failure(userID, errors.Wrap(err, "creating conversation"))
		}
	} else if err = svc.repo.AppendTurns(ctx, userID, conv.ID, turns...); err != nil {
		return Reply{}, svc.failure(userID, errors.Wrap(err, "saving turns"))
	}

	return Reply{Reply: reply, ConversationID: conv.ID}, nil
}

// buildPrompt resolves the optional context into the final prompt.
// A context naming a record the caller does not have leaves the message as is.
func (svc *Service) buildPrompt(ctx context.Context, userID string, msg Message) (string, error) {
	instruction, prompt := "", msg.Message

	if c := msg.Context; c != nil {
		switch {
		case c.Type == ContextSummarize && c.NoteID != "":
			n, err := svc.notes.GetNote(ctx, userID, c.NoteID)
			switch {
			case err == nil:
				instruction = fmt.Sprintf("The user wants to summarize the following note titled \"%s\". Note Content: %s", n.Title, n.Content)
				prompt = "Please summarize the note content you were provided with."
			case errors.Cause(err) != note.ErrNotFound:
				return "", errors.Wrap(err, "loading note")
			}

		case c.Type == ContextStudyPlan && c.SubjectID != "":
			sub, err := svc.subjects.GetSubject(ctx, userID, c.SubjectID)
			switch {
			case err == nil:
				instruction = fmt.Sprintf("The user's attendance is low in %s. Your task is to act as a supportive academic advisor.", sub.Name)
				prompt = fmt.Sprintf("My attendance for %s is low and I'm struggling. Can you create a simple but effective 3-day study plan to help me catch up? Please be encouraging.", sub.Name)
			case errors.Cause(err) != subject.ErrNotFound:
				return "", errors.Wrap(err, "loading subject")
			}
		}
	}

	if instruction == "" {
		return prompt, nil
	}
	return instruction + "\n\n" + prompt, nil
}

func (svc *Service) failure(userID string, err error) error {
	svc.logger.Error(fmt.Sprintf("assistant: user %s: %v", userID, err), err)
	return errors.Wrap(ErrAIService, err.Error())
}

func (svc *Service) List(ctx context.Context, userID string) ([]Summary, error) {
	return svc.repo.QueryConversations(ctx, userID)
}

func (svc *Service) Get(ctx context.Context, userID, id string) (Conversation, error) {
	return svc.repo.GetConversation(ctx, userID, id)
}

func (svc *Service) Delete(ctx context.Context, userID, id string) error {
	return svc.repo.DeleteConversation(ctx, userID, id)
}
