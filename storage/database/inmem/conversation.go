package inmemdb

import (
	"context"

	"github.com/alloyapp/alloy/core/assistant"
)

type conversationRepository struct {
	db *DB
}

var _ assistant.Repository = (*conversationRepository)(nil)

func NewConversationRepository(db *DB) assistant.Repository {
	return &conversationRepository{db: db}
}

func copyHistory(turns []assistant.Turn) []assistant.Turn {
	return append(make([]assistant.Turn, 0, len(turns)), turns...)
}

func (repo *conversationRepository) CreateConversation(_ context.Context, conv assistant.Conversation) (assistant.Conversation, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	conv.ID = newID()
	conv.History = copyHistory(conv.History)
	repo.db.conversations.insert(conv.ID, conv)
	return conv, nil
}

func (repo *conversationRepository) AppendTurns(_ context.Context, userID, id string, turns ...assistant.Turn) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	conv, ok := repo.db.conversations.get(id)
	if !ok || conv.UserID != userID {
		return assistant.ErrNotFound
	}
	conv.History = append(copyHistory(conv.History), turns...)
	if n := len(turns); n > 0 {
		conv.UpdatedAt = turns[n-1].CreatedAt
	}
	repo.db.conversations.update(id, conv)
	return nil
}

func (repo *conversationRepository) QueryConversations(_ context.Context, userID string) ([]assistant.Summary, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	convs := reverse(repo.db.conversations.filter(func(c assistant.Conversation) bool { return c.UserID == userID }))
	summaries := make([]assistant.Summary, 0, len(convs))
	for _, c := range convs {
		summaries = append(summaries, assistant.Summary{ID: c.ID, Title: c.Title, CreatedAt: c.CreatedAt})
	}
	return summaries, nil
}

func (repo *conversationRepository) GetConversation(_ context.Context, userID, id string) (assistant.Conversation, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if conv, ok := repo.db.conversations.get(id); ok && conv.UserID == userID {
		conv.History = copyHistory(conv.History)
		return conv, nil
	}
	return assistant.Conversation{}, assistant.ErrNotFound
}

func (repo *conversationRepository) DeleteConversation(_ context.Context, userID, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if conv, ok := repo.db.conversations.get(id); !ok || conv.UserID != userID {
		return assistant.ErrNotFound
	}
	repo.db.conversations.deleteWhere(func(c assistant.Conversation) bool { return c.ID == id })
	return nil
}
