package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/alloyapp/alloy/core/assistant"
	"github.com/alloyapp/alloy/storage/database"
)

const conversationColumns = "id, user_id, title, created_at, updated_at"

type conversationRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Title     string    `db:"title"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type turnRow struct {
	Role      string    `db:"role"`
	Text      string    `db:"text"`
	CreatedAt time.Time `db:"created_at"`
}

type conversationRepository struct {
	db *sqlx.DB
}

var _ assistant.Repository = (*conversationRepository)(nil)

func NewConversationRepository(db *sqlx.DB) assistant.Repository {
	return &conversationRepository{db: db}
}

func insertTurns(ctx context.Context, tx *sqlx.Tx, convID string, turns []assistant.Turn) error {
	q := "INSERT INTO conversation_turns (conversation_id, role, text, created_at) VALUES ($1, $2, $3, $4)"
	for _, t := range turns {
		if _, err := tx.ExecContext(ctx, q, convID, t.Role, t.Text, t.CreatedAt); err != nil {
			return errors.Wrap(err, "inserting turn")
		}
	}
	return nil
}

func (repo *conversationRepository) CreateConversation(ctx context.Context, conv assistant.Conversation) (assistant.Conversation, error) {
	conv.ID = newID()
	err := database.WithTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		q := "INSERT INTO conversations (" + conversationColumns + ") VALUES ($1, $2, $3, $4, $5)"
		if _, err := tx.ExecContext(ctx, q, conv.ID, conv.UserID, conv.Title, conv.CreatedAt, conv.UpdatedAt); err != nil {
			return errors.Wrap(err, "inserting conversation")
		}
		return insertTurns(ctx, tx, conv.ID, conv.History)
	})
	if err != nil {
		return assistant.Conversation{}, err
	}
	return conv, nil
}

func (repo *conversationRepository) AppendTurns(ctx context.Context, userID, id string, turns ...assistant.Turn) error {
	if !validID(id) {
		return assistant.ErrNotFound
	}
	return database.WithTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		var found string
		q := "SELECT id FROM conversations WHERE id = $1 AND user_id = $2 FOR UPDATE"
		if err := tx.GetContext(ctx, &found, q, id, userID); err != nil {
			return errors.Wrap(trapNoRowsErr(err, assistant.ErrNotFound), "locking conversation")
		}
		if err := insertTurns(ctx, tx, id, turns); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "UPDATE conversations SET updated_at = $2 WHERE id = $1", id, time.Now().UTC()); err != nil {
			return errors.Wrap(err, "touching conversation")
		}
		return nil
	})
}

func (repo *conversationRepository) QueryConversations(ctx context.Context, userID string) ([]assistant.Summary, error) {
	var rows []conversationRow
	q := "SELECT " + conversationColumns + " FROM conversations WHERE user_id = $1 ORDER BY created_at DESC, id"
	if err := repo.db.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, errors.Wrap(err, "selecting conversations")
	}
	convs := make([]assistant.Summary, 0, len(rows))
	for _, r := range rows {
		convs = append(convs, assistant.Summary{ID: r.ID, Title: r.Title, CreatedAt: r.CreatedAt.UTC()})
	}
	return convs, nil
}

func (repo *conversationRepository) GetConversation(ctx context.Context, userID, id string) (assistant.Conversation, error) {
	if !validID(id) {
		return assistant.Conversation{}, assistant.ErrNotFound
	}
	var r conversationRow
	q := "SELECT " + conversationColumns + " FROM conversations WHERE id = $1 AND user_id = $2"
	if err := repo.db.GetContext(ctx, &r, q, id, userID); err != nil {
		return assistant.Conversation{}, errors.Wrap(trapNoRowsErr(err, assistant.ErrNotFound), "getting conversation")
	}

	var turns []turnRow
	q = "SELECT role, text, created_at FROM conversation_turns WHERE conversation_id = $1 ORDER BY id"
	if err := repo.db.SelectContext(ctx, &turns, q, id); err != nil {
		return assistant.Conversation{}, errors.Wrap(err, "selecting turns")
	}

	conv := assistant.Conversation{
		ID:        r.ID,
		UserID:    r.UserID,
		Title:     r.Title,
		History:   make([]assistant.Turn, 0, len(turns)),
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
	for _, t := range turns {
		conv.History = append(conv.History, assistant.Turn{Role: t.Role, Text: t.Text, CreatedAt: t.CreatedAt.UTC()})
	}
	return conv, nil
}

func (repo *conversationRepository) DeleteConversation(ctx context.Context, userID, id string) error {
	if !validID(id) {
		return assistant.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, "DELETE FROM conversations WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return errors.Wrap(err, "deleting conversation")
	}
	return checkAffected(res, assistant.ErrNotFound)
}
