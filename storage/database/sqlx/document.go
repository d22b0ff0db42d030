package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/alloyapp/alloy/core/document"
)

const documentColumns = "id, user_id, subject_id, file_name, file_path, file_type, size, created_at, updated_at"

type documentRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	SubjectID string    `db:"subject_id"`
	FileName  string    `db:"file_name"`
	FilePath  string    `db:"file_path"`
	FileType  string    `db:"file_type"`
	Size      int64     `db:"size"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r documentRow) unboil() document.Document {
	doc := document.Document(r)
	doc.CreatedAt = doc.CreatedAt.UTC()
	doc.UpdatedAt = doc.UpdatedAt.UTC()
	return doc
}

type documentRepository struct {
	db *sqlx.DB
}

var _ document.Repository = (*documentRepository)(nil)

func NewDocumentRepository(db *sqlx.DB) document.Repository {
	return &documentRepository{db: db}
}

func (repo *documentRepository) CreateDocument(ctx context.Context, doc document.Document) (document.Document, error) {
	doc.ID = newID()
	q := "INSERT INTO documents (" + documentColumns + ") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)"
	_, err := repo.db.ExecContext(ctx, q,
		doc.ID, doc.UserID, doc.SubjectID, doc.FileName, doc.FilePath, doc.FileType, doc.Size, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return document.Document{}, errors.Wrap(err, "inserting document")
	}
	return doc, nil
}

func (repo *documentRepository) QueryDocuments(ctx context.Context, userID, subjectID string) ([]document.Document, error) {
	if !validID(subjectID) {
		return []document.Document{}, nil
	}
	var rows []documentRow
	q := "SELECT " + documentColumns + " FROM documents WHERE user_id = $1 AND subject_id = $2 ORDER BY created_at DESC, id"
	if err := repo.db.SelectContext(ctx, &rows, q, userID, subjectID); err != nil {
		return nil, errors.Wrap(err, "selecting documents")
	}
	docs := make([]document.Document, 0, len(rows))
	for _, r := range rows {
		docs = append(docs, r.unboil())
	}
	return docs, nil
}

func (repo *documentRepository) GetDocument(ctx context.Context, userID, id string) (document.Document, error) {
	if !validID(id) {
		return document.Document{}, document.ErrNotFound
	}
	var r documentRow
	q := "SELECT " + documentColumns + " FROM documents WHERE id = $1 AND user_id = $2"
	if err := repo.db.GetContext(ctx, &r, q, id, userID); err != nil {
		return document.Document{}, errors.Wrap(trapNoRowsErr(err, document.ErrNotFound), "getting document")
	}
	return r.unboil(), nil
}

func (repo *documentRepository) DeleteDocument(ctx context.Context, userID, id string) error {
	if !validID(id) {
		return document.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, "DELETE FROM documents WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return errors.Wrap(err, "deleting document")
	}
	return checkAffected(res, document.ErrNotFound)
}
