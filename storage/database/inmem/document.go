package inmemdb

import (
	"context"

	"github.com/alloyapp/alloy/core/document"
)

type documentRepository struct {
	db *DB
}

var _ document.Repository = (*documentRepository)(nil)

func NewDocumentRepository(db *DB) document.Repository {
	return &documentRepository{db: db}
}

func (repo *documentRepository) CreateDocument(_ context.Context, doc document.Document) (document.Document, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	doc.ID = newID()
	repo.db.documents.insert(doc.ID, doc)
	return doc, nil
}

func (repo *documentRepository) QueryDocuments(_ context.Context, userID, subjectID string) ([]document.Document, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	return reverse(repo.db.documents.filter(func(d document.Document) bool {
		return d.UserID == userID && d.SubjectID == subjectID
	})), nil
}

func (repo *documentRepository) GetDocument(_ context.Context, userID, id string) (document.Document, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if doc, ok := repo.db.documents.get(id); ok && doc.UserID == userID {
		return doc, nil
	}
	return document.Document{}, document.ErrNotFound
}

func (repo *documentRepository) DeleteDocument(_ context.Context, userID, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if doc, ok := repo.db.documents.get(id); !ok || doc.UserID != userID {
		return document.ErrNotFound
	}
	repo.db.documents.deleteWhere(func(d document.Document) bool { return d.ID == id })
	return nil
}
