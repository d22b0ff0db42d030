package document

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/alloyapp/alloy/core"
	"github.com/alloyapp/alloy/core/subject"
)

const defaultFileType = "application/octet-stream"

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound = core.NewNotFoundError("document")
)

type (
	Repository interface {
		CreateDocument(ctx context.Context, doc Document) (Document, error)
		// QueryDocuments lists the user's documents on a subject, newest first.
		QueryDocuments(ctx context.Context, userID, subjectID string) ([]Document, error)
		GetDocument(ctx context.Context, userID, id string) (Document, error)
		DeleteDocument(ctx context.Context, userID, id string) error
	}

	// FileStore holds the content of uploaded documents.
	FileStore interface {
		// Save stores the content under a fresh unique name keeping the extension of `name`.
		Save(ctx context.Context, name string, r io.Reader) (path string, size int64, err error)
		Open(path string) (io.ReadCloser, error)
		Remove(path string) error
	}

	Service struct {
		repo     Repository
		files    FileStore
		subjects subject.Finder
		logger   core.Logger
	}
)

func NewService(repo Repository, files FileStore, subjects subject.Finder, logger core.Logger) *Service {
	return &Service{repo: repo, files: files, subjects: subjects, logger: logger}
}

// Upload stores the content read from r and records its metadata.
func (svc *Service) Upload(ctx context.Context, userID string, nd NewDocument, r io.Reader) (Document, error) {
	if _, err := subject.CheckOwned(ctx, svc.subjects, userID, nd.SubjectID); err != nil {
		return Document{}, err
	}

	path, size, err := svc.files.Save(ctx, filepath.Base(nd.FileName), r)
	if err != nil {
		return Document{}, errors.Wrap(err, "storing file")
	}

	now := NowFunc().UTC()
	doc, err := svc.repo.CreateDocument(ctx, Document{
		UserID:    userID,
		SubjectID: nd.SubjectID,
		FileName:  nd.FileName,
		FilePath:  path,
		FileType:  nd.FileType,
		Size:      size,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		svc.removeFile(path)
		return Document{}, errors.Wrap(err, "saving document")
	}
	return doc, nil
}

func (svc *Service) ListBySubject(ctx context.Context, userID, subjectID string) ([]Document, error) {
	return svc.repo.QueryDocuments(ctx, userID, subjectID)
}

func (svc *Service) Get(ctx context.Context, userID, id string) (Document, error) {
	return svc.repo.GetDocument(ctx, userID, id)
}

// Open returns the content of doc. The caller closes it.
func (svc *Service) Open(doc Document) (io.ReadCloser, error) {
	rc, err := svc.files.Open(doc.FilePath)
	if err != nil {
		return nil, errors.Wrap(err, "opening document file")
	}
	return rc, nil
}

// Delete removes the metadata first, then the stored file (best effort).
func (svc *Service) Delete(ctx context.Context, doc Document) error {
	if err := svc.repo.DeleteDocument(ctx, doc.UserID, doc.ID); err != nil {
		return err
	}
	svc.removeFile(doc.FilePath)
	return nil
}

func (svc *Service) removeFile(path string) {
	if err := svc.files.Remove(path); err != nil {
		svc.logger.Error(fmt.Sprintf("removing document file %q: %v", path, err), err)
	}
}
