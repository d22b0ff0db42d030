package inmemdb

import (
	"context"
	"strings"

	"github.com/alloyapp/alloy/core/assistant"
	"github.com/alloyapp/alloy/core/attendance"
	"github.com/alloyapp/alloy/core/document"
	"github.com/alloyapp/alloy/core/note"
	"github.com/alloyapp/alloy/core/subject"
	"github.com/alloyapp/alloy/core/task"
	"github.com/alloyapp/alloy/core/timetable"
	"github.com/alloyapp/alloy/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckUniqueness(_ context.Context, username, email string, excludedIDs ...string) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.checkUniqueness(username, email, excludedIDs...)
}

// checkUniqueness expects the caller to hold the lock.
func (repo *userRepository) checkUniqueness(username, email string, excludedIDs ...string) error {
	excluded := make(map[string]bool, len(excludedIDs))
	for _, id := range excludedIDs {
		excluded[id] = true
	}
	for _, usr := range repo.db.users.filter(func(u user.User) bool { return !excluded[u.ID] }) {
		if usr.Username == username {
			return user.ErrUsernameExists
		}
		if usr.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if err := repo.checkUniqueness(usr.Username, usr.Email); err != nil {
		return user.User{}, err
	}

	usr.ID = newID()
	repo.db.users.insert(usr.ID, usr)
	return usr, nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var match func(user.User) bool
	switch {
	case filter.ID != "":
		match = func(u user.User) bool { return u.ID == filter.ID }
	case filter.Email != "":
		email := strings.ToLower(filter.Email)
		match = func(u user.User) bool { return u.Email == email }
	case filter.UsernameOrEmail != "":
		match = func(u user.User) bool {
			return u.Username == filter.UsernameOrEmail || u.Email == strings.ToLower(filter.UsernameOrEmail)
		}
	case filter.ResetTokenHash != "":
		match = func(u user.User) bool { return u.ResetTokenHash.Valid && u.ResetTokenHash.String == filter.ResetTokenHash }
	default:
		return user.User{}, user.ErrNotFound
	}

	if users := repo.db.users.filter(match); len(users) > 0 {
		return users[0], nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if err := repo.checkUniqueness(usr.Username, usr.Email, usr.ID); err != nil {
		return user.User{}, err
	}

	if !repo.db.users.update(usr.ID, usr) {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo *userRepository) DeleteUser(_ context.Context, id string) ([]string, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.users.get(id); !ok {
		return nil, user.ErrNotFound
	}

	owned := func(userID string) bool { return userID == id }
	repo.db.notes.deleteWhere(func(n note.Note) bool { return owned(n.UserID) })
	repo.db.tasks.deleteWhere(func(t task.Task) bool { return owned(t.UserID) })
	repo.db.attendance.deleteWhere(func(r attendance.Record) bool { return owned(r.UserID) })
	repo.db.timetable.deleteWhere(func(e timetable.Entry) bool { return owned(e.UserID) })
	docs := repo.db.documents.deleteWhere(func(d document.Document) bool { return owned(d.UserID) })
	repo.db.conversations.deleteWhere(func(c assistant.Conversation) bool { return owned(c.UserID) })
	repo.db.subjects.deleteWhere(func(s subject.Subject) bool { return owned(s.UserID) })
	repo.db.users.deleteWhere(func(u user.User) bool { return u.ID == id })

	return documentPaths(docs), nil
}

func documentPaths(docs []document.Document) []string {
	paths := make([]string, 0, len(docs))
	for _, doc := range docs {
		paths = append(paths, doc.FilePath)
	}
	return paths
}
