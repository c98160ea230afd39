package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tmwangi/darasa/core/user"
)

type userRepository struct {
	db *DB
}

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string) error {
	repo.db.mut.RLock()
	defer repo.db.mut.RUnlock()

	for _, usr := range repo.db.users {
		if usr.Username == username {
			return user.ErrUsernameExists
		}
		if usr.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.mut.Lock()
	defer repo.db.mut.Unlock()

	if usr.ID == "" {
		usr.ID = uuid.NewString()
	}
	repo.db.users[usr.ID] = usr
	return usr, nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter) ([]user.User, error) {
	repo.db.mut.RLock()
	defer repo.db.mut.RUnlock()

	users := make([]user.User, 0, len(repo.db.users))
	for _, usr := range repo.db.users {
		if filter != nil && !filter.IsEmpty() && usr.Role != filter.Role {
			continue
		}
		users = append(users, usr)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	repo.db.mut.RLock()
	defer repo.db.mut.RUnlock()

	usr, ok := repo.db.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return repo.withProgress(usr), nil
}

func (repo *userRepository) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	repo.db.mut.RLock()
	defer repo.db.mut.RUnlock()

	for _, usr := range repo.db.users {
		if usr.Username == username {
			return repo.withProgress(usr), nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByUsernameAndEmail(ctx context.Context, username, email string) (user.User, error) {
	repo.db.mut.RLock()
	defer repo.db.mut.RUnlock()

	for _, usr := range repo.db.users {
		if usr.Username == username && usr.Email == email {
			return repo.withProgress(usr), nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByResetToken(ctx context.Context, token string) (user.User, error) {
	repo.db.mut.RLock()
	defer repo.db.mut.RUnlock()

	if token != "" {
		for _, usr := range repo.db.users {
			if usr.ResetToken == token {
				return repo.withProgress(usr), nil
			}
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.mut.Lock()
	defer repo.db.mut.Unlock()

	if _, ok := repo.db.users[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	usr.UpdatedAt = time.Now().UTC()
	repo.db.users[usr.ID] = usr
	return usr, nil
}

// withProgress attaches a snapshot of the user's progress. Caller must hold
// at least a read lock.
func (repo *userRepository) withProgress(usr user.User) user.User {
	prog, ok := repo.db.progress[usr.ID]
	if !ok {
		usr.CompletedLessons = []string{}
		usr.LessonMistakes = []user.MistakeRecord{}
		return usr
	}
	usr.CompletedLessons = append([]string{}, prog.completed...)
	usr.LessonMistakes = append([]user.MistakeRecord{}, prog.mistakes...)
	return usr
}
