package user_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/tmwangi/darasa/core"
	"github.com/tmwangi/darasa/core/user"
	inmemdb "github.com/tmwangi/darasa/storage/database/inmem"
	testutil "github.com/tmwangi/darasa/tests"
)

var conf = &core.Config{
	AppName:              "Darasa",
	SecretKey:            []byte("sekrit"),
	FrontendBaseURL:      "http://localhost:3000",
	PasswordResetTimeout: 30 * time.Minute,
}

// mailRecorder captures messages instead of sending them.
type mailRecorder struct {
	mu   sync.Mutex
	sent []core.EmailMessage
}

var _ core.EmailService = (*mailRecorder)(nil)

func (m *mailRecorder) SendMessages(messages ...*core.EmailMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range messages {
		m.sent = append(m.sent, *msg)
	}
}

func (m *mailRecorder) Sent() []core.EmailMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.EmailMessage{}, m.sent...)
}

func setup() (user.ServiceInterface, user.Repository, *mailRecorder) {
	repo := inmemdb.NewUserRepository(inmemdb.NewDB())
	mailSvc := &mailRecorder{}
	return user.NewService(repo, mailSvc, conf), repo, mailSvc
}

func Test_service_Create(t *testing.T) {
	svc, _, _ := setup()
	ctx := context.Background()

	usr, err := svc.Create(ctx, user.NewUser{
		Name:            "Alice W",
		Username:        "alice",
		Email:           "alice@test.cd",
		Password:        "Passw0rd!",
		PasswordConfirm: "Passw0rd!",
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	assert.NotEmpty(t, usr.ID)
	assert.Equal(t, user.RoleUser, usr.Role) // default
	assert.NoError(t, usr.CheckPassword("Passw0rd!"))
	assert.Error(t, usr.CheckPassword("nope"))
	assert.False(t, usr.CreatedAt.IsZero())
}

func Test_service_CheckUniqueness(t *testing.T) {
	svc, repo, _ := setup()
	ctx := context.Background()

	testutil.CreateUser(t, repo, "Alice W", "alice", "alice@test.cd", "", user.RoleUser)

	assert.NoError(t, svc.CheckUniqueness(ctx, "bob", "bob@test.cd"))

	err := svc.CheckUniqueness(ctx, "alice", "new@test.cd")
	var vErr *core.ValidationError
	if assert.ErrorAs(t, err, &vErr) {
		assert.Equal(t, "username", vErr.Fields[0].Field)
	}

	err = svc.CheckUniqueness(ctx, "newalice", "alice@test.cd")
	if assert.ErrorAs(t, err, &vErr) {
		assert.Equal(t, "email", vErr.Fields[0].Field)
	}
}

func Test_service_GetByUsername(t *testing.T) {
	svc, repo, _ := setup()
	ctx := context.Background()

	usr := testutil.CreateUser(t, repo, "Alice W", "alice", "alice@test.cd", "", user.RoleUser)

	got, err := svc.GetByUsername(ctx, "  ALICE  ")
	if err != nil {
		t.Fatalf("GetByUsername() failed: %v", err)
	}
	assert.Equal(t, usr.ID, got.ID)

	_, err = svc.GetByUsername(ctx, "bob")
	assert.Equal(t, user.ErrNotFound, errors.Cause(err))
}

func Test_service_RequestPasswordReset(t *testing.T) {
	svc, repo, mailSvc := setup()
	ctx := context.Background()

	usr := testutil.CreateUser(t, repo, "Alice W", "alice", "alice@test.cd", "Passw0rd!", user.RoleUser)

	t.Run("pair must match exactly", func(t *testing.T) {
		err := svc.RequestPasswordReset(ctx, "alice", "wrong@test.cd")
		assert.Equal(t, user.ErrNotFound, errors.Cause(err))

		err = svc.RequestPasswordReset(ctx, "bob", "alice@test.cd")
		assert.Equal(t, user.ErrNotFound, errors.Cause(err))

		assert.Empty(t, mailSvc.Sent())
	})

	t.Run("stores a single-use token and mails the link", func(t *testing.T) {
		if err := svc.RequestPasswordReset(ctx, "ALICE", "alice@test.cd"); err != nil {
			t.Fatalf("RequestPasswordReset() failed: %v", err)
		}

		refreshed, err := repo.GetUserByID(ctx, usr.ID)
		if err != nil {
			t.Fatalf("GetUserByID() failed: %v", err)
		}
		assert.Len(t, refreshed.ResetToken, 64) // 32 bytes, hex
		assert.WithinDuration(t, time.Now().Add(conf.PasswordResetTimeout), refreshed.ResetTokenExpiry, time.Minute)

		sent := mailSvc.Sent()
		if assert.Len(t, sent, 1) {
			assert.Equal(t, "Password Reset", sent[0].Subject)
			assert.Equal(t, "alice@test.cd", sent[0].To[0].Address)
			assert.Equal(t, "password-reset", sent[0].TemplateName)
		}
	})

	t.Run("repeated request overwrites the token", func(t *testing.T) {
		before, _ := repo.GetUserByID(ctx, usr.ID)
		if err := svc.RequestPasswordReset(ctx, "alice", "alice@test.cd"); err != nil {
			t.Fatalf("RequestPasswordReset() failed: %v", err)
		}
		after, _ := repo.GetUserByID(ctx, usr.ID)
		assert.NotEqual(t, before.ResetToken, after.ResetToken)
	})
}

func Test_service_ResetPassword(t *testing.T) {
	svc, repo, _ := setup()
	ctx := context.Background()

	usr := testutil.CreateUser(t, repo, "Alice W", "alice", "alice@test.cd", "Passw0rd!", user.RoleUser)

	reset := func(t *testing.T) string {
		t.Helper()
		if err := svc.RequestPasswordReset(ctx, "alice", "alice@test.cd"); err != nil {
			t.Fatalf("RequestPasswordReset() failed: %v", err)
		}
		refreshed, err := repo.GetUserByID(ctx, usr.ID)
		if err != nil {
			t.Fatalf("GetUserByID() failed: %v", err)
		}
		return refreshed.ResetToken
	}

	t.Run("unknown token", func(t *testing.T) {
		err := svc.ResetPassword(ctx, user.ResetUserPassword{Token: "lol", Password: "N3wPassw0rd!"})
		assert.Equal(t, user.ErrInvalidResetToken, errors.Cause(err))
	})

	t.Run("token is single-use", func(t *testing.T) {
		token := reset(t)

		data := user.ResetUserPassword{Token: token, Password: "N3wPassw0rd!", PasswordConfirm: "N3wPassw0rd!"}
		if err := svc.ResetPassword(ctx, data); err != nil {
			t.Fatalf("ResetPassword() failed: %v", err)
		}

		refreshed, _ := repo.GetUserByID(ctx, usr.ID)
		assert.NoError(t, refreshed.CheckPassword("N3wPassw0rd!"))
		assert.Empty(t, refreshed.ResetToken)
		assert.True(t, refreshed.ResetTokenExpiry.IsZero())

		// second use must fail
		err := svc.ResetPassword(ctx, data)
		assert.Equal(t, user.ErrInvalidResetToken, errors.Cause(err))
	})

	t.Run("expired token", func(t *testing.T) {
		token := reset(t)

		expired, _ := repo.GetUserByID(ctx, usr.ID)
		expired.ResetTokenExpiry = time.Now().UTC().Add(-time.Minute)
		if _, err := repo.UpdateUser(ctx, expired); err != nil {
			t.Fatalf("UpdateUser() failed: %v", err)
		}

		err := svc.ResetPassword(ctx, user.ResetUserPassword{Token: token, Password: "An0therPwd!"})
		assert.Equal(t, user.ErrInvalidResetToken, errors.Cause(err))
	})
}
