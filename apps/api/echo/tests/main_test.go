package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/tmwangi/darasa/apps/api/echo"
	"github.com/tmwangi/darasa/core"
	"github.com/tmwangi/darasa/core/lesson"
	"github.com/tmwangi/darasa/core/user"
	inmemdb "github.com/tmwangi/darasa/storage/database/inmem"
)

var (
	conf       *core.Config
	validate   *validator.Validate
	translator ut.Translator

	usrRepo user.Repository
	lesRepo lesson.Repository
	usrSvc  user.ServiceInterface
	lesSvc  lesson.ServiceInterface
	mailSvc *mailSvcMock

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errInvalidToken = httpErr{Error: "invalid or expired jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

func TestMain(m *testing.M) {
	conf = &core.Config{
		TestMode:             true,
		Env:                  "TEST",
		AppName:              "Darasa",
		SecretKey:            []byte("sekrit"),
		FrontendBaseURL:      "http://localhost:3000",
		PasswordResetTimeout: 30 * time.Minute,
		Server: core.ServerConfig{
			JWTExpirationDelta: 2 * time.Hour,
		},
	}

	validate = validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	lesson.InitValidators(validate, translator)

	m.Run()
}

// setup returns a fresh server backed by empty in-memory repositories.
func setup(t *testing.T) *Server {
	t.Helper()

	db := inmemdb.NewDB()
	usrRepo = inmemdb.NewUserRepository(db)
	lesRepo = inmemdb.NewLessonRepository(db)

	mailSvc = &mailSvcMock{}
	usrSvc = user.NewService(usrRepo, mailSvc, conf)
	lesSvc = lesson.NewService(lesRepo)

	return NewServer(
		ServerDeps{
			Conf:       conf,
			Logger:     &loggerMock{},
			UserSvc:    usrSvc,
			LessonSvc:  lesSvc,
			Media:      &mediaMock{},
			Validate:   validate,
			Translator: translator,
		},
	)
}

// mailSvcMock captures messages instead of sending them.
type mailSvcMock struct {
	mu   sync.Mutex
	sent []core.EmailMessage
}

var _ core.EmailService = (*mailSvcMock)(nil)

func (svc *mailSvcMock) SendMessages(messages ...*core.EmailMessage) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	for _, msg := range messages {
		svc.sent = append(svc.sent, *msg)
	}
}

func (svc *mailSvcMock) Sent() []core.EmailMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return append([]core.EmailMessage{}, svc.sent...)
}

// mediaMock pretends to store media and returns a stable URL.
type mediaMock struct{}

var _ core.MediaStorage = (*mediaMock)(nil)

func (m *mediaMock) Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	_, _ = io.Copy(io.Discard, r)
	return "http://media.test/" + key, nil
}

type loggerMock struct{}

var _ core.Logger = (*loggerMock)(nil)

func (l *loggerMock) Enable(enabled bool)                   {}
func (l *loggerMock) Debug(msg string, args ...interface{}) {}
func (l *loggerMock) Info(msg string, args ...interface{})  {}
func (l *loggerMock) Warn(msg string, args ...interface{})  {}
func (l *loggerMock) Error(msg string, args ...interface{}) {}
func (l *loggerMock) Fatal(msg string, args ...interface{}) {}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(conf, usr)
	token, err := GenerateToken(conf, claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
