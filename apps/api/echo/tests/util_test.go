package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"

	echoapi "github.com/alloyapp/alloy/apps/api/echo"
	"github.com/alloyapp/alloy/core/assistant"
	"github.com/alloyapp/alloy/core/subject"
	"github.com/alloyapp/alloy/core/user"
	"github.com/alloyapp/alloy/tests"
)

var errMissingToken = httpErr{Message: "missing or malformed jwt"}

type httpErr struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
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

// do sends the request to the app and returns the recorded response.
func do(method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, data...)
	app.ServeHTTP(rec, req)
	return rec
}

func runHTTPTests(t *testing.T, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			rec := do(method, tt.path, tt.token, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func createUser(t *testing.T, uname, email, pwd string) user.User {
	return testutil.CreateUser(t, usrRepo, uname, email, pwd)
}

func getToken(t *testing.T, usr user.User) string {
	token, err := echoapi.GenerateToken(conf, echoapi.NewClaims(conf, usr))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func createSubject(t *testing.T, usr user.User, name string) subject.Subject {
	sub, err := subjectSvc.Create(context.Background(), usr.ID, subject.NewSubject{Name: name})
	if err != nil {
		t.Fatalf("createSubject(): %v", err)
	}
	return sub
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj(): %v", err)
	}
	return data
}

func marshalList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marshalList(): %v", err)
	}
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("json.Unmarshal(%s): %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

type modelCall struct {
	history []assistant.Turn
	prompt  string
}

// fakeModel replies with a canned text, or fails with err.
type fakeModel struct {
	mu    sync.Mutex
	reply string
	err   error
	calls []modelCall
}

func (m *fakeModel) SendTurn(_ context.Context, history []assistant.Turn, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, modelCall{history: append([]assistant.Turn(nil), history...), prompt: prompt})
	return m.reply, m.err
}

func (m *fakeModel) set(reply string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reply, m.err, m.calls = reply, err, nil
}

func (m *fakeModel) lastCall() modelCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return modelCall{}
	}
	return m.calls[len(m.calls)-1]
}
