package tests

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alloyapp/alloy/core/attendance"
	"github.com/alloyapp/alloy/core/subject"
	"github.com/alloyapp/alloy/core/task"
)

func Test_subjectApi(t *testing.T) {
	usr := createUser(t, "subjective", "subjective@alloy.test", testPwd)
	other := createUser(t, "objective", "objective@alloy.test", testPwd)
	token, otherToken := getToken(t, usr), getToken(t, other)

	rec := do(http.MethodPost, "/api/subjects", token, []byte(`{"name": "  Linear Algebra "}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sub subject.Subject
	unmarshal(t, rec, &sub)
	assert.Equal(t, "Linear Algebra", sub.Name)
	assert.Equal(t, subject.DefaultRequiredPercentage, sub.RequiredPercentage)
	assert.Equal(t, usr.ID, sub.UserID)

	detailPath := "/api/subjects/" + sub.ID
	notFound := marshalObj(t, httpErr{Message: "subject not found"})

	tests := []httpTest{
		{name: "auth required", path: "/api/subjects", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{
			name: "create: missing name", method: http.MethodPost, path: "/api/subjects", token: token, body: []byte(`{"name": " "}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Message: "Please check the provided fields.", Errors: map[string]string{"name": "this field is required"}}),
		},
		{
			name: "create: percentage out of range", method: http.MethodPost, path: "/api/subjects", token: token,
			body:     []byte(`{"name": "Art", "requiredPercentage": 120}`),
			wantCode: http.StatusBadRequest,
		},
		{name: "list", path: "/api/subjects", token: token, wantCode: http.StatusOK, wantData: marshalList(t, sub)},
		{name: "list: other user", path: "/api/subjects", token: otherToken, wantCode: http.StatusOK, wantData: []byte(`[]`)},
		{name: "retrieve", path: detailPath, token: token, wantCode: http.StatusOK, wantData: marshalObj(t, sub)},
		{name: "retrieve: other user", path: detailPath, token: otherToken, wantCode: http.StatusNotFound, wantData: notFound},
		{name: "retrieve: malformed id", path: "/api/subjects/not-a-uuid", token: token, wantCode: http.StatusNotFound, wantData: notFound},
		{name: "update: other user", method: http.MethodPut, path: detailPath, token: otherToken, body: []byte(`{"name": "Mine"}`), wantCode: http.StatusNotFound, wantData: notFound},
		{name: "delete: other user", method: http.MethodDelete, path: detailPath, token: otherToken, wantCode: http.StatusNotFound, wantData: notFound},
	}
	runHTTPTests(t, tests)

	t.Run("partial update", func(t *testing.T) {
		rec := do(http.MethodPut, detailPath, token, []byte(`{"requiredPercentage": 80}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got subject.Subject
		unmarshal(t, rec, &got)
		assert.Equal(t, "Linear Algebra", got.Name)
		assert.Equal(t, 80.0, got.RequiredPercentage)
		assert.False(t, got.UpdatedAt.Before(sub.UpdatedAt))
	})
}

func Test_subjectApi_deleteCascades(t *testing.T) {
	usr := createUser(t, "cascader", "cascader@alloy.test", testPwd)
	token := getToken(t, usr)
	sub := createSubject(t, usr, "Chemistry")
	kept := createSubject(t, usr, "Biology")
	ctx := context.Background()

	mustCreate := func(path, body string) {
		t.Helper()
		rec := do(http.MethodPost, path, token, []byte(body))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	mustCreate("/api/timetable", `{"subjectId": "`+sub.ID+`", "dayOfWeek": "Monday", "startTime": "09:00", "endTime": "10:30"}`)
	mustCreate("/api/notes", `{"subjectId": "`+sub.ID+`", "title": "Moles", "content": "6.022e23"}`)
	mustCreate("/api/tasks", `{"description": "Lab report", "subjectId": "`+sub.ID+`"}`)
	mustCreate("/api/tasks", `{"description": "Dissect a frog", "subjectId": "`+kept.ID+`"}`)
	rec := do(http.MethodPost, "/api/attendance", token, []byte(`{"subjectId": "`+sub.ID+`", "status": "attended"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	require.NoError(t, w.WriteField("subjectId", sub.ID))
	fw, err := w.CreateFormFile("document", "periodic-table.txt")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("H He Li Be"))
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	docs, err := documentSvc.ListBySubject(ctx, usr.ID, sub.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	rec = do(http.MethodDelete, "/api/subjects/"+sub.ID, token)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`{"message": "Subject and all related data deleted successfully."}`)}, rec)

	entries, err := timetableSvc.List(ctx, usr.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	notes, err := noteSvc.ListBySubject(ctx, usr.ID, sub.ID)
	require.NoError(t, err)
	assert.Empty(t, notes)

	records, err := attendanceSvc.List(ctx, usr.ID)
	require.NoError(t, err)
	assert.Empty(t, records)

	remaining, err := documentSvc.ListBySubject(ctx, usr.ID, sub.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
	_, err = store.Open(docs[0].FilePath)
	assert.Error(t, err, "stored file should be removed")

	tasks, err := taskSvc.List(ctx, usr.ID, task.Query{})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Dissect a frog", tasks[0].Description)

	stats, err := attendanceSvc.Stats(ctx, usr.ID, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, attendance.Stats{}, stats)

	assert.Equal(t, http.StatusNotFound, do(http.MethodGet, "/api/subjects/"+sub.ID, token).Code)
	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/api/subjects/"+kept.ID, token).Code)
}
