package tests

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alloyapp/alloy/core/document"
)

// upload posts a multipart form; an empty fileName leaves the file part out.
func upload(t *testing.T, token, subjectID, fileName, fileType string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	require.NoError(t, w.WriteField("subjectId", subjectID))
	if fileName != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="document"; filename="`+fileName+`"`)
		h.Set("Content-Type", fileType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

func Test_documentApi(t *testing.T) {
	usr := createUser(t, "archivist", "archivist@alloy.test", testPwd)
	other := createUser(t, "burglar", "burglar@alloy.test", testPwd)
	token, otherToken := getToken(t, usr), getToken(t, other)
	sub := createSubject(t, usr, "Philosophy")
	foreign := createSubject(t, other, "Lockpicking")

	content := []byte("%PDF-1.4 cogito ergo sum")
	rec := upload(t, token, sub.ID, "Meditations.PDF", "application/pdf", content)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var doc document.Document
	unmarshal(t, rec, &doc)
	assert.Equal(t, "Meditations.PDF", doc.FileName)
	assert.Equal(t, "application/pdf", doc.FileType)
	assert.Equal(t, int64(len(content)), doc.Size)
	assert.Equal(t, sub.ID, doc.SubjectID)
	assert.Regexp(t, `^[0-9a-f-]{36}\.pdf$`, doc.FilePath)

	t.Run("upload errors", func(t *testing.T) {
		tests := []struct {
			name      string
			token     string
			subjectID string
			fileName  string
			content   []byte
			wantCode  int
			wantData  []byte
		}{
			{
				name: "auth required", subjectID: sub.ID, fileName: "a.txt", content: []byte("a"),
				wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken),
			},
			{
				name: "missing file", token: token, subjectID: sub.ID,
				wantCode: http.StatusBadRequest,
				wantData: marshalObj(t, httpErr{Message: "Please check the provided fields.", Errors: map[string]string{"document": "this field is required"}}),
			},
			{
				name: "missing subject", token: token, fileName: "a.txt", content: []byte("a"),
				wantCode: http.StatusBadRequest,
				wantData: marshalObj(t, httpErr{Message: "Please check the provided fields.", Errors: map[string]string{"subjectId": "this field is required"}}),
			},
			{
				name: "subject of another user", token: token, subjectID: foreign.ID, fileName: "a.txt", content: []byte("a"),
				wantCode: http.StatusBadRequest,
				wantData: marshalObj(t, httpErr{Message: "subject not found", Errors: map[string]string{"subjectId": "subject not found"}}),
			},
			{
				name: "too large", token: token, subjectID: sub.ID, fileName: "big.bin",
				content:  bytes.Repeat([]byte("x"), int(conf.Server.MaxUploadSize)+1),
				wantCode: http.StatusRequestEntityTooLarge,
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				checkCodeAndData(t, httpTest{wantCode: tt.wantCode, wantData: tt.wantData},
					upload(t, tt.token, tt.subjectID, tt.fileName, "text/plain", tt.content))
			})
		}
	})

	tests := []httpTest{
		{name: "list by subject", path: "/api/documents/subject/" + sub.ID, token: token, wantCode: http.StatusOK, wantData: marshalList(t, doc)},
		{name: "list by subject: other user", path: "/api/documents/subject/" + sub.ID, token: otherToken, wantCode: http.StatusOK, wantData: []byte(`[]`)},
		{
			name: "download: other user", path: "/api/documents/" + doc.ID + "/download", token: otherToken,
			wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Message: "document not found"}),
		},
		{name: "delete: other user", method: http.MethodDelete, path: "/api/documents/" + doc.ID, token: otherToken, wantCode: http.StatusNotFound},
	}
	runHTTPTests(t, tests)

	t.Run("download", func(t *testing.T) {
		rec := do(http.MethodGet, "/api/documents/"+doc.ID+"/download", token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, content, rec.Body.Bytes())
		assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename=Meditations.PDF`, rec.Header().Get("Content-Disposition"))
		assert.Equal(t, strconv.Itoa(len(content)), rec.Header().Get("Content-Length"))
	})

	t.Run("delete removes the file", func(t *testing.T) {
		rc, err := store.Open(doc.FilePath)
		require.NoError(t, err)
		stored, _ := io.ReadAll(rc)
		_ = rc.Close()
		assert.Equal(t, content, stored)

		rec := do(http.MethodDelete, "/api/documents/"+doc.ID, token)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`{"message": "Document deleted successfully."}`)}, rec)

		_, err = store.Open(doc.FilePath)
		assert.Error(t, err)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`[]`)}, do(http.MethodGet, "/api/documents/subject/"+sub.ID, token))
	})
}
