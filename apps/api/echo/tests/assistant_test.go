package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alloyapp/alloy/core/assistant"
	"github.com/alloyapp/alloy/core/note"
)

func Test_assistantApi(t *testing.T) {
	usr := createUser(t, "curious", "curious@alloy.test", testPwd)
	other := createUser(t, "nosy", "nosy@alloy.test", testPwd)
	token, otherToken := getToken(t, usr), getToken(t, other)
	sub := createSubject(t, usr, "Biology")
	defer model.set("", nil)

	chat := func(t *testing.T, body string) assistant.Reply {
		t.Helper()
		rec := do(http.MethodPost, "/api/ai/chat", token, []byte(body))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var reply assistant.Reply
		unmarshal(t, rec, &reply)
		return reply
	}
	getConv := func(t *testing.T, id string) assistant.Conversation {
		t.Helper()
		rec := do(http.MethodGet, "/api/ai/conversations/"+id, token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var conv assistant.Conversation
		unmarshal(t, rec, &conv)
		return conv
	}

	// new conversation
	model.set("Mitosis makes two identical cells.", nil)
	first := chat(t, `{"message": "Explain the difference between mitosis and meiosis"}`)
	assert.Equal(t, "Mitosis makes two identical cells.", first.Reply)
	require.NotEmpty(t, first.ConversationID)
	assert.Empty(t, model.lastCall().history)
	assert.Equal(t, "Explain the difference between mitosis and meiosis", model.lastCall().prompt)

	conv := getConv(t, first.ConversationID)
	assert.Equal(t, "Explain the difference between...", conv.Title)
	require.Len(t, conv.History, 2)
	assert.Equal(t, assistant.RoleUser, conv.History[0].Role)
	assert.Equal(t, assistant.RoleModel, conv.History[1].Role)

	t.Run("history is replayed", func(t *testing.T) {
		model.set("Meiosis makes four gametes.", nil)
		reply := chat(t, `{"conversationId": "`+first.ConversationID+`", "message": "And meiosis?"}`)
		assert.Equal(t, first.ConversationID, reply.ConversationID)

		call := model.lastCall()
		require.Len(t, call.history, 2)
		assert.Equal(t, "Explain the difference between mitosis and meiosis", call.history[0].Text)
		assert.Equal(t, "Mitosis makes two identical cells.", call.history[1].Text)
		assert.Equal(t, "And meiosis?", call.prompt)

		conv := getConv(t, first.ConversationID)
		require.Len(t, conv.History, 4)
		assert.Equal(t, "And meiosis?", conv.History[2].Text)
		assert.Equal(t, "Meiosis makes four gametes.", conv.History[3].Text)
		assert.Equal(t, "Explain the difference between...", conv.Title)
	})

	t.Run("summarize a note", func(t *testing.T) {
		n, err := noteSvc.Create(context.Background(), usr.ID, note.NewNote{SubjectID: sub.ID, Title: "Cells", Content: "Cells divide."})
		require.NoError(t, err)

		model.set("Cells divide, in short.", nil)
		reply := chat(t, `{"message": "tl;dr", "context": {"type": "summarize", "noteId": "`+n.ID+`"}}`)
		assert.Equal(t, "The user wants to summarize the following note titled \"Cells\". Note Content: Cells divide.\n\n"+
			"Please summarize the note content you were provided with.", model.lastCall().prompt)

		conv := getConv(t, reply.ConversationID)
		assert.Equal(t, "tl;dr", conv.Title)
		require.Len(t, conv.History, 2)
		assert.Equal(t, "tl;dr", conv.History[0].Text)
	})

	t.Run("study plan", func(t *testing.T) {
		model.set("Day 1: ...", nil)
		chat(t, `{"message": "help", "context": {"type": "create_study_plan", "subjectId": "`+sub.ID+`"}}`)
		assert.Contains(t, model.lastCall().prompt, "The user's attendance is low in Biology.")
		assert.Contains(t, model.lastCall().prompt, "My attendance for Biology is low")
	})

	t.Run("context on a foreign record is ignored", func(t *testing.T) {
		model.set("ok", nil)
		foreign := createSubject(t, other, "Secrets")
		chat(t, `{"message": "plan please", "context": {"type": "create_study_plan", "subjectId": "`+foreign.ID+`"}}`)
		assert.Equal(t, "plan please", model.lastCall().prompt)
	})

	t.Run("model failure", func(t *testing.T) {
		rec := do(http.MethodGet, "/api/ai/conversations", token)
		require.Equal(t, http.StatusOK, rec.Code)
		var before []assistant.Summary
		unmarshal(t, rec, &before)

		model.set("", errors.New("quota exceeded"))
		rec = do(http.MethodPost, "/api/ai/chat", token, []byte(`{"message": "Are you there?"}`))
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusInternalServerError,
			wantData: marshalObj(t, httpErr{Message: "Failed to get a response from the AI assistant."}),
		}, rec)

		rec = do(http.MethodPost, "/api/ai/chat", token, []byte(`{"conversationId": "`+first.ConversationID+`", "message": "Still there?"}`))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		rec = do(http.MethodGet, "/api/ai/conversations", token)
		var after []assistant.Summary
		unmarshal(t, rec, &after)
		assert.Equal(t, before, after)
		assert.Len(t, getConv(t, first.ConversationID).History, 4)
	})

	model.set("hi", nil)
	notFound := marshalObj(t, httpErr{Message: "conversation not found"})
	tests := []httpTest{
		{name: "auth required", method: http.MethodPost, path: "/api/ai/chat", body: []byte(`{"message": "hi"}`), wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{
			name: "empty message", method: http.MethodPost, path: "/api/ai/chat", token: token, body: []byte(`{"message": "   "}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Message: "Please check the provided fields.", Errors: map[string]string{"message": "this field is required"}}),
		},
		{
			name: "unknown conversation", method: http.MethodPost, path: "/api/ai/chat", token: token,
			body:     []byte(`{"conversationId": "` + uuid.New().String() + `", "message": "hi"}`),
			wantCode: http.StatusNotFound, wantData: notFound,
		},
		{
			name: "conversation of another user", method: http.MethodPost, path: "/api/ai/chat", token: otherToken,
			body:     []byte(`{"conversationId": "` + first.ConversationID + `", "message": "hi"}`),
			wantCode: http.StatusNotFound, wantData: notFound,
		},
		{name: "retrieve: other user", path: "/api/ai/conversations/" + first.ConversationID, token: otherToken, wantCode: http.StatusNotFound, wantData: notFound},
		{name: "list: other user", path: "/api/ai/conversations", token: otherToken, wantCode: http.StatusOK, wantData: []byte(`[]`)},
		{name: "delete: other user", method: http.MethodDelete, path: "/api/ai/conversations/" + first.ConversationID, token: otherToken, wantCode: http.StatusNotFound, wantData: notFound},
	}
	runHTTPTests(t, tests)

	t.Run("list is newest first", func(t *testing.T) {
		rec := do(http.MethodGet, "/api/ai/conversations", token)
		require.Equal(t, http.StatusOK, rec.Code)
		var convs []assistant.Summary
		unmarshal(t, rec, &convs)
		require.Len(t, convs, 4)
		assert.Equal(t, first.ConversationID, convs[len(convs)-1].ID)
		assert.Equal(t, "Explain the difference between...", convs[len(convs)-1].Title)
	})

	t.Run("delete", func(t *testing.T) {
		rec := do(http.MethodDelete, "/api/ai/conversations/"+first.ConversationID, token)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`{"message": "Conversation deleted."}`)}, rec)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: notFound}, do(http.MethodGet, "/api/ai/conversations/"+first.ConversationID, token))
	})
}
