package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/deepgram/assistkit/internal/connections"
	"github.com/deepgram/assistkit/internal/services/assistant"
	"github.com/deepgram/assistkit/internal/services/assistant/assistanttest"
	"github.com/deepgram/assistkit/pkg/httpext"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type handlerFixture struct {
	fake    *assistanttest.Server
	manager *assistant.Manager
	conns   *connections.Manager
	router  *mux.Router
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	fake := assistanttest.NewServer(t)
	manager := assistant.NewManager(fake.Client(), "gpt-4o-mini", assistant.WithPollInterval(time.Millisecond))

	wrap := func(h func(*assistant.Manager, http.ResponseWriter, *http.Request)) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) { h(manager, w, r) }
	}

	r := mux.NewRouter()
	r.HandleFunc("/assistants", wrap(HandleCreateAssistant)).Methods(http.MethodPost)
	r.HandleFunc("/assistants", wrap(HandleListAssistants)).Methods(http.MethodGet)
	r.HandleFunc("/assistants/{id}", wrap(HandleGetAssistant)).Methods(http.MethodGet)
	r.HandleFunc("/assistants/{id}", wrap(HandleModifyAssistant)).Methods(http.MethodPatch)
	r.HandleFunc("/assistants/{id}", wrap(HandleDeleteAssistant)).Methods(http.MethodDelete)
	r.HandleFunc("/assistants/{id}/threads", wrap(HandleCreateThread)).Methods(http.MethodPost)
	r.HandleFunc("/assistants/{id}/threads/{thread_id}", wrap(HandleDeleteThread)).Methods(http.MethodDelete)
	r.HandleFunc("/assistants/{id}/threads/{thread_id}/messages", wrap(HandleAddMessage)).Methods(http.MethodPost)
	r.HandleFunc("/assistants/{id}/threads/{thread_id}/response", wrap(HandleGetResponse)).Methods(http.MethodGet)
	r.HandleFunc("/assistants/{id}/threads/{thread_id}/runs", wrap(HandleRun)).Methods(http.MethodPost)

	conns := connections.NewManager(connections.DefaultTimeouts)
	r.HandleFunc("/assistants/{id}/threads/{thread_id}/runs/stream", func(w http.ResponseWriter, r *http.Request) {
		HandleRunStream(manager, conns, w, r)
	}).Methods(http.MethodGet)

	return &handlerFixture{fake: fake, manager: manager, conns: conns, router: r}
}

func (f *handlerFixture) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func (f *handlerFixture) createAssistant(t *testing.T) AssistantView {
	t.Helper()
	rr := f.do(http.MethodPost, "/assistants", `{"name":"Helper","instructions":"Be brief."}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var view AssistantView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	return view
}

func (f *handlerFixture) createThread(t *testing.T, assistantID, body string) string {
	t.Helper()
	rr := f.do(http.MethodPost, "/assistants/"+assistantID+"/threads", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var thread openai.Thread
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &thread))
	return thread.ID
}

func TestHandleCreateAssistantValidation(t *testing.T) {
	f := newHandlerFixture(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"instructions":`},
		{"missing instructions", `{"name":"x"}`},
		{"unknown tool", `{"instructions":"x","tools":["browser"]}`},
		{"too many files", fmt.Sprintf(`{"instructions":"x","file_ids":[%s]}`, strings.TrimSuffix(strings.Repeat(`"f",`, 21), ","))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := f.do(http.MethodPost, "/assistants", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)

			var resp httpext.ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
	assert.Empty(t, f.fake.Requests("CreateAssistant"))
}

func TestAssistantLifecycle(t *testing.T) {
	f := newHandlerFixture(t)
	view := f.createAssistant(t)
	assert.Equal(t, "gpt-4o-mini", view.Model)

	rr := f.do(http.MethodGet, "/assistants", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list struct {
		Data []AssistantView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, view.ID, list.Data[0].ID)

	rr = f.do(http.MethodPatch, "/assistants/"+view.ID, `{"name":"Renamed","instructions":"Be verbose."}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var modified AssistantView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &modified))
	assert.Equal(t, "Renamed", modified.Name)
	assert.Equal(t, "Be verbose.", modified.Instructions)
	assert.Len(t, f.fake.Requests("ModifyAssistant"), 1)

	rr = f.do(http.MethodDelete, "/assistants/"+view.ID, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = f.do(http.MethodGet, "/assistants/"+view.ID, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestThreadHandlers(t *testing.T) {
	f := newHandlerFixture(t)
	view := f.createAssistant(t)
	base := "/assistants/" + view.ID

	threadID := f.createThread(t, view.ID, "")

	rr := f.do(http.MethodGet, base+"/threads/"+threadID+"/response", "")
	assert.Equal(t, http.StatusNotFound, rr.Code, "no assistant reply yet")

	rr = f.do(http.MethodPost, base+"/threads/"+threadID+"/messages", `{"content":"hi","metadata":{"k":"v"}}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	f.fake.AddAssistantMessage(threadID, "hello there")
	rr = f.do(http.MethodGet, base+"/threads/"+threadID+"/response", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"thread_id":%q,"response":"hello there"}`, threadID), rr.Body.String())

	rr = f.do(http.MethodDelete, base+"/threads/"+threadID, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.False(t, f.fake.HasThread(threadID))

	rr = f.do(http.MethodDelete, base+"/threads/"+threadID, "")
	assert.Equal(t, http.StatusNotFound, rr.Code, "upstream 404 passes through")
}

func TestHandleRun(t *testing.T) {
	t.Run("completed", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.fake.Reply = "42"
		view := f.createAssistant(t)
		threadID := f.createThread(t, view.ID, `{"content":"meaning of life?"}`)

		rr := f.do(http.MethodPost, "/assistants/"+view.ID+"/threads/"+threadID+"/runs", "")
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var result assistant.RunResult
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.Equal(t, openai.RunStatusCompleted, result.Status)
		assert.Equal(t, "42", result.Response)
	})

	t.Run("failed run is reported, not an error", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.fake.RunStatuses = []openai.RunStatus{openai.RunStatusFailed}
		f.fake.LastError = "quota exhausted"
		view := f.createAssistant(t)
		threadID := f.createThread(t, view.ID, "")

		rr := f.do(http.MethodPost, "/assistants/"+view.ID+"/threads/"+threadID+"/runs", `{"model":"gpt-4o"}`)
		require.Equal(t, http.StatusOK, rr.Code)

		var result assistant.RunResult
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.Equal(t, openai.RunStatusFailed, result.Status)
		assert.Empty(t, result.Response)
		assert.Equal(t, "quota exhausted", result.Error)
	})

	t.Run("unknown thread", func(t *testing.T) {
		f := newHandlerFixture(t)
		view := f.createAssistant(t)

		rr := f.do(http.MethodPost, "/assistants/"+view.ID+"/threads/thread_missing/runs", "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestHandleRunStreamClientDisconnect(t *testing.T) {
	f := newHandlerFixture(t)
	f.fake.RunStatuses = []openai.RunStatus{openai.RunStatusInProgress}
	view := f.createAssistant(t)
	threadID := f.createThread(t, view.ID, "")

	server := httptest.NewServer(f.router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/assistants/" + view.ID + "/threads/" + threadID + "/runs/stream"
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	require.NoError(t, ws.WriteJSON(map[string]interface{}{}))

	var event StreamEvent
	require.NoError(t, ws.ReadJSON(&event))
	assert.Equal(t, EventStatus, event.Type)
	require.Equal(t, 1, f.conns.GetConnectionCount())

	ws.Close()

	assert.Eventually(t, func() bool {
		return f.conns.GetConnectionCount() == 0
	}, 2*time.Second, 10*time.Millisecond, "stream handler should stop polling once the client is gone")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"unknown assistant", fmt.Errorf("x: %w", assistant.ErrUnknownAssistant), http.StatusNotFound},
		{"no response", assistant.ErrNoResponse, http.StatusNotFound},
		{"empty content", assistant.ErrEmptyContent, http.StatusBadRequest},
		{"too many files", assistant.ErrTooManyFiles, http.StatusBadRequest},
		{"timeout", fmt.Errorf("run did not finish: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"upstream not found", &openai.APIError{HTTPStatusCode: http.StatusNotFound}, http.StatusNotFound},
		{"upstream server error", &openai.APIError{HTTPStatusCode: http.StatusInternalServerError}, http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, statusFor(tt.err))
		})
	}
}
