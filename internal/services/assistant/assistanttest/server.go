// Package assistanttest provides an in-process fake of the OpenAI Assistants
// API for tests.
package assistanttest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/sashabaranov/go-openai"
)

// Server fakes the Assistants endpoints used by the wrapper. Runs walk through
// RunStatuses, one entry per retrieval, and a completed run posts Reply.
type Server struct {
	mu sync.Mutex

	RunStatuses []openai.RunStatus
	Reply       string
	LastError   string

	FailDeleteAssistant bool
	FailDeleteThread    map[string]bool

	assistants map[string]openai.Assistant
	threads    map[string][]openai.Message
	runs       map[string]*fakeRun
	requests   map[string][]map[string]any
	deleted    []string
	nextID     int

	srv *httptest.Server
}

type fakeRun struct {
	run   openai.Run
	polls int
}

// NewServer starts a fake API and closes it when the test ends.
func NewServer(t testing.TB) *Server {
	s := &Server{
		RunStatuses:      []openai.RunStatus{openai.RunStatusInProgress, openai.RunStatusCompleted},
		Reply:            "Hello from the assistant",
		FailDeleteThread: make(map[string]bool),
		assistants:       make(map[string]openai.Assistant),
		threads:          make(map[string][]openai.Message),
		runs:             make(map[string]*fakeRun),
		requests:         make(map[string][]map[string]any),
	}
	s.srv = httptest.NewServer(s.router())
	t.Cleanup(s.srv.Close)
	return s
}

// URL is the API root to use as the client base URL.
func (s *Server) URL() string {
	return s.srv.URL + "/v1"
}

// Client returns a real go-openai client pointed at the fake.
func (s *Server) Client() *openai.Client {
	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = s.URL()
	return openai.NewClientWithConfig(cfg)
}

// Requests returns the decoded bodies received for a route name, e.g. "CreateRun".
func (s *Server) Requests(route string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.requests[route]...)
}

// Deleted lists the IDs of deleted assistants and threads in order.
func (s *Server) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

// HasThread reports whether a thread currently exists.
func (s *Server) HasThread(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.threads[id]
	return exists
}

// HasAssistant reports whether an assistant currently exists.
func (s *Server) HasAssistant(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.assistants[id]
	return exists
}

// AddAssistantMessage appends an assistant reply to a thread outside of any run.
func (s *Server) AddAssistantMessage(threadID, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threads[threadID] = append(s.threads[threadID], s.message(threadID, "assistant", text, nil))
}

func (s *Server) router() *mux.Router {
	r := mux.NewRouter()
	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/assistants", s.createAssistant).Methods(http.MethodPost)
	v1.HandleFunc("/assistants/{id}", s.modifyAssistant).Methods(http.MethodPost)
	v1.HandleFunc("/assistants/{id}", s.deleteAssistant).Methods(http.MethodDelete)
	v1.HandleFunc("/threads", s.createThread).Methods(http.MethodPost)
	v1.HandleFunc("/threads/{id}", s.deleteThread).Methods(http.MethodDelete)
	v1.HandleFunc("/threads/{id}/messages", s.createMessage).Methods(http.MethodPost)
	v1.HandleFunc("/threads/{id}/messages", s.listMessages).Methods(http.MethodGet)
	v1.HandleFunc("/threads/{id}/runs", s.createRun).Methods(http.MethodPost)
	v1.HandleFunc("/threads/{id}/runs/{run_id}", s.retrieveRun).Methods(http.MethodGet)
	return r
}

func (s *Server) newID(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s_%d", prefix, s.nextID)
}

func (s *Server) record(route string, r *http.Request) map[string]any {
	body := map[string]any{}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	s.requests[route] = append(s.requests[route], body)
	return body
}

func (s *Server) message(threadID, role, text string, runID *string) openai.Message {
	return openai.Message{
		ID:       s.newID("msg"),
		Object:   "thread.message",
		ThreadID: threadID,
		Role:     role,
		Content: []openai.MessageContent{{
			Type: "text",
			Text: &openai.MessageText{Value: text},
		}},
		RunID: runID,
	}
}

func (s *Server) createAssistant(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	body := s.record("CreateAssistant", r)
	a := openai.Assistant{
		ID:     s.newID("asst"),
		Object: "assistant",
		Model:  str(body["model"]),
	}
	if name, ok := body["name"].(string); ok {
		a.Name = &name
	}
	if instructions, ok := body["instructions"].(string); ok {
		a.Instructions = &instructions
	}
	a.Tools = tools(body["tools"])
	s.assistants[a.ID] = a
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) modifyAssistant(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := mux.Vars(r)["id"]
	body := s.record("ModifyAssistant", r)
	a, exists := s.assistants[id]
	if !exists {
		writeError(w, http.StatusNotFound, "No assistant found with id '"+id+"'.")
		return
	}
	if model, ok := body["model"].(string); ok && model != "" {
		a.Model = model
	}
	if name, ok := body["name"].(string); ok {
		a.Name = &name
	}
	if instructions, ok := body["instructions"].(string); ok {
		a.Instructions = &instructions
	}
	if t := tools(body["tools"]); len(t) > 0 {
		a.Tools = t
	}
	s.assistants[id] = a
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) deleteAssistant(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := mux.Vars(r)["id"]
	if s.FailDeleteAssistant {
		writeError(w, http.StatusInternalServerError, "assistant deletion failed")
		return
	}
	if _, exists := s.assistants[id]; !exists {
		writeError(w, http.StatusNotFound, "No assistant found with id '"+id+"'.")
		return
	}
	delete(s.assistants, id)
	s.deleted = append(s.deleted, id)
	writeJSON(w, http.StatusOK, openai.AssistantDeleteResponse{ID: id, Object: "assistant.deleted", Deleted: true})
}

func (s *Server) createThread(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	body := s.record("CreateThread", r)
	thread := openai.Thread{
		ID:        s.newID("thread"),
		Object:    "thread",
		CreatedAt: time.Now().Unix(),
	}
	if metadata, ok := body["metadata"].(map[string]any); ok {
		thread.Metadata = metadata
	}

	var messages []openai.Message
	if raw, ok := body["messages"].([]any); ok {
		for _, m := range raw {
			if msg, ok := m.(map[string]any); ok {
				messages = append(messages, s.message(thread.ID, str(msg["role"]), str(msg["content"]), nil))
			}
		}
	}
	s.threads[thread.ID] = messages
	writeJSON(w, http.StatusOK, thread)
}

func (s *Server) deleteThread(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := mux.Vars(r)["id"]
	if s.FailDeleteThread[id] {
		writeError(w, http.StatusInternalServerError, "thread deletion failed")
		return
	}
	if _, exists := s.threads[id]; !exists {
		writeError(w, http.StatusNotFound, "No thread found with id '"+id+"'.")
		return
	}
	delete(s.threads, id)
	s.deleted = append(s.deleted, id)
	writeJSON(w, http.StatusOK, openai.ThreadDeleteResponse{ID: id, Object: "thread.deleted", Deleted: true})
}

func (s *Server) createMessage(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := mux.Vars(r)["id"]
	body := s.record("CreateMessage", r)
	if _, exists := s.threads[id]; !exists {
		writeError(w, http.StatusNotFound, "No thread found with id '"+id+"'.")
		return
	}
	msg := s.message(id, str(body["role"]), str(body["content"]), nil)
	s.threads[id] = append(s.threads[id], msg)
	writeJSON(w, http.StatusOK, msg)
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := mux.Vars(r)["id"]
	messages, exists := s.threads[id]
	if !exists {
		writeError(w, http.StatusNotFound, "No thread found with id '"+id+"'.")
		return
	}

	runID := r.URL.Query().Get("run_id")
	desc := r.URL.Query().Get("order") != "asc"

	data := make([]openai.Message, 0, len(messages))
	for _, msg := range messages {
		if runID != "" && (msg.RunID == nil || *msg.RunID != runID) {
			continue
		}
		data = append(data, msg)
	}
	if desc {
		for i, j := 0, len(data)-1; i < j; i, j = i+1, j-1 {
			data[i], data[j] = data[j], data[i]
		}
	}
	writeJSON(w, http.StatusOK, openai.MessagesList{Object: "list", Messages: data})
}

func (s *Server) createRun(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	threadID := mux.Vars(r)["id"]
	body := s.record("CreateRun", r)
	if _, exists := s.threads[threadID]; !exists {
		writeError(w, http.StatusNotFound, "No thread found with id '"+threadID+"'.")
		return
	}
	run := openai.Run{
		ID:          s.newID("run"),
		Object:      "thread.run",
		ThreadID:    threadID,
		AssistantID: str(body["assistant_id"]),
		Status:      openai.RunStatusQueued,
	}
	s.runs[run.ID] = &fakeRun{run: run}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) retrieveRun(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vars := mux.Vars(r)
	fr, exists := s.runs[vars["run_id"]]
	if !exists || fr.run.ThreadID != vars["id"] {
		writeError(w, http.StatusNotFound, "No run found with id '"+vars["run_id"]+"'.")
		return
	}

	if fr.polls < len(s.RunStatuses) {
		previous := fr.run.Status
		fr.run.Status = s.RunStatuses[fr.polls]
		fr.polls++

		if fr.run.Status != previous {
			switch fr.run.Status {
			case openai.RunStatusCompleted:
				runID := fr.run.ID
				s.threads[fr.run.ThreadID] = append(s.threads[fr.run.ThreadID],
					s.message(fr.run.ThreadID, "assistant", s.Reply, &runID))
			case openai.RunStatusFailed:
				fr.run.LastError = &openai.RunLastError{Code: "server_error", Message: s.LastError}
			}
		}
	}
	writeJSON(w, http.StatusOK, fr.run)
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func tools(v any) []openai.AssistantTool {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]openai.AssistantTool, 0, len(raw))
	for _, t := range raw {
		if m, ok := t.(map[string]any); ok {
			out = append(out, openai.AssistantTool{Type: openai.AssistantToolType(str(m["type"]))})
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"message": message,
			"type":    "invalid_request_error",
		},
	})
}
