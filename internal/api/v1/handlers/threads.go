package handlers

import (
	"net/http"

	"github.com/deepgram/assistkit/internal/services/assistant"
	"github.com/deepgram/assistkit/pkg/httpext"
	"github.com/gorilla/mux"
)

type messageRequest struct {
	Content string `json:"content" validate:"required"`
	assistant.MessageOptions
}

type responseView struct {
	ThreadID string `json:"thread_id"`
	Response string `json:"response"`
}

// HandleCreateThread opens a thread, optionally seeded with a user message
func HandleCreateThread(manager *assistant.Manager, w http.ResponseWriter, r *http.Request) {
	a, ok := lookup(manager, w, r)
	if !ok {
		return
	}

	var opts assistant.ThreadOptions
	if !decode(w, r, &opts) {
		return
	}

	thread, err := a.CreateThread(r.Context(), opts)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpext.JsonResponse(w, http.StatusCreated, thread)
}

// HandleDeleteThread deletes a thread
func HandleDeleteThread(manager *assistant.Manager, w http.ResponseWriter, r *http.Request) {
	a, ok := lookup(manager, w, r)
	if !ok {
		return
	}

	if err := a.DeleteThread(r.Context(), mux.Vars(r)["thread_id"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAddMessage posts a user message to a thread
func HandleAddMessage(manager *assistant.Manager, w http.ResponseWriter, r *http.Request) {
	a, ok := lookup(manager, w, r)
	if !ok {
		return
	}

	var req messageRequest
	if !decode(w, r, &req) {
		return
	}

	msg, err := a.AddMessage(r.Context(), mux.Vars(r)["thread_id"], req.Content, req.MessageOptions)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpext.JsonResponse(w, http.StatusCreated, msg)
}

// HandleGetResponse returns the newest assistant reply in a thread
func HandleGetResponse(manager *assistant.Manager, w http.ResponseWriter, r *http.Request) {
	a, ok := lookup(manager, w, r)
	if !ok {
		return
	}

	threadID := mux.Vars(r)["thread_id"]
	text, err := a.Response(r.Context(), threadID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpext.JsonResponse(w, http.StatusOK, responseView{ThreadID: threadID, Response: text})
}

// HandleRun runs the assistant on a thread and waits for the outcome
func HandleRun(manager *assistant.Manager, w http.ResponseWriter, r *http.Request) {
	a, ok := lookup(manager, w, r)
	if !ok {
		return
	}

	var opts assistant.RunOptions
	if !decode(w, r, &opts) {
		return
	}

	result, err := a.Run(r.Context(), mux.Vars(r)["thread_id"], opts)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpext.JsonResponse(w, http.StatusOK, result)
}
