package handlers

import (
	"net/http"

	"github.com/deepgram/assistkit/internal/services/assistant"
	"github.com/deepgram/assistkit/pkg/httpext"
	"github.com/deepgram/assistkit/pkg/logger"
	"github.com/gorilla/mux"
)

// AssistantView is the JSON shape of a live assistant
type AssistantView struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Model        string   `json:"model"`
	Instructions string   `json:"instructions,omitempty"`
	Tools        []string `json:"tools"`
	ThreadIDs    []string `json:"thread_ids"`
	SnapshotPath string   `json:"snapshot_path,omitempty"`
}

func viewOf(a *assistant.Assistant) AssistantView {
	info := a.Info()
	tools := make([]string, 0, len(info.Tools))
	for _, t := range info.Tools {
		tools = append(tools, string(t.Type))
	}

	view := AssistantView{
		ID:           a.ID(),
		Name:         a.Name(),
		Model:        a.Model(),
		Tools:        tools,
		ThreadIDs:    a.ThreadIDs(),
		SnapshotPath: a.SnapshotPath(),
	}
	if info.Instructions != nil {
		view.Instructions = *info.Instructions
	}
	return view
}

func lookup(manager *assistant.Manager, w http.ResponseWriter, r *http.Request) (*assistant.Assistant, bool) {
	a, err := manager.Get(mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return nil, false
	}
	return a, true
}

// HandleCreateAssistant creates a remote assistant
func HandleCreateAssistant(manager *assistant.Manager, w http.ResponseWriter, r *http.Request) {
	var opts assistant.Options
	if !decode(w, r, &opts) {
		return
	}

	a, err := manager.Create(r.Context(), opts)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	logger.Info(logger.HANDLER, "Assistant %s created via API", a.ID())
	httpext.JsonResponse(w, http.StatusCreated, viewOf(a))
}

// HandleListAssistants lists the assistants owned by this process
func HandleListAssistants(manager *assistant.Manager, w http.ResponseWriter, r *http.Request) {
	views := make([]AssistantView, 0)
	for _, a := range manager.List() {
		views = append(views, viewOf(a))
	}
	httpext.JsonResponse(w, http.StatusOK, map[string]interface{}{"data": views})
}

// HandleGetAssistant returns a single assistant
func HandleGetAssistant(manager *assistant.Manager, w http.ResponseWriter, r *http.Request) {
	a, ok := lookup(manager, w, r)
	if !ok {
		return
	}
	httpext.JsonResponse(w, http.StatusOK, viewOf(a))
}

// HandleModifyAssistant applies a partial update
func HandleModifyAssistant(manager *assistant.Manager, w http.ResponseWriter, r *http.Request) {
	a, ok := lookup(manager, w, r)
	if !ok {
		return
	}

	var opts assistant.ModifyOptions
	if !decode(w, r, &opts) {
		return
	}

	if err := a.Modify(r.Context(), opts); err != nil {
		writeServiceError(w, err)
		return
	}
	httpext.JsonResponse(w, http.StatusOK, viewOf(a))
}

// HandleDeleteAssistant deletes the assistant and all of its threads
func HandleDeleteAssistant(manager *assistant.Manager, w http.ResponseWriter, r *http.Request) {
	if err := manager.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
