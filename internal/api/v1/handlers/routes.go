package handlers

import (
	"net/http"

	"github.com/deepgram/assistkit/internal/api/v1/handlers/oauth"
	v1mware "github.com/deepgram/assistkit/internal/api/v1/middleware"
	"github.com/deepgram/assistkit/internal/config"
	"github.com/deepgram/assistkit/internal/services"
	oauthsvc "github.com/deepgram/assistkit/internal/services/oauth"
	"github.com/gorilla/mux"
)

func RegisterV1Routes(router *mux.Router, services *services.Services) {
	manager := services.GetAssistantManager()
	conns := services.GetConnectionManager()

	// Token exchange sits outside bearer auth
	router.HandleFunc("/v1/oauth/token", oauth.HandleToken).Methods("POST")

	v1 := router.PathPrefix("/v1").Subrouter()
	v1.Use(v1mware.RequireAuth(config.IsAuthEnabled()))
	v1.Use(v1mware.RateLimit("global"))

	// Read routes
	v1readRouter := v1.NewRoute().Subrouter()
	v1readRouter.Use(v1mware.RequireScope(oauthsvc.ScopeAssistantsRead))
	v1readRouter.HandleFunc("/assistants", func(w http.ResponseWriter, r *http.Request) {
		HandleListAssistants(manager, w, r)
	}).Methods("GET")
	v1readRouter.HandleFunc("/assistants/{id}", func(w http.ResponseWriter, r *http.Request) {
		HandleGetAssistant(manager, w, r)
	}).Methods("GET")
	v1readRouter.HandleFunc("/assistants/{id}/threads/{thread_id}/response", func(w http.ResponseWriter, r *http.Request) {
		HandleGetResponse(manager, w, r)
	}).Methods("GET")

	// Write routes
	v1writeRouter := v1.NewRoute().Subrouter()
	v1writeRouter.Use(v1mware.RequireScope(oauthsvc.ScopeAssistantsWrite))
	v1writeRouter.Use(v1mware.RateLimit("assistant_write"))
	v1writeRouter.HandleFunc("/assistants", func(w http.ResponseWriter, r *http.Request) {
		HandleCreateAssistant(manager, w, r)
	}).Methods("POST")
	v1writeRouter.HandleFunc("/assistants/{id}", func(w http.ResponseWriter, r *http.Request) {
		HandleModifyAssistant(manager, w, r)
	}).Methods("PATCH")
	v1writeRouter.HandleFunc("/assistants/{id}", func(w http.ResponseWriter, r *http.Request) {
		HandleDeleteAssistant(manager, w, r)
	}).Methods("DELETE")
	v1writeRouter.HandleFunc("/assistants/{id}/threads", func(w http.ResponseWriter, r *http.Request) {
		HandleCreateThread(manager, w, r)
	}).Methods("POST")
	v1writeRouter.HandleFunc("/assistants/{id}/threads/{thread_id}", func(w http.ResponseWriter, r *http.Request) {
		HandleDeleteThread(manager, w, r)
	}).Methods("DELETE")
	v1writeRouter.HandleFunc("/assistants/{id}/threads/{thread_id}/messages", func(w http.ResponseWriter, r *http.Request) {
		HandleAddMessage(manager, w, r)
	}).Methods("POST")

	// Run routes
	v1runRouter := v1.NewRoute().Subrouter()
	v1runRouter.Use(v1mware.RequireScope(oauthsvc.ScopeAssistantsWrite))
	v1runRouter.Use(v1mware.RateLimit("run"))
	v1runRouter.HandleFunc("/assistants/{id}/threads/{thread_id}/runs", func(w http.ResponseWriter, r *http.Request) {
		HandleRun(manager, w, r)
	}).Methods("POST")
	v1runRouter.HandleFunc("/assistants/{id}/threads/{thread_id}/runs/stream", func(w http.ResponseWriter, r *http.Request) {
		HandleRunStream(manager, conns, w, r)
	}).Methods("GET")
}
