package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"litmus-quiz-service/internal/app"
)

// NewRouter wires the HTTP surface: health probe, catalog bootstrap, and the
// websocket session endpoint.
func NewRouter(service *app.QuizService) *mux.Router {
	handler := NewWSHandler(service)

	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/catalog", handler.CatalogHandler).Methods(http.MethodGet)
	r.HandleFunc("/ws", handler.ServeWS)
	return r
}
