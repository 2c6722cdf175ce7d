package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"interviewprep/internal/gateway/handler"
	"interviewprep/internal/gateway/handler/rpc"
	"interviewprep/internal/gateway/middleware"
)

const LiveInterviewPath = "/api/interview/live"

type Handlers struct {
	Sessions  *handler.SessionHandler
	Interview *handler.InterviewHandler
	Live      *rpc.LiveHandler
	RPC       *rpc.InterviewHandler
}

// NewRouter mounts REST, websocket and Connect routes and wraps them with
// request logging and CORS.
func NewRouter(h Handlers, allowedOrigins []string) http.Handler {
	router := mux.NewRouter()
	router.Use(middleware.RequestLog)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	// The live route is registered ahead of the /api/interview subrouter.
	if h.Live != nil {
		router.HandleFunc(LiveInterviewPath, h.Live.HandleLiveWS).Methods(http.MethodGet)
	}
	if h.Sessions != nil {
		h.Sessions.Register(router)
	}
	if h.Interview != nil {
		h.Interview.Register(router)
	}
	if h.RPC != nil {
		path, rpcHandler := rpc.NewInterviewServiceHandler(h.RPC)
		router.PathPrefix(path).Handler(rpcHandler)
	}

	return middleware.CORS(allowedOrigins)(router)
}
