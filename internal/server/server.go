package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jpalmerr/mideployer/internal/deploy"
	"github.com/jpalmerr/mideployer/internal/store"
)

const (
	// streamWriteTimeout is the maximum time allowed for a single SSE or
	// WebSocket write. Must be <= shutdown timeout to ensure clean shutdown.
	streamWriteTimeout = 5 * time.Second

	// shutdownTimeout bounds graceful shutdown of in-flight requests.
	shutdownTimeout = 5 * time.Second

	// maxBodyBytes limits action request bodies.
	maxBodyBytes = 64 << 10

	// defaultTitle is used when no custom title is configured.
	defaultTitle = "miDeployer"

	// titlePlaceholder is the marker in HTML that gets replaced with the actual title.
	titlePlaceholder = "{{.Title}}"
)

// Product is a product and its servers as shown on the board.
type Product struct {
	Name    string   `json:"name"`
	Servers []string `json:"servers"`
}

// User is a selectable user as shown on the board.
type User struct {
	ID          string `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DisplayName string `json:"display_name"`
}

// Board is the static part of the dashboard: title, catalog and users.
type Board struct {
	Title    string    `json:"title"`
	Products []Product `json:"products"`
	Users    []User    `json:"users"`
}

// Controller performs card actions. Errors are matched against the
// sentinel errors of the deploy package to choose a status code.
type Controller interface {
	Board() Board
	SelectUser(hostname, userID string) (store.CardState, error)
	SetBranch(hostname, branch string) (store.CardState, error)
	SetRunTests(hostname string, on bool) (store.CardState, error)
	Deploy(hostname string) (store.CardState, error)
}

// Server handles HTTP requests for the miDeployer dashboard and API.
type Server struct {
	store      store.Store
	controller Controller
	port       int
	httpServer *http.Server
	assets     fs.FS
	title      string
	logger     *slog.Logger
	upgrader   websocket.Upgrader
}

// NewServer creates a new HTTP [Server].
//
// Parameters:
//   - st: Store of card snapshots
//   - ctrl: Controller for card actions
//   - port: TCP port to listen on
//   - assets: Embedded filesystem containing dashboard assets (may be nil)
//   - title: Dashboard title (defaults to "miDeployer" if empty)
//   - logger: Logger for server events
//
// The server is not started until [Server.Start] is called.
func NewServer(st store.Store, ctrl Controller, port int, assets fs.FS, title string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:      st,
		controller: ctrl,
		port:       port,
		assets:     assets,
		title:      title,
		logger:     logger,
	}
}

// Handler returns the request router. Start serves it; tests can mount it
// on an httptest server directly.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("GET /api/board", s.handleBoard)
	mux.HandleFunc("GET /api/cards", s.handleCards)
	mux.HandleFunc("GET /api/cards/{hostname}", s.handleCard)
	mux.HandleFunc("PUT /api/cards/{hostname}/user", s.handleSelectUser)
	mux.HandleFunc("PUT /api/cards/{hostname}/branch", s.handleSetBranch)
	mux.HandleFunc("PUT /api/cards/{hostname}/tests", s.handleSetRunTests)
	mux.HandleFunc("POST /api/cards/{hostname}/deploy", s.handleDeploy)

	mux.HandleFunc("GET /api/sse", s.handleSSE)
	mux.HandleFunc("GET /api/ws", s.handleWebSocket)

	if s.assets != nil {
		mux.HandleFunc("GET /{$}", s.handleDashboard)
	}

	return mux
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns once the port is bound. The server
// shuts down gracefully when ctx is cancelled.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// request contexts end with ctx, which also ends open streams
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// handleDashboard serves the main dashboard page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	content, err := fs.ReadFile(s.assets, "assets/index.html")
	if err != nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	// apply title substitution with HTML escaping to prevent XSS
	title := s.title
	if title == "" {
		title = defaultTitle
	}
	rendered := strings.ReplaceAll(string(content), titlePlaceholder, html.EscapeString(title))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err = w.Write([]byte(rendered)); err != nil {
		s.logger.Error("failed to write dashboard response", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleBoard returns the title, product catalog and user directory.
func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	board := s.controller.Board()
	if board.Title == "" {
		board.Title = defaultTitle
	}
	s.writeJSON(w, http.StatusOK, board)
}

// handleCards returns every card snapshot in board order.
func (s *Server) handleCards(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.GetAll())
}

func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	hostname := r.PathValue("hostname")
	state, ok := s.store.Get(hostname)
	if !ok {
		s.writeError(w, fmt.Errorf("%w: %q", deploy.ErrUnknownServer, hostname))
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleSelectUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID string `json:"user_id"`
	}
	if !s.decodeBody(w, r, &body) {
		return
	}
	s.respondAction(w, r, "select_user", func(host string) (store.CardState, error) {
		return s.controller.SelectUser(host, body.UserID)
	})
}

func (s *Server) handleSetBranch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Branch string `json:"branch"`
	}
	if !s.decodeBody(w, r, &body) {
		return
	}
	s.respondAction(w, r, "set_branch", func(host string) (store.CardState, error) {
		return s.controller.SetBranch(host, body.Branch)
	})
}

func (s *Server) handleSetRunTests(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RunTests bool `json:"run_tests"`
	}
	if !s.decodeBody(w, r, &body) {
		return
	}
	s.respondAction(w, r, "set_run_tests", func(host string) (store.CardState, error) {
		return s.controller.SetRunTests(host, body.RunTests)
	})
}

func (s *Server) handleDeploy(w http.ResponseWriter, r *http.Request) {
	s.respondAction(w, r, "deploy", s.controller.Deploy)
}

// respondAction runs a card action for the hostname in the path and writes
// the resulting card, or the error.
func (s *Server) respondAction(w http.ResponseWriter, r *http.Request, action string, fn func(string) (store.CardState, error)) {
	hostname := r.PathValue("hostname")

	state, err := fn(hostname)
	if err != nil {
		s.logger.Debug("card action rejected", "action", action, "hostname", hostname, "error", err)
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, state)
}

// decodeBody reads a JSON body into v, writing a 400 on failure.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

type errorResponse struct {
	Error string `json:"error"`
}

// statusForError maps deploy errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, deploy.ErrUnknownServer):
		return http.StatusNotFound
	case errors.Is(err, deploy.ErrUnknownUser):
		return http.StatusBadRequest
	case errors.Is(err, deploy.ErrMissingUser), errors.Is(err, deploy.ErrMissingBranch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, deploy.ErrDeployInProgress):
		return http.StatusConflict
	case errors.Is(err, deploy.ErrCardClosed):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.writeJSON(w, statusForError(err), errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// handleSSE streams card updates via Server-Sent Events.
//
// The handler uses write deadlines to prevent goroutine leaks when clients are
// slow or disconnected.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)

	// may not be supported by some ResponseWriter impls
	deadlinesSupported := true

	writeAndFlush := func(data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
				s.logger.Warn("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// subscribe before the initial snapshot so no update falls in between
	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)

	for _, state := range s.store.GetAll() {
		data, err := json.Marshal(state)
		if err != nil {
			continue
		}
		if err := writeAndFlush(data); err != nil {
			return
		}
	}

	for {
		select {
		case state, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(state)
			if err != nil {
				continue
			}
			if err := writeAndFlush(data); err != nil {
				return
			}

		case <-r.Context().Done():
			// fires on both client disconnect and server shutdown
			return
		}
	}
}

// handleWebSocket streams card updates over a WebSocket connection.
//
// Messages are card snapshots encoded as JSON text frames. Anything the
// client sends is read and discarded; a read error ends the stream.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)

	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	write := func(state store.CardState) error {
		if err := conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
			return err
		}
		return conn.WriteJSON(state)
	}

	for _, state := range s.store.GetAll() {
		if err := write(state); err != nil {
			return
		}
	}

	for {
		select {
		case state, ok := <-ch:
			if !ok {
				return
			}
			if err := write(state); err != nil {
				return
			}

		case <-clientGone:
			return

		case <-r.Context().Done():
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			return
		}
	}
}
