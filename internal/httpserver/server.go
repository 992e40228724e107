package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/EchoPBX/c2host/internal/config"
	"github.com/EchoPBX/c2host/internal/dispatch"
	"github.com/EchoPBX/c2host/internal/events"
	"github.com/EchoPBX/c2host/internal/jwt"
	"github.com/EchoPBX/c2host/pkg/sdk"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Plugins lists the live plugin set.
type Plugins interface {
	IDs() []sdk.PluginID
	Get(id sdk.PluginID) (sdk.Plugin, bool)
}

// Journal serves recorded exchanges.
type Journal interface {
	Recent(ctx context.Context, limit int) ([]dispatch.Exchange, error)
}

type Server struct {
	cfg     *config.Config
	log     *zap.Logger
	bus     *events.Bus
	r       *chi.Mux
	jwt     *jwt.Validator
	sender  sdk.Sender
	plugins Plugins
	journal Journal
	started time.Time
}

type Option func(*Server)

func WithJournal(j Journal) Option {
	return func(s *Server) { s.journal = j }
}

func WithValidator(v *jwt.Validator) Option {
	return func(s *Server) { s.jwt = v }
}

// New builds the admin API. Commands posted to it are submitted through
// sender as coming from cfg.HTTP.EndpointID.
func New(cfg *config.Config, log *zap.Logger, bus *events.Bus, sender sdk.Sender, plugins Plugins, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:     cfg,
		log:     log.Named("http"),
		bus:     bus,
		r:       chi.NewRouter(),
		sender:  sender,
		plugins: plugins,
		started: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.jwt == nil {
		v, err := jwt.NewValidator(cfg.Auth.JWTPublicKeys, cfg.Auth.Issuer, cfg.Auth.Audience)
		if err != nil {
			return nil, err
		}
		s.jwt = v
	}
	if !s.jwt.Enabled() {
		s.log.Warn("no jwt public keys configured, admin API is unauthenticated")
	}

	s.r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))
	s.routes()
	return s, nil
}

func (s *Server) Router() http.Handler { return s.r }

type commandRequest struct {
	To      sdk.PluginID    `json:"to"`
	Payload json.RawMessage `json:"payload"`
}

func (s *Server) routes() {
	s.r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.r.Get("/v1/info", s.auth(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"name":              "c2host",
			"interface_version": sdk.InterfaceVersion.String(),
			"endpoint":          s.cfg.HTTP.EndpointID,
			"events_dropped":    s.bus.Dropped(),
			"started":           s.started,
			"time":              time.Now().UTC(),
		})
	}))

	s.r.Get("/v1/plugins", s.auth(func(w http.ResponseWriter, r *http.Request) {
		ids := s.plugins.IDs()
		out := make([]string, len(ids))
		for i, id := range ids {
			out[i] = string(id)
		}
		writeJSON(w, http.StatusOK, out)
	}))

	s.r.Post("/v1/commands", s.auth(s.postCommand))

	s.r.Get("/v1/exchanges", s.auth(func(w http.ResponseWriter, r *http.Request) {
		if s.journal == nil {
			writeError(w, http.StatusNotFound, sdk.NewError(sdk.Unsupported, "journal is disabled"))
			return
		}
		limit := 50
		if q := r.URL.Query().Get("limit"); q != "" {
			n, err := strconv.Atoi(q)
			if err != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, sdk.Errorf(sdk.InputInvalid, "bad limit %q", q))
				return
			}
			limit = n
		}
		exs, err := s.journal.Recent(r.Context(), limit)
		if err != nil {
			s.log.Warn("journal query failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if exs == nil {
			exs = []dispatch.Exchange{}
		}
		writeJSON(w, http.StatusOK, exs)
	}))

	up := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	s.r.Get("/v1/events", s.auth(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			s.log.Warn("ws upgrade failed", zap.Error(err))
			return
		}

		ch := s.bus.Subscribe()
		go func() {
			defer func() {
				s.bus.Unsubscribe(ch)
				_ = conn.Close()
			}()
			for ev := range ch {
				if err := conn.WriteJSON(ev); err != nil {
					s.log.Debug("ws write error", zap.Error(err))
					return
				}
			}
		}()

		// Reads only to notice the client going away.
		conn.SetReadLimit(1024)
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.bus.Unsubscribe(ch)
				return
			}
		}
	}))
}

func (s *Server) postCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, sdk.Errorf(sdk.InputInvalid, "decode command: %v", err))
		return
	}
	if req.To == "" {
		writeError(w, http.StatusBadRequest, sdk.NewError(sdk.InputInvalid, "missing target plugin"))
		return
	}
	if _, ok := s.plugins.Get(req.To); !ok {
		writeError(w, http.StatusNotFound, sdk.Errorf(sdk.UnknownPlugin, "no plugin with id %s", req.To))
		return
	}

	cmd := sdk.NewCommand(sdk.PluginID(s.cfg.HTTP.EndpointID), req.To, sdk.PayloadText(req.Payload))
	if err := s.sender.Send(cmd); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, sdk.ErrHostClosed) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, err)
		return
	}
	s.log.Info("command submitted",
		zap.String("id", cmd.ID),
		zap.String("to", string(cmd.To)))
	writeJSON(w, http.StatusAccepted, map[string]string{"id": cmd.ID})
}

func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.jwt.Enabled() {
			next(w, r)
			return
		}
		tok := r.Header.Get("Authorization")
		if tok == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}
		tok = strings.TrimPrefix(tok, "Bearer ")
		if _, err := s.jwt.Verify(tok); err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, sdk.AsError(err))
}
