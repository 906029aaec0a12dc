package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"mortgage-advisor-backend/internal/advisor"
	"mortgage-advisor-backend/internal/catalog"
	"mortgage-advisor-backend/internal/config"
	"mortgage-advisor-backend/internal/db"
	"mortgage-advisor-backend/internal/types"
)

type Server struct {
	router   *chi.Mux
	advisor  *advisor.Advisor
	catalog  catalog.Store
	database *db.DB
	cfg      config.Config
}

func NewServer(cfg config.Config) (*Server, error) {
	client := openai.NewClient(cfg.OpenAIAPIKey)
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Session-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Catalog: Postgres when DB_URL is set, otherwise the seeded in-memory
	// catalog.
	var database *db.DB
	var store catalog.Store
	if cfg.DatabaseURL != "" {
		var err error
		database, err = db.New(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		log.Println("database connection established")
		if err := database.RunMigrations("./migrations"); err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		store = catalog.NewDatabaseStore(database)
	} else {
		log.Println("DB_URL not provided, using built-in product catalog")
		store = catalog.NewMemoryStore(catalog.DefaultProducts())
	}

	extractor, err := advisor.LoadExtractor(cfg.ExtractPromptFile, client, cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to load extraction prompt: %w", err)
	}
	sessions := advisor.NewSessionStore(cfg.MaxHistoryMessages)
	adv := advisor.New(sessions, extractor, store, client, cfg.Model, cfg.ChatTimeout)

	s := &Server{
		router:   r,
		advisor:  adv,
		catalog:  store,
		database: database,
		cfg:      cfg,
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.router.Get("/api/health", s.handleHealth)
	s.router.Post("/api/chat", s.handleChat)
	s.router.Get("/api/products", s.handleProducts)
}

func (s *Server) Router() http.Handler { return s.router }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.database != nil {
		if err := s.database.HealthCheck(); err != nil {
			s.writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	sid := getOrCreateSessionID(r, w, req.SessionID)

	reply, err := s.advisor.Respond(r.Context(), sid, req.Message)
	if err != nil {
		log.Printf("[chat] respond failed for session %s: %v", sid, err)
		s.writeError(w, http.StatusInternalServerError, "failed to process message")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Session-Id", sid)
	_ = json.NewEncoder(w).Encode(types.ChatResponse{
		SessionID: sid,
		Reply:     reply,
		Stage:     string(s.advisor.Stage(sid)),
	})
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.catalog.AllProducts(r.Context())
	if err != nil {
		log.Println("failed to load products:", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load products")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"products": products})
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg})
}

// getSessionID retrieves the session ID from cookie, header, query or body.
func getSessionID(r *http.Request, bodySessionID string) string {
	if cookie, err := GetSessionCookie(r); err == nil && cookie != "" {
		return cookie
	}
	if sid := r.Header.Get("X-Session-Id"); sid != "" {
		return sid
	}
	if sid := r.URL.Query().Get("sessionId"); sid != "" {
		return sid
	}
	return strings.TrimSpace(bodySessionID)
}

// getOrCreateSessionID gets the existing session ID or creates a new one,
// setting the cookie.
func getOrCreateSessionID(r *http.Request, w http.ResponseWriter, bodySessionID string) string {
	sid := getSessionID(r, bodySessionID)
	if sid == "" {
		sid = "s_" + uuid.NewString()
		log.Printf("[session] creating new session: %s", sid)
	}
	SetSessionCookie(w, sid)
	return sid
}
