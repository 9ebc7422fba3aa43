package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/npezzotti/go-estately/internal/config"
	"github.com/npezzotti/go-estately/internal/database"
	"github.com/npezzotti/go-estately/internal/realtime"
	"github.com/npezzotti/go-estately/internal/types"
)

// realtimeNotifier is the slice of the dispatcher the REST handlers use to
// push best-effort events to live connections.
type realtimeNotifier interface {
	NotifyMessageReceived(msg types.Message)
	NotifyMessageRead(senderId, messageId int)
	NotifyMessagesRead(peerId, readByUserId int)
	NotifyMessageDeleted(userId, messageId int)
	NotifyConversationDeleted(userId, deletedByUserId int)
}

type EstatelyApp struct {
	log            *log.Logger
	db             database.EstatelyRepository
	mux            *http.Server
	dispatcher     *realtime.Dispatcher
	notifier       realtimeNotifier
	signingKey     []byte
	allowedOrigins []string
}

func NewEstatelyApp(mux *http.ServeMux, logger *log.Logger, d *realtime.Dispatcher, db database.EstatelyRepository, cfg *config.Config) *EstatelyApp {
	s := &EstatelyApp{
		log:            logger,
		db:             db,
		dispatcher:     d,
		notifier:       d,
		signingKey:     cfg.SigningKey,
		allowedOrigins: cfg.AllowedOrigins,
	}

	mux.HandleFunc("GET /healthz", s.healthCheck)

	mux.HandleFunc("POST /api/auth/register", s.register)
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.Handle("GET /api/auth/me", s.authMiddleware(s.me))
	mux.Handle("PUT /api/auth/profile", s.authMiddleware(s.updateProfile))

	mux.Handle("POST /api/messages", s.authMiddleware(s.sendMessage))
	mux.Handle("GET /api/messages/conversations", s.authMiddleware(s.getConversations))
	mux.Handle("GET /api/messages/{peerId}", s.authMiddleware(s.getConversation))
	mux.Handle("PUT /api/messages/{messageId}/read", s.authMiddleware(s.markMessageRead))
	mux.Handle("PUT /api/messages/conversation/{peerId}/read", s.authMiddleware(s.markConversationRead))
	mux.Handle("DELETE /api/messages/message/{messageId}", s.authMiddleware(s.deleteMessage))
	mux.Handle("DELETE /api/messages/conversation/{peerId}", s.authMiddleware(s.deleteConversation))

	mux.Handle("POST /api/properties", s.authMiddleware(s.createProperty))
	mux.HandleFunc("GET /api/properties", s.listProperties)
	mux.Handle("GET /api/properties/mine", s.authMiddleware(s.myProperties))
	mux.HandleFunc("GET /api/properties/{id}", s.getProperty)
	mux.Handle("PUT /api/properties/{id}", s.authMiddleware(s.updateProperty))
	mux.Handle("DELETE /api/properties/{id}", s.authMiddleware(s.deleteProperty))

	mux.Handle("POST /api/favorites/{propertyId}", s.authMiddleware(s.addFavorite))
	mux.Handle("DELETE /api/favorites/{propertyId}", s.authMiddleware(s.removeFavorite))
	mux.Handle("GET /api/favorites", s.authMiddleware(s.listFavorites))
	mux.Handle("GET /api/favorites/{propertyId}/check", s.authMiddleware(s.checkFavorite))

	mux.Handle("GET /ws", s.authMiddleware(s.serveWs))

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept", "Authorization"}),
		handlers.AllowCredentials(),
	)(mux)

	h = handlers.CombinedLoggingHandler(os.Stdout, h)
	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *EstatelyApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *EstatelyApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}

func (s *EstatelyApp) healthCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		s.log.Printf("health check: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *EstatelyApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}
