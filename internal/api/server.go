// Package api assembles the HTTP surface: REST endpoints, the
// websocket upgrade path and the middleware chain.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"mindbridge/internal/ai"
	"mindbridge/internal/appointments"
	"mindbridge/internal/auth"
	"mindbridge/internal/chat"
	"mindbridge/internal/messaging"
	"mindbridge/internal/rooms"
	"mindbridge/internal/therapists"
	"mindbridge/internal/users"
	"mindbridge/pkg/jwt"
)

type Server struct {
	router       *mux.Router
	tokens       *jwt.JWT
	auth         *auth.JSONHandler
	socket       *chat.SocketHandler
	messaging    *messaging.JSONHandler
	rooms        *rooms.JSONHandler
	ai           *ai.JSONHandler
	appointments *appointments.JSONHandler
	therapists   *therapists.JSONHandler
	users        *users.JSONHandler
}

func NewServer(
	tokens *jwt.JWT,
	authHandler *auth.JSONHandler,
	socket *chat.SocketHandler,
	messagingHandler *messaging.JSONHandler,
	roomsHandler *rooms.JSONHandler,
	aiHandler *ai.JSONHandler,
	appointmentsHandler *appointments.JSONHandler,
	therapistsHandler *therapists.JSONHandler,
	usersHandler *users.JSONHandler,
) *Server {
	server := &Server{
		router:       mux.NewRouter(),
		tokens:       tokens,
		auth:         authHandler,
		socket:       socket,
		messaging:    messagingHandler,
		rooms:        roomsHandler,
		ai:           aiHandler,
		appointments: appointmentsHandler,
		therapists:   therapistsHandler,
		users:        usersHandler,
	}
	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	s.router.Use(Logging)

	s.router.HandleFunc("/health", s.healthCheck).Methods(http.MethodGet)
	s.router.HandleFunc("/register", s.auth.Register).Methods(http.MethodPost)
	s.router.HandleFunc("/login", s.auth.Login).Methods(http.MethodPost)
	s.router.HandleFunc("/verify", s.auth.VerifyEmail).Methods(http.MethodPost)

	// The websocket handler authenticates the token itself during the
	// handshake, so it stays outside the REST middleware.
	s.router.HandleFunc("/ws", s.socket.ServeWS)

	protected := s.router.PathPrefix("/").Subrouter()
	protected.Use(auth.Middleware(s.tokens))

	protected.HandleFunc("/messages/private", s.messaging.PrivateMessages).Methods(http.MethodGet)
	protected.HandleFunc("/messages/conversations", s.messaging.Conversations).Methods(http.MethodGet)
	protected.HandleFunc("/messages/read", s.messaging.MarkRead).Methods(http.MethodPost)

	protected.HandleFunc("/chatrooms", s.rooms.Create).Methods(http.MethodPost)
	protected.HandleFunc("/chatrooms", s.rooms.List).Methods(http.MethodGet)
	protected.HandleFunc("/chatrooms/{id}/join", s.rooms.Join).Methods(http.MethodPost)
	protected.HandleFunc("/chatrooms/{id}/leave", s.rooms.Leave).Methods(http.MethodPost)
	protected.HandleFunc("/chatrooms/{id}/messages", s.messaging.RoomMessages).Methods(http.MethodGet)

	protected.HandleFunc("/ai/chat", s.ai.Chat).Methods(http.MethodPost)
	protected.HandleFunc("/ai/conversations", s.ai.Conversations).Methods(http.MethodGet)
	protected.HandleFunc("/ai/conversations/{id}", s.ai.Conversation).Methods(http.MethodGet)

	protected.HandleFunc("/appointments", s.appointments.Book).Methods(http.MethodPost)
	protected.HandleFunc("/appointments", s.appointments.List).Methods(http.MethodGet)
	protected.HandleFunc("/appointments/{id}/confirm", s.appointments.Confirm).Methods(http.MethodPost)
	protected.HandleFunc("/appointments/{id}/cancel", s.appointments.Cancel).Methods(http.MethodPost)

	protected.HandleFunc("/notifications", s.appointments.Notifications).Methods(http.MethodGet)
	protected.HandleFunc("/notifications/unread-count", s.appointments.UnreadNotificationCount).Methods(http.MethodGet)
	protected.HandleFunc("/notifications/read-all", s.appointments.MarkAllNotificationsRead).Methods(http.MethodPost)
	protected.HandleFunc("/notifications/{id}/read", s.appointments.MarkNotificationRead).Methods(http.MethodPost)

	protected.HandleFunc("/therapists", s.therapists.Register).Methods(http.MethodPost)
	protected.HandleFunc("/therapists", s.therapists.List).Methods(http.MethodGet)
	protected.HandleFunc("/therapists/me", s.therapists.MyProfile).Methods(http.MethodGet)
	protected.HandleFunc("/therapists/me", s.therapists.Update).Methods(http.MethodPut)
	protected.HandleFunc("/therapists/{id}", s.therapists.Get).Methods(http.MethodGet)
	protected.HandleFunc("/therapists/{id}/verify", s.therapists.Verify).Methods(http.MethodPost)

	protected.HandleFunc("/profile", s.users.Profile).Methods(http.MethodGet)
	protected.HandleFunc("/profile", s.users.UpdateProfile).Methods(http.MethodPut)
	protected.HandleFunc("/profile/password", s.users.ChangePassword).Methods(http.MethodPost)
	protected.HandleFunc("/profile", s.users.DeleteAccount).Methods(http.MethodDelete)
	protected.HandleFunc("/users", s.users.List).Methods(http.MethodGet)
}

func (s *Server) Run(addr string) error {
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Status string `json:"status"`
	}{Status: "ok"})
}
