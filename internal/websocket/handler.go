package websocket

import (
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dreamiestore/dreamie-api/internal/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Доступ контролируется JWT, а не Origin
		return true
	},
}

// Handler обслуживает WebSocket-подключения на отдельном HTTP-слушателе
type Handler struct {
	manager    *Manager
	jwtService *utils.JWTService
}

// NewHandler создает новый экземпляр Handler
func NewHandler(manager *Manager, jwtService *utils.JWTService) *Handler {
	return &Handler{
		manager:    manager,
		jwtService: jwtService,
	}
}

// ServeHTTP апгрейдит соединение после проверки JWT.
// Браузерный WebSocket не умеет ставить заголовки, поэтому токен
// передается query-параметром token.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	userID, err := h.jwtService.ExtractUserID(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	if _, err := uuid.Parse(userID); err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Ошибка апгрейда WebSocket: %v", err)
		return
	}

	client := NewClient(userID, conn, h.manager)
	client.Start()
}

// ListenAndServe запускает выделенный слушатель для WebSocket
func (h *Handler) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", h)
	log.Printf("✅ WebSocket слушатель запущен на %s", addr)
	return http.ListenAndServe(addr, mux)
}
