package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	MsgAttemptSubmitted MessageType = "attempt_submitted"
	MsgError            MessageType = "error"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans survey events out to the teachers watching each survey
type Hub struct {
	// surveyID -> watching connections
	feeds map[string]map[*Connection]struct{}

	mu  sync.RWMutex
	log *zap.Logger

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
}

// Connection is one teacher's live feed for a survey
type Connection struct {
	SurveyID string
	UserID   string
	Send     chan []byte
	Hub      *Hub
}

// BroadcastMessage is a message for every watcher of a survey
type BroadcastMessage struct {
	SurveyID string
	Message  *Message
}

// NewHub creates a new WebSocket hub
func NewHub(log *zap.Logger) *Hub {
	h := &Hub{
		feeds:      make(map[string]map[*Connection]struct{}),
		log:        log,
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.feeds[conn.SurveyID] == nil {
				h.feeds[conn.SurveyID] = make(map[*Connection]struct{})
			}
			h.feeds[conn.SurveyID][conn] = struct{}{}
			h.mu.Unlock()
			h.log.Debug("feed connected", zap.String("survey_id", conn.SurveyID), zap.String("user_id", conn.UserID))

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.feeds[conn.SurveyID]; ok {
				if _, ok := conns[conn]; ok {
					delete(conns, conn)
					close(conn.Send)
					if len(conns) == 0 {
						delete(h.feeds, conn.SurveyID)
					}
				}
			}
			h.mu.Unlock()
			h.log.Debug("feed disconnected", zap.String("survey_id", conn.SurveyID), zap.String("user_id", conn.UserID))

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg.Message)
			if err != nil {
				h.log.Error("failed to encode feed message", zap.Error(err))
				continue
			}
			h.mu.RLock()
			for conn := range h.feeds[msg.SurveyID] {
				select {
				case conn.Send <- data:
				default:
					// slow reader, drop
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// Watchers returns how many feeds are open for a survey
func (h *Hub) Watchers(surveyID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.feeds[surveyID])
}

// BroadcastToSurvey sends a message to every teacher watching the survey
// (implements service.Broadcaster)
func (h *Hub) BroadcastToSurvey(surveyID string, msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("failed to encode feed payload", zap.String("type", msgType), zap.Error(err))
		return
	}
	h.broadcast <- &BroadcastMessage{
		SurveyID: surveyID,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}
}
