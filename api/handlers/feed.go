package handlers

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/civicsetu/civic-voice-api/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // dashboard origins vary per deployment
	},
}

// ComplaintFeed pushes newly registered and reprioritized complaints to
// connected staff dashboards.
type ComplaintFeed struct {
	clients map[*websocket.Conn]bool
	mutex   sync.Mutex
}

// NewComplaintFeed returns an empty feed hub
func NewComplaintFeed() *ComplaintFeed {
	return &ComplaintFeed{clients: make(map[*websocket.Conn]bool)}
}

// FeedHandler upgrades a dashboard connection and keeps it registered until
// the peer goes away.
func (f *ComplaintFeed) FeedHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Warnw("complaint feed upgrade failed", "error", err.Error())
		return
	}

	f.mutex.Lock()
	f.clients[conn] = true
	count := len(f.clients)
	f.mutex.Unlock()
	zap.S().Infow("dashboard connected to complaint feed", "clients", count)

	// drain reads until the peer closes; the feed is write-only
	for {
		if _, _, err := conn.NextReader(); err != nil {
			break
		}
	}

	f.mutex.Lock()
	delete(f.clients, conn)
	f.mutex.Unlock()
	conn.Close()
	zap.S().Info("dashboard disconnected from complaint feed")
}

// Broadcast sends a complaint event to every connected dashboard. Dead
// connections are dropped on write failure.
func (f *ComplaintFeed) Broadcast(complaint models.Complaint) {
	f.broadcast("new_complaint", complaint)
}

// BroadcastReprioritized announces a priority change to every dashboard
func (f *ComplaintFeed) BroadcastReprioritized(complaint models.Complaint) {
	f.broadcast("complaint_reprioritized", complaint)
}

func (f *ComplaintFeed) broadcast(event string, complaint models.Complaint) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	for conn := range f.clients {
		err := conn.WriteJSON(map[string]interface{}{
			"event": event,
			"data":  complaint,
		})
		if err != nil {
			zap.S().Warnw("dropping dead complaint feed connection", "error", err.Error())
			delete(f.clients, conn)
			conn.Close()
		}
	}
}
