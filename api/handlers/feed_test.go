package handlers_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/civicsetu/civic-voice-api/api/handlers"
	"github.com/civicsetu/civic-voice-api/config"
	"github.com/civicsetu/civic-voice-api/models"
)

func TestComplaintFeed_BroadcastToDashboard(t *testing.T) {
	app := handlers.App{Config: config.Config{}}
	srv := httptest.NewServer(app.New())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/complaints"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	assert.NoError(t, err)
	if err != nil {
		return
	}
	defer conn.Close()

	complaint := models.Complaint{
		ID:       primitive.NewObjectID(),
		Title:    "Water leak near the market",
		Category: models.CategoryWaterSupply,
	}

	// the server registers the connection just after the handshake, so
	// rebroadcast until the subscriber picks the event up
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				app.Feed.Broadcast(complaint)
			}
		}
	}()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got struct {
		Event string           `json:"event"`
		Data  models.Complaint `json:"data"`
	}
	assert.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "new_complaint", got.Event)
	assert.Equal(t, complaint.Title, got.Data.Title)
}
