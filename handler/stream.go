package handler

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// StreamInterval is how often the progress stream checks for changes.
var StreamInterval = 500 * time.Millisecond

const pingInterval = 30 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // AR clients connect from arbitrary origins
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// StreamProgress pushes a ProgressResponse whenever it changes, plus one on connect.
func StreamProgress(c *gin.Context) {
	if !sessionReady(c) {
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade to websocket: %v", err)
		return
	}
	defer conn.Close()

	var mu sync.Mutex
	done := make(chan struct{})

	// the client only ever closes; reading is needed to observe that
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("progress stream error: %v", err)
				}
				return
			}
		}
	}()

	send := func(v interface{}) bool {
		mu.Lock()
		defer mu.Unlock()
		if err := conn.WriteJSON(v); err != nil {
			log.Printf("progress stream write failed: %v", err)
			return false
		}
		return true
	}

	last := progress()
	if !send(last) {
		return
	}

	ticker := time.NewTicker(StreamInterval)
	defer ticker.Stop()
	pingTicker := time.NewTicker(pingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case <-pingTicker.C:
			mu.Lock()
			err := conn.WriteMessage(websocket.PingMessage, nil)
			mu.Unlock()
			if err != nil {
				log.Printf("Ping failed: %v", err)
				return
			}
		case <-ticker.C:
			cur := progress()
			if sameProgress(cur, last) {
				continue
			}
			if !send(cur) {
				return
			}
			last = cur
		}
	}
}

func sameProgress(a, b ProgressResponse) bool {
	return a.SessionID == b.SessionID &&
		a.Active == b.Active &&
		a.Arrived == b.Arrived &&
		a.CurrentInstructionIndex == b.CurrentInstructionIndex &&
		a.TrackedPosition == b.TrackedPosition &&
		a.FeedStatus == b.FeedStatus &&
		a.HasFix == b.HasFix
}
