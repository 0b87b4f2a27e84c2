package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"papertrader/internal/events"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsEnvelope struct {
	Topic   string `json:"topic"`
	Payload any    `json:"payload"`
}

// websocket streams composite signals, fills, and position closes to the
// dashboard.
func (s *Server) websocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}
	defer conn.Close()

	if s.Bus == nil {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"bus not ready"}`))
		return
	}

	signalCh, unsubSignals := s.Bus.Subscribe(events.EventCompositeSignal, 100)
	defer unsubSignals()
	fillCh, unsubFills := s.Bus.Subscribe(events.EventOrderFilled, 100)
	defer unsubFills()
	closeCh, unsubCloses := s.Bus.Subscribe(events.EventPositionClosed, 100)
	defer unsubCloses()

	for {
		var env wsEnvelope
		select {
		case msg, ok := <-signalCh:
			if !ok {
				return
			}
			env = wsEnvelope{Topic: string(events.EventCompositeSignal), Payload: msg}
		case msg, ok := <-fillCh:
			if !ok {
				return
			}
			env = wsEnvelope{Topic: string(events.EventOrderFilled), Payload: msg}
		case msg, ok := <-closeCh:
			if !ok {
				return
			}
			env = wsEnvelope{Topic: string(events.EventPositionClosed), Payload: msg}
		}
		if err := conn.WriteJSON(env); err != nil {
			log.Printf("ws write error: %v", err)
			return
		}
	}
}
