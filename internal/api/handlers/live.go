package handlers

import (
	"net/http"

	"github.com/dom/rfid-attendance/internal/live"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the device token gate already ran
	},
}

type LiveHandler struct {
	hub *live.Hub
	log *zap.Logger
}

func NewLiveHandler(hub *live.Hub, log *zap.Logger) *LiveHandler {
	return &LiveHandler{hub: hub, log: log}
}

func (h *LiveHandler) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("live websocket upgrade failed", zap.Error(err))
		return
	}

	// Hello is queued before registering; once registered the hub may
	// close the send channel at any time.
	client := live.NewClient(h.hub, conn)
	client.Hello(h.hub.ClientCount() + 1)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
