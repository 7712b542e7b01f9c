package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"rdm-dashboard/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const clientRefreshTimeout = 30 * time.Second

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// handleWebsockets is the main Hub loop. Only this goroutine touches s.clients.
func (s *DashboardServer) handleWebsockets() {
	for {
		select {
		case <-s.quit:
			for client := range s.clients {
				delete(s.clients, client)
				close(client.send)
			}
			s.connections.Store(0)
			return

		case client := <-s.register:
			s.clients[client] = struct{}{}
			s.connections.Store(int64(len(s.clients)))
			// Send initial state on connect
			client.send <- s.snapshot("INITIAL")

		case client := <-s.unregister:
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
			}
			s.connections.Store(int64(len(s.clients)))

		case client := <-s.resync:
			if _, ok := s.clients[client]; ok {
				select {
				case client.send <- s.snapshot("INITIAL"):
				default:
				}
			}

		case message := <-s.broadcast:
			for client := range s.clients {
				select {
				case client.send <- message:
				default:
					// Client too slow, disconnect to keep the hub moving
					delete(s.clients, client)
					close(client.send)
				}
			}
			s.connections.Store(int64(len(s.clients)))
		}
	}
}

// -----------------------------------------------------------------------------
// Data Exchange Interface Implementation
// -----------------------------------------------------------------------------

// Broadcast records the view as the latest state and queues it for every
// client. It never blocks: view listeners call it under the view lock.
func (s *DashboardServer) Broadcast(view models.MViewState) {
	update := &models.MViewUpdate{Type: "UPDATE", View: view}

	s.stateMutex.Lock()
	if view.Version >= s.latestState.View.Version {
		s.latestState = update
	}
	s.stateMutex.Unlock()

	select {
	case s.broadcast <- update:
	default:
		s.Logger.Warning("Broadcast queue full, dropping view version %d", view.Version)
	}
}

// -----------------------------------------------------------------------------

// snapshot copies the latest state under the given message type.
func (s *DashboardServer) snapshot(kind string) *models.MViewUpdate {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()
	return &models.MViewUpdate{Type: kind, View: s.latestState.View}
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  s,
		conn: conn,
		// Buffered channel to prevent blocking the Hub loop
		send: make(chan *models.MViewUpdate, 256),
	}

	select {
	case s.register <- client:
	case <-s.quit:
		conn.Close()
		return
	}

	// Start goroutines for reading/writing
	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

// HandleClientMessage serves the refresh, state and dismiss commands.
// Anything unparseable disconnects the client.
func (s *DashboardServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MClientCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	switch cmd.Command {
	case "refresh":
		ctx, cancel := context.WithTimeout(context.Background(), clientRefreshTimeout)
		defer cancel()
		// Failures reach the client as a notice in the next update
		if err := s.Loop.Refresh(ctx); err != nil {
			s.Logger.Debug("Client-requested refresh failed: %v", err)
		}

	case "state":
		select {
		case s.resync <- client:
		case <-s.quit:
		}

	case "dismiss":
		s.View.DismissNotice(cmd.NoticeID)

	default:
		s.Logger.Debug("Ignoring unknown client command %q", cmd.Command)
	}
}
