// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package realtime fans out forum mutation events to websocket clients.
// Delivery is best effort: events published while a client is disconnected
// or slow are dropped, never queued or replayed.
package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/learnato/forum/services/forum"
	"github.com/learnato/forum/services/observability"
)

const (
	// sendBuffer is the per-client outbound queue. A client that falls this
	// far behind is disconnected rather than allowed to stall the hub.
	sendBuffer = 64

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// envelope is the wire format for every frame sent to clients.
type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub owns the set of connected clients and serializes all membership and
// broadcast operations through its Run loop.
type Hub struct {
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	clients    map[*client]bool
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 256),
		clients:    make(map[*client]bool),
	}
}

// Run drives the hub until ctx is cancelled. Call it once, in its own
// goroutine.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			return
		case c := <-h.register:
			h.clients[c] = true
			observability.ClientConnected()
			slog.Info("Websocket client connected", "connectionId", c.id, "clients", len(h.clients))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				observability.ClientDisconnected()
				slog.Info("Websocket client disconnected", "connectionId", c.id, "clients", len(h.clients))
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Slow consumer: cut it loose instead of blocking the
					// fan-out for everyone else.
					delete(h.clients, c)
					close(c.send)
					observability.ClientDisconnected()
					observability.ClientDropped()
					slog.Warn("Dropping slow websocket client", "connectionId", c.id)
				}
			}
		}
	}
}

// Publish implements forum.EventSink. Marshal failures are logged and the
// event is dropped; a broadcast failure must never fail the mutation that
// produced it.
func (h *Hub) Publish(e forum.Event) {
	msg, err := json.Marshal(envelope{Event: e.Name, Data: e.Payload})
	if err != nil {
		slog.Error("Failed to marshal realtime event", "event", e.Name, "error", err)
		return
	}
	observability.RecordEventBroadcast(e.Name)
	select {
	case h.broadcast <- msg:
	default:
		slog.Warn("Realtime broadcast queue full, dropping event", "event", e.Name)
	}
}

// ServeWS upgrades the request and attaches the client to the hub. The
// first frame every client receives is a connected hello carrying its
// connection id.
func (h *Hub) ServeWS() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("failed to upgrade the websocket", "error", err)
			return
		}

		cl := &client{
			id:   uuid.New().String(),
			conn: conn,
			send: make(chan []byte, sendBuffer),
		}

		hello, _ := json.Marshal(envelope{
			Event: "connected",
			Data:  map[string]string{"connectionId": cl.id},
		})
		cl.send <- hello

		h.register <- cl
		go cl.writePump(h)
		go cl.readPump(h)
	}
}

// writePump drains the send queue to the socket and keeps the connection
// alive with pings.
func (c *client) writePump(h *Hub) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames; the stream is one-way. It exists to
// notice disconnects and service pong control frames.
func (c *client) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
