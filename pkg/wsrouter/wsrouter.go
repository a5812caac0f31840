package wsrouter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
)

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type HandlerFunc[T any] func(ctx context.Context, conn *websocket.Conn, payload T) error

type Middleware func(next HandlerFunc[any]) HandlerFunc[any]

type route struct {
	decode func(json.RawMessage) (any, error)
	handle HandlerFunc[any]
}

type WSRouter struct {
	routes      map[string]route
	middlewares []Middleware
}

func New() *WSRouter {
	return &WSRouter{routes: make(map[string]route)}
}

func (r *WSRouter) Use(mw Middleware) {
	r.middlewares = append(r.middlewares, mw)
}

// Handle registers a typed handler for a message type. The payload is
// unmarshalled into T before the middleware chain runs.
func Handle[T any](r *WSRouter, messageType string, handler HandlerFunc[T]) {
	r.routes[messageType] = route{
		decode: func(raw json.RawMessage) (any, error) {
			var payload T
			if len(raw) > 0 {
				if err := json.Unmarshal(raw, &payload); err != nil {
					return nil, err
				}
			}

			return payload, nil
		},
		handle: func(ctx context.Context, conn *websocket.Conn, payload any) error {
			return handler(ctx, conn, payload.(T))
		},
	}
}

// ServeConn reads messages off the connection until it fails and routes each
// to its handler. Messages from one connection are handled in arrival order.
func (r *WSRouter) ServeConn(ctx context.Context, conn *websocket.Conn) error {
	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}

		route, exists := r.routes[msg.Type]
		if !exists {
			conn.WriteJSON(map[string]string{"error": "unknown message type"})
			continue
		}

		payload, err := route.decode(msg.Payload)
		if err != nil {
			conn.WriteJSON(map[string]string{"error": fmt.Sprintf("malformed payload: %s", err)})
			continue
		}

		handler := route.handle
		for i := len(r.middlewares) - 1; i >= 0; i-- {
			handler = r.middlewares[i](handler)
		}

		msgCtx := context.WithValue(ctx, messageTypeKey, msg.Type)
		if err := handler(msgCtx, conn, payload); err != nil {
			conn.WriteJSON(map[string]string{"error": err.Error()})
		}
	}
}
