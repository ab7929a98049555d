// Package hub fans websocket payloads out to connected viewers from a
// single goroutine and routes their replies to one handler.
package hub

import "github.com/gofiber/websocket/v2"

// Payload is one websocket frame queued for delivery. Data is shared
// between clients and must not be modified after queuing.
type Payload struct {
	Binary bool
	Data   []byte
}

// Text wraps pre-encoded JSON or other text.
func Text(data []byte) Payload {
	return Payload{Data: data}
}

// Binary wraps raw bytes, such as packed positions.
func Binary(data []byte) Payload {
	return Payload{Binary: true, Data: data}
}

func (p Payload) opcode() int {
	if p.Binary {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}
