// Package hub fans surface updates out to websocket clients: status JSON on
// one hub, preview JPEG frames on another.
package hub

import "github.com/gofiber/contrib/websocket"

// Kind is the payload format of a Message.
type Kind int

const (
	JSONMessage   Kind = iota // status and caption updates
	BinaryMessage             // JPEG preview frames
)

// Opcode returns the websocket frame type used to send this kind.
func (k Kind) Opcode() int {
	if k == BinaryMessage {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}

// Message is one payload queued for every client of a hub.
type Message struct {
	Type Kind
	Data []byte
}

// NewJSONMessage wraps already encoded JSON.
func NewJSONMessage(data []byte) Message {
	return Message{Type: JSONMessage, Data: data}
}

// NewBinaryMessage wraps a binary frame.
func NewBinaryMessage(data []byte) Message {
	return Message{Type: BinaryMessage, Data: data}
}
