// Package split runs the first layer of a network on encrypted inputs. The
// client keeps the secret key and the data; the server holds the first layer
// weights and only ever sees ciphertexts.
package split

import (
	"encoding/gob"
	"io"

	"github.com/pkg/errors"
)

func init() {
	gob.Register(ForwardPayload{})
	gob.Register(LayerPayload{})
}

type MessageType int

const (
	// MsgForwardInput carries the encrypted, bias-augmented input vector.
	MsgForwardInput MessageType = iota
	// MsgForwardOutput carries one ciphertext per first layer node.
	MsgForwardOutput
	MsgDone
	MsgError
)

func (t MessageType) String() string {
	switch t {
	case MsgForwardInput:
		return "forward-input"
	case MsgForwardOutput:
		return "forward-output"
	case MsgDone:
		return "done"
	case MsgError:
		return "error"
	}
	return "unknown"
}

// Message is the unit exchanged on the wire.
type Message struct {
	Type    MessageType
	Payload interface{}
}

// ForwardPayload holds a serialized input ciphertext.
type ForwardPayload struct {
	RequestID  int
	Ciphertext []byte
	Level      int
}

// LayerPayload holds the serialized pre-activation ciphertexts of a layer,
// one per node, each carrying its value in slot 0.
type LayerPayload struct {
	RequestID   int
	Ciphertexts [][]byte
	Level       int
}

// Protocol encodes messages with gob over a reader/writer pair.
type Protocol struct {
	encoder *gob.Encoder
	decoder *gob.Decoder
}

func NewProtocol(r io.Reader, w io.Writer) *Protocol {
	p := &Protocol{}
	if w != nil {
		p.encoder = gob.NewEncoder(w)
	}
	if r != nil {
		p.decoder = gob.NewDecoder(r)
	}
	return p
}

func (p *Protocol) Send(msg *Message) error {
	if p.encoder == nil {
		return errors.New("protocol has no writer")
	}
	return errors.Wrapf(p.encoder.Encode(msg), "sending %s", msg.Type)
}

// Receive returns io.EOF unwrapped when the stream ends between messages.
func (p *Protocol) Receive() (*Message, error) {
	if p.decoder == nil {
		return nil, errors.New("protocol has no reader")
	}
	var msg Message
	if err := p.decoder.Decode(&msg); err != nil {
		if err == io.EOF {
			return nil, err
		}
		return nil, errors.Wrap(err, "receiving message")
	}
	return &msg, nil
}

func (p *Protocol) SendForward(requestID int, ctBytes []byte, level int) error {
	return p.Send(&Message{
		Type: MsgForwardInput,
		Payload: ForwardPayload{
			RequestID:  requestID,
			Ciphertext: ctBytes,
			Level:      level,
		},
	})
}

func (p *Protocol) SendLayer(requestID int, cts [][]byte, level int) error {
	return p.Send(&Message{
		Type: MsgForwardOutput,
		Payload: LayerPayload{
			RequestID:   requestID,
			Ciphertexts: cts,
			Level:       level,
		},
	})
}

func (p *Protocol) SendDone() error {
	return p.Send(&Message{Type: MsgDone})
}

func (p *Protocol) SendError(err error) error {
	return p.Send(&Message{
		Type:    MsgError,
		Payload: err.Error(),
	})
}

// ReceiveLayer waits for the server's answer to a forward request. A remote
// error is returned as an error; MsgDone yields io.EOF.
func (p *Protocol) ReceiveLayer() (*LayerPayload, error) {
	msg, err := p.Receive()
	if err != nil {
		return nil, err
	}
	switch msg.Type {
	case MsgError:
		return nil, errors.Errorf("remote error: %v", msg.Payload)
	case MsgDone:
		return nil, io.EOF
	case MsgForwardOutput:
	default:
		return nil, errors.Errorf("expected %s message, got %s", MsgForwardOutput, msg.Type)
	}
	payload, ok := msg.Payload.(LayerPayload)
	if !ok {
		return nil, errors.Errorf("invalid layer payload type %T", msg.Payload)
	}
	return &payload, nil
}
