package split

import (
	"github.com/pkg/errors"
	"github.com/tuneinsight/lattigo/v5/he/hefloat"

	"nodenet/core/ckkswrapper"
	"nodenet/nn"
)

// Client owns the key material and the data. It outsources the first layer
// to a Server and finishes the forward pass locally.
type Client struct {
	he     *ckkswrapper.HeContext
	net    *nn.Network
	proto  *Protocol
	nextID int
}

func NewClient(he *ckkswrapper.HeContext, net *nn.Network, proto *Protocol) *Client {
	return &Client{he: he, net: net, proto: proto}
}

// Infer returns the network output for input, computing the first layer
// pre-activations on the server under encryption.
func (c *Client) Infer(input []float64) ([]float64, error) {
	if len(input) != c.net.NumberOfInputs() {
		return nil, &nn.DimensionMismatchError{Expected: c.net.NumberOfInputs(), Given: len(input)}
	}
	c.nextID++
	id := c.nextID

	augmented := append(append(make([]float64, 0, len(input)+1), input...), 1)
	ct, err := c.he.EncryptVector(augmented)
	if err != nil {
		return nil, err
	}
	ctBytes, err := ct.MarshalBinary()
	if err != nil {
		return nil, errors.Wrap(err, "encoding input ciphertext")
	}
	if err := c.proto.SendForward(id, ctBytes, ct.Level()); err != nil {
		return nil, err
	}

	layer, err := c.proto.ReceiveLayer()
	if err != nil {
		return nil, errors.Wrapf(err, "request %d", id)
	}
	if layer.RequestID != id {
		return nil, errors.Errorf("answer for request %d while waiting for %d", layer.RequestID, id)
	}
	if len(layer.Ciphertexts) != c.net.LayerSize(1) {
		return nil, &nn.DimensionMismatchError{Expected: c.net.LayerSize(1), Given: len(layer.Ciphertexts)}
	}

	activations := make([]float64, len(layer.Ciphertexts))
	for j, raw := range layer.Ciphertexts {
		zct := hefloat.NewCiphertext(c.he.Params, 1, layer.Level)
		if err := zct.UnmarshalBinary(raw); err != nil {
			return nil, errors.Wrapf(err, "decoding node %d", j)
		}
		z, err := c.he.DecryptVector(zct, 1)
		if err != nil {
			return nil, errors.Wrapf(err, "node %d", j)
		}
		activations[j] = c.net.Node(1, j).Activation().Value(z[0])
	}

	out, err := c.net.FeedForwardFrom(1, activations)
	if err != nil {
		return nil, err
	}
	return append([]float64(nil), out...), nil
}

// Close tells the server no further requests follow.
func (c *Client) Close() error {
	return c.proto.SendDone()
}
