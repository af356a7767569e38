package split

import (
	"io"

	"github.com/pkg/errors"
	"github.com/tuneinsight/lattigo/v5/core/rlwe"
	"github.com/tuneinsight/lattigo/v5/he/hefloat"
	"gonum.org/v1/gonum/mat"
	"k8s.io/klog/v2"

	"nodenet/core/ckkswrapper"
	"nodenet/nn"
)

// Server evaluates the pre-activations z = W·x + b of one layer on encrypted
// inputs.
type Server struct {
	kit ckkswrapper.ServerKit
	// rows holds [w_j0 .. w_j(n-1), b_j] for every node j.
	rows [][]float64
}

// NewServer builds a server for a layer with weight matrix weights (one row
// per node) and the matching biases.
func NewServer(kit ckkswrapper.ServerKit, weights *mat.Dense, biases []float64) (*Server, error) {
	r, c := weights.Dims()
	if r == 0 {
		return nil, errors.New("layer has no nodes")
	}
	if r != len(biases) {
		return nil, errors.Errorf("%d weight rows for %d biases", r, len(biases))
	}
	if c+1 > kit.Params.MaxSlots() {
		return nil, errors.Errorf("%d inputs do not fit in %d slots", c, kit.Params.MaxSlots())
	}
	rows := make([][]float64, r)
	for j := range rows {
		rows[j] = make([]float64, c+1)
		mat.Row(rows[j][:c], j, weights)
		rows[j][c] = biases[j]
	}
	return &Server{kit: kit, rows: rows}, nil
}

// NewLayerServer serves the first non-input layer of net.
func NewLayerServer(kit ckkswrapper.ServerKit, net *nn.Network) (*Server, error) {
	return NewServer(kit, net.WeightMatrix(1), net.Biases(1))
}

// Rotations returns the rotation keys a server with numInputs inputs needs.
func Rotations(numInputs int) []int {
	return ckkswrapper.InnerSumRotations(numInputs + 1)
}

// Evaluate returns one ciphertext per node holding that node's pre-activation
// in slot 0. ct must encrypt the input followed by a 1.
func (s *Server) Evaluate(ct *rlwe.Ciphertext) ([]*rlwe.Ciphertext, error) {
	out := make([]*rlwe.Ciphertext, len(s.rows))
	for j, row := range s.rows {
		z, err := s.kit.DotPlain(ct, row)
		if err != nil {
			return nil, errors.Wrapf(err, "node %d", j)
		}
		out[j] = z
	}
	return out, nil
}

// Serve answers forward requests until the peer sends MsgDone or closes the
// stream. An evaluation failure is reported to the peer and returned.
func (s *Server) Serve(p *Protocol) error {
	for {
		msg, err := p.Receive()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		switch msg.Type {
		case MsgDone:
			klog.V(1).Info("split server: peer finished")
			return nil
		case MsgForwardInput:
		default:
			err := errors.Errorf("unexpected %s message", msg.Type)
			_ = p.SendError(err)
			return err
		}

		payload, ok := msg.Payload.(ForwardPayload)
		if !ok {
			err := errors.Errorf("invalid forward payload type %T", msg.Payload)
			_ = p.SendError(err)
			return err
		}
		if err := s.answer(p, payload); err != nil {
			_ = p.SendError(err)
			return errors.Wrapf(err, "request %d", payload.RequestID)
		}
	}
}

func (s *Server) answer(p *Protocol, payload ForwardPayload) error {
	ct := hefloat.NewCiphertext(s.kit.Params, 1, payload.Level)
	if err := ct.UnmarshalBinary(payload.Ciphertext); err != nil {
		return errors.Wrap(err, "decoding input ciphertext")
	}
	zs, err := s.Evaluate(ct)
	if err != nil {
		return err
	}

	serialized := make([][]byte, len(zs))
	for j, z := range zs {
		if serialized[j], err = z.MarshalBinary(); err != nil {
			return errors.Wrapf(err, "encoding node %d", j)
		}
	}
	klog.V(1).Infof("split server: request %d evaluated %d nodes", payload.RequestID, len(zs))
	return p.SendLayer(payload.RequestID, serialized, zs[0].Level())
}
