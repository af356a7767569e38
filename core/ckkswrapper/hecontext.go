package ckkswrapper

import (
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/tuneinsight/lattigo/v5/core/rlwe"
	"github.com/tuneinsight/lattigo/v5/he/hefloat"
)

// DefaultLogN is the ring degree used by NewHeContext.
const DefaultLogN = 14

// HeContext holds the CKKS parameters and the full key material of the data
// owner. It never leaves the client; the server only receives a ServerKit.
type HeContext struct {
	Params    hefloat.Parameters
	Encoder   *hefloat.Encoder
	Encryptor *rlwe.Encryptor
	Decryptor *rlwe.Decryptor
	Evaluator *hefloat.Evaluator

	kgen *rlwe.KeyGenerator
	sk   *rlwe.SecretKey
	rlk  *rlwe.RelinearizationKey
}

// ServerKit is what the evaluating party needs: parameters, an encoder for
// its plaintext weights, and an evaluator holding the relinearization and
// rotation keys. It carries no secret key.
type ServerKit struct {
	Params    hefloat.Parameters
	Encoder   *hefloat.Encoder
	Evaluator *hefloat.Evaluator
}

// NewHeContext creates a context with DefaultLogN and panics on failure.
func NewHeContext() *HeContext {
	return must.M1(NewHeContextWithLogN(DefaultLogN))
}

// NewHeContextWithLogN creates a context over a ring of degree 2^logN with a
// 45-bit base prime, nine 34-bit primes and a scale of 2^40.
func NewHeContextWithLogN(logN int) (*HeContext, error) {
	params, err := hefloat.NewParametersFromLiteral(hefloat.ParametersLiteral{
		LogN: logN,
		Q: []uint64{0x200000008001, 0x400018001, // 45 + 9 x 34
			0x3fffd0001, 0x400060001,
			0x400068001, 0x3fff90001,
			0x400080001, 0x4000a8001,
			0x400108001, 0x3ffeb8001},
		P:               []uint64{0x7fffffd8001, 0x7fffffc8001}, // 43, 43
		LogDefaultScale: 40,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "CKKS parameters for logN=%d", logN)
	}

	kgen := hefloat.NewKeyGenerator(params)
	sk, pk := kgen.GenKeyPairNew()
	rlk := kgen.GenRelinearizationKeyNew(sk)
	return &HeContext{
		Params:    params,
		Encoder:   hefloat.NewEncoder(params),
		Encryptor: hefloat.NewEncryptor(params, pk),
		Decryptor: hefloat.NewDecryptor(params, sk),
		Evaluator: hefloat.NewEvaluator(params, rlwe.NewMemEvaluationKeySet(rlk)),
		kgen:      kgen,
		sk:        sk,
		rlk:       rlk,
	}, nil
}

// GenServerKit generates Galois keys for the given slot rotations and bundles
// them with fresh encoder and evaluator instances.
func (h *HeContext) GenServerKit(rotations []int) ServerKit {
	galEls := make([]uint64, len(rotations))
	for i, k := range rotations {
		galEls[i] = h.Params.GaloisElement(k)
	}
	evk := rlwe.NewMemEvaluationKeySet(h.rlk, h.kgen.GenGaloisKeysNew(galEls, h.sk)...)
	return ServerKit{
		Params:    h.Params,
		Encoder:   hefloat.NewEncoder(h.Params),
		Evaluator: hefloat.NewEvaluator(h.Params, evk),
	}
}

// EncryptVector packs values into the first slots of a fresh ciphertext at
// the maximum level.
func (h *HeContext) EncryptVector(values []float64) (*rlwe.Ciphertext, error) {
	if len(values) > h.Params.MaxSlots() {
		return nil, errors.Errorf("%d values do not fit in %d slots", len(values), h.Params.MaxSlots())
	}
	pt := hefloat.NewPlaintext(h.Params, h.Params.MaxLevel())
	if err := h.Encoder.Encode(values, pt); err != nil {
		return nil, errors.Wrap(err, "encode")
	}
	ct, err := h.Encryptor.EncryptNew(pt)
	if err != nil {
		return nil, errors.Wrap(err, "encrypt")
	}
	return ct, nil
}

// DecryptVector returns the real parts of the first n slots of ct.
func (h *HeContext) DecryptVector(ct *rlwe.Ciphertext, n int) ([]float64, error) {
	slots := h.Params.MaxSlots()
	if n > slots {
		return nil, errors.Errorf("requested %d slots of %d", n, slots)
	}
	decoded := make([]complex128, slots)
	if err := h.Encoder.Decode(h.Decryptor.DecryptNew(ct), decoded); err != nil {
		return nil, errors.Wrap(err, "decode")
	}
	values := make([]float64, n)
	for i := range values {
		values[i] = real(decoded[i])
	}
	return values, nil
}

// InnerSumRotations lists the rotations InnerSum needs to fold n slots into
// slot 0.
func InnerSumRotations(n int) []int {
	var rotations []int
	for k := 1; k < n; k *= 2 {
		rotations = append(rotations, k)
	}
	return rotations
}

// InnerSum folds the first n slots of ct into slot 0 by rotate-and-add. Slots
// from n up to the next power of two must be zero.
func (s ServerKit) InnerSum(ct *rlwe.Ciphertext, n int) (*rlwe.Ciphertext, error) {
	sum := ct.CopyNew()
	for _, k := range InnerSumRotations(n) {
		rotated, err := s.Evaluator.RotateNew(sum, k)
		if err != nil {
			return nil, errors.Wrapf(err, "rotate by %d", k)
		}
		if err := s.Evaluator.Add(sum, rotated, sum); err != nil {
			return nil, errors.Wrap(err, "add")
		}
	}
	return sum, nil
}

// DotPlain multiplies ct slot-wise by the plaintext vector and inner-sums the
// product, leaving the dot product in slot 0 one level below ct.
func (s ServerKit) DotPlain(ct *rlwe.Ciphertext, vector []float64) (*rlwe.Ciphertext, error) {
	if !HasLevels(ct, 1) {
		return nil, errors.Errorf("ciphertext at level %d cannot absorb a multiplication", ct.Level())
	}
	pt := hefloat.NewPlaintext(s.Params, ct.Level())
	if err := s.Encoder.Encode(vector, pt); err != nil {
		return nil, errors.Wrap(err, "encode plaintext vector")
	}
	product, err := s.Evaluator.MulNew(ct, pt)
	if err != nil {
		return nil, errors.Wrap(err, "multiply")
	}
	if err := s.Evaluator.Rescale(product, product); err != nil {
		return nil, errors.Wrap(err, "rescale")
	}
	return s.InnerSum(product, len(vector))
}
