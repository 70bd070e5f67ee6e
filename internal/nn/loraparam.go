package nn

import (
	"errors"
	"fmt"
	"math"

	"github.com/born-ml/lora/internal/tensor"
)

// ErrAdapterIndex is wrapped by every IndexError.
var ErrAdapterIndex = errors.New("adapter index out of range")

// IndexError reports a selection outside the loaded adapter history.
type IndexError struct {
	Index int // Requested index
	Len   int // Number of loaded adapters
}

// Error implements the error interface.
func (e *IndexError) Error() string {
	return fmt.Sprintf("adapter index %d out of range [0, %d)", e.Index, e.Len)
}

// Unwrap returns ErrAdapterIndex.
func (e *IndexError) Unwrap() error {
	return ErrAdapterIndex
}

// LoRAConfig holds the LoRA hyper-parameters.
type LoRAConfig struct {
	Rank  int     // Inner dimension of the A/B factors
	Alpha float64 // Update is scaled by Alpha / Rank
}

// DefaultLoRAConfig is rank 4, alpha 1.
var DefaultLoRAConfig = LoRAConfig{Rank: 4, Alpha: 1}

// LoRAParametrization adds a low-rank update to the tensor it parametrizes:
//
//	W' = W + (B @ A) * alpha / rank
//
// For a weight used as [fan_out, fan_in] (Linear), A is [rank, fan_in] and B
// is [fan_out, rank]. For a weight laid out [fan_in, fan_out] (Embedding) the
// factor shapes are transposed and the update is A @ B.
//
// A is Kaiming-uniform initialized and B starts at zero, so a fresh adapter
// leaves the weight unchanged.
//
// The parametrization also keeps a history of (A, B) pairs so that several
// trained adapters can be loaded once and switched by index.
type LoRAParametrization struct {
	rank    int
	alpha   float64
	scaling float32
	swap    bool // fan-in/fan-out transposed layout
	enabled bool

	loraA *Parameter
	loraB *Parameter

	historyA []*Parameter
	historyB []*Parameter
}

// NewLoRAParametrization creates an enabled adapter for a weight with the
// given fan-in and fan-out.
//
// Panics if cfg.Rank is not positive.
func NewLoRAParametrization(fanIn, fanOut int, swap bool, cfg LoRAConfig) *LoRAParametrization {
	if cfg.Rank <= 0 {
		panic(fmt.Sprintf("NewLoRAParametrization: rank must be > 0, got %d", cfg.Rank))
	}

	shapeA := tensor.Shape{cfg.Rank, fanIn}
	shapeB := tensor.Shape{fanOut, cfg.Rank}
	if swap {
		shapeA = tensor.Shape{fanIn, cfg.Rank}
		shapeB = tensor.Shape{cfg.Rank, fanOut}
	}

	return &LoRAParametrization{
		rank:    cfg.Rank,
		alpha:   cfg.Alpha,
		scaling: float32(cfg.Alpha / float64(cfg.Rank)),
		swap:    swap,
		enabled: true,
		loraA:   NewParameter("lora_A", KaimingUniform(shapeA, math.Sqrt(5))),
		loraB:   NewParameter("lora_B", tensor.Zeros(shapeB)),
	}
}

// LoRAFromLinear creates an adapter matching l's [out, in] weight.
func LoRAFromLinear(l *Linear, cfg LoRAConfig) *LoRAParametrization {
	return NewLoRAParametrization(l.InFeatures(), l.OutFeatures(), false, cfg)
}

// LoRAFromEmbedding creates an adapter matching e's [num, dim] weight, with
// the transposed factor layout.
func LoRAFromEmbedding(e *Embedding, cfg LoRAConfig) *LoRAParametrization {
	return NewLoRAParametrization(e.NumEmbed, e.EmbedDim, true, cfg)
}

// Apply returns x plus the scaled low-rank update, or x itself when the
// adapter is disabled.
func (p *LoRAParametrization) Apply(x *tensor.Tensor) *tensor.Tensor {
	if !p.enabled {
		return x
	}

	var delta *tensor.Tensor
	if p.swap {
		delta = p.loraA.Tensor().MatMul(p.loraB.Tensor())
	} else {
		delta = p.loraB.Tensor().MatMul(p.loraA.Tensor())
	}

	view, err := delta.Reshape(x.Shape())
	if err != nil {
		panic(fmt.Sprintf("LoRAParametrization.Apply: update %v does not fit weight %v", delta.Shape(), x.Shape()))
	}
	return x.AddScaled(view, p.scaling)
}

// Enable turns the update on.
func (p *LoRAParametrization) Enable() {
	p.enabled = true
}

// Disable turns the update off; Apply then returns its input unchanged.
func (p *LoRAParametrization) Disable() {
	p.enabled = false
}

// Enabled reports whether the update is applied.
func (p *LoRAParametrization) Enabled() bool {
	return p.enabled
}

// A returns the active A factor.
func (p *LoRAParametrization) A() *Parameter {
	return p.loraA
}

// B returns the active B factor.
func (p *LoRAParametrization) B() *Parameter {
	return p.loraB
}

// SetFactors replaces the active factors. The parameters are stored by
// reference, not copied.
func (p *LoRAParametrization) SetFactors(a, b *Parameter) {
	p.loraA = a
	p.loraB = b
}

// Rank returns the adapter rank.
func (p *LoRAParametrization) Rank() int {
	return p.rank
}

// Alpha returns the adapter alpha.
func (p *LoRAParametrization) Alpha() float64 {
	return p.alpha
}

// Scaling returns alpha / rank.
func (p *LoRAParametrization) Scaling() float32 {
	return p.scaling
}

// Swapped reports whether the factors use the transposed layout.
func (p *LoRAParametrization) Swapped() bool {
	return p.swap
}

// ResetHistory empties the adapter history.
func (p *LoRAParametrization) ResetHistory() {
	p.historyA = []*Parameter{}
	p.historyB = []*Parameter{}
}

// AppendActive snapshots copies of the active factors onto the history.
func (p *LoRAParametrization) AppendActive() {
	p.historyA = append(p.historyA, p.loraA.Clone())
	p.historyB = append(p.historyB, p.loraB.Clone())
}

// NumAdapters returns the length of the adapter history.
func (p *LoRAParametrization) NumAdapters() int {
	return len(p.historyA)
}

// CheckIndex returns an *IndexError if i is not a valid history index.
func (p *LoRAParametrization) CheckIndex(i int) error {
	if i < 0 || i >= len(p.historyA) || i >= len(p.historyB) {
		return &IndexError{Index: i, Len: min(len(p.historyA), len(p.historyB))}
	}
	return nil
}

// SelectAdapter makes history entry i the active pair. The active factors
// then refer to the history entries themselves.
func (p *LoRAParametrization) SelectAdapter(i int) error {
	if err := p.CheckIndex(i); err != nil {
		return err
	}
	p.loraA = p.historyA[i]
	p.loraB = p.historyB[i]
	return nil
}

// Children returns nothing.
func (p *LoRAParametrization) Children() []Child {
	return nil
}

// LocalParameters returns lora_A and lora_B. The history is not part of
// the parameter tree.
func (p *LoRAParametrization) LocalParameters() []NamedParameter {
	return []NamedParameter{
		{Name: "lora_A", Param: p.loraA},
		{Name: "lora_B", Param: p.loraB},
	}
}
