package cubism

import (
	"context"
	"slices"
	"sync"
)

// DynamicFlags are the per-drawable bits the native evaluator reports each
// frame.
type DynamicFlags uint8

const (
	FlagIsVisible DynamicFlags = 1 << iota
	FlagVisibilityDidChange
	FlagOpacityDidChange
	FlagDrawOrderDidChange
	FlagRenderOrderDidChange
	FlagVertexPositionsDidChange
	FlagBlendColorDidChange
)

// Has reports whether every bit of f2 is set in f.
func (f DynamicFlags) Has(f2 DynamicFlags) bool {
	return f&f2 == f2
}

// EvaluatedFrame is one frame of evaluator output, indexed by stable slot.
// Slices may be shorter than the model's slot counts; missing entries leave
// the model unchanged.
type EvaluatedFrame struct {
	DrawableRenderOrders []int
	DrawableOpacities    []float64
	DrawableFlags        []DynamicFlags
	// VertexPositions holds x,y pairs per drawable.
	VertexPositions [][]float32

	// MultiplyColors and ScreenColors apply to offscreens whose
	// FlagBlendColorDidChange bit is set in OffscreenFlags.
	OffscreenRenderOrders []int
	OffscreenOpacities    []float64
	OffscreenFlags        []DynamicFlags
	MultiplyColors        []Color
	ScreenColors          []Color

	// PartOpacities replaces the opacity of each part.
	PartOpacities []float64
}

// Evaluator is the boundary to the model evaluation library. Evaluate may run
// on a worker goroutine; TryRead is called from the rendering goroutine and
// copies the latest completed frame into dst, returning false when nothing new
// has completed since the last read.
type Evaluator interface {
	Evaluate(ctx context.Context) error
	TryRead(dst *EvaluatedFrame) bool
}

// StaticEvaluator is an in-memory Evaluator whose output is set by the host.
// Each Set publishes a frame that becomes readable after the next Evaluate.
type StaticEvaluator struct {
	mu        sync.Mutex
	pending   EvaluatedFrame
	ready     EvaluatedFrame
	hasFrame  bool
	evaluated bool
}

// Set stages a frame. It is copied, so the caller may reuse f.
func (e *StaticEvaluator) Set(f EvaluatedFrame) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending = cloneFrame(f)
	e.hasFrame = true
}

// Evaluate publishes the staged frame.
func (e *StaticEvaluator) Evaluate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.hasFrame {
		return nil
	}
	e.ready = e.pending
	e.pending = EvaluatedFrame{}
	e.hasFrame = false
	e.evaluated = true
	return nil
}

// TryRead hands out the published frame once.
func (e *StaticEvaluator) TryRead(dst *EvaluatedFrame) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.evaluated {
		return false
	}
	*dst = e.ready
	e.ready = EvaluatedFrame{}
	e.evaluated = false
	return true
}

func cloneFrame(f EvaluatedFrame) EvaluatedFrame {
	out := EvaluatedFrame{
		DrawableRenderOrders:  slices.Clone(f.DrawableRenderOrders),
		DrawableOpacities:     slices.Clone(f.DrawableOpacities),
		DrawableFlags:         slices.Clone(f.DrawableFlags),
		OffscreenRenderOrders: slices.Clone(f.OffscreenRenderOrders),
		OffscreenOpacities:    slices.Clone(f.OffscreenOpacities),
		OffscreenFlags:        slices.Clone(f.OffscreenFlags),
		MultiplyColors:        slices.Clone(f.MultiplyColors),
		ScreenColors:          slices.Clone(f.ScreenColors),
		PartOpacities:         slices.Clone(f.PartOpacities),
	}
	if f.VertexPositions != nil {
		out.VertexPositions = make([][]float32, len(f.VertexPositions))
		for i, v := range f.VertexPositions {
			out.VertexPositions[i] = slices.Clone(v)
		}
	}
	return out
}
