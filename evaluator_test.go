package cubism

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestDynamicFlagsHas(t *testing.T) {
	f := FlagIsVisible | FlagOpacityDidChange
	if !f.Has(FlagIsVisible) || !f.Has(FlagIsVisible|FlagOpacityDidChange) {
		t.Error("Has missed set bits")
	}
	if f.Has(FlagIsVisible | FlagBlendColorDidChange) {
		t.Error("Has matched a partially set mask")
	}
}

func TestStaticEvaluatorPublishesOnce(t *testing.T) {
	var e StaticEvaluator
	var dst EvaluatedFrame
	if e.TryRead(&dst) {
		t.Fatal("TryRead succeeded before any frame")
	}

	orders := []int{3, 1}
	e.Set(EvaluatedFrame{DrawableRenderOrders: orders})
	orders[0] = 99 // Set copies
	if e.TryRead(&dst) {
		t.Fatal("TryRead succeeded before Evaluate")
	}

	if err := e.Evaluate(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !e.TryRead(&dst) {
		t.Fatal("TryRead failed after Evaluate")
	}
	if dst.DrawableRenderOrders[0] != 3 {
		t.Errorf("frame aliased the caller's slice: %v", dst.DrawableRenderOrders)
	}
	if e.TryRead(&dst) {
		t.Error("frame handed out twice")
	}
}

func TestStaticEvaluatorCanceled(t *testing.T) {
	var e StaticEvaluator
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := e.Evaluate(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestStaticEvaluatorConcurrent(t *testing.T) {
	var e StaticEvaluator
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Set(EvaluatedFrame{DrawableOpacities: []float64{float64(i)}})
			_ = e.Evaluate(context.Background())
		}()
	}
	var dst EvaluatedFrame
	for range 8 {
		e.TryRead(&dst)
	}
	wg.Wait()
}

func TestCloneFrameDeep(t *testing.T) {
	src := EvaluatedFrame{VertexPositions: [][]float32{{1, 2}}, PartOpacities: []float64{0.5}}
	out := cloneFrame(src)
	src.VertexPositions[0][0] = 42
	src.PartOpacities[0] = 0
	if out.VertexPositions[0][0] != 1 {
		t.Error("vertex positions not deep-copied")
	}
	if out.PartOpacities[0] != 0.5 {
		t.Error("part opacities not copied")
	}
}
