package cubism

import (
	"context"
	"errors"
	"testing"
)

func TestNewRendererValidates(t *testing.T) {
	if _, err := NewRenderer(DefaultConfig(), nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("nil allocator: err = %v, want ErrInvalidConfig", err)
	}
	cfg := DefaultConfig()
	cfg.ScreenWidth = 0
	if _, err := NewRenderer(cfg, NewHeadlessAllocator()); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("zero width: err = %v, want ErrInvalidConfig", err)
	}
}

func TestRenderEmptyFrame(t *testing.T) {
	r := newTestRenderer(t)
	cb := NewCommandBuffer()
	stats := r.Render(cb)

	want := []CommandType{CmdSetRenderTarget, CmdClearRenderTarget, CmdSetViewMatrix, CmdSetProjectionMatrix, CmdBlit}
	cmds := cb.Commands()
	if len(cmds) != len(want) {
		t.Fatalf("recorded %d commands, want %d", len(cmds), len(want))
	}
	for i, c := range cmds {
		if c.Type != want[i] {
			t.Errorf("command %d = %s, want %s", i, c.Type, want[i])
		}
	}
	if cmds[1].ClearFlags != ClearColor|ClearDepth {
		t.Errorf("root clear flags = %d, want color|depth", cmds[1].ClearFlags)
	}
	if stats.Commands != 5 || stats.Blits != 1 || stats.DrawCalls != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRenderAppendsToBuffer(t *testing.T) {
	r := newTestRenderer(t)
	r.AddController(NewRenderController("m", singleDrawableModel(t, 0), nil))
	cb := NewCommandBuffer()
	first := r.Render(cb).Commands
	second := r.Render(cb).Commands
	if cb.Len() != first+second {
		t.Errorf("buffer holds %d commands, want %d", cb.Len(), first+second)
	}
}

func maskedModel(t testing.TB) *Model {
	mask := drawable(0, 0)
	mask.Visible = false
	mask.Mesh = quad(0, 0, 20, 20)
	a := drawable(0, 1)
	a.Masks = []int{0}
	a.Mesh = quad(5, 5, 10, 10)
	b := drawable(0, 2)
	b.Masks = []int{0}
	b.InvertedMask = true
	return mustModel(t, []Part{part(-1, -1)}, []DrawObject{mask, a, b}, nil)
}

func TestRenderMaskedDrawables(t *testing.T) {
	for _, pages := range []int{0, 2} {
		cfg := DefaultConfig()
		cfg.MaskPages = pages
		r, err := NewRenderer(cfg, NewHeadlessAllocator())
		if err != nil {
			t.Fatal(err)
		}
		c := NewRenderController("masked", maskedModel(t), nil)
		r.AddController(c)

		if n := r.Masks().Pool().Used(); n != 1 {
			t.Errorf("pages=%d: %d tiles in use, want 1 (one shared mask set)", pages, n)
		}

		cmds := renderOnce(r)
		maskDraw := findCommand(cmds, func(c *Command) bool { return c.Params.Material == MaterialMask })
		drawA := findCommand(cmds, isDraw(1))
		drawB := findCommand(cmds, isDraw(2))
		if maskDraw < 0 || drawA < 0 || drawB < 0 {
			t.Fatalf("pages=%d: mask=%d a=%d b=%d", pages, maskDraw, drawA, drawB)
		}
		if maskDraw > drawA {
			t.Errorf("pages=%d: mask pass after the masked draw", pages)
		}
		if cmds[maskDraw].Target != r.Masks().Page(0).ID {
			t.Errorf("pages=%d: mask geometry drawn into %d, want page 0", pages, cmds[maskDraw].Target)
		}

		pa, pb := cmds[drawA].Params, cmds[drawB].Params
		if pa.Material != MaterialUnlitMasked || !pa.Mask.Active || pa.Mask.Inverted {
			t.Errorf("pages=%d: drawable a params = %+v", pages, pa)
		}
		if !pb.Mask.Inverted {
			t.Errorf("pages=%d: drawable b lost its inverted flag", pages)
		}
		if pa.Mask.Tile != pb.Mask.Tile {
			t.Errorf("pages=%d: drawables with the same mask set use different tiles", pages)
		}
		if pa.Mask.Page != r.Masks().Page(pa.Mask.Tile.Page).ID {
			t.Errorf("pages=%d: mask page id %d", pages, pa.Mask.Page)
		}

		// The union of the masked meshes maps into the tile.
		x, y := transformPoint32(pa.Mask.Matrix, 5, 5)
		tr := pa.Mask.Tile.Rect()
		if float64(x) < tr.X || float64(y) < tr.Y ||
			float64(x) > tr.X+tr.Width || float64(y) > tr.Y+tr.Height {
			t.Errorf("pages=%d: (5,5) maps to (%v,%v), outside tile %+v", pages, x, y, tr)
		}
	}
}

func TestRemoveControllerReleasesMasks(t *testing.T) {
	r := newTestRenderer(t)
	c := NewRenderController("masked", maskedModel(t), nil)
	r.AddController(c)
	r.AddController(c) // duplicate ignored
	if len(r.Controllers()) != 1 || len(r.Masks().Sources()) != 1 {
		t.Fatalf("controllers=%d sources=%d", len(r.Controllers()), len(r.Masks().Sources()))
	}
	renderOnce(r)

	r.RemoveController(c)
	if len(r.Controllers()) != 0 || len(r.Masks().Sources()) != 0 {
		t.Errorf("after remove: controllers=%d sources=%d", len(r.Controllers()), len(r.Masks().Sources()))
	}
	cmds := renderOnce(r)
	if countDrawCalls(cmds) != 0 {
		t.Error("removed controller still drawn")
	}
	if len(r.Groups()) != 0 {
		t.Errorf("%d groups left after removal", len(r.Groups()))
	}
}

type failingEvaluator struct{ err error }

func (e failingEvaluator) Evaluate(ctx context.Context) error { return e.err }
func (failingEvaluator) TryRead(*EvaluatedFrame) bool          { return false }

func TestEvaluateRunsAllAndWrapsErrors(t *testing.T) {
	r := newTestRenderer(t)
	ok := &StaticEvaluator{}
	ok.Set(EvaluatedFrame{DrawableOpacities: []float64{0.5}})
	c := NewRenderController("ok", singleDrawableModel(t, 0), ok)
	r.AddController(c)

	if err := r.Evaluate(t.Context()); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	renderOnce(r)
	assertNear(t, "opacity", c.Model.Drawables[0].Opacity, 0.5)

	boom := errors.New("boom")
	r.AddController(NewRenderController("bad", singleDrawableModel(t, 0), failingEvaluator{boom}))
	err := r.Evaluate(t.Context())
	if !errors.Is(err, boom) {
		t.Errorf("Evaluate err = %v, want boom", err)
	}
}

func TestRenderDrawsModelWithUnsetPartOpacity(t *testing.T) {
	model, err := NewModel(
		[]Part{{ParentIndex: -1, OffscreenIndex: -1}},
		[]DrawObject{{PartIndex: 0, Opacity: 1, Visible: true, Mesh: quad(0, 0, 10, 10)}},
		nil,
	)
	if err != nil {
		t.Fatal(err)
	}
	eval := &StaticEvaluator{}
	eval.Set(EvaluatedFrame{
		DrawableOpacities: []float64{1},
		DrawableFlags:     []DynamicFlags{FlagIsVisible},
	})
	r := newTestRenderer(t)
	r.AddController(NewRenderController("plain", model, eval))
	if err := r.Evaluate(t.Context()); err != nil {
		t.Fatal(err)
	}
	if n := countDrawCalls(renderOnce(r)); n != 1 {
		t.Fatalf("recorded %d draws, want 1", n)
	}

	// The evaluator hides the part on the next frame.
	eval.Set(EvaluatedFrame{
		DrawableOpacities: []float64{1},
		DrawableFlags:     []DynamicFlags{FlagIsVisible},
		PartOpacities:     []float64{0},
	})
	if err := r.Evaluate(t.Context()); err != nil {
		t.Fatal(err)
	}
	if n := countDrawCalls(renderOnce(r)); n != 0 {
		t.Errorf("recorded %d draws for a hidden part, want 0", n)
	}
}

func TestEvaluateCanceled(t *testing.T) {
	r := newTestRenderer(t)
	r.AddController(NewRenderController("m", singleDrawableModel(t, 0), &StaticEvaluator{}))
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	if err := r.Evaluate(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRenderTrimsOffscreensAcrossFrames(t *testing.T) {
	r := newTestRenderer(t)
	events, sink := collectEvents()
	r.SetEventSink(sink)
	c := NewRenderController("nested", nestedModel(t), nil)
	r.AddController(c)

	renderOnce(r) // peak 2
	renderOnce(r) // previous peak 2, no trim
	if r.Offscreens().Len() != 2 {
		t.Fatalf("pool = %d, want 2", r.Offscreens().Len())
	}

	r.RemoveController(c)
	renderOnce(r) // peak 0, previous peak 2
	renderOnce(r) // previous peak 0: trims
	if r.Offscreens().Len() != 0 {
		t.Errorf("pool = %d after idle frames, want 0", r.Offscreens().Len())
	}
	trimmed := false
	for _, e := range *events {
		if e.Type == EventOffscreenPoolTrimmed && e.Count == 2 {
			trimmed = true
		}
	}
	if !trimmed {
		t.Error("no OffscreenPoolTrimmed event")
	}
}

func TestRendererResize(t *testing.T) {
	r := newTestRenderer(t)
	r.Resize(640, 360)
	if r.Root().Width != 640 || r.Root().Height != 360 {
		t.Errorf("root = %dx%d, want 640x360", r.Root().Width, r.Root().Height)
	}
	if r.Camera().Viewport.Width != 640 {
		t.Errorf("viewport width = %v", r.Camera().Viewport.Width)
	}
	if s := r.Offscreens().GetOffscreenRenderTexture(0, 0); s.Width != 640 || s.Height != 360 {
		t.Errorf("offscreen default = %dx%d, want 640x360", s.Width, s.Height)
	}
	r.Resize(0, 10) // ignored
	if r.Config().ScreenWidth != 640 {
		t.Error("invalid resize applied")
	}
}

func TestRendererCloseReleasesEverything(t *testing.T) {
	alloc := NewHeadlessAllocator()
	cfg := DefaultConfig()
	cfg.MaskPages = 2
	r, err := NewRenderer(cfg, alloc)
	if err != nil {
		t.Fatal(err)
	}
	r.AddController(NewRenderController("nested", nestedModel(t), nil))
	renderOnce(r)
	r.Close()
	if alloc.Live() != 0 {
		t.Errorf("%d surfaces leaked (allocated %d, released %d)", alloc.Live(), alloc.Allocated, alloc.Released)
	}
}

func BenchmarkRenderNested(b *testing.B) {
	r := newTestRenderer(b)
	for range 10 {
		r.AddController(NewRenderController("bench", nestedModel(b), nil))
	}
	cb := NewCommandBuffer()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cb.Reset()
		r.Render(cb)
	}
}
