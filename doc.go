// Package cubism schedules the mask and offscreen passes of 2D puppet
// rendering for [Ebitengine] and other command-buffer backends.
//
// It sits between a model evaluator (mesh deformation, parameter
// evaluation) and a host render loop. Each frame it packs every model's mask
// sets into tiles of a few multi-channel mask pages, sorts the draw objects
// of all registered models, and records the draw and composite commands
// that render nested offscreen regions child-before-parent.
//
// # Quick start
//
//	r, err := cubism.NewRenderer(cubism.DefaultConfig(), cubism.NewHeadlessAllocator())
//	if err != nil {
//		return err
//	}
//	model, err := cubism.NewModel(parts, drawables, offscreens)
//	if err != nil {
//		return err
//	}
//	r.AddController(cubism.NewRenderController("hero", model, evaluator))
//
//	cb := cubism.NewCommandBuffer()
//	for {
//		_ = r.Evaluate(ctx)
//		cb.Reset()
//		r.Render(cb)
//		// replay cb.Commands() on the GPU
//	}
//
// With ebiten, use [EbitenAllocator] and replay the buffer with
// [EbitenExecutor.Execute] inside Draw.
//
// # Masks
//
// A [MaskTextureSet] partitions its pages with a [TilePool]. In the legacy
// layout a single page is subdivided 2^(s-1)×2^(s-1) per channel. In the
// balanced layout the total mask count is spread over all pages and
// channels, each channel holding one mask, a 2×2 grid or a 3×3 grid. Every
// registration change re-lays out all tiles. Running out of tiles is not an
// error for the frame: the affected masks degrade and a [RenderEvent] is
// emitted.
//
// # Offscreens
//
// A part may own an offscreen: its descendants render into a pooled surface
// that is then composited into the enclosing region with the offscreen's
// blend mode, opacity and tint. The [OffscreenTextureManager] grows on
// demand and trims stale surfaces down to the previous frame's peak.
//
// # Sorting
//
// Controllers with the same grouped sorting index share one draw order.
// [SortByOrder] merges by sorting order plus render order; [SortByDepth]
// orders by camera distance quantized by the controller's depth offset.
//
// Logging goes through [log/slog] and is silent until [SetLogger] is
// called. Render events can be forwarded into a donburi world with the
// cubism/ecs package.
//
// [Ebitengine]: https://ebitengine.org
package cubism
