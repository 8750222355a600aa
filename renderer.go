package cubism

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"
)

// Renderer is the per-session frame context. It owns the mask pages, the
// offscreen pool, the root and backdrop surfaces and the controller groups,
// and records each frame into a CommandBuffer.
//
// All methods except Evaluate must be called from one goroutine.
type Renderer struct {
	cfg   Config
	alloc SurfaceAllocator

	camera     *Camera
	masks      *MaskTextureSet
	offscreens *OffscreenTextureManager
	root       *Surface
	scratch    *Surface

	controllers []*RenderController
	groups      groupSet
	nextSeq     int
	membership  bool // controllers added or removed since the last frame

	sink EventSink
	comp compositor
}

// NewRenderer validates cfg and allocates the session's surfaces.
func NewRenderer(cfg Config, alloc SurfaceAllocator) (*Renderer, error) {
	if alloc == nil {
		return nil, fmt.Errorf("nil surface allocator: %w", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ow, oh := cfg.offscreenSize()
	r := &Renderer{
		cfg:   cfg,
		alloc: alloc,
		camera: NewCamera(Rect{
			Width:  float64(cfg.ScreenWidth),
			Height: float64(cfg.ScreenHeight),
		}),
		masks: NewMaskTextureSet(MaskTextureOptions{
			Size:         cfg.MaskTextureSize,
			Subdivisions: cfg.MaskSubdivisions,
			Pages:        cfg.MaskPages,
			Channels:     cfg.MaskChannels,
		}, alloc),
		offscreens: NewOffscreenTextureManager(alloc, ow, oh, cfg.OffscreenPoolFloor),
		root:       alloc.Allocate("root", cfg.ScreenWidth, cfg.ScreenHeight),
		scratch:    alloc.Allocate("backdrop", cfg.ScreenWidth, cfg.ScreenHeight),
	}
	return r, nil
}

// Config returns the renderer's configuration.
func (r *Renderer) Config() Config { return r.cfg }

// Camera returns the camera.
func (r *Renderer) Camera() *Camera { return r.camera }

// Masks returns the mask texture set.
func (r *Renderer) Masks() *MaskTextureSet { return r.masks }

// Offscreens returns the offscreen pool.
func (r *Renderer) Offscreens() *OffscreenTextureManager { return r.offscreens }

// Root returns the screen-sized surface groups composite into.
func (r *Renderer) Root() *Surface { return r.root }

// Controllers returns the registered controllers in registration order. The
// returned slice MUST NOT be mutated.
func (r *Renderer) Controllers() []*RenderController { return r.controllers }

// Groups returns the controller groups in ascending key order as of the
// last frame.
func (r *Renderer) Groups() []*RenderControllerGroup { return r.groups.groups }

// SetEventSink sets the sink for render events. Nil disables events.
func (r *Renderer) SetEventSink(s EventSink) {
	r.sink = s
	r.masks.SetEventSink(s)
}

// AddController registers c. Its masks are added to the mask texture set
// and its group is rebuilt on the next frame. Nil and duplicate controllers
// are ignored.
func (r *Renderer) AddController(c *RenderController) {
	if c == nil || slices.Contains(r.controllers, c) {
		return
	}
	c.seq = r.nextSeq
	r.nextSeq++
	c.lastPos = c.Position()
	r.controllers = append(r.controllers, c)

	c.masks = newMaskConsumer(c)
	c.masks.pages = r.maskPages()
	if c.masks.NecessaryTileCount() > 0 {
		r.masks.AddSource(c.masks)
	}
	r.membership = true
}

// RemoveController unregisters c and releases its mask tiles.
func (r *Renderer) RemoveController(c *RenderController) {
	i := slices.Index(r.controllers, c)
	if i < 0 {
		return
	}
	r.controllers = slices.Delete(r.controllers, i, i+1)
	if c.masks != nil {
		r.masks.RemoveSource(c.masks)
		c.masks = nil
	}
	r.membership = true
}

// Evaluate runs every controller's evaluator concurrently and waits for all
// of them. The first error cancels the others and is returned. Results are
// picked up by the next Render.
func (r *Renderer) Evaluate(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, c := range r.controllers {
		if c.Evaluator == nil {
			continue
		}
		g.Go(func() error {
			if err := c.Evaluator.Evaluate(ctx); err != nil {
				return fmt.Errorf("evaluate %q: %w", c.Name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Render records one frame into cb, appending to any commands already
// there, and ends with a blit of the root surface into the camera target.
func (r *Renderer) Render(cb *CommandBuffer) FrameStats {
	start := cb.Len()
	var stats FrameStats

	r.beginFrame()

	sortStart := time.Now()
	r.sortGroups()
	stats.SortTime = time.Since(sortStart)

	r.masks.Draw(cb)

	cb.SetRenderTarget(r.root)
	cb.ClearRenderTarget(ClearColor|ClearDepth, ColorTransparent)
	cb.SetViewMatrix(affine32(r.camera.ViewMatrix()))
	cb.SetProjectionMatrix(affine32(r.camera.ProjectionMatrix()))

	walkStart := time.Now()
	r.comp = compositor{
		cb:         cb,
		offscreens: r.offscreens,
		root:       r.root,
		scratch:    r.scratch,
		sink:       r.sink,
		debug:      r.cfg.Debug,
		stack:      r.comp.stack[:0],
	}
	for _, g := range r.groups.groups {
		r.comp.walkGroup(g)
	}
	stats.WalkTime = time.Since(walkStart)

	cb.Blit(r.root, nil, DrawParams{Material: MaterialCopy, Blend: BlendNormal, Opacity: 1})

	stats.OffscreenPeak = r.offscreens.Peak()
	r.offscreens.StopUsingAllRenderTextures()
	r.offscreens.EndFrame()

	cmds := cb.Commands()[start:]
	stats.Commands = len(cmds)
	stats.DrawCalls = countDrawCalls(cmds)
	stats.Blits = countBlits(cmds)
	stats.Offscreens = r.offscreens.Len()
	stats.TilesInUse = r.masks.Pool().Used()
	stats.Groups = len(r.groups.groups)
	r.debugLog(stats)
	return stats
}

// beginFrame runs the offscreen pool's frame-start bookkeeping.
func (r *Renderer) beginFrame() {
	r.offscreens.ResetPreviousActiveCount()
	before := r.offscreens.Len()
	r.offscreens.ReleaseStaleRenderTextures()
	if released := before - r.offscreens.Len(); released > 0 {
		emit(r.sink, RenderEvent{Type: EventOffscreenPoolTrimmed, Count: released})
	}
}

// sortGroups syncs controllers and re-sorts the groups that need it.
func (r *Renderer) sortGroups() {
	regroup := r.membership
	var changed []*RenderController
	for _, c := range r.controllers {
		if c.sync() {
			changed = append(changed, c)
		}
		if c.consumeSortingChange() {
			regroup = true
		}
	}
	if regroup {
		r.groups.rebuild(r.controllers)
		r.membership = false
	}
	for _, c := range changed {
		if g := r.groups.groupOf(c); g != nil {
			g.dirty = true
		}
	}

	moved := r.camera.consumeMoved()
	resorted := 0
	for _, g := range r.groups.groups {
		if g.dirty || (moved && g.usesDepth()) {
			g.resort(r.camera)
			resorted++
		}
	}
	if resorted > 0 {
		Logger().Debug("re-sorted groups", slog.Int("groups", resorted), slog.Bool("camera_moved", moved))
		emit(r.sink, RenderEvent{Type: EventGroupsResorted, Count: resorted})
	}
}

// Resize changes the screen size. Pooled offscreens pick up the new default
// size on their next request.
func (r *Renderer) Resize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	r.cfg.ScreenWidth, r.cfg.ScreenHeight = w, h
	r.alloc.Resize(r.root, w, h)
	r.alloc.Resize(r.scratch, w, h)
	ow, oh := r.cfg.offscreenSize()
	r.offscreens.SetDefaultSize(ow, oh)
	r.camera.Viewport = Rect{Width: float64(w), Height: float64(h)}
	r.camera.MarkDirty()
}

// Close releases every surface the renderer allocated.
func (r *Renderer) Close() {
	r.masks.Release()
	r.offscreens.Release()
	r.alloc.Release(r.root)
	r.alloc.Release(r.scratch)
	r.root, r.scratch = nil, nil
}

func (r *Renderer) maskPages() []*Surface {
	pages := make([]*Surface, r.masks.Pages())
	for i := range pages {
		pages[i] = r.masks.Page(i)
	}
	return pages
}
