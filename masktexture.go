package cubism

import (
	"fmt"
	"log/slog"
	"slices"
)

// MaskSource is anything that draws mask geometry into tiles of a
// MaskTextureSet.
type MaskSource interface {
	// NecessaryTileCount is the number of tiles the source needs.
	NecessaryTileCount() int
	// SetTiles hands the source its tiles after every re-layout.
	SetTiles(tiles []MaskTile)
	// AddToCommandBuffer records the source's geometry for tiles on page.
	// The page is already bound, cleared and set up with page-space
	// matrices.
	AddToCommandBuffer(cb *CommandBuffer, page int)
}

// MaskTextureOptions configures a MaskTextureSet.
type MaskTextureOptions struct {
	// Size is the edge length of every square page in pixels.
	Size int
	// Subdivisions is the legacy subdivision level.
	Subdivisions int
	// Pages selects the layout: 0 is the legacy single-page layout, 1 or
	// more is the balanced layout over that many pages.
	Pages int
	// Channels per page; zero means DefaultChannelCount.
	Channels int
}

// MaskTextureSet owns the mask pages and the tile pool that partitions
// them, and assigns tiles to registered sources. Every membership change
// re-lays out all tiles.
type MaskTextureSet struct {
	pool    *TilePool
	alloc   SurfaceAllocator
	size    int
	pages   []*Surface
	sources []MaskSource

	drawing       bool
	pendingReinit bool
	sink          EventSink
}

// NewMaskTextureSet allocates the pages through alloc.
func NewMaskTextureSet(opts MaskTextureOptions, alloc SurfaceAllocator) *MaskTextureSet {
	mode := LayoutBalanced
	if opts.Pages <= 0 {
		mode = LayoutLegacy
	}
	pool := NewTilePool(TilePoolOptions{
		Mode:         mode,
		Channels:     opts.Channels,
		Subdivisions: opts.Subdivisions,
		Pages:        opts.Pages,
	})
	ms := &MaskTextureSet{
		pool:  pool,
		alloc: alloc,
		size:  opts.Size,
	}
	ms.pages = make([]*Surface, pool.Pages())
	for i := range ms.pages {
		ms.pages[i] = alloc.Allocate(fmt.Sprintf("mask page %d", i), opts.Size, opts.Size)
	}
	return ms
}

// SetEventSink sets the sink that receives capacity events.
func (ms *MaskTextureSet) SetEventSink(s EventSink) { ms.sink = s }

// Pool returns the tile pool.
func (ms *MaskTextureSet) Pool() *TilePool { return ms.pool }

// Pages returns the number of pages.
func (ms *MaskTextureSet) Pages() int { return len(ms.pages) }

// Page returns page i, or nil.
func (ms *MaskTextureSet) Page(i int) *Surface {
	if i < 0 || i >= len(ms.pages) {
		return nil
	}
	return ms.pages[i]
}

// Sources returns the registered sources in registration order. The
// returned slice MUST NOT be mutated.
func (ms *MaskTextureSet) Sources() []MaskSource { return ms.sources }

// AddSource registers src and re-lays out all tiles. Adding a registered
// source is a no-op.
func (ms *MaskTextureSet) AddSource(src MaskSource) {
	if src == nil || slices.Contains(ms.sources, src) {
		return
	}
	ms.sources = append(ms.sources, src)
	ms.ReinitializeSources()
}

// RemoveSource unregisters src and re-lays out the remaining tiles.
func (ms *MaskTextureSet) RemoveSource(src MaskSource) {
	i := slices.Index(ms.sources, src)
	if i < 0 {
		return
	}
	ms.sources = slices.Delete(ms.sources, i, i+1)
	ms.ReinitializeSources()
}

// ReinitializeSources recomputes the layout for the summed tile count and
// hands every source a fresh batch in registration order. A source whose
// batch cannot be satisfied gets degenerate tiles. Calls made while Draw is
// running are deferred until it returns.
func (ms *MaskTextureSet) ReinitializeSources() {
	if ms.drawing {
		ms.pendingReinit = true
		Logger().Warn("mask sources changed during draw, deferring re-layout")
		return
	}
	ms.pendingReinit = false

	total := 0
	for _, src := range ms.sources {
		total += max(src.NecessaryTileCount(), 0)
	}

	if ms.pool.Mode() == LayoutBalanced {
		ms.pool.SetUsedMaskCount(total)
	} else {
		ms.pool.ResetTiles()
	}

	overflow := total > ms.pool.Capacity()
	if overflow {
		emit(ms.sink, RenderEvent{
			Type:  EventMaskCapacityExceeded,
			Count: total,
			Err:   fmt.Errorf("%d masks for %d tiles: %w", total, ms.pool.Capacity(), ErrTileCapacity),
		})
	}

	for i, src := range ms.sources {
		n := max(src.NecessaryTileCount(), 0)
		tiles, err := ms.pool.AcquireTiles(n)
		if err != nil {
			tiles = make([]MaskTile, n)
			for k := range tiles {
				tiles[k] = degenerateTile(-1)
			}
			Logger().Error("mask source degraded",
				slog.Int("source", i),
				slog.Int("tiles", n),
				slog.Any("error", err))
			if !overflow {
				emit(ms.sink, RenderEvent{Type: EventMaskCapacityExceeded, Index: i, Count: n, Err: err})
			}
		}
		src.SetTiles(tiles)
	}
}

// Draw records the mask pass: for every page, bind and clear it, set the
// page-space matrices and let every source record its geometry.
func (ms *MaskTextureSet) Draw(cb *CommandBuffer) {
	if len(ms.sources) == 0 {
		return
	}
	ms.drawing = true
	defer func() {
		ms.drawing = false
		if ms.pendingReinit {
			ms.ReinitializeSources()
		}
	}()

	for i, page := range ms.pages {
		cb.SetRenderTarget(page)
		cb.ClearRenderTarget(ClearColor, ColorTransparent)
		cb.SetViewMatrix(identityTransform32)
		cb.SetProjectionMatrix(affine32(maskPageProjection))
		for _, src := range ms.sources {
			src.AddToCommandBuffer(cb, i)
		}
	}
}

// Release frees the pages. The set must not be used afterwards.
func (ms *MaskTextureSet) Release() {
	for _, p := range ms.pages {
		ms.alloc.Release(p)
	}
	ms.pages = nil
	ms.sources = nil
}
