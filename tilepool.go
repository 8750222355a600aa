package cubism

import (
	"fmt"
	"log/slog"
)

// LayoutMode selects how a TilePool arranges tiles on its pages.
type LayoutMode uint8

const (
	// LayoutLegacy uses a single implicit page, 4^(s-1) tiles per channel
	// arranged in a 2^(s-1) grid.
	LayoutLegacy LayoutMode = iota
	// LayoutBalanced spreads the declared mask count evenly over several
	// pages and channels, subdividing each channel 1, 2×2 or 3×3.
	LayoutBalanced
)

// DefaultChannelCount is one channel per RGBA component of a page.
const DefaultChannelCount = 4

// MaskTile is one stencil slot: a square sub-rectangle of one channel of one
// page, in normalized page coordinates.
type MaskTile struct {
	Channel int
	Page    int
	Column  int
	Row     int
	Size    float64
	Index   int // global slot index in the pool
}

// Rect returns the tile's rectangle in normalized [0,1] page coordinates.
func (t MaskTile) Rect() Rect {
	return Rect{
		X:      float64(t.Column) * t.Size,
		Y:      float64(t.Row) * t.Size,
		Width:  t.Size,
		Height: t.Size,
	}
}

// IsDegenerate reports whether the tile is a zero-area placeholder handed
// out when the pool ran over capacity.
func (t MaskTile) IsDegenerate() bool {
	return t.Size <= 0
}

func degenerateTile(index int) MaskTile {
	return MaskTile{Index: index}
}

// TilePoolOptions configures a TilePool.
type TilePoolOptions struct {
	Mode LayoutMode
	// Channels per page; zero means DefaultChannelCount.
	Channels int
	// Subdivisions is the legacy subdivision level (>= 1).
	Subdivisions int
	// Pages is the balanced-mode page count (>= 1).
	Pages int
}

// TilePool hands out MaskTiles from a bounded budget. Allocation is
// first-fit over a flat occupancy slice with no compaction.
type TilePool struct {
	mode         LayoutMode
	channels     int
	subdivisions int
	pages        int

	slots  []bool
	used   int
	layout []LayoutContext // balanced mode only, parallel to slots

	usedMaskCount int
}

// NewTilePool creates a pool configured by opts.
func NewTilePool(opts TilePoolOptions) *TilePool {
	p := &TilePool{}
	p.Initialize(opts)
	return p
}

// Initialize reconfigures the pool and frees every slot.
func (p *TilePool) Initialize(opts TilePoolOptions) {
	p.mode = opts.Mode
	p.channels = opts.Channels
	if p.channels <= 0 {
		p.channels = DefaultChannelCount
	}
	p.subdivisions = max(opts.Subdivisions, 1)
	p.pages = max(opts.Pages, 1)
	if p.mode == LayoutLegacy {
		p.pages = 1
	}
	p.usedMaskCount = 0
	p.rebuild()
}

// Mode returns the layout mode.
func (p *TilePool) Mode() LayoutMode { return p.mode }

// Pages returns the number of pages the pool lays tiles out on.
func (p *TilePool) Pages() int { return p.pages }

// Channels returns the channel count per page.
func (p *TilePool) Channels() int { return p.channels }

// Capacity returns the maximum number of non-degenerate tiles.
func (p *TilePool) Capacity() int {
	if p.mode == LayoutLegacy {
		return p.tilesPerChannel() * p.channels
	}
	return balancedCapacity(p.pages, p.channels)
}

// Used returns the number of occupied slots.
func (p *TilePool) Used() int { return p.used }

// UsedMaskCount returns the mask count the balanced layout was computed for.
func (p *TilePool) UsedMaskCount() int { return p.usedMaskCount }

// SetUsedMaskCount declares how many masks the whole texture set needs and
// recomputes the balanced layout for that count. A count of zero lays out
// the full capacity. Occupancy is cleared. No-op in legacy mode apart from
// the reset.
func (p *TilePool) SetUsedMaskCount(n int) {
	p.usedMaskCount = max(n, 0)
	p.rebuild()
}

// ResetTiles frees every slot. Tile positions are not stable across
// membership changes, so callers reacquire everything afterwards.
func (p *TilePool) ResetTiles() {
	clear(p.slots)
	p.used = 0
}

// AcquireTiles reserves count tiles, scanning for free slots first-fit.
// If fewer than count slots are free nothing is reserved and the returned
// error wraps ErrTileCapacity.
func (p *TilePool) AcquireTiles(count int) ([]MaskTile, error) {
	if count <= 0 {
		return nil, nil
	}
	tiles := make([]MaskTile, 0, count)
	for j := 0; j < len(p.slots) && len(tiles) < count; j++ {
		if p.slots[j] {
			continue
		}
		p.slots[j] = true
		tiles = append(tiles, p.ToTile(j))
	}
	if len(tiles) < count {
		for _, t := range tiles {
			p.slots[t.Index] = false
		}
		Logger().Error("mask tile pool exhausted",
			slog.Int("requested", count),
			slog.Int("free", len(tiles)),
			slog.Int("capacity", p.Capacity()))
		return nil, fmt.Errorf("acquire %d tiles (%d free): %w", count, len(tiles), ErrTileCapacity)
	}
	p.used += count
	return tiles, nil
}

// ReturnTiles frees the slots of the given tiles.
//
// Deprecated: in balanced mode the layout depends on the total mask count,
// so a returned slot is not a like-for-like replacement. Reinitialize the
// owning MaskTextureSet instead.
func (p *TilePool) ReturnTiles(tiles []MaskTile) {
	for _, t := range tiles {
		if t.Index < 0 || t.Index >= len(p.slots) || !p.slots[t.Index] {
			continue
		}
		p.slots[t.Index] = false
		p.used--
	}
}

// ToTile maps a slot index to its tile.
func (p *TilePool) ToTile(index int) MaskTile {
	if p.mode == LayoutBalanced {
		if index < 0 || index >= len(p.layout) {
			return degenerateTile(index)
		}
		return p.layout[index].tile(index)
	}

	perChannel := p.tilesPerChannel()
	perRow := 1 << (p.subdivisions - 1)
	tileIndex := index % perChannel
	return MaskTile{
		Channel: index / perChannel,
		Column:  tileIndex / perRow,
		Row:     tileIndex % perRow,
		Size:    1 / float64(perRow),
		Index:   index,
	}
}

// LayoutContexts returns a copy of the balanced layout, one entry per slot.
// Nil in legacy mode.
func (p *TilePool) LayoutContexts() []LayoutContext {
	if p.layout == nil {
		return nil
	}
	out := make([]LayoutContext, len(p.layout))
	copy(out, p.layout)
	return out
}

func (p *TilePool) tilesPerChannel() int {
	return 1 << (2 * (p.subdivisions - 1))
}

// rebuild sizes the slot slice for the current configuration.
func (p *TilePool) rebuild() {
	var n int
	if p.mode == LayoutLegacy {
		p.layout = nil
		n = p.Capacity()
	} else {
		count := p.usedMaskCount
		if count == 0 {
			count = p.Capacity()
		}
		if count > p.Capacity() {
			Logger().Error("mask count exceeds balanced layout capacity, masks degrade",
				slog.Int("masks", count),
				slog.Int("pages", p.pages),
				slog.Int("capacity", p.Capacity()))
		}
		p.layout = BalancedLayout(count, p.pages, p.channels)
		n = len(p.layout)
	}
	if cap(p.slots) < n {
		p.slots = make([]bool, n)
	}
	p.slots = p.slots[:n]
	clear(p.slots)
	p.used = 0
}
