package cubism

import (
	"errors"
	"testing"
)

type tileKey struct {
	page, channel, column, row int
}

func keyOf(t MaskTile) tileKey {
	return tileKey{t.Page, t.Channel, t.Column, t.Row}
}

func TestLegacyToTileUnique(t *testing.T) {
	for s := 1; s <= 4; s++ {
		p := NewTilePool(TilePoolOptions{Mode: LayoutLegacy, Subdivisions: s})
		perRow := 1 << (s - 1)
		want := perRow * perRow * DefaultChannelCount
		if p.Capacity() != want {
			t.Fatalf("s=%d: Capacity() = %d, want %d", s, p.Capacity(), want)
		}

		seen := make(map[tileKey]int)
		for j := 0; j < p.Capacity(); j++ {
			tile := p.ToTile(j)
			if tile.Index != j {
				t.Errorf("s=%d: ToTile(%d).Index = %d", s, j, tile.Index)
			}
			if tile.Channel < 0 || tile.Channel >= DefaultChannelCount {
				t.Errorf("s=%d: ToTile(%d).Channel = %d", s, j, tile.Channel)
			}
			if tile.Column >= perRow || tile.Row >= perRow {
				t.Errorf("s=%d: ToTile(%d) at (%d,%d) outside %dx%d grid", s, j, tile.Column, tile.Row, perRow, perRow)
			}
			assertNear(t, "size", tile.Size, 1/float64(perRow))
			if prev, dup := seen[keyOf(tile)]; dup {
				t.Errorf("s=%d: slots %d and %d map to the same tile %+v", s, prev, j, tile)
			}
			seen[keyOf(tile)] = j
		}
	}
}

func TestAcquireTilesUnique(t *testing.T) {
	p := NewTilePool(TilePoolOptions{Mode: LayoutLegacy, Subdivisions: 2})
	seen := make(map[int]bool)
	for _, n := range []int{3, 5, 1, 7} {
		tiles, err := p.AcquireTiles(n)
		if err != nil {
			t.Fatalf("AcquireTiles(%d): %v", n, err)
		}
		if len(tiles) != n {
			t.Fatalf("AcquireTiles(%d) returned %d tiles", n, len(tiles))
		}
		for _, tile := range tiles {
			if seen[tile.Index] {
				t.Errorf("slot %d handed out twice", tile.Index)
			}
			seen[tile.Index] = true
		}
	}
	if p.Used() != 16 {
		t.Errorf("Used() = %d, want 16", p.Used())
	}
}

func TestAcquireTilesOverCapacityRollsBack(t *testing.T) {
	p := NewTilePool(TilePoolOptions{Mode: LayoutLegacy, Subdivisions: 1})
	first, err := p.AcquireTiles(3)
	if err != nil {
		t.Fatalf("AcquireTiles(3): %v", err)
	}

	tiles, err := p.AcquireTiles(2)
	if !errors.Is(err, ErrTileCapacity) {
		t.Fatalf("AcquireTiles(2) error = %v, want ErrTileCapacity", err)
	}
	if tiles != nil {
		t.Errorf("AcquireTiles(2) returned %d tiles on failure", len(tiles))
	}
	if p.Used() != 3 {
		t.Errorf("Used() = %d after failed acquire, want 3", p.Used())
	}

	// The one free slot must still be available.
	last, err := p.AcquireTiles(1)
	if err != nil {
		t.Fatalf("AcquireTiles(1): %v", err)
	}
	for _, tile := range first {
		if tile.Index == last[0].Index {
			t.Errorf("slot %d handed out twice", tile.Index)
		}
	}
}

func TestAcquireTilesZero(t *testing.T) {
	p := NewTilePool(TilePoolOptions{Mode: LayoutLegacy, Subdivisions: 1})
	tiles, err := p.AcquireTiles(0)
	if err != nil || tiles != nil {
		t.Errorf("AcquireTiles(0) = %v, %v; want nil, nil", tiles, err)
	}
}

func TestReturnTiles(t *testing.T) {
	p := NewTilePool(TilePoolOptions{Mode: LayoutLegacy, Subdivisions: 1})
	tiles, _ := p.AcquireTiles(4)
	p.ReturnTiles(tiles[1:3])
	if p.Used() != 2 {
		t.Fatalf("Used() = %d, want 2", p.Used())
	}
	// Returning twice is ignored.
	p.ReturnTiles(tiles[1:3])
	if p.Used() != 2 {
		t.Errorf("Used() = %d after double return, want 2", p.Used())
	}
	again, err := p.AcquireTiles(2)
	if err != nil {
		t.Fatalf("AcquireTiles(2): %v", err)
	}
	if again[0].Index != 1 || again[1].Index != 2 {
		t.Errorf("first-fit reacquire = [%d %d], want [1 2]", again[0].Index, again[1].Index)
	}
}

func TestResetTiles(t *testing.T) {
	p := NewTilePool(TilePoolOptions{Mode: LayoutLegacy, Subdivisions: 2})
	p.AcquireTiles(10)
	p.ResetTiles()
	if p.Used() != 0 {
		t.Errorf("Used() = %d after reset, want 0", p.Used())
	}
	if _, err := p.AcquireTiles(p.Capacity()); err != nil {
		t.Errorf("full acquire after reset: %v", err)
	}
}

func TestLegacyPoolForcesOnePage(t *testing.T) {
	p := NewTilePool(TilePoolOptions{Mode: LayoutLegacy, Pages: 4, Subdivisions: 1})
	if p.Pages() != 1 {
		t.Errorf("Pages() = %d, want 1", p.Pages())
	}
}

func TestBalancedPoolSetUsedMaskCount(t *testing.T) {
	p := NewTilePool(TilePoolOptions{Mode: LayoutBalanced, Pages: 2})
	if got := len(p.LayoutContexts()); got != p.Capacity() {
		t.Fatalf("initial layout has %d slots, want capacity %d", got, p.Capacity())
	}

	p.SetUsedMaskCount(5)
	if p.UsedMaskCount() != 5 {
		t.Errorf("UsedMaskCount() = %d, want 5", p.UsedMaskCount())
	}
	tiles, err := p.AcquireTiles(5)
	if err != nil {
		t.Fatalf("AcquireTiles(5): %v", err)
	}
	seen := make(map[tileKey]bool)
	for _, tile := range tiles {
		if tile.IsDegenerate() {
			t.Errorf("tile %d degenerate under capacity", tile.Index)
		}
		if seen[keyOf(tile)] {
			t.Errorf("tile %+v handed out twice", tile)
		}
		seen[keyOf(tile)] = true
	}
	if _, err := p.AcquireTiles(1); !errors.Is(err, ErrTileCapacity) {
		t.Errorf("acquire past the declared count: err = %v, want ErrTileCapacity", err)
	}
}

func TestBalancedPoolOverCapacityDegenerates(t *testing.T) {
	p := NewTilePool(TilePoolOptions{Mode: LayoutBalanced, Pages: 1})
	n := p.Capacity() + 1
	p.SetUsedMaskCount(n)
	tiles, err := p.AcquireTiles(n)
	if err != nil {
		t.Fatalf("AcquireTiles(%d): %v", n, err)
	}
	for _, tile := range tiles {
		if !tile.IsDegenerate() {
			t.Fatalf("tile %+v not degenerate over capacity", tile)
		}
	}
}

func TestBalancedToTileOutOfRange(t *testing.T) {
	p := NewTilePool(TilePoolOptions{Mode: LayoutBalanced, Pages: 1})
	p.SetUsedMaskCount(3)
	if tile := p.ToTile(3); !tile.IsDegenerate() {
		t.Errorf("ToTile(3) = %+v, want degenerate", tile)
	}
}

func TestMaskTileRect(t *testing.T) {
	tile := MaskTile{Column: 1, Row: 2, Size: 0.25}
	r := tile.Rect()
	assertNear(t, "X", r.X, 0.25)
	assertNear(t, "Y", r.Y, 0.5)
	assertNear(t, "Width", r.Width, 0.25)
	assertNear(t, "Height", r.Height, 0.25)
}

func BenchmarkAcquireTiles(b *testing.B) {
	p := NewTilePool(TilePoolOptions{Mode: LayoutBalanced, Pages: 4})
	p.SetUsedMaskCount(100)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.ResetTiles()
		p.AcquireTiles(100)
	}
}
