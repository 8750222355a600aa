package cubism

import "log/slog"

// offscreenContainer is one pooled render target.
type offscreenContainer struct {
	surface *Surface
	inUse   bool
}

// OffscreenTextureManager pools the intermediate surfaces offscreen regions
// render into. It never blocks or fails: when every surface is in use it
// allocates another. Stale surfaces are trimmed at frame start down to the
// previous frame's peak usage, never below Floor.
//
// Frame protocol:
//
//	ResetPreviousActiveCount()   // once, before any request
//	ReleaseStaleRenderTextures()
//	GetOffscreenRenderTexture / StopUsingRenderTexture ...
//	StopUsingAllRenderTextures()
//	EndFrame()
type OffscreenTextureManager struct {
	alloc         SurfaceAllocator
	defaultWidth  int
	defaultHeight int

	// Floor is the minimum number of surfaces kept across trims.
	Floor int

	containers   []*offscreenContainer
	active       int
	peak         int
	previousPeak int
	hasReset     bool
}

// NewOffscreenTextureManager creates an empty pool. Requests without a size
// use defaultWidth×defaultHeight, normally the screen size.
func NewOffscreenTextureManager(alloc SurfaceAllocator, defaultWidth, defaultHeight, floor int) *OffscreenTextureManager {
	return &OffscreenTextureManager{
		alloc:         alloc,
		defaultWidth:  defaultWidth,
		defaultHeight: defaultHeight,
		Floor:         floor,
	}
}

// SetDefaultSize changes the size used for unsized requests.
func (m *OffscreenTextureManager) SetDefaultSize(w, h int) {
	m.defaultWidth, m.defaultHeight = w, h
}

// GetOffscreenRenderTexture returns a free surface of size w×h, marking it
// in use. A free surface of exactly that size is preferred; otherwise the
// first free surface is resized, and if none is free a new one is appended.
// Non-positive sizes fall back to the default size.
func (m *OffscreenTextureManager) GetOffscreenRenderTexture(w, h int) *Surface {
	if w <= 0 || h <= 0 {
		w, h = m.defaultWidth, m.defaultHeight
	}

	var pick *offscreenContainer
	for _, c := range m.containers {
		if c.inUse {
			continue
		}
		if c.surface.Width == w && c.surface.Height == h {
			pick = c
			break
		}
		if pick == nil {
			pick = c
		}
	}

	if pick == nil {
		pick = &offscreenContainer{surface: m.alloc.Allocate("offscreen", w, h)}
		m.containers = append(m.containers, pick)
	} else if pick.surface.Width != w || pick.surface.Height != h {
		m.alloc.Resize(pick.surface, w, h)
	}

	pick.inUse = true
	m.active++
	m.peak = max(m.peak, m.active)
	return pick.surface
}

// StopUsingRenderTexture clears s through cb and returns it to the pool.
// cb may be nil when no commands should be recorded. Surfaces that are not
// in use are ignored.
func (m *OffscreenTextureManager) StopUsingRenderTexture(cb *CommandBuffer, s *Surface) {
	c := m.find(s)
	if c == nil || !c.inUse {
		Logger().Warn("offscreen surface returned twice or not pooled", slog.Any("surface", surfaceID(s)))
		return
	}
	if cb != nil {
		cb.ClearSurface(s)
	}
	c.inUse = false
	m.active--
}

// StopUsingAllRenderTextures marks every surface free.
func (m *OffscreenTextureManager) StopUsingAllRenderTextures() {
	for _, c := range m.containers {
		c.inUse = false
	}
	m.active = 0
}

// ResetPreviousActiveCount starts a frame's usage tracking. Only the first
// call per frame has an effect; EndFrame re-arms it.
func (m *OffscreenTextureManager) ResetPreviousActiveCount() {
	if m.hasReset {
		return
	}
	m.hasReset = true
	m.previousPeak = m.peak
	m.peak = m.active
}

// EndFrame re-arms ResetPreviousActiveCount for the next frame.
func (m *OffscreenTextureManager) EndFrame() {
	m.hasReset = false
}

// ReleaseStaleRenderTextures shrinks the pool to max(Floor, previous peak),
// releasing free surfaces from the tail. Surfaces in use are never released,
// so the pool may stay larger than the target.
func (m *OffscreenTextureManager) ReleaseStaleRenderTextures() {
	keep := max(m.Floor, m.previousPeak)
	released := 0
	for i := len(m.containers) - 1; i >= 0 && len(m.containers) > keep; i-- {
		c := m.containers[i]
		if c.inUse {
			continue
		}
		m.alloc.Release(c.surface)
		m.containers = append(m.containers[:i], m.containers[i+1:]...)
		released++
	}
	if released > 0 {
		Logger().Debug("trimmed offscreen pool",
			slog.Int("released", released),
			slog.Int("kept", len(m.containers)),
			slog.Int("previous_peak", m.previousPeak))
	}
}

// Len returns the number of pooled surfaces.
func (m *OffscreenTextureManager) Len() int { return len(m.containers) }

// ActiveCount returns the number of surfaces in use.
func (m *OffscreenTextureManager) ActiveCount() int { return m.active }

// Peak returns the highest concurrent usage seen this frame.
func (m *OffscreenTextureManager) Peak() int { return m.peak }

// Release frees every pooled surface.
func (m *OffscreenTextureManager) Release() {
	for _, c := range m.containers {
		m.alloc.Release(c.surface)
	}
	m.containers = nil
	m.active = 0
	m.peak = 0
	m.previousPeak = 0
}

func (m *OffscreenTextureManager) find(s *Surface) *offscreenContainer {
	if s == nil {
		return nil
	}
	for _, c := range m.containers {
		if c.surface == s {
			return c
		}
	}
	return nil
}
