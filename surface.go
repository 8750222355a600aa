package cubism

// SurfaceID identifies a render target. The zero ID is reserved for the
// camera target (the engine's back buffer), which is never allocated.
type SurfaceID uint32

// CameraTarget is the SurfaceID of the final camera target.
const CameraTarget SurfaceID = 0

// Surface is a handle to a render target. Backing resources live in the
// SurfaceAllocator that created it.
type Surface struct {
	ID     SurfaceID
	Width  int
	Height int
	Label  string
}

// SurfaceAllocator creates and destroys the backing resources of surfaces.
// The core only ever calls it from the rendering goroutine.
type SurfaceAllocator interface {
	Allocate(label string, w, h int) *Surface
	Resize(s *Surface, w, h int)
	Release(s *Surface)
}

// HeadlessAllocator hands out surfaces with no backing resources. It is used
// for command recording without a GPU (tests, tooling, servers that replay
// the recorded commands elsewhere).
type HeadlessAllocator struct {
	next SurfaceID
	live map[SurfaceID]*Surface

	// Allocated and Released count calls for leak checks.
	Allocated int
	Released  int
}

// NewHeadlessAllocator creates an empty headless allocator.
func NewHeadlessAllocator() *HeadlessAllocator {
	return &HeadlessAllocator{live: make(map[SurfaceID]*Surface)}
}

func (a *HeadlessAllocator) Allocate(label string, w, h int) *Surface {
	a.next++
	s := &Surface{ID: a.next, Width: w, Height: h, Label: label}
	a.live[s.ID] = s
	a.Allocated++
	return s
}

func (a *HeadlessAllocator) Resize(s *Surface, w, h int) {
	if s == nil {
		return
	}
	s.Width, s.Height = w, h
}

func (a *HeadlessAllocator) Release(s *Surface) {
	if s == nil {
		return
	}
	if _, ok := a.live[s.ID]; !ok {
		return
	}
	delete(a.live, s.ID)
	a.Released++
}

// Live returns the number of surfaces allocated and not yet released.
func (a *HeadlessAllocator) Live() int {
	return len(a.live)
}
