package cubism

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// moveAnim holds active move-to tweens for camera X, Y and Z.
type moveAnim struct {
	tweens [3]*gween.Tween
	done   [3]bool
}

// Camera controls the view onto the composited scene. X and Y center the 2D
// view; Z and Forward place the camera in depth for depth sorting.
type Camera struct {
	// X and Y are the world-space position the camera centers on.
	X, Y float64
	// Z is the camera's depth position.
	Z float64
	// Forward is the viewing direction used for depth sorting.
	Forward Vec3
	// Zoom is the scale factor (1.0 = no zoom, >1 = zoom in, <1 = zoom out).
	Zoom float64
	// Rotation is the camera rotation in radians (clockwise).
	Rotation float64
	// Viewport is the screen-space rectangle this camera renders into.
	Viewport Rect

	viewMatrix    [6]float64
	invViewMatrix [6]float64
	dirty         bool

	// depth placement at the last consumeMoved
	lastPos     Vec3
	lastForward Vec3

	move *moveAnim
}

// NewCamera creates a camera looking down +Z at the origin.
func NewCamera(viewport Rect) *Camera {
	c := &Camera{
		Forward:  Vec3{0, 0, 1},
		Zoom:     1.0,
		Viewport: viewport,
		dirty:    true,
	}
	c.lastPos = c.Position()
	c.lastForward = c.Forward
	return c
}

// Position returns the camera position.
func (c *Camera) Position() Vec3 {
	return Vec3{c.X, c.Y, c.Z}
}

// MoveTo animates the camera to the given position over duration seconds.
func (c *Camera) MoveTo(x, y, z float64, duration float32, easeFn ease.TweenFunc) {
	c.move = &moveAnim{
		tweens: [3]*gween.Tween{
			gween.New(float32(c.X), float32(x), duration, easeFn),
			gween.New(float32(c.Y), float32(y), duration, easeFn),
			gween.New(float32(c.Z), float32(z), duration, easeFn),
		},
	}
}

// Moving reports whether a MoveTo animation is in progress.
func (c *Camera) Moving() bool {
	return c.move != nil
}

// Update advances the move animation.
func (c *Camera) Update(dt float32) {
	prevX, prevY := c.X, c.Y

	if c.move != nil {
		fields := [3]*float64{&c.X, &c.Y, &c.Z}
		for i, tw := range c.move.tweens {
			if c.move.done[i] {
				continue
			}
			val, done := tw.Update(dt)
			*fields[i] = float64(val)
			c.move.done[i] = done
		}
		if c.move.done[0] && c.move.done[1] && c.move.done[2] {
			c.move = nil
		}
	}

	if c.X != prevX || c.Y != prevY {
		c.dirty = true
	}
}

// consumeMoved reports whether the depth placement changed since the last
// call.
func (c *Camera) consumeMoved() bool {
	pos := c.Position()
	moved := pos != c.lastPos || c.Forward != c.lastForward
	c.lastPos = pos
	c.lastForward = c.Forward
	if moved {
		c.dirty = true
	}
	return moved
}

// computeViewMatrix recomputes the cached view matrix if dirty.
//
// viewMatrix = Translate(cx, cy) * Scale(zoom) * Rotate(-rotation) * Translate(-X, -Y)
// where cx, cy = viewport center.
func (c *Camera) computeViewMatrix() [6]float64 {
	if !c.dirty {
		return c.viewMatrix
	}
	c.dirty = false

	cx := c.Viewport.X + c.Viewport.Width/2
	cy := c.Viewport.Y + c.Viewport.Height/2

	cos := math.Cos(-c.Rotation)
	sin := math.Sin(-c.Rotation)
	z := c.Zoom

	a := z * cos
	b := -z * sin
	cc := z * sin
	d := z * cos
	tx := cx + z*(-cos*c.X+sin*c.Y)
	ty := cy + z*(-sin*c.X-cos*c.Y)

	c.viewMatrix = [6]float64{a, cc, b, d, tx, ty}
	c.invViewMatrix = invertAffine(c.viewMatrix)
	return c.viewMatrix
}

// ViewMatrix returns the world-to-screen matrix.
func (c *Camera) ViewMatrix() [6]float64 {
	return c.computeViewMatrix()
}

// ProjectionMatrix returns the screen-to-clip matrix for the viewport.
func (c *Camera) ProjectionMatrix() [6]float64 {
	return pixelProjection(c.Viewport.Width, c.Viewport.Height)
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float64) (sx, sy float64) {
	c.computeViewMatrix()
	sx, sy = transformPoint(c.viewMatrix, wx, wy)
	return
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float64) (wx, wy float64) {
	c.computeViewMatrix()
	wx, wy = transformPoint(c.invViewMatrix, sx, sy)
	return
}

// MarkDirty forces a recomputation of the view matrix. Call after changing
// Zoom, Rotation or Viewport directly.
func (c *Camera) MarkDirty() {
	c.dirty = true
}
