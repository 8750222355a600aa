package cubism

import (
	"math"
	"testing"

	"github.com/tanema/gween/ease"
)

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

func TestCameraDefaults(t *testing.T) {
	cam := NewCamera(Rect{X: 0, Y: 0, Width: 800, Height: 600})
	if cam.Zoom != 1.0 {
		t.Errorf("Zoom = %f, want 1.0", cam.Zoom)
	}
	if cam.Forward != (Vec3{0, 0, 1}) {
		t.Errorf("Forward = %v, want (0,0,1)", cam.Forward)
	}
	if cam.Viewport.Width != 800 || cam.Viewport.Height != 600 {
		t.Errorf("Viewport = %v, want 800x600", cam.Viewport)
	}
}

func TestCameraIdentityViewMatrix(t *testing.T) {
	cam := NewCamera(Rect{X: 0, Y: 0, Width: 800, Height: 600})
	vm := cam.computeViewMatrix()
	sx, sy := transformPoint(vm, 0, 0)
	if !approxEqual(sx, 400, epsilon) || !approxEqual(sy, 300, epsilon) {
		t.Errorf("WorldToScreen(0,0) = (%f,%f), want (400,300)", sx, sy)
	}
}

func TestCameraTranslation(t *testing.T) {
	cam := NewCamera(Rect{X: 0, Y: 0, Width: 800, Height: 600})
	cam.X = 100
	cam.Y = 50
	cam.dirty = true
	sx, sy := cam.WorldToScreen(100, 50)
	if !approxEqual(sx, 400, epsilon) || !approxEqual(sy, 300, epsilon) {
		t.Errorf("WorldToScreen(100,50) with cam at (100,50) = (%f,%f), want (400,300)", sx, sy)
	}
}

func TestCameraZoom(t *testing.T) {
	cam := NewCamera(Rect{X: 0, Y: 0, Width: 800, Height: 600})
	cam.Zoom = 2.0
	cam.MarkDirty()

	sx1, _ := cam.WorldToScreen(1, 0)
	sx0, _ := cam.WorldToScreen(0, 0)
	if !approxEqual(sx1-sx0, 2.0, epsilon) {
		t.Errorf("zoom 2x: 1 world unit = %f screen pixels, want 2.0", sx1-sx0)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := NewCamera(Rect{X: 0, Y: 0, Width: 800, Height: 600})
	cam.X = 42
	cam.Y = -17
	cam.Zoom = 1.5
	cam.Rotation = 0.3
	cam.MarkDirty()

	origWX, origWY := 123.0, -456.0
	sx, sy := cam.WorldToScreen(origWX, origWY)
	wx, wy := cam.ScreenToWorld(sx, sy)

	if !approxEqual(wx, origWX, 1e-6) || !approxEqual(wy, origWY, 1e-6) {
		t.Errorf("roundtrip: got (%f,%f), want (%f,%f)", wx, wy, origWX, origWY)
	}
}

func TestCameraMoveTo(t *testing.T) {
	cam := NewCamera(Rect{X: 0, Y: 0, Width: 800, Height: 600})
	cam.MoveTo(100, 200, -10, 1.0, ease.Linear)
	if !cam.Moving() {
		t.Fatal("Moving() = false after MoveTo")
	}

	cam.Update(0.5)
	if !approxEqual(cam.X, 50, 1.0) || !approxEqual(cam.Y, 100, 1.0) || !approxEqual(cam.Z, -5, 0.5) {
		t.Errorf("move halfway: cam = (%f,%f,%f), want ~(50,100,-5)", cam.X, cam.Y, cam.Z)
	}

	cam.Update(0.5)
	if !approxEqual(cam.X, 100, 1.0) || !approxEqual(cam.Y, 200, 1.0) || !approxEqual(cam.Z, -10, 0.5) {
		t.Errorf("move end: cam = (%f,%f,%f), want ~(100,200,-10)", cam.X, cam.Y, cam.Z)
	}
	if cam.Moving() {
		t.Error("move not cleared after completion")
	}
}

func TestCameraConsumeMoved(t *testing.T) {
	cam := NewCamera(Rect{Width: 800, Height: 600})
	if cam.consumeMoved() {
		t.Error("fresh camera reports moved")
	}
	cam.Z = 5
	if !cam.consumeMoved() {
		t.Error("Z change not reported")
	}
	if cam.consumeMoved() {
		t.Error("moved reported twice")
	}
	cam.Forward = Vec3{0, 0, -1}
	if !cam.consumeMoved() {
		t.Error("Forward change not reported")
	}
}

func TestCameraProjectionMatrix(t *testing.T) {
	cam := NewCamera(Rect{Width: 200, Height: 100})
	x, y := transformPoint(cam.ProjectionMatrix(), 200, 0)
	if !approxEqual(x, 1, epsilon) || !approxEqual(y, 1, epsilon) {
		t.Errorf("projection(200,0) = (%f,%f), want (1,1)", x, y)
	}
}
