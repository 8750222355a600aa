package cubism

import "math"

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
// Premultiplication happens in the backend when commands are executed.
type Color struct {
	R, G, B, A float64
}

var (
	// ColorWhite is the neutral multiply color.
	ColorWhite = Color{1, 1, 1, 1}
	// ColorTransparent is the neutral screen color and the clear color of
	// every offscreen and mask surface.
	ColorTransparent = Color{}
)

// Vec2 is a 2D vector.
type Vec2 struct {
	X, Y float64
}

// Vec3 is a 3D vector used for controller positions and camera placement in
// depth sorting.
type Vec3 struct {
	X, Y, Z float64
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Dot returns the dot product of v and o.
func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Normalize returns v scaled to unit length. The zero vector is returned
// unchanged.
func (v Vec3) Normalize() Vec3 {
	l := math.Sqrt(v.Dot(v))
	if l == 0 {
		return v
	}
	return Vec3{v.X / l, v.Y / l, v.Z / l}
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Intersects reports whether r and other overlap.
// Adjacent rectangles (sharing only an edge) are considered intersecting.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width &&
		r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height &&
		r.Y+r.Height >= other.Y
}

// Expand grows the rectangle by dx on the left and right and dy on the top
// and bottom.
func (r Rect) Expand(dx, dy float64) Rect {
	return Rect{X: r.X - dx, Y: r.Y - dy, Width: r.Width + 2*dx, Height: r.Height + 2*dy}
}

// rectUnion returns the smallest Rect containing both a and b.
func rectUnion(a, b Rect) Rect {
	minX := math.Min(a.X, b.X)
	minY := math.Min(a.Y, b.Y)
	maxX := math.Max(a.X+a.Width, b.X+b.Width)
	maxY := math.Max(a.Y+a.Height, b.Y+b.Height)
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// ColorBlend selects the color half of a blend mode.
type ColorBlend uint8

const (
	ColorBlendNormal             ColorBlend = iota // source-over
	ColorBlendAddCompatible                        // legacy additive, engine blending
	ColorBlendMultiplyCompatible                   // legacy multiplicative, engine blending
	ColorBlendAdd                                  // additive with alpha compositing
	ColorBlendAddGlow                              // additive, alpha ignored
	ColorBlendDarken
	ColorBlendMultiply
	ColorBlendColorBurn
	ColorBlendLinearBurn
	ColorBlendLighten
	ColorBlendScreen
	ColorBlendColorDodge
	ColorBlendOverlay
	ColorBlendSoftLight
	ColorBlendHardLight
	ColorBlendLinearLight
	ColorBlendHue
	ColorBlendColor
)

var colorBlendNames = [...]string{
	ColorBlendNormal:             "Normal",
	ColorBlendAddCompatible:      "AddCompatible",
	ColorBlendMultiplyCompatible: "MultiplyCompatible",
	ColorBlendAdd:                "Add",
	ColorBlendAddGlow:            "AddGlow",
	ColorBlendDarken:             "Darken",
	ColorBlendMultiply:           "Multiply",
	ColorBlendColorBurn:          "ColorBurn",
	ColorBlendLinearBurn:         "LinearBurn",
	ColorBlendLighten:            "Lighten",
	ColorBlendScreen:             "Screen",
	ColorBlendColorDodge:         "ColorDodge",
	ColorBlendOverlay:            "Overlay",
	ColorBlendSoftLight:          "SoftLight",
	ColorBlendHardLight:          "HardLight",
	ColorBlendLinearLight:        "LinearLight",
	ColorBlendHue:                "Hue",
	ColorBlendColor:              "Color",
}

func (c ColorBlend) String() string {
	if int(c) < len(colorBlendNames) {
		return colorBlendNames[c]
	}
	return "Unknown"
}

// AlphaBlend selects the alpha compositing half of a blend mode.
type AlphaBlend uint8

const (
	AlphaBlendOver AlphaBlend = iota
	AlphaBlendAtop
	AlphaBlendOut
	AlphaBlendConjointOver
	AlphaBlendDisjointOver
)

var alphaBlendNames = [...]string{
	AlphaBlendOver:         "Over",
	AlphaBlendAtop:         "Atop",
	AlphaBlendOut:          "Out",
	AlphaBlendConjointOver: "ConjointOver",
	AlphaBlendDisjointOver: "DisjointOver",
}

func (a AlphaBlend) String() string {
	if int(a) < len(alphaBlendNames) {
		return alphaBlendNames[a]
	}
	return "Unknown"
}

// BlendMode is a color-blend × alpha-blend pair.
type BlendMode struct {
	Color ColorBlend
	Alpha AlphaBlend
}

var (
	BlendNormal         = BlendMode{ColorBlendNormal, AlphaBlendOver}
	BlendAdditive       = BlendMode{ColorBlendAddCompatible, AlphaBlendOver}
	BlendMultiplicative = BlendMode{ColorBlendMultiplyCompatible, AlphaBlendOver}
)

// IsCompatible reports whether the mode can be expressed with fixed-function
// engine blending. Every other mode needs the destination contents as a
// shader input and is drawn against a backdrop snapshot.
func (b BlendMode) IsCompatible() bool {
	switch b.Color {
	case ColorBlendNormal:
		return b.Alpha == AlphaBlendOver
	case ColorBlendAddCompatible, ColorBlendMultiplyCompatible:
		return true
	}
	return false
}

func (b BlendMode) String() string {
	return b.Color.String() + "+" + b.Alpha.String()
}
