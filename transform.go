package cubism

import "math"

// identityTransform is the identity affine matrix.
var identityTransform = [6]float64{1, 0, 0, 1, 0, 0}

// identityTransform32 is the identity affine matrix as float32.
var identityTransform32 = [6]float32{1, 0, 0, 1, 0, 0}

// affine32 converts a [6]float64 affine matrix to [6]float32.
func affine32(m [6]float64) [6]float32 {
	return [6]float32{float32(m[0]), float32(m[1]), float32(m[2]), float32(m[3]), float32(m[4]), float32(m[5])}
}

// computeLocalTransform computes the model matrix of a render controller.
// Returns [a, b, c, d, tx, ty].
//
// Composition order:
//
//	Translate(-PivotX, -PivotY) -> Scale -> Rotate -> Translate(X, Y)
func computeLocalTransform(c *RenderController) [6]float64 {
	sx := c.ScaleX
	sy := c.ScaleY

	sin, cos := math.Sincos(c.Rotation)

	preTx := -c.PivotX * sx
	preTy := -c.PivotY * sy

	return [6]float64{
		cos * sx, sin * sx,
		-sin * sy, cos * sy,
		cos*preTx - sin*preTy + c.X,
		sin*preTx + cos*preTy + c.Y,
	}
}

// multiplyAffine multiplies two 2D affine matrices: result = parent * child.
//
//	Matrix layout: [a, b, c, d, tx, ty]
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
func multiplyAffine(p, c [6]float64) [6]float64 {
	return [6]float64{
		p[0]*c[0] + p[2]*c[1],
		p[1]*c[0] + p[3]*c[1],
		p[0]*c[2] + p[2]*c[3],
		p[1]*c[2] + p[3]*c[3],
		p[0]*c[4] + p[2]*c[5] + p[4],
		p[1]*c[4] + p[3]*c[5] + p[5],
	}
}

// invertAffine computes the inverse of a 2D affine matrix.
// Returns the identity matrix if the matrix is singular.
func invertAffine(m [6]float64) [6]float64 {
	det := m[0]*m[3] - m[2]*m[1]
	if det > -1e-12 && det < 1e-12 {
		return identityTransform
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return [6]float64{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}
}

// transformPoint applies an affine matrix to a point.
func transformPoint(m [6]float64, x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// transformPoint32 is transformPoint on the float32 matrices carried by
// recorded commands.
func transformPoint32(m [6]float32, x, y float32) (float32, float32) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// rectToRect returns the affine matrix mapping src onto dst.
func rectToRect(src, dst Rect) [6]float64 {
	if src.Width == 0 || src.Height == 0 {
		return [6]float64{0, 0, 0, 0, dst.X, dst.Y}
	}
	sx := dst.Width / src.Width
	sy := dst.Height / src.Height
	return [6]float64{sx, 0, 0, sy, dst.X - src.X*sx, dst.Y - src.Y*sy}
}

// pixelProjection maps pixel coordinates of a w×h surface (origin top-left,
// Y down) to normalized device coordinates (origin center, Y up).
func pixelProjection(w, h float64) [6]float64 {
	if w <= 0 || h <= 0 {
		return identityTransform
	}
	return [6]float64{2 / w, 0, 0, -2 / h, -1, 1}
}

// maskPageProjection maps normalized page coordinates [0,1]² (Y down) to
// normalized device coordinates.
var maskPageProjection = [6]float64{2, 0, 0, -2, -1, 1}
