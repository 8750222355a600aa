package cubism

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates up to 3 float64 fields simultaneously. Create one via
// the convenience constructors and call Update(dt) each frame.
//
// There is no global animation manager; users call Update themselves.
type TweenGroup struct {
	tweens [3]*gween.Tween
	count  int
	fields [3]*float64
	Done   bool
}

// Update advances all tweens by dt seconds and writes values to the target
// fields.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}

	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		*g.fields[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone
}

// TweenPartOpacity creates a TweenGroup that animates the host opacity of a
// part. An out-of-range part yields a group that is already done.
func TweenPartOpacity(tree *PartTree, part int, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	field := tree.opacityRef(part)
	if field == nil {
		return &TweenGroup{Done: true}
	}
	g := &TweenGroup{count: 1}
	g.tweens[0] = gween.New(float32(*field), float32(to), duration, fn)
	g.fields[0] = field
	return g
}

// TweenControllerOpacity creates a TweenGroup that animates c.Opacity.
func TweenControllerOpacity(c *RenderController, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 1}
	g.tweens[0] = gween.New(float32(c.Opacity), float32(to), duration, fn)
	g.fields[0] = &c.Opacity
	return g
}

// TweenControllerPosition creates a TweenGroup that animates c.X, c.Y and
// c.Z. Moving a depth-sorted controller re-sorts its group.
func TweenControllerPosition(c *RenderController, toX, toY, toZ float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 3}
	g.tweens[0] = gween.New(float32(c.X), float32(toX), duration, fn)
	g.tweens[1] = gween.New(float32(c.Y), float32(toY), duration, fn)
	g.tweens[2] = gween.New(float32(c.Z), float32(toZ), duration, fn)
	g.fields[0] = &c.X
	g.fields[1] = &c.Y
	g.fields[2] = &c.Z
	return g
}
