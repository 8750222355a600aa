package cubism

// SortingMode selects how a controller's draw objects are ordered against
// other controllers in the same group.
type SortingMode uint8

const (
	// SortByOrder orders by the controller's sorting order plus each
	// object's render order.
	SortByOrder SortingMode = iota
	// SortByDepth orders by the controller's sorting order, then by camera
	// distance quantized by the depth offset.
	SortByDepth
)

// DefaultDepthOffset separates consecutive render orders in depth mode.
const DefaultDepthOffset = 0.00001

// RenderController places one model instance in the scene and feeds it to
// the renderer. Transform fields are read every frame.
type RenderController struct {
	Name      string
	Model     *Model
	Evaluator Evaluator

	X, Y, Z        float64
	ScaleX, ScaleY float64
	Rotation       float64 // radians
	PivotX, PivotY float64
	Opacity        float64

	sortingMode         SortingMode
	sortingOrder        int
	depthOffset         float64
	groupedSortingIndex int
	didChangeSorting    bool

	masks   *maskConsumer
	frame   EvaluatedFrame
	seq     int  // registration order within the renderer
	lastPos Vec3 // position at the last sync
}

// NewRenderController creates a controller with unit scale, full opacity and
// order sorting.
func NewRenderController(name string, model *Model, eval Evaluator) *RenderController {
	return &RenderController{
		Name:             name,
		Model:            model,
		Evaluator:        eval,
		ScaleX:           1,
		ScaleY:           1,
		Opacity:          1,
		depthOffset:      DefaultDepthOffset,
		didChangeSorting: true,
	}
}

// SortingMode returns the sorting mode.
func (c *RenderController) SortingMode() SortingMode { return c.sortingMode }

// SetSortingMode changes the sorting mode and marks the group for re-sort.
func (c *RenderController) SetSortingMode(m SortingMode) {
	if c.sortingMode == m {
		return
	}
	c.sortingMode = m
	c.didChangeSorting = true
}

// SortingOrder returns the explicit sorting order.
func (c *RenderController) SortingOrder() int { return c.sortingOrder }

// SetSortingOrder changes the explicit sorting order.
func (c *RenderController) SetSortingOrder(order int) {
	if c.sortingOrder == order {
		return
	}
	c.sortingOrder = order
	c.didChangeSorting = true
}

// DepthOffset returns the depth spacing between render orders.
func (c *RenderController) DepthOffset() float64 { return c.depthOffset }

// SetDepthOffset changes the depth spacing. Non-positive values are
// ignored.
func (c *RenderController) SetDepthOffset(d float64) {
	if d <= 0 || c.depthOffset == d {
		return
	}
	c.depthOffset = d
	c.didChangeSorting = true
}

// GroupedSortingIndex returns the group this controller sorts in.
func (c *RenderController) GroupedSortingIndex() int { return c.groupedSortingIndex }

// SetGroupedSortingIndex moves the controller to another group.
func (c *RenderController) SetGroupedSortingIndex(i int) {
	if c.groupedSortingIndex == i {
		return
	}
	c.groupedSortingIndex = i
	c.didChangeSorting = true
}

// Position returns the controller's position for depth sorting.
func (c *RenderController) Position() Vec3 {
	return Vec3{c.X, c.Y, c.Z}
}

// sync pulls the latest evaluated frame into the model and refreshes mask
// bounds. It reports whether the group needs a re-sort: the render order
// changed, or a depth-sorted controller moved.
func (c *RenderController) sync() bool {
	if c.Model == nil {
		return false
	}
	changed := false
	if c.Evaluator != nil && c.Evaluator.TryRead(&c.frame) {
		changed = c.Model.Apply(&c.frame)
	}
	if pos := c.Position(); pos != c.lastPos {
		c.lastPos = pos
		changed = changed || c.sortingMode == SortByDepth
	}
	if c.masks != nil {
		c.masks.update()
	}
	return changed
}

// consumeSortingChange returns and clears the sorting dirty flag.
func (c *RenderController) consumeSortingChange() bool {
	d := c.didChangeSorting
	c.didChangeSorting = false
	return d
}
