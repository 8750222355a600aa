package cubism

// DrawObjectKind distinguishes the two kinds of paint-ordered objects.
type DrawObjectKind uint8

const (
	KindDrawable  DrawObjectKind = iota // a textured mesh
	KindOffscreen                       // a render-to-texture region owned by a part
)

func (k DrawObjectKind) String() string {
	switch k {
	case KindDrawable:
		return "Drawable"
	case KindOffscreen:
		return "Offscreen"
	}
	return "Unknown"
}

// DrawObject is one paint-ordered item of a model: either a drawable mesh
// or an offscreen region. There is exactly one DrawObject per native slot and
// its Index never changes for the model's lifetime.
type DrawObject struct {
	Kind  DrawObjectKind
	Index int

	// PartIndex is the parent part of a drawable or the owner part of an
	// offscreen.
	PartIndex int

	// RenderOrder is this frame's paint order within the model. It is not
	// globally monotonic, but an offscreen must order before every object
	// it contains: content sorted ahead of its offscreen draws into the
	// enclosing target.
	RenderOrder int

	// SortingOrder is the effective order used when merging controllers,
	// computed by the owning group during a sort.
	SortingOrder int

	Opacity      float64
	Blend        BlendMode
	DoubleSided  bool
	Masks        []int // drawable indices whose meshes form the mask
	InvertedMask bool
	Visible      bool

	// Drawable only.
	Mesh         *Mesh
	TextureIndex int

	// Offscreen only.
	MultiplyColor            Color
	ScreenColor              Color
	HasRootOffscreenAncestor bool
}

// IsMasked reports whether the object samples a mask.
func (d *DrawObject) IsMasked() bool {
	return len(d.Masks) > 0
}
