package cubism

// CommandType identifies the kind of a recorded command.
type CommandType uint8

const (
	CmdSetRenderTarget     CommandType = iota // bind a surface as the current target
	CmdClearRenderTarget                      // clear the current target
	CmdDrawMesh                               // draw triangles into the current target
	CmdBlit                                   // copy or composite one surface into another
	CmdSetProjectionMatrix                    // set the projection for subsequent draws
	CmdSetViewMatrix                          // set the view for subsequent draws
)

var commandTypeNames = [...]string{
	CmdSetRenderTarget:     "SetRenderTarget",
	CmdClearRenderTarget:   "ClearRenderTarget",
	CmdDrawMesh:            "DrawMesh",
	CmdBlit:                "Blit",
	CmdSetProjectionMatrix: "SetProjectionMatrix",
	CmdSetViewMatrix:       "SetViewMatrix",
}

// String returns the string representation of a CommandType.
func (c CommandType) String() string {
	if int(c) < len(commandTypeNames) {
		return commandTypeNames[c]
	}
	return "Unknown"
}

// ClearFlags selects what ClearRenderTarget clears.
type ClearFlags uint8

const (
	ClearColor ClearFlags = 1 << iota
	ClearDepth
)

// Material selects the shader family a draw uses.
type Material uint8

const (
	MaterialUnlit       Material = iota // plain textured mesh
	MaterialUnlitMasked                 // textured mesh sampling a mask tile
	MaterialMask                        // mask geometry written into one channel of a mask page
	MaterialComposite                   // offscreen surface composited into its parent
	MaterialCopy                        // opaque copy (snapshots, final blit)
)

// Mesh is the per-frame geometry of a drawable. Positions and UVs are
// interleaved x,y pairs in model space and texture space.
type Mesh struct {
	Positions []float32
	UVs       []float32
	Indices   []uint16
}

// Bounds returns the axis-aligned bounds of the mesh positions.
func (m *Mesh) Bounds() (Rect, bool) {
	if m == nil || len(m.Positions) < 2 {
		return Rect{}, false
	}
	minX, minY := m.Positions[0], m.Positions[1]
	maxX, maxY := minX, minY
	for i := 2; i+1 < len(m.Positions); i += 2 {
		x, y := m.Positions[i], m.Positions[i+1]
		minX = min(minX, x)
		maxX = max(maxX, x)
		minY = min(minY, y)
		maxY = max(maxY, y)
	}
	return Rect{
		X: float64(minX), Y: float64(minY),
		Width: float64(maxX - minX), Height: float64(maxY - minY),
	}, true
}

// MaskBinding tells a masked draw where its stencil lives.
type MaskBinding struct {
	Active   bool
	Page     SurfaceID
	Tile     MaskTile
	Matrix   [6]float32 // model space -> normalized page space
	Inverted bool
}

// DrawParams is the immutable per-draw parameter bundle. It is copied into
// the recorded command, so later changes to model state never alter a
// command that has already been recorded.
type DrawParams struct {
	Material      Material
	Blend         BlendMode
	Opacity       float32
	MultiplyColor Color
	ScreenColor   Color
	DoubleSided   bool
	TextureIndex  int
	Channel       int       // MaterialMask: destination channel
	Backdrop      SurfaceID // snapshot of the destination, 0 when unused
	Mask          MaskBinding
	ObjectKind    DrawObjectKind
	ObjectIndex   int
}

// Command is a single recorded instruction. Target is the surface that was
// current when the command was recorded; for Blit it is the destination.
type Command struct {
	Type       CommandType
	Target     SurfaceID
	Source     SurfaceID // Blit only
	ClearFlags ClearFlags
	ClearColor Color
	Mesh       *Mesh
	Transform  [6]float32
	Matrix     [6]float32 // projection or view
	Params     DrawParams
}

// CommandBuffer records commands in emission order. Emission order is the
// compositing order; nothing in this package reorders recorded commands.
type CommandBuffer struct {
	commands []Command
	target   SurfaceID
	hasTgt   bool
}

const defaultCommandCap = 256

// NewCommandBuffer creates an empty command buffer.
func NewCommandBuffer() *CommandBuffer {
	return &CommandBuffer{commands: make([]Command, 0, defaultCommandCap)}
}

// Reset empties the buffer, keeping its capacity.
func (cb *CommandBuffer) Reset() {
	cb.commands = cb.commands[:0]
	cb.target = CameraTarget
	cb.hasTgt = false
}

// Commands returns the recorded commands. The returned slice MUST NOT be mutated.
func (cb *CommandBuffer) Commands() []Command {
	return cb.commands
}

// Len returns the number of recorded commands.
func (cb *CommandBuffer) Len() int {
	return len(cb.commands)
}

// Target returns the current render target and whether one has been set.
func (cb *CommandBuffer) Target() (SurfaceID, bool) {
	return cb.target, cb.hasTgt
}

// SetRenderTarget records a render target switch.
func (cb *CommandBuffer) SetRenderTarget(s *Surface) {
	id := surfaceID(s)
	cb.target = id
	cb.hasTgt = true
	cb.commands = append(cb.commands, Command{Type: CmdSetRenderTarget, Target: id})
}

// ClearRenderTarget records a clear of the current target.
func (cb *CommandBuffer) ClearRenderTarget(flags ClearFlags, c Color) {
	cb.commands = append(cb.commands, Command{
		Type:       CmdClearRenderTarget,
		Target:     cb.target,
		ClearFlags: flags,
		ClearColor: c,
	})
}

// DrawMesh records a mesh draw into the current target.
func (cb *CommandBuffer) DrawMesh(m *Mesh, transform [6]float32, params DrawParams) {
	cb.commands = append(cb.commands, Command{
		Type:      CmdDrawMesh,
		Target:    cb.target,
		Mesh:      m,
		Transform: transform,
		Params:    params,
	})
}

// Blit records a copy or composite of src into dst. Like an engine blit, it
// leaves dst bound as the current target.
func (cb *CommandBuffer) Blit(src, dst *Surface, params DrawParams) {
	id := surfaceID(dst)
	cb.commands = append(cb.commands, Command{
		Type:   CmdBlit,
		Target: id,
		Source: surfaceID(src),
		Params: params,
	})
	cb.target = id
	cb.hasTgt = true
}

// SetProjectionMatrix records a projection change.
func (cb *CommandBuffer) SetProjectionMatrix(m [6]float32) {
	cb.commands = append(cb.commands, Command{Type: CmdSetProjectionMatrix, Target: cb.target, Matrix: m})
}

// SetViewMatrix records a view change.
func (cb *CommandBuffer) SetViewMatrix(m [6]float32) {
	cb.commands = append(cb.commands, Command{Type: CmdSetViewMatrix, Target: cb.target, Matrix: m})
}

// ClearSurface clears s to transparent and restores the previous target.
func (cb *CommandBuffer) ClearSurface(s *Surface) {
	prev, had := cb.target, cb.hasTgt
	cb.SetRenderTarget(s)
	cb.ClearRenderTarget(ClearColor, ColorTransparent)
	if had && prev != surfaceID(s) {
		cb.commands = append(cb.commands, Command{Type: CmdSetRenderTarget, Target: prev})
		cb.target = prev
	}
}

func surfaceID(s *Surface) SurfaceID {
	if s == nil {
		return CameraTarget
	}
	return s.ID
}
