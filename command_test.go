package cubism

import "testing"

func TestCommandTypeString(t *testing.T) {
	tests := []struct {
		c    CommandType
		want string
	}{
		{CmdSetRenderTarget, "SetRenderTarget"},
		{CmdDrawMesh, "DrawMesh"},
		{CmdBlit, "Blit"},
		{CommandType(200), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.c.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.c, got, tt.want)
		}
	}
}

func TestCommandBufferTracksTarget(t *testing.T) {
	cb := NewCommandBuffer()
	if _, ok := cb.Target(); ok {
		t.Fatal("fresh buffer reports a target")
	}
	a := &Surface{ID: 7}
	b := &Surface{ID: 9}

	cb.SetRenderTarget(a)
	cb.DrawMesh(quad(0, 0, 1, 1), identityTransform32, DrawParams{Opacity: 1})
	if cmds := cb.Commands(); cmds[1].Target != 7 {
		t.Errorf("draw recorded into %d, want 7", cmds[1].Target)
	}

	cb.Blit(a, b, DrawParams{Material: MaterialCopy})
	if id, _ := cb.Target(); id != 9 {
		t.Errorf("target after blit = %d, want 9", id)
	}

	cb.Reset()
	if cb.Len() != 0 {
		t.Errorf("Len() after reset = %d", cb.Len())
	}
	if _, ok := cb.Target(); ok {
		t.Error("target survived reset")
	}
}

func TestClearSurfaceRestoresTarget(t *testing.T) {
	cb := NewCommandBuffer()
	a := &Surface{ID: 1}
	b := &Surface{ID: 2}
	cb.SetRenderTarget(a)
	cb.ClearSurface(b)

	cmds := cb.Commands()
	want := []struct {
		typ    CommandType
		target SurfaceID
	}{
		{CmdSetRenderTarget, 1},
		{CmdSetRenderTarget, 2},
		{CmdClearRenderTarget, 2},
		{CmdSetRenderTarget, 1},
	}
	if len(cmds) != len(want) {
		t.Fatalf("recorded %d commands, want %d", len(cmds), len(want))
	}
	for i, w := range want {
		if cmds[i].Type != w.typ || cmds[i].Target != w.target {
			t.Errorf("command %d = %s@%d, want %s@%d", i, cmds[i].Type, cmds[i].Target, w.typ, w.target)
		}
	}
}

func TestDrawParamsCopiedOnRecord(t *testing.T) {
	cb := NewCommandBuffer()
	p := DrawParams{Opacity: 0.5}
	cb.DrawMesh(nil, identityTransform32, p)
	p.Opacity = 1
	if got := cb.Commands()[0].Params.Opacity; got != 0.5 {
		t.Errorf("recorded opacity = %v, want 0.5", got)
	}
}

func TestMeshBounds(t *testing.T) {
	b, ok := quad(2, 3, 4, 5).Bounds()
	if !ok {
		t.Fatal("Bounds() not ok")
	}
	assertNear(t, "X", b.X, 2)
	assertNear(t, "Y", b.Y, 3)
	assertNear(t, "Width", b.Width, 4)
	assertNear(t, "Height", b.Height, 5)

	var nilMesh *Mesh
	if _, ok := nilMesh.Bounds(); ok {
		t.Error("nil mesh reported bounds")
	}
}
