package testkit

import (
	"strings"
	"testing"

	"imbind/internal/ir"
)

func TestCheckLibrary(t *testing.T) {
	field := ir.NewField("Alpha", ir.Builtin(ir.BuiltinFloat32), 0)
	style := ir.NewRecord("ImGuiStyle")
	style.Members = []ir.Decl{field}
	ok := ir.NewLibrary(ir.LibraryParts{Declarations: []ir.Decl{style}})
	if err := CheckLibrary(ok); err != nil {
		t.Fatalf("valid library rejected: %v", err)
	}

	io := ir.NewRecord("ImGuiIO")
	io.Members = []ir.Decl{field}
	shared := ir.NewLibrary(ir.LibraryParts{Declarations: []ir.Decl{style, io}})
	err := CheckLibrary(shared)
	if err == nil || !strings.Contains(err.Error(), "ImGuiIO.Alpha reuses identity") {
		t.Fatalf("shared node not detected: %v", err)
	}

	self := ir.NewTypedef("ImGuiID", ir.Builtin(ir.BuiltinUint32))
	self.Replaces = []ir.DeclID{self.Common().ID()}
	if err := CheckLibrary(ir.NewLibrary(ir.LibraryParts{Declarations: []ir.Decl{self}})); err == nil {
		t.Fatalf("self replacement not detected")
	}
}

func TestCheckShared(t *testing.T) {
	a := ir.NewTypedef("ImGuiID", ir.Builtin(ir.BuiltinUint32))
	b := ir.NewTypedef("ImTextureID", ir.Builtin(ir.BuiltinUint64))
	before := ir.NewLibrary(ir.LibraryParts{Declarations: []ir.Decl{a, b}})

	copied := b.Clone()
	after := before.WithDeclarations([]ir.Decl{a, copied})
	none := func(ir.DeclID) bool { return false }
	if err := CheckShared(before, after, none); err == nil {
		t.Fatalf("copied declaration not detected")
	}
	onlyB := func(id ir.DeclID) bool { return id == b.Common().ID() }
	if err := CheckShared(before, after, onlyB); err != nil {
		t.Fatalf("declared change rejected: %v", err)
	}
}
