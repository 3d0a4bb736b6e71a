package graph

import (
	"errors"
	"testing"
)

func TestNewDropsDuplicateNodes(t *testing.T) {
	g, errs := New(Snapshot{
		Nodes: []*Node{NewNode("a"), NewNode("b"), NewNode("a")},
		Links: []*Link{NewLink("a", "b", true)},
	})

	if len(g.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(g.Nodes))
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
	if !errors.Is(errs[0], ErrDuplicateNode) {
		t.Errorf("expected ErrDuplicateNode, got %v", errs[0])
	}
	if len(g.Links) != 1 {
		t.Errorf("expected links to be kept, got %d", len(g.Links))
	}
}

func TestResolveLink(t *testing.T) {
	g, _ := New(Snapshot{Nodes: []*Node{NewNode("a"), NewNode("b")}})

	tests := []struct {
		name    string
		link    *Link
		missing []string
	}{
		{"both present", NewLink("a", "b", false), nil},
		{"unknown target", NewLink("a", "z", false), []string{"z"}},
		{"unknown source", NewLink("y", "b", false), []string{"y"}},
		{"both unknown", NewLink("y", "z", false), []string{"y", "z"}},
		{"self loop unknown", NewLink("q", "q", false), []string{"q"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.ResolveLink(tt.link)
			if tt.missing == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if !tt.link.Resolved() {
					t.Error("link not resolved")
				}
				return
			}
			var ce *ConsistencyError
			if !errors.As(err, &ce) {
				t.Fatalf("expected ConsistencyError, got %v", err)
			}
			if !errors.Is(err, ErrUnknownNode) {
				t.Errorf("expected ErrUnknownNode, got %v", err)
			}
			if len(ce.Missing) != len(tt.missing) {
				t.Fatalf("missing = %v, want %v", ce.Missing, tt.missing)
			}
			for i := range tt.missing {
				if ce.Missing[i] != tt.missing[i] {
					t.Errorf("missing[%d] = %s, want %s", i, ce.Missing[i], tt.missing[i])
				}
			}
			if tt.link.Resolved() {
				t.Error("dangling link left resolved")
			}
		})
	}
}

func TestResolveGroup(t *testing.T) {
	g, _ := New(Snapshot{Nodes: []*Node{NewNode("a"), NewNode("b")}})

	ok := NewGroup("g1", "a", "b")
	if err := g.ResolveGroup(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ok.Nodes) != 2 {
		t.Errorf("expected 2 resolved members, got %d", len(ok.Nodes))
	}

	bad := NewGroup("g2", "a", "x")
	if err := g.ResolveGroup(bad); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("expected ErrUnknownNode, got %v", err)
	}
	if bad.Nodes != nil {
		t.Error("inconsistent group kept resolved members")
	}
}

func TestRemoveNodeInvalidatesLinks(t *testing.T) {
	g, _ := New(Snapshot{Nodes: []*Node{NewNode("a"), NewNode("b")}})
	l := NewLink("a", "b", true)
	g.AddLink(l)

	if !g.RemoveNode("b") {
		t.Fatal("expected node b to be removed")
	}
	if g.RemoveNode("b") {
		t.Error("second removal should report false")
	}
	if err := g.ResolveLink(l); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("expected link to dangle after removal, got %v", err)
	}
	if c := g.Counts(); c.Nodes != 1 || c.Links != 1 {
		t.Errorf("unexpected counts %+v", c)
	}
}

func TestNodePin(t *testing.T) {
	n := NewNode("a")
	if n.Pinned() {
		t.Fatal("new node should be free")
	}
	n.Pin(3, 4)
	if !n.Pinned() || *n.Fx != 3 || *n.Fy != 4 {
		t.Errorf("pin not recorded: %+v", n)
	}
	n.Unpin()
	if n.Pinned() {
		t.Error("unpin left node pinned")
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{KindNode, KindLink, KindGroup} {
		got, err := ParseKind(k.String())
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.String(), got, err)
		}
	}
	if _, err := ParseKind("edge"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestDeleteNodeCascades(t *testing.T) {
	g, _ := New(Snapshot{
		Nodes:  []*Node{NewNode("a"), NewNode("b"), NewNode("c")},
		Links:  []*Link{NewLink("a", "b", true), NewLink("b", "c", false), NewLink("a", "c", true)},
		Groups: []*Group{NewGroup("g", "a", "b", "c"), NewGroup("h", "b")},
	})

	if !g.DeleteNode("b") {
		t.Fatal("expected node b to be deleted")
	}
	if g.DeleteNode("b") {
		t.Error("second delete should report false")
	}
	if c := g.Counts(); c.Nodes != 2 || c.Links != 1 || c.Groups != 1 {
		t.Fatalf("unexpected counts %+v", c)
	}
	if g.Links[0].String() != "a->c" {
		t.Errorf("kept link %s", g.Links[0])
	}
	gr := g.Groups[0]
	if gr.ID != "g" || len(gr.Members) != 2 || gr.Members[0] != "a" || gr.Members[1] != "c" {
		t.Errorf("group after delete %+v", gr)
	}
	if err := g.ResolveGroup(gr); err != nil {
		t.Errorf("group should stay consistent: %v", err)
	}
}
