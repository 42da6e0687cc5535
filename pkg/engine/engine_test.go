package engine_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-view/pkg/engine"
)

func TestBase_WrapperChainAndLayout(t *testing.T) {
	var base engine.Base

	base.WrapWith("outer", "", "inner")
	wrappers := base.Wrappers()
	if diff := cmp.Diff([]string{"outer", "inner"}, wrappers); diff != "" {
		t.Fatalf("wrappers mismatch (-want +got):\n%s", diff)
	}

	wrappers[0] = "mutated"
	if base.Wrappers()[0] != "outer" {
		t.Fatalf("Wrappers must return a copy")
	}

	base.NoWrappers()
	if len(base.Wrappers()) != 0 {
		t.Fatalf("expected wrappers to be cleared")
	}

	if base.Layout() != "" {
		t.Fatalf("zero value must have no layout")
	}
	base.UseLayout("main")
	if base.Layout() != "main" {
		t.Fatalf("unexpected layout %q", base.Layout())
	}

	base.SetContent("body")
	if base.Content() != "body" {
		t.Fatalf("unexpected content %q", base.Content())
	}
	if base.View() != nil {
		t.Fatalf("zero value must not have a view")
	}
}
