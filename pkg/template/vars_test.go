package template_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-view/pkg/template"
)

func TestVars_KeepsInsertionOrder(t *testing.T) {
	vars := template.NewVars().
		Set("title", "Home").
		Set("user", "ada").
		Set(" ", "ignored").
		Set("cache", "+1 hour")
	vars.Set("title", "Dashboard")

	if diff := cmp.Diff([]string{"title", "user", "cache"}, vars.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if value, _ := vars.Get("title"); value != "Dashboard" {
		t.Fatalf("expected overwritten value, got %v", value)
	}

	vars.Delete("user")
	if vars.Has("user") || vars.Len() != 2 {
		t.Fatalf("delete failed: %v", vars.Keys())
	}
}

func TestVars_FromMapMergeClone(t *testing.T) {
	vars := template.VarsFrom(map[string]any{"b": 2, "a": 1})
	if diff := cmp.Diff([]string{"a", "b"}, vars.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}

	clone := vars.Clone()
	clone.Merge(template.VarsFrom(map[string]any{"a": 10, "c": 3}))

	if diff := cmp.Diff(map[string]any{"a": 10, "b": 2, "c": 3}, clone.Map()); diff != "" {
		t.Fatalf("merged map mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]any{"a": 1, "b": 2}, vars.Map()); diff != "" {
		t.Fatalf("clone must not alias the source (-want +got):\n%s", diff)
	}
}

func TestVars_NilIsEmpty(t *testing.T) {
	var vars *template.Vars
	if vars.Len() != 0 || vars.Has("x") || len(vars.Keys()) != 0 {
		t.Fatalf("nil vars should be empty")
	}
	if len(vars.Map()) != 0 {
		t.Fatalf("nil vars map should be empty")
	}
}
