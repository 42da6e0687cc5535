package pongo_test

import (
	"context"
	"path"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-view/pkg/engine/pongo"
	"github.com/goliatone/go-view/pkg/template"
)

// stubView resolves partials under public/ and private/ and renders them with
// the engine under test.
type stubView struct {
	engine *pongo.Engine
	vars   *template.Vars
	calls  []string
}

func (v *stubView) Variables() *template.Vars { return v.vars }

func (v *stubView) LocateTemplate(name string, kind template.Kind) (string, error) {
	return path.Join(kind.Dir(), name+".tpl"), nil
}

func (v *stubView) RenderTemplate(ctx context.Context, p string, vars *template.Vars) (string, error) {
	v.calls = append(v.calls, p)
	return v.engine.Render(ctx, p, vars)
}

func newSet(t *testing.T, fsys fstest.MapFS, opts ...pongo.SetOption) *pongo.Set {
	t.Helper()
	set, err := pongo.NewSet(append([]pongo.SetOption{pongo.WithFS(fsys)}, opts...)...)
	if err != nil {
		t.Fatalf("new set: %v", err)
	}
	return set
}

func file(body string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(body)}
}

func TestEngine_RenderVariablesAndContent(t *testing.T) {
	set := newSet(t, fstest.MapFS{
		"public/hello.tpl":   file("Hello {{ name }}!"),
		"wrappers/frame.tpl": file("<main>{{ content|safe }}</main>"),
	})
	eng := pongo.New(set)
	ctx := context.Background()

	got, err := eng.Render(ctx, "public/hello.tpl", template.NewVars().Set("name", "Ada"))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "Hello Ada!" {
		t.Fatalf("unexpected output %q", got)
	}

	eng.SetContent("<p>" + got + "</p>")
	got, err = eng.Render(ctx, "wrappers/frame.tpl", nil)
	if err != nil {
		t.Fatalf("render wrapper: %v", err)
	}
	if got != "<main><p>Hello Ada!</p></main>" {
		t.Fatalf("unexpected wrapper output %q", got)
	}
}

func TestEngine_NestedVarsBecomeMaps(t *testing.T) {
	set := newSet(t, fstest.MapFS{
		"public/user.tpl": file("{{ user.name }} <{{ user.email }}>"),
	})
	eng := pongo.New(set)

	user := template.NewVars().Set("name", "Ada").Set("email", "ada@example.com")
	got, err := eng.Render(context.Background(), "public/user.tpl", template.NewVars().Set("user", user))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "Ada <ada@example.com>" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestEngine_PartialsRenderThroughView(t *testing.T) {
	set := newSet(t, fstest.MapFS{
		"public/page.tpl":    file(`{{ open("nav") }}|{{ close("secret") }}`),
		"public/nav.tpl":     file("<nav>{{ title }}</nav>"),
		"private/secret.tpl": file("<b>hidden</b>"),
	})
	eng := pongo.New(set)
	view := &stubView{engine: eng, vars: template.NewVars().Set("title", "Home")}
	eng.SetView(view)

	got, err := eng.Render(context.Background(), "public/page.tpl", view.vars)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "<nav>Home</nav>|<b>hidden</b>" {
		t.Fatalf("unexpected output %q", got)
	}
	if diff := cmp.Diff([]string{"public/nav.tpl", "private/secret.tpl"}, view.calls); diff != "" {
		t.Fatalf("partial calls mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_PartialWithoutView(t *testing.T) {
	set := newSet(t, fstest.MapFS{
		"public/page.tpl": file(`{{ open("nav") }}`),
	})

	_, err := pongo.New(set).Render(context.Background(), "public/page.tpl", nil)
	if err == nil || !strings.Contains(err.Error(), "no view bound") {
		t.Fatalf("expected no view error, got %v", err)
	}
}

func TestEngine_MissingTemplate(t *testing.T) {
	set := newSet(t, fstest.MapFS{})
	_, err := pongo.New(set).Render(context.Background(), "public/nope.tpl", nil)
	if err == nil || !strings.Contains(err.Error(), "public/nope.tpl") {
		t.Fatalf("expected load error naming the path, got %v", err)
	}
}

func TestEngine_Options(t *testing.T) {
	eng := pongo.New(nil, pongo.WithLayout(" main "), pongo.WithWrappers("outer", "", "inner"))
	if eng.Layout() != "main" {
		t.Fatalf("unexpected layout %q", eng.Layout())
	}
	if diff := cmp.Diff([]string{"outer", "inner"}, eng.Wrappers()); diff != "" {
		t.Fatalf("wrappers mismatch (-want +got):\n%s", diff)
	}
	if _, err := eng.Render(context.Background(), "x.tpl", nil); err == nil {
		t.Fatalf("expected error from engine without set")
	}
}

func TestDefaultFilters(t *testing.T) {
	set := newSet(t, fstest.MapFS{
		"public/filters.tpl": file(`{{ title|trim|lowerfirst }}|{{ body|sanitize }}|{{ body|sanitize:"strict" }}`),
	})
	vars := template.NewVars().
		Set("title", "  Hello World ").
		Set("body", `<p onclick="steal()">hi</p><script>bad()</script>`)

	got, err := pongo.New(set).Render(context.Background(), "public/filters.tpl", vars)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "hello World|<p>hi</p>|hi" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestSet_GlobalsAndFunctions(t *testing.T) {
	fsys := fstest.MapFS{
		"public/globals.tpl": file(`{{ site }} {{ shout(name) }}`),
	}
	set := newSet(t, fsys,
		pongo.WithGlobalData(map[string]any{"site": "docs"}),
		pongo.WithTemplateFunc(map[string]any{
			"shout":   func(s string) string { return strings.ToUpper(s) + "!" },
			"ignored": "not a function",
		}),
	)

	got, err := pongo.New(set).Render(context.Background(), "public/globals.tpl", template.NewVars().Set("name", "ada"))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "docs ADA!" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestSet_RegisterFilter(t *testing.T) {
	set := newSet(t, fstest.MapFS{
		"public/filter.tpl": file(`{{ name|goview_reverse }}`),
	})
	err := set.RegisterFilter("goview_reverse", func(input any, _ any) (any, error) {
		runes := []rune(input.(string))
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		return string(runes), nil
	})
	if err != nil {
		t.Fatalf("register filter: %v", err)
	}
	if err := set.RegisterFilter("goview_reverse", func(any, any) (any, error) { return nil, nil }); err == nil {
		t.Fatalf("expected duplicate filter registration to fail")
	}

	got, err := pongo.New(set).Render(context.Background(), "public/filter.tpl", template.NewVars().Set("name", "abc"))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "cba" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestSet_DebugRecompiles(t *testing.T) {
	fsys := fstest.MapFS{"public/live.tpl": file("v1")}
	set := newSet(t, fsys, pongo.WithDebug(true))
	eng := pongo.New(set)
	ctx := context.Background()

	if got, _ := eng.Render(ctx, "public/live.tpl", nil); got != "v1" {
		t.Fatalf("unexpected first render %q", got)
	}
	fsys["public/live.tpl"] = file("v2")
	if got, _ := eng.Render(ctx, "public/live.tpl", nil); got != "v2" {
		t.Fatalf("debug set should recompile, got %q", got)
	}
}

func TestSet_CachesCompiledTemplates(t *testing.T) {
	fsys := fstest.MapFS{"public/cached.tpl": file("v1")}
	eng := pongo.New(newSet(t, fsys))
	ctx := context.Background()

	if got, _ := eng.Render(ctx, "public/cached.tpl", nil); got != "v1" {
		t.Fatalf("unexpected first render %q", got)
	}
	fsys["public/cached.tpl"] = file("v2")
	if got, _ := eng.Render(ctx, "public/cached.tpl", nil); got != "v1" {
		t.Fatalf("compiled template should be reused, got %q", got)
	}
}

func TestNewSet_RequiresSource(t *testing.T) {
	if _, err := pongo.NewSet(); err == nil {
		t.Fatalf("expected error without a template source")
	}
}
