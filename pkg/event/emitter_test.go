package event_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-view/pkg/event"
	"github.com/goliatone/go-view/pkg/template"
)

func TestEmitter_ThreadsRewrittenEvent(t *testing.T) {
	emitter := event.NewEmitter()
	emitter.On(event.Rendering, func(_ context.Context, evt event.Event) (event.Event, error) {
		evt.Template = evt.Template + "-first"
		return evt, nil
	})
	emitter.On(event.Rendering, func(_ context.Context, evt event.Event) (event.Event, error) {
		evt.Template = evt.Template + "-second"
		evt.Name = "hijacked"
		evt.Source = "other"
		return evt, nil
	})

	got, err := emitter.Emit(context.Background(), event.Event{Name: event.Rendering, Source: "view", Template: "index"})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	want := event.Event{Name: event.Rendering, Source: "view", Template: "index-first-second"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("event mismatch (-want +got):\n%s", diff)
	}
}

func TestEmitter_PriorityOrder(t *testing.T) {
	emitter := event.NewEmitter()
	var calls []string
	record := func(name string) event.Listener {
		return func(_ context.Context, evt event.Event) (event.Event, error) {
			calls = append(calls, name)
			return evt, nil
		}
	}

	emitter.On("x", record("default-a"))
	emitter.On("x", record("late"), event.WithPriority(200))
	emitter.On("x", record("early"), event.WithPriority(10))
	emitter.On("x", record("default-b"))

	if _, err := emitter.Emit(context.Background(), event.Event{Name: "x"}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if diff := cmp.Diff([]string{"early", "default-a", "default-b", "late"}, calls); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestEmitter_OnceOffAndUnsubscribe(t *testing.T) {
	emitter := event.NewEmitter()
	count := 0
	inc := func(_ context.Context, evt event.Event) (event.Event, error) {
		count++
		return evt, nil
	}

	emitter.Once("x", inc)
	cancel := emitter.On("x", inc)
	emitter.On("y", inc)

	ctx := context.Background()
	_, _ = emitter.Emit(ctx, event.Event{Name: "x"})
	_, _ = emitter.Emit(ctx, event.Event{Name: "x"})
	if count != 3 {
		t.Fatalf("expected once listener to fire a single time, count=%d", count)
	}

	cancel()
	if emitter.Listeners("x") != 0 {
		t.Fatalf("expected no listeners for x, got %d", emitter.Listeners("x"))
	}

	emitter.Off("y")
	_, _ = emitter.Emit(ctx, event.Event{Name: "y"})
	if count != 3 {
		t.Fatalf("off should remove y listeners, count=%d", count)
	}
}

func TestEmitter_ErrorStopsDispatch(t *testing.T) {
	emitter := event.NewEmitter()
	boom := errors.New("boom")
	called := false

	emitter.On("x", func(_ context.Context, evt event.Event) (event.Event, error) {
		return evt, boom
	})
	emitter.On("x", func(_ context.Context, evt event.Event) (event.Event, error) {
		called = true
		return evt, nil
	})

	if _, err := emitter.Emit(context.Background(), event.Event{Name: "x"}); !errors.Is(err, boom) {
		t.Fatalf("expected listener error, got %v", err)
	}
	if called {
		t.Fatalf("dispatch should stop after an error")
	}
}

func TestEmitter_NilIsNoop(t *testing.T) {
	var emitter *event.Emitter
	evt := event.Event{Name: event.Rendered, Content: "x"}
	got, err := emitter.Emit(context.Background(), evt)
	if err != nil || got != evt {
		t.Fatalf("nil emitter should return the event unchanged")
	}
}

func TestStageNames(t *testing.T) {
	cases := map[template.Kind][2]string{
		template.Open:    {"view.rendering.template", "view.rendered.template"},
		template.Closed:  {"view.rendering.template", "view.rendered.template"},
		template.Wrapper: {"view.rendering.wrapper", "view.rendered.wrapper"},
		template.Layout:  {"view.rendering.layout", "view.rendered.layout"},
	}
	for kind, want := range cases {
		if got := event.StageRendering(kind); got != want[0] {
			t.Fatalf("%s: unexpected rendering name %q", kind, got)
		}
		if got := event.StageRendered(kind); got != want[1] {
			t.Fatalf("%s: unexpected rendered name %q", kind, got)
		}
	}
}
