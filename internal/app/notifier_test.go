package app_test

import (
	"testing"

	"knotquiz/internal/app"
)

func TestNotifierDeliversPerSession(t *testing.T) {
	n := app.NewNotifier()
	a, cancelA := n.Subscribe("a")
	defer cancelA()
	b, cancelB := n.Subscribe("b")
	defer cancelB()

	n.Publish(app.SessionView{ID: "a", Score: 1})

	select {
	case v := <-a:
		if v.Score != 1 {
			t.Fatalf("unexpected view %+v", v)
		}
	default:
		t.Fatalf("expected update for a")
	}
	select {
	case v := <-b:
		t.Fatalf("unexpected update for b: %+v", v)
	default:
	}
}

func TestNotifierDropsOldestWhenFull(t *testing.T) {
	n := app.NewNotifier()
	ch, cancel := n.Subscribe("a")
	defer cancel()

	for i := 0; i < 20; i++ {
		n.Publish(app.SessionView{ID: "a", Score: i})
	}
	var last app.SessionView
	count := 0
	for {
		select {
		case v := <-ch:
			last = v
			count++
			continue
		default:
		}
		break
	}
	if count == 0 || last.Score != 19 {
		t.Fatalf("expected newest update retained, got count=%d last=%d", count, last.Score)
	}
}

func TestNotifierCancelIsIdempotent(t *testing.T) {
	n := app.NewNotifier()
	ch, cancel := n.Subscribe("a")
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel")
	}
	n.Publish(app.SessionView{ID: "a"})
}
