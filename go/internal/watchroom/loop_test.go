package watchroom

import (
	"errors"
	"testing"
)

func TestEventLoopRunsInPostOrder(t *testing.T) {
	l := newEventLoop()
	defer l.Close()

	var got []int
	for i := 0; i < 100; i++ {
		i := i
		l.Post(func() { got = append(got, i) })
	}
	if err := l.Do(func() {}); err != nil {
		t.Fatalf("Do() error: %v", err)
	}

	if len(got) != 100 {
		t.Fatalf("ran %d functions, want 100", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("got[%d] = %d, want %d", i, v, i)
		}
	}
}

func TestEventLoopPostFromInsideLoop(t *testing.T) {
	l := newEventLoop()
	defer l.Close()

	var order []string
	err := l.Do(func() {
		order = append(order, "outer")
		l.Post(func() { order = append(order, "inner") })
	})
	if err != nil {
		t.Fatalf("Do() error: %v", err)
	}
	l.Do(func() {})

	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Errorf("order = %v, want [outer inner]", order)
	}
}

func TestEventLoopClose(t *testing.T) {
	l := newEventLoop()

	ran := false
	l.Post(func() { ran = true })
	l.Close()
	<-l.Done()

	if !ran {
		t.Error("queued function did not run before shutdown")
	}
	if l.Post(func() {}) {
		t.Error("Post() after Close reported success")
	}
	if err := l.Do(func() {}); !errors.Is(err, ErrClosed) {
		t.Errorf("Do() after Close error = %v, want ErrClosed", err)
	}
}
