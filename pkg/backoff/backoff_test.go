package backoff

import (
	"errors"
	"testing"
	"time"
)

func TestPolicy_Sequence(t *testing.T) {
	p := New(0, 0) // defaults

	want := []time.Duration{
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		1600 * time.Millisecond,
		3200 * time.Millisecond,
		6400 * time.Millisecond,
	}

	for i, w := range want {
		got, err := p.Next()
		if err != nil {
			t.Fatalf("Next() #%d: unexpected error: %v", i, err)
		}
		if got != w {
			t.Errorf("Next() #%d = %v, want %v", i, got, w)
		}
	}

	// The seventh attempt would wait 12800ms, past the ceiling.
	if _, err := p.Next(); !errors.Is(err, ErrRetriesExhausted) {
		t.Errorf("Next() after ceiling = %v, want ErrRetriesExhausted", err)
	}
}

func TestPolicy_Deterministic(t *testing.T) {
	// Two policies with identical parameters must produce identical sequences.
	a := New(200*time.Millisecond, 6*time.Second)
	b := New(200*time.Millisecond, 6*time.Second)

	for i := 0; i < 10; i++ {
		wa, ea := a.Next()
		wb, eb := b.Next()
		if wa != wb || !errors.Is(ea, eb) {
			t.Fatalf("step %d diverged: (%v, %v) vs (%v, %v)", i, wa, ea, wb, eb)
		}
	}
}

func TestPolicy_Reset(t *testing.T) {
	p := New(100*time.Millisecond, time.Second)

	if _, err := p.Next(); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Next(); err != nil {
		t.Fatal(err)
	}
	if p.Current() != 400*time.Millisecond {
		t.Fatalf("Current() = %v after two failures, want 400ms", p.Current())
	}

	p.Reset()
	if p.Current() != 100*time.Millisecond {
		t.Errorf("Current() = %v after Reset, want 100ms", p.Current())
	}

	got, err := p.Next()
	if err != nil || got != 100*time.Millisecond {
		t.Errorf("Next() after Reset = (%v, %v), want (100ms, nil)", got, err)
	}
}

func TestPolicy_CustomCeiling(t *testing.T) {
	p := New(500*time.Millisecond, 500*time.Millisecond)

	if got, err := p.Next(); err != nil || got != 500*time.Millisecond {
		t.Fatalf("Next() = (%v, %v), want (500ms, nil)", got, err)
	}
	if _, err := p.Next(); !errors.Is(err, ErrRetriesExhausted) {
		t.Errorf("Next() = %v, want ErrRetriesExhausted", err)
	}
}
