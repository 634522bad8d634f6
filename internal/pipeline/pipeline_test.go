package pipeline

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ironsheep/color-replace-mcp/internal/imaging"
	"github.com/ironsheep/color-replace-mcp/internal/replace"
)

// newSolidRaster creates a raster filled with one opaque colour
func newSolidRaster(width, height int, r, g, b uint8) *imaging.Raster {
	img := imaging.NewRaster(width, height)
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = r, g, b, 255
	}
	return img
}

// collect reads n results or fails the test after timeout
func collect(t *testing.T, p *Pipeline, n int) map[string]Result {
	t.Helper()
	out := make(map[string]Result)
	timeout := time.After(5 * time.Second)
	for len(out) < n {
		select {
		case res, ok := <-p.Results():
			if !ok {
				t.Fatalf("results closed after %d of %d", len(out), n)
			}
			out[res.ID] = res
		case <-timeout:
			t.Fatalf("timed out after %d of %d results", len(out), n)
		}
	}
	return out
}

// expectNoResult asserts nothing arrives for a short while
func expectNoResult(t *testing.T, p *Pipeline) {
	t.Helper()
	select {
	case res := <-p.Results():
		t.Fatalf("unexpected result for %s generation %d", res.ID, res.Generation)
	case <-time.After(100 * time.Millisecond):
	}
}

var redToGreen = replace.RuleSet{{Source: "#FF0000", Target: "#00FF00", Tolerance: 10}}

func TestDispatch_Transforms(t *testing.T) {
	p := New(DefaultOptions())
	defer p.Close()

	src := newSolidRaster(10, 10, 255, 0, 0)
	gen, err := p.Dispatch("a", src, redToGreen)
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	res := collect(t, p, 1)["a"]
	if !res.OK() {
		t.Fatalf("unexpected failure: %v", res.Err)
	}
	if res.Generation != gen {
		t.Errorf("Generation: got %d, want %d", res.Generation, gen)
	}
	if res.Raster.Pix[0] != 0 || res.Raster.Pix[1] != 255 {
		t.Errorf("pixel not recoloured: %v", res.Raster.Pix[:4])
	}
	if !p.Current("a", gen) {
		t.Error("completed dispatch should still be current")
	}
	if p.State("a") != Completed {
		t.Errorf("State: got %s, want completed", p.State("a"))
	}
}

func TestDispatch_CopiesInputs(t *testing.T) {
	p := New(DefaultOptions())
	defer p.Close()

	release := make(chan struct{})
	setBeforeTransform(t, func(Task) { <-release })

	src := newSolidRaster(4, 4, 255, 0, 0)
	rules := redToGreen.Clone()
	if _, err := p.Dispatch("a", src, rules); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	// mutate both after dispatch; the unit must not see it
	rules[0].Target = "#0000FF"
	src.Pix[0] = 1
	close(release)

	res := collect(t, p, 1)["a"]
	if res.Raster == src {
		t.Error("pipeline transformed the caller's raster")
	}
	if got := res.Raster.Pix[:4]; got[0] != 0 || got[1] != 255 || got[2] != 0 {
		t.Errorf("result should reflect rules at dispatch time, got %v", got)
	}
	if src.Pix[1] != 0 {
		t.Error("caller's raster was modified")
	}
}

func TestDispatch_FailureIsolation(t *testing.T) {
	p := New(DefaultOptions())
	defer p.Close()

	good := newSolidRaster(8, 8, 255, 0, 0)
	bad := &imaging.Raster{Width: 2, Height: 2, Pix: make([]byte, 7)}

	if _, err := p.Dispatch("good", good, redToGreen); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Dispatch("bad", bad, redToGreen); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Dispatch("nil", nil, redToGreen); err != nil {
		t.Fatal(err)
	}

	results := collect(t, p, 3)
	if !results["good"].OK() {
		t.Errorf("good image failed: %v", results["good"].Err)
	}
	for _, id := range []string{"bad", "nil"} {
		res := results[id]
		if res.OK() {
			t.Errorf("%s should fail", id)
			continue
		}
		if !errors.Is(res.Err, imaging.ErrMalformedRaster) {
			t.Errorf("%s: error should wrap ErrMalformedRaster, got %v", id, res.Err)
		}
		if p.State(id) != Failed {
			t.Errorf("%s State: got %s, want failed", id, p.State(id))
		}
	}
}

func TestDispatch_PanicIsolated(t *testing.T) {
	p := New(DefaultOptions())
	defer p.Close()

	setBeforeTransform(t, func(task Task) {
		if task.ID == "boom" {
			panic("corrupt frame")
		}
	})

	if _, err := p.Dispatch("boom", newSolidRaster(2, 2, 0, 0, 0), redToGreen); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Dispatch("fine", newSolidRaster(2, 2, 255, 0, 0), redToGreen); err != nil {
		t.Fatal(err)
	}

	results := collect(t, p, 2)
	if results["boom"].OK() {
		t.Error("panicking unit should fail")
	}
	if !results["fine"].OK() {
		t.Errorf("sibling failed: %v", results["fine"].Err)
	}
}

func TestDispatch_StaleResultDiscarded(t *testing.T) {
	orders := []struct {
		name        string
		firstFinish bool // R1's unit finishes before R2's
	}{
		{"older finishes last", false},
		{"older finishes first", true},
	}

	for _, tt := range orders {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Workers = 2
			p := New(opts)
			defer p.Close()

			started := make(chan uint64, 2)
			gates := map[uint64]chan struct{}{}
			var mu sync.Mutex
			gate := func(gen uint64) chan struct{} {
				mu.Lock()
				defer mu.Unlock()
				if gates[gen] == nil {
					gates[gen] = make(chan struct{})
				}
				return gates[gen]
			}
			setBeforeTransform(t, func(task Task) {
				started <- task.Generation
				<-gate(task.Generation)
			})

			src := newSolidRaster(4, 4, 255, 0, 0)
			r1 := replace.RuleSet{{Source: "#FF0000", Target: "#00FF00", Tolerance: 10}}
			r2 := replace.RuleSet{{Source: "#FF0000", Target: "#0000FF", Tolerance: 10}}

			g1, _ := p.Dispatch("img", src, r1)
			<-started // R1 is running
			g2, _ := p.Dispatch("img", src, r2)
			<-started // R2 is running

			if p.Current("img", g1) {
				t.Error("first generation should be superseded")
			}

			if tt.firstFinish {
				close(gate(g1))
				expectNoResult(t, p)
				close(gate(g2))
			} else {
				close(gate(g2))
				res := collect(t, p, 1)["img"]
				if res.Generation != g2 {
					t.Fatalf("got generation %d, want %d", res.Generation, g2)
				}
				close(gate(g1))
				expectNoResult(t, p)
				return
			}

			res := collect(t, p, 1)["img"]
			if res.Generation != g2 {
				t.Fatalf("got generation %d, want %d", res.Generation, g2)
			}
			if res.Raster.Pix[2] != 255 || res.Raster.Pix[1] != 0 {
				t.Errorf("visible result should reflect R2 (blue), got %v", res.Raster.Pix[:4])
			}
		})
	}
}

func TestCancel_DropsResult(t *testing.T) {
	p := New(DefaultOptions())
	defer p.Close()

	release := make(chan struct{})
	setBeforeTransform(t, func(Task) { <-release })

	gen, _ := p.Dispatch("gone", newSolidRaster(2, 2, 255, 0, 0), redToGreen)
	p.Cancel("gone")
	close(release)

	expectNoResult(t, p)
	if p.Current("gone", gen) {
		t.Error("canceled image should not be current")
	}
	if p.State("gone") != Idle {
		t.Errorf("State: got %s, want idle", p.State("gone"))
	}
}

func TestClose(t *testing.T) {
	p := New(DefaultOptions())

	block := make(chan struct{})
	setBeforeTransform(t, func(Task) { <-block })
	if _, err := p.Dispatch("a", newSolidRaster(2, 2, 0, 0, 0), nil); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		p.Close()
		close(done)
	}()
	close(block)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return")
	}

	if _, err := p.Dispatch("b", newSolidRaster(1, 1, 0, 0, 0), nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Dispatch after Close: got %v, want ErrClosed", err)
	}
	p.Close()
}

func TestState_String(t *testing.T) {
	want := map[State]string{
		Idle: "idle", Dispatched: "dispatched", Running: "running",
		Completed: "completed", Failed: "failed", State(42): "state(42)",
	}
	for s, str := range want {
		if s.String() != str {
			t.Errorf("got %s, want %s", s.String(), str)
		}
	}
}
