// Frontline Perception System
// Copyright (C) 2020-2025 TurbineOne LLC
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package renderer

import (
	"sync"
	"testing"
	"time"
)

// blockingEngine holds detach completions until the test releases them,
// simulating an engine render thread that is still mid-draw.
type blockingEngine struct {
	testEngine

	mu      sync.Mutex
	pending []func()
}

func (e *blockingEngine) Detach(onComplete func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.pending = append(e.pending, onComplete)
}

func (e *blockingEngine) completeDetach(t *testing.T) {
	t.Helper()

	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.pending) == 0 {
		t.Fatal("no pending detach to complete")
	}

	e.pending[0]()
	e.pending = e.pending[1:]
}

// TestLazyBindSizesSourceToFrame verifies the producer-path bind: the source
// is sized to the frame's rotated dimensions before the handle is obtained,
// and the engine is activated exactly once.
func TestLazyBindSizesSourceToFrame(t *testing.T) {
	engine := &testEngine{}
	r, _ := newTestRenderer(t, engine)

	source := &testSource{handle: &testHandle{}}
	if err := r.BindSource(source); err != nil {
		t.Fatalf("BindSource failed: %v", err)
	}

	if err := r.OnFrame(testFrame(1280, 720, 90)); err != nil {
		t.Fatalf("OnFrame failed: %v", err)
	}

	sizes := source.sizeCalls()
	if len(sizes) == 0 || sizes[0] != [2]int{720, 1280} {
		t.Errorf("expected first resize to rotated 720x1280, got %v", sizes)
	}

	if got := engine.activations.Load(); got != 1 {
		t.Errorf("expected 1 activation, got %d", got)
	}

	if got := engine.draws.Load(); got != 1 {
		t.Errorf("expected 1 draw, got %d", got)
	}

	// A second frame must not bind again.
	if err := r.OnFrame(testFrame(1280, 720, 90)); err != nil {
		t.Fatalf("OnFrame failed: %v", err)
	}

	if got := engine.activations.Load(); got != 1 {
		t.Errorf("expected still 1 activation, got %d", got)
	}
}

// TestCallbackBindAdoptsKnownSize verifies the callback-path bind: when the
// surface shows up after frames have been flowing, it is immediately resized
// to the last known video dimensions.
func TestCallbackBindAdoptsKnownSize(t *testing.T) {
	engine := &testEngine{}
	r, _ := newTestRenderer(t, engine)

	source := &testSource{} // handle not obtainable yet
	if err := r.BindSource(source); err != nil {
		t.Fatalf("BindSource failed: %v", err)
	}

	if err := r.OnFrame(testFrame(640, 480, 0)); err != nil {
		t.Fatalf("OnFrame failed: %v", err)
	}

	if got := engine.activations.Load(); got != 0 {
		t.Fatalf("unexpected activation with no handle: %d", got)
	}

	source.setHandle(&testHandle{})
	source.fireReady()

	if got := engine.activations.Load(); got != 1 {
		t.Fatalf("expected 1 activation after ready callback, got %d", got)
	}

	sizes := source.sizeCalls()
	if len(sizes) == 0 || sizes[len(sizes)-1] != [2]int{640, 480} {
		t.Errorf("late-binding surface not sized to known dimensions: %v", sizes)
	}
}

// TestReadyCallbackWithoutHandle verifies a ready signal with no obtainable
// handle is a quiet no-op that gets retried by later paths.
func TestReadyCallbackWithoutHandle(t *testing.T) {
	engine := &testEngine{}
	r, _ := newTestRenderer(t, engine)

	source := &testSource{}
	if err := r.BindSource(source); err != nil {
		t.Fatalf("BindSource failed: %v", err)
	}

	source.fireReady()

	if got := engine.activations.Load(); got != 0 {
		t.Fatalf("unexpected activation: %d", got)
	}

	// The retry succeeds once the platform grants the handle.
	source.setHandle(&testHandle{})
	source.fireReady()

	if got := engine.activations.Load(); got != 1 {
		t.Fatalf("expected 1 activation on retry, got %d", got)
	}
}

// TestConcurrentBindSingleActivation races the producer path against the
// ready callback and asserts exactly one bind per handle generation.
func TestConcurrentBindSingleActivation(t *testing.T) {
	const attempts = 200

	for i := 0; i < attempts; i++ {
		engine := &testEngine{}
		r, _ := newTestRenderer(t, engine)

		source := &testSource{handle: &testHandle{}}
		if err := r.BindSource(source); err != nil {
			t.Fatalf("BindSource failed: %v", err)
		}

		var wg sync.WaitGroup

		wg.Add(2)

		go func() {
			defer wg.Done()

			_ = r.OnFrame(testFrame(640, 480, 0))
		}()

		go func() {
			defer wg.Done()

			source.fireReady()
		}()

		wg.Wait()

		if got := engine.activations.Load(); got != 1 {
			t.Fatalf("attempt %d: expected 1 activation, got %d", i, got)
		}
	}
}

// TestSurfaceDestroyedBlocksUntilDetach verifies the teardown barrier: the
// caller stays blocked until the engine confirms detachment, and only then
// is the native handle released.
func TestSurfaceDestroyedBlocksUntilDetach(t *testing.T) {
	engine := &blockingEngine{}
	r, _ := newTestRenderer(t, engine)

	handle := &testHandle{}
	source := &testSource{handle: handle}

	if err := r.BindSource(source); err != nil {
		t.Fatalf("BindSource failed: %v", err)
	}

	if err := r.OnFrame(testFrame(640, 480, 0)); err != nil {
		t.Fatalf("OnFrame failed: %v", err)
	}

	done := make(chan struct{})

	go func() {
		r.SurfaceDestroyed()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("SurfaceDestroyed returned before detach completed")
	case <-time.After(50 * time.Millisecond):
		// Still blocked, as required.
	}

	if handle.released.Load() {
		t.Fatal("handle released while engine still attached")
	}

	engine.completeDetach(t)

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("SurfaceDestroyed did not return after detach completion")
	}

	if !handle.released.Load() {
		t.Error("handle not released after detach completion")
	}

	if !source.isUnregistered() {
		t.Error("source callbacks not unregistered after teardown")
	}
}

// TestGoneCallbackTearsDown verifies the platform's gone signal drives the
// same teardown as an explicit SurfaceDestroyed call.
func TestGoneCallbackTearsDown(t *testing.T) {
	engine := &testEngine{}
	r, _ := newTestRenderer(t, engine)

	handle := &testHandle{}
	source := &testSource{handle: handle}

	if err := r.BindSource(source); err != nil {
		t.Fatalf("BindSource failed: %v", err)
	}

	if err := r.OnFrame(testFrame(640, 480, 0)); err != nil {
		t.Fatalf("OnFrame failed: %v", err)
	}

	source.fireGone()

	if !handle.released.Load() {
		t.Error("handle not released by gone callback")
	}

	if !source.isUnregistered() {
		t.Error("source callbacks not unregistered by gone callback")
	}
}

// TestUnbindSourceStopsBinding verifies no rebinding happens once the source
// reference is cleared.
func TestUnbindSourceStopsBinding(t *testing.T) {
	engine := &testEngine{}
	r, _ := newTestRenderer(t, engine)

	source := &testSource{handle: &testHandle{}}
	if err := r.BindSource(source); err != nil {
		t.Fatalf("BindSource failed: %v", err)
	}

	if err := r.OnFrame(testFrame(640, 480, 0)); err != nil {
		t.Fatalf("OnFrame failed: %v", err)
	}

	r.UnbindSource()

	if err := r.OnFrame(testFrame(640, 480, 0)); err != nil {
		t.Fatalf("OnFrame failed: %v", err)
	}

	if got := engine.activations.Load(); got != 1 {
		t.Errorf("expected no rebind after UnbindSource, got %d activations", got)
	}

	stats := r.Stats()
	if stats.FramesDropped != 1 {
		t.Errorf("expected the post-unbind frame to be counted dropped: %+v", stats)
	}
}

// TestRepeatedTeardownIsNoop verifies destroy-after-destroy is harmless.
func TestRepeatedTeardownIsNoop(t *testing.T) {
	engine := &testEngine{}
	r, _ := newTestRenderer(t, engine)

	source := &testSource{handle: &testHandle{}}
	if err := r.BindSource(source); err != nil {
		t.Fatalf("BindSource failed: %v", err)
	}

	if err := r.OnFrame(testFrame(640, 480, 0)); err != nil {
		t.Fatalf("OnFrame failed: %v", err)
	}

	r.SurfaceDestroyed()
	r.SurfaceDestroyed()
	r.UnbindSource()
}
