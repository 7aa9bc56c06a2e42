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

import "github.com/google/uuid"

// newGeneration returns the id tagging one creation-to-destruction cycle of
// a drawable handle.
func newGeneration() string {
	return uuid.NewString()
}

// BindSource makes 'src' the renderer's drawable source and registers for
// its lifecycle notifications. Call it from the control thread when the
// platform hands out a new source; it may be called again after a prior
// UnbindSource on a re-init cycle.
func (r *Renderer) BindSource(src Source) error {
	r.layoutLock.Lock()
	if !r.initialized {
		r.layoutLock.Unlock()

		return &notInitializedError{op: "BindSource"}
	}

	r.source = src
	r.layoutLock.Unlock()

	// The callbacks may start firing before this returns. Both take
	// layoutLock and re-check state, so an early fire is harmless.
	src.RegisterCallback(r.onSourceReady, r.SurfaceDestroyed)

	log.Info().Msg("source bound")

	return nil
}

// UnbindSource forces teardown of any bound surface and forgets the source.
func (r *Renderer) UnbindSource() {
	r.SurfaceDestroyed()

	r.layoutLock.Lock()
	r.source = nil
	r.layoutLock.Unlock()
}

// bindLocked hands the surface to the engine and starts a new handle
// generation. Callers must hold layoutLock and have checked that no surface
// is currently bound. Engine.Activate must not re-enter the renderer; see
// the Engine contract.
func (r *Renderer) bindLocked(h Handle) {
	r.surface = h
	r.generation = newGeneration()
	r.binds++

	r.engine.Activate(h)

	log.Info().Str(lGeneration, r.generation).Uint64(lBinds, r.binds).
		Msg("surface bound")
}

// onSourceReady is the callback-path bind. The platform may deliver it on
// any thread, including concurrently with OnFrame; the lock guarantees that
// exactly one of the two paths binds a given handle generation.
func (r *Renderer) onSourceReady() {
	r.layoutLock.Lock()
	defer r.layoutLock.Unlock()

	if r.surface != nil || r.source == nil {
		return
	}

	h := r.source.Handle()
	if h == nil {
		// Not obtainable this cycle. The next frame or callback retries.
		log.Debug().Msg("source ready but no handle obtainable")

		return
	}

	r.bindLocked(h)

	// A late-binding surface picks up the last known video size rather than
	// starting at a platform default.
	if r.rotatedFrameWidth > 0 && r.rotatedFrameHeight > 0 {
		r.source.SetSize(r.rotatedFrameWidth, r.rotatedFrameHeight)
	}
}

// SurfaceDestroyed tears down the bound surface, blocking the calling thread
// until the engine has finished detaching. Releasing the native handle while
// the engine still holds a draw context on it is undefined behavior at the
// platform level, so the wait is mandatory and not interruptible.
//
// It is invoked by the source's gone-callback and by UnbindSource, and is a
// no-op when nothing is bound.
func (r *Renderer) SurfaceDestroyed() {
	r.layoutLock.Lock()
	engine := r.engine
	r.layoutLock.Unlock()

	if engine != nil {
		detached := make(chan struct{})
		engine.Detach(func() { close(detached) })
		<-detached
	}

	r.layoutLock.Lock()
	if r.surface != nil {
		log.Info().Str(lGeneration, r.generation).Msg("surface released")

		r.surface.Release()
		r.surface = nil
		r.generation = ""
	}
	source := r.source
	r.layoutLock.Unlock()

	// Unhook the lifecycle callbacks so a destroyed source can't notify us
	// again. A later BindSource re-registers.
	if source != nil {
		source.UnregisterCallback()
	}
}
