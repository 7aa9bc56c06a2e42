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

// Handle is a native, GPU-attachable rendering target obtained from the
// platform. At most one live Handle exists at a time per Renderer.
type Handle interface {
	// Release frees the underlying native resource. The Renderer only calls
	// this after the Engine has confirmed detachment from the handle.
	Release()
}

// Source is the platform-side owner capable of producing and resizing a
// Handle and of signaling its lifecycle. The Renderer references a Source
// but never owns it.
type Source interface {
	// Handle returns the current drawable handle, or nil if none is
	// obtainable this cycle. A nil return is a normal state, not an error.
	Handle() Handle

	// SetSize asks the platform to size the drawable. Width and height are
	// post-rotation display dimensions.
	SetSize(width, height int)

	// RegisterCallback installs the lifecycle callbacks. onReady fires when
	// a handle becomes obtainable, onGone when the platform is about to
	// destroy it. Either may fire on any thread.
	RegisterCallback(onReady, onGone func())

	// UnregisterCallback removes previously registered callbacks so no
	// further notifications are delivered.
	UnregisterCallback()
}

// Engine is the drawing collaborator that owns the GPU context and performs
// the actual per-frame drawing, typically on its own render thread.
//
// Activate, Detach and DrawFrame may be called with the Renderer's internal
// lock held, so they must not call back into the Renderer synchronously.
// Posting work to the engine's render thread satisfies this.
type Engine interface {
	// Activate attaches the engine's rendering context to the handle.
	Activate(h Handle)

	// Detach releases the engine's rendering context on the current handle,
	// if any, and invokes onComplete once no further drawing can touch it.
	// onComplete must fire exactly once, even if nothing was attached.
	Detach(onComplete func())

	// DrawFrame renders one frame on the currently attached handle.
	DrawFrame(frame *Frame)

	// Shutdown releases all engine resources. No calls follow it.
	Shutdown()
}

// FpsReducer is optionally implemented by an Engine that can throttle its
// own frame throughput. The Renderer forwards throttle requests when the
// engine supports it.
type FpsReducer interface {
	// SetFpsReduction limits drawing to fps frames per second. A value of 0
	// stops drawing entirely.
	SetFpsReduction(fps float64)

	// DisableFpsReduction restores unthrottled drawing.
	DisableFpsReduction()
}

// EngineContext is an opaque GPU context (e.g., a shared EGL context) passed
// through Init to the EngineFactory untouched.
type EngineContext any

// EngineFactory builds the Engine during Init. The factory receives the
// shared context and the renderer config.
type EngineFactory func(shared EngineContext, config *Config) (Engine, error)

// Events receives renderer notifications. The reference is installed at
// Init() and read without locking afterward; Init() completes before the
// renderer is exposed to any producer or lifecycle thread.
//
// Callbacks are invoked with the renderer's internal lock held and must not
// call back into the Renderer.
type Events interface {
	// OnFirstFrameRendered fires once per Init cycle, on the first frame
	// observed while not paused.
	OnFirstFrameRendered()

	// OnFrameResolutionChanged reports the unrotated buffer dimensions and
	// the rotation in degrees. Callers needing the rotated footprint must
	// apply the rotation themselves.
	OnFrameResolutionChanged(width, height, rotation int)
}
