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

// Package renderer bridges a live stream of decoded video frames onto a
// platform drawable surface whose lifetime is controlled externally.
//
// OnFrame() delivery is thread safe and the package handles access from
// potentially three different threads: the control thread in Init, Release
// and the pause operations; the frame producer in OnFrame; and the platform
// lifecycle owner in the source ready/gone callbacks.
package renderer

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"
)

const (
	lBinds          = "binds"
	lFrame          = "frame"
	lFrameCount     = "frameCount"
	lFrameDropCount = "frameDropCount"
	lFPS            = "fps"
	lGeneration     = "generation"
	lHeight         = "height"
	lName           = "name"
	lPTS            = "pts"
	lRotation       = "rotation"
	lWidth          = "width"
)

//nolint:gochecknoglobals // allows logging from non-method funcs
var log zerolog.Logger

type notInitializedError struct {
	op string
}

func (e *notInitializedError) Error() string {
	return fmt.Sprintf("%s called on an uninitialized renderer", e.op)
}

type alreadyInitializedError struct{}

func (*alreadyInitializedError) Error() string {
	return "Init called again without an intervening Release"
}

type nilEngineFactoryError struct{}

func (*nilEngineFactoryError) Error() string {
	return "Init requires a non-nil engine factory"
}

type invalidRotationError struct {
	rotation int
}

func (e *invalidRotationError) Error() string {
	return fmt.Sprintf("invalid frame rotation %d, want one of 0, 90, 180, 270", e.rotation)
}

//nolint:gochecknoglobals // Static lookup table.
var validRotations = []int{0, 90, 180, 270}

// Renderer feeds decoded frames to a drawing Engine on a drawable Handle
// produced by a platform Source. In order to render something, you must
// first call Init().
type Renderer struct {
	config *Config

	// Set at Init() and cleared at Release(). The events reference is
	// read-only between those points, so frame and lifecycle paths read it
	// without extra ordering: Init() completes before the renderer is wired
	// to any producer or source.
	engine Engine
	events Events

	// layoutLock guards the drawable state shared between the frame
	// producer, the platform lifecycle owner and the control thread.
	layoutLock           sync.Mutex
	initialized          bool
	surface              Handle
	source               Source
	generation           string
	binds                uint64
	isRenderingPaused    bool
	isFirstFrameRendered bool
	rotatedFrameWidth    int
	rotatedFrameHeight   int
	frameRotation        int

	framesIn      atomic.Uint64
	framesDropped atomic.Uint64
}

// Stats is a point-in-time snapshot of renderer counters. A stream that
// never produces a first-frame event shows up here as FramesDropped growing
// with Binds stuck at zero.
type Stats struct { //nolint:govet // Don't care about alignment.
	FramesIn           uint64
	FramesDropped      uint64 // frames that arrived with no bound surface
	Binds              uint64
	FirstFrameRendered bool
	RotatedWidth       int
	RotatedHeight      int
	Rotation           int
	Generation         string // empty when no surface is bound
}

// New returns a new Renderer instance.
func New(config *Config, logger *zerolog.Logger) *Renderer {
	log = logger.With().Str("pkg", "renderer").Str(lName, config.Name).Logger()

	if config.LogLevel != ConfigDefault().LogLevel {
		level, err := zerolog.ParseLevel(config.LogLevel)
		if err != nil {
			panic(err.Error())
		}

		log = log.Level(level)
	}

	return &Renderer{
		config:        config,
		frameRotation: -1,
	}
}

// Init initializes the renderer, building its Engine from 'factory' with the
// given shared GPU context. It is allowed to call Init() to reinitialize the
// renderer after a previous Init()/Release() cycle, but not to call it twice
// without a Release() in between.
func (r *Renderer) Init(shared EngineContext, events Events, factory EngineFactory) error {
	if factory == nil {
		return &nilEngineFactoryError{}
	}

	r.layoutLock.Lock()
	if r.initialized {
		r.layoutLock.Unlock()

		return &alreadyInitializedError{}
	}
	r.layoutLock.Unlock()

	// The control thread is serialized with itself, so nothing can sneak in
	// between the check above and the commit below.
	engine, err := factory(shared, r.config)
	if err != nil {
		return fmt.Errorf("engine factory failed: %w", err)
	}

	r.layoutLock.Lock()
	r.engine = engine
	r.events = events
	r.initialized = true
	r.isRenderingPaused = false
	r.isFirstFrameRendered = false
	r.rotatedFrameWidth = 0
	r.rotatedFrameHeight = 0
	r.frameRotation = -1
	r.layoutLock.Unlock()

	log.Info().Msg("renderer initialized")

	return nil
}

// OnFrame delivers one decoded frame from the producer thread. If no surface
// is bound yet but a source is known, it first tries the lazy-bind path:
// size the source to the frame's rotated dimensions, obtain a handle, and
// activate the engine on it. A frame that still has no surface afterward is
// counted and skipped; that is a normal state during surface transitions.
func (r *Renderer) OnFrame(frame *Frame) error {
	if !slices.Contains(validRotations, frame.Rotation) {
		return &invalidRotationError{rotation: frame.Rotation}
	}

	r.layoutLock.Lock()
	if !r.initialized {
		r.layoutLock.Unlock()

		return &notInitializedError{op: "OnFrame"}
	}

	r.framesIn.Add(1)

	// Frames can start arriving before the source signals readiness.
	// Whichever of this path and onSourceReady() observes the unbound state
	// first performs the bind; the other finds a surface already present.
	if r.surface == nil && r.source != nil {
		// While paused, the surface may still bind but no frame-driven
		// resize reaches the source.
		if !r.isRenderingPaused {
			r.source.SetSize(frame.RotatedWidth(), frame.RotatedHeight())
		}

		if h := r.source.Handle(); h != nil {
			r.bindLocked(h)
		}
	}

	r.updateFrameDimensionsLocked(frame)

	surface := r.surface
	engine := r.engine
	r.layoutLock.Unlock()

	if surface == nil {
		r.framesDropped.Add(1)
		log.Debug().Object(lFrame, frame).Msg("no drawable surface, skipping frame")

		return nil
	}

	engine.DrawFrame(frame)

	return nil
}

// updateFrameDimensionsLocked compares the frame against the last stored
// dimensions and reports any changes to the events listener. Callers must
// hold layoutLock.
//
// The resolution-changed event intentionally carries the unrotated buffer
// dimensions while the source resize uses the rotated ones; downstream
// listeners depend on receiving the pre-rotation size.
func (r *Renderer) updateFrameDimensionsLocked(frame *Frame) {
	if r.isRenderingPaused {
		return
	}

	if !r.isFirstFrameRendered {
		r.isFirstFrameRendered = true

		log.Info().Object(lFrame, frame).Msg("first frame rendered")

		if r.events != nil {
			r.events.OnFirstFrameRendered()
		}
	}

	if r.rotatedFrameWidth != frame.RotatedWidth() ||
		r.rotatedFrameHeight != frame.RotatedHeight() ||
		r.frameRotation != frame.Rotation {
		log.Info().Object(lFrame, frame).Msg("frame resolution changed")

		if r.events != nil {
			r.events.OnFrameResolutionChanged(frame.Width, frame.Height, frame.Rotation)
		}

		r.rotatedFrameWidth = frame.RotatedWidth()
		r.rotatedFrameHeight = frame.RotatedHeight()

		if r.source != nil {
			r.source.SetSize(r.rotatedFrameWidth, r.rotatedFrameHeight)
		}

		r.frameRotation = frame.Rotation
	}
}

// SetFpsReduction limits render framerate to 'fps'. A value of 0 pauses
// rendering entirely; any other value resumes it. The request is forwarded
// to the engine when it implements FpsReducer.
func (r *Renderer) SetFpsReduction(fps float64) error {
	r.layoutLock.Lock()
	if !r.initialized {
		r.layoutLock.Unlock()

		return &notInitializedError{op: "SetFpsReduction"}
	}

	r.isRenderingPaused = fps == 0
	engine := r.engine
	r.layoutLock.Unlock()

	log.Debug().Float64(lFPS, fps).Msg("fps reduction set")

	if reducer, ok := engine.(FpsReducer); ok {
		reducer.SetFpsReduction(fps)
	}

	return nil
}

// DisableFpsReduction restores unthrottled rendering and unpauses.
func (r *Renderer) DisableFpsReduction() error {
	r.layoutLock.Lock()
	if !r.initialized {
		r.layoutLock.Unlock()

		return &notInitializedError{op: "DisableFpsReduction"}
	}

	r.isRenderingPaused = false
	engine := r.engine
	r.layoutLock.Unlock()

	if reducer, ok := engine.(FpsReducer); ok {
		reducer.DisableFpsReduction()
	}

	return nil
}

// Pause suppresses the dimension tracker's side effects. Frames are still
// forwarded to the engine, which throttles at its own discretion. Pausing
// does not tear down the bound surface.
func (r *Renderer) Pause() error {
	r.layoutLock.Lock()
	if !r.initialized {
		r.layoutLock.Unlock()

		return &notInitializedError{op: "Pause"}
	}

	r.isRenderingPaused = true
	engine := r.engine
	r.layoutLock.Unlock()

	log.Debug().Msg("rendering paused")

	if reducer, ok := engine.(FpsReducer); ok {
		reducer.SetFpsReduction(0)
	}

	return nil
}

// Release tears down any bound surface, forgets the source, and shuts the
// engine down. It is safe to call multiple times; subsequent calls are
// no-ops. After Release, only Init() may follow.
func (r *Renderer) Release() {
	r.layoutLock.Lock()
	if !r.initialized {
		r.layoutLock.Unlock()
		log.Debug().Msg("Release on a released renderer, ignoring")

		return
	}
	r.layoutLock.Unlock()

	r.UnbindSource()

	r.layoutLock.Lock()
	engine := r.engine
	r.engine = nil
	r.events = nil
	r.initialized = false
	r.layoutLock.Unlock()

	engine.Shutdown()

	log.Info().Uint64(lFrameCount, r.framesIn.Load()).
		Uint64(lFrameDropCount, r.framesDropped.Load()).
		Msg("renderer released")
}

// Stats returns a snapshot of the renderer counters.
func (r *Renderer) Stats() Stats {
	r.layoutLock.Lock()
	defer r.layoutLock.Unlock()

	return Stats{
		FramesIn:           r.framesIn.Load(),
		FramesDropped:      r.framesDropped.Load(),
		Binds:              r.binds,
		FirstFrameRendered: r.isFirstFrameRendered,
		RotatedWidth:       r.rotatedFrameWidth,
		RotatedHeight:      r.rotatedFrameHeight,
		Rotation:           r.frameRotation,
		Generation:         r.generation,
	}
}
