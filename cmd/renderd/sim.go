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

package main

import (
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/TurbineOne/surface-renderer/pkg/renderer"
)

// simHandle is an in-process stand-in for a native drawable handle.
type simHandle struct {
	id string
}

func (h *simHandle) Release() {
	log.Debug().Str("handle", h.id).Msg("handle released")
}

// simSource simulates the platform surface producer. While live, it grants
// a fresh handle to whoever asks; the cycler flips it dead and alive again
// to exercise the renderer's teardown and rebind paths.
type simSource struct {
	mu      sync.Mutex
	live    bool
	onReady func()
	onGone  func()
}

func newSimSource() *simSource {
	return &simSource{live: true}
}

func (s *simSource) Handle() renderer.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.live {
		return nil
	}

	return &simHandle{id: uuid.NewString()[:8]}
}

func (s *simSource) SetSize(width, height int) {
	log.Debug().Int("width", width).Int("height", height).Msg("surface resized")
}

func (s *simSource) RegisterCallback(onReady, onGone func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.onReady = onReady
	s.onGone = onGone
}

func (s *simSource) UnregisterCallback() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.onReady = nil
	s.onGone = nil
}

// destroy revokes the handle and notifies the renderer, like a platform
// tearing the window down.
func (s *simSource) destroy() {
	s.mu.Lock()
	s.live = false
	cb := s.onGone
	s.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// create makes the handle obtainable again and signals readiness.
func (s *simSource) create() {
	s.mu.Lock()
	s.live = true
	cb := s.onReady
	s.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// simEngine is a logging stand-in for a GPU drawing engine. Drawing and
// detachment are acknowledged from its own goroutines, the way a real
// engine's render thread would.
type simEngine struct {
	mu        sync.Mutex
	attached  renderer.Handle
	draws     uint64
	lastDraw  time.Time
	minPeriod time.Duration // 0 means unthrottled
}

func (e *simEngine) Activate(h renderer.Handle) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.attached = h
}

func (e *simEngine) Detach(onComplete func()) {
	go func() {
		e.mu.Lock()
		e.attached = nil
		e.mu.Unlock()

		onComplete()
	}()
}

func (e *simEngine) DrawFrame(frame *renderer.Frame) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.attached == nil {
		return
	}

	now := time.Now()
	if e.minPeriod > 0 && now.Sub(e.lastDraw) < e.minPeriod {
		return
	}

	e.lastDraw = now
	e.draws++

	log.Trace().Object("frame", frame).Msg("frame drawn")
}

func (e *simEngine) SetFpsReduction(fps float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if fps <= 0 {
		e.minPeriod = time.Duration(math.MaxInt64) // effectively paused

		return
	}

	e.minPeriod = time.Duration(float64(time.Second) / fps)
}

func (e *simEngine) DisableFpsReduction() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.minPeriod = 0
}

func (e *simEngine) Shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()

	log.Info().Uint64("draws", e.draws).Msg("engine shut down")
}

// logEvents logs the renderer's listener callbacks.
type logEvents struct{}

func (*logEvents) OnFirstFrameRendered() {
	log.Info().Msg("first frame rendered")
}

func (*logEvents) OnFrameResolutionChanged(width, height, rotation int) {
	log.Info().Int("width", width).Int("height", height).
		Int("rotation", rotation).Msg("frame resolution changed")
}
