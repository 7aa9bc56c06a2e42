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

// renderd soaks the surface renderer: a synthetic producer pushes frames at
// media rate while a scripted lifecycle owner destroys and recreates the
// simulated surface underneath it. It exits on SIGINT/SIGTERM.
package main

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/TurbineOne/surface-renderer/pkg/interrupt"
	"github.com/TurbineOne/surface-renderer/pkg/renderer"
)

var log zerolog.Logger //nolint:gochecknoglobals // Don't care.

//nolint:gochecknoglobals // Static lookup table.
var feedRotations = []int{0, 90, 180, 270}

// produceFrames pushes synthetic frames at the configured rate, advancing
// the feed rotation every soak.RotateEvery frames.
func produceFrames(ctx context.Context, r *renderer.Renderer, soak *soakConfig) {
	interval := time.Second / time.Duration(soak.FPS)
	ticker := time.NewTicker(interval)

	defer ticker.Stop()

	data := make([]byte, soak.Width*soak.Height*4)
	start := time.Now()
	count := 0

	for {
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}

		rotation := 0
		if soak.RotateEvery > 0 {
			rotation = feedRotations[(count/soak.RotateEvery)%len(feedRotations)]
		}

		frame := &renderer.Frame{
			Data:     data,
			Width:    soak.Width,
			Height:   soak.Height,
			Rotation: rotation,
			PTS:      time.Since(start),
		}

		if err := r.OnFrame(frame); err != nil {
			log.Warn().Err(err).Msg("frame rejected")

			return
		}

		count++
	}
}

// cycleSurface periodically destroys and recreates the simulated surface,
// the way a host window being hidden and shown again would.
func cycleSurface(ctx context.Context, source *simSource, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}

		log.Info().Msg("cycling surface")
		source.destroy()

		// A brief gap with no surface; frames arriving now get skipped.
		select {
		case <-time.After(period / 4):
		case <-ctx.Done():
			return
		}

		source.create()
	}
}

func main() {
	initConfig() // May early exit if config init fails.

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		err := interrupt.Run(ctx)
		log.Info().Err(err).Msg("shutting down")

		cancel()
	}()

	r := renderer.New(&currentConfig.Renderer, &log)

	factory := func(_ renderer.EngineContext, _ *renderer.Config) (renderer.Engine, error) {
		return &simEngine{}, nil
	}

	if err := r.Init(nil, &logEvents{}, factory); err != nil {
		log.Error().Err(err).Msg("failed to initialize renderer")

		return
	}

	source := newSimSource()
	if err := r.BindSource(source); err != nil {
		log.Error().Err(err).Msg("failed to bind source")

		return
	}

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()

		produceFrames(ctx, r, &currentConfig.Soak)
	}()

	if currentConfig.Soak.SurfaceCycle > 0 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			cycleSurface(ctx, source, currentConfig.Soak.SurfaceCycle)
		}()
	}

	wg.Wait()

	r.Release()

	log.Info().Interface("stats", r.Stats()).Msg("soak finished")
}
