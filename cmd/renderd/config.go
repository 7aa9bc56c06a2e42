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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/TurbineOne/surface-renderer/pkg/config"
	"github.com/TurbineOne/surface-renderer/pkg/logger"
	"github.com/TurbineOne/surface-renderer/pkg/renderer"
)

const (
	configFileName = "config.yaml"
)

//nolint:gochecknoglobals // Needed for makefile injection.
var (
	// Version is provided by the makefile.
	Version = "v0"
	// Revision is a git tag provided by the makefile.
	Revision = "0"
	// Created is a date provided by the makefile.
	Created = "0000-00-00"
)

// soakConfig drives the synthetic frame producer and the scripted surface
// lifecycle that renderd runs against the renderer.
type soakConfig struct { //nolint:govet // Don't care about alignment.
	Width        int           `yaml:"width" json:"width" doc:"Synthetic feed buffer width"`
	Height       int           `yaml:"height" json:"height" doc:"Synthetic feed buffer height"`
	FPS          int           `yaml:"fps" json:"fps" doc:"Synthetic feed frame rate"`
	RotateEvery  int           `yaml:"rotateEvery" json:"rotateEvery" doc:"Advance the feed rotation every N frames. 0 disables."`
	SurfaceCycle time.Duration `yaml:"surfaceCycle" json:"surfaceCycle" doc:"Destroy and recreate the simulated surface this often. 0 disables."`
}

// soakConfigDefault returns the default values for a soakConfig.
func soakConfigDefault() soakConfig {
	return soakConfig{
		Width:        1280,
		Height:       720,
		FPS:          30,
		RotateEvery:  150,
		SurfaceCycle: 7 * time.Second,
	}
}

// mainConfig is the master config for the executable.
type mainConfig struct { //nolint:govet // Don't care about alignment.
	Renderer renderer.Config `yaml:"renderer"`
	Soak     soakConfig      `yaml:"soak"`
	Logger   logger.Config   `yaml:"logger"`
}

var currentConfig = mainConfig{ //nolint:gochecknoglobals  // Static config
	Renderer: renderer.ConfigDefault(),
	Soak:     soakConfigDefault(),
	Logger:   logger.ConfigDefault(),
}

// initConfig initializes the config by calling config.Init() and handling
// the results. May exit the program if there is an error.
func initConfig() {
	err := config.Init(configFileName, "", &currentConfig)
	if err != nil {
		// A missing config file is not fatal. Anything else is.
		ncError := &config.NoConfigError{}
		if !errors.As(err, &ncError) {
			fmt.Println(err.Error()) //nolint:forbidigo // OK to print here.
			os.Exit(-1)
		}
	}

	log = logger.New(&currentConfig.Logger)

	binName := filepath.Base(os.Args[0])
	log.Info().Msg(fmt.Sprintf("%s %s rev:%s created:%s", binName, Version, Revision, Created))
	log.Info().Interface("config", &currentConfig).Msg("effective config")

	// If there was no config file, we log it here.
	if err != nil {
		log.Info().Msg(err.Error())
	}
}
