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

// Config configures a Renderer instance.
type Config struct { //nolint:govet // Don't care about alignment.
	Name     string `yaml:"name" json:"name" doc:"Instance name included in every log line"`
	LogLevel string `yaml:"logLevel" json:"logLevel" doc:"Log level override for this package. One of: trace, debug, info, warn, error. Empty inherits the parent logger's level."`
}

// ConfigDefault returns the default values for a Config.
func ConfigDefault() Config {
	return Config{
		Name:     "renderer",
		LogLevel: "",
	}
}
