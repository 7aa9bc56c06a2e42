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

// Package interrupt bridges process termination signals to the caller so a
// main() can tie them to context cancellation.
package interrupt

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SignalError reports which signal ended the Run call.
type SignalError struct {
	Signal os.Signal
}

func (e *SignalError) Error() string {
	return "received signal: " + e.Signal.String()
}

// Run blocks until SIGINT or SIGTERM is delivered, or ctx is canceled.
// It returns a SignalError in the former case and the ctx error otherwise.
func Run(ctx context.Context) error {
	sigC := make(chan os.Signal, 1)
	signal.Notify(sigC, os.Interrupt, syscall.SIGTERM)

	defer signal.Stop(sigC)

	select {
	case sig := <-sigC:
		return &SignalError{Signal: sig}
	case <-ctx.Done():
		return ctx.Err()
	}
}
