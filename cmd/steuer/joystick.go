//go:build !nosdl

package main

import (
	"github.com/thornpw/steuer/internal/cli"
	"github.com/thornpw/steuer/internal/gamepad/joystick"
	"github.com/thornpw/steuer/internal/logger"
)

// joysticks reads SDL3 joysticks. The SDL3 library is loaded at startup,
// build with -tags nosdl for a store-only binary.
var joysticks cli.OpenJoysticks = func(log *logger.Logger) cli.Joysticks {
	return joystick.NewReader(log)
}
