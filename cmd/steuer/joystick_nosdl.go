//go:build nosdl

package main

import "github.com/thornpw/steuer/internal/cli"

// Without SDL only the mappings commands work; run fails with
// cli.ErrNoJoysticks.
var joysticks cli.OpenJoysticks
