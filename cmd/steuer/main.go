package main

import (
	"os"

	"github.com/thornpw/steuer/internal/cli"
)

var Version = "dev"

func main() {
	if err := cli.NewRootCmd(Version, joysticks).Execute(); err != nil {
		os.Exit(1)
	}
}
