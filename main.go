package main

import (
	"github.com/sketchmesh/sketchmesh/cmd"
	"github.com/sketchmesh/sketchmesh/internal/logging"
)

func main() {
	// Initialize logging
	logging.Init()
	cmd.Execute()
}
