// Package main is the entrypoint for gpuinfo, a read-only NVIDIA GPU
// query tool.
package main

import "github.com/tutu-network/gpuinfo/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
