//go:build !linux || !cgo

package registry

import "github.com/tutu-network/gpuinfo/internal/infra/nvapi"

const nvmlAvailable = false

func openNVML(libraryPath string) nvapi.Driver {
	return nvapi.Open(libraryPath)
}
