//go:build linux && cgo

package registry

import (
	"github.com/tutu-network/gpuinfo/internal/infra/nvapi"
	"github.com/tutu-network/gpuinfo/internal/infra/nvml"
)

const nvmlAvailable = true

func openNVML(libraryPath string) nvapi.Driver {
	return nvml.Open(libraryPath)
}
