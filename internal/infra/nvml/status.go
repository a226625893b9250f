//go:build linux && cgo

package nvml

import (
	"github.com/NVIDIA/go-nvml/pkg/nvml"

	"github.com/tutu-network/gpuinfo/internal/infra/nvapi"
)

// initStatus maps failures of nvmlInit and device counting. Anything
// that is not a clean answer means the mechanism is unusable.
func initStatus(ret nvml.Return) nvapi.Status {
	switch ret {
	case nvml.SUCCESS:
		return nvapi.StatusOK
	case nvml.ERROR_LIBRARY_NOT_FOUND, nvml.ERROR_FUNCTION_NOT_FOUND:
		return nvapi.StatusLibraryNotFound
	case nvml.ERROR_DRIVER_NOT_LOADED, nvml.ERROR_UNINITIALIZED, nvml.ERROR_NO_PERMISSION:
		return nvapi.StatusAPINotInitialized
	default:
		return nvapi.StatusError
	}
}

// queryStatus maps failures of per-device calls.
func queryStatus(ret nvml.Return) nvapi.Status {
	switch ret {
	case nvml.SUCCESS:
		return nvapi.StatusOK
	case nvml.ERROR_NOT_SUPPORTED:
		return nvapi.StatusNotSupported
	case nvml.ERROR_INVALID_ARGUMENT:
		return nvapi.StatusInvalidArgument
	case nvml.ERROR_GPU_IS_LOST:
		return nvapi.StatusHandleInvalidated
	case nvml.ERROR_UNINITIALIZED:
		return nvapi.StatusAPINotInitialized
	case nvml.ERROR_FUNCTION_NOT_FOUND:
		return nvapi.StatusNoImplementation
	default:
		return nvapi.StatusError
	}
}
