package nvapi

import "fmt"

// Status mirrors NvAPI_Status. Zero is success; every failure is negative.
type Status int32

const (
	StatusOK                        Status = 0
	StatusError                     Status = -1
	StatusLibraryNotFound           Status = -2
	StatusNoImplementation          Status = -3
	StatusAPINotInitialized         Status = -4
	StatusInvalidArgument           Status = -5
	StatusNvidiaDeviceNotFound      Status = -6
	StatusEndEnumeration            Status = -7
	StatusInvalidHandle             Status = -8
	StatusIncompatibleStructVersion Status = -9
	StatusHandleInvalidated         Status = -10
	StatusOpenGLContextNotCurrent   Status = -11
	StatusInvalidPointer            Status = -14
	StatusExpectedLogicalGPUHandle  Status = -100
	StatusExpectedPhysicalGPUHandle Status = -101
	StatusExpectedDisplayHandle     Status = -102
	StatusInvalidCombination        Status = -103
	StatusNotSupported              Status = -104
)

var statusNames = map[Status]string{
	StatusOK:                        "NVAPI_OK",
	StatusError:                     "NVAPI_ERROR",
	StatusLibraryNotFound:           "NVAPI_LIBRARY_NOT_FOUND",
	StatusNoImplementation:          "NVAPI_NO_IMPLEMENTATION",
	StatusAPINotInitialized:         "NVAPI_API_NOT_INITIALIZED",
	StatusInvalidArgument:           "NVAPI_INVALID_ARGUMENT",
	StatusNvidiaDeviceNotFound:      "NVAPI_NVIDIA_DEVICE_NOT_FOUND",
	StatusEndEnumeration:            "NVAPI_END_ENUMERATION",
	StatusInvalidHandle:             "NVAPI_INVALID_HANDLE",
	StatusIncompatibleStructVersion: "NVAPI_INCOMPATIBLE_STRUCT_VERSION",
	StatusHandleInvalidated:         "NVAPI_HANDLE_INVALIDATED",
	StatusOpenGLContextNotCurrent:   "NVAPI_OPENGL_CONTEXT_NOT_CURRENT",
	StatusInvalidPointer:            "NVAPI_INVALID_POINTER",
	StatusExpectedLogicalGPUHandle:  "NVAPI_EXPECTED_LOGICAL_GPU_HANDLE",
	StatusExpectedPhysicalGPUHandle: "NVAPI_EXPECTED_PHYSICAL_GPU_HANDLE",
	StatusExpectedDisplayHandle:     "NVAPI_EXPECTED_DISPLAY_HANDLE",
	StatusInvalidCombination:        "NVAPI_INVALID_COMBINATION",
	StatusNotSupported:              "NVAPI_NOT_SUPPORTED",
}

// String returns the NvAPI constant name, or the numeric code if unknown.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("NVAPI_STATUS(%d)", int32(s))
}

// Error lets a failing Status travel as an error.
func (s Status) Error() string { return s.String() }

// Code returns the raw vendor code.
func (s Status) Code() int32 { return int32(s) }

// OK reports success.
func (s Status) OK() bool { return s == StatusOK }

// NoDevices reports statuses that mean enumeration ran and found nothing.
// NvAPI answers an empty machine with NVIDIA_DEVICE_NOT_FOUND rather than
// OK with a zero count.
func (s Status) NoDevices() bool {
	return s == StatusNvidiaDeviceNotFound || s == StatusEndEnumeration
}
