// Package nvml serves the nvapi.Driver surface from NVIDIA's management
// library (libnvidia-ml.so) through go-nvml. It is the Linux counterpart
// of the Windows NvAPI binding and needs cgo; other builds get no driver
// from this package.
//
// NVML has no notion of system or shared-system video memory and
// reports a single GPU-die temperature, so those are the only sensor and
// memory pools it fills in.
package nvml
