package ocr

import (
	"os"
	"os/exec"
	"runtime"
)

// Device selects the hardware the neural model runs on.
type Device string

const (
	// DeviceAuto probes the host and picks the best available device.
	DeviceAuto Device = "auto"
	// DeviceCPU runs inference on the CPU.
	DeviceCPU Device = "cpu"
	// DeviceCUDA runs inference on an NVIDIA GPU via the CUDA execution
	// provider.
	DeviceCUDA Device = "cuda"
	// DeviceMPS runs inference on Apple silicon via the CoreML execution
	// provider.
	DeviceMPS Device = "mps"
)

// ParseDevice parses a device flag value. Unrecognized values fall back to
// DeviceCPU; ok reports whether the input was a known device name.
func ParseDevice(s string) (d Device, ok bool) {
	switch Device(s) {
	case DeviceAuto, DeviceCPU, DeviceCUDA, DeviceMPS:
		return Device(s), true
	}
	return DeviceCPU, false
}

// Resolve maps DeviceAuto to a concrete device by probing the host, and
// downgrades devices the host cannot serve. The probe order matches the
// usual preference: CUDA, then Apple silicon, then CPU.
func (d Device) Resolve() Device {
	switch d {
	case DeviceAuto:
		if cudaAvailable() {
			return DeviceCUDA
		}
		if mpsAvailable() {
			return DeviceMPS
		}
		return DeviceCPU
	case DeviceCUDA:
		if !cudaAvailable() {
			return DeviceCPU
		}
	case DeviceMPS:
		if !mpsAvailable() {
			return DeviceCPU
		}
	}
	if d == "" {
		return DeviceCPU
	}
	return d
}

// cudaAvailable reports whether an NVIDIA driver is visible on the host.
func cudaAvailable() bool {
	if _, err := os.Stat("/proc/driver/nvidia/version"); err == nil {
		return true
	}
	_, err := exec.LookPath("nvidia-smi")
	return err == nil
}

// mpsAvailable reports whether the host is Apple silicon.
func mpsAvailable() bool {
	return runtime.GOOS == "darwin" && runtime.GOARCH == "arm64"
}
