//go:build linux

package touch

import (
	"fmt"
	"image"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

const evIOCGrab = 1074021776

// evIOCGAbs returns the EVIOCGABS request number for an absolute axis.
func evIOCGAbs(abs uintptr) uintptr {
	return 2149074240 + abs
}

type inputAbsInfo struct {
	Value, Minimum, Maximum, Fuzz, Flat, Resolution int32
}

// Device is an opened Linux touchscreen event device.
type Device struct {
	file *os.File
	X, Y AbsRange
}

// OpenDevice opens an evdev node such as /dev/input/event3 and queries its
// multi-touch axis ranges. When grab is set the device is grabbed so other
// consumers stop receiving its events.
func OpenDevice(path string, grab bool) (*Device, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open touch device: %w", err)
	}

	x, err := absInfo(f, absMtPositionX)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to query x axis: %w", err)
	}
	y, err := absInfo(f, absMtPositionY)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to query y axis: %w", err)
	}

	if grab {
		if err := unix.IoctlSetInt(int(f.Fd()), evIOCGrab, 1); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to grab touch device: %w", err)
		}
	}

	return &Device{
		file: f,
		X:    AbsRange{Min: x.Minimum, Max: x.Maximum},
		Y:    AbsRange{Min: y.Minimum, Max: y.Maximum},
	}, nil
}

// Decoder returns a Decoder mapping the device onto bounds.
func (d *Device) Decoder(bounds image.Rectangle) *Decoder {
	return NewDecoder(d.file, d.X, d.Y, bounds)
}

// Close releases the device.
func (d *Device) Close() error {
	return d.file.Close()
}

func absInfo(f *os.File, abs uintptr) (inputAbsInfo, error) {
	var info inputAbsInfo
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), evIOCGAbs(abs), uintptr(unsafe.Pointer(&info)))
	if errno != 0 {
		return info, os.NewSyscallError("SYS_IOCTL", errno)
	}
	return info, nil
}
