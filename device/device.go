package device

import (
	"fmt"

	"github.com/notargets/gocca"
)

// Backends tried by CreateDevice, most parallel first
var Backends = []string{
	`{"mode": "OpenMP"}`,
	`{"mode": "CUDA", "device_id": 0}`,
	`{"mode": "Serial"}`,
}

// CreateDevice opens the first backend in Backends that is available
func CreateDevice() (*gocca.OCCADevice, error) {
	var lastErr error
	for _, props := range Backends {
		device, err := gocca.NewDevice(props)
		if err == nil {
			return device, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("no OCCA backend available: %w", lastErr)
}
