//go:build !linux || baremetal

package hw

import "github.com/opencnc/stepcore/machine"

// NewGPIOOutput is unavailable without a kernel GPIO interface.
func NewGPIOOutput(profile *machine.Profile) (*ClockedOutput, error) {
	return nil, ErrUnsupported
}
