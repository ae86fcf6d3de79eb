//go:build !linux

package operstate

import "errors"

var errUnsupported = errors.New("sysfs operstate is only available on linux")

type Probe struct{}

func NewProbe(mount string) (*Probe, error) {
	return nil, errUnsupported
}

func (p *Probe) OperState(name string) (string, error) {
	return "", errUnsupported
}

func (p *Probe) Report(name string) Report {
	return Report{Interface: name, OperState: "unknown"}
}

func (p *Probe) InterfaceUp(name string) bool {
	return false
}
