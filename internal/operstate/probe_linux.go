//go:build linux

package operstate

import (
	"fmt"

	"github.com/prometheus/procfs/sysfs"
	log "github.com/sirupsen/logrus"
)

// Probe reads /sys/class/net/<name>/operstate.
type Probe struct {
	fs sysfs.FS
}

// NewProbe opens the sysfs tree mounted at mount.
func NewProbe(mount string) (*Probe, error) {
	fs, err := sysfs.NewFS(mount)
	if err != nil {
		return nil, fmt.Errorf("failed to open sysfs at %s: %w", mount, err)
	}
	return &Probe{fs: fs}, nil
}

// OperState returns the kernel's operstate string for name.
func (p *Probe) OperState(name string) (string, error) {
	iface, err := p.fs.NetClassByIface(name)
	if err != nil {
		return "", fmt.Errorf("failed to read net class of %s: %w", name, err)
	}
	return iface.OperState, nil
}

// Report probes name; an unreadable interface is reported down.
func (p *Probe) Report(name string) Report {
	state, err := p.OperState(name)
	if err != nil {
		log.WithFields(log.Fields{
			"interface": name,
		}).WithError(err).Warn("Could not read interface operstate")
		return Report{Interface: name, OperState: "unknown"}
	}
	return Report{Interface: name, OperState: state, Up: IsUp(state)}
}

// InterfaceUp reports whether name is operationally up.
func (p *Probe) InterfaceUp(name string) bool {
	return p.Report(name).Up
}
