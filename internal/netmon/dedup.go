package netmon

import (
	"github.com/dmdmdm-nz/ifwatchd/internal/rtnl"
)

// Decision says what the tracker did with a link update.
type Decision int

const (
	// Emit means the returned event must be delivered.
	Emit Decision = iota
	// Duplicate is an up announcement with unchanged flags.
	Duplicate
	// Unkeyed is a link message without IFLA_IFNAME.
	Unkeyed
)

func (d Decision) String() string {
	switch d {
	case Emit:
		return "emit"
	case Duplicate:
		return "duplicate"
	case Unkeyed:
		return "unkeyed"
	}
	return "unknown"
}

// DedupTracker remembers the flags of every interface last reported up so a
// repeated announcement is not reported twice. A down report is never
// suppressed. It is owned by a single watcher goroutine and holds no locks.
type DedupTracker struct {
	last map[string]uint32
}

func NewDedupTracker() *DedupTracker {
	return &DedupTracker{last: make(map[string]uint32)}
}

// Apply folds one link update into the state.
func (d *DedupTracker) Apply(u rtnl.LinkUpdate) (LinkEvent, Decision) {
	name := u.Link.Name
	if name == "" {
		return LinkEvent{}, Unkeyed
	}

	if u.Deleted() || !u.Link.IsUp() {
		delete(d.last, name)
		return LinkEvent{InterfaceName: name, Up: false}, Emit
	}

	if flags, ok := d.last[name]; ok && flags == u.Link.Flags {
		return LinkEvent{InterfaceName: name, Up: true}, Duplicate
	}
	d.last[name] = u.Link.Flags
	return LinkEvent{InterfaceName: name, Up: true}, Emit
}

// Flags returns the flags stored for name, if it is tracked.
func (d *DedupTracker) Flags(name string) (uint32, bool) {
	f, ok := d.last[name]
	return f, ok
}

func (d *DedupTracker) Len() int { return len(d.last) }
