// Package operstate reads an interface's operational state from sysfs,
// independently of the netlink event stream.
package operstate

import "github.com/vishvananda/netlink"

// Report is the probe's answer for one interface.
type Report struct {
	Interface string `json:"interface"`
	OperState string `json:"operstate"`
	Up        bool   `json:"up"`
}

// IsUp reports whether a sysfs operstate string means the link is usable.
// sysfs spells states the way netlink.LinkOperState prints them; anything
// other than up, including "unknown", counts as down.
func IsUp(state string) bool {
	return state == netlink.LinkOperState(netlink.OperUp).String()
}
