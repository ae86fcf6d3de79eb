package api

import (
	"github.com/dmdmdm-nz/ifwatchd/internal/netmon"
	"github.com/dmdmdm-nz/ifwatchd/internal/operstate"
)

// InterfaceInfo answers GET /interfaces/{name}. Up is the watcher's view;
// Probe is what sysfs reports right now.
type InterfaceInfo struct {
	Name  string            `json:"name"`
	Up    bool              `json:"up"`
	Probe *operstate.Report `json:"probe,omitempty"`
}

type StatusResponse struct {
	Version   string        `json:"version"`
	Commit    string        `json:"commit"`
	BuildTime string        `json:"buildTime"`
	Watcher   netmon.Status `json:"watcher"`
}

// WebSocketEvent is one message on /ws/events.
type WebSocketEvent struct {
	Session   string `json:"session"`
	Interface string `json:"interface"`
	Up        bool   `json:"up"`
	State     string `json:"state"`
}
