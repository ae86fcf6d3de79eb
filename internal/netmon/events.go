package netmon

// LinkEvent is a reported interface transition.
type LinkEvent struct {
	InterfaceName string `json:"interface"`
	Up            bool   `json:"up"`
}

// State renders the direction for logs and metric labels.
func (e LinkEvent) State() string {
	if e.Up {
		return "up"
	}
	return "down"
}

// UpdateSink receives every emitted transition. Implementations must not
// block; the watcher calls it from its receive loop.
type UpdateSink interface {
	OnInterfaceUpdate(name string, up bool)
}

// SinkFunc adapts a function to UpdateSink.
type SinkFunc func(name string, up bool)

func (f SinkFunc) OnInterfaceUpdate(name string, up bool) { f(name, up) }
