package netmon

import (
	"io"
	"os"
	"sync"

	"github.com/dmdmdm-nz/ifwatchd/internal/rtnl"
)

// errDrained ends a scripted source once its frames run out.
var errDrained = &rtnl.SocketError{Op: "recvfrom", Err: io.EOF}

// fakeSource replays datagrams. With drain set it fails with errDrained
// after the last frame, otherwise it blocks until closed.
type fakeSource struct {
	frames chan []byte
	errs   chan error
	closed chan struct{}
	drain  bool
	once   sync.Once
}

func newFakeSource(drain bool, frames ...[]byte) *fakeSource {
	f := &fakeSource{
		frames: make(chan []byte, len(frames)+16),
		errs:   make(chan error, 1),
		closed: make(chan struct{}),
		drain:  drain,
	}
	for _, b := range frames {
		f.frames <- b
	}
	return f
}

func (f *fakeSource) push(b []byte) { f.frames <- b }

func (f *fakeSource) fail(err error) { f.errs <- err }

func (f *fakeSource) Receive() ([]byte, error) {
	select {
	case <-f.closed:
		return nil, &rtnl.SocketError{Op: "recvfrom", Err: os.ErrClosed}
	default:
	}

	if f.drain {
		select {
		case b := <-f.frames:
			return b, nil
		default:
			return nil, errDrained
		}
	}

	select {
	case b := <-f.frames:
		return b, nil
	case err := <-f.errs:
		return nil, err
	case <-f.closed:
		return nil, &rtnl.SocketError{Op: "recvfrom", Err: os.ErrClosed}
	}
}

func (f *fakeSource) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeSource) isClosed() bool {
	select {
	case <-f.closed:
		return true
	default:
		return false
	}
}

type recorder struct {
	mu     sync.Mutex
	events []LinkEvent
}

func (r *recorder) OnInterfaceUpdate(name string, up bool) {
	r.mu.Lock()
	r.events = append(r.events, LinkEvent{InterfaceName: name, Up: up})
	r.mu.Unlock()
}

func (r *recorder) snapshot() []LinkEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]LinkEvent(nil), r.events...)
}
