//go:build !linux

package rtnl

// Socket is unavailable off Linux.
type Socket struct{}

var _ FrameSource = (*Socket)(nil)

func Open() (*Socket, error) {
	return nil, ErrUnsupported
}

func (s *Socket) Receive() ([]byte, error) {
	return nil, &SocketError{Op: "recvfrom", Err: ErrUnsupported}
}

func (s *Socket) Close() error {
	return nil
}
