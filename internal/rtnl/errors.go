package rtnl

import (
	"errors"
	"fmt"
	"syscall"
)

var (
	// ErrSocket matches every receive-side failure of a FrameSource.
	ErrSocket = errors.New("netlink socket error")

	// ErrProtocol matches a kernel NLMSG_ERROR delivered on the link group.
	ErrProtocol = errors.New("netlink protocol error")

	// ErrMalformed matches frames and link payloads that cannot be decoded.
	// Such units are skipped, never escalated.
	ErrMalformed = errors.New("malformed netlink frame")

	// ErrUnsupported is returned by Open on platforms without NETLINK_ROUTE.
	ErrUnsupported = errors.New("netlink route sockets are not supported on this platform")
)

// SocketError reports a failed socket operation.
type SocketError struct {
	Op  string
	Err error
}

func (e *SocketError) Error() string {
	return fmt.Sprintf("netlink %s: %v", e.Op, e.Err)
}

func (e *SocketError) Unwrap() []error {
	return []error{ErrSocket, e.Err}
}

// ProtocolError is an NLMSG_ERROR received from the kernel. Sequence numbers
// after one are not trusted, so the watcher stops.
type ProtocolError struct {
	Header Header
	// Errno is the negated nlmsgerr.error, zero when the payload was too
	// short to carry one.
	Errno syscall.Errno
}

func newProtocolError(m Message) *ProtocolError {
	pe := &ProtocolError{Header: m.Header}
	if len(m.Payload) >= 4 {
		if code := int32(nativeEndian.Uint32(m.Payload[:4])); code < 0 {
			pe.Errno = syscall.Errno(-code)
		}
	}
	return pe
}

func (e *ProtocolError) Error() string {
	if e.Errno != 0 {
		return fmt.Sprintf("netlink error message (seq %d, pid %d): %v", e.Header.Seq, e.Header.Pid, e.Errno)
	}
	return fmt.Sprintf("netlink error message (seq %d, pid %d)", e.Header.Seq, e.Header.Pid)
}

func (e *ProtocolError) Is(target error) bool {
	return target == ErrProtocol
}
