//go:build linux

package rtnl

import (
	"os"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"
)

// receiveBufferSize fits the largest datagram the kernel hands a listener
// without MSG_PEEK sizing.
const receiveBufferSize = 64 * 1024

// Socket is a NETLINK_ROUTE socket subscribed to RTMGRP_LINK.
type Socket struct {
	f   *os.File
	rc  syscall.RawConn
	buf []byte

	closeOnce sync.Once
	closeErr  error
}

var _ FrameSource = (*Socket)(nil)

// Open creates the socket and binds it to this process and the link group.
// The descriptor is non-blocking and registered with the runtime poller so
// that Close wakes a goroutine parked in Receive.
func Open() (*Socket, error) {
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_RAW|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.NETLINK_ROUTE)
	if err != nil {
		return nil, &SocketError{Op: "socket", Err: err}
	}

	sa := &unix.SockaddrNetlink{
		Family: unix.AF_NETLINK,
		Pid:    uint32(os.Getpid()),
		Groups: GroupLink,
	}
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return nil, &SocketError{Op: "bind", Err: err}
	}

	f := os.NewFile(uintptr(fd), "netlink-route")
	rc, err := f.SyscallConn()
	if err != nil {
		_ = f.Close()
		return nil, &SocketError{Op: "syscallconn", Err: err}
	}

	return &Socket{
		f:   f,
		rc:  rc,
		buf: make([]byte, receiveBufferSize),
	}, nil
}

// Receive returns one datagram. ENOBUFS (the kernel dropped multicast
// messages for us) is reported like any other failure.
func (s *Socket) Receive() ([]byte, error) {
	var (
		n    int
		rerr error
	)
	err := s.rc.Read(func(fd uintptr) bool {
		n, rerr = recvfrom(int(fd), s.buf)
		return rerr != unix.EAGAIN
	})
	if err == nil {
		err = rerr
	}
	if err != nil {
		return nil, &SocketError{Op: "recvfrom", Err: err}
	}
	return s.buf[:n], nil
}

var recvfromFunc = unix.Recvfrom

// recvfrom reads one datagram, retrying calls interrupted by a signal.
func recvfrom(fd int, buf []byte) (int, error) {
	for {
		n, _, err := recvfromFunc(fd, buf, 0)
		if err != unix.EINTR {
			return n, err
		}
	}
}

func (s *Socket) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.f.Close()
	})
	return s.closeErr
}
