//go:build linux

package rtnl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"
)

func stubRecvfrom(t *testing.T, errs ...error) *int {
	t.Helper()
	calls := 0
	orig := recvfromFunc
	recvfromFunc = func(fd int, p []byte, flags int) (int, unix.Sockaddr, error) {
		calls++
		if len(errs) > 0 {
			err := errs[0]
			errs = errs[1:]
			return -1, nil, err
		}
		return copy(p, "frame"), nil, nil
	}
	t.Cleanup(func() { recvfromFunc = orig })
	return &calls
}

func TestRecvfrom_RetriesInterrupted(t *testing.T) {
	calls := stubRecvfrom(t, unix.EINTR, unix.EINTR)
	buf := make([]byte, 16)

	n, err := recvfrom(3, buf)
	assert.NoError(t, err)
	assert.Equal(t, "frame", string(buf[:n]))
	assert.Equal(t, 3, *calls)
}

func TestRecvfrom_OtherErrorsReturned(t *testing.T) {
	for _, want := range []error{unix.EAGAIN, unix.ENOBUFS} {
		calls := stubRecvfrom(t, want)

		_, err := recvfrom(3, make([]byte, 16))
		assert.Equal(t, want, err)
		assert.Equal(t, 1, *calls)
	}
}
