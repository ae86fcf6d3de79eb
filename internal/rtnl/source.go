package rtnl

// FrameSource delivers raw datagrams from the kernel's link group.
type FrameSource interface {
	// Receive blocks for the next datagram. The returned slice is only
	// valid until the following call.
	Receive() ([]byte, error)

	// Close releases the socket and unblocks a pending Receive.
	Close() error
}
