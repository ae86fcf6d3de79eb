// Package rtnltest builds netlink datagrams for tests.
package rtnltest

import (
	"bytes"
	"syscall"

	"github.com/josharian/native"

	"github.com/dmdmdm-nz/ifwatchd/internal/rtnl"
)

// Attr encodes one rtattr padded to a 4-byte boundary.
func Attr(typ rtnl.AttrType, val []byte) []byte {
	l := rtnl.AttrHeaderLen + len(val)
	b := make([]byte, (l+3)&^3)
	native.Endian.PutUint16(b[0:2], uint16(l))
	native.Endian.PutUint16(b[2:4], uint16(typ))
	copy(b[rtnl.AttrHeaderLen:], val)
	return b
}

// IfName encodes IFLA_IFNAME with its NUL terminator.
func IfName(name string) []byte {
	return Attr(rtnl.AttrIfName, append([]byte(name), 0))
}

// OperState encodes IFLA_OPERSTATE.
func OperState(o rtnl.OperState) []byte {
	return Attr(rtnl.AttrOperState, []byte{byte(o)})
}

// Link encodes an ifinfomsg followed by attrs.
func Link(index int32, flags uint32, attrs ...[]byte) []byte {
	b := make([]byte, rtnl.LinkHeaderLen)
	b[0] = syscall.AF_UNSPEC
	native.Endian.PutUint16(b[2:4], 1) // ARPHRD_ETHER
	native.Endian.PutUint32(b[4:8], uint32(index))
	native.Endian.PutUint32(b[8:12], flags)
	native.Endian.PutUint32(b[12:16], 0xffffffff)
	for _, a := range attrs {
		b = append(b, a...)
	}
	return b
}

// Message prepends an nlmsghdr to payload.
func Message(typ rtnl.MessageType, seq uint32, payload []byte) []byte {
	b := make([]byte, rtnl.HeaderLen, rtnl.HeaderLen+len(payload))
	native.Endian.PutUint32(b[0:4], uint32(rtnl.HeaderLen+len(payload)))
	native.Endian.PutUint16(b[4:6], uint16(typ))
	native.Endian.PutUint32(b[8:12], seq)
	return append(b, payload...)
}

// NewLink is a complete RTM_NEWLINK message.
func NewLink(seq uint32, index int32, flags uint32, attrs ...[]byte) []byte {
	return Message(rtnl.TypeNewLink, seq, Link(index, flags, attrs...))
}

// DelLink is a complete RTM_DELLINK message.
func DelLink(seq uint32, index int32, flags uint32, attrs ...[]byte) []byte {
	return Message(rtnl.TypeDelLink, seq, Link(index, flags, attrs...))
}

// Error is a complete NLMSG_ERROR message carrying errno.
func Error(seq uint32, errno syscall.Errno) []byte {
	payload := make([]byte, 4+rtnl.HeaderLen)
	native.Endian.PutUint32(payload[0:4], uint32(-int32(errno)))
	return Message(rtnl.TypeError, seq, payload)
}

// Datagram concatenates messages the way the kernel coalesces them.
func Datagram(msgs ...[]byte) []byte {
	return bytes.Join(msgs, nil)
}
