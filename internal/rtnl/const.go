package rtnl

import (
	"fmt"

	"github.com/vishvananda/netlink"
)

// Values from the kernel's uapi headers, spelled out so the decoder builds
// off Linux.
const (
	// HeaderLen is sizeof(struct nlmsghdr).
	HeaderLen = 16
	// LinkHeaderLen is sizeof(struct ifinfomsg).
	LinkHeaderLen = 16
	// AttrHeaderLen is sizeof(struct rtattr).
	AttrHeaderLen = 4

	// GroupLink is RTMGRP_LINK, the multicast group for link changes.
	GroupLink = 1
)

// MessageType is nlmsg_type.
type MessageType uint16

const (
	TypeNoop    MessageType = 1  // NLMSG_NOOP
	TypeError   MessageType = 2  // NLMSG_ERROR
	TypeNewLink MessageType = 16 // RTM_NEWLINK
	TypeDelLink MessageType = 17 // RTM_DELLINK
)

func (t MessageType) String() string {
	switch t {
	case TypeNoop:
		return "NOOP"
	case TypeError:
		return "ERROR"
	case TypeNewLink:
		return "NEWLINK"
	case TypeDelLink:
		return "DELLINK"
	default:
		return fmt.Sprintf("TYPE(%d)", uint16(t))
	}
}

// AttrType is rta_type within a link message.
type AttrType uint16

const (
	AttrIfName    AttrType = 3  // IFLA_IFNAME
	AttrOperState AttrType = 16 // IFLA_OPERSTATE
)

// OperState is the kernel's RFC 2863 operational state of a link. Only
// OperUp means the interface is usable.
type OperState uint8

const (
	OperUnknown        OperState = 0
	OperNotPresent     OperState = 1
	OperDown           OperState = 2
	OperLowerLayerDown OperState = 3
	OperTesting        OperState = 4
	OperDormant        OperState = 5
	OperUp             OperState = 6
)

func (o OperState) String() string {
	return netlink.LinkOperState(o).String()
}
