package rtnl

import (
	"bytes"
	"fmt"
	"iter"
)

// LinkInfo is struct ifinfomsg plus the attributes the watcher reads.
type LinkInfo struct {
	Family uint8
	Type   uint16
	Index  int32
	Flags  uint32
	Change uint32

	// Name is IFLA_IFNAME without its NUL terminator, empty when the
	// message carried no name.
	Name string

	OperState    OperState
	HasOperState bool
}

// IsUp reports whether the link carried IFLA_OPERSTATE == IF_OPER_UP.
func (l LinkInfo) IsUp() bool {
	return l.HasOperState && l.OperState == OperUp
}

// Attribute is one struct rtattr and its value.
type Attribute struct {
	Len   uint16
	Type  AttrType
	Value []byte
}

func align4(n int) int {
	return (n + 3) &^ 3
}

// Attributes walks an rtattr stream. It stops at a header declaring fewer
// than AttrHeaderLen bytes (RTA_OK) or at an attribute that would run past
// the end of b.
func Attributes(b []byte) iter.Seq[Attribute] {
	return func(yield func(Attribute) bool) {
		for len(b) >= AttrHeaderLen {
			l := int(nativeEndian.Uint16(b[0:2]))
			if l < AttrHeaderLen || l > len(b) {
				return
			}
			a := Attribute{
				Len:   uint16(l),
				Type:  AttrType(nativeEndian.Uint16(b[2:4])),
				Value: b[AttrHeaderLen:l],
			}
			if !yield(a) {
				return
			}
			b = b[min(align4(l), len(b)):]
		}
	}
}

// DecodeLink parses the payload of a NEWLINK or DELLINK message.
func DecodeLink(payload []byte) (LinkInfo, error) {
	if len(payload) < LinkHeaderLen {
		return LinkInfo{}, fmt.Errorf("%w: link payload of %d bytes", ErrMalformed, len(payload))
	}

	l := LinkInfo{
		Family: payload[0],
		Type:   nativeEndian.Uint16(payload[2:4]),
		Index:  int32(nativeEndian.Uint32(payload[4:8])),
		Flags:  nativeEndian.Uint32(payload[8:12]),
		Change: nativeEndian.Uint32(payload[12:16]),
	}

	for a := range Attributes(payload[LinkHeaderLen:]) {
		switch a.Type {
		case AttrIfName:
			l.Name = string(bytes.TrimRight(a.Value, "\x00"))
		case AttrOperState:
			if len(a.Value) > 0 {
				l.OperState = OperState(a.Value[0])
				l.HasOperState = true
			}
		}
	}
	return l, nil
}
