package rtnl

import (
	"fmt"
	"iter"

	"github.com/josharian/native"
)

var nativeEndian = native.Endian

// Header is struct nlmsghdr.
type Header struct {
	Len   uint32
	Type  MessageType
	Flags uint16
	Seq   uint32
	Pid   uint32
}

func parseHeader(b []byte) Header {
	return Header{
		Len:   nativeEndian.Uint32(b[0:4]),
		Type:  MessageType(nativeEndian.Uint16(b[4:6])),
		Flags: nativeEndian.Uint16(b[6:8]),
		Seq:   nativeEndian.Uint32(b[8:12]),
		Pid:   nativeEndian.Uint32(b[12:16]),
	}
}

// Message is one netlink message sliced out of a datagram. Payload aliases
// the datagram buffer.
type Message struct {
	Header  Header
	Payload []byte
}

// nextMessage splits the first message off buf. It reports ErrMalformed
// when the remaining bytes cannot hold the message they announce.
func nextMessage(buf []byte) (Message, []byte, error) {
	if len(buf) < HeaderLen {
		return Message{}, nil, fmt.Errorf("%w: %d trailing bytes, short of a header", ErrMalformed, len(buf))
	}
	h := parseHeader(buf)
	if h.Len < HeaderLen || uint64(h.Len) > uint64(len(buf)) {
		return Message{}, nil, fmt.Errorf("%w: message length %d with %d bytes remaining", ErrMalformed, h.Len, len(buf))
	}
	return Message{Header: h, Payload: buf[HeaderLen:h.Len]}, buf[h.Len:], nil
}

// Messages iterates over every message packed into a datagram, in order. The
// walk ends quietly at the first frame whose length does not fit.
func Messages(buf []byte) iter.Seq[Message] {
	return func(yield func(Message) bool) {
		for len(buf) > 0 {
			m, rest, err := nextMessage(buf)
			if err != nil || !yield(m) {
				return
			}
			buf = rest
		}
	}
}

// LinkUpdate is a decoded RTM_NEWLINK or RTM_DELLINK.
type LinkUpdate struct {
	Header Header
	Link   LinkInfo
}

// Deleted reports whether the kernel removed the link.
func (u LinkUpdate) Deleted() bool {
	return u.Header.Type == TypeDelLink
}

// Updates decodes the link messages in a datagram.
//
// NOOP and unrecognised message types yield nothing. An NLMSG_ERROR yields
// a *ProtocolError and ends the walk. A link payload that cannot be decoded
// yields an ErrMalformed error and the walk moves on to the next message; a
// frame whose length overruns the datagram yields ErrMalformed and ends it.
func Updates(buf []byte) iter.Seq2[LinkUpdate, error] {
	return func(yield func(LinkUpdate, error) bool) {
		for len(buf) > 0 {
			m, rest, err := nextMessage(buf)
			if err != nil {
				yield(LinkUpdate{}, err)
				return
			}
			buf = rest

			switch m.Header.Type {
			case TypeNoop:
				continue
			case TypeError:
				yield(LinkUpdate{Header: m.Header}, newProtocolError(m))
				return
			case TypeNewLink, TypeDelLink:
				link, err := DecodeLink(m.Payload)
				if !yield(LinkUpdate{Header: m.Header, Link: link}, err) {
					return
				}
			}
		}
	}
}
