package rtp

import (
	"fmt"

	errors "golang.org/x/xerrors"
)

const (
	// RFC 3550 defines RTP version 2.
	rtpVersion = 2
)

type errBadVersion byte

func (e errBadVersion) Error() string {
	return fmt.Sprintf("invalid RTP version: %d", byte(e))
}

// errTruncated is wrapped by every error for a datagram shorter than its
// declared header.
var errTruncated = errors.New("rtp: truncated packet")

// IsMalformed reports whether err came from Parse rejecting a datagram. These
// are expected on a shared multicast group and are not worth surfacing.
func IsMalformed(err error) bool {
	var bv errBadVersion
	return errors.Is(err, errTruncated) || errors.As(err, &bv)
}
