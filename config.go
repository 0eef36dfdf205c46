//////////////////////////////////////////////////////////////////////////////
//
// Config contains configuration data for a Bridge
//
// Copyright 2019 Lanikai Labs. All rights reserved.
//
//////////////////////////////////////////////////////////////////////////////

package aes67bridge

import (
	"net"
	"strings"

	"github.com/pkg/errors"

	"github.com/lanikai/aes67bridge/internal/media"
)

type Config struct {
	// Multicast group and UDP port of the AES67 stream.
	Group net.IP
	Port  int

	// Local address of the interface that joins the group. Nil lets the
	// system choose.
	Interface net.IP

	// RTP payload type of the L24/48000/2 stream, from its SDP.
	PayloadType int

	// Requested socket receive buffer, in bytes.
	ReadBufferSize int

	// Chunks buffered between the receive loop and the fan-out pump.
	ReceiveQueue int

	// HTTP listen address, host:port.
	ListenAddr string

	// HTTP path of the raw PCM stream. The websocket variant, if enabled, is
	// served at Path + "/ws".
	Path string

	// Chunks buffered per client. Lower means lower latency and more drops.
	ClientQueue int

	WebSocket bool

	// Advertise the stream via mDNS, under the given instance name.
	MDNS bool
	Name string
}

func DefaultConfig() Config {
	return Config{
		Group:          net.IPv4(239, 168, 227, 217),
		Port:           5004,
		PayloadType:    media.DefaultPayloadType,
		ReadBufferSize: 256 * 1024,
		ReceiveQueue:   media.DefaultQueueCapacity,
		ListenAddr:     "0.0.0.0:53354",
		Path:           "/audio",
		ClientQueue:    media.DefaultClientQueueCapacity,
		WebSocket:      true,
		Name:           "aes67bridge",
	}
}

func (c *Config) Validate() error {
	if c.Group.To4() == nil || !c.Group.IsMulticast() {
		return errors.Errorf("invalid multicast group %v", c.Group)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return errors.Errorf("invalid UDP port %d", c.Port)
	}
	if c.Interface != nil && c.Interface.To4() == nil {
		return errors.Errorf("invalid interface address %v", c.Interface)
	}
	if c.PayloadType < 0 || c.PayloadType > 127 {
		return errors.Errorf("payload type %d out of range 0-127", c.PayloadType)
	}
	if c.ReceiveQueue < 1 {
		return errors.Errorf("receive queue must hold at least one chunk, got %d", c.ReceiveQueue)
	}
	if c.ClientQueue < 1 {
		return errors.Errorf("client queue must hold at least one chunk, got %d", c.ClientQueue)
	}
	if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
		return errors.Wrapf(err, "invalid listen address %q", c.ListenAddr)
	}
	if !strings.HasPrefix(c.Path, "/") || strings.HasSuffix(c.Path, "/") ||
		strings.ContainsAny(c.Path, "{} ") || c.Path == healthPath {
		return errors.Errorf("invalid stream path %q", c.Path)
	}
	if c.MDNS && c.Name == "" {
		return errors.New("mDNS advertisement needs an instance name")
	}
	return nil
}
