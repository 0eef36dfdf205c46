// Package mcast opens IPv4 multicast UDP sockets for receiving and sending
// RTP media.
package mcast

import (
	"context"
	"net"
	"strconv"

	"github.com/pkg/errors"
	"golang.org/x/net/ipv4"

	"github.com/lanikai/aes67bridge/internal/logging"
)

var log = logging.DefaultLogger.WithTag("mcast")

type Config struct {
	// Multicast group address, e.g. 239.168.227.217.
	Group net.IP

	// UDP port of the stream.
	Port int

	// Local address of the interface on which to join the group. If nil, the
	// system picks the interface.
	Interface net.IP

	// Requested SO_RCVBUF size in bytes; zero leaves the system default. The
	// kernel may clamp or refuse it.
	ReadBufferSize int

	// Sender only: multicast TTL and whether to loop sent datagrams back to
	// local listeners.
	TTL      int
	Loopback bool
}

func (c Config) groupAddr() *net.UDPAddr {
	return &net.UDPAddr{IP: c.Group, Port: c.Port}
}

// Listen opens a UDP socket bound to the configured port and joins the
// multicast group on the configured interface. Failing to bind or join is an
// error; failing to size the receive buffer or disable loopback is not.
func Listen(cfg Config) (*net.UDPConn, error) {
	if cfg.Group.To4() == nil || !cfg.Group.IsMulticast() {
		return nil, errors.Errorf("mcast: %v is not an IPv4 multicast group", cfg.Group)
	}

	ifi, err := InterfaceByIP(cfg.Interface)
	if err != nil {
		return nil, err
	}

	lc := net.ListenConfig{Control: receiveControl(cfg.ReadBufferSize)}
	port := strconv.Itoa(cfg.Port)
	pc, err := lc.ListenPacket(context.Background(), "udp4", net.JoinHostPort("", port))
	if err != nil {
		// Some stacks only allow binding the group address itself.
		log.Debug("bind to port %d failed (%v), binding group address", cfg.Port, err)
		pc, err = lc.ListenPacket(context.Background(), "udp4", cfg.groupAddr().String())
		if err != nil {
			return nil, errors.Wrapf(err, "mcast: bind %s", cfg.groupAddr())
		}
	}
	conn := pc.(*net.UDPConn)

	p := ipv4.NewPacketConn(conn)
	if err := p.JoinGroup(ifi, cfg.groupAddr()); err != nil {
		conn.Close()
		return nil, errors.Wrapf(err, "mcast: join %s via %s", cfg.Group, describe(ifi))
	}
	if ifi != nil {
		if err := p.SetMulticastInterface(ifi); err != nil {
			conn.Close()
			return nil, errors.Wrapf(err, "mcast: select interface %s", ifi.Name)
		}
	}
	if err := p.SetMulticastLoopback(false); err != nil {
		log.Debug("cannot disable multicast loopback: %v", err)
	}

	log.Info("joined %s via %s", cfg.groupAddr(), describe(ifi))
	return conn, nil
}

// Dial opens a UDP socket connected to the multicast group, for sending.
func Dial(cfg Config) (*net.UDPConn, error) {
	if cfg.Group.To4() == nil || !cfg.Group.IsMulticast() {
		return nil, errors.Errorf("mcast: %v is not an IPv4 multicast group", cfg.Group)
	}

	ifi, err := InterfaceByIP(cfg.Interface)
	if err != nil {
		return nil, err
	}

	var laddr *net.UDPAddr
	if cfg.Interface != nil {
		laddr = &net.UDPAddr{IP: cfg.Interface}
	}
	conn, err := net.DialUDP("udp4", laddr, cfg.groupAddr())
	if err != nil {
		return nil, errors.Wrapf(err, "mcast: dial %s", cfg.groupAddr())
	}

	p := ipv4.NewPacketConn(conn)
	if ifi != nil {
		if err := p.SetMulticastInterface(ifi); err != nil {
			conn.Close()
			return nil, errors.Wrapf(err, "mcast: select interface %s", ifi.Name)
		}
	}
	if cfg.TTL > 0 {
		if err := p.SetMulticastTTL(cfg.TTL); err != nil {
			conn.Close()
			return nil, errors.Wrapf(err, "mcast: set TTL %d", cfg.TTL)
		}
	}
	if err := p.SetMulticastLoopback(cfg.Loopback); err != nil {
		log.Debug("cannot set multicast loopback=%v: %v", cfg.Loopback, err)
	}
	return conn, nil
}

// InterfaceByIP finds the network interface that owns ip. A nil or
// unspecified ip yields a nil interface, meaning "system default".
func InterfaceByIP(ip net.IP) (*net.Interface, error) {
	if ip == nil || ip.IsUnspecified() {
		return nil, nil
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, errors.Wrap(err, "mcast: list interfaces")
	}
	for i := range ifaces {
		addrs, err := ifaces[i].Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && ipnet.IP.Equal(ip) {
				return &ifaces[i], nil
			}
		}
	}
	return nil, errors.Errorf("mcast: no interface with address %s", ip)
}

func describe(ifi *net.Interface) string {
	if ifi == nil {
		return "default interface"
	}
	return ifi.Name
}
