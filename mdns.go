package aes67bridge

import (
	"fmt"
	"net"

	"github.com/hashicorp/mdns"
	"github.com/pkg/errors"

	"github.com/lanikai/aes67bridge/internal/media"
)

// DNS-SD service type under which streams are advertised.
const mdnsService = "_aes67bridge._tcp"

// mdnsTXT describes the stream to browsing clients.
func (b *Bridge) mdnsTXT() []string {
	txt := []string{
		"path=" + b.cfg.Path,
		fmt.Sprintf("format=s16le/%d/%d", media.SampleRate, media.Channels),
		"id=" + b.instance,
	}
	if b.cfg.WebSocket {
		txt = append(txt, "ws="+b.cfg.Path+"/ws")
	}
	return txt
}

// advertise announces the HTTP stream via multicast DNS.
func (b *Bridge) advertise() (*mdns.Server, error) {
	tcpAddr, ok := b.listener.Addr().(*net.TCPAddr)
	if !ok {
		return nil, errors.Errorf("unexpected listener address %v", b.listener.Addr())
	}

	// Without an explicit interface the library resolves the hostname.
	var ips []net.IP
	if b.cfg.Interface != nil && !b.cfg.Interface.IsUnspecified() {
		ips = []net.IP{b.cfg.Interface}
	} else if !tcpAddr.IP.IsUnspecified() {
		ips = []net.IP{tcpAddr.IP}
	}

	service, err := mdns.NewMDNSService(b.cfg.Name, mdnsService, "", "", tcpAddr.Port, ips, b.mdnsTXT())
	if err != nil {
		return nil, errors.Wrap(err, "mdns service")
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, errors.Wrap(err, "mdns server")
	}

	log.Info("advertising %s.%s.local on port %d", b.cfg.Name, mdnsService, tcpAddr.Port)
	return server, nil
}
