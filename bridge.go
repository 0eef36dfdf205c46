//////////////////////////////////////////////////////////////////////////////
//
// Bridge an AES67 multicast stream to HTTP clients.
//
// A Bridge owns three kinds of goroutine: the RTP receive loop, the fan-out
// pump, and one HTTP handler per connected client. They are connected only by
// bounded drop-oldest queues, so a slow client cannot stall the others or the
// network receive path.
//
// Copyright 2019 Lanikai Labs LLC. All rights reserved.
//
//////////////////////////////////////////////////////////////////////////////

package aes67bridge

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/hashicorp/mdns"
	"github.com/pkg/errors"

	"github.com/lanikai/aes67bridge/internal/logging"
	"github.com/lanikai/aes67bridge/internal/mcast"
	"github.com/lanikai/aes67bridge/internal/media"
)

var log = logging.DefaultLogger.WithTag("bridge")

// Time allowed for in-flight HTTP handlers to finish during Stop.
const shutdownTimeout = 2 * time.Second

type Bridge struct {
	cfg Config

	// Random identifier of this process's stream, reported to clients.
	instance string

	// Opens the RTP socket. Replaced in tests.
	listen func(mcast.Config) (net.PacketConn, error)

	receiver *media.Receiver
	fanout   *media.FanOut
	server   *http.Server
	listener net.Listener
	upgrader websocket.Upgrader
	mdns     *mdns.Server

	// Closed when the receive loop exits; runErr is its result.
	done   chan struct{}
	runErr error

	mu       sync.Mutex
	started  bool
	stopOnce sync.Once
}

// New validates cfg and returns an idle Bridge.
func New(cfg Config) (*Bridge, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Bridge{
		cfg:      cfg,
		instance: uuid.New().String(),
		listen: func(mc mcast.Config) (net.PacketConn, error) {
			return mcast.Listen(mc)
		},
		upgrader: websocket.Upgrader{
			WriteBufferSize: 4096,
			// The stream is public; browsers on any origin may play it.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		done: make(chan struct{}),
	}, nil
}

// Start joins the multicast group, starts the receive loop and fan-out pump,
// and begins serving HTTP. Failing to bind either socket or to join the group
// is returned as an error and leaves nothing running. Cancelling ctx stops
// the receive loop, which ends the stream for every client.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started {
		return errAlreadyStarted
	}

	conn, err := b.listen(mcast.Config{
		Group:          b.cfg.Group,
		Port:           b.cfg.Port,
		Interface:      b.cfg.Interface,
		ReadBufferSize: b.cfg.ReadBufferSize,
	})
	if err != nil {
		return errors.Wrap(err, "open receiver")
	}

	listener, err := net.Listen("tcp", b.cfg.ListenAddr)
	if err != nil {
		conn.Close()
		return errors.Wrapf(err, "listen on %s", b.cfg.ListenAddr)
	}

	b.receiver = media.NewReceiver(conn, media.ReceiverOptions{
		PayloadType:   uint8(b.cfg.PayloadType),
		QueueCapacity: b.cfg.ReceiveQueue,
	})
	b.fanout = media.NewFanOut(b.receiver.Queue(), b.cfg.ClientQueue)
	b.listener = listener
	b.server = &http.Server{
		Handler:           b.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	b.started = true

	go func() {
		defer close(b.done)
		b.runErr = b.receiver.Run(ctx)
		if b.runErr != nil {
			log.Error("receive loop ended: %v", b.runErr)
		}
	}()
	b.fanout.Start(ctx)

	go func() {
		if err := b.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("http server: %v", err)
		}
	}()

	if b.cfg.MDNS {
		if b.mdns, err = b.advertise(); err != nil {
			log.Warn("mDNS advertisement disabled: %v", err)
		}
	}

	log.Info("serving PCM16LE @ %d Hz stereo on http://%s%s", media.SampleRate, listener.Addr(), b.cfg.Path)
	return nil
}

// Addr returns the HTTP listen address, or nil before Start.
func (b *Bridge) Addr() net.Addr {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.listener == nil {
		return nil
	}
	return b.listener.Addr()
}

// Wait blocks until the receive loop exits, and returns its error. The loop
// exits on Stop, on cancellation of the Start context, or on a socket error.
func (b *Bridge) Wait() error {
	b.mu.Lock()
	started := b.started
	b.mu.Unlock()

	if !started {
		return errNotStarted
	}
	<-b.done
	return b.runErr
}

// Stop shuts down the receiver, the fan-out, the HTTP server and the mDNS
// advertisement, in that order. It is safe to call more than once.
func (b *Bridge) Stop() {
	b.mu.Lock()
	started := b.started
	b.mu.Unlock()

	if !started {
		return
	}

	b.stopOnce.Do(func() {
		b.receiver.Stop()
		b.fanout.Stop()

		// Closed client queues end every streaming handler.
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := b.server.Shutdown(ctx); err != nil {
			log.Warn("http shutdown: %v", err)
			b.server.Close()
		}

		if b.mdns != nil {
			b.mdns.Shutdown()
		}
		log.Info("stopped")
	})
}

// Status is the health report served at /healthz.
type Status struct {
	OK         bool   `json:"ok"`
	Clients    int    `json:"clients"`
	Instance   string `json:"instance"`
	Received   uint64 `json:"received"`
	Discarded  uint64 `json:"discarded"`
	Dropped    uint64 `json:"dropped"`
	Broadcasts uint64 `json:"broadcasts"`
}

func (b *Bridge) Status() Status {
	b.mu.Lock()
	started := b.started
	b.mu.Unlock()

	s := Status{Instance: b.instance}
	if !started {
		return s
	}

	rs := b.receiver.Stats()
	fs := b.fanout.Stats()
	select {
	case <-b.done:
	default:
		s.OK = true
	}
	s.Clients = len(fs.Clients)
	s.Received = rs.Received
	s.Discarded = rs.Discarded
	s.Dropped = rs.Dropped
	s.Broadcasts = fs.Broadcasts
	return s
}
