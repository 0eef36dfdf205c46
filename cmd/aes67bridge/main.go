package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"

	"github.com/lanikai/aes67bridge"
	"github.com/lanikai/aes67bridge/internal/logging"
)

// Populated via -ldflags="-X ...".
var GitRevisionId string

var log = logging.DefaultLogger.WithTag("main")

func main() {
	flag.Parse()

	if flagHelp {
		help()
		os.Exit(0)
	}
	if flagVersion {
		version()
		os.Exit(0)
	}

	cfg, err := configFromFlags()
	if err != nil {
		log.Fatalf("%v (see --help)", err)
	}

	bridge, err := aes67bridge.New(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bridge.Start(ctx); err != nil {
		log.Fatalf("startup failed: %v", err)
	}

	// Returns on signal (nil) or when the socket fails.
	err = bridge.Wait()
	if ctx.Err() != nil {
		log.Info("shutdown signal received")
	}
	bridge.Stop()

	if err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
}

func configFromFlags() (aes67bridge.Config, error) {
	cfg := aes67bridge.DefaultConfig()

	if flagInterface == "" {
		return cfg, errors.Errorf("--iface-ip is required")
	}
	if cfg.Interface = net.ParseIP(flagInterface); cfg.Interface == nil {
		return cfg, errors.Errorf("invalid --iface-ip %q", flagInterface)
	}
	if cfg.Group = net.ParseIP(flagGroup); cfg.Group == nil {
		return cfg, errors.Errorf("invalid --mcast %q", flagGroup)
	}

	cfg.Port = flagPort
	cfg.PayloadType = flagPayloadType
	cfg.ReadBufferSize = flagRecvBuf
	cfg.ReceiveQueue = flagRecvQueue
	cfg.ListenAddr = net.JoinHostPort(flagHTTP, strconv.Itoa(flagHTTPPort))
	cfg.Path = flagPath
	cfg.ClientQueue = flagClientQueue
	cfg.WebSocket = !flagNoWebSocket
	cfg.MDNS = flagMDNS
	cfg.Name = flagName
	return cfg, cfg.Validate()
}
