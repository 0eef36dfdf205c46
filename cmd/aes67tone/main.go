// aes67tone sends a sine test tone as an L24/48000/2 RTP multicast stream,
// for exercising aes67bridge without AES67 hardware.
package main

import (
	"context"
	"math/rand"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/lanikai/aes67bridge/internal/logging"
	"github.com/lanikai/aes67bridge/internal/mcast"
	"github.com/lanikai/aes67bridge/internal/media"
	"github.com/lanikai/aes67bridge/internal/rtp"
)

var log = logging.DefaultLogger.WithTag("tone")

var (
	flagGroup       = flag.StringP("mcast", "m", "239.168.227.217", "Multicast group to send to")
	flagPort        = flag.IntP("port", "p", 5004, "UDP port")
	flagInterface   = flag.StringP("iface-ip", "i", "", "Local interface address to send from")
	flagPayloadType = flag.IntP("payload-type", "t", media.DefaultPayloadType, "RTP payload type")
	flagTTL         = flag.Int("ttl", 16, "Multicast TTL")
	flagLoopback    = flag.Bool("loopback", true, "Loop packets back to local listeners")
	flagFreq        = flag.Float64P("freq", "f", 1000, "Tone frequency, Hz")
	flagLevel       = flag.Float64P("level", "l", -18, "Tone level, dBFS")
	flagPtime       = flag.Duration("ptime", time.Millisecond, "Packet time")
	flagDuration    = flag.DurationP("duration", "d", 0, "Stop after this long (0 = until interrupted)")
)

func main() {
	flag.Parse()

	tone, err := media.NewTone(*flagFreq, *flagLevel)
	if err != nil {
		log.Fatal(err)
	}
	frames := media.FramesPerPacket(int(*flagPtime / time.Microsecond))
	if frames < 1 {
		log.Fatalf("packet time %v too short", *flagPtime)
	}

	cfg := mcast.Config{
		Group:    net.ParseIP(*flagGroup),
		Port:     *flagPort,
		TTL:      *flagTTL,
		Loopback: *flagLoopback,
	}
	if *flagInterface != "" {
		if cfg.Interface = net.ParseIP(*flagInterface); cfg.Interface == nil {
			log.Fatalf("invalid --iface-ip %q", *flagInterface)
		}
	}

	conn, err := mcast.Dial(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *flagDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *flagDuration)
		defer cancel()
	}

	sender := rtp.NewSender(conn, rand.Uint32(), byte(*flagPayloadType), rtp.HeaderSize+frames*media.L24FrameSize)
	log.Info("sending %g Hz at %g dBFS to %s:%d (%d frames/packet)", *flagFreq, *flagLevel, *flagGroup, *flagPort, frames)

	ticker := time.NewTicker(*flagPtime)
	defer ticker.Stop()

	timestamp := rand.Uint32()
	for first := true; ; first = false {
		select {
		case <-ctx.Done():
			packets, bytes := sender.Count()
			log.Info("sent %d packets, %d payload bytes", packets, bytes)
			return
		case <-ticker.C:
		}
		if err := sender.WritePacket(first, timestamp, tone.Next(frames)); err != nil {
			log.Warn("send failed: %v", err)
		}
		timestamp += uint32(frames)
	}
}
