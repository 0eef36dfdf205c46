package main

import (
	"fmt"

	"github.com/fatih/color"
	flag "github.com/spf13/pflag"
)

var (
	flagGroup       string
	flagPort        int
	flagInterface   string
	flagPayloadType int
	flagRecvBuf     int
	flagRecvQueue   int
	flagHTTP        string
	flagHTTPPort    int
	flagPath        string
	flagClientQueue int
	flagNoWebSocket bool
	flagMDNS        bool
	flagName        string
	flagHelp        bool
	flagVersion     bool
)

func init() {
	flag.StringVarP(&flagGroup, "mcast", "m", "239.168.227.217", "Multicast group to join")
	flag.IntVarP(&flagPort, "port", "p", 5004, "UDP port for RTP")
	flag.StringVarP(&flagInterface, "iface-ip", "i", "", "Local interface address for joining the group")
	flag.IntVarP(&flagPayloadType, "payload-type", "t", 97, "RTP payload type (from SDP)")
	flag.IntVarP(&flagRecvBuf, "recv-buf", "", 256*1024, "Socket receive buffer, in bytes")
	flag.IntVarP(&flagRecvQueue, "recv-queue", "", 128, "Chunks buffered behind the receiver")
	flag.StringVarP(&flagHTTP, "http", "", "0.0.0.0", "HTTP listen address")
	flag.IntVarP(&flagHTTPPort, "http-port", "", 53354, "HTTP listen port")
	flag.StringVarP(&flagPath, "path", "", "/audio", "HTTP path for the audio stream")
	flag.IntVarP(&flagClientQueue, "client-queue", "q", 64, "Chunks per client queue (lower = lower latency)")
	flag.BoolVarP(&flagNoWebSocket, "no-websocket", "", false, "Do not serve the websocket stream")
	flag.BoolVarP(&flagMDNS, "mdns", "", false, "Advertise the stream via mDNS")
	flag.StringVarP(&flagName, "name", "n", "aes67bridge", "mDNS instance name")

	flag.BoolVarP(&flagHelp, "help", "h", false, "Print usage information and exit")
	flag.BoolVarP(&flagVersion, "version", "v", false, "Print version information and exit")
}

const helpString = `Low-latency AES67 to HTTP PCM bridge

Usage: aes67bridge --iface-ip=ADDR [OPTION]...

RTP input:
  -m, --mcast=ADDR        Multicast group to join (default: 239.168.227.217)
  -p, --port=NUM          UDP port for RTP (default: 5004)
  -i, --iface-ip=ADDR     Local interface address for joining the group (required)
  -t, --payload-type=NUM  RTP payload type of the L24/48000/2 stream (default: 97)
      --recv-buf=NUM      Socket receive buffer, in bytes (default: 262144)
      --recv-queue=NUM    Chunks buffered behind the receiver (default: 128)

HTTP output:
      --http=ADDR         Listen address (default: 0.0.0.0)
      --http-port=NUM     Listen port (default: 53354)
      --path=PATH         Stream path (default: /audio)
  -q, --client-queue=NUM  Chunks per client queue, lower = lower latency (default: 64)
      --no-websocket      Do not serve PATH/ws
      --mdns              Advertise the stream via mDNS
  -n, --name=STR          mDNS instance name (default: aes67bridge)

Miscellaneous:
  -h, --help              Prints this help message and exits
  -v, --version           Prints version information and exits

The stream is raw S16LE, 48 kHz, stereo. Low-latency playback:
  ffplay -fflags nobuffer -flags low_delay -probesize 32 -analyzeduration 0 \
      -f s16le -ac 2 -ar 48000 http://HOST:53354/audio

Logging verbosity is set by LOGLEVEL, e.g. LOGLEVEL=debug or LOGLEVEL=media=5.`

// Help information is printed and program exits
func help() {
	r := color.New(color.FgRed)
	y := color.New(color.FgYellow)
	b := color.New(color.FgCyan)

	r.Printf("  aes")
	y.Printf("67")
	b.Printf(" >> ")
	y.Println("http")
	fmt.Println()

	fmt.Println(helpString)
}

func version() {
	fmt.Println("aes67bridge", GitRevisionId)
	fmt.Println("Copyright 2019 Lanikai Labs LLC. All rights reserved.")
}
