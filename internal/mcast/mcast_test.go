package mcast

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterfaceByIP(t *testing.T) {
	ifi, err := InterfaceByIP(nil)
	assert.NoError(t, err)
	assert.Nil(t, ifi)

	ifi, err = InterfaceByIP(net.IPv4zero)
	assert.NoError(t, err)
	assert.Nil(t, ifi)

	ifi, err = InterfaceByIP(net.ParseIP("127.0.0.1"))
	if err != nil {
		t.Skipf("no loopback interface: %v", err)
	}
	assert.NotZero(t, ifi.Flags&net.FlagLoopback)

	_, err = InterfaceByIP(net.ParseIP("192.0.2.123"))
	assert.Error(t, err)
}

func TestListenRejectsUnicastGroup(t *testing.T) {
	_, err := Listen(Config{Group: net.ParseIP("10.0.0.1"), Port: 5004})
	assert.Error(t, err)

	_, err = Dial(Config{Group: net.ParseIP("ff02::1"), Port: 5004})
	assert.Error(t, err)
}

func TestLoopbackDelivery(t *testing.T) {
	cfg := Config{
		Group:          net.ParseIP("239.255.67.67"),
		Port:           45004,
		ReadBufferSize: 1 << 18,
		TTL:            1,
		Loopback:       true,
	}

	rx, err := Listen(cfg)
	if err != nil {
		t.Skipf("multicast unavailable: %v", err)
	}
	defer rx.Close()

	tx, err := Dial(cfg)
	require.NoError(t, err)
	defer tx.Close()

	_, err = tx.Write([]byte("aloha"))
	require.NoError(t, err)

	rx.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 64)
	n, _, err := rx.ReadFrom(buf)
	if err != nil {
		t.Skipf("multicast loopback not routed: %v", err)
	}
	assert.Equal(t, "aloha", string(buf[:n]))
}
