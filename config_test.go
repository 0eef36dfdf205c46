package aes67bridge

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 97, cfg.PayloadType)
	assert.Equal(t, 64, cfg.ClientQueue)
	assert.Equal(t, 128, cfg.ReceiveQueue)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unicast group", func(c *Config) { c.Group = net.ParseIP("192.168.1.1") }},
		{"ipv6 group", func(c *Config) { c.Group = net.ParseIP("ff02::1") }},
		{"port zero", func(c *Config) { c.Port = 0 }},
		{"port too large", func(c *Config) { c.Port = 70000 }},
		{"ipv6 interface", func(c *Config) { c.Interface = net.ParseIP("fe80::1") }},
		{"payload type", func(c *Config) { c.PayloadType = 128 }},
		{"receive queue", func(c *Config) { c.ReceiveQueue = 0 }},
		{"client queue", func(c *Config) { c.ClientQueue = 0 }},
		{"listen address", func(c *Config) { c.ListenAddr = "53354" }},
		{"relative path", func(c *Config) { c.Path = "audio" }},
		{"root path", func(c *Config) { c.Path = "/" }},
		{"trailing slash", func(c *Config) { c.Path = "/audio/" }},
		{"wildcard path", func(c *Config) { c.Path = "/{stream}" }},
		{"health path", func(c *Config) { c.Path = "/healthz" }},
		{"mdns without name", func(c *Config) { c.MDNS = true; c.Name = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
