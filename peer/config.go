// Copyright (c) 2013-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"time"

	"github.com/btcsuite/btcd/wire"
)

const (
	// DefaultProtocolVersion is the protocol version advertised when the
	// Config does not specify one.  It predates BIP0155 so peers answer
	// getaddr with a plain addr message.
	DefaultProtocolVersion uint32 = 70015

	// DefaultDialTimeout bounds establishing the TCP stream.
	DefaultDialTimeout = 10 * time.Second

	// DefaultReadTimeout is the longest a single Receive waits for a
	// complete message.
	DefaultReadTimeout = 30 * time.Second

	// DefaultWriteTimeout is the longest a single Send may take.
	DefaultWriteTimeout = 30 * time.Second

	// DefaultHandshakeTimeout bounds the whole version/verack exchange.
	DefaultHandshakeTimeout = 30 * time.Second

	// DefaultUserAgentName is the user agent name advertised when the
	// Config does not specify one.
	DefaultUserAgentName = "btcpeers"

	// DefaultUserAgentVersion is the user agent version advertised when
	// the Config does not specify one.
	DefaultUserAgentVersion = "0.1.0"
)

// NonceFunc returns a fresh random nonce for a version message.
type NonceFunc func() (uint64, error)

// Config is the struct to hold configuration options useful to a Session.
// The zero value is usable; unset fields take the defaults above.
type Config struct {
	// Network magic to frame and accept messages with.  Defaults to
	// wire.MainNet.
	Net wire.BitcoinNet

	// SOCKS5 proxy (eg. 127.0.0.1:9050) to use for connections.
	Proxy string

	// Credentials for the SOCKS5 proxy, if it requires any.
	ProxyUser string
	ProxyPass string

	// User agent name and version to be used in the version message.
	UserAgentName    string
	UserAgentVersion string

	// Services flag to be advertised in the version message.  Defaults to
	// wire.SFNodeNetwork.
	Services wire.ServiceFlag

	// Protocol version to advertise.
	ProtocolVersion uint32

	// Timeouts for dialing, for each read and write, and for the whole
	// handshake.  A negative value disables the corresponding bound.
	DialTimeout      time.Duration
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	HandshakeTimeout time.Duration

	// AllowUnsolicited makes the handshake and the getaddr query skip
	// messages bitcoind routinely sends around the handshake (ping,
	// sendheaders, feefilter and similar) instead of failing on them.
	AllowUnsolicited bool

	// Nonce generates the version message nonce.  Defaults to
	// wire.RandomUint64.
	Nonce NonceFunc

	// Now returns the current time for the version message timestamp.
	// Defaults to time.Now.
	Now func() time.Time

	// If non-nil, the callback to be invoked when reading a peer message.
	OnRead func(int, wire.Message, error)

	// If non-nil, the callback to be invoked when writing a peer message.
	OnWrite func(int, wire.Message, error)
}

// normalizeTimeout maps the zero value to def and negative values to zero,
// which disables the bound.
func normalizeTimeout(d, def time.Duration) time.Duration {
	switch {
	case d == 0:
		return def
	case d < 0:
		return 0
	}
	return d
}

// withDefaults returns a copy of the config with every unset field filled
// in.  A nil config yields all defaults.
func (cfg *Config) withDefaults() Config {
	var c Config
	if cfg != nil {
		c = *cfg
	}
	if c.Net == 0 {
		c.Net = wire.MainNet
	}
	if c.UserAgentName == "" {
		c.UserAgentName = DefaultUserAgentName
	}
	if c.UserAgentVersion == "" {
		c.UserAgentVersion = DefaultUserAgentVersion
	}
	if c.Services == 0 {
		c.Services = wire.SFNodeNetwork
	}
	if c.ProtocolVersion == 0 {
		c.ProtocolVersion = DefaultProtocolVersion
	}
	c.DialTimeout = normalizeTimeout(c.DialTimeout, DefaultDialTimeout)
	c.ReadTimeout = normalizeTimeout(c.ReadTimeout, DefaultReadTimeout)
	c.WriteTimeout = normalizeTimeout(c.WriteTimeout, DefaultWriteTimeout)
	c.HandshakeTimeout = normalizeTimeout(c.HandshakeTimeout,
		DefaultHandshakeTimeout)
	if c.Nonce == nil {
		c.Nonce = wire.RandomUint64
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}
