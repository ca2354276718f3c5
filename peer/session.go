// Copyright (c) 2013-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/btcsuite/btcd/wire"
)

// Session is a single outbound conversation with one remote peer: connect,
// handshake, ask for addresses, close.  A Session is not safe for
// concurrent use, with the exception of Close.  Independent sessions share
// no state and may run concurrently.
type Session struct {
	cfg  Config
	addr string
	na   *wire.NetAddress
	conn *Conn

	state HandshakeState
	nonce uint64

	// Details advertised by the remote peer in its version message.
	versionKnown    bool
	protocolVersion uint32
	services        wire.ServiceFlag
	userAgent       string
	startingHeight  int32
	timeOffset      int64
	peerNonce       uint64

	timeConnected time.Time
}

// newNetAddress parses a host:port target into a bitcoin NetAddress.  The
// host must be an IP literal unless a proxy is configured, in which case a
// hostname is resolved by the proxy and the address advertised to the peer
// is unroutable.
func newNetAddress(addr string, cfg *Config) (*wire.NetAddress, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return nil, fmt.Errorf("invalid port %q: %v", portStr, err)
	}

	ip := net.ParseIP(host)
	if ip == nil {
		if cfg.Proxy == "" {
			return nil, fmt.Errorf("%q is not a valid IP address", host)
		}
		ip = net.IPv4zero
	}

	// If we are behind a proxy and the target is the proxy itself then
	// we return an unroutable address as their address.  This is to prevent
	// leaking the tor proxy address.
	if cfg.Proxy != "" {
		proxyHost, _, err := net.SplitHostPort(cfg.Proxy)
		if err != nil || ip.String() == proxyHost {
			ip = net.IPv4zero
		}
	}

	return wire.NewNetAddressIPPort(ip, uint16(port), 0), nil
}

// NewSession returns a session for the peer at addr, a host:port string.
// No connection is made until Dial, Connect or Run is called.
func NewSession(cfg *Config, addr string) (*Session, error) {
	c := cfg.withDefaults()
	na, err := newNetAddress(addr, &c)
	if err != nil {
		return nil, makeError(ErrConnect, fmt.Sprintf("invalid peer "+
			"address %s", addr), err)
	}
	return &Session{
		cfg:             c,
		addr:            addr,
		na:              na,
		protocolVersion: c.ProtocolVersion,
	}, nil
}

// String returns the peer's address and directionality as a human-readable
// string.
func (s *Session) String() string {
	return fmt.Sprintf("%s (%s)", s.addr, directionString(false))
}

// Addr returns the peer address.
func (s *Session) Addr() string {
	return s.addr
}

// NA returns the peer network address.
func (s *Session) NA() *wire.NetAddress {
	return s.na
}

// State returns the handshake state.
func (s *Session) State() HandshakeState {
	return s.state
}

// VersionKnown returns whether or not the version of the peer is known
// locally.
func (s *Session) VersionKnown() bool {
	return s.versionKnown
}

// ProtocolVersion returns the negotiated protocol version, or the
// configured one before the peer's version is known.
func (s *Session) ProtocolVersion() uint32 {
	return s.protocolVersion
}

// Services returns the services flag of the peer.
func (s *Session) Services() wire.ServiceFlag {
	return s.services
}

// UserAgent returns the user agent of the peer.
func (s *Session) UserAgent() string {
	return s.userAgent
}

// StartingHeight returns the block height the peer advertised.
func (s *Session) StartingHeight() int32 {
	return s.startingHeight
}

// TimeOffset returns the peer's clock offset from ours in seconds.
func (s *Session) TimeOffset() int64 {
	return s.timeOffset
}

// Nonce returns the nonce of the version message sent to the peer.
func (s *Session) Nonce() uint64 {
	return s.nonce
}

// PeerNonce returns the nonce of the peer's version message.
func (s *Session) PeerNonce() uint64 {
	return s.peerNonce
}

// TimeConnected returns the time at which the connection was attached.
func (s *Session) TimeConnected() time.Time {
	return s.timeConnected
}

// BytesSent returns the bytes sent to the peer.
func (s *Session) BytesSent() uint64 {
	if s.conn == nil {
		return 0
	}
	return s.conn.BytesSent()
}

// BytesReceived returns the bytes received from the peer.
func (s *Session) BytesReceived() uint64 {
	if s.conn == nil {
		return 0
	}
	return s.conn.BytesReceived()
}

// Connect uses the given conn to talk to the peer.
func (s *Session) Connect(conn net.Conn) {
	s.attach(NewConn(conn, &s.cfg))
}

// Dial establishes the connection to the peer.
func (s *Session) Dial(ctx context.Context) error {
	log.Infof("Connecting to %s", s.addr)
	conn, err := Dial(ctx, &s.cfg, s.addr)
	if err != nil {
		return err
	}
	s.attach(conn)
	log.Infof("Connected to %s", s.addr)
	return nil
}

func (s *Session) attach(conn *Conn) {
	s.conn = conn
	s.timeConnected = time.Now()
}

// Close closes the connection, if any.  It is idempotent.
func (s *Session) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// Run drives the whole session: it dials the peer unless Connect was
// called, performs the handshake, requests the peer's addresses and closes
// the connection.  It returns the addresses or the first error.  The
// connection is closed on every path.
//
// A deadline on ctx bounds the entire session and cancelling ctx closes the
// connection, failing whatever operation is blocked on it.
func (s *Session) Run(ctx context.Context) ([]*wire.NetAddress, error) {
	defer s.Close()

	if s.conn == nil {
		if err := s.Dial(ctx); err != nil {
			return nil, err
		}
	}

	if d, ok := ctx.Deadline(); ok {
		s.conn.SetDeadline(earliest(s.conn.Deadline(), d))
	}
	stop := context.AfterFunc(ctx, func() {
		log.Debugf("Session with %s cancelled: %v", s, ctx.Err())
		s.conn.Close()
	})
	defer stop()

	if err := s.Handshake(); err != nil {
		return nil, s.cancelError(ctx, err)
	}

	addrs, err := s.RequestPeers()
	if err != nil {
		return nil, s.cancelError(ctx, err)
	}
	return addrs, nil
}

// cancelError attributes a socket failure caused by ctx closing the
// connection to the context.  An expired deadline is reported as a timeout.
func (s *Session) cancelError(ctx context.Context, err error) error {
	if !IsErrorCode(err, ErrIO) {
		return err
	}
	switch ctx.Err() {
	case context.Canceled:
		return makeError(ErrIO, fmt.Sprintf("session with %s "+
			"cancelled", s), ctx.Err())
	case context.DeadlineExceeded:
		return makeError(ErrTimeout, fmt.Sprintf("session with %s "+
			"timed out", s), ctx.Err())
	}
	return err
}

// FetchPeers connects to the peer at addr, performs the handshake, and
// returns the addresses the peer answers getaddr with.
func FetchPeers(ctx context.Context, cfg *Config, addr string) ([]*wire.NetAddress, error) {
	s, err := NewSession(cfg, addr)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx)
}
