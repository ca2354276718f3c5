// Copyright (c) 2013-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/go-socks/socks"
	"github.com/davecgh/go-spew/spew"
)

// Conn is a framed bitcoin protocol connection to a single remote peer.
// Send and Receive are meant to be called from one goroutine; Close may be
// called from any goroutine and any number of times.
type Conn struct {
	conn   net.Conn
	btcnet wire.BitcoinNet
	pver   uint32

	readTimeout  time.Duration
	writeTimeout time.Duration

	// deadline bounds every read and write in addition to the per
	// operation timeouts.  The zero value means no bound.
	deadline time.Time

	onRead  func(int, wire.Message, error)
	onWrite func(int, wire.Message, error)

	bytesSent     uint64 // only to be used atomically
	bytesReceived uint64 // only to be used atomically

	closeOnce sync.Once
	closeErr  error
}

// Dial establishes a TCP stream to addr, through the configured SOCKS5
// proxy if there is one, and wraps it in a Conn.  The attempt is bounded by
// the config's dial timeout and by ctx.  Any failure is reported with the
// ErrConnect code.
func Dial(ctx context.Context, cfg *Config, addr string) (*Conn, error) {
	c := cfg.withDefaults()

	var (
		conn net.Conn
		err  error
	)
	if c.Proxy != "" {
		timeout := c.DialTimeout
		if d, ok := ctx.Deadline(); ok {
			timeout = earliestTimeout(timeout, time.Until(d))
		}
		proxy := &socks.Proxy{
			Addr:     c.Proxy,
			Username: c.ProxyUser,
			Password: c.ProxyPass,
		}
		conn, err = proxy.DialTimeout("tcp", addr, timeout)
	} else {
		dialer := net.Dialer{Timeout: c.DialTimeout}
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, makeError(ErrConnect,
			fmt.Sprintf("can't connect to %s", addr), err)
	}

	log.Debugf("Connected to %s", conn.RemoteAddr())
	return NewConn(conn, &c), nil
}

// NewConn wraps an already established connection.
func NewConn(conn net.Conn, cfg *Config) *Conn {
	c := cfg.withDefaults()
	return &Conn{
		conn:         conn,
		btcnet:       c.Net,
		pver:         c.ProtocolVersion,
		readTimeout:  c.ReadTimeout,
		writeTimeout: c.WriteTimeout,
		onRead:       c.OnRead,
		onWrite:      c.OnWrite,
	}
}

// String returns the remote address of the connection.
func (c *Conn) String() string {
	return c.conn.RemoteAddr().String()
}

// RemoteAddr returns the remote network address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// ProtocolVersion returns the protocol version messages are framed with.
func (c *Conn) ProtocolVersion() uint32 {
	return c.pver
}

// SetProtocolVersion changes the protocol version used for subsequent
// messages.  It is called once the version has been negotiated.
func (c *Conn) SetProtocolVersion(pver uint32) {
	c.pver = pver
}

// Deadline returns the current overall deadline.
func (c *Conn) Deadline() time.Time {
	return c.deadline
}

// SetDeadline bounds all subsequent reads and writes by t in addition to
// the per operation timeouts.  A zero t removes the bound.
func (c *Conn) SetDeadline(t time.Time) {
	c.deadline = t
}

// BytesSent returns the number of bytes written to the peer.
func (c *Conn) BytesSent() uint64 {
	return atomic.LoadUint64(&c.bytesSent)
}

// BytesReceived returns the number of bytes read from the peer.
func (c *Conn) BytesReceived() uint64 {
	return atomic.LoadUint64(&c.bytesReceived)
}

// opDeadline returns the deadline for an operation started now with the
// given timeout.
func (c *Conn) opDeadline(timeout time.Duration) time.Time {
	var t time.Time
	if timeout > 0 {
		t = time.Now().Add(timeout)
	}
	return earliest(t, c.deadline)
}

// Send frames msg for the connection's network and writes the complete
// frame to the peer.
func (c *Conn) Send(msg wire.Message) error {
	frame, err := encodeMessage(msg, c.pver, c.btcnet)
	if err != nil {
		return makeError(ErrIO, fmt.Sprintf("can't encode %s message",
			msg.Command()), err)
	}

	// Use closures to log expensive operations so they are only run when
	// the logging level requires it.
	log.Debugf("%v", newLogClosure(func() string {
		// Debug summary of message.
		summary := messageSummary(msg)
		if len(summary) > 0 {
			summary = " (" + summary + ")"
		}
		return fmt.Sprintf("Sending %v%s to %s", msg.Command(),
			summary, c)
	}))
	log.Tracef("%v", newLogClosure(func() string {
		return spew.Sdump(msg)
	}))
	log.Tracef("%v", newLogClosure(func() string {
		return spew.Sdump(frame)
	}))

	if err := c.conn.SetWriteDeadline(c.opDeadline(c.writeTimeout)); err != nil {
		return classifyError("can't set write deadline", err)
	}

	// net.Conn implementations write everything or return an error.
	n, err := c.conn.Write(frame)
	atomic.AddUint64(&c.bytesSent, uint64(n))
	if c.onWrite != nil {
		c.onWrite(n, msg, err)
	}
	if err != nil {
		return classifyError(fmt.Sprintf("can't send %s message to %s",
			msg.Command(), c), err)
	}
	return nil
}

// Receive blocks until one complete message has been read from the peer or
// the read deadline expires.  Network magic and checksum are verified before
// the payload is decoded.  The returned message is one of *wire.MsgVersion,
// *wire.MsgVerAck, *wire.MsgGetAddr, *wire.MsgAddr or *UnknownMessage.
func (c *Conn) Receive() (wire.Message, error) {
	if err := c.conn.SetReadDeadline(c.opDeadline(c.readTimeout)); err != nil {
		return nil, classifyError("can't set read deadline", err)
	}

	n, msg, buf, err := readMessage(c.conn, c.pver, c.btcnet)
	atomic.AddUint64(&c.bytesReceived, uint64(n))
	if c.onRead != nil {
		c.onRead(n, msg, err)
	}
	if err != nil {
		return nil, classifyError(fmt.Sprintf("can't read message "+
			"from %s", c), err)
	}

	log.Debugf("%v", newLogClosure(func() string {
		summary := messageSummary(msg)
		if len(summary) > 0 {
			summary = " (" + summary + ")"
		}
		return fmt.Sprintf("Received %v%s from %s", msg.Command(),
			summary, c)
	}))
	log.Tracef("%v", newLogClosure(func() string {
		return spew.Sdump(msg)
	}))
	log.Tracef("%v", newLogClosure(func() string {
		return spew.Sdump(buf)
	}))

	return msg, nil
}

// Close closes the underlying connection.  Only the first call has any
// effect; later calls return the result of the first.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		log.Tracef("Closing connection to %s", c)
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

// classifyError wraps a socket level error with the appropriate code.
// Errors that already carry a code, such as decode failures, are returned
// unchanged.
func classifyError(desc string, err error) error {
	if _, ok := err.(*Error); ok {
		return err
	}
	if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
		return makeError(ErrTimeout, desc, err)
	}
	return makeError(ErrIO, desc, err)
}

// earliest returns the earlier of two deadlines where the zero time means
// no deadline.
func earliest(a, b time.Time) time.Time {
	switch {
	case a.IsZero():
		return b
	case b.IsZero():
		return a
	case b.Before(a):
		return b
	}
	return a
}

// earliestTimeout returns the shorter of two timeouts where zero means no
// timeout.  A remaining time that has already elapsed is clamped to the
// smallest positive duration so the dial fails immediately.
func earliestTimeout(timeout, remaining time.Duration) time.Duration {
	if remaining <= 0 {
		return time.Nanosecond
	}
	if timeout == 0 || remaining < timeout {
		return remaining
	}
	return timeout
}
