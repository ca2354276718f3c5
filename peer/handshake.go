// Copyright (c) 2013-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"fmt"
	"net"
	"time"

	"github.com/btcsuite/btcd/wire"
)

// HandshakeState is the progress of the version/verack exchange.
type HandshakeState int

const (
	// HandshakeStart is the state of a session that has not sent its
	// version message yet.
	HandshakeStart HandshakeState = iota

	// HandshakeVersionSent is entered once the local version message has
	// been written.
	HandshakeVersionSent

	// HandshakeAwaitingVerAck is entered once the remote version message
	// has been answered with a verack.
	HandshakeAwaitingVerAck

	// HandshakeEstablished is entered when the remote verack arrives.
	HandshakeEstablished

	// HandshakeFailed is terminal.  The session must be discarded.
	HandshakeFailed
)

// Map of HandshakeState values back to their names for pretty printing.
var handshakeStateStrings = map[HandshakeState]string{
	HandshakeStart:          "start",
	HandshakeVersionSent:    "version sent",
	HandshakeAwaitingVerAck: "awaiting verack",
	HandshakeEstablished:    "established",
	HandshakeFailed:         "failed",
}

// String returns the HandshakeState in human-readable form.
func (s HandshakeState) String() string {
	if str, ok := handshakeStateStrings[s]; ok {
		return str
	}
	return fmt.Sprintf("unknown handshake state (%d)", int(s))
}

// unsolicitedCommands are commands bitcoind commonly sends around the
// handshake and before answering getaddr.  They are only skipped when the
// config allows unsolicited messages.
var unsolicitedCommands = map[string]struct{}{
	"alert":       {},
	"feefilter":   {},
	"getheaders":  {},
	"inv":         {},
	"ping":        {},
	"pong":        {},
	"sendaddrv2":  {},
	"sendcmpct":   {},
	"sendheaders": {},
	"wtxidrelay":  {},
}

// minUint32 is a helper function to return the minimum of two uint32s.
// This avoids a math import and the need to cast to floats.
func minUint32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

// newVersionMsg builds the version message for this session.  The receiver
// is the target address and the sender an unroutable placeholder since the
// client accepts no inbound connections.
func (s *Session) newVersionMsg() (*wire.MsgVersion, error) {
	nonce, err := s.cfg.Nonce()
	if err != nil {
		return nil, makeError(ErrIO, "can't generate version nonce", err)
	}
	s.nonce = nonce

	theirNA := wire.NewNetAddressIPPort(s.na.IP, s.na.Port, 0)
	ourNA := wire.NewNetAddressIPPort(net.IPv4zero, 0, 0)

	msg := wire.NewMsgVersion(ourNA, theirNA, nonce, 0)
	err = msg.AddUserAgent(s.cfg.UserAgentName, s.cfg.UserAgentVersion)
	if err != nil {
		return nil, makeError(ErrProtocol, "invalid user agent", err)
	}
	msg.ProtocolVersion = int32(s.cfg.ProtocolVersion)
	msg.Services = s.cfg.Services
	msg.Timestamp = time.Unix(s.cfg.Now().Unix(), 0)
	msg.DisableRelayTx = true
	return msg, nil
}

// handleVersionMsg records the details the remote peer advertised and
// negotiates the protocol version used for the rest of the session.
func (s *Session) handleVersionMsg(msg *wire.MsgVersion) {
	s.versionKnown = true
	s.peerNonce = msg.Nonce
	s.services = msg.Services
	s.userAgent = msg.UserAgent
	s.startingHeight = msg.LastBlock
	s.timeOffset = msg.Timestamp.Unix() - s.cfg.Now().Unix()

	if msg.Nonce == s.nonce {
		log.Warnf("Peer %s echoed our version nonce, possible "+
			"connection to self", s)
	}

	s.protocolVersion = minUint32(s.protocolVersion,
		uint32(msg.ProtocolVersion))
	s.conn.SetProtocolVersion(framingVersion(s.protocolVersion))
	log.Debugf("Negotiated protocol version %d for peer %s",
		s.protocolVersion, s)
}

// framingVersion returns the protocol version messages are encoded and
// decoded with once pver has been negotiated.  Addr entries always carry a
// timestamp, so framing never drops below wire.NetAddressTimeVersion.
func framingVersion(pver uint32) uint32 {
	if pver < wire.NetAddressTimeVersion {
		return wire.NetAddressTimeVersion
	}
	return pver
}

// unexpectedMessage decides what to do with a message that does not belong
// to the current exchange.  It returns nil when the message may be skipped.
func (s *Session) unexpectedMessage(msg wire.Message, during string) error {
	if s.cfg.AllowUnsolicited {
		if _, ok := unsolicitedCommands[msg.Command()]; ok {
			log.Debugf("Ignoring %s from %s during %s",
				msg.Command(), s, during)
			return nil
		}
	}

	log.Warnf("Received unexpected message %s from %s during %s",
		msg.Command(), s, during)
	return makeError(ErrProtocol, fmt.Sprintf("unexpected message [%s] "+
		"during %s", msg.Command(), during), nil)
}

// fail moves the session to the failed state and returns err.
func (s *Session) fail(err error) error {
	log.Debugf("Handshake with %s failed in state %v: %v", s, s.state, err)
	s.state = HandshakeFailed
	return err
}

// Handshake performs the version/verack exchange on the session's open
// connection.  It sends the local version message and then reads messages
// until the remote verack arrives.  A remote version message is answered
// with a verack.  The first verack completes the handshake even when no
// version message was seen.  Any other message fails the handshake unless
// it is a known unsolicited command and the config allows those.
//
// There is no retry: after a failure the session is unusable.
func (s *Session) Handshake() error {
	if s.conn == nil {
		return makeError(ErrProtocol, "handshake requires an open "+
			"connection", nil)
	}
	if s.state != HandshakeStart {
		return makeError(ErrProtocol, fmt.Sprintf("handshake already "+
			"in state %v", s.state), nil)
	}

	// Peers must complete the initial version negotiation within a shorter
	// timeframe than a general idle timeout.
	if s.cfg.HandshakeTimeout > 0 {
		prev := s.conn.Deadline()
		s.conn.SetDeadline(earliest(prev,
			time.Now().Add(s.cfg.HandshakeTimeout)))
		defer s.conn.SetDeadline(prev)
	}

	msg, err := s.newVersionMsg()
	if err != nil {
		return s.fail(err)
	}
	if err := s.conn.Send(msg); err != nil {
		return s.fail(err)
	}
	s.state = HandshakeVersionSent

	for {
		rmsg, err := s.conn.Receive()
		if err != nil {
			return s.fail(err)
		}

		switch m := rmsg.(type) {
		case *wire.MsgVersion:
			if s.versionKnown {
				log.Errorf("Only one version message per peer "+
					"is allowed %s.", s)
				return s.fail(makeError(ErrProtocol,
					"duplicate version message", nil))
			}
			log.Debugf("Received version from %s: %v", s,
				newLogClosure(func() string {
					return messageSummary(m)
				}))
			s.handleVersionMsg(m)

			if err := s.conn.Send(wire.NewMsgVerAck()); err != nil {
				return s.fail(err)
			}
			s.state = HandshakeAwaitingVerAck

		case *wire.MsgVerAck:
			s.state = HandshakeEstablished
			log.Debugf("Handshake with %s established", s)
			return nil

		case *wire.MsgGetAddr, *wire.MsgAddr, *UnknownMessage:
			if err := s.unexpectedMessage(rmsg, "handshake"); err != nil {
				return s.fail(err)
			}

		default:
			return s.fail(makeError(ErrProtocol, fmt.Sprintf(
				"unhandled message type %T", rmsg), nil))
		}
	}
}
