// Copyright (c) 2013-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"fmt"

	"github.com/btcsuite/btcd/wire"
)

// RequestPeers asks the remote peer for the addresses it knows about.  It
// sends a single getaddr message and reads a single reply, which must be an
// addr message.  The addresses are returned exactly as the peer sent them;
// an empty list is a valid answer.
//
// The handshake must have been established first.
func (s *Session) RequestPeers() ([]*wire.NetAddress, error) {
	if s.state != HandshakeEstablished {
		return nil, makeError(ErrProtocol, fmt.Sprintf("can't request "+
			"peers in handshake state %v", s.state), nil)
	}

	if err := s.conn.Send(wire.NewMsgGetAddr()); err != nil {
		return nil, err
	}

	for {
		rmsg, err := s.conn.Receive()
		if err != nil {
			return nil, err
		}

		switch m := rmsg.(type) {
		case *wire.MsgAddr:
			log.Debugf("Received %d addresses from %s",
				len(m.AddrList), s)
			return m.AddrList, nil

		case *wire.MsgVersion, *wire.MsgVerAck, *wire.MsgGetAddr,
			*UnknownMessage:
			if err := s.unexpectedMessage(rmsg, "getaddr"); err != nil {
				return nil, err
			}

		default:
			return nil, makeError(ErrProtocol, fmt.Sprintf(
				"unhandled message type %T", rmsg), nil)
		}
	}
}
