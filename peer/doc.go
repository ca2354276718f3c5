// Copyright (c) 2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package peer provides a minimal outbound bitcoin network client for asking a
single remote node which other nodes it knows about.

A Session opens one TCP connection (optionally through a SOCKS5 proxy),
performs the version/verack handshake and then sends a getaddr message,
returning the addresses in the peer's addr reply.

	addrs, err := peer.FetchPeers(ctx, &peer.Config{Net: wire.MainNet},
		"192.0.2.1:8333")

Handshake

The client sends its version message first.  A version message from the
remote peer is answered with a verack.  The handshake is complete on the
first verack received, whether or not the remote version has been seen.
Any other message ends the handshake with an ErrProtocol error, unless
Config.AllowUnsolicited is set and the command is one bitcoind routinely
sends around the handshake.

Errors

Every failure is returned as an *Error whose Code tells the stage that
failed: ErrConnect, ErrIO, ErrDecode, ErrProtocol or ErrTimeout.  Nothing is
retried.  Session.Run closes the connection on every path.

Logging

The package logs through a btclog.Logger which is disabled until UseLogger
is called.
*/
package peer
