// Copyright (c) 2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"bytes"
	"io"
	"net"
	"testing"
	"time"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testNonce and testTime make the version message deterministic.
const testNonce uint64 = 0x0123456789abcdef

var testTime = time.Unix(1700000000, 0)

// testConfig returns a config with a fixed nonce and clock and short
// timeouts so failing tests don't hang.
func testConfig() *Config {
	return &Config{
		Net:              wire.MainNet,
		UserAgentName:    "peertest",
		UserAgentVersion: "1.0",
		ReadTimeout:      5 * time.Second,
		HandshakeTimeout: 5 * time.Second,
		Nonce:            func() (uint64, error) { return testNonce, nil },
		Now:              func() time.Time { return testTime },
	}
}

// remotePeer is the far end of a test connection.  It speaks raw wire
// messages so tests control exactly what the client sees.
type remotePeer struct {
	t      *testing.T
	conn   net.Conn
	btcnet wire.BitcoinNet
}

// expect reads the next message and checks its command.
func (r *remotePeer) expect(cmd string) wire.Message {
	msg, _, err := wire.ReadMessage(r.conn, DefaultProtocolVersion, r.btcnet)
	if !assert.NoError(r.t, err, "remote: reading %s", cmd) {
		return nil
	}
	assert.Equal(r.t, cmd, msg.Command(), "remote: unexpected message")
	return msg
}

// send writes msg framed for the remote's network.
func (r *remotePeer) send(msg wire.Message) {
	err := wire.WriteMessage(r.conn, msg, DefaultProtocolVersion, r.btcnet)
	assert.NoError(r.t, err, "remote: sending %s", msg.Command())
}

// sendRaw writes raw bytes.
func (r *remotePeer) sendRaw(b []byte) {
	_, err := r.conn.Write(b)
	assert.NoError(r.t, err, "remote: raw write")
}

// versionMsg returns a version message as a bitcoind node would send it.
func (r *remotePeer) versionMsg() *wire.MsgVersion {
	me := wire.NewNetAddressIPPort(net.ParseIP("10.0.0.1"), 8333,
		wire.SFNodeNetwork)
	you := wire.NewNetAddressIPPort(net.ParseIP("127.0.0.1"), 50000, 0)
	msg := wire.NewMsgVersion(me, you, 42, 800000)
	msg.Services = wire.SFNodeNetwork | wire.SFNodeWitness
	msg.UserAgent = "/Satoshi:25.0.0/"
	msg.Timestamp = testTime.Add(3 * time.Second)
	return msg
}

// startRemote listens on a loopback port and runs script against the
// first connection.  Once script returns the remote drains the connection
// until the client closes it.  The returned channel is closed at that point.
func startRemote(t *testing.T, btcnet wire.BitcoinNet, script func(r *remotePeer)) (string, <-chan struct{}) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer ln.Close()

		conn, err := ln.Accept()
		if !assert.NoError(t, err, "remote: accept") {
			return
		}
		defer conn.Close()

		script(&remotePeer{t: t, conn: conn, btcnet: btcnet})

		// Wait for the client to hang up.
		conn.SetReadDeadline(time.Now().Add(10 * time.Second))
		io.Copy(io.Discard, conn)
	}()

	t.Cleanup(func() { ln.Close() })
	return ln.Addr().String(), done
}

// waitClosed fails the test if the client does not close its end.
func waitClosed(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("client did not close the connection")
	}
}

// frame returns msg framed for btcnet.
func frame(t *testing.T, msg wire.Message, btcnet wire.BitcoinNet) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, wire.WriteMessage(&buf, msg, DefaultProtocolVersion,
		btcnet))
	return buf.Bytes()
}

// testAddrs returns two distinct addresses as a peer would report them.
func testAddrs() []*wire.NetAddress {
	return []*wire.NetAddress{
		wire.NewNetAddressTimestamp(time.Unix(1699990000, 0),
			wire.SFNodeNetwork, net.ParseIP("203.0.113.7"), 8333),
		wire.NewNetAddressTimestamp(time.Unix(1699980000, 0),
			wire.SFNodeNetwork|wire.SFNodeWitness,
			net.ParseIP("2001:db8::1"), 18333),
	}
}

// assertAddrs checks two address lists match entry by entry.
func assertAddrs(t *testing.T, want, got []*wire.NetAddress) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Timestamp.Unix(), got[i].Timestamp.Unix(), "addr %d timestamp", i)
		assert.Equal(t, want[i].Services, got[i].Services, "addr %d services", i)
		assert.True(t, want[i].IP.Equal(got[i].IP), "addr %d ip: got %v, want %v", i, got[i].IP, want[i].IP)
		assert.Equal(t, want[i].Port, got[i].Port, "addr %d port", i)
	}
}
