// Copyright (c) 2013-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// UnknownMessage houses any message whose command is not one of version,
// verack, getaddr or addr.  The payload is kept undecoded.  It satisfies
// wire.Message so it can also be written back out.
type UnknownMessage struct {
	Cmd     string
	Payload []byte
}

// BtcDecode reads the remaining bytes of r as the raw payload.
func (msg *UnknownMessage) BtcDecode(r io.Reader, pver uint32, enc wire.MessageEncoding) error {
	payload, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	msg.Payload = payload
	return nil
}

// BtcEncode writes the raw payload to w.
func (msg *UnknownMessage) BtcEncode(w io.Writer, pver uint32, enc wire.MessageEncoding) error {
	_, err := w.Write(msg.Payload)
	return err
}

// Command returns the command the message arrived with.
func (msg *UnknownMessage) Command() string {
	return msg.Cmd
}

// MaxPayloadLength returns the largest payload any message may carry.
func (msg *UnknownMessage) MaxPayloadLength(pver uint32) uint32 {
	return wire.MaxMessagePayload
}

// messageHeader defines the header structure for all bitcoin protocol messages.
type messageHeader struct {
	magic    wire.BitcoinNet // 4 bytes
	command  string          // 12 bytes
	length   uint32          // 4 bytes
	checksum [4]byte         // 4 bytes
}

// parseMessageHeader splits a raw header into its fields.  The command is
// the ASCII string up to the first NUL byte.
func parseMessageHeader(raw *[wire.MessageHeaderSize]byte) messageHeader {
	var hdr messageHeader
	hdr.magic = wire.BitcoinNet(binary.LittleEndian.Uint32(raw[0:4]))
	cmd := raw[4 : 4+wire.CommandSize]
	if i := bytes.IndexByte(cmd, 0); i >= 0 {
		cmd = cmd[:i]
	}
	hdr.command = string(cmd)
	hdr.length = binary.LittleEndian.Uint32(raw[16:20])
	copy(hdr.checksum[:], raw[20:24])
	return hdr
}

// makeEmptyMessage creates a message of the appropriate concrete type based
// on the command.  Only the commands this client acts on are decoded; every
// other command yields an UnknownMessage.
func makeEmptyMessage(command string) wire.Message {
	switch command {
	case wire.CmdVersion:
		return &wire.MsgVersion{}

	case wire.CmdVerAck:
		return &wire.MsgVerAck{}

	case wire.CmdGetAddr:
		return &wire.MsgGetAddr{}

	case wire.CmdAddr:
		return &wire.MsgAddr{}
	}
	return &UnknownMessage{Cmd: command}
}

// decodeError returns an ErrDecode error for the given description.
func decodeError(format string, args ...interface{}) *Error {
	return makeError(ErrDecode, fmt.Sprintf(format, args...), nil)
}

// readMessage reads, validates and parses the next bitcoin message from r for
// the provided protocol version and bitcoin network.  It returns the number
// of bytes read in addition to the parsed message and the raw payload.
//
// The header is read first to learn the payload length and then exactly that
// many payload bytes are read.  A frame for another network is rejected
// without reading its payload since the stream cannot be trusted to resync.
// Errors from r are returned unmodified so the caller can classify them;
// framing failures are returned as *Error with the ErrDecode code.
func readMessage(r io.Reader, pver uint32, btcnet wire.BitcoinNet) (int, wire.Message, []byte, error) {
	var raw [wire.MessageHeaderSize]byte
	totalBytes, err := io.ReadFull(r, raw[:])
	if err != nil {
		return totalBytes, nil, nil, err
	}
	hdr := parseMessageHeader(&raw)

	// Check for messages from the wrong bitcoin network.
	if hdr.magic != btcnet {
		return totalBytes, nil, nil, decodeError("message from other "+
			"network [%v], expected [%v]", hdr.magic, btcnet)
	}

	// Enforce maximum message payload.
	if hdr.length > wire.MaxMessagePayload {
		return totalBytes, nil, nil, decodeError("message payload is "+
			"too large - header indicates %d bytes, but max message "+
			"payload is %d bytes", hdr.length, wire.MaxMessagePayload)
	}

	// Check for malformed commands.
	if !utf8.ValidString(hdr.command) {
		return totalBytes, nil, nil, decodeError("invalid command %v",
			[]byte(hdr.command))
	}

	msg := makeEmptyMessage(hdr.command)

	// Check for maximum length based on the message type as a malicious
	// client could otherwise create a well-formed header and set the length
	// to max numbers in order to exhaust the machine's memory.
	mpl := msg.MaxPayloadLength(pver)
	if hdr.length > mpl {
		return totalBytes, nil, nil, decodeError("payload exceeds max "+
			"length - header indicates %v bytes, but max payload "+
			"size for messages of type [%v] is %v", hdr.length,
			hdr.command, mpl)
	}

	payload := make([]byte, hdr.length)
	n, err := io.ReadFull(r, payload)
	totalBytes += n
	if err != nil {
		return totalBytes, nil, nil, err
	}

	// Test checksum.
	checksum := chainhash.DoubleHashB(payload)[0:4]
	if !bytes.Equal(checksum, hdr.checksum[:]) {
		return totalBytes, nil, nil, decodeError("payload checksum "+
			"failed - header indicates %x, but actual checksum is %x",
			hdr.checksum, checksum)
	}

	// MsgVersion requires a *bytes.Buffer to detect its optional fields.
	err = msg.BtcDecode(bytes.NewBuffer(payload), pver, wire.BaseEncoding)
	if err != nil {
		return totalBytes, nil, nil, makeError(ErrDecode,
			fmt.Sprintf("malformed %s payload", hdr.command), err)
	}

	return totalBytes, msg, payload, nil
}

// encodeMessage returns the complete frame for msg: header followed by the
// payload.  The frame is assembled in memory so the caller can hand it to the
// socket in one write.
func encodeMessage(msg wire.Message, pver uint32, btcnet wire.BitcoinNet) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := wire.WriteMessageN(&buf, msg, pver, btcnet); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
