// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"testing"
	"time"

	"github.com/VanshulB/btcpeers/netparams"
	"github.com/VanshulB/btcpeers/peer"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, netparams.Mainnet, cfg.network)
	assert.Empty(t, cfg.ConnectPeers)
	assert.Equal(t, defaultDialTimeout, cfg.DialTimeout)
	assert.Equal(t, defaultReadTimeout, cfg.ReadTimeout)
	assert.Equal(t, defaultHandshakeTimeout, cfg.HandshakeTimeout)
	assert.Equal(t, defaultTimeout, cfg.Timeout)
	assert.Equal(t, peer.DefaultProtocolVersion, cfg.ProtocolVersion)
	assert.False(t, cfg.Permissive)
}

func TestLoadConfigNetworks(t *testing.T) {
	tests := []struct {
		args []string
		want netparams.Network
		port string
	}{
		{nil, netparams.Mainnet, "8333"},
		{[]string{"--testnet"}, netparams.Testnet, "18333"},
		{[]string{"--regtest"}, netparams.Regtest, "18444"},
		{[]string{"--signet"}, netparams.Signet, "38333"},
	}

	for _, test := range tests {
		args := append([]string{"-c", "192.0.2.1"}, test.args...)
		cfg, err := loadConfig(args)
		require.NoError(t, err, "%v", test.args)
		assert.Equal(t, test.want, cfg.network, "%v", test.args)
		assert.Equal(t, []string{"192.0.2.1:" + test.port},
			cfg.ConnectPeers, "%v", test.args)
		assert.Equal(t, test.want.Magic(), cfg.peerConfig().Net)
	}

	_, err := loadConfig([]string{"--testnet", "--signet"})
	assert.Error(t, err)

	_, err = loadConfig([]string{"--regtest", "--testnet", "--signet"})
	assert.Error(t, err)
}

func TestLoadConfigNetworkName(t *testing.T) {
	tests := []struct {
		name string
		want netparams.Network
	}{
		{"mainnet", netparams.Mainnet},
		{"bitcoin", netparams.Mainnet},
		{"testnet", netparams.Testnet},
		{"regtest", netparams.Regtest},
		{"signet", netparams.Signet},
	}

	for _, test := range tests {
		cfg, err := loadConfig([]string{"--network", test.name, "-c",
			"192.0.2.1"})
		require.NoError(t, err, test.name)
		assert.Equal(t, test.want, cfg.network, test.name)
		assert.Equal(t, []string{"192.0.2.1:" + test.want.DefaultPort()},
			cfg.ConnectPeers, test.name)
	}
}

func TestLoadConfigOptions(t *testing.T) {
	cfg, err := loadConfig([]string{
		"--connect=192.0.2.1:1234",
		"-c", "2001:db8::1",
		"-c", "192.0.2.1:1234",
		"--proxy=127.0.0.1:9050",
		"--proxyuser=alice",
		"--proxypass=secret",
		"--dialtimeout=3s",
		"--readtimeout=4s",
		"--handshaketimeout=5s",
		"--timeout=20s",
		"--permissive",
		"--protocolversion=70016",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"192.0.2.1:1234", "[2001:db8::1]:8333"},
		cfg.ConnectPeers)
	assert.Equal(t, 20*time.Second, cfg.Timeout)

	pcfg := cfg.peerConfig()
	assert.Equal(t, wire.MainNet, pcfg.Net)
	assert.Equal(t, "127.0.0.1:9050", pcfg.Proxy)
	assert.Equal(t, "alice", pcfg.ProxyUser)
	assert.Equal(t, "secret", pcfg.ProxyPass)
	assert.Equal(t, 3*time.Second, pcfg.DialTimeout)
	assert.Equal(t, 4*time.Second, pcfg.ReadTimeout)
	assert.Equal(t, 5*time.Second, pcfg.HandshakeTimeout)
	assert.True(t, pcfg.AllowUnsolicited)
	assert.Equal(t, uint32(70016), pcfg.ProtocolVersion)
	assert.Equal(t, peer.DefaultUserAgentVersion, pcfg.UserAgentVersion)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"version", []string{"-V"}, errShowVersion},
		{"show subsystems", []string{"-d", "show"}, errShowSubsystems},
		{"positional", []string{"192.0.2.1"}, nil},
		{"proxy user without proxy", []string{"--proxyuser=alice"}, nil},
		{"negative timeout", []string{"--timeout=-1s"}, nil},
		{"proxy without connect", []string{"--proxy=127.0.0.1:9050"}, nil},
		{"unknown network", []string{"--network=simnet"}, nil},
		{"network and flag", []string{"--network=testnet", "--regtest"}, nil},
		{"bad debug level", []string{"-d", "loud"}, nil},
		{"unknown flag", []string{"--bogus"}, nil},
	}

	for _, test := range tests {
		cfg, err := loadConfig(test.args)
		assert.Nil(t, cfg, test.name)
		if test.want != nil {
			assert.Equal(t, test.want, err, test.name)
			continue
		}
		assert.Error(t, err, test.name)
	}

	// Leave the loggers at their default level for the other tests.
	setLogLevels(defaultLogLevel)
}

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{"192.0.2.1", "192.0.2.1:8333"},
		{"192.0.2.1:18444", "192.0.2.1:18444"},
		{"2001:db8::1", "[2001:db8::1]:8333"},
		{"[2001:db8::1]:1", "[2001:db8::1]:1"},
		{"seed.example.org", "seed.example.org:8333"},
	}

	for _, test := range tests {
		assert.Equal(t, test.want, normalizeAddress(test.addr, "8333"))
	}
}

func TestParseAndSetDebugLevels(t *testing.T) {
	defer setLogLevels(defaultLogLevel)

	tests := []struct {
		in    string
		valid bool
	}{
		{"debug", true},
		{"trace", true},
		{"PEER=trace", true},
		{"PEER=trace,BTCP=warn", true},
		{"loud", false},
		{"PEER", false},
		{"PEER=debug,BTCP", false},
		{"NOPE=debug", false},
		{"PEER=loud", false},
	}

	for _, test := range tests {
		err := parseAndSetDebugLevels(test.in)
		if test.valid {
			assert.NoError(t, err, test.in)
		} else {
			assert.Error(t, err, test.in)
		}
	}

	assert.Equal(t, []string{"BTCP", "PEER"}, supportedSubsystems())
}
