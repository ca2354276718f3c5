// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/VanshulB/btcpeers/netparams"
	"github.com/VanshulB/btcpeers/peer"
	"github.com/jessevdk/go-flags"
)

const (
	defaultLogLevel         = "info"
	defaultDialTimeout      = peer.DefaultDialTimeout
	defaultReadTimeout      = peer.DefaultReadTimeout
	defaultHandshakeTimeout = peer.DefaultHandshakeTimeout
	defaultTimeout          = time.Minute
)

// appName is the name of the binary, used in usage and version output.
var appName = strings.TrimSuffix(filepath.Base(os.Args[0]),
	filepath.Ext(os.Args[0]))

// config defines the configuration options for btcpeers.
//
// See loadConfig for details on the configuration load process.
type config struct {
	ShowVersion      bool          `short:"V" long:"version" description:"Display version information and exit"`
	ConnectPeers     []string      `short:"c" long:"connect" description:"Query this peer (host[:port], the port defaults to the network's) -- may be specified multiple times; without it the network's DNS seeds are used"`
	Network          string        `long:"network" description:"Network to use by name {mainnet, bitcoin, testnet, regtest, signet}"`
	TestNet3         bool          `long:"testnet" description:"Use the test network"`
	RegressionTest   bool          `long:"regtest" description:"Use the regression test network"`
	SigNet           bool          `long:"signet" description:"Use the signet test network"`
	Proxy            string        `long:"proxy" description:"Connect via SOCKS5 proxy (eg. 127.0.0.1:9050)"`
	ProxyUser        string        `long:"proxyuser" description:"Username for proxy server"`
	ProxyPass        string        `long:"proxypass" default-mask:"-" description:"Password for proxy server"`
	DialTimeout      time.Duration `long:"dialtimeout" description:"How long to wait for a TCP connection to be established"`
	ReadTimeout      time.Duration `long:"readtimeout" description:"How long to wait for each message from the peer"`
	HandshakeTimeout time.Duration `long:"handshaketimeout" description:"How long the version/verack exchange may take"`
	Timeout          time.Duration `long:"timeout" description:"Upper bound on each whole peer query, 0 for none"`
	Permissive       bool          `long:"permissive" description:"Skip ping, sendheaders and similar unsolicited messages instead of failing the query"`
	ProtocolVersion  uint32        `long:"protocolversion" description:"Protocol version to advertise"`
	DebugLevel       string        `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`

	network netparams.Network
}

// version returns the application version as a properly formed string.
func version() string {
	return fmt.Sprintf("%s version %s (Go version %s %s/%s)", appName,
		peer.DefaultUserAgentVersion, runtime.Version(), runtime.GOOS,
		runtime.GOARCH)
}

// normalizeAddress returns addr with the passed default port appended if
// there is not already a port specified.
func normalizeAddress(addr, defaultPort string) string {
	_, _, err := net.SplitHostPort(addr)
	if err != nil {
		return net.JoinHostPort(addr, defaultPort)
	}
	return addr
}

// normalizeAddresses returns a new slice with all the passed peer addresses
// normalized with the given default port, and all duplicates removed.
func normalizeAddresses(addrs []string, defaultPort string) []string {
	result := make([]string, 0, len(addrs))
	seen := map[string]struct{}{}
	for _, addr := range addrs {
		addr = normalizeAddress(addr, defaultPort)
		if _, ok := seen[addr]; !ok {
			result = append(result, addr)
			seen[addr] = struct{}{}
		}
	}

	return result
}

// peerConfig returns the session configuration the options describe.
func (cfg *config) peerConfig() *peer.Config {
	return &peer.Config{
		Net:              cfg.network.Magic(),
		Proxy:            cfg.Proxy,
		ProxyUser:        cfg.ProxyUser,
		ProxyPass:        cfg.ProxyPass,
		UserAgentName:    appName,
		UserAgentVersion: peer.DefaultUserAgentVersion,
		ProtocolVersion:  cfg.ProtocolVersion,
		DialTimeout:      cfg.DialTimeout,
		ReadTimeout:      cfg.ReadTimeout,
		HandshakeTimeout: cfg.HandshakeTimeout,
		AllowUnsolicited: cfg.Permissive,
	}
}

// errShowVersion and errShowSubsystems ask the caller to print the
// corresponding information and exit successfully.
var (
	errShowVersion    = errors.New("show version")
	errShowSubsystems = errors.New("show subsystems")
)

// loadConfig initializes and parses the config using command line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Override with the command line options
//  3. Validate the result and derive the active network
//
// The above results in btcpeers functioning properly without any options
// while still allowing the user to override settings with the command line.
func loadConfig(args []string) (*config, error) {
	// Default config.
	cfg := config{
		DebugLevel:       defaultLogLevel,
		DialTimeout:      defaultDialTimeout,
		ReadTimeout:      defaultReadTimeout,
		HandshakeTimeout: defaultHandshakeTimeout,
		Timeout:          defaultTimeout,
		ProtocolVersion:  peer.DefaultProtocolVersion,
	}

	parser := flags.NewParser(&cfg, flags.Default)
	remainingArgs, err := parser.ParseArgs(args)
	if err != nil {
		return nil, err
	}

	// Show the version and exit if the version flag was specified.
	if cfg.ShowVersion {
		return nil, errShowVersion
	}

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		return nil, errShowSubsystems
	}

	if len(remainingArgs) > 0 {
		return nil, fmt.Errorf("%s: unexpected arguments %v -- use "+
			"--connect to specify peers", appName, remainingArgs)
	}

	// Multiple networks can't be selected simultaneously.
	numNets := 0
	cfg.network = netparams.Mainnet
	if cfg.Network != "" {
		network, err := netparams.ParseNetwork(cfg.Network)
		if err != nil {
			return nil, fmt.Errorf("%s: %v", appName, err)
		}
		numNets++
		cfg.network = network
	}
	if cfg.TestNet3 {
		numNets++
		cfg.network = netparams.Testnet
	}
	if cfg.RegressionTest {
		numNets++
		cfg.network = netparams.Regtest
	}
	if cfg.SigNet {
		numNets++
		cfg.network = netparams.Signet
	}
	if numNets > 1 {
		return nil, fmt.Errorf("%s: the network, testnet, regtest, "+
			"and signet params can't be used together -- choose "+
			"one of the four", appName)
	}

	// Parse, validate, and set debug log level(s).
	if err := parseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		return nil, fmt.Errorf("%s: %v", appName, err)
	}

	if cfg.ProxyUser != "" || cfg.ProxyPass != "" {
		if cfg.Proxy == "" {
			return nil, fmt.Errorf("%s: --proxyuser and --proxypass "+
				"require --proxy", appName)
		}
	}

	// DNS seeding would resolve the seeds outside the proxy, so peers
	// must be given explicitly.
	if cfg.Proxy != "" && len(cfg.ConnectPeers) == 0 {
		return nil, fmt.Errorf("%s: --proxy requires --connect since "+
			"DNS seeds can't be resolved through the proxy", appName)
	}

	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("%s: the timeout may not be negative",
			appName)
	}

	// Add default port to all peer addresses if needed and remove
	// duplicate addresses.
	cfg.ConnectPeers = normalizeAddresses(cfg.ConnectPeers,
		cfg.network.DefaultPort())

	return &cfg, nil
}
