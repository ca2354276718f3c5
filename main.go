// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/jessevdk/go-flags"
)

// btcpeersMain is the real main function for btcpeers.  It is necessary to
// work around the fact that deferred functions do not run when os.Exit() is
// called.  It returns the process exit code.
func btcpeersMain() int {
	cfg, err := loadConfig(os.Args[1:])
	switch {
	case err == errShowVersion:
		fmt.Println(version())
		return 0

	case err == errShowSubsystems:
		fmt.Println("Supported subsystems", supportedSubsystems())
		return 0

	case err != nil:
		// go-flags already printed its own errors and the help text.
		if e, ok := err.(*flags.Error); ok {
			if e.Type == flags.ErrHelp {
				return 0
			}
			return 1
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	// Cancel every running query on interrupt.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	targets := cfg.ConnectPeers
	if len(targets) == 0 {
		target, err := seedFromDNS(ctx, cfg.network, dnsLookup)
		if err != nil {
			btcpLog.Errorf("Unable to find a peer to query: %v", err)
			return 1
		}
		targets = []string{target}
	}

	btcpLog.Infof("Querying %s on %v", strings.Join(targets, ", "),
		cfg.network)
	results := queryPeers(ctx, cfg.peerConfig(), targets, cfg.Timeout)
	if failed := printResults(os.Stdout, results); failed > 0 {
		return 1
	}
	return 0
}

func main() {
	os.Exit(btcpeersMain())
}
