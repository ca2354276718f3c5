// Copyright (c) 2013-2014 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/VanshulB/btcpeers/netparams"
	"github.com/VanshulB/btcpeers/peer"
	"github.com/btcsuite/btcd/addrmgr"
	"github.com/btcsuite/btcd/wire"
)

// lookupFunc resolves a host name to its IP addresses.
type lookupFunc func(ctx context.Context, host string) ([]net.IP, error)

// dnsLookup resolves host with the default resolver.
func dnsLookup(ctx context.Context, host string) ([]net.IP, error) {
	return net.DefaultResolver.LookupIP(ctx, "ip", host)
}

// errNoSeedPeers is returned when no DNS seed of the network resolves.
var errNoSeedPeers = errors.New("no peers found from DNS seeds")

// seedFromDNS returns one peer address learned from the network's DNS seeds.
// The seeds are tried in order and the first address of the first seed that
// answers is used.
func seedFromDNS(ctx context.Context, network netparams.Network, lookup lookupFunc) (string, error) {
	seeds := network.DNSSeeds()
	if len(seeds) == 0 {
		return "", fmt.Errorf("%v has no DNS seeds -- use --connect",
			network)
	}

	for _, seeder := range seeds {
		seedpeers, err := lookup(ctx, seeder)
		if err != nil {
			btcpLog.Infof("DNS discovery failed on seed %s: %v", seeder,
				err)
			continue
		}
		btcpLog.Infof("%d addresses found from DNS seed %s",
			len(seedpeers), seeder)
		if len(seedpeers) == 0 {
			continue
		}
		return net.JoinHostPort(seedpeers[0].String(),
			network.DefaultPort()), nil
	}

	return "", errNoSeedPeers
}

// wireToAddrmgrNetAddress converts a legacy addr entry into the address
// type the address manager keys on.
func wireToAddrmgrNetAddress(netAddr *wire.NetAddress) *wire.NetAddressV2 {
	return wire.NetAddressV2FromBytes(netAddr.Timestamp, netAddr.Services,
		netAddr.IP, netAddr.Port)
}

// queryResult is the outcome of a single peer query.
type queryResult struct {
	target string
	addrs  []*wire.NetAddress
	err    error
}

// queryPeers runs one independent session per target concurrently and
// returns the results in target order.  A positive timeout bounds each
// session.
func queryPeers(ctx context.Context, pcfg *peer.Config, targets []string, timeout time.Duration) []queryResult {
	results := make([]queryResult, len(targets))

	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Add(1)
		go func(i int, target string) {
			defer wg.Done()

			sctx := ctx
			if timeout > 0 {
				var cancel context.CancelFunc
				sctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			addrs, err := peer.FetchPeers(sctx, pcfg, target)
			results[i] = queryResult{target: target, addrs: addrs, err: err}
		}(i, target)
	}
	wg.Wait()

	return results
}

// printResults writes the addresses of every successful query to w and logs
// the failed ones.  It returns the number of failed queries.
func printResults(w io.Writer, results []queryResult) int {
	var failed int
	for _, r := range results {
		if r.err != nil {
			btcpLog.Errorf("Query of %s failed: %v", r.target, r.err)
			failed++
			continue
		}

		btcpLog.Infof("Peer %s returned %d addresses", r.target,
			len(r.addrs))
		for _, na := range r.addrs {
			fmt.Fprintf(w, "%s services=%v lastseen=%s\n",
				addrmgr.NetAddressKey(wireToAddrmgrNetAddress(na)),
				na.Services, na.Timestamp.UTC().Format(time.RFC3339))
		}
	}
	return failed
}
