// Copyright (c) 2013-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package netparams names the bitcoin networks a client can talk to and maps
// each one to its chain parameters: network magic, default port, DNS seeds
// and genesis block.
package netparams

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// Network identifies a bitcoin network.  The zero value is Mainnet.
type Network int

const (
	// Mainnet is the main bitcoin network.
	Mainnet Network = iota

	// Testnet is the public test network (version 3).
	Testnet

	// Regtest is the regression test network.
	Regtest

	// Signet is the default signet.
	Signet
)

// Map of Network values back to their names.
var networkStrings = map[Network]string{
	Mainnet: "mainnet",
	Testnet: "testnet",
	Regtest: "regtest",
	Signet:  "signet",
}

// InvalidNetworkError describes a network name or parameter set that does
// not identify a supported network.
type InvalidNetworkError struct {
	Name string
}

// Error satisfies the error interface.
func (e *InvalidNetworkError) Error() string {
	return fmt.Sprintf("invalid network: %s", e.Name)
}

// String returns the canonical name of the network.
func (n Network) String() string {
	if s, ok := networkStrings[n]; ok {
		return s
	}
	return fmt.Sprintf("Unknown Network (%d)", int(n))
}

// ParseNetwork returns the network with the given name.  "bitcoin" is
// accepted as an alias for mainnet.
func ParseNetwork(s string) (Network, error) {
	switch s {
	case "mainnet", "bitcoin":
		return Mainnet, nil
	case "testnet":
		return Testnet, nil
	case "regtest":
		return Regtest, nil
	case "signet":
		return Signet, nil
	}
	return 0, &InvalidNetworkError{Name: s}
}

// FromParams returns the network described by the chain parameters.
func FromParams(params *chaincfg.Params) (Network, error) {
	if params == nil {
		return 0, &InvalidNetworkError{Name: "<nil>"}
	}
	switch params.Net {
	case wire.MainNet:
		return Mainnet, nil
	case wire.TestNet3:
		return Testnet, nil
	case wire.TestNet:
		return Regtest, nil
	case chaincfg.SigNetParams.Net:
		return Signet, nil
	}
	return 0, &InvalidNetworkError{Name: params.Name}
}

// Params returns the chain parameters of the network.  Unknown values map to
// mainnet.
func (n Network) Params() *chaincfg.Params {
	switch n {
	case Testnet:
		return &chaincfg.TestNet3Params
	case Regtest:
		return &chaincfg.RegressionNetParams
	case Signet:
		return &chaincfg.SigNetParams
	}
	return &chaincfg.MainNetParams
}

// Magic returns the message start bytes of the network.
func (n Network) Magic() wire.BitcoinNet {
	return n.Params().Net
}

// DefaultPort returns the default peer-to-peer port of the network.
func (n Network) DefaultPort() string {
	return n.Params().DefaultPort
}

// GenesisHash returns the hash of the network's genesis block.
func (n Network) GenesisHash() *chainhash.Hash {
	return n.Params().GenesisHash
}

// GenesisBlock returns the network's genesis block.
func (n Network) GenesisBlock() *wire.MsgBlock {
	return n.Params().GenesisBlock
}

// DNSSeeds returns the hostnames of the network's DNS seeders.
func (n Network) DNSSeeds() []string {
	seeds := n.Params().DNSSeeds
	hosts := make([]string, 0, len(seeds))
	for _, seed := range seeds {
		hosts = append(hosts, seed.Host)
	}
	return hosts
}
