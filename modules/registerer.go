// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package modules maintains the registry of stateful precompile modules,
// keeping registration deterministic and confined to reserved address space.
package modules

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/autolp/contract"
)

// Module pairs a precompile contract with its address and configuration hooks.
type Module struct {
	// ConfigKey is the key under which this module's config appears in the
	// chain config JSON.
	ConfigKey string
	// Address the precompile responds at.
	Address common.Address
	// Contract is the precompile implementation.
	Contract contract.StatefulPrecompiledContract
	// Configurator parses and applies this module's config.
	Configurator contract.Configurator
}

type moduleArray []Module

func (m moduleArray) Len() int      { return len(m) }
func (m moduleArray) Swap(i, j int) { m[i], m[j] = m[j], m[i] }
func (m moduleArray) Less(i, j int) bool {
	return bytes.Compare(m[i].Address.Bytes(), m[j].Address.Bytes()) < 0
}

// AddressRange represents a continuous range of addresses
type AddressRange struct {
	Start common.Address
	End   common.Address
}

// Contains returns true iff [addr] is contained within the (inclusive)
// range of addresses defined by [a].
func (a *AddressRange) Contains(addr common.Address) bool {
	addrBytes := addr.Bytes()
	return bytes.Compare(addrBytes, a.Start[:]) >= 0 && bytes.Compare(addrBytes, a.End[:]) <= 0
}

// BlackholeAddr is the address where assets are burned
var BlackholeAddr = common.Address{
	1, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

var (
	// registeredModules is a list of Module to preserve order
	// for deterministic iteration
	registeredModules = make([]Module, 0)

	// Reserved address ranges for stateful precompiles.
	//
	// Addresses use the trailing-significant 20-byte format
	// 0x0000...0000XXXX where the low 16 bits identify the precompile.
	// 0x9000-0x9FFF is the DEX/markets family; position automation lives
	// at 0x9090 inside it.
	reservedRanges = []AddressRange{
		// DEX/Markets family (position automation, routers, pool views)
		{
			Start: common.HexToAddress("0x0000000000000000000000000000000000009000"),
			End:   common.HexToAddress("0x0000000000000000000000000000000000009fff"),
		},
		// Legacy high-byte DEX range kept for migration
		{
			Start: common.HexToAddress("0x0400000000000000000000000000000000000000"),
			End:   common.HexToAddress("0x04000000000000000000000000000000000000ff"),
		},
	}
)

// ReservedAddress returns true if [addr] is in a reserved range for custom precompiles
func ReservedAddress(addr common.Address) bool {
	for _, reservedRange := range reservedRanges {
		if reservedRange.Contains(addr) {
			return true
		}
	}

	return false
}

// RegisterModule registers a stateful precompile module
func RegisterModule(stm Module) error {
	address := stm.Address
	key := stm.ConfigKey

	if address == BlackholeAddr {
		return fmt.Errorf("address %s overlaps with blackhole address", address)
	}
	if !ReservedAddress(address) {
		return fmt.Errorf("address %s not in a reserved range", address)
	}

	for _, registeredModule := range registeredModules {
		if registeredModule.ConfigKey == key {
			return fmt.Errorf("name %s already used by a stateful precompile", key)
		}
		if registeredModule.Address == address {
			return fmt.Errorf("address %s already used by a stateful precompile", address)
		}
	}
	// sort by address to ensure deterministic iteration
	registeredModules = insertSortedByAddress(registeredModules, stm)
	return nil
}

func GetPrecompileModuleByAddress(address common.Address) (Module, bool) {
	for _, stm := range registeredModules {
		if stm.Address == address {
			return stm, true
		}
	}
	return Module{}, false
}

func GetPrecompileModule(key string) (Module, bool) {
	for _, stm := range registeredModules {
		if stm.ConfigKey == key {
			return stm, true
		}
	}
	return Module{}, false
}

func RegisteredModules() []Module {
	return registeredModules
}

func insertSortedByAddress(data []Module, stm Module) []Module {
	data = append(data, stm)
	sort.Sort(moduleArray(data))
	return data
}
