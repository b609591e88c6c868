// Copyright © 2022 Kaleido, Inc.
//
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package registry provides an in-memory, LRU-bounded cache of parsed
// contract descriptors, keyed by chain and address, so that a long running
// client does not re-parse and re-validate the same ABI JSON on every call.
package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/karlseguin/ccache"

	"github.com/lattice-chain/evmabi/internal/clientmsgs"
	"github.com/lattice-chain/evmabi/pkg/abi"
	"github.com/lattice-chain/evmabi/pkg/ethtypes"
)

// Registry caches immutable *abi.Contract descriptors, so that parsing and
// function-selector validation (abi.ABI.Validate) only happens once per
// distinct contract, no matter how many calls are subsequently made to it.
type Registry struct {
	cache *ccache.Cache
	ttl   time.Duration
}

// New creates a registry bounded to maxEntries descriptors, evicted least-recently-used first.
func New(maxEntries int64, ttl time.Duration) *Registry {
	return &Registry{
		cache: ccache.New(ccache.Configure().MaxSize(maxEntries)),
		ttl:   ttl,
	}
}

func cacheKey(chainID int64, address ethtypes.Address0xHex) string {
	return fmt.Sprintf("%d/%s", chainID, address)
}

// RegisterDeployed parses abiJSON (if not already cached for this chain+address)
// and stores the resulting descriptor against the deployed address.
func (r *Registry) RegisterDeployed(ctx context.Context, chainID int64, address ethtypes.Address0xHex, abiJSON []byte) (*abi.Contract, error) {
	key := cacheKey(chainID, address)
	if item := r.cache.Get(key); item != nil {
		item.Extend(r.ttl)
		return item.Value().(*abi.Contract), nil
	}
	if err := abi.ValidateABIJSON(ctx, abiJSON); err != nil {
		return nil, err
	}
	a, err := abi.ParseABI(abiJSON)
	if err != nil {
		return nil, err
	}
	if err := a.ValidateCtx(ctx); err != nil {
		return nil, err
	}
	addrCopy := address
	c := abi.NewDeployedContract(a, &addrCopy)
	r.cache.Set(key, c, r.ttl)
	return c, nil
}

// Lookup returns the cached descriptor for chainID+address, or
// MsgRegistryContractNotFound if nothing has been registered for it yet.
func (r *Registry) Lookup(ctx context.Context, chainID int64, address ethtypes.Address0xHex) (*abi.Contract, error) {
	key := cacheKey(chainID, address)
	item := r.cache.Get(key)
	if item == nil {
		return nil, i18n.NewError(ctx, clientmsgs.MsgRegistryContractNotFound, chainID, address)
	}
	item.Extend(r.ttl)
	return item.Value().(*abi.Contract), nil
}

// Evict removes a single descriptor from the cache - used when a contract is
// known to have been redeployed/upgraded at the same address (e.g. behind a proxy).
func (r *Registry) Evict(chainID int64, address ethtypes.Address0xHex) {
	r.cache.Delete(cacheKey(chainID, address))
}
