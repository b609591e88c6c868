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

package abi

import (
	"context"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/lattice-chain/evmabi/internal/clientmsgs"
	"github.com/lattice-chain/evmabi/pkg/ethtypes"
)

// Contract pairs a parsed ABI with the bytecode and deployed address (if known)
// needed to actually deploy or call it - the unit of caching used by pkg/registry
// and the unit wrapped by pkg/ethrpc.Client.
type Contract struct {
	ABI      ABI                       `json:"abi"`
	Bytecode ethtypes.HexBytes0xPrefix `json:"bytecode,omitempty"`
	Address  *ethtypes.Address0xHex    `json:"address,omitempty"`
}

// NewUndeployedContract builds a Contract descriptor for deployment - bytecode
// is mandatory, as there is nothing to send to eth_sendTransaction without it.
func NewUndeployedContract(ctx context.Context, a ABI, bytecode ethtypes.HexBytes0xPrefix) (*Contract, error) {
	if len(bytecode) == 0 {
		return nil, i18n.NewError(ctx, clientmsgs.MsgEmptyBytecode)
	}
	return &Contract{ABI: a, Bytecode: bytecode}, nil
}

// NewDeployedContract builds a Contract descriptor for an already deployed instance,
// bound to a specific on-chain address - no bytecode is required, as deployment
// has already happened.
func NewDeployedContract(a ABI, address *ethtypes.Address0xHex) *Contract {
	return &Contract{ABI: a, Address: address}
}

// InputsFor validates a set of external constructor argument values against the
// ABI's constructor input template - spec.md's requirement that the supplied
// constructor args exactly match the declared constructor signature shape.
func (c *Contract) InputsFor(ctx context.Context, args interface{}) (*ComponentValue, error) {
	ctor := c.ABI.Constructor()
	if ctor == nil {
		return nil, nil
	}
	cv, err := ctor.Inputs.ParseExternalDataCtx(ctx, args)
	if err != nil {
		return nil, i18n.NewError(ctx, clientmsgs.MsgConstructorArgsInvalid, err)
	}
	return cv, nil
}

// DeployData builds the full transaction payload for deploying this contract -
// bytecode followed by ABI encoded constructor arguments, exactly as the EVM
// expects for a contract creation transaction.
func (c *Contract) DeployData(ctx context.Context, args interface{}) (ethtypes.HexBytes0xPrefix, error) {
	if len(c.Bytecode) == 0 {
		return nil, i18n.NewError(ctx, clientmsgs.MsgEmptyBytecode)
	}
	cv, err := c.InputsFor(ctx, args)
	if err != nil {
		return nil, err
	}
	data := append([]byte{}, c.Bytecode...)
	if cv != nil {
		encoded, err := cv.EncodeABIDataCtx(ctx)
		if err != nil {
			return nil, i18n.NewError(ctx, clientmsgs.MsgConstructorArgsInvalid, err)
		}
		data = append(data, encoded...)
	}
	return data, nil
}
