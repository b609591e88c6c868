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

// Package ethrpc builds 1559 call objects for a parsed contract descriptor and
// drives them through a JSON/RPC backend - eth_call, eth_estimateGas,
// eth_sendTransaction, and receipt polling.
package ethrpc

import (
	"bytes"
	"context"
	"math/big"
	"time"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-common/pkg/log"

	"github.com/lattice-chain/evmabi/internal/clientmsgs"
	"github.com/lattice-chain/evmabi/pkg/abi"
	"github.com/lattice-chain/evmabi/pkg/ethereum"
	"github.com/lattice-chain/evmabi/pkg/ethtypes"
	"github.com/lattice-chain/evmabi/pkg/rpcbackend"
)

const defaultReceiptPollInterval = 7500 * time.Millisecond

// Client wraps a JSON/RPC backend with the ABI of a specific contract, providing
// the function-name-and-arguments level call/send/estimate operations of spec.md §4.5.
type Client struct {
	backend             rpcbackend.Backend
	contract            *abi.Contract
	receiptPollInterval time.Duration
}

// New binds a backend and a contract descriptor together - one Client per deployed contract instance.
func New(backend rpcbackend.Backend, contract *abi.Contract) *Client {
	return &Client{
		backend:             backend,
		contract:            contract,
		receiptPollInterval: defaultReceiptPollInterval,
	}
}

// SetReceiptPollInterval overrides the fixed back-off used by WaitForReceipt.
func (c *Client) SetReceiptPollInterval(d time.Duration) {
	c.receiptPollInterval = d
}


// buildCallRequest resolves funcName against the contract ABI (including the
// receive/fallback special cases of spec.md §9), encodes args, and produces an
// unvalidated call object ready for eth_call/eth_estimateGas/eth_sendTransaction.
func (c *Client) buildCallRequest(ctx context.Context, from *ethtypes.Address0xHex, funcName string, args interface{}, value *big.Int) (*CallRequest, error) {
	req := &CallRequest{From: from}
	if c.contract.Address != nil {
		req.To = c.contract.Address
	}
	if value != nil && value.Sign() != 0 {
		req.Value = (*ethtypes.HexInteger)(value)
	}

	switch funcName {
	case "receive":
		if _, err := c.contract.ABI.Find(ctx, "receive"); err != nil {
			return nil, i18n.NewError(ctx, clientmsgs.MsgContractLacksReceive)
		}
		return req, nil
	case "fallback":
		if _, err := c.contract.ABI.Find(ctx, "fallback"); err != nil {
			return nil, i18n.NewError(ctx, clientmsgs.MsgContractLacksFallback)
		}
		if args != nil {
			if b, ok := args.(ethtypes.HexBytes0xPrefix); ok {
				req.Data = b
			} else if b, ok := args.([]byte); ok {
				req.Data = b
			} else {
				return nil, i18n.NewError(ctx, clientmsgs.MsgArgumentsToEmptyFunctionSig)
			}
		}
		return req, nil
	}

	entry, err := c.contract.ABI.Find(ctx, funcName)
	if err != nil {
		return nil, err
	}
	if value != nil && value.Sign() != 0 && entry.StateMutability != abi.Payable {
		return nil, i18n.NewError(ctx, clientmsgs.MsgValueToNonPayable, funcName)
	}
	if entry.StateMutability == abi.Payable && (value == nil || value.Sign() == 0) {
		log.L(ctx).Warnf("%s", i18n.NewError(ctx, clientmsgs.MsgPayableZeroValueWarning, funcName))
	}

	if args == nil && len(entry.Inputs) == 0 {
		args = []interface{}{}
	}
	cv, err := entry.Inputs.ParseExternalDataCtx(ctx, args)
	if err != nil {
		return nil, i18n.NewError(ctx, clientmsgs.MsgFunctionArgumentsMissing, funcName, len(entry.Inputs), 0)
	}
	data, err := entry.EncodeCallDataCtx(ctx, cv)
	if err != nil {
		return nil, err
	}
	req.Data = data
	return req, nil
}

// Call performs an eth_call against the given function, decoding the result against
// the function's declared outputs.
func (c *Client) Call(ctx context.Context, from *ethtypes.Address0xHex, funcName string, args interface{}, blockTag string) (*abi.ComponentValue, error) {
	req, err := c.buildCallRequest(ctx, from, funcName, args, nil)
	if err != nil {
		return nil, err
	}
	if err := req.Validate(ctx); err != nil {
		return nil, err
	}
	if blockTag == "" {
		blockTag = "latest"
	}
	var resultHex ethtypes.HexBytes0xPrefix
	if err := c.backend.CallRPC(ctx, &resultHex, "eth_call", req, blockTag); err != nil {
		return nil, err
	}
	entry, err := c.contract.ABI.Find(ctx, funcName)
	if err != nil {
		return nil, err
	}
	return entry.Outputs.DecodeABIDataCtx(ctx, resultHex, 0)
}

// EstimateGas performs an eth_estimateGas against the given function/value.
func (c *Client) EstimateGas(ctx context.Context, from *ethtypes.Address0xHex, funcName string, args interface{}, value *big.Int) (*ethtypes.HexInteger, error) {
	req, err := c.buildCallRequest(ctx, from, funcName, args, value)
	if err != nil {
		return nil, err
	}
	if err := req.Validate(ctx); err != nil {
		return nil, err
	}
	var gas ethtypes.HexInteger
	if err := c.backend.CallRPC(ctx, &gas, "eth_estimateGas", req); err != nil {
		return nil, err
	}
	return &gas, nil
}

// SendTransaction submits an eth_sendTransaction for the given function/value,
// returning the transaction hash.
func (c *Client) SendTransaction(ctx context.Context, from *ethtypes.Address0xHex, funcName string, args interface{}, value *big.Int) (ethtypes.HexBytes0xPrefix, error) {
	req, err := c.buildCallRequest(ctx, from, funcName, args, value)
	if err != nil {
		return nil, err
	}
	if err := req.Validate(ctx); err != nil {
		return nil, err
	}
	var txHash ethtypes.HexBytes0xPrefix
	if err := c.backend.CallRPC(ctx, &txHash, "eth_sendTransaction", req); err != nil {
		return nil, err
	}
	return txHash, nil
}

// WaitForReceipt polls eth_getTransactionReceipt on a fixed back-off until the node
// returns a non-null result, an error, or ctx is cancelled - there is no built-in
// deadline, matching spec.md §5's cooperative-cancellation-only receipt poller.
func (c *Client) WaitForReceipt(ctx context.Context, txHash ethtypes.HexBytes0xPrefix) (*ethereum.TXReceiptJSONRPC, error) {
	ticker := time.NewTicker(c.receiptPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, i18n.NewError(ctx, clientmsgs.MsgReceiptPollCancelled, txHash, ctx.Err())
		default:
		}
		var receipt *ethereum.TXReceiptJSONRPC
		err := c.backend.CallRPC(ctx, &receipt, "eth_getTransactionReceipt", txHash)
		if err != nil {
			return nil, err
		}
		if receipt != nil {
			return receipt, nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, i18n.NewError(ctx, clientmsgs.MsgReceiptPollCancelled, txHash, ctx.Err())
		}
	}
}

// GetLogs performs an eth_getLogs query and decodes each returned log against the
// contract's event ABI, matching spec.md §4.4's event-decoding semantics against
// the real eth_getLogs wire shape rather than a synthetic one.
func (c *Client) GetLogs(ctx context.Context, filter *ethereum.LogFilterJSONRPC) ([]*DecodedLog, error) {
	if filter.Address == nil && c.contract.Address != nil {
		filter.Address = c.contract.Address
	}
	var logs []*ethereum.LogJSONRPC
	if err := c.backend.CallRPC(ctx, &logs, "eth_getLogs", filter); err != nil {
		return nil, err
	}
	events := c.contract.ABI.Events()
	decoded := make([]*DecodedLog, 0, len(logs))
	for _, l := range logs {
		d := &DecodedLog{Log: l}
		if len(l.Topics) > 0 {
			for _, entry := range events {
				topic0, err := entry.EventTopic0Ctx(ctx)
				if err != nil {
					continue
				}
				if bytes.Equal(topic0, l.Topics[0]) {
					cv, err := entry.DecodeEventDataCtx(ctx, l.Topics, l.Data)
					if err == nil {
						d.Event = entry
						d.Data = cv
					}
					break
				}
			}
		}
		decoded = append(decoded, d)
	}
	return decoded, nil
}

// DecodedLog pairs a raw eth_getLogs entry with the ABI event it matched, if any -
// Event/Data are nil when no event in the contract ABI produced this log's topic0.
type DecodedLog struct {
	Log   *ethereum.LogJSONRPC
	Event *abi.Entry
	Data  *abi.ComponentValue
}
