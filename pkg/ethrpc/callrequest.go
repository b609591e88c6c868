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

package ethrpc

import (
	"context"
	"encoding/json"
	"regexp"

	"github.com/hyperledger/firefly-common/pkg/i18n"

	"github.com/lattice-chain/evmabi/internal/clientmsgs"
	"github.com/lattice-chain/evmabi/pkg/ethtypes"
)

// CallRequest models a 1559 call object - every field is omitted (rather than
// serialized null) when unset, matching what node JSON-RPC implementations expect.
type CallRequest struct {
	Type                 *ethtypes.HexUint64       `json:"type,omitempty"`
	Nonce                *ethtypes.HexInteger      `json:"nonce,omitempty"`
	To                   *ethtypes.Address0xHex    `json:"to,omitempty"`
	From                 *ethtypes.Address0xHex    `json:"from,omitempty"`
	Gas                  *ethtypes.HexInteger      `json:"gas,omitempty"`
	Value                *ethtypes.HexInteger      `json:"value,omitempty"`
	Data                 ethtypes.HexBytes0xPrefix `json:"data,omitempty"`
	MaxPriorityFeePerGas *ethtypes.HexInteger      `json:"maxPriorityFeePerGas,omitempty"`
	MaxFeePerGas         *ethtypes.HexInteger      `json:"maxFeePerGas,omitempty"`
	ChainID              *ethtypes.HexInteger      `json:"chainId,omitempty"`
}

var (
	patternType    = regexp.MustCompile(`^0x([0-9a-fA-F]){1,2}$`)
	patternQty     = regexp.MustCompile(`^0x([1-9a-fA-F]+[0-9a-fA-F]*|0)$`)
	patternAddress = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	patternData    = regexp.MustCompile(`^0x([0-9a-fA-F]{2})*$`)
)

// fieldPattern is the subset of CallRequest.json field names that get regex-level validation,
// mapped to the pattern each must match once rendered to its hex string form.
var fieldPattern = map[string]*regexp.Regexp{
	"type":                 patternType,
	"nonce":                patternQty,
	"to":                   patternAddress,
	"from":                 patternAddress,
	"gas":                  patternQty,
	"value":                patternQty,
	"data":                 patternData,
	"maxPriorityFeePerGas": patternQty,
	"maxFeePerGas":         patternQty,
	"chainId":              patternQty,
}

// Validate re-serializes the call request to its wire JSON form, and checks every
// field present against its regex - the same sanity check a node's RPC layer would
// reject the request for, performed client-side so errors surface before the round trip.
func (c *CallRequest) Validate(ctx context.Context) error {
	b, err := json.Marshal(c)
	if err != nil {
		return i18n.NewError(ctx, clientmsgs.MsgInvalidCallObjectField, "*", "", err.Error())
	}
	var asMap map[string]interface{}
	if err := json.Unmarshal(b, &asMap); err != nil {
		return i18n.NewError(ctx, clientmsgs.MsgInvalidCallObjectField, "*", "", err.Error())
	}
	for field, pattern := range fieldPattern {
		v, ok := asMap[field]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok || !pattern.MatchString(s) {
			return i18n.NewError(ctx, clientmsgs.MsgInvalidCallObjectField, field, v, pattern.String())
		}
	}
	return nil
}
