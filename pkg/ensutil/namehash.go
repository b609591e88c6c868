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

package ensutil

import (
	"context"
	"strings"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/lattice-chain/evmabi/internal/clientmsgs"
	"github.com/lattice-chain/evmabi/pkg/ethtypes"
	"golang.org/x/crypto/sha3"
)

// Namehash implements the ENS recursive namehash algorithm (EIP-137), folding
// a dotted name into a single 32 byte node - the root node (empty name) is
// 32 zero bytes, and each label is combined in as keccak256(node + keccak256(label)).
//
// No IDNA normalisation is applied - names are hashed as the raw UTF-8 label
// bytes supplied by the caller.
func Namehash(name string) ethtypes.HexBytes0xPrefix {
	node := make([]byte, 32)
	if name == "" {
		return node
	}
	labels := strings.Split(name, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		labelHash := sha3.NewLegacyKeccak256()
		labelHash.Write([]byte(labels[i]))

		nodeHash := sha3.NewLegacyKeccak256()
		nodeHash.Write(node)
		nodeHash.Write(labelHash.Sum(nil))
		node = nodeHash.Sum(nil)
	}
	return node
}

// ValidateName performs the minimal structural check spec.md §6 requires -
// no label may be empty, as it would make the hash ambiguous with the
// following label's separator.
func ValidateName(ctx context.Context, name string) error {
	if name == "" {
		return nil
	}
	for _, label := range strings.Split(name, ".") {
		if label == "" {
			return i18n.NewError(ctx, clientmsgs.MsgInvalidENSName, name)
		}
	}
	return nil
}
