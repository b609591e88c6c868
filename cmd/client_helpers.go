// Copyright © 2024 Kaleido, Inc.
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

package cmd

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/hyperledger/firefly-common/pkg/ffresty"

	"github.com/lattice-chain/evmabi/internal/clientconfig"
	"github.com/lattice-chain/evmabi/pkg/ethrpc"
	"github.com/lattice-chain/evmabi/pkg/ethtypes"
	"github.com/lattice-chain/evmabi/pkg/registry"
	"github.com/lattice-chain/evmabi/pkg/rpcbackend"
)

// buildClient wires an RPC backend, contract registry and ethrpc.Client together for
// a single invocation of the CLI - every subcommand needs the same three pieces, just
// against a different deployed address.
func buildClient(ctx context.Context, abiFile string, address string, chainID int64) (*ethrpc.Client, error) {
	abiJSON, err := os.ReadFile(abiFile)
	if err != nil {
		return nil, err
	}

	restyClient, err := ffresty.New(ctx, clientconfig.BackendConfig)
	if err != nil {
		return nil, err
	}
	backend := rpcbackend.NewRPCClient(restyClient)

	reg := registry.New(
		clientconfig.RegistryConfig.GetInt64(clientconfig.ConfigRegistryCacheSize),
		time.Hour,
	)
	addr, err := ethtypes.NewAddress(address)
	if err != nil {
		return nil, err
	}
	contract, err := reg.RegisterDeployed(ctx, chainID, *addr, abiJSON)
	if err != nil {
		return nil, err
	}

	return ethrpc.New(backend, contract), nil
}

// parseArgs decodes a JSON array/object of function arguments from a command line
// flag value - the same shape ParameterArray.ParseExternalJSON already accepts.
func parseArgs(raw string) (interface{}, error) {
	if raw == "" {
		return nil, nil
	}
	var args interface{}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, err
	}
	return args, nil
}
