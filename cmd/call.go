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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lattice-chain/evmabi/pkg/abi"
	"github.com/lattice-chain/evmabi/pkg/ethtypes"
)

var (
	callABIFile   string
	callAddress   string
	callChainID   int64
	callFrom      string
	callMethod    string
	callParamsRaw string
	callBlockTag  string
)

func callCommand() *cobra.Command {
	callCmd := &cobra.Command{
		Use:   "call",
		Short: "Performs a read-only eth_call against a contract function",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := initConfig()
			if err != nil {
				return err
			}
			client, err := buildClient(ctx, callABIFile, callAddress, callChainID)
			if err != nil {
				return err
			}
			funcArgs, err := parseArgs(callParamsRaw)
			if err != nil {
				return err
			}
			var from *ethtypes.Address0xHex
			if callFrom != "" {
				from, err = ethtypes.NewAddress(callFrom)
				if err != nil {
					return err
				}
			}
			result, err := client.Call(ctx, from, callMethod, funcArgs, callBlockTag)
			if err != nil {
				return err
			}
			resultJSON, err := abi.NewSerializer().SerializeJSON(result)
			if err != nil {
				return err
			}
			fmt.Println(string(resultJSON))
			return nil
		},
	}
	callCmd.Flags().StringVarP(&callABIFile, "abi", "a", "", "path to the contract ABI JSON file")
	callCmd.Flags().StringVar(&callAddress, "address", "", "deployed contract address")
	callCmd.Flags().Int64Var(&callChainID, "chain-id", 1, "chain ID, used only for the registry cache key")
	callCmd.Flags().StringVar(&callFrom, "from", "", "sender address")
	callCmd.Flags().StringVarP(&callMethod, "method", "m", "", "name of the function to call")
	callCmd.Flags().StringVarP(&callParamsRaw, "params", "p", "", "function arguments, as a JSON array or object")
	callCmd.Flags().StringVar(&callBlockTag, "block", "latest", "block tag to call against")
	_ = callCmd.MarkFlagRequired("abi")
	_ = callCmd.MarkFlagRequired("address")
	_ = callCmd.MarkFlagRequired("method")
	return callCmd
}
