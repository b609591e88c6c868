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
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/spf13/cobra"

	"github.com/lattice-chain/evmabi/pkg/ethtypes"
)

var (
	sendABIFile   string
	sendAddress   string
	sendChainID   int64
	sendFrom      string
	sendMethod    string
	sendParamsRaw string
	sendValue     string
	sendWait      bool
)

func sendCommand() *cobra.Command {
	sendCmd := &cobra.Command{
		Use:   "send",
		Short: "Submits an eth_sendTransaction for a contract function, optionally waiting for the receipt",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := initConfig()
			if err != nil {
				return err
			}
			client, err := buildClient(ctx, sendABIFile, sendAddress, sendChainID)
			if err != nil {
				return err
			}
			funcArgs, err := parseArgs(sendParamsRaw)
			if err != nil {
				return err
			}
			from, err := ethtypes.NewAddress(sendFrom)
			if err != nil {
				return err
			}
			value := big.NewInt(0)
			if sendValue != "" {
				if _, ok := value.SetString(sendValue, 10); !ok {
					return fmt.Errorf("invalid value: %s", sendValue)
				}
			}
			txHash, err := client.SendTransaction(ctx, from, sendMethod, funcArgs, value)
			if err != nil {
				return err
			}
			if !sendWait {
				fmt.Println(txHash.String())
				return nil
			}
			receipt, err := client.WaitForReceipt(ctx, txHash)
			if err != nil {
				return err
			}
			receiptJSON, err := json.Marshal(receipt)
			if err != nil {
				return err
			}
			fmt.Println(string(receiptJSON))
			return nil
		},
	}
	sendCmd.Flags().StringVarP(&sendABIFile, "abi", "a", "", "path to the contract ABI JSON file")
	sendCmd.Flags().StringVar(&sendAddress, "address", "", "deployed contract address")
	sendCmd.Flags().Int64Var(&sendChainID, "chain-id", 1, "chain ID, used only for the registry cache key")
	sendCmd.Flags().StringVar(&sendFrom, "from", "", "sender address - must already be unlocked/configured on the node")
	sendCmd.Flags().StringVarP(&sendMethod, "method", "m", "", "name of the function to call")
	sendCmd.Flags().StringVarP(&sendParamsRaw, "params", "p", "", "function arguments, as a JSON array or object")
	sendCmd.Flags().StringVar(&sendValue, "value", "", "wei value to send, for payable functions")
	sendCmd.Flags().BoolVar(&sendWait, "wait", false, "block until the transaction receipt is available")
	_ = sendCmd.MarkFlagRequired("abi")
	_ = sendCmd.MarkFlagRequired("address")
	_ = sendCmd.MarkFlagRequired("from")
	_ = sendCmd.MarkFlagRequired("method")
	return sendCmd
}
