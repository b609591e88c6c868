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

// Package cmd is the evmcall CLI - a thin cobra/viper front-end over
// pkg/registry and pkg/ethrpc, for calling or sending to a single
// contract function from the command line.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/hyperledger/firefly-common/pkg/config"
	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-common/pkg/log"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lattice-chain/evmabi/internal/clientconfig"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "evmcall",
	Short: "Call or send to an Ethereum contract function from its ABI",
	Long:  ``,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "f", "", "config file")
	rootCmd.AddCommand(callCommand())
	rootCmd.AddCommand(sendCommand())
}

func Execute() error {
	return rootCmd.Execute()
}

// initConfig resets the config tree and reads cfgFile (if any) on top of it,
// returning a context with logging already attached.
func initConfig() (context.Context, error) {
	clientconfig.Reset()
	err := config.ReadConfig("evmcall", cfgFile)

	ctx := context.Background()
	ctx = log.WithLogger(ctx, logrus.WithField("pid", fmt.Sprintf("%d", os.Getpid())))
	ctx = log.WithLogger(ctx, logrus.WithField("prefix", "evmcall"))
	config.SetupLogging(ctx)

	if err != nil {
		return nil, i18n.WrapError(ctx, err, i18n.MsgConfigFailed)
	}
	return ctx, nil
}
