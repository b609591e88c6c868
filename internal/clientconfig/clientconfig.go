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

// Package clientconfig holds the global configuration tree for the evmcall
// CLI and anything else embedding the rpcbackend/registry packages.
package clientconfig

import (
	"github.com/hyperledger/firefly-common/pkg/config"
	"github.com/hyperledger/firefly-common/pkg/wsclient"
	"github.com/spf13/viper"

	"github.com/lattice-chain/evmabi/pkg/rpcbackend"
)

var ffc = config.AddRootKey

var (
	// ChainID optionally pins the Chain ID manually (otherwise queried from the node)
	ChainID = ffc("chainId")
)

const (
	// ConfigRegistryCacheSize bounds the number of contract descriptors cached in memory
	ConfigRegistryCacheSize = "cacheSize"
)

const DefaultRegistryCacheSize = 1000

var BackendConfig config.Section

var RegistryConfig config.Section

func setDefaults() {
	viper.SetDefault(string(ChainID), -1)
}

func Reset() {
	config.RootConfigReset(setDefaults)

	BackendConfig = config.RootSection("backend")
	wsclient.InitConfig(BackendConfig)
	rpcbackend.InitConfig(BackendConfig)

	RegistryConfig = config.RootSection("registry")
	RegistryConfig.AddKnownKey(ConfigRegistryCacheSize, DefaultRegistryCacheSize)
}
