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

package ensutil

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/sha3"
)

// referenceNamehash is an independent re-implementation of EIP-137's recursive
// namehash, used to check Namehash without relying on hard-coded hash literals.
func referenceNamehash(name string) []byte {
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

func TestNamehashRoot(t *testing.T) {
	assert.Equal(t, make([]byte, 32), []byte(Namehash("")))
}

func TestNamehashMatchesReference(t *testing.T) {
	for _, name := range []string{"eth", "foo.eth", "a.b.c.eth"} {
		assert.Equal(t, referenceNamehash(name), []byte(Namehash(name)), name)
	}
}

func TestNamehashDiffersByCase(t *testing.T) {
	assert.NotEqual(t, []byte(Namehash("Foo.eth")), []byte(Namehash("foo.eth")))
}

func TestNamehashIsDeterministic(t *testing.T) {
	assert.Equal(t, []byte(Namehash("foo.eth")), []byte(Namehash("foo.eth")))
}

func TestValidateNameOK(t *testing.T) {
	assert.NoError(t, ValidateName(context.Background(), ""))
	assert.NoError(t, ValidateName(context.Background(), "foo.eth"))
}

func TestValidateNameEmptyLabel(t *testing.T) {
	err := ValidateName(context.Background(), "foo..eth")
	assert.Regexp(t, "FF22093", err)
}

func TestValidateNameLeadingDot(t *testing.T) {
	err := ValidateName(context.Background(), ".eth")
	assert.Regexp(t, "FF22093", err)
}
