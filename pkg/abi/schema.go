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

package abi

import (
	"context"
	"encoding/json"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/lattice-chain/evmabi/internal/clientmsgs"
)

// abiDocumentSchema catches gross shape errors (not an array, entries missing a
// type) in raw ABI JSON before it ever reaches json.Unmarshal/ParseABI - the same
// fail-fast-at-the-boundary role jsonschema plays for FFI parameter details.
var abiDocumentSchema = jsonschema.MustCompileString("abiDocument.json", `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["type"],
		"properties": {
			"type": {
				"type": "string",
				"enum": ["function", "constructor", "event", "fallback", "receive", "error"]
			},
			"name": { "type": "string" },
			"inputs": { "type": "array" },
			"outputs": { "type": "array" }
		}
	}
}`)

// ValidateABIJSON checks abiJSON against the document-level schema above, ahead of
// the field-by-field validation ABI.ValidateCtx performs once it is parsed.
func ValidateABIJSON(ctx context.Context, abiJSON []byte) error {
	var raw interface{}
	if err := json.Unmarshal(abiJSON, &raw); err != nil {
		return i18n.NewError(ctx, clientmsgs.MsgABIInvalidJSON, err)
	}
	if err := abiDocumentSchema.Validate(raw); err != nil {
		return i18n.NewError(ctx, clientmsgs.MsgABIInvalidJSON, err)
	}
	return nil
}
