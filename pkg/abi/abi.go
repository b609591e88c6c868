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

/*

The abi package allows encoding and decoding of ABI encoded bytes, for the inputs/outputs
to EVM functions, and the parsing of EVM logs/events.

A high level summary of the API is as follows:

                         [ ABI ]        - parse your ABI definition, using the Go model of the JSON format
                            ↓
                        (validate)      - all types in functions (methods), events and errors are validated
                            ↓
                [ ComponentType tree ]  - to build a "type tree" of all the arrays/tuples/elementary
                            ↓
    [ JSON ] →  [ ComponentValue tree ] - which you combine with data (JSON or Go types) to get a "value tree"
                            ↓
                         (encode)       - the value tree can then be serialized into ABI encoded bytes
                            ↓
                  [ ABI encoded bytes ] - so you can use these bytes to invoke EVM functions (signatures supported)
                            ↓
                         (decode)       - then you can decode ABI bytes from function outputs, or logs (event data)
                            ↓
    [ JSON ] ← [ ComponentValue tree ]  - the value tree can be serialized back to JSON

Example:

	transferABI := `[
		{
			"inputs": [
				{
					"internalType": "address",
					"name": "recipient",
					"type": "address"
				},
				{
					"internalType": "uint256",
					"name": "amount",
					"type": "uint256"
				}
			],
			"name": "transfer",
			"outputs": [
				{
					"internalType": "bool",
					"name": "",
					"type": "bool"
				}
			],
			"stateMutability": "nonpayable",
			"type": "function"
		}
	]`

	// Parse the ABI definition
	var abi ABI
	_ = json.Unmarshal([]byte(transferABI), &abi)
	f := abi.Functions()["transfer"]

	// Parse some JSON input data conforming to the ABI
	encodedValueTree, _ := f.Inputs.ParseJSON([]byte(`{
		"recipient": "0x03706Ff580119B130E7D26C5e816913123C24d89",
		"amount": "1000000000000000000"
	}`))

	// We can serialize this directly to abi bytes
	abiData, _ := encodedValueTree.EncodeABIData()
	fmt.Println(hex.EncodeToString(abiData))
	// 00000000000000000000000003706ff580119b130e7d26c5e816913123c24d890000000000000000000000000000000000000000000000000de0b6b3a7640000

	// We can also serialize that to function call data, with the function selector prefix
	abiCallData, _ := f.EncodeCallData(encodedValueTree)

	// Decode those ABI bytes back again, verifying the function selector
	decodedValueTree, _ := f.DecodeABIInputs(abiCallData)

	// Serialize back to JSON
	jsonData, _ := decodedValueTree.JSON()

	// Output
	fmt.Println(string(jsonData))
	// {"amount":"1000000000000000000","recipient":"03706ff580119b130e7d26c5e816913123c24d89"}

The package deliberately gives you access to perform all of the transitions individually.

For example, if you want to traverse the type tree itself to generate metadata for the ABI, you can do that.

External data parsing tries to be flexible when coercing JSON data into a value tree:

- Bytes and Addresses can be any of:
  - Hex string without any prefix
  - Hex string with an "0x" prefix
  - A byte array
- Numbers can be any of:
  - A base10 formatted string without any prefix
  - A hex formatted string with an "0x" prefix
  - A number
  - Negative numbers are supported
  - Floating point numbers are supported (for ABI fixed/ufixed types)
- Boolean values can be any of:
  - A boolean
  - A string "true"/"false"
- Strings must be a string

When passing in an interface{} (instead of JSON directly) efforts are made to follow pointers,
and resolve types down to the basic types. For example detecting whether a struct conforms to
the fmt.Stringer interface.

For serialization back out from the value tree, to JSON, there is a pluggable formatting interface
with a number of built-in options as follows:

- Parameter serialization for function outputs / event log data (and nested tuples) can be:
  - Object based {"key1":"val1"}
  - Flat ordered array based ["val1"]
  - Self describing array based [{"name":"key1","type":"string","value":"val1"}]
- Number serialization can be:
  - Base 10 formatted string
  - Hex with "0x" prefix
  - Numeric up to the maximum safe Javscript values, then automatically switching to string
- Byte serialization can be:
  - Hex with "0x" prefix
  - Hex without any prefix
*/
package abi

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/lattice-chain/evmabi/internal/clientmsgs"
	"github.com/lattice-chain/evmabi/pkg/ethtypes"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-common/pkg/log"
	"golang.org/x/crypto/sha3"
)

// ABI "Application Binary Interface" is a list of the methods and events
// on the external interface of an EVM based smart contract - written in
// Solidity / Vyper.
//
// It is structured as a JSON array of ABI entries, each of which can be
// a function, event or error definition.
type ABI []*Entry

// ParseABI is a convenience wrapper around json.Unmarshal for the common case
// of parsing a whole ABI array from its JSON representation.
func ParseABI(abiJSON []byte) (a ABI, err error) {
	err = json.Unmarshal(abiJSON, &a)
	return a, err
}

// EntryType is an enum of the possible ABI entry types
type EntryType string

const (
	Function    EntryType = "function"    // A function/method of the smart contract
	Constructor EntryType = "constructor" // The constructor
	Receive     EntryType = "receive"     // The "receive Ethere" function
	Fallback    EntryType = "fallback"    // The default function to invoke
	Event       EntryType = "event"       // An event the smart contract can emit
	Error       EntryType = "error"       // An error definition
)

type StateMutability string

const (
	Pure       StateMutability = "pure"       // Specified not to read blockchain state
	View       StateMutability = "view"       // Specified not to modify the blockchain state (read-only)
	Payable    StateMutability = "payable"    // The function accepts ether
	NonPayable StateMutability = "nonpayable" // The function does not accept ether
)

type ParameterArray []*Parameter

// Entry is an individual entry in an ABI - a function, event or error.
//
// Defines the name / inputs / outputs which can be used to generate the signature
// of the function/event, and used to encode input data, or decode output data.
type Entry struct {
	Type            EntryType       `json:"type,omitempty"`            // Type of the entry - there are multiple function sub-types, events and errors
	Name            string          `json:"name,omitempty"`            // Name of the function/event/error
	Payable         bool            `json:"payable,omitempty"`         // Functions only: Superseded by stateMutability payable/nonpayable
	Constant        bool            `json:"constant,omitempty"`        // Functions only: Superseded by stateMutability pure/view
	Anonymous       bool            `json:"anonymous,omitempty"`       // Events only: The event is emitted without a signature (topic[0] is not generated)
	StateMutability StateMutability `json:"stateMutability,omitempty"` // How the function interacts with the blockchain state
	Inputs          ParameterArray  `json:"inputs"`                    // The list of input parameters to a function, or fields of an event / error
	Outputs         ParameterArray  `json:"outputs"`                   // Functions only: The list of return values from a function
}

// Parameter is an individual typed parameter input/output
type Parameter struct {
	Name         string         `json:"name"`                   // The name of the argument - does not affect the signature
	Type         string         `json:"type"`                   // The canonical type of the parameter
	InternalType string         `json:"internalType,omitempty"` // Additional internal type information that might be generated by the compiler
	Components   ParameterArray `json:"components,omitempty"`   // An ordered list (tuple) of nested elements for array/object types
	Indexed      bool           `json:"indexed,omitempty"`      // Events only: Whether the parameter is indexed into one of the topics of the log, or in the log's data segment

	parsed *typeComponent // cached components
}

func (e *Entry) IsFunction() bool {
	switch e.Type {
	case Function, Constructor, Receive, Fallback:
		return true
	default:
		return false
	}
}

func (e *Entry) IsEvent() bool {
	return e.Type == Event
}

// EventTopic0 calculates the non-indexed topic[0] hash for an event signature.
// Anonymous events do not occupy topic[0], so this should not be called for them.
func (e *Entry) EventTopic0() ([]byte, error) {
	return e.EventTopic0Ctx(context.Background())
}

func (e *Entry) EventTopic0Ctx(ctx context.Context) ([]byte, error) {
	hash := sha3.NewLegacyKeccak256()
	sig, err := e.SignatureCtx(ctx)
	if err != nil {
		return nil, err
	}
	hash.Write([]byte(sig))
	return hash.Sum(nil), nil
}

// Validate processes all the components of all the entries in this ABI, to build a parsing tree
func (a ABI) Validate() (err error) {
	return a.ValidateCtx(context.Background())
}

func (a ABI) ValidateCtx(ctx context.Context) (err error) {
	selectors := make(map[string]*Entry)
	for _, e := range a {
		if err := e.ValidateCtx(ctx); err != nil {
			return err
		}
		if !e.IsFunction() || e.Name == "" {
			continue
		}
		id, err := e.GenerateIDCtx(ctx)
		if err != nil {
			return err
		}
		selector := hex.EncodeToString(id)
		if existing, clash := selectors[selector]; clash {
			eSig, _ := e.SignatureCtx(ctx)
			existingSig, _ := existing.SignatureCtx(ctx)
			return i18n.NewError(ctx, clientmsgs.MsgDuplicateSelector, "0x"+selector, eSig, existingSig)
		}
		selectors[selector] = e
	}
	return nil
}

func (a ABI) Functions() map[string]*Entry {
	m := make(map[string]*Entry)
	for _, e := range a {
		if e.Name != "" && e.IsFunction() {
			m[e.Name] = e
		}
	}
	return m
}

func (a ABI) Events() map[string]*Entry {
	m := make(map[string]*Entry)
	for _, e := range a {
		if e.Name != "" && e.Type == Event {
			m[e.Name] = e
		}
	}
	return m
}

func (a ABI) Errors() map[string]*Entry {
	m := make(map[string]*Entry)
	for _, e := range a {
		if e.Name != "" && e.Type == Error {
			m[e.Name] = e
		}
	}
	return m
}

// Constructor returns the constructor entry, or nil if the ABI has none declared
// (in which case the implicit no-argument constructor applies).
func (a ABI) Constructor() *Entry {
	for _, e := range a {
		if e.Type == Constructor {
			return e
		}
	}
	return nil
}

// HasFallback returns true if the ABI declares a fallback function
func (a ABI) HasFallback() bool {
	for _, e := range a {
		if e.Type == Fallback {
			return true
		}
	}
	return false
}

// HasReceive returns true if the ABI declares a receive function
func (a ABI) HasReceive() bool {
	for _, e := range a {
		if e.Type == Receive {
			return true
		}
	}
	return false
}

// FindCriteria selects an ABI entry by name, plus any additional keys that
// disambiguate between overloads sharing that name. A zero-value field is not
// applied as a filter. Name "receive" or "fallback" matches the corresponding
// special entry type directly, ignoring every other field.
type FindCriteria struct {
	Name            string          // bare name, or full canonical input signature e.g. "transfer(address,uint256)"
	Selector        []byte          // 4-byte function/event selector
	Outputs         string          // canonical outputs signature, e.g. "(uint256,bool)"
	StateMutability StateMutability // "pure", "view", "payable" or "nonpayable"
}

// Find looks up a function, event or error by name, disambiguating by canonical
// signature when more than one overload shares the name.
//
// name may be a bare name ("transfer"), or may include the full parenthesized
// input signature ("transfer(address,uint256)") to disambiguate overloads.
// It is equivalent to FindByCriteria with only Name set.
func (a ABI) Find(ctx context.Context, name string) (*Entry, error) {
	return a.FindByCriteria(ctx, FindCriteria{Name: name})
}

// FindByCriteria looks up a function, event or error entry against the given
// criteria, returning FunctionNotFound if nothing matches and Ambiguous if more
// than one entry does.
func (a ABI) FindByCriteria(ctx context.Context, crit FindCriteria) (*Entry, error) {
	switch crit.Name {
	case "receive":
		for _, e := range a {
			if e.Type == Receive {
				return e, nil
			}
		}
		return nil, i18n.NewError(ctx, clientmsgs.MsgFunctionNotFound, crit.Name)
	case "fallback":
		for _, e := range a {
			if e.Type == Fallback {
				return e, nil
			}
		}
		return nil, i18n.NewError(ctx, clientmsgs.MsgFunctionNotFound, crit.Name)
	}

	plain := crit.Name
	if idx := strings.IndexByte(crit.Name, '('); idx >= 0 {
		plain = crit.Name[:idx]
	}

	var candidates []*Entry
	for _, e := range a {
		if e.Name != plain {
			continue
		}
		if crit.Name != plain {
			sig, err := e.SignatureCtx(ctx)
			if err != nil {
				return nil, err
			}
			if sig != crit.Name {
				continue
			}
		}
		if crit.Selector != nil {
			id, err := e.GenerateIDCtx(ctx)
			if err != nil {
				return nil, err
			}
			if !bytes.Equal(id, crit.Selector) {
				continue
			}
		}
		if crit.Outputs != "" {
			outSig, err := e.Outputs.signatureCtx(ctx)
			if err != nil {
				return nil, err
			}
			if outSig != crit.Outputs {
				continue
			}
		}
		if crit.StateMutability != "" && e.StateMutability != crit.StateMutability {
			continue
		}
		candidates = append(candidates, e)
	}
	switch len(candidates) {
	case 0:
		return nil, i18n.NewError(ctx, clientmsgs.MsgFunctionNotFound, crit.Name)
	case 1:
		return candidates[0], nil
	default:
		sigs := make([]string, len(candidates))
		for i, c := range candidates {
			sigs[i], _ = c.SignatureCtx(ctx)
		}
		return nil, i18n.NewError(ctx, clientmsgs.MsgAmbiguousLookup, crit.Name, len(candidates), sigs)
	}
}

// signatureCtx renders a parameter array as a parenthesized canonical signature,
// e.g. "(uint256,bool)" - used to key lookups by a function's outputs.
func (params ParameterArray) signatureCtx(ctx context.Context) (string, error) {
	buff := new(strings.Builder)
	buff.WriteRune('(')
	for i, p := range params {
		if i > 0 {
			buff.WriteRune(',')
		}
		s, err := p.SignatureStringCtx(ctx)
		if err != nil {
			return "", err
		}
		buff.WriteString(s)
	}
	buff.WriteRune(')')
	return buff.String(), nil
}

// Validate processes all the components of all the parameters in this ABI entry
func (e *Entry) Validate() (err error) {
	return e.ValidateCtx(context.Background())
}

func (e *Entry) ValidateCtx(ctx context.Context) (err error) {
	for _, input := range e.Inputs {
		if err := input.ValidateCtx(ctx); err != nil {
			return err
		}
	}
	for _, output := range e.Outputs {
		if err := output.ValidateCtx(ctx); err != nil {
			return err
		}
	}
	return nil
}

// ParseJSON takes external JSON data, and parses againt the ABI to generate
// a component value tree.
//
// The component value tree can then be serialized to binary ABI data.
func (pa ParameterArray) ParseJSON(data []byte) (*ComponentValue, error) {
	return pa.ParseJSONCtx(context.Background(), data)
}

func (pa ParameterArray) ParseJSONCtx(ctx context.Context, data []byte) (*ComponentValue, error) {
	var jsonTree interface{}
	err := json.Unmarshal(data, &jsonTree)
	if err != nil {
		return nil, err
	}
	return pa.ParseExternalDataCtx(ctx, jsonTree)
}

// ParseExternalData takes (non-ABI encoded) data input, such as an unmarshalled JSON structure,
// and traverses it against the ABI component type tree, to form a component value tree.
//
// The component value tree can then be serialized to binary ABI data.
func (pa ParameterArray) ParseExternalData(input interface{}) (cv *ComponentValue, err error) {
	return pa.ParseExternalDataCtx(context.Background(), input)
}

// TypeComponentTree returns the type component tree for the array (tuple) of individually typed parameters
func (pa ParameterArray) TypeComponentTree() (component TypeComponent, err error) {
	return pa.TypeComponentTreeCtx(context.Background())
}

func (pa ParameterArray) TypeComponentTreeCtx(ctx context.Context) (tc TypeComponent, err error) {
	component := &typeComponent{
		cType:         TupleComponent,
		tupleChildren: make([]*typeComponent, len(pa)),
	}
	for i, p := range pa {
		if component.tupleChildren[i], err = p.typeComponentTreeCtx(ctx); err != nil {
			return nil, err
		}
	}
	return component, nil
}

func (pa ParameterArray) ParseExternalDataCtx(ctx context.Context, input interface{}) (cv *ComponentValue, err error) {
	component, err := pa.TypeComponentTreeCtx(ctx)
	if err != nil {
		return nil, err
	}
	return walkInput(ctx, "", input, component.(*typeComponent))
}

// DecodeABIData takes ABI encoded bytes that conform to the parameter array, and decodes them
// into a value tree. We take the offset (rather than requiring you to generate a slice at the
// given offset) so that errors in parsing can be reported at an absolute offset.
func (pa ParameterArray) DecodeABIData(b []byte, offset int) (cv *ComponentValue, err error) {
	return pa.DecodeABIDataCtx(context.Background(), b, offset)
}

func (pa ParameterArray) DecodeABIDataCtx(ctx context.Context, b []byte, offset int) (cv *ComponentValue, err error) {
	component, err := pa.TypeComponentTreeCtx(ctx)
	if err != nil {
		return nil, err
	}
	_, cv, err = walkTupleABIBytes(ctx, "", b, offset, offset, component.(*typeComponent))
	return cv, err
}

// ParseExternalJSON is an alias of ParseJSON, for parsing JSON values supplied externally
// (rather than decoded from ABI encoded data) against the parameter array.
func (pa ParameterArray) ParseExternalJSON(data []byte) (*ComponentValue, error) {
	return pa.ParseJSONCtx(context.Background(), data)
}

func (pa ParameterArray) ParseExternalJSONCtx(ctx context.Context, data []byte) (*ComponentValue, error) {
	return pa.ParseJSONCtx(ctx, data)
}

// EncodeABIDataJSON parses external JSON input against the parameter array, and encodes
// the result directly to ABI bytes.
func (pa ParameterArray) EncodeABIDataJSON(data []byte) ([]byte, error) {
	return pa.EncodeABIDataJSONCtx(context.Background(), data)
}

func (pa ParameterArray) EncodeABIDataJSONCtx(ctx context.Context, data []byte) ([]byte, error) {
	cv, err := pa.ParseJSONCtx(ctx, data)
	if err != nil {
		return nil, err
	}
	return cv.EncodeABIDataCtx(ctx)
}

// EncodeABIDataValues parses a plain array of Go values (positionally matched against
// the parameter array) and encodes the result directly to ABI bytes.
func (pa ParameterArray) EncodeABIDataValues(values []interface{}) ([]byte, error) {
	return pa.EncodeABIDataValuesCtx(context.Background(), values)
}

func (pa ParameterArray) EncodeABIDataValuesCtx(ctx context.Context, values []interface{}) ([]byte, error) {
	cv, err := pa.ParseExternalDataCtx(ctx, values)
	if err != nil {
		return nil, err
	}
	return cv.EncodeABIDataCtx(ctx)
}

// String returns the signature string. If a Validate needs to be initiated, and that
// parse fails, then the error is logged, but is not returned
func (e *Entry) String() string {
	s, err := e.Signature()
	if err != nil {
		log.L(context.Background()).Warnf("ABI parsing failed: %s", err)
	}
	return s
}

func (e *Entry) Signature() (string, error) {
	return e.SignatureCtx(context.Background())
}

func (e *Entry) GenerateID() ([]byte, error) {
	return e.GenerateIDCtx(context.Background())
}

func (e *Entry) GenerateIDCtx(ctx context.Context) ([]byte, error) {
	hash := sha3.NewLegacyKeccak256()
	sig, err := e.SignatureCtx(ctx)
	if err != nil {
		return nil, err
	}
	hash.Write([]byte(sig))
	k := hash.Sum(nil)
	return k[0:4], nil
}

// ID is a convenience function to get the ID as a hex string (no 0x prefix), which will
// return the empty string on failure
func (e *Entry) ID() string {
	id, err := e.GenerateID()
	if err != nil {
		log.L(context.Background()).Warnf("ABI parsing failed: %s", err)
		return ""
	}
	return hex.EncodeToString(id)
}

// EncodeCallData serializes the inputs of the entry, prefixed with the function selector
func (e *Entry) EncodeCallData(cv *ComponentValue) ([]byte, error) {
	return e.EncodeCallDataCtx(context.Background(), cv)
}

func (e *Entry) EncodeCallDataCtx(ctx context.Context, cv *ComponentValue) ([]byte, error) {

	id, err := e.GenerateIDCtx(ctx)
	if err != nil {
		return nil, err
	}

	cvData, err := cv.EncodeABIDataCtx(ctx)
	if err != nil {
		return nil, err
	}

	data := make([]byte, len(id)+len(cvData))
	copy(data, id)
	copy(data[len(id):], cvData)
	return data, nil

}

func (e *Entry) DecodeABIInputs(b []byte) (*ComponentValue, error) {
	return e.DecodeABIInputsCtx(context.Background(), b)
}

func (e *Entry) DecodeABIInputsCtx(ctx context.Context, b []byte) (*ComponentValue, error) {

	id, err := e.GenerateIDCtx(ctx)
	if err != nil {
		return nil, err
	}
	if len(b) < 4 {
		return nil, i18n.NewError(ctx, clientmsgs.MsgNotEnoughBytesABISignature)
	}
	if !bytes.Equal(id, b[0:4]) {
		return nil, i18n.NewError(ctx, clientmsgs.MsgIncorrectABISignatureID, e.String(), hex.EncodeToString(id), hex.EncodeToString(b[0:4]))
	}

	return e.Inputs.DecodeABIDataCtx(ctx, b, 4)

}

// DecodeCallData is an alias of DecodeABIInputs
func (e *Entry) DecodeCallData(b []byte) (*ComponentValue, error) {
	return e.DecodeABIInputs(b)
}

// EncodeCallDataJSON parses JSON input values for this entry, and ABI encodes
// them into call data (prefixed with the function selector)
func (e *Entry) EncodeCallDataJSON(data []byte) ([]byte, error) {
	return e.EncodeCallDataJSONCtx(context.Background(), data)
}

func (e *Entry) EncodeCallDataJSONCtx(ctx context.Context, data []byte) ([]byte, error) {
	cv, err := e.Inputs.ParseJSONCtx(ctx, data)
	if err != nil {
		return nil, err
	}
	return e.EncodeCallDataCtx(ctx, cv)
}

// EncodeCallDataValues parses a flat array of string input values for this
// entry, and ABI encodes them into call data (prefixed with the function selector)
func (e *Entry) EncodeCallDataValues(values []string) ([]byte, error) {
	return e.EncodeCallDataValuesCtx(context.Background(), values)
}

func (e *Entry) EncodeCallDataValuesCtx(ctx context.Context, values []string) ([]byte, error) {
	input := make([]interface{}, len(values))
	for i, v := range values {
		input[i] = v
	}
	cv, err := e.Inputs.ParseExternalDataCtx(ctx, input)
	if err != nil {
		return nil, err
	}
	return e.EncodeCallDataCtx(ctx, cv)
}

// DecodeEventData decodes the topics and data of an EVM log against this
// event's inputs, merging the indexed (topic) and non-indexed (data) fields
// into a single value tree in declaration order.
func (e *Entry) DecodeEventData(topics []ethtypes.HexBytes0xPrefix, data ethtypes.HexBytes0xPrefix) (*ComponentValue, error) {
	return e.DecodeEventDataCtx(context.Background(), topics, data)
}

func (e *Entry) DecodeEventDataCtx(ctx context.Context, topics []ethtypes.HexBytes0xPrefix, data ethtypes.HexBytes0xPrefix) (*ComponentValue, error) {

	if _, err := e.Inputs.TypeComponentTreeCtx(ctx); err != nil {
		return nil, err
	}

	var indexed, unindexed ParameterArray
	for _, p := range e.Inputs {
		if p.Indexed {
			indexed = append(indexed, p)
		} else {
			unindexed = append(unindexed, p)
		}
	}

	topicOffset := 0
	if !e.Anonymous {
		if len(topics) < 1 {
			return nil, i18n.NewError(ctx, clientmsgs.MsgEventInsufficientTopics, e.Name, len(indexed)+1, len(topics))
		}
		topic0, err := e.EventTopic0Ctx(ctx)
		if err != nil {
			return nil, err
		}
		if !bytes.Equal(topic0, topics[0]) {
			return nil, i18n.NewError(ctx, clientmsgs.MsgEventTopicMismatch, hex.EncodeToString(topics[0]), hex.EncodeToString(topic0), e.Name)
		}
		topicOffset = 1
	}

	if len(topics) < len(indexed)+topicOffset {
		return nil, i18n.NewError(ctx, clientmsgs.MsgEventInsufficientTopics, e.Name, len(indexed)+topicOffset, len(topics))
	}

	indexedValues := make([]*ComponentValue, len(indexed))
	for i, p := range indexed {
		tc, err := p.typeComponentTreeCtx(ctx)
		if err != nil {
			return nil, err
		}
		topicBytes := []byte(topics[topicOffset+i])
		if tc.Dynamic() {
			// Indexed parameters of dynamic type (string/bytes/tuple/array) are stored in the
			// topic as the keccak256 hash of their value, not as ABI encoded data - the original
			// value cannot be recovered, so we surface the raw topic hash instead.
			indexedValues[i] = &ComponentValue{
				Component: &typeComponent{
					cType:          ElementaryComponent,
					elementaryType: elementaryTypes["bytes"],
					keyName:        p.Name,
				},
				Value: topicBytes,
			}
			continue
		}
		_, cv, err := decodeABIElement(ctx, p.Name, topicBytes, 0, 0, tc.(*typeComponent))
		if err != nil {
			return nil, err
		}
		indexedValues[i] = cv
	}

	unindexedCV, err := unindexed.DecodeABIDataCtx(ctx, data, 0)
	if err != nil {
		return nil, err
	}

	merged := &ComponentValue{
		Component: &typeComponent{
			cType:         TupleComponent,
			tupleChildren: make([]*typeComponent, len(e.Inputs)),
		},
		Children: make([]*ComponentValue, len(e.Inputs)),
	}
	indexedIdx, unindexedIdx := 0, 0
	for i, p := range e.Inputs {
		if p.Indexed {
			merged.Children[i] = indexedValues[indexedIdx]
			indexedIdx++
		} else {
			merged.Children[i] = unindexedCV.Children[unindexedIdx]
			unindexedIdx++
		}
		merged.Component.(*typeComponent).tupleChildren[i] = merged.Children[i].Component.(*typeComponent)
	}
	return merged, nil
}

// SignatureHash returns the full 32 byte keccak256 hash of the signature string
func (e *Entry) SignatureHash() (ethtypes.HexBytes0xPrefix, error) {
	return e.SignatureHashCtx(context.Background())
}

func (e *Entry) SignatureHashCtx(ctx context.Context) (ethtypes.HexBytes0xPrefix, error) {
	hash := sha3.NewLegacyKeccak256()
	sig, err := e.SignatureCtx(ctx)
	if err != nil {
		return nil, err
	}
	hash.Write([]byte(sig))
	return hash.Sum(nil), nil
}

// SignatureHashBytes is a convenience function that swallows errors, returning
// a zero 32 byte hash if the signature could not be generated
func (e *Entry) SignatureHashBytes() ethtypes.HexBytes0xPrefix {
	b, err := e.SignatureHash()
	if err != nil {
		log.L(context.Background()).Warnf("ABI parsing failed: %s", err)
		return make(ethtypes.HexBytes0xPrefix, 32)
	}
	return b
}

// FunctionSelectorBytes is a convenience function to get the function selector
// as a 0x prefixed hex byte array, which will be four zero bytes on failure
func (e *Entry) FunctionSelectorBytes() ethtypes.HexBytes0xPrefix {
	id, err := e.GenerateID()
	if err != nil {
		log.L(context.Background()).Warnf("ABI parsing failed: %s", err)
		return make(ethtypes.HexBytes0xPrefix, 4)
	}
	return id
}

func (e *Entry) SignatureCtx(ctx context.Context) (string, error) {
	buff := new(strings.Builder)
	buff.WriteString(e.Name)
	buff.WriteRune('(')
	for i, p := range e.Inputs {
		if i > 0 {
			buff.WriteRune(',')
		}
		s, err := p.SignatureStringCtx(ctx)
		if err != nil {
			return "", err
		}
		buff.WriteString(s)
	}
	buff.WriteRune(')')
	return buff.String(), nil
}

// Validate processes all the components of the type of this ABI parameter.
// - The elementary type
// - The fixed/variable length array dimensions
// - The tuple component types (recursively)
func (p *Parameter) Validate() (err error) {
	return p.ValidateCtx(context.Background())
}

func (p *Parameter) ValidateCtx(ctx context.Context) (err error) {
	p.parsed, err = p.parseABIParameterComponents(ctx)
	return err
}

// SignatureString generates and returns the signature string of the ABI
// parameter. If Validate has not yet been called, it will be called on your behalf.
//
// Note if you have modified the structure since Validate was last called, you should
// call Validate again.
func (p *Parameter) SignatureString() (s string, err error) {
	return p.SignatureStringCtx(context.Background())
}

func (p *Parameter) SignatureStringCtx(ctx context.Context) (string, error) {
	// Ensure the type component tree has been parsed
	tc, err := p.TypeComponentTreeCtx(ctx)
	if err != nil {
		return "", err
	}
	return tc.String(), nil
}

// String returns the signature string. If a Validate needs to be initiated, and that
// parse fails, then the error is logged, but is not returned
func (p *Parameter) String() string {
	s, err := p.SignatureString()
	if err != nil {
		log.L(context.Background()).Warnf("ABI parsing failed: %s", err)
	}
	return s
}

// ComponentTypeTree returns the root of the component tree for the parameter.
// If Validate has not yet been called, it will be called on your behalf.
//
// Note if you have modified the structure since Validate was last called, you should
// call Validate again.
func (p *Parameter) TypeComponentTree() (TypeComponent, error) {
	return p.TypeComponentTreeCtx(context.Background())
}

func (p *Parameter) TypeComponentTreeCtx(ctx context.Context) (TypeComponent, error) {
	tc, err := p.typeComponentTreeCtx(ctx)
	return TypeComponent(tc), err
}

func (p *Parameter) typeComponentTreeCtx(ctx context.Context) (*typeComponent, error) {
	if p.parsed == nil {
		if err := p.ValidateCtx(ctx); err != nil {
			return nil, err
		}
	}
	return p.parsed, nil
}
