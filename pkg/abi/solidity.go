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
	"fmt"
	"strings"
)

// SolidityDef renders a best-effort Solidity declaration for the entry -
// a function/error signature, or an event signature - along with the
// struct definitions any tuple typed parameters need, in dependency order
// (children before parents).
func (e *Entry) SolidityDef() (string, []string, error) {
	return e.SolidityDefCtx(context.Background())
}

func (e *Entry) SolidityDefCtx(ctx context.Context) (def string, childStructs []string, err error) {
	structs := map[string]string{}
	var order []string

	switch e.Type {
	case Event:
		parts := make([]string, len(e.Inputs))
		for i, p := range e.Inputs {
			tc, err := p.typeComponentTreeCtx(ctx)
			if err != nil {
				return "", nil, err
			}
			collectSolidityStructs(tc, structs, &order)
			s := solidityTypeName(tc)
			if p.Indexed {
				s += " indexed"
			}
			if p.Name != "" {
				s += " " + p.Name
			}
			parts[i] = s
		}
		return fmt.Sprintf("event %s(%s)", e.Name, strings.Join(parts, ", ")), orderedSolidityStructs(structs, order), nil

	case Error:
		params, err := solidityParamList(ctx, e.Inputs, structs, &order, false)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("error %s(%s);", e.Name, params), orderedSolidityStructs(structs, order), nil

	default:
		inParams, err := solidityParamList(ctx, e.Inputs, structs, &order, true)
		if err != nil {
			return "", nil, err
		}
		outParams, err := solidityParamList(ctx, e.Outputs, structs, &order, true)
		if err != nil {
			return "", nil, err
		}
		name := e.Name
		if name == "" {
			name = string(e.Type)
		}
		s := fmt.Sprintf("function %s(%s) external", name, inParams)
		switch e.StateMutability {
		case "payable", "view", "pure":
			s = fmt.Sprintf("%s %s", s, e.StateMutability)
		}
		if outParams != "" {
			s = fmt.Sprintf("%s returns (%s)", s, outParams)
		}
		return s + " { }", orderedSolidityStructs(structs, order), nil
	}
}

// SolString is a convenience wrapper around SolidityDef that joins the
// declaration and its struct dependencies into a single string, returning
// the empty string if the ABI entry fails to parse.
func (e *Entry) SolString() string {
	def, childStructs, err := e.SolidityDef()
	if err != nil {
		return ""
	}
	return strings.Join(append([]string{def}, childStructs...), "; ")
}

func solidityParamList(ctx context.Context, params ParameterArray, structs map[string]string, order *[]string, withMemory bool) (string, error) {
	parts := make([]string, len(params))
	for i, p := range params {
		tc, err := p.typeComponentTreeCtx(ctx)
		if err != nil {
			return "", err
		}
		collectSolidityStructs(tc, structs, order)
		typeName := solidityTypeName(tc)
		if withMemory && solidityNeedsMemory(tc) {
			typeName += " memory"
		}
		if p.Name != "" {
			parts[i] = fmt.Sprintf("%s %s", typeName, p.Name)
		} else {
			parts[i] = typeName
		}
	}
	return strings.Join(parts, ", "), nil
}

// SolidityTypeDef is a lower level entry point onto the same rendering used
// by SolidityDef, for a single type component - isRef reports whether the
// type needs a Solidity data location (memory/calldata) when used as a
// function parameter.
func (tc *typeComponent) SolidityTypeDef() (isRef bool, solDef string, childStructs []string) {
	if tc.cType != ElementaryComponent && tc.arrayChild == nil && tc.tupleChildren == nil {
		return false, "", nil
	}
	structs := map[string]string{}
	var order []string
	collectSolidityStructs(tc, structs, &order)
	return solidityNeedsMemory(tc), solidityTypeName(tc), orderedSolidityStructs(structs, order)
}

func solidityNeedsMemory(tc *typeComponent) bool {
	switch tc.cType {
	case TupleComponent, FixedArrayComponent, VariableArrayComponent:
		return true
	default:
		if tc.elementaryType == nil {
			return false
		}
		bt := tc.elementaryType.BaseType()
		return bt == BaseTypeString || (bt == BaseTypeBytes && tc.elementarySuffix == "")
	}
}

func solidityTypeName(tc *typeComponent) string {
	switch tc.cType {
	case TupleComponent:
		return solidityTupleName(tc)
	case FixedArrayComponent:
		return fmt.Sprintf("%s[%d]", solidityTypeName(tc.arrayChild), tc.arrayLength)
	case VariableArrayComponent:
		return fmt.Sprintf("%s[]", solidityTypeName(tc.arrayChild))
	default:
		return tc.elementaryType.name + tc.elementarySuffix
	}
}

// solidityTupleName derives a struct name from the declared internalType,
// stripping the "struct " keyword, any containing-contract qualifier, and
// any trailing array suffix (internalType is set on the outer array
// parameter, e.g. "struct Foo.Bar[]" for a "Bar[]" typed tuple array).
func solidityTupleName(tc *typeComponent) string {
	it := strings.TrimPrefix(tc.internalType, "struct ")
	if idx := strings.IndexByte(it, '['); idx >= 0 {
		it = it[:idx]
	}
	if idx := strings.LastIndexByte(it, '.'); idx >= 0 {
		it = it[idx+1:]
	}
	if it == "" {
		return "Tuple"
	}
	return it
}

// collectSolidityStructs walks the component tree recording a struct
// definition for every distinct tuple encountered, children before parents.
func collectSolidityStructs(tc *typeComponent, structs map[string]string, order *[]string) {
	switch tc.cType {
	case TupleComponent:
		name := solidityTupleName(tc)
		if _, exists := structs[name]; exists {
			return
		}
		fields := make([]string, len(tc.tupleChildren))
		for i, child := range tc.tupleChildren {
			collectSolidityStructs(child, structs, order)
			fields[i] = fmt.Sprintf("%s %s", solidityTypeName(child), child.KeyName())
		}
		structs[name] = fmt.Sprintf("struct %s { %s; }", name, strings.Join(fields, "; "))
		*order = append(*order, name)
	case FixedArrayComponent, VariableArrayComponent:
		collectSolidityStructs(tc.arrayChild, structs, order)
	}
}

func orderedSolidityStructs(structs map[string]string, order []string) []string {
	if len(order) == 0 {
		return nil
	}
	out := make([]string, len(order))
	for i, name := range order {
		out[i] = structs[name]
	}
	return out
}
