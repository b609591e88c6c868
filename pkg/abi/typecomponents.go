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
	"strconv"
	"strings"

	"github.com/lattice-chain/evmabi/internal/clientmsgs"

	"github.com/hyperledger/firefly-common/pkg/i18n"
)

// TypeComponent is a modelled representation of a component of an ABI type.
// We don't just go to the tuple level, we go down all the way through the arrays too.
// This breaks things down into the way in which they are serialized/parsed.
// Example "((uint256,string[2],string[])[][3][],string)" becomes:
// - tuple1
//   - variable size array
//     - fixed size [3] array
//       - variable size array
//         - tuple2
//           - uint256
//           - fixed size [2] array
//             - string
//           - variable size array
//             - string
//   - string
//
// This thus matches the way a JSON structure would exist to supply values in
type TypeComponent interface {
	String() string                     // gives the signature for this type level of the type component hierarchy
	ComponentType() ComponentType       // classification of the component type (tuple, array or elemental)
	ElementaryType() ElementaryTypeInfo // only non-nil for elementary components
	ArrayChild() TypeComponent          // only non-nil for array components
	ArrayLength() int                   // only meaningful for fixed array components
	TupleChildren() []TypeComponent     // only non-nil for tuple components
	KeyName() string                    // the declared parameter name for this component, if any
	Dynamic() bool                      // whether this component occupies a head-offset slot plus tail data
	HeadSize() int                      // number of head bytes this component occupies
	ElementaryFixed() bool              // whether this is a fixed-width elementary component
	ElementarySuffix() string           // the resolved M/N suffix of an elementary component
	FixedArrayLen() int                 // alias of ArrayLength, for a fixed size array component
	ParseExternal(input interface{}) (*ComponentValue, error) // parse a single external value against this component
	DecodeABIData(b []byte, offset int) (*ComponentValue, error) // decode ABI encoded bytes as a tuple of this component's children
}

type typeComponent struct {
	cType            ComponentType       // Is this parameter an elementary type, an array, or a tuple
	elementaryType   *elementaryTypeInfo // for elementary types - the type info reference
	elementarySuffix string              // for elementary types - the suffix
	m                uint16              // M dimension of elementary type suffix
	n                uint16              // N dimension of elementary type suffix
	arrayLength      int                 // The length of a fixed length array
	arrayChild       *typeComponent      // For array parameter
	tupleChildren    []*typeComponent    // For tuple parameters
	keyName          string              // the declared Parameter.Name at this level of nesting
	internalType     string              // the declared Parameter.InternalType, for tuple components
}

// elementaryTypeInfo defines the string parsing rules, as well as a pointer to the functions for
// serialization to a set of bytes, and back again
type elementaryTypeInfo struct {
	name          string     // The name of the type - the alphabetic characters up to an optional suffix
	suffixType    suffixType // Whether there is a length suffix, and its type
	defaultSuffix string     // If set and there is no suffix supplied, the following suffix is used
	mMin          uint16     // For suffixes with an M dimension, this is the minimum value
	mMax          uint16     // For suffixes with an M dimension, this is the maximum (inclusive) value
	mMod          uint16     // If non-zero, then (M % MMod) == 0 must be true
	nMin          uint16     // For suffixes with an N dimension, this is the minimum value
	nMax          uint16     // For suffixes with an N dimension, this is the maximum (inclusive) value
}

// ElementaryTypeInfo represents the rules for each elementary type understood by this ABI type parser.
type ElementaryTypeInfo interface {
	String() string     // gives a summary of the rules the elemental type (used in error reporting)
	BaseType() BaseType // the underlying base type classification, ignoring suffix
}

// BaseType classifies an elementary type family, independent of its M/N suffix.
type BaseType int

const (
	BaseTypeInt BaseType = iota
	BaseTypeUint
	BaseTypeAddress
	BaseTypeBool
	BaseTypeFixed
	BaseTypeUfixed
	BaseTypeBytes
	BaseTypeFunction
	BaseTypeString
	BaseTypeTuple
)

var baseTypesByName = map[string]BaseType{
	"int":      BaseTypeInt,
	"uint":     BaseTypeUint,
	"address":  BaseTypeAddress,
	"bool":     BaseTypeBool,
	"fixed":    BaseTypeFixed,
	"ufixed":   BaseTypeUfixed,
	"bytes":    BaseTypeBytes,
	"function": BaseTypeFunction,
	"string":   BaseTypeString,
	"tuple":    BaseTypeTuple,
}

func (et *elementaryTypeInfo) BaseType() BaseType {
	return baseTypesByName[et.name]
}

func (et *elementaryTypeInfo) String() string {
	switch et.suffixType {
	case suffixTypeMOptional, suffixTypeMRequired:
		s := fmt.Sprintf("%s<M> (%d <= M <= %d)", et.name, et.mMin, et.mMax)
		if et.mMod != 0 {
			s = fmt.Sprintf("%s (M mod %d == 0)", s, et.mMod)
		}
		if et.suffixType == suffixTypeMOptional {
			s = fmt.Sprintf("%s / %s", et.name, s)
		}
		if et.defaultSuffix != "" {
			s = fmt.Sprintf("%s (%s == %s%s)", s, et.name, et.name, et.defaultSuffix)
		}
		return s
	case suffixTypeMxNRequired:
		s := fmt.Sprintf("%s<M>x<N> (%d <= M <= %d) (%d <= N <= %d)", et.name, et.mMin, et.mMax, et.nMin, et.nMax)
		if et.mMod != 0 {
			s = fmt.Sprintf("%s (M mod %d == 0)", s, et.mMod)
		}
		if et.defaultSuffix != "" {
			s = fmt.Sprintf("%s (%s == %s%s)", s, et.name, et.name, et.defaultSuffix)
		}
		return s
	default:
		return et.name
	}
}

var elementaryTypes = map[string]*elementaryTypeInfo{}

func registerElementaryType(et elementaryTypeInfo) ElementaryTypeInfo {
	elementaryTypes[et.name] = &et
	return &et
}

var (
	ElementaryTypeInt = registerElementaryType(elementaryTypeInfo{
		name:          "int",
		suffixType:    suffixTypeMRequired,
		defaultSuffix: "256",
		mMin:          8,
		mMax:          256,
		mMod:          8,
	})
	ElementaryTypeUint = registerElementaryType(elementaryTypeInfo{
		name:          "uint",
		suffixType:    suffixTypeMRequired,
		defaultSuffix: "256",
		mMin:          8,
		mMax:          256,
		mMod:          8,
	})
	ElementaryTypeAddress = registerElementaryType(elementaryTypeInfo{
		name:       "address",
		suffixType: suffixTypeNone,
	})
	ElementaryTypeBool = registerElementaryType(elementaryTypeInfo{
		name:       "bool",
		suffixType: suffixTypeNone,
	})
	ElementaryTypeFixed = registerElementaryType(elementaryTypeInfo{
		name:          "fixed",
		suffixType:    suffixTypeMxNRequired,
		defaultSuffix: "128x18",
		mMin:          8,
		mMax:          256,
		mMod:          8,
		nMin:          1,
		nMax:          80,
	})
	ElementaryTypeUfixed = registerElementaryType(elementaryTypeInfo{
		name:          "ufixed",
		suffixType:    suffixTypeMxNRequired,
		defaultSuffix: "128x18",
		mMin:          8,
		mMax:          256,
		mMod:          8,
		nMin:          1,
		nMax:          80,
	})
	ElementaryTypeBytes = registerElementaryType(elementaryTypeInfo{
		name:       "bytes",
		suffixType: suffixTypeMOptional, // note that "bytes" without a suffix is a special dynamic sized byte sequence
		mMin:       1,
		mMax:       32,
	})
	ElementaryTypeFunction = registerElementaryType(elementaryTypeInfo{
		name:       "function",
		suffixType: suffixTypeNone,
	})
	ElementaryTypeString = registerElementaryType(elementaryTypeInfo{
		name:       "string",
		suffixType: suffixTypeNone,
	})
	ElementaryTypeTuple = registerElementaryType(elementaryTypeInfo{
		name:       "tuple",
		suffixType: suffixTypeNone,
	})
)

type suffixType int

const (
	suffixTypeNone        suffixType = iota // There is no suffix possible - like "address" or "bool"
	suffixTypeMOptional                     // There is a single dimension suffix, and it is optional - like "bytes"/"bytes32"
	suffixTypeMRequired                     // There is a single dimension suffix, and it is required - like "uint256"
	suffixTypeMxNRequired                   // There is a two-dimensional suffix - like "fixed128x18"
)

type ComponentType int

const (
	ElementaryComponent ComponentType = iota
	FixedArrayComponent
	VariableArrayComponent
	TupleComponent
)

func (tc *typeComponent) String() string {
	switch tc.cType {
	case ElementaryComponent:
		return fmt.Sprintf("%s%s", tc.elementaryType.name, tc.elementarySuffix)
	case FixedArrayComponent:
		return fmt.Sprintf("%s[%d]", tc.arrayChild.String(), tc.arrayLength)
	case VariableArrayComponent:
		return fmt.Sprintf("%s[]", tc.arrayChild.String())
	case TupleComponent:
		buff := new(strings.Builder)
		buff.WriteByte('(')
		for i, child := range tc.tupleChildren {
			if i > 0 {
				buff.WriteByte(',')
			}
			buff.WriteString(child.String())
		}
		buff.WriteByte(')')
		return buff.String()
	default:
		return ""
	}
}

func (tc *typeComponent) ComponentType() ComponentType {
	return tc.cType
}

func (tc *typeComponent) ElementaryType() ElementaryTypeInfo {
	return tc.elementaryType
}

func (tc *typeComponent) ArrayChild() TypeComponent {
	if tc.arrayChild == nil {
		return nil
	}
	return tc.arrayChild
}

func (tc *typeComponent) ArrayLength() int {
	return tc.arrayLength
}

func (tc *typeComponent) TupleChildren() []TypeComponent {
	children := make([]TypeComponent, len(tc.tupleChildren))
	for i, c := range tc.tupleChildren {
		children[i] = c
	}
	return children
}

func (tc *typeComponent) KeyName() string {
	return tc.keyName
}

// ElementaryFixed reports whether this elementary component has a fixed
// encoded width - true for everything except "string" and unsized "bytes".
func (tc *typeComponent) ElementaryFixed() bool {
	return tc.cType == ElementaryComponent && !tc.Dynamic()
}

// ElementarySuffix returns the (alias resolved) suffix string for this
// elementary component, such as "256" for a plain "uint". Empty for
// non-elementary components.
func (tc *typeComponent) ElementarySuffix() string {
	return tc.elementarySuffix
}

// FixedArrayLen returns the declared length of a fixed size array component.
func (tc *typeComponent) FixedArrayLen() int {
	return tc.arrayLength
}

// ParseExternal parses a single (non-ABI encoded) input value against this
// type component, such as an unmarshalled JSON value.
func (tc *typeComponent) ParseExternal(input interface{}) (*ComponentValue, error) {
	return tc.ParseExternalCtx(context.Background(), input)
}

func (tc *typeComponent) ParseExternalCtx(ctx context.Context, input interface{}) (*ComponentValue, error) {
	return walkInput(ctx, "", input, tc)
}

// DecodeABIData decodes ABI encoded bytes against this component's tuple
// children, starting at the given offset into the head.
func (tc *typeComponent) DecodeABIData(b []byte, offset int) (*ComponentValue, error) {
	return tc.DecodeABIDataCtx(context.Background(), b, offset)
}

func (tc *typeComponent) DecodeABIDataCtx(ctx context.Context, b []byte, offset int) (*ComponentValue, error) {
	if tc.cType != TupleComponent {
		return nil, i18n.NewError(ctx, clientmsgs.MsgDecodeNonTupleComponent)
	}
	_, cv, err := walkTupleABIBytes(ctx, "", b, offset, offset, tc)
	return cv, err
}

// Dynamic reports whether this component is laid out as a 32-byte head
// offset plus variable-length tail content, per the ABI static/dynamic
// type partition.
func (tc *typeComponent) Dynamic() bool {
	switch tc.cType {
	case TupleComponent:
		for _, child := range tc.tupleChildren {
			if child.Dynamic() {
				return true
			}
		}
		return false
	case VariableArrayComponent:
		return true
	case FixedArrayComponent:
		return tc.arrayChild.Dynamic()
	case ElementaryComponent:
		tName := tc.elementaryType.name
		return tName == "string" || (tName == "bytes" && tc.elementarySuffix == "")
	default:
		return false
	}
}

// HeadSize is the number of bytes this component occupies in the head
// section of its enclosing tuple/array - always 32 for dynamic components.
func (tc *typeComponent) HeadSize() int {
	if tc.Dynamic() {
		return 32
	}
	switch tc.cType {
	case FixedArrayComponent:
		return tc.arrayLength * tc.arrayChild.HeadSize()
	case TupleComponent:
		total := 0
		for _, child := range tc.tupleChildren {
			total += child.HeadSize()
		}
		return total
	default:
		return 32
	}
}

func (p *Parameter) parseABIParameterComponents(ctx context.Context) (tc *typeComponent, err error) {
	abiTypeString := p.Type

	// Extract the elementary type
	etBuilder := new(strings.Builder)
	for _, r := range abiTypeString {
		if r >= 'a' && r <= 'z' {
			etBuilder.WriteRune(r)
		} else {
			break
		}
	}
	etStr := etBuilder.String()
	et, ok := elementaryTypes[etStr]
	if !ok {
		return nil, i18n.NewError(ctx, clientmsgs.MsgUnsupportedABIType, etStr, abiTypeString)
	}

	// Split what's left of the string into the suffix, and any array definitions
	suffix, arrays := splitElementaryTypeSuffix(abiTypeString, len(etStr))
	if suffix == "" {
		suffix = et.defaultSuffix
	}

	if et == ElementaryTypeTuple {
		if p.Components == nil {
			return nil, i18n.NewError(ctx, clientmsgs.MsgMissingComponents, abiTypeString)
		}
		tc = &typeComponent{
			cType:         TupleComponent,
			tupleChildren: make([]*typeComponent, len(p.Components)),
			keyName:       p.Name,
			internalType:  p.InternalType,
		}
		// Process all the components of the tuple
		for i, c := range p.Components {
			if tc.tupleChildren[i], err = c.parseABIParameterComponents(ctx); err != nil {
				return nil, err
			}
		}
	} else {
		tc = &typeComponent{
			cType:            ElementaryComponent,
			elementaryType:   et,
			elementarySuffix: suffix,
			keyName:          p.Name,
		}
		// Process any suffix according to the rules of the elementary type
		switch et.suffixType {
		case suffixTypeNone:
			if suffix != "" {
				return nil, i18n.NewError(ctx, clientmsgs.MsgUnsupportedABISuffix, suffix, abiTypeString, et)
			}
			// address and bool are both encoded as right-aligned single-word
			// unsigned integers - give them the bit width of that word so the
			// shared unsigned-integer encode path can bounds check them (the
			// decode-side range check applies to uint<M> components only).
			switch et {
			case ElementaryTypeAddress:
				tc.m = 160
			case ElementaryTypeBool:
				tc.m = 1
			}
		case suffixTypeMRequired:
			if suffix == "" {
				return nil, i18n.NewError(ctx, clientmsgs.MsgMissingABISuffix, abiTypeString, et)
			}
			if err := parseMSuffix(ctx, abiTypeString, tc, suffix); err != nil {
				return nil, err
			}
		case suffixTypeMOptional:
			if suffix != "" {
				if err := parseMSuffix(ctx, abiTypeString, tc, suffix); err != nil {
					return nil, err
				}
			}
		case suffixTypeMxNRequired:
			if suffix == "" {
				return nil, i18n.NewError(ctx, clientmsgs.MsgMissingABISuffix, abiTypeString, et)
			}
			if err := parseMxNSuffix(ctx, abiTypeString, tc, suffix); err != nil {
				return nil, err
			}
		}
	}

	if arrays != "" {
		// The component needs to be wrapped in some number of array dimensions.
		// The outer-most wrapper inherits the declared parameter name.
		wrapped, err := parseArrays(ctx, abiTypeString, tc, arrays)
		if err != nil {
			return nil, err
		}
		wrapped.keyName = p.Name
		tc.keyName = ""
		return wrapped, nil
	}

	return tc, nil
}

// splitElementaryTypeSuffix splits out the "256" from "[8][]" in "uint256[8][]"
func splitElementaryTypeSuffix(abiTypeString string, pos int) (string, string) {
	suffix := new(strings.Builder)
	for ; pos < len(abiTypeString) && abiTypeString[pos] != '['; pos++ {
		suffix.WriteByte(abiTypeString[pos])
	}
	arrays := new(strings.Builder)
	for ; pos < len(abiTypeString); pos++ {
		arrays.WriteByte(abiTypeString[pos])
	}
	return suffix.String(), arrays.String()
}

// parseMSuffix parses the "256" in "uint256" against the <M> rules for an elementary type, such as uint<M>, or ufixed<M>x<N>.
func parseMSuffix(ctx context.Context, abiTypeString string, ec *typeComponent, suffix string) error {
	val, err := strconv.ParseUint(suffix, 10, 16)
	if err != nil {
		return i18n.WrapError(ctx, err, clientmsgs.MsgInvalidABISuffix, abiTypeString, ec.elementaryType)
	}
	ec.m = uint16(val)
	if ec.m < ec.elementaryType.mMin || ec.m > ec.elementaryType.mMax {
		return i18n.NewError(ctx, clientmsgs.MsgInvalidABISuffix, abiTypeString, ec.elementaryType)
	}
	if ec.elementaryType.mMod != 0 && (ec.m%ec.elementaryType.mMod) != 0 {
		return i18n.NewError(ctx, clientmsgs.MsgInvalidABISuffix, abiTypeString, ec.elementaryType)
	}
	return nil
}

// parseNSuffix parses the "18" in "ufixed256x18" against the <N> rules for an elementary type, such as ufixed<M>x<N>
func parseNSuffix(ctx context.Context, abiTypeString string, ec *typeComponent, suffix string) error {
	val, err := strconv.ParseUint(suffix, 10, 16)
	if err != nil {
		return i18n.WrapError(ctx, err, clientmsgs.MsgInvalidABISuffix, abiTypeString, ec.elementaryType)
	}
	ec.n = uint16(val)
	if ec.n < ec.elementaryType.nMin || ec.n > ec.elementaryType.nMax {
		return i18n.NewError(ctx, clientmsgs.MsgInvalidABISuffix, abiTypeString, ec.elementaryType)
	}
	return nil
}

// parseMxNSuffix validates the "256x18" in "ufixed256x18", individually validating the <M> and <N> parts of the elementary type
func parseMxNSuffix(ctx context.Context, abiTypeString string, ec *typeComponent, suffix string) error {
	pos := 0
	mStr := new(strings.Builder)
	for ; pos < len(suffix) && suffix[pos] != 'x'; pos++ {
		mStr.WriteByte(suffix[pos])
	}
	if pos >= (len(suffix) - 1) {
		return i18n.NewError(ctx, clientmsgs.MsgInvalidABISuffix, abiTypeString, ec.elementaryType)
	}
	pos++
	if err := parseMSuffix(ctx, abiTypeString, ec, mStr.String()); err != nil {
		return err
	}
	return parseNSuffix(ctx, abiTypeString, ec, suffix[pos:])
}

// parseArrayM parses the "8" in "uint256[8]" for a fixed length array of <type>[M]
func parseArrayM(ctx context.Context, abiTypeString string, ac *typeComponent, mStr string) error {
	val, err := strconv.ParseUint(mStr, 10, 32)
	if err != nil {
		return i18n.WrapError(ctx, err, clientmsgs.MsgInvalidABIArraySpec, abiTypeString)
	}
	ac.arrayLength = int(val)
	return nil
}

// parseArrays recursively builds arrays for the "[8][]" part of "uint256[8][]" for variable or fixed array types
func parseArrays(ctx context.Context, abiTypeString string, child *typeComponent, suffix string) (*typeComponent, error) {

	pos := 0
	if pos >= len(suffix) || suffix[pos] != '[' {
		return nil, i18n.NewError(ctx, clientmsgs.MsgInvalidABIArraySpec, abiTypeString)
	}
	mStr := new(strings.Builder)
	for pos++; pos < len(suffix) && suffix[pos] != ']'; pos++ {
		mStr.WriteByte(suffix[pos])
	}
	if pos >= len(suffix) {
		return nil, i18n.NewError(ctx, clientmsgs.MsgInvalidABIArraySpec, abiTypeString)
	}
	pos++
	var ac *typeComponent
	if mStr.Len() == 0 {
		ac = &typeComponent{
			cType:      VariableArrayComponent,
			arrayChild: child,
		}
	} else {
		ac = &typeComponent{
			cType:      FixedArrayComponent,
			arrayChild: child,
		}
		if err := parseArrayM(ctx, abiTypeString, ac, mStr.String()); err != nil {
			return nil, err
		}
	}

	// We might have more dimensions to the array - if so recurse
	if pos < len(suffix) {
		return parseArrays(ctx, abiTypeString, ac, suffix[pos:])
	}

	// We're the last array in the chain
	return ac, nil
}
