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

package abi

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/lattice-chain/evmabi/internal/clientmsgs"
)

// EncodeABIData serializes the value tree rooted at cv into its ABI encoded
// bytes. cv must be the root ComponentValue of a ParameterArray (a tuple of
// the top level arguments), not an individual parameter.
func (cv *ComponentValue) EncodeABIData() ([]byte, error) {
	return cv.EncodeABIDataCtx(context.Background())
}

func (cv *ComponentValue) EncodeABIDataCtx(ctx context.Context) ([]byte, error) {
	if cv == nil {
		return nil, i18n.NewError(ctx, clientmsgs.MsgBadABITypeComponent, cv)
	}
	return encodeABISequence(ctx, "", cv.Children)
}

// encodeABIValue encodes a single component value, returning either head bytes
// (for a static value, to be inlined directly into the enclosing sequence) or
// tail bytes (for a dynamic value, to be appended after all head slots and
// referenced via a 32 byte offset).
func encodeABIValue(ctx context.Context, breadcrumbs string, cv *ComponentValue) (head []byte, tail []byte, err error) {
	tc, ok := cv.Component.(*typeComponent)
	if !ok || tc == nil {
		return nil, nil, i18n.NewError(ctx, clientmsgs.MsgBadABITypeComponent, cv.Component)
	}
	dynamic := tc.Dynamic()
	switch tc.cType {
	case ElementaryComponent:
		data, isDynamic, err := encodeABIElementaryValue(ctx, breadcrumbs, tc, cv.Value)
		if err != nil {
			return nil, nil, err
		}
		if isDynamic {
			return nil, data, nil
		}
		return data, nil, nil
	case VariableArrayComponent:
		content, err := encodeABIArrayContent(ctx, breadcrumbs, cv)
		if err != nil {
			return nil, nil, err
		}
		return nil, content, nil
	case FixedArrayComponent, TupleComponent:
		content, err := encodeABISequence(ctx, breadcrumbs, cv.Children)
		if err != nil {
			return nil, nil, err
		}
		if dynamic {
			return nil, content, nil
		}
		return content, nil, nil
	default:
		return nil, nil, i18n.NewError(ctx, clientmsgs.MsgBadABITypeComponent, tc.cType)
	}
}

// encodeABISequence encodes an ordered list of component values as a
// head/tail block, per the Solidity Contract ABI tuple encoding rules:
// static values (and the offsets of dynamic ones) occupy the head in order,
// followed by the tail content of each dynamic value in the same order.
func encodeABISequence(ctx context.Context, breadcrumbs string, children []*ComponentValue) ([]byte, error) {
	n := len(children)
	heads := make([][]byte, n)
	tails := make([][]byte, n)

	headSize := 0
	for _, child := range children {
		tc, ok := child.Component.(*typeComponent)
		if !ok || tc == nil {
			return nil, i18n.NewError(ctx, clientmsgs.MsgBadABITypeComponent, child.Component)
		}
		headSize += tc.HeadSize()
	}

	tailOffset := headSize
	for i, child := range children {
		childBreadcrumbs := fmt.Sprintf("%s[%d]", breadcrumbs, i)
		head, tail, err := encodeABIValue(ctx, childBreadcrumbs, child)
		if err != nil {
			return nil, err
		}
		if tail != nil || child.Component.Dynamic() {
			offsetBytes := make([]byte, 32)
			big.NewInt(int64(tailOffset)).FillBytes(offsetBytes)
			heads[i] = offsetBytes
			tails[i] = tail
			tailOffset += len(tail)
		} else {
			heads[i] = head
		}
	}

	buf := new(bytes.Buffer)
	for _, h := range heads {
		buf.Write(h)
	}
	for _, t := range tails {
		buf.Write(t)
	}
	return buf.Bytes(), nil
}

// encodeABIArrayContent encodes the length-prefixed content of a variable
// length array - the 32 byte element count, followed by the elements
// themselves laid out exactly as a tuple sequence of that many identically
// typed children.
func encodeABIArrayContent(ctx context.Context, breadcrumbs string, cv *ComponentValue) ([]byte, error) {
	seq, err := encodeABISequence(ctx, breadcrumbs, cv.Children)
	if err != nil {
		return nil, err
	}
	lengthPrefix := make([]byte, 32)
	big.NewInt(int64(len(cv.Children))).FillBytes(lengthPrefix)
	return append(lengthPrefix, seq...), nil
}

// encodeABIElementaryValue dispatches to the correct encoder for an elementary
// type component, based on which ElementaryTypeInfo singleton it was parsed
// against. It returns the encoded bytes and whether they are "dynamic" tail
// content (true) or bytes to inline directly into the head (false).
func encodeABIElementaryValue(ctx context.Context, desc string, tc *typeComponent, value interface{}) (data []byte, dynamic bool, err error) {
	switch tc.elementaryType {
	case ElementaryTypeInt:
		return abiEncodeSignedInteger(ctx, desc, tc, value)
	case ElementaryTypeUint, ElementaryTypeAddress, ElementaryTypeBool:
		return abiEncodeUnsignedInteger(ctx, desc, tc, value)
	case ElementaryTypeFixed:
		i, err := floatToFixedPointInt(ctx, desc, tc, value)
		if err != nil {
			return nil, false, err
		}
		return abiEncodeSignedInteger(ctx, desc, tc, i)
	case ElementaryTypeUfixed:
		i, err := floatToFixedPointInt(ctx, desc, tc, value)
		if err != nil {
			return nil, false, err
		}
		return abiEncodeUnsignedInteger(ctx, desc, tc, i)
	case ElementaryTypeBytes, ElementaryTypeFunction:
		return abiEncodeBytes(ctx, desc, tc, value)
	case ElementaryTypeString:
		return abiEncodeString(ctx, desc, tc, value)
	default:
		return nil, false, i18n.NewError(ctx, clientmsgs.MsgUnknownABIElementaryType, desc)
	}
}

// floatToFixedPointInt scales a human-precision fixed/ufixed value (a *big.Float,
// or anything getFloatFromInterface can coerce to one) up by 10^N, to get the
// raw integer that is actually ABI-encoded for a fixed<M>x<N> / ufixed<M>x<N> value.
func floatToFixedPointInt(ctx context.Context, desc string, tc *typeComponent, value interface{}) (*big.Int, error) {
	f, err := getFloatFromInterface(ctx, desc, value)
	if err != nil {
		return nil, err
	}
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(tc.n)), nil))
	scaled := new(big.Float).Mul(f, scale)
	i, _ := scaled.Int(nil)
	return i, nil
}

func abiEncodeBytes(ctx context.Context, desc string, tc *typeComponent, value interface{}) (data []byte, dynamic bool, err error) {
	// Belt and braces type check, although responsibility for generation of all the input data is within this package
	b, ok := value.([]byte)
	if !ok {
		return nil, false, i18n.NewError(ctx, clientmsgs.MsgWrongTypeComponentABIEncode, "[]byte", value, desc)
	}

	var fixedLength int
	switch tc.elementaryType {
	case ElementaryTypeFunction:
		fixedLength = 24
	default: // ElementaryTypeBytes
		// The type "bytes" (without a length suffix) is a variable encoding
		if tc.elementarySuffix == "" {
			return abiEncodeDynamicBytes(b)
		}
		fixedLength = int(tc.m)
	}

	// Belt and braces length check, although responsibility for generation of all the input data is within this package
	if len(b) < fixedLength || fixedLength > 32 {
		return nil, false, i18n.NewError(ctx, clientmsgs.MsgInsufficientDataABIEncode, int(fixedLength), len(b), desc)
	}

	// Copy into the front of a 32byte block, with trailing zeros.
	// That is the head, the data is empty
	data = make([]byte, 32)
	copy(data, b[0:fixedLength])
	return data, false, nil
}

func abiEncodeString(ctx context.Context, desc string, tc *typeComponent, value interface{}) (data []byte, dynamic bool, err error) {
	// Belt and braces type check, although responsibility for generation of all the input data is within this package
	s, ok := value.(string)
	if !ok {
		return nil, false, i18n.NewError(ctx, clientmsgs.MsgWrongTypeComponentABIEncode, "string", value, desc)
	}

	// Note we assume UTF-8 encoding has been assured of all input strings. No special handling here.
	return abiEncodeDynamicBytes([]byte(s))
}

func abiEncodeDynamicBytes(value []byte) (data []byte, dynamic bool, err error) {

	dataLen := 32 + // length is prefixed as uint256
		(len(value)/32)*32 // count of whole 32 byte chunks
	if (len(value) % 32) != 0 {
		dataLen += 32 // add 32 byte chunk for remainder
	}
	data = make([]byte, dataLen)
	_ = big.NewInt(int64(len(value))).FillBytes(data[0:32])
	copy(data[32:], value)

	return data, true, nil

}

func abiEncodeSignedInteger(ctx context.Context, desc string, tc *typeComponent, value interface{}) (data []byte, dynamic bool, err error) {
	// Belt and braces type check, although responsibility for generation of all the input data is within this package
	i, ok := value.(*big.Int)
	if !ok {
		return nil, false, i18n.NewError(ctx, clientmsgs.MsgWrongTypeComponentABIEncode, "*big.Int", value, desc)
	}

	// Reject integers that do not fit in the specified type
	if !checkSignedIntFits(i, tc.m) {
		return nil, false, i18n.NewError(ctx, clientmsgs.MsgNumberTooLargeABIEncode, tc.m, desc)
	}

	return SerializeInt256TwosComplementBytes(i), false, nil
}

func abiEncodeUnsignedInteger(ctx context.Context, desc string, tc *typeComponent, value interface{}) (data []byte, dynamic bool, err error) {
	// Belt and braces type check, although responsibility for generation of all the input data is within this package
	i, ok := value.(*big.Int)
	if !ok {
		return nil, false, i18n.NewError(ctx, clientmsgs.MsgWrongTypeComponentABIEncode, "*big.Int", value, desc)
	}

	// Reject integers that do not fit in the specified type
	if i.BitLen() > int(tc.m) {
		return nil, false, i18n.NewError(ctx, clientmsgs.MsgNumberTooLargeABIEncode, tc.m, desc)
	}

	data = make([]byte, 32)
	_ = i.FillBytes(data)
	return data, false, nil
}
