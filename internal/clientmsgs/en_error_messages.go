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

package clientmsgs

import "github.com/hyperledger/firefly-common/pkg/i18n"

var ffe = i18n.FFE

//revive:disable
var (
	// Transport (shared numbering with the upstream JSON/RPC backend messages)
	MsgInvalidParam           = ffe("FF22011", "Invalid parameter at position %d for method %s: %s")
	MsgRPCRequestFailed       = ffe("FF22012", "Backend RPC request failed: %s")
	MsgRequestCanceledContext = ffe("FF22063", "Request was cancelled: %s")
	MsgRPCResultUnmarshalFailed = ffe("FF22065", "Failed to unmarshal RPC result: %s")
	MsgWSNotConnected         = ffe("FF22064", "WebSocket backend is not connected")
	MsgWSConnectFailed        = ffe("FF22062", "WebSocket connect to %s failed: %s")
	MsgWSSendTimedOut         = ffe("FF22066", "Timed out waiting to send WebSocket request %s")
	MsgRPCErrorResponse       = ffe("FF22067", "RPC call %s returned error [%d]: %s")
	MsgRPCNullResult          = ffe("FF22068", "RPC call %s returned a null result")
	MsgBatchErrorCountMismatch = ffe("FF22087", "Batch RPC response count %d did not match request count %d")

	// ABI-JSON parsing
	MsgUnsupportedABIType     = ffe("FF22025", "Unsupported type '%s' in ABI type string '%s'")
	MsgUnsupportedABISuffix   = ffe("FF22026", "Unexpected suffix '%s' for ABI type '%s' (%s)")
	MsgMissingABISuffix       = ffe("FF22027", "Missing required suffix for ABI type '%s' (%s)")
	MsgInvalidABISuffix       = ffe("FF22028", "Invalid suffix for ABI type '%s' (%s)")
	MsgInvalidABIArraySpec    = ffe("FF22029", "Invalid array specification in ABI type '%s'")
	MsgMissingComponents      = ffe("FF22052", "Tuple type '%s' is missing its 'components' array")
	MsgMalformedABIJSON       = ffe("FF22072", "Malformed ABI JSON: %s")
	MsgDuplicateSelector      = ffe("FF22057", "Duplicate function selector %s for '%s' and '%s'")
	MsgEmptyBytecode          = ffe("FF22058", "Bytecode is required to build an undeployed contract descriptor")
	MsgConstructorArgsInvalid = ffe("FF22059", "Constructor arguments do not match the constructor input template: %s")

	// ABI input coercion (JSON/Go value -> value tree)
	MsgInvalidIntegerABIInput      = ffe("FF22030", "Invalid integer value for %s: %s")
	MsgInvalidFloatABIInput        = ffe("FF22031", "Invalid floating point value for %s: %s")
	MsgInvalidStringABIInput       = ffe("FF22032", "Expected string value for %s but received %T")
	MsgInvalidBoolABIInput         = ffe("FF22033", "Expected boolean value for %s but received %T")
	MsgInvalidHexABIInput          = ffe("FF22034", "Invalid hex value for %s: %s")
	MsgMustBeSliceABIInput         = ffe("FF22035", "Expected array/slice value for %s but received %T")
	MsgFixedLengthABIArrayMismatch = ffe("FF22036", "Fixed length array %s requires exactly %d entries, but %d were supplied")
	MsgTupleABIArrayMismatch       = ffe("FF22037", "Tuple %s has %d components, but %d values were supplied")
	MsgTupleABINotArrayOrMap       = ffe("FF22038", "Expected object or array value for tuple %s but received %T")
	MsgTupleInABINoName            = ffe("FF22039", "Tuple %s supplied as an array, but parameter %d has no name to use for JSON-object serialization")
	MsgMissingInputKeyABITuple     = ffe("FF22040", "Missing required key '%s' in input for %s")
	MsgInvalidJSONTypeForBigInt    = ffe("FF22070", "Cannot convert %T to a number")

	// Raw integer string/JSON parsing (ethtypes.HexUint64, ethtypes.BigIntegerFromString)
	MsgMalformedIntegerString  = ffe("FF22088", "Malformed integer string '%s'")
	MsgIntegerPrecisionLoss    = ffe("FF22089", "Cannot represent '%s' as an integer without loss of precision")
	MsgIntegerOutOfRange       = ffe("FF22090", "Integer value '%s' is out of range for a 64-bit unsigned integer")
	MsgInvalidIntegerJSONType  = ffe("FF22091", "Cannot parse an unsigned integer from JSON value of type %T")
	MsgNegativeUnsignedInteger = ffe("FF22092", "Cannot store negative value %v in an unsigned integer")

	// ABI value model / encode bounds checks
	MsgBadABITypeComponent       = ffe("FF22041", "Invalid ABI type component: %v")
	MsgWrongTypeComponentABIEncode = ffe("FF22042", "Expected %s for %s but received %T")
	MsgInsufficientDataABIEncode = ffe("FF22043", "Insufficient data supplied for fixed length type of %d bytes (len=%d) for %s")
	MsgNumberTooLargeABIEncode   = ffe("FF22044", "Number is too large to be encoded in %d bits for %s")
	MsgNotEnoughBytesABIArrayCount = ffe("FF22045", "Not enough bytes to read array length at %s")
	MsgABIArrayCountTooLarge     = ffe("FF22046", "Array/bytes length %s is too large to be valid at %s")
	MsgNotEnoughBytesABIValue    = ffe("FF22047", "Not enough bytes to decode value of type %s at %s")
	MsgNotEnoughBytesABISignature = ffe("FF22048", "Not enough bytes to contain a 4 byte function selector")
	MsgIncorrectABISignatureID   = ffe("FF22049", "Incorrect function selector for %s: expected=%s received=%s")
	MsgUnknownABIElementaryType  = ffe("FF22050", "Unknown elementary type for %s")
	MsgUnknownTupleSerializer    = ffe("FF22051", "Unknown tuple serialization type: %d")
	MsgOddLengthHexInput         = ffe("FF22055", "Hex string has an odd length: %s")
	MsgInvalidAddressLength      = ffe("FF22056", "Address must be exactly 20 bytes (len=%d)")
	MsgOffsetOutOfRange          = ffe("FF22073", "Offset %d is out of range of data length %d at %s")
	MsgBadUTF8String             = ffe("FF22074", "Value is not valid UTF-8 at %s")
	MsgDecodeNonTupleComponent   = ffe("FF22061", "DecodeABIData can only be called on a tuple type component")

	// Lookup / contract model
	MsgFunctionNotFound = ffe("FF22060", "No function/event/error matching %s was found")
	MsgAmbiguousLookup  = ffe("FF22075", "Lookup for %s matched %d entries - supply more of the signature to disambiguate: %v")

	// Event log decoding
	MsgEventTopicMismatch      = ffe("FF22054", "Topic[0] %s does not match event signature hash %s for %s")
	MsgEventInsufficientTopics = ffe("FF22053", "Event %s requires %d topics but %d were supplied")

	// Transaction builder
	MsgValueToNonPayable           = ffe("FF22076", "Cannot send a non-zero value to non-payable function '%s'")
	MsgContractLacksFallback       = ffe("FF22077", "Contract does not define a fallback function")
	MsgContractLacksReceive        = ffe("FF22078", "Contract does not define a receive function")
	MsgArgumentsToEmptyFunctionSig = ffe("FF22079", "Arguments supplied to fallback/receive function, which takes no named inputs")
	MsgFunctionArgumentsMissing    = ffe("FF22080", "Function '%s' requires %d arguments but %d were supplied")
	MsgInvalidValueArgument        = ffe("FF22081", "Invalid value argument: %s")
	MsgWrongChainID                = ffe("FF22082", "Node returned chain ID %s, expected %s")
	MsgPayableZeroValueWarning     = ffe("FF22083", "Calling payable function '%s' with a zero value")
	MsgInvalidCallObjectField      = ffe("FF22084", "Field '%s' with value '%s' does not match the required pattern %s")

	// Receipt polling
	MsgReceiptPollCancelled = ffe("FF22085", "Receipt polling for transaction %s was cancelled: %s")

	// Registry / cache
	MsgRegistryContractNotFound = ffe("FF22086", "No contract registered for chain %d address %s")

	// ENS namehash
	MsgInvalidENSName = ffe("FF22093", "Invalid ENS name: %s")

	MsgABIInvalidJSON = ffe("FF22094", "ABI JSON does not match the expected document shape: %s")

	// Decode-side width enforcement
	MsgDecodedIntegerOutOfRange = ffe("FF22095", "Decoded value %s does not fit in a %s at %s")
)
