// Copyright © 2023 Kaleido, Inc.
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

package rpcbackend

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hyperledger/firefly-common/pkg/fftypes"
	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-common/pkg/log"
	"github.com/hyperledger/firefly-common/pkg/wsclient"
	"github.com/lattice-chain/evmabi/internal/clientmsgs"
	"github.com/sirupsen/logrus"
)

// RPCSubscriptionRequest is an `eth_subscription` notification pushed by the
// node over the websocket, outside of the normal request/response flow.
type RPCSubscriptionRequest struct {
	JSONRpc string                 `json:"jsonrpc"`
	Method  string                 `json:"method"`
	Params  RPCSubscriptionParams  `json:"params"`
}

type RPCSubscriptionParams struct {
	Subscription fftypes.JSONAny  `json:"subscription"`
	Result       *fftypes.JSONAny `json:"result"`
}

// WSBackend performs communication with a backend
type WSBackend interface {
	CallRPC(ctx context.Context, method string, params ...interface{}) (id string, rpcErr *RPCError)
	Subscribe(ctx context.Context, subChannel chan *RPCSubscriptionRequest, params ...interface{}) (error *RPCError)
	UnsubscribeAll(ctx context.Context) (error *RPCError)
	Connect(ctx context.Context) error
}

// WSRPCBackend adapts a websocket connection into the synchronous Backend
// interface pkg/ethrpc.Client expects, so a Client can be pointed at either an
// HTTP or a persistent WebSocket-connected node. It correlates each outbound
// request's allocated ID against the asynchronous stream read by receiveLoop,
// the same "mailbox" matching WSRPCClient already does for subscriptions.
type WSRPCBackend struct {
	ws *WSRPCClient
}

// NewWSRPCBackend constructs a Backend-satisfying wrapper over a websocket
// connection. Connect must be called before the first CallRPC/SyncRequest.
func NewWSRPCBackend(client wsclient.WSClient, options RPCClientOptions) *WSRPCBackend {
	ws := &WSRPCClient{
		client:               client,
		subscriptions:        make(map[string]chan *RPCSubscriptionRequest),
		pendingSubscriptions: make(map[string]chan *RPCSubscriptionRequest),
		pendingCalls:         make(map[string]chan *RPCResponse),
	}
	if options.MaxConcurrentRequest > 0 {
		ws.concurrencySlots = make(chan bool, options.MaxConcurrentRequest)
	}
	return &WSRPCBackend{ws: ws}
}

func (b *WSRPCBackend) Connect(ctx context.Context) error {
	return b.ws.Connect(ctx)
}

func (b *WSRPCBackend) CallRPC(ctx context.Context, result interface{}, method string, params ...interface{}) error {
	res, err := b.ws.syncCall(ctx, method, params...)
	if err != nil {
		return err
	}
	return interpretRPCResponse(res, result)
}

func (b *WSRPCBackend) SyncRequest(ctx context.Context, rpcReq *RPCRequest) (*RPCResponse, error) {
	params := make([]interface{}, len(rpcReq.Params))
	for i, p := range rpcReq.Params {
		params[i] = p
	}
	return b.ws.syncCall(ctx, rpcReq.Method, params...)
}

// interpretRPCResponse applies JSON-RPC's "errors carried in a 200 response" rule
// and unmarshals a successful result into result, exactly as RPCClient.CallRPC does
// for the HTTP transport.
func interpretRPCResponse(res *RPCResponse, result interface{}) error {
	if res.Error != nil && res.Error.Code != 0 {
		return fmt.Errorf(res.Message())
	}
	if result != nil && res.Result != nil {
		return json.Unmarshal(res.Result.Bytes(), result)
	}
	return nil
}

// NewWSRPCClient Constructor
func NewWSRPCClient(client wsclient.WSClient) WSBackend {
	return NewWSRPCClientWithOption(client, RPCClientOptions{})
}

// NewWSRPCClientWithOption Constructor
func NewWSRPCClientWithOption(client wsclient.WSClient, options RPCClientOptions) WSBackend {
	wsRPCClient := &WSRPCClient{
		client:               client,
		subscriptions:        make(map[string]chan *RPCSubscriptionRequest),
		pendingSubscriptions: make(map[string]chan *RPCSubscriptionRequest),
		pendingCalls:         make(map[string]chan *RPCResponse),
	}

	if options.MaxConcurrentRequest > 0 {
		wsRPCClient.concurrencySlots = make(chan bool, options.MaxConcurrentRequest)
	}

	return wsRPCClient
}

type WSRPCClient struct {
	client               wsclient.WSClient
	concurrencySlots     chan bool
	requestCounter       int64
	subscriptions        map[string]chan *RPCSubscriptionRequest
	pendingSubscriptions map[string]chan *RPCSubscriptionRequest
	pendingSubMutex      sync.Mutex
	subMutex             sync.Mutex
	pendingCalls         map[string]chan *RPCResponse
	pendingCallMutex     sync.Mutex
}

func (rc *WSRPCClient) Connect(ctx context.Context) error {
	if err := rc.client.Connect(); err != nil {
		return err
	}
	go rc.receiveLoop(ctx)
	return nil
}

func (rc *WSRPCClient) allocateRequestID(req *RPCRequest) string {
	reqID := fmt.Sprintf(`%.9d`, atomic.AddInt64(&rc.requestCounter, 1))
	req.ID = fftypes.JSONAnyPtr(`"` + reqID + `"`)
	return reqID
}

func (rc *WSRPCClient) Subscribe(ctx context.Context, subChannel chan *RPCSubscriptionRequest, params ...interface{}) (error *RPCError) {
	rc.pendingSubMutex.Lock()
	defer rc.pendingSubMutex.Unlock()
	reqID, err := rc.CallRPC(ctx, "eth_subscribe", params...)
	if err != nil {
		return err
	}
	rc.pendingSubscriptions[reqID] = subChannel
	return nil
}

func (rc *WSRPCClient) UnsubscribeAll(ctx context.Context) (error *RPCError) {
	rc.subMutex.Lock()
	for subID, subChan := range rc.subscriptions {
		close(subChan)
		delete(rc.subscriptions, subID)
		_, err := rc.CallRPC(ctx, "eth_unsubscribe", subID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (rc *WSRPCClient) CallRPC(ctx context.Context, method string, params ...interface{}) (id string, rpcErr *RPCError) {
	req := &RPCRequest{
		JSONRpc: "2.0",
		Method:  method,
		Params:  make([]*fftypes.JSONAny, len(params)),
	}
	for i, param := range params {
		b, err := json.Marshal(param)
		if err != nil {
			return "", &RPCError{Code: int64(RPCCodeInvalidRequest), Message: i18n.NewError(ctx, clientmsgs.MsgInvalidParam, i, method, err).Error()}
		}
		req.Params[i] = fftypes.JSONAnyPtrBytes(b)
	}
	reqID, err := rc.request(ctx, req, nil)
	if err != nil {
		return reqID, &RPCError{Code: int64(RPCCodeInvalidRequest), Message: i18n.NewError(ctx, clientmsgs.MsgInvalidParam, 0, method, err).Error()}
	}
	return reqID, nil
}

// syncCall dispatches a request over the websocket and blocks until receiveLoop
// delivers the correlated response (or ctx is cancelled) - the request/response
// half of the mailbox model that Subscribe/UnsubscribeAll already use for
// subscription management.
func (rc *WSRPCClient) syncCall(ctx context.Context, method string, params ...interface{}) (*RPCResponse, error) {
	req := &RPCRequest{
		JSONRpc: "2.0",
		Method:  method,
		Params:  make([]*fftypes.JSONAny, len(params)),
	}
	for i, param := range params {
		b, err := json.Marshal(param)
		if err != nil {
			return nil, i18n.NewError(ctx, clientmsgs.MsgInvalidParam, i, method, err)
		}
		req.Params[i] = fftypes.JSONAnyPtrBytes(b)
	}
	waitCh := make(chan *RPCResponse, 1)
	reqID, err := rc.request(ctx, req, waitCh)
	if err != nil {
		rc.pendingCallMutex.Lock()
		delete(rc.pendingCalls, reqID)
		rc.pendingCallMutex.Unlock()
		return nil, i18n.NewError(ctx, clientmsgs.MsgRPCRequestFailed, err)
	}
	select {
	case res := <-waitCh:
		return res, nil
	case <-ctx.Done():
		rc.pendingCallMutex.Lock()
		delete(rc.pendingCalls, reqID)
		rc.pendingCallMutex.Unlock()
		return nil, i18n.NewError(ctx, clientmsgs.MsgRequestCanceledContext, ctx.Err())
	}
}

func (rc *WSRPCClient) request(ctx context.Context, rpcReq *RPCRequest, waitCh chan *RPCResponse) (id string, err error) {
	if rc.concurrencySlots != nil {
		select {
		case rc.concurrencySlots <- true:
			// wait for the concurrency slot and continue
		case <-ctx.Done():
			return "", i18n.NewError(ctx, clientmsgs.MsgRequestCanceledContext, rpcReq.ID)
		}
		defer func() {
			<-rc.concurrencySlots
		}()
	}

	// We always set the back-end request ID - as we need to support requests coming in from
	// multiple concurrent clients on our front-end that might use clashing IDs.
	reqID := rc.allocateRequestID(rpcReq)
	if waitCh != nil {
		// Register before Send, so the response can never race ahead of the registration.
		rc.pendingCallMutex.Lock()
		rc.pendingCalls[reqID] = waitCh
		rc.pendingCallMutex.Unlock()
	}
	jsonInput, _ := json.Marshal(rpcReq)

	log.L(ctx).Debugf("RPC[%s] --> %s", reqID, rpcReq.Method)
	if logrus.IsLevelEnabled(logrus.TraceLevel) {
		log.L(ctx).Tracef("RPC[%s] INPUT: %s", reqID, jsonInput)
	}
	err = rc.client.Send(ctx, jsonInput)

	// Report a failed send
	if err != nil {
		err := i18n.NewError(ctx, clientmsgs.MsgRPCRequestFailed, err)
		log.L(ctx).Errorf("RPC[%s] <-- ERROR: %s", reqID, err)
		return reqID, err
	}
	return reqID, nil
}

func (rc *WSRPCClient) receiveLoop(ctx context.Context) {
	for {
		bytes, ok := <-rc.client.Receive()
		if !ok {
			return
		}
		rc.handleMessage(ctx, bytes)
	}
}

// handleMessage dispatches one inbound websocket frame: an `eth_subscription`
// push goes to its tracked subscription channel, a pending subscribe/unsubscribe
// reply is matched by request ID in pendingSubscriptions, and everything else -
// the result of an ordinary eth_call/eth_sendTransaction/etc - is matched by
// request ID in pendingCalls and handed to the blocked syncCall.
func (rc *WSRPCClient) handleMessage(ctx context.Context, bytes []byte) {
	res := &RPCResponse{}
	if err := json.Unmarshal(bytes, res); err != nil {
		log.L(ctx).Errorf("RPC <-- ERROR: %s", err)
	}
	// If it doesn't have a result, it might be a request instead
	if res == nil || res.Result == nil || res.Result.String() == "" {
		req := &RPCSubscriptionRequest{}
		if err := json.Unmarshal(bytes, req); err != nil {
			log.L(ctx).Errorf("RPC <-- ERROR: %s", err)
		}
		// If it doesn't have a method I don't know what to do now
		if req == nil || req.Method == "" {
			log.L(ctx).Error("RPC <-- ERROR: Unable to process received message")
		}
		if req.Method == "eth_subscription" {
			subID := req.Params.Subscription.AsString()
			rc.subMutex.Lock()
			subChan, ok := rc.subscriptions[subID]
			rc.subMutex.Unlock()
			if ok {
				subChan <- req
			} else {
				// No active sub found for this one. Dropping it
				log.L(ctx).Warnf("RPC <-- WARN: Received subscription event for untracked subscription %s", subID)
			}
		}
	}
	rc.pendingSubMutex.Lock()
	id := res.ID.AsString()
	if subChan, ok := rc.pendingSubscriptions[id]; ok {
		delete(rc.pendingSubscriptions, id)
		rc.pendingSubMutex.Unlock()
		subID := res.Result.AsString()
		rc.subMutex.Lock()
		rc.subscriptions[subID] = subChan
		rc.subMutex.Unlock()
		return
	}
	rc.pendingSubMutex.Unlock()

	rc.pendingCallMutex.Lock()
	if waitCh, ok := rc.pendingCalls[id]; ok {
		delete(rc.pendingCalls, id)
		rc.pendingCallMutex.Unlock()
		waitCh <- res
	} else {
		rc.pendingCallMutex.Unlock()
	}
}
