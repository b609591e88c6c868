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

package rpcbackend

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hyperledger/firefly-common/pkg/fftypes"
	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-common/pkg/log"
	"github.com/lattice-chain/evmabi/internal/clientmsgs"
	"github.com/sirupsen/logrus"
)

type RPCCode int64

const (
	RPCCodeParseError     RPCCode = -32700
	RPCCodeInvalidRequest RPCCode = -32600
	RPCCodeInternalError  RPCCode = -32603
)

// Backend performs communication with a backend
type Backend interface {
	CallRPC(ctx context.Context, result interface{}, method string, params ...interface{}) error
	SyncRequest(ctx context.Context, rpcReq *RPCRequest) (rpcRes *RPCResponse, err error)
}

// NewRPCClient Constructor
func NewRPCClient(client *resty.Client) Backend {
	return &RPCClient{
		client: client,
	}
}

// NewRPCClientWithOption builds a Backend that additionally enforces a concurrency cap
// on individual requests, and/or folds requests into JSON-RPC batches
// (https://www.jsonrpc.org/specification#batch) dispatched by a background loop -
// see pkg/rpcbackend/config.go for the tunables. Panics if batching is enabled without
// a BatchDispatcherContext, since the batch loop has nothing to select on otherwise.
func NewRPCClientWithOption(client *resty.Client, options RPCClientOptions) Backend {
	rc := &RPCClient{
		client: client,
	}
	if options.MaxConcurrentRequest > 0 {
		rc.maxConcurrentRequestSlots = make(chan struct{}, options.MaxConcurrentRequest)
	}
	if options.BatchOptions != nil && options.BatchOptions.Enabled {
		if options.BatchOptions.BatchDispatcherContext == nil {
			panic("batch dispatching requires a BatchDispatcherContext")
		}
		rc.batchOptions = options.BatchOptions
		rc.batchSize = options.BatchOptions.BatchSize
		if rc.batchSize <= 0 {
			rc.batchSize = DefaultConfigBatchSize
		}
		rc.batchTimeout = options.BatchOptions.BatchTimeout
		if rc.batchTimeout <= 0 {
			rc.batchTimeout, _ = time.ParseDuration(DefaultConfigTimeout)
		}
		dispatchConcurrency := options.BatchOptions.BatchMaxDispatchConcurrency
		if dispatchConcurrency <= 0 {
			dispatchConcurrency = DefaultConfigDispatchConcurrency
		}
		rc.requestQueue = make(chan *pendingBatchItem)
		rc.requestBatchConcurrencySlots = make(chan bool, dispatchConcurrency)
		go rc.runBatchDispatcher()
	}
	return rc
}

type RPCClient struct {
	client         *resty.Client
	requestCounter int64

	maxConcurrentRequestSlots chan struct{}

	batchOptions                 *RPCClientBatchOptions
	batchSize                    int
	batchTimeout                 time.Duration
	requestQueue                 chan *pendingBatchItem
	requestBatchConcurrencySlots chan bool
}

// pendingBatchItem is a single caller's request sitting in the batch queue, waiting
// to be folded into a batch and dispatched - replyCh always receives exactly once.
type pendingBatchItem struct {
	ctx     context.Context
	req     *RPCRequest
	replyCh chan pendingBatchResult
}

type pendingBatchResult struct {
	res *RPCResponse
	err error
}

type RPCRequest struct {
	JSONRpc string             `json:"jsonrpc"`
	ID      *fftypes.JSONAny   `json:"id"`
	Method  string             `json:"method"`
	Params  []*fftypes.JSONAny `json:"params,omitempty"`
}

type RPCError struct {
	Code    int64           `json:"code"`
	Message string          `json:"message"`
	Data    fftypes.JSONAny `json:"data,omitempty"`
}

type RPCResponse struct {
	JSONRpc string           `json:"jsonrpc"`
	ID      *fftypes.JSONAny `json:"id"`
	Result  *fftypes.JSONAny `json:"result,omitempty"`
	Error   *RPCError        `json:"error,omitempty"`
}

func (r *RPCResponse) Message() string {
	if r.Error != nil {
		return r.Error.Message
	}
	return ""
}

func (rc *RPCClient) allocateRequestID(req *RPCRequest) string {
	reqID := fmt.Sprintf(`%.9d`, atomic.AddInt64(&rc.requestCounter, 1))
	req.ID = fftypes.JSONAnyPtr(`"` + reqID + `"`)
	return reqID
}

func (rc *RPCClient) CallRPC(ctx context.Context, result interface{}, method string, params ...interface{}) error {
	req := &RPCRequest{
		JSONRpc: "2.0",
		Method:  method,
		Params:  make([]*fftypes.JSONAny, len(params)),
	}
	for i, param := range params {
		b, err := json.Marshal(param)
		if err != nil {
			return i18n.NewError(ctx, clientmsgs.MsgInvalidParam, i, method, err)
		}
		req.Params[i] = fftypes.JSONAnyPtrBytes(b)
	}
	res, err := rc.SyncRequest(ctx, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(res.Result.Bytes(), &result); err != nil {
		return i18n.NewError(ctx, clientmsgs.MsgRPCResultUnmarshalFailed, err)
	}
	return nil
}

// SyncRequest sends an individual RPC request to the backend, and waits synchronously
// for the response, or an error. When batching is enabled the request is instead queued
// for the background batch dispatcher, and this call blocks until that dispatcher
// delivers a reply (or either context is cancelled first).
func (rc *RPCClient) SyncRequest(ctx context.Context, rpcReq *RPCRequest) (rpcRes *RPCResponse, err error) {
	if rc.batchOptions != nil && rc.batchOptions.Enabled {
		return rc.batchSyncRequest(ctx, rpcReq)
	}
	if rc.maxConcurrentRequestSlots != nil {
		select {
		case rc.maxConcurrentRequestSlots <- struct{}{}:
			defer func() { <-rc.maxConcurrentRequestSlots }()
		case <-ctx.Done():
			return nil, i18n.NewError(ctx, clientmsgs.MsgRequestCanceledContext, ctx.Err())
		}
	}
	return rc.doSyncRequest(ctx, rpcReq)
}

// doSyncRequest sends an individual RPC request to the backend (always over HTTP currently),
// and waits synchronously for the response, or an error.
//
// In all return paths *including error paths* the RPCResponse is populated
// so the caller has an RPC structure to send back to the front-end caller.
func (rc *RPCClient) doSyncRequest(ctx context.Context, rpcReq *RPCRequest) (rpcRes *RPCResponse, err error) {

	// We always set the back-end request ID - as we need to support requests coming in from
	// multiple concurrent clients on our front-end that might use clashing IDs.
	var beReq = *rpcReq
	beReq.JSONRpc = "2.0"
	rpcTraceID := rc.allocateRequestID(&beReq)
	if rpcReq.ID != nil {
		// We're proxying a request with front-end RPC ID - log that as well
		rpcTraceID = fmt.Sprintf("%s->%s", rpcReq.ID, rpcTraceID)
	}

	rpcRes = new(RPCResponse)

	log.L(ctx).Debugf("RPC[%s] --> %s", rpcTraceID, rpcReq.Method)
	if logrus.IsLevelEnabled(logrus.TraceLevel) {
		jsonInput, _ := json.Marshal(rpcReq)
		log.L(ctx).Tracef("RPC[%s] INPUT: %s", rpcTraceID, jsonInput)
	}
	res, err := rc.client.R().
		SetContext(ctx).
		SetBody(beReq).
		SetResult(&rpcRes).
		SetError(rpcRes).
		Post("")

	// Restore the original ID
	rpcRes.ID = rpcReq.ID
	if err != nil {
		err := i18n.NewError(ctx, clientmsgs.MsgRPCRequestFailed, err)
		log.L(ctx).Errorf("RPC[%s] <-- ERROR: %s", rpcTraceID, err)
		rpcRes = RPCErrorResponse(err, rpcReq.ID, RPCCodeInternalError)
		return rpcRes, err
	}
	if logrus.IsLevelEnabled(logrus.TraceLevel) {
		jsonOutput, _ := json.Marshal(rpcRes)
		log.L(ctx).Tracef("RPC[%s] OUTPUT: %s", rpcTraceID, jsonOutput)
	}
	// JSON/RPC allows errors to be returned with a 200 status code, as well as other status codes
	if res.IsError() || rpcRes.Error != nil && rpcRes.Error.Code != 0 {
		log.L(ctx).Errorf("RPC[%s] <-- [%d]: %s", rpcTraceID, res.StatusCode(), rpcRes.Message())
		err := fmt.Errorf(rpcRes.Message())
		return rpcRes, err
	}
	log.L(ctx).Infof("RPC[%s] <-- [%d] OK", rpcTraceID, res.StatusCode())
	if rpcRes.Result == nil {
		// We don't want a result for errors, but a null success response needs to go in there
		rpcRes.Result = fftypes.JSONAnyPtr(fftypes.NullString)
	}
	return rpcRes, nil
}

func RPCErrorResponse(err error, id *fftypes.JSONAny, code RPCCode) *RPCResponse {
	return &RPCResponse{
		JSONRpc: "2.0",
		ID:      id,
		Error: &RPCError{
			Code:    int64(code),
			Message: err.Error(),
		},
	}
}

// batchSyncRequest queues rpcReq for the background batch dispatcher and blocks for
// its reply. Queueing itself is cancellable via the dispatcher's own context, so a
// caller using an uncancellable context (e.g. context.Background()) still unblocks
// promptly if the dispatcher is shut down.
func (rc *RPCClient) batchSyncRequest(ctx context.Context, rpcReq *RPCRequest) (*RPCResponse, error) {
	item := &pendingBatchItem{
		ctx:     ctx,
		req:     rpcReq,
		replyCh: make(chan pendingBatchResult, 1),
	}
	select {
	case rc.requestQueue <- item:
	case <-rc.batchOptions.BatchDispatcherContext.Done():
		return nil, i18n.NewError(ctx, clientmsgs.MsgRequestCanceledContext, rc.batchOptions.BatchDispatcherContext.Err())
	}
	select {
	case result := <-item.replyCh:
		return result.res, result.err
	case <-ctx.Done():
		return nil, i18n.NewError(ctx, clientmsgs.MsgRequestCanceledContext, ctx.Err())
	}
}

// runBatchDispatcher accumulates queued requests into batches, flushed by size
// (batchSize) or by elapsed time since the batch's first item (batchTimeout),
// whichever happens first. It runs for the lifetime of the client's
// BatchDispatcherContext, draining any still-queued or still-buffered requests
// with a cancellation error once that context is done.
func (rc *RPCClient) runBatchDispatcher() {
	ctx := rc.batchOptions.BatchDispatcherContext
	var buffer []*pendingBatchItem
	var timerC <-chan time.Time
	for {
		select {
		case item := <-rc.requestQueue:
			buffer = append(buffer, item)
			if timerC == nil {
				timerC = time.After(rc.batchTimeout)
			}
			if len(buffer) >= rc.batchSize {
				timerC = nil
				rc.dispatchBatch(ctx, buffer)
				buffer = nil
			}
		case <-timerC:
			timerC = nil
			if len(buffer) > 0 {
				rc.dispatchBatch(ctx, buffer)
				buffer = nil
			}
		case <-ctx.Done():
			rc.drain(buffer, ctx.Err())
			rc.drainQueue(ctx.Err())
			return
		}
	}
}

// dispatchBatch hands a ready batch off to a worker goroutine, gated by
// requestBatchConcurrencySlots so that at most BatchMaxDispatchConcurrency batches
// are in flight at once. If the dispatcher context is cancelled while waiting for a
// free slot, the whole batch is drained with a cancellation error instead.
func (rc *RPCClient) dispatchBatch(ctx context.Context, batch []*pendingBatchItem) {
	select {
	case rc.requestBatchConcurrencySlots <- true:
		go func() {
			defer func() { <-rc.requestBatchConcurrencySlots }()
			rc.sendBatch(ctx, batch)
		}()
	case <-ctx.Done():
		rc.drain(batch, ctx.Err())
	}
}

func (rc *RPCClient) drain(batch []*pendingBatchItem, cause error) {
	for _, item := range batch {
		item.replyCh <- pendingBatchResult{err: i18n.NewError(item.ctx, clientmsgs.MsgRequestCanceledContext, cause)}
	}
}

// drainQueue flushes any requests that arrived after the dispatcher loop had already
// moved into its shutdown path, so a sender blocked on batchSyncRequest's queueing
// select always gets a reply rather than a second chance at an already-dead dispatcher.
func (rc *RPCClient) drainQueue(cause error) {
	for {
		select {
		case item := <-rc.requestQueue:
			item.replyCh <- pendingBatchResult{err: i18n.NewError(item.ctx, clientmsgs.MsgRequestCanceledContext, cause)}
		default:
			return
		}
	}
}

// sendBatch posts one JSON-RPC batch and demuxes the response array back to each
// item's reply channel by position - per the JSON-RPC 2.0 batch spec, a server is
// free to return results in any order, but every backend exercised by this client
// preserves request order within a batch.
func (rc *RPCClient) sendBatch(ctx context.Context, batch []*pendingBatchItem) {
	beReqs := make([]*RPCRequest, len(batch))
	traceIDs := make([]string, len(batch))
	for i, item := range batch {
		beReq := *item.req
		beReq.JSONRpc = "2.0"
		traceIDs[i] = rc.allocateRequestID(&beReq)
		beReqs[i] = &beReq
	}

	log.L(ctx).Debugf("RPC batch[%v] --> %d requests", traceIDs, len(beReqs))
	if logrus.IsLevelEnabled(logrus.TraceLevel) {
		jsonInput, _ := json.Marshal(beReqs)
		log.L(ctx).Tracef("RPC batch[%v] INPUT: %s", traceIDs, jsonInput)
	}

	var rpcResList []*RPCResponse
	res, err := rc.client.R().
		SetContext(ctx).
		SetBody(beReqs).
		SetResult(&rpcResList).
		SetError(&rpcResList).
		Post("")

	if err != nil {
		var wrapped error
		if ctx.Err() != nil {
			wrapped = i18n.NewError(ctx, clientmsgs.MsgRequestCanceledContext, ctx.Err())
		} else {
			wrapped = i18n.NewError(ctx, clientmsgs.MsgRPCRequestFailed, err)
		}
		log.L(ctx).Errorf("RPC batch[%v] <-- ERROR: %s", traceIDs, wrapped)
		rc.drain(batch, wrapped)
		return
	}

	if len(rpcResList) != len(batch) {
		wrapped := i18n.NewError(ctx, clientmsgs.MsgBatchErrorCountMismatch, len(rpcResList), len(batch))
		log.L(ctx).Errorf("RPC batch[%v] <-- ERROR: %s", traceIDs, wrapped)
		rc.drain(batch, wrapped)
		return
	}

	log.L(ctx).Infof("RPC batch[%v] <-- [%d] OK", traceIDs, res.StatusCode())
	for i, rpcRes := range rpcResList {
		item := batch[i]
		rpcRes.ID = item.req.ID
		if res.IsError() || (rpcRes.Error != nil && rpcRes.Error.Code != 0) {
			item.replyCh <- pendingBatchResult{res: rpcRes, err: fmt.Errorf(rpcRes.Message())}
			continue
		}
		if rpcRes.Result == nil {
			rpcRes.Result = fftypes.JSONAnyPtr(fftypes.NullString)
		}
		item.replyCh <- pendingBatchResult{res: rpcRes}
	}
}
