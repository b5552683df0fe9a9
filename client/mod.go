// Package client implements the JSON-RPC 2.0 client talking to a contract
// RPC server.
//
// The server exposes four methods: getAccount, getContractData,
// simulateTransaction and sendTransaction. Binary payloads travel as
// base64-encoded XDR strings.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/xid"
	"go.dedis.ch/stela"
	"go.dedis.ch/stela/xdr"
	"golang.org/x/xerrors"
)

// defines prometheus metrics
var (
	promRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stela_rpc_requests_total",
		Help: "total number of requests sent to the rpc server",
	}, []string{"method"})

	promErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stela_rpc_errors_total",
		Help: "total number of failed requests to the rpc server",
	}, []string{"method"})
)

func init() {
	stela.PromCollectors = append(stela.PromCollectors, promRequests, promErrors)
}

// defaultTimeout bounds a single request round trip.
const defaultTimeout = 30 * time.Second

// AccountDetails is the description of an account returned by the server.
type AccountDetails struct {
	ID       string `json:"id"`
	Sequence string `json:"sequence"`
}

// ContractDataResult is a single ledger entry returned by the server as its
// base64-encoded XDR representation.
type ContractDataResult struct {
	XDR                   string `json:"xdr"`
	LastModifiedLedgerSeq string `json:"lastModifiedLedgerSeq"`
}

// Cost is the resource consumption reported by a simulation.
type Cost struct {
	CPUInstructions string `json:"cpuInsns"`
	MemoryBytes     string `json:"memBytes"`
}

// SimulationResult is the outcome of a transaction simulation: the resolved
// footprint alongside the estimated cost, or the error the execution hit.
type SimulationResult struct {
	Footprint string `json:"footprint"`
	Cost      Cost   `json:"cost"`
	Error     string `json:"error"`
}

// SendResult is the receipt of a submitted transaction.
type SendResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Client is a JSON-RPC 2.0 client over HTTP.
type Client struct {
	url  string
	http *http.Client
}

// New returns a client talking to the server at the URL.
func New(url string) *Client {
	return &Client{
		url: url,
		http: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// GetAccount returns the details of the account with the given address.
func (c *Client) GetAccount(ctx context.Context, address string) (AccountDetails, error) {
	res := AccountDetails{}

	err := c.call(ctx, "getAccount", []interface{}{address}, &res)
	if err != nil {
		return AccountDetails{}, err
	}

	return res, nil
}

// GetContractData returns the ledger entry of the contract stored under the
// key. The contract identifier is hex-encoded, the key travels as XDR.
func (c *Client) GetContractData(ctx context.Context, contractID string,
	key xdr.Value) (ContractDataResult, error) {

	encoded, err := xdr.MarshalBase64(key)
	if err != nil {
		return ContractDataResult{}, xerrors.Errorf("couldn't encode key: %v", err)
	}

	res := ContractDataResult{}

	err = c.call(ctx, "getContractData", []interface{}{contractID, encoded}, &res)
	if err != nil {
		return ContractDataResult{}, err
	}

	return res, nil
}

// SimulateTransaction asks the server to run the transaction against the
// latest ledger and returns the resolved footprint and estimated cost.
func (c *Client) SimulateTransaction(ctx context.Context,
	env xdr.Envelope) (SimulationResult, error) {

	encoded, err := xdr.MarshalBase64(env)
	if err != nil {
		return SimulationResult{}, xerrors.Errorf("couldn't encode envelope: %v", err)
	}

	res := SimulationResult{}

	err = c.call(ctx, "simulateTransaction", []interface{}{encoded}, &res)
	if err != nil {
		return SimulationResult{}, err
	}

	if res.Error != "" {
		return SimulationResult{}, xerrors.Errorf("simulation failed: %s", res.Error)
	}

	return res, nil
}

// SendTransaction submits the envelope to the network and returns the receipt
// without waiting for the transaction to be included in a ledger.
func (c *Client) SendTransaction(ctx context.Context, env xdr.Envelope) (SendResult, error) {
	encoded, err := xdr.MarshalBase64(env)
	if err != nil {
		return SendResult{}, xerrors.Errorf("couldn't encode envelope: %v", err)
	}

	res := SendResult{}

	err = c.call(ctx, "sendTransaction", []interface{}{encoded}, &res)
	if err != nil {
		return SendResult{}, err
	}

	return res, nil
}

type request struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      string        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type response struct {
	Result json.RawMessage `json:"result"`
	Error  *responseError  `json:"error"`
}

type responseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// call performs a single JSON-RPC round trip and decodes the result into the
// provided value.
func (c *Client) call(ctx context.Context, method string,
	params []interface{}, result interface{}) error {

	promRequests.WithLabelValues(method).Inc()

	req := request{
		JSONRPC: "2.0",
		ID:      xid.New().String(),
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return xerrors.Errorf("couldn't encode request: %v", err)
	}

	stela.Logger.Trace().
		Str("method", method).
		Str("id", req.ID).
		Msg("sending rpc request")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url,
		bytes.NewBuffer(body))
	if err != nil {
		return xerrors.Errorf("couldn't create request: %v", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	httpRes, err := c.http.Do(httpReq)
	if err != nil {
		promErrors.WithLabelValues(method).Inc()
		return xerrors.Errorf("request failed: %v", err)
	}

	defer httpRes.Body.Close()

	if httpRes.StatusCode != http.StatusOK {
		promErrors.WithLabelValues(method).Inc()
		return xerrors.Errorf("unexpected status %d", httpRes.StatusCode)
	}

	data, err := io.ReadAll(httpRes.Body)
	if err != nil {
		return xerrors.Errorf("couldn't read response: %v", err)
	}

	res := response{}

	err = json.Unmarshal(data, &res)
	if err != nil {
		return xerrors.Errorf("couldn't decode response: %v", err)
	}

	if res.Error != nil {
		promErrors.WithLabelValues(method).Inc()
		return xerrors.Errorf("server replied with code %d: %s",
			res.Error.Code, res.Error.Message)
	}

	err = json.Unmarshal(res.Result, result)
	if err != nil {
		return xerrors.Errorf("couldn't decode result: %v", err)
	}

	return nil
}
