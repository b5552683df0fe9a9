// Package native implements an execution host that runs native contracts.
//
// A native contract is written in Go and packaged with the application. The
// code entry of a deployed native contract stores the reference under which
// the implementation is registered, so an invocation resolves the entry and
// dispatches to the matching Go implementation.
package native

import (
	"go.dedis.ch/stela/contract"
	"go.dedis.ch/stela/execution"
	"go.dedis.ch/stela/ledger"
	"go.dedis.ch/stela/xdr"
	"golang.org/x/xerrors"
)

// Cost model of the host. The unit prices are coarse but charging them keeps
// the budget readout meaningful in a sandbox.
const (
	costInvokeCPU  = 1000
	costStorageCPU = 100
	costStorageMem = 50
)

// Registry holds the native contracts available to the hosts it creates,
// keyed by the reference stored in the code entry of a deployed contract.
type Registry struct {
	contracts map[string]Contract
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		contracts: make(map[string]Contract),
	}
}

// Set registers the contract under the reference. A contract can only be
// registered once.
func (reg *Registry) Set(ref string, contract Contract) {
	if _, ok := reg.contracts[ref]; ok {
		panic(xerrors.Errorf("contract '%s' already registered", ref))
	}

	reg.contracts[ref] = contract
}

// Factory returns a host factory creating hosts that dispatch to the
// contracts of the registry.
func (reg *Registry) Factory() execution.HostFactory {
	return func(storage ledger.Storage) execution.Host {
		return &Host{
			registry: reg,
			storage:  storage,
		}
	}
}

// NewFactory returns a host factory over a registry with the built-in token
// contract registered.
func NewFactory() execution.HostFactory {
	reg := NewRegistry()
	reg.Set(TokenRef, Token{})

	return reg.Factory()
}

// Contract is the interface to implement to register a contract that is
// executed natively.
type Contract interface {
	Invoke(call Call) (xdr.Value, error)
}

// Call is the context of a single contract invocation.
type Call struct {
	host *Host

	// Contract is the identifier of the invoked contract.
	Contract xdr.ContractID

	// Function is the invoked function name.
	Function string

	// Args are the function arguments.
	Args []xdr.Value

	// Source is the account the invocation runs on behalf of.
	Source xdr.AccountID

	// Info is the ledger header the invocation observes.
	Info ledger.Info
}

// Get reads the contract data entry stored under the key.
func (call Call) Get(key xdr.Value) (xdr.Value, bool, error) {
	call.host.charge(costStorageCPU, 0)

	entry, found, err := call.host.storage.Get(xdr.ContractDataKey(call.Contract, key))
	if err != nil {
		return xdr.Value{}, false, xerrors.Errorf("couldn't read entry: %v", err)
	}

	return entry.Data, found, nil
}

// Set writes the contract data entry stored under the key.
func (call Call) Set(key, value xdr.Value) error {
	call.host.charge(costStorageCPU, costStorageMem)

	entry := xdr.LedgerEntry{
		LastModified: call.Info.Sequence,
		Data:         value,
	}

	err := call.host.storage.Put(xdr.ContractDataKey(call.Contract, key), entry)
	if err != nil {
		return xerrors.Errorf("couldn't write entry: %v", err)
	}

	return nil
}

// Emit appends a diagnostic event to the host.
func (call Call) Emit(topics []xdr.Value, data xdr.Value) {
	call.host.events = append(call.host.events, execution.Event{
		Contract: call.Contract,
		Topics:   topics,
		Data:     data,
	})
}

// Host is a single-use execution host dispatching invocations to registered
// native contracts.
//
// - implements execution.Host
type Host struct {
	registry *Registry
	storage  ledger.Storage

	source   xdr.AccountID
	info     ledger.Info
	budget   execution.Budget
	events   []execution.Event
	finished bool
}

// SetSourceAccount implements execution.Host.
func (h *Host) SetSourceAccount(id xdr.AccountID) {
	h.source = id
}

// SetLedgerInfo implements execution.Host.
func (h *Host) SetLedgerInfo(info ledger.Info) {
	h.info = info
}

// Invoke implements execution.Host. It runs a single host function call.
func (h *Host) Invoke(fn xdr.HostFunction, params xdr.Params) (xdr.Value, error) {
	if h.finished {
		return xdr.Value{}, xerrors.New("host is finished")
	}

	h.charge(costInvokeCPU, 0)

	switch fn {
	case xdr.HostFunctionInvokeContract:
		return h.invokeContract(params)
	case xdr.HostFunctionCreateContract:
		return h.createContract(params)
	case xdr.HostFunctionCreateTokenContract:
		return h.createTokenContract(params)
	default:
		return xdr.Value{}, xerrors.Errorf("unknown host function %d", fn)
	}
}

// Finish implements execution.Host. It shuts the host down and returns the
// budget consumed and the events emitted.
func (h *Host) Finish() (execution.Budget, []execution.Event, error) {
	if h.finished {
		return execution.Budget{}, nil, xerrors.New("host is finished")
	}

	h.finished = true

	return h.budget, h.events, nil
}

func (h *Host) charge(cpu, mem uint64) {
	h.budget.CPUInstructions += cpu
	h.budget.MemoryBytes += mem
}

// invokeContract resolves the code entry of the contract named by the
// parameters and dispatches to the registered implementation.
func (h *Host) invokeContract(params xdr.Params) (xdr.Value, error) {
	if len(params) < 2 {
		return xdr.Value{}, xerrors.Errorf(
			"invoke expects at least 2 parameters, got %d", len(params))
	}

	if params[0].Kind != xdr.KindBytes || len(params[0].Bytes) != 32 {
		return xdr.Value{}, xerrors.New("first parameter is not a contract identifier")
	}

	if params[1].Kind != xdr.KindSymbol {
		return xdr.Value{}, xerrors.New("second parameter is not a function symbol")
	}

	id := xdr.ContractID{}
	copy(id[:], params[0].Bytes)

	h.charge(costStorageCPU, 0)

	entry, found, err := h.storage.Get(xdr.ContractCodeKey(id))
	if err != nil {
		return xdr.Value{}, xerrors.Errorf("couldn't read code entry: %v", err)
	}

	if !found {
		return xdr.Value{}, xerrors.Errorf("contract '%x' not found", id[:])
	}

	if entry.Data.Kind != xdr.KindBytes {
		return xdr.Value{}, xerrors.New("code entry is not a byte-string")
	}

	impl := h.registry.contracts[string(entry.Data.Bytes)]
	if impl == nil {
		return xdr.Value{}, xerrors.Errorf(
			"no native contract for code entry of '%x'", id[:])
	}

	call := Call{
		host:     h,
		Contract: id,
		Function: string(params[1].Symbol),
		Args:     params[2:],
		Source:   h.source,
		Info:     h.info,
	}

	value, err := impl.Invoke(call)
	if err != nil {
		return xdr.Value{}, xerrors.Errorf("contract failed: %v", err)
	}

	return value, nil
}

// createContract deploys the code given in the parameters under the
// identifier derived from the source account and the salt.
func (h *Host) createContract(params xdr.Params) (xdr.Value, error) {
	if len(params) != 2 {
		return xdr.Value{}, xerrors.Errorf("create expects 2 parameters, got %d", len(params))
	}

	if params[0].Kind != xdr.KindBytes {
		return xdr.Value{}, xerrors.New("first parameter is not the contract code")
	}

	salt, err := readSalt(params[1])
	if err != nil {
		return xdr.Value{}, err
	}

	return h.deploy(params[0].Bytes, salt)
}

// createTokenContract deploys the built-in token contract under the
// identifier derived from the source account and the salt.
func (h *Host) createTokenContract(params xdr.Params) (xdr.Value, error) {
	if len(params) != 1 {
		return xdr.Value{}, xerrors.Errorf("create expects 1 parameter, got %d", len(params))
	}

	salt, err := readSalt(params[0])
	if err != nil {
		return xdr.Value{}, err
	}

	return h.deploy([]byte(TokenRef), salt)
}

func (h *Host) deploy(code []byte, salt [32]byte) (xdr.Value, error) {
	id, err := contract.DeriveID(h.source, salt)
	if err != nil {
		return xdr.Value{}, xerrors.Errorf("couldn't derive identifier: %v", err)
	}

	entry := xdr.LedgerEntry{
		LastModified: h.info.Sequence,
		Data:         xdr.BytesValue(code),
	}

	h.charge(costStorageCPU, costStorageMem)

	err = h.storage.Put(xdr.ContractCodeKey(id), entry)
	if err != nil {
		return xdr.Value{}, xerrors.Errorf("couldn't write code entry: %v", err)
	}

	return xdr.BytesValue(id[:]), nil
}

func readSalt(v xdr.Value) ([32]byte, error) {
	if v.Kind != xdr.KindBytes || len(v.Bytes) != 32 {
		return [32]byte{}, xerrors.New("salt parameter is not a 32-byte string")
	}

	salt := [32]byte{}
	copy(salt[:], v.Bytes)

	return salt, nil
}
