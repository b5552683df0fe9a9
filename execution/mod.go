// Package execution defines the abstraction of the host that runs a contract
// invocation against a ledger storage.
//
// A host is single-use: it is created for one storage, configured with the
// source account and the ledger header, asked to run one or more host
// function calls, and finally drained of its budget and diagnostic events.
package execution

import (
	"go.dedis.ch/stela/ledger"
	"go.dedis.ch/stela/xdr"
)

// Budget is the resource consumption of an execution.
type Budget struct {
	// CPUInstructions is the number of model instructions charged.
	CPUInstructions uint64

	// MemoryBytes is the number of model bytes charged.
	MemoryBytes uint64
}

// Event is a diagnostic record emitted by a contract during an execution.
type Event struct {
	// Contract is the identifier of the emitting contract.
	Contract xdr.ContractID

	// Topics are the indexed values of the event.
	Topics []xdr.Value

	// Data is the payload of the event.
	Data xdr.Value
}

// Host runs host function calls against the storage it was created for.
type Host interface {
	// SetSourceAccount sets the account the calls run on behalf of.
	SetSourceAccount(id xdr.AccountID)

	// SetLedgerInfo sets the ledger header the calls observe.
	SetLedgerInfo(info ledger.Info)

	// Invoke runs a single host function call and returns its result value.
	Invoke(fn xdr.HostFunction, params xdr.Params) (xdr.Value, error)

	// Finish shuts the host down and returns the budget consumed and the
	// events emitted since it was created.
	Finish() (Budget, []Event, error)
}

// HostFactory creates a host bound to a ledger storage.
type HostFactory func(storage ledger.Storage) Host
