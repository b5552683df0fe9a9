// Package invoke dispatches a contract invocation to an execution backend.
//
// Two backends are available: a sandbox running the call locally against a
// snapshot file, and a remote backend building a signed transaction and
// submitting it to an RPC server. Both resolve the footprint of the call, the
// sandbox by recording the storage accesses and the remote backend by asking
// the server for a simulation.
package invoke

import (
	"go.dedis.ch/stela/contract"
	"go.dedis.ch/stela/execution"
	"go.dedis.ch/stela/xdr"
)

// Call describes one contract invocation.
type Call struct {
	// Contract is the identifier of the contract to invoke.
	Contract xdr.ContractID

	// Function is the name of the function to run.
	Function string

	// Args are the function arguments in command-line order.
	Args []contract.Argument

	// Bytecode is the contract module, when the caller provides it locally.
	// When nil, the backend resolves the module from its ledger.
	Bytecode []byte

	// Source is the account the sandbox runs the call on behalf of.
	Source xdr.AccountID
}

// Outcome is the result of a dispatched invocation.
type Outcome struct {
	// Value is the value returned by the contract function. The remote
	// backend does not wait for the execution, so it leaves the value empty.
	Value xdr.Value

	// Budget is the resource consumption of the execution, estimated by the
	// simulation on the remote path.
	Budget execution.Budget

	// Events are the diagnostic events of the execution. Only the sandbox
	// fills them.
	Events []execution.Event

	// Footprint is the resolved footprint of the call.
	Footprint xdr.Footprint
}
