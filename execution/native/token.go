package native

import (
	"go.dedis.ch/stela/xdr"
	"golang.org/x/xerrors"
)

// TokenRef is the reference stored in the code entry of a deployed built-in
// token contract.
const TokenRef = "stela.Token"

// Storage keys of the token contract. Balances are stored under a compound
// key made of the balance tag and the holder identifier.
var (
	adminKey    = xdr.SymbolValue("Admin")
	metadataKey = xdr.SymbolValue("Metadata")
	balanceTag  = xdr.SymbolValue("Balance")
)

// Token is the built-in token contract. It keeps its administrator, its
// metadata and the holder balances in the contract data entries of the
// deployed instance.
//
// - implements native.Contract
type Token struct{}

// Invoke implements native.Contract. It dispatches to the function named by
// the call.
func (t Token) Invoke(call Call) (xdr.Value, error) {
	switch call.Function {
	case "init":
		return t.init(call)
	case "mint":
		return t.mint(call)
	case "xfer":
		return t.xfer(call)
	case "balance":
		return t.balance(call)
	case "name":
		return t.metadata(call, "name")
	case "symbol":
		return t.metadata(call, "symbol")
	case "decimals":
		return t.metadata(call, "decimals")
	default:
		return xdr.Value{}, xerrors.Errorf("unknown function '%s'", call.Function)
	}
}

// init stores the administrator identifier and the metadata map. A token can
// only be initialized once.
func (t Token) init(call Call) (xdr.Value, error) {
	if len(call.Args) != 2 {
		return xdr.Value{}, xerrors.Errorf("init expects 2 arguments, got %d", len(call.Args))
	}

	_, err := identifierAccount(call.Args[0])
	if err != nil {
		return xdr.Value{}, xerrors.Errorf("invalid administrator: %v", err)
	}

	if call.Args[1].Kind != xdr.KindMap {
		return xdr.Value{}, xerrors.New("metadata is not a map")
	}

	_, found, err := call.Get(adminKey)
	if err != nil {
		return xdr.Value{}, err
	}

	if found {
		return xdr.Value{}, xerrors.New("token is already initialized")
	}

	err = call.Set(adminKey, call.Args[0])
	if err != nil {
		return xdr.Value{}, err
	}

	err = call.Set(metadataKey, call.Args[1])
	if err != nil {
		return xdr.Value{}, err
	}

	return xdr.VoidValue(), nil
}

// mint credits the holder with the amount. Only the administrator account can
// mint.
func (t Token) mint(call Call) (xdr.Value, error) {
	if len(call.Args) != 2 {
		return xdr.Value{}, xerrors.Errorf("mint expects 2 arguments, got %d", len(call.Args))
	}

	admin, found, err := call.Get(adminKey)
	if err != nil {
		return xdr.Value{}, err
	}

	if !found {
		return xdr.Value{}, xerrors.New("token is not initialized")
	}

	adminAccount, err := identifierAccount(admin)
	if err != nil {
		return xdr.Value{}, err
	}

	if adminAccount != call.Source {
		return xdr.Value{}, xerrors.New("source account is not the administrator")
	}

	to, amount, err := transferArgs(call.Args)
	if err != nil {
		return xdr.Value{}, err
	}

	err = t.credit(call, to, amount)
	if err != nil {
		return xdr.Value{}, err
	}

	call.Emit([]xdr.Value{xdr.SymbolValue("mint"), xdr.AccountValue(to)},
		xdr.U64Value(amount))

	return xdr.VoidValue(), nil
}

// xfer moves the amount from the source account to the holder.
func (t Token) xfer(call Call) (xdr.Value, error) {
	if len(call.Args) != 2 {
		return xdr.Value{}, xerrors.Errorf("xfer expects 2 arguments, got %d", len(call.Args))
	}

	to, amount, err := transferArgs(call.Args)
	if err != nil {
		return xdr.Value{}, err
	}

	from := call.Source

	balance, err := t.holderBalance(call, from)
	if err != nil {
		return xdr.Value{}, err
	}

	if balance < amount {
		return xdr.Value{}, xerrors.Errorf(
			"insufficient balance: %d < %d", balance, amount)
	}

	err = call.Set(balanceKey(from), xdr.U64Value(balance-amount))
	if err != nil {
		return xdr.Value{}, err
	}

	err = t.credit(call, to, amount)
	if err != nil {
		return xdr.Value{}, err
	}

	call.Emit([]xdr.Value{
		xdr.SymbolValue("xfer"),
		xdr.AccountValue(from),
		xdr.AccountValue(to),
	}, xdr.U64Value(amount))

	return xdr.VoidValue(), nil
}

// balance returns the balance of the holder, zero if the holder has none.
func (t Token) balance(call Call) (xdr.Value, error) {
	if len(call.Args) != 1 {
		return xdr.Value{}, xerrors.Errorf("balance expects 1 argument, got %d", len(call.Args))
	}

	if call.Args[0].Kind != xdr.KindAccount {
		return xdr.Value{}, xerrors.New("holder is not an account")
	}

	balance, err := t.holderBalance(call, call.Args[0].Account)
	if err != nil {
		return xdr.Value{}, err
	}

	return xdr.U64Value(balance), nil
}

// metadata returns the metadata entry stored under the name.
func (t Token) metadata(call Call, name string) (xdr.Value, error) {
	meta, found, err := call.Get(metadataKey)
	if err != nil {
		return xdr.Value{}, err
	}

	if !found {
		return xdr.Value{}, xerrors.New("token is not initialized")
	}

	for _, entry := range meta.Map {
		if entry.Key.Kind == xdr.KindSymbol && string(entry.Key.Symbol) == name {
			return entry.Val, nil
		}
	}

	return xdr.Value{}, xerrors.Errorf("missing metadata entry '%s'", name)
}

func (t Token) holderBalance(call Call, holder xdr.AccountID) (uint64, error) {
	value, found, err := call.Get(balanceKey(holder))
	if err != nil {
		return 0, err
	}

	if !found {
		return 0, nil
	}

	if value.Kind != xdr.KindU64 {
		return 0, xerrors.New("balance entry is not a u64")
	}

	return value.U64, nil
}

func (t Token) credit(call Call, holder xdr.AccountID, amount uint64) error {
	balance, err := t.holderBalance(call, holder)
	if err != nil {
		return err
	}

	return call.Set(balanceKey(holder), xdr.U64Value(balance+amount))
}

func balanceKey(holder xdr.AccountID) xdr.Value {
	return xdr.VecValue(balanceTag, xdr.AccountValue(holder))
}

func transferArgs(args []xdr.Value) (xdr.AccountID, uint64, error) {
	if args[0].Kind != xdr.KindAccount {
		return xdr.AccountID{}, 0, xerrors.New("holder is not an account")
	}

	if args[1].Kind != xdr.KindU64 {
		return xdr.AccountID{}, 0, xerrors.New("amount is not a u64")
	}

	return args[0].Account, args[1].U64, nil
}

// identifierAccount extracts the account of an identifier, which is a vector
// of the account tag followed by the account value.
func identifierAccount(v xdr.Value) (xdr.AccountID, error) {
	if v.Kind == xdr.KindAccount {
		return v.Account, nil
	}

	if v.Kind != xdr.KindVec || len(v.Vec) != 2 {
		return xdr.AccountID{}, xerrors.New("identifier is not a two-item vector")
	}

	tag := v.Vec[0]
	if tag.Kind != xdr.KindSymbol || string(tag.Symbol) != "Account" {
		return xdr.AccountID{}, xerrors.New("identifier is not an account identifier")
	}

	if v.Vec[1].Kind != xdr.KindAccount {
		return xdr.AccountID{}, xerrors.New("identifier payload is not an account")
	}

	return v.Vec[1].Account, nil
}
