package token

import (
	"context"
	"strconv"

	"go.dedis.ch/stela"
	"go.dedis.ch/stela/contract"
	"go.dedis.ch/stela/crypto"
	"go.dedis.ch/stela/invoke"
	"go.dedis.ch/stela/txn"
	"go.dedis.ch/stela/xdr"
	"golang.org/x/xerrors"
)

// Remote creates tokens on a network through an RPC server.
type Remote struct {
	// Endpoint is the server to talk to.
	Endpoint invoke.Endpoint

	// KeyPair signs the transactions. Its public key is the source account.
	KeyPair *crypto.KeyPair

	// Passphrase is the network passphrase mixed into the signature payload.
	Passphrase string

	// Fee is the fee of each transaction. Zero means the default fee.
	Fee uint32
}

// Create submits two consecutive transactions: one deploying the token under
// the identifier derived from the administrator and the salt, one
// initializing the deployed instance. A zero salt is replaced by a random
// one, and a nil administrator defaults to the signing account. Both
// submissions are fire and forget.
func (r Remote) Create(ctx context.Context, c Creation) (xdr.ContractID, error) {
	err := c.validate()
	if err != nil {
		return xdr.ContractID{}, err
	}

	salt := c.Salt
	if salt == contract.ZeroSalt {
		salt, err = crypto.RandomSalt()
		if err != nil {
			return xdr.ContractID{}, xerrors.Errorf("couldn't draw salt: %v", err)
		}
	}

	pub := r.KeyPair.GetPublicKey()

	admin := pub.AccountID()
	if c.Admin != nil {
		admin = *c.Admin
	}

	details, err := r.Endpoint.GetAccount(ctx, pub.Address())
	if err != nil {
		return xdr.ContractID{}, xerrors.Errorf("couldn't fetch account: %v", err)
	}

	seq, err := strconv.ParseInt(details.Sequence, 10, 64)
	if err != nil {
		return xdr.ContractID{}, xerrors.Errorf("couldn't parse sequence number: %v", err)
	}

	id, err := contract.DeriveID(admin, salt)
	if err != nil {
		return xdr.ContractID{}, xerrors.Errorf("couldn't derive identifier: %v", err)
	}

	fee := r.Fee
	if fee == 0 {
		fee = txn.DefaultFee
	}

	createOp := txn.NewInvokeOperation(xdr.HostFunctionCreateTokenContract,
		xdr.Params{xdr.BytesValue(salt[:])},
		xdr.Footprint{
			ReadWrite: []xdr.LedgerKey{xdr.ContractCodeKey(id)},
		})

	err = r.send(ctx, txn.New(pub.AccountID(), seq+1, fee, createOp))
	if err != nil {
		return xdr.ContractID{}, xerrors.Errorf("couldn't submit deploy: %v", err)
	}

	params, err := initParams(id, admin, c.Name, c.Symbol, c.Decimals)
	if err != nil {
		return xdr.ContractID{}, err
	}

	initOp := txn.NewInvokeOperation(xdr.HostFunctionInvokeContract, params,
		xdr.Footprint{
			ReadWrite: []xdr.LedgerKey{
				xdr.ContractDataKey(id, adminKey),
				xdr.ContractDataKey(id, metadataKey),
			},
		})

	err = r.send(ctx, txn.New(pub.AccountID(), seq+2, fee, initOp))
	if err != nil {
		return xdr.ContractID{}, xerrors.Errorf("couldn't submit init: %v", err)
	}

	stela.Logger.Debug().
		Hex("contract", id[:]).
		Str("symbol", c.Symbol).
		Msg("token creation submitted")

	return id, nil
}

func (r Remote) send(ctx context.Context, tx xdr.Transaction) error {
	env, err := txn.Sign(tx, r.Passphrase, r.KeyPair)
	if err != nil {
		return err
	}

	_, err = r.Endpoint.SendTransaction(ctx, env)
	if err != nil {
		return err
	}

	return nil
}
