package solana

import "context"

// RPCClient defines the Solana RPC HTTP interface the wallet monitor needs.
type RPCClient interface {
	// GetSignaturesForAddress retrieves recent signatures for an address,
	// newest first.
	GetSignaturesForAddress(ctx context.Context, address string, limit int) ([]SignatureInfo, error)

	// GetTransaction retrieves a confirmed transaction by signature.
	// Returns nil if the transaction is not found.
	GetTransaction(ctx context.Context, signature string) (*Transaction, error)
}

// SignatureInfo from getSignaturesForAddress.
type SignatureInfo struct {
	Signature string
	Slot      int64
	BlockTime *int64
	Err       interface{}
}

// Transaction represents a confirmed Solana transaction.
type Transaction struct {
	Slot      int64
	Signature string
	BlockTime int64 // Unix timestamp (seconds), 0 when the chain has none
	Meta      *TransactionMeta
	Message   *TransactionMessage
}

// TransactionMeta contains transaction metadata. PreBalances and
// PostBalances are lamport balances indexed identically to the message
// account keys.
type TransactionMeta struct {
	Err          interface{}
	Fee          uint64
	PreBalances  []uint64
	PostBalances []uint64
}

// TransactionMessage contains the transaction message.
type TransactionMessage struct {
	AccountKeys []string
}

// Failed reports whether the transaction errored on-chain.
func (t *Transaction) Failed() bool {
	return t.Meta != nil && t.Meta.Err != nil
}
