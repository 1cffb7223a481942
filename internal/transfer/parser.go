// Package transfer reconstructs inbound SOL transfers from account balance
// snapshots. The reconstruction is a heuristic, not a ledger-exact trace:
// multi-party transactions can misattribute the sender, and ties between
// qualifying debits are broken strictly by array order.
package transfer

import (
	"github.com/mannyAndem/crypto-clone/internal/domain"
)

// Credit is a detected inbound transfer to the target wallet.
type Credit struct {
	Lamports  uint64  // raw credited delta
	AmountSOL float64 // Lamports divided by the subunit factor
	From      string  // best-effort sender, domain.UnknownSender if unmatched
}

// Parse infers a credited transfer to wallet from pre/post lamport balances
// indexed identically to accountKeys. It returns nil when the wallet is not
// among the account keys, when its balance did not increase, or when the
// balance slices are inconsistent with the key list.
//
// Sender attribution scans the other indices for one whose balance decreased
// by the credited amount within domain.FeeToleranceLamports (the slack
// absorbs the fee paid by the sender). The first match in array order wins;
// this is a documented approximation.
func Parse(accountKeys []string, preBalances, postBalances []uint64, wallet string) *Credit {
	if len(preBalances) != len(postBalances) || len(accountKeys) > len(preBalances) {
		return nil
	}

	target := -1
	for i, key := range accountKeys {
		if key == wallet {
			target = i
			break
		}
	}
	if target < 0 {
		return nil
	}

	pre, post := preBalances[target], postBalances[target]
	if post <= pre {
		return nil
	}
	lamports := post - pre

	sender := domain.UnknownSender
	for j := range accountKeys {
		if j == target {
			continue
		}
		preJ, postJ := preBalances[j], postBalances[j]
		if postJ >= preJ {
			continue
		}
		if diffWithin(preJ-postJ, lamports, domain.FeeToleranceLamports) {
			sender = accountKeys[j]
			break
		}
	}

	return &Credit{
		Lamports:  lamports,
		AmountSOL: float64(lamports) / float64(domain.LamportsPerSOL),
		From:      sender,
	}
}

// diffWithin reports whether |a-b| < tolerance without unsigned underflow.
func diffWithin(a, b, tolerance uint64) bool {
	if a > b {
		return a-b < tolerance
	}
	return b-a < tolerance
}
