package transfer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mannyAndem/crypto-clone/internal/domain"
)

func TestParse_CreditWithMatchedSender(t *testing.T) {
	accounts := []string{"WalletW", "SenderS"}
	pre := []uint64{100000, 60000}
	post := []uint64{150000, 10000}

	credit := Parse(accounts, pre, post, "WalletW")
	require.NotNil(t, credit)

	assert.Equal(t, uint64(50000), credit.Lamports)
	assert.InDelta(t, 50000.0/float64(domain.LamportsPerSOL), credit.AmountSOL, 1e-15)
	assert.Equal(t, "SenderS", credit.From)
}

func TestParse_NoBalanceIncrease(t *testing.T) {
	accounts := []string{"WalletW", "SenderS"}
	pre := []uint64{100000, 60000}
	post := []uint64{100000, 60000}

	assert.Nil(t, Parse(accounts, pre, post, "WalletW"))
}

func TestParse_BalanceDecreased(t *testing.T) {
	accounts := []string{"WalletW", "Other"}
	pre := []uint64{100000, 60000}
	post := []uint64{90000, 70000}

	assert.Nil(t, Parse(accounts, pre, post, "WalletW"))
}

func TestParse_TargetAbsent(t *testing.T) {
	accounts := []string{"SomeoneElse", "SenderS"}
	pre := []uint64{100000, 60000}
	post := []uint64{150000, 10000}

	assert.Nil(t, Parse(accounts, pre, post, "WalletW"))
}

func TestParse_SenderWithinFeeTolerance(t *testing.T) {
	// Sender paid a 4999-lamport fee on top of the transfer; the debit
	// exceeds the credit but stays inside the tolerance.
	accounts := []string{"WalletW", "SenderS"}
	pre := []uint64{0, 1000000}
	post := []uint64{500000, 1000000 - 500000 - 4999}

	credit := Parse(accounts, pre, post, "WalletW")
	require.NotNil(t, credit)
	assert.Equal(t, "SenderS", credit.From)
}

func TestParse_SenderOutsideFeeTolerance(t *testing.T) {
	// Debit differs from the credit by exactly the tolerance: no match.
	accounts := []string{"WalletW", "SenderS"}
	pre := []uint64{0, 1000000}
	post := []uint64{500000, 1000000 - 500000 - domain.FeeToleranceLamports}

	credit := Parse(accounts, pre, post, "WalletW")
	require.NotNil(t, credit)
	assert.Equal(t, domain.UnknownSender, credit.From)
}

func TestParse_FirstMatchInArrayOrderWins(t *testing.T) {
	// Two debits both qualify; the earlier index is attributed.
	accounts := []string{"WalletW", "SenderA", "SenderB"}
	pre := []uint64{0, 100000, 100000}
	post := []uint64{50000, 50000, 50000}

	credit := Parse(accounts, pre, post, "WalletW")
	require.NotNil(t, credit)
	assert.Equal(t, "SenderA", credit.From)
}

func TestParse_NoDebitAnywhere(t *testing.T) {
	// Credited out of thin air (e.g. multiple small debits): sender unknown.
	accounts := []string{"WalletW", "Other"}
	pre := []uint64{0, 100000}
	post := []uint64{50000, 100000}

	credit := Parse(accounts, pre, post, "WalletW")
	require.NotNil(t, credit)
	assert.Equal(t, domain.UnknownSender, credit.From)
}

func TestParse_MismatchedSliceLengths(t *testing.T) {
	accounts := []string{"WalletW"}
	assert.Nil(t, Parse(accounts, []uint64{1, 2}, []uint64{3}, "WalletW"))
	assert.Nil(t, Parse(accounts, nil, nil, "WalletW"))
}
