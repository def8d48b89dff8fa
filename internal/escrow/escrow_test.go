package escrow

import (
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"
)

func TestLedger_Escrow_Derive(t *testing.T) {
	t.Parallel()

	t.Run("is deterministic", func(t *testing.T) {
		t.Parallel()
		a := Derive(SeedEscrowVault, "campaign-1")
		b := Derive(SeedEscrowVault, "campaign-1")
		require.Equal(t, a, b)
	})

	t.Run("differs across seed tuples", func(t *testing.T) {
		t.Parallel()
		require.NotEqual(t, Derive(SeedEscrowVault, "x"), Derive(SeedDividendVault, "x"))
		require.NotEqual(t, Derive("ab", "c"), Derive("a", "bc"))
	})

	t.Run("produces a 32-byte base58 address", func(t *testing.T) {
		t.Parallel()
		raw, err := base58.Decode(string(Derive(SeedCampaign, "prop", "creator")))
		require.NoError(t, err)
		require.Len(t, raw, 32)
	})
}

func TestLedger_Escrow_Authority(t *testing.T) {
	t.Parallel()

	t.Run("verifies against its own account", func(t *testing.T) {
		t.Parallel()
		auth := AuthorityFor(SeedEscrowVault, "campaign-1")
		require.NoError(t, auth.Verify(Derive(SeedEscrowVault, "campaign-1")))
	})

	t.Run("rejects a different account", func(t *testing.T) {
		t.Parallel()
		auth := AuthorityFor(SeedEscrowVault, "campaign-1")
		err := auth.Verify(Derive(SeedEscrowVault, "campaign-2"))
		require.ErrorIs(t, err, ErrBadAuthority)
	})

	t.Run("zero value authorizes nothing", func(t *testing.T) {
		t.Parallel()
		var auth Authority
		require.True(t, auth.Zero())
		require.ErrorIs(t, auth.Verify(Derive(SeedEscrowVault, "campaign-1")), ErrBadAuthority)
	})
}
