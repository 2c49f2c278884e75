package cpamm

import "github.com/gagliardetto/solana-go"

// Seed prefixes, ASCII, no terminator.
const (
	poolSeedPrefix   = "pool"
	lpMintSeedPrefix = "lp_mint"
)

// DerivePoolAddress recomputes the pool PDA from its canonical seed tuple.
func DerivePoolAddress(programID, tokenA, tokenB solana.PublicKey) (addr solana.PublicKey, bump uint8, err error) {
	return solana.FindProgramAddress([][]byte{
		[]byte(poolSeedPrefix),
		tokenA.Bytes(),
		tokenB.Bytes(),
	}, programID)
}

// DeriveLPMintAddress recomputes the LP mint PDA from its canonical seed
// tuple.
func DeriveLPMintAddress(programID, poolAddress solana.PublicKey) (addr solana.PublicKey, bump uint8, err error) {
	return solana.FindProgramAddress([][]byte{
		[]byte(lpMintSeedPrefix),
		poolAddress.Bytes(),
	}, programID)
}

// PoolSignerSeeds turns the pool's stored bump back into the seed tuple a
// CPI invocation signs under, replaying exactly what DerivePoolAddress
// hashed at initialize time.
func PoolSignerSeeds(tokenA, tokenB solana.PublicKey, bump uint8) [][]byte {
	return [][]byte{
		[]byte(poolSeedPrefix),
		tokenA.Bytes(),
		tokenB.Bytes(),
		{bump},
	}
}

// LPMintSignerSeeds turns the LP mint's stored bump back into its signer
// seed tuple.
func LPMintSignerSeeds(poolAddress solana.PublicKey, bump uint8) [][]byte {
	return [][]byte{
		[]byte(lpMintSeedPrefix),
		poolAddress.Bytes(),
		{bump},
	}
}

// verifyPoolAddress fails InvalidAccountData unless the supplied bump
// re-derives exactly the given address.
func verifyPoolAddress(programID, tokenA, tokenB, want solana.PublicKey, bump uint8) error {
	seeds := [][]byte{[]byte(poolSeedPrefix), tokenA.Bytes(), tokenB.Bytes(), {bump}}
	got, err := solana.CreateProgramAddress(seeds, programID)
	if err != nil {
		return newErr(ErrInvalidAccountData, "pool PDA bump %d does not verify: %v", bump, err)
	}
	if !got.Equals(want) {
		return newErr(ErrInvalidAccountData, "pool PDA mismatch: derived %s, got %s", got, want)
	}
	return nil
}

// verifyLPMintAddress fails InvalidAccountData unless the supplied bump
// re-derives exactly the given address.
func verifyLPMintAddress(programID, poolAddress, want solana.PublicKey, bump uint8) error {
	seeds := [][]byte{[]byte(lpMintSeedPrefix), poolAddress.Bytes(), {bump}}
	got, err := solana.CreateProgramAddress(seeds, programID)
	if err != nil {
		return newErr(ErrInvalidAccountData, "lp_mint PDA bump %d does not verify: %v", bump, err)
	}
	if !got.Equals(want) {
		return newErr(ErrInvalidAccountData, "lp_mint PDA mismatch: derived %s, got %s", got, want)
	}
	return nil
}
