package cpamm

import (
	"github.com/solana-zh/cpamm/pkg/cpamm/spltoken"
)

// LPMintDecimals is the fixed decimal precision of every pool's LP share
// token.
const LPMintDecimals = 6

// rentExemptLamports stands in for the rent sysvar's minimum-balance
// calculation, a host-runtime concern this program never computes itself.
// A real deployment asks the runtime for this; the simulation and the
// harness both just need a deterministic, nonzero funding amount.
func rentExemptLamports(space uint64) uint64 {
	return space * 1000
}

// initializePoolAccounts indexes the fixed account order initialize_pool
// expects.
const (
	initAuthority = iota
	initPool
	initTokenA
	initTokenB
	initLPMint
	initVaultA
	initVaultB
	initSystemProgram
	initTokenProgram
	initAccountsLen
)

// InitializePool creates the pool record and the LP mint, and wires the
// vaults to the pool authority.
func InitializePool(env *Env, accounts []*AccountInfo, payload []byte) error {
	if err := requireAccounts(accounts, initAccountsLen); err != nil {
		return err
	}
	if err := MustHaveLength(payload, 4); err != nil {
		return err
	}
	var args InitializePoolArgs
	if err := decodeArgs(payload, &args); err != nil {
		return err
	}
	feeRate := args.FeeRate
	poolBump := args.PoolBump
	lpMintBump := args.LPMintBump

	authority := accounts[initAuthority]
	pool := accounts[initPool]
	tokenA := accounts[initTokenA]
	tokenB := accounts[initTokenB]
	lpMint := accounts[initLPMint]
	vaultA := accounts[initVaultA]
	vaultB := accounts[initVaultB]
	systemProgram := accounts[initSystemProgram]
	tokenProgram := accounts[initTokenProgram]

	if err := MustBeSigner(authority); err != nil {
		return err
	}
	if len(pool.Data) != 0 || len(lpMint.Data) != 0 {
		return newErr(ErrAccountAlreadyInitialized, "pool or lp_mint account already has data")
	}
	if tokenA.Key.Equals(tokenB.Key) {
		return newErr(ErrInvalidArgument, "token_a and token_b must differ")
	}
	if err := MustEqual(systemProgram.Key, env.SystemProgramID, "system_program"); err != nil {
		return newErr(ErrIncorrectProgramId, "%v", err)
	}
	if err := MustBeTokenProgram(tokenProgram, env.TokenProgramID); err != nil {
		return err
	}
	if feeRate > 10000 {
		return newErr(ErrInvalidArgument, "fee_rate %d exceeds 10000", feeRate)
	}

	if err := verifyPoolAddress(env.ProgramID, tokenA.Key, tokenB.Key, pool.Key, poolBump); err != nil {
		return err
	}
	if err := verifyLPMintAddress(env.ProgramID, pool.Key, lpMint.Key, lpMintBump); err != nil {
		return err
	}

	va, err := spltoken.ParseAccount(vaultA.Data)
	if err != nil {
		return newErr(ErrInvalidAccountData, "%v", err)
	}
	if !va.Mint.Equals(tokenA.Key) || va.Amount != 0 {
		return newErr(ErrInvalidAccountData, "vault_a must be an empty account for token_a")
	}
	if !va.Owner.Equals(pool.Key) {
		return newErr(ErrInvalidAccountData, "vault_a must be owned by the pool authority")
	}
	vb, err := spltoken.ParseAccount(vaultB.Data)
	if err != nil {
		return newErr(ErrInvalidAccountData, "%v", err)
	}
	if !vb.Mint.Equals(tokenB.Key) || vb.Amount != 0 {
		return newErr(ErrInvalidAccountData, "vault_b must be an empty account for token_b")
	}
	if !vb.Owner.Equals(pool.Key) {
		return newErr(ErrInvalidAccountData, "vault_b must be owned by the pool authority")
	}

	poolSigner := PoolSignerSeeds(tokenA.Key, tokenB.Key, poolBump)
	lpMintSigner := LPMintSignerSeeds(pool.Key, lpMintBump)

	createPoolIx, err := buildCreateAccountIx(authority.Key, pool.Key, env.ProgramID, rentExemptLamports(PoolLen), PoolLen)
	if err != nil {
		return newErr(ErrInvalidInstructionData, "%v", err)
	}
	if err := env.CPI.Invoke(createPoolIx, []*AccountInfo{authority, pool}, [][][]byte{nil, poolSigner}); err != nil {
		return err
	}

	record := &Pool{
		Authority: pool.Key,
		TokenA:    tokenA.Key,
		TokenB:    tokenB.Key,
		LPMint:    lpMint.Key,
		VaultA:    vaultA.Key,
		VaultB:    vaultB.Key,
		ReserveA:  0,
		ReserveB:  0,
		FeeRate:   feeRate,
		Bump:      poolBump,
		LPBump:    lpMintBump,
	}
	if err := record.Store(pool.Data); err != nil {
		return err
	}

	createMintIx, err := buildCreateAccountIx(authority.Key, lpMint.Key, env.TokenProgramID, rentExemptLamports(spltoken.MintLen), spltoken.MintLen)
	if err != nil {
		return newErr(ErrInvalidInstructionData, "%v", err)
	}
	if err := env.CPI.Invoke(createMintIx, []*AccountInfo{authority, lpMint}, [][][]byte{nil, lpMintSigner}); err != nil {
		return err
	}

	initMintIx, err := buildInitializeMint2Ix(lpMint.Key, pool.Key, LPMintDecimals)
	if err != nil {
		return newErr(ErrInvalidInstructionData, "%v", err)
	}
	return env.CPI.Invoke(initMintIx, []*AccountInfo{lpMint}, nil)
}
