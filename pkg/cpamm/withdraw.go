package cpamm

import (
	"github.com/solana-zh/cpamm/pkg/cpamm/spltoken"
)

const (
	withdrawUser = iota
	withdrawPool
	withdrawLPMint
	withdrawVaultA
	withdrawVaultB
	withdrawUserLPToken
	withdrawUserTokenA
	withdrawUserTokenB
	withdrawTokenProgram
	withdrawAccountsLen
)

// Withdraw burns LP shares and returns a proportional slice of each
// reserve.
func Withdraw(env *Env, accounts []*AccountInfo, payload []byte) error {
	if err := requireAccounts(accounts, withdrawAccountsLen); err != nil {
		return err
	}
	if err := MustHaveLength(payload, 24); err != nil {
		return err
	}
	var args WithdrawArgs
	if err := decodeArgs(payload, &args); err != nil {
		return err
	}
	amountIn := args.AmountIn
	minAmountA := args.MinAmountA
	minAmountB := args.MinAmountB

	user := accounts[withdrawUser]
	poolAcct := accounts[withdrawPool]
	lpMint := accounts[withdrawLPMint]
	vaultA := accounts[withdrawVaultA]
	vaultB := accounts[withdrawVaultB]
	userLPToken := accounts[withdrawUserLPToken]
	userTokenA := accounts[withdrawUserTokenA]
	userTokenB := accounts[withdrawUserTokenB]
	tokenProgram := accounts[withdrawTokenProgram]

	if err := MustBeSigner(user); err != nil {
		return err
	}
	if err := MustBeTokenProgram(tokenProgram, env.TokenProgramID); err != nil {
		return err
	}
	if err := MustBeNonzero(amountIn, "amount_in"); err != nil {
		return err
	}

	pool, err := LoadPool(poolAcct.Data)
	if err != nil {
		return err
	}
	if err := MustEqual(lpMint.Key, pool.LPMint, "lp_mint"); err != nil {
		return err
	}
	if err := MustEqual(vaultA.Key, pool.VaultA, "vault_a"); err != nil {
		return err
	}
	if err := MustEqual(vaultB.Key, pool.VaultB, "vault_b"); err != nil {
		return err
	}

	ulp, err := spltoken.ParseAccount(userLPToken.Data)
	if err != nil {
		return newErr(ErrInvalidAccountData, "%v", err)
	}
	if err := MustEqual(ulp.Mint, pool.LPMint, "user_lp_token.mint"); err != nil {
		return err
	}
	if err := MustEqual(ulp.Owner, user.Key, "user_lp_token.owner"); err != nil {
		return err
	}

	uta, err := spltoken.ParseAccount(userTokenA.Data)
	if err != nil {
		return newErr(ErrInvalidAccountData, "%v", err)
	}
	if err := MustEqual(uta.Mint, pool.TokenA, "user_token_a.mint"); err != nil {
		return err
	}
	if err := MustEqual(uta.Owner, user.Key, "user_token_a.owner"); err != nil {
		return err
	}
	utb, err := spltoken.ParseAccount(userTokenB.Data)
	if err != nil {
		return newErr(ErrInvalidAccountData, "%v", err)
	}
	if err := MustEqual(utb.Mint, pool.TokenB, "user_token_b.mint"); err != nil {
		return err
	}
	if err := MustEqual(utb.Owner, user.Key, "user_token_b.owner"); err != nil {
		return err
	}

	mint, err := spltoken.ParseMint(lpMint.Data)
	if err != nil {
		return newErr(ErrInvalidAccountData, "%v", err)
	}
	if mint.Supply == 0 {
		return newErr(ErrInvalidAccountData, "lp supply is zero")
	}
	if ulp.Amount < amountIn {
		return newErr(ErrInsufficientFunds, "user holds %d LP units, need %d", ulp.Amount, amountIn)
	}

	amountAOut, err := MulDivFloor(amountIn, pool.ReserveA, mint.Supply)
	if err != nil {
		return err
	}
	amountBOut, err := MulDivFloor(amountIn, pool.ReserveB, mint.Supply)
	if err != nil {
		return err
	}
	if amountAOut == 0 || amountBOut == 0 {
		return newErr(ErrInsufficientFunds, "withdrawal rounds to zero on one side")
	}
	if amountAOut < minAmountA {
		return newErr(ErrInsufficientFunds, "amount_a_out %d below min_amount_a %d", amountAOut, minAmountA)
	}
	if amountBOut < minAmountB {
		return newErr(ErrInsufficientFunds, "amount_b_out %d below min_amount_b %d", amountBOut, minAmountB)
	}
	if pool.ReserveA < amountAOut || pool.ReserveB < amountBOut {
		return newErr(ErrInsufficientFunds, "reserves cannot cover requested withdrawal")
	}

	poolSigner := PoolSignerSeeds(pool.TokenA, pool.TokenB, pool.Bump)
	// Drop the loaded pool record before invoking the token program: it is
	// a copy of poolAcct.Data, which the CPI may mutate, so the record is
	// reloaded after the calls return.
	pool = nil

	burnIx, err := buildBurnIx(userLPToken.Key, lpMint.Key, user.Key, amountIn)
	if err != nil {
		return newErr(ErrInvalidInstructionData, "%v", err)
	}
	if err := env.CPI.Invoke(burnIx, []*AccountInfo{userLPToken, lpMint, user}, nil); err != nil {
		return err
	}

	transferAIx, err := buildTransferIx(vaultA.Key, userTokenA.Key, poolAcct.Key, amountAOut)
	if err != nil {
		return newErr(ErrInvalidInstructionData, "%v", err)
	}
	if err := env.CPI.Invoke(transferAIx, []*AccountInfo{vaultA, userTokenA, poolAcct}, [][][]byte{poolSigner}); err != nil {
		return err
	}

	transferBIx, err := buildTransferIx(vaultB.Key, userTokenB.Key, poolAcct.Key, amountBOut)
	if err != nil {
		return newErr(ErrInvalidInstructionData, "%v", err)
	}
	if err := env.CPI.Invoke(transferBIx, []*AccountInfo{vaultB, userTokenB, poolAcct}, [][][]byte{poolSigner}); err != nil {
		return err
	}

	reloaded, err := LoadPool(poolAcct.Data)
	if err != nil {
		return err
	}
	reloaded.ReserveA, err = CheckedSub(reloaded.ReserveA, amountAOut)
	if err != nil {
		return err
	}
	reloaded.ReserveB, err = CheckedSub(reloaded.ReserveB, amountBOut)
	if err != nil {
		return err
	}
	return reloaded.Store(poolAcct.Data)
}
