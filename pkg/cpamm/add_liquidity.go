package cpamm

import (
	"github.com/solana-zh/cpamm/pkg/cpamm/spltoken"
)

const (
	addUser = iota
	addPool
	addLPMint
	addVaultA
	addVaultB
	addUserTokenA
	addUserTokenB
	addUserLPToken
	addTokenProgram
	addAccountsLen
)

// AddLiquidity accepts amount_a of token_a and amount_b of token_b, mints
// LP shares, and updates reserves.
func AddLiquidity(env *Env, accounts []*AccountInfo, payload []byte) error {
	if err := requireAccounts(accounts, addAccountsLen); err != nil {
		return err
	}
	if err := MustHaveLength(payload, 24); err != nil {
		return err
	}
	var args AddLiquidityArgs
	if err := decodeArgs(payload, &args); err != nil {
		return err
	}
	amountA := args.AmountA
	amountB := args.AmountB
	minLP := args.MinLP

	user := accounts[addUser]
	poolAcct := accounts[addPool]
	lpMint := accounts[addLPMint]
	vaultA := accounts[addVaultA]
	vaultB := accounts[addVaultB]
	userTokenA := accounts[addUserTokenA]
	userTokenB := accounts[addUserTokenB]
	userLPToken := accounts[addUserLPToken]
	tokenProgram := accounts[addTokenProgram]

	if err := MustBeSigner(user); err != nil {
		return err
	}
	if err := MustBeTokenProgram(tokenProgram, env.TokenProgramID); err != nil {
		return err
	}
	if err := MustBeNonzero(amountA, "amount_a"); err != nil {
		return err
	}
	if err := MustBeNonzero(amountB, "amount_b"); err != nil {
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

	uta, err := spltoken.ParseAccount(userTokenA.Data)
	if err != nil {
		return newErr(ErrInvalidAccountData, "%v", err)
	}
	if err := MustEqual(uta.Mint, pool.TokenA, "user_token_a.mint"); err != nil {
		return err
	}
	utb, err := spltoken.ParseAccount(userTokenB.Data)
	if err != nil {
		return newErr(ErrInvalidAccountData, "%v", err)
	}
	if err := MustEqual(utb.Mint, pool.TokenB, "user_token_b.mint"); err != nil {
		return err
	}
	ulp, err := spltoken.ParseAccount(userLPToken.Data)
	if err != nil {
		return newErr(ErrInvalidAccountData, "%v", err)
	}
	if err := MustEqual(ulp.Mint, pool.LPMint, "user_lp_token.mint"); err != nil {
		return err
	}

	mint, err := spltoken.ParseMint(lpMint.Data)
	if err != nil {
		return newErr(ErrInvalidAccountData, "%v", err)
	}
	supply := mint.Supply

	var lpOut uint64
	if pool.ReserveA == 0 && pool.ReserveB == 0 {
		product, err := CheckedMul(amountA, amountB)
		if err != nil {
			return err
		}
		lpOut = Isqrt(product)
	} else {
		fromA, err := MulDivFloor(amountA, supply, pool.ReserveA)
		if err != nil {
			return err
		}
		fromB, err := MulDivFloor(amountB, supply, pool.ReserveB)
		if err != nil {
			return err
		}
		lpOut = fromA
		if fromB < lpOut {
			lpOut = fromB
		}
	}
	if lpOut < minLP {
		return newErr(ErrInsufficientFunds, "lp_out %d below min_lp %d", lpOut, minLP)
	}

	// Drop the loaded pool record before invoking the token program: it is
	// a copy of poolAcct.Data, which the CPI may mutate, so the record is
	// reloaded after the calls return.
	pool = nil

	transferAIx, err := buildTransferIx(userTokenA.Key, vaultA.Key, user.Key, amountA)
	if err != nil {
		return newErr(ErrInvalidInstructionData, "%v", err)
	}
	if err := env.CPI.Invoke(transferAIx, []*AccountInfo{userTokenA, vaultA, user}, nil); err != nil {
		return err
	}

	transferBIx, err := buildTransferIx(userTokenB.Key, vaultB.Key, user.Key, amountB)
	if err != nil {
		return newErr(ErrInvalidInstructionData, "%v", err)
	}
	if err := env.CPI.Invoke(transferBIx, []*AccountInfo{userTokenB, vaultB, user}, nil); err != nil {
		return err
	}

	mintIx, err := buildMintToIx(lpMint.Key, userLPToken.Key, poolAcct.Key, lpOut)
	if err != nil {
		return newErr(ErrInvalidInstructionData, "%v", err)
	}
	reloaded, err := LoadPool(poolAcct.Data)
	if err != nil {
		return err
	}
	poolSigner := PoolSignerSeeds(reloaded.TokenA, reloaded.TokenB, reloaded.Bump)
	if err := env.CPI.Invoke(mintIx, []*AccountInfo{lpMint, userLPToken, poolAcct}, [][][]byte{poolSigner}); err != nil {
		return err
	}

	reloaded, err = LoadPool(poolAcct.Data)
	if err != nil {
		return err
	}
	reloaded.ReserveA, err = CheckedAdd(reloaded.ReserveA, amountA)
	if err != nil {
		return err
	}
	reloaded.ReserveB, err = CheckedAdd(reloaded.ReserveB, amountB)
	if err != nil {
		return err
	}
	return reloaded.Store(poolAcct.Data)
}
