package cpamm

import (
	"github.com/solana-zh/cpamm/pkg/cpamm/spltoken"
)

const (
	swapUser = iota
	swapPool
	swapInputMint
	swapOutputMint
	swapInputVault
	swapOutputVault
	swapUserInputAccount
	swapUserOutputAccount
	swapTokenProgram
	swapAccountsLen
)

const feeDenominator = 10000

// Swap quotes A->B or B->A under the constant-product rule with fee, moves
// tokens, and updates reserves.
func Swap(env *Env, accounts []*AccountInfo, payload []byte) error {
	if err := requireAccounts(accounts, swapAccountsLen); err != nil {
		return err
	}
	if err := MustHaveLength(payload, 16); err != nil {
		return err
	}
	var args SwapArgs
	if err := decodeArgs(payload, &args); err != nil {
		return err
	}
	amountIn := args.AmountIn
	minAmountOut := args.MinAmountOut

	user := accounts[swapUser]
	poolAcct := accounts[swapPool]
	inputMint := accounts[swapInputMint]
	outputMint := accounts[swapOutputMint]
	inputVault := accounts[swapInputVault]
	outputVault := accounts[swapOutputVault]
	userInput := accounts[swapUserInputAccount]
	userOutput := accounts[swapUserOutputAccount]
	tokenProgram := accounts[swapTokenProgram]

	if err := MustBeSigner(user); err != nil {
		return err
	}
	if err := MustBeNonzero(amountIn, "amount_in"); err != nil {
		return err
	}
	if err := MustBeTokenProgram(tokenProgram, env.TokenProgramID); err != nil {
		return err
	}

	pool, err := LoadPool(poolAcct.Data)
	if err != nil {
		return err
	}

	var reserveIn, reserveOut uint64
	var aToB bool
	switch {
	case inputMint.Key.Equals(pool.TokenA) && outputMint.Key.Equals(pool.TokenB):
		aToB = true
		reserveIn, reserveOut = pool.ReserveA, pool.ReserveB
		if err := MustEqual(inputVault.Key, pool.VaultA, "input_vault"); err != nil {
			return err
		}
		if err := MustEqual(outputVault.Key, pool.VaultB, "output_vault"); err != nil {
			return err
		}
	case inputMint.Key.Equals(pool.TokenB) && outputMint.Key.Equals(pool.TokenA):
		aToB = false
		reserveIn, reserveOut = pool.ReserveB, pool.ReserveA
		if err := MustEqual(inputVault.Key, pool.VaultB, "input_vault"); err != nil {
			return err
		}
		if err := MustEqual(outputVault.Key, pool.VaultA, "output_vault"); err != nil {
			return err
		}
	default:
		return newErr(ErrIllegalOwner, "input/output mint pair does not match pool's pair")
	}

	ui, err := spltoken.ParseAccount(userInput.Data)
	if err != nil {
		return newErr(ErrInvalidAccountData, "%v", err)
	}
	if err := MustEqual(ui.Mint, inputMint.Key, "user_input_account.mint"); err != nil {
		return err
	}
	if err := MustEqual(ui.Owner, user.Key, "user_input_account.owner"); err != nil {
		return err
	}
	uo, err := spltoken.ParseAccount(userOutput.Data)
	if err != nil {
		return newErr(ErrInvalidAccountData, "%v", err)
	}
	if err := MustEqual(uo.Mint, outputMint.Key, "user_output_account.mint"); err != nil {
		return err
	}
	if err := MustEqual(uo.Owner, user.Key, "user_output_account.owner"); err != nil {
		return err
	}

	amountInNet, err := MulDivFloor(amountIn, uint64(feeDenominator-pool.FeeRate), feeDenominator)
	if err != nil {
		return err
	}
	denom, err := CheckedAdd(reserveIn, amountInNet)
	if err != nil {
		return err
	}
	amountOut, err := MulDivFloor(reserveOut, amountInNet, denom)
	if err != nil {
		return err
	}
	if amountOut < minAmountOut {
		return newErr(ErrInsufficientFunds, "amount_out %d below min_amount_out %d", amountOut, minAmountOut)
	}

	poolSigner := PoolSignerSeeds(pool.TokenA, pool.TokenB, pool.Bump)
	// Drop the loaded pool record before invoking the token program, per
	// borrow discipline: never hold a loaded record across a CPI.
	pool = nil

	transferInIx, err := buildTransferIx(userInput.Key, inputVault.Key, user.Key, amountIn)
	if err != nil {
		return newErr(ErrInvalidInstructionData, "%v", err)
	}
	if err := env.CPI.Invoke(transferInIx, []*AccountInfo{userInput, inputVault, user}, nil); err != nil {
		return err
	}

	transferOutIx, err := buildTransferIx(outputVault.Key, userOutput.Key, poolAcct.Key, amountOut)
	if err != nil {
		return newErr(ErrInvalidInstructionData, "%v", err)
	}
	if err := env.CPI.Invoke(transferOutIx, []*AccountInfo{outputVault, userOutput, poolAcct}, [][][]byte{poolSigner}); err != nil {
		return err
	}

	reloaded, err := LoadPool(poolAcct.Data)
	if err != nil {
		return err
	}
	if aToB {
		reloaded.ReserveA, err = CheckedAdd(reloaded.ReserveA, amountIn)
		if err != nil {
			return err
		}
		reloaded.ReserveB, err = CheckedSub(reloaded.ReserveB, amountOut)
		if err != nil {
			return err
		}
	} else {
		reloaded.ReserveB, err = CheckedAdd(reloaded.ReserveB, amountIn)
		if err != nil {
			return err
		}
		reloaded.ReserveA, err = CheckedSub(reloaded.ReserveA, amountOut)
		if err != nil {
			return err
		}
	}
	return reloaded.Store(poolAcct.Data)
}
