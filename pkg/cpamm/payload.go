package cpamm

import bin "github.com/gagliardetto/binary"

// Instruction argument structs, one per handler, decoded with the same
// bin.NewBinDecoder convention used for on-chain account layouts elsewhere
// in this ecosystem, here turned on the much smaller instruction payload
// instead of a whole account.

// InitializePoolArgs is the body of an initialize_pool instruction.
type InitializePoolArgs struct {
	FeeRate    uint16
	PoolBump   uint8
	LPMintBump uint8
}

// AddLiquidityArgs is the body of an add_liquidity instruction.
type AddLiquidityArgs struct {
	AmountA uint64
	AmountB uint64
	MinLP   uint64
}

// SwapArgs is the body of a swap instruction.
type SwapArgs struct {
	AmountIn     uint64
	MinAmountOut uint64
}

// WithdrawArgs is the body of a withdraw instruction.
type WithdrawArgs struct {
	AmountIn   uint64
	MinAmountA uint64
	MinAmountB uint64
}

func decodeArgs(payload []byte, v interface{}) error {
	if err := bin.NewBinDecoder(payload).Decode(v); err != nil {
		return newErr(ErrInvalidInstructionData, "%v", err)
	}
	return nil
}
