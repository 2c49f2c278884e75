// Demo entrypoint: drives the four pool instructions (initialize_pool,
// add_liquidity, swap, withdraw) against an in-memory simulation of the
// token program and the system program, the same sequence a client would
// drive against a live cluster, minus the cluster.
package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"log"
	"time"

	"cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"

	"github.com/solana-zh/cpamm/internal/runtime"
	"github.com/solana-zh/cpamm/pkg/cpamm"
	"github.com/solana-zh/cpamm/pkg/cpamm/spltoken"
)

const (
	feeRateBps      = 30 // 0.3%
	slippageBps     = 100
	underlyingDecim = 6
)

func main() {
	log.Printf("🚀🚀🚀spinning up the in-memory pool...")

	programID := solana.NewWallet().PublicKey()
	rl := runtime.NewRateLimiter(20)
	rt := runtime.New(programID, solana.TokenProgramID, solana.SystemProgramID)
	env := rt.Env()
	store := runtime.NewStore()

	log.Printf("😈program id: %v (base58 len %d)", programID, len(base58.Encode(programID.Bytes())))

	authority := store.NewWallet(1_000_000_000)
	tokenAMint := store.NewMint(solana.TokenProgramID, authority.Key, underlyingDecim)
	tokenBMint := store.NewMint(solana.TokenProgramID, authority.Key, underlyingDecim)

	poolAddr, poolBump, err := cpamm.DerivePoolAddress(programID, tokenAMint.Key, tokenBMint.Key)
	if err != nil {
		log.Fatalf("failed to derive pool address: %v", err)
	}
	lpMintAddr, lpBump, err := cpamm.DeriveLPMintAddress(programID, poolAddr)
	if err != nil {
		log.Fatalf("failed to derive lp_mint address: %v", err)
	}
	log.Printf("👌pool pda: %v, lp_mint pda: %v", poolAddr, lpMintAddr)

	poolAcct := store.ReservePDA(poolAddr)
	lpMintAcct := store.ReservePDA(lpMintAddr)
	vaultA := store.NewTokenAccount(solana.TokenProgramID, tokenAMint.Key, poolAddr, 0)
	vaultB := store.NewTokenAccount(solana.TokenProgramID, tokenBMint.Key, poolAddr, 0)
	systemProgram := &cpamm.AccountInfo{Key: solana.SystemProgramID}
	tokenProgram := &cpamm.AccountInfo{Key: solana.TokenProgramID}

	ctx := context.Background()
	mustWait(ctx, rl)
	initPayload := initializePayload(feeRateBps, poolBump, lpBump)
	if err := cpamm.Process(env, []*cpamm.AccountInfo{
		authority, poolAcct, tokenAMint, tokenBMint, lpMintAcct, vaultA, vaultB, systemProgram, tokenProgram,
	}, initPayload); err != nil {
		log.Fatalf("initialize_pool failed: %v", err)
	}
	log.Printf("✅pool initialized")

	user := store.NewWallet(1_000_000_000)
	userTokenA, userTokenB, userLP := setUpUserTokenAccounts(
		env, store, user, authority, systemProgram, tokenProgram,
		tokenAMint, tokenBMint, lpMintAcct, 1_000_000, 1_000_000,
	)

	mustWait(ctx, rl)
	addPayload := buildAddLiquidityPayload(500_000, 500_000, 1)
	if err := cpamm.Process(env, []*cpamm.AccountInfo{
		user, poolAcct, lpMintAcct, vaultA, vaultB, userTokenA, userTokenB, userLP, tokenProgram,
	}, addPayload); err != nil {
		log.Fatalf("add_liquidity failed: %v", err)
	}
	log.Printf("😈liquidity added")

	amountIn := uint64(50_000)
	quote, err := quoteSwap(poolAcct, amountIn)
	if err != nil {
		log.Fatalf("quote swap: %v", err)
	}
	minOut := applySlippage(int64(quote), slippageBps)
	log.Printf("⌛️swapping %d of token_a for at least %d of token_b (quoted %d)", amountIn, minOut, quote)

	mustWait(ctx, rl)
	swapPayload := buildSwapPayload(amountIn, uint64(minOut))
	if err := cpamm.Process(env, []*cpamm.AccountInfo{
		user, poolAcct, tokenAMint, tokenBMint, vaultA, vaultB, userTokenA, userTokenB, tokenProgram,
	}, swapPayload); err != nil {
		log.Fatalf("swap failed: %v", err)
	}
	log.Printf("✅swap settled")

	mustWait(ctx, rl)
	wPayload := buildWithdrawPayload(100, 1, 1)
	if err := cpamm.Process(env, []*cpamm.AccountInfo{
		user, poolAcct, lpMintAcct, vaultA, vaultB, userLP, userTokenA, userTokenB, tokenProgram,
	}, wPayload); err != nil {
		log.Fatalf("withdraw failed: %v", err)
	}
	record, err := cpamm.LoadPool(poolAcct.Data)
	if err != nil {
		log.Fatalf("reload pool record: %v", err)
	}
	va, err := spltoken.ParseAccount(store.Get(record.VaultA).Data)
	if err != nil {
		log.Fatalf("parse vault_a: %v", err)
	}
	vb, err := spltoken.ParseAccount(store.Get(record.VaultB).Data)
	if err != nil {
		log.Fatalf("parse vault_b: %v", err)
	}
	log.Printf("🏁withdraw settled, reserves (%d, %d) vs vault balances (%d, %d)",
		record.ReserveA, record.ReserveB, va.Amount, vb.Amount)
}

// setUpUserTokenAccounts stands up the user's three token accounts the way
// an off-chain client does before it ever calls this program: derive each
// associated token account, create it via the associated-token-account
// program, then fund the two underlying-asset accounts with a MintTo CPI
// from the test mint authority. Both CPIs run through the same env.CPI
// seam the handlers use, not direct store pokes.
func setUpUserTokenAccounts(
	env *cpamm.Env, store *runtime.Store, user, authority, systemProgram, tokenProgram *cpamm.AccountInfo,
	tokenAMint, tokenBMint, lpMint *cpamm.AccountInfo,
	fundA, fundB uint64,
) (userTokenA, userTokenB, userLP *cpamm.AccountInfo) {
	userTokenA = createATA(env, store, user, systemProgram, tokenProgram, tokenAMint)
	userTokenB = createATA(env, store, user, systemProgram, tokenProgram, tokenBMint)
	userLP = createATA(env, store, user, systemProgram, tokenProgram, lpMint)

	fundATA(env, authority, tokenProgram, tokenAMint, userTokenA, fundA)
	fundATA(env, authority, tokenProgram, tokenBMint, userTokenB, fundB)
	return userTokenA, userTokenB, userLP
}

func createATA(env *cpamm.Env, store *runtime.Store, user, systemProgram, tokenProgram, mint *cpamm.AccountInfo) *cpamm.AccountInfo {
	ata, err := store.ReserveATA(user.Key, mint.Key)
	if err != nil {
		log.Fatalf("ReserveATA(%s): %v", mint.Key, err)
	}
	createIx, err := cpamm.BuildCreateATAIx(user.Key, user.Key, mint.Key)
	if err != nil {
		log.Fatalf("BuildCreateATAIx: %v", err)
	}
	if err := env.CPI.Invoke(createIx, []*cpamm.AccountInfo{user, ata, user, mint, systemProgram, tokenProgram}, nil); err != nil {
		log.Fatalf("create associated token account for mint %s: %v", mint.Key, err)
	}
	return ata
}

func fundATA(env *cpamm.Env, authority, tokenProgram, mint, dest *cpamm.AccountInfo, amount uint64) {
	mintToIx, err := cpamm.BuildMintToIx(mint.Key, dest.Key, authority.Key, amount)
	if err != nil {
		log.Fatalf("BuildMintToIx: %v", err)
	}
	if err := env.CPI.Invoke(mintToIx, []*cpamm.AccountInfo{mint, dest, authority}, nil); err != nil {
		log.Fatalf("fund test account %s: %v", dest.Key, err)
	}
}

func mustWait(ctx context.Context, rl *runtime.RateLimiter) {
	if err := rl.WaitWithTimeout(ctx, 5*time.Second); err != nil {
		log.Fatalf("rate limiter: %v", err)
	}
}

func applySlippage(amount int64, bps int) int64 {
	return math.NewInt(amount).Mul(math.NewInt(int64(10000 - bps))).Quo(math.NewInt(10000)).Int64()
}

// quoteSwap prices an A->B swap off the current pool record the same way
// the handler will, so the slippage bound wraps the expected output rather
// than the input (price impact alone would breach an input-relative bound
// on any non-trivial trade).
func quoteSwap(poolAcct *cpamm.AccountInfo, amountIn uint64) (uint64, error) {
	pool, err := cpamm.LoadPool(poolAcct.Data)
	if err != nil {
		return 0, err
	}
	net, err := cpamm.MulDivFloor(amountIn, uint64(10000-pool.FeeRate), 10000)
	if err != nil {
		return 0, err
	}
	denom, err := cpamm.CheckedAdd(pool.ReserveA, net)
	if err != nil {
		return 0, err
	}
	return cpamm.MulDivFloor(pool.ReserveB, net, denom)
}

func initializePayload(feeRate uint16, poolBump, lpMintBump uint8) []byte {
	var buf bytes.Buffer
	buf.WriteByte(cpamm.DiscInitializePool)
	_ = binary.Write(&buf, binary.LittleEndian, feeRate)
	buf.WriteByte(poolBump)
	buf.WriteByte(lpMintBump)
	return buf.Bytes()
}

func buildAddLiquidityPayload(amountA, amountB, minLP uint64) []byte {
	return threeU64Payload(cpamm.DiscAddLiquidity, amountA, amountB, minLP)
}

func buildWithdrawPayload(amountIn, minA, minB uint64) []byte {
	return threeU64Payload(cpamm.DiscWithdraw, amountIn, minA, minB)
}

func threeU64Payload(disc uint8, a, b, c uint64) []byte {
	var buf bytes.Buffer
	buf.WriteByte(disc)
	_ = binary.Write(&buf, binary.LittleEndian, a)
	_ = binary.Write(&buf, binary.LittleEndian, b)
	_ = binary.Write(&buf, binary.LittleEndian, c)
	return buf.Bytes()
}

func buildSwapPayload(amountIn, minAmountOut uint64) []byte {
	var buf bytes.Buffer
	buf.WriteByte(cpamm.DiscSwap)
	_ = binary.Write(&buf, binary.LittleEndian, amountIn)
	_ = binary.Write(&buf, binary.LittleEndian, minAmountOut)
	return buf.Bytes()
}
