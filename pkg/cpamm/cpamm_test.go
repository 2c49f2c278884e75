package cpamm_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/solana-zh/cpamm/internal/runtime"
	"github.com/solana-zh/cpamm/pkg/cpamm"
	"github.com/solana-zh/cpamm/pkg/cpamm/spltoken"
)

const feeRateBps = 30

type fixture struct {
	env           *cpamm.Env
	store         *runtime.Store
	programID     solana.PublicKey
	authority     *cpamm.AccountInfo
	tokenAMint    *cpamm.AccountInfo
	tokenBMint    *cpamm.AccountInfo
	poolAcct      *cpamm.AccountInfo
	lpMintAcct    *cpamm.AccountInfo
	vaultA        *cpamm.AccountInfo
	vaultB        *cpamm.AccountInfo
	systemProgram *cpamm.AccountInfo
	tokenProgram  *cpamm.AccountInfo
	poolBump      uint8
	lpBump        uint8
	feeRate       uint16
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithFee(t, feeRateBps)
}

func newFixtureWithFee(t *testing.T, feeRate uint16) *fixture {
	t.Helper()
	f := buildFixture(t, feeRate)
	if err := f.initialize(); err != nil {
		t.Fatalf("initialize_pool: %v", err)
	}
	return f
}

// buildFixture stands up everything initialize_pool needs but stops short
// of calling it, so failure tests can tamper with the payload first.
func buildFixture(t *testing.T, feeRate uint16) *fixture {
	t.Helper()
	programID := solana.NewWallet().PublicKey()
	rt := runtime.New(programID, solana.TokenProgramID, solana.SystemProgramID)
	store := runtime.NewStore()
	env := rt.Env()

	authority := store.NewWallet(1_000_000_000)
	tokenAMint := store.NewMint(solana.TokenProgramID, authority.Key, 6)
	tokenBMint := store.NewMint(solana.TokenProgramID, authority.Key, 6)

	poolAddr, poolBump, err := cpamm.DerivePoolAddress(programID, tokenAMint.Key, tokenBMint.Key)
	if err != nil {
		t.Fatalf("DerivePoolAddress: %v", err)
	}
	lpMintAddr, lpBump, err := cpamm.DeriveLPMintAddress(programID, poolAddr)
	if err != nil {
		t.Fatalf("DeriveLPMintAddress: %v", err)
	}

	f := &fixture{
		env:           env,
		store:         store,
		programID:     programID,
		authority:     authority,
		tokenAMint:    tokenAMint,
		tokenBMint:    tokenBMint,
		poolAcct:      store.ReservePDA(poolAddr),
		lpMintAcct:    store.ReservePDA(lpMintAddr),
		vaultA:        store.NewTokenAccount(solana.TokenProgramID, tokenAMint.Key, poolAddr, 0),
		vaultB:        store.NewTokenAccount(solana.TokenProgramID, tokenBMint.Key, poolAddr, 0),
		systemProgram: &cpamm.AccountInfo{Key: solana.SystemProgramID},
		tokenProgram:  &cpamm.AccountInfo{Key: solana.TokenProgramID},
		poolBump:      poolBump,
		lpBump:        lpBump,
		feeRate:       feeRate,
	}
	return f
}

func (f *fixture) initAccounts() []*cpamm.AccountInfo {
	return []*cpamm.AccountInfo{
		f.authority, f.poolAcct, f.tokenAMint, f.tokenBMint, f.lpMintAcct, f.vaultA, f.vaultB, f.systemProgram, f.tokenProgram,
	}
}

func (f *fixture) initialize() error {
	initPayload := payload(cpamm.DiscInitializePool, func(buf *bytes.Buffer) {
		_ = binary.Write(buf, binary.LittleEndian, f.feeRate)
		buf.WriteByte(f.poolBump)
		buf.WriteByte(f.lpBump)
	})
	return cpamm.Process(f.env, f.initAccounts(), initPayload)
}

func payload(disc uint8, writeArgs func(*bytes.Buffer)) []byte {
	var buf bytes.Buffer
	buf.WriteByte(disc)
	writeArgs(&buf)
	return buf.Bytes()
}

func u64Payload(disc uint8, values ...uint64) []byte {
	return payload(disc, func(buf *bytes.Buffer) {
		for _, v := range values {
			_ = binary.Write(buf, binary.LittleEndian, v)
		}
	})
}

func (f *fixture) newUser(balanceA, balanceB uint64) (user, userA, userB, userLP *cpamm.AccountInfo) {
	user = f.store.NewWallet(0)
	user.IsSigner = true
	userA = f.store.NewTokenAccount(solana.TokenProgramID, f.tokenAMint.Key, user.Key, balanceA)
	userB = f.store.NewTokenAccount(solana.TokenProgramID, f.tokenBMint.Key, user.Key, balanceB)
	userLP = f.store.NewTokenAccount(solana.TokenProgramID, f.lpMintAcct.Key, user.Key, 0)
	return
}

func (f *fixture) addLiquidity(user, userA, userB, userLP *cpamm.AccountInfo, amountA, amountB, minLP uint64) error {
	return cpamm.Process(f.env, []*cpamm.AccountInfo{
		user, f.poolAcct, f.lpMintAcct, f.vaultA, f.vaultB, userA, userB, userLP, f.tokenProgram,
	}, u64Payload(cpamm.DiscAddLiquidity, amountA, amountB, minLP))
}

func (f *fixture) swap(user, inMint, outMint, inVault, outVault, userIn, userOut *cpamm.AccountInfo, amountIn, minOut uint64) error {
	return cpamm.Process(f.env, []*cpamm.AccountInfo{
		user, f.poolAcct, inMint, outMint, inVault, outVault, userIn, userOut, f.tokenProgram,
	}, u64Payload(cpamm.DiscSwap, amountIn, minOut))
}

func (f *fixture) withdraw(user, userLP, userA, userB *cpamm.AccountInfo, amountIn, minA, minB uint64) error {
	return cpamm.Process(f.env, []*cpamm.AccountInfo{
		user, f.poolAcct, f.lpMintAcct, f.vaultA, f.vaultB, userLP, userA, userB, f.tokenProgram,
	}, u64Payload(cpamm.DiscWithdraw, amountIn, minA, minB))
}

func TestInitializePoolSetsZeroReserves(t *testing.T) {
	f := newFixture(t)
	pool, err := cpamm.LoadPool(f.poolAcct.Data)
	if err != nil {
		t.Fatalf("LoadPool: %v", err)
	}
	if pool.ReserveA != 0 || pool.ReserveB != 0 {
		t.Errorf("fresh pool reserves = (%d, %d), want (0, 0)", pool.ReserveA, pool.ReserveB)
	}
	if pool.FeeRate != feeRateBps {
		t.Errorf("fee_rate = %d, want %d", pool.FeeRate, feeRateBps)
	}
	if !pool.TokenA.Equals(f.tokenAMint.Key) || !pool.TokenB.Equals(f.tokenBMint.Key) {
		t.Errorf("pool token pair does not match initialize_pool arguments")
	}
}

func TestFirstDepositMintsIsqrtShares(t *testing.T) {
	f := newFixture(t)
	user, userA, userB, userLP := f.newUser(1_000_000, 1_000_000)

	if err := f.addLiquidity(user, userA, userB, userLP, 10000, 40000, 1); err != nil {
		t.Fatalf("add_liquidity: %v", err)
	}
	lp, err := spltoken.ParseAccount(userLP.Data)
	if err != nil {
		t.Fatalf("ParseAccount(userLP): %v", err)
	}
	if lp.Amount != cpamm.Isqrt(10000*40000) {
		t.Errorf("lp minted = %d, want isqrt(10000*40000) = %d", lp.Amount, cpamm.Isqrt(10000*40000))
	}

	pool, err := cpamm.LoadPool(f.poolAcct.Data)
	if err != nil {
		t.Fatalf("LoadPool: %v", err)
	}
	if pool.ReserveA != 10000 || pool.ReserveB != 40000 {
		t.Errorf("reserves after first deposit = (%d, %d), want (10000, 40000)", pool.ReserveA, pool.ReserveB)
	}
}

func TestSwapAppliesFeeAndUpdatesReserves(t *testing.T) {
	f := newFixture(t)
	lp, lpA, lpB, lpLP := f.newUser(1_000_000, 1_000_000)
	if err := f.addLiquidity(lp, lpA, lpB, lpLP, 1_000_000, 1_000_000, 1); err != nil {
		t.Fatalf("seed add_liquidity: %v", err)
	}

	trader, traderA, traderB, _ := f.newUser(100_000, 0)
	before, err := cpamm.LoadPool(f.poolAcct.Data)
	if err != nil {
		t.Fatalf("LoadPool: %v", err)
	}
	kBefore := cpamm.InvariantK(before.ReserveA, before.ReserveB)

	amountIn := uint64(10_000)
	if err := f.swap(trader, f.tokenAMint, f.tokenBMint, f.vaultA, f.vaultB, traderA, traderB, amountIn, 1); err != nil {
		t.Fatalf("swap: %v", err)
	}

	out, err := spltoken.ParseAccount(traderB.Data)
	if err != nil {
		t.Fatalf("ParseAccount(traderB): %v", err)
	}
	if out.Amount == 0 {
		t.Fatal("swap produced zero output")
	}
	// With a nonzero fee, the trader must receive strictly less than the
	// fee-free constant-product quote.
	feeFreeOut, _ := cpamm.MulDivFloor(before.ReserveB, amountIn, before.ReserveA+amountIn)
	if out.Amount >= feeFreeOut {
		t.Errorf("swap output %d should be less than the fee-free quote %d", out.Amount, feeFreeOut)
	}

	after, err := cpamm.LoadPool(f.poolAcct.Data)
	if err != nil {
		t.Fatalf("LoadPool after swap: %v", err)
	}
	kAfter := cpamm.InvariantK(after.ReserveA, after.ReserveB)
	if kAfter.Cmp(kBefore) < 0 {
		t.Errorf("invariant k decreased across a fee-bearing swap: before=%v after=%v", kBefore, kAfter)
	}
}

func TestSwapFailsOnSlippageBreach(t *testing.T) {
	f := newFixture(t)
	lp, lpA, lpB, lpLP := f.newUser(1_000_000, 1_000_000)
	if err := f.addLiquidity(lp, lpA, lpB, lpLP, 1_000_000, 1_000_000, 1); err != nil {
		t.Fatalf("seed add_liquidity: %v", err)
	}

	trader, traderA, traderB, _ := f.newUser(100_000, 0)
	// An absurdly high min_amount_out can never be satisfied.
	if err := f.swap(trader, f.tokenAMint, f.tokenBMint, f.vaultA, f.vaultB, traderA, traderB, 10_000, 1_000_000); err == nil {
		t.Error("swap should fail when min_amount_out cannot be met")
	}
}

func TestSwapRejectsMismatchedMintPair(t *testing.T) {
	f := newFixture(t)
	lp, lpA, lpB, lpLP := f.newUser(1_000_000, 1_000_000)
	if err := f.addLiquidity(lp, lpA, lpB, lpLP, 1_000_000, 1_000_000, 1); err != nil {
		t.Fatalf("seed add_liquidity: %v", err)
	}

	trader, traderA, _, _ := f.newUser(100_000, 0)
	foreignMint := f.store.NewMint(solana.TokenProgramID, f.authority.Key, 6)
	foreignOut := f.store.NewTokenAccount(solana.TokenProgramID, foreignMint.Key, trader.Key, 0)

	if err := f.swap(trader, f.tokenAMint, foreignMint, f.vaultA, f.vaultB, traderA, foreignOut, 10_000, 1); err == nil {
		t.Error("swap should reject an output mint that isn't part of the pool's pair")
	}
}

func TestWithdrawReturnsProportionalShare(t *testing.T) {
	f := newFixture(t)
	user, userA, userB, userLP := f.newUser(1_000_000, 1_000_000)
	if err := f.addLiquidity(user, userA, userB, userLP, 100_000, 400_000, 1); err != nil {
		t.Fatalf("add_liquidity: %v", err)
	}
	lp, err := spltoken.ParseAccount(userLP.Data)
	if err != nil {
		t.Fatalf("ParseAccount(userLP): %v", err)
	}

	if err := f.withdraw(user, userLP, userA, userB, lp.Amount, 1, 1); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	pool, err := cpamm.LoadPool(f.poolAcct.Data)
	if err != nil {
		t.Fatalf("LoadPool after withdraw: %v", err)
	}
	if pool.ReserveA != 0 || pool.ReserveB != 0 {
		t.Errorf("reserves after full withdrawal = (%d, %d), want (0, 0)", pool.ReserveA, pool.ReserveB)
	}
	remainingLP, err := spltoken.ParseAccount(userLP.Data)
	if err != nil {
		t.Fatalf("ParseAccount(userLP) after withdraw: %v", err)
	}
	if remainingLP.Amount != 0 {
		t.Errorf("lp balance after full withdrawal = %d, want 0", remainingLP.Amount)
	}
}

func TestWithdrawFailsWhenLPBalanceInsufficient(t *testing.T) {
	f := newFixture(t)
	user, userA, userB, userLP := f.newUser(1_000_000, 1_000_000)
	if err := f.addLiquidity(user, userA, userB, userLP, 100_000, 400_000, 1); err != nil {
		t.Fatalf("add_liquidity: %v", err)
	}
	lp, err := spltoken.ParseAccount(userLP.Data)
	if err != nil {
		t.Fatalf("ParseAccount(userLP): %v", err)
	}

	if err := f.withdraw(user, userLP, userA, userB, lp.Amount+1, 0, 0); err == nil {
		t.Error("withdraw should fail when amount_in exceeds the user's LP balance")
	}
}
