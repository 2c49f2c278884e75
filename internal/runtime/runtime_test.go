package runtime

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	assoctoken "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/solana-zh/cpamm/pkg/cpamm"
	"github.com/solana-zh/cpamm/pkg/cpamm/spltoken"
)

func newTestRuntime() (*Runtime, *Store) {
	programID := solana.NewWallet().PublicKey()
	rt := New(programID, solana.TokenProgramID, solana.SystemProgramID)
	return rt, NewStore()
}

func TestInvokeTransferMovesBalance(t *testing.T) {
	rt, store := newTestRuntime()
	mint := solana.NewWallet().PublicKey()
	owner := store.NewWallet(0)
	owner.IsSigner = true
	source := store.NewTokenAccount(rt.TokenProgramID, mint, owner.Key, 100)
	dest := store.NewTokenAccount(rt.TokenProgramID, mint, owner.Key, 0)

	ix, err := token.NewTransferInstruction(40, source.Key, dest.Key, owner.Key, nil).ValidateAndBuild()
	if err != nil {
		t.Fatalf("build transfer instruction: %v", err)
	}
	if err := rt.Invoke(ix, []*cpamm.AccountInfo{source, dest, owner}, nil); err != nil {
		t.Fatalf("Invoke(transfer) error: %v", err)
	}

	src, err := spltoken.ParseAccount(source.Data)
	if err != nil {
		t.Fatalf("ParseAccount(source): %v", err)
	}
	dst, err := spltoken.ParseAccount(dest.Data)
	if err != nil {
		t.Fatalf("ParseAccount(dest): %v", err)
	}
	if src.Amount != 60 {
		t.Errorf("source balance = %d, want 60", src.Amount)
	}
	if dst.Amount != 40 {
		t.Errorf("dest balance = %d, want 40", dst.Amount)
	}
}

func TestInvokeTransferInsufficientFunds(t *testing.T) {
	rt, store := newTestRuntime()
	mint := solana.NewWallet().PublicKey()
	owner := store.NewWallet(0)
	owner.IsSigner = true
	source := store.NewTokenAccount(rt.TokenProgramID, mint, owner.Key, 10)
	dest := store.NewTokenAccount(rt.TokenProgramID, mint, owner.Key, 0)

	ix, err := token.NewTransferInstruction(40, source.Key, dest.Key, owner.Key, nil).ValidateAndBuild()
	if err != nil {
		t.Fatalf("build transfer instruction: %v", err)
	}
	if err := rt.Invoke(ix, []*cpamm.AccountInfo{source, dest, owner}, nil); err == nil {
		t.Error("Invoke(transfer) should fail when the source balance is too low")
	}
}

func TestInvokeRequiresSignature(t *testing.T) {
	rt, store := newTestRuntime()
	mint := solana.NewWallet().PublicKey()
	owner := store.NewWallet(0) // not marked as a signer
	source := store.NewTokenAccount(rt.TokenProgramID, mint, owner.Key, 100)
	dest := store.NewTokenAccount(rt.TokenProgramID, mint, owner.Key, 0)
	owner.IsSigner = false

	ix, err := token.NewTransferInstruction(40, source.Key, dest.Key, owner.Key, nil).ValidateAndBuild()
	if err != nil {
		t.Fatalf("build transfer instruction: %v", err)
	}
	if err := rt.Invoke(ix, []*cpamm.AccountInfo{source, dest, owner}, nil); err == nil {
		t.Error("Invoke(transfer) should fail without the owner's signature")
	}
}

func TestInvokeMintToAndBurn(t *testing.T) {
	rt, store := newTestRuntime()
	authority := store.NewWallet(0)
	authority.IsSigner = true
	mint := store.NewMint(rt.TokenProgramID, authority.Key, 6)
	dest := store.NewTokenAccount(rt.TokenProgramID, mint.Key, authority.Key, 0)

	mintIx, err := token.NewMintToInstruction(500, mint.Key, dest.Key, authority.Key, nil).ValidateAndBuild()
	if err != nil {
		t.Fatalf("build mint_to instruction: %v", err)
	}
	if err := rt.Invoke(mintIx, []*cpamm.AccountInfo{mint, dest, authority}, nil); err != nil {
		t.Fatalf("Invoke(mint_to) error: %v", err)
	}
	m, err := spltoken.ParseMint(mint.Data)
	if err != nil {
		t.Fatalf("ParseMint: %v", err)
	}
	if m.Supply != 500 {
		t.Fatalf("mint supply after mint_to = %d, want 500", m.Supply)
	}

	burnIx, err := token.NewBurnInstruction(200, dest.Key, mint.Key, authority.Key, nil).ValidateAndBuild()
	if err != nil {
		t.Fatalf("build burn instruction: %v", err)
	}
	if err := rt.Invoke(burnIx, []*cpamm.AccountInfo{dest, mint, authority}, nil); err != nil {
		t.Fatalf("Invoke(burn) error: %v", err)
	}
	m, err = spltoken.ParseMint(mint.Data)
	if err != nil {
		t.Fatalf("ParseMint after burn: %v", err)
	}
	if m.Supply != 300 {
		t.Errorf("mint supply after burn = %d, want 300", m.Supply)
	}
}

func TestInvokeCreateAssociatedTokenAccount(t *testing.T) {
	rt, store := newTestRuntime()
	owner := store.NewWallet(1_000_000)
	owner.IsSigner = true
	mint := store.NewMint(rt.TokenProgramID, owner.Key, 6)

	ata, err := store.ReserveATA(owner.Key, mint.Key)
	if err != nil {
		t.Fatalf("ReserveATA: %v", err)
	}
	ix, err := assoctoken.NewCreateInstruction(owner.Key, owner.Key, mint.Key).ValidateAndBuild()
	if err != nil {
		t.Fatalf("build associated-token-account create instruction: %v", err)
	}
	systemProgram := &cpamm.AccountInfo{Key: rt.SystemProgramID}
	tokenProgram := &cpamm.AccountInfo{Key: rt.TokenProgramID}
	if err := rt.Invoke(ix, []*cpamm.AccountInfo{owner, ata, owner, mint, systemProgram, tokenProgram}, nil); err != nil {
		t.Fatalf("Invoke(create_ata) error: %v", err)
	}

	parsed, err := spltoken.ParseAccount(ata.Data)
	if err != nil {
		t.Fatalf("ParseAccount(ata): %v", err)
	}
	if !parsed.Mint.Equals(mint.Key) || !parsed.Owner.Equals(owner.Key) || parsed.Amount != 0 {
		t.Errorf("ata decoded as %+v, want mint=%v owner=%v amount=0", parsed, mint.Key, owner.Key)
	}
	if !ata.Owner.Equals(rt.TokenProgramID) {
		t.Errorf("ata account owner = %v, want token program %v", ata.Owner, rt.TokenProgramID)
	}
}

func TestInvokeCreateAccount(t *testing.T) {
	rt, store := newTestRuntime()
	payer := store.NewWallet(1_000_000)
	payer.IsSigner = true
	newAcct := store.ReservePDA(solana.NewWallet().PublicKey())
	newAcct.IsSigner = true

	ix, err := system.NewCreateAccountInstruction(777, spltoken.MintLen, rt.TokenProgramID, payer.Key, newAcct.Key).ValidateAndBuild()
	if err != nil {
		t.Fatalf("build create_account instruction: %v", err)
	}
	if err := rt.Invoke(ix, []*cpamm.AccountInfo{payer, newAcct}, nil); err != nil {
		t.Fatalf("Invoke(create_account) error: %v", err)
	}
	if len(newAcct.Data) != spltoken.MintLen {
		t.Errorf("new account data len = %d, want %d", len(newAcct.Data), spltoken.MintLen)
	}
	if !newAcct.Owner.Equals(rt.TokenProgramID) {
		t.Errorf("new account owner = %v, want %v", newAcct.Owner, rt.TokenProgramID)
	}
	if newAcct.Lamports != 777 {
		t.Errorf("new account lamports = %d, want 777", newAcct.Lamports)
	}
}
