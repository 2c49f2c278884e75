// Package runtime is an in-memory stand-in for the two external
// collaborators a deployed program never implements itself: the SPL Token
// Program and the System Program. It implements enough of their documented
// on-chain behavior (Transfer, MintTo, Burn, InitializeMint2, CreateAccount)
// to drive pkg/cpamm's handlers end to end without a live validator or
// network connection of any kind.
package runtime

import (
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/solana-zh/cpamm/pkg/cpamm"
	"github.com/solana-zh/cpamm/pkg/cpamm/spltoken"
)

// associatedTokenAccountProgramID is the well-known program id
// solana-go's associated-token-account builder targets; the runtime
// recognizes it as a third CPI target alongside the token and system
// programs so the harness can route its user-account setup through a real
// CPI instead of seeding account bytes directly.
var associatedTokenAccountProgramID = solana.SPLAssociatedTokenAccountProgramID

// Well-known SPL Token Program instruction discriminators this simulation
// understands (a strict subset of the real spl-token enum).
const (
	tokenIxTransfer        = 3
	tokenIxMintTo          = 7
	tokenIxBurn            = 8
	tokenIxInitializeMint2 = 20
)

// System Program CreateAccount's instruction index, serialized as a
// little-endian u32 ahead of its args, exactly as the real System Program
// encodes it.
const systemIxCreateAccount = 0

// Runtime simulates the token program and system program CPI targets, and
// doubles as the account store a harness or test seeds pool/vault/mint
// state into.
type Runtime struct {
	mu              sync.Mutex
	ProgramID       solana.PublicKey
	TokenProgramID  solana.PublicKey
	SystemProgramID solana.PublicKey
}

// New constructs a Runtime wired to the given well-known program ids.
func New(programID, tokenProgramID, systemProgramID solana.PublicKey) *Runtime {
	return &Runtime{
		ProgramID:       programID,
		TokenProgramID:  tokenProgramID,
		SystemProgramID: systemProgramID,
	}
}

// Env builds a cpamm.Env pointed at this Runtime's CPI implementation.
func (r *Runtime) Env() *cpamm.Env {
	return &cpamm.Env{
		ProgramID:       r.ProgramID,
		SystemProgramID: r.SystemProgramID,
		TokenProgramID:  r.TokenProgramID,
		CPI:             r,
	}
}

// Invoke implements cpamm.CPI. It is the single seam through which every
// handler reaches the token program or the system program.
func (r *Runtime) Invoke(ix solana.Instruction, accounts []*cpamm.AccountInfo, signerSeeds [][][]byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkSigners(ix, accounts, signerSeeds); err != nil {
		return err
	}

	switch {
	case ix.ProgramID().Equals(r.TokenProgramID):
		return r.invokeToken(ix, accounts)
	case ix.ProgramID().Equals(r.SystemProgramID):
		return r.invokeSystem(ix, accounts)
	case ix.ProgramID().Equals(associatedTokenAccountProgramID):
		return r.invokeCreateATA(ix, accounts)
	default:
		return fmt.Errorf("runtime: unknown CPI target program %s", ix.ProgramID())
	}
}

// checkSigners verifies that every account the instruction marks as a
// signer is either a true transaction signer or a PDA whose address is
// re-derivable from one of the supplied signer seed sets under this
// program's id, the in-memory equivalent of invoke_signed's signature
// check.
func (r *Runtime) checkSigners(ix solana.Instruction, accounts []*cpamm.AccountInfo, signerSeeds [][][]byte) error {
	derived := make(map[solana.PublicKey]bool)
	for _, seeds := range signerSeeds {
		if len(seeds) == 0 {
			continue
		}
		addr, err := solana.CreateProgramAddress(seeds, r.ProgramID)
		if err != nil {
			return fmt.Errorf("runtime: invalid signer seeds: %w", err)
		}
		derived[addr] = true
	}
	for _, meta := range ix.Accounts() {
		if !meta.IsSigner {
			continue
		}
		acct, err := findAccount(accounts, meta.PublicKey)
		if err != nil {
			return err
		}
		if acct.IsSigner || derived[acct.Key] {
			continue
		}
		return fmt.Errorf("runtime: missing required signature for %s", acct.Key)
	}
	return nil
}

func findAccount(accounts []*cpamm.AccountInfo, key solana.PublicKey) (*cpamm.AccountInfo, error) {
	for _, a := range accounts {
		if a.Key.Equals(key) {
			return a, nil
		}
	}
	return nil, fmt.Errorf("runtime: account %s not supplied to CPI", key)
}

func (r *Runtime) invokeToken(ix solana.Instruction, accounts []*cpamm.AccountInfo) error {
	data, err := ix.Data()
	if err != nil {
		return fmt.Errorf("runtime: decode token instruction data: %w", err)
	}
	if len(data) == 0 {
		return fmt.Errorf("runtime: empty token instruction data")
	}
	metas := ix.Accounts()

	switch data[0] {
	case tokenIxTransfer:
		if len(metas) < 3 || len(data) < 9 {
			return fmt.Errorf("runtime: malformed Transfer instruction")
		}
		amount := leUint64(data[1:9])
		source, err := findAccount(accounts, metas[0].PublicKey)
		if err != nil {
			return err
		}
		dest, err := findAccount(accounts, metas[1].PublicKey)
		if err != nil {
			return err
		}
		return transfer(source, dest, amount)

	case tokenIxMintTo:
		if len(metas) < 3 || len(data) < 9 {
			return fmt.Errorf("runtime: malformed MintTo instruction")
		}
		amount := leUint64(data[1:9])
		mint, err := findAccount(accounts, metas[0].PublicKey)
		if err != nil {
			return err
		}
		dest, err := findAccount(accounts, metas[1].PublicKey)
		if err != nil {
			return err
		}
		return mintTo(mint, dest, amount)

	case tokenIxBurn:
		if len(metas) < 3 || len(data) < 9 {
			return fmt.Errorf("runtime: malformed Burn instruction")
		}
		amount := leUint64(data[1:9])
		account, err := findAccount(accounts, metas[0].PublicKey)
		if err != nil {
			return err
		}
		mint, err := findAccount(accounts, metas[1].PublicKey)
		if err != nil {
			return err
		}
		return burn(account, mint, amount)

	case tokenIxInitializeMint2:
		if len(metas) < 1 || len(data) < 2+32 {
			return fmt.Errorf("runtime: malformed InitializeMint2 instruction")
		}
		decimals := data[1]
		mintAuthority := solana.PublicKeyFromBytes(data[2:34])
		mint, err := findAccount(accounts, metas[0].PublicKey)
		if err != nil {
			return err
		}
		return spltoken.EncodeMint(mint.Data, mintAuthority, decimals, 0)

	default:
		return fmt.Errorf("runtime: unsupported token instruction discriminator %d", data[0])
	}
}

// invokeCreateATA simulates the associated-token-account program's Create
// instruction: account order is (payer, associatedAccount, owner, mint,
// system_program, token_program), matching
// associatedtokenaccount.NewCreateInstruction's builder.
func (r *Runtime) invokeCreateATA(ix solana.Instruction, accounts []*cpamm.AccountInfo) error {
	metas := ix.Accounts()
	if len(metas) < 4 {
		return fmt.Errorf("runtime: malformed associated-token-account Create instruction")
	}
	ata, err := findAccount(accounts, metas[1].PublicKey)
	if err != nil {
		return err
	}
	owner, err := findAccount(accounts, metas[2].PublicKey)
	if err != nil {
		return err
	}
	mint, err := findAccount(accounts, metas[3].PublicKey)
	if err != nil {
		return err
	}
	if len(ata.Data) != 0 {
		return fmt.Errorf("runtime: associated token account %s already initialized", ata.Key)
	}
	ata.Data = make([]byte, spltoken.AccountLen)
	ata.Owner = r.TokenProgramID
	ata.Lamports = uint64(spltoken.AccountLen) * 1000
	return spltoken.EncodeAccount(ata.Data, mint.Key, owner.Key, 0)
}

func (r *Runtime) invokeSystem(ix solana.Instruction, accounts []*cpamm.AccountInfo) error {
	data, err := ix.Data()
	if err != nil {
		return fmt.Errorf("runtime: decode system instruction data: %w", err)
	}
	if len(data) < 4 {
		return fmt.Errorf("runtime: empty system instruction data")
	}
	idx := leUint32(data[0:4])
	metas := ix.Accounts()

	switch idx {
	case systemIxCreateAccount:
		if len(metas) < 2 || len(data) < 4+8+8+32 {
			return fmt.Errorf("runtime: malformed CreateAccount instruction")
		}
		lamports := leUint64(data[4:12])
		space := leUint64(data[12:20])
		owner := solana.PublicKeyFromBytes(data[20:52])
		newAccount, err := findAccount(accounts, metas[1].PublicKey)
		if err != nil {
			return err
		}
		if len(newAccount.Data) != 0 {
			return fmt.Errorf("runtime: account %s already initialized", newAccount.Key)
		}
		newAccount.Data = make([]byte, space)
		newAccount.Owner = owner
		newAccount.Lamports = lamports
		return nil
	default:
		return fmt.Errorf("runtime: unsupported system instruction index %d", idx)
	}
}

func transfer(source, dest *cpamm.AccountInfo, amount uint64) error {
	src, err := spltoken.ParseAccount(source.Data)
	if err != nil {
		return fmt.Errorf("runtime: %w", err)
	}
	if src.Amount < amount {
		return fmt.Errorf("runtime: transfer of %d exceeds balance %d", amount, src.Amount)
	}
	if err := spltoken.PutAmount(source.Data, src.Amount-amount); err != nil {
		return err
	}
	dst, err := spltoken.ParseAccount(dest.Data)
	if err != nil {
		return fmt.Errorf("runtime: %w", err)
	}
	return spltoken.PutAmount(dest.Data, dst.Amount+amount)
}

func mintTo(mintAcct, dest *cpamm.AccountInfo, amount uint64) error {
	mint, err := spltoken.ParseMint(mintAcct.Data)
	if err != nil {
		return fmt.Errorf("runtime: %w", err)
	}
	if err := spltoken.PutSupply(mintAcct.Data, mint.Supply+amount); err != nil {
		return err
	}
	dst, err := spltoken.ParseAccount(dest.Data)
	if err != nil {
		return fmt.Errorf("runtime: %w", err)
	}
	return spltoken.PutAmount(dest.Data, dst.Amount+amount)
}

func burn(account, mintAcct *cpamm.AccountInfo, amount uint64) error {
	acc, err := spltoken.ParseAccount(account.Data)
	if err != nil {
		return fmt.Errorf("runtime: %w", err)
	}
	if acc.Amount < amount {
		return fmt.Errorf("runtime: burn of %d exceeds balance %d", amount, acc.Amount)
	}
	if err := spltoken.PutAmount(account.Data, acc.Amount-amount); err != nil {
		return err
	}
	mint, err := spltoken.ParseMint(mintAcct.Data)
	if err != nil {
		return fmt.Errorf("runtime: %w", err)
	}
	if mint.Supply < amount {
		return fmt.Errorf("runtime: burn of %d exceeds supply %d", amount, mint.Supply)
	}
	return spltoken.PutSupply(mintAcct.Data, mint.Supply-amount)
}

func leUint64(b []byte) uint64 {
	var buf [8]byte
	copy(buf[:], b)
	return uint64(buf[0]) | uint64(buf[1])<<8 | uint64(buf[2])<<16 | uint64(buf[3])<<24 |
		uint64(buf[4])<<32 | uint64(buf[5])<<40 | uint64(buf[6])<<48 | uint64(buf[7])<<56
}

func leUint32(b []byte) uint32 {
	var buf [4]byte
	copy(buf[:], b)
	return uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24
}
