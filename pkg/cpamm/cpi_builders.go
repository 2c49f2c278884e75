package cpamm

import (
	"github.com/gagliardetto/solana-go"
	assoctoken "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
)

// buildTransferIx wraps the token program's Transfer builder: the real
// instruction builder, .ValidateAndBuild(), an empty multisig-signers
// slice.
func buildTransferIx(source, destination, owner solana.PublicKey, amount uint64) (solana.Instruction, error) {
	return token.NewTransferInstruction(amount, source, destination, owner, nil).ValidateAndBuild()
}

func buildMintToIx(mint, destination, mintAuthority solana.PublicKey, amount uint64) (solana.Instruction, error) {
	return token.NewMintToInstruction(amount, mint, destination, mintAuthority, nil).ValidateAndBuild()
}

func buildBurnIx(account, mint, owner solana.PublicKey, amount uint64) (solana.Instruction, error) {
	return token.NewBurnInstruction(amount, account, mint, owner, nil).ValidateAndBuild()
}

// buildInitializeMint2Ix builds the LP mint's InitializeMint2 instruction
// with no freeze authority.
func buildInitializeMint2Ix(mint, mintAuthority solana.PublicKey, decimals uint8) (solana.Instruction, error) {
	return token.NewInitializeMint2Instruction(decimals, mintAuthority, solana.PublicKey{}, mint).ValidateAndBuild()
}

// buildCreateAccountIx builds the System Program CreateAccount instruction
// used to allocate the pool record and the LP mint account, funded to
// rent-exemption and assigned to the given owner program.
func buildCreateAccountIx(payer, newAccount, owner solana.PublicKey, lamports, space uint64) (solana.Instruction, error) {
	return system.NewCreateAccountInstruction(lamports, space, owner, payer, newAccount).ValidateAndBuild()
}

// BuildCreateATAIx builds the associated-token-account program's Create
// instruction. Exported for off-chain callers (the
// harness, a real client) that need to stand up a user's token account
// before calling into this program; no handler in this package builds one
// itself, since every handler's account contract requires the caller to
// already have created the relevant token accounts.
func BuildCreateATAIx(payer, owner, mint solana.PublicKey) (solana.Instruction, error) {
	return assoctoken.NewCreateInstruction(payer, owner, mint).ValidateAndBuild()
}

// BuildMintToIx is the exported form of buildMintToIx, for off-chain callers
// (the harness) funding a freshly created test token account, the same
// instruction add_liquidity's handler uses internally to mint LP shares.
func BuildMintToIx(mint, destination, mintAuthority solana.PublicKey, amount uint64) (solana.Instruction, error) {
	return buildMintToIx(mint, destination, mintAuthority, amount)
}
