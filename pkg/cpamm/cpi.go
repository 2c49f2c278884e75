package cpamm

import "github.com/gagliardetto/solana-go"

// CPI is the cross-program-call boundary. A handler builds a
// solana.Instruction with the real token/system program instruction
// builders (exactly as a client would build one to send over RPC) and
// hands it here instead of to a transaction: the Go-shaped stand-in for
// the sandbox's invoke/invoke_signed syscalls.
//
// signerSeeds carries one seed tuple per PDA the instruction must be
// signed by (the pool authority, the LP mint authority), in the style of
// invoke_signed's &[&[&[u8]]]. A nil or empty entry means "no additional
// PDA signer beyond the ones already marked as signers in accounts."
type CPI interface {
	Invoke(ix solana.Instruction, accounts []*AccountInfo, signerSeeds [][][]byte) error
}
