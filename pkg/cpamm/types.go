// Package cpamm implements a constant-product automated market maker as a
// sandboxed on-chain program: a pool data model, a dispatcher, and the four
// instruction handlers (initialize_pool, add_liquidity, swap, withdraw).
//
// The program never talks to a live cluster. It is handed the account set
// and instruction payload for a single invocation and returns a single
// error (or nil); everything it needs from the token program and the
// system program is reached through the CPI interface in cpi.go, which a
// caller (a real host shim, or internal/runtime's simulation) supplies.
package cpamm

import "github.com/gagliardetto/solana-go"

// PoolLen is the fixed on-chain size of a Pool record: 6 pubkeys (32 bytes
// each) + 2 reserves (8 bytes each) + fee_rate (2 bytes) + 2 bumps (1 byte
// each) + 4 bytes padding = 216 bytes.
const PoolLen = 6*32 + 8 + 8 + 2 + 1 + 1 + 4

// Pool is the sole persistent state this program owns.
type Pool struct {
	Authority solana.PublicKey
	TokenA    solana.PublicKey
	TokenB    solana.PublicKey
	LPMint    solana.PublicKey
	VaultA    solana.PublicKey
	VaultB    solana.PublicKey
	ReserveA  uint64
	ReserveB  uint64
	FeeRate   uint16
	Bump      uint8
	LPBump    uint8
	// Pad holds the 4 reserved bytes; must stay zero.
	Pad [4]byte
}

// AccountInfo stands in for the runtime-provided view of an account; parsing
// the raw instruction buffer into this shape is the host entrypoint's job,
// not this package's. Data is shared with the caller's backing buffer, so
// mutating it in place is how reserve and balance changes become visible
// after the call returns.
type AccountInfo struct {
	Key        solana.PublicKey
	Owner      solana.PublicKey
	Lamports   uint64
	Data       []byte
	IsSigner   bool
	IsWritable bool
}

// Env bundles the well-known program identities and the CPI boundary a
// handler needs. Constructing one and pointing CPI at internal/runtime's
// simulation (tests, the harness) or at a real host shim (out of scope
// here) is the only wiring a caller has to do.
type Env struct {
	ProgramID       solana.PublicKey
	SystemProgramID solana.PublicKey
	TokenProgramID  solana.PublicKey
	CPI             CPI
}
