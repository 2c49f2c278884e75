// Package spltoken decodes the fixed binary layouts the SPL Token Program
// persists for token accounts and mints. A handler never needs a CPI to
// read these, since the account data is already present in the call, so this
// is a local, zero-allocation view over bytes the caller already owns, in
// the same manual-offset style used for this program's own pool record.
package spltoken

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// AccountLen is the size of the SPL Token Program's Account layout.
const AccountLen = 165

// MintLen is the size of the SPL Token Program's Mint layout.
const MintLen = 82

const (
	accOffMint           = 0
	accOffOwner          = accOffMint + 32
	accOffAmount         = accOffOwner + 32
	accOffDelegateOption = accOffAmount + 8
	accOffDelegate       = accOffDelegateOption + 4
	accOffState          = accOffDelegate + 32
)

// Account is the decoded view of an SPL Token Account: mint, owner, and
// balance, the three fields every handler in this repo needs to validate.
type Account struct {
	Mint   solana.PublicKey
	Owner  solana.PublicKey
	Amount uint64
	// State mirrors the on-chain account-state byte (0=Uninitialized,
	// 1=Initialized, 2=Frozen).
	State uint8
}

// ParseAccount decodes an SPL Token Account from its raw 165-byte layout.
func ParseAccount(data []byte) (Account, error) {
	if len(data) != AccountLen {
		return Account{}, fmt.Errorf("spltoken: token account data is %d bytes, want %d", len(data), AccountLen)
	}
	return Account{
		Mint:   solana.PublicKeyFromBytes(data[accOffMint : accOffMint+32]),
		Owner:  solana.PublicKeyFromBytes(data[accOffOwner : accOffOwner+32]),
		Amount: binary.LittleEndian.Uint64(data[accOffAmount : accOffAmount+8]),
		State:  data[accOffState],
	}, nil
}

const (
	mintOffAuthorityOption = 0
	mintOffAuthority       = mintOffAuthorityOption + 4
	mintOffSupply          = mintOffAuthority + 32
	mintOffDecimals        = mintOffSupply + 8
	mintOffIsInitialized   = mintOffDecimals + 1
)

// Mint is the decoded view of an SPL Mint: supply, decimals, and mint
// authority (nil once permanently disabled, mirroring the on-chain COption
// encoding).
type Mint struct {
	MintAuthority *solana.PublicKey
	Supply        uint64
	Decimals      uint8
	IsInitialized bool
}

// ParseMint decodes an SPL Mint from its raw 82-byte layout.
func ParseMint(data []byte) (Mint, error) {
	if len(data) != MintLen {
		return Mint{}, fmt.Errorf("spltoken: mint data is %d bytes, want %d", len(data), MintLen)
	}
	m := Mint{
		Supply:        binary.LittleEndian.Uint64(data[mintOffSupply : mintOffSupply+8]),
		Decimals:      data[mintOffDecimals],
		IsInitialized: data[mintOffIsInitialized] != 0,
	}
	if binary.LittleEndian.Uint32(data[mintOffAuthorityOption:mintOffAuthority]) != 0 {
		auth := solana.PublicKeyFromBytes(data[mintOffAuthority : mintOffAuthority+32])
		m.MintAuthority = &auth
	}
	return m, nil
}
