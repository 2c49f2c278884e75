package cpamm

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// Field offsets within the 216-byte pool record. Kept as named constants
// rather than running offset math inline so Load/Store can't drift apart
// from each other.
const (
	offAuthority = 0
	offTokenA    = offAuthority + 32
	offTokenB    = offTokenA + 32
	offLPMint    = offTokenB + 32
	offVaultA    = offLPMint + 32
	offVaultB    = offVaultA + 32
	offReserveA  = offVaultB + 32
	offReserveB  = offReserveA + 8
	offFeeRate   = offReserveB + 8
	offBump      = offFeeRate + 2
	offLPBump    = offBump + 1
	offPad       = offLPBump + 1
)

// LoadPool decodes a Pool out of a byte buffer of exactly PoolLen bytes,
// using manual fixed-offset reads: no reflection, no allocation beyond the
// returned struct.
func LoadPool(data []byte) (*Pool, error) {
	if len(data) != PoolLen {
		return nil, newErr(ErrInvalidAccountData, "pool account data is %d bytes, want %d", len(data), PoolLen)
	}
	p := &Pool{
		Authority: solana.PublicKeyFromBytes(data[offAuthority : offAuthority+32]),
		TokenA:    solana.PublicKeyFromBytes(data[offTokenA : offTokenA+32]),
		TokenB:    solana.PublicKeyFromBytes(data[offTokenB : offTokenB+32]),
		LPMint:    solana.PublicKeyFromBytes(data[offLPMint : offLPMint+32]),
		VaultA:    solana.PublicKeyFromBytes(data[offVaultA : offVaultA+32]),
		VaultB:    solana.PublicKeyFromBytes(data[offVaultB : offVaultB+32]),
		ReserveA:  binary.LittleEndian.Uint64(data[offReserveA : offReserveA+8]),
		ReserveB:  binary.LittleEndian.Uint64(data[offReserveB : offReserveB+8]),
		FeeRate:   binary.LittleEndian.Uint16(data[offFeeRate : offFeeRate+2]),
		Bump:      data[offBump],
		LPBump:    data[offLPBump],
	}
	copy(p.Pad[:], data[offPad:offPad+4])
	return p, nil
}

// Store writes p back into data in place. data must be exactly PoolLen
// bytes, as returned by LoadPool.
func (p *Pool) Store(data []byte) error {
	if len(data) != PoolLen {
		return newErr(ErrInvalidAccountData, "pool account data is %d bytes, want %d", len(data), PoolLen)
	}
	copy(data[offAuthority:offAuthority+32], p.Authority[:])
	copy(data[offTokenA:offTokenA+32], p.TokenA[:])
	copy(data[offTokenB:offTokenB+32], p.TokenB[:])
	copy(data[offLPMint:offLPMint+32], p.LPMint[:])
	copy(data[offVaultA:offVaultA+32], p.VaultA[:])
	copy(data[offVaultB:offVaultB+32], p.VaultB[:])
	binary.LittleEndian.PutUint64(data[offReserveA:offReserveA+8], p.ReserveA)
	binary.LittleEndian.PutUint64(data[offReserveB:offReserveB+8], p.ReserveB)
	binary.LittleEndian.PutUint16(data[offFeeRate:offFeeRate+2], p.FeeRate)
	data[offBump] = p.Bump
	data[offLPBump] = p.LPBump
	copy(data[offPad:offPad+4], p.Pad[:])
	return nil
}
