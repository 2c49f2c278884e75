package spltoken

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// PutAmount overwrites just the amount field of an encoded token account,
// the single field the token program mutates on Transfer/MintTo/Burn.
func PutAmount(data []byte, amount uint64) error {
	if len(data) != AccountLen {
		return fmt.Errorf("spltoken: token account data is %d bytes, want %d", len(data), AccountLen)
	}
	binary.LittleEndian.PutUint64(data[accOffAmount:accOffAmount+8], amount)
	return nil
}

// EncodeAccount writes a fresh SPL Token Account layout into data, used by
// the in-memory token program to initialize vaults/user accounts in tests
// and by the harness when seeding its simulated ledger.
func EncodeAccount(data []byte, mint, owner solana.PublicKey, amount uint64) error {
	if len(data) != AccountLen {
		return fmt.Errorf("spltoken: token account data is %d bytes, want %d", len(data), AccountLen)
	}
	copy(data[accOffMint:accOffMint+32], mint[:])
	copy(data[accOffOwner:accOffOwner+32], owner[:])
	binary.LittleEndian.PutUint64(data[accOffAmount:accOffAmount+8], amount)
	data[accOffState] = 1 // Initialized
	return nil
}

// EncodeMint writes a fresh SPL Mint layout into data.
func EncodeMint(data []byte, mintAuthority solana.PublicKey, decimals uint8, supply uint64) error {
	if len(data) != MintLen {
		return fmt.Errorf("spltoken: mint data is %d bytes, want %d", len(data), MintLen)
	}
	binary.LittleEndian.PutUint32(data[mintOffAuthorityOption:mintOffAuthority], 1)
	copy(data[mintOffAuthority:mintOffAuthority+32], mintAuthority[:])
	binary.LittleEndian.PutUint64(data[mintOffSupply:mintOffSupply+8], supply)
	data[mintOffDecimals] = decimals
	data[mintOffIsInitialized] = 1
	return nil
}

// PutSupply overwrites just the supply field of an encoded mint.
func PutSupply(data []byte, supply uint64) error {
	if len(data) != MintLen {
		return fmt.Errorf("spltoken: mint data is %d bytes, want %d", len(data), MintLen)
	}
	binary.LittleEndian.PutUint64(data[mintOffSupply:mintOffSupply+8], supply)
	return nil
}
