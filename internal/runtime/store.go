package runtime

import (
	"github.com/gagliardetto/solana-go"
	"github.com/solana-zh/cpamm/pkg/cpamm"
	"github.com/solana-zh/cpamm/pkg/cpamm/spltoken"
)

// Store is a minimal in-memory account ledger: a map from address to the
// backing AccountInfo every handler call mutates in place. It exists so
// tests and the harness can seed pool/vault/mint state without a cluster.
type Store struct {
	accounts map[solana.PublicKey]*cpamm.AccountInfo
}

// NewStore returns an empty account store.
func NewStore() *Store {
	return &Store{accounts: make(map[solana.PublicKey]*cpamm.AccountInfo)}
}

// Put registers an account, overwriting any prior entry at the same key.
func (s *Store) Put(info *cpamm.AccountInfo) {
	s.accounts[info.Key] = info
}

// Get returns the account at key, or nil if none is registered.
func (s *Store) Get(key solana.PublicKey) *cpamm.AccountInfo {
	return s.accounts[key]
}

// NewWallet registers a fresh funded, uninitialized account: the shape of
// a System-Program-owned account before it's ever assigned, used for
// payers and users. It is marked as a signer; PDAs about to be created are
// registered with ReservePDA instead.
func (s *Store) NewWallet(lamports uint64) *cpamm.AccountInfo {
	key := solana.NewWallet().PublicKey()
	info := &cpamm.AccountInfo{
		Key:        key,
		Owner:      solana.SystemProgramID,
		Lamports:   lamports,
		IsSigner:   true,
		IsWritable: true,
	}
	s.Put(info)
	return info
}

// NewMint registers and initializes a fresh SPL Mint account.
func (s *Store) NewMint(tokenProgramID, mintAuthority solana.PublicKey, decimals uint8) *cpamm.AccountInfo {
	key := solana.NewWallet().PublicKey()
	data := make([]byte, spltoken.MintLen)
	_ = spltoken.EncodeMint(data, mintAuthority, decimals, 0)
	info := &cpamm.AccountInfo{
		Key:        key,
		Owner:      tokenProgramID,
		Lamports:   uint64(spltoken.MintLen) * 1000,
		IsWritable: true,
		Data:       data,
	}
	s.Put(info)
	return info
}

// NewTokenAccount registers and initializes a fresh SPL Token Account.
func (s *Store) NewTokenAccount(tokenProgramID, mint, owner solana.PublicKey, amount uint64) *cpamm.AccountInfo {
	key := solana.NewWallet().PublicKey()
	data := make([]byte, spltoken.AccountLen)
	_ = spltoken.EncodeAccount(data, mint, owner, amount)
	info := &cpamm.AccountInfo{
		Key:        key,
		Owner:      tokenProgramID,
		Lamports:   uint64(spltoken.AccountLen) * 1000,
		IsWritable: true,
		Data:       data,
	}
	s.Put(info)
	return info
}

// ReservePDA registers the empty, uninitialized account a PDA will occupy
// once a CreateAccount CPI assigns it; initialize_pool expects to find the
// pool record and LP mint accounts in exactly this state.
func (s *Store) ReservePDA(key solana.PublicKey) *cpamm.AccountInfo {
	info := &cpamm.AccountInfo{
		Key:        key,
		Owner:      solana.SystemProgramID,
		IsWritable: true,
	}
	s.Put(info)
	return info
}

// ReserveATA derives owner's associated token account for mint, the way
// solana.FindAssociatedTokenAddress does for any off-chain caller, and
// registers it empty: the shape an associated-token-account program's
// Create instruction expects to find its target account in.
func (s *Store) ReserveATA(owner, mint solana.PublicKey) (*cpamm.AccountInfo, error) {
	addr, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return nil, err
	}
	return s.ReservePDA(addr), nil
}
