package cpamm

import "github.com/gagliardetto/solana-go"

// MustBeSigner fails MissingRequiredSignature unless acct is marked as a
// transaction signer.
func MustBeSigner(acct *AccountInfo) error {
	if acct == nil || !acct.IsSigner {
		return newErr(ErrMissingRequiredSignature, "account is not a signer")
	}
	return nil
}

// MustBeTokenProgram fails IncorrectProgramId unless acct's key matches the
// expected token program id.
func MustBeTokenProgram(acct *AccountInfo, expected solana.PublicKey) error {
	if acct == nil || !acct.Key.Equals(expected) {
		return newErr(ErrIncorrectProgramId, "expected token program %s", expected)
	}
	return nil
}

// MustHaveLength fails InvalidInstructionData unless payload is exactly n
// bytes.
func MustHaveLength(payload []byte, n int) error {
	if len(payload) != n {
		return newErr(ErrInvalidInstructionData, "payload is %d bytes, want %d", len(payload), n)
	}
	return nil
}

// MustEqual fails InvalidAccountData unless a and b are the same pubkey.
func MustEqual(a, b solana.PublicKey, what string) error {
	if !a.Equals(b) {
		return newErr(ErrInvalidAccountData, "%s mismatch: got %s, want %s", what, a, b)
	}
	return nil
}

// MustBeNonzero fails InvalidArgument on a zero amount.
func MustBeNonzero(amount uint64, what string) error {
	if amount == 0 {
		return newErr(ErrInvalidArgument, "%s must be nonzero", what)
	}
	return nil
}

// requireAccounts fails NotEnoughAccountKeys unless at least n accounts
// were supplied.
func requireAccounts(accounts []*AccountInfo, n int) error {
	if len(accounts) < n {
		return newErr(ErrNotEnoughAccountKeys, "got %d accounts, need at least %d", len(accounts), n)
	}
	return nil
}
