package services

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/gagliardetto/solana-go"

	"github.com/chris2590/meme-blazer/internal/models"
)

// referralCodeLength is the number of hex characters kept from the digest.
// Truncation is deliberate; the code is cosmetic, not a security boundary.
const referralCodeLength = 8

// DeriveReferralCode derives a short opaque code from the connected
// identity. Deterministic: the same identity always yields the same code.
func DeriveReferralCode(identity solana.PublicKey) (string, error) {
	if identity.IsZero() {
		return "", models.NewPreconditionError("cannot derive a referral code without a connected identity")
	}

	sum := sha256.Sum256([]byte(identity.String()))
	return hex.EncodeToString(sum[:])[:referralCodeLength], nil
}
