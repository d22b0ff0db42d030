package user

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/volatiletech/null/v8"
)

var (
	NowFunc = time.Now // mockable

	resetTokenBytes = 20
)

// makeResetToken returns a random opaque token and the digest stored in its place.
func makeResetToken() (token, digest string, err error) {
	b := make([]byte, resetTokenBytes)
	if _, err = rand.Read(b); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(b)
	return token, hashResetToken(token), nil
}

// hashResetToken returns the lookup digest of a reset token.
func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (u *User) setResetToken(digest string, expiresAt time.Time) {
	u.ResetTokenHash = null.StringFrom(digest)
	u.ResetExpiresAt = null.TimeFrom(expiresAt.UTC())
}

func (u *User) clearResetToken() {
	u.ResetTokenHash = null.String{}
	u.ResetExpiresAt = null.Time{}
}

// verifyResetToken checks that the User holds a reset token that is still valid at `now`.
// A token stops being valid exactly when its expiry is reached.
func verifyResetToken(usr User, now time.Time) error {
	if !usr.ResetTokenHash.Valid || !usr.ResetExpiresAt.Valid {
		return ErrInvalidToken
	}
	if !now.Before(usr.ResetExpiresAt.Time) {
		return ErrInvalidToken
	}
	return nil
}
