package model

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AdminID is the fixed participant id used by the administrator side of a chat.
const AdminID = "admin"

// GenerateUUIDWithSuffix generates a UUID with a given module name as a suffix.
// This is useful for creating unique identifiers with context-specific prefixes.
func GenerateUUIDWithSuffix(module string) string {
	id := uuid.New()
	return fmt.Sprintf("%s_%s", module, id.String())
}

// GenerateToken returns n random bytes hex encoded.
func GenerateToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// ManualCreditReference builds the idempotency reference used when the caller
// does not supply one.
func ManualCreditReference() string {
	return "manual_" + strings.ReplaceAll(uuid.New().String(), "-", "")
}

// TopUpCreditReference is the reference of the credit written when a top-up is approved.
// A top-up can only ever produce one of these.
func TopUpCreditReference(topUpID string) string {
	return "topup:" + topUpID
}

// PageWindow clamps a limit/offset pair to sane values.
func PageWindow(limit, offset, defaultLimit, maxLimit int) (int, int) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
