package domain

import "time"

// OTPRecord is one issued recovery code.
// PK: email, SK: otp_id. OTP IDs are ULIDs, so the greatest otp_id for an
// email is the most recently issued record — only that one is ever checked
// during verification. Multiple records for the same email may coexist.
// ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type OTPRecord struct {
	OTPID     string    `json:"otp_id" dynamodbav:"otp_id"`
	Email     string    `json:"email" dynamodbav:"email"`
	Code      string    `json:"-" dynamodbav:"code"` // 6-digit numeric string, leading zeros kept
	Attempts  int       `json:"attempts" dynamodbav:"attempts"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
	ExpiresAt int64     `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
}

// Expired reports whether the record is past its TTL at the given instant.
// A record whose expiry equals now is already expired.
func (r *OTPRecord) Expired(now time.Time) bool {
	return r.ExpiresAt <= now.Unix()
}
