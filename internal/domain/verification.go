package domain

import "time"

// VerificationToken is an issued one-time code. Identifier is a lower-cased
// email or canonical phone; at most one live token exists per identifier.
// ExpiresAt is a Unix timestamp so DynamoDB can use it as the TTL attribute.
type VerificationToken struct {
	Identifier string `json:"identifier" dynamodbav:"identifier"`
	Code       string `json:"code" dynamodbav:"code"`
	ExpiresAt  int64  `json:"expires_at" dynamodbav:"expires_at"`
}

// Expired reports whether the token's expiry is strictly before now.
func (t *VerificationToken) Expired(now time.Time) bool {
	return t.ExpiresAt < now.Unix()
}

// OTPMethod is the delivery method requested for a one-time code.
type OTPMethod string

const (
	OTPMethodPhone    OTPMethod = "phone"
	OTPMethodEmail    OTPMethod = "email"
	OTPMethodWhatsApp OTPMethod = "whatsapp"
)

// Channel returns the account channel a code sent with this method proves.
func (m OTPMethod) Channel() Channel {
	if m == OTPMethodEmail {
		return ChannelEmail
	}
	return ChannelPhone
}
