package dynamo

// DynamoDB attribute names used in key and update expressions across repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldAccountID       = "account_id"
	fieldEmail           = "email"
	fieldPhone           = "phone"
	fieldOwnerID         = "owner_id"
	fieldGoogleSub       = "google_sub"
	fieldEmailVerifiedAt = "email_verified_at"
	fieldPhoneVerifiedAt = "phone_verified_at"
	fieldUpdatedAt       = "updated_at"

	fieldIdentifier = "identifier"
	fieldCode       = "code"
	fieldExpiresAt  = "expires_at"
)

// Index names.
const (
	indexEmail = "email-index"
	indexPhone = "phone-index"
)
