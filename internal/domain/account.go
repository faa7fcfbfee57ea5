package domain

import "time"

// AccountStatus is the administrative state of an account.
type AccountStatus string

const (
	StatusActive   AccountStatus = "active"
	StatusInactive AccountStatus = "inactive"
)

// Channel is a contact channel that can be proven through an OTP.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPhone Channel = "phone"
)

// Account is the identity record. Email is stored lower-cased and phone in
// canonical form; both are unique across all accounts when present.
type Account struct {
	AccountID         string        `json:"id" dynamodbav:"account_id"`
	Email             *string       `json:"email,omitempty" dynamodbav:"email,omitempty"`
	Phone             *string       `json:"phone,omitempty" dynamodbav:"phone,omitempty"`
	PasswordHash      string        `json:"-" dynamodbav:"password_hash,omitempty"`
	Role              Role          `json:"role" dynamodbav:"role"`
	Status            AccountStatus `json:"status" dynamodbav:"status"`
	Name              string        `json:"name" dynamodbav:"name"`
	Address           string        `json:"address,omitempty" dynamodbav:"address,omitempty"`
	District          string        `json:"district,omitempty" dynamodbav:"district,omitempty"`
	ServiceCategories []string      `json:"service_categories,omitempty" dynamodbav:"service_categories,omitempty"`
	GoogleSub         string        `json:"-" dynamodbav:"google_sub,omitempty"`
	EmailVerifiedAt   *time.Time    `json:"email_verified_at,omitempty" dynamodbav:"email_verified_at,omitempty"`
	PhoneVerifiedAt   *time.Time    `json:"phone_verified_at,omitempty" dynamodbav:"phone_verified_at,omitempty"`
	CreatedAt         time.Time     `json:"created" dynamodbav:"created_at"`
	UpdatedAt         time.Time     `json:"updated" dynamodbav:"updated_at"`
}

// Active reports whether the account may sign in.
func (a *Account) Active() bool { return a.Status == StatusActive }

// EmailValue returns the email or "".
func (a *Account) EmailValue() string {
	if a.Email == nil {
		return ""
	}
	return *a.Email
}

// PhoneValue returns the canonical phone or "".
func (a *Account) PhoneValue() string {
	if a.Phone == nil {
		return ""
	}
	return *a.Phone
}

// PublicAccount is the account view returned to clients.
type PublicAccount struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email,omitempty"`
	Phone             string     `json:"phone,omitempty"`
	Role              Role       `json:"role"`
	EmailVerifiedAt   *time.Time `json:"emailVerified,omitempty"`
	PhoneVerifiedAt   *time.Time `json:"phoneVerified,omitempty"`
	Address           string     `json:"address,omitempty"`
	District          string     `json:"district,omitempty"`
	ServiceCategories []string   `json:"serviceCategories,omitempty"`
}

// Public strips credentials and internal fields.
func (a *Account) Public() *PublicAccount {
	if a == nil {
		return nil
	}
	return &PublicAccount{
		ID:                a.AccountID,
		Name:              a.Name,
		Email:             a.EmailValue(),
		Phone:             a.PhoneValue(),
		Role:              a.Role,
		EmailVerifiedAt:   a.EmailVerifiedAt,
		PhoneVerifiedAt:   a.PhoneVerifiedAt,
		Address:           a.Address,
		District:          a.District,
		ServiceCategories: a.ServiceCategories,
	}
}
