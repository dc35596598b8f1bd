package models

// User is the onboarding record for a local user, keyed by the federated
// auth subject. The three Plaid fields start out empty: signup creates the
// record, the onboarding workflow fills them in.
type User struct {
	FirebaseID       string `bson:"firebase_id" json:"firebase_id"`
	Email            string `bson:"email" json:"email"`
	UserToken        string `bson:"user_token" json:"-"`
	PlaidAccessToken string `bson:"plaid_access_token" json:"-"`
	PlaidItemID      string `bson:"plaid_item_id" json:"plaid_item_id"`
}

// UserUpdate is a partial update; nil fields are left untouched.
type UserUpdate struct {
	UserToken        *string `bson:"user_token,omitempty"`
	PlaidAccessToken *string `bson:"plaid_access_token,omitempty"`
	PlaidItemID      *string `bson:"plaid_item_id,omitempty"`
}

// IncomeDecision is the outcome of an income check. A rejection is a
// successful evaluation, not an error.
type IncomeDecision struct {
	Approved  bool    `json:"approved"`
	Income    float64 `json:"income"`
	Threshold float64 `json:"threshold"`
}
