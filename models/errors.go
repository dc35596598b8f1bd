package models

import "fmt"

// UnknownUserError means no onboarding record exists for the presented
// firebase id.
type UnknownUserError struct {
	FirebaseID string
}

func (e *UnknownUserError) Error() string {
	return fmt.Sprintf("no user found for firebase id %s", e.FirebaseID)
}

// AccountNotLinkedError means the user has no access token yet, so income
// data cannot be fetched. Client-correctable: run the link flow first.
type AccountNotLinkedError struct {
	FirebaseID string
}

func (e *AccountNotLinkedError) Error() string {
	return fmt.Sprintf("user %s has not linked a financial account", e.FirebaseID)
}

// ProvisioningError wraps a Plaid failure while creating the per-user
// identity or minting a link token.
type ProvisioningError struct {
	Stage string
	Err   error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("plaid %s failed: %v", e.Stage, e.Err)
}

func (e *ProvisioningError) Unwrap() error { return e.Err }

// ExchangeError wraps a Plaid failure while exchanging a public token.
// Replaying a used public token lands here.
type ExchangeError struct {
	Err error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("plaid public token exchange failed: %v", e.Err)
}

func (e *ExchangeError) Unwrap() error { return e.Err }

// IncomeUnavailableError means Plaid could not produce income data, either
// because the call failed or because the response carried no reporting
// periods.
type IncomeUnavailableError struct {
	Reason string
	Err    error
}

func (e *IncomeUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("income data unavailable: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("income data unavailable: %s", e.Reason)
}

func (e *IncomeUnavailableError) Unwrap() error { return e.Err }

// PersistenceError means the record write failed after Plaid already
// committed a mutation. The Plaid-side state exists but the user record
// does not reflect it; operators need to reconcile.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s after successful plaid call: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
