// Backline - Concert Booking and Venue Contact Reconciliation
// Copyright 2026 Backline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/backlinehq/backline

package models

import (
	"fmt"
	"time"
)

// FlagState is the tri-state value of a single contract workflow flag.
// Cycling advances Pending -> Validated -> Cancelled -> Pending.
type FlagState string

const (
	FlagPending   FlagState = "pending"
	FlagValidated FlagState = "validated"
	FlagCancelled FlagState = "cancelled"
)

// Next returns the state the flag advances to on one cycle. Unknown states
// reset to Pending.
func (f FlagState) Next() FlagState {
	switch f {
	case FlagPending:
		return FlagValidated
	case FlagValidated:
		return FlagCancelled
	default:
		return FlagPending
	}
}

// ContractFlag names one of the four independent contract workflow flags.
// No ordering is enforced between flags.
type ContractFlag string

const (
	FlagFormCollection ContractFlag = "form_collection"
	FlagContractSent   ContractFlag = "contract_sent"
	FlagContractSigned ContractFlag = "contract_signed"
	FlagInvoiceIssued  ContractFlag = "invoice_issued"
)

var contractFlags = []ContractFlag{
	FlagFormCollection,
	FlagContractSent,
	FlagContractSigned,
	FlagInvoiceIssued,
}

// ContractFlags returns the four flag names in workflow order.
func ContractFlags() []ContractFlag {
	out := make([]ContractFlag, len(contractFlags))
	copy(out, contractFlags)
	return out
}

// IsKnownContractFlag reports whether f names one of the four flags.
func IsKnownContractFlag(f ContractFlag) bool {
	for _, k := range contractFlags {
		if f == k {
			return true
		}
	}
	return false
}

// Contract tracks the paperwork workflow for exactly one booking.
// It is created with the booking and deleted with it.
type Contract struct {
	ID        string                     `json:"id"`
	BookingID string                     `json:"booking_id"`
	Flags     map[ContractFlag]FlagState `json:"flags"`
	CreatedAt time.Time                  `json:"created_at"`
	UpdatedAt time.Time                  `json:"updated_at"`
}

// NewContract returns a contract for bookingID with every flag Pending.
func NewContract(id, bookingID string, now time.Time) *Contract {
	flags := make(map[ContractFlag]FlagState, len(contractFlags))
	for _, f := range contractFlags {
		flags[f] = FlagPending
	}
	return &Contract{
		ID:        id,
		BookingID: bookingID,
		Flags:     flags,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Cycle advances the named flag one step. It returns an error for unknown
// flag names and never touches the other flags.
func (c *Contract) Cycle(flag ContractFlag, now time.Time) error {
	if !IsKnownContractFlag(flag) {
		return fmt.Errorf("unknown contract flag %q", flag)
	}
	if c.Flags == nil {
		c.Flags = make(map[ContractFlag]FlagState, len(contractFlags))
	}
	c.Flags[flag] = c.Flags[flag].Next()
	c.UpdatedAt = now
	return nil
}
