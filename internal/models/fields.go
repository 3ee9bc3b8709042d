// Backline - Concert Booking and Venue Contact Reconciliation
// Copyright 2026 Backline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/backlinehq/backline

package models

// FieldName identifies one of the recognized intake form fields.
// The set is fixed: submissions carrying any other field name are rejected.
type FieldName string

const (
	FieldIdentity FieldName = "identity"
	FieldRole     FieldName = "role"
	FieldAddress  FieldName = "address"
	FieldVenue    FieldName = "venue"
	FieldTaxID    FieldName = "tax_id"
	FieldVATID    FieldName = "vat_id"
	FieldEmail    FieldName = "email"
	FieldPhone    FieldName = "phone"
	FieldWebsite  FieldName = "website"
)

// knownFields is ordered the way the form presents them.
var knownFields = []FieldName{
	FieldIdentity,
	FieldRole,
	FieldAddress,
	FieldVenue,
	FieldTaxID,
	FieldVATID,
	FieldEmail,
	FieldPhone,
	FieldWebsite,
}

// KnownFields returns the recognized field names in presentation order.
// The returned slice is a copy and safe to modify.
func KnownFields() []FieldName {
	out := make([]FieldName, len(knownFields))
	copy(out, knownFields)
	return out
}

// IsKnownField reports whether f is one of the recognized field names.
func IsKnownField(f FieldName) bool {
	for _, k := range knownFields {
		if f == k {
			return true
		}
	}
	return false
}

// CopyFields returns a shallow copy of a field map, dropping empty values.
func CopyFields(in map[FieldName]string) map[FieldName]string {
	out := make(map[FieldName]string, len(in))
	for k, v := range in {
		if v != "" {
			out[k] = v
		}
	}
	return out
}
