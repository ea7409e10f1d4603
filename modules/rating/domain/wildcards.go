package domain

// Wildcard sentinels used by the reference tables. These are real values in
// the data, not nulls: a null account never matches, AcctAny matches every
// account. Keep the distinction when writing predicates.
const (
	// AcctAny marks a matrix or rule row open to every account.
	AcctAny = "0"
	// CountryAny marks a rule row applying to every destination country.
	CountryAny = "ZZ"
	// FormatAny marks a matrix row accepting every mail format.
	FormatAny = "ALL"
)

// MailTypeParcelLegacy is a historical alias still present on old matrix
// rows; it must be treated as equal to MailTypeParcel on the shipment side.
const (
	MailTypeParcel       = "PB"
	MailTypeParcelLegacy = "PM"
)

// LbPerKg converts reference-table kilogram bounds to the pound weights
// shipments are recorded in.
const LbPerKg = 2.2046
