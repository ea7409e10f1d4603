package domain

// RatesRevisedEvent is published after an increase run computes its revised
// rates. Persisting the revision is a subscriber concern: a failing audit
// write is logged by the subscriber and never invalidates the computed
// response.
type RatesRevisedEvent struct {
	QuoteNum string
	CustNo   string
	Rates    []ActiveRate
}
