package domain

import "time"

// DateRange bounds a query on the item's email date, inclusive
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ItemQuery is the structured form of a free-text dashboard question
type ItemQuery struct {
	Categories []string
	Priority   string
	DateRange  *DateRange
	Keywords   []string
	Negations  []string
	Limit      int
}

// ReceiptQuery narrows the spend calculation
type ReceiptQuery struct {
	ReceiptCategory string
	Vendor          string
	DateRange       DateRange
	Negations       []string
	Limit           int
}

// ItemCard is the compact representation chat answers carry
type ItemCard struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Kind     string `json:"kind"`
}

// QueryResponse answers a lookup question
type QueryResponse struct {
	Kind    string     `json:"kind"`
	Message string     `json:"message"`
	Items   []ItemCard `json:"items"`
}

// CalcResponse answers a spend question
type CalcResponse struct {
	Kind     string     `json:"kind"`
	Message  string     `json:"message"`
	Total    string     `json:"total"`
	Currency string     `json:"currency"`
	Receipts []ItemCard `json:"receipts"`
}
