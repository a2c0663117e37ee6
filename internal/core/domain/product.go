package domain

// Product is a read-only snapshot of a catalog record. Prices are whole
// currency units, never fractional.
type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	UnitPrice   int64  `json:"unitPrice"`
	Category    string `json:"category"`
	ImageRef    string `json:"imageRef"`
	Description string `json:"description"`
}
