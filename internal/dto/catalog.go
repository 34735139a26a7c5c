package dto

// PricingResponse echoes authoritative pricing for a branch and card. Both
// fields are null when the combination is unknown.
type PricingResponse struct {
	MRP         *float64 `json:"mrp"`
	Installment *float64 `json:"installment"`
}
