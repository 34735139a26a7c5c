package dto

// SubmitRequest is the discount submission payload. MRP and installment are
// the values the client saw on the form; they are cross-checked against the
// authoritative course row server-side.
type SubmitRequest struct {
	EnquiryNo      string  `json:"enquiry_no" validate:"required"`
	StudentName    string  `json:"student_name" validate:"required"`
	MobileNo       string  `json:"mobile_no" validate:"required"`
	BranchName     string  `json:"branch_name" validate:"required"`
	CardName       string  `json:"card_name" validate:"required"`
	MRP            float64 `json:"mrp" validate:"required,gt=0"`
	Installment    float64 `json:"installment" validate:"required,gt=0"`
	DiscountAmount float64 `json:"discount_amount" validate:"required,gt=0"`
	Reason         string  `json:"reason" validate:"required"`
	Remarks        string  `json:"remarks"`
}

// Decision actions accepted by the approval endpoint.
const (
	ActionApprove = "APPROVE"
	ActionReject  = "REJECT"
)

// DecisionRequest is the approve/reject payload for a pending request.
type DecisionRequest struct {
	Action         string  `json:"action" validate:"required,oneof=APPROVE REJECT"`
	ApprovedAmount float64 `json:"approved_amount"`
	Comments       string  `json:"comments"`
}
