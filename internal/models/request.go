package models

import (
	"regexp"
	"time"
)

// RequestStatus is the approval state of a discount request.
type RequestStatus string

const (
	StatusPendingL1 RequestStatus = "PENDING_L1"
	StatusPendingL2 RequestStatus = "PENDING_L2"
	StatusApproved  RequestStatus = "APPROVED"
	StatusRejected  RequestStatus = "REJECTED"
)

// Terminal reports whether no further transition is possible.
func (s RequestStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

var enquiryNoPattern = regexp.MustCompile(`^EN\d{9}$`)

// ValidEnquiryNo reports whether the value is "EN" followed by exactly nine
// digits.
func ValidEnquiryNo(enquiryNo string) bool {
	return enquiryNoPattern.MatchString(enquiryNo)
}

// DiscountRequest is the central workflow entity. Pricing fields are a
// snapshot taken at submission time; the approver audit columns are filled as
// the request moves through the chain.
type DiscountRequest struct {
	ID                 string        `db:"id" json:"id"`
	EnquiryNo          string        `db:"enquiry_no" json:"enquiry_no"`
	StudentName        string        `db:"student_name" json:"student_name"`
	MobileNo           string        `db:"mobile_no" json:"mobile_no"`
	BranchName         string        `db:"branch_name" json:"branch_name"`
	CardName           string        `db:"card_name" json:"card_name"`
	MRP                float64       `db:"mrp" json:"mrp"`
	Installment        float64       `db:"installment" json:"installment"`
	DiscountAmount     float64       `db:"discount_amount" json:"discount_amount"`
	DiscountPercentage float64       `db:"discount_percentage" json:"discount_percentage"`
	Reason             string        `db:"reason" json:"reason"`
	Remarks            string        `db:"remarks" json:"remarks"`
	RequesterEmail     string        `db:"requester_email" json:"requester_email"`
	RequesterName      string        `db:"requester_name" json:"requester_name"`
	Status             RequestStatus `db:"status" json:"status"`
	DiscountedFees     *float64      `db:"discounted_fees" json:"discounted_fees,omitempty"`
	NetDiscount        *float64      `db:"net_discount" json:"net_discount,omitempty"`
	L1Approver         *string       `db:"l1_approver" json:"l1_approver,omitempty"`
	L1ApprovedAt       *time.Time    `db:"l1_approved_at" json:"l1_approved_at,omitempty"`
	L1Comments         *string       `db:"l1_comments" json:"l1_comments,omitempty"`
	L2Approver         *string       `db:"l2_approver" json:"l2_approver,omitempty"`
	L2ApprovedAt       *time.Time    `db:"l2_approved_at" json:"l2_approved_at,omitempty"`
	L2Comments         *string       `db:"l2_comments" json:"l2_comments,omitempty"`
	CreatedAt          time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time     `db:"updated_at" json:"updated_at"`
}

// DashboardSummary aggregates request counts plus the most recent activity.
// The invariant Total == Pending + Approved + Rejected holds for every
// computation.
type DashboardSummary struct {
	Total    int               `json:"total"`
	Pending  int               `json:"pending"`
	Approved int               `json:"approved"`
	Rejected int               `json:"rejected"`
	Recent   []DiscountRequest `json:"recent"`
}
