package models

import (
	"strings"
	"time"
)

// ApproverLevel identifies a person's place in the approval chain.
type ApproverLevel string

const (
	LevelNone ApproverLevel = "NONE"
	LevelL1   ApproverLevel = "L1"
	LevelL2   ApproverLevel = "L2"
)

// AllBranches is the sentinel scope granting access to every branch.
const AllBranches = "All"

// Person represents a row in the authorized_persons table. Branch scope is
// stored as a comma-separated list so that approver coverage stays data, not
// code.
type Person struct {
	ID            string        `db:"id" json:"id"`
	Email         string        `db:"email" json:"email"`
	FullName      string        `db:"full_name" json:"full_name"`
	PasswordHash  string        `db:"password_hash" json:"-"`
	BranchScope   string        `db:"branch_scope" json:"branch_scope"`
	ApproverLevel ApproverLevel `db:"approver_level" json:"approver_level"`
	CanRequest    bool          `db:"can_request_discount" json:"can_request_discount"`
	Active        bool          `db:"active" json:"active"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// Branches returns the parsed branch scope list.
func (p *Person) Branches() []string {
	parts := strings.Split(p.BranchScope, ",")
	branches := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			branches = append(branches, trimmed)
		}
	}
	return branches
}

// ScopeIncludes reports whether the person may act on the given branch.
func (p *Person) ScopeIncludes(branch string) bool {
	for _, scoped := range p.Branches() {
		if scoped == AllBranches || strings.EqualFold(scoped, branch) {
			return true
		}
	}
	return false
}

// IsApprover reports whether the person holds any approval authority.
func (p *Person) IsApprover() bool {
	return p.ApproverLevel == LevelL1 || p.ApproverLevel == LevelL2
}
