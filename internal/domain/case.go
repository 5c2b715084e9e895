package domain

// Severity values used by the handover eligibility policy.
const (
	SeverityA = "A"
	SeverityB = "B"
)

// Case is an immutable catalog entry describing a support case that may be
// handed over to another engineer.
type Case struct {
	CaseNumber      string `json:"caseNumber"`
	Severity        string `json:"severity"`
	Is247           bool   `json:"is247"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Vertical        string `json:"vertical"`
	SAP             string `json:"sap"`
	SendingEngineer string `json:"sendingEngineer"`
	TAReviewer      string `json:"taReviewer"`
}

// HandoverEligible reports whether the case qualifies for handover.
// A case qualifies when it is severity A or has 24/7 coverage.
func (c Case) HandoverEligible() bool {
	return c.Severity == SeverityA || c.Is247
}

// IneligibilityReasons lists every failing eligibility condition. Empty for
// eligible cases.
func (c Case) IneligibilityReasons() []string {
	if c.HandoverEligible() {
		return nil
	}
	reasons := []string{}
	if c.Severity != SeverityA {
		reasons = append(reasons, "severity is not A")
	}
	if !c.Is247 {
		reasons = append(reasons, "case is not 24/7")
	}
	return reasons
}
