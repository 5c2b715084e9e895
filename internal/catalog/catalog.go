package catalog

import "github.com/aparate/handover/internal/domain"

// CaseCatalog is a read-only lookup of handover-eligible cases. The catalog
// is seeded statically; entries are never mutated.
type CaseCatalog struct {
	cases []domain.Case
	byNum map[string]int
}

// New builds a catalog from the given cases, preserving order.
func New(cases []domain.Case) *CaseCatalog {
	byNum := make(map[string]int, len(cases))
	for i, c := range cases {
		byNum[c.CaseNumber] = i
	}
	return &CaseCatalog{cases: cases, byNum: byNum}
}

// NewSeeded returns the catalog with the standard seed data.
func NewSeeded() *CaseCatalog {
	return New(seedCases())
}

// FindByCaseNumber looks a case up by its unique number.
func (cc *CaseCatalog) FindByCaseNumber(caseNumber string) (domain.Case, bool) {
	idx, ok := cc.byNum[caseNumber]
	if !ok {
		return domain.Case{}, false
	}
	return cc.cases[idx], true
}

// List returns all cases in seeded order. The returned slice is a copy.
func (cc *CaseCatalog) List() []domain.Case {
	out := make([]domain.Case, len(cc.cases))
	copy(out, cc.cases)
	return out
}

func seedCases() []domain.Case {
	return []domain.Case{
		{
			CaseNumber:      "123",
			Severity:        "A",
			Is247:           true,
			Title:           "IPsec Tunnel down and BGP down",
			Description:     "We have our production tunnel down and our BGP routes are withdrawn due to this and causing outage.",
			Vertical:        "Hybrid",
			SAP:             "Azure/VPN Gateway/Connectivity/Site-to-site VPN connectivity issues.",
			SendingEngineer: "Naveed Khan",
			TAReviewer:      "Ravi Kumar",
		},
		{
			CaseNumber:      "456",
			Severity:        "A",
			Is247:           true,
			Title:           "Application Gateway blocking traffic.",
			Description:     "Users are getting 403 forbidden even after allowing Geo WAF rules.",
			Vertical:        "Layer7",
			SAP:             "Azure/Application Gateway/Facing 4xx errors/Other 4xx errors.",
			SendingEngineer: "Harshdeep",
			TAReviewer:      "Ratnavo Dutta",
		},
		{
			CaseNumber:      "789",
			Severity:        "B",
			Is247:           false,
			Title:           "Latency on the application.",
			Description:     "Users are experiencing latency while accessing our application.",
			Vertical:        "Hybrid",
			SAP:             "Azure/ExpressRoute/ExpressRoute Private Peering/Latency on link",
			SendingEngineer: "Rajiv",
			TAReviewer:      "N/A",
		},
	}
}
