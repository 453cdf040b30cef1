package classifier

import (
	"regexp"
	"strings"
	"time"

	"EventPulse/internal/domain/models"
	"EventPulse/pkg/util"
)

const (
	materialEventGeneral = "Material Event (General)"
	materialEventPrefix  = "Material Event: "
)

var formLabels = map[string]string{
	"4":       "Insider Trading",
	"5":       "Insider Trading (Annual)",
	"144":     "Intent to Sell Stock",
	"10-Q":    "Quarterly Financial Report",
	"10-K":    "Annual Financial Report",
	"8-K":     "Material Event Report",
	"S-1":     "Registration Statement (IPO)",
	"S-3":     "Registration Statement (Secondary)",
	"S-4":     "Registration Statement (Merger/Exchange)",
	"S-8":     "Employee Stock Plan",
	"SC 13G":  "Passive Ownership Change",
	"SC 13D":  "Active Ownership Change",
	"DEFA14A": "Proxy Solicitation",
	"DEF 14A": "Official Proxy Statement",
}

type itemLabel struct {
	item  string
	label string
}

// 8-K items in priority order; the first present in a description wins.
var itemPriority = []itemLabel{
	{"2.02", "Earnings Release"},
	{"5.02", "Leadership/Director Change"},
	{"1.01", "Agreement"},
	{"1.03", "Bankruptcy"},
	{"4.02", "Non-Reliance on Financials"},
	{"2.01", "Acquisition/Disposition"},
	{"1.02", "Agreement Termination"},
	{"2.03", "Financial Obligation"},
	{"3.02", "Unregistered Equity Sale"},
	{"4.01", "Auditor Change"},
	{"5.03", "Bylaw Amendment"},
	{"5.07", "Shareholder Vote"},
	{"7.01", "Regulation FD Disclosure"},
	{"8.01", "Other Events"},
}

var (
	itemRe = regexp.MustCompile(`(?i)\bitems?\s*(\d\.\d{2}(?:\s*(?:,|and|&)\s*\d\.\d{2})*)`)
	codeRe = regexp.MustCompile(`\d\.\d{2}`)
)

// DefaultExclusions are the routine disclosures removed before reaction work.
func DefaultExclusions() []string {
	return []string{"Insider Trading", "Insider Trading (Annual)", "Employee Stock Plan"}
}

// Classifier maps raw filings onto category labels and applies exclusions.
type Classifier struct {
	excluded map[string]struct{}
}

// New builds a Classifier. A nil exclusion list uses DefaultExclusions; an empty
// non-nil list excludes nothing.
func New(exclusions []string) *Classifier {
	if exclusions == nil {
		exclusions = DefaultExclusions()
	}
	m := make(map[string]struct{}, len(exclusions))
	for _, e := range exclusions {
		m[e] = struct{}{}
	}
	return &Classifier{excluded: m}
}

// Classify returns the category label for a form code and optional description.
func (c *Classifier) Classify(formCode, description string) string {
	return c.classify(formCode, description, nil)
}

// ClassifyFiling is Classify with the filing's reported 8-K items taken into account.
// Items and "Item N.NN" mentions in the description share one priority list.
func (c *Classifier) ClassifyFiling(f models.RawFiling) string {
	return c.classify(f.FormCode, f.Description, f.Items)
}

func (c *Classifier) classify(formCode, description string, items []string) string {
	code := strings.TrimSpace(formCode)
	if strings.EqualFold(code, "8-K") {
		return classify8K(description, items)
	}
	if l, ok := formLabels[code]; ok {
		return l
	}
	return "Other (" + code + ")"
}

func classify8K(description string, items []string) string {
	present := make(map[string]struct{})
	for _, it := range items {
		if code := codeRe.FindString(it); code != "" {
			present[code] = struct{}{}
		}
	}
	for _, m := range itemRe.FindAllStringSubmatch(description, -1) {
		for _, code := range codeRe.FindAllString(m[1], -1) {
			present[code] = struct{}{}
		}
	}
	for _, it := range itemPriority {
		if _, ok := present[it.item]; ok {
			return materialEventPrefix + it.label
		}
	}
	return materialEventGeneral
}

// IsExcluded reports whether category is in the exclusion set.
func (c *Classifier) IsExcluded(category string) bool {
	_, ok := c.excluded[category]
	return ok
}

// ToEvents turns raw filings into events dated within [from, to], dropping excluded
// categories. Zero bounds are open. A filing date that cannot be parsed is a
// *models.MalformedDataError.
func (c *Classifier) ToEvents(filings []models.RawFiling, from, to time.Time) ([]models.EventRecord, error) {
	if !from.IsZero() {
		from = util.TruncateDay(from)
	}
	if !to.IsZero() {
		to = util.TruncateDay(to)
	}
	out := make([]models.EventRecord, 0, len(filings))
	for i, f := range filings {
		date, err := time.Parse(util.DateLayout, strings.TrimSpace(f.FilingDate))
		if err != nil {
			return nil, &models.MalformedDataError{Source: "filing", Field: "filing_date", Index: i, Value: f.FilingDate, Err: err}
		}
		if !from.IsZero() && date.Before(from) {
			continue
		}
		if !to.IsZero() && date.After(to) {
			continue
		}
		category := c.ClassifyFiling(f)
		if c.IsExcluded(category) {
			continue
		}
		desc := f.Description
		if desc == "" {
			desc = f.FormCode
		}
		out = append(out, models.EventRecord{
			Date:        date,
			Category:    category,
			Description: desc,
			FormCode:    f.FormCode,
		})
	}
	return out, nil
}
