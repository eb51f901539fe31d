// Package classify guesses the kind of document a text was recognized from.
//
// Each category scores two points per keyword found in the text plus fixed
// bonuses for characteristic phrases. The highest score wins; weak evidence
// yields Other.
package classify

import (
	"regexp"
	"strings"
)

// DocType is the guessed document category.
type DocType string

const (
	Receipt  DocType = "Receipt"
	Invoice  DocType = "Invoice"
	Contract DocType = "Contract"
	ID       DocType = "ID"
	Other    DocType = "Other"
)

// Tier is a coarse confidence bucket for a classification.
type Tier string

const (
	Low    Tier = "Low"
	Medium Tier = "Medium"
	High   Tier = "High"
)

// Score thresholds.
const (
	minScore    = 4
	mediumScore = 7
	highScore   = 10
)

// Result is the outcome of Classify.
type Result struct {
	Type       DocType `json:"type"`
	Confidence Tier    `json:"confidence"`
}

// Bonus adds Points when Pattern matches the lower-cased text.
type Bonus struct {
	Pattern *regexp.Regexp
	Points  int
}

// Category describes how one document type is scored.
type Category struct {
	Type     DocType
	Keywords []string
	Bonuses  []Bonus
}

var (
	moneyCue      = regexp.MustCompile(`(\$|฿|บาท|usd|thb|total|subtotal|tax|vat)`)
	invoiceNumber = regexp.MustCompile(`(invoice\s*(no|#|number)|inv\s*(no|#))`)
	receiptPhrase = regexp.MustCompile(`(receipt|thank you for your purchase|cashier)`)
	contractTerms = regexp.MustCompile(`(agreement|party\s*a|party\s*b|hereby|terms and conditions|witnesseth|governing law|signature)`)
	identityTerms = regexp.MustCompile(`(national id|id no|passport|date of birth|dob|expiry|issued|sex|height)`)
)

// Categories lists the scored types in tie-break priority order.
var Categories = []Category{
	{
		Type:     Receipt,
		Keywords: []string{"receipt", "cashier", "change", "store", "branch"},
		Bonuses:  []Bonus{{moneyCue, 2}, {receiptPhrase, 4}},
	},
	{
		Type:     Invoice,
		Keywords: []string{"invoice", "bill to", "ship to", "due date", "terms", "purchase order"},
		Bonuses:  []Bonus{{invoiceNumber, 5}, {moneyCue, 2}},
	},
	{
		Type:     Contract,
		Keywords: []string{"agreement", "hereby", "whereas", "liability", "indemnify", "governing law", "jurisdiction", "signature"},
		Bonuses:  []Bonus{{contractTerms, 6}},
	},
	{
		Type:     ID,
		Keywords: []string{"passport", "national", "identity", "citizen", "dob", "date of birth", "expiry", "issued"},
		Bonuses:  []Bonus{{identityTerms, 6}},
	},
}

// Score is the evidence collected for one category.
type Score struct {
	Type  DocType `json:"type"`
	Score int     `json:"score"`
}

// Scores returns the score of every category in Categories order.
func Scores(raw string) []Score {
	text := strings.ToLower(raw)
	scores := make([]Score, len(Categories))
	for i, c := range Categories {
		s := 0
		for _, k := range c.Keywords {
			if strings.Contains(text, k) {
				s += 2
			}
		}
		for _, b := range c.Bonuses {
			if b.Pattern.MatchString(text) {
				s += b.Points
			}
		}
		scores[i] = Score{Type: c.Type, Score: s}
	}
	return scores
}

// Classify returns the best scoring category and its confidence tier. Ties go
// to the category listed first in Categories.
func Classify(raw string) Result {
	scores := Scores(raw)
	if len(scores) == 0 {
		return Result{Type: Other, Confidence: Low}
	}
	best := scores[0]
	for _, s := range scores[1:] {
		if s.Score > best.Score {
			best = s
		}
	}
	return Result{Type: typeFor(best), Confidence: TierFor(best.Score)}
}

func typeFor(s Score) DocType {
	if s.Score < minScore {
		return Other
	}
	return s.Type
}

// TierFor maps a winning score to its confidence tier.
func TierFor(score int) Tier {
	switch {
	case score >= highScore:
		return High
	case score >= mediumScore:
		return Medium
	default:
		return Low
	}
}
