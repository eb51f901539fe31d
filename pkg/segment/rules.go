package segment

// Rule assigns lines containing any of Keywords to the section Heading.
// Keywords are lower-case and matched as substrings.
type Rule struct {
	Heading  string
	Keywords []string
}

// GeneralHeading labels lines that precede the first heading or match no rule.
const GeneralHeading = "General"

// DefaultRules is the keyword table used when a text has no usable headings.
// Order matters: the first matching rule wins and output follows this order.
var DefaultRules = []Rule{
	{Heading: "Contact Info", Keywords: []string{"email", "phone", "tel", "mobile", "address"}},
	{Heading: "Dates", Keywords: []string{"date", "issued", "due", "deadline"}},
	{Heading: "Payment / Amounts", Keywords: []string{"total", "subtotal", "tax", "vat", "amount", "price", "balance"}},
	{Heading: "Company / Organization", Keywords: []string{"company", "ltd", "inc", "co.", "organization"}},
	{Heading: "Terms / Notes", Keywords: []string{"terms", "note", "conditions", "policy"}},
}
