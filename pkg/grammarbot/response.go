package grammarbot

// Response is a typed representation of the JSON response.
type Response struct {
	Software Software `json:"software"`
	Warnings Warnings `json:"warnings"`
	Language Language `json:"language"`
	Matches  []Match  `json:"matches"`
}

// HasIssues reports whether the checked text has at least one match.
func (r *Response) HasIssues() bool {
	return r != nil && len(r.Matches) > 0
}

type Software struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	APIVersion  int    `json:"apiVersion"`
	Premium     bool   `json:"premium"`
	PremiumHint string `json:"premiumHint"`
	Status      string `json:"status"`
}

type Warnings struct {
	IncompleteResults bool `json:"incompleteResults"`
}

type Language struct {
	Name             string           `json:"name"`
	Code             string           `json:"code"`
	DetectedLanguage DetectedLanguage `json:"detectedLanguage"`
}

type DetectedLanguage struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// Match is a single issue found in the checked text.
type Match struct {
	Message      string        `json:"message"`
	ShortMessage string        `json:"shortMessage"`
	Replacements []Replacement `json:"replacements"`
	// Offset and Length locate the issue in UTF-16 code units.
	Offset   int     `json:"offset"`
	Length   int     `json:"length"`
	Context  Context `json:"context"`
	Sentence string  `json:"sentence"`
	Type     Type    `json:"type"`
	Rule     Rule    `json:"rule"`
}

// Replacement returns the first suggested replacement.
func (m Match) Replacement() (string, bool) {
	if len(m.Replacements) == 0 {
		return "", false
	}

	return m.Replacements[0].Value, true
}

type Replacement struct {
	Value string `json:"value"`
}

// Context is the excerpt of text surrounding a match.
type Context struct {
	Text   string `json:"text"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
}

type Type struct {
	TypeName string `json:"typeName"`
}

type Rule struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	IssueType   string   `json:"issueType"`
	Category    Category `json:"category"`
}

type Category struct {
	// ID of the category, such as "TYPOS".
	ID string `json:"id"`
	// Name of the category, such as "Possible Typo".
	Name string `json:"name"`
}
