package domain

// Command is a slash-command palette entry. HeadingLevel is 0 unless the
// command targets a heading.
type Command struct {
	ID           string    `json:"id"`
	Label        string    `json:"label"`
	TargetType   BlockType `json:"targetType"`
	HeadingLevel int       `json:"headingLevel,omitempty"`
	Description  string    `json:"description"`
}
