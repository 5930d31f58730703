package domain

// Content is the union of every per-type field a block can carry.
// All fields are optional; which ones matter depends on the block type.
// Fields belonging to a previous type survive a type change untouched.
type Content struct {
	Text         *string    `json:"text,omitempty" bson:"text,omitempty"`
	HeadingLevel *int       `json:"headingLevel,omitempty" bson:"headingLevel,omitempty"`
	Checked      *bool      `json:"checked,omitempty" bson:"checked,omitempty"`
	URL          *string    `json:"url,omitempty" bson:"url,omitempty"`
	VideoURL     *string    `json:"videoUrl,omitempty" bson:"videoUrl,omitempty"`
	Autoplay     *bool      `json:"autoplay,omitempty" bson:"autoplay,omitempty"`
	Code         *string    `json:"code,omitempty" bson:"code,omitempty"`
	Language     *string    `json:"language,omitempty" bson:"language,omitempty"`
	Table        [][]string `json:"table,omitempty" bson:"table,omitempty"`
}

func Str(s string) *string { return &s }
func Int(i int) *int       { return &i }
func Bool(b bool) *bool    { return &b }

func (c Content) GetText() string {
	if c.Text == nil {
		return ""
	}
	return *c.Text
}

func (c Content) GetHeadingLevel() int {
	if c.HeadingLevel == nil {
		return 0
	}
	return *c.HeadingLevel
}

func (c Content) GetChecked() bool     { return c.Checked != nil && *c.Checked }
func (c Content) GetAutoplay() bool    { return c.Autoplay != nil && *c.Autoplay }
func (c Content) GetURL() string       { return deref(c.URL) }
func (c Content) GetVideoURL() string  { return deref(c.VideoURL) }
func (c Content) GetCode() string      { return deref(c.Code) }
func (c Content) GetLanguage() string  { return deref(c.Language) }
func (c Content) GetTable() [][]string { return CloneGrid(c.Table) }

// Merge returns c with every field set in patch overwritten.
// The merge is shallow: a table in the patch replaces the whole grid.
func (c Content) Merge(patch Content) Content {
	out := c.Clone()
	if patch.Text != nil {
		out.Text = Str(*patch.Text)
	}
	if patch.HeadingLevel != nil {
		out.HeadingLevel = Int(*patch.HeadingLevel)
	}
	if patch.Checked != nil {
		out.Checked = Bool(*patch.Checked)
	}
	if patch.URL != nil {
		out.URL = Str(*patch.URL)
	}
	if patch.VideoURL != nil {
		out.VideoURL = Str(*patch.VideoURL)
	}
	if patch.Autoplay != nil {
		out.Autoplay = Bool(*patch.Autoplay)
	}
	if patch.Code != nil {
		out.Code = Str(*patch.Code)
	}
	if patch.Language != nil {
		out.Language = Str(*patch.Language)
	}
	if patch.Table != nil {
		out.Table = CloneGrid(patch.Table)
	}
	return out
}

// Clone copies every pointer and the table grid.
func (c Content) Clone() Content {
	out := Content{Table: CloneGrid(c.Table)}
	if c.Text != nil {
		out.Text = Str(*c.Text)
	}
	if c.HeadingLevel != nil {
		out.HeadingLevel = Int(*c.HeadingLevel)
	}
	if c.Checked != nil {
		out.Checked = Bool(*c.Checked)
	}
	if c.URL != nil {
		out.URL = Str(*c.URL)
	}
	if c.VideoURL != nil {
		out.VideoURL = Str(*c.VideoURL)
	}
	if c.Autoplay != nil {
		out.Autoplay = Bool(*c.Autoplay)
	}
	if c.Code != nil {
		out.Code = Str(*c.Code)
	}
	if c.Language != nil {
		out.Language = Str(*c.Language)
	}
	return out
}

// IsEmpty reports whether no field is set.
func (c Content) IsEmpty() bool {
	return c.Text == nil && c.HeadingLevel == nil && c.Checked == nil &&
		c.URL == nil && c.VideoURL == nil && c.Autoplay == nil &&
		c.Code == nil && c.Language == nil && c.Table == nil
}

// CloneGrid deep-copies a table grid. A nil grid stays nil.
func CloneGrid(grid [][]string) [][]string {
	if grid == nil {
		return nil
	}
	out := make([][]string, len(grid))
	for i, row := range grid {
		out[i] = append([]string(nil), row...)
		if out[i] == nil {
			out[i] = []string{}
		}
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
