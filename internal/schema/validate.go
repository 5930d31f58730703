package schema

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"blockpad/internal/domain"
)

const maxTitleLength = 255

// Languages is the set offered by the code block language selector.
var Languages = []string{"javascript", "typescript", "python", "html", "css", "json", "sql"}

// ValidateTitle trims the title and rejects it when nothing is left.
func ValidateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	err := validation.Validate(title,
		validation.Required.Error("title is required"),
		validation.RuneLength(1, maxTitleLength),
	)
	if err != nil {
		return "", &domain.ValidationError{Field: "title", Err: err}
	}
	return title, nil
}

func ValidateHeadingLevel(level int) error {
	err := validation.Validate(level,
		validation.Required.Error("heading level is required"),
		validation.Min(1),
		validation.Max(3),
	)
	if err != nil {
		return &domain.ValidationError{Field: "headingLevel", Err: err}
	}
	return nil
}

func ValidateCodeLanguage(lang string) error {
	in := make([]any, len(Languages))
	for i, l := range Languages {
		in[i] = l
	}
	err := validation.Validate(lang,
		validation.Required,
		validation.In(in...).Error("unsupported language"),
	)
	if err != nil {
		return &domain.ValidationError{Field: "language", Err: err}
	}
	return nil
}

// ValidateType rejects block types outside the known set.
func ValidateType(t domain.BlockType) error {
	if !t.Valid() {
		return &domain.ValidationError{Field: "type", Err: validation.NewError("unknown_type", "unknown block type "+string(t))}
	}
	return nil
}

// EmbedURL rewrites YouTube watch and short links into their embeddable form.
// Other URLs are returned as given.
func EmbedURL(videoURL string) string {
	if strings.Contains(videoURL, "youtube.com/watch?v=") {
		id := videoURL[strings.Index(videoURL, "v=")+2:]
		if i := strings.Index(id, "&"); i >= 0 {
			id = id[:i]
		}
		return "https://www.youtube.com/embed/" + id
	}
	if strings.Contains(videoURL, "youtu.be/") {
		id := videoURL[strings.Index(videoURL, "youtu.be/")+len("youtu.be/"):]
		if i := strings.Index(id, "?"); i >= 0 {
			id = id[:i]
		}
		return "https://www.youtube.com/embed/" + id
	}
	return videoURL
}

// ValidateContent checks every field that is set in c.
func ValidateContent(c domain.Content) error {
	if c.HeadingLevel != nil {
		if err := ValidateHeadingLevel(*c.HeadingLevel); err != nil {
			return err
		}
	}
	if c.Language != nil {
		if err := ValidateCodeLanguage(*c.Language); err != nil {
			return err
		}
	}
	if c.Table != nil {
		if err := ValidateTable(c.Table); err != nil {
			return err
		}
	}
	return nil
}
