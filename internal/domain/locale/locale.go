package locale

import "strings"

// Code identifies a supported user-facing language.
type Code string

const (
	English   Code = "en"
	Malayalam Code = "ml"
	Hindi     Code = "hi"

	Default = English
)

var supported = map[Code]string{
	English:   "English",
	Malayalam: "Malayalam",
	Hindi:     "Hindi",
}

// Parse resolves a raw language tag to a supported code. Region subtags are
// ignored ("ml-IN" resolves to Malayalam); unknown tags fall back to Default.
func Parse(raw string) Code {
	tag := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.IndexAny(tag, "-_"); i > 0 {
		tag = tag[:i]
	}
	code := Code(tag)
	if _, ok := supported[code]; ok {
		return code
	}
	return Default
}

// IsSupported reports whether raw names a recognized language.
func IsSupported(raw string) bool {
	_, ok := supported[Code(strings.ToLower(strings.TrimSpace(raw)))]
	return ok
}

// Toggle flips between English and Malayalam. Any other locale returns to English.
func Toggle(current Code) Code {
	if current == English {
		return Malayalam
	}
	return English
}

// Name returns the English name of the language.
func (c Code) Name() string {
	if name, ok := supported[c]; ok {
		return name
	}
	return supported[Default]
}

// Directive returns the bracketed instruction appended to generative prompts so
// the model answers in the user's language. English needs none.
func Directive(c Code) string {
	if c == English || c == "" {
		return ""
	}
	return "[Respond in " + c.Name() + "]"
}

// WithDirective appends the language directive to prompt.
func WithDirective(prompt string, c Code) string {
	directive := Directive(c)
	if directive == "" {
		return prompt
	}
	return strings.TrimRight(prompt, " \n") + "\n\n" + directive
}
