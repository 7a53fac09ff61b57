package review

import (
	"path/filepath"
	"strings"

	"github.com/go-enry/go-enry/v2"
)

// Language identifies the language of a submission. ID is the editor's
// language id and doubles as the markdown fence tag.
type Language struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// editorLanguages maps editor language ids to display names.
var editorLanguages = map[string]string{
	"javascript": "JavaScript",
	"typescript": "TypeScript",
	"python":     "Python",
	"java":       "Java",
	"cpp":        "C++",
	"c":          "C",
	"csharp":     "C#",
	"go":         "Go",
	"rust":       "Rust",
	"ruby":       "Ruby",
	"php":        "PHP",
	"kotlin":     "Kotlin",
	"swift":      "Swift",
	"scala":      "Scala",
	"shell":      "Shell",
	"sql":        "SQL",
	"html":       "HTML",
	"css":        "CSS",
}

// editorIDs is the reverse of editorLanguages, keyed by enry's names.
var editorIDs = func() map[string]string {
	m := make(map[string]string, len(editorLanguages))
	for id, name := range editorLanguages {
		m[name] = id
	}
	return m
}()

// ResolveLanguage returns the language for a submission. A known editor id
// wins; an unknown id is kept as given; a blank id is detected from filename
// and code. Detection may come back empty.
func ResolveLanguage(id, filename, code string) Language {
	id = strings.TrimSpace(id)
	if id != "" {
		key := strings.ToLower(id)
		if name, ok := editorLanguages[key]; ok {
			return Language{ID: key, Name: name}
		}
		return Language{ID: key, Name: id}
	}

	var base string
	if filename != "" {
		base = filepath.Base(filename)
	}
	name := enry.GetLanguage(base, []byte(code))
	if name == "" {
		return Language{}
	}
	if known, ok := editorIDs[name]; ok {
		return Language{ID: known, Name: name}
	}
	return Language{ID: strings.ToLower(strings.ReplaceAll(name, " ", "-")), Name: name}
}

// EditorLanguages returns the editor ids critic knows by name.
func EditorLanguages() map[string]string {
	out := make(map[string]string, len(editorLanguages))
	for k, v := range editorLanguages {
		out[k] = v
	}
	return out
}
