package services

import (
	"sort"
	"strings"
	"sync"

	"bert-gateway/models"
)

// Language binds a language name to its dialect, worker and function catalog
type Language struct {
	Name        string
	DisplayName string
	Dialect     Dialect
	Worker      Worker
	Preamble    string
	Functions   []models.FunctionInfo
}

// Registry routes calls to the Language registered for them
type Registry struct {
	mu        sync.RWMutex
	languages map[string]*Language
}

func NewRegistry() *Registry {
	return &Registry{languages: make(map[string]*Language)}
}

// Register adds or replaces a language. Names are matched case-insensitively.
func (r *Registry) Register(lang *Language) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.languages[strings.ToLower(lang.Name)] = lang
}

// Lookup returns the language whose name equals name, ignoring case
func (r *Registry) Lookup(name string) (*Language, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lang, ok := r.languages[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, newError(KindUnsupportedLanguage, "Unsupported language: %q", name)
	}
	return lang, nil
}

// Names returns the registered language names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.languages))
	for name := range r.languages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Functions lists the catalog of one language, or of all languages when
// language is empty.
func (r *Registry) Functions(language string) ([]models.FunctionInfo, error) {
	if language != "" {
		lang, err := r.Lookup(language)
		if err != nil {
			return nil, err
		}
		return append([]models.FunctionInfo{}, lang.Functions...), nil
	}

	functions := []models.FunctionInfo{}
	for _, name := range r.Names() {
		lang, _ := r.Lookup(name)
		functions = append(functions, lang.Functions...)
	}
	return functions, nil
}

// DefaultCatalog returns the functions advertised for a built-in dialect
func DefaultCatalog(language, dialect string) []models.FunctionInfo {
	fn := func(name, desc string, params []string, returns, example string) models.FunctionInfo {
		return models.FunctionInfo{
			Name:        name,
			Language:    language,
			Description: desc,
			Parameters:  params,
			Returns:     returns,
			Example:     example,
		}
	}

	switch strings.ToLower(dialect) {
	case "r":
		return []models.FunctionInfo{
			fn("sum", "Adds all arguments", []string{"...: number"}, "number", "sum(1, 2, 3, 4, 5) = 15"),
			fn("mean", "Arithmetic mean of a numeric vector", []string{"x: number[]"}, "number", "mean(c(1, 2, 3)) = 2"),
			fn("median", "Median of a numeric vector", []string{"x: number[]"}, "number", ""),
			fn("sd", "Sample standard deviation", []string{"x: number[]"}, "number", ""),
			fn("max", "Largest argument", []string{"...: number"}, "number", ""),
			fn("min", "Smallest argument", []string{"...: number"}, "number", ""),
			fn("paste", "Concatenates arguments as text", []string{"...: any"}, "string", `paste("a", 1) = "a 1"`),
		}
	case "julia":
		return []models.FunctionInfo{
			fn("abs", "Absolute value", []string{"x: number"}, "number", ""),
			fn("max", "Largest argument", []string{"...: number"}, "number", ""),
			fn("min", "Smallest argument", []string{"...: number"}, "number", ""),
			fn("string", "Concatenates arguments as text", []string{"...: any"}, "string", ""),
		}
	case "python":
		return []models.FunctionInfo{
			fn("max", "Largest argument", []string{"...: number"}, "number", "max(1, 5, 3) = 5"),
			fn("min", "Smallest argument", []string{"...: number"}, "number", ""),
			fn("abs", "Absolute value", []string{"x: number"}, "number", ""),
			fn("round", "Rounds to ndigits", []string{"x: number", "ndigits: integer"}, "number", ""),
			fn("str", "Text representation", []string{"x: any"}, "string", ""),
		}
	}
	return nil
}
