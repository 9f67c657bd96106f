package gnews

import (
	"encoding/json"
	"sort"
	"strings"
)

// --- /api/v4/search ---

type searchResponse struct {
	TotalArticles int       `json:"totalArticles"`
	Articles      []article `json:"articles"`
	Errors        json.RawMessage `json:"errors"` // array or object of messages
}

type article struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Content     string        `json:"content"`
	URL         string        `json:"url"`
	Image       string        `json:"image"`
	PublishedAt string        `json:"publishedAt"`
	Source      articleSource `json:"source"`
}

type articleSource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// errorText flattens the errors field, which GNews sends either as a list of
// strings or as an object keyed by parameter.
func (r searchResponse) errorText() string {
	if len(r.Errors) == 0 || string(r.Errors) == "null" {
		return ""
	}
	var list []string
	if err := json.Unmarshal(r.Errors, &list); err == nil {
		return strings.Join(list, "; ")
	}
	var byKey map[string]string
	if err := json.Unmarshal(r.Errors, &byKey); err == nil {
		keys := make([]string, 0, len(byKey))
		for k := range byKey {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + byKey[k]
		}
		return strings.Join(parts, "; ")
	}
	return string(r.Errors)
}
