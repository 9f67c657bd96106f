package newsapi

// --- /v2/everything ---

type everythingResponse struct {
	Status       string    `json:"status"`
	TotalResults int       `json:"totalResults"`
	Articles     []article `json:"articles"`

	// Set when status is "error".
	Code    string `json:"code"`
	Message string `json:"message"`
}

type article struct {
	Source      articleSource `json:"source"`
	Author      *string       `json:"author"`
	Title       *string       `json:"title"`
	Description *string       `json:"description"`
	URL         string        `json:"url"`
	URLToImage  *string       `json:"urlToImage"`
	PublishedAt string        `json:"publishedAt"`
	Content     *string       `json:"content"`
}

type articleSource struct {
	ID   *string `json:"id"`
	Name string  `json:"name"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
