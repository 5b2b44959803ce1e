package transport

// Source is a citation returned with an answer.
type Source struct {
	Type  string `json:"type"`
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// AskRequest is the body of POST /ask/.
type AskRequest struct {
	UserADID int64  `json:"user_ad_id"`
	Question string `json:"question"`
}

// AskResponse is the decoded body of a successful POST /ask/.
// ResponseID is nil when the backend did not issue one.
type AskResponse struct {
	Question   string   `json:"question,omitempty"`
	Answer     string   `json:"answer"`
	Sources    []Source `json:"sources"`
	ResponseID *int64   `json:"response_id"`
}

// askWire tells a missing answer apart from an empty one.
type askWire struct {
	Question   string   `json:"question"`
	Answer     *string  `json:"answer"`
	Sources    []Source `json:"sources"`
	ResponseID *int64   `json:"response_id"`
}

// FeedbackRequest is the body of POST /feedback/.
type FeedbackRequest struct {
	ResponseID int64 `json:"response_id"`
	IsValid    bool  `json:"is_valid"`
}

// Stats is the body of GET /glpi/stats.
type Stats struct {
	TicketsCount    int `json:"tickets_count"`
	KBArticlesCount int `json:"kb_articles_count"`
	FAQItemsCount   int `json:"faq_items_count"`
	TotalEntries    int `json:"total_entries"`
}

// Preview kinds accepted by GET /glpi/preview/{kind}.
const (
	PreviewTickets    = "tickets"
	PreviewKBArticles = "kb_articles"
	PreviewFAQ        = "faq"
)

type previewResponse struct {
	Data []map[string]any `json:"data"`
}
