package models

// Proxy is an optional upstream proxy assigned to a task's browser session.
type Proxy struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// TaskDescriptor is the unit of work handed to a task worker. It is immutable
// once submitted and consumed by exactly one worker.
type TaskDescriptor struct {
	URL   string `json:"url"`
	JobID string `json:"job_id"`
	Proxy *Proxy `json:"proxy,omitempty"`
}

// ProductRecord holds the product fields extracted from one detail page.
// Every field degrades to its zero value when the source element is absent.
type ProductRecord struct {
	ProductCode   string   `json:"product_code"`
	Title         string   `json:"title"`
	Name          string   `json:"name"`
	ImageURL      string   `json:"image_url"`
	Categories    []string `json:"categories"`
	StarRating    float64  `json:"star_rating"`
	ReviewCount   int      `json:"review_count"`
	OriginalPrice int      `json:"original_price"`
	FinalPrice    int      `json:"final_price"`
}

// ReviewRecord is one review article. Rating is kept raw as provided by the
// source attribute. Slice order is page-visit order, oldest page first.
type ReviewRecord struct {
	ProductCode string `json:"product_code"`
	Rating      string `json:"review_rating"`
	Date        string `json:"review_date"`
	Content     string `json:"review_content"`
}

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// TaskResult is the outcome of one task. Exactly one of Product+Reviews or
// Error is meaningful depending on Status.
type TaskResult struct {
	URL     string         `json:"url"`
	Status  string         `json:"status"`
	Product *ProductRecord `json:"product,omitempty"`
	Reviews []ReviewRecord `json:"reviews,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// FailedResult builds a failed TaskResult for url with the captured error text.
func FailedResult(url, errText string) TaskResult {
	return TaskResult{URL: url, Status: StatusFailed, Error: errText}
}

// RunSummary aggregates the outcome of one full run.
type RunSummary struct {
	Total          int     `json:"total"`
	Succeeded      int     `json:"succeeded"`
	Failed         int     `json:"failed"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}
