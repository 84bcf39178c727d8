package models

// Summary statuses.
const (
	SummaryDraft     = "draft"
	SummaryPublished = "published"
)

// Summary source kinds.
const (
	SourceText = "text"
	SourceFile = "file"
)

// DefaultPrompt is used when the caller supplies no prompt of their own.
const DefaultPrompt = "Please summarize this text in a clear and concise manner."

// SummaryModel is a persisted AI-generated summary.
//
// OriginalText is immutable after creation and retained for audit and
// regeneration. WordCount is derived from Content at the write call site
// and is not recomputed on later edits.
type SummaryModel struct {
	Base
	OwnerID      string `json:"userId"       gorm:"index;not null"`
	Title        string `json:"title"        gorm:"not null"`
	Content      string `json:"content"      gorm:"type:longtext;not null"`
	OriginalText string `json:"originalText,omitempty" gorm:"type:longtext;not null"`
	Prompt       string `json:"prompt"       gorm:"type:text"`
	Status       string `json:"status"       gorm:"index;not null;default:draft"`
	FileName     string `json:"fileName"`
	SourceKind   string `json:"fileType"     gorm:"not null;default:text"`
	WordCount    int    `json:"wordCount"    gorm:"not null"`
}

func (SummaryModel) TableName() string { return "summaries" }

func ValidSummaryStatus(status string) bool {
	return status == SummaryDraft || status == SummaryPublished
}
