package review

// DocumentCategory tags a platform file with its role in the submission.
type DocumentCategory string

const (
	DocManuscript    DocumentCategory = "manuscript"
	DocCoverLetter   DocumentCategory = "cover-letter"
	DocResponse      DocumentCategory = "response-to-reviewers"
	DocSupplement    DocumentCategory = "supplementary"
	DocRefereeFile   DocumentCategory = "referee-report"
	DocUncategorized DocumentCategory = "other"
)

// documentPriority is the fixed classification order: the first matching
// category wins when keywords overlap.
var documentPriority = []DocumentCategory{
	DocManuscript,
	DocCoverLetter,
	DocResponse,
	DocSupplement,
	DocRefereeFile,
}

// DocumentPriority returns the fixed category priority order.
func DocumentPriority() []DocumentCategory {
	cp := make([]DocumentCategory, len(documentPriority))
	copy(cp, documentPriority)
	return cp
}

// Document is one downloadable file attached to a manuscript.
type Document struct {
	Category    DocumentCategory `json:"category"`
	SourceURL   string           `json:"source_url,omitempty"`
	LocalPath   string           `json:"local_path,omitempty"`
	Description string           `json:"description,omitempty"`
	Filename    string           `json:"filename,omitempty"`
}
