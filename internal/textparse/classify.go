package textparse

import (
	"strings"

	"vellum/internal/review"
)

// documentKeywords maps filename/description keywords to a category. Checked
// in the fixed priority order from the review package; the first category
// with a matching keyword wins, so classification is total and deterministic
// (anything unmatched falls through to "other").
var documentKeywords = map[review.DocumentCategory][]string{
	review.DocManuscript:  {"manuscript", "main document", "article", "paper", "submission.pdf"},
	review.DocCoverLetter: {"cover letter", "coverletter", "letter to editor"},
	review.DocResponse:    {"response to reviewer", "response to referee", "rebuttal", "point by point", "reply to reviewer"},
	review.DocSupplement:  {"supplement", "supporting information", "appendix", "additional file", "dataset"},
	review.DocRefereeFile: {"review", "referee report", "reviewer attachment", "report"},
}

// ClassifyDocument maps a (filename, description) pair to exactly one
// category.
func ClassifyDocument(filename, description string) review.DocumentCategory {
	haystack := strings.ToLower(filename + " " + description)
	// Filenames separate words with underscores or hyphens; fold them to
	// spaces so phrase keywords still match.
	haystack = strings.NewReplacer("_", " ", "-", " ").Replace(haystack)
	for _, category := range review.DocumentPriority() {
		for _, keyword := range documentKeywords[category] {
			if strings.Contains(haystack, keyword) {
				return category
			}
		}
	}
	return review.DocUncategorized
}

// eventKeywords classifies audit rows by case-insensitive keyword matching on
// the description/subject. Ordered: specific phrases before generic ones, so
// "reviewer invitation reminder" classifies as a reminder, not an invitation.
var eventKeywords = []struct {
	keyword string
	kind    review.EventType
}{
	{"reminder", review.EventReminder},
	{"overdue", review.EventOverdue},
	{"late notice", review.EventOverdue},
	{"review received", review.EventReviewReceived},
	{"review submitted", review.EventReviewReceived},
	{"report received", review.EventReviewReceived},
	{"review complete", review.EventReviewReceived},
	{"thank you for your review", review.EventReviewReceived},
	{"agreed to review", review.EventAcceptance},
	{"accepted invitation", review.EventAcceptance},
	{"reviewer agreed", review.EventAcceptance},
	{"declined", review.EventDecline},
	{"unable to review", review.EventDecline},
	{"uninvited", review.EventDecline},
	{"invitation", review.EventInvitation},
	{"invited", review.EventInvitation},
	{"reviewer selected", review.EventInvitation},
	{"decision", review.EventDecision},
	{"accept for publication", review.EventDecision},
	{"reject", review.EventDecision},
	{"revise", review.EventRevision},
	{"revision", review.EventRevision},
	{"resubmit", review.EventRevision},
	{"editor assigned", review.EventEditorAssignment},
	{"assigned to editor", review.EventEditorAssignment},
	{"editor invited", review.EventEditorAssignment},
}

// ClassifyEvent maps an audit-row description into the event taxonomy.
// Unmatched rows classify as "other", never an error.
func ClassifyEvent(description string) review.EventType {
	lower := strings.ToLower(description)
	for _, entry := range eventKeywords {
		if strings.Contains(lower, entry.keyword) {
			return entry.kind
		}
	}
	return review.EventOther
}
