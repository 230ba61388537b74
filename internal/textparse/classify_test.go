package textparse

import (
	"testing"

	"vellum/internal/review"
)

func TestClassifyDocumentPriorityOrder(t *testing.T) {
	cases := []struct {
		filename    string
		description string
		want        review.DocumentCategory
	}{
		{"JAM-2024-0117_manuscript.pdf", "", review.DocManuscript},
		{"letter.pdf", "Cover Letter", review.DocCoverLetter},
		{"rebuttal_v2.docx", "Response to Reviewers", review.DocResponse},
		{"figS1.tif", "Supplementary figure", review.DocSupplement},
		{"att-19.pdf", "Reviewer attachment", review.DocRefereeFile},
		{"notes.txt", "", review.DocUncategorized},
		// "manuscript" outranks "review" when both keywords appear.
		{"manuscript_with_review_changes.pdf", "", review.DocManuscript},
		// "response to reviewers" outranks the bare "review" keyword.
		{"response_to_reviewers.pdf", "review round 1", review.DocResponse},
		// Underscore and hyphen word separators fold to spaces.
		{"point-by-point_reply.docx", "", review.DocResponse},
		{"cover-letter.docx", "", review.DocCoverLetter},
	}
	for _, tc := range cases {
		if got := ClassifyDocument(tc.filename, tc.description); got != tc.want {
			t.Errorf("ClassifyDocument(%q, %q) = %q, want %q", tc.filename, tc.description, got, tc.want)
		}
	}
}

func TestClassifyDocumentIsDeterministic(t *testing.T) {
	for i := 0; i < 5; i++ {
		if got := ClassifyDocument("supplement_review.pdf", ""); got != review.DocSupplement {
			t.Fatalf("iteration %d: got %q", i, got)
		}
	}
}

func TestClassifyEvent(t *testing.T) {
	cases := []struct {
		description string
		want        review.EventType
	}{
		{"Reviewer Invitation sent to R. Jones", review.EventInvitation},
		{"Reviewer invitation reminder", review.EventReminder},
		{"R. Jones agreed to review", review.EventAcceptance},
		{"Reviewer declined invitation", review.EventDecline},
		{"Review received from Reviewer 2", review.EventReviewReceived},
		{"Review overdue notice", review.EventOverdue},
		{"Decision letter: Minor Revision", review.EventDecision},
		{"Revision 1 submitted", review.EventRevision},
		{"Editor assigned: Dr. Smith", review.EventEditorAssignment},
		{"Payment receipt", review.EventOther},
		{"", review.EventOther},
	}
	for _, tc := range cases {
		if got := ClassifyEvent(tc.description); got != tc.want {
			t.Errorf("ClassifyEvent(%q) = %q, want %q", tc.description, got, tc.want)
		}
	}
}
