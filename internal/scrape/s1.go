package scrape

import (
	"log/slog"
	"regexp"

	"vellum/internal/browser"
	"vellum/internal/config"
	"vellum/internal/credentials"
)

// ScholarOne manuscript ids look like "TRSB-2024-0456" or "MS-24-0456.R1":
// an alphabetic prefix, a year, a serial, and an optional revision suffix.
var s1IDPattern = regexp.MustCompile(`\b[A-Z]{2,8}-\d{2,4}-\d{3,6}(?:\.R\d+)?\b`)

func scholarOneProfile() PlatformProfile {
	return PlatformProfile{
		Name: "ScholarOne",

		LoginUserSelector:   `input#USERID`,
		LoginPassSelector:   `input#PASSWORD`,
		LoginSubmitSelector: `a#logInButton, input[name="login"]`,
		RoleOptionSelector:  `div.role-list a, a.rolelink`,
		DashboardSelector:   `#dashboard, div.dashboard-container`,

		CategoryLinkSelector: `div.dashboard-container a, ul.queue-list a`,
		IDPattern:            s1IDPattern,
		NextPageSelector:     `a.pagination-next, a[title="next page"]`,
		MaxPages:             40,

		// ScholarOne serves the working area in the top document.
		ContentFrame: "",

		Labels: fieldLabels{
			Title:      "Title",
			Abstract:   "Abstract",
			Keywords:   "Keywords",
			Status:     "Status",
			Submission: "Date Submitted",
			StatusDate: "Date of Last Status Change",
			Revision:   "Revision Number",
			Authors:    "Authors",
		},
		AuthorFieldSelector:   `div.author-list, td.authors`,
		RefereeTableSelector:  `table.reviewer-list, table#reviewerTable`,
		RefereeHeading:        "Reviewer List",
		RefereeProfileTrigger: `a.reviewer-details[data-reviewer="%d"]`,
		ProfileEmailLabel:     "Primary E-Mail Address",
		ProfileOrgLabel:       "Primary Organization",
		DocumentLinkSelector:  `div.file-list, table.documents`,
		ReportTableSelector:   `table.review-details`,
		ReportHeading:         "Reviews",

		StatusHistorySelector:  `table.audit-trail, table#manuscriptHistory`,
		CorrespondenceSelector: `table.email-log, table#correspondence`,
	}
}

// NewScholarOneEngine builds the engine for journals on ScholarOne family
// platforms, along with its session controller.
func NewScholarOneEngine(journal config.Journal, browserCfg config.Browser, retryCfg config.Retry, factory browser.Factory, creds credentials.Provider, downloads Downloader, diagDir string, logger *slog.Logger) *Engine {
	return newEngine(scholarOneProfile(), journal, browserCfg, retryCfg, factory, creds, downloads, diagDir, logger)
}
