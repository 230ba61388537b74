package scrape

import (
	"log/slog"
	"regexp"

	"vellum/internal/browser"
	"vellum/internal/config"
	"vellum/internal/credentials"
)

// Editorial Manager manuscript numbers look like "JABC-D-24-00123" or
// "ABCD-2024-0123": a journal prefix, optional type letter, two or four digit
// year, and a serial.
var emIDPattern = regexp.MustCompile(`\b[A-Z]{2,6}-(?:[A-Z]-)?\d{2,4}-\d{3,6}(?:R\d+)?\b`)

func editorialManagerProfile() PlatformProfile {
	return PlatformProfile{
		Name: "EditorialManager",

		LoginUserSelector:   `input[name="username"]`,
		LoginPassSelector:   `input[name="passwordTextbox"]`,
		LoginSubmitSelector: `input[name="editorLogin"]`,
		RoleOptionSelector:  `#roleDropdown a, select[name="role"] option`,
		DashboardSelector:   `#mainMenu, td.mainMenuHeading`,

		CategoryLinkSelector: `#mainMenu a, td.mainMenuItem a`,
		IDPattern:            emIDPattern,
		NextPageSelector:     `a[title="Next Page"], a.pagingLink:contains('Next')`,
		MaxPages:             40,

		// Editorial Manager renders the working area inside a content frame.
		ContentFrame: `iframe[name="content"]`,

		Labels: fieldLabels{
			Title:      "Article Title",
			Abstract:   "Abstract",
			Keywords:   "Keywords",
			Status:     "Current Status",
			Submission: "Initial Date Submitted",
			StatusDate: "Status Date",
			Revision:   "Revision",
			Authors:    "All Authors",
		},
		AuthorFieldSelector:   `td.authorList, span#authorNames`,
		RefereeTableSelector:  `table#reviewerSummary, table.reviewerTable`,
		RefereeHeading:        "Reviewer Status",
		RefereeProfileTrigger: `a#reviewerInfo%d`,
		ProfileEmailLabel:     "E-mail Address",
		ProfileOrgLabel:       "Institution",
		DocumentLinkSelector:  `table#submissionFiles, td.fileList`,
		ReportTableSelector:   `table#reviewComments`,
		ReportHeading:         "Reviewer Comments",

		StatusHistorySelector:  `table#statusHistory, table.statusHistoryTable`,
		CorrespondenceSelector: `table#correspondenceHistory, table.emailHistory`,
	}
}

// NewEditorialManagerEngine builds the engine for journals on Editorial
// Manager family platforms, along with its session controller.
func NewEditorialManagerEngine(journal config.Journal, browserCfg config.Browser, retryCfg config.Retry, factory browser.Factory, creds credentials.Provider, downloads Downloader, diagDir string, logger *slog.Logger) *Engine {
	return newEngine(editorialManagerProfile(), journal, browserCfg, retryCfg, factory, creds, downloads, diagDir, logger)
}
