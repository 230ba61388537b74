package review

import "time"

// Milestones captures derived per-manuscript review progress markers.
// Derived per run; never independently persisted.
type Milestones struct {
	AllRefereesAssigned *time.Time `json:"all_referees_assigned,omitempty"`
	FirstReportReceived *time.Time `json:"first_report_received,omitempty"`
	LastReportReceived  *time.Time `json:"last_report_received,omitempty"`

	ReportsReceived int `json:"reports_received"`
	ReportsPending  int `json:"reports_pending"`

	DaysSinceSubmission int `json:"days_since_submission,omitempty"`
	DaysInReview        int `json:"days_in_review,omitempty"`

	AverageReviewTurnaroundDays float64 `json:"average_review_turnaround_days,omitempty"`
	FastestReviewDays           int     `json:"fastest_review_days,omitempty"`
	SlowestReviewDays           int     `json:"slowest_review_days,omitempty"`

	NextDueDate      *time.Time `json:"next_due_date,omitempty"`
	DaysUntilNextDue int        `json:"days_until_next_due,omitempty"`
}

// RefereeStats holds per-referee interval statistics. A field is nil when
// either endpoint is missing or the raw delta was negative.
type RefereeStats struct {
	InvitationToAgreementDays  *int `json:"invitation_to_agreement_days,omitempty"`
	AgreementToSubmissionDays  *int `json:"agreement_to_submission_days,omitempty"`
	InvitationToSubmissionDays *int `json:"invitation_to_submission_days,omitempty"`
	TotalReviewDays            *int `json:"total_review_days,omitempty"`
}

// TimelineAnalytics summarizes communication patterns over an audit trail.
type TimelineAnalytics struct {
	SpanDays           int     `json:"span_days"`
	UniqueParticipants int     `json:"unique_participants"`
	EventsByWeekday    [7]int  `json:"events_by_weekday"`
	EventsByHour       [24]int `json:"events_by_hour"`

	AvgResponseDays     float64 `json:"avg_response_days,omitempty"`
	FastestResponseDays int     `json:"fastest_response_days,omitempty"`
	SlowestResponseDays int     `json:"slowest_response_days,omitempty"`

	RemindersSent         int     `json:"reminders_sent"`
	EffectiveReminders    int     `json:"effective_reminders"`
	ReminderEffectiveness float64 `json:"reminder_effectiveness,omitempty"`
}

// RunSummary is the run-level artifact reported after processing a journal.
type RunSummary struct {
	RunID       string    `json:"run_id"`
	JournalCode string    `json:"journal_code"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`

	Discovered int `json:"discovered"`
	Succeeded  int `json:"succeeded"`
	Partial    int `json:"partial"`
	Failed     int `json:"failed"`

	PerCategory map[string]CategoryCounts `json:"per_category,omitempty"`

	RefereesSeen        int     `json:"referees_seen"`
	RefereesWithEmail   int     `json:"referees_with_email"`
	EmailResolutionRate float64 `json:"email_resolution_rate,omitempty"`
	PeopleEnriched      int     `json:"people_enriched"`
	EnrichmentCoverage  float64 `json:"enrichment_coverage,omitempty"`
}

// CategoryCounts breaks the run summary down per discovered category.
type CategoryCounts struct {
	Discovered int `json:"discovered"`
	Succeeded  int `json:"succeeded"`
	Partial    int `json:"partial"`
	Failed     int `json:"failed"`
}
