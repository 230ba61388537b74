package analytics

import (
	"testing"
	"time"

	"vellum/internal/review"
)

func day(d string) time.Time {
	t, err := time.Parse("2006-01-02", d)
	if err != nil {
		panic(err)
	}
	return t
}

func dayPtr(d string) *time.Time {
	t := day(d)
	return &t
}

func TestComputeMilestonesTurnarounds(t *testing.T) {
	m := &review.Manuscript{
		ID:             "M1",
		SubmissionDate: dayPtr("2024-01-01"),
		Referees: []review.Referee{
			{Name: "A", ReceivedDate: dayPtr("2024-01-20")},
			{Name: "B", ReceivedDate: dayPtr("2024-02-10")},
		},
	}
	ms := ComputeMilestones(m, day("2024-03-01"))

	if ms.AverageReviewTurnaroundDays != 29.5 {
		t.Fatalf("average turnaround = %v, want 29.5", ms.AverageReviewTurnaroundDays)
	}
	if ms.FastestReviewDays != 19 {
		t.Fatalf("fastest = %d, want 19", ms.FastestReviewDays)
	}
	if ms.SlowestReviewDays != 40 {
		t.Fatalf("slowest = %d, want 40", ms.SlowestReviewDays)
	}
	if ms.ReportsReceived != 2 || ms.ReportsPending != 0 {
		t.Fatalf("received/pending = %d/%d", ms.ReportsReceived, ms.ReportsPending)
	}
	if ms.FirstReportReceived == nil || !ms.FirstReportReceived.Equal(day("2024-01-20")) {
		t.Fatalf("first report = %v", ms.FirstReportReceived)
	}
	if ms.LastReportReceived == nil || !ms.LastReportReceived.Equal(day("2024-02-10")) {
		t.Fatalf("last report = %v", ms.LastReportReceived)
	}
}

func TestComputeMilestonesContactDatePreferredOverSubmission(t *testing.T) {
	m := &review.Manuscript{
		ID:             "M1",
		SubmissionDate: dayPtr("2024-01-01"),
		Referees: []review.Referee{
			{Name: "A", ContactDate: dayPtr("2024-01-10"), ReceivedDate: dayPtr("2024-01-20")},
		},
	}
	ms := ComputeMilestones(m, day("2024-03-01"))
	if ms.FastestReviewDays != 10 {
		t.Fatalf("fastest = %d, want 10 (received - contact)", ms.FastestReviewDays)
	}
}

func TestComputeMilestonesAssignmentAndDue(t *testing.T) {
	m := &review.Manuscript{
		ID: "M1",
		Referees: []review.Referee{
			{Name: "A", ContactDate: dayPtr("2024-01-10"), DueDate: dayPtr("2024-03-10")},
			{Name: "B", ContactDate: dayPtr("2024-01-15"), DueDate: dayPtr("2024-03-01")},
			{Name: "C", Status: review.RefereeDeclined},
		},
	}
	ms := ComputeMilestones(m, day("2024-02-20"))

	if ms.AllRefereesAssigned == nil || !ms.AllRefereesAssigned.Equal(day("2024-01-15")) {
		t.Fatalf("all assigned = %v, want max contact date", ms.AllRefereesAssigned)
	}
	if ms.NextDueDate == nil || !ms.NextDueDate.Equal(day("2024-03-01")) {
		t.Fatalf("next due = %v", ms.NextDueDate)
	}
	if ms.DaysUntilNextDue != 10 {
		t.Fatalf("days until due = %d, want 10", ms.DaysUntilNextDue)
	}
	// Two outstanding assignments; declined referee is not pending.
	if ms.ReportsPending != 2 {
		t.Fatalf("pending = %d, want 2", ms.ReportsPending)
	}
}

func TestComputeRefereeStatisticsDropsNegativeDeltas(t *testing.T) {
	m := &review.Manuscript{
		ID: "M1",
		Referees: []review.Referee{
			{
				Name:           "Jones, Robert",
				ContactDate:    dayPtr("2024-01-10"),
				AcceptanceDate: dayPtr("2024-01-12"),
				ReceivedDate:   dayPtr("2024-02-10"),
			},
			{
				// Recorded acceptance precedes the invitation: the negative
				// interval yields no statistic, never a clamped zero.
				Name:           "Smith, Alice",
				ContactDate:    dayPtr("2024-01-15"),
				AcceptanceDate: dayPtr("2024-01-05"),
			},
			{Name: "Garcia, Maria"},
		},
	}
	stats := ComputeRefereeStatistics(m)
	if len(stats) != 3 {
		t.Fatalf("stats for %d referees, want 3", len(stats))
	}

	jones := stats[review.NameKey("Jones, Robert")]
	if jones.InvitationToAgreementDays == nil || *jones.InvitationToAgreementDays != 2 {
		t.Fatalf("jones invitation->agreement = %v", jones.InvitationToAgreementDays)
	}
	if jones.AgreementToSubmissionDays == nil || *jones.AgreementToSubmissionDays != 29 {
		t.Fatalf("jones agreement->submission = %v", jones.AgreementToSubmissionDays)
	}
	if jones.TotalReviewDays == nil || *jones.TotalReviewDays != 31 {
		t.Fatalf("jones total = %v", jones.TotalReviewDays)
	}

	smith := stats[review.NameKey("Smith, Alice")]
	if smith.InvitationToAgreementDays != nil {
		t.Fatalf("smith negative delta produced %v, want nil", *smith.InvitationToAgreementDays)
	}
	if smith.TotalReviewDays != nil {
		t.Fatal("smith has total review days without a received date")
	}

	garcia := stats[review.NameKey("Garcia, Maria")]
	if garcia.InvitationToAgreementDays != nil || garcia.TotalReviewDays != nil {
		t.Fatalf("garcia has stats without any dates: %+v", garcia)
	}
}

func TestTimelineHistogramsAndSpan(t *testing.T) {
	events := []review.AuditEvent{
		{Date: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), Type: review.EventInvitation, To: "Jones"},    // Monday
		{Date: time.Date(2024, 1, 3, 14, 0, 0, 0, time.UTC), Type: review.EventAcceptance, From: "Jones"}, // Wednesday
		{Date: time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC), Type: review.EventOther, From: "Editorial Office"},
	}
	ta := ComputeTimelineAnalytics(events)

	if ta.SpanDays != 7 {
		t.Fatalf("span = %d, want 7", ta.SpanDays)
	}
	if ta.UniqueParticipants != 2 {
		t.Fatalf("participants = %d, want 2", ta.UniqueParticipants)
	}
	if ta.EventsByWeekday[int(time.Monday)] != 2 {
		t.Fatalf("monday count = %d, want 2", ta.EventsByWeekday[int(time.Monday)])
	}
	if ta.EventsByHour[9] != 2 || ta.EventsByHour[14] != 1 {
		t.Fatalf("hour histogram = %v", ta.EventsByHour)
	}
	if ta.AvgResponseDays != 2 || ta.FastestResponseDays != 2 || ta.SlowestResponseDays != 2 {
		t.Fatalf("response stats = %v/%d/%d", ta.AvgResponseDays, ta.FastestResponseDays, ta.SlowestResponseDays)
	}
}

func TestReminderEffectivenessWindow(t *testing.T) {
	events := []review.AuditEvent{
		// Reminder on day 10, review submitted on day 14: effective.
		{Date: day("2024-01-10"), Type: review.EventReminder, To: "Jones"},
		{Date: day("2024-01-14"), Type: review.EventReviewReceived, From: "Jones"},
		// Reminder on day 10, next response on day 25: not effective.
		{Date: day("2024-02-10"), Type: review.EventReminder, To: "Smith"},
		{Date: day("2024-02-25"), Type: review.EventReviewReceived, From: "Smith"},
	}
	ta := ComputeTimelineAnalytics(events)

	if ta.RemindersSent != 2 {
		t.Fatalf("reminders sent = %d, want 2", ta.RemindersSent)
	}
	if ta.EffectiveReminders != 1 {
		t.Fatalf("effective reminders = %d, want 1", ta.EffectiveReminders)
	}
	if ta.ReminderEffectiveness != 0.5 {
		t.Fatalf("effectiveness = %v, want 0.5", ta.ReminderEffectiveness)
	}
}

func TestReminderNotCreditedForLaterUnrelatedResponse(t *testing.T) {
	events := []review.AuditEvent{
		{Date: day("2024-01-10"), Type: review.EventReminder, To: "Jones"},
		// Smith's quick response must not credit Jones's reminder.
		{Date: day("2024-01-12"), Type: review.EventReviewReceived, From: "Smith"},
		{Date: day("2024-01-30"), Type: review.EventReviewReceived, From: "Jones"},
	}
	ta := ComputeTimelineAnalytics(events)
	if ta.EffectiveReminders != 0 {
		t.Fatalf("effective reminders = %d, want 0", ta.EffectiveReminders)
	}
}

func TestTimelineEmptyTrail(t *testing.T) {
	ta := ComputeTimelineAnalytics(nil)
	if ta.SpanDays != 0 || ta.UniqueParticipants != 0 || ta.RemindersSent != 0 {
		t.Fatalf("empty trail produced %+v", ta)
	}
}
