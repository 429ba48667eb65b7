package notify

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	slackapi "github.com/slack-go/slack"
	"github.com/zulandar/helpline/internal/models"
	"github.com/zulandar/helpline/internal/ticket"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// DigestReport holds the ticket metrics for one reporting period.
type DigestReport struct {
	Open       int
	InProgress int
	Resolved   int
	Created    int // tickets created within the period
	TopIssues  []string
}

// BuildDigest computes a report over all stored tickets; Created counts only
// tickets newer than since.
func BuildDigest(store ticket.Store, since time.Time) (*DigestReport, error) {
	tickets, err := store.List()
	if err != nil {
		return nil, fmt.Errorf("notify: digest: %w", err)
	}

	report := &DigestReport{}
	issueCounts := map[string]int{}
	for _, t := range tickets {
		switch t.Status {
		case models.StatusOpen:
			report.Open++
		case models.StatusInProgress:
			report.InProgress++
		case models.StatusResolved:
			report.Resolved++
		}
		if t.CreatedAt.After(since) {
			report.Created++
		}
		if t.Summary != nil {
			for _, issue := range t.Summary.KeyIssues {
				issueCounts[issue]++
			}
		}
	}

	for issue := range issueCounts {
		report.TopIssues = append(report.TopIssues, issue)
	}
	sort.Slice(report.TopIssues, func(i, j int) bool {
		if issueCounts[report.TopIssues[i]] != issueCounts[report.TopIssues[j]] {
			return issueCounts[report.TopIssues[i]] > issueCounts[report.TopIssues[j]]
		}
		return report.TopIssues[i] < report.TopIssues[j]
	})
	if len(report.TopIssues) > 5 {
		report.TopIssues = report.TopIssues[:5]
	}
	return report, nil
}

// FormatDigest renders a report as the Slack message body.
func FormatDigest(report *DigestReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ticket digest: %d new in the last day\n", report.Created)
	fmt.Fprintf(&b, "Open: %d | In progress: %d | Resolved: %d", report.Open, report.InProgress, report.Resolved)
	if len(report.TopIssues) > 0 {
		fmt.Fprintf(&b, "\nTop issues: %s", strings.Join(report.TopIssues, ", "))
	}
	return b.String()
}

// Digester posts periodic ticket digests to the agent channel.
type Digester struct {
	store    ticket.Store
	notifier *Slack
	schedule string
}

// NewDigester validates the cron schedule and returns a Digester.
func NewDigester(store ticket.Store, notifier *Slack, schedule string) (*Digester, error) {
	if store == nil {
		return nil, fmt.Errorf("notify: store is required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notify: notifier is required")
	}
	if _, err := cronParser.Parse(schedule); err != nil {
		return nil, fmt.Errorf("notify: parse schedule %q: %w", schedule, err)
	}
	return &Digester{store: store, notifier: notifier, schedule: schedule}, nil
}

// Run fires digests on the schedule until ctx is cancelled. Post failures
// are logged and the loop continues.
func (d *Digester) Run(ctx context.Context) {
	for {
		wait := nextCronDuration(d.schedule)
		if wait <= 0 {
			wait = time.Minute
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
		if err := d.post(); err != nil {
			log.Printf("notify: digest: %v", err)
		}
	}
}

func (d *Digester) post() error {
	report, err := BuildDigest(d.store, time.Now().Add(-24*time.Hour))
	if err != nil {
		return err
	}
	_, _, err = d.notifier.client.PostMessage(d.notifier.channelID,
		slackapi.MsgOptionText(FormatDigest(report), false),
		slackapi.MsgOptionAttachments(slackapi.Attachment{Color: colorDigest}),
	)
	if err != nil {
		return fmt.Errorf("post digest: %w", err)
	}
	return nil
}

// nextCronDuration parses a 5-field cron expression and returns the duration
// until the next fire time. Returns 0 on parse error.
func nextCronDuration(expr string) time.Duration {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return 0
	}
	next := sched.Next(time.Now())
	delay := time.Until(next)
	if delay < 0 {
		return 0
	}
	return delay
}
