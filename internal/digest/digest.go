// Package digest mails every user a weekly summary of their spending.
package digest

import (
	"context"
	"fmt"
	"time"

	"github.com/Dan9191/expense-service/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Period is the number of days a digest covers, ending yesterday
const Period = 7

// UserLister enumerates digest recipients
type UserLister interface {
	ListUsers(ctx context.Context) ([]models.User, error)
}

// TotalsSource sums a user's expenses per category within a date window
type TotalsSource interface {
	CategoryTotalsBetween(ctx context.Context, userID int64, start, end models.Date) ([]models.CategoryTotal, error)
}

// Mailer delivers a rendered digest
type Mailer interface {
	SendDigest(to, username string, summary models.PeriodSummary) error
}

type Job struct {
	users  UserLister
	totals TotalsSource
	mailer Mailer
	log    *logrus.Logger
	now    func() time.Time
}

func NewJob(users UserLister, totals TotalsSource, mailer Mailer, log *logrus.Logger) *Job {
	return &Job{users: users, totals: totals, mailer: mailer, log: log, now: time.Now}
}

// Window returns the inclusive date range the next digest covers
func (j *Job) Window() (models.Date, models.Date) {
	to := models.NewDate(j.now()).AddDays(-1)
	return to.AddDays(-(Period - 1)), to
}

// Run sends one digest per user who spent anything in the window and returns
// how many were sent. A failure for one user is logged and skipped.
func (j *Job) Run(ctx context.Context) (int, error) {
	from, to := j.Window()
	users, err := j.users.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list users: %w", err)
	}

	sent := 0
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return sent, err
		}

		summary, err := j.summarize(ctx, u.ID, from, to)
		if err != nil {
			j.log.WithError(err).WithField("user_id", u.ID).Error("Failed to build digest")
			continue
		}
		if len(summary.ByCategory) == 0 {
			continue
		}
		if err := j.mailer.SendDigest(u.Email, u.Name, summary); err != nil {
			j.log.WithError(err).WithField("user_id", u.ID).Warn("Failed to send digest")
			continue
		}
		sent++
	}

	j.log.WithFields(logrus.Fields{"from": from.String(), "to": to.String(), "sent": sent}).Info("Weekly digest finished")
	return sent, nil
}

func (j *Job) summarize(ctx context.Context, userID int64, from, to models.Date) (models.PeriodSummary, error) {
	totals, err := j.totals.CategoryTotalsBetween(ctx, userID, from, to)
	if err != nil {
		return models.PeriodSummary{}, err
	}
	summary := models.PeriodSummary{From: from, To: to, ByCategory: totals}
	for _, t := range totals {
		summary.Total = summary.Total.Add(t.Total)
	}
	return summary, nil
}

// Schedule registers the job on a cron schedule and starts the scheduler.
// Stop the returned scheduler on shutdown.
func Schedule(spec string, job *Job, log *logrus.Logger) (*cron.Cron, error) {
	c := cron.New(cron.WithLogger(cron.PrintfLogger(log)))
	_, err := c.AddFunc(spec, func() {
		if _, err := job.Run(context.Background()); err != nil {
			log.WithError(err).Error("Weekly digest failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid digest schedule %q: %w", spec, err)
	}
	c.Start()
	return c, nil
}
