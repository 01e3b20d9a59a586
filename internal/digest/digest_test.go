package digest

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/Dan9191/expense-service/internal/models"
	"github.com/Dan9191/expense-service/internal/repository/memstore"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentDigest struct {
	to, name string
	summary  models.PeriodSummary
}

type fakeMailer struct {
	sent   []sentDigest
	failTo string
}

func (m *fakeMailer) SendDigest(to, username string, summary models.PeriodSummary) error {
	if to == m.failTo {
		return errors.New("mailbox unavailable")
	}
	m.sent = append(m.sent, sentDigest{to: to, name: username, summary: summary})
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func seed(t *testing.T) *memstore.Store {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	for _, u := range []*models.User{
		{Name: "Al", Email: "al@x.com"},
		{Name: "Bo", Email: "bo@x.com"},
		{Name: "Cy", Email: "cy@x.com"},
	} {
		require.NoError(t, store.CreateUser(ctx, u))
	}

	add := func(userID int64, amount, category, date string) {
		_, err := store.CreateExpense(ctx, userID, models.ExpenseInput{
			Description: category, Amount: models.MustAmount(amount), Category: category, Date: models.MustDate(date),
		})
		require.NoError(t, err)
	}
	// window for a run on 2024-03-11 is 2024-03-04..2024-03-10
	add(1, "10.25", "Food", "2024-03-04")
	add(1, "5", "Food", "2024-03-10")
	add(1, "20", "Transport", "2024-03-07")
	add(1, "99", "Food", "2024-03-11")
	add(1, "99", "Food", "2024-03-03")
	add(2, "15", "Health", "2024-03-05")
	add(3, "1", "Other", "2024-02-01")
	return store
}

func TestWindow(t *testing.T) {
	j := NewJob(nil, nil, nil, quietLogger())
	j.now = func() time.Time { return time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC) }

	from, to := j.Window()
	assert.Equal(t, "2024-03-04", from.String())
	assert.Equal(t, "2024-03-10", to.String())
}

func TestRunSendsOnlyToActiveUsers(t *testing.T) {
	store := seed(t)
	mailer := &fakeMailer{}
	j := NewJob(store, store, mailer, quietLogger())
	j.now = func() time.Time { return time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC) }

	sent, err := j.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	require.Len(t, mailer.sent, 2)

	al := mailer.sent[0]
	assert.Equal(t, "al@x.com", al.to)
	assert.Equal(t, "Al", al.name)
	assert.Equal(t, "35.25", al.summary.Total.String())
	require.Len(t, al.summary.ByCategory, 2)
	assert.Equal(t, "Food", al.summary.ByCategory[0].Category)
	assert.Equal(t, "15.25", al.summary.ByCategory[0].Total.String())

	bo := mailer.sent[1]
	assert.Equal(t, "bo@x.com", bo.to)
	assert.Equal(t, "15.00", bo.summary.Total.String())
}

func TestRunContinuesAfterMailFailure(t *testing.T) {
	store := seed(t)
	mailer := &fakeMailer{failTo: "al@x.com"}
	j := NewJob(store, store, mailer, quietLogger())
	j.now = func() time.Time { return time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC) }

	sent, err := j.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "bo@x.com", mailer.sent[0].to)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	store := seed(t)
	mailer := &fakeMailer{}
	j := NewJob(store, store, mailer, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := j.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, mailer.sent)
}

func TestScheduleRejectsBadSpec(t *testing.T) {
	_, err := Schedule("every tuesday", NewJob(nil, nil, nil, quietLogger()), quietLogger())
	assert.Error(t, err)

	c, err := Schedule("0 8 * * MON", NewJob(nil, nil, nil, quietLogger()), quietLogger())
	require.NoError(t, err)
	require.Len(t, c.Entries(), 1)
	<-c.Stop().Done()
}
