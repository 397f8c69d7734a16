package mail

import (
	"context"
	"errors"
	"testing"
	"time"

	"wellbe/models"
	"wellbe/services/tasks"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	tasks []*asynq.Task
	err   error
}

func (q *fakeQueue) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if q.err != nil {
		return nil, q.err
	}
	q.tasks = append(q.tasks, task)
	return &asynq.TaskInfo{ID: "t1", Type: task.Type()}, nil
}

func TestQueuedMailer_Send(t *testing.T) {
	q := &fakeQueue{}
	m := NewQueuedMailer(q)
	require.True(t, m.Enabled())

	email := models.Email{To: "ana@example.com", Subject: "hi", Body: "<p>hi</p>"}
	require.NoError(t, m.Send(context.Background(), email))
	require.Len(t, q.tasks, 1)
	assert.Equal(t, tasks.TypeSendEmail, q.tasks[0].Type())

	got, err := tasks.ParseEmailTask(q.tasks[0])
	require.NoError(t, err)
	assert.Equal(t, email, got)

	q.err = errors.New("redis down")
	assert.Error(t, m.Send(context.Background(), email))
}

func TestNoopMailer(t *testing.T) {
	var m Mailer = NoopMailer{}
	assert.False(t, m.Enabled())
	assert.NoError(t, m.Send(context.Background(), models.Email{}))
}

func TestBookingConfirmation(t *testing.T) {
	b := &models.Booking{
		ID:            "b1",
		BookingNumber: "BK202603100001",
		Status:        models.BookingConfirmed,
		Service:       models.ServiceSnapshot{Name: "Sunrise Yoga", Duration: 60},
		StartTime:     time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC),
	}

	client, err := BookingConfirmation("ana@example.com", b, false)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", client.To)
	assert.Contains(t, client.Subject, "confirmed")
	assert.Contains(t, client.Body, "Sunrise Yoga")
	assert.Contains(t, client.Body, "BK202603100001")

	pro, err := BookingConfirmation("studio@example.com", b, true)
	require.NoError(t, err)
	assert.Contains(t, pro.Subject, "new booking")
}
