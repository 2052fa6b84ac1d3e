package jobqueue

import "context"

// QueuedMailer is a mail.Mailer that hands messages to the queue instead of
// sending them inline. Send only fails when the job cannot be stored.
type QueuedMailer struct {
	queue *Queue
}

func NewQueuedMailer(q *Queue) *QueuedMailer {
	return &QueuedMailer{queue: q}
}

func (m *QueuedMailer) Send(to, subject, htmlBody string) error {
	_, err := m.queue.EnqueueJob(context.Background(), JobTypeSendEmail, EmailJobPayload{
		To:      to,
		Subject: subject,
		Body:    htmlBody,
	}.ToMap())
	return err
}
