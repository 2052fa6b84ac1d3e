package jobqueue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobLifecycle(t *testing.T) {
	job := &Job{Status: JobStatusPending, MaxRetries: 2}

	job.MarkAsProcessing()
	assert.Equal(t, JobStatusProcessing, job.Status)
	require.NotNil(t, job.ProcessedAt)

	job.MarkAsFailed("boom")
	assert.Equal(t, 1, job.RetryCount)
	assert.True(t, job.IsRetryable())

	job.MarkAsRetrying()
	assert.False(t, job.IsRetryable(), "only failed jobs are retried")

	job.MarkAsFailed("boom again")
	assert.False(t, job.IsRetryable(), "retry budget exhausted")

	job.MarkAsCompleted()
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.Empty(t, job.ErrorMsg)
	assert.NotNil(t, job.CompletedAt)
}

func TestEmailJobPayloadFromMap(t *testing.T) {
	payload, err := EmailJobPayloadFromMap(map[string]interface{}{
		"to":      "x@example.com",
		"subject": "Verify",
		"body":    "<b>123456</b>",
		"ignored": 42,
	})
	require.NoError(t, err)
	assert.Equal(t, EmailJobPayload{To: "x@example.com", Subject: "Verify", Body: "<b>123456</b>"}, *payload)
}
