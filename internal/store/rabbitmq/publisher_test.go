package rabbitmq

import (
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttempt(t *testing.T) {
	assert.Equal(t, 1, Attempt(nil))
	assert.Equal(t, 1, Attempt(amqp.Table{AttemptHeader: "x"}))
	assert.Equal(t, 3, Attempt(amqp.Table{AttemptHeader: int32(3)}))
	assert.Equal(t, 4, Attempt(amqp.Table{AttemptHeader: int64(4)}))
}

func TestDecodeJob(t *testing.T) {
	m, err := DecodeJob([]byte(`{"job_id":"01HZX"}`))
	require.NoError(t, err)
	assert.Equal(t, "01HZX", m.JobID)

	_, err = DecodeJob([]byte(`{}`))
	assert.Error(t, err)
	_, err = DecodeJob([]byte(`not json`))
	assert.Error(t, err)
}

func TestQueueNames(t *testing.T) {
	assert.Equal(t, "chat_turns.retry", RetryQueue("chat_turns"))
	assert.Equal(t, "chat_turns.dlq", DeadQueue("chat_turns"))
}
