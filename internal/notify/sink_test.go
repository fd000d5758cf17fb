package notify

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogSinkDeliver(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&logrus.JSONFormatter{})

	n := Notification{
		ID:      "7d1f7c4e-2d0a-4a8e-9c43-3b3b8f0f6a11",
		Title:   Title,
		Message: "Clear - High: 30°C Low: 20°C",
		Date:    time.Date(2022, 1, 8, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, LogSink{Logger: l}.Deliver(context.Background(), n))

	out := buf.String()
	assert.Contains(t, out, `"msg":"Clear - High: 30°C Low: 20°C"`)
	assert.Contains(t, out, `"date":"2022-01-08"`)
	assert.Contains(t, out, n.ID)
}
