package main

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConsumerCloseReleasesReader(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	consumer := NewConsumer([]string{"localhost:19092"}, "chat-messages", "archiver-group", nil, logger)

	require.NoError(t, consumer.Close())
}
