package kafka_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhanbolat567/qoyu-coffee2/internal/kafka"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/logger"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/models"
)

func TestMockProducerPublishAndClose(t *testing.T) {
	producer, err := kafka.NewProducer(nil, true, logger.NewLogger())
	require.NoError(t, err)

	err = producer.PublishOrderEvent(&models.OrderEvent{
		Type:      "order.created",
		OrderID:   1,
		GuestSeq:  1,
		Total:     decimal.NewFromInt(2300),
		Timestamp: time.Now().UTC(),
	})
	assert.NoError(t, err)

	err = producer.PublishOrderEvent(&models.OrderEvent{
		Type:    "orders.purged",
		OrderID: 0,
	})
	assert.NoError(t, err)

	assert.NoError(t, producer.Close())
}
