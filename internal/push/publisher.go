package push

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"option-trader/internal/infrastructure"
	"option-trader/internal/model"
)

// NATSPublisher puts trade settlements and status snapshots on the BOT stream
// so the gateway (and any other consumer) can follow the run live.
type NATSPublisher struct {
	js     nats.JetStreamContext
	logger *zap.Logger
}

func NewNATSPublisher(js nats.JetStreamContext, logger *zap.Logger) *NATSPublisher {
	return &NATSPublisher{
		js:     js,
		logger: logger,
	}
}

func (p *NATSPublisher) PublishTrade(t model.Trade) {
	data, err := json.Marshal(t)
	if err != nil {
		p.logger.Error("failed to marshal trade event", zap.Error(err))
		return
	}
	subject := infrastructure.SubjectTradePrefix + string(t.Status)
	if _, err := p.js.Publish(subject, data); err != nil {
		p.logger.Error("failed to publish trade event", zap.String("subject", subject), zap.Error(err))
	}
}

func (p *NATSPublisher) PublishStatus(st model.RunStatus) {
	data, err := json.Marshal(st)
	if err != nil {
		p.logger.Error("failed to marshal status event", zap.Error(err))
		return
	}
	if _, err := p.js.Publish(infrastructure.SubjectStatus, data); err != nil {
		p.logger.Error("failed to publish status event", zap.Error(err))
	}
}
