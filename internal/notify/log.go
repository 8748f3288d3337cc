package notify

import (
	"context"

	"go.uber.org/zap"
)

var _ Notifier = (*LogNotifier)(nil)

// LogNotifier writes codes to the log. It is meant for local development only.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.L()
	}
	return &LogNotifier{logger: logger.Named("notify")}
}

func (n *LogNotifier) SendVerificationCode(_ context.Context, email, code string) error {
	n.logger.Info("email verification code", zap.String("email", email), zap.String("code", code))
	return nil
}

func (n *LogNotifier) SendPasswordResetCode(_ context.Context, email, code string) error {
	n.logger.Info("password reset code", zap.String("email", email), zap.String("code", code))
	return nil
}
