package notify

import (
	"context"

	"go.uber.org/zap"
)

// Recipient identifies the supplier contact a notification is addressed to.
type Recipient struct {
	Email       string
	ContactName string
	CompanyName string
}

// CorrectionItem is one step-addressed comment included in a corrections notice.
type CorrectionItem struct {
	Step    int
	Label   string
	Comment string
}

// Notifier delivers lifecycle notices to suppliers and the operations team.
// Delivery is best effort: callers log a returned error and carry on.
type Notifier interface {
	SubmissionReceived(ctx context.Context, to Recipient) error
	StatusChanged(ctx context.Context, to Recipient, status string) error
	CorrectionsRequested(ctx context.Context, to Recipient, reviewer string, items []CorrectionItem) error
	Approved(ctx context.Context, to Recipient) error
	// Ops sends an internal notice to the operations inbox.
	Ops(ctx context.Context, subject, body string) error
}

type logNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier returns a Notifier that records each notice as a structured log entry.
func NewLogNotifier(logger *zap.Logger) Notifier {
	return &logNotifier{logger: logger.Named("notify")}
}

func (n *logNotifier) SubmissionReceived(_ context.Context, to Recipient) error {
	n.logger.Info("submission received",
		zap.String("to", to.Email),
		zap.String("contact", to.ContactName),
		zap.String("company", to.CompanyName),
	)
	return nil
}

func (n *logNotifier) StatusChanged(_ context.Context, to Recipient, status string) error {
	n.logger.Info("status changed",
		zap.String("to", to.Email),
		zap.String("company", to.CompanyName),
		zap.String("status", status),
	)
	return nil
}

func (n *logNotifier) CorrectionsRequested(_ context.Context, to Recipient, reviewer string, items []CorrectionItem) error {
	steps := make([]int, 0, len(items))
	for _, it := range items {
		steps = append(steps, it.Step)
	}
	n.logger.Info("corrections requested",
		zap.String("to", to.Email),
		zap.String("company", to.CompanyName),
		zap.String("reviewer", reviewer),
		zap.Ints("steps", steps),
	)
	return nil
}

func (n *logNotifier) Approved(_ context.Context, to Recipient) error {
	n.logger.Info("supplier approved",
		zap.String("to", to.Email),
		zap.String("company", to.CompanyName),
	)
	return nil
}

func (n *logNotifier) Ops(_ context.Context, subject, body string) error {
	n.logger.Info("ops notice", zap.String("subject", subject), zap.String("body", body))
	return nil
}
