package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger wraps slog.Logger with additional functionality
type Logger struct {
	*slog.Logger
}

// New creates a new logger instance
func New() *Logger {
	level := getLogLevel(os.Getenv("LOG_LEVEL"))

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	// Text handler for development, JSON for production
	var handler slog.Handler
	if gin.Mode() == gin.DebugMode {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// getLogLevel converts string to slog.Level
func getLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithRequestID adds request ID to logger context
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.Logger.With(slog.String("request_id", requestID)),
	}
}

// WithBookingID adds booking ID to logger context
func (l *Logger) WithBookingID(bookingID string) *Logger {
	return &Logger{
		Logger: l.Logger.With(slog.String("booking_id", bookingID)),
	}
}

// WithError adds error to logger context
func (l *Logger) WithError(err error) *Logger {
	return &Logger{
		Logger: l.Logger.With(slog.String("error", err.Error())),
	}
}

// HTTP logging methods

// LogHTTPRequest logs an HTTP request
func (l *Logger) LogHTTPRequest(c *gin.Context, duration time.Duration) {
	l.Logger.InfoContext(c.Request.Context(),
		"HTTP Request",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.Int("status", c.Writer.Status()),
		slog.Duration("duration", duration),
		slog.String("ip", c.ClientIP()),
		slog.Int("size", c.Writer.Size()),
	)
}

// Payment lifecycle logging methods

// LogPaymentCreated logs when an advance payment record is created
func (l *Logger) LogPaymentCreated(ctx context.Context, bookingID, paymentIntentID string, advanceCents int64) {
	l.Logger.InfoContext(ctx,
		"Advance Payment Created",
		slog.String("booking_id", bookingID),
		slog.String("payment_intent_id", paymentIntentID),
		slog.Int64("advance_cents", advanceCents),
	)
}

// LogEscrowReleased logs when escrowed funds are released to payout accounts
func (l *Logger) LogEscrowReleased(ctx context.Context, bookingID string, transferIDs []string) {
	l.Logger.InfoContext(ctx,
		"Escrow Released",
		slog.String("booking_id", bookingID),
		slog.Any("transfer_ids", transferIDs),
	)
}

// LogRefundProcessed logs when a cancellation refund completes
func (l *Logger) LogRefundProcessed(ctx context.Context, bookingID string, refundCents int64, refundPercentage int) {
	l.Logger.InfoContext(ctx,
		"Refund Processed",
		slog.String("booking_id", bookingID),
		slog.Int64("refund_cents", refundCents),
		slog.Int("refund_percentage", refundPercentage),
	)
}

// LogInconsistentState logs a ledger/processor divergence requiring reconciliation
func (l *Logger) LogInconsistentState(ctx context.Context, bookingID, operation string, err error) {
	l.Logger.ErrorContext(ctx,
		"Inconsistent External State",
		slog.String("booking_id", bookingID),
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// LogPlacementExpired logs when a premium placement is demoted
func (l *Logger) LogPlacementExpired(ctx context.Context, placementID, priestID string) {
	l.Logger.InfoContext(ctx,
		"Premium Placement Expired",
		slog.String("placement_id", placementID),
		slog.String("priest_id", priestID),
	)
}

// LogPolicyConfigWarning logs a cancellation policy configuration gap
func (l *Logger) LogPolicyConfigWarning(ctx context.Context, policyID, detail string) {
	l.Logger.WarnContext(ctx,
		"Cancellation Policy Configuration Warning",
		slog.String("policy_id", policyID),
		slog.String("detail", detail),
	)
}

// Helper methods for common patterns

// InfoWithContext logs an info message with context
func (l *Logger) InfoWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	l.Logger.InfoContext(ctx, msg, args...)
}

// ErrorWithContext logs an error message with context
func (l *Logger) ErrorWithContext(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	args := make([]interface{}, 0, len(fields)*2+2)
	args = append(args, slog.String("error", err.Error()))
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	l.Logger.ErrorContext(ctx, msg, args...)
}

// Global logger instance (can be replaced with dependency injection)
var defaultLogger = New()

// GetDefault returns the default logger instance
func GetDefault() *Logger {
	return defaultLogger
}

// SetDefault sets the default logger instance
func SetDefault(logger *Logger) {
	defaultLogger = logger
}
