package conversation

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wellbot/wellbot-api/internal/clinic"
	"github.com/wellbot/wellbot-api/pkg/logging"
)

// FallbackReply is returned whenever the model cannot produce a reply.
const FallbackReply = "Ôi xin lỗi bạn, mình đang gặp chút trục trặc. Bạn thử nhắn lại được không? 😅"

const (
	defaultTemperature float32 = 0.8
	defaultMaxTokens   int32   = 2048
)

// bookingKeywords signal that the user wants to see a clinic.
var bookingKeywords = []string{
	"đặt lịch", "đặt hẹn", "book", "booking", "hẹn khám",
	"khám bệnh", "gặp bác sĩ", "tư vấn trực tiếp", "phòng khám",
	"muốn khám", "cần gặp", "tìm bác sĩ", "đi khám", "lịch hẹn",
	"muốn đặt", "đặt cuộc hẹn", "gặp chuyên gia", "clinic",
	"appointment", "schedule", "bệnh viện", "trung tâm tâm lý",
}

// HasBookingIntent reports whether input mentions any booking keyword,
// ignoring case.
func HasBookingIntent(input string) bool {
	lower := strings.ToLower(input)
	for _, kw := range bookingKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Orchestrator turns a user message and its context into one WellBot reply.
type Orchestrator struct {
	llm         LLMClient
	directory   *clinic.Directory
	logger      *logging.Logger
	temperature float32
	maxTokens   int32
	timeout     time.Duration
}

// OrchestratorOption customizes an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithSampling overrides the temperature and output length. Non-positive
// values keep the defaults.
func WithSampling(temperature float32, maxTokens int32) OrchestratorOption {
	return func(o *Orchestrator) {
		if temperature > 0 {
			o.temperature = temperature
		}
		if maxTokens > 0 {
			o.maxTokens = maxTokens
		}
	}
}

// WithTimeout bounds each generation call. Zero means no bound beyond the
// request context.
func WithTimeout(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) { o.timeout = d }
}

func NewOrchestrator(llm LLMClient, directory *clinic.Directory, logger *logging.Logger, opts ...OrchestratorOption) *Orchestrator {
	if llm == nil {
		panic("conversation: llm client required")
	}
	if directory == nil {
		panic("conversation: clinic directory required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	o := &Orchestrator{
		llm:         llm,
		directory:   directory,
		logger:      logger,
		temperature: defaultTemperature,
		maxTokens:   defaultMaxTokens,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Reply generates the answer to userInput. It never fails: provider errors
// are logged and replaced with FallbackReply.
func (o *Orchestrator) Reply(ctx context.Context, userInput string, cc ChatContext) string {
	ctx, span := conversationTracer.Start(ctx, "conversation.reply", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	scan := ScanInput(userInput)
	if scan.Flagged() {
		o.logger.Warn("chat input looks like prompt steering", "score", scan.Score, "reasons", scan.Reasons)
	}

	resp, err := o.llm.Complete(ctx, LLMRequest{
		Messages: []ChatMessage{{
			Role:    ChatRoleUser,
			Content: BuildPrompt(scan.Sanitized, cc, o.directory),
		}},
		Temperature:          o.temperature,
		MaxTokens:            o.maxTokens,
		DisableSafetyFilters: true,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		o.logger.Error("chat generation failed", "error", err)
		return FallbackReply
	}
	span.SetAttributes(
		attribute.String("wellbot.llm.stop_reason", resp.StopReason),
		attribute.Int("wellbot.llm.output_tokens", int(resp.Usage.OutputTokens)),
	)
	if strings.TrimSpace(resp.Text) == "" {
		span.SetStatus(codes.Error, "empty reply")
		o.logger.Error("chat generation returned no text", "stop_reason", resp.StopReason)
		return FallbackReply
	}
	if resp.StopReason == StopReasonMaxTokens {
		o.logger.Warn("chat reply truncated at max output tokens",
			"max_tokens", o.maxTokens, "output_tokens", resp.Usage.OutputTokens)
	}

	reply := resp.Text
	intent := HasBookingIntent(userInput)
	span.SetAttributes(attribute.Bool("wellbot.booking_intent", intent))
	if intent {
		reply += o.directory.RecommendationBlock()
	}
	return reply
}
