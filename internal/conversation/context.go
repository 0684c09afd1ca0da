package conversation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wellbot/wellbot-api/internal/bookings"
	"github.com/wellbot/wellbot-api/pkg/logging"
)

var conversationTracer = otel.Tracer("wellbot.internal.conversation")

// Context limits.
const (
	PriorMessageLimit   = 50
	CurrentMessageLimit = 20
	MedicalRecordLimit  = 5
)

// ChatContext is what a reply is personalized with. The zero value is the
// context of an anonymous user.
type ChatContext struct {
	DisplayName     string
	PriorMessages   []HistoryMessage
	CurrentMessages []HistoryMessage
	MedicalRecords  []bookings.UserMedicalRecord
}

// History returns prior-session messages followed by current-session messages.
func (c ChatContext) History() []HistoryMessage {
	out := make([]HistoryMessage, 0, len(c.PriorMessages)+len(c.CurrentMessages))
	out = append(out, c.PriorMessages...)
	return append(out, c.CurrentMessages...)
}

// HistorySource loads chat history for context assembly.
type HistorySource interface {
	RecentMessages(ctx context.Context, userID int64, excludeSession *int64, limit int) ([]HistoryMessage, error)
	RecentSessionMessages(ctx context.Context, userID, sessionID int64, limit int) ([]HistoryMessage, error)
}

// RecordSource loads a user's medical records, newest first.
type RecordSource interface {
	ListRecordsForUser(ctx context.Context, userID int64, limit int) ([]bookings.UserMedicalRecord, error)
}

// NameSource resolves a user's display name.
type NameSource interface {
	DisplayName(ctx context.Context, userID int64) (string, error)
}

// Assembler builds ChatContext from stored history, records and profile.
type Assembler struct {
	history HistorySource
	records RecordSource
	names   NameSource
	logger  *logging.Logger
}

func NewAssembler(history HistorySource, records RecordSource, names NameSource, logger *logging.Logger) *Assembler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Assembler{history: history, records: records, names: names, logger: logger}
}

// Build assembles the context for userID. A nil user yields an empty context,
// and any lookup failure other than the display name degrades to an empty
// context instead of failing the chat.
func (a *Assembler) Build(ctx context.Context, userID *int64, currentSessionID *int64) ChatContext {
	if userID == nil {
		return ChatContext{}
	}
	ctx, span := conversationTracer.Start(ctx, "conversation.build_context")
	defer span.End()
	span.SetAttributes(attribute.Int64("wellbot.user_id", *userID))

	var out ChatContext
	if a.names != nil {
		name, err := a.names.DisplayName(ctx, *userID)
		if err != nil {
			a.logger.Warn("failed to load display name", "user_id", *userID, "error", err)
		} else {
			out.DisplayName = name
		}
	}

	prior, err := a.history.RecentMessages(ctx, *userID, currentSessionID, PriorMessageLimit)
	if err != nil {
		return a.degrade(*userID, "prior history", err)
	}
	out.PriorMessages = prior

	if currentSessionID != nil {
		current, err := a.history.RecentSessionMessages(ctx, *userID, *currentSessionID, CurrentMessageLimit)
		if err != nil {
			return a.degrade(*userID, "session history", err)
		}
		out.CurrentMessages = current
	}

	records, err := a.records.ListRecordsForUser(ctx, *userID, MedicalRecordLimit)
	if err != nil {
		return a.degrade(*userID, "medical records", err)
	}
	out.MedicalRecords = records

	span.SetAttributes(
		attribute.Int("wellbot.prior_messages", len(out.PriorMessages)),
		attribute.Int("wellbot.current_messages", len(out.CurrentMessages)),
		attribute.Int("wellbot.medical_records", len(out.MedicalRecords)),
	)
	return out
}

func (a *Assembler) degrade(userID int64, step string, err error) ChatContext {
	a.logger.Warn("chat context unavailable, continuing without history",
		"user_id", userID, "step", step, "error", err)
	return ChatContext{}
}
