package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellbot/wellbot-api/internal/clinic"
)

type stubLLM struct {
	resp     LLMResponse
	err      error
	requests []LLMRequest
	deadline bool
}

func (s *stubLLM) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	s.requests = append(s.requests, req)
	_, s.deadline = ctx.Deadline()
	return s.resp, s.err
}

func TestReplyRequestShape(t *testing.T) {
	llm := &stubLLM{resp: LLMResponse{Text: "Mình ở đây nghe bạn nè 💕", StopReason: StopReasonStop}}
	o := NewOrchestrator(llm, clinic.DefaultDirectory(), nil)

	reply := o.Reply(context.Background(), "Mình thấy buồn", ChatContext{})

	assert.Equal(t, "Mình ở đây nghe bạn nè 💕", reply)
	require.Len(t, llm.requests, 1)
	req := llm.requests[0]
	assert.True(t, req.DisableSafetyFilters)
	assert.InDelta(t, 0.8, req.Temperature, 1e-6)
	assert.Equal(t, int32(2048), req.MaxTokens)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, ChatRoleUser, req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "Người dùng: Mình thấy buồn")
	assert.False(t, llm.deadline)
}

func TestReplyAppendsClinicsOnBookingIntent(t *testing.T) {
	directory := clinic.DefaultDirectory()
	llm := &stubLLM{resp: LLMResponse{Text: "X"}}
	o := NewOrchestrator(llm, directory, nil)

	reply := o.Reply(context.Background(), "Tôi muốn ĐẶT LỊCH khám", ChatContext{})
	assert.Equal(t, "X"+directory.RecommendationBlock(), reply)

	reply = o.Reply(context.Background(), "Can I book an Appointment?", ChatContext{})
	assert.Equal(t, "X"+directory.RecommendationBlock(), reply)

	reply = o.Reply(context.Background(), "Hôm nay trời đẹp", ChatContext{})
	assert.Equal(t, "X", reply)
}

func TestReplyFallsBackOnProviderError(t *testing.T) {
	llm := &stubLLM{err: errors.New("googleapi: Error 503: overloaded")}
	o := NewOrchestrator(llm, clinic.DefaultDirectory(), nil)

	reply := o.Reply(context.Background(), "đặt lịch giúp mình", ChatContext{})
	assert.Equal(t, FallbackReply, reply)
}

func TestReplyFallsBackOnBlankText(t *testing.T) {
	llm := &stubLLM{resp: LLMResponse{Text: "  ", StopReason: StopReasonSafety}}
	o := NewOrchestrator(llm, clinic.DefaultDirectory(), nil)

	assert.Equal(t, FallbackReply, o.Reply(context.Background(), "hi", ChatContext{}))
}

func TestReplyKeepsTruncatedText(t *testing.T) {
	llm := &stubLLM{resp: LLMResponse{Text: "partial", StopReason: StopReasonMaxTokens}}
	o := NewOrchestrator(llm, clinic.DefaultDirectory(), nil)

	assert.Equal(t, "partial", o.Reply(context.Background(), "hi", ChatContext{}))
}

func TestReplyOptions(t *testing.T) {
	llm := &stubLLM{resp: LLMResponse{Text: "ok"}}
	o := NewOrchestrator(llm, clinic.DefaultDirectory(), nil,
		WithSampling(0.3, 512), WithTimeout(5*time.Second))

	o.Reply(context.Background(), "hi", ChatContext{})

	require.Len(t, llm.requests, 1)
	assert.InDelta(t, 0.3, llm.requests[0].Temperature, 1e-6)
	assert.Equal(t, int32(512), llm.requests[0].MaxTokens)
	assert.True(t, llm.deadline)
}

func TestHasBookingIntent(t *testing.T) {
	for _, input := range []string{"mình cần gặp bác sĩ", "Is there a CLINIC near me?", "trung tâm tâm lý nào tốt"} {
		assert.True(t, HasBookingIntent(input), input)
	}
	for _, input := range []string{"mình chỉ muốn tâm sự chút thôi", ""} {
		assert.False(t, HasBookingIntent(input), input)
	}
}
