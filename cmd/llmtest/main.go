// Command llmtest sends one companion prompt to each configured provider and
// prints the reply, so provider keys can be checked without the database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/wellbot/wellbot-api/internal/clinic"
	appconfig "github.com/wellbot/wellbot-api/internal/config"
	"github.com/wellbot/wellbot-api/internal/conversation"
	"github.com/wellbot/wellbot-api/pkg/logging"
)

func main() {
	input := flag.String("input", "Dạo này mình hay mất ngủ và thấy lo lắng, mình nên làm gì?", "user message to send")
	name := flag.String("name", "Lan", "display name used in the prompt")
	flag.Parse()

	cfg := appconfig.Load()
	logger := logging.New("error")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	prompt := conversation.BuildPrompt(*input, conversation.ChatContext{DisplayName: *name}, clinic.DefaultDirectory())
	req := conversation.LLMRequest{
		Messages:             []conversation.ChatMessage{{Role: conversation.ChatRoleUser, Content: prompt}},
		MaxTokens:            cfg.LLMMaxOutputTokens,
		Temperature:          cfg.LLMTemperature,
		DisableSafetyFilters: true,
	}

	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("LLM Provider Test")
	fmt.Println(strings.Repeat("=", 60))

	failed := false

	if cfg.GeminiAPIKey != "" {
		fmt.Printf("\n[1] Gemini (%s)...\n", cfg.GeminiModelID)
		client, err := conversation.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			fmt.Printf("    ❌ Failed to create Gemini client: %v\n", err)
			failed = true
		} else {
			failed = run(ctx, client, req) || failed
			_ = client.Close()
		}
	} else {
		fmt.Println("\n[1] Skipping Gemini (GEMINI_API_KEY not set)")
	}

	if cfg.OpenAIAPIKey != "" {
		fmt.Printf("\n[2] OpenAI (%s)...\n", cfg.OpenAIModel)
		client, err := conversation.NewOpenAILLMClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			fmt.Printf("    ❌ Failed to create OpenAI client: %v\n", err)
			failed = true
		} else {
			failed = run(ctx, client, req) || failed
		}
	} else {
		fmt.Println("\n[2] Skipping OpenAI (OPENAI_API_KEY not set)")
	}

	fmt.Println("\n[3] Orchestrator reply with booking suggestions...")
	if cfg.GeminiAPIKey != "" {
		client, err := conversation.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err == nil {
			orch := conversation.NewOrchestrator(client, clinic.DefaultDirectory(), logger)
			reply := orch.Reply(ctx, "Mình muốn đặt lịch khám với bác sĩ tâm lý", conversation.ChatContext{DisplayName: *name})
			fmt.Printf("    %s\n", reply)
			_ = client.Close()
		}
	} else {
		fmt.Println("    Skipped")
	}

	if failed {
		os.Exit(1)
	}
}

func run(ctx context.Context, client conversation.LLMClient, req conversation.LLMRequest) bool {
	start := time.Now()
	resp, err := client.Complete(ctx, req)
	elapsed := time.Since(start).Round(time.Millisecond)
	if err != nil {
		fmt.Printf("    ❌ error after %v: %v\n", elapsed, err)
		return true
	}
	fmt.Printf("    ✅ response (%v, stop=%s):\n", elapsed, resp.StopReason)
	fmt.Printf("    %s\n", resp.Text)
	fmt.Printf("    Tokens: in=%d, out=%d\n", resp.Usage.InputTokens, resp.Usage.OutputTokens)
	return false
}
