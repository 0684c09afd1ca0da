// Package main runs end-to-end scenarios against a running WellBot API.
//
// Scenarios cover:
//   - Account signup and login
//   - Anonymous and personalized chat
//   - Chat session lifecycle
//   - Booking through clinic approval to a filed medical record
//   - Good thoughts and speech synthesis
//
// The booking scenario needs a provisioned clinic account (cmd/migrate
// clinic-account) and is skipped when CLINIC_USERNAME is unset.
//
// Usage:
//
//	API_BASE_URL=http://localhost:4000 go run scripts/e2e/run_e2e.go              # runs all
//	API_BASE_URL=http://localhost:4000 go run scripts/e2e/run_e2e.go chat-sessions # runs one
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

var (
	apiBase        string
	clinicUsername string
	clinicPassword string
	client         = &http.Client{Timeout: 90 * time.Second}
)

type scenario struct {
	Name string
	Fn   func(t *T)
}

// T is a lightweight test context for a single scenario.
type T struct {
	passed int
	failed int
}

func (t *T) check(name string, ok bool) {
	if ok {
		fmt.Printf("    PASS: %s\n", name)
		t.passed++
	} else {
		fmt.Printf("    FAIL: %s\n", name)
		t.failed++
	}
}

func (t *T) fatalf(format string, args ...any) {
	fmt.Printf("    FATAL: "+format+"\n", args...)
	t.failed++
}

func call(method, path, token string, body any) (int, map[string]any, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, apiBase+path, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	out := map[string]any{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return resp.StatusCode, nil, fmt.Errorf("decode %s %s: %w (%s)", method, path, err, string(raw))
		}
	}
	return resp.StatusCode, out, nil
}

// newUser signs up a throwaway account and returns its token.
func newUser(t *T) string {
	email := fmt.Sprintf("e2e-%d@wellbot.test", time.Now().UnixNano())
	code, body, err := call(http.MethodPost, "/signup", "", map[string]string{
		"username": "Minh E2E", "email": email, "password": "matkhau123",
	})
	if err != nil || code != http.StatusOK {
		t.fatalf("signup: code=%d err=%v body=%v", code, err, body)
		return ""
	}
	token, _ := body["token"].(string)
	return token
}

func scenarioAccounts(t *T) {
	email := fmt.Sprintf("e2e-%d@wellbot.test", time.Now().UnixNano())
	code, body, err := call(http.MethodPost, "/signup", "", map[string]string{
		"username": "Lan", "email": email, "password": "matkhau123",
	})
	t.check("signup succeeds", err == nil && code == http.StatusOK && body["token"] != nil)

	code, body, _ = call(http.MethodPost, "/signup", "", map[string]string{
		"username": "Lan", "email": email, "password": "matkhau123",
	})
	t.check("duplicate signup rejected", code == http.StatusBadRequest && body["errors"] == "User already exists")

	code, body, _ = call(http.MethodPost, "/login", "", map[string]string{"email": email, "password": "matkhau123"})
	t.check("login succeeds", code == http.StatusOK && body["token"] != nil)

	code, _, _ = call(http.MethodPost, "/login", "", map[string]string{"email": email, "password": "sai"})
	t.check("wrong password rejected", code == http.StatusBadRequest || code == http.StatusUnauthorized)
}

func scenarioChat(t *T) {
	code, body, err := call(http.MethodPost, "/chat", "", map[string]string{"userInput": "Dạo này mình hay lo lắng quá"})
	reply, _ := body["response"].(string)
	t.check("anonymous chat replies", err == nil && code == http.StatusOK && strings.TrimSpace(reply) != "")

	code, _, _ = call(http.MethodPost, "/chat", "", map[string]string{})
	t.check("missing input rejected", code == http.StatusBadRequest)

	code, body, _ = call(http.MethodPost, "/chat", "", map[string]string{"userInput": "Mình muốn đặt lịch gặp bác sĩ tâm lý"})
	reply, _ = body["response"].(string)
	t.check("booking intent lists partner clinics", code == http.StatusOK && strings.Contains(reply, "Phòng khám"))
}

func scenarioChatSessions(t *T) {
	token := newUser(t)
	if token == "" {
		return
	}

	code, body, _ := call(http.MethodPost, "/chat-sessions", token, nil)
	session, _ := body["session"].(map[string]any)
	id, _ := session["id"].(float64)
	t.check("session created", code == http.StatusOK && id > 0)
	path := fmt.Sprintf("/chat-sessions/%d", int64(id))

	code, _, _ = call(http.MethodPost, path+"/messages", token, map[string]string{"role": "user", "message": "Mình bị mất ngủ mấy hôm nay"})
	t.check("user message appended", code == http.StatusOK)

	code, body, _ = call(http.MethodPost, "/chat", token, map[string]any{"userInput": "Mình bị mất ngủ mấy hôm nay", "sessionId": int64(id)})
	reply, _ := body["response"].(string)
	t.check("personalized chat replies", code == http.StatusOK && reply != "")

	code, _, _ = call(http.MethodPost, path+"/messages", token, map[string]string{"role": "bot", "message": reply})
	t.check("bot message appended", code == http.StatusOK)

	code, body, _ = call(http.MethodGet, "/chat-sessions", token, nil)
	sessions, _ := body["sessions"].([]any)
	var first map[string]any
	if len(sessions) > 0 {
		first, _ = sessions[0].(map[string]any)
	}
	t.check("session titled from first message", code == http.StatusOK && len(sessions) == 1 && first["title"] == "Mình bị mất ngủ mấy hôm nay")

	code, body, _ = call(http.MethodGet, path+"/messages", token, nil)
	messages, _ := body["messages"].([]any)
	t.check("messages listed in order", code == http.StatusOK && len(messages) == 2)

	code, _, _ = call(http.MethodDelete, path, token, nil)
	t.check("session deleted", code == http.StatusOK)

	code, _, _ = call(http.MethodGet, path+"/messages", token, nil)
	t.check("deleted session is gone", code == http.StatusNotFound)
}

func scenarioBooking(t *T) {
	if clinicUsername == "" {
		fmt.Println("    SKIP: CLINIC_USERNAME not set")
		return
	}
	code, body, _ := call(http.MethodPost, "/clinic/login", "", map[string]string{"username": clinicUsername, "password": clinicPassword})
	clinicToken, _ := body["token"].(string)
	profile, _ := body["clinic"].(map[string]any)
	clinicID, _ := profile["clinicId"].(float64)
	if code != http.StatusOK || clinicToken == "" {
		t.fatalf("clinic login: code=%d body=%v", code, body)
		return
	}

	token := newUser(t)
	if token == "" {
		return
	}

	code, body, _ = call(http.MethodPost, "/booking", token, map[string]any{
		"name": "Minh", "phone": "0912345678", "age": 27, "address": "Hoàn Kiếm, Hà Nội",
		"timeslot": "09:00 - 10:00", "date": time.Now().AddDate(0, 0, 3).Format("2006-01-02"),
		"clinicId": int64(clinicID),
	})
	booking, _ := body["booking"].(map[string]any)
	bookingID, _ := booking["id"].(float64)
	t.check("booking created pending", code == http.StatusOK && booking["status"] == "pending")

	code, _, _ = call(http.MethodPost, "/booking", token, map[string]any{"name": "Minh", "phone": "123", "clinicId": int64(clinicID)})
	t.check("invalid phone rejected", code == http.StatusBadRequest)

	statusPath := fmt.Sprintf("/clinic/bookings/%d/status", int64(bookingID))
	code, _, _ = call(http.MethodPut, statusPath, clinicToken, map[string]string{"status": "approved"})
	t.check("clinic approves booking", code == http.StatusOK)

	code, _, _ = call(http.MethodPut, statusPath, token, map[string]string{"status": "completed"})
	t.check("user token cannot reach clinic routes", code == http.StatusUnauthorized)

	code, _, _ = call(http.MethodPost, "/clinic/medical-records", clinicToken, map[string]any{
		"bookingId": int64(bookingID), "doctorName": "BS. Hạnh", "diagnosis": "Rối loạn lo âu",
		"severity": "mild", "recommendations": "Tập thở 10 phút mỗi tối",
	})
	t.check("medical record filed", code == http.StatusOK)

	code, _, _ = call(http.MethodPost, "/clinic/medical-records", clinicToken, map[string]any{
		"bookingId": int64(bookingID), "diagnosis": "lặp lại",
	})
	t.check("second record rejected", code == http.StatusConflict)

	code, body, _ = call(http.MethodGet, "/user/medical-records", token, nil)
	records, _ := body["records"].([]any)
	t.check("user sees record", code == http.StatusOK && len(records) == 1)

	code, body, _ = call(http.MethodGet, "/clinic/stats", clinicToken, nil)
	t.check("clinic stats available", code == http.StatusOK && body["stats"] != nil)
}

func scenarioExtras(t *T) {
	code, body, _ := call(http.MethodGet, "/goodthoughts", "", nil)
	t.check("good thought served", code == http.StatusOK && body["joketext"] != nil)

	code, body, _ = call(http.MethodPost, "/tts", "", map[string]string{"text": "Xin chào, mình là WellBot", "voiceType": "warm"})
	switch code {
	case http.StatusNotFound:
		fmt.Println("    SKIP: /tts not enabled")
	default:
		t.check("speech synthesized", code == http.StatusOK && body["audioContent"] != nil)
	}

	code, _, _ = call(http.MethodPost, "/tts", "", map[string]string{})
	t.check("missing text rejected", code == http.StatusBadRequest || code == http.StatusNotFound)
}

func main() {
	apiBase = strings.TrimRight(os.Getenv("API_BASE_URL"), "/")
	if apiBase == "" {
		apiBase = "http://localhost:4000"
	}
	clinicUsername = os.Getenv("CLINIC_USERNAME")
	clinicPassword = os.Getenv("CLINIC_PASSWORD")

	scenarios := []scenario{
		{Name: "accounts", Fn: scenarioAccounts},
		{Name: "chat", Fn: scenarioChat},
		{Name: "chat-sessions", Fn: scenarioChatSessions},
		{Name: "booking", Fn: scenarioBooking},
		{Name: "extras", Fn: scenarioExtras},
	}

	only := ""
	if len(os.Args) > 1 {
		only = os.Args[1]
	}

	totalPassed, totalFailed := 0, 0
	for _, sc := range scenarios {
		if only != "" && sc.Name != only {
			continue
		}
		fmt.Printf("\n=== %s ===\n", sc.Name)
		t := &T{}
		sc.Fn(t)
		totalPassed += t.passed
		totalFailed += t.failed
	}

	fmt.Printf("\n%d passed, %d failed\n", totalPassed, totalFailed)
	if totalFailed > 0 {
		os.Exit(1)
	}
}
