package telegramapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/quailyquaily/tgrelay/internal/delivery"
	"github.com/quailyquaily/tgrelay/internal/telegramutil"
)

func newSendMessageServer(t *testing.T, handle func(n int, req SendMessageRequest) (int, string)) (*httptest.Server, *[]SendMessageRequest) {
	t.Helper()
	var reqs []SendMessageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/sendMessage") {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			return
		}
		raw, _ := io.ReadAll(r.Body)
		var req SendMessageRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		reqs = append(reqs, req)
		status, body := handle(len(reqs), req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &reqs
}

func TestSend_PassesParseModeAndReply(t *testing.T) {
	srv, reqs := newSendMessageServer(t, func(int, SendMessageRequest) (int, string) {
		return http.StatusOK, `{"ok":true,"result":{"message_id":1}}`
	})

	api := New(srv.Client(), srv.URL, "TOKEN")
	to := delivery.Recipient{ChatID: 1001, ThreadID: 9, ReplyToMessageID: 7788, DisablePreview: true}
	if err := api.Send(context.Background(), to, "hello\\-world", delivery.DialectMarkdownV2); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(*reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(*reqs))
	}
	got := (*reqs)[0]
	if got.ChatID != 1001 || got.MessageThreadID != 9 || got.ReplyToMessageID != 7788 || !got.DisableWebPagePreview {
		t.Fatalf("unexpected request: %+v", got)
	}
	if got.ParseMode != "MarkdownV2" || got.Text != "hello\\-world" {
		t.Fatalf("unexpected text/parse_mode: %q %q", got.Text, got.ParseMode)
	}
}

func TestSend_ParseErrorIsRejection(t *testing.T) {
	srv, _ := newSendMessageServer(t, func(int, SendMessageRequest) (int, string) {
		return http.StatusBadRequest, `{"ok":false,"error_code":400,"description":"Bad Request: can't parse entities: Character '-' is reserved and must be escaped"}`
	})

	api := New(srv.Client(), srv.URL, "TOKEN")
	err := api.Send(context.Background(), delivery.Recipient{ChatID: 1}, "hello-world", delivery.DialectMarkdownV2)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !delivery.IsRejected(err) {
		t.Fatalf("parse errors should be rejections: %v", err)
	}
	if !IsMarkdownParseError(err) {
		t.Fatalf("expected markdown parse error: %v", err)
	}
}

func TestSend_UnauthorizedIsNotRejection(t *testing.T) {
	srv, _ := newSendMessageServer(t, func(int, SendMessageRequest) (int, string) {
		return http.StatusUnauthorized, `{"ok":false,"error_code":401,"description":"Unauthorized"}`
	})

	api := New(srv.Client(), srv.URL, "TOKEN")
	err := api.Send(context.Background(), delivery.Recipient{ChatID: 1}, "hello", delivery.DialectMarkdownV2)
	if err == nil {
		t.Fatalf("expected error")
	}
	if delivery.IsRejected(err) {
		t.Fatalf("401 must not be treated as a markup rejection: %v", err)
	}
	var reqErr *RequestError
	if !errors.As(err, &reqErr) || reqErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected RequestError with 401, got %v", err)
	}
}

func TestDeliverer_FallbackToPlainOverHTTP(t *testing.T) {
	srv, reqs := newSendMessageServer(t, func(_ int, req SendMessageRequest) (int, string) {
		if req.ParseMode != "" {
			return http.StatusBadRequest, `{"ok":false,"error_code":400,"description":"Bad Request: can't parse entities"}`
		}
		return http.StatusOK, `{"ok":true}`
	})

	api := New(srv.Client(), srv.URL, "TOKEN")
	d := delivery.New(api, delivery.Options{})
	report, err := d.RenderAndDeliver(context.Background(), delivery.Recipient{ChatID: 1001}, "hello-world")
	if err != nil {
		t.Fatalf("RenderAndDeliver() error = %v", err)
	}
	if len(*reqs) != 3 {
		t.Fatalf("expected 3 send attempts, got %d", len(*reqs))
	}
	modes := []string{(*reqs)[0].ParseMode, (*reqs)[1].ParseMode, (*reqs)[2].ParseMode}
	if modes[0] != "MarkdownV2" || modes[1] != "MarkdownV2" || modes[2] != "" {
		t.Fatalf("unexpected parse_mode attempts: %#v", modes)
	}
	if (*reqs)[0].Text != "hello\\-world" {
		t.Fatalf("first attempt should be converted MarkdownV2: %q", (*reqs)[0].Text)
	}
	if (*reqs)[2].Text != "hello-world" {
		t.Fatalf("plain-text fallback should use the source text: %q", (*reqs)[2].Text)
	}
	if report.Chunks[0].Tier != "plain" {
		t.Fatalf("unexpected tier: %q", report.Chunks[0].Tier)
	}
}

func TestGetUpdates_AdvancesOffset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/getUpdates") {
			t.Errorf("unexpected path: %s", r.URL.Path)
			return
		}
		raw, _ := io.ReadAll(r.Body)
		var req getUpdatesRequest
		_ = json.Unmarshal(raw, &req)
		if req.Offset != 10 || req.Timeout != 1 {
			t.Errorf("unexpected request: %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":[
			{"update_id":10,"message":{"message_id":1,"chat":{"id":5,"type":"private"},"from":{"id":77,"first_name":"Ann"},"text":"hi"}},
			{"update_id":12,"my_chat_member":{"chat":{"id":-100,"type":"group"},"from":{"id":88},
				"old_chat_member":{"status":"left"},"new_chat_member":{"status":"member"}}}
		]}`))
	}))
	defer srv.Close()

	api := New(srv.Client(), srv.URL, "TOKEN")
	updates, next, err := api.GetUpdates(context.Background(), 10, time.Second)
	if err != nil {
		t.Fatalf("GetUpdates() error = %v", err)
	}
	if len(updates) != 2 || next != 13 {
		t.Fatalf("unexpected updates=%d next=%d", len(updates), next)
	}
	if updates[0].Message == nil || updates[0].Message.Text != "hi" || DisplayName(updates[0].Message.From) != "Ann" {
		t.Fatalf("unexpected message: %+v", updates[0].Message)
	}
	if !updates[1].MyChatMember.Joined() {
		t.Fatalf("expected a join transition")
	}
}

func TestIsPollTimeoutError(t *testing.T) {
	t.Parallel()

	if IsPollTimeoutError(nil) {
		t.Fatalf("nil is not a timeout")
	}
	if !IsPollTimeoutError(context.DeadlineExceeded) {
		t.Fatalf("deadline exceeded should be a timeout")
	}
	if IsPollTimeoutError(errors.New("connection refused")) {
		t.Fatalf("connection refused is not a timeout")
	}
}

func TestRequestErrorMessage(t *testing.T) {
	t.Parallel()

	err := &RequestError{Method: "sendMessage", StatusCode: 400, Description: "Bad Request: message is too long"}
	if got := err.Error(); got != "telegram sendMessage: http 400: Bad Request: message is too long" {
		t.Fatalf("unexpected message: %q", got)
	}
	if !errors.Is(err, delivery.ErrMarkupRejected) {
		t.Fatalf("400 should match ErrMarkupRejected")
	}
}

func TestRequestErrorIs_OnlyMarkupProblems(t *testing.T) {
	t.Parallel()

	cases := []struct {
		desc   string
		status int
		want   bool
	}{
		{desc: "Bad Request: can't parse entities: Can't find end of Bold entity", status: 400, want: true},
		{desc: "Bad Request: message is too long", status: 400, want: true},
		{desc: "Bad Request: chat not found", status: 400, want: false},
		{desc: "Bad Request: message thread not found", status: 400, want: false},
		{desc: "Bad Request: replied message not found", status: 400, want: false},
		{desc: "Forbidden: bot was blocked by the user", status: 403, want: false},
		{desc: "Bad Request: can't parse entities", status: 500, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			err := &RequestError{Method: "sendMessage", StatusCode: tc.status, Description: tc.desc}
			if got := errors.Is(err, delivery.ErrMarkupRejected); got != tc.want {
				t.Fatalf("errors.Is(%q, ErrMarkupRejected) = %v, want %v", tc.desc, got, tc.want)
			}
		})
	}
}

func TestDeliverer_ChatNotFoundIsReturned(t *testing.T) {
	srv, reqs := newSendMessageServer(t, func(int, SendMessageRequest) (int, string) {
		return http.StatusBadRequest, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`
	})

	api := New(srv.Client(), srv.URL, "TOKEN")
	d := delivery.New(api, delivery.Options{Split: telegramutil.SplitOptions{MaxChars: 20}})
	report, err := d.RenderAndDeliver(context.Background(), delivery.Recipient{ChatID: 404}, strings.Repeat("word ", 20))
	if err == nil {
		t.Fatal("expected chat not found to be returned")
	}
	var reqErr *RequestError
	if !errors.As(err, &reqErr) || !strings.Contains(reqErr.Description, "chat not found") {
		t.Fatalf("expected RequestError for chat not found, got %v", err)
	}
	if delivery.IsRejected(err) {
		t.Fatalf("chat not found must not count as a rejection: %v", err)
	}
	if len(*reqs) != 1 {
		t.Fatalf("expected a single send attempt, got %d", len(*reqs))
	}
	if len(report.Chunks) != 1 {
		t.Fatalf("expected delivery to stop at the first chunk, got %d results", len(report.Chunks))
	}
}

func TestCall_TransportErrorRedactsToken(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	api := New(&http.Client{Timeout: 2 * time.Second}, baseURL, "123456:SECRET-token")
	_, err := api.GetMe(context.Background())
	if err == nil {
		t.Fatal("expected transport error")
	}
	if strings.Contains(err.Error(), "SECRET-token") {
		t.Fatalf("token leaked in error: %v", err)
	}
	if !strings.Contains(err.Error(), "/bot[redacted]/getMe") {
		t.Fatalf("expected redacted method path, got %v", err)
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		t.Fatalf("transport failure should not be a RequestError: %v", err)
	}
}
