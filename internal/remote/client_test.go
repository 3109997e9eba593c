package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	client := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key"})
	return client, srv
}

func TestUnreadMessages(t *testing.T) {
	var gotPath, gotAuth, gotAPIKey string
	var gotQuery map[string][]string

	client, srv := testClient(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		gotAuth = r.Header.Get("Authorization")
		gotAPIKey = r.Header.Get("apikey")

		json.NewEncoder(w).Encode([]Message{
			{ID: 2, SenderID: "alice", ReceiverID: "bob", Content: "hi", CreatedAt: "2025-03-10T10:00:00"},
			{ID: 1, SenderID: "alice", ReceiverID: "bob", Content: "hello", CreatedAt: "2025-03-10T09:00:00"},
		})
	})
	defer srv.Close()

	messages, err := client.UnreadMessages(context.Background(), "bob")
	if err != nil {
		t.Fatalf("unread messages: %v", err)
	}

	if gotPath != "/rest/v1/messages" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("unexpected auth header %q", gotAuth)
	}
	if gotAPIKey != "test-key" {
		t.Errorf("unexpected apikey header %q", gotAPIKey)
	}

	checks := map[string]string{
		"receiver_id": "eq.bob",
		"is_read":     "eq.false",
		"sender_id":   "neq.bob",
		"order":       "created_at.desc",
	}
	for key, want := range checks {
		if got := gotQuery[key]; len(got) != 1 || got[0] != want {
			t.Errorf("query %s = %v, want %q", key, got, want)
		}
	}

	if len(messages) != 2 || messages[0].ID != 2 {
		t.Errorf("unexpected messages: %+v", messages)
	}
}

func TestMarkMessageRead(t *testing.T) {
	var gotMethod, gotID string
	var gotBody map[string]bool

	client, srv := testClient(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotID = r.URL.Query().Get("id")
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotBody)
		w.WriteHeader(http.StatusNoContent)
	})
	defer srv.Close()

	if err := client.MarkMessageRead(context.Background(), 42); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	if gotMethod != http.MethodPatch {
		t.Errorf("expected PATCH, got %s", gotMethod)
	}
	if gotID != "eq.42" {
		t.Errorf("unexpected id filter %q", gotID)
	}
	if !gotBody["is_read"] {
		t.Errorf("expected is_read=true body, got %v", gotBody)
	}
}

func TestDeleteReadMessages(t *testing.T) {
	var gotMethod, gotPath string
	var gotQuery map[string][]string

	client, srv := testClient(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.WriteHeader(http.StatusNoContent)
	})
	defer srv.Close()

	cutoff := time.Date(2025, 3, 9, 12, 0, 0, 0, time.Local)
	if err := client.DeleteReadMessages(context.Background(), "bob", cutoff); err != nil {
		t.Fatalf("delete read messages: %v", err)
	}

	if gotMethod != http.MethodDelete {
		t.Errorf("expected DELETE, got %s", gotMethod)
	}
	if gotPath != "/rest/v1/messages" {
		t.Errorf("unexpected path %q", gotPath)
	}

	checks := map[string]string{
		"user_id":    "eq.bob",
		"is_read":    "eq.true",
		"created_at": "lt.2025-03-09T12:00:00",
	}
	for key, want := range checks {
		if got := gotQuery[key]; len(got) != 1 || got[0] != want {
			t.Errorf("query %s = %v, want %q", key, got, want)
		}
	}
}

func TestTodayPendingTasks(t *testing.T) {
	var gotQuery map[string][]string

	client, srv := testClient(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode([]Task{{ID: 1, Title: "写周报", Deadline: "2025-03-10T18:00:00"}})
	})
	defer srv.Close()

	dayStart := time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local)
	tasks, err := client.TodayPendingTasks(context.Background(), "bob", dayStart)
	if err != nil {
		t.Fatalf("pending tasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "写周报" {
		t.Errorf("unexpected tasks: %+v", tasks)
	}

	if got := gotQuery["or"]; len(got) != 1 || got[0] != "(assignee.ilike.%bob%,assignee.eq.bob)" {
		t.Errorf("unexpected assignee filter %v", got)
	}
	if got := gotQuery["completed"]; len(got) != 1 || got[0] != "eq.false" {
		t.Errorf("unexpected completed filter %v", got)
	}

	deadlines := gotQuery["deadline"]
	if len(deadlines) != 2 {
		t.Fatalf("expected two deadline filters, got %v", deadlines)
	}
	if deadlines[0] != "gte.2025-03-10T00:00:00" || deadlines[1] != "lt.2025-03-11T00:00:00" {
		t.Errorf("unexpected deadline bounds %v", deadlines)
	}
}

func TestUpcomingDeadlineTasks(t *testing.T) {
	var gotQuery map[string][]string

	client, srv := testClient(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode([]Task{})
	})
	defer srv.Close()

	now := time.Date(2025, 3, 10, 17, 30, 0, 0, time.Local)
	if _, err := client.UpcomingDeadlineTasks(context.Background(), "bob", now, time.Hour); err != nil {
		t.Fatalf("upcoming tasks: %v", err)
	}

	deadlines := gotQuery["deadline"]
	if len(deadlines) != 2 {
		t.Fatalf("expected two deadline filters, got %v", deadlines)
	}
	if deadlines[0] != "gte.2025-03-10T17:30:00" || deadlines[1] != "lte.2025-03-10T18:30:00" {
		t.Errorf("unexpected deadline bounds %v", deadlines)
	}
}

func TestOverdueTasks(t *testing.T) {
	var gotQuery map[string][]string

	client, srv := testClient(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode([]Task{})
	})
	defer srv.Close()

	now := time.Date(2025, 3, 10, 17, 30, 0, 0, time.Local)
	if _, err := client.OverdueTasks(context.Background(), "bob", now); err != nil {
		t.Fatalf("overdue tasks: %v", err)
	}

	if got := gotQuery["deadline"]; len(got) != 1 || got[0] != "lt.2025-03-10T17:30:00" {
		t.Errorf("unexpected deadline filter %v", got)
	}
}

func TestDailyTaskExists(t *testing.T) {
	var gotQuery map[string][]string

	client, srv := testClient(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode([]map[string]int64{{"id": 7}})
	})
	defer srv.Close()

	dayStart := time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local)
	exists, err := client.DailyTaskExists(context.Background(), "上班打卡", "bob", dayStart)
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !exists {
		t.Error("expected task to exist")
	}

	if got := gotQuery["select"]; len(got) != 1 || got[0] != "id" {
		t.Errorf("unexpected select %v", got)
	}
	if got := gotQuery["title"]; len(got) != 1 || got[0] != "eq.上班打卡" {
		t.Errorf("unexpected title filter %v", got)
	}

	created := gotQuery["created_at"]
	if len(created) != 2 || created[0] != "gte.2025-03-10T00:00:00" || created[1] != "lt.2025-03-11T00:00:00" {
		t.Errorf("unexpected created_at bounds %v", created)
	}
}

func TestDailyTaskExistsEmpty(t *testing.T) {
	client, srv := testClient(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]int64{})
	})
	defer srv.Close()

	exists, err := client.DailyTaskExists(context.Background(), "上班打卡", "bob", time.Now())
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists {
		t.Error("expected task not to exist")
	}
}

func TestCreateTask(t *testing.T) {
	var gotMethod, gotPrefer string
	var gotTask Task

	client, srv := testClient(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPrefer = r.Header.Get("Prefer")
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotTask)
		w.WriteHeader(http.StatusCreated)
	})
	defer srv.Close()

	task := Task{
		Title:       "上班打卡",
		Assignee:    "bob",
		Priority:    "high",
		Category:    "work",
		Deadline:    "2025-03-10T09:50:00",
		Status:      "pending",
		IsDailyTodo: true,
	}
	if err := client.CreateTask(context.Background(), task); err != nil {
		t.Fatalf("create task: %v", err)
	}

	if gotMethod != http.MethodPost {
		t.Errorf("expected POST, got %s", gotMethod)
	}
	if gotPrefer != "return=minimal" {
		t.Errorf("unexpected Prefer header %q", gotPrefer)
	}
	if gotTask.Title != "上班打卡" || !gotTask.IsDailyTodo {
		t.Errorf("unexpected task body: %+v", gotTask)
	}
}

func TestStoreError(t *testing.T) {
	client, srv := testClient(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"permission denied"}`, http.StatusForbidden)
	})
	defer srv.Close()

	if _, err := client.UnreadMessages(context.Background(), "bob"); err == nil {
		t.Fatal("expected error on 403")
	}
}

func TestIsConfigured(t *testing.T) {
	if NewClient(Config{}).IsConfigured() {
		t.Error("empty config should not be configured")
	}
	if !NewClient(Config{BaseURL: "https://x", APIKey: "k"}).IsConfigured() {
		t.Error("expected configured client")
	}
}
