package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPipelineStatsObjectPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/stats" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"success":true,"data":{"total_leads":42,"qualified_leads":17,"active_campaigns":3,"pipeline_value":125000}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", time.Second)
	stats, err := client.PipelineStats(context.Background())
	if err != nil {
		t.Fatalf("PipelineStats failed: %v", err)
	}
	if stats.TotalLeads != 42 || stats.QualifiedLeads != 17 || stats.ActiveCampaigns != 3 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestPipelineStatsStringPayload(t *testing.T) {
	// Some collaborator endpoints double-encode: data arrives as a JSON
	// string holding the real object.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		inner := `{"total_leads":7,"qualified_leads":2,"active_campaigns":1,"pipeline_value":9000}`
		body, _ := json.Marshal(map[string]interface{}{"success": true, "data": inner})
		w.Write(body)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", time.Second)
	stats, err := client.PipelineStats(context.Background())
	if err != nil {
		t.Fatalf("PipelineStats failed: %v", err)
	}
	if stats.TotalLeads != 7 || stats.PipelineValue != 9000 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestListLeads(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/records/leads" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("limit"); got != "5" {
			t.Fatalf("unexpected limit: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"success":true,"data":[{"name":"Dana","company":"Acme","status":"qualified","value":50000}]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", time.Second)
	leads, err := client.ListLeads(context.Background(), 5)
	if err != nil {
		t.Fatalf("ListLeads failed: %v", err)
	}
	if len(leads) != 1 || leads[0].Company != "Acme" {
		t.Fatalf("unexpected leads: %+v", leads)
	}
}

func TestSendNotification(t *testing.T) {
	var gotChannel, gotText string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/notify" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		gotChannel, gotText = req["channel"], req["text"]
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"success":true}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", time.Second)
	if err := client.SendNotification(context.Background(), "#ops", "deal closed"); err != nil {
		t.Fatalf("SendNotification failed: %v", err)
	}
	if gotChannel != "#ops" || gotText != "deal closed" {
		t.Fatalf("unexpected notification: %q %q", gotChannel, gotText)
	}
}

func TestEnvelopeFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"success":false,"error":"webhook disabled"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", time.Second)
	err := client.SendNotification(context.Background(), "#ops", "x")
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", time.Second)
	_, err := client.PipelineStats(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestHealthWithoutEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/health" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"healthy":true,"services":{"db":"up","webhooks":"up"}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", time.Second)
	status, err := client.Health(context.Background())
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if !status.Healthy || status.Services["db"] != "up" {
		t.Fatalf("unexpected status: %+v", status)
	}
}
