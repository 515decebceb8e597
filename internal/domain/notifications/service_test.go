package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/NguyenToan3107/hrm-backend/internal/domain/balance"
	"github.com/NguyenToan3107/hrm-backend/internal/domain/employee"
)

type fakeSender struct {
	payloads []Payload
	members  map[string]string
}

func (f *fakeSender) Post(ctx context.Context, payload Payload) error {
	f.payloads = append(f.payloads, payload)
	return nil
}

func (f *fakeSender) MemberIDByEmail(ctx context.Context, email string) (string, error) {
	return f.members[email], nil
}

func TestBatchSummaryBlocks(t *testing.T) {
	sender := &fakeSender{members: map[string]string{"jane@example.com": "U123"}}
	svc := NewService(sender)

	changes := []employee.BalanceChange{
		{
			IDKey:    "EMP001",
			FullName: "Jane Doe",
			Email:    "jane@example.com",
			Before:   balance.Balance{CurrentYear: 16, LastYear: 8},
			After:    balance.Balance{CurrentYear: 24, LastYear: 8},
		},
		{
			IDKey:    "EMP002",
			FullName: "No Slack",
			Email:    "missing@example.com",
			Before:   balance.Balance{CurrentYear: 0},
			After:    balance.Balance{CurrentYear: 8},
		},
	}

	if err := svc.BatchSummary(context.Background(), "Monthly grant", changes); err != nil {
		t.Fatalf("batch summary: %v", err)
	}
	if len(sender.payloads) != 1 {
		t.Fatalf("expected one payload, got %d", len(sender.payloads))
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(sender.payloads[0]); err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	body := buf.String()

	for _, want := range []string{"Monthly grant", "<@U123>", "EMP001", "*No Slack*", "16h / 8h carried"} {
		if !strings.Contains(body, want) {
			t.Errorf("payload missing %q:\n%s", want, body)
		}
	}
}

func TestBatchSummaryEmpty(t *testing.T) {
	sender := &fakeSender{}
	svc := NewService(sender)

	if err := svc.BatchSummary(context.Background(), "Carry-over reset", nil); err != nil {
		t.Fatalf("batch summary: %v", err)
	}

	raw, _ := json.Marshal(sender.payloads[0])
	if !strings.Contains(string(raw), "No employees affected") {
		t.Errorf("expected empty notice, got %s", raw)
	}
}
