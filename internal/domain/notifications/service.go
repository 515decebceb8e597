package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/NguyenToan3107/hrm-backend/internal/domain/employee"
	"github.com/NguyenToan3107/hrm-backend/internal/domain/leave"
)

// Sender delivers Slack payloads. The platform layer provides a webhook
// implementation and a noop when Slack is not configured.
type Sender interface {
	Post(ctx context.Context, payload Payload) error
	MemberIDByEmail(ctx context.Context, email string) (string, error)
}

type Service struct {
	sender Sender
}

func NewService(sender Sender) *Service {
	return &Service{sender: sender}
}

// LeaveEvent announces a lifecycle transition in the team channel. Delivery
// runs off the request path; failures are logged and dropped.
func (s *Service) LeaveEvent(ctx context.Context, event string, emp employee.Employee, lv leave.Leave) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		payload := Payload{
			Text: fmt.Sprintf("Leave %s: %s", event, lv.SeqKey),
			Blocks: []Block{
				header(fmt.Sprintf("Leave %s", event)),
				section(fmt.Sprintf("%s %s", s.mention(ctx, emp), lv.Title)),
				fields(
					"*Request*\n"+lv.SeqKey,
					"*Date*\n"+lv.Date.Format("02/01/2006"),
					"*Shift*\n"+lv.Shift.String(),
					"*Reason*\n"+truncate(lv.Reason, 100),
				),
			},
		}
		if err := s.sender.Post(ctx, payload); err != nil {
			slog.Warn("slack notification failed", "event", event, "leave", lv.SeqKey, "err", err)
		}
	}()
}

// BatchSummary posts the before/after rows produced by a balance batch run.
func (s *Service) BatchSummary(ctx context.Context, title string, changes []employee.BalanceChange) error {
	blocks := []Block{header(title)}
	if len(changes) == 0 {
		blocks = append(blocks, section("No employees affected."))
	}

	var lines []string
	for _, ch := range changes {
		lines = append(lines, fmt.Sprintf("%s `%s`: %gh / %gh carried → %gh / %gh carried",
			s.mention(ctx, employee.Employee{Email: ch.Email, FullName: ch.FullName}),
			ch.IDKey,
			ch.Before.CurrentYear, ch.Before.LastYear,
			ch.After.CurrentYear, ch.After.LastYear))

		// Slack caps section text at 3000 chars; flush in modest chunks.
		if len(lines) == 20 {
			blocks = append(blocks, section(strings.Join(lines, "\n")))
			lines = nil
		}
	}
	if len(lines) > 0 {
		blocks = append(blocks, section(strings.Join(lines, "\n")))
	}
	blocks = append(blocks, divider())

	return s.sender.Post(ctx, Payload{Text: title, Blocks: blocks})
}

// mention resolves a Slack @-mention for the employee, falling back to the
// display name when the workspace lookup fails.
func (s *Service) mention(ctx context.Context, emp employee.Employee) string {
	memberID, err := s.sender.MemberIDByEmail(ctx, emp.Email)
	if err != nil || memberID == "" {
		return "*" + emp.FullName + "*"
	}
	return "<@" + memberID + ">"
}

func truncate(text string, max int) string {
	if text == "" {
		return "-"
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
