package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sandeepkv93/gerris/internal/model"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("GERRIS_AI_ENABLED", "false")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("BREVO_API_KEY", "")
	t.Setenv("BREVO_SENDER", "")
	t.Setenv("REMINDER_RECIPIENT_EMAIL", "")
	t.Setenv("GERRIS_STORAGE_BACKEND", "")
	return filepath.Join(dir, "gerris_state.json")
}

func run(t *testing.T, statePath string, args ...string) (string, error) {
	t.Helper()
	cmd := New()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--state", statePath}, args...))
	err := cmd.ExecuteContext(testContext(t))
	return out.String(), err
}

func mustRun(t *testing.T, statePath string, args ...string) string {
	t.Helper()
	out, err := run(t, statePath, args...)
	if err != nil {
		t.Fatalf("gerris %v: %v\n%s", args, err, out)
	}
	return out
}

func TestAddListAndComplete(t *testing.T) {
	state := isolate(t)
	out := mustRun(t, state, "add", "Update", "resume", "--quadrant", "q2", "--category", "job_search")
	if !strings.Contains(out, "added") || !strings.Contains(out, "Update resume") {
		t.Fatalf("unexpected add output: %q", out)
	}

	out = mustRun(t, state, "list")
	if !strings.Contains(out, "Update resume") || !strings.Contains(out, "Job search") {
		t.Fatalf("expected todo in list: %q", out)
	}
	fields := strings.Fields(strings.Split(strings.TrimSpace(out), "\n")[1])
	id := fields[0]

	out = mustRun(t, state, "done", id)
	if !strings.Contains(out, "done: Update resume") {
		t.Fatalf("unexpected done output: %q", out)
	}
	if out = mustRun(t, state, "list"); strings.Contains(out, "Update resume") {
		t.Fatalf("completed todo should be hidden: %q", out)
	}
	if out = mustRun(t, state, "list", "--all"); !strings.Contains(out, "Update resume") {
		t.Fatalf("expected completed todo with --all: %q", out)
	}

	out = mustRun(t, state, "stats")
	if !strings.Contains(out, "1/") || !strings.Contains(out, "Streak") {
		t.Fatalf("unexpected stats: %q", out)
	}
}

func TestAddRejectsBadFlags(t *testing.T) {
	state := isolate(t)
	if _, err := run(t, state, "add", "x", "--due", "tomorrow"); err == nil {
		t.Fatalf("expected bad due date error")
	}
	if _, err := run(t, state, "add", "x", "--category", "hobbies"); err == nil {
		t.Fatalf("expected bad category error")
	}
	if _, err := run(t, state, "done", "missing"); err == nil {
		t.Fatalf("expected unknown todo error")
	}
}

func TestProgressAutoCompletes(t *testing.T) {
	state := isolate(t)
	mustRun(t, state, "add", "Run", "--quadrant", "q2", "--target", "5", "--unit", "km")
	list := mustRun(t, state, "list")
	id := strings.Fields(strings.Split(strings.TrimSpace(list), "\n")[1])[0]

	out := mustRun(t, state, "progress", id, "5")
	if !strings.Contains(out, "5/5 km") || !strings.Contains(out, "(done)") {
		t.Fatalf("expected completion on target: %q", out)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	state := isolate(t)
	out := mustRun(t, state, "settings", "--mode", "badges", "--category-goal", "admin=3", "--recipient", "me@example.com")
	if !strings.Contains(out, "badges") || !strings.Contains(out, "3/day") || !strings.Contains(out, "me@example.com") {
		t.Fatalf("unexpected settings: %q", out)
	}
	if _, err := run(t, state, "settings", "--mode", "confetti"); err == nil {
		t.Fatalf("expected invalid mode error")
	}
	if _, err := run(t, state, "settings", "--ai", "maybe"); err == nil {
		t.Fatalf("expected invalid ai toggle error")
	}
}

func TestJournalWriteShowAlign(t *testing.T) {
	state := isolate(t)
	mustRun(t, state, "add", "Send", "applications", "--quadrant", "q1", "--category", "job_search")
	mustRun(t, state, "journal", "write", "--date", "2025-05-05", "Sent", "two", "applications", "today", "--mood", "calm", "--gratitude", "coffee")

	out := mustRun(t, state, "journal", "show", "--date", "2025-05-05")
	if !strings.Contains(out, "Sent two applications today") || !strings.Contains(out, "coffee") {
		t.Fatalf("unexpected entry: %q", out)
	}

	out = mustRun(t, state, "journal", "align", "--date", "2025-05-05", "--apply")
	if !strings.Contains(out, "source: fallback") || !strings.Contains(out, "applied:") {
		t.Fatalf("unexpected alignment: %q", out)
	}

	if _, err := run(t, state, "journal", "show", "--date", "2025-01-01"); err == nil {
		t.Fatalf("expected missing entry error")
	}
}

func TestSuggestFallsBackWithoutAI(t *testing.T) {
	state := isolate(t)
	out := mustRun(t, state, "suggest", "quadrant", "urgent", "tax", "filing")
	if !strings.Contains(out, "source: fallback") {
		t.Fatalf("expected fallback source: %q", out)
	}
	out = mustRun(t, state, "suggest", "goals")
	if !strings.Contains(out, "daily goal:") {
		t.Fatalf("unexpected goals: %q", out)
	}
}

func TestCoachWeeklyOncePerWeek(t *testing.T) {
	state := isolate(t)
	mustRun(t, state, "coach", "weekly")
	out := mustRun(t, state, "coach", "weekly")
	if !strings.Contains(out, "already delivered") {
		t.Fatalf("expected second weekly review to be skipped: %q", out)
	}
}

func TestMilestonePlanAndMove(t *testing.T) {
	state := isolate(t)
	mustRun(t, state, "add", "Launch", "portfolio", "--quadrant", "q2")
	list := mustRun(t, state, "list")
	id := strings.Fields(strings.Split(strings.TrimSpace(list), "\n")[1])[0]

	out := mustRun(t, state, "milestone", "plan", id)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 3 {
		t.Fatalf("expected planned milestones: %q", out)
	}
	msID := strings.Fields(lines[1])[0]
	out = mustRun(t, state, "milestone", "move", id, msID)
	if !strings.Contains(out, "doing") {
		t.Fatalf("expected milestone in doing: %q", out)
	}
}

func TestInfoSQLiteSections(t *testing.T) {
	state := isolate(t)
	mustRun(t, state, "--backend", "sqlite", "add", "Pay", "rent", "--quadrant", "q1")
	out := mustRun(t, state, "--backend", "sqlite", "info")
	if !strings.Contains(out, "sqlite:") || !strings.Contains(out, "Section") || !strings.Contains(out, "Changed") {
		t.Fatalf("unexpected info: %q", out)
	}
}

func TestRemindRequiresBrevo(t *testing.T) {
	state := isolate(t)
	if _, err := run(t, state, "remind", "--once"); err == nil {
		t.Fatalf("expected missing brevo config error")
	}
}

func TestCardBoard(t *testing.T) {
	state := isolate(t)
	mustRun(t, state, "add", "Move", "flat", "--quadrant", "q1")
	list := mustRun(t, state, "list")
	id := strings.Fields(strings.Split(strings.TrimSpace(list), "\n")[1])[0]

	out := mustRun(t, state, "card", "add", id, "Book", "van", "--notes", "for saturday")
	if !strings.Contains(out, "Book van: backlog") {
		t.Fatalf("unexpected card add output: %q", out)
	}
	cardID := strings.Fields(out)[1]

	mustRun(t, state, "card", "move", id, cardID)
	out = mustRun(t, state, "card", "move", id, cardID)
	if !strings.Contains(out, "Book van: done") {
		t.Fatalf("expected card in done: %q", out)
	}
	out = mustRun(t, state, "card", "list", id)
	if !strings.Contains(out, "Book van") || !strings.Contains(out, "1/1 done") {
		t.Fatalf("unexpected board: %q", out)
	}
	out = mustRun(t, state, "card", "move", id, cardID, "--back")
	if !strings.Contains(out, "Book van: doing") {
		t.Fatalf("expected card back in doing: %q", out)
	}
	if _, err := run(t, state, "card", "move", id, "zzzz"); err == nil {
		t.Fatalf("expected unknown card error")
	}
}

func TestOpenNamesUnknownStoredValue(t *testing.T) {
	state := isolate(t)
	doc := `{"todos": [{"id": "t1", "title": "Legacy", "quadrant": "someday"}]}`
	if err := os.WriteFile(state, []byte(doc), 0o644); err != nil {
		t.Fatalf("write state: %v", err)
	}
	_, err := run(t, state, "list")
	if err == nil || !errors.Is(err, model.ErrUnknownQuadrant) {
		t.Fatalf("expected unknown quadrant error, got %v", err)
	}
	if !strings.Contains(err.Error(), "unknown value") || !strings.Contains(err.Error(), "someday") {
		t.Fatalf("error should name the stored value: %v", err)
	}
}
