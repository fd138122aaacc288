package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Type string

const (
	TypeAdd       Type = "add"
	TypeDone      Type = "done"
	TypeProgress  Type = "progress"
	TypeDelete    Type = "delete"
	TypeDuplicate Type = "dup"
	TypePlan      Type = "plan"
	TypeGoal      Type = "goal"
	TypeScan      Type = "scan"
	TypeWeekly    Type = "weekly"
	TypeAI        Type = "ai"
	TypeJournal   Type = "journal"
	TypeCard      Type = "card"
	TypeReload    Type = "reload"
)

// Types lists every command in help order.
var Types = []Type{TypeAdd, TypeDone, TypeProgress, TypeDelete, TypeDuplicate, TypePlan, TypeGoal, TypeScan, TypeWeekly, TypeAI, TypeJournal, TypeCard, TypeReload}

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalid(format string, args ...any) error {
	return &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// AddArgs carries the title plus optional q:, due: and cat: options.
// Quadrant and Category stay raw; the handler parses them.
type AddArgs struct {
	Title    string
	Quadrant string
	Category string
	Due      *time.Time
}

// TargetArgs names a todo by list number or id prefix.
type TargetArgs struct {
	Target string
}

type ProgressArgs struct {
	Target string
	Delta  float64
}

type GoalArgs struct {
	Daily int
}

type AIArgs struct {
	Enabled bool
}

type JournalArgs struct {
	Text string
}

// CardArgs adds a subtask card to the selected todo.
type CardArgs struct {
	Title string
}

type Command struct {
	Type     Type
	Raw      string
	Add      *AddArgs
	Target   *TargetArgs
	Progress *ProgressArgs
	Goal     *GoalArgs
	AI       *AIArgs
	Journal  *JournalArgs
	Card     *CardArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeAdd:
		return parseAdd(input, args)
	case TypeDone, TypeDelete, TypeDuplicate, TypePlan:
		return parseTarget(input, Type(head), args)
	case TypeProgress:
		return parseProgress(input, args)
	case TypeGoal:
		return parseGoal(input, args)
	case TypeAI:
		return parseAI(input, args)
	case TypeJournal:
		text := strings.TrimSpace(strings.Join(args, " "))
		if text == "" {
			return Command{}, invalid("journal requires a note")
		}
		return Command{Type: TypeJournal, Raw: input, Journal: &JournalArgs{Text: text}}, nil
	case TypeCard:
		title := strings.TrimSpace(strings.Join(args, " "))
		if title == "" {
			return Command{}, invalid("card requires a title")
		}
		return Command{Type: TypeCard, Raw: input, Card: &CardArgs{Title: title}}, nil
	case TypeScan, TypeWeekly, TypeReload:
		return Command{Type: Type(head), Raw: input}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseAdd(raw string, args []string) (Command, error) {
	out := AddArgs{}
	var title []string
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, ":")
		switch {
		case ok && strings.EqualFold(key, "q"):
			out.Quadrant = value
		case ok && strings.EqualFold(key, "cat"):
			out.Category = value
		case ok && strings.EqualFold(key, "due"):
			due, err := time.Parse(time.DateOnly, value)
			if err != nil {
				return Command{}, invalid("due must be YYYY-MM-DD, got %q", value)
			}
			out.Due = &due
		default:
			title = append(title, arg)
		}
	}
	out.Title = strings.TrimSpace(strings.Join(title, " "))
	if out.Title == "" {
		return Command{}, invalid("add requires a title")
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &out}, nil
}

func parseTarget(raw string, typ Type, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("%s requires exactly one todo", typ)
	}
	return Command{Type: typ, Raw: raw, Target: &TargetArgs{Target: args[0]}}, nil
}

func parseProgress(raw string, args []string) (Command, error) {
	if len(args) != 2 {
		return Command{}, invalid("progress requires a todo and an amount")
	}
	delta, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return Command{}, invalid("progress amount must be a number, got %q", args[1])
	}
	return Command{Type: TypeProgress, Raw: raw, Progress: &ProgressArgs{Target: args[0], Delta: delta}}, nil
}

func parseGoal(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("goal requires a number")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return Command{}, invalid("goal must be a whole number, got %q", args[0])
	}
	return Command{Type: TypeGoal, Raw: raw, Goal: &GoalArgs{Daily: n}}, nil
}

func parseAI(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("ai requires on or off")
	}
	switch strings.ToLower(args[0]) {
	case "on":
		return Command{Type: TypeAI, Raw: raw, AI: &AIArgs{Enabled: true}}, nil
	case "off":
		return Command{Type: TypeAI, Raw: raw, AI: &AIArgs{Enabled: false}}, nil
	default:
		return Command{}, invalid("ai requires on or off, got %q", args[0])
	}
}
