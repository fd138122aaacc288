package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Add       func(AddArgs) (Result, error)
	Done      func(TargetArgs) (Result, error)
	Progress  func(ProgressArgs) (Result, error)
	Delete    func(TargetArgs) (Result, error)
	Duplicate func(TargetArgs) (Result, error)
	Plan      func(TargetArgs) (Result, error)
	Goal      func(GoalArgs) (Result, error)
	Scan      func() (Result, error)
	Weekly    func() (Result, error)
	AI        func(AIArgs) (Result, error)
	Journal   func(JournalArgs) (Result, error)
	Card      func(CardArgs) (Result, error)
	Reload    func() (Result, error)
}

func missing(typ Type) error {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: fmt.Sprintf("%s handler not configured", typ)}
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeAdd:
		if handlers.Add == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Add(*cmd.Add)
	case TypeDone, TypeDelete, TypeDuplicate, TypePlan:
		h := map[Type]func(TargetArgs) (Result, error){
			TypeDone:      handlers.Done,
			TypeDelete:    handlers.Delete,
			TypeDuplicate: handlers.Duplicate,
			TypePlan:      handlers.Plan,
		}[cmd.Type]
		if h == nil {
			return Result{}, missing(cmd.Type)
		}
		return h(*cmd.Target)
	case TypeProgress:
		if handlers.Progress == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Progress(*cmd.Progress)
	case TypeGoal:
		if handlers.Goal == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Goal(*cmd.Goal)
	case TypeAI:
		if handlers.AI == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.AI(*cmd.AI)
	case TypeJournal:
		if handlers.Journal == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Journal(*cmd.Journal)
	case TypeCard:
		if handlers.Card == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Card(*cmd.Card)
	case TypeScan, TypeWeekly, TypeReload:
		h := map[Type]func() (Result, error){
			TypeScan:   handlers.Scan,
			TypeWeekly: handlers.Weekly,
			TypeReload: handlers.Reload,
		}[cmd.Type]
		if h == nil {
			return Result{}, missing(cmd.Type)
		}
		return h()
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}
