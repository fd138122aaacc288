// Package state holds the versioned session document and the forgiving
// decoder that turns any stored version of it into a usable snapshot.
package state

import (
	"encoding/json"

	"github.com/sandeepkv93/gerris/internal/model"
)

// SchemaVersion is written into every saved document. Documents without a
// version predate it and are upgraded by default filling alone.
const SchemaVersion = 1

// Top-level keys of the stored document.
const (
	KeyVersion      = "version"
	KeyTodos        = "todos"
	KeyStats        = "stats"
	KeyGamification = "gamification"
	KeySettings     = "settings"
	KeyJournal      = "journal_entries"
	KeyCoach        = "coach"
)

type Snapshot struct {
	Version      int                               `json:"version"`
	Todos        []model.Todo                      `json:"todos"`
	Stats        model.KpiStats                    `json:"stats"`
	Gamification model.GamificationState           `json:"gamification"`
	Settings     model.Settings                    `json:"settings"`
	Journal      map[model.Date]model.JournalEntry `json:"journal_entries"`
	Coach        model.CoachState                  `json:"coach"`
}

// Default is the single table of defaults every missing or malformed
// section falls back to.
func Default() Snapshot {
	return Snapshot{
		Version:      SchemaVersion,
		Todos:        []model.Todo{},
		Stats:        model.DefaultKpiStats(),
		Gamification: model.DefaultGamificationState(),
		Settings:     model.DefaultSettings(),
		Journal:      map[model.Date]model.JournalEntry{},
		Coach:        model.DefaultCoachState(),
	}
}

func Encode(s Snapshot) ([]byte, error) {
	s.Version = SchemaVersion
	return json.MarshalIndent(s, "", "  ")
}
