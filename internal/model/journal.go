package model

import (
	"encoding/json"
	"strings"
)

type JournalEntry struct {
	Date                 Date       `json:"date"`
	Moods                []string   `json:"moods"`
	MoodNotes            string     `json:"mood_notes"`
	TriggersAndReactions string     `json:"triggers_and_reactions"`
	NegativeThought      string     `json:"negative_thought"`
	RationalResponse     string     `json:"rational_response"`
	SelfCareToday        string     `json:"self_care_today"`
	SelfCareTomorrow     string     `json:"self_care_tomorrow"`
	Gratitudes           []string   `json:"gratitudes"`
	Categories           []Category `json:"categories"`
	LinkedTodoIDs        []string   `json:"linked_todo_ids"`
}

// UnmarshalJSON folds the legacy gratitude_1..3 fields into Gratitudes and
// drops unknown categories.
func (e *JournalEntry) UnmarshalJSON(data []byte) error {
	type plain JournalEntry
	var aux struct {
		plain
		Categories []string `json:"categories"`
		Gratitude1 string   `json:"gratitude_1"`
		Gratitude2 string   `json:"gratitude_2"`
		Gratitude3 string   `json:"gratitude_3"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	out := JournalEntry(aux.plain)
	out.Categories = make([]Category, 0, len(aux.Categories))
	for _, raw := range aux.Categories {
		if c := Category(raw); c.IsValid() {
			out.Categories = append(out.Categories, c)
		}
	}
	if len(out.Gratitudes) == 0 {
		for _, g := range []string{aux.Gratitude1, aux.Gratitude2, aux.Gratitude3} {
			if v := strings.TrimSpace(g); v != "" {
				out.Gratitudes = append(out.Gratitudes, v)
			}
		}
	}
	if out.Moods == nil {
		out.Moods = []string{}
	}
	if out.Gratitudes == nil {
		out.Gratitudes = []string{}
	}
	if out.LinkedTodoIDs == nil {
		out.LinkedTodoIDs = []string{}
	}
	*e = out
	return nil
}

// Text joins the free-text sections of the entry.
func (e JournalEntry) Text() string {
	sections := []string{
		e.MoodNotes,
		e.TriggersAndReactions,
		e.NegativeThought,
		e.RationalResponse,
		e.SelfCareToday,
		e.SelfCareTomorrow,
		strings.Join(e.Gratitudes, " "),
	}
	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		if strings.TrimSpace(s) != "" {
			parts = append(parts, s)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

type Settings struct {
	AIEnabled         bool             `json:"ai_enabled"`
	GamificationMode  GamificationMode `json:"gamification_mode"`
	CategoryGoals     map[Category]int `json:"category_goals"`
	ReminderRecipient string           `json:"reminder_recipient"`
}

func DefaultSettings() Settings {
	goals := make(map[Category]int, len(Categories))
	for _, c := range Categories {
		goals[c] = 1
	}
	return Settings{
		GamificationMode: GamificationPoints,
		CategoryGoals:    goals,
	}
}
