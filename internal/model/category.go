package model

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidCategory = errors.New("model: invalid category")

type Category string

const (
	CategoryJobSearch      Category = "job_search"
	CategoryAdmin          Category = "admin"
	CategoryFriendsFamily  Category = "friends_family"
	CategoryDrugs          Category = "drugs"
	CategoryDailyStructure Category = "daily_structure"
)

var Categories = []Category{
	CategoryJobSearch,
	CategoryAdmin,
	CategoryFriendsFamily,
	CategoryDrugs,
	CategoryDailyStructure,
}

func (c Category) IsValid() bool {
	switch c {
	case CategoryJobSearch, CategoryAdmin, CategoryFriendsFamily, CategoryDrugs, CategoryDailyStructure:
		return true
	default:
		return false
	}
}

func (c Category) Label() string {
	switch c {
	case CategoryJobSearch:
		return "Job search"
	case CategoryAdmin:
		return "Admin"
	case CategoryFriendsFamily:
		return "Family & friends"
	case CategoryDrugs:
		return "Substance use"
	case CategoryDailyStructure:
		return "Daily structure"
	default:
		return string(c)
	}
}

func ParseCategory(raw string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	if c == "" {
		return CategoryDailyStructure, nil
	}
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, raw)
	}
	return c, nil
}
