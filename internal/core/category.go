package core

import "errors"

// Category is a closed enumeration of expense categories. Unknown names
// are rejected at validation time instead of being silently bucketed
// later; CategoryOther is the explicit catch-all member.
type Category string

const (
	CategoryGroceries     Category = "groceries"
	CategoryRent          Category = "rent"
	CategoryUtilities     Category = "utilities"
	CategoryTransport     Category = "transport"
	CategoryDining        Category = "dining"
	CategoryEntertainment Category = "entertainment"
	CategoryHealth        Category = "health"
	CategoryClothing      Category = "clothing"
	CategoryPersonal      Category = "personal"
	CategorySavings       Category = "savings"
	CategoryOther         Category = "others"
)

var ErrUnknownCategory = errors.New("unknown category")

var allCategories = []Category{
	CategoryGroceries, CategoryRent, CategoryUtilities, CategoryTransport,
	CategoryDining, CategoryEntertainment, CategoryHealth, CategoryClothing,
	CategoryPersonal, CategorySavings, CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range allCategories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory resolves a user-supplied category name. The empty string
// is allowed and maps to the empty category (income transactions carry
// none); any other unknown name is an error.
func ParseCategory(s string) (Category, error) {
	if s == "" {
		return "", nil
	}
	c := Category(s)
	if !c.Valid() {
		return "", ErrUnknownCategory
	}
	return c, nil
}

// Categories returns the closed category set in declaration order.
func Categories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}
