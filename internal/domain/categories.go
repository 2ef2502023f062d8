package domain

// ─── Category Registry ──────────────────────────────────────────────────────
// Categories are static. They label transactions and never drive decisions
// except for the obligations, transfer and borrowed ids below.

const (
	CatObligations = "cat_obligations"
	CatTransfer    = "cat_transfer"
	CatDebt        = "cat_debt"
)

// Category is a static transaction label.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Direction Direction `json:"direction"`
	Favorite  bool      `json:"favorite,omitempty"`
}

// DefaultCategories is the built-in category list.
var DefaultCategories = []Category{
	{ID: "cat_food", Name: "Food", Direction: DirectionOut, Favorite: true},
	{ID: "cat_transport", Name: "Transport", Direction: DirectionOut},
	{ID: "cat_utilities", Name: "Utilities", Direction: DirectionOut},
	{ID: "cat_fun", Name: "Fun", Direction: DirectionOut},
	{ID: "cat_growth", Name: "Growth", Direction: DirectionOut},
	{ID: "cat_rent", Name: "Housing", Direction: DirectionOut},
	{ID: "cat_health", Name: "Health", Direction: DirectionOut},
	{ID: CatObligations, Name: "Obligations", Direction: DirectionOut},
	{ID: CatTransfer, Name: "Transfer", Direction: DirectionOut},
	{ID: "cat_other", Name: "Other", Direction: DirectionOut},
	{ID: "cat_salary", Name: "Salary", Direction: DirectionIn, Favorite: true},
	{ID: "cat_freelance", Name: "Freelance", Direction: DirectionIn},
	{ID: "cat_gift", Name: "Gift", Direction: DirectionIn},
	{ID: "cat_refund", Name: "Refund", Direction: DirectionIn},
	{ID: CatDebt, Name: "Borrowed", Direction: DirectionIn},
	{ID: "cat_other_in", Name: "Other", Direction: DirectionIn},
}

var categoryByID = func() map[string]Category {
	m := make(map[string]Category, len(DefaultCategories))
	for _, c := range DefaultCategories {
		m[c.ID] = c
	}
	return m
}()

// CategoryByID looks up a built-in category.
func CategoryByID(id string) (Category, bool) {
	c, ok := categoryByID[id]
	return c, ok
}

// CategoryName returns the display name of id, or id itself when unknown.
func CategoryName(id string) string {
	if c, ok := categoryByID[id]; ok {
		return c.Name
	}
	return id
}
