package model

// User is a chat identity with its ordered category list and default currency.
// Categories are advisory labels; duplicates are kept as entered.
type User struct {
	ID              string
	DefaultCurrency string
	Categories      []string
}

// NewUser returns a user with no categories and no default currency.
func NewUser(id string) *User {
	return &User{ID: id, Categories: []string{}}
}

// HasDefaultCurrency reports whether a default currency has been chosen.
func (u *User) HasDefaultCurrency() bool {
	return u.DefaultCurrency != ""
}

// HasCategory reports whether name is in the category list.
func (u *User) HasCategory(name string) bool {
	return u.indexOf(name) >= 0
}

// AddCategory appends name to the category list.
func (u *User) AddCategory(name string) {
	u.Categories = append(u.Categories, name)
}

// RemoveCategory removes the first occurrence of name. It returns false when
// the category is not present.
func (u *User) RemoveCategory(name string) bool {
	idx := u.indexOf(name)
	if idx < 0 {
		return false
	}
	u.Categories = append(u.Categories[:idx:idx], u.Categories[idx+1:]...)
	return true
}

// RenameCategory replaces the first occurrence of oldName with newName in place,
// keeping its position.
func (u *User) RenameCategory(oldName, newName string) bool {
	idx := u.indexOf(oldName)
	if idx < 0 {
		return false
	}
	u.Categories[idx] = newName
	return true
}

// AllowedCategories returns the categories a classification may use: the
// user's list plus the Uncategorized sentinel.
func (u *User) AllowedCategories() []string {
	allowed := make([]string, 0, len(u.Categories)+1)
	allowed = append(allowed, u.Categories...)
	if !u.HasCategory(UncategorizedCategory) {
		allowed = append(allowed, UncategorizedCategory)
	}
	return allowed
}

func (u *User) indexOf(name string) int {
	for i, c := range u.Categories {
		if c == name {
			return i
		}
	}
	return -1
}
