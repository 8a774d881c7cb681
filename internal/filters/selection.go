package filters

import (
	"slices"

	"finboard/internal/core"
)

// SelectAccount adds a parent account together with its direct children
// as one filter change.
func SelectAccount(acc core.AccountSelect) Action {
	return AddAccounts(acc.IDs()...)
}

// DeselectAccount removes the parent and its current children. Children
// added under an older child set are only removed if still listed.
func DeselectAccount(acc core.AccountSelect) Action {
	return RemoveAccounts(acc.IDs()...)
}

// ToggleAccount selects or deselects acc depending on whether its own id is
// part of the current selection.
func ToggleAccount(s State, acc core.AccountSelect) Action {
	if IsAccountSelected(s, acc.ID) {
		return DeselectAccount(acc)
	}
	return SelectAccount(acc)
}

func IsAccountSelected(s State, id int64) bool {
	return slices.Contains(s.Accounts, id)
}

// ToggleCategory selects or deselects a single category.
func ToggleCategory(s State, id int64) Action {
	if slices.Contains(s.Categories, id) {
		return RemoveCategories(id)
	}
	return AddCategories(id)
}
