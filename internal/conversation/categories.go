package conversation

import (
	"context"
	"errors"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/common"
)

func (m *Machine) btnAddCategory(context.Context, *turn) (Reply, State) {
	return textReply("Send the name of the new category."), StateAddCategory
}

func (m *Machine) btnDeleteCategory(ctx context.Context, t *turn) (Reply, State) {
	return m.promptExistingCategory(ctx, t, "Send the name of the category to delete.", StateDeleteCategory)
}

func (m *Machine) btnEditCategory(ctx context.Context, t *turn) (Reply, State) {
	return m.promptExistingCategory(ctx, t, "Send the name of the category to rename.", StateEditCategory)
}

func (m *Machine) promptExistingCategory(ctx context.Context, t *turn, prompt string, next State) (Reply, State) {
	user, err := m.user(ctx, t)
	if err != nil {
		return m.failure(t, "load categories", err), StateNormal
	}
	if len(user.Categories) == 0 {
		return textReply("You have no categories yet."), StateNormal
	}
	return textReply(prompt), next
}

func (m *Machine) addCategory(ctx context.Context, t *turn) (Reply, State) {
	name := strings.TrimSpace(t.event.Text)
	if name == "" {
		return textReply(msgCategoryBlank), StateAddCategory
	}

	user, err := m.user(ctx, t)
	if err != nil {
		return m.failure(t, "add category", err), StateNormal
	}
	user.AddCategory(name)
	if err := m.store.UpsertUser(ctx, user); err != nil {
		return m.failure(t, "add category", err), StateNormal
	}

	t.log.Info("Category added", "category", name)
	return textReplyf("Category '%s' added.", name), StateNormal
}

func (m *Machine) deleteCategory(ctx context.Context, t *turn) (Reply, State) {
	name := strings.TrimSpace(t.event.Text)

	user, err := m.user(ctx, t)
	if err != nil {
		return m.failure(t, "delete category", err), StateNormal
	}
	if !user.RemoveCategory(name) {
		return textReplyf("Category '%s' not found.", name), StateNormal
	}
	if err := m.store.UpsertUser(ctx, user); err != nil {
		return m.failure(t, "delete category", err), StateNormal
	}

	t.log.Info("Category deleted", "category", name)
	return textReplyf("Category '%s' deleted.", name), StateNormal
}

func (m *Machine) editCategory(ctx context.Context, t *turn) (Reply, State) {
	name := strings.TrimSpace(t.event.Text)

	user, err := m.user(ctx, t)
	if err != nil {
		return m.failure(t, "edit category", err), StateNormal
	}
	if !user.HasCategory(name) {
		return textReplyf("Category '%s' not found.", name), StateNormal
	}

	t.session.PendingCategory = name
	return textReplyf("Send the new name for '%s'.", name), StateEditCategoryName
}

// editCategoryName renames the pending category in the user's list and on
// every transaction that carries it. A blank name asks again; anything else
// ends in Normal.
func (m *Machine) editCategoryName(ctx context.Context, t *turn) (Reply, State) {
	oldName := t.session.PendingCategory
	if oldName == "" {
		return textReply("Could not find the category to rename. Start again with /category."), StateNormal
	}

	newName := strings.TrimSpace(t.event.Text)
	if newName == "" {
		return textReply(msgCategoryBlank), StateEditCategoryName
	}

	err := m.store.RenameCategory(ctx, t.userID(), oldName, newName)
	switch {
	case errors.Is(err, common.ErrNotFound):
		return textReplyf("Category '%s' no longer exists.", oldName), StateNormal
	case err != nil:
		return m.failure(t, "rename category", err), StateNormal
	}

	t.log.Info("Category renamed", "from", oldName, "to", newName)
	return textReplyf("Category '%s' renamed to '%s'.", oldName, newName), StateNormal
}
