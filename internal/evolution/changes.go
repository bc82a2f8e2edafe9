package evolution

import (
	"fmt"

	"github.com/bosflow/bosflow/internal/document"
	"github.com/bosflow/bosflow/model"
)

// ApplyFieldChange performs one ad-hoc edit on a clone of doc. The
// original is untouched regardless of outcome. A change carrying its
// own Migration transform wins over the declarative fields.
func ApplyFieldChange(doc model.Document, change model.FieldChange) (model.Document, error) {
	working := doc.Clone()

	if change.Migration != nil {
		return change.Migration(working)
	}

	switch change.Type {
	case model.ChangeAdd:
		if err := document.Set(working, change.Path, change.NewValue); err != nil {
			return nil, fmt.Errorf("add %s: %w", change.Path, err)
		}
	case model.ChangeRemove:
		if err := document.Delete(working, change.Path); err != nil {
			return nil, fmt.Errorf("remove %s: %w", change.Path, err)
		}
	case model.ChangeRename:
		newPath, ok := change.NewValue.(string)
		if !ok || newPath == "" {
			return nil, fmt.Errorf("rename %s: newValue must be the new path", change.Path)
		}
		if err := document.Rename(working, change.Path, newPath); err != nil {
			return nil, fmt.Errorf("rename %s: %w", change.Path, err)
		}
	case model.ChangeTypeChange:
		if document.Get(working, change.Path) == nil {
			return working, nil
		}
		if err := document.Set(working, change.Path, change.NewValue); err != nil {
			return nil, fmt.Errorf("change type of %s: %w", change.Path, err)
		}
	default:
		return nil, fmt.Errorf("unknown change type %q", change.Type)
	}
	return working, nil
}

// MigrationFromChange wraps a single field change as a registrable
// migration so one-off edits ride the same executor path.
func MigrationFromChange(version string, change model.FieldChange) model.Migration {
	return model.Migration{
		Version:     version,
		Description: change.Description,
		Up: func(doc model.Document) (model.Document, error) {
			return ApplyFieldChange(doc, change)
		},
	}
}
