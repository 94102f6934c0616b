package hierarchy

import (
	"github.com/Ramsey-B/fern/pkg/models"
)

// BeginEdit moves a row into the editing state, capturing a snapshot of its
// current field values. Already-editing rows keep their existing snapshot.
func (s *Store) BeginEdit(key string) error {
	return s.mutate(key, func(r *row) error {
		if r.pending {
			return models.ErrRowBusy
		}
		if r.attr.Editing {
			return nil
		}
		r.snapshot = models.SnapshotOf(&r.attr)
		r.attr.Editing = true
		return nil
	})
}

// CancelEdit leaves the editing state. A row with a snapshot is restored to
// its pre-edit values; a freshly added row that was never persisted is
// removed from the list entirely.
func (s *Store) CancelEdit(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rows[key]
	if !ok {
		return models.ErrRowNotFound
	}
	if r.pending {
		return models.ErrRowBusy
	}
	if !r.attr.Editing {
		return models.ErrNotEditing
	}

	if r.snapshot == nil {
		delete(s.rows, key)
		for i, k := range s.order {
			if k == key {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
		return nil
	}

	r.snapshot.Restore(&r.attr)
	r.snapshot = nil
	r.attr.Editing = false
	return nil
}

// ApplyEdit writes attempted field values onto an editing row. Nil pointers
// leave the field untouched. The values stick even if a later save fails, so
// the user's input is never lost.
func (s *Store) ApplyEdit(key string, value, price *string) error {
	return s.mutate(key, func(r *row) error {
		if !r.attr.Editing {
			return models.ErrNotEditing
		}
		if value != nil {
			r.attr.Value = *value
		}
		if price != nil {
			r.attr.Price = *price
		}
		return nil
	})
}

// SetImage stages an image on an editing row. The persisted image reference
// is cleared; the snapshot retains it for cancel and for ClearImage.
func (s *Store) SetImage(key string, img models.ImageAttachment) error {
	return s.mutate(key, func(r *row) error {
		if !r.attr.Editing {
			return models.ErrNotEditing
		}
		r.attr.Image = img
		r.attr.ImageURL = ""
		return nil
	})
}

// ClearImage drops a staged image, reverting the image reference to whatever
// persisted value existed before staging.
func (s *Store) ClearImage(key string) error {
	return s.mutate(key, func(r *row) error {
		if !r.attr.Editing {
			return models.ErrNotEditing
		}
		r.attr.Image = nil
		if r.snapshot != nil {
			r.attr.ImageURL = r.snapshot.ImageURL
		} else {
			r.attr.ImageURL = ""
		}
		return nil
	})
}

// markSaved commits an editing row after a successful remote update. Server
// supplied fields overwrite the local attempt; the snapshot is discarded.
func (s *Store) markSaved(key string, server models.AttributeValue) error {
	return s.mutate(key, func(r *row) error {
		r.attr.Value = server.Value
		r.attr.Price = server.Price
		if server.ImageURL != "" {
			r.attr.ImageURL = server.ImageURL
		}
		if !server.UpdatedAt.IsZero() {
			r.attr.UpdatedAt = server.UpdatedAt
		}
		r.attr.Image = nil
		r.attr.Editing = false
		r.snapshot = nil
		return nil
	})
}
