// Package hierarchy holds the editable working copy of the variation type
// hierarchy and the engines that keep it consistent with the record store.
package hierarchy

import (
	"sync"

	"github.com/google/uuid"

	"github.com/Ramsey-B/fern/pkg/models"
)

// row pairs an attribute value with its edit bookkeeping. The snapshot exists
// only while the row is being edited; pending marks an in-flight remote call.
type row struct {
	attr     models.AttributeValue
	snapshot *models.EditSnapshot
	pending  bool
}

// Store is the single source of truth for the working copy. Every panel and
// handler reads derived views from it; only the mutation controller and the
// fetch orchestrator write to it.
type Store struct {
	mu sync.Mutex

	types     map[string]*models.VariationType
	typeOrder []string

	rows  map[string]*row
	order []string
}

// NewStore creates an empty working copy.
func NewStore() *Store {
	return &Store{
		types: make(map[string]*models.VariationType),
		rows:  make(map[string]*row),
	}
}

// NewLocalID mints a temporary identifier for a record that has not been
// persisted yet.
func NewLocalID() string {
	return models.LocalIDPrefix + uuid.New().String()
}

// ---- variation types ----

// ReplaceTypes swaps in a freshly fetched type list, preserving any local
// (unpersisted) types already in the working copy.
func (s *Store) ReplaceTypes(types []models.VariationType) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var locals []string
	for _, id := range s.typeOrder {
		if vt := s.types[id]; vt != nil && !vt.Persisted() {
			locals = append(locals, id)
		}
	}

	next := make(map[string]*models.VariationType, len(types)+len(locals))
	nextOrder := make([]string, 0, len(types)+len(locals))
	for i := range types {
		vt := types[i]
		if vt.ID == nil {
			continue
		}
		next[*vt.ID] = &vt
		nextOrder = append(nextOrder, *vt.ID)
	}
	for _, id := range locals {
		next[id] = s.types[id]
		nextOrder = append(nextOrder, id)
	}

	s.types = next
	s.typeOrder = nextOrder
}

// Types returns the ordered type list as copies.
func (s *Store) Types() []models.VariationType {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.VariationType, 0, len(s.typeOrder))
	for _, id := range s.typeOrder {
		out = append(out, *s.types[id])
	}
	return out
}

// TypeByID returns a copy of the named type.
func (s *Store) TypeByID(id string) (models.VariationType, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vt, ok := s.types[id]
	if !ok {
		return models.VariationType{}, false
	}
	return *vt, true
}

// AppendType adds a type at the end of the list.
func (s *Store) AppendType(vt models.VariationType) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if vt.ID == nil {
		id := NewLocalID()
		vt.ID = &id
	}
	vt.DisplayOrder = len(s.typeOrder)
	s.types[*vt.ID] = &vt
	s.typeOrder = append(s.typeOrder, *vt.ID)
	return *vt.ID
}

// RekeyType replaces a locally identified type with its persisted form,
// keeping its position in the list.
func (s *Store) RekeyType(localID string, persisted models.VariationType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.types[localID]; !ok || persisted.ID == nil {
		return false
	}

	delete(s.types, localID)
	s.types[*persisted.ID] = &persisted
	for i, id := range s.typeOrder {
		if id == localID {
			s.typeOrder[i] = *persisted.ID
			break
		}
	}
	return true
}

// SetTypeName renames a type in place.
func (s *Store) SetTypeName(id, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	vt, ok := s.types[id]
	if !ok {
		return false
	}
	vt.Name = name
	return true
}

// RemoveType removes a type, returning the removed copy and its index so the
// caller can reinsert it on rollback.
func (s *Store) RemoveType(id string) (models.VariationType, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vt, ok := s.types[id]
	if !ok {
		return models.VariationType{}, 0, false
	}

	index := 0
	for i, oid := range s.typeOrder {
		if oid == id {
			index = i
			break
		}
	}

	removed := *vt
	delete(s.types, id)
	s.typeOrder = append(s.typeOrder[:index], s.typeOrder[index+1:]...)
	return removed, index, true
}

// InsertTypeAt reinserts a type at a specific position.
func (s *Store) InsertTypeAt(vt models.VariationType, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if vt.ID == nil {
		return
	}
	if index < 0 {
		index = 0
	}
	if index > len(s.typeOrder) {
		index = len(s.typeOrder)
	}

	s.types[*vt.ID] = &vt
	s.typeOrder = append(s.typeOrder, "")
	copy(s.typeOrder[index+1:], s.typeOrder[index:])
	s.typeOrder[index] = *vt.ID
}

// DropAttributesOfType removes every attribute value referencing the given
// type from the working copy, returning how many were dropped. Rows with an
// in-flight mutation are left alone so their resolutions settle first.
func (s *Store) DropAttributesOfType(typeID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	kept := s.order[:0]
	for _, key := range s.order {
		r := s.rows[key]
		if r.attr.VariationTypeID == typeID && !r.pending {
			delete(s.rows, key)
			dropped++
			continue
		}
		kept = append(kept, key)
	}
	s.order = kept
	return dropped
}

// ---- attribute rows ----

// Append adds a row at the end of the list and returns its key.
func (s *Store) Append(attr models.AttributeValue) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if attr.ID == nil {
		id := NewLocalID()
		attr.ID = &id
	}

	key := attr.Key()
	s.rows[key] = &row{attr: attr}
	s.order = append(s.order, key)
	return key
}

// Get returns a copy of the row's attribute value.
func (s *Store) Get(key string) (models.AttributeValue, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rows[key]
	if !ok {
		return models.AttributeValue{}, false
	}
	return r.attr, true
}

// List returns the ordered attribute list as copies.
func (s *Store) List() []models.AttributeValue {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.AttributeValue, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.rows[key].attr)
	}
	return out
}

// ListByType returns the ordered rows whose back reference matches typeID.
func (s *Store) ListByType(typeID string) []models.AttributeValue {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.AttributeValue, 0)
	for _, key := range s.order {
		if s.rows[key].attr.VariationTypeID == typeID {
			out = append(out, s.rows[key].attr)
		}
	}
	return out
}

// Remove deletes a row outright, returning the removed copy, its snapshot and
// its index for rollback. Fails with ErrRowBusy while a mutation is in flight.
func (s *Store) Remove(key string) (models.AttributeValue, *models.EditSnapshot, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rows[key]
	if !ok {
		return models.AttributeValue{}, nil, 0, models.ErrRowNotFound
	}
	if r.pending {
		return models.AttributeValue{}, nil, 0, models.ErrRowBusy
	}

	index := 0
	for i, k := range s.order {
		if k == key {
			index = i
			break
		}
	}

	removed := r.attr
	snapshot := r.snapshot
	delete(s.rows, key)
	s.order = append(s.order[:index], s.order[index+1:]...)
	return removed, snapshot, index, nil
}

// InsertAt reinserts a previously removed row at its original position.
func (s *Store) InsertAt(attr models.AttributeValue, snapshot *models.EditSnapshot, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := attr.Key()
	if key == "" {
		id := NewLocalID()
		attr.ID = &id
		key = id
	}
	if index < 0 {
		index = 0
	}
	if index > len(s.order) {
		index = len(s.order)
	}

	s.rows[key] = &row{attr: attr, snapshot: snapshot}
	s.order = append(s.order, "")
	copy(s.order[index+1:], s.order[index:])
	s.order[index] = key
}

// Rekey replaces a locally identified row with its persisted form, keeping
// its position in the list. The snapshot and editing state are dropped; the
// row has been committed.
func (s *Store) Rekey(localKey string, persisted models.AttributeValue) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rows[localKey]
	if !ok || persisted.ID == nil {
		return false
	}

	persisted.Editing = false
	persisted.Image = nil

	delete(s.rows, localKey)
	s.rows[*persisted.ID] = &row{attr: persisted, pending: r.pending}
	for i, k := range s.order {
		if k == localKey {
			s.order[i] = *persisted.ID
			break
		}
	}
	return true
}

// ReconcileAttributes merges a freshly fetched value list into the working
// copy. Scope is the rows referencing typeID, or every row when typeID is "".
// Rows that are editing, pending or never persisted keep their local state;
// everything else takes the server's fields, and persisted rows in scope that
// the server no longer returns are dropped.
func (s *Store) ReconcileAttributes(typeID string, fetched []models.AttributeValue) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(fetched))
	for i := range fetched {
		attr := fetched[i]
		if attr.ID == nil {
			continue
		}
		key := *attr.ID
		seen[key] = true

		r, ok := s.rows[key]
		if !ok {
			attr.Editing = false
			attr.Image = nil
			s.rows[key] = &row{attr: attr}
			s.order = append(s.order, key)
			continue
		}
		if r.attr.Editing || r.pending {
			continue
		}
		r.attr.Value = attr.Value
		r.attr.Price = attr.Price
		r.attr.ImageURL = attr.ImageURL
		r.attr.VariationTypeID = attr.VariationTypeID
		r.attr.CreatedAt = attr.CreatedAt
		r.attr.UpdatedAt = attr.UpdatedAt
	}

	kept := s.order[:0]
	for _, key := range s.order {
		r := s.rows[key]
		inScope := typeID == "" || r.attr.VariationTypeID == typeID
		if inScope && r.attr.Persisted() && !seen[key] && !r.attr.Editing && !r.pending {
			delete(s.rows, key)
			continue
		}
		kept = append(kept, key)
	}
	s.order = kept
}

// ---- in-flight serialization ----

// BeginPending marks a row as having an in-flight mutation. A second mutation
// on the same row is rejected until the first resolves.
func (s *Store) BeginPending(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rows[key]
	if !ok {
		return models.ErrRowNotFound
	}
	if r.pending {
		return models.ErrRowBusy
	}
	r.pending = true
	return nil
}

// EndPending clears the in-flight mark. A no-op when the row has been removed
// in the meantime; such late resolutions are discarded.
func (s *Store) EndPending(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.rows[key]; ok {
		r.pending = false
	}
}

// Pending reports whether the row has an in-flight mutation.
func (s *Store) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rows[key]
	return ok && r.pending
}

// mutate runs fn against the live row under the lock.
func (s *Store) mutate(key string, fn func(*row) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rows[key]
	if !ok {
		return models.ErrRowNotFound
	}
	return fn(r)
}
