package hierarchy

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/catalog"
	"github.com/Ramsey-B/fern/pkg/models"
)

type stubImage struct {
	name string
}

func (s stubImage) Filename() string    { return s.name }
func (s stubImage) ContentType() string { return "image/png" }
func (s stubImage) Bytes() []byte       { return []byte{0x89, 0x50} }

func seedRow(s *Store, id, typeID, value, price, imageURL string) {
	s.Append(models.AttributeValue{
		ID:              &id,
		VariationTypeID: typeID,
		Value:           value,
		Price:           price,
		ImageURL:        imageURL,
	})
}

func TestStore_EditLifecycle(t *testing.T) {
	t.Run("cancel restores every field from the snapshot", func(t *testing.T) {
		s := NewStore()
		seedRow(s, "a1", "v1", "Red", "120.50", "https://cdn.test/red.png")

		require.NoError(t, s.BeginEdit("a1"))
		require.NoError(t, s.ApplyEdit("a1", strPtr("Crimson"), strPtr("99.00")))
		require.NoError(t, s.SetImage("a1", stubImage{name: "crimson.png"}))

		require.NoError(t, s.CancelEdit("a1"))

		attr, ok := s.Get("a1")
		require.True(t, ok)
		assert.Equal(t, "Red", attr.Value)
		assert.Equal(t, "120.50", attr.Price)
		assert.Equal(t, "https://cdn.test/red.png", attr.ImageURL)
		assert.Nil(t, attr.Image)
		assert.False(t, attr.Editing)
	})

	t.Run("cancel removes a freshly added row", func(t *testing.T) {
		s := NewStore()
		key := s.Append(models.AttributeValue{VariationTypeID: "v1", Editing: true})

		require.NoError(t, s.CancelEdit(key))

		_, ok := s.Get(key)
		assert.False(t, ok)
		assert.Empty(t, s.List())
	})

	t.Run("cancel without begin edit is rejected", func(t *testing.T) {
		s := NewStore()
		seedRow(s, "a1", "v1", "Red", "", "")
		assert.ErrorIs(t, s.CancelEdit("a1"), models.ErrNotEditing)
	})

	t.Run("edits are rejected while a mutation is in flight", func(t *testing.T) {
		s := NewStore()
		seedRow(s, "a1", "v1", "Red", "", "")
		require.NoError(t, s.BeginEdit("a1"))
		require.NoError(t, s.BeginPending("a1"))

		assert.ErrorIs(t, s.CancelEdit("a1"), models.ErrRowBusy)
		assert.ErrorIs(t, s.BeginPending("a1"), models.ErrRowBusy)

		_, _, _, err := s.Remove("a1")
		assert.ErrorIs(t, err, models.ErrRowBusy)
	})

	t.Run("clearing a staged image reverts to the persisted reference", func(t *testing.T) {
		s := NewStore()
		seedRow(s, "a1", "v1", "Red", "", "https://cdn.test/red.png")

		require.NoError(t, s.BeginEdit("a1"))
		require.NoError(t, s.SetImage("a1", stubImage{name: "new.png"}))

		attr, _ := s.Get("a1")
		assert.Empty(t, attr.ImageURL)
		assert.NotNil(t, attr.Image)

		require.NoError(t, s.ClearImage("a1"))
		attr, _ = s.Get("a1")
		assert.Equal(t, "https://cdn.test/red.png", attr.ImageURL)
		assert.Nil(t, attr.Image)
	})
}

func TestStore_Reconcile(t *testing.T) {
	a1, a2 := "a1", "a2"

	t.Run("server fields land on settled rows", func(t *testing.T) {
		s := NewStore()
		seedRow(s, "a1", "v1", "Red", "", "")

		s.ReconcileAttributes("v1", []models.AttributeValue{
			{ID: &a1, VariationTypeID: "v1", Value: "Red", Price: "5.00"},
			{ID: &a2, VariationTypeID: "v1", Value: "Blue"},
		})

		rows := s.ListByType("v1")
		require.Len(t, rows, 2)
		assert.Equal(t, "5.00", rows[0].Price)
		assert.Equal(t, "Blue", rows[1].Value)
	})

	t.Run("editing rows keep their local state", func(t *testing.T) {
		s := NewStore()
		seedRow(s, "a1", "v1", "Red", "", "")
		require.NoError(t, s.BeginEdit("a1"))
		require.NoError(t, s.ApplyEdit("a1", strPtr("Crimson"), nil))

		s.ReconcileAttributes("v1", []models.AttributeValue{
			{ID: &a1, VariationTypeID: "v1", Value: "Scarlet"},
		})

		attr, _ := s.Get("a1")
		assert.Equal(t, "Crimson", attr.Value)
		assert.True(t, attr.Editing)
	})

	t.Run("rows the server dropped are removed, local rows survive", func(t *testing.T) {
		s := NewStore()
		seedRow(s, "a1", "v1", "Red", "", "")
		localKey := s.Append(models.AttributeValue{VariationTypeID: "v1", Value: "Draft", Editing: true})

		s.ReconcileAttributes("v1", []models.AttributeValue{
			{ID: &a2, VariationTypeID: "v1", Value: "Blue"},
		})

		_, gone := s.Get("a1")
		assert.False(t, gone)
		_, kept := s.Get(localKey)
		assert.True(t, kept)
		_, added := s.Get("a2")
		assert.True(t, added)
	})
}

func TestOrchestrator_SelectFallback(t *testing.T) {
	ctx := context.Background()
	logger := ectologger.NewEctoLogger(func(ectologger.EctoLogMessage) {})

	v1, a1 := "v1", "a1"
	store := NewStore()
	remote := catalog.NewFake()
	remote.SeedTypes(models.VariationType{ID: &v1, Name: "Color"})
	remote.SeedAttributes(models.AttributeValue{ID: &a1, VariationTypeID: "v1", Value: "Red"})

	fetcher := NewOrchestrator(store, remote, logger)
	require.NoError(t, fetcher.Load(ctx))

	t.Run("scoped fetch failure serves the cached flat list", func(t *testing.T) {
		remote.FailNext("ListAttributeValues", models.NewNetworkUnavailable(nil))

		rows, err := fetcher.Select(ctx, "v1")
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Red", rows[0].Value)
	})

	t.Run("unknown type is rejected", func(t *testing.T) {
		_, err := fetcher.Select(ctx, "nope")
		assert.ErrorIs(t, err, models.ErrTypeNotFound)
	})

	t.Run("refresh is idempotent", func(t *testing.T) {
		require.NoError(t, fetcher.Refresh(ctx))
		require.NoError(t, fetcher.Refresh(ctx))
		assert.Len(t, store.ListByType("v1"), 1)
	})
}
