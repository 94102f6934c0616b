package hierarchy

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/catalog"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/notify"
)

func strPtr(s string) *string {
	return &s
}

type engine struct {
	store      *Store
	remote     *catalog.Fake
	sink       *notify.Recorder
	controller *Controller
	fetcher    *Orchestrator
}

func newEngine(t *testing.T) *engine {
	t.Helper()

	logger := ectologger.NewEctoLogger(func(ectologger.EctoLogMessage) {})
	store := NewStore()
	remote := catalog.NewFake()
	sink := &notify.Recorder{}

	return &engine{
		store:      store,
		remote:     remote,
		sink:       sink,
		controller: NewController(store, remote, sink, nil, logger),
		fetcher:    NewOrchestrator(store, remote, logger),
	}
}

func (e *engine) load(t *testing.T) {
	t.Helper()
	require.NoError(t, e.fetcher.Load(context.Background()))
}

func TestController_CreateFlow(t *testing.T) {
	ctx := context.Background()

	t.Run("successful create commits the server row", func(t *testing.T) {
		e := newEngine(t)
		v1 := "v1"
		e.remote.SeedTypes(models.VariationType{ID: &v1, Name: "Color"})
		e.load(t)

		added, err := e.controller.AddRow(ctx, "v1")
		require.NoError(t, err)
		assert.True(t, added.Editing)
		assert.False(t, added.Persisted())

		saved, err := e.controller.SaveRow(ctx, added.Key(), SaveAttempt{
			Value: strPtr("Red"),
			Price: strPtr("120.50"),
		})
		require.NoError(t, err)

		rows := e.store.ListByType("v1")
		require.Len(t, rows, 1)
		assert.True(t, rows[0].Persisted())
		assert.Equal(t, saved.Key(), rows[0].Key())
		assert.Equal(t, "Red", rows[0].Value)
		assert.Equal(t, "120.50", rows[0].Price)
		assert.False(t, rows[0].Editing)

		require.Len(t, e.sink.Notifications, 1)
		assert.Equal(t, notify.KindSuccess, e.sink.Notifications[0].Kind)
	})

	t.Run("failed create removes the row", func(t *testing.T) {
		e := newEngine(t)
		v1 := "v1"
		e.remote.SeedTypes(models.VariationType{ID: &v1, Name: "Color"})
		e.load(t)

		added, err := e.controller.AddRow(ctx, "v1")
		require.NoError(t, err)

		e.remote.FailNext("CreateAttributeValue", models.NewRemoteRejected("duplicate value", nil))

		_, err = e.controller.SaveRow(ctx, added.Key(), SaveAttempt{Value: strPtr("Red")})
		require.Error(t, err)
		assert.Equal(t, models.ErrorKindRemoteRejected, models.KindOf(err))

		assert.Empty(t, e.store.ListByType("v1"))
		require.Len(t, e.sink.Errors(), 1)
	})

	t.Run("unknown type is rejected", func(t *testing.T) {
		e := newEngine(t)
		_, err := e.controller.AddRow(ctx, "missing")
		assert.ErrorIs(t, err, models.ErrTypeNotFound)
	})
}

func TestController_ValidationGating(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T) *engine {
		e := newEngine(t)
		v1 := "v1"
		e.remote.SeedTypes(models.VariationType{ID: &v1, Name: "Color"})
		e.load(t)
		return e
	}

	t.Run("empty value never reaches the store", func(t *testing.T) {
		e := seed(t)
		added, err := e.controller.AddRow(ctx, "v1")
		require.NoError(t, err)

		_, err = e.controller.SaveRow(ctx, added.Key(), SaveAttempt{Value: strPtr("")})
		require.Error(t, err)
		assert.Equal(t, models.ErrorKindValidation, models.KindOf(err))
		assert.Zero(t, e.remote.CallCount("CreateAttributeValue"))

		rows := e.store.ListByType("v1")
		require.Len(t, rows, 1)
		assert.True(t, rows[0].Editing)
	})

	t.Run("malformed price never reaches the store", func(t *testing.T) {
		e := seed(t)
		added, err := e.controller.AddRow(ctx, "v1")
		require.NoError(t, err)

		_, err = e.controller.SaveRow(ctx, added.Key(), SaveAttempt{
			Value: strPtr("Red"),
			Price: strPtr("12.999"),
		})
		require.Error(t, err)
		assert.Equal(t, models.ErrorKindValidation, models.KindOf(err))
		assert.Zero(t, e.remote.CallCount("CreateAttributeValue"))
		assert.Zero(t, e.remote.CallCount("UpdateAttributeValue"))

		rows := e.store.ListByType("v1")
		require.Len(t, rows, 1)
		assert.True(t, rows[0].Editing)
		assert.Equal(t, "12.999", rows[0].Price)
	})
}

func TestController_UpdateFlow(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T) *engine {
		e := newEngine(t)
		v1, a1 := "v1", "a1"
		e.remote.SeedTypes(models.VariationType{ID: &v1, Name: "Weight"})
		e.remote.SeedAttributes(models.AttributeValue{ID: &a1, VariationTypeID: "v1", Value: "250g", Price: "4.00"})
		e.load(t)
		return e
	}

	t.Run("save commits after the store accepts", func(t *testing.T) {
		e := seed(t)
		require.NoError(t, e.store.BeginEdit("a1"))

		saved, err := e.controller.SaveRow(ctx, "a1", SaveAttempt{Value: strPtr("500g")})
		require.NoError(t, err)
		assert.Equal(t, "500g", saved.Value)
		assert.False(t, saved.Editing)
		assert.Equal(t, 1, e.remote.CallCount("UpdateAttributeValue"))
	})

	t.Run("failed save keeps the attempted values and stays editable", func(t *testing.T) {
		e := seed(t)
		require.NoError(t, e.store.BeginEdit("a1"))
		e.remote.FailNext("UpdateAttributeValue", models.NewNetworkUnavailable(nil))

		_, err := e.controller.SaveRow(ctx, "a1", SaveAttempt{Value: strPtr("500g")})
		require.Error(t, err)
		assert.Equal(t, models.ErrorKindNetworkUnavailable, models.KindOf(err))

		current, ok := e.store.Get("a1")
		require.True(t, ok)
		assert.True(t, current.Editing)
		assert.Equal(t, "500g", current.Value)
		require.Len(t, e.sink.Errors(), 1)
	})

	t.Run("save without begin edit is rejected", func(t *testing.T) {
		e := seed(t)
		_, err := e.controller.SaveRow(ctx, "a1", SaveAttempt{Value: strPtr("500g")})
		assert.ErrorIs(t, err, models.ErrNotEditing)
	})
}

func TestController_DeleteRollback(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T) *engine {
		e := newEngine(t)
		v1, a1, a2, a3 := "v1", "a1", "a2", "a3"
		e.remote.SeedTypes(models.VariationType{ID: &v1, Name: "Weight"})
		e.remote.SeedAttributes(
			models.AttributeValue{ID: &a1, VariationTypeID: "v1", Value: "100g"},
			models.AttributeValue{ID: &a2, VariationTypeID: "v1", Value: "250g"},
			models.AttributeValue{ID: &a3, VariationTypeID: "v1", Value: "500g"},
		)
		e.load(t)
		return e
	}

	t.Run("requires confirmation", func(t *testing.T) {
		e := seed(t)
		err := e.controller.DeleteAttribute(ctx, "a2", false)
		assert.ErrorIs(t, err, models.ErrConfirmationRequired)
		assert.Zero(t, e.remote.CallCount("DeleteAttributeValue"))
		assert.Len(t, e.store.List(), 3)
	})

	t.Run("successful delete removes the row", func(t *testing.T) {
		e := seed(t)
		require.NoError(t, e.controller.DeleteAttribute(ctx, "a2", true))

		rows := e.store.List()
		require.Len(t, rows, 2)
		assert.Equal(t, "a1", rows[0].Key())
		assert.Equal(t, "a3", rows[1].Key())
	})

	t.Run("failed delete restores the row at its original index", func(t *testing.T) {
		e := seed(t)
		before := e.store.List()

		e.remote.FailNext("DeleteAttributeValue", models.NewRemoteRejected("value in use", nil))
		err := e.controller.DeleteAttribute(ctx, "a2", true)
		require.Error(t, err)

		after := e.store.List()
		require.Len(t, after, len(before))
		for i := range before {
			assert.Equal(t, before[i].Key(), after[i].Key())
			assert.Equal(t, before[i].Value, after[i].Value)
			assert.Equal(t, before[i].Price, after[i].Price)
			assert.Equal(t, before[i].ImageURL, after[i].ImageURL)
		}
		require.Len(t, e.sink.Errors(), 1)
	})
}

func TestController_RowSerialization(t *testing.T) {
	ctx := context.Background()

	e := newEngine(t)
	v1, a1 := "v1", "a1"
	e.remote.SeedTypes(models.VariationType{ID: &v1, Name: "Size"})
	e.remote.SeedAttributes(models.AttributeValue{ID: &a1, VariationTypeID: "v1", Value: "M"})
	e.load(t)

	require.NoError(t, e.store.BeginEdit("a1"))
	require.NoError(t, e.store.BeginPending("a1"))

	_, err := e.controller.SaveRow(ctx, "a1", SaveAttempt{Value: strPtr("L")})
	assert.ErrorIs(t, err, models.ErrRowBusy)

	err = e.controller.DeleteAttribute(ctx, "a1", true)
	assert.ErrorIs(t, err, models.ErrRowBusy)

	e.store.EndPending("a1")
	_, err = e.controller.SaveRow(ctx, "a1", SaveAttempt{Value: strPtr("L")})
	assert.NoError(t, err)
}

func TestController_VariationTypes(t *testing.T) {
	ctx := context.Background()

	t.Run("create appends and persists", func(t *testing.T) {
		e := newEngine(t)
		e.load(t)

		created, err := e.controller.CreateVariationType(ctx, "Material")
		require.NoError(t, err)
		assert.True(t, created.Persisted())

		types := e.store.Types()
		require.Len(t, types, 1)
		assert.Equal(t, "Material", types[0].Name)
	})

	t.Run("failed create rolls the type back out", func(t *testing.T) {
		e := newEngine(t)
		e.load(t)
		e.remote.FailNext("CreateVariationType", models.NewNetworkUnavailable(nil))

		_, err := e.controller.CreateVariationType(ctx, "Material")
		require.Error(t, err)
		assert.Empty(t, e.store.Types())
		require.Len(t, e.sink.Errors(), 1)
	})

	t.Run("empty name is rejected locally", func(t *testing.T) {
		e := newEngine(t)
		_, err := e.controller.CreateVariationType(ctx, "")
		assert.Equal(t, models.ErrorKindValidation, models.KindOf(err))
		assert.Zero(t, e.remote.CallCount("CreateVariationType"))
	})

	t.Run("rename is not optimistic", func(t *testing.T) {
		e := newEngine(t)
		v1 := "v1"
		e.remote.SeedTypes(models.VariationType{ID: &v1, Name: "Color"})
		e.load(t)
		e.remote.FailNext("UpdateVariationType", models.NewRemoteRejected("name taken", nil))

		_, err := e.controller.RenameVariationType(ctx, "v1", "Colour")
		require.Error(t, err)

		vt, ok := e.store.TypeByID("v1")
		require.True(t, ok)
		assert.Equal(t, "Color", vt.Name)
	})

	t.Run("delete drops orphaned values locally only", func(t *testing.T) {
		e := newEngine(t)
		v1, v2, a1, b1 := "v1", "v2", "a1", "b1"
		e.remote.SeedTypes(
			models.VariationType{ID: &v1, Name: "Color"},
			models.VariationType{ID: &v2, Name: "Size"},
		)
		e.remote.SeedAttributes(
			models.AttributeValue{ID: &a1, VariationTypeID: "v1", Value: "Red"},
			models.AttributeValue{ID: &b1, VariationTypeID: "v2", Value: "M"},
		)
		e.load(t)

		require.NoError(t, e.controller.DeleteVariationType(ctx, "v1", true))

		assert.Empty(t, e.store.ListByType("v1"))
		assert.Len(t, e.store.ListByType("v2"), 1)
		// The store keeps the orphaned record; only the working copy drops it.
		assert.Equal(t, 0, e.remote.CallCount("DeleteAttributeValue"))
	})

	t.Run("failed delete restores the type at its original index", func(t *testing.T) {
		e := newEngine(t)
		v1, v2, v3 := "v1", "v2", "v3"
		e.remote.SeedTypes(
			models.VariationType{ID: &v1, Name: "Color"},
			models.VariationType{ID: &v2, Name: "Size"},
			models.VariationType{ID: &v3, Name: "Material"},
		)
		e.load(t)

		e.remote.FailNext("DeleteVariationType", models.NewRemoteRejected("type in use", nil))
		err := e.controller.DeleteVariationType(ctx, "v2", true)
		require.Error(t, err)

		types := e.store.Types()
		require.Len(t, types, 3)
		assert.Equal(t, "Size", types[1].Name)
		require.Len(t, e.sink.Errors(), 1)
	})
}
