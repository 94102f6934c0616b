package catalog

import (
	"context"
	"sync"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/google/uuid"
)

// Fake is an in-memory RecordStore for tests and local development. Calls can
// be scripted to fail with FailNext, and every call is counted so tests can
// assert that validation gating issued zero remote calls.
type Fake struct {
	mu sync.Mutex

	types []models.VariationType
	attrs []models.AttributeValue

	// failures maps an operation name to the error its next call returns.
	failures map[string]error

	// Calls counts invocations per operation name.
	Calls map[string]int
}

// NewFake creates an empty fake record store.
func NewFake() *Fake {
	return &Fake{
		failures: make(map[string]error),
		Calls:    make(map[string]int),
	}
}

// FailNext makes the next call to the named operation return err.
func (f *Fake) FailNext(operation string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[operation] = err
}

// SeedTypes replaces the stored variation types.
func (f *Fake) SeedTypes(types ...models.VariationType) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.types = append([]models.VariationType{}, types...)
}

// SeedAttributes replaces the stored attribute values.
func (f *Fake) SeedAttributes(attrs ...models.AttributeValue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attrs = append([]models.AttributeValue{}, attrs...)
}

// CallCount returns how many times the named operation was invoked.
func (f *Fake) CallCount(operation string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls[operation]
}

func (f *Fake) begin(operation string) error {
	f.Calls[operation]++
	if err, ok := f.failures[operation]; ok {
		delete(f.failures, operation)
		return err
	}
	return nil
}

func (f *Fake) ListVariationTypes(ctx context.Context) ([]models.VariationType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("ListVariationTypes"); err != nil {
		return nil, err
	}
	return append([]models.VariationType{}, f.types...), nil
}

func (f *Fake) CreateVariationType(ctx context.Context, name string) (*models.VariationType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("CreateVariationType"); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	vt := models.VariationType{ID: &id, Name: name, DisplayOrder: len(f.types)}
	f.types = append(f.types, vt)
	return &vt, nil
}

func (f *Fake) UpdateVariationType(ctx context.Context, id, name string) (*models.VariationType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("UpdateVariationType"); err != nil {
		return nil, err
	}

	for i := range f.types {
		if f.types[i].ID != nil && *f.types[i].ID == id {
			f.types[i].Name = name
			vt := f.types[i]
			return &vt, nil
		}
	}
	return nil, models.NewRemoteRejected("variation type not found", nil)
}

func (f *Fake) DeleteVariationType(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DeleteVariationType"); err != nil {
		return err
	}

	for i := range f.types {
		if f.types[i].ID != nil && *f.types[i].ID == id {
			f.types = append(f.types[:i], f.types[i+1:]...)
			// Attribute values referencing the type are intentionally left
			// behind; the store does not cascade.
			return nil
		}
	}
	return models.NewRemoteRejected("variation type not found", nil)
}

func (f *Fake) ListAttributeValues(ctx context.Context, variationTypeID string) ([]models.AttributeValue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("ListAttributeValues"); err != nil {
		return nil, err
	}

	if variationTypeID == "" {
		return append([]models.AttributeValue{}, f.attrs...), nil
	}

	out := make([]models.AttributeValue, 0)
	for _, a := range f.attrs {
		if a.VariationTypeID == variationTypeID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *Fake) CreateAttributeValue(ctx context.Context, req models.CreateAttributeRequest) (*models.AttributeValue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("CreateAttributeValue"); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	av := models.AttributeValue{
		ID:              &id,
		VariationTypeID: req.VariationTypeID,
		Value:           req.Value,
		Price:           req.Price,
	}
	if req.Image != nil {
		av.ImageURL = "https://cdn.test/images/" + id + "/" + req.Image.Filename()
	}
	f.attrs = append(f.attrs, av)
	return &av, nil
}

func (f *Fake) UpdateAttributeValue(ctx context.Context, id string, req models.UpdateAttributeRequest) (*models.AttributeValue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("UpdateAttributeValue"); err != nil {
		return nil, err
	}

	for i := range f.attrs {
		if f.attrs[i].ID != nil && *f.attrs[i].ID == id {
			if req.Value != nil {
				f.attrs[i].Value = *req.Value
			}
			if req.Price != nil {
				f.attrs[i].Price = *req.Price
			}
			if req.Image != nil {
				f.attrs[i].ImageURL = "https://cdn.test/images/" + id + "/" + req.Image.Filename()
			}
			av := f.attrs[i]
			return &av, nil
		}
	}
	return nil, models.NewRemoteRejected("attribute value not found", nil)
}

func (f *Fake) DeleteAttributeValue(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DeleteAttributeValue"); err != nil {
		return err
	}

	for i := range f.attrs {
		if f.attrs[i].ID != nil && *f.attrs[i].ID == id {
			f.attrs = append(f.attrs[:i], f.attrs[i+1:]...)
			return nil
		}
	}
	return models.NewRemoteRejected("attribute value not found", nil)
}
