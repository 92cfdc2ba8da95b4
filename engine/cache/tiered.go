package cache

import "context"

// Tiered layers a fast front store over a durable back store. Reads fill
// the front on a back hit; writes go to both.
type Tiered struct {
	front Store
	back  Store
}

// NewTiered composes front over back.
func NewTiered(front, back Store) *Tiered {
	return &Tiered{front: front, back: back}
}

// Get consults the front first, then the back, filling the front on a hit.
func (t *Tiered) Get(ctx context.Context, key string) (*Entry, error) {
	if e, err := t.front.Get(ctx, key); err == nil && e != nil {
		return e, nil
	}
	e, err := t.back.Get(ctx, key)
	if err != nil || e == nil {
		return e, err
	}
	// Front fill is best-effort; the durable copy already exists.
	_ = t.front.Put(ctx, key, *e)
	return e, nil
}

// Put writes the durable store first so a front-only entry can never
// outlive a failed durable write.
func (t *Tiered) Put(ctx context.Context, key string, e Entry) error {
	if err := t.back.Put(ctx, key, e); err != nil {
		return err
	}
	return t.front.Put(ctx, key, e)
}
