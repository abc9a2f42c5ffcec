package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Collection is typed access to one sub-collection of every game.
type Collection[T any] struct {
	gw   Gateway
	name string
}

func NewCollection[T any](gw Gateway, name string) Collection[T] {
	return Collection[T]{gw: gw, name: name}
}

func (c Collection[T]) Name() string {
	return c.name
}

func (c Collection[T]) Ref(gameID, id string) Ref {
	return Ref{GameID: gameID, Collection: c.name, ID: id}
}

func (c Collection[T]) Get(ctx context.Context, gameID, id string) (*T, error) {
	data, err := c.gw.Get(ctx, c.Ref(gameID, id))
	if err != nil {
		return nil, err
	}
	v := new(T)
	if err := json.Unmarshal(data, v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.Ref(gameID, id).Path(), err)
	}
	return v, nil
}

func (c Collection[T]) Set(ctx context.Context, gameID, id string, v *T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.Ref(gameID, id).Path(), err)
	}
	return c.gw.Set(ctx, c.Ref(gameID, id), data)
}

// Upsert runs fn on the current value (zero value when absent) inside one
// atomic read-modify-write and returns the value fn left behind. Returning
// ErrNoChange from fn skips the write.
func (c Collection[T]) Upsert(ctx context.Context, gameID, id string, fn func(v *T, exists bool) error) (*T, error) {
	ref := c.Ref(gameID, id)
	var out *T
	err := c.gw.Update(ctx, ref, func(current []byte) ([]byte, error) {
		v := new(T)
		exists := current != nil
		if exists {
			if err := json.Unmarshal(current, v); err != nil {
				return nil, fmt.Errorf("decode %s: %w", ref.Path(), err)
			}
		}
		out = v
		if err := fn(v, exists); err != nil {
			if errors.Is(err, ErrNoChange) {
				return nil, nil
			}
			return nil, err
		}
		return json.Marshal(v)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update is Upsert for documents that must already exist; it returns
// ErrNotFound otherwise.
func (c Collection[T]) Update(ctx context.Context, gameID, id string, fn func(v *T) error) (*T, error) {
	return c.Upsert(ctx, gameID, id, func(v *T, exists bool) error {
		if !exists {
			return ErrNotFound
		}
		return fn(v)
	})
}

func (c Collection[T]) Delete(ctx context.Context, gameID, id string) error {
	return c.gw.Delete(ctx, c.Ref(gameID, id))
}

func (c Collection[T]) List(ctx context.Context, gameID string) ([]*T, error) {
	return c.Where(ctx, gameID)
}

func (c Collection[T]) Where(ctx context.Context, gameID string, conds ...Condition) ([]*T, error) {
	snaps, err := c.gw.Query(ctx, Query{GameID: gameID, Collection: c.name, Where: conds})
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(snaps))
	for _, snap := range snaps {
		v := new(T)
		if err := json.Unmarshal(snap.Data, v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", snap.Ref.Path(), err)
		}
		out = append(out, v)
	}
	return out, nil
}
