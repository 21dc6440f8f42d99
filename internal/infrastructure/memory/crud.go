package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/Bodega-api/internal/domain"
)

// crud implementación genérica de repository.Repository[T] sobre un mapa del estado.
type crud[T any] struct {
	sc    scope
	table func(*state) map[string]T
	id    func(*T) string
	less  func(a, b *T) bool
}

func (r crud[T]) Create(ctx context.Context, e *T) error {
	return r.sc.write(ctx, func(st *state) error {
		m := r.table(st)
		id := r.id(e)
		if _, ok := m[id]; ok {
			return domain.ErrDuplicate
		}
		m[id] = *e
		return nil
	})
}

func (r crud[T]) GetByID(_ context.Context, id string) (*T, error) {
	var out *T
	err := r.sc.read(func(st *state) error {
		if v, ok := r.table(st)[id]; ok {
			out = &v
		}
		return nil
	})
	return out, err
}

func (r crud[T]) List(_ context.Context, limit, offset int) ([]*T, error) {
	var out []*T
	err := r.sc.read(func(st *state) error {
		out = sortedValues(r.table(st), r.less)
		return nil
	})
	return page(out, limit, offset), err
}

func (r crud[T]) update(ctx context.Context, id string, fn func(*T) error) error {
	return r.sc.write(ctx, func(st *state) error {
		m := r.table(st)
		v, ok := m[id]
		if !ok {
			return domain.ErrNotFound
		}
		if err := fn(&v); err != nil {
			return err
		}
		m[id] = v
		return nil
	})
}

func sortedValues[T any](m map[string]T, less func(a, b *T) bool) []*T {
	out := make([]*T, 0, len(m))
	for _, v := range m {
		v := v
		out = append(out, &v)
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func page[T any](list []*T, limit, offset int) []*T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(list) {
		return []*T{}
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
