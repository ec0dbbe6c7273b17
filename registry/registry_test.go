package registry_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/reglet-dev/reglet-multiscale/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Shape interface {
	Area() int
}

type Square struct {
	Side int `arg:"side" json:"side"`
}

func (s *Square) Area() int { return s.Side * s.Side }

func newSquare(args registry.Args) (*Square, error) {
	s := &Square{}
	if err := args.Decode(s); err != nil {
		return nil, err
	}
	return s, nil
}

type Rect[V any] struct {
	W, H int
}

func (r *Rect[V]) Area() int { return r.W * r.H }

func newRect(args registry.Args) (*Rect[int], error) {
	var a struct {
		W int `arg:"w"`
		H int `arg:"h"`
	}
	if err := args.Decode(&a); err != nil {
		return nil, err
	}
	return &Rect[int]{W: a.W, H: a.H}, nil
}

func newShapes(t *testing.T, opts ...registry.Option[Shape]) *registry.Registry[Shape] {
	t.Helper()
	r := registry.New[Shape]("shapes", opts...)
	_, err := r.Register(registry.KindOf[Shape](newSquare).WithArgs(Square{}))
	require.NoError(t, err)
	_, err = r.Register(registry.KindOf[Shape](newRect))
	require.NoError(t, err)
	return r
}

func TestKindOf_DeclaredName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Square", registry.KindOf[Shape](newSquare).Name)
	assert.Equal(t, "Rect", registry.KindOf[Shape](newRect).Name)
}

func TestKindOf_NotAssignablePanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		registry.KindOf[Shape](func(registry.Args) (string, error) { return "", nil })
	})
}

func TestRegistry_Register(t *testing.T) {
	t.Parallel()

	t.Run("returns kind unchanged", func(t *testing.T) {
		r := registry.New[Shape]("shapes")
		kind := registry.KindOf[Shape](newSquare)
		got, err := r.Register(kind)
		require.NoError(t, err)
		assert.Equal(t, kind.Name, got.Name)

		looked, err := r.Lookup("Square")
		require.NoError(t, err)
		assert.Equal(t, "Square", looked.Name)
	})

	t.Run("duplicate", func(t *testing.T) {
		r := newShapes(t)
		_, err := r.Register(registry.KindOf[Shape](newSquare))
		require.Error(t, err)
		assert.ErrorIs(t, err, registry.ErrDuplicateRegistration)

		var dup *registry.DuplicateRegistrationError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "Square", dup.Kind)
		assert.Equal(t, "shapes", dup.Registry)
		assert.Equal(t, 2, r.Len())
	})

	t.Run("must register panics on duplicate", func(t *testing.T) {
		r := newShapes(t)
		assert.Panics(t, func() {
			r.MustRegister(registry.KindOf[Shape](newRect))
		})
	})

	t.Run("empty name", func(t *testing.T) {
		r := registry.New[Shape]("shapes")
		_, err := r.Register(registry.Kind[Shape]{New: func(registry.Args) (Shape, error) { return nil, nil }})
		assert.Error(t, err)
	})

	t.Run("nil constructor", func(t *testing.T) {
		r := registry.New[Shape]("shapes")
		_, err := r.Register(registry.Kind[Shape]{Name: "Nothing"})
		assert.Error(t, err)
	})
}

func TestRegistry_ReadAccess(t *testing.T) {
	t.Parallel()

	r := newShapes(t)

	assert.Equal(t, "shapes", r.Name())
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"Square", "Rect"}, r.Names())

	var seen []string
	for name, kind := range r.All() {
		assert.Equal(t, name, kind.Name)
		seen = append(seen, name)
	}
	assert.Equal(t, []string{"Square", "Rect"}, seen)

	_, err := r.Lookup("Circle")
	require.Error(t, err)
	assert.ErrorIs(t, err, registry.ErrUnknownKind)
}

func TestRegistry_BuildDefault(t *testing.T) {
	t.Parallel()

	r := newShapes(t)

	tests := []struct {
		name     string
		config   any
		wantArea int
		wantErr  error
	}{
		{
			name:     "square",
			config:   map[string]any{"type": "Square", "side": 3},
			wantArea: 9,
		},
		{
			name:     "rect from map with any keys",
			config:   map[any]any{"type": "Rect", "w": 2, "h": 5},
			wantArea: 10,
		},
		{
			name:     "args mapping",
			config:   registry.Args{"type": "Square", "side": 4},
			wantArea: 16,
		},
		{
			name:    "unknown type",
			config:  map[string]any{"type": "Circle", "radius": 1},
			wantErr: registry.ErrUnknownKind,
		},
		{
			name:    "missing type",
			config:  map[string]any{"side": 3},
			wantErr: registry.ErrMissingField,
		},
		{
			name:    "not a mapping",
			config:  42,
			wantErr: registry.ErrInvalidConfig,
		},
		{
			name:    "non-string type",
			config:  map[string]any{"type": 7},
			wantErr: registry.ErrInvalidConfig,
		},
		{
			name:    "typed map without type",
			config:  map[string]int{"side": 3},
			wantErr: registry.ErrMissingField,
		},
		{
			name:    "typed map with unknown type",
			config:  map[string]string{"type": "Circle"},
			wantErr: registry.ErrUnknownKind,
		},
		{
			name:    "non-string keys",
			config:  map[int]any{1: "Square"},
			wantErr: registry.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			shape, err := r.Build(tt.config)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantArea, shape.Area())
		})
	}
}

func TestRegistry_WithLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	newShapes(t, registry.WithLogger[Shape](logger))

	assert.Contains(t, buf.String(), "kind=Square")
	assert.Contains(t, buf.String(), "registry=shapes")
}

func TestRegistry_BuildDoesNotMutateConfig(t *testing.T) {
	t.Parallel()

	r := newShapes(t)
	config := map[string]any{"type": "Square", "side": 2}

	_, err := r.Build(config)
	require.NoError(t, err)
	assert.Equal(t, "Square", config["type"])
}

func TestRegistry_ConstructorErrorsPropagate(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("boom")
	r := registry.New[Shape]("shapes")
	r.MustRegister(registry.Kind[Shape]{
		Name: "Broken",
		New:  func(registry.Args) (Shape, error) { return nil, sentinel },
	})

	_, err := r.Build(map[string]any{"type": "Broken"})
	assert.Same(t, sentinel, err)

	// Argument errors come from the constructor itself.
	r2 := newShapes(t)
	_, err = r2.Build(map[string]any{"type": "Square", "side": 1, "colour": "red"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, registry.ErrUnknownKind)
	assert.Contains(t, err.Error(), "colour")

	_, err = r2.Build(map[string]any{"type": "Square"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "side")
}

func TestRegistry_CustomBuildFunc(t *testing.T) {
	t.Parallel()

	// Integers are shorthand for a square of that side.
	build := func(config any, r *registry.Registry[Shape]) (Shape, error) {
		if side, ok := config.(int); ok {
			return r.BuildKind("Square", registry.Args{"side": side})
		}
		return r.BuildDefault(config)
	}
	r := newShapes(t, registry.WithBuildFunc[Shape](build))

	shape, err := r.Build(5)
	require.NoError(t, err)
	assert.Equal(t, 25, shape.Area())

	shape, err = r.Build(map[string]any{"type": "Rect", "w": 1, "h": 3})
	require.NoError(t, err)
	assert.Equal(t, 3, shape.Area())
}

func TestRegistry_Schema(t *testing.T) {
	t.Parallel()

	r := newShapes(t)

	s, err := r.Schema("Square")
	require.NoError(t, err)
	assert.Contains(t, s, `"side"`)
	assert.Contains(t, s, `"Square"`)

	s, err = r.Schema("Rect")
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"object"}`, s)

	_, err = r.Schema("Circle")
	assert.ErrorIs(t, err, registry.ErrUnknownKind)
}

func TestAsMapping(t *testing.T) {
	t.Parallel()

	m, ok := registry.AsMapping(map[any]any{"a": 1})
	require.True(t, ok)
	assert.Equal(t, map[string]any{"a": 1}, m)

	_, ok = registry.AsMapping(map[any]any{1: "a"})
	assert.False(t, ok)

	type label string
	m, ok = registry.AsMapping(map[label]float64{"weight": 0.5})
	require.True(t, ok)
	assert.Equal(t, map[string]any{"weight": 0.5}, m)

	m, ok = registry.AsMapping(map[string]string{"type": "Square"})
	require.True(t, ok)
	assert.Equal(t, map[string]any{"type": "Square"}, m)

	_, ok = registry.AsMapping(map[int]string{1: "a"})
	assert.False(t, ok)

	assert.True(t, registry.IsMapping(map[int]string{}))
	assert.True(t, registry.IsMapping(map[string]string{}))
	assert.False(t, registry.IsMapping([]any{"a"}))
	assert.False(t, registry.IsMapping(nil))

	_, ok = registry.AsMapping([]any{"a"})
	assert.False(t, ok)

	_, ok = registry.AsMapping("a")
	assert.False(t, ok)
}
