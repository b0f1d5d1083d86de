// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package beta is the second copy of the fixture module used by tests.
// Its types mirror package alpha by name only.
package beta

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"

	"github.com/tochemey/alcproxy/domain"
	"github.com/tochemey/alcproxy/typeid"
)

const (
	ModuleIdentity = "fixture@1.0.0"
	ModulePath     = "fixture"
)

type ICounter interface {
	Increment() int32
	Current() int32
}

type Counter struct {
	count int32
}

func NewCounter() *Counter {
	return &Counter{}
}

func NewCounterFrom(start int32) *Counter {
	return &Counter{count: start}
}

func (c *Counter) Increment() int32 {
	c.count++
	return c.count
}

func (c *Counter) Current() int32 {
	return c.count
}

type IRenderable interface {
	Render() string
}

type IShape interface {
	Area() float64
	Render() string
}

type Circle struct {
	Radius float64
}

func (c Circle) Area() float64 {
	return math.Round(math.Pi*c.Radius*c.Radius*100) / 100
}

func (c Circle) Render() string {
	return fmt.Sprintf("circle(%g)", c.Radius)
}

type Shape struct {
	Name string
}

type Square struct {
	Name string
	Side float64
}

type Tile struct {
	Name  string
	Side  float64
	Color string
}

type Label struct {
	Text string
}

type IDrawing interface {
	Describe(shape IShape) string
	Render(item IRenderable) string
	Measure(shape Shape) string
	Scale(c Circle, factor float64) Circle
	Largest(circles []Circle) IShape
	Tag(label Label) string
	Join(sep string, parts ...string) string
	Reset()
	Count() int
	Fail(reason string) error
	Divide(a, b int32) (int32, error)
	Explode()
	LastEcho() string
}

type Drawing struct {
	mu       sync.Mutex
	count    int
	lastEcho string
}

func NewDrawing() *Drawing {
	return &Drawing{}
}

func (d *Drawing) Describe(shape IShape) string {
	d.touch()
	return fmt.Sprintf("%s area=%g", shape.Render(), shape.Area())
}

func (d *Drawing) Render(item IRenderable) string {
	d.touch()
	return item.Render()
}

func (d *Drawing) Measure(shape Shape) string {
	d.touch()
	return "measured " + shape.Name
}

func (d *Drawing) Scale(c Circle, factor float64) Circle {
	d.touch()
	return Circle{Radius: c.Radius * factor}
}

func (d *Drawing) Largest(circles []Circle) IShape {
	d.touch()
	if len(circles) == 0 {
		return nil
	}
	largest := circles[0]
	for _, c := range circles[1:] {
		if c.Radius > largest.Radius {
			largest = c
		}
	}
	return largest
}

func (d *Drawing) Tag(label Label) string {
	d.touch()
	return "tag:" + label.Text
}

func (d *Drawing) Join(sep string, parts ...string) string {
	d.touch()
	return strings.Join(parts, sep)
}

func (d *Drawing) Reset() {
	d.mu.Lock()
	d.count = 0
	d.mu.Unlock()
}

func (d *Drawing) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count
}

func (d *Drawing) Fail(reason string) error {
	return errors.New(reason)
}

func (d *Drawing) Divide(a, b int32) (int32, error) {
	if b == 0 {
		return 0, errors.New("division by zero")
	}
	return a / b, nil
}

func (d *Drawing) Explode() {
	panic("exploded")
}

func (d *Drawing) LastEcho() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastEcho
}

func (d *Drawing) touch() {
	d.mu.Lock()
	d.count++
	d.mu.Unlock()
}

type IBox[T any] interface {
	Get() T
	Set(value T)
}

type Box[T any] struct {
	value T
}

func NewBox[T any]() *Box[T] {
	return &Box[T]{}
}

func NewBoxOf[T any](value T) *Box[T] {
	return &Box[T]{value: value}
}

func (b *Box[T]) Get() T {
	return b.value
}

func (b *Box[T]) Set(value T) {
	b.value = value
}

// Module builds the fixture module. onConstruct, when set, is told the name
// of every type a constructor instantiates.
func Module(onConstruct func(name string)) (*domain.Module, error) {
	hook := func(name string) {
		if onConstruct != nil {
			onConstruct(name)
		}
	}

	return domain.NewModule(ModuleIdentity, ModulePath,
		domain.TypeDef{
			Name: "fixture.ICounter",
			Type: reflect.TypeFor[ICounter](),
		},
		domain.TypeDef{
			Name:       "fixture.Counter",
			Type:       reflect.TypeFor[*Counter](),
			Supertypes: []typeid.TypeIdentity{ref("fixture.ICounter")},
			Constructors: []any{
				func() *Counter {
					hook("fixture.Counter")
					return NewCounter()
				},
				func(start int32) (*Counter, error) {
					if start < 0 {
						return nil, errors.New("start must not be negative")
					}
					hook("fixture.Counter")
					return NewCounterFrom(start), nil
				},
			},
		},
		domain.TypeDef{
			Name:       "fixture.IRenderable",
			Type:       reflect.TypeFor[IRenderable](),
			Supertypes: []typeid.TypeIdentity{ref("fixture.IShape")},
		},
		domain.TypeDef{
			Name:       "fixture.IShape",
			Type:       reflect.TypeFor[IShape](),
			Supertypes: []typeid.TypeIdentity{ref("fixture.IRenderable")},
		},
		domain.TypeDef{
			Name:       "fixture.Circle",
			Type:       reflect.TypeFor[Circle](),
			Supertypes: []typeid.TypeIdentity{ref("fixture.IRenderable")},
		},
		domain.TypeDef{
			Name:       "fixture.Shape",
			Type:       reflect.TypeFor[Shape](),
			Supertypes: []typeid.TypeIdentity{ref("fixture.Tile")},
		},
		domain.TypeDef{
			Name:       "fixture.Square",
			Type:       reflect.TypeFor[Square](),
			Supertypes: []typeid.TypeIdentity{ref("fixture.Shape")},
		},
		domain.TypeDef{
			Name:       "fixture.Tile",
			Type:       reflect.TypeFor[Tile](),
			Supertypes: []typeid.TypeIdentity{ref("fixture.Square")},
		},
		domain.TypeDef{
			Name: "fixture.Label",
			Type: reflect.TypeFor[Label](),
		},
		domain.TypeDef{
			Name:    "fixture.IDrawing",
			Type:    reflect.TypeFor[IDrawing](),
			Methods: []domain.Method{echo(reflect.TypeFor[IDrawing]())},
		},
		domain.TypeDef{
			Name:       "fixture.Drawing",
			Type:       reflect.TypeFor[*Drawing](),
			Supertypes: []typeid.TypeIdentity{ref("fixture.IDrawing")},
			Constructors: []any{
				func() *Drawing {
					hook("fixture.Drawing")
					return NewDrawing()
				},
			},
			Methods: []domain.Method{
				{
					Name: "Tag",
					Func: func(d *Drawing, shape Shape) string {
						d.touch()
						return "shape:" + shape.Name
					},
				},
				echo(reflect.TypeFor[*Drawing]()),
			},
		},
		domain.TypeDef{
			Name: "fixture.IBox",
			Generic: &domain.GenericDef{
				Arity: 1,
				Close: closer(map[reflect.Type]reflect.Type{
					reflect.TypeFor[int32]():  reflect.TypeFor[IBox[int32]](),
					reflect.TypeFor[string](): reflect.TypeFor[IBox[string]](),
					reflect.TypeFor[Circle](): reflect.TypeFor[IBox[Circle]](),
				}),
				Open: opener(map[reflect.Type]reflect.Type{
					reflect.TypeFor[IBox[int32]]():  reflect.TypeFor[int32](),
					reflect.TypeFor[IBox[string]](): reflect.TypeFor[string](),
					reflect.TypeFor[IBox[Circle]](): reflect.TypeFor[Circle](),
				}),
			},
		},
		domain.TypeDef{
			Name: "fixture.Box",
			Generic: &domain.GenericDef{
				Arity: 1,
				Close: closer(map[reflect.Type]reflect.Type{
					reflect.TypeFor[int32]():  reflect.TypeFor[*Box[int32]](),
					reflect.TypeFor[string](): reflect.TypeFor[*Box[string]](),
					reflect.TypeFor[Circle](): reflect.TypeFor[*Box[Circle]](),
				}),
				Open: opener(map[reflect.Type]reflect.Type{
					reflect.TypeFor[*Box[int32]]():  reflect.TypeFor[int32](),
					reflect.TypeFor[*Box[string]](): reflect.TypeFor[string](),
					reflect.TypeFor[*Box[Circle]](): reflect.TypeFor[Circle](),
				}),
			},
			Constructors: []any{
				NewBox[int32], NewBox[string], NewBox[Circle],
				NewBoxOf[int32], NewBoxOf[string], NewBoxOf[Circle],
			},
		},
	)
}

// Loader returns a loader serving the fixture module
func Loader(onConstruct func(name string)) domain.Loader {
	return func(path string) (*domain.Module, error) {
		if path != ModulePath {
			return nil, fmt.Errorf("module (%s) not found", path)
		}
		return Module(onConstruct)
	}
}

func ref(name string) typeid.TypeIdentity {
	return typeid.New(ModuleIdentity, ModulePath, name)
}

// echo declares the generic method Echo[T](value T) T on the receiver type.
// Instantiations on *Drawing remember the type they were closed over.
func echo(receiver reflect.Type) domain.Method {
	return domain.Method{
		Name:       "Echo",
		TypeParams: 1,
		Instantiate: func(typeArgs []reflect.Type) (any, error) {
			if len(typeArgs) != 1 || typeArgs[0] == nil {
				return nil, errors.New("echo takes exactly one type argument")
			}
			arg := typeArgs[0]
			fnType := reflect.FuncOf([]reflect.Type{receiver, arg}, []reflect.Type{arg}, false)
			fn := reflect.MakeFunc(fnType, func(in []reflect.Value) []reflect.Value {
				if d, ok := in[0].Interface().(*Drawing); ok && d != nil {
					d.mu.Lock()
					d.lastEcho = arg.String()
					d.mu.Unlock()
				}
				return []reflect.Value{in[1]}
			})
			return fn.Interface(), nil
		},
	}
}

func closer(closed map[reflect.Type]reflect.Type) func([]reflect.Type) (reflect.Type, error) {
	return func(args []reflect.Type) (reflect.Type, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("expected one type argument, got %d", len(args))
		}
		t, ok := closed[args[0]]
		if !ok {
			return nil, fmt.Errorf("type argument (%v) is not supported", args[0])
		}
		return t, nil
	}
}

func opener(open map[reflect.Type]reflect.Type) func(reflect.Type) ([]reflect.Type, bool) {
	return func(t reflect.Type) ([]reflect.Type, bool) {
		arg, ok := open[t]
		if !ok {
			return nil, false
		}
		return []reflect.Type{arg}, true
	}
}
