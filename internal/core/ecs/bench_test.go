package ecs

import (
	"fmt"
	"testing"
)

func populate(b *testing.B, size int) *World {
	b.Helper()
	w := NewWorld()
	for i := 0; i < size; i++ {
		e := w.CreateEntity()
		_ = Add(w, e, Position{X: i})
		if i%2 == 0 {
			_ = Add(w, e, Velocity{DX: 1, DY: 1})
		}
	}
	return w
}

func BenchmarkCreateEntity(b *testing.B) {
	for _, size := range []int{1000, 10000, 100000} {
		b.Run(fmt.Sprintf("%dK", size/1000), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				w := NewWorld()
				for j := 0; j < size; j++ {
					w.CreateEntity()
				}
			}
		})
	}
}

func BenchmarkQuery2(b *testing.B) {
	for _, size := range []int{1000, 10000, 100000} {
		b.Run(fmt.Sprintf("%dK", size/1000), func(b *testing.B) {
			w := populate(b, size)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				q := Query2[Write[Position], Read[Velocity]](w)
				for q.Next() {
					_, p, v := q.Get()
					vel := v.Get()
					pos := p.Get()
					pos.X += vel.DX
					pos.Y += vel.DY
				}
				q.Close()
			}
		})
	}
}

func BenchmarkGet(b *testing.B) {
	w := populate(b, 10000)
	ids := w.entities.Entities()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Get[Position](w, ids[i%len(ids)])
	}
}

func BenchmarkRunSystems(b *testing.B) {
	w := populate(b, 10000)
	_ = w.RegisterFunc("move", []Access{Writes[Position](), Reads[Velocity]()}, func(ctx *Context) error {
		Query2[Write[Position], Read[Velocity]](ctx).ForEach(func(_ Entity, p Write[Position], v Read[Velocity]) {
			p.Get().X += v.Get().DX
		})
		return nil
	})
	if err := w.FinalizeSystems(); err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := w.RunSystems(); err != nil {
			b.Fatal(err)
		}
	}
}
