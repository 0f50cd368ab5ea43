// Profiling:
// go build ./cmd/ecsbench
// ./ecsbench -mode mem
// go tool pprof -http=":8000" -nodefraction=0.001 ./ecsbench mem.pprof

package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/l1jgo/gridecs/internal/core/ecs"
	"github.com/pkg/profile"
)

type comp1 struct {
	V int64
	W int64
}

type comp2 struct {
	V int64
	W int64
}

type comp3 struct {
	V int64
}

func main() {
	fs := flag.NewFlagSet("ecsbench", flag.ExitOnError)
	mode := fs.String("mode", "cpu", "profile mode: cpu, mem or off")
	rounds := fs.Int("rounds", 20, "worlds to build")
	iters := fs.Int("iters", 1000, "system steps per world")
	entities := fs.Int("entities", 1000, "entities per world")
	_ = fs.Parse(os.Args[1:])

	var p interface{ Stop() }
	switch *mode {
	case "cpu":
		p = profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	case "mem":
		p = profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
	case "off":
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", *mode)
		os.Exit(2)
	}

	start := time.Now()
	if err := run(*rounds, *iters, *entities); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
	if p != nil {
		p.Stop()
	}
	fmt.Printf("%d rounds x %d steps x %d entities in %s\n", *rounds, *iters, *entities, time.Since(start))
}

func run(rounds, iters, numEntities int) error {
	for r := 0; r < rounds; r++ {
		w := ecs.NewWorld()
		for i := 0; i < numEntities; i++ {
			e := w.CreateEntity()
			if err := ecs.Add(w, e, comp1{V: int64(i)}); err != nil {
				return err
			}
			if err := ecs.Add(w, e, comp2{V: 1, W: 2}); err != nil {
				return err
			}
			if i%3 == 0 {
				if err := ecs.Add(w, e, comp3{V: 1}); err != nil {
					return err
				}
			}
		}

		err := w.RegisterFunc("integrate", []ecs.Access{ecs.Writes[comp1](), ecs.Reads[comp2]()}, func(ctx *ecs.Context) error {
			ecs.Query2[ecs.Write[comp1], ecs.Read[comp2]](ctx).ForEach(func(_ ecs.Entity, a ecs.Write[comp1], b ecs.Read[comp2]) {
				v := b.Get()
				a.Get().V += v.V
				a.Get().W += v.W
			})
			return nil
		})
		if err != nil {
			return err
		}
		err = w.RegisterFunc("decay", []ecs.Access{ecs.Writes[comp3]()}, func(ctx *ecs.Context) error {
			ecs.Query1[ecs.Write[comp3]](ctx, ecs.With[comp1]()).ForEach(func(_ ecs.Entity, c ecs.Write[comp3]) {
				c.Get().V--
			})
			return nil
		}, "integrate")
		if err != nil {
			return err
		}

		for s := 0; s < iters; s++ {
			if err := w.RunSystems(); err != nil {
				return err
			}
		}
	}
	return nil
}
