package pointgrid

import (
	"context"
	"fmt"
	"testing"

	"github.com/hupe1980/pointgrid/testutil"
)

func benchGrid(b *testing.B, n int, clustered bool) *PointGrid {
	b.Helper()

	rng := testutil.NewRNG(4711)

	var p *PointGrid
	var err error
	if clustered {
		p, err = FromPositions(rng.ClusteredPositions(n, 8, 128, 4))
	} else {
		p, err = FromPositions(rng.UniformPositions(n, 128))
	}
	if err != nil {
		b.Fatal(err)
	}

	if err := p.DeclareGroup("dead"); err != nil {
		b.Fatal(err)
	}
	for _, r := range p.Grid().Regions() {
		for i := uint32(0); i < r.PointCount(); i += 2 {
			if err := r.SetGroupMember("dead", i, true); err != nil {
				b.Fatal(err)
			}
		}
	}
	return p
}

func BenchmarkDeleteFromGroups(b *testing.B) {
	ctx := context.Background()

	for _, size := range []int{10000, 100000} {
		for _, clustered := range []bool{false, true} {
			layout := "uniform"
			if clustered {
				layout = "clustered"
			}
			b.Run(fmt.Sprintf("n=%d/%s", size, layout), func(b *testing.B) {
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					b.StopTimer()
					p := benchGrid(b, size, clustered)
					b.StartTimer()

					if err := p.DeleteFromGroups(ctx, []string{"dead"}, false); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

func BenchmarkDeleteFromGroupsParallelism(b *testing.B) {
	ctx := context.Background()

	for _, parallelism := range []int{1, 4, 8} {
		b.Run(fmt.Sprintf("p=%d", parallelism), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				b.StopTimer()
				p := benchGrid(b, 100000, false)
				p.opts.parallelism = parallelism
				b.StartTimer()

				if err := p.DeleteFromGroups(ctx, []string{"dead"}, false); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
