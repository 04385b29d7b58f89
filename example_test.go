package hyperlsh_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/hyperlsh"
	"github.com/hupe1980/hyperlsh/distance"
)

// Example_build demonstrates indexing points and querying with a hyperplane.
func Example_build() {
	// Points on a line, extended with a constant 1 so the plane offset applies.
	data := [][]float64{
		{0, 0, 1},
		{1, 0, 1},
		{2, 0, 1},
		{3, 0, 1},
	}

	idx, err := hyperlsh.Build(context.Background(), data, hyperlsh.FH,
		hyperlsh.WithSeed(7),
		hyperlsh.WithTables(4),
	)
	if err != nil {
		log.Fatal(err)
	}

	// The plane x = 2: normal (1, 0), offset -2.
	res, err := idx.Search(context.Background(), hyperlsh.Query{
		Vector:     []float64{1, 0, -2},
		Top:        1,
		Limit:      10,
		Metric:     distance.DP2H,
		Separation: 1,
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(res[0].Idx, res[0].Value)
	// Output: 2 0
}

// Example_parseFamily demonstrates selecting a family by name.
func Example_parseFamily() {
	f, err := hyperlsh.ParseFamily("nh")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(f)
	// Output: NH
}
