package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hupe1980/nnindex"
	"github.com/hupe1980/nnindex/space"
	"github.com/hupe1980/nnindex/util"
)

func main() {
	ctx := context.Background()

	seed := int64(4711)
	dim := 32
	size := 50000
	k := 10

	rng := util.NewRNG(seed)
	vectors := rng.GenerateRandomVectors(size, dim)
	query := rng.GenerateRandomVectors(1, dim)

	fmt.Println("--- Insert ---")
	fmt.Println("Dimension:", dim)
	fmt.Println("Size:", size)

	graph, err := nnindex.NewGraph(space.MetricL2, dim)
	if err != nil {
		log.Fatal(err)
	}
	defer graph.Close()

	if err := graph.Init(size, func(o *nnindex.GraphInitOptions) {
		o.M = 32
	}); err != nil {
		log.Fatal(err)
	}

	start := time.Now()

	if err := graph.AddItems(ctx, vectors); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Seconds: %.2f\n\n", time.Since(start).Seconds())

	fmt.Println("--- KNN ---")

	graph.SetEF(80)

	start = time.Now()

	labels, distances, err := graph.SearchKNN(ctx, query, k)
	if err != nil {
		log.Fatal(err)
	}

	printResult(labels[0], distances[0])

	fmt.Printf("Seconds: %.8f\n\n", time.Since(start).Seconds())

	fmt.Println("--- Brute ---")

	brute, err := nnindex.NewBrute(space.MetricL2, dim)
	if err != nil {
		log.Fatal(err)
	}
	defer brute.Close()

	if err := brute.Init(size); err != nil {
		log.Fatal(err)
	}

	if err := brute.AddItems(ctx, vectors); err != nil {
		log.Fatal(err)
	}

	start = time.Now()

	labels, distances, err = brute.SearchKNN(ctx, query, k)
	if err != nil {
		log.Fatal(err)
	}

	printResult(labels[0], distances[0])

	fmt.Printf("Seconds: %.8f\n\n", time.Since(start).Seconds())
}

func printResult(labels []uint64, distances []float32) {
	for i := range labels {
		fmt.Printf("Label: %d, Distance: %.2f\n", labels[i], distances[i])
	}
}
