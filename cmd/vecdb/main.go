// Command vecdb is a thin CLI shim over the engine façade: create, insert, get, delete,
// search, stats, generate, drop. It is not part of the core engine contract — every
// subcommand is a direct, unadorned call into package engine.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hupe1980/vecdb/engine"
	"github.com/hupe1980/vecdb/metric"
	"github.com/hupe1980/vecdb/util"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(int(engine.CodeInvalidArgs))
	}

	var err error
	switch os.Args[1] {
	case "create":
		err = runCreate(os.Args[2:])
	case "insert":
		err = runInsert(os.Args[2:])
	case "get":
		err = runGet(os.Args[2:])
	case "delete":
		err = runDelete(os.Args[2:])
	case "search":
		err = runSearch(os.Args[2:])
	case "stats":
		err = runStats(os.Args[2:])
	case "generate":
		err = runGenerate(os.Args[2:])
	case "drop":
		err = runDrop(os.Args[2:])
	default:
		usage()
		os.Exit(int(engine.CodeInvalidArgs))
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(int(engine.AsCode(err)))
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: vecdb <create|insert|get|delete|search|stats|generate|drop> [flags]")
}

func parseMetric(s string) (metric.Type, error) {
	m, ok := metric.ParseType(s)
	if !ok {
		return 0, fmt.Errorf("unknown metric %q", s)
	}
	return m, nil
}

func parseVector(s string) ([]float32, error) {
	parts := strings.Split(s, ",")
	vec := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid vector component %q: %w", p, err)
		}
		vec[i] = float32(f)
	}
	return vec, nil
}

func runCreate(args []string) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	path := fs.String("path", "", "store file path")
	dim := fs.Int("dim", 0, "vector dimension")
	metricName := fs.String("metric", "cosine", "cosine|dot|euclidean")
	if err := fs.Parse(args); err != nil {
		return err
	}

	m, err := parseMetric(*metricName)
	if err != nil {
		return err
	}

	e, err := engine.Create(engine.Config{Path: *path, Dimension: *dim, Metric: m}, nil)
	if err != nil {
		return err
	}
	defer e.Close()

	fmt.Println("created", *path)
	return nil
}

func runInsert(args []string) error {
	fs := flag.NewFlagSet("insert", flag.ExitOnError)
	path := fs.String("path", "", "store file path")
	id := fs.Uint64("id", 0, "vector id")
	vectorStr := fs.String("vector", "", "comma-separated floats")
	if err := fs.Parse(args); err != nil {
		return err
	}

	vec, err := parseVector(*vectorStr)
	if err != nil {
		return err
	}

	e, err := engine.Open(*path, nil)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.Insert(*id, vec); err != nil {
		return err
	}

	fmt.Println("inserted", *id)
	return nil
}

func runGet(args []string) error {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	path := fs.String("path", "", "store file path")
	id := fs.Uint64("id", 0, "vector id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	e, err := engine.Open(*path, nil)
	if err != nil {
		return err
	}
	defer e.Close()

	vec, err := e.Get(*id)
	if err != nil {
		return err
	}

	fmt.Println(formatVector(vec))
	return nil
}

func runDelete(args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	path := fs.String("path", "", "store file path")
	id := fs.Uint64("id", 0, "vector id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	e, err := engine.Open(*path, nil)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.Delete(*id); err != nil {
		return err
	}

	fmt.Println("deleted", *id)
	return nil
}

func runSearch(args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	path := fs.String("path", "", "store file path")
	queryStr := fs.String("query", "", "comma-separated floats")
	k := fs.Int("k", 10, "number of results")
	minSimilarity := fs.Float64("min-similarity", 0, "minimum score threshold")
	if err := fs.Parse(args); err != nil {
		return err
	}

	query, err := parseVector(*queryStr)
	if err != nil {
		return err
	}

	e, err := engine.Open(*path, nil)
	if err != nil {
		return err
	}
	defer e.Close()

	results, err := e.Search(query, *k, float32(*minSimilarity))
	if err != nil {
		return err
	}

	for _, r := range results {
		fmt.Printf("%d\t%f\n", r.ID, r.Score)
	}
	return nil
}

func runStats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	path := fs.String("path", "", "store file path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	e, err := engine.Open(*path, nil)
	if err != nil {
		return err
	}
	defer e.Close()

	stats, err := e.Stats()
	if err != nil {
		return err
	}

	fmt.Printf("live_count=%d dimension=%d metric=%s path=%s size_bytes=%d\n",
		stats.LiveCount, stats.Dimension, stats.Metric, stats.Path, stats.SizeBytes)
	return nil
}

func runGenerate(args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	path := fs.String("path", "", "store file path")
	dim := fs.Int("dim", 0, "vector dimension")
	metricName := fs.String("metric", "cosine", "cosine|dot|euclidean")
	count := fs.Int("count", 0, "number of random vectors to insert")
	seed := fs.Int64("seed", 1, "RNG seed")
	if err := fs.Parse(args); err != nil {
		return err
	}

	m, err := parseMetric(*metricName)
	if err != nil {
		return err
	}

	e, err := engine.Create(engine.Config{Path: *path, Dimension: *dim, Metric: m}, nil)
	if err != nil {
		return err
	}
	defer e.Close()

	rng := util.NewRNG(*seed)
	vectors := rng.GenerateRandomVectors(*count, *dim)
	for i, vec := range vectors {
		if err := e.Insert(uint64(i+1), vec); err != nil {
			return err
		}
	}

	fmt.Println("generated", *count, "vectors at", *path)
	return nil
}

func runDrop(args []string) error {
	fs := flag.NewFlagSet("drop", flag.ExitOnError)
	path := fs.String("path", "", "store file path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := engine.Drop(*path); err != nil {
		return err
	}

	fmt.Println("dropped", *path)
	return nil
}

func formatVector(vec []float32) string {
	parts := make([]string, len(vec))
	for i, v := range vec {
		parts[i] = strconv.FormatFloat(float64(v), 'g', -1, 32)
	}
	return strings.Join(parts, ",")
}
