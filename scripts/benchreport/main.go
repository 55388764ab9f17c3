// Command benchreport turns `go test -bench` output (plain or -json) into a
// markdown table per package.
//
//	go test -run '^$' -bench . -benchmem ./heap/... | go run ./scripts/benchreport
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// BenchmarkResult is one parsed benchmark line.
type BenchmarkResult struct {
	Package     string
	Name        string
	Procs       int
	Iterations  int
	NsPerOp     float64
	BytesPerOp  int64
	AllocsPerOp int64
}

var (
	inputFile  = flag.String("input", "", "Input file with benchmark output (stdin if not specified)")
	outputFile = flag.String("output", "", "Output markdown file (stdout if not specified)")
	quiet      = flag.Bool("quiet", false, "Suppress progress output")
)

// Benchmark_FindRegion_Split-8    1000000    1043 ns/op    0 B/op    0 allocs/op
var benchmarkRegex = regexp.MustCompile(
	`^(Benchmark\S+?)(?:-(\d+))?\s+(\d+)\s+([\d.]+)\s+ns/op(?:\s+(\d+)\s+B/op)?(?:\s+(\d+)\s+allocs/op)?`,
)

func main() {
	flag.Parse()

	var in io.Reader = os.Stdin
	if *inputFile != "" {
		f, err := os.Open(*inputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening input file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	results, err := parseBenchmarks(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading benchmarks: %v\n", err)
		os.Exit(1)
	}
	if !*quiet {
		fmt.Fprintf(os.Stderr, "Parsed %d benchmark results\n", len(results))
	}

	report := generateMarkdownReport(results)
	if *outputFile == "" {
		fmt.Fprint(os.Stdout, report)
		return
	}
	if err := os.WriteFile(*outputFile, []byte(report), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
		os.Exit(1)
	}
	if !*quiet {
		fmt.Fprintf(os.Stderr, "Report written to %s\n", *outputFile)
	}
}

func parseBenchmarks(r io.Reader) ([]BenchmarkResult, error) {
	var results []BenchmarkResult
	pkg := ""

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()

		// go test -json wraps every output line in a test event.
		var event struct {
			Package string
			Output  string
		}
		if err := json.Unmarshal([]byte(line), &event); err == nil && event.Output != "" {
			line = event.Output
			if event.Package != "" {
				pkg = event.Package
			}
		}
		line = strings.TrimSpace(line)

		if p, ok := strings.CutPrefix(line, "pkg: "); ok {
			pkg = p
			continue
		}

		m := benchmarkRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		res := BenchmarkResult{Package: pkg, Name: strings.TrimPrefix(m[1], "Benchmark")}
		res.Procs, _ = strconv.Atoi(m[2])
		res.Iterations, _ = strconv.Atoi(m[3])
		res.NsPerOp, _ = strconv.ParseFloat(m[4], 64)
		if m[5] != "" {
			res.BytesPerOp, _ = strconv.ParseInt(m[5], 10, 64)
		}
		if m[6] != "" {
			res.AllocsPerOp, _ = strconv.ParseInt(m[6], 10, 64)
		}
		results = append(results, res)
	}
	return results, scanner.Err()
}

func generateMarkdownReport(results []BenchmarkResult) string {
	byPkg := make(map[string][]BenchmarkResult)
	for _, r := range results {
		byPkg[r.Package] = append(byPkg[r.Package], r)
	}
	pkgs := make([]string, 0, len(byPkg))
	for p := range byPkg {
		pkgs = append(pkgs, p)
	}
	sort.Strings(pkgs)

	var sb strings.Builder
	sb.WriteString("# Benchmark Report\n")
	for _, p := range pkgs {
		rs := byPkg[p]
		sort.Slice(rs, func(i, j int) bool { return rs[i].Name < rs[j].Name })

		title := p
		if title == "" {
			title = "(unknown package)"
		}
		fmt.Fprintf(&sb, "\n## %s\n\n", title)
		sb.WriteString("| Benchmark | ns/op | B/op | allocs/op |\n")
		sb.WriteString("|---|---:|---:|---:|\n")
		for _, r := range rs {
			fmt.Fprintf(&sb, "| %s | %s | %d | %d |\n", r.Name, formatNs(r.NsPerOp), r.BytesPerOp, r.AllocsPerOp)
		}
	}
	return sb.String()
}

// formatNs picks a readable unit for a per-op duration.
func formatNs(ns float64) string {
	switch {
	case ns >= 1e6:
		return fmt.Sprintf("%.2f ms", ns/1e6)
	case ns >= 1e3:
		return fmt.Sprintf("%.2f µs", ns/1e3)
	default:
		return fmt.Sprintf("%.1f ns", ns)
	}
}
