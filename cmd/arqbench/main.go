// Command arqbench is a small benchmarking harness for the plaintext ARQ
// schemes and their composed EDX-backed encrypted form: it reads a CSV of
// (point, value) records, builds a Table, runs Setup and Query for a chosen
// scheme, and reports the resulting aggregate and timing.
package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/cloudsecuritygroup/arq"
	"github.com/cloudsecuritygroup/arq/crypto"
	"github.com/cloudsecuritygroup/arq/log"
	"github.com/cloudsecuritygroup/arq/must"
	"github.com/cloudsecuritygroup/arq/retry"
	"github.com/cloudsecuritygroup/arq/schemes/medianalpha"
	"github.com/cloudsecuritygroup/arq/schemes/minas"
	"github.com/cloudsecuritygroup/arq/schemes/minlinearemt"
	"github.com/cloudsecuritygroup/arq/schemes/minsparse"
	"github.com/cloudsecuritygroup/arq/schemes/modeas"
	"github.com/cloudsecuritygroup/arq/schemes/sumprefix"
	"github.com/cloudsecuritygroup/arq/serialize"
	"github.com/cloudsecuritygroup/arq/ste"
	"github.com/cloudsecuritygroup/arq/ste/edx"
	"github.com/cloudsecuritygroup/arq/traverse"
)

func main() {
	log.AddFlags()
	log.SetPrefix("arqbench: ")

	var (
		recordsPath = flag.String("records", "", "path to a CSV file of point,value records")
		schemeName  = flag.String("scheme", "sumprefix", "scheme to benchmark: sumprefix, minsparse, minas, minlinearemt, modeas, medianalpha")
		start       = flag.Int("start", 0, "query range start (inclusive)")
		end         = flag.Int("end", 0, "query range end (exclusive); 0 means the domain's end")
		alpha       = flag.Float64("alpha", 0.5, "approximation factor for medianalpha, in (0, 1)")
		parallel    = flag.Bool("parallel", false, "encrypt the data structure with a parallel strategy")
		progress    = flag.String("progress", "none", "encrypt progress reporting to stderr: none, simple, eta")
	)
	flag.Parse()

	if *recordsPath == "" {
		fmt.Fprintln(os.Stderr, "usage: arqbench -records=path.csv -scheme=sumprefix [-start=N -end=N]")
		os.Exit(2)
	}

	records, err := readRecords(*recordsPath)
	must.Nil(err, "reading records")

	table, err := arq.Make(records)
	must.Nil(err, "building table")

	queryEnd := *end
	if queryEnd == 0 {
		queryEnd = table.Domain.End
	}
	rq, err := arq.NewRangeQuery(*start, queryEnd)
	must.Nil(err, "building range query")

	strategy := ste.Serial
	if *parallel {
		strategy = ste.Parallel
	}
	reporter, err := progressReporter(*progress)
	must.Nil(err, "parsing -progress")
	if reporter != nil {
		strategy = reportingStrategy(strategy, reporter)
	}

	log.Fields{"records": len(records), "scheme": *schemeName, "parallel": *parallel}.Printf(log.Debug, "running composer")

	result, setupTook, queryTook, err := runScheme(*schemeName, *alpha, table, rq, strategy)
	must.Nil(err, "running scheme")

	log.Info.Printf("scheme=%s records=%d domain=[%d,%d) query=[%d,%d)", *schemeName, len(records), table.Domain.Start, table.Domain.End, rq.Start, rq.End)
	fmt.Printf("aggregate=%s setup=%s query=%s\n", result, setupTook, queryTook)
}

// progressReporter parses the -progress flag into the traverse.Reporter
// it names, or nil for "none".
func progressReporter(name string) (traverse.Reporter, error) {
	switch name {
	case "none":
		return nil, nil
	case "simple":
		return traverse.DefaultReporter{Name: "encrypt"}, nil
	case "eta":
		return &traverse.TimeEstimateReporter{Name: "encrypt"}, nil
	default:
		return nil, fmt.Errorf("arqbench: unknown -progress value %q", name)
	}
}

// runScheme dispatches to the generic composer instantiation for
// schemeName, returning the query's aggregate and the wall-clock time
// Setup and Query each took.
func runScheme(schemeName string, alpha float64, table arq.Table, rq arq.RangeQuery, strategy ste.Strategy) (arq.Number, time.Duration, time.Duration, error) {
	prims := crypto.New()
	switch schemeName {
	case "sumprefix":
		return bench(sumprefix.New(), serialize.Int32Serializer{}, serialize.Int32Serializer{}, prims, strategy, table, rq)
	case "minsparse":
		return bench(minsparse.New(), minsparse.KeySerializer{}, serialize.Int32Serializer{}, prims, strategy, table, rq)
	case "minas":
		return bench(minas.New(), minas.KeySerializer{}, serialize.Int32Serializer{}, prims, strategy, table, rq)
	case "minlinearemt":
		return bench(minlinearemt.New(), minlinearemt.KeySerializer{}, serialize.Int32Serializer{}, prims, strategy, table, rq)
	case "modeas":
		return bench(modeas.New(), modeas.KeySerializer{}, modeas.ModeCountSerializer{}, prims, strategy, table, rq)
	case "medianalpha":
		s, err := medianalpha.New(alpha)
		if err != nil {
			return arq.Number{}, 0, 0, err
		}
		return bench(s, medianalpha.KeySerializer{}, serialize.IntSliceSerializer{}, prims, strategy, table, rq)
	default:
		return arq.Number{}, 0, 0, fmt.Errorf("arqbench: unknown scheme %q", schemeName)
	}
}

// bench composes scheme with a fresh EDX instance, runs Setup and Query
// end to end, and times each phase.
func bench[K comparable, V any](
	scheme arq.RangeAggregateScheme[map[K]V, K, V],
	keySer serialize.Serializer[K],
	valSer serialize.Serializer[V],
	prims crypto.Primitives,
	strategy ste.Strategy,
	table arq.Table,
	rq arq.RangeQuery,
) (arq.Number, time.Duration, time.Duration, error) {
	composer := arq.NewComposer[K, V](scheme, edx.New[K, V](prims, keySer, valSer, strategy))

	key, err := composer.GenerateKey()
	if err != nil {
		return arq.Number{}, 0, 0, err
	}
	must.KeyLength(key, 2*crypto.KeyLength)

	setupStart := time.Now()
	blob, err := composer.Setup(key, table)
	if err != nil {
		return arq.Number{}, 0, 0, err
	}
	store, err := composer.LoadEDS(blob)
	if err != nil {
		return arq.Number{}, 0, 0, err
	}
	setupTook := time.Since(setupStart)

	queryStart := time.Now()
	result, err := composer.Query(key, table.Domain, rq, store)
	if err != nil {
		return arq.Number{}, 0, 0, err
	}
	queryTook := time.Since(queryStart)

	return result, setupTook, queryTook, nil
}

// readRecords reads a CSV of "point,value" rows, retrying a transient
// read failure up to five times with an exponential backoff policy. A
// non-transient error (the file genuinely missing or unreadable) fails
// immediately instead of burning through the retry budget.
func readRecords(path string) ([]arq.Record, error) {
	policy := retry.MaxRetries(retry.Backoff(50*time.Millisecond, 2*time.Second, 2), 5)
	var data []byte
	var permErr error
	err := retry.Do(context.Background(), policy, func() error {
		d, err := os.ReadFile(path)
		if err != nil && !isTransient(err) {
			permErr = err
			return nil
		}
		data = d
		return err
	})
	if permErr != nil {
		return nil, permErr
	}
	if err != nil {
		return nil, err
	}

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, err
	}

	records := make([]arq.Record, 0, len(rows))
	for _, row := range rows {
		if len(row) != 2 {
			return nil, fmt.Errorf("arqbench: expected 2 fields per row, got %d", len(row))
		}
		point, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, err
		}
		value, err := strconv.Atoi(row[1])
		if err != nil {
			return nil, err
		}
		records = append(records, arq.Record{Point: point, Value: value})
	}
	return records, nil
}

// reportingStrategy wraps strategy so its traversal reports encrypt
// progress to stderr through reporter, for the -progress flag.
func reportingStrategy(strategy ste.Strategy, reporter traverse.Reporter) ste.Strategy {
	return func(n int) traverse.Traverse {
		return strategy(n).WithReporter(reporter)
	}
}

// isTransient reports whether err is an I/O condition worth retrying:
// anything other than the file simply not existing or being unreadable.
func isTransient(err error) bool {
	return !errors.Is(err, os.ErrNotExist) && !errors.Is(err, os.ErrPermission)
}
