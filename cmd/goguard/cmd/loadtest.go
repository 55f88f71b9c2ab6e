package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/directory"
	"github.com/spf13/cobra"
)

type loadtestOptions struct {
	tokens      int
	concurrency int
	ops         int
}

func newLoadtestCmd(root *rootOptions) *cobra.Command {
	opts := &loadtestOptions{}

	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Measure in-process token verification and authorization throughput",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.tokens <= 0 || opts.concurrency <= 0 || opts.ops <= 0 {
				return errors.New("tokens, concurrency, and ops must be > 0")
			}
			engine, err := root.tokenEngine()
			if err != nil {
				return err
			}
			defer engine.Close()
			return runLoadtest(cmd.Context(), cmd.OutOrStdout(), engine, opts)
		},
	}

	cmd.Flags().IntVar(&opts.tokens, "tokens", 1000, "number of tokens to issue")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 64, "number of concurrent workers")
	cmd.Flags().IntVar(&opts.ops, "ops", 100000, "operations per phase (verify + authorize)")
	return cmd
}

var loadtestRoutes = []struct{ method, path string }{
	{http.MethodGet, "/students"},
	{http.MethodGet, "/students/1"},
	{http.MethodPost, "/students"},
	{http.MethodDelete, "/students/2"},
	{http.MethodGet, "/courses"},
	{http.MethodGet, "/"},
}

func runLoadtest(ctx context.Context, out io.Writer, engine *goGuard.Engine, opts *loadtestOptions) error {
	users := directory.DemoUsers()
	roles, err := directory.DemoRoles()
	if err != nil {
		return err
	}

	tokens := make([]string, opts.tokens)
	fmt.Fprintf(out, "issuing %d tokens...\n", opts.tokens)
	startIssue := time.Now()
	for i := range tokens {
		u := users[i%len(users)]
		authorities, err := roles.GrantedAuthorities(u.Roles...)
		if err != nil {
			return err
		}
		tok, _, err := engine.IssueToken(goGuard.NewPrincipal(u.Username, authorities))
		if err != nil {
			return fmt.Errorf("issue failed: %w", err)
		}
		tokens[i] = tok
	}
	fmt.Fprintf(out, "issued in %s\n", time.Since(startIssue).Round(time.Millisecond))

	verifyStats := runPhase(opts.ops, opts.concurrency, func(r *rand.Rand) error {
		_, err := engine.Verify(ctx, tokens[r.Intn(len(tokens))])
		return err
	})

	var denied int64
	authorizeStats := runPhase(opts.ops, opts.concurrency, func(r *rand.Rand) error {
		p, err := engine.Verify(ctx, tokens[r.Intn(len(tokens))])
		if err != nil {
			return err
		}
		route := loadtestRoutes[r.Intn(len(loadtestRoutes))]
		sc := goGuard.SecurityContext{Principal: p, Authenticated: true}
		if !engine.Authorize(ctx, route.method, route.path, sc).Allowed {
			atomic.AddInt64(&denied, 1)
		}
		return nil
	})

	fmt.Fprintln(out, "---- results ----")
	printStats(out, "verify", verifyStats)
	printStats(out, "authorize", authorizeStats)
	fmt.Fprintf(out, "authorize: denied=%d\n", denied)
	return nil
}

func runPhase(ops, concurrency int, op func(r *rand.Rand) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				if int(atomic.AddInt64(&cursor, 1)) > ops {
					return
				}
				t0 := time.Now()
				err := op(r)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(out io.Writer, name string, s phaseStats) {
	fmt.Fprintf(out, "%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
