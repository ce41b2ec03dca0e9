package main

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/bytedance/gopkg/lang/dirtmake"
	"github.com/spf13/cobra"

	"github.com/joshuapare/fixedheap/heap"
	"github.com/joshuapare/fixedheap/heap/verify"
)

var (
	stressSize   int
	stressCount  int
	stressMax    int
	stressRounds int
	stressSeed   int64
)

func init() {
	cmd := newStressCmd()
	cmd.Flags().IntVar(&stressSize, "size", 4096, "Heap size in bytes")
	cmd.Flags().IntVar(&stressCount, "count", 100, "Allocations per round")
	cmd.Flags().IntVar(&stressMax, "max", 200, "Largest request in bytes")
	cmd.Flags().IntVar(&stressRounds, "rounds", 1, "Number of allocate/release rounds")
	cmd.Flags().Int64Var(&stressSeed, "seed", 1, "Random seed")
	rootCmd.AddCommand(cmd)
}

func newStressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stress",
		Short: "Randomized allocate/release soak with invariant checks",
		Long: `The stress command allocates --count blocks of 1..--max bytes, then
releases them in random order, for --rounds rounds. Every heap invariant is
verified after every operation; the first violation aborts the run.

Allocation failures are expected once the heap fills up and are counted,
not reported as errors.

Example:
  heapctl stress
  heapctl stress --size 65535 --count 2000 --rounds 10 --seed 7
  heapctl stress --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress()
		},
	}
}

type stressResult struct {
	Seed        int64      `json:"seed"`
	Rounds      int        `json:"rounds"`
	Allocations int        `json:"allocations"`
	Failures    int        `json:"failures"`
	PeakUsed    int        `json:"peak_used_bytes"`
	Final       heap.Stats `json:"final"`
}

func runStress() error {
	if stressMax <= 0 || stressCount <= 0 {
		return errors.New("--count and --max must be positive")
	}

	var violation error
	opts := heapOptions()
	traceHook := opts.AfterOp
	opts.AfterOp = func(op string, h *heap.Heap) {
		if traceHook != nil {
			traceHook(op, h)
		}
		if violation == nil {
			if err := verify.AllInvariants(h.Buffer()); err != nil {
				violation = fmt.Errorf("after %s: %w", op, err)
			}
		}
	}

	h, err := heap.Init(dirtmake.Bytes(stressSize, stressSize), opts)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(stressSeed))
	res := stressResult{Seed: stressSeed, Rounds: stressRounds}
	refs := make([]heap.Ref, stressCount)

	for round := range stressRounds {
		for i := range refs {
			r, err := h.Alloc(rng.Intn(stressMax) + 1)
			switch {
			case errors.Is(err, heap.ErrNoSpace):
				res.Failures++
			case err != nil:
				return err
			default:
				res.Allocations++
			}
			refs[i] = r
		}
		res.PeakUsed = max(res.PeakUsed, h.Query().UsedBytes)

		for _, i := range rng.Perm(len(refs)) {
			if err := h.Free(refs[i]); err != nil {
				return fmt.Errorf("round %d: %w", round, err)
			}
			refs[i] = heap.NilRef
		}
		if violation != nil {
			return fmt.Errorf("round %d: %w", round, violation)
		}
		printVerbose("round %d: %d allocations, %d failures so far\n", round, res.Allocations, res.Failures)
	}

	res.Final = h.Query()
	if res.Final.FreeBlocks != 1 || res.Final.UsedBlocks != 0 {
		return fmt.Errorf("heap did not return to a single free block: %+v", res.Final)
	}

	if jsonOut {
		return printJSON(res)
	}
	printInfo("seed %d: %d rounds, %d allocations, %d failed for lack of space\n",
		res.Seed, res.Rounds, res.Allocations, res.Failures)
	printInfo("peak used %d of %d bytes; all invariants held\n", res.PeakUsed, h.Len())
	return dumpVerbose(h)
}
