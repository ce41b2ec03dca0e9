package main

import (
	"fmt"

	"github.com/bytedance/gopkg/lang/dirtmake"
	"github.com/spf13/cobra"

	"github.com/joshuapare/fixedheap/heap"
)

var demoSize int

func init() {
	cmd := newDemoCmd()
	cmd.Flags().IntVar(&demoSize, "size", 8192, "Heap size in bytes")
	rootCmd.AddCommand(cmd)
}

func newDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Replay the reference allocation scenarios",
		Long: `The demo command runs two fixed scenarios against a fresh heap:

  1. allocate 40, 60, 10 and 32 bytes, release them out of order, then
     allocate 4000 and 80 bytes and release the 4000-byte block;
  2. grow a NUL-terminated string from 11 to 21 to 31 bytes with Realloc.

Each step prints the reference it produced and the resulting statistics.

Example:
  heapctl demo
  heapctl demo --size 1024 --verbose
  heapctl demo --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo()
		},
	}
}

type demoStep struct {
	Step  string     `json:"step"`
	Ref   heap.Ref   `json:"ref"`
	Stats heap.Stats `json:"stats"`
}

type demoRun struct {
	h     *heap.Heap
	steps []demoStep
}

func (d *demoRun) record(step string, r heap.Ref) error {
	st := d.h.Query()
	d.steps = append(d.steps, demoStep{Step: step, Ref: r, Stats: st})
	if jsonOut {
		return nil
	}
	printInfo("%-22s ref=%-5d free=%-5d used=%-5d largest=%d\n",
		step, r, st.FreeBytes, st.UsedBytes, st.LargestFree)
	return dumpVerbose(d.h)
}

func (d *demoRun) heading(format string, args ...any) {
	if !jsonOut {
		printInfo(format, args...)
	}
}

func (d *demoRun) alloc(n int) (heap.Ref, error) {
	r, err := d.h.Alloc(n)
	if err != nil {
		return heap.NilRef, fmt.Errorf("alloc %d: %w", n, err)
	}
	return r, d.record(fmt.Sprintf("alloc %d", n), r)
}

func (d *demoRun) free(r heap.Ref) error {
	if err := d.h.Free(r); err != nil {
		return fmt.Errorf("free %d: %w", r, err)
	}
	return d.record(fmt.Sprintf("free %d", r), r)
}

func (d *demoRun) realloc(r heap.Ref, n int) (heap.Ref, error) {
	nr, err := d.h.Realloc(r, n)
	if err != nil {
		return heap.NilRef, fmt.Errorf("realloc %d to %d: %w", r, n, err)
	}
	return nr, d.record(fmt.Sprintf("realloc %d -> %d", r, n), nr)
}

func runDemo() error {
	h, err := heap.Init(dirtmake.Bytes(demoSize, demoSize), heapOptions())
	if err != nil {
		return err
	}
	d := &demoRun{h: h}

	d.heading("Mixed sequence on a %d byte heap\n", h.Len())
	if err := d.mixed(); err != nil {
		return err
	}

	h.Reset()
	d.heading("\nGrowing string\n")
	s, err := d.growString()
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(d.steps)
	}
	printInfo("final string: %q\n", s)
	return nil
}

func (d *demoRun) mixed() error {
	var refs []heap.Ref
	for _, n := range []int{40, 60, 10, 32} {
		r, err := d.alloc(n)
		if err != nil {
			return err
		}
		refs = append(refs, r)
	}
	for _, i := range []int{1, 0, 3, 2} {
		if err := d.free(refs[i]); err != nil {
			return err
		}
	}

	big, err := d.alloc(4000)
	if err != nil {
		return err
	}
	if _, err := d.alloc(80); err != nil {
		return err
	}
	return d.free(big)
}

func (d *demoRun) growString() (string, error) {
	const digits = "0123456789"
	r, err := d.alloc(len(digits) + 1)
	if err != nil {
		return "", err
	}
	copy(d.h.Bytes(r), digits+"\x00")

	size := len(digits)
	for _, chunk := range []string{"abcdefghij", "ABCDEFGHIJ"} {
		if r, err = d.realloc(r, size+len(chunk)+1); err != nil {
			return "", err
		}
		copy(d.h.Bytes(r)[size:], chunk+"\x00")
		size += len(chunk)
	}

	s := string(d.h.Bytes(r)[:size])
	return s, d.free(r)
}
