// Command morystat exercises the mori allocators and reports basic usage
// statistics. It is a diagnostic tool, not part of the library's public
// surface.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lovely-error/mori"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "morystat",
		Short: "Exercise and report on the mori allocators",
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newSmokeCmd(&verbose))
	return root
}

func newSmokeCmd(verbose *bool) *cobra.Command {
	var allocations int
	var allocSize int

	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Drive the root and slab allocators through a fixed workload and print stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logrus.New()
			if *verbose {
				log.SetLevel(logrus.DebugLevel)
			} else {
				log.SetLevel(logrus.WarnLevel)
			}
			return runSmoke(log, allocations, uintptr(allocSize))
		},
	}
	cmd.Flags().IntVar(&allocations, "allocations", 10_000, "number of allocations to perform")
	cmd.Flags().IntVar(&allocSize, "size", 128, "size in bytes of each allocation")
	return cmd
}

func runSmoke(log *logrus.Logger, allocations int, allocSize uintptr) error {
	root := mori.NewRootAllocator(log)
	defer root.Destroy()

	slab := mori.NewSlabAllocator(log)
	if !slab.CanAllocate(allocSize, 1) {
		return fmt.Errorf("requested size %d exceeds the maximum allocation size", allocSize)
	}

	ptrs := make([]mori.RawMemoryPtr, 0, allocations)
	for i := 0; i < allocations; i++ {
		p, err := slab.Smalloc(allocSize, 1, root)
		if err != nil {
			return fmt.Errorf("allocation %d failed: %w", i, err)
		}
		ptrs = append(ptrs, p)
	}

	releaseEvery := 3
	released := 0
	for i, p := range ptrs {
		if i%releaseEvery == 0 {
			p.ReleaseMemory()
			released++
		}
	}

	fmt.Printf("allocations requested : %d\n", allocations)
	fmt.Printf("allocation size       : %d bytes\n", allocSize)
	fmt.Printf("released for reuse    : %d\n", released)
	fmt.Printf("max allocation size   : %d bytes\n", mori.MaxAllocSizeInBytes)
	return nil
}
