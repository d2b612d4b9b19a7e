package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/warp-ml/warp/backend/cpu"
	"github.com/warp-ml/warp/backend/webgpu"
	"github.com/warp-ml/warp/tensor"
)

func newBenchCommand() *cobra.Command {
	var (
		size   int
		iters  int
		useGPU bool
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark square matrix multiplication",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if size <= 0 || iters <= 0 {
				return fmt.Errorf("size and iters must be positive, got %d and %d", size, iters)
			}

			out := cmd.OutOrStdout()
			table := tablewriter.NewWriter(out)
			table.SetHeader([]string{"BACKEND", "SIZE", "ITERS", "AVG", "GFLOP/S"})
			table.SetBorder(false)
			table.SetHeaderLine(false)

			table.Append(benchMatMul(cpu.New(), size, iters))

			if useGPU {
				gpu, err := webgpu.New()
				if err != nil {
					return fmt.Errorf("webgpu backend: %w", err)
				}
				defer gpu.Release()
				table.Append(benchMatMul(gpu, size, iters))
			}

			table.Render()
			return nil
		},
	}

	cmd.Flags().IntVarP(&size, "size", "n", 512, "matrix dimension")
	cmd.Flags().IntVarP(&iters, "iters", "i", 10, "timed iterations")
	cmd.Flags().BoolVar(&useGPU, "gpu", false, "also benchmark the WebGPU backend")
	return cmd
}

func benchMatMul[B tensor.Backend](b B, size, iters int) []string {
	x := tensor.Randn[float32](tensor.Shape{size, size}, b)
	y := tensor.Randn[float32](tensor.Shape{size, size}, b)

	// Warmup covers shader compilation and pipeline caches.
	x.MatMul(y)

	start := time.Now()
	for i := 0; i < iters; i++ {
		x.MatMul(y)
	}
	elapsed := time.Since(start)

	avg := elapsed / time.Duration(iters)
	flops := 2 * float64(size) * float64(size) * float64(size)
	gflops := flops / avg.Seconds() / 1e9

	slog.Debug("matmul benchmark", "backend", b.Name(), "avg", avg, "gflops", gflops)
	return []string{
		b.Name(),
		fmt.Sprintf("%dx%d", size, size),
		fmt.Sprintf("%d", iters),
		avg.Round(time.Microsecond).String(),
		fmt.Sprintf("%.2f", gflops),
	}
}
