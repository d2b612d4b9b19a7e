package main

import (
	"fmt"
	"math/rand"

	"github.com/spf13/cobra"

	"github.com/warp-ml/warp/autodiff"
	"github.com/warp-ml/warp/backend/cpu"
	"github.com/warp-ml/warp/nn"
	"github.com/warp-ml/warp/optim"
	"github.com/warp-ml/warp/tensor"
)

type trainBackend = *autodiff.Backend[*cpu.Backend]

// newTrainCommand fits y = 2x + 1 with a single Linear layer. It exists
// as a smoke test: if this converges, the forward ops, the tape and the
// optimizer all agree with each other.
func newTrainCommand() *cobra.Command {
	var (
		steps int
		lr    float32
		seed  int64
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Run a small end-to-end training loop",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps <= 0 {
				return fmt.Errorf("steps must be positive, got %d", steps)
			}

			out := cmd.OutOrStdout()
			rng := rand.New(rand.NewSource(seed))

			b := autodiff.New(cpu.New())
			model := nn.NewLinear[trainBackend](b, 1, 1, true)
			criterion := nn.NewMSELoss[trainBackend](nn.ReductionMean)
			opt := optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: lr}, b)

			const samples = 64
			xs := make([]float32, samples)
			ys := make([]float32, samples)
			for i := range xs {
				xs[i] = rng.Float32()*4 - 2
				ys[i] = 2*xs[i] + 1
			}
			x, err := tensor.FromSlice[float32, trainBackend](xs, tensor.Shape{samples, 1}, b)
			if err != nil {
				return err
			}
			target, err := tensor.FromSlice[float32, trainBackend](ys, tensor.Shape{samples, 1}, b)
			if err != nil {
				return err
			}

			b.Tape().StartRecording()
			for i := 1; i <= steps; i++ {
				pred := model.Forward(x)
				loss := criterion.Forward(pred, target)

				grads, err := autodiff.Backward(loss, b)
				if err != nil {
					return fmt.Errorf("step %d: %w", i, err)
				}
				opt.Step(grads)
				opt.ZeroGrad()

				if i%10 == 0 || i == 1 || i == steps {
					fmt.Fprintf(out, "step %4d  loss %.6f\n", i, loss.Item())
				}
			}

			fmt.Fprintf(out, "learned: y = %.4f*x + %.4f (want y = 2*x + 1)\n",
				model.Weight().Tensor().Data()[0],
				model.Bias().Tensor().Data()[0])
			return nil
		},
	}

	cmd.Flags().IntVar(&steps, "steps", 100, "number of optimizer steps")
	cmd.Flags().Float32Var(&lr, "lr", 0.1, "learning rate")
	cmd.Flags().Int64Var(&seed, "seed", 42, "rng seed for the synthetic data")
	return cmd
}
