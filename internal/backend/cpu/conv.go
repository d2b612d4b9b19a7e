package cpu

import (
	"fmt"

	"github.com/warp-ml/warp/internal/parallel"
	"github.com/warp-ml/warp/internal/tensor"
)

func convOutSize(in, kernel, stride, padding, dilation int) int {
	return (in+2*padding-dilation*(kernel-1)-1)/stride + 1
}

type convArgs struct {
	stride, padding, dilation, groups int
}

func (a convArgs) check(op string) {
	if a.stride <= 0 || a.dilation <= 0 || a.groups <= 0 || a.padding < 0 {
		panic(fmt.Sprintf("cpu: %s invalid arguments stride=%d padding=%d dilation=%d groups=%d",
			op, a.stride, a.padding, a.dilation, a.groups))
	}
}

func checkConvChannels(op string, cin, cout, kcin, groups int) {
	if cin%groups != 0 || cout%groups != 0 {
		panic(fmt.Sprintf("cpu: %s groups=%d must divide both C_in=%d and C_out=%d", op, groups, cin, cout))
	}
	if kcin != cin/groups {
		panic(fmt.Sprintf("cpu: %s kernel expects %d input channels per group, input has %d", op, kcin, cin/groups))
	}
}

// Conv1D cross-correlates [N, C_in, L] with [C_out, C_in/groups, K].
func (c *Backend) Conv1D(input, kernel *tensor.RawTensor, stride, padding, dilation, groups int) *tensor.RawTensor {
	args := convArgs{stride, padding, dilation, groups}
	args.check("Conv1D")
	checkBinaryDTypes("Conv1D", input, kernel)
	is, ks := input.Shape(), kernel.Shape()
	if len(is) != 3 || len(ks) != 3 {
		panic(fmt.Sprintf("cpu: Conv1D requires [N, C, L] input and [C_out, C_in/groups, K] kernel, got %v and %v", is, ks))
	}
	n, cin, l := is[0], is[1], is[2]
	cout, kcin, k := ks[0], ks[1], ks[2]
	checkConvChannels("Conv1D", cin, cout, kcin, groups)

	outL := convOutSize(l, k, stride, padding, dilation)
	if outL <= 0 {
		panic(fmt.Sprintf("cpu: Conv1D output length %d is not positive for input %v", outL, is))
	}

	input, kernel = contiguous(input), contiguous(kernel)
	out := mustRaw(tensor.Shape{n, cout, outL}, input.DType(), input.Device())

	cinPerG := cin / groups
	coutPerG := cout / groups
	// Output planes are disjoint per (b, oc), so the grid splits cleanly.
	parallel.ForBatch(n, cout, func(b, oc int) {
		g := oc / coutPerG
		for ol := 0; ol < outL; ol++ {
			sum := 0.0
			for ic := 0; ic < cinPerG; ic++ {
				inCh := g*cinPerG + ic
				for kk := 0; kk < k; kk++ {
					il := ol*stride - padding + kk*dilation
					if il < 0 || il >= l {
						continue
					}
					sum += loadFloat(input, (b*cin+inCh)*l+il) *
						loadFloat(kernel, (oc*kcin+ic)*k+kk)
				}
			}
			storeFloat(out, (b*cout+oc)*outL+ol, sum)
		}
	}, c.par)
	return out
}

// Conv1DInputBackward computes the gradient with respect to the input.
func (c *Backend) Conv1DInputBackward(input, kernel, grad *tensor.RawTensor, stride, padding, dilation, groups int) *tensor.RawTensor {
	args := convArgs{stride, padding, dilation, groups}
	args.check("Conv1DInputBackward")
	is, ks := input.Shape(), kernel.Shape()
	n, cin, l := is[0], is[1], is[2]
	cout, kcin, k := ks[0], ks[1], ks[2]
	outL := convOutSize(l, k, stride, padding, dilation)

	kernel, grad = contiguous(kernel), contiguous(grad)
	out := mustRaw(is, grad.DType(), grad.Device())

	cinPerG := cin / groups
	coutPerG := cout / groups
	acc := make([]float64, l)
	for b := 0; b < n; b++ {
		for inCh := 0; inCh < cin; inCh++ {
			g := inCh / cinPerG
			ic := inCh % cinPerG
			for i := range acc {
				acc[i] = 0
			}
			for oc := g * coutPerG; oc < (g+1)*coutPerG; oc++ {
				for ol := 0; ol < outL; ol++ {
					gv := loadFloat(grad, (b*cout+oc)*outL+ol)
					for kk := 0; kk < k; kk++ {
						il := ol*stride - padding + kk*dilation
						if il < 0 || il >= l {
							continue
						}
						acc[il] += gv * loadFloat(kernel, (oc*kcin+ic)*k+kk)
					}
				}
			}
			for il, v := range acc {
				storeFloat(out, (b*cin+inCh)*l+il, v)
			}
		}
	}
	return out
}

// Conv1DKernelBackward computes the gradient with respect to the kernel.
func (c *Backend) Conv1DKernelBackward(input, kernel, grad *tensor.RawTensor, stride, padding, dilation, groups int) *tensor.RawTensor {
	args := convArgs{stride, padding, dilation, groups}
	args.check("Conv1DKernelBackward")
	is, ks := input.Shape(), kernel.Shape()
	n, cin, l := is[0], is[1], is[2]
	cout, kcin, k := ks[0], ks[1], ks[2]
	outL := convOutSize(l, k, stride, padding, dilation)

	input, grad = contiguous(input), contiguous(grad)
	out := mustRaw(ks, grad.DType(), grad.Device())

	cinPerG := cin / groups
	coutPerG := cout / groups
	for oc := 0; oc < cout; oc++ {
		g := oc / coutPerG
		for ic := 0; ic < kcin; ic++ {
			inCh := g*cinPerG + ic
			for kk := 0; kk < k; kk++ {
				sum := 0.0
				for b := 0; b < n; b++ {
					for ol := 0; ol < outL; ol++ {
						il := ol*stride - padding + kk*dilation
						if il < 0 || il >= l {
							continue
						}
						sum += loadFloat(grad, (b*cout+oc)*outL+ol) *
							loadFloat(input, (b*cin+inCh)*l+il)
					}
				}
				storeFloat(out, (oc*kcin+ic)*k+kk, sum)
			}
		}
	}
	return out
}

// Conv2D cross-correlates [N, C_in, H, W] with [C_out, C_in/groups, KH, KW].
func (c *Backend) Conv2D(input, kernel *tensor.RawTensor, stride, padding, dilation, groups int) *tensor.RawTensor {
	args := convArgs{stride, padding, dilation, groups}
	args.check("Conv2D")
	checkBinaryDTypes("Conv2D", input, kernel)
	is, ks := input.Shape(), kernel.Shape()
	if len(is) != 4 || len(ks) != 4 {
		panic(fmt.Sprintf("cpu: Conv2D requires [N, C, H, W] input and [C_out, C_in/groups, KH, KW] kernel, got %v and %v", is, ks))
	}
	n, cin, h, w := is[0], is[1], is[2], is[3]
	cout, kcin, kh, kw := ks[0], ks[1], ks[2], ks[3]
	checkConvChannels("Conv2D", cin, cout, kcin, groups)

	outH := convOutSize(h, kh, stride, padding, dilation)
	outW := convOutSize(w, kw, stride, padding, dilation)
	if outH <= 0 || outW <= 0 {
		panic(fmt.Sprintf("cpu: Conv2D output %dx%d is not positive for input %v", outH, outW, is))
	}

	input, kernel = contiguous(input), contiguous(kernel)
	out := mustRaw(tensor.Shape{n, cout, outH, outW}, input.DType(), input.Device())

	cinPerG := cin / groups
	coutPerG := cout / groups
	// Output planes are disjoint per (b, oc), so the grid splits cleanly.
	parallel.ForBatch(n, cout, func(b, oc int) {
		g := oc / coutPerG
		for oh := 0; oh < outH; oh++ {
			for ow := 0; ow < outW; ow++ {
				sum := 0.0
				for ic := 0; ic < cinPerG; ic++ {
					inCh := g*cinPerG + ic
					for fh := 0; fh < kh; fh++ {
						ih := oh*stride - padding + fh*dilation
						if ih < 0 || ih >= h {
							continue
						}
						for fw := 0; fw < kw; fw++ {
							iw := ow*stride - padding + fw*dilation
							if iw < 0 || iw >= w {
								continue
							}
							sum += loadFloat(input, ((b*cin+inCh)*h+ih)*w+iw) *
								loadFloat(kernel, ((oc*kcin+ic)*kh+fh)*kw+fw)
						}
					}
				}
				storeFloat(out, ((b*cout+oc)*outH+oh)*outW+ow, sum)
			}
		}
	}, c.par)
	return out
}

// Conv2DInputBackward computes the gradient with respect to the input.
func (c *Backend) Conv2DInputBackward(input, kernel, grad *tensor.RawTensor, stride, padding, dilation, groups int) *tensor.RawTensor {
	args := convArgs{stride, padding, dilation, groups}
	args.check("Conv2DInputBackward")
	is, ks := input.Shape(), kernel.Shape()
	n, cin, h, w := is[0], is[1], is[2], is[3]
	cout, kcin, kh, kw := ks[0], ks[1], ks[2], ks[3]
	outH := convOutSize(h, kh, stride, padding, dilation)
	outW := convOutSize(w, kw, stride, padding, dilation)

	kernel, grad = contiguous(kernel), contiguous(grad)
	out := mustRaw(is, grad.DType(), grad.Device())

	cinPerG := cin / groups
	coutPerG := cout / groups
	acc := make([]float64, h*w)
	for b := 0; b < n; b++ {
		for inCh := 0; inCh < cin; inCh++ {
			g := inCh / cinPerG
			ic := inCh % cinPerG
			for i := range acc {
				acc[i] = 0
			}
			for oc := g * coutPerG; oc < (g+1)*coutPerG; oc++ {
				for oh := 0; oh < outH; oh++ {
					for ow := 0; ow < outW; ow++ {
						gv := loadFloat(grad, ((b*cout+oc)*outH+oh)*outW+ow)
						for fh := 0; fh < kh; fh++ {
							ih := oh*stride - padding + fh*dilation
							if ih < 0 || ih >= h {
								continue
							}
							for fw := 0; fw < kw; fw++ {
								iw := ow*stride - padding + fw*dilation
								if iw < 0 || iw >= w {
									continue
								}
								acc[ih*w+iw] += gv * loadFloat(kernel, ((oc*kcin+ic)*kh+fh)*kw+fw)
							}
						}
					}
				}
			}
			base := (b*cin + inCh) * h * w
			for i, v := range acc {
				storeFloat(out, base+i, v)
			}
		}
	}
	return out
}

// Conv2DKernelBackward computes the gradient with respect to the kernel.
func (c *Backend) Conv2DKernelBackward(input, kernel, grad *tensor.RawTensor, stride, padding, dilation, groups int) *tensor.RawTensor {
	args := convArgs{stride, padding, dilation, groups}
	args.check("Conv2DKernelBackward")
	is, ks := input.Shape(), kernel.Shape()
	n, cin, h, w := is[0], is[1], is[2], is[3]
	cout, kcin, kh, kw := ks[0], ks[1], ks[2], ks[3]
	outH := convOutSize(h, kh, stride, padding, dilation)
	outW := convOutSize(w, kw, stride, padding, dilation)

	input, grad = contiguous(input), contiguous(grad)
	out := mustRaw(ks, grad.DType(), grad.Device())

	cinPerG := cin / groups
	coutPerG := cout / groups
	for oc := 0; oc < cout; oc++ {
		g := oc / coutPerG
		for ic := 0; ic < kcin; ic++ {
			inCh := g*cinPerG + ic
			for fh := 0; fh < kh; fh++ {
				for fw := 0; fw < kw; fw++ {
					sum := 0.0
					for b := 0; b < n; b++ {
						for oh := 0; oh < outH; oh++ {
							ih := oh*stride - padding + fh*dilation
							if ih < 0 || ih >= h {
								continue
							}
							for ow := 0; ow < outW; ow++ {
								iw := ow*stride - padding + fw*dilation
								if iw < 0 || iw >= w {
									continue
								}
								sum += loadFloat(grad, ((b*cout+oc)*outH+oh)*outW+ow) *
									loadFloat(input, ((b*cin+inCh)*h+ih)*w+iw)
							}
						}
					}
					storeFloat(out, ((oc*kcin+ic)*kh+fh)*kw+fw, sum)
				}
			}
		}
	}
	return out
}
