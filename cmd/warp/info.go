package main

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/warp-ml/warp/backend/webgpu"
	"github.com/warp-ml/warp/tensor"
)

func newInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show available devices and supported element types",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "Devices:")
			devices := tablewriter.NewWriter(out)
			devices.SetHeader([]string{"DEVICE", "STATUS", "DETAIL"})
			devices.SetBorder(false)
			devices.SetHeaderLine(false)
			devices.AppendBulk(deviceRows())
			devices.Render()

			fmt.Fprintln(out)
			fmt.Fprintln(out, "Element types:")
			dtypes := tablewriter.NewWriter(out)
			dtypes.SetHeader([]string{"DTYPE", "SIZE", "KIND"})
			dtypes.SetBorder(false)
			dtypes.SetHeaderLine(false)
			for _, dt := range tensor.DataTypes() {
				dtypes.Append([]string{dt.String(), strconv.Itoa(dt.Size()) + " B", dtypeKind(dt)})
			}
			dtypes.Render()
		},
	}
}

func deviceRows() [][]string {
	rows := [][]string{
		{"CPU", "available", "host, gonum BLAS matrix kernels"},
	}

	if webgpu.IsAvailable() {
		detail := "WGSL compute pipelines"
		if gpu, err := webgpu.New(); err == nil {
			detail = gpu.Name()
			gpu.Release()
		}
		rows = append(rows, []string{"WebGPU", "available", detail})
	} else {
		rows = append(rows, []string{"WebGPU", "unavailable", "no adapter"})
	}

	for _, d := range []tensor.Device{tensor.CUDA, tensor.Vulkan, tensor.Metal} {
		rows = append(rows, []string{d.String(), "reserved", "no backend yet"})
	}
	return rows
}

func dtypeKind(dt tensor.DataType) string {
	switch {
	case dt.IsFloat():
		return "float"
	case dt.IsComplex():
		return "complex"
	case dt == tensor.Bool:
		return "bool"
	case dt.IsSigned():
		return "signed int"
	default:
		return "unsigned int"
	}
}
