package webgpu

import "strings"

// Embedded WGSL compute shaders. All kernels operate on f32 storage
// buffers; eligibility is checked on the Go side before dispatch.

// workgroupSize is the number of threads per 1D workgroup.
const workgroupSize = 256

const binaryShaderTemplate = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let i = gid.x;
    if (i >= params.size) {
        return;
    }
    result[i] = OP;
}
`

const unaryShaderTemplate = `
@group(0) @binding(0) var<storage, read> x: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let i = gid.x;
    if (i >= params.size) {
        return;
    }
    result[i] = OP;
}
`

const scalarShaderTemplate = `
@group(0) @binding(0) var<storage, read> x: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    scalar: f32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let i = gid.x;
    if (i >= params.size) {
        return;
    }
    result[i] = OP;
}
`

// matmulShader computes C = A @ B for row-major 2D f32 matrices.
// One thread per output element, 16x16 threads per workgroup.
const matmulShader = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    m: u32,
    k: u32,
    n: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(16, 16)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let col = gid.x;
    let row = gid.y;
    if (row >= params.m || col >= params.n) {
        return;
    }
    var sum = 0.0;
    for (var i = 0u; i < params.k; i = i + 1u) {
        sum = sum + a[row * params.k + i] * b[i * params.n + col];
    }
    result[row * params.n + col] = sum;
}
`

// softmaxShader computes a max-subtracted softmax over the last dimension
// of a 2D [rows, cols] tensor, one thread per row.
const softmaxShader = `
@group(0) @binding(0) var<storage, read> x: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    rows: u32,
    cols: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let row = gid.x;
    if (row >= params.rows) {
        return;
    }
    let base = row * params.cols;

    var maxVal = x[base];
    for (var i = 1u; i < params.cols; i = i + 1u) {
        maxVal = max(maxVal, x[base + i]);
    }

    var sum = 0.0;
    for (var i = 0u; i < params.cols; i = i + 1u) {
        let e = exp(x[base + i] - maxVal);
        result[base + i] = e;
        sum = sum + e;
    }

    for (var i = 0u; i < params.cols; i = i + 1u) {
        result[base + i] = result[base + i] / sum;
    }
}
`

// expandOp substitutes the element expression into a shader template.
func expandOp(template, op string) string {
	return strings.ReplaceAll(template, "OP", op)
}

var binaryShaders = map[string]string{
	"add": expandOp(binaryShaderTemplate, "a[i] + b[i]"),
	"sub": expandOp(binaryShaderTemplate, "a[i] - b[i]"),
	"mul": expandOp(binaryShaderTemplate, "a[i] * b[i]"),
	"div": expandOp(binaryShaderTemplate, "a[i] / b[i]"),
}

var unaryShaders = map[string]string{
	"neg":     expandOp(unaryShaderTemplate, "-x[i]"),
	"exp":     expandOp(unaryShaderTemplate, "exp(x[i])"),
	"log":     expandOp(unaryShaderTemplate, "log(x[i])"),
	"sqrt":    expandOp(unaryShaderTemplate, "sqrt(x[i])"),
	"rsqrt":   expandOp(unaryShaderTemplate, "inverseSqrt(x[i])"),
	"tanh":    expandOp(unaryShaderTemplate, "tanh(x[i])"),
	"sigmoid": expandOp(unaryShaderTemplate, "1.0 / (1.0 + exp(-x[i]))"),
	"relu":    expandOp(unaryShaderTemplate, "max(x[i], 0.0)"),
}

var scalarShaders = map[string]string{
	"adds": expandOp(scalarShaderTemplate, "x[i] + params.scalar"),
	"subs": expandOp(scalarShaderTemplate, "x[i] - params.scalar"),
	"muls": expandOp(scalarShaderTemplate, "x[i] * params.scalar"),
	"divs": expandOp(scalarShaderTemplate, "x[i] / params.scalar"),
	"pow":  expandOp(scalarShaderTemplate, "pow(x[i], params.scalar)"),
}
