//go:build !(linux && amd64)

package mori

// This file exists solely to fail the build on any target other than
// linux/amd64. RootAllocator and PageStorage already carry their own
// "//go:build linux && amd64" tags because they call into internal/mmap,
// but the rest of the package — in particular RawMemoryPtr's 48-bit
// address packing in raw_memory_ptr.go — assumes the same platform without
// touching mmap directly, so it would otherwise compile (with a reduced
// API) on an unsupported target instead of failing outright.
func init() {
	compileError_MORI_REQUIRES_LINUX_AMD64()
}

// compileError_MORI_REQUIRES_LINUX_AMD64 is deliberately left undefined:
// the build error it produces ("undefined: compileError_..._AMD64") is the
// whole point of this file.
