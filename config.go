package mori

import (
	"fmt"

	"github.com/cznic/mathutil"
)

// MaxAllocSizeInBytes is the largest request SlabAllocator.Smalloc can ever
// satisfy: one 4 KiB block minus its 64-byte metadata header.
const MaxAllocSizeInBytes = blockSize - 64

// Config holds the tunables of the allocation subsystem. The zero value is
// not valid; use NewConfig, which applies and validates ConfigOptions in the
// style of the teacher's functional-options Options type.
type Config struct {
	superpageSize uintptr
	pageSize      uintptr
	maxAllocSize  uintptr
}

// ConfigOption mutates a Config under construction. NewConfig applies
// defaults first and then each option in order, mirroring dbm.Options.
type ConfigOption func(*Config) error

// NewConfig builds a Config from defaults (2 MiB superpages, 4 KiB blocks,
// 4032-byte max allocation) plus any supplied options, validating the
// result.
func NewConfig(opts ...ConfigOption) (Config, error) {
	c := Config{
		superpageSize: superpageSize,
		pageSize:      blockSize,
		maxAllocSize:  MaxAllocSizeInBytes,
	}
	for _, opt := range opts {
		if err := opt(&c); err != nil {
			return Config{}, err
		}
	}
	if c.pageSize == 0 || c.superpageSize%c.pageSize != 0 {
		return Config{}, fmt.Errorf("mori: page size %d does not evenly divide superpage size %d", c.pageSize, c.superpageSize)
	}
	c.maxAllocSize = uintptr(mathutil.MinUint64(uint64(c.maxAllocSize), uint64(c.pageSize)-64))
	return c, nil
}

// WithMaxAllocSize overrides MaxAllocSizeInBytes; NewConfig clamps it to the
// Config's page size minus the 64-byte slab page header.
func WithMaxAllocSize(n uintptr) ConfigOption {
	return func(c *Config) error {
		if n == 0 {
			return fmt.Errorf("mori: max alloc size must be positive")
		}
		c.maxAllocSize = n
		return nil
	}
}
