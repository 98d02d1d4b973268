package loader

import (
	"fmt"
	"math"
	"os"
)

// readFile reads a whole image file. Images must fit the 32-bit address
// space.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if uint64(len(data)) > math.MaxUint32 {
		return nil, fmt.Errorf("image %s is larger than 4 GiB", path)
	}
	return data, nil
}

// ReadInitrd reads an initial ramdisk image.
func ReadInitrd(path string) ([]byte, error) {
	return readFile(path)
}
