package halhost

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// spirvMagic is the first word of every SPIR-V module.
const spirvMagic = 0x07230203

var errBadSPIRV = errors.New("halhost: malformed SPIR-V")

// spirvWords reinterprets a little-endian SPIR-V byte stream as words and
// checks its length and magic number.
func spirvWords(b []byte) ([]uint32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", errBadSPIRV, len(b))
	}
	words := make([]uint32, 0, len(b)/4)
	for rest := b; len(rest) > 0; rest = rest[4:] {
		words = append(words, binary.LittleEndian.Uint32(rest))
	}
	if words[0] != spirvMagic {
		return nil, fmt.Errorf("%w: magic %#08x", errBadSPIRV, words[0])
	}
	return words, nil
}

// shaderSource returns the HAL source for a WGSL program, compiled to
// SPIR-V through naga when spirv is set.
func shaderSource(wgslSource string, spirv bool) (hal.ShaderSource, error) {
	if !spirv {
		return hal.ShaderSource{WGSL: wgslSource}, nil
	}
	module, err := naga.Compile(wgslSource)
	if err != nil {
		return hal.ShaderSource{}, fmt.Errorf("compile shader: %w", err)
	}
	words, err := spirvWords(module)
	if err != nil {
		return hal.ShaderSource{}, err
	}
	return hal.ShaderSource{SPIRV: words}, nil
}
