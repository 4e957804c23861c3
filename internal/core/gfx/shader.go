package gfx

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"github.com/gogpu/naga"
)

const spirvMagic = 0x07230203

// Shader is a compiled shader module.
type Shader struct {
	module ShaderModule
	spirv  []byte
}

// LoadShader accepts pre-compiled SPIR-V or WGSL source, which is compiled
// to SPIR-V first.
func LoadShader(device Device, data []byte) (*Shader, error) {
	code, err := ToSPIRV(data)
	if err != nil {
		return nil, err
	}
	module, err := device.CreateShaderModule(&ShaderModuleDescriptor{Label: "shader", SPIRV: code})
	if err != nil {
		return nil, fmt.Errorf("create shader module: %w", err)
	}
	return &Shader{module: module, spirv: code}, nil
}

// ToSPIRV returns data unchanged when it already is SPIR-V and compiles it
// as WGSL otherwise.
func ToSPIRV(data []byte) ([]byte, error) {
	if IsSPIRV(data) {
		if len(data)%4 != 0 {
			return nil, fmt.Errorf("%w: spir-v length %d is not word aligned", ErrInvalidShader, len(data))
		}
		return data, nil
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: neither spir-v nor wgsl text", ErrInvalidShader)
	}
	code, err := naga.Compile(string(data))
	if err != nil {
		return nil, fmt.Errorf("%w: compile wgsl: %v", ErrInvalidShader, err)
	}
	return code, nil
}

func IsSPIRV(data []byte) bool {
	return len(data) >= 4 && binary.LittleEndian.Uint32(data) == spirvMagic
}

func (s *Shader) Module() ShaderModule {
	return s.module
}

// SPIRV is the code the module was created from.
func (s *Shader) SPIRV() []byte {
	return s.spirv
}

func (s *Shader) Destroy() {
	s.module.Destroy()
}
