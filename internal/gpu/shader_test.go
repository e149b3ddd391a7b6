//go:build !nogpu

package gpu

import (
	"strings"
	"testing"

	"github.com/gogpu/naga"
)

func TestYCbCrShaderCompiles(t *testing.T) {
	spirv, err := naga.Compile(YCbCrShaderSource())
	if err != nil {
		t.Fatalf("naga.Compile: %v", err)
	}
	if len(spirv) == 0 || len(spirv)%4 != 0 {
		t.Fatalf("SPIR-V length = %d, want non-zero multiple of 4", len(spirv))
	}
}

func TestCompileSPIRV_MagicNumber(t *testing.T) {
	words, err := compileSPIRV(YCbCrShaderSource())
	if err != nil {
		t.Fatalf("compileSPIRV: %v", err)
	}
	if words[0] != 0x07230203 {
		t.Errorf("first word = %#x, want SPIR-V magic 0x07230203", words[0])
	}
}

func TestCompileSPIRV_RejectsInvalidSource(t *testing.T) {
	if _, err := compileSPIRV("fn broken( {"); err == nil {
		t.Error("compileSPIRV accepted invalid WGSL")
	}
}

func TestYCbCrShaderInterface(t *testing.T) {
	src := YCbCrShaderSource()
	for _, want := range []string{
		"fn vs_main",
		"fn fs_main",
		"window_size: vec2<f32>",
		"mode: u32",
		"orientation: vec4<f32>",
		"@binding(1) var yTex",
		"@binding(2) var uTex",
		"@binding(3) var vTex",
		"@binding(4) var plane_sampler",
		"@location(0) position",
		"@location(1) chroma_texcoord",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("shader source missing %q", want)
		}
	}
	for _, gone := range []string{"var y_tex", "var u_tex", "var v_tex"} {
		if strings.Contains(src, gone) {
			t.Errorf("shader still declares %q", gone)
		}
	}
}

func TestYCbCrShaderPanoramicChroma(t *testing.T) {
	src := YCbCrShaderSource()
	i := strings.Index(src, "if (uniforms.mode == MODE_PANORAMIC)")
	if i < 0 {
		t.Fatal("panoramic branch missing")
	}
	branch := src[i:]
	branch = branch[:strings.Index(branch, "}")]
	for _, want := range []string{"y_uv = reproject(", "c_uv = y_uv;"} {
		if !strings.Contains(branch, want) {
			t.Errorf("panoramic branch missing %q", want)
		}
	}
	for _, plane := range []string{"uTex", "vTex"} {
		if !strings.Contains(src, "textureSampleLevel("+plane+", plane_sampler, c_uv") {
			t.Errorf("%s not sampled at the chroma coordinate", plane)
		}
	}
}

func TestYCbCrShaderDecodeMatrix(t *testing.T) {
	src := YCbCrShaderSource()
	for _, c := range []string{
		"1.16438356164384",
		"1.59567019581339",
		"0.391260370716072",
		"0.813004933873461",
		"2.01741475897078",
	} {
		if !strings.Contains(src, c) {
			t.Errorf("decode coefficient %s missing from shader", c)
		}
	}
	if !strings.Contains(src, "rz * ry * rx") {
		t.Error("rotation must compose Rz·Ry·Rx")
	}
}
