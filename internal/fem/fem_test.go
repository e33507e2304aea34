package fem

import (
	"errors"
	"strings"
	"testing"

	"github.com/Faultbox/modelxchange/pkg/formats"
	"github.com/Faultbox/modelxchange/pkg/gpu"
	"github.com/Faultbox/modelxchange/pkg/scenegraph"
)

const roundTrip = `$ three grids, one triangle
GRID,5,,0.0,0.0,0.0
GRID,10,,1.0,0.0,0.0
GRID,23,,0.0,1.0,0.0
CTRIA3,1,1,5,10,23
TEMP,1,5,0.0
TEMP,1,10,50.0
TEMP,1,23,100.0
`

func parse(t *testing.T, src string) *formats.Nastran {
	t.Helper()
	n, err := formats.ParseNastran(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseNastran failed: %v", err)
	}
	return n
}

func drawOf(t *testing.T, sg *scenegraph.StateGroup) *scenegraph.VertexIndexDraw {
	t.Helper()
	if len(sg.Children()) != 1 {
		t.Fatalf("expected 1 child, got %d", len(sg.Children()))
	}
	d, ok := sg.Children()[0].(*scenegraph.VertexIndexDraw)
	if !ok {
		t.Fatalf("expected draw, got %T", sg.Children()[0])
	}
	return d
}

func TestBuild_RoundTrip(t *testing.T) {
	sg, err := Build(parse(t, roundTrip))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if sg.State == nil || sg.State.Pipeline == nil {
		t.Fatal("expected temperature pipeline state")
	}
	stages := sg.State.Pipeline.Pipeline.Stages
	if stages[0].Name != "temperature.vert" || stages[1].Name != "temperature.frag" {
		t.Errorf("unexpected stages %s, %s", stages[0].Name, stages[1].Name)
	}
	if sg.State.Pipeline.Pipeline.Layout.PushConstants[0].Size != gpu.PushConstantSize {
		t.Error("expected 128-byte push constants")
	}

	draw := drawOf(t, sg)
	temps := draw.Arrays[1].(scenegraph.FloatArray)
	want := []float32{0, 0.5, 1}
	for i := range want {
		if temps[i] != want[i] {
			t.Errorf("temperature %d = %f, want %f", i, temps[i], want[i])
		}
	}

	if draw.Indices.Width() != 32 {
		t.Errorf("expected 32-bit indices, got %d", draw.Indices.Width())
	}
	for i, want := range []uint32{0, 1, 2} {
		if got := draw.Indices.At(i); got != want {
			t.Errorf("index %d = %d, want %d", i, got, want)
		}
	}
	if draw.InstanceCount != 1 || draw.IndexCount != 3 {
		t.Errorf("unexpected draw %s", draw)
	}

	positions := draw.Arrays[0].(scenegraph.Vec3Array)
	if positions[2] != ([3]float32{0, 1, 0}) {
		t.Errorf("unexpected position %v", positions[2])
	}
}

func TestBuild_TemperaturesPairedByID(t *testing.T) {
	n := parse(t, `GRID,5,,0,0,0
GRID,10,,1,0,0
GRID,23,,0,1,0
CTRIA3,1,1,23,10,5
TEMP,1,23,100
TEMP,1,5,0
TEMP,1,10,25
`)
	sg, err := Build(n)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	draw := drawOf(t, sg)

	temps := draw.Arrays[1].(scenegraph.FloatArray)
	want := []float32{0, 0.25, 1}
	for i := range want {
		if temps[i] != want[i] {
			t.Errorf("temperature %d = %f, want %f", i, temps[i], want[i])
		}
	}
	for i, want := range []uint32{2, 1, 0} {
		if got := draw.Indices.At(i); got != want {
			t.Errorf("index %d = %d, want %d", i, got, want)
		}
	}
}

func TestBuild_GridWithoutTemp(t *testing.T) {
	n := parse(t, "GRID,1,,0,0,0\nGRID,2,,1,0,0\nTEMP,1,1,10\n")
	_, err := Build(n)
	if !errors.Is(err, ErrIDMismatch) {
		t.Errorf("expected ErrIDMismatch, got %v", err)
	}
}

func TestBuild_Empty(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"no records", "$ nothing but a comment\n"},
		{"temperatures only", "TEMP,1,1,10\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sg, err := Build(parse(t, tt.src))
			if sg != nil {
				t.Error("expected no graph")
			}
			if !errors.Is(err, ErrEmptyMesh) {
				t.Errorf("expected ErrEmptyMesh, got %v", err)
			}
		})
	}
}

func TestBuild_UnknownGridID(t *testing.T) {
	n := parse(t, "GRID,1,,0,0,0\nCTRIA3,1,1,1,1,7\nTEMP,1,1,10\n")
	_, err := Build(n)
	if !errors.Is(err, ErrUnknownGridID) {
		t.Errorf("expected ErrUnknownGridID, got %v", err)
	}
}

func TestCheckIDs(t *testing.T) {
	tests := []struct {
		name    string
		grid    []int
		temp    []int
		wantErr bool
	}{
		{"same order", []int{1, 2, 3}, []int{1, 2, 3}, false},
		{"permuted", []int{3, 1, 2}, []int{2, 3, 1}, false},
		{"empty", nil, nil, false},
		{"missing temp", []int{1, 2}, []int{1}, true},
		{"extra temp", []int{1}, []int{1, 2}, true},
		{"one id differs", []int{1, 2, 3}, []int{1, 2, 4}, true},
		{"duplicate", []int{1, 1}, []int{1, 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckIDs(tt.grid, tt.temp)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckIDs() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrIDMismatch) {
				t.Errorf("expected ErrIDMismatch, got %v", err)
			}
		})
	}
}

func TestCheckIDs_DoesNotReorderInput(t *testing.T) {
	grid := []int{3, 1, 2}
	if err := CheckIDs(grid, []int{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	if grid[0] != 3 {
		t.Error("expected input to be left untouched")
	}
}

func TestNormalize(t *testing.T) {
	got := Normalize([]float32{-20, 0, 30})
	if got[0] != 0 || got[2] != 1 {
		t.Errorf("expected endpoints 0 and 1, got %v", got)
	}
	if got[1] != 0.4 {
		t.Errorf("expected 0.4, got %f", got[1])
	}
	for _, v := range got {
		if v < 0 || v > 1 {
			t.Errorf("value %f out of range", v)
		}
	}

	for _, v := range Normalize([]float32{7, 7, 7}) {
		if v != UniformTemperature {
			t.Errorf("expected %f for equal values, got %f", UniformTemperature, v)
		}
	}

	if len(Normalize(nil)) != 0 {
		t.Error("expected empty result")
	}
}
