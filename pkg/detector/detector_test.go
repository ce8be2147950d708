package detector

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/deepwater/cgprep/pkg/lammpstrj"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}
	return path
}

func waterDump(frames, molecules int, cols string) string {
	var b strings.Builder
	for f := 0; f < frames; f++ {
		fmt.Fprintf(&b, "ITEM: TIMESTEP\n%d\nITEM: NUMBER OF ATOMS\n%d\n", 1000+f*10, molecules*3)
		b.WriteString("ITEM: BOX BOUNDS pp pp pp\n0 10\n0 10\n0 10\n")
		b.WriteString("ITEM: ATOMS " + cols + "\n")
		for m := 0; m < molecules; m++ {
			id := m*3 + 1
			// Hydrogens first to make sure the anchor is not picked by position.
			fmt.Fprintf(&b, "%d %d 2 1 1 1 0 0 0\n", id, m+1)
			fmt.Fprintf(&b, "%d %d 1 1 1 1 0 0 0\n", id+1, m+1)
			fmt.Fprintf(&b, "%d %d 2 1 1 1 0 0 0\n", id+2, m+1)
		}
	}
	return b.String()
}

func TestInspectDump(t *testing.T) {
	path := writeFile(t, "water.lammpstrj", waterDump(3, 4, "id mol type xu yu zu fx fy fz"))

	info, err := New().InspectDump(context.Background(), path)
	if err != nil {
		t.Fatalf("InspectDump() error = %v", err)
	}

	if info.Frames != 3 || info.Truncated {
		t.Errorf("Frames = %d (truncated %v), want 3", info.Frames, info.Truncated)
	}
	if info.Atoms != 12 || info.Molecules != 4 {
		t.Errorf("Atoms/Molecules = %d/%d, want 12/4", info.Atoms, info.Molecules)
	}
	if info.AnchorType != 1 {
		t.Errorf("AnchorType = %d, want 1", info.AnchorType)
	}
	if info.TypeCounts[2] != 8 {
		t.Errorf("TypeCounts[2] = %d, want 8", info.TypeCounts[2])
	}
	if !info.Unwrapped {
		t.Error("Unwrapped = false for xu yu zu columns")
	}
	if info.FirstTimestep != 1000 || info.LastTimestep != 1020 {
		t.Errorf("Timesteps = %d..%d, want 1000..1020", info.FirstTimestep, info.LastTimestep)
	}
}

func TestInspectDump_MaxFrames(t *testing.T) {
	path := writeFile(t, "water.lammpstrj", waterDump(5, 1, "id mol type x y z fx fy fz"))

	info, err := New(WithMaxFrames(2)).InspectDump(context.Background(), path)
	if err != nil {
		t.Fatalf("InspectDump() error = %v", err)
	}
	if info.Frames != 2 || !info.Truncated {
		t.Errorf("Frames = %d (truncated %v), want 2 truncated", info.Frames, info.Truncated)
	}

	info, err = New(WithMaxFrames(5)).InspectDump(context.Background(), path)
	if err != nil {
		t.Fatalf("InspectDump() error = %v", err)
	}
	if info.Truncated {
		t.Error("Truncated = true when the limit equals the frame count")
	}
}

func TestInspectDump_NoAnchorType(t *testing.T) {
	// Every atom has type 1, so no type occurs once per molecule.
	content := strings.ReplaceAll(waterDump(1, 2, "id mol type x y z fx fy fz"), " 2 1 1 1 0", " 1 1 1 1 0")
	path := writeFile(t, "ff.lammpstrj", content)

	info, err := New().InspectDump(context.Background(), path)
	if err != nil {
		t.Fatalf("InspectDump() error = %v", err)
	}
	if info.AnchorType != 0 {
		t.Errorf("AnchorType = %d, want 0", info.AnchorType)
	}
}

func TestInspectDump_Empty(t *testing.T) {
	path := writeFile(t, "empty.lammpstrj", "")
	_, err := New().InspectDump(context.Background(), path)
	if !errors.Is(err, lammpstrj.ErrMalformedTrajectory) {
		t.Errorf("InspectDump() error = %v, want ErrMalformedTrajectory", err)
	}
}

const sampleLog = `LAMMPS (2 Aug 2023)
units real
Step Temp PotEng Press
       0    300   -1000.5    1.0
     100    301   -1001.5    2.0
Loop time of 1.0 on 1 procs for 100 steps
Step Temp PotEng v_Wxx v_Wyy v_Wzz v_Wxy v_Wxz v_Wyz Pxx Pyy Pzz Pxy Pxz Pyz
       0    300   -1000.5  1 2 3 4 5 6  1 2 3 4 5 6
      10    300   -1000.5  1 2 3 4 5 6  1 2 3 4 5 6
      20    300   -1000.5  1 2 3 4 5 6  1 2 3 4 5 6
Loop time of 1.0 on 1 procs for 20 steps
`

func TestInspectLog(t *testing.T) {
	path := writeFile(t, "log.lammps", sampleLog)

	info, err := New().InspectLog(context.Background(), path)
	if err != nil {
		t.Fatalf("InspectLog() error = %v", err)
	}

	if len(info.Runs) != 2 {
		t.Fatalf("Runs = %d, want 2", len(info.Runs))
	}

	first := info.Runs[0]
	if first.Steps != 2 || first.Energy != "PotEng" || first.Usable() {
		t.Errorf("Runs[0] = %+v, want 2 steps, PotEng, not usable", first)
	}

	second := info.Runs[1]
	if second.Steps != 3 || !second.Complete {
		t.Errorf("Runs[1] steps = %d complete = %v, want 3 true", second.Steps, second.Complete)
	}
	if len(second.Virials) != 2 {
		t.Fatalf("Runs[1].Virials = %+v, want 2 families", second.Virials)
	}
	if second.Virials[0].Prefix != "v_W" || second.Virials[0].IsPressure() {
		t.Errorf("Virials[0] = %+v, want v_W family", second.Virials[0])
	}
	if second.Virials[0].Fields[5] != "v_Wyz" {
		t.Errorf("Virials[0].Fields[5] = %q, want v_Wyz", second.Virials[0].Fields[5])
	}
	if !second.Virials[1].IsPressure() {
		t.Errorf("Virials[1] = %+v, want pressure family", second.Virials[1])
	}

	if run := info.SuggestedRun(); run == nil || run.Index != 2 {
		t.Errorf("SuggestedRun() = %+v, want run 2", run)
	}
	if run := info.RunWithSteps(3); run == nil || run.Index != 2 {
		t.Errorf("RunWithSteps(3) = %+v, want run 2", run)
	}
	if run := info.RunWithSteps(2); run != nil {
		t.Errorf("RunWithSteps(2) = %+v, want nil (run 1 has no virials)", run)
	}
}

func TestFindEnergy(t *testing.T) {
	tests := []struct {
		keywords []string
		want     string
	}{
		{[]string{"Step", "PotEng", "c_pe"}, "PotEng"},
		{[]string{"Step", "c_pe"}, "c_pe"},
		{[]string{"Step", "Temp"}, ""},
	}
	for _, tt := range tests {
		if got := findEnergy(tt.keywords); got != tt.want {
			t.Errorf("findEnergy(%v) = %q, want %q", tt.keywords, got, tt.want)
		}
	}
}

func TestFindVirials_Incomplete(t *testing.T) {
	got := findVirials([]string{"v_Wxx", "v_Wyy", "v_Wzz", "v_Wxy", "v_Wxz"})
	if len(got) != 0 {
		t.Errorf("findVirials() = %+v, want none", got)
	}
}
