// cgprep - Coarse-grained dataset preparation
//
// cgprep reduces all-atom LAMMPS trajectories to one bead per molecule and
// writes DeePMD-kit training data labelled from the LAMMPS log.
package main

import (
	"os"

	"github.com/deepwater/cgprep/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
