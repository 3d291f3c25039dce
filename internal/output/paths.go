package output

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nao1215/unitedatom/internal/model"
)

const (
	// GridExt is the extension of orientation grid files.
	GridExt = ".uam"

	// ProfileExt is the extension of raw profile files.
	ProfileExt = ".uap"
)

// stem returns "{molecule}_{int radius}_{int 1000·zeta}".
func stem(key model.ScanKey) string {
	var b strings.Builder
	b.WriteString(key.Molecule)
	b.WriteByte('_')
	b.WriteString(strconv.Itoa(int(key.Radius)))
	b.WriteByte('_')
	b.WriteString(strconv.Itoa(int(1000 * key.Zeta)))
	return b.String()
}

// GridPath returns the path of the grid file for key under dir.
func GridPath(dir string, key model.ScanKey) string {
	name := stem(key)
	if key.AngleSuffix() {
		name += "_" + strconv.Itoa(int(key.Omega))
	}
	if key.MFPT {
		name += "_mfpt"
	}
	return filepath.Join(dir, key.Nanoparticle, name+GridExt)
}

// ProfilePath returns the path of the raw profile file for one bin.
// Only cylinders carry the omega suffix here.
func ProfilePath(dir string, key model.ScanKey, phiDeg, thetaDeg int) string {
	name := stem(key) + "_" + strconv.Itoa(phiDeg) + "_" + strconv.Itoa(thetaDeg)
	if key.Shape.IsCylinder() {
		name += "_" + strconv.Itoa(int(key.Omega))
	}
	return filepath.Join(dir, key.Nanoparticle, name+ProfileExt)
}
