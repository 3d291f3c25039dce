package config

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Fingerprint hashes the parameters that change scan results, so ledger
// entries computed under different settings can be told apart. Target
// lists, output locations and worker counts are not part of it.
func (c *Config) Fingerprint() string {
	var b strings.Builder
	fmt.Fprintf(&b, "shape=%s;", c.NPShape)
	fmt.Fprintf(&b, "delta=%g;samples=%d;steps=%d;margin=%g;", c.AngleDelta, c.Samples, c.Steps, c.Margin)
	fmt.Fprintf(&b, "temperature=%g;bounding=%g;", c.Temperature, c.BoundingRadius)
	fmt.Fprintf(&b, "overlap=%g*%g;sum=%t;", c.OverlapPenalty, c.OverlapRadiusFactor, c.SumPotentials)
	fmt.Fprintf(&b, "pmf=%s@%g;", c.PMFDir, c.PMFCutoff)
	fmt.Fprintf(&b, "disorder=%d[%g,%g];seed=%d;", c.DisorderStrategy, c.DisorderMin, c.DisorderMax, c.Seed)
	for _, r := range c.Residues {
		fmt.Fprintf(&b, "%s=%g,", r.Name, r.Radius)
	}
	sum := sha3.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
