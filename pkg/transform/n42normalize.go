package transform

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/samber/lo"

	"specconv/pkg/spectrum"
)

// n42NamePattern is the canonical N42 detector-naming convention: column
// A-D, panel a-h, MCA 1-8, with an optional neutron/partner suffix.
var n42NamePattern = regexp.MustCompile(`^[A-D][a-h][1-8]([nN _].*)?$`)

var legacyTwoCharPattern = regexp.MustCompile(`^([A-D])([1-8])$`)
var detectorInfoPattern = regexp.MustCompile(`^DetectorInfoPan(\d+)DetG(\d+)$`)

type poolConfig struct {
	columns int
	panels  int
	mcas    int
}

func (p poolConfig) capacity() int { return p.columns * p.panels * p.mcas }

// escalation order: increase MCA first, then panel, then column (§4.2 step 7).
var poolEscalation = []poolConfig{
	{columns: 2, panels: 4, mcas: 1},
	{columns: 2, panels: 4, mcas: 8},
	{columns: 2, panels: 8, mcas: 8},
	{columns: 4, panels: 8, mcas: 8},
}

// NormalizeN42Names implements §4.2 step 7: renames every gamma-detector
// name that doesn't already match the N42 convention, allocating from an
// adaptively-sized column/panel/MCA pool, with special-cased legacy
// two-character and DetectorInfoPan names, and renames matching neutron
// partners alongside their gamma detector. Idempotent: a second call finds
// nothing left to rename.
func NormalizeN42Names(f *spectrum.SpecFile) {
	var needsRename []string
	for _, name := range f.GammaDetectorNames {
		if !n42NamePattern.MatchString(name) {
			needsRename = append(needsRename, name)
		}
	}
	if len(needsRename) == 0 {
		return
	}
	sort.Strings(needsRename)

	used := lo.SliceToMap(f.DetectorNames, func(n string) (string, bool) { return n, true })

	assign := func(original, target string) {
		if used[target] {
			return
		}
		if err := f.ChangeDetectorName(original, target); err != nil {
			f.Warnf("n42-normalize: rename %q to %q: %v", original, target, err)
			return
		}
		used[target] = true
		delete(used, original)
		renameNeutronPartner(f, used, original, target)
	}

	var remaining []string
	for _, name := range needsRename {
		if m := legacyTwoCharPattern.FindStringSubmatch(name); m != nil {
			target := fmt.Sprintf("%sa%s", m[1], m[2])
			if !used[target] {
				assign(name, target)
				continue
			}
		}
		if m := detectorInfoPattern.FindStringSubmatch(name); m != nil {
			var panel int
			fmt.Sscanf(m[1], "%d", &panel)
			col := string(rune('A' + panel - 1))
			target := fmt.Sprintf("%sa%s", col, m[2])
			if !used[target] {
				assign(name, target)
				continue
			}
		}
		remaining = append(remaining, name)
	}

	if len(remaining) == 0 {
		return
	}

	cfg := poolEscalation[len(poolEscalation)-1]
	for _, c := range poolEscalation {
		if c.capacity() >= len(remaining) {
			cfg = c
			break
		}
	}

	pool := generatePool(cfg)
	idx := 0
	for _, name := range remaining {
		for idx < len(pool) && used[pool[idx]] {
			idx++
		}
		if idx >= len(pool) {
			f.Warnf("n42-normalize: pool of %d names exhausted, leaving %q as-is", cfg.capacity(), name)
			continue
		}
		assign(name, pool[idx])
		idx++
	}
}

// generatePool lists column/panel/MCA combinations in assignment order:
// column outermost (slowest-changing), panel next, MCA innermost (fastest).
func generatePool(cfg poolConfig) []string {
	cols := []rune("ABCD")[:cfg.columns]
	panels := []rune("abcdefgh")[:cfg.panels]
	var pool []string
	for _, col := range cols {
		for _, panel := range panels {
			for mca := 1; mca <= cfg.mcas; mca++ {
				pool = append(pool, fmt.Sprintf("%c%c%d", col, panel, mca))
			}
		}
	}
	return pool
}

// renameNeutronPartner renames a neutron detector named original+"n" or
// original+"N" to "<target>N <original>", per §4.2 step 7's final rule.
func renameNeutronPartner(f *spectrum.SpecFile, used map[string]bool, original, target string) {
	for _, suffix := range []string{"n", "N"} {
		neutronName := original + suffix
		if !lo.Contains(f.NeutronDetectorNames, neutronName) && !used[neutronName] {
			continue
		}
		newName := fmt.Sprintf("%sN %s", target, original)
		if used[newName] {
			continue
		}
		if err := f.ChangeDetectorName(neutronName, newName); err == nil {
			used[newName] = true
			delete(used, neutronName)
		}
	}
}
