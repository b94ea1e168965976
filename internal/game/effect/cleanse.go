package effect

import "time"

// CleanseFilter refines which matched effects a cleanse may remove.
type CleanseFilter struct {
	// Protected tags block removal; a matched effect carrying one is counted
	// in BlockedByProtected and left in place.
	Protected []string
	// Priority tags are removed first when the removal budget is limited.
	Priority []string
	// Require tags must all be present on a matched effect for it to be
	// removable; failures count in BlockedByRequire.
	Require []string
	// Exclude tags block removal; failures count in BlockedByExclude.
	Exclude []string
}

// CleanseResult reports the outcome of a cleanse so callers can select a
// precise user-facing message (nothing to cleanse vs protected vs filtered).
type CleanseResult struct {
	Matched            int
	Removed            int
	RemovedIDs         []string
	BlockedByProtected int
	BlockedByRequire   int
	BlockedByExclude   int
}

// CleanseByTags removes up to maxToRemove live effects whose tag set
// intersects tags, subject to filter. Priority-tagged effects are removed
// before others; within a class, older applications are removed first.
// maxToRemove <= 0 means no limit.
//
// Postcondition: result.Removed <= maxToRemove when maxToRemove > 0;
// result.Matched counts every live effect intersecting tags regardless of
// filter outcome.
func (s *ActiveSet) CleanseByTags(tags []string, filter CleanseFilter, maxToRemove int, now time.Time) CleanseResult {
	s.sweepExpired(now)

	var result CleanseResult
	var priority, regular []*Instance

	for _, inst := range s.Active(now) {
		if !intersects(inst.Def.Tags, tags) {
			continue
		}
		result.Matched++

		if intersects(inst.Def.Tags, filter.Protected) {
			result.BlockedByProtected++
			continue
		}
		if intersects(inst.Def.Tags, filter.Exclude) {
			result.BlockedByExclude++
			continue
		}
		if !containsAll(inst.Def.Tags, filter.Require) {
			result.BlockedByRequire++
			continue
		}

		if intersects(inst.Def.Tags, filter.Priority) {
			priority = append(priority, inst)
		} else {
			regular = append(regular, inst)
		}
	}

	for _, inst := range append(priority, regular...) {
		if maxToRemove > 0 && result.Removed >= maxToRemove {
			break
		}
		s.removeInstance(inst)
		result.Removed++
		result.RemovedIDs = append(result.RemovedIDs, inst.Def.ID)
	}
	return result
}

// intersects reports whether a and b share at least one element.
// An empty b never intersects.
func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// containsAll reports whether set contains every element of required.
// An empty required is trivially satisfied.
func containsAll(set, required []string) bool {
	for _, r := range required {
		found := false
		for _, x := range set {
			if x == r {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
