package trustgraph

import "strings"

// Edge is one weighted edge of the trust graph. Addresses are always stored
// lowercased; two addresses differing only in case are the same node.
type Edge struct {
	Source string
	Target string
	Weight float64
}

const (
	fieldCategory    = "category"
	fieldSubcategory = "subcategory"

	// DefaultSeedWeight is assigned when a seed attestation's subcategory is
	// not present in the tenant's weight table.
	DefaultSeedWeight = 1
)

// BuildOptions carries the tenant-specific knobs for seed-edge construction.
type BuildOptions struct {
	// SeedCategory, when non-empty, drops seed attestations whose category
	// field does not match it. Empty accepts every category.
	SeedCategory string
	// Weights maps a subcategory to its seed-edge weight. Misses fall back to
	// DefaultSeedWeight.
	Weights map[string]float64
}

// Build converts raw attestations into the two edge sets consumed by the
// scoring engine: the interaction graph (localtrust) and the seed-trust graph
// (pretrust). It performs no I/O and is deterministic given its inputs.
//
// Interaction edges get weight 1 and self-attestations are dropped. Duplicate
// source/target pairs are passed through verbatim; the scoring engine
// aggregates multiplicity. Seed edges whose source never appears in the
// interaction graph are discarded, so seed trust cannot be injected by an
// address with no interaction footprint.
func Build(interactions, seeds []Attestation, opts BuildOptions) (localtrust, pretrust []Edge) {
	localtrust = make([]Edge, 0, len(interactions))
	for _, att := range interactions {
		source := strings.ToLower(att.Attester)
		target := strings.ToLower(att.Recipient)
		if source == target {
			continue
		}
		localtrust = append(localtrust, Edge{Source: source, Target: target, Weight: 1})
	}

	nodes := make(map[string]struct{}, len(localtrust)*2)
	for _, e := range localtrust {
		nodes[e.Source] = struct{}{}
		nodes[e.Target] = struct{}{}
	}

	pretrust = make([]Edge, 0, len(seeds))
	for _, att := range seeds {
		if opts.SeedCategory != "" {
			category, ok := att.DecodedField(fieldCategory)
			if !ok || category != opts.SeedCategory {
				continue
			}
		}
		subcategory, ok := att.DecodedField(fieldSubcategory)
		if !ok {
			// No subcategory means no weight can be assigned.
			continue
		}
		weight := float64(DefaultSeedWeight)
		if w, ok := opts.Weights[subcategory]; ok {
			weight = w
		}
		source := strings.ToLower(att.Attester)
		if _, ok := nodes[source]; !ok {
			continue
		}
		pretrust = append(pretrust, Edge{
			Source: source,
			Target: strings.ToLower(att.Recipient),
			Weight: weight,
		})
	}
	return localtrust, pretrust
}
