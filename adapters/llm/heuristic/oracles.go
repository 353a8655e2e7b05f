package heuristic

import "sambou/ports"

// NewOracles bundles the offline oracles
func NewOracles() ports.Oracles {
	return ports.Oracles{
		Profile:  NewProfileOracle(),
		Ranking:  NewRankingOracle(),
		Snippets: NewSnippetOracle(),
	}
}
