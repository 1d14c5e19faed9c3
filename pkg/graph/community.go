package graph

import (
	"fmt"
	"slices"

	"github.com/OFFIS-RIT/semgraph/pkg/logger"
)

// CommunityDetector partitions a graph into communities. Every node of g must
// be assigned a community id.
type CommunityDetector interface {
	Detect(g *Graph) (map[string]int, error)
}

// CommunityResult is the outcome of community detection and small
// community suppression.
type CommunityResult struct {
	// Graph is the subgraph induced by the nodes of the retained communities.
	Graph *Graph
	// Retained lists the kept community ids in ascending order.
	Retained []int
	// Partition maps every node of Graph to its community.
	Partition map[string]int
	// Detected is the unfiltered detector output covering every input node.
	Detected map[string]int
	// Sizes is the node count of every community before suppression.
	Sizes map[int]int
}

// DetectAndFilterCommunities partitions g with detector and drops every node
// whose community has fewer than minSize members. If no community is large
// enough the single largest one is kept, ties going to the lowest id.
func DetectAndFilterCommunities(g *Graph, detector CommunityDetector, minSize int) (*CommunityResult, error) {
	if g.NumNodes() == 0 {
		return &CommunityResult{
			Graph:     EmptyGraph(),
			Retained:  []int{},
			Partition: map[string]int{},
			Detected:  map[string]int{},
			Sizes:     map[int]int{},
		}, nil
	}

	partition, err := detector.Detect(g)
	if err != nil {
		return nil, fmt.Errorf("community detection: %w", err)
	}
	for _, n := range g.nodes {
		if _, ok := partition[n]; !ok {
			return nil, fmt.Errorf("community detection: node %q has no community", n)
		}
	}

	sizes := CommunitySizes(partition)
	ids := make([]int, 0, len(sizes))
	for c := range sizes {
		ids = append(ids, c)
	}
	slices.Sort(ids)

	retained := make([]int, 0, len(ids))
	for _, c := range ids {
		if sizes[c] >= minSize {
			retained = append(retained, c)
		}
	}
	if len(retained) == 0 {
		largest := ids[0]
		for _, c := range ids[1:] {
			if sizes[c] > sizes[largest] {
				largest = c
			}
		}
		logger.Debug("[Graph] No community reaches minimum size, keeping largest", "min_size", minSize, "community", largest, "size", sizes[largest])
		retained = append(retained, largest)
	}

	keep := make(map[int]struct{}, len(retained))
	for _, c := range retained {
		keep[c] = struct{}{}
	}
	nodes := make([]string, 0, g.NumNodes())
	kept := make(map[string]int)
	for _, n := range g.nodes {
		if _, ok := keep[partition[n]]; ok {
			nodes = append(nodes, n)
			kept[n] = partition[n]
		}
	}

	logger.Debug("[Graph] Filtered communities", "communities", len(ids), "retained", len(retained), "nodes", len(nodes))

	return &CommunityResult{
		Graph:     g.Subgraph(nodes),
		Retained:  retained,
		Partition: kept,
		Detected:  partition,
		Sizes:     sizes,
	}, nil
}

// CommunitySizes counts the members of every community in partition.
func CommunitySizes(partition map[string]int) map[int]int {
	sizes := make(map[int]int)
	for _, c := range partition {
		sizes[c]++
	}
	return sizes
}
