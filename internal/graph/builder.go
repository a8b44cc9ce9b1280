// Package graph aggregates rows into a bounded tri-partite
// supplier → category → customer graph.
package graph

import (
	"math"
	"sort"

	"github.com/KaramelBytes/medflow-cli/internal/logger"
	"github.com/KaramelBytes/medflow-cli/internal/record"
)

// DefaultMaxNodes is the node bound used when none is given.
const DefaultMaxNodes = 100

const (
	minRadius = 3
	maxRadius = 20
)

type Options struct {
	// MaxNodes bounds the retained node count; <= 0 means DefaultMaxNodes.
	MaxNodes int
	// MinLinkWeight drops surviving links lighter than it when > 0.
	MinLinkWeight int64
}

// Build aggregates rows into nodes and links, keeps the MaxNodes heaviest
// nodes and drops every link that lost an endpoint. Equal weights keep
// first-encounter order.
func Build(rows []record.Row, opt Options) *Graph {
	maxNodes := opt.MaxNodes
	if maxNodes <= 0 {
		maxNodes = DefaultMaxNodes
	}

	idx := map[string]int{}
	var nodes []Node
	touch := func(p Partition, value string, qty int64) string {
		id := p.prefix() + value
		i, ok := idx[id]
		if !ok {
			i = len(nodes)
			idx[id] = i
			nodes = append(nodes, Node{ID: id, Label: value, Partition: p})
		}
		nodes[i].Weight += qty
		return id
	}

	links := make([]Link, 0, 2*len(rows))
	for _, r := range rows {
		s := touch(PartitionSupplier, r.SupplierID, r.Quantity)
		c := touch(PartitionCategory, r.Category, r.Quantity)
		u := touch(PartitionCustomer, r.CustomerID, r.Quantity)
		links = append(links,
			Link{Source: s, Target: c, Weight: r.Quantity},
			Link{Source: c, Target: u, Weight: r.Quantity})
	}

	g := &Graph{Meta: Meta{MaxNodes: maxNodes, Stats: Stats{TotalNodes: len(nodes), TotalLinks: len(links)}}}

	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].Weight > nodes[j].Weight })
	if len(nodes) > maxNodes {
		nodes = nodes[:maxNodes]
	}
	kept := make(map[string]struct{}, len(nodes))
	for i := range nodes {
		nodes[i].Radius = NodeRadius(nodes[i].Weight)
		kept[nodes[i].ID] = struct{}{}
	}
	g.Nodes = nodes

	g.Links = make([]Link, 0, len(links))
	for _, l := range links {
		if _, ok := kept[l.Source]; !ok {
			continue
		}
		if _, ok := kept[l.Target]; !ok {
			continue
		}
		if opt.MinLinkWeight > 0 && l.Weight < opt.MinLinkWeight {
			continue
		}
		l.Width = LinkWidth(l.Weight)
		g.Links = append(g.Links, l)
	}
	g.Meta.Stats.RetainedNodes = len(g.Nodes)
	g.Meta.Stats.RetainedLinks = len(g.Links)

	logger.Named("graph").Debugw("built graph",
		logger.FieldCount, len(rows),
		"nodes", g.Meta.Stats.RetainedNodes,
		"links", g.Meta.Stats.RetainedLinks,
		logger.FieldDropped, g.Meta.Stats.TotalNodes-g.Meta.Stats.RetainedNodes)
	return g
}

// NodeRadius maps a weight to a display radius in [3, 20].
func NodeRadius(weight int64) float64 {
	if weight <= 0 {
		return minRadius
	}
	return math.Min(maxRadius, math.Max(minRadius, math.Sqrt(float64(weight))))
}

// LinkWidth maps a weight to a stroke width; non-positive weights draw nothing.
func LinkWidth(weight int64) float64 {
	if weight <= 0 {
		return 0
	}
	return math.Sqrt(float64(weight)) * 0.5
}
