package graph

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/medflow-cli/internal/parser"
	"github.com/KaramelBytes/medflow-cli/internal/record"
)

func TestBuildEndToEnd(t *testing.T) {
	rows := parser.Parse(`[
		{"supplier":"X","category":"Gloves","customer":"Y","qty":"10","date":"20240101"},
		{"supplier":"X","category":"Gloves","customer":"Z","qty":"5","date":"20240102"}
	]`).Rows
	g := Build(rows, Options{})

	weights := map[string]int64{}
	for _, n := range g.Nodes {
		weights[n.ID] = n.Weight
	}
	assert.Equal(t, map[string]int64{"S:X": 15, "C:Gloves": 15, "U:Y": 10, "U:Z": 5}, weights)

	require.Len(t, g.Links, 4)
	assert.Equal(t, []Link{
		{Source: "S:X", Target: "C:Gloves", Weight: 10, Width: LinkWidth(10)},
		{Source: "C:Gloves", Target: "U:Y", Weight: 10, Width: LinkWidth(10)},
		{Source: "S:X", Target: "C:Gloves", Weight: 5, Width: LinkWidth(5)},
		{Source: "C:Gloves", Target: "U:Z", Weight: 5, Width: LinkWidth(5)},
	}, g.Links)

	assert.Equal(t, "S:X", g.Nodes[0].ID)
	assert.Equal(t, PartitionSupplier, g.Nodes[0].Partition)
	assert.Equal(t, "C:Gloves", g.Nodes[1].ID)
	assert.Equal(t, DefaultMaxNodes, g.Meta.MaxNodes)
	assert.Equal(t, Stats{TotalNodes: 4, RetainedNodes: 4, TotalLinks: 4, RetainedLinks: 4}, g.Meta.Stats)
}

func TestBuildPartitionsDoNotCollide(t *testing.T) {
	g := Build([]record.Row{{SupplierID: "A", Category: "A", CustomerID: "A", Quantity: 1}}, Options{})
	require.Len(t, g.Nodes, 3)
	ids := []string{g.Nodes[0].ID, g.Nodes[1].ID, g.Nodes[2].ID}
	assert.ElementsMatch(t, []string{"S:A", "C:A", "U:A"}, ids)
}

func TestBuildTruncationDropsDanglingLinks(t *testing.T) {
	var rows []record.Row
	for i := 0; i < 60; i++ {
		rows = append(rows, record.Row{
			SupplierID: fmt.Sprintf("s%d", i%11),
			Category:   fmt.Sprintf("c%d", i%4),
			CustomerID: fmt.Sprintf("u%d", i%17),
			Quantity:   int64(i%9 + 1),
		})
	}
	for _, bound := range []int{1, 2, 5, 10, 32, 500} {
		g := Build(rows, Options{MaxNodes: bound})
		assert.LessOrEqual(t, len(g.Nodes), bound)
		present := map[string]bool{}
		for i, n := range g.Nodes {
			present[n.ID] = true
			if i > 0 {
				assert.GreaterOrEqual(t, g.Nodes[i-1].Weight, n.Weight)
			}
		}
		for _, l := range g.Links {
			assert.True(t, present[l.Source], "bound %d source %s", bound, l.Source)
			assert.True(t, present[l.Target], "bound %d target %s", bound, l.Target)
		}
		assert.Equal(t, 120, g.Meta.Stats.TotalLinks)
	}
}

func TestBuildMinLinkWeight(t *testing.T) {
	rows := []record.Row{
		{SupplierID: "S", Category: "C", CustomerID: "U", Quantity: 1},
		{SupplierID: "S", Category: "C", CustomerID: "U", Quantity: 4},
	}
	g := Build(rows, Options{MinLinkWeight: 2})
	require.Len(t, g.Links, 2)
	for _, l := range g.Links {
		assert.EqualValues(t, 4, l.Weight)
	}
}

func TestDisplayHints(t *testing.T) {
	assert.Equal(t, 3.0, NodeRadius(-5))
	assert.Equal(t, 3.0, NodeRadius(4))
	assert.InDelta(t, 5.0, NodeRadius(25), 1e-9)
	assert.Equal(t, 20.0, NodeRadius(10000))
	assert.Equal(t, 0.0, LinkWidth(-1))
	assert.InDelta(t, 1.5, LinkWidth(9), 1e-9)
}
