package graph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleDoc = `
nodes:
  - id: trigger1
    type: manual_trigger
    config: {}
  - id: router1
    type: router
    config:
      key: region
      value: US
  - id: sinkA
    type: console_output
    config: {}
edges:
  - from: trigger1
    to: router1
  - from: router1
    from_port: "true"
    to: sinkA
`

func TestParseAndNormalize(t *testing.T) {
	def, err := ParseAndNormalize([]byte(sampleDoc))
	require.NoError(t, err)
	require.Len(t, def.Nodes, 3)
	require.Len(t, def.Edges, 2)

	require.Equal(t, "trigger1", def.Nodes[0].ID)
	require.Equal(t, "manual_trigger", def.Nodes[0].Type)

	firstEdge := def.Edges[0]
	require.False(t, firstEdge.From.IsName)
	require.Equal(t, 0, firstEdge.From.Index)
	require.False(t, firstEdge.To.IsName)

	secondEdge := def.Edges[1]
	require.True(t, secondEdge.From.IsName)
	require.Equal(t, "true", secondEdge.From.Name)
}

func TestNormalizeRejectsEmptyNodeID(t *testing.T) {
	doc := &Document{Nodes: []docNode{{ID: "", Type: "x"}}}
	_, err := Normalize(doc)
	require.Error(t, err)
}

func TestPortRefFromRawRejectsBadType(t *testing.T) {
	_, err := portRefFromRaw("n1", 3.14, 0)
	require.Error(t, err)
}
