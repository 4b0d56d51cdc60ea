package entities

import (
	"github.com/paulmach/orb"
)

// Road is a raw way as delivered by a road-network provider. Immutable
// after ingestion.
type Road struct {
	ID       string            `json:"id"`
	NodeIDs  []int64           `json:"node_ids"`
	Tags     map[string]string `json:"tags"`
	Geometry orb.LineString    `json:"geometry"`
}

// Edge is a directed road segment of the simulation graph. Speed and
// Capacity are the only mutable fields; construction impact is the only
// writer besides graph construction.
type Edge struct {
	ID            string         `json:"id"`
	FromNode      int64          `json:"from_node"`
	ToNode        int64          `json:"to_node"`
	Lanes         int            `json:"lanes"`
	FreeFlowSpeed float64        `json:"free_flow_speed"`
	Speed         float64        `json:"speed"`
	Length        float64        `json:"length"`
	Capacity      float64        `json:"capacity"`
	Geometry      orb.LineString `json:"geometry"`
}

// NetworkData is the provider-side bundle the graph is built from.
type NetworkData struct {
	Roads  []Road     `json:"roads"`
	Nodes  int        `json:"nodes"`
	Source DataSource `json:"source"`
}

type Marker struct {
	ID          string     `json:"id"`
	Type        MarkerType `json:"type"`
	Coordinates orb.Point  `json:"coordinates"`
}
