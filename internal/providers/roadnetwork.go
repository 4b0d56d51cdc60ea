package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/sirupsen/logrus"

	"github.com/urbanflow/traffic-sim/internal/simulation/entities"
)

const defaultOverpassEndpoint = "https://overpass-api.de/api/interpreter"

// OverpassProvider pulls the road network for a circle around the
// marker centroid from an Overpass API instance. Responses are cached
// by (lat, lng, radius); failures fall back to a deterministic
// synthetic network so a simulation always has a graph.
type OverpassProvider struct {
	Client   *http.Client
	Endpoint string
	Log      logrus.FieldLogger
}

func NewOverpassProvider(endpoint string, log logrus.FieldLogger) *OverpassProvider {
	if endpoint == "" {
		endpoint = defaultOverpassEndpoint
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &OverpassProvider{
		Client:   &http.Client{Timeout: 30 * time.Second},
		Endpoint: endpoint,
		Log:      log,
	}
}

func (p *OverpassProvider) FetchRoadNetwork(ctx context.Context, center orb.Point, radiusKm float64) *entities.NetworkData {
	key := cacheKey(center, radiusKm)
	if cached := roadCache.lookup(key); cached != nil {
		return cached
	}

	data, err := p.fetch(ctx, center, radiusKm)
	if err != nil {
		p.Log.WithError(err).Warn("road network fetch failed, using synthetic fallback")
		fallback := SyntheticNetwork(center, radiusKm)
		fallback.Source = entities.SourceRegionalFallback
		return fallback
	}

	data.Source = entities.SourcePrimary
	roadCache.store(key, data)
	return data
}

func (p *OverpassProvider) fetch(ctx context.Context, center orb.Point, radiusKm float64) (*entities.NetworkData, error) {
	query := fmt.Sprintf(`[out:json][timeout:25];(way["highway"](around:%d,%f,%f););out body;>;out skel qt;`,
		int(radiusKm*1000), center[1], center[0])

	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("overpass status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var o osm.OSM
	if err := json.Unmarshal(body, &o); err != nil {
		return nil, fmt.Errorf("decode overpass response: %w", err)
	}
	return networkFromOSM(&o), nil
}

// networkFromOSM joins way node references against the node set and
// emits one raw road per way that resolves to at least two points.
func networkFromOSM(o *osm.OSM) *entities.NetworkData {
	coords := make(map[osm.NodeID]orb.Point, len(o.Nodes))
	for _, n := range o.Nodes {
		coords[n.ID] = orb.Point{n.Lon, n.Lat}
	}

	roads := make([]entities.Road, 0, len(o.Ways))
	for _, w := range o.Ways {
		var geometry orb.LineString
		var nodeIDs []int64
		for _, wn := range w.Nodes {
			if pt, ok := coords[wn.ID]; ok {
				geometry = append(geometry, pt)
				nodeIDs = append(nodeIDs, int64(wn.ID))
			}
		}
		if len(geometry) < 2 {
			continue
		}
		roads = append(roads, entities.Road{
			ID:       fmt.Sprintf("way_%d", w.ID),
			NodeIDs:  nodeIDs,
			Tags:     w.Tags.Map(),
			Geometry: geometry,
		})
	}

	return &entities.NetworkData{Roads: roads, Nodes: len(coords)}
}
