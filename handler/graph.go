package handler

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"ar-navigation/algo"
	"ar-navigation/model"
	"ar-navigation/utils"

	"github.com/gin-gonic/gin"
)

// Graph is the walk graph built at startup (set in main).
var Graph *algo.GraphBuildResult

// Projector converts between local and geodetic coordinates (set in main).
var Projector *utils.Projector

// NodeView is the JSON form of a graph node.
type NodeView struct {
	ID        uint64               `json:"id"`
	Position  model.LocalPoint     `json:"position"`
	Geodetic  *model.GeodeticPoint `json:"geodetic,omitempty"`
	Neighbors []uint64             `json:"neighbors"`
}

// POIView is a named point of interest.
type POIView struct {
	Name     string               `json:"name"`
	Position model.LocalPoint     `json:"position"`
	Geodetic *model.GeodeticPoint `json:"geodetic,omitempty"`
}

func nodeView(n *model.GraphNode) NodeView {
	return NodeView{ID: n.ID, Position: n.Position, Geodetic: geodetic(n.Position), Neighbors: n.NeighborIDs()}
}

func geodetic(p model.LocalPoint) *model.GeodeticPoint {
	if Projector == nil {
		return nil
	}
	g := Projector.Unproject(p)
	return &g
}

func graphLoaded(c *gin.Context) bool {
	if Graph == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "map data not loaded"})
		return false
	}
	return true
}

// GetGraph returns summary counts and the per-kind build diagnostics.
func GetGraph(c *gin.Context) {
	if !graphLoaded(c) {
		return
	}
	errs := make([]string, 0, len(Graph.Errors))
	for _, err := range Graph.Errors {
		errs = append(errs, err.Error())
	}
	c.JSON(http.StatusOK, gin.H{
		"nodes":       len(Graph.NodeList),
		"edges":       Graph.EdgeCount,
		"pois":        len(Graph.POIs),
		"errors":      errs,
		"diagnostics": Graph.Diagnostics.Counts(),
	})
}

// GetNodes lists every node in id order.
func GetNodes(c *gin.Context) {
	if !graphLoaded(c) {
		return
	}
	nodes := make([]NodeView, 0, len(Graph.NodeList))
	for _, n := range Graph.NodeList {
		nodes = append(nodes, nodeView(n))
	}
	c.JSON(http.StatusOK, gin.H{"count": len(nodes), "nodes": nodes})
}

// GetNodeByID returns one node with its neighbor ids.
func GetNodeByID(c *gin.Context) {
	if !graphLoaded(c) {
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "node id must be a positive integer"})
		return
	}
	n := Graph.Node(id)
	if n == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "node not found"})
		return
	}
	c.JSON(http.StatusOK, nodeView(n))
}

// GetNearestNode finds the node closest to ?lat=&lng= or ?x=&z=.
func GetNearestNode(c *gin.Context) {
	if !graphLoaded(c) {
		return
	}
	var p model.LocalPoint
	if lat, lng := c.Query("lat"), c.Query("lng"); lat != "" && lng != "" && Projector != nil {
		la, err1 := strconv.ParseFloat(lat, 64)
		ln, err2 := strconv.ParseFloat(lng, 64)
		if err1 != nil || err2 != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng must be numbers"})
			return
		}
		p = Projector.Project(model.GeodeticPoint{Latitude: la, Longitude: ln})
	} else {
		x, err1 := strconv.ParseFloat(c.Query("x"), 64)
		z, err2 := strconv.ParseFloat(c.Query("z"), 64)
		if err1 != nil || err2 != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "provide lat/lng or x/z"})
			return
		}
		p = model.LocalPoint{X: x, Z: z}
	}
	n := Graph.FindNearestNode(p)
	if n == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "graph is empty"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"node": nodeView(n), "distance": algo.PlanarDistance(n.Position, p)})
}

// GetPOIs lists points of interest sorted by name.
func GetPOIs(c *gin.Context) {
	if !graphLoaded(c) {
		return
	}
	pois := make([]POIView, 0, len(Graph.POIs))
	for _, name := range Graph.POINames() {
		pos := Graph.POIs[name]
		pois = append(pois, POIView{Name: name, Position: pos, Geodetic: geodetic(pos)})
	}
	c.JSON(http.StatusOK, gin.H{"count": len(pois), "pois": pois})
}

// SearchPOIs matches names case-insensitively by substring.
func SearchPOIs(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing search query"})
		return
	}
	if !graphLoaded(c) {
		return
	}

	q := strings.ToLower(query)
	results := make([]POIView, 0)
	for name, pos := range Graph.POIs {
		if strings.Contains(strings.ToLower(name), q) {
			results = append(results, POIView{Name: name, Position: pos, Geodetic: geodetic(pos)})
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })

	c.JSON(http.StatusOK, gin.H{"query": query, "count": len(results), "results": results})
}
