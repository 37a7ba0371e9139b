package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"ar-navigation/model"
	"ar-navigation/navigation"
	"ar-navigation/positionfeed"

	"github.com/gin-gonic/gin"
)

// EventLog reads back persisted navigation events.
type EventLog interface {
	RecentEvents(sessionID string, limit int) ([]model.NavigationEvent, error)
}

// These are set in main before serving.
var (
	Session      *navigation.Session
	Feed         *positionfeed.Provider
	CurrentRoute *model.Route
	Events       EventLog
)

// ProgressResponse is the session snapshot plus the state of the position source.
type ProgressResponse struct {
	model.RouteProgress
	FeedStatus positionfeed.Status `json:"feedStatus"`
	HasFix     bool                `json:"hasFix"`
}

func sessionReady(c *gin.Context) bool {
	if Session == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "navigation session not ready"})
		return false
	}
	return true
}

func progress() ProgressResponse {
	resp := ProgressResponse{RouteProgress: Session.Snapshot()}
	if Feed != nil {
		_, resp.FeedStatus, resp.HasFix = Feed.Snapshot()
	}
	return resp
}

// StartNavigation (re)starts the session. The body is an optional destination.
func StartNavigation(c *gin.Context) {
	if !sessionReady(c) {
		return
	}
	var dest navigation.Destination
	if err := c.ShouldBindJSON(&dest); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid destination"})
		return
	}
	id := Session.Start(dest)
	c.JSON(http.StatusOK, gin.H{"sessionId": id, "progress": progress()})
}

// GetProgress returns the current snapshot.
func GetProgress(c *gin.Context) {
	if !sessionReady(c) {
		return
	}
	c.JSON(http.StatusOK, progress())
}

// GetRoute returns the instruction sequence being followed.
func GetRoute(c *gin.Context) {
	if !sessionReady(c) {
		return
	}
	resp := gin.H{"instructions": Session.Instructions()}
	if CurrentRoute != nil {
		resp["name"] = CurrentRoute.Name
		resp["description"] = CurrentRoute.Description
		resp["tags"] = []string(CurrentRoute.Tags)
	}
	c.JSON(http.StatusOK, resp)
}

// GetEvents lists recent events of the current session, newest first.
func GetEvents(c *gin.Context) {
	if Events == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event log not configured"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 500 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
		return
	}
	id := c.Query("session")
	if id == "" {
		if !sessionReady(c) {
			return
		}
		id = Session.ID()
	}
	events, err := Events.RecentEvents(id, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read events"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessionId": id, "count": len(events), "events": events})
}

// PushPosition accepts one geodetic fix from the device.
func PushPosition(c *gin.Context) {
	if Feed == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "position feed not configured"})
		return
	}
	var s positionfeed.Sample
	if err := c.ShouldBindJSON(&s); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid position"})
		return
	}
	if err := Feed.Publish(s); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "position accepted"})
}
