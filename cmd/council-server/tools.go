package main

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/matheusbuniotto/openwebui-tools/internal/events"
)

// Tool endpoints run one adapter each. Progress events are collected and
// returned alongside the result so non-streaming hosts still see them.

type toolResponse struct {
	Result string         `json:"result"`
	Events []events.Event `json:"events,omitempty"`
}

func collector() (events.Emitter, *[]events.Event) {
	collected := &[]events.Event{}
	return func(ev events.Event) { *collected = append(*collected, ev) }, collected
}

func (s *server) runDocs(c *gin.Context) {
	var request struct {
		Filename     string `json:"filename" binding:"required"`
		Replacements string `json:"replacements" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid request: %v", err)})
		return
	}

	emit, collected := collector()
	result := s.docs.CreateDocument(c.Request.Context(), request.Filename, request.Replacements, emit)
	c.JSON(http.StatusOK, toolResponse{Result: result, Events: *collected})
}

func (s *server) runN8N(c *gin.Context) {
	var request struct {
		Input     string `json:"input" binding:"required"`
		SessionID string `json:"session_id"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid request: %v", err)})
		return
	}

	emit, collected := collector()
	result := s.n8n.Invoke(c.Request.Context(), request.Input, request.SessionID, emit)
	c.JSON(http.StatusOK, gin.H{"result": result, "events": *collected})
}

func (s *server) runPinecone(c *gin.Context) {
	var request struct {
		Query string `json:"query" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid request: %v", err)})
		return
	}

	emit, collected := collector()
	result := s.pinecone.Query(c.Request.Context(), request.Query, emit)
	c.JSON(http.StatusOK, toolResponse{Result: result, Events: *collected})
}

func (s *server) runSpotify(c *gin.Context) {
	var request struct {
		Query string `json:"query" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid request: %v", err)})
		return
	}

	emit, collected := collector()
	result := s.spotify.FindMusic(c.Request.Context(), request.Query, emit)
	c.JSON(http.StatusOK, toolResponse{Result: result, Events: *collected})
}

func (s *server) fetchURL(c *gin.Context) {
	var request struct {
		URL string `json:"url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid request: %v", err)})
		return
	}

	pageContent, err := s.webfetch.Fetch(c.Request.Context(), request.URL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("Failed to fetch URL content: %v", err),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": pageContent})
}
