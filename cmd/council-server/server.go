package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/matheusbuniotto/openwebui-tools/internal/config"
	"github.com/matheusbuniotto/openwebui-tools/internal/content"
	"github.com/matheusbuniotto/openwebui-tools/internal/council"
	"github.com/matheusbuniotto/openwebui-tools/internal/events"
	"github.com/matheusbuniotto/openwebui-tools/internal/store"
	"github.com/matheusbuniotto/openwebui-tools/internal/tools/docs"
	"github.com/matheusbuniotto/openwebui-tools/internal/tools/n8n"
	"github.com/matheusbuniotto/openwebui-tools/internal/tools/pinecone"
	"github.com/matheusbuniotto/openwebui-tools/internal/tools/spotify"
	"github.com/matheusbuniotto/openwebui-tools/internal/tools/webfetch"
)

type server struct {
	cfg      config.Config
	store    *store.Store
	docs     *docs.Tool
	n8n      *n8n.Tool
	pinecone *pinecone.Tool
	spotify  *spotify.Tool
	webfetch *webfetch.Tool
}

func newServer(cfg config.Config) *server {
	return &server{
		cfg:      cfg,
		store:    store.New(cfg.Server.DataDir),
		docs:     docs.New(cfg.Docs),
		n8n:      n8n.New(cfg.N8N),
		pinecone: pinecone.New(cfg.Pinecone),
		spotify:  spotify.New(cfg.Spotify, nil),
		webfetch: webfetch.New(cfg.WebFetch),
	}
}

func (s *server) router() *gin.Engine {
	router := gin.Default()

	maxBody := s.cfg.Server.MaxRequestBodySize
	router.Use(func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBody)
		c.Next()
	})

	allowed := s.cfg.Server.CORSAllowedOrigins
	router.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			if len(allowed) > 0 {
				for _, allowedOrigin := range allowed {
					if origin == allowedOrigin {
						return true
					}
				}
				return false
			}
			// Development default: any localhost origin.
			return strings.HasPrefix(origin, "http://localhost") ||
				strings.HasPrefix(origin, "http://127.0.0")
		},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	router.GET("/", s.healthCheck)
	router.GET("/api/conversations", s.listConversations)
	router.POST("/api/conversations", s.createConversation)
	router.GET("/api/conversations/:id", s.getConversation)
	router.POST("/api/conversations/:id/message", s.sendMessage)
	router.POST("/api/conversations/:id/message/stream", s.sendMessageStream)
	router.POST("/api/tools/docs", s.runDocs)
	router.POST("/api/tools/n8n", s.runN8N)
	router.POST("/api/tools/pinecone", s.runPinecone)
	router.POST("/api/tools/spotify", s.runSpotify)
	router.POST("/api/fetch-url", s.fetchURL)

	return router
}

func (s *server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "OpenWebUI Tools API",
	})
}

func (s *server) listConversations(c *gin.Context) {
	conversations, err := s.store.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("Failed to list conversations: %v", err),
		})
		return
	}
	c.JSON(http.StatusOK, conversations)
}

func (s *server) createConversation(c *gin.Context) {
	conversation, err := s.store.Create(uuid.New().String())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("Failed to create conversation: %v", err),
		})
		return
	}
	c.JSON(http.StatusOK, conversation)
}

func (s *server) getConversation(c *gin.Context) {
	conversation, err := s.store.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("Failed to get conversation: %v", err),
		})
		return
	}
	if conversation == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
		return
	}
	c.JSON(http.StatusOK, conversation)
}

type sendMessageRequest struct {
	Content content.Topic `json:"content"`
}

// callerToken extracts the per-caller API token, when the host forwards one.
func callerToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// sendMessage runs the full council synchronously and returns all stages.
func (s *server) sendMessage(c *gin.Context) {
	conversationID := c.Param("id")

	var request sendMessageRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Invalid request: %v", err),
		})
		return
	}

	conversation, err := s.store.Get(conversationID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("Failed to get conversation: %v", err),
		})
		return
	}
	if conversation == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
		return
	}

	settings, err := council.ResolveSettings(s.cfg.Council, callerToken(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error: " + err.Error()})
		return
	}

	isFirstMessage := len(conversation.Messages) == 0
	if err := s.store.AddUserMessage(conversationID, request.Content); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("Failed to add user message: %v", err),
		})
		return
	}

	if isFirstMessage {
		go s.generateTitle(settings, conversationID, request.Content.PlainText())
	}

	outcome, err := council.New(settings, nil).Run(context.Background(), request.Content)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("Council process failed: %v", err),
		})
		return
	}

	if err := s.store.AddAssistantMessage(conversationID, outcome); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("Failed to add assistant message: %v", err),
		})
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// sendMessageStream runs the council and forwards its progress events as
// SSE frames, ending with the complete outcome.
func (s *server) sendMessageStream(c *gin.Context) {
	conversationID := c.Param("id")

	var request sendMessageRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Invalid request: %v", err),
		})
		return
	}

	conversation, err := s.store.Get(conversationID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("Failed to get conversation: %v", err),
		})
		return
	}
	if conversation == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
		return
	}

	settings, err := council.ResolveSettings(s.cfg.Council, callerToken(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error: " + err.Error()})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	isFirstMessage := len(conversation.Messages) == 0
	if err := s.store.AddUserMessage(conversationID, request.Content); err != nil {
		sendSSEError(c, fmt.Sprintf("Failed to add user message: %v", err))
		return
	}

	if isFirstMessage {
		go s.generateTitle(settings, conversationID, request.Content.PlainText())
	}

	emit := func(ev events.Event) { sendSSEEvent(c, ev) }
	outcome, err := council.New(settings, emit).Run(context.Background(), request.Content)
	if err != nil {
		sendSSEError(c, fmt.Sprintf("Council process failed: %v", err))
		return
	}

	if err := s.store.AddAssistantMessage(conversationID, outcome); err != nil {
		sendSSEError(c, fmt.Sprintf("Failed to save message: %v", err))
		return
	}

	sendSSEEvent(c, gin.H{"type": "complete", "data": outcome})
}

// generateTitle names a conversation after its first message. Runs in the
// background; failure falls back to the default title.
func (s *server) generateTitle(settings council.Settings, conversationID, topicText string) {
	title, err := council.New(settings, nil).GenerateTitle(context.Background(), topicText)
	if err != nil {
		log.Printf("Failed to generate title: %v", err)
		title = "New Conversation"
	}
	if err := s.store.UpdateTitle(conversationID, title); err != nil {
		log.Printf("Failed to update title: %v", err)
	}
}

func sendSSEEvent(c *gin.Context, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("Failed to marshal SSE event: %v", err)
		return
	}
	fmt.Fprintf(c.Writer, "data: %s\n\n", jsonData)
	c.Writer.Flush()
}

func sendSSEError(c *gin.Context, message string) {
	sendSSEEvent(c, gin.H{"type": "error", "message": message})
}
