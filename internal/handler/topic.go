package handler

import (
	"net/http"
	"time"

	"github.com/caldermed/medanchor/internal/ledger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TopicHandler exposes topic provisioning and a raw view of the
// anchoring topic's entries.
type TopicHandler struct {
	client       ledger.Client
	reader       *ledger.Reader
	topic        ledger.TopicID
	logsDeadline time.Duration
	logger       *zap.Logger
}

// NewTopicHandler creates a new TopicHandler. logsDeadline bounds the
// replay behind GET /logs; non-positive falls back to 15s.
func NewTopicHandler(client ledger.Client, reader *ledger.Reader, topic ledger.TopicID, logsDeadline time.Duration, logger *zap.Logger) *TopicHandler {
	if logsDeadline <= 0 {
		logsDeadline = 15 * time.Second
	}
	return &TopicHandler{
		client:       client,
		reader:       reader,
		topic:        topic,
		logsDeadline: logsDeadline,
		logger:       logger,
	}
}

// Register mounts the topic routes on the given router group.
func (h *TopicHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/create-topic", h.CreateTopic)
	rg.GET("/logs", h.Logs)
}

// CreateTopic handles GET /create-topic: provisions a fresh topic on
// the ledger. The server keeps anchoring to its configured topic; this
// is an operator aid for rotating topics via configuration.
func (h *TopicHandler) CreateTopic(c *gin.Context) {
	id, err := h.client.CreateTopic(c.Request.Context())
	if err != nil {
		h.logger.Error("create topic", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create topic"})
		return
	}

	h.logger.Info("topic created", zap.String("topic", string(id)))
	c.JSON(http.StatusOK, gin.H{"topicId": string(id)})
}

// logEntry is the wire view of one replayed topic entry.
type logEntry struct {
	SequenceNumber     uint64    `json:"sequenceNumber"`
	ConsensusTimestamp time.Time `json:"consensusTimestamp"`
	Contents           string    `json:"contents"`
	Type               string    `json:"type"`
	Hash               string    `json:"hash"`
}

// Logs handles GET /logs: replays the anchoring topic from its origin
// and returns the decoded entries collected within the deadline.
func (h *TopicHandler) Logs(c *gin.Context) {
	window, err := h.reader.Replay(c.Request.Context(), h.topic, time.Time{}, h.logsDeadline, nil)
	if err != nil {
		h.logger.Error("replay topic for logs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to replay topic"})
		return
	}

	messages := make([]logEntry, 0, len(window.Entries))
	for _, e := range window.Entries {
		messages = append(messages, logEntry{
			SequenceNumber:     e.SequenceNumber,
			ConsensusTimestamp: e.ConsensusTimestamp,
			Contents:           string(e.Contents),
			Type:               string(e.Message.Type),
			Hash:               e.Message.Hash,
		})
	}

	RecordReplay("logs", window.Complete)
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"count":    len(messages),
		"complete": window.Complete,
		"skipped":  window.Skipped,
		"messages": messages,
	})
}
