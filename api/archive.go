package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smallnest/scriptflow/render"
)

type scriptSummary struct {
	ID        string `json:"id"`
	Topic     string `json:"topic"`
	VoiceName string `json:"voiceName,omitempty"`
	WordCount int    `json:"wordCount"`
	CreatedAt string `json:"createdAt"`
}

func (s *Server) listScripts(c *gin.Context) {
	if s.store == nil {
		respondError(c, ErrArchiveDisabled)
		return
	}
	records, err := s.store.List(c.Request.Context(), c.Query("topic"))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]scriptSummary, 0, len(records))
	for _, r := range records {
		out = append(out, scriptSummary{
			ID:        r.ID,
			Topic:     r.Topic,
			VoiceName: r.VoiceName,
			WordCount: r.Analysis.WordCount,
			CreatedAt: r.CreatedAt.Format(http.TimeFormat),
		})
	}
	c.JSON(http.StatusOK, gin.H{"scripts": out})
}

// getScript returns an archived record as JSON, or rendered with ?format=.
func (s *Server) getScript(c *gin.Context) {
	if s.store == nil {
		respondError(c, ErrArchiveDisabled)
		return
	}
	record, err := s.store.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if c.Query("format") == "" {
		c.JSON(http.StatusOK, record)
		return
	}
	writeDocument(c, render.FromRecord(record))
}

func (s *Server) deleteScript(c *gin.Context) {
	if s.store == nil {
		respondError(c, ErrArchiveDisabled)
		return
	}
	if err := s.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
