package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smallnest/scriptflow/pipeline"
	"github.com/smallnest/scriptflow/render"
	"github.com/smallnest/scriptflow/script"
)

type sessionInfo struct {
	ID        string        `json:"id"`
	CreatedAt time.Time     `json:"createdAt"`
	Step      pipeline.Step `json:"step"`
}

type sessionResponse struct {
	ID    string         `json:"id"`
	State pipeline.State `json:"state"`
}

type startRequest struct {
	Topic string `json:"topic"`
}

type selectRequest struct {
	Category string `json:"category"`
	ID       string `json:"id"`
}

func (s *Server) createSession(c *gin.Context) {
	sess, err := s.newSession()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sessionResponse{ID: sess.id, State: sess.ctrl.State()})
}

func (s *Server) listSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": s.sessionIDs()})
}

// lookup resolves the :id session or writes a 404.
func (s *Server) lookup(c *gin.Context) (*session, bool) {
	sess, err := s.session(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) getState(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sessionResponse{ID: sess.id, State: sess.ctrl.State()})
}

func (s *Server) deleteSession(c *gin.Context) {
	if err := s.removeSession(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// wait reports whether the caller asked to block until the stage settles.
func wait(c *gin.Context) bool {
	v, err := strconv.ParseBool(c.DefaultQuery("wait", "false"))
	return err == nil && v
}

// beginFunc enters the first phase of a long command and returns the rest of it.
type beginFunc func(ctx context.Context) (func() error, error)

// run executes a long command either inline (?wait=true) or in the background.
// The first phase is entered before answering, so a 202 already shows it.
func (s *Server) run(c *gin.Context, sess *session, name string, begin beginFunc) {
	if wait(c) {
		rest, err := begin(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		if err := rest(); err != nil && !isStageFailure(sess) {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, sessionResponse{ID: sess.id, State: sess.ctrl.State()})
		return
	}

	done, err := s.track()
	if err != nil {
		respondError(c, err)
		return
	}
	rest, err := begin(s.runs)
	if err != nil {
		done()
		respondError(c, err)
		return
	}
	st := sess.ctrl.State()
	s.background(name, sess.id, rest, done)
	c.JSON(http.StatusAccepted, sessionResponse{ID: sess.id, State: st})
}

// isStageFailure reports whether the session recorded a stage failure, which
// is reported through the state rather than as an HTTP error.
func isStageFailure(sess *session) bool {
	return sess.ctrl.State().Step == pipeline.StepError
}

func (s *Server) start(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		respondError(c, pipeline.ErrEmptyTopic)
		return
	}
	s.run(c, sess, "start", func(ctx context.Context) (func() error, error) {
		return sess.ctrl.BeginPipeline(ctx, req.Topic)
	})
}

func (s *Server) selectComponent(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	category, err := script.ParseCategory(req.Category)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := sess.ctrl.SelectComponent(category, req.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{ID: sess.id, State: sess.ctrl.State()})
}

func (s *Server) requestScript(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	// An incomplete selection fails at once with 409 and leaves a notice on the state.
	s.run(c, sess, "script", sess.ctrl.BeginFinalScript)
}

func (s *Server) back(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	if err := sess.ctrl.BackToSelection(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{ID: sess.id, State: sess.ctrl.State()})
}

func (s *Server) reset(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	sess.ctrl.Reset()
	c.JSON(http.StatusOK, sessionResponse{ID: sess.id, State: sess.ctrl.State()})
}

func (s *Server) getVoice(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"voice": sess.ctrl.VoiceProfile()})
}

func (s *Server) setVoice(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	v, err := script.DecodeVoiceProfile(c.Request.Body)
	if err != nil {
		respondError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	sess.ctrl.SetVoiceProfile(v)
	c.JSON(http.StatusOK, gin.H{"voice": v})
}

func (s *Server) clearVoice(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	sess.ctrl.SetVoiceProfile(nil)
	c.Status(http.StatusNoContent)
}

func (s *Server) export(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	voiceName := ""
	if v := sess.ctrl.VoiceProfile(); v != nil {
		voiceName = v.Name
	}
	doc, ok := render.FromState(sess.ctrl.State(), voiceName)
	if !ok {
		respondError(c, errNoScript)
		return
	}
	writeDocument(c, doc)
}

// writeDocument renders doc in the ?format= requested: md (default), html or txt.
func writeDocument(c *gin.Context, doc render.Document) {
	switch c.DefaultQuery("format", "md") {
	case "html":
		page, err := render.Page(doc)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", page)
	case "txt", "text":
		c.String(http.StatusOK, render.Plain(doc))
	case "md", "markdown":
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(render.Markdown(doc)))
	default:
		respondError(c, fmt.Errorf("%w: unknown format %q", errBadRequest, c.Query("format")))
	}
}

type timing struct {
	Event      string    `json:"event"`
	Stage      string    `json:"stage"`
	StartedAt  time.Time `json:"startedAt"`
	DurationMS int64     `json:"durationMs"`
	Error      string    `json:"error,omitempty"`
}

func (s *Server) timings(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	spans := sess.ctrl.Timings()
	out := make([]timing, 0, len(spans))
	for _, span := range spans {
		t := timing{
			Event:      string(span.Event),
			Stage:      span.NodeName,
			StartedAt:  span.StartTime,
			DurationMS: span.Duration.Milliseconds(),
		}
		if span.Error != nil {
			t.Error = span.Error.Error()
		}
		out = append(out, t)
	}
	c.JSON(http.StatusOK, gin.H{"timings": out})
}

func (s *Server) diagram(c *gin.Context) {
	format := pipeline.DiagramMermaid
	if c.Query("format") == "ascii" {
		format = pipeline.DiagramASCII
	}
	out, err := pipeline.Diagram(format)
	if err != nil {
		respondError(c, err)
		return
	}
	c.String(http.StatusOK, out)
}
