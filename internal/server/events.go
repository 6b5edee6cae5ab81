package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	eventdomain "github.com/smallbiznis/eventtria/internal/event/domain"
	plandomain "github.com/smallbiznis/eventtria/internal/plan/domain"
)

func (s *Server) CreateEvent(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}
	c.Set("usage_action", string(plandomain.ActionEventsCreated))

	var req eventdomain.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.UserID = userID

	ev, err := s.eventSvc.CreateEvent(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": ev})
}

func (s *Server) ListEvents(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}

	var req eventdomain.ListEventsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.UserID = userID

	resp, err := s.eventSvc.ListEvents(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetEvent(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}
	eventID, ok := pathEventID(c)
	if !ok {
		return
	}

	ev, err := s.eventSvc.GetEvent(c.Request.Context(), userID, eventID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": ev})
}

func (s *Server) CancelEvent(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}
	eventID, ok := pathEventID(c)
	if !ok {
		return
	}

	ev, err := s.eventSvc.CancelEvent(c.Request.Context(), userID, eventID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": ev})
}

func (s *Server) InviteAttendees(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}
	eventID, ok := pathEventID(c)
	if !ok {
		return
	}
	c.Set("usage_action", string(plandomain.ActionInvitePeople))

	var req eventdomain.InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.UserID = userID
	req.EventID = eventID

	result, err := s.eventSvc.InviteAttendees(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) PostChatMessage(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}
	c.Set("usage_action", string(plandomain.ActionAIChatMessages))

	var req eventdomain.ChatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.UserID = userID

	msg, err := s.eventSvc.PostChatMessage(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": msg})
}

func pathEventID(c *gin.Context) (snowflake.ID, bool) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil || id <= 0 {
		AbortWithError(c, ErrNotFound)
		return 0, false
	}
	return id, true
}
