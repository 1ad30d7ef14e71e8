package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/collabhub-server/internal/presence"
	"github.com/vovakirdan/collabhub-server/internal/store"
)

// timeLayout is RFC3339 with millisecond precision.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// RoomHandlers provides HTTP handlers for room discovery endpoints.
type RoomHandlers struct {
	presence *presence.Service
	log      *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(svc *presence.Service, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		presence: svc,
		log:      logger,
	}
}

// RoomResponse represents a room in API responses.
type RoomResponse struct {
	RoomID       string   `json:"roomId"`
	UserCount    int      `json:"userCount"`
	Users        []string `json:"users"`
	LastActivity string   `json:"lastActivity"`
}

// ListRoomsResponse is the body of GET /rooms.
type ListRoomsResponse struct {
	Rooms      []RoomResponse `json:"rooms"`
	TotalRooms int            `json:"totalRooms"`
}

// CreateRoomResponse is the body of POST /rooms.
type CreateRoomResponse struct {
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
}

// ListRooms handles listing live rooms.
// GET /rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	rooms := h.presence.ListRooms()

	response := make([]RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		response = append(response, roomResponse(room))
	}

	h.log.Debug().Int("room_count", len(rooms)).Msg("rooms listed")
	c.JSON(http.StatusOK, ListRoomsResponse{Rooms: response, TotalRooms: len(response)})
}

// GetRoom handles fetching one room.
// GET /rooms/:roomId
func (h *RoomHandlers) GetRoom(c *gin.Context) {
	id := c.Param("roomId")
	room, err := h.presence.GetRoom(id)
	if errors.Is(err, presence.ErrRoomNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Room not found"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("room", id).Msg("failed to get room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, roomResponse(room))
}

// CreateRoom handles explicit room creation.
// POST /rooms
func (h *RoomHandlers) CreateRoom(c *gin.Context) {
	id := h.presence.CreateRoom()
	c.JSON(http.StatusOK, CreateRoomResponse{
		RoomID:  id,
		Message: "Room created successfully",
	})
}

func roomResponse(s store.Summary) RoomResponse {
	users := s.Members
	if users == nil {
		users = []string{}
	}
	return RoomResponse{
		RoomID:       s.ID,
		UserCount:    s.MemberCount(),
		Users:        users,
		LastActivity: formatTime(s.LastActivity),
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
