package controller

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/listenroom/server/internal/service/room"
	"github.com/listenroom/server/pkg/rest"
)

type createRoomRequest struct {
	Nickname string `json:"nickname" validate:"required,max=32"`
	Password string `json:"password" validate:"omitempty,min=1,max=64"`
}

type createRoomResponse struct {
	RoomId string `json:"room_id"`
}

func (c controller) createRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest

	if err := rest.ReadJSON(r, &req); err != nil {
		c.logger.DebugContext(r.Context(), "failed to read json", "error", err)
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		c.logger.DebugContext(r.Context(), "validation failed", "errors", validationErrors)
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	resp, err := c.roomService.CreateRoom(r.Context(), &room.CreateRoomParams{
		Nickname: req.Nickname,
		Password: req.Password,
	})
	if err != nil {
		c.logger.ErrorContext(r.Context(), "failed to create room", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal error"})
		return
	}

	rest.WriteJSON(w, http.StatusCreated, rest.Envelope{"data": createRoomResponse{
		RoomId: resp.RoomId,
	}})
}

type getRoomResponse struct {
	RoomId      string `json:"room_id"`
	HasPassword bool   `json:"has_password"`
}

func (c controller) getRoom(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "room-id")
	if roomId == "" {
		rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "room not found"})
		return
	}

	resp, err := c.roomService.GetRoom(r.Context(), roomId)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "room not found"})
			return
		}
		c.logger.ErrorContext(r.Context(), "failed to get room", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal error"})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": getRoomResponse{
		RoomId:      roomId,
		HasPassword: resp.HasPassword,
	}})
}
