package watchroom

import (
	"context"
	"strings"

	"github.com/mcdev12/watchparty/go/internal/models"
)

// RoomsAPI is the REST collaborator used to resolve a room before entering it
type RoomsAPI interface {
	GetRoom(ctx context.Context, roomID string) (*models.Room, error)
	JoinRoom(ctx context.Context, roomID string, req models.JoinRequest) (*models.JoinResult, error)
}

// JoinForm is what a guest supplies to enter a room
type JoinForm struct {
	Username string
	Password string
}

// Admission is a resolved room together with the identity entering it
type Admission struct {
	Room     models.Room
	Identity models.User
}

// IsHost reports whether the admitted identity hosts the room
func (a *Admission) IsHost() bool {
	return a.Room.Host != nil && a.Room.Host.ID == a.Identity.ID
}

// Admit resolves roomID for an authenticated user, or joins it as a guest
// with form when user is nil.
func Admit(ctx context.Context, api RoomsAPI, roomID string, user *models.User, form JoinForm) (*Admission, error) {
	if user != nil {
		room, err := api.GetRoom(ctx, roomID)
		if err != nil {
			return nil, &AdmissionError{RoomID: roomID, Reason: "fetch room", Err: err}
		}
		return &Admission{Room: *room, Identity: *user}, nil
	}

	username := strings.TrimSpace(form.Username)
	if username == "" {
		return nil, &AdmissionError{RoomID: roomID, Reason: "username is required"}
	}

	result, err := api.JoinRoom(ctx, roomID, models.JoinRequest{
		Username: username,
		Password: form.Password,
	})
	if err != nil {
		return nil, &AdmissionError{RoomID: roomID, Reason: "join room", Err: err}
	}
	return &Admission{Room: result.Room, Identity: result.User}, nil
}
