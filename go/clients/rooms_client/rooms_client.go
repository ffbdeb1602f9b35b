package rooms_client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mcdev12/watchparty/go/clients"
	"github.com/mcdev12/watchparty/go/internal/models"
	"github.com/mcdev12/watchparty/go/internal/rooms"
)

// RoomsClient talks to the rooms and movies REST API
type RoomsClient struct {
	*clients.BaseClient
}

func NewRoomsClient(baseURL string) *RoomsClient {
	return &RoomsClient{
		BaseClient: clients.NewBaseClient(baseURL),
	}
}

// AsUser sends the identity headers used when creating rooms
func (c *RoomsClient) AsUser(user models.User) *RoomsClient {
	c.SetHeader(rooms.HeaderUserID, user.ID)
	c.SetHeader(rooms.HeaderUserName, user.Name)
	return c
}

type roomEnvelope struct {
	Success bool        `json:"success"`
	Room    models.Room `json:"room"`
}

type joinEnvelope struct {
	Success bool        `json:"success"`
	Room    models.Room `json:"room"`
	User    models.User `json:"user"`
}

type listEnvelope[T any] struct {
	Success bool `json:"success"`
	Data    []T  `json:"data"`
}

func (c *RoomsClient) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	var resp roomEnvelope
	if err := c.GetJSON(ctx, roomEndpoint(url.PathEscape(id)), &resp); err != nil {
		return nil, mapError(err)
	}
	return &resp.Room, nil
}

func (c *RoomsClient) JoinRoom(ctx context.Context, id string, req models.JoinRequest) (*models.JoinResult, error) {
	var resp joinEnvelope
	if err := c.PostJSON(ctx, joinEndpoint(url.PathEscape(id)), req, &resp); err != nil {
		return nil, mapError(err)
	}
	return &models.JoinResult{Room: resp.Room, User: resp.User}, nil
}

func (c *RoomsClient) CreateRoom(ctx context.Context, req models.CreateRoomRequest) (*models.JoinResult, error) {
	var resp joinEnvelope
	if err := c.PostJSON(ctx, RoomsEndpoint, req, &resp); err != nil {
		return nil, mapError(err)
	}
	return &models.JoinResult{Room: resp.Room, User: resp.User}, nil
}

func (c *RoomsClient) ListRooms(ctx context.Context) ([]models.RoomSummary, error) {
	var resp listEnvelope[models.RoomSummary]
	if err := c.GetJSON(ctx, RoomsEndpoint, &resp); err != nil {
		return nil, mapError(err)
	}
	return resp.Data, nil
}

func (c *RoomsClient) ListMovies(ctx context.Context) ([]models.Movie, error) {
	var resp listEnvelope[models.Movie]
	if err := c.GetJSON(ctx, MoviesEndpoint, &resp); err != nil {
		return nil, mapError(err)
	}
	return resp.Data, nil
}

// mapError turns server statuses back into the rooms sentinels so callers
// can use errors.Is across the wire.
func mapError(err error) error {
	var apiErr *clients.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", rooms.ErrWrongPassword, apiErr.Message)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", rooms.ErrRoomNotFound, apiErr.Message)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", rooms.ErrInvalidRequest, apiErr.Message)
	default:
		return err
	}
}
