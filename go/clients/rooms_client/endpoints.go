package rooms_client

const (
	MoviesEndpoint = "/movies"
	RoomsEndpoint  = "/rooms"
)

func roomEndpoint(id string) string {
	return RoomsEndpoint + "/" + id
}

func joinEndpoint(id string) string {
	return roomEndpoint(id) + "/join"
}
