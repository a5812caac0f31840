package domain

import "encoding/json"

// Room is the full persisted record of one listening session. It is loaded,
// mutated in memory and written back as a whole; no partial updates.
type Room struct {
	Id            string    `json:"id"`
	PasswordHash  *string   `json:"password_hash"`
	AdminId       *string   `json:"admin_id"`
	Members       []Session `json:"members"`
	BannedUserIds []string  `json:"banned_user_ids"`
	Queue         []Track   `json:"queue"`
	Player        Player    `json:"player"`
	CreatedAt     float64   `json:"created_at"`
}

func NewRoom(id string, passwordHash *string, createdAt float64) *Room {
	return &Room{
		Id:            id,
		PasswordHash:  passwordHash,
		Members:       []Session{},
		BannedUserIds: []string{},
		Queue:         []Track{},
		Player:        NewPlayer(),
		CreatedAt:     createdAt,
	}
}

func (r Room) HasPassword() bool {
	return r.PasswordHash != nil
}

func (r *Room) MarshalBinary() ([]byte, error) {
	return json.Marshal(r)
}

func (r *Room) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, r)
}
