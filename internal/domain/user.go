package domain

import "github.com/google/uuid"

// Identity is the stable, externally issued user reference a client declares on join
type Identity string

// ConnID identifies one live websocket connection (one browser tab)
type ConnID string

// NewConnID mints a connection ID
func NewConnID() ConnID {
	return ConnID(uuid.NewString())
}

// PresenceEntry is one identity currently believed online
type PresenceEntry struct {
	Identity    Identity
	DisplayName string
	Conn        ConnID
}

// OnlineUser is the public view of a PresenceEntry, as broadcast to clients
type OnlineUser struct {
	UserID Identity `json:"user_id"`
	Name   string   `json:"name"`
}

// CallSession records that the owning identity is in a call with Peer.
// PeerConn is the peer's connection as known when the call was answered.
type CallSession struct {
	Peer     Identity
	PeerConn ConnID
}

// Profile is the public profile returned by the user directory
type Profile struct {
	ID         Identity `json:"_id"`
	Username   string   `json:"username"`
	FullName   string   `json:"fullname"`
	Email      string   `json:"email"`
	ProfilePic string   `json:"profilepic"`
}

// DisplayName picks the best human-readable name of the profile
func (p Profile) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	return p.Username
}
