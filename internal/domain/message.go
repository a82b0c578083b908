package domain

import (
	"encoding/json"
	"time"
)

// EventType names an event on the realtime wire
type EventType string

// Inbound events (client -> server)
const (
	EventJoin       EventType = "join"
	EventCallInvite EventType = "call-invite" // also delivered to the callee
	EventCallAnswer EventType = "call-answer"
	EventCallReject EventType = "call-reject"
	EventCallEnd    EventType = "call-end"
	EventChatSend   EventType = "chat-send"

	// Relayed verbatim to the peer under the same name
	EventScreenShareStart EventType = "screen-share-start"
	EventScreenShareStop  EventType = "screen-share-stop"
	EventVideoLoad        EventType = "video-load"
	EventVideoPlay        EventType = "video-play"
	EventVideoPause       EventType = "video-pause"
	EventVideoSeek        EventType = "video-seek"
	EventVideoSync        EventType = "video-sync"
	EventAudioLoad        EventType = "audio-load"
	EventAudioPlay        EventType = "audio-play"
	EventAudioPause       EventType = "audio-pause"
	EventAudioSeek        EventType = "audio-seek"
	EventAudioVolume      EventType = "audio-volume"
)

// Outbound events (server -> client)
const (
	EventMe               EventType = "me"
	EventOnlineUsers      EventType = "online-users"
	EventCallUnavailable  EventType = "call-unavailable"
	EventCallBusy         EventType = "call-busy"
	EventCallWhileBusy    EventType = "call-while-busy"
	EventCallAccepted     EventType = "call-accepted"
	EventCallRejected     EventType = "call-rejected"
	EventCallEnded        EventType = "call-ended"
	EventChatReceive      EventType = "chat-receive"
	EventPeerDisconnected EventType = "peer-disconnected"
	EventUserDisconnected EventType = "user-disconnected"
	EventDeliveryFailed   EventType = "delivery-failed"
)

// RelayedEvents maps each stateless relay event to the name it is delivered under
var RelayedEvents = map[EventType]EventType{
	EventChatSend:         EventChatReceive,
	EventScreenShareStart: EventScreenShareStart,
	EventScreenShareStop:  EventScreenShareStop,
	EventVideoLoad:        EventVideoLoad,
	EventVideoPlay:        EventVideoPlay,
	EventVideoPause:       EventVideoPause,
	EventVideoSeek:        EventVideoSeek,
	EventVideoSync:        EventVideoSync,
	EventAudioLoad:        EventAudioLoad,
	EventAudioPlay:        EventAudioPlay,
	EventAudioPause:       EventAudioPause,
	EventAudioSeek:        EventAudioSeek,
	EventAudioVolume:      EventAudioVolume,
}

// CallOutcome is the admission result of a call invite
type CallOutcome int

const (
	CallDelivered CallOutcome = iota
	CallCalleeOffline
	CallCalleeBusy
	// CallDropped marks an invite that was not acted on, such as calling oneself
	CallDropped
)

func (o CallOutcome) String() string {
	switch o {
	case CallDelivered:
		return "delivered"
	case CallCalleeOffline:
		return "callee_offline"
	case CallCalleeBusy:
		return "callee_busy"
	case CallDropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// Envelope is an inbound frame as read from a client
type Envelope struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Message is an outbound frame. From is the sender's connection ID, UserID the
// sender's identity when it has joined.
type Message struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	From      ConnID          `json:"from,omitempty"`
	UserID    Identity        `json:"user_id,omitempty"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// JoinPayload announces the identity behind a connection
type JoinPayload struct {
	ID   Identity `json:"id"`
	Name string   `json:"name,omitempty"`
}

// MePayload greets a fresh connection with its own ID
type MePayload struct {
	ID ConnID `json:"id"`
}

// OnlineUsersPayload is the full presence snapshot
type OnlineUsersPayload struct {
	Users []OnlineUser `json:"users"`
	Count int          `json:"count"`
}

// CallerMeta describes the caller as shown on the callee's ringing screen
type CallerMeta struct {
	UserID     Identity `json:"user_id,omitempty"`
	Name       string   `json:"name,omitempty"`
	Email      string   `json:"email,omitempty"`
	ProfilePic string   `json:"profilepic,omitempty"`
}

// CallInvitePayload is sent by the caller. Signal is opaque.
type CallInvitePayload struct {
	To     Identity        `json:"to"`
	Signal json.RawMessage `json:"signal"`
	CallerMeta
}

// IncomingCallPayload is what the callee receives
type IncomingCallPayload struct {
	Signal json.RawMessage `json:"signal"`
	CallerMeta
}

// CallWhileBusyPayload tells an ongoing call that someone tried to reach Callee
type CallWhileBusyPayload struct {
	Callee Identity `json:"callee"`
	CallerMeta
}

// CallAnswerPayload is sent by the callee when picking up
type CallAnswerPayload struct {
	To     Identity        `json:"to"`
	Signal json.RawMessage `json:"signal"`
}

// CallAcceptedPayload is what the caller receives on answer
type CallAcceptedPayload struct {
	Signal json.RawMessage `json:"signal"`
	UserID Identity        `json:"user_id,omitempty"`
}

// CallRejectPayload is sent by the callee when declining
type CallRejectPayload struct {
	To         Identity `json:"to"`
	Name       string   `json:"name,omitempty"`
	ProfilePic string   `json:"profilepic,omitempty"`
}

// CallRejectedPayload is what the caller receives on reject
type CallRejectedPayload struct {
	UserID     Identity `json:"user_id,omitempty"`
	Name       string   `json:"name,omitempty"`
	ProfilePic string   `json:"profilepic,omitempty"`
}

// CallEndPayload is sent by either party to hang up
type CallEndPayload struct {
	To   Identity `json:"to"`
	Name string   `json:"name,omitempty"`
}

// CallEndedPayload is what the other party receives on hang up
type CallEndedPayload struct {
	UserID Identity `json:"user_id,omitempty"`
	Name   string   `json:"name,omitempty"`
	Reason string   `json:"reason,omitempty"`
}

// NoticePayload tells a sender why its event went nowhere
type NoticePayload struct {
	UserID  Identity `json:"user_id,omitempty"`
	Message string   `json:"message"`
}

// PresenceNoticePayload names an identity that went away
type PresenceNoticePayload struct {
	UserID Identity `json:"user_id"`
}

// DeliveryFailedPayload reports an unroutable relay event back to its sender
type DeliveryFailedPayload struct {
	Type    EventType `json:"event"`
	To      string    `json:"to"`
	Message string    `json:"message"`
}

// RoutedPayload is the routing field every relay event carries.
// The rest of the payload is forwarded untouched.
type RoutedPayload struct {
	To string `json:"to"`
}

// ChatPayload is the chat-send / chat-receive body
type ChatPayload struct {
	To        string `json:"to,omitempty"`
	Message   string `json:"message"`
	Sender    string `json:"sender,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// VideoSyncPayload is the video-sync body (shared video playback)
type VideoSyncPayload struct {
	To          string  `json:"to,omitempty"`
	VideoID     string  `json:"videoId,omitempty"`
	CurrentTime float64 `json:"currentTime"`
	IsPlaying   bool    `json:"isPlaying"`
}

// AudioVolumePayload is the audio-volume body (shared audio playback)
type AudioVolumePayload struct {
	To     string  `json:"to,omitempty"`
	Volume float64 `json:"volume"`
}
