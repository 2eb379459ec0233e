package services

import (
	"fmt"

	pubnub "github.com/pubnub/go"
)

// Notifier pushes change notifications so listing pages can re-fetch.
// Clients apply no deltas, a notification just means "re-run your fetch".
type Notifier interface {
	PublishEvent(eventID string, message map[string]any)
	PublishUser(userID string, message map[string]any)
}

// PubNubNotifier publishes to per-event and per-user channels.
type PubNubNotifier struct {
	pubnub *pubnub.PubNub
}

func NewPubNubNotifier(pn *pubnub.PubNub) *PubNubNotifier {
	return &PubNubNotifier{pubnub: pn}
}

func (n *PubNubNotifier) PublishEvent(eventID string, message map[string]any) {
	channel := fmt.Sprintf("event-%s", eventID)
	n.pubnub.Publish().
		Channel(channel).
		Message(message).
		Execute()
}

func (n *PubNubNotifier) PublishUser(userID string, message map[string]any) {
	channel := fmt.Sprintf("user-%s", userID)
	n.pubnub.Publish().
		Channel(channel).
		Message(message).
		Execute()
}
