package forum

// Event names pushed over the realtime channel. Payloads are full-document
// snapshots, not deltas.
const (
	// EventNewPost carries the created Post.
	EventNewPost = "newPost"

	// EventNewReply carries a ReplyEvent.
	EventNewReply = "newReply"

	// EventPostUpdated carries the updated Post.
	EventPostUpdated = "postUpdated"
)

// Event is a change notification produced by the mutation service.
type Event struct {
	Name    string
	Payload any
}

// ReplyEvent is the payload of EventNewReply.
type ReplyEvent struct {
	PostID string `json:"postId"`
	Reply  Reply  `json:"reply"`
}

// EventSink receives mutation events. The broadcast hub implements this;
// delivery is best-effort with no replay, so a subscriber that was
// disconnected when an event fired must resynchronize with a full fetch.
type EventSink interface {
	Publish(Event)
}

// NopSink discards events. Used when no broadcast layer is attached.
type NopSink struct{}

// Publish implements EventSink.
func (NopSink) Publish(Event) {}
