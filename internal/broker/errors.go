package broker

import "errors"

// Sentinel errors returned by the broker-core operations in ops.go. The
// session layer maps each one to the exact wire detail string §7 requires;
// tests and internal callers branch on these with errors.Is instead of
// comparing strings.
var (
	ErrTopicAlreadyExists = errors.New("topic already exists")
	ErrNotOwner           = errors.New("not the owner of this topic")
	ErrNoSuchTopic        = errors.New("no such topic")
	ErrAlreadySubscribed  = errors.New("already subscribed to this topic")
	ErrNotSubscribed      = errors.New("not subscribed to this topic")
	ErrNoTopicsOwned      = errors.New("publisher owns no topics")
	ErrNoSubscriptions    = errors.New("subscriber has no subscriptions")
	ErrEmptyListing       = errors.New("no topics exist")
)

// detail returns the exact wire-facing string §7 specifies for each
// sentinel error, substituting topicID into the errors whose reference
// text (original_source/src/broker/Broker.java:648,652,696) embeds it.
// Unrecognized errors fall back to their own message.
func detail(err error, topicID string) string {
	switch {
	case errors.Is(err, ErrTopicAlreadyExists):
		return "topic id already exists"
	case errors.Is(err, ErrNotOwner):
		return "you don't have this topic id"
	case errors.Is(err, ErrNoSuchTopic):
		return "topic id " + topicID + " does not exist"
	case errors.Is(err, ErrAlreadySubscribed):
		return "you are already subscribed to " + topicID
	case errors.Is(err, ErrNotSubscribed):
		return "you are not originally subscribed to " + topicID
	case errors.Is(err, ErrNoTopicsOwned):
		return "you have not created any topic"
	case errors.Is(err, ErrNoSubscriptions):
		return "you have no current subscriptions"
	case errors.Is(err, ErrEmptyListing):
		return "no topics available"
	default:
		return err.Error()
	}
}
