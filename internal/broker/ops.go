package broker

import (
	"sort"
	"strconv"

	"github.com/yocccc/publisher-subscriber-system/internal/wire"
)

// CreateTopic implements §4.1 createTopic. Caller holds no lock; this
// method acquires it for its full duration, including the peer fan-out.
func (b *Broker) CreateTopic(topicID, title, publisher string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.topics[topicID]; exists {
		return ErrTopicAlreadyExists
	}
	b.topics[topicID] = &topicEntry{title: title, owner: publisher}
	b.emitSync(wire.Request{
		Command:    wire.CmdSync,
		SyncAction: wire.SyncCreate,
		TopicID:    topicID,
		TopicName:  title,
		Publisher:  publisher,
	})
	return nil
}

// PublishMessage implements §4.1 publishMessage: ownership check, local
// fan-out to every subscriber of the topic connected to this broker, and
// a sync record to every peer.
func (b *Broker) PublishMessage(topicID, message, publisher string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.topics[topicID]
	if !ok || t.owner != publisher {
		return ErrNotOwner
	}
	b.fanOutBroadcast(topicID, t.title, publisher, message)
	b.emitSync(wire.Request{
		Command:    wire.CmdSync,
		SyncAction: wire.SyncPublish,
		TopicID:    topicID,
		Message:    message,
		Publisher:  publisher,
	})
	return nil
}

// DeleteTopic implements §4.1 deleteTopic: ownership check, removal from
// every subscription set, a deleteNotify to every locally connected
// subscriber that held it, and a sync record.
func (b *Broker) DeleteTopic(topicID, publisher string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.topics[topicID]
	if !ok || t.owner != publisher {
		return ErrNotOwner
	}
	b.deleteTopicLocked(topicID, t)
	b.emitSync(wire.Request{
		Command:    wire.CmdSync,
		SyncAction: wire.SyncDelete,
		TopicID:    topicID,
		Publisher:  publisher,
	})
	return nil
}

// deleteTopicLocked removes topicID from the topic table and from every
// subscriber's set, pushing one deleteNotify per affected subscriber.
// Caller must hold mu.
func (b *Broker) deleteTopicLocked(topicID string, t *topicEntry) {
	delete(b.topics, topicID)
	deleted := []wire.DeletedTopic{{TopicID: topicID, Title: t.title, Publisher: t.owner}}
	for subscriber, set := range b.subs {
		if !set[topicID] {
			continue
		}
		delete(set, topicID)
		b.pushDeleteNotify(subscriber, deleted)
	}
}

// Subscribe implements §4.1 subscribe.
func (b *Broker) Subscribe(topicID, subscriber string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.topics[topicID]; !ok {
		return ErrNoSuchTopic
	}
	set := b.subs[subscriber]
	if set == nil {
		set = make(map[string]bool)
		b.subs[subscriber] = set
	}
	if set[topicID] {
		return ErrAlreadySubscribed
	}
	set[topicID] = true
	b.emitSync(wire.Request{
		Command:    wire.CmdSync,
		SyncAction: wire.SyncSubscribe,
		TopicID:    topicID,
		Subscriber: subscriber,
	})
	return nil
}

// Unsubscribe implements §4.1 unsubscribe.
func (b *Broker) Unsubscribe(topicID, subscriber string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	set := b.subs[subscriber]
	if set == nil || !set[topicID] {
		return ErrNotSubscribed
	}
	delete(set, topicID)
	b.emitSync(wire.Request{
		Command:    wire.CmdSync,
		SyncAction: wire.SyncUnsubscribe,
		TopicID:    topicID,
		Subscriber: subscriber,
	})
	return nil
}

// ListTopics implements §4.1 listTopics.
func (b *Broker) ListTopics() ([]wire.TopicInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.topics) == 0 {
		return nil, ErrEmptyListing
	}
	out := make([]wire.TopicInfo, 0, len(b.topics))
	for id, t := range b.topics {
		out = append(out, wire.TopicInfo{TopicID: id, Title: t.title, Publisher: t.owner})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TopicID < out[j].TopicID })
	return out, nil
}

// CountSubscribers implements §4.1 countSubscriber: for every topic owned
// by publisher, how many subscribers currently hold it.
//
// The reference implementation's equivalent loop carries a null-owner
// guard placed inside the per-topic iteration, which only ever fires on a
// HashMap iteration artifact that a Go map lookup cannot reproduce (Open
// Question 2, see DESIGN.md); this is a plain scan with no such guard.
func (b *Broker) CountSubscribers(publisher string) ([]wire.SubscriberCount, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var owned []string
	for id, t := range b.topics {
		if t.owner == publisher {
			owned = append(owned, id)
		}
	}
	if len(owned) == 0 {
		return nil, ErrNoTopicsOwned
	}
	sort.Strings(owned)
	out := make([]wire.SubscriberCount, 0, len(owned))
	for _, id := range owned {
		count := 0
		for _, set := range b.subs {
			if set[id] {
				count++
			}
		}
		out = append(out, wire.SubscriberCount{
			TopicID: id,
			Title:   b.topics[id].title,
			Count:   strconv.Itoa(count),
		})
	}
	return out, nil
}

// ShowCurrentSubscription implements §4.1 showCurrentSubscription.
func (b *Broker) ShowCurrentSubscription(subscriber string) ([]wire.TopicInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	set := b.subs[subscriber]
	if len(set) == 0 {
		return nil, ErrNoSubscriptions
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]wire.TopicInfo, 0, len(ids))
	for _, id := range ids {
		if t, ok := b.topics[id]; ok {
			out = append(out, wire.TopicInfo{TopicID: id, Title: t.title, Publisher: t.owner})
		}
	}
	if len(out) == 0 {
		return nil, ErrNoSubscriptions
	}
	return out, nil
}

// OnPublisherDisconnect implements §4.1 onPublisherDisconnect: deletes
// every topic this publisher owns, batching the resulting deleteNotify
// per subscriber and emitting one sync record for the whole batch.
func (b *Broker) OnPublisherDisconnect(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.publisherConns, name)

	var owned []string
	for id, t := range b.topics {
		if t.owner == name {
			owned = append(owned, id)
		}
	}
	if len(owned) == 0 {
		return
	}
	sort.Strings(owned)

	notifyBySubscriber := make(map[string][]wire.DeletedTopic)
	for _, id := range owned {
		t := b.topics[id]
		delete(b.topics, id)
		for subscriber, set := range b.subs {
			if !set[id] {
				continue
			}
			delete(set, id)
			notifyBySubscriber[subscriber] = append(notifyBySubscriber[subscriber],
				wire.DeletedTopic{TopicID: id, Title: t.title, Publisher: t.owner})
		}
	}
	for subscriber, deleted := range notifyBySubscriber {
		b.pushDeleteNotify(subscriber, deleted)
	}
	b.emitSync(wire.Request{
		Command:    wire.CmdSync,
		SyncAction: wire.SyncDeleteAllTopicsByPublisher,
		TopicIDs:   owned,
		Publisher:  name,
	})
}

// OnSubscriberDisconnect implements §4.1 onSubscriberDisconnect.
func (b *Broker) OnSubscriberDisconnect(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscriberConns, name)
	delete(b.subs, name)
	b.emitSync(wire.Request{
		Command:    wire.CmdSync,
		SyncAction: wire.SyncDeleteAllTopicsBySubscriber,
		Subscriber: name,
	})
}

// fanOutBroadcast pushes a broadcast frame to every subscriber, connected
// to this broker, currently holding topicID. Caller must hold mu.
func (b *Broker) fanOutBroadcast(topicID, title, publisher, message string) {
	for subscriber, set := range b.subs {
		if !set[topicID] {
			continue
		}
		conn, ok := b.subscriberConns[subscriber]
		if !ok {
			continue
		}
		frame := wire.Broadcast{
			MessageType: wire.MsgTypeBroadcast,
			Publisher:   publisher,
			Title:       title,
			TopicID:     topicID,
			Message:     message,
		}
		if err := conn.WriteFrame(frame); err != nil {
			b.log.Errorf("push broadcast to %s: %v", subscriber, err)
		}
	}
}

// pushDeleteNotify sends a deleteNotify to subscriber if it is connected
// to this broker. Caller must hold mu.
func (b *Broker) pushDeleteNotify(subscriber string, deleted []wire.DeletedTopic) {
	conn, ok := b.subscriberConns[subscriber]
	if !ok {
		return
	}
	frame := wire.DeleteNotify{MessageType: wire.MsgTypeDeleteNotify, DeletedTopics: deleted}
	if err := conn.WriteFrame(frame); err != nil {
		b.log.Errorf("push deleteNotify to %s: %v", subscriber, err)
	}
}
