package broker

import "github.com/yocccc/publisher-subscriber-system/internal/wire"

// emitSync forwards req to every peer link currently held. Caller must
// already hold mu — every exported mutation in ops.go calls this from
// inside its own locked section so the mutation and its fan-out are one
// atomic unit, per §5. A write failure to a dead peer is logged, the link
// is closed and evicted from b.peers, and otherwise ignored: per §9/§7,
// peer link failure is non-fatal and the mesh simply partitions until the
// link is reestablished by a later Dial/AcceptAnnounce for that address.
func (b *Broker) emitSync(req wire.Request) {
	for addr, p := range b.peers {
		if err := p.conn.WriteFrame(req); err != nil {
			b.log.Errorf("sync to peer %s: %v", addr, err)
			p.conn.Close()
			delete(b.peers, addr)
		}
	}
}

// ApplySync implements §4.1 applySync / §4.3's per-action table. It is
// invoked by a peer session's sync loop for every "sync" command frame it
// receives, and never re-emits — propagation is strictly one-hop (§4.3).
func (b *Broker) ApplySync(req wire.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch req.SyncAction {
	case wire.SyncCreate:
		b.topics[req.TopicID] = &topicEntry{title: req.TopicName, owner: req.Publisher}

	case wire.SyncDelete:
		t, ok := b.topics[req.TopicID]
		if !ok || t.owner != req.Publisher {
			return
		}
		b.deleteTopicLocked(req.TopicID, t)

	case wire.SyncPublish:
		t, ok := b.topics[req.TopicID]
		if !ok {
			return
		}
		b.fanOutBroadcast(req.TopicID, t.title, req.Publisher, req.Message)

	case wire.SyncSubscribe:
		if _, ok := b.topics[req.TopicID]; !ok {
			return
		}
		set := b.subs[req.Subscriber]
		if set == nil {
			set = make(map[string]bool)
			b.subs[req.Subscriber] = set
		}
		set[req.TopicID] = true

	case wire.SyncUnsubscribe:
		if set := b.subs[req.Subscriber]; set != nil {
			delete(set, req.TopicID)
		}

	case wire.SyncDeleteAllTopicsByPublisher:
		for _, id := range req.TopicIDs {
			t, ok := b.topics[id]
			if !ok || t.owner != req.Publisher {
				continue
			}
			b.deleteTopicLocked(id, t)
		}

	case wire.SyncDeleteAllTopicsBySubscriber:
		delete(b.subs, req.Subscriber)
	}
}
