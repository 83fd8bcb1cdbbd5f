// Package wire defines the newline-delimited JSON frames exchanged between
// publishers, subscribers, brokers and the directory service, and the
// codec used to read and write them over a net.Conn.
package wire

// User types carried in the announce frame.
const (
	RoleSubscriber = "subscriber"
	RolePublisher  = "publisher"
	RoleBroker     = "broker"
	RoleDirectory  = "directory"
)

// Commands a client sends on an operating-state session.
const (
	CmdList                     = "list"
	CmdSubscribe                = "subscribe"
	CmdUnsubscribe              = "unsubscribe"
	CmdShowCurrentSubscription  = "showCurrentSubscription"
	CmdCreate                   = "create"
	CmdPublish                  = "publish"
	CmdDelete                   = "delete"
	CmdCountSubscriber          = "countSubscriber"
	CmdSync                     = "sync"
)

// Sync actions carried on a peer link.
const (
	SyncCreate                       = "create"
	SyncDelete                       = "delete"
	SyncPublish                      = "publish"
	SyncSubscribe                    = "subscribe"
	SyncUnsubscribe                  = "unsubscribe"
	SyncDeleteAllTopicsByPublisher    = "deleteAllTopicsByPublisher"
	SyncDeleteAllTopicsBySubscriber   = "deleteAllTopicsBySubscriber"
)

// Message type tags used to demultiplex frames on a subscriber socket.
const (
	MsgTypeResponse     = "response"
	MsgTypeCurrent      = "current"
	MsgTypeList         = "list"
	MsgTypeBroadcast    = "broadcast"
	MsgTypeDeleteNotify = "deleteNotify"
)

// Result values on a response frame.
const (
	ResultSuccess = "success"
	ResultFailed  = "failed"
)

// Announce is the first frame sent on any newly opened connection.
type Announce struct {
	UserType  string `json:"user type"`
	UserName  string `json:"user name,omitempty"`
	IPAddress string `json:"ip address,omitempty"`
	Port      string `json:"port number,omitempty"`
}

// Request is a command frame sent by a publisher or subscriber once the
// session is in the operating state.
type Request struct {
	Command    string `json:"command"`
	TopicID    string `json:"topic id,omitempty"`
	TopicName  string `json:"topic name,omitempty"`
	Message    string `json:"message,omitempty"`
	SyncAction string `json:"syncAction,omitempty"`
	Publisher  string `json:"publisher,omitempty"`
	Subscriber string `json:"subscriber,omitempty"`
	TopicIDs   []string `json:"topic ids,omitempty"`
	Title      string `json:"title,omitempty"`
}

// Response is the broker's reply to a Request.
type Response struct {
	Result      string      `json:"result"`
	Detail      interface{} `json:"detail"`
	MessageType string      `json:"message type,omitempty"`
}

// TopicInfo is one row of a "list"/"showCurrentSubscription" detail array.
type TopicInfo struct {
	TopicID   string `json:"topic id"`
	Title     string `json:"title"`
	Publisher string `json:"publisher"`
}

// SubscriberCount is one row of a "countSubscriber" detail array.
type SubscriberCount struct {
	TopicID string `json:"topic id"`
	Title   string `json:"title"`
	Count   string `json:"count"`
}

// Broadcast is an asynchronous push delivered to every subscriber of a topic.
type Broadcast struct {
	MessageType string `json:"message type"`
	Publisher   string `json:"publisher"`
	Title       string `json:"title"`
	TopicID     string `json:"topic id"`
	Message     string `json:"message"`
}

// DeletedTopic is one entry of a DeleteNotify's deleted-topic list.
type DeletedTopic struct {
	TopicID   string `json:"topic id"`
	Title     string `json:"title"`
	Publisher string `json:"publisher"`
}

// DeleteNotify is an asynchronous push telling a subscriber that one or
// more topics it held a subscription to have been deleted.
type DeleteNotify struct {
	MessageType   string         `json:"message type"`
	DeletedTopics []DeletedTopic `json:"deleted topic"`
}

// BrokerEntry is one row of a directory registry listing.
type BrokerEntry struct {
	BrokerIP   string `json:"brokerIp"`
	BrokerPort string `json:"brokerPort"`
}

// DirectoryRequest is sent by a broker registering itself, or by a
// publisher/subscriber querying for the current broker list.
type DirectoryRequest struct {
	UserType   string `json:"user type"`
	BrokerIP   string `json:"brokerIp,omitempty"`
	BrokerPort string `json:"brokerPort,omitempty"`
}

// DirectoryResponse answers a DirectoryRequest.
type DirectoryResponse struct {
	UserType string        `json:"user type,omitempty"`
	Brokers  []BrokerEntry `json:"brokers"`
}
