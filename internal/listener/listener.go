// Package listener defines the topology-notification and delivery contract
// a transport binding implements to observe the pipeline. internal/rpc
// ships the one concrete gRPC implementation in this repo.
package listener

// Listener is notified of topology changes and receives the byte buffers a
// subscription produces. Multiple listeners may be registered with a
// Manager; each receives independent notifications.
type Listener interface {
	Start() error
	Stop() error

	ChannelAdded(channelID int)
	ChannelRemoved(channelID int)

	SourceAdded(sourceID int)
	SourceRemoved(sourceID int)

	SubscriptionAdded(subscriptionID int)
	SubscriptionRemoved(subscriptionID int)

	DeliverManifest(subscriptionID int, buf []byte)
	DeliverSample(subscriptionID int, buf []byte)
}
