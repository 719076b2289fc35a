// Package messaging is a small broker-agnostic publish/consume API.
//
// Verification events are published through Publisher and consumed by the
// audit module through Consumer. Drivers: NATS (queue subscriptions), Kafka
// (consumer groups), NSQ (channels), Google Pub/Sub (subscriptions) and an
// in-process broker for local runs and tests.
package messaging
