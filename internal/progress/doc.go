// Package progress carries conversion progress from producers to a polling
// consumer.
//
// A Stream is created per conversion request. Producers call Send, which never
// blocks; the consumer calls TryReceive once per display tick. Event.Terminal
// marks the last event of a stream. Tracker folds events into consumer state.
package progress
