// Package notifier delivers seat change notifications.
//
// A Notifier takes a title and a message. Implementations post to the
// desktop notification center, to a Telegram chat, or print to a writer in
// dry-run mode. Throttled wraps any Notifier with a token bucket so a
// flapping seat map cannot flood the user.
package notifier
