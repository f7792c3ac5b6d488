// Package display owns the set of toasts currently on screen.
//
// The Manager keeps a bounded, ordered sequence of active toasts. Each toast
// moves through Entering, Visible, Exiting and Removed on its own timers. When
// the sequence is full the oldest toast is evicted immediately, skipping its
// exit animation. Rendering is left to subscribers of the Manager.
package display
