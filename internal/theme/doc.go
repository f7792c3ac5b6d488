// Package theme builds the per-kind terminal styles used to draw toasts.
package theme
