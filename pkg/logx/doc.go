// Package logx wraps zerolog behind a small Logger type so the rest of the
// codebase never imports zerolog directly.
package logx
