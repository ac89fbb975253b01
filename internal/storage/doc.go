// Package storage provides persistence for the change history of a monitoring session.
//
// LogFile rewrites the full history as an indented JSON array every time it is
// saved, so the file always holds a complete, valid document. SQLiteMirror
// appends each record to a local SQLite database so several sessions can be
// queried together later.
package storage
