package handlers

import (
	"github.com/nyodera1-source/allivanfresh-whatsapp-bot/database"
)

// Package-level collaborators, wired once at startup.
var (
	DB     *database.DB
	Bot    *Engine
	Dedupe *Deduper
)

// InitializeHandlers wires the shared collaborators.
func InitializeHandlers(db *database.DB, bot *Engine, dedupe *Deduper) {
	DB = db
	Bot = bot
	Dedupe = dedupe
}
