package web

import (
	"embed"
)

// staticFiles holds the embedded browser client.
//
//go:embed static/*
var staticFiles embed.FS
