package visualization

import "embed"

// templates contains the embedded simulator page.
//
//go:embed templates/*
var templates embed.FS
