// Package appfs embeds the SQL migrations and email templates shipped with the binary.
package appfs

import "embed"

//go:embed migrations/*.sql templates/email/*
var FS embed.FS
