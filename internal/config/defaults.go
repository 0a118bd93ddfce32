package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

const (
	connectTimeout     = 3 * time.Second
	requestTimeout     = 10 * time.Second
	maxRedirects       = 10
	disableCompression = false
	disableRedirects   = false
	disableTLS         = false
	disableJournal     = false
	retries            = 0
	retryDelay         = 500 * time.Millisecond
	parallel           = 4
)

var journalPath = filepath.Join(xdg.DataHome, configFileName, "journal.db")
