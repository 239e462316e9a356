package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"scratchcards/internal/types"
)

var errInvalidSessionID = errors.New("invalid session id")

func sessionFilePath(dir, sessionID string) string {
	return filepath.Join(dir, sessionID+".json")
}

func validSessionID(sessionID string) bool {
	return len(sessionID) >= minSessionIDLen && !strings.ContainsAny(sessionID, `/\.`)
}

// saveSetupToFile persists a session's setup to disk. Rounds are never saved.
var saveSetupToFile = func(dir, sessionID string, setup types.Setup) error {
	if !validSessionID(sessionID) {
		logWarn("Skipping save for invalid session ID: %s", sessionID)
		return errInvalidSessionID
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		logWarn("Failed to create sessions directory %s: %v", dir, err)
		return err
	}

	setup.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(setup, "", "  ")
	if err != nil {
		logWarn("Failed to marshal setup for session %s: %v", sessionID, err)
		return err
	}

	sessionFile := sessionFilePath(dir, sessionID)
	if err := os.WriteFile(sessionFile, data, 0644); err != nil {
		logWarn("Failed to write session file %s: %v", sessionFile, err)
		return err
	}
	logInfo("Saved setup for session %s (%d cards)", sessionID, len(setup.Cards))
	return nil
}

// loadSetupFromFile loads a session's setup from disk. Files older than
// maxAge and files that fail to parse are removed.
var loadSetupFromFile = func(dir, sessionID string, maxAge time.Duration) (types.Setup, error) {
	if !validSessionID(sessionID) {
		return types.Setup{}, os.ErrNotExist
	}

	sessionFile := sessionFilePath(dir, sessionID)
	info, err := os.Stat(sessionFile)
	if err != nil {
		return types.Setup{}, err
	}

	if age := time.Since(info.ModTime()); maxAge > 0 && age > maxAge {
		logInfo("Session file is too old (%v, max: %v), removing: %s", age, maxAge, sessionFile)
		os.Remove(sessionFile)
		return types.Setup{}, os.ErrNotExist
	}

	data, err := os.ReadFile(sessionFile)
	if err != nil {
		logWarn("Failed to read session file %s: %v", sessionFile, err)
		return types.Setup{}, err
	}

	var setup types.Setup
	if err := json.Unmarshal(data, &setup); err != nil {
		logWarn("Session file %s is corrupted, removing: %v", sessionFile, err)
		os.Remove(sessionFile)
		return types.Setup{}, os.ErrNotExist
	}

	if len(setup.Cards) == 0 {
		logWarn("Session file %s has no cards, removing", sessionFile)
		os.Remove(sessionFile)
		return types.Setup{}, os.ErrNotExist
	}

	logInfo("Loaded setup from file: %s (%d cards)", sessionFile, len(setup.Cards))
	return setup, nil
}

// cleanupOldSessions removes session files older than maxAge.
var cleanupOldSessions = func(dir string, maxAge time.Duration) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		logWarn("Failed to read sessions directory: %v", err)
		return err
	}

	cutoff := time.Now().Add(-maxAge)
	removedCount := 0
	errorCount := 0

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			logWarn("Failed to get info for session file %s: %v", entry.Name(), err)
			errorCount++
			continue
		}

		if info.ModTime().Before(cutoff) {
			sessionFile := filepath.Join(dir, entry.Name())
			if err := os.Remove(sessionFile); err != nil {
				logWarn("Failed to remove old session file %s: %v", sessionFile, err)
				errorCount++
			} else {
				removedCount++
			}
		}
	}

	logInfo("Session cleanup completed: removed %d files, %d errors", removedCount, errorCount)
	return nil
}
