package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the owning user's identifier under the key "user_id".
func UserID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("user_id", id)
}

// FileID records a file identifier under the key "file_id".
func FileID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("file_id", id)
}

// StorageKey records a blob key under the key "storage_key".
func StorageKey(key string) slog.Attr {
	return slog.String("storage_key", key)
}

// Component records the subsystem emitting the log line.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}
