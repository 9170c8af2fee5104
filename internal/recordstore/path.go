package recordstore

import (
	"strings"

	pkgerrors "github.com/angelmondragon/foodorder-backend/pkg/errors"
)

// Join builds a record path from segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// normalize trims surrounding slashes and rejects empty or relative segments.
func normalize(path string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(path), "/")
	if clean == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "record path is required")
	}
	for _, segment := range strings.Split(clean, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid record path").
				WithDetails(map[string]any{"path": path})
		}
	}
	return clean, nil
}

func parentOf(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return ""
	}
	return path[:idx]
}

func baseOf(path string) string {
	return path[strings.LastIndex(path, "/")+1:]
}

// covers reports whether a change at changed is visible to a subscriber of watched.
func covers(watched, changed string) bool {
	return watched == changed || strings.HasPrefix(changed, watched+"/")
}
