package drive

import (
	"path"
	"regexp"
	"strings"
)

// The allowed character set for keys after pre-normalization: letters,
// digits, hyphen, underscore, exclamation mark, slash, dot and whitespace.
// Everything else (control characters, NUL, shell/URL metacharacters) is
// rejected.
var (
	allowedKeyChars     = regexp.MustCompile(`^[A-Za-z0-9\-_!/.\s]*$`)
	whitespaceRuns      = regexp.MustCompile(`\s+`)
	repeatedSlashes     = regexp.MustCompile(`/{2,}`)
	obfuscatedTraversal = regexp.MustCompile(`\.{3,}/`)
)

// NormalizeKey validates and canonicalizes a caller-supplied key into a safe
// relative path, or fails with a DriveError naming the original input.
//
// The four phases run in a fixed order. Traversal detection has to see the
// backslash- and duplicate-slash-corrected string, before trailing dots and
// slashes are stripped, so that inputs like "..\\" or ".../" cannot slip
// through as harmless segments.
func NormalizeKey(key string) (string, error) {
	// Phase 1: pre-normalize separators and whitespace.
	pre := whitespaceRuns.ReplaceAllString(key, " ")
	pre = strings.ReplaceAll(pre, `\`, "/")
	pre = repeatedSlashes.ReplaceAllString(pre, "/")
	pre = obfuscatedTraversal.ReplaceAllString(pre, "../")

	// Phase 2: character-set validation against the original key.
	if !allowedKeyChars.MatchString(pre) {
		return "", UnallowedCharacters(key)
	}

	// Phase 3: traversal check. Only a segment that is exactly ".." is
	// traversal; "..txt" or "..." are legitimate names.
	for _, segment := range strings.Split(pre, "/") {
		if segment == ".." {
			return "", PathTraversal(key)
		}
	}

	// Phase 4: lexical normalization, then strip one leading and one
	// trailing slash, then one leading and one trailing dot.
	normalized := path.Clean(pre)
	normalized = strings.TrimPrefix(normalized, "/")
	normalized = strings.TrimSuffix(normalized, "/")
	normalized = strings.TrimPrefix(normalized, ".")
	normalized = strings.TrimSuffix(normalized, ".")

	if strings.TrimSpace(normalized) == "" {
		return "", InvalidKey(key)
	}

	// Dot-stripping can manufacture a traversal segment out of a dot run
	// ("...." becomes ".."), so the traversal check runs once more on the
	// final string.
	for _, segment := range strings.Split(normalized, "/") {
		if segment == ".." {
			return "", PathTraversal(key)
		}
	}
	return normalized, nil
}

// normalizePrefix normalizes a listing/deletion prefix. Unlike object keys,
// an empty or "/" prefix is legal and addresses the root.
func normalizePrefix(prefix string) (string, error) {
	if prefix == "" || prefix == "/" {
		return "", nil
	}
	return NormalizeKey(prefix)
}
