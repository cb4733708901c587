package gateway

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"
)

// imageNamePattern is the filename fallback for objects stored without an image content type.
var imageNamePattern = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|webp)$`)

// objectName builds "<epoch-millis>-<0..999>.<ext>". ext is whatever follows
// the last dot of the base file name, or the whole base name when there is none.
func objectName(now time.Time, random int, fileName string) string {
	return fmt.Sprintf("%d-%d.%s", now.UnixMilli(), random, extension(fileName))
}

func extension(fileName string) string {
	base := fileName
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndex(base, "."); i >= 0 {
		return base[i+1:]
	}
	return base
}

// nameFromURL extracts the object name from the final path segment of an object URL.
func nameFromURL(raw string) (string, bool) {
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.EscapedPath()
	}
	if p == "" || strings.HasSuffix(p, "/") {
		return "", false
	}
	name := path.Base(p)
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	if name == "" || name == "." || name == "/" {
		return "", false
	}
	return name, true
}

func isImage(name, contentType string) bool {
	return strings.HasPrefix(contentType, "image/") || imageNamePattern.MatchString(name)
}
