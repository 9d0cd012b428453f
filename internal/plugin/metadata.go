package plugin

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/spadesx/spadesx/pkg/pluginapi"
)

// Metadata limits.
const (
	MaxNameLength        = 64
	MaxDescriptionLength = 512
)

// namePattern validates plugin names: a letter, then letters, digits, spaces,
// dots, underscores or hyphens.
var namePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9 ._-]*$`)

// semverPattern validates version strings (simplified semver).
var semverPattern = regexp.MustCompile(`^\d+\.\d+\.\d+(-[a-zA-Z0-9.-]+)?(\+[a-zA-Z0-9.-]+)?$`)

// ValidateInfo checks the metadata record a plugin exports. The API version is
// checked separately so that a mismatch reports ErrABIMismatch.
func ValidateInfo(info *pluginapi.Info) error {
	if info == nil {
		return fmt.Errorf("%w: info is nil", ErrBadMetadata)
	}

	name := info.Name
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrBadMetadata)
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("%w: name longer than %d bytes", ErrBadMetadata, MaxNameLength)
	}
	if !namePattern.MatchString(name) || strings.TrimSpace(name) != name {
		return fmt.Errorf("%w: invalid name %q", ErrBadMetadata, name)
	}

	if info.Version == "" {
		return fmt.Errorf("%w: version is required", ErrBadMetadata)
	}
	if !semverPattern.MatchString(info.Version) {
		return fmt.Errorf("%w: version %q is not semver", ErrBadMetadata, info.Version)
	}

	if len(info.Description) > MaxDescriptionLength {
		return fmt.Errorf("%w: description longer than %d bytes", ErrBadMetadata, MaxDescriptionLength)
	}
	for _, s := range []string{info.Author, info.Description} {
		if strings.IndexFunc(s, unicode.IsControl) >= 0 {
			return fmt.Errorf("%w: control characters in %q", ErrBadMetadata, s)
		}
	}
	return nil
}

// CheckABI rejects a plugin built against another API version.
func CheckABI(info *pluginapi.Info) error {
	if info.APIVersion != pluginapi.Version {
		return fmt.Errorf("%w: plugin %q wants %d, host provides %d",
			ErrABIMismatch, info.Name, info.APIVersion, pluginapi.Version)
	}
	return nil
}
