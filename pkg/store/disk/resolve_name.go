package disk

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"spmhost/pkg/log"
	"spmhost/pkg/store"

	"github.com/google/uuid"
)

const (
	suffixLength    = 6
	maxNameAttempts = 8
)

// ResolveName returns requested if it is free, otherwise "<stem>-<SUFFIX><ext>".
// The check and the later write are not atomic; two concurrent uploads of the
// same name may both get it and the last rename wins.
func (s *Store) ResolveName(requested string) (string, error) {
	if !ValidateName(requested) {
		return "", store.InvalidNameError{Name: requested}
	}

	taken, err := s.Exists(requested)
	if err != nil {
		return "", err
	}
	if !taken {
		return requested, nil
	}

	ext := filepath.Ext(requested)
	stem := strings.TrimSuffix(requested, ext)

	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		candidate := fmt.Sprintf("%s-%s%s", stem, randomSuffix(), ext)

		taken, err := s.Exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			log.Info().Str("requested", requested).Str("resolved", candidate).Msg("Artifact name collision, using suffixed name")
			return candidate, nil
		}
	}

	return "", fmt.Errorf("no free name for %q after %d attempts: %w", requested, maxNameAttempts, os.ErrExist)
}

func randomSuffix() string {
	return strings.ToUpper(uuid.NewString()[:suffixLength])
}
