package artifacts

import (
	"fmt"
	"strconv"
	"strings"

	"delivery-eta-service/internal/domain"

	"github.com/cespare/xxhash/v2"
)

// SchemaFingerprint identifies the canonical feature schema this binary derives.
// Artifacts fitted against a different schema are rejected at load.
func SchemaFingerprint() string {
	return fingerprint(domain.SchemaVersion, domain.FeatureColumns)
}

func fingerprint(version int, columns []string) string {
	h := xxhash.New()
	_, _ = h.WriteString("v" + strconv.Itoa(version) + ":")
	_, _ = h.WriteString(strings.Join(columns, ","))
	return fmt.Sprintf("%016x", h.Sum64())
}
