// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package rate

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint returns a short stable digest of a key identity. Identities
// are credentials, anything that ends up in logs, errors or metric labels
// carries the fingerprint instead.
func Fingerprint(identity string) string {
	return strconv.FormatUint(xxhash.Sum64String(identity), 16)
}
