/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package fixedstruct

import (
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// inferRecordType glob-matches a path's basename against utmp*/wtmp*/
// lastlog* to guess its RecordType when the caller hasn't supplied one.
// This is a SPEC_FULL addition: spec.md §4.4 assumes record_type is
// always given explicitly; the original CLI performs this same inference
// one layer above the Reader, outside its construction path.
func inferRecordType(path string) (RecordType, bool) {
	base := filepath.Base(path)
	switch {
	case matches("utmp*", base), matches("wtmp*", base):
		return Utmpx, true
	case matches("lastlog*", base):
		return Lastlog, true
	default:
		return RecordTypeUnknown, false
	}
}

func matches(pattern, name string) bool {
	ok, err := doublestar.Match(pattern, name)
	return err == nil && ok
}
